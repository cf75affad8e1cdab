// Package bootinfo holds the boot record: the kernel-owned, post-handoff
// description of the machine that the rest of the kernel trusts for its
// whole life.  It is created once, populated exactly once by the boot
// stub, and never mutated after Finalize.
package bootinfo

import (
	"github.com/ggracechoi/unikraft/src/lib/memregion"
)

// MaxRegions bounds the boot record's region list.  The firmware map on
// the machines we target stays well under this even before coalescing.
const MaxRegions = 128

type BootInfo struct {
	// Identity tags: which loader produced this record and which boot
	// protocol carried it.
	Bootloader   string
	Bootprotocol string

	Regions *memregion.List

	// Command line bytes as handed over, if any.
	Cmdline    uint64
	CmdlineLen uint64

	// Flattened device tree, if any.
	DTB uint64

	// The firmware system table pointer is the only firmware interaction
	// that survives handoff (reboot, variable access).
	EFISystemTable uint64

	finalized bool
}

var instance *BootInfo

// Get returns the boot record singleton, creating it on first use.
func Get() *BootInfo {
	if instance == nil {
		instance = New()
	}
	return instance
}

// New returns a fresh, unpopulated boot record.  Everything outside of
// tests wants Get instead.
func New() *BootInfo {
	return &BootInfo{Regions: memregion.NewList(MaxRegions)}
}

// Finalize seals the record.  Populating an already sealed record is a
// programming error, not a runtime condition.
func (b *BootInfo) Finalize() {
	if b.finalized {
		panic("bootinfo: record finalized twice")
	}
	b.finalized = true
}

// Finalized reports whether the record has been sealed.
func (b *BootInfo) Finalized() bool {
	return b.finalized
}

// InsertRegion adds a region to the record, refusing once sealed.
func (b *BootInfo) InsertRegion(r memregion.Region) error {
	if b.finalized {
		panic("bootinfo: insert into finalized record")
	}
	return b.Regions.Insert(r)
}
