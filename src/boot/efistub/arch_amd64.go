//go:build amd64

package efistub

import (
	"github.com/ggracechoi/unikraft/src/lib/memregion"
)

// Legacy PC memory below 1MiB: the VGA window, option ROMs, the EBDA.
// The firmware map does not always mention it, but nothing may ever
// allocate there.
const (
	legacyHiMemBase = uint64(0xA0000)
	legacyHiMemEnd  = uint64(0x100000)
)

// startupVectorBase is the real-mode page the application processors
// start executing at after a SIPI.  It must stay out of the free list
// even though the snapshot reports it as conventional memory.
const startupVectorBase = uint64(0x8000)

func (s *Session) defaultArchHooks() {
	s.archInsertLegacyHiMem = insertLegacyHiMem
	s.archReserveStartupVector = reserveStartupVector
}

func insertLegacyHiMem(l *memregion.List) error {
	return l.Insert(memregion.Region{
		PBase: legacyHiMemBase,
		VBase: legacyHiMemBase,
		Len:   legacyHiMemEnd - legacyHiMemBase,
		Type:  memregion.RegionReserved,
		Flags: memregion.FlagRead | memregion.FlagWrite | memregion.FlagMap,
	})
}

func reserveStartupVector(l *memregion.List) error {
	return l.Insert(memregion.Region{
		PBase: startupVectorBase,
		VBase: startupVectorBase,
		Len:   memregion.PageSize,
		Type:  memregion.RegionReserved,
		Flags: memregion.FlagRead | memregion.FlagWrite | memregion.FlagExecute | memregion.FlagMap,
	})
}
