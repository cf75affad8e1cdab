// Package simfw is an in-memory firmware good enough to boot against.
// It implements the efi service interfaces over plain Go state so the
// handoff engine can be exercised on a host, including the awkward
// parts of the real thing: the memory map growing when the map buffer
// itself is allocated, the map key going stale, and boot services
// disappearing at exit.
package simfw

import (
	"fmt"

	"github.com/ggracechoi/unikraft/src/boot/efi"
)

// ResetRecord is what ResetSystem captured.  ResetSystem cannot return,
// so it panics with one of these; CatchReset recovers it.
type ResetRecord struct {
	Type   efi.ResetType
	Status efi.Status
	Data   string
}

type allocKind int

const (
	allocPages allocKind = iota
	allocPool
)

type allocation struct {
	kind allocKind
	desc efi.MemoryDescriptor
}

// Firmware is one simulated machine.  Populate the public fields before
// calling SystemTable; the zero value of everything else is ready.
type Firmware struct {
	ImageHandle  efi.Handle
	DeviceHandle efi.Handle

	// MapEntries is the static part of the memory map.  Live
	// allocations appear as additional loader-data descriptors, the
	// way a real map grows underneath its own snapshot.
	MapEntries []efi.MemoryDescriptor
	MapStride  uint64

	// ExitFailures makes that many ExitBootServices calls fail with a
	// stale-map-key style InvalidParameter before one may succeed.
	ExitFailures int

	// MAT, when set, is published in the configuration table
	// directory under MemoryAttributesTableGUID.
	MAT *efi.MemoryAttributesTable

	// LoadOptions is handed out through the loaded-image protocol as
	// raw UTF-16LE bytes.
	LoadOptions []byte

	// Files maps backslash paths to contents for the boot volume.
	Files map[string][]byte

	// Variables seeds the variable store, keyed by guid/name.
	Variables map[string][]byte
	VarAttrs  map[string]uint32

	// VariableStoreBroken makes every variable call answer
	// Unsupported.
	VariableStoreBroken bool

	// Observability for tests.
	Console     []string
	Cleared     int
	CallLog     []string
	PageAllocs  int
	PoolAllocs  int
	FreedPages  int
	FreedPool   int
	SetVarCalls int

	mapKey   uint64
	nextAddr efi.PhysAddr
	live     map[*efi.Buffer]allocation
	exited   bool
	st       *efi.SystemTable
	img      *efi.LoadedImage
}

// New returns a firmware with empty state and sensible handles.
func New() *Firmware {
	return &Firmware{
		ImageHandle:  0x1001,
		DeviceHandle: 0x2002,
		MapStride:    efi.DescriptorWireSize + 8,
		Files:        map[string][]byte{},
		Variables:    map[string][]byte{},
		VarAttrs:     map[string]uint32{},
	}
}

// SystemTable builds (once) the root table wired to this firmware.
func (fw *Firmware) SystemTable() *efi.SystemTable {
	if fw.st != nil {
		return fw.st
	}
	if fw.live == nil {
		fw.live = map[*efi.Buffer]allocation{}
	}
	if fw.nextAddr == 0 {
		fw.nextAddr = 0x4000000
	}
	cfg := []efi.ConfigurationTable{}
	if fw.MAT != nil {
		cfg = append(cfg, efi.ConfigurationTable{
			VendorGUID:  efi.MemoryAttributesTableGUID,
			VendorTable: fw.MAT,
		})
	}
	fw.st = &efi.SystemTable{
		Addr:               0x7ff00000,
		ConOut:             (*console)(fw),
		BootServices:       (*bootServices)(fw),
		RuntimeServices:    (*runtimeServices)(fw),
		ConfigurationTable: cfg,
	}
	return fw.st
}

// Exited reports whether ExitBootServices has succeeded.
func (fw *Firmware) Exited() bool {
	return fw.exited
}

// LiveAllocations counts buffers the firmware believes are still
// outstanding.  After handoff these belong to the kernel.
func (fw *Firmware) LiveAllocations() int {
	return len(fw.live)
}

// Memory returns the contents of the allocation starting at addr, or
// nil if no live allocation starts there.  Allocations handed over to
// the next stage stay live forever, so this works after exit too.
func (fw *Firmware) Memory(addr efi.PhysAddr) []byte {
	for b := range fw.live {
		if b.Addr == addr {
			return b.Data
		}
	}
	return nil
}

// CatchReset runs fn and recovers the ResetRecord if it resets.  A nil
// result means fn came back without resetting.
func (fw *Firmware) CatchReset(fn func()) (rec *ResetRecord) {
	defer func() {
		if r := recover(); r != nil {
			if rr, ok := r.(ResetRecord); ok {
				rec = &rr
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}

func (fw *Firmware) call(name string) {
	fw.CallLog = append(fw.CallLog, name)
}

func (fw *Firmware) checkServicesUp(name string) {
	if fw.exited {
		panic("boot service " + name + " called after ExitBootServices")
	}
}

// effectiveMap is the map as the firmware would report it right now:
// the static entries plus one descriptor per live allocation.
func (fw *Firmware) effectiveMap() []efi.MemoryDescriptor {
	out := append([]efi.MemoryDescriptor{}, fw.MapEntries...)
	for _, a := range fw.live {
		out = append(out, a.desc)
	}
	return out
}

func varKey(guid efi.GUID, name string) string {
	return fmt.Sprintf("%s/%s", guid, name)
}

// SeedVariable installs a firmware variable before boot.
func (fw *Firmware) SeedVariable(guid efi.GUID, name string, attrs uint32, data []byte) {
	key := varKey(guid, name)
	fw.Variables[key] = append([]byte{}, data...)
	fw.VarAttrs[key] = attrs
}

// Variable reads back a firmware variable by guid and name.
func (fw *Firmware) Variable(guid efi.GUID, name string) (data []byte, attrs uint32, ok bool) {
	key := varKey(guid, name)
	data, ok = fw.Variables[key]
	return data, fw.VarAttrs[key], ok
}
