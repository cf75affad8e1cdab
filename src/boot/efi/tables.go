package efi

// ConfigurationTable is one entry of the system table's configuration
// table directory; VendorTable's concrete type depends on the GUID.
type ConfigurationTable struct {
	VendorGUID  GUID
	VendorTable interface{}
}

// SystemTable is the firmware's root object.  Addr is where the table
// lives in physical memory; it is recorded in the boot record because
// it is the only firmware reference that stays meaningful after
// boot-service exit.
type SystemTable struct {
	Addr               PhysAddr
	ConOut             TextOutput
	BootServices       BootServices
	RuntimeServices    RuntimeServices
	ConfigurationTable []ConfigurationTable
}

// ConfigTable returns the vendor table registered under guid, or nil.
func (st *SystemTable) ConfigTable(guid GUID) interface{} {
	for i := range st.ConfigurationTable {
		if st.ConfigurationTable[i].VendorGUID == guid {
			return st.ConfigurationTable[i].VendorTable
		}
	}
	return nil
}

// TextOutput is the firmware console.  It speaks UTF-16 and is only
// usable while boot services are up.
type TextOutput interface {
	OutputString(s []uint16) Status
	ClearScreen() Status
}

// EFI_ALLOCATE_TYPE
type AllocateType uint32

const (
	AllocateAnyPages AllocateType = iota
	AllocateMaxAddress
	AllocateAddress
)

// MemoryMapInfo carries the bookkeeping GetMemoryMap reports alongside
// the map bytes themselves.
type MemoryMapInfo struct {
	MapSize           uint64
	MapKey            uint64
	DescriptorSize    uint64
	DescriptorVersion uint32
}

// BootServices is the firmware subsystem that exists only pre-handoff.
// Every method is synchronous by contract.  After a successful
// ExitBootServices none of these may be called again.
type BootServices interface {
	// GetMemoryMap writes the current memory map into buf and returns
	// its bookkeeping.  A nil buf is the dummy query: the returned
	// MapSize is the space required and the status is BufferTooSmall.
	// A too-small buf gets the same treatment.
	GetMemoryMap(buf *Buffer) (MemoryMapInfo, Status)

	// AllocatePages allocates whole pages.  AllocateMaxAddress keeps
	// the allocation at or below max; AllocateAnyPages ignores it.
	AllocatePages(at AllocateType, mt MemoryType, pages uint64, max PhysAddr) (*Buffer, Status)

	// FreePages returns a page allocation to the firmware.
	FreePages(b *Buffer) Status

	// AllocatePool allocates byte-granular scratch memory.
	AllocatePool(mt MemoryType, size uint64) (*Buffer, Status)

	// FreePool returns a pool allocation to the firmware.
	FreePool(b *Buffer) Status

	// HandleProtocol returns the protocol interface registered on a
	// handle under guid.  The concrete type depends on the GUID:
	// *LoadedImage for LoadedImageProtocolGUID, SimpleFileSystem for
	// SimpleFileSystemProtocolGUID.
	HandleProtocol(h Handle, guid GUID) (interface{}, Status)

	// ExitBootServices is the one-way handoff.  The mapKey must come
	// from the most recent GetMemoryMap; a stale key means the map
	// changed concurrently and the call fails with InvalidParameter.
	ExitBootServices(image Handle, mapKey uint64) Status
}

// EFI_RESET_TYPE
type ResetType uint32

const (
	ResetCold ResetType = iota
	ResetWarm
	ResetShutdown
	ResetPlatformSpecific
)

// Variable attribute bits for SetVariable.
const (
	VariableNonVolatile       = uint32(0x1)
	VariableBootServiceAccess = uint32(0x2)
	VariableRuntimeAccess     = uint32(0x4)
)

// RuntimeServices is the firmware subsystem whose code and data stay
// mapped and callable after handoff.
type RuntimeServices interface {
	// GetVariable reads a firmware variable.  Name is UTF-16 without
	// the terminator.  NotFound and Unsupported are anticipated
	// outcomes, not protocol violations.
	GetVariable(name []uint16, guid GUID) (data []byte, attrs uint32, st Status)

	// SetVariable writes a firmware variable.
	SetVariable(name []uint16, guid GUID, attrs uint32, data []byte) Status

	// ResetSystem resets the platform.  It does not return.
	ResetSystem(rt ResetType, st Status, data []byte)
}
