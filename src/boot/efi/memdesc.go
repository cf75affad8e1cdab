package efi

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// EFI_MEMORY_TYPE
type MemoryType uint32

const (
	EfiReservedMemoryType MemoryType = iota
	EfiLoaderCode
	EfiLoaderData
	EfiBootServicesCode
	EfiBootServicesData
	EfiRuntimeServicesCode
	EfiRuntimeServicesData
	EfiConventionalMemory
	EfiUnusableMemory
	EfiACPIReclaimMemory
	EfiACPIMemoryNVS
	EfiMemoryMappedIO
	EfiMemoryMappedIOPortSpace
	EfiPalCode
	EfiPersistentMemory
	EfiMaxMemoryType
)

// Memory descriptor attribute bits.  Only the three the handoff engine
// interprets are named; cacheability bits are carried opaquely.
const (
	MemoryXP      = uint64(0x4000)
	MemoryRO      = uint64(0x20000)
	MemoryRuntime = uint64(1) << 63
)

// DescriptorWireSize is the packed size of one memory descriptor.  The
// firmware reports its own stride, which may be larger; the map must be
// walked with the reported stride, never this constant.
const DescriptorWireSize = 40

// MemoryDescriptor is one firmware memory map entry.  It is only valid
// while the buffer it was decoded from is: after boot-service exit the
// firmware's own copy of the map is gone.
type MemoryDescriptor struct {
	Type          MemoryType
	_             uint32
	PhysicalStart PhysAddr
	VirtualStart  VirtAddr
	NumberOfPages uint64
	Attribute     uint64
}

// PhysicalEnd returns the first address past the described range.
func (d *MemoryDescriptor) PhysicalEnd() PhysAddr {
	return d.PhysicalStart + PhysAddr(d.NumberOfPages*PageSize)
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (d *MemoryDescriptor) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	err := binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes(), err
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (d *MemoryDescriptor) UnmarshalBinary(data []byte) error {
	if len(data) < DescriptorWireSize {
		return errors.New("memory descriptor truncated")
	}
	return binary.Read(bytes.NewReader(data[:DescriptorWireSize]),
		binary.LittleEndian, d)
}

// MemoryAttributesTable is the optional configuration table that breaks
// runtime-service memory down by section with real permissions, at a
// granularity the primary map cannot express.  Entries are raw bytes
// walked at the table's own stride, which is independent of the primary
// map's stride.
type MemoryAttributesTable struct {
	Version         uint32
	NumberOfEntries uint32
	DescriptorSize  uint32
	Entries         []byte
}

// EntryAt decodes entry i.
func (t *MemoryAttributesTable) EntryAt(i int) (MemoryDescriptor, error) {
	var d MemoryDescriptor
	off := i * int(t.DescriptorSize)
	if i < 0 || i >= int(t.NumberOfEntries) || off+DescriptorWireSize > len(t.Entries) {
		return d, errors.New("attribute table entry out of range")
	}
	err := d.UnmarshalBinary(t.Entries[off:])
	return d, err
}
