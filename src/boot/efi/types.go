// Package efi models the slice of the UEFI firmware ABI a unikernel
// boot stub consumes: memory map queries, page and pool allocation,
// boot-service exit, protocol lookup, variables and reset.  The service
// tables are interfaces so that this package stays host-testable and
// the bindings to real firmware stay at the edges.
package efi

import "fmt"

// PageSize is the allocation granule of the firmware page allocator.
const PageSize = uint64(0x1000)

// PhysAddr is a physical address as the firmware reports it.
type PhysAddr uint64

// VirtAddr is a firmware-reported virtual address.
type VirtAddr uint64

// Handle is an opaque reference to a firmware object: the running
// image, a device, an opened protocol.
type Handle uint64

// GUID identifies protocols and configuration table entries.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func (g GUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

var (
	LoadedImageProtocolGUID = GUID{0x5b1b31a1, 0x9562, 0x11d2,
		[8]byte{0x8e, 0x3f, 0x00, 0xa0, 0xc9, 0x69, 0x72, 0x3b}}

	SimpleFileSystemProtocolGUID = GUID{0x964e5b22, 0x6459, 0x11d2,
		[8]byte{0x8e, 0x39, 0x00, 0xa0, 0xc9, 0x69, 0x72, 0x3b}}

	FileInfoGUID = GUID{0x09576e92, 0x6d3f, 0x11d2,
		[8]byte{0x8e, 0x39, 0x00, 0xa0, 0xc9, 0x69, 0x72, 0x3b}}

	MemoryAttributesTableGUID = GUID{0xdcfa911d, 0x26eb, 0x469f,
		[8]byte{0xa2, 0x20, 0x38, 0xb7, 0xdc, 0x46, 0x12, 0x20}}

	MemoryOnlyResetControlGUID = GUID{0xe20939be, 0x32d4, 0x41be,
		[8]byte{0xa1, 0x50, 0x89, 0x7f, 0x85, 0xd4, 0x98, 0x29}}
)

// Buffer is firmware-allocated memory.  While boot services are up the
// firmware owns the address space bookkeeping; once they are exited,
// ownership of every live buffer transfers permanently to the kernel.
type Buffer struct {
	Addr PhysAddr
	Data []byte
}

// Pages returns how many firmware pages the buffer spans.
func (b *Buffer) Pages() uint64 {
	return PagesFor(uint64(len(b.Data)))
}

// PagesFor returns the page count covering n bytes.
func PagesFor(n uint64) uint64 {
	return (n + PageSize - 1) / PageSize
}
