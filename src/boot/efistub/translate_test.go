package efistub

import (
	"testing"

	"github.com/ggracechoi/unikraft/src/boot/efi"
	"github.com/ggracechoi/unikraft/src/lib/memregion"
)

func desc(t efi.MemoryType, start uint64, pages uint64) efi.MemoryDescriptor {
	return efi.MemoryDescriptor{
		Type:          t,
		PhysicalStart: efi.PhysAddr(start),
		NumberOfPages: pages,
	}
}

func TestTranslateClassification(t *testing.T) {
	const (
		rm   = memregion.FlagRead | memregion.FlagMap
		rwm  = memregion.FlagRead | memregion.FlagWrite | memregion.FlagMap
		rw   = memregion.FlagRead | memregion.FlagWrite
		none = memregion.RegionType(0)
	)
	cases := []struct {
		name  string
		mt    efi.MemoryType
		mat   bool
		rt    memregion.RegionType
		flags memregion.RegionFlag
		err   error
	}{
		{"reserved", efi.EfiReservedMemoryType, false, memregion.RegionReserved, rm, nil},
		{"acpi-reclaim", efi.EfiACPIReclaimMemory, false, memregion.RegionReserved, rm, nil},
		{"unusable", efi.EfiUnusableMemory, false, memregion.RegionReserved, rm, nil},
		{"acpi-nvs", efi.EfiACPIMemoryNVS, false, memregion.RegionReserved, rm, nil},
		{"pal", efi.EfiPalCode, false, memregion.RegionReserved, rm, nil},
		{"persistent", efi.EfiPersistentMemory, false, memregion.RegionReserved, rm, nil},
		{"mmio", efi.EfiMemoryMappedIO, false, memregion.RegionReserved, rwm, nil},
		{"port-space", efi.EfiMemoryMappedIOPortSpace, false, memregion.RegionReserved, rwm, nil},
		{"rt-code-coarse", efi.EfiRuntimeServicesCode, false, memregion.RegionReserved, rwm, nil},
		{"rt-data-coarse", efi.EfiRuntimeServicesData, false, memregion.RegionReserved, rwm, nil},
		{"rt-code-refined", efi.EfiRuntimeServicesCode, true, none, 0, errSkipDescriptor},
		{"rt-data-refined", efi.EfiRuntimeServicesData, true, none, 0, errSkipDescriptor},
		{"loader-code", efi.EfiLoaderCode, false, none, 0, errSkipDescriptor},
		{"loader-data", efi.EfiLoaderData, true, none, 0, errSkipDescriptor},
		{"bs-code", efi.EfiBootServicesCode, false, memregion.RegionFree, rw, nil},
		{"bs-data", efi.EfiBootServicesData, false, memregion.RegionFree, rw, nil},
		{"conventional", efi.EfiConventionalMemory, false, memregion.RegionFree, rw, nil},
		{"unknown", efi.EfiMaxMemoryType, false, none, 0, errInvalidDescriptor},
		{"garbage", efi.MemoryType(0x7fffffff), true, none, 0, errInvalidDescriptor},
	}
	for _, c := range cases {
		md := desc(c.mt, 0x100000, 4)
		r, err := translateDescriptor(&md, c.mat)
		if err != c.err {
			t.Errorf("%s: got error %v, want %v", c.name, err, c.err)
			continue
		}
		if err != nil {
			continue
		}
		if r.Type != c.rt || r.Flags != c.flags {
			t.Errorf("%s: got %s/%s, want %s/%s", c.name, r.Type, r.Flags, c.rt, c.flags)
		}
		if r.PBase != 0x100000 || r.VBase != 0x100000 || r.Len != 4*efi.PageSize {
			t.Errorf("%s: bad extent %s", c.name, &r)
		}
	}
}

func TestTranslateClampsZeroPage(t *testing.T) {
	md := desc(efi.EfiConventionalMemory, 0, 4)
	r, err := translateDescriptor(&md, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.PBase != memregion.PageSize {
		t.Errorf("base not clamped past the zero page: %#x", r.PBase)
	}
	if r.VBase != r.PBase {
		t.Errorf("identity mapping broken: vbase %#x pbase %#x", r.VBase, r.PBase)
	}
	if r.Len != 3*efi.PageSize {
		t.Errorf("length not shrunk with the clamp: %#x", r.Len)
	}
}

func TestTranslateRejectsDegenerateExtents(t *testing.T) {
	// A single page at zero clamps itself out of existence.
	md := desc(efi.EfiConventionalMemory, 0, 1)
	if _, err := translateDescriptor(&md, false); err != errInvalidDescriptor {
		t.Errorf("zero-page-only descriptor: got %v, want errInvalidDescriptor", err)
	}

	// No pages at all.
	md = desc(efi.EfiBootServicesData, 0x200000, 0)
	if _, err := translateDescriptor(&md, false); err != errInvalidDescriptor {
		t.Errorf("empty descriptor: got %v, want errInvalidDescriptor", err)
	}

	// Wrapping past the end of the address space.
	md = desc(efi.EfiConventionalMemory, ^uint64(0)&^(efi.PageSize-1), 2)
	if _, err := translateDescriptor(&md, false); err != errInvalidDescriptor {
		t.Errorf("wrapping descriptor: got %v, want errInvalidDescriptor", err)
	}
}
