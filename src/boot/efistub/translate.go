package efistub

import (
	"errors"

	"github.com/ggracechoi/unikraft/src/boot/efi"
	"github.com/ggracechoi/unikraft/src/lib/memregion"
)

var (
	// errSkipDescriptor marks descriptors that carry no information the
	// next stage needs, or that were already represented another way.
	errSkipDescriptor = errors.New("descriptor not represented")

	// errInvalidDescriptor marks descriptors that cannot describe a
	// usable region at all.
	errInvalidDescriptor = errors.New("descriptor unusable")
)

// translateDescriptor maps one firmware memory descriptor to a region
// for the next boot stage.  matPresent tells it whether runtime
// service ranges were already inserted from the memory attributes
// table; if they were, the coarse descriptors for those ranges are
// skipped rather than overlapped.
func translateDescriptor(md *efi.MemoryDescriptor, matPresent bool) (memregion.Region, error) {
	var r memregion.Region

	switch md.Type {
	case efi.EfiReservedMemoryType,
		efi.EfiACPIReclaimMemory,
		efi.EfiUnusableMemory,
		efi.EfiACPIMemoryNVS,
		efi.EfiPalCode,
		efi.EfiPersistentMemory:
		r.Type = memregion.RegionReserved
		r.Flags = memregion.FlagRead | memregion.FlagMap

	case efi.EfiMemoryMappedIO,
		efi.EfiMemoryMappedIOPortSpace:
		r.Type = memregion.RegionReserved
		r.Flags = memregion.FlagRead | memregion.FlagWrite | memregion.FlagMap

	case efi.EfiRuntimeServicesCode,
		efi.EfiRuntimeServicesData:
		if matPresent {
			return r, errSkipDescriptor
		}
		// Without an attribute table the real permissions are unknown.
		// Keep the ranges mapped writable so runtime calls still work.
		r.Type = memregion.RegionReserved
		r.Flags = memregion.FlagRead | memregion.FlagWrite | memregion.FlagMap

	case efi.EfiLoaderCode, efi.EfiLoaderData:
		// That is us: the image, the stack, everything allocated during
		// this handoff.  Those carry their own regions already.
		return r, errSkipDescriptor

	case efi.EfiBootServicesCode,
		efi.EfiBootServicesData,
		efi.EfiConventionalMemory:
		r.Type = memregion.RegionFree
		r.Flags = memregion.FlagRead | memregion.FlagWrite

	default:
		return r, errInvalidDescriptor
	}

	start := uint64(md.PhysicalStart)
	end := start + md.NumberOfPages*efi.PageSize
	// Never hand out the zero page, whatever the firmware says.
	if start < memregion.PageSize {
		start = memregion.PageSize
	}
	if end <= start || end-start < memregion.PageSize {
		return r, errInvalidDescriptor
	}

	r.PBase = start
	r.VBase = start
	r.Len = end - start
	return r, nil
}
