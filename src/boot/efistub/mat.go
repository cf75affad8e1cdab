package efistub

import (
	"github.com/ggracechoi/unikraft/src/boot/efi"
	"github.com/ggracechoi/unikraft/src/lib/memregion"
	"github.com/ggracechoi/unikraft/src/lib/trust"
)

// runtimeRegionsFromMAT derives runtime service regions from the
// memory attributes table, when the firmware publishes one.  The table
// refines the coarse memory map: it splits runtime ranges into code
// and data with real execute/write permissions, so the next stage can
// map them tighter than read-write-everything.
//
// Returns the derived regions plus the pool scratch they were staged
// through; the caller frees the scratch once the regions are inserted.
// Both are nil when no table was published, and s.matPresent records
// which case we are in for the later map walk.
func (s *Session) runtimeRegionsFromMAT() ([]memregion.Region, *efi.Buffer) {
	mat, ok := s.st.ConfigTable(efi.MemoryAttributesTableGUID).(*efi.MemoryAttributesTable)
	if !ok || mat == nil {
		trust.Debugf("no memory attributes table published")
		return nil, nil
	}
	s.matPresent = true

	count := int(mat.NumberOfEntries)
	if count == 0 {
		return nil, nil
	}
	scratch, st := s.bs.AllocatePool(efi.EfiLoaderData,
		uint64(count)*uint64(mat.DescriptorSize))
	if st != efi.Success {
		s.crash("failed to allocate attribute table scratch: %s", st)
	}

	regions := make([]memregion.Region, 0, count)
	for i := 0; i < count; i++ {
		md, err := mat.EntryAt(i)
		if err != nil {
			s.crash("malformed memory attributes table: %v", err)
		}
		if md.Attribute&efi.MemoryRuntime == 0 {
			continue
		}

		flags := memregion.FlagMap
		switch {
		case md.Attribute&efi.MemoryXP != 0 && md.Attribute&efi.MemoryRO != 0:
			flags |= memregion.FlagRead
		case md.Attribute&efi.MemoryXP != 0:
			flags |= memregion.FlagRead | memregion.FlagWrite
		default:
			flags |= memregion.FlagRead | memregion.FlagExecute
		}

		regions = append(regions, memregion.Region{
			PBase: uint64(md.PhysicalStart),
			VBase: uint64(md.PhysicalStart),
			Len:   md.NumberOfPages * efi.PageSize,
			Type:  memregion.RegionReserved,
			Flags: flags,
		})
	}
	return regions, scratch
}
