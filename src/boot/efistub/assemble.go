package efistub

import (
	"github.com/ggracechoi/unikraft/src/boot/efi"
	"github.com/ggracechoi/unikraft/src/lib/bootinfo"
	"github.com/ggracechoi/unikraft/src/lib/trust"
)

// setupMemoryRegions builds the region list in the order the pieces
// must land: arch quirks first, then the attribute table refinements,
// then the memory map snapshot taken while retiring boot services,
// then the arch reservations that must survive coalescing.  Past the
// snapshot boot services are gone, so everything after it runs on
// memory already in hand.
func (s *Session) setupMemoryRegions(bi *bootinfo.BootInfo) {
	if s.archInsertLegacyHiMem != nil {
		if err := s.archInsertLegacyHiMem(bi.Regions); err != nil {
			s.crash("failed to insert legacy high memory: %v", err)
		}
	}

	rts, scratch := s.runtimeRegionsFromMAT()
	for i := range rts {
		if err := bi.InsertRegion(rts[i]); err != nil {
			s.crash("failed to insert runtime service region: %v", err)
		}
	}
	if scratch != nil {
		if st := s.bs.FreePool(scratch); st != efi.Success {
			s.crash("failed to free attribute table scratch: %s", st)
		}
	}

	buf, info := s.acquireMapAndExitBootServices()
	for off := uint64(0); off+info.DescriptorSize <= info.MapSize; off += info.DescriptorSize {
		var md efi.MemoryDescriptor
		if err := md.UnmarshalBinary(buf.Data[off:]); err != nil {
			s.crash("truncated memory map at offset %d: %v", off, err)
		}
		r, err := translateDescriptor(&md, s.matPresent)
		if err != nil {
			continue
		}
		if err := bi.InsertRegion(r); err != nil {
			s.crash("failed to insert memory region %s: %v", &r, err)
		}
	}
	bi.Regions.Coalesce()

	if s.archReserveStartupVector != nil {
		if err := s.archReserveStartupVector(bi.Regions); err != nil {
			s.crash("failed to reserve the startup vector: %v", err)
		}
	}
}

// populateBootInfo fills in the whole handoff record for the next
// stage.  The payloads go first so their allocations are still visible
// to the snapshot as loader memory; the region list comes last because
// building it retires boot services.
func (s *Session) populateBootInfo(bi *bootinfo.BootInfo) {
	bi.Bootloader = bootloaderName
	bi.Bootprotocol = bootProtocolName

	s.setupCmdline(bi)
	s.setupInitrd(bi)
	s.setupDevicetree(bi)
	trust.Debugf("payloads staged, taking the memory map")
	s.setupMemoryRegions(bi)

	bi.EFISystemTable = uint64(s.st.Addr)
	bi.Finalize()
}
