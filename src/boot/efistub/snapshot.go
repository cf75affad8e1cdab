package efistub

import (
	"github.com/ggracechoi/unikraft/src/boot/efi"
	"github.com/ggracechoi/unikraft/src/lib/trust"
)

// acquireMapAndExitBootServices runs the snapshot protocol: dummy
// query for the required size, allocate with descriptor surplus, real
// query, then exit boot services with the returned map key.  Any
// allocation between the query and the exit stales the key, so a
// failed exit frees the buffer and restarts the whole sequence.  The
// restart is bounded; blowing the bound is fatal, and on that path the
// stale buffer is deliberately left alone since no boot service can be
// trusted anymore.
//
// On success the returned buffer holds the very memory map the
// firmware was retired with.
func (s *Session) acquireMapAndExitBootServices() (*efi.Buffer, efi.MemoryMapInfo) {
	retries := 0
	var buf *efi.Buffer
	for {
		if retries > 0 {
			if retries > s.cfg.ExitRetries {
				s.crash("could not exit boot services with a fresh map key")
			}
			trust.Debugf("boot service exit raced an allocation, retrying")
			if st := s.bs.FreePages(buf); st != efi.Success {
				s.crash("failed to free stale memory map: %s", st)
			}
			buf = nil
		}

		info, st := s.bs.GetMemoryMap(nil)
		if st != efi.BufferTooSmall {
			s.crash("memory map size query failed: %s", st)
		}
		if info.DescriptorSize < efi.DescriptorWireSize {
			s.crash("firmware reports impossible descriptor size %d", info.DescriptorSize)
		}

		allocSize := info.MapSize + surplusMemDescCount*info.DescriptorSize
		b, st := s.bs.AllocatePages(s.allocType, efi.EfiLoaderData,
			efi.PagesFor(allocSize), s.allocMax)
		if st != efi.Success {
			s.crash("failed to allocate %d bytes for the memory map: %s", allocSize, st)
		}
		buf = b

		info, st = s.bs.GetMemoryMap(buf)
		if st != efi.Success {
			s.crash("failed to fetch the memory map: %s", st)
		}

		if st = s.bs.ExitBootServices(s.image, info.MapKey); st != efi.Success {
			retries++
			continue
		}
		s.markExited()
		return buf, info
	}
}
