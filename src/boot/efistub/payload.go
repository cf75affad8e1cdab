package efistub

import (
	"github.com/ggracechoi/unikraft/src/boot/efi"
	"github.com/ggracechoi/unikraft/src/lib/bootinfo"
	"github.com/ggracechoi/unikraft/src/lib/memregion"
	"github.com/ggracechoi/unikraft/src/lib/trust"
)

// readFile pulls one file off the volume the image was booted from and
// leaves it in page-allocated memory with a trailing NUL, so text
// payloads double as C strings.  Returns the buffer and the file's
// true length, terminator excluded.  Every failure is fatal: a
// configured payload that cannot be loaded is a broken deployment.
func (s *Session) readFile(dev efi.Handle, path string) (*efi.Buffer, uint64) {
	p, st := s.bs.HandleProtocol(dev, efi.SimpleFileSystemProtocolGUID)
	if st != efi.Success {
		s.crash("boot device has no filesystem driver: %s", st)
	}
	sfs, ok := p.(efi.SimpleFileSystem)
	if !ok {
		s.crash("filesystem protocol has the wrong shape")
	}
	vol, st := sfs.OpenVolume()
	if st != efi.Success {
		s.crash("failed to open the boot volume: %s", st)
	}

	name, err := efi.EncodeUTF16(path, maxPathLen)
	if err != nil {
		s.crash("unusable payload path %q: %v", path, err)
	}
	f, st := vol.Open(name[:len(name)-1], efi.FileModeRead, efi.FileReadOnly|efi.FileHidden)
	if st != efi.Success {
		s.crash("failed to open %q: %s", path, st)
	}

	// Same dummy-then-real dance as the memory map: ask how big the
	// info block is, allocate, ask again.
	need, st := f.GetInfo(efi.FileInfoGUID, nil)
	if st != efi.BufferTooSmall {
		s.crash("file info size query for %q failed: %s", path, st)
	}
	infoBuf, st := s.bs.AllocatePool(efi.EfiLoaderData, need)
	if st != efi.Success {
		s.crash("failed to allocate file info block: %s", st)
	}
	if _, st = f.GetInfo(efi.FileInfoGUID, infoBuf); st != efi.Success {
		s.crash("failed to fetch file info for %q: %s", path, st)
	}
	var fi efi.FileInfo
	if err := fi.UnmarshalBinary(infoBuf.Data); err != nil {
		s.crash("malformed file info for %q: %v", path, err)
	}

	length := fi.FileSize
	content, st := s.bs.AllocatePages(s.allocType, efi.EfiLoaderData,
		efi.PagesFor(length+1), s.allocMax)
	if st != efi.Success {
		s.crash("failed to allocate %d bytes for %q: %s", length+1, path, st)
	}
	n, st := f.Read(content.Data[:length])
	if st != efi.Success || n != length {
		s.crash("failed to read %q: %s", path, st)
	}
	content.Data[length] = 0

	if st = s.bs.FreePool(infoBuf); st != efi.Success {
		s.crash("failed to free file info block: %s", st)
	}
	f.Close()
	vol.Close()
	trust.Infof("loaded %q, %d bytes", path, length)
	return content, length
}

// insertPayloadRegion publishes a loaded payload in the region list.
// The region covers the whole allocation, terminator page included.
func (s *Session) insertPayloadRegion(bi *bootinfo.BootInfo, buf *efi.Buffer, length uint64, t memregion.RegionType) {
	err := bi.InsertRegion(memregion.Region{
		PBase: uint64(buf.Addr),
		VBase: uint64(buf.Addr),
		Len:   efi.PagesFor(length+1) * efi.PageSize,
		Type:  t,
		Flags: memregion.FlagRead | memregion.FlagMap,
	})
	if err != nil {
		s.crash("failed to record %s region: %v", t, err)
	}
}

// setupCmdline picks the kernel command line.  Options passed by the
// boot manager win; the well-known file on the boot volume is the
// fallback.  Either way the result is re-encoded to a NUL-terminated
// byte string in its own allocation.
func (s *Session) setupCmdline(bi *bootinfo.BootInfo) {
	img := s.loadedImage()
	var (
		buf    *efi.Buffer
		length uint64
	)
	switch {
	case len(img.LoadOptions) > 0:
		// One byte per UTF-16 unit plus the terminator.  Anything that
		// does not fit was not ASCII, which no kernel parser accepts.
		need := uint64(len(img.LoadOptions))/2 + 1
		b, st := s.bs.AllocatePages(s.allocType, efi.EfiLoaderData,
			efi.PagesFor(need), s.allocMax)
		if st != efi.Success {
			s.crash("failed to allocate command line: %s", st)
		}
		n, err := efi.DecodeUTF16Into(img.LoadOptions, b.Data[:need])
		if err != nil {
			s.crash("load options are not an ASCII command line: %v", err)
		}
		buf, length = b, uint64(n)
	case s.cfg.CmdlineFile != "":
		buf, length = s.readFile(img.DeviceHandle, absPathPrefix+s.cfg.CmdlineFile)
	default:
		return
	}
	s.insertPayloadRegion(bi, buf, length, memregion.RegionCmdline)
	bi.Cmdline = uint64(buf.Addr)
	bi.CmdlineLen = length
}

func (s *Session) setupInitrd(bi *bootinfo.BootInfo) {
	if s.cfg.InitrdFile == "" {
		return
	}
	buf, length := s.readFile(s.loadedImage().DeviceHandle, absPathPrefix+s.cfg.InitrdFile)
	s.insertPayloadRegion(bi, buf, length, memregion.RegionInitrd)
}

func (s *Session) setupDevicetree(bi *bootinfo.BootInfo) {
	if s.cfg.DevicetreeFile == "" {
		return
	}
	buf, length := s.readFile(s.loadedImage().DeviceHandle, absPathPrefix+s.cfg.DevicetreeFile)
	s.insertPayloadRegion(bi, buf, length, memregion.RegionDeviceTree)
	bi.DTB = uint64(buf.Addr)
}
