package simfw

import (
	"github.com/ggracechoi/unikraft/src/boot/efi"
)

// bootServices adapts Firmware to efi.BootServices.
type bootServices Firmware

func (bs *bootServices) fw() *Firmware { return (*Firmware)(bs) }

func (bs *bootServices) GetMemoryMap(buf *efi.Buffer) (efi.MemoryMapInfo, efi.Status) {
	fw := bs.fw()
	fw.checkServicesUp("GetMemoryMap")
	fw.call("GetMemoryMap")

	entries := fw.effectiveMap()
	required := fw.MapStride * uint64(len(entries))
	info := efi.MemoryMapInfo{
		MapSize:           required,
		DescriptorSize:    fw.MapStride,
		DescriptorVersion: 1,
	}
	if buf == nil || uint64(len(buf.Data)) < required {
		return info, efi.BufferTooSmall
	}
	for i := range entries {
		b, err := entries[i].MarshalBinary()
		if err != nil {
			panic("simfw: descriptor marshal failed: " + err.Error())
		}
		copy(buf.Data[uint64(i)*fw.MapStride:], b)
	}
	info.MapKey = fw.mapKey
	return info, efi.Success
}

func (bs *bootServices) AllocatePages(at efi.AllocateType, mt efi.MemoryType,
	pages uint64, max efi.PhysAddr) (*efi.Buffer, efi.Status) {

	fw := bs.fw()
	fw.checkServicesUp("AllocatePages")
	fw.call("AllocatePages")

	if pages == 0 {
		return nil, efi.InvalidParameter
	}
	size := pages * efi.PageSize
	addr := fw.nextAddr
	if at == efi.AllocateMaxAddress && addr+efi.PhysAddr(size) > max {
		return nil, efi.OutOfResources
	}
	fw.nextAddr += efi.PhysAddr(size)

	b := &efi.Buffer{Addr: addr, Data: make([]byte, size)}
	fw.live[b] = allocation{
		kind: allocPages,
		desc: efi.MemoryDescriptor{
			Type:          mt,
			PhysicalStart: addr,
			NumberOfPages: pages,
		},
	}
	fw.PageAllocs++
	fw.mapKey++ // the map changed underneath any snapshot
	return b, efi.Success
}

func (bs *bootServices) FreePages(b *efi.Buffer) efi.Status {
	fw := bs.fw()
	fw.checkServicesUp("FreePages")
	fw.call("FreePages")

	a, ok := fw.live[b]
	if !ok || a.kind != allocPages {
		return efi.InvalidParameter
	}
	delete(fw.live, b)
	fw.FreedPages++
	fw.mapKey++
	return efi.Success
}

func (bs *bootServices) AllocatePool(mt efi.MemoryType, size uint64) (*efi.Buffer, efi.Status) {
	fw := bs.fw()
	fw.checkServicesUp("AllocatePool")
	fw.call("AllocatePool")

	if size == 0 {
		return nil, efi.InvalidParameter
	}
	addr := fw.nextAddr
	fw.nextAddr += efi.PhysAddr(efi.PagesFor(size) * efi.PageSize)
	b := &efi.Buffer{Addr: addr, Data: make([]byte, size)}
	fw.live[b] = allocation{
		kind: allocPool,
		desc: efi.MemoryDescriptor{
			Type:          efi.EfiLoaderData,
			PhysicalStart: addr,
			NumberOfPages: efi.PagesFor(size),
		},
	}
	fw.PoolAllocs++
	fw.mapKey++
	return b, efi.Success
}

func (bs *bootServices) FreePool(b *efi.Buffer) efi.Status {
	fw := bs.fw()
	fw.checkServicesUp("FreePool")
	fw.call("FreePool")

	a, ok := fw.live[b]
	if !ok || a.kind != allocPool {
		return efi.InvalidParameter
	}
	delete(fw.live, b)
	fw.FreedPool++
	fw.mapKey++
	return efi.Success
}

func (bs *bootServices) HandleProtocol(h efi.Handle, guid efi.GUID) (interface{}, efi.Status) {
	fw := bs.fw()
	fw.checkServicesUp("HandleProtocol")
	fw.call("HandleProtocol")

	switch {
	case h == fw.ImageHandle && guid == efi.LoadedImageProtocolGUID:
		if fw.img == nil {
			fw.img = &efi.LoadedImage{
				DeviceHandle: fw.DeviceHandle,
				LoadOptions:  fw.LoadOptions,
			}
		}
		return fw.img, efi.Success
	case h == fw.DeviceHandle && guid == efi.SimpleFileSystemProtocolGUID:
		return (*volume)(fw), efi.Success
	}
	return nil, efi.Unsupported
}

func (bs *bootServices) ExitBootServices(image efi.Handle, mapKey uint64) efi.Status {
	fw := bs.fw()
	fw.checkServicesUp("ExitBootServices")
	fw.call("ExitBootServices")

	if image != fw.ImageHandle {
		return efi.InvalidParameter
	}
	if fw.ExitFailures > 0 {
		fw.ExitFailures--
		fw.mapKey++ // something ran and perturbed the map
		return efi.InvalidParameter
	}
	if mapKey != fw.mapKey {
		return efi.InvalidParameter
	}
	fw.exited = true
	return efi.Success
}
