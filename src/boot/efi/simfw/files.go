package simfw

import (
	"github.com/ggracechoi/unikraft/src/boot/efi"
)

// volume adapts Firmware to efi.SimpleFileSystem for the boot device.
type volume Firmware

func (v *volume) fw() *Firmware { return (*Firmware)(v) }

func (v *volume) OpenVolume() (efi.File, efi.Status) {
	fw := v.fw()
	fw.checkServicesUp("OpenVolume")
	fw.call("OpenVolume")
	return &file{fw: fw, isRoot: true}, efi.Success
}

// file is an open file (or the volume root) on the simulated FAT
// partition.
type file struct {
	fw     *Firmware
	isRoot bool
	name   string
	data   []byte
	pos    uint64
	closed bool
}

func (f *file) Open(name []uint16, mode uint64, attrs uint64) (efi.File, efi.Status) {
	f.fw.checkServicesUp("File.Open")
	f.fw.call("File.Open")
	if !f.isRoot {
		return nil, efi.Unsupported
	}
	if mode != efi.FileModeRead {
		return nil, efi.WriteProtected
	}
	path := efi.DecodeUTF16(name)
	data, ok := f.fw.Files[path]
	if !ok {
		return nil, efi.NotFound
	}
	return &file{fw: f.fw, name: path, data: data}, efi.Success
}

func (f *file) GetInfo(infoType efi.GUID, buf *efi.Buffer) (uint64, efi.Status) {
	f.fw.checkServicesUp("File.GetInfo")
	f.fw.call("File.GetInfo")
	if infoType != efi.FileInfoGUID || f.isRoot {
		return 0, efi.Unsupported
	}
	fi := efi.FileInfo{
		FileSize:     uint64(len(f.data)),
		PhysicalSize: efi.PagesFor(uint64(len(f.data))) * efi.PageSize,
		Attribute:    efi.FileReadOnly,
		FileName:     f.name,
	}
	blob, err := fi.MarshalBinary()
	if err != nil {
		panic("simfw: file info marshal failed: " + err.Error())
	}
	need := uint64(len(blob))
	if buf == nil || uint64(len(buf.Data)) < need {
		return need, efi.BufferTooSmall
	}
	copy(buf.Data, blob)
	return need, efi.Success
}

func (f *file) Read(p []byte) (uint64, efi.Status) {
	f.fw.checkServicesUp("File.Read")
	f.fw.call("File.Read")
	if f.isRoot || f.closed {
		return 0, efi.DeviceError
	}
	n := copy(p, f.data[f.pos:])
	f.pos += uint64(n)
	return uint64(n), efi.Success
}

func (f *file) Close() efi.Status {
	f.fw.call("File.Close")
	f.closed = true
	return efi.Success
}
