package efi

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// LoadedImage describes the running image: where it came from and the
// per-launch options it was handed.  LoadOptions is raw UTF-16LE bytes,
// exactly as the launcher supplied them.
type LoadedImage struct {
	DeviceHandle Handle
	ImageBase    PhysAddr
	ImageSize    uint64
	LoadOptions  []byte
}

// SimpleFileSystem is the filesystem driver the firmware attaches to
// every block device with a FAT partition.
type SimpleFileSystem interface {
	OpenVolume() (File, Status)
}

// File open modes and attributes.
const (
	FileModeRead = uint64(0x1)

	FileReadOnly = uint64(0x1)
	FileHidden   = uint64(0x2)
)

// File is an open file or directory on a boot volume.
type File interface {
	// Open opens a file relative to this one.  Name is UTF-16 without
	// the terminator, using backslash separators.
	Open(name []uint16, mode uint64, attrs uint64) (File, Status)

	// GetInfo writes the info block identified by infoType into buf
	// and returns its size.  A nil buf is the dummy query: the needed
	// size comes back with BufferTooSmall.
	GetInfo(infoType GUID, buf *Buffer) (uint64, Status)

	// Read reads up to len(p) bytes and reports how many arrived.
	Read(p []byte) (uint64, Status)

	Close() Status
}

// fileInfoFixedSize is the packed size of FileInfo up to and including
// Attribute; the file name follows as UTF-16 with a terminator.
const fileInfoFixedSize = 80

// FileInfo is the decoded EFI_FILE_INFO block.  Timestamps are carried
// opaquely; the boot stub only ever needs FileSize.
type FileInfo struct {
	Size         uint64
	FileSize     uint64
	PhysicalSize uint64
	CreateTime   [16]byte
	AccessTime   [16]byte
	ModifyTime   [16]byte
	Attribute    uint64
	FileName     string
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (fi *FileInfo) MarshalBinary() ([]byte, error) {
	name, err := EncodeUTF16(fi.FileName, len(fi.FileName)+1)
	if err != nil {
		return nil, err
	}
	total := uint64(fileInfoFixedSize + 2*len(name))
	if fi.Size == 0 {
		fi.Size = total
	}
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, fi.Size)
	binary.Write(buf, binary.LittleEndian, fi.FileSize)
	binary.Write(buf, binary.LittleEndian, fi.PhysicalSize)
	buf.Write(fi.CreateTime[:])
	buf.Write(fi.AccessTime[:])
	buf.Write(fi.ModifyTime[:])
	binary.Write(buf, binary.LittleEndian, fi.Attribute)
	binary.Write(buf, binary.LittleEndian, name)
	return buf.Bytes(), nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (fi *FileInfo) UnmarshalBinary(data []byte) error {
	if len(data) < fileInfoFixedSize {
		return errors.New("file info truncated")
	}
	fi.Size = binary.LittleEndian.Uint64(data[0:])
	fi.FileSize = binary.LittleEndian.Uint64(data[8:])
	fi.PhysicalSize = binary.LittleEndian.Uint64(data[16:])
	copy(fi.CreateTime[:], data[24:40])
	copy(fi.AccessTime[:], data[40:56])
	copy(fi.ModifyTime[:], data[56:72])
	fi.Attribute = binary.LittleEndian.Uint64(data[72:80])
	fi.FileName = DecodeUTF16Bytes(data[fileInfoFixedSize:])
	return nil
}
