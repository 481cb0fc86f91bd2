// Package fat16 implements a read-only driver for FAT16 volumes: parsing the
// boot sector, walking cluster chains through the File Allocation Table, and
// resolving paths down through the directory hierarchy to readable file
// handles.
package fat16

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dsoprea/go-logging"

	kfs "github.com/kestrelkernel/kfat"
)

// ExtendedSignature is the only value of RawBootSector.ExtendedSignature this
// driver accepts. A different value means the volume either isn't FAT16 or
// uses an extended BPB variant this driver doesn't understand.
const ExtendedSignature = 0x29

// DirentSize is the size of one packed directory entry, in bytes.
const DirentSize = 32

// RawBootSector is the on-disk layout of a FAT16 boot sector and BIOS
// Parameter Block, up through the extended BPB fields this driver relies on.
// Field order and sizes match the on-disk layout exactly; do not reorder.
type RawBootSector struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16
	TotalSectors16    uint16
	Media             uint8
	SectorsPerFAT16   uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	TotalSectors32    uint32

	// Extended BPB (FAT12/FAT16 form).
	DriveNumber        uint8
	Reserved1          uint8
	ExtendedSignature  uint8
	VolumeID           uint32
	VolumeLabel        [11]byte
	FileSystemTypeName [8]byte
}

// ReadRawBootSector deserializes the first bytes of a volume into a
// RawBootSector. It does not validate any field; callers use Geometry for
// validated, derived values.
func ReadRawBootSector(r io.Reader) (*RawBootSector, error) {
	raw := &RawBootSector{}
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, kfs.ErrIO.Wrap(log.Wrap(err))
	}
	return raw, nil
}

// sectorsPerFAT returns the effective sectors-per-FAT value for a FAT16
// volume, which always comes from the 16-bit field (the 32-bit field is a
// FAT32-only extension and is never consulted here).
func (raw *RawBootSector) sectorsPerFAT() uint {
	return uint(raw.SectorsPerFAT16)
}

// totalSectors returns the effective total sector count, preferring the
// 16-bit field when it is nonzero as the on-disk format requires.
func (raw *RawBootSector) totalSectors() uint {
	if raw.TotalSectors16 != 0 {
		return uint(raw.TotalSectors16)
	}
	return uint(raw.TotalSectors32)
}

func validateBytesPerSector(value uint16) error {
	switch value {
	case 512, 1024, 2048, 4096:
		return nil
	default:
		return kfs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("bad BytesPerSector: need 512, 1024, 2048, or 4096, got %d", value))
	}
}

func validateSectorsPerCluster(value uint8) error {
	switch value {
	case 1, 2, 4, 8, 16, 32, 64, 128:
		return nil
	default:
		return kfs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("bad SectorsPerCluster: must be a power of 2 in [1,128], got %d", value))
	}
}
