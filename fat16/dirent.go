package fat16

import (
	"encoding/binary"
	"time"

	kfs "github.com/kestrelkernel/kfat"
)

// RawDirent is the on-disk, 32-byte packed representation of one directory
// entry.
type RawDirent struct {
	Name             [8]byte
	Extension        [3]byte
	AttributeFlags   uint8
	NTReserved       uint8
	CreatedTimeTenth uint8
	CreatedTime      uint16
	CreatedDate      uint16
	LastAccessedDate uint16
	FirstClusterHigh uint16
	LastModifiedTime uint16
	LastModifiedDate uint16
	FirstClusterLow  uint16
	FileSize         uint32
}

// Dirent is the in-memory, user-friendly form of a directory entry: a
// canonical name, an attribute bitmap, timestamps, and the starting cluster
// of its chain.
type Dirent struct {
	Name           string
	AttributeFlags uint8
	Created        time.Time
	LastAccessed   time.Time
	LastModified   time.Time
	FirstCluster   uint
	Size           int64
}

// IsDirectory reports whether this entry's subdirectory bit is set.
func (d *Dirent) IsDirectory() bool {
	return d.AttributeFlags&kfs.AttrDirectory != 0
}

// dateFromPacked converts a FAT packed date into a time.Time at midnight.
func dateFromPacked(value uint16) time.Time {
	day := int(value & 0x001F)
	month := time.Month((value >> 5) & 0x000F)
	year := 1980 + int(value>>9)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// timestampFromPacked combines a packed date and time into a single
// time.Time, matching the 2-second resolution of the on-disk time field.
func timestampFromPacked(datePart, timePart uint16) time.Time {
	d := dateFromPacked(datePart)
	seconds := int(timePart&0x001F) * 2
	minutes := int((timePart >> 5) & 0x003F)
	hours := int(timePart >> 11)
	return time.Date(d.Year(), d.Month(), d.Day(), hours, minutes, seconds, 0, time.UTC)
}

// entryNameStatus classifies the first byte of a raw entry's name field.
type entryNameStatus int

const (
	entryNameValid entryNameStatus = iota
	entryNameFree
	entryNameDeleted
)

func classifyEntryName(firstByte byte) entryNameStatus {
	switch firstByte {
	case 0x00:
		return entryNameFree
	case 0xE5:
		return entryNameDeleted
	default:
		return entryNameValid
	}
}

// isLongNameEntry reports whether attr marks a VFAT long-filename
// continuation entry (kfs.AttrLongName exactly, not a superset match), which
// short-name resolution must skip rather than surface as a directory entry.
func isLongNameEntry(attr uint8) bool {
	return attr == kfs.AttrLongName
}

// parseRawDirent deserializes one 32-byte slice into a RawDirent.
func parseRawDirent(data []byte) RawDirent {
	raw := RawDirent{
		AttributeFlags:   data[11],
		NTReserved:       data[12],
		CreatedTimeTenth: data[13],
		CreatedTime:      binary.LittleEndian.Uint16(data[14:16]),
		CreatedDate:      binary.LittleEndian.Uint16(data[16:18]),
		LastAccessedDate: binary.LittleEndian.Uint16(data[18:20]),
		FirstClusterHigh: binary.LittleEndian.Uint16(data[20:22]),
		LastModifiedTime: binary.LittleEndian.Uint16(data[22:24]),
		LastModifiedDate: binary.LittleEndian.Uint16(data[24:26]),
		FirstClusterLow:  binary.LittleEndian.Uint16(data[26:28]),
		FileSize:         binary.LittleEndian.Uint32(data[28:32]),
	}
	copy(raw.Name[:], data[0:8])
	copy(raw.Extension[:], data[8:11])
	return raw
}

// canonicalName builds the NAME[.EXT] string a raw entry's packed 8.3 fields
// represent: bytes are copied verbatim up to the first space or null, and an
// extension is appended only when present. Bytes ≥ 0x80 (code page 437) are
// carried through unchanged, not folded, matching the undefined case-folding
// behavior for non-ASCII bytes.
func canonicalName(raw *RawDirent) string {
	name := trimPackedField(raw.Name[:])
	ext := trimPackedField(raw.Extension[:])
	if ext == "" {
		return name
	}
	return name + "." + ext
}

func trimPackedField(field []byte) string {
	end := len(field)
	for i, b := range field {
		if b == 0x20 || b == 0x00 {
			end = i
			break
		}
	}
	return string(field[:end])
}

// namesEqual compares two canonical NAME[.EXT] strings ASCII
// case-insensitively. Bytes ≥ 0x80 are compared byte-equal since case
// folding for non-ASCII 8.3 bytes is undefined.
func namesEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if asciiLower(a[i]) != asciiLower(b[i]) {
			return false
		}
	}
	return true
}

func asciiLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// newDirentFromRaw converts a RawDirent into a Dirent, along with the
// classification of its first name byte. For a free or deleted entry it
// returns a zero Dirent and entryNameFree or entryNameDeleted, so callers can
// keep such entries invisible to lookups.
func newDirentFromRaw(raw *RawDirent) (Dirent, entryNameStatus) {
	status := classifyEntryName(raw.Name[0])
	if status != entryNameValid {
		return Dirent{}, status
	}

	return Dirent{
		Name:           canonicalName(raw),
		AttributeFlags: raw.AttributeFlags,
		Created:        timestampFromPacked(raw.CreatedDate, raw.CreatedTime),
		LastAccessed:   dateFromPacked(raw.LastAccessedDate),
		LastModified:   timestampFromPacked(raw.LastModifiedDate, raw.LastModifiedTime),
		FirstCluster:   uint(raw.FirstClusterLow),
		Size:           int64(raw.FileSize),
	}, status
}
