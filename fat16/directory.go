package fat16

import (
	"github.com/dsoprea/go-logging"

	kfs "github.com/kestrelkernel/kfat"
	"github.com/kestrelkernel/kfat/block"
)

// Directory is a fully-loaded, in-memory directory: every valid entry, in
// on-disk order. Entries[0:TotalValid] (TotalValid always equals
// len(Entries) here; Go's slice is already trimmed to valid entries, unlike
// a fixed-capacity array the count would otherwise have to qualify).
type Directory struct {
	Entries []Dirent
}

// directoryLoader loads root and subdirectory contents. It shares a
// ClusterReader and Walker with the rest of the mounted volume's private
// state, and holds its own stream for the flat root-directory region, which
// is not part of any cluster chain.
type directoryLoader struct {
	geometry *Geometry
	walker   *Walker
	reader   *ClusterReader
	stream   *block.Stream
}

func newDirectoryLoader(geometry *Geometry, device block.Device, walker *Walker, reader *ClusterReader) (*directoryLoader, error) {
	capacity := int64(device.TotalSectors()) * int64(device.SectorSize())
	stream, err := block.New(device, capacity)
	if err != nil {
		return nil, err
	}
	return &directoryLoader{geometry: geometry, walker: walker, reader: reader, stream: stream}, nil
}

// countValidEntriesFlat scans dirent-sized records sequentially from
// startByte without consulting the FAT, stopping at a free entry (name[0] ==
// 0x00) and skipping deleted ones (name[0] == 0xE5). This is correct only
// for the root directory, which is a flat region, not a cluster chain.
func (l *directoryLoader) countValidEntriesFlat(startByte int64) (int, error) {
	count := 0
	buf := make([]byte, DirentSize)
	offset := startByte

	for {
		if _, err := l.stream.ReadAt(buf, offset); err != nil {
			return 0, kfs.ErrIO.Wrap(log.Wrap(err))
		}
		switch classifyEntryName(buf[0]) {
		case entryNameFree:
			return count, nil
		case entryNameDeleted:
			// not counted
		default:
			if !isLongNameEntry(buf[11]) {
				count++
			}
		}
		offset += DirentSize
	}
}

// countValidEntriesChained scans dirent-sized records across a subdirectory's
// full cluster chain, via the Cluster Reader and Walker, stopping at a free
// entry. Unlike a flat stream read, this correctly handles a subdirectory
// whose entries span more than one cluster.
func (l *directoryLoader) countValidEntriesChained(chainStart uint) (int, error) {
	count := 0
	buf := make([]byte, DirentSize)
	var offset int64

	for {
		if err := l.reader.Read(chainStart, offset, buf); err != nil {
			return 0, err
		}
		switch classifyEntryName(buf[0]) {
		case entryNameFree:
			return count, nil
		case entryNameDeleted:
			// not counted
		default:
			if !isLongNameEntry(buf[11]) {
				count++
			}
		}
		offset += DirentSize
	}
}

// LoadRoot reads the fixed-size root directory region into memory.
func (l *directoryLoader) LoadRoot() (*Directory, error) {
	startByte := l.geometry.SectorToByte(l.geometry.FirstRootDirSector)

	total, err := l.countValidEntriesFlat(startByte)
	if err != nil {
		return nil, err
	}

	entries := make([]Dirent, 0, total)
	buf := make([]byte, DirentSize)
	offset := startByte

	for len(entries) < total {
		if _, err := l.stream.ReadAt(buf, offset); err != nil {
			return nil, kfs.ErrIO.Wrap(log.Wrap(err))
		}
		raw := parseRawDirent(buf)
		dirent, status := newDirentFromRaw(&raw)
		if status == entryNameValid && !isLongNameEntry(raw.AttributeFlags) {
			entries = append(entries, dirent)
		}
		offset += DirentSize
	}

	return &Directory{Entries: entries}, nil
}

// LoadSubdirectory reads a subdirectory's entries by walking entry's cluster
// chain. entry must have its subdirectory attribute bit set.
func (l *directoryLoader) LoadSubdirectory(entry *Dirent) (*Directory, error) {
	if !entry.IsDirectory() {
		return nil, kfs.ErrInvalidArgument.WithMessage("entry is not a directory")
	}

	chainStart := entry.FirstCluster
	total, err := l.countValidEntriesChained(chainStart)
	if err != nil {
		return nil, err
	}

	entries := make([]Dirent, 0, total)
	buf := make([]byte, DirentSize)
	var offset int64

	for len(entries) < total {
		if err := l.reader.Read(chainStart, offset, buf); err != nil {
			return nil, err
		}
		raw := parseRawDirent(buf)
		dirent, status := newDirentFromRaw(&raw)
		if status == entryNameValid && !isLongNameEntry(raw.AttributeFlags) {
			entries = append(entries, dirent)
		}
		offset += DirentSize
	}

	return &Directory{Entries: entries}, nil
}
