package fat16

import (
	"encoding/binary"

	bitmap "github.com/boljen/go-bitmap"
	"github.com/dsoprea/go-logging"

	kfs "github.com/kestrelkernel/kfat"
	"github.com/kestrelkernel/kfat/block"
)

// FAT entry sentinel ranges, 16-bit little-endian values as stored on disk.
const (
	entryUnused        = 0x0000
	entryMinDataValue  = 0x0002
	entryMaxDataValue  = 0xFFEF
	entryMinReserved   = 0xFFF0
	entryMaxReserved   = 0xFFF6
	entryBadCluster    = 0xFFF7
	entryMinEndOfChain = 0xFFF8
	entryMaxEndOfChain = 0xFFFF
)

func isDataEntry(entry uint16) bool {
	return entry >= entryMinDataValue && entry <= entryMaxDataValue
}

func isEndOfChain(entry uint16) bool {
	return entry >= entryMinEndOfChain && entry <= entryMaxEndOfChain
}

func isReserved(entry uint16) bool {
	return entry >= entryMinReserved && entry <= entryMaxReserved
}

// Walker reads next-cluster pointers out of the first FAT copy. It holds its
// own stream, per the convention of one stream per role.
type Walker struct {
	geometry *Geometry
	stream   *block.Stream
}

// NewWalker builds a Walker over device, bound to geometry's first FAT copy.
func NewWalker(geometry *Geometry, device block.Device) (*Walker, error) {
	fatBytes := int64(geometry.SectorsPerFAT) * int64(geometry.BytesPerSector)
	stream, err := block.New(device, geometry.SectorToByte(geometry.FirstFATSector)+fatBytes)
	if err != nil {
		return nil, err
	}
	return &Walker{geometry: geometry, stream: stream}, nil
}

// NextEntry reads the raw 16-bit FAT entry for cluster.
func (w *Walker) NextEntry(cluster uint) (uint16, error) {
	offset := w.geometry.FATEntryByteOffset(cluster)
	var buf [2]byte
	if _, err := w.stream.ReadAt(buf[:], offset); err != nil {
		return 0, kfs.ErrIO.Wrap(log.Wrap(err))
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ClusterForOffset walks the chain starting at startCluster and returns the
// cluster that contains byteOffset. It fails with kfs.ErrIO if the chain
// terminates, hits a reserved or bad sentinel, or cycles before reaching the
// target step — a well-formed file's chain must be long enough to cover
// every byte up to its declared size.
func (w *Walker) ClusterForOffset(startCluster uint, byteOffset int64) (uint, error) {
	steps := uint(byteOffset / int64(w.geometry.ClusterSizeBytes()))

	bitCount := int(w.geometry.TotalClusters) + 2
	visited := bitmap.New(bitCount)
	current := startCluster

	for i := uint(0); i < steps; i++ {
		if int(current) < bitCount {
			if visited.Get(int(current)) {
				return 0, kfs.ErrIO.WithMessage("cluster chain cycle detected")
			}
			visited.Set(int(current), true)
		}

		entry, err := w.NextEntry(current)
		if err != nil {
			return 0, err
		}

		if isEndOfChain(entry) {
			return 0, kfs.ErrIO.WithMessage("chain ended before reaching requested offset")
		}
		if entry == entryBadCluster {
			return 0, kfs.ErrIO.WithMessage("chain references a bad cluster")
		}
		if entry == entryUnused {
			return 0, kfs.ErrIO.WithMessage("chain references an unused cluster")
		}
		if isReserved(entry) {
			return 0, kfs.ErrIO.WithMessage("chain references a reserved cluster")
		}
		if !isDataEntry(entry) {
			return 0, kfs.ErrIO.WithMessage("chain references an out-of-range cluster")
		}

		current = uint(entry)
	}

	return current, nil
}
