package fat16

import (
	"github.com/dsoprea/go-logging"

	kfs "github.com/kestrelkernel/kfat"
	"github.com/kestrelkernel/kfat/block"
)

// ClusterReader reads byte ranges out of a cluster chain, crossing cluster
// boundaries as needed by consulting a Walker. It holds its own stream.
type ClusterReader struct {
	geometry *Geometry
	walker   *Walker
	stream   *block.Stream
}

// NewClusterReader builds a ClusterReader over device, reusing walker to
// resolve chain successors.
func NewClusterReader(geometry *Geometry, device block.Device, walker *Walker) (*ClusterReader, error) {
	capacity := int64(device.TotalSectors()) * int64(device.SectorSize())
	stream, err := block.New(device, capacity)
	if err != nil {
		return nil, err
	}
	return &ClusterReader{geometry: geometry, walker: walker, stream: stream}, nil
}

// Read fills dst with len(dst) bytes read from the chain starting at
// chainStart, beginning at byte offset within that chain. It recurses across
// cluster boundaries, bounding each round's read to what remains before the
// next cluster edge rather than to one full cluster size: reading one full
// cluster size per round is only correct when offset is cluster-aligned, and
// would otherwise silently read past the edge of the target cluster instead
// of consulting the FAT for its successor.
func (r *ClusterReader) Read(chainStart uint, offset int64, dst []byte) error {
	if len(dst) == 0 {
		return nil
	}

	clusterSize := int64(r.geometry.ClusterSizeBytes())
	intra := offset % clusterSize

	targetCluster, err := r.walker.ClusterForOffset(chainStart, offset)
	if err != nil {
		return err
	}

	pos := int64(r.geometry.ClusterToSector(targetCluster))*int64(r.geometry.BytesPerSector) + intra

	thisRound := int64(len(dst))
	if remaining := clusterSize - intra; thisRound > remaining {
		thisRound = remaining
	}

	if _, err := r.stream.ReadAt(dst[:thisRound], pos); err != nil {
		return kfs.ErrIO.Wrap(log.Wrap(err))
	}

	if int64(len(dst)) > thisRound {
		return r.Read(chainStart, offset+thisRound, dst[thisRound:])
	}
	return nil
}
