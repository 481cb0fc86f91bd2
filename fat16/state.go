package fat16

import "github.com/kestrelkernel/kfat/block"

// PrivateState is the per-mounted-disk state a successful Probe installs.
// Its three streams are held one per role (cluster, FAT, directory) for the
// lifetime of the mount, rather than re-opened on every call — cluster
// reads, FAT walks, and directory scans never interleave their seek
// positions this way.
//
// PrivateState assumes a single-threaded caller, or one serialized by a lock
// held above this package; nothing here is safe for concurrent use.
type PrivateState struct {
	Geometry *Geometry
	Root     *Directory

	walker *Walker
	reader *ClusterReader
	loader *directoryLoader
	device block.Device
}
