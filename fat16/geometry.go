package fat16

import kfs "github.com/kestrelkernel/kfat"

// Geometry is the set of validated, derived values a FAT16 volume's boot
// sector determines. It is immutable once computed by NewGeometry; nothing
// in this package mutates a Geometry after probe.
type Geometry struct {
	BytesPerSector    uint
	SectorsPerCluster uint
	ReservedSectors   uint
	FATCopies         uint
	SectorsPerFAT     uint
	RootDirEntries    uint
	ExtendedSignature uint8
	TotalSectors      uint

	// FirstFATSector is the sector index of the first FAT copy.
	FirstFATSector uint
	// FirstRootDirSector is the sector index where the fixed-size root
	// directory region begins.
	FirstRootDirSector uint
	// RootDirSectorSpan is the number of whole sectors the root directory
	// region occupies.
	RootDirSectorSpan uint
	// FirstDataSector is the sector immediately past the root directory
	// region; cluster 2 begins here.
	FirstDataSector uint
	TotalClusters   uint
}

// NewGeometry validates raw and derives a Geometry from it. It returns
// kfs.ErrNotOurFileSystem if the extended signature doesn't mark this as a
// volume this driver accepts, and kfs.ErrInvalidArgument if the BPB fields
// are structurally nonsensical.
func NewGeometry(raw *RawBootSector) (*Geometry, error) {
	if raw.ExtendedSignature != ExtendedSignature {
		return nil, kfs.ErrNotOurFileSystem
	}
	if err := validateBytesPerSector(raw.BytesPerSector); err != nil {
		return nil, err
	}
	if err := validateSectorsPerCluster(raw.SectorsPerCluster); err != nil {
		return nil, err
	}
	if raw.NumFATs == 0 {
		return nil, kfs.ErrInvalidArgument.WithMessage("NumFATs must be at least 1")
	}
	if raw.ReservedSectors == 0 {
		return nil, kfs.ErrInvalidArgument.WithMessage("ReservedSectors must be at least 1")
	}

	bytesPerSector := uint(raw.BytesPerSector)
	rootDirSectorSpan := (uint(raw.RootEntryCount)*DirentSize + bytesPerSector - 1) / bytesPerSector
	firstFATSector := uint(raw.ReservedSectors)
	firstRootDirSector := firstFATSector + uint(raw.NumFATs)*raw.sectorsPerFAT()
	firstDataSector := firstRootDirSector + rootDirSectorSpan

	totalSectors := raw.totalSectors()
	dataSectors := totalSectors - firstDataSector
	totalClusters := dataSectors / uint(raw.SectorsPerCluster)

	return &Geometry{
		BytesPerSector:     bytesPerSector,
		SectorsPerCluster:  uint(raw.SectorsPerCluster),
		ReservedSectors:    uint(raw.ReservedSectors),
		FATCopies:          uint(raw.NumFATs),
		SectorsPerFAT:      raw.sectorsPerFAT(),
		RootDirEntries:     uint(raw.RootEntryCount),
		ExtendedSignature:  raw.ExtendedSignature,
		TotalSectors:       totalSectors,
		FirstFATSector:     firstFATSector,
		FirstRootDirSector: firstRootDirSector,
		RootDirSectorSpan:  rootDirSectorSpan,
		FirstDataSector:    firstDataSector,
		TotalClusters:      totalClusters,
	}, nil
}

// SectorToByte converts a sector index to an absolute byte offset.
func (g *Geometry) SectorToByte(sector uint) int64 {
	return int64(sector) * int64(g.BytesPerSector)
}

// ClusterSizeBytes returns the size of one cluster, in bytes.
func (g *Geometry) ClusterSizeBytes() uint {
	return g.SectorsPerCluster * g.BytesPerSector
}

// ClusterToSector converts a cluster index (≥2) into the sector index where
// its data begins, relative to the first sector past the root directory.
func (g *Geometry) ClusterToSector(cluster uint) uint {
	return g.FirstDataSector + (cluster-2)*g.SectorsPerCluster
}

// FATEntryByteOffset returns the absolute byte offset, within the first FAT
// copy, of the 16-bit entry for cluster.
func (g *Geometry) FATEntryByteOffset(cluster uint) int64 {
	return g.SectorToByte(g.FirstFATSector) + int64(cluster)*2
}
