// Package testfixture builds synthetic, in-memory FAT16 disk images for
// exercising the fat16 package without a real block device. It plays the
// role the teacher corpus's testing.LoadDiskImage helper plays for
// pre-baked compressed fixtures, but builds an image from a declarative
// description instead of decompressing a stored one.
package testfixture

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/xaionaro-go/bytesextra"

	kfs "github.com/kestrelkernel/kfat"
	"github.com/kestrelkernel/kfat/disks"
)

const direntSize = 32

// Geometry is the subset of BPB fields a Builder needs. It mirrors
// fat16.Geometry's inputs rather than importing that package, keeping
// testfixture usable for probing-failure scenarios where no valid geometry
// exists yet.
type Geometry struct {
	BytesPerSector    uint
	SectorsPerCluster uint
	ReservedSectors   uint
	FATCopies         uint
	SectorsPerFAT     uint
	RootDirEntries    uint
	TotalSectors      uint
}

const endOfChain = 0xFFFF

// entry is one pending directory entry: its packed name/extension, metadata,
// and the cluster chain (if any) backing it.
type entry struct {
	name         string
	attr         uint8
	size         uint32
	firstCluster uint16
	modified     time.Time
}

// Builder accumulates root-directory entries and cluster-chain data, then
// assembles a complete FAT16 image as a byte slice.
type Builder struct {
	geometry Geometry
	fat      []uint16
	clusters map[uint16][]byte
	root     []entry
	nextFree uint16
}

// NewBuilder creates a Builder for a volume with the given geometry. All
// FAT entries start unused; cluster 2 is the first cluster a file or
// subdirectory can claim.
func NewBuilder(geometry Geometry) *Builder {
	totalClusters := totalDataClusters(geometry)
	return &Builder{
		geometry: geometry,
		fat:      make([]uint16, totalClusters+2),
		clusters: make(map[uint16][]byte),
		nextFree: 2,
	}
}

// NewBuilderFromProfile creates a Builder for one of the named, well-known
// volume geometries in the disks catalog ("floppy-1440k", "hdd-20m", ...)
// instead of hand-filling every BPB field.
func NewBuilderFromProfile(slug string) (*Builder, error) {
	profile, err := disks.Lookup(slug)
	if err != nil {
		return nil, err
	}
	return NewBuilder(Geometry{
		BytesPerSector:    profile.BytesPerSector,
		SectorsPerCluster: profile.SectorsPerCluster,
		ReservedSectors:   profile.ReservedSectors,
		FATCopies:         profile.FATCopies,
		SectorsPerFAT:     profile.SectorsPerFAT,
		RootDirEntries:    profile.RootDirEntries,
		TotalSectors:      profile.TotalSectors,
	}), nil
}

func totalDataClusters(g Geometry) uint {
	rootDirSectors := (g.RootDirEntries*direntSize + g.BytesPerSector - 1) / g.BytesPerSector
	firstDataSector := g.ReservedSectors + g.FATCopies*g.SectorsPerFAT + rootDirSectors
	dataSectors := g.TotalSectors - firstDataSector
	return dataSectors / g.SectorsPerCluster
}

func (b *Builder) clusterSizeBytes() uint {
	return b.geometry.SectorsPerCluster * b.geometry.BytesPerSector
}

// allocateChain claims enough clusters to hold len(data) bytes, chains them
// in the FAT, and returns the first cluster number. Passing forceCycle
// links the chain back onto its own first cluster instead of terminating it,
// for building a corrupt fixture that a cycle guard must reject.
func (b *Builder) allocateChain(data []byte, forceCycle bool) uint16 {
	clusterSize := b.clusterSizeBytes()
	numClusters := (len(data) + int(clusterSize) - 1) / int(clusterSize)
	if numClusters == 0 {
		numClusters = 1
	}

	first := b.nextFree
	clusterIDs := make([]uint16, numClusters)
	for i := 0; i < numClusters; i++ {
		clusterIDs[i] = b.nextFree
		b.nextFree++
	}

	for i, id := range clusterIDs {
		start := i * int(clusterSize)
		end := start + int(clusterSize)
		chunk := make([]byte, clusterSize)
		if start < len(data) {
			copyEnd := end
			if copyEnd > len(data) {
				copyEnd = len(data)
			}
			copy(chunk, data[start:copyEnd])
		}
		b.clusters[id] = chunk

		if i+1 < len(clusterIDs) {
			b.fat[id] = clusterIDs[i+1]
		} else if forceCycle {
			b.fat[id] = first
		} else {
			b.fat[id] = endOfChain
		}
	}

	return first
}

// AddFile adds a file to the root directory with the given contents.
func (b *Builder) AddFile(name string, data []byte) {
	first := b.allocateChain(data, false)
	b.root = append(b.root, entry{
		name:         name,
		attr:         0x20, // archive
		size:         uint32(len(data)),
		firstCluster: first,
		modified:     time.Date(2020, 7, 28, 0, 0, 0, 0, time.UTC),
	})
}

// AddDirectory adds a subdirectory to the root directory whose entries are
// the given files, packed into its own cluster chain. It returns the
// subdirectory's first cluster, for tests that need to reach in and corrupt
// the chain afterward.
func (b *Builder) AddDirectory(name string, files map[string][]byte) uint16 {
	var childBuf []byte
	for fname, data := range files {
		childBuf = append(childBuf, packEntry(entry{
			name:         fname,
			attr:         0x20,
			size:         uint32(len(data)),
			firstCluster: b.allocateChain(data, false),
			modified:     time.Date(2020, 7, 28, 0, 0, 0, 0, time.UTC),
		})...)
	}

	first := b.allocateChain(childBuf, false)
	b.root = append(b.root, entry{
		name:         name,
		attr:         0x10, // directory
		firstCluster: first,
		modified:     time.Date(2020, 7, 28, 0, 0, 0, 0, time.UTC),
	})
	return first
}

// BreakChain overwrites the FAT entry for cluster so it points back onto
// itself, simulating a corrupted chain that must trip a cycle guard.
func (b *Builder) BreakChain(cluster uint16) {
	b.fat[cluster] = cluster
}

// packEntry serializes one directory entry into its 32-byte on-disk form.
func packEntry(e entry) []byte {
	buf := make([]byte, direntSize)

	base, ext := splitName(e.name)
	copy(buf[0:8], padField(base, 8))
	copy(buf[8:11], padField(ext, 3))
	buf[11] = e.attr

	packedDate := packDate(e.modified)
	packedTime := packTime(e.modified)
	binary.LittleEndian.PutUint16(buf[14:16], packedTime)
	binary.LittleEndian.PutUint16(buf[16:18], packedDate)
	binary.LittleEndian.PutUint16(buf[18:20], packedDate) // last accessed
	binary.LittleEndian.PutUint16(buf[20:22], 0)          // first cluster high, always 0 for FAT16
	binary.LittleEndian.PutUint16(buf[22:24], packedTime)
	binary.LittleEndian.PutUint16(buf[24:26], packedDate)
	binary.LittleEndian.PutUint16(buf[26:28], e.firstCluster)
	binary.LittleEndian.PutUint32(buf[28:32], e.size)

	return buf
}

func splitName(name string) (string, string) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}

func padField(s string, width int) []byte {
	buf := make([]byte, width)
	for i := range buf {
		buf[i] = 0x20
	}
	copy(buf, strings.ToUpper(s))
	return buf
}

func packDate(t time.Time) uint16 {
	return uint16(((t.Year() - 1980) << 9) | (int(t.Month()) << 5) | t.Day())
}

func packTime(t time.Time) uint16 {
	return uint16((t.Hour() << 11) | (t.Minute() << 5) | (t.Second() / 2))
}

// Build assembles the complete image: boot sector, FAT copies, root
// directory, and data region, and wraps it in an in-memory
// io.ReadWriteSeeker via bytesextra, the same library the teacher corpus
// uses for synthetic disk images in tests.
func (b *Builder) Build(extendedSignature uint8) *bytesextra.ReadWriteSeeker {
	g := b.geometry
	image := make([]byte, g.TotalSectors*g.BytesPerSector)

	writeBootSector(image, g, extendedSignature)

	rootDirSectors := (g.RootDirEntries*direntSize + g.BytesPerSector - 1) / g.BytesPerSector
	firstFATByte := g.ReservedSectors * g.BytesPerSector
	fatBytesPerCopy := g.SectorsPerFAT * g.BytesPerSector

	fatBytes := make([]byte, len(b.fat)*2)
	for i, entryValue := range b.fat {
		binary.LittleEndian.PutUint16(fatBytes[i*2:i*2+2], entryValue)
	}
	for copyIdx := uint(0); copyIdx < g.FATCopies; copyIdx++ {
		offset := firstFATByte + copyIdx*fatBytesPerCopy
		copy(image[offset:offset+uint(len(fatBytes))], fatBytes)
	}

	firstRootDirByte := firstFATByte + g.FATCopies*fatBytesPerCopy
	rootOffset := firstRootDirByte
	for _, e := range b.root {
		copy(image[rootOffset:rootOffset+direntSize], packEntry(e))
		rootOffset += direntSize
	}

	firstDataByte := firstRootDirByte + rootDirSectors*g.BytesPerSector
	clusterSize := b.clusterSizeBytes()
	for id, data := range b.clusters {
		clusterOffset := firstDataByte + uint(id-2)*clusterSize
		copy(image[clusterOffset:clusterOffset+clusterSize], data)
	}

	return bytesextra.NewReadWriteSeeker(image)
}

func writeBootSector(image []byte, g Geometry, extendedSignature uint8) {
	binary.LittleEndian.PutUint16(image[11:13], uint16(g.BytesPerSector))
	image[13] = byte(g.SectorsPerCluster)
	binary.LittleEndian.PutUint16(image[14:16], uint16(g.ReservedSectors))
	image[16] = byte(g.FATCopies)
	binary.LittleEndian.PutUint16(image[17:19], uint16(g.RootDirEntries))
	binary.LittleEndian.PutUint16(image[19:21], uint16(g.TotalSectors))
	image[21] = 0xF8 // fixed disk media descriptor
	binary.LittleEndian.PutUint16(image[22:24], uint16(g.SectorsPerFAT))
	image[38] = extendedSignature // BS_BootSig, offset 38 in the extended BPB
}

// DiskFor creates a kfs.Disk with the given ID and sector size. It does not
// bind a block.Device to it: the caller calls fat16.BindDevice before
// fat16.Probe, and fat16.UnbindDevice when the test is done.
func DiskFor(id string, sectorSize uint) *kfs.Disk {
	return &kfs.Disk{ID: id, SectorSize: sectorSize}
}
