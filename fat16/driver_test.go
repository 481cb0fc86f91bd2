package fat16_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kfs "github.com/kestrelkernel/kfat"
	"github.com/kestrelkernel/kfat/block"
	"github.com/kestrelkernel/kfat/disks"
	"github.com/kestrelkernel/kfat/fat16"
	"github.com/kestrelkernel/kfat/testfixture"
)

// smallGeometry is a minimal but valid FAT16 geometry: one sector per
// cluster, room for 16 root entries, two FAT copies.
func smallGeometry() testfixture.Geometry {
	return testfixture.Geometry{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   1,
		FATCopies:         2,
		SectorsPerFAT:     1,
		RootDirEntries:    16,
		TotalSectors:      64,
	}
}

// mountDisk builds a volume from builder, binds it to a fresh *kfs.Disk, and
// returns the disk along with the device backing it. The caller still needs
// to call fat16.Probe.
func mountDisk(t *testing.T, geometry testfixture.Geometry, populate func(b *testfixture.Builder)) (*kfs.Disk, block.Device) {
	t.Helper()

	builder := testfixture.NewBuilder(geometry)
	populate(builder)
	stream := builder.Build(fat16.ExtendedSignature)

	device := block.NewSeekerDevice(stream, geometry.BytesPerSector, geometry.TotalSectors, 0)
	disk := testfixture.DiskFor(t.Name(), geometry.BytesPerSector)
	fat16.BindDevice(disk, device)
	t.Cleanup(func() { fat16.UnbindDevice(disk) })

	return disk, device
}

func TestProbe_ValidVolume(t *testing.T) {
	disk, _ := mountDisk(t, smallGeometry(), func(b *testfixture.Builder) {
		b.AddFile("README.TXT", []byte("hello, world"))
	})

	err := fat16.Probe(disk)
	require.NoError(t, err)
	assert.Same(t, &fat16.Driver, disk.Driver())
}

func TestProbe_WrongSignatureIsNotOurFileSystem(t *testing.T) {
	geometry := smallGeometry()
	builder := testfixture.NewBuilder(geometry)
	builder.AddFile("README.TXT", []byte("hello"))
	stream := builder.Build(0x00) // not 0x29

	device := block.NewSeekerDevice(stream, geometry.BytesPerSector, geometry.TotalSectors, 0)
	disk := testfixture.DiskFor(t.Name(), geometry.BytesPerSector)
	fat16.BindDevice(disk, device)
	t.Cleanup(func() { fat16.UnbindDevice(disk) })

	err := fat16.Probe(disk)
	assert.ErrorIs(t, err, kfs.ErrNotOurFileSystem)
}

func TestProbe_RequiresBoundDevice(t *testing.T) {
	disk := testfixture.DiskFor(t.Name(), 512)
	err := fat16.Probe(disk)
	assert.ErrorIs(t, err, kfs.ErrInvalidArgument)
}

func TestOpen_TopLevelFile(t *testing.T) {
	content := []byte("the quick brown fox")
	disk, _ := mountDisk(t, smallGeometry(), func(b *testfixture.Builder) {
		b.AddFile("FOX.TXT", content)
	})
	require.NoError(t, fat16.Probe(disk))

	handle, err := fat16.Open(disk, []string{"FOX.TXT"}, kfs.ModeRead)
	require.NoError(t, err)

	stat := handle.Stat()
	assert.EqualValues(t, len(content), stat.Size)
	assert.True(t, stat.IsFile())

	buf := make([]byte, len(content))
	n, err := handle.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, content, buf[:n])
}

func TestOpen_NestedFileAcrossSubdirectory(t *testing.T) {
	innerContent := []byte("nested file contents")
	disk, _ := mountDisk(t, smallGeometry(), func(b *testfixture.Builder) {
		b.AddDirectory("SUBDIR", map[string][]byte{
			"INNER.TXT": innerContent,
		})
		b.AddFile("TOP.TXT", []byte("top level"))
	})
	require.NoError(t, fat16.Probe(disk))

	handle, err := fat16.Open(disk, []string{"SUBDIR", "INNER.TXT"}, kfs.ModeRead)
	require.NoError(t, err)

	buf := make([]byte, len(innerContent))
	n, err := handle.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, innerContent, buf[:n])
}

func TestOpen_NameLookupIsCaseInsensitive(t *testing.T) {
	content := []byte("casing shouldn't matter")
	disk, _ := mountDisk(t, smallGeometry(), func(b *testfixture.Builder) {
		b.AddFile("README.TXT", content)
	})
	require.NoError(t, fat16.Probe(disk))

	handle, err := fat16.Open(disk, []string{"readme.txt"}, kfs.ModeRead)
	require.NoError(t, err)

	buf := make([]byte, len(content))
	n, err := handle.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, content, buf[:n])
}

func TestOpen_MissingPathFails(t *testing.T) {
	disk, _ := mountDisk(t, smallGeometry(), func(b *testfixture.Builder) {
		b.AddFile("ONE.TXT", []byte("x"))
	})
	require.NoError(t, fat16.Probe(disk))

	_, err := fat16.Open(disk, []string{"NOPE.TXT"}, kfs.ModeRead)
	assert.Error(t, err)
}

func TestOpen_RejectsWriteModes(t *testing.T) {
	disk, _ := mountDisk(t, smallGeometry(), func(b *testfixture.Builder) {
		b.AddFile("ONE.TXT", []byte("x"))
	})
	require.NoError(t, fat16.Probe(disk))

	_, err := fat16.Open(disk, []string{"ONE.TXT"}, kfs.ModeWrite)
	assert.ErrorIs(t, err, kfs.ErrReadOnlyFileSystem)

	_, err = fat16.Open(disk, []string{"ONE.TXT"}, kfs.ModeReadWrite)
	assert.ErrorIs(t, err, kfs.ErrReadOnlyFileSystem)
}

func TestOpen_DirectoryIsNotAFile(t *testing.T) {
	disk, _ := mountDisk(t, smallGeometry(), func(b *testfixture.Builder) {
		b.AddDirectory("SUBDIR", map[string][]byte{"A.TXT": []byte("a")})
	})
	require.NoError(t, fat16.Probe(disk))

	_, err := fat16.Open(disk, []string{"SUBDIR"}, kfs.ModeRead)
	assert.ErrorIs(t, err, kfs.ErrInvalidArgument)
}

// TestOpen_FATCycleInSubdirectoryFailsInstead scenario S7: a directory whose
// cluster chain loops back on itself must fail with IO rather than hang. The
// directory needs enough entries to span more than one cluster so the broken
// link is actually consulted while scanning; a directory that fits in its
// first cluster never walks the chain far enough to notice.
func TestOpen_FATCycleInSubdirectoryFailsInstead(t *testing.T) {
	geometry := smallGeometry()
	files := make(map[string][]byte)
	for i := 0; i < 20; i++ {
		files[fileNameForIndex(i)] = []byte{byte(i)}
	}

	builder := testfixture.NewBuilder(geometry)
	subdirCluster := builder.AddDirectory("LOOPY", files)
	builder.BreakChain(subdirCluster)
	stream := builder.Build(fat16.ExtendedSignature)

	device := block.NewSeekerDevice(stream, geometry.BytesPerSector, geometry.TotalSectors, 0)
	disk := testfixture.DiskFor(t.Name(), geometry.BytesPerSector)
	fat16.BindDevice(disk, device)
	t.Cleanup(func() { fat16.UnbindDevice(disk) })

	require.NoError(t, fat16.Probe(disk))

	_, err := fat16.Open(disk, []string{"LOOPY", fileNameForIndex(0)}, kfs.ModeRead)
	assert.ErrorIs(t, err, kfs.ErrIO)
}

// TestOpen_MultiClusterDirectory scenario S8: a subdirectory whose entries
// span two clusters must still be fully enumerable and resolvable.
func TestOpen_MultiClusterDirectory(t *testing.T) {
	geometry := smallGeometry()
	files := make(map[string][]byte)
	for i := 0; i < 20; i++ {
		files[fileNameForIndex(i)] = []byte{byte(i)}
	}

	disk, _ := mountDisk(t, geometry, func(b *testfixture.Builder) {
		b.AddDirectory("MANY", files)
	})
	require.NoError(t, fat16.Probe(disk))

	handle, err := fat16.Open(disk, []string{"MANY", fileNameForIndex(18)}, kfs.ModeRead)
	require.NoError(t, err)

	buf := make([]byte, 1)
	n, err := handle.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{18}, buf[:n])
}

func fileNameForIndex(i int) string {
	return "F" + string(rune('A'+i)) + ".TXT"
}

// TestOpen_MidClusterCrossingRead scenario S9: a read that starts partway
// through a cluster and requests more bytes than remain in it must cross
// into the next cluster using the edge-bounded round size, not the
// full-cluster-size bound.
func TestOpen_MidClusterCrossingRead(t *testing.T) {
	geometry := smallGeometry()
	clusterSize := int(geometry.BytesPerSector) * int(geometry.SectorsPerCluster)

	content := make([]byte, clusterSize*2)
	for i := range content {
		content[i] = byte(i % 256)
	}

	disk, _ := mountDisk(t, geometry, func(b *testfixture.Builder) {
		b.AddFile("BIG.BIN", content)
	})
	require.NoError(t, fat16.Probe(disk))

	handle, err := fat16.Open(disk, []string{"BIG.BIN"}, kfs.ModeRead)
	require.NoError(t, err)

	offset := int64(clusterSize - 100)
	length := 300 // crosses the cluster boundary by 200 bytes
	buf := make([]byte, length)
	n, err := handle.ReadAt(buf, offset)
	require.NoError(t, err)
	assert.Equal(t, content[offset:int(offset)+n], buf[:n])
	assert.Equal(t, length, n)
}

func TestOpen_ReadPastEndOfFileReturnsEOF(t *testing.T) {
	content := []byte("short")
	disk, _ := mountDisk(t, smallGeometry(), func(b *testfixture.Builder) {
		b.AddFile("SHORT.TXT", content)
	})
	require.NoError(t, fat16.Probe(disk))

	handle, err := fat16.Open(disk, []string{"SHORT.TXT"}, kfs.ModeRead)
	require.NoError(t, err)

	buf := make([]byte, 100)
	n, err := handle.ReadAt(buf, 0)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, content, buf[:n])
}

// TestProbe_KnownVolumeProfile mounts a volume built from the disks
// catalog's "floppy-1440k" geometry instead of a hand-filled Geometry,
// exercising the catalog lookup path a caller would use to build a fixture
// for a specific, named media size.
func TestProbe_KnownVolumeProfile(t *testing.T) {
	builder, err := testfixture.NewBuilderFromProfile("floppy-1440k")
	require.NoError(t, err)
	builder.AddFile("README.TXT", []byte("hello from a 1.44MB floppy"))
	stream := builder.Build(fat16.ExtendedSignature)

	profile, err := disks.Lookup("floppy-1440k")
	require.NoError(t, err)

	device := block.NewSeekerDevice(stream, profile.BytesPerSector, profile.TotalSectors, 0)
	disk := testfixture.DiskFor(t.Name(), profile.BytesPerSector)
	fat16.BindDevice(disk, device)
	t.Cleanup(func() { fat16.UnbindDevice(disk) })

	require.NoError(t, fat16.Probe(disk))

	handle, err := fat16.Open(disk, []string{"README.TXT"}, kfs.ModeRead)
	require.NoError(t, err)
	assert.EqualValues(t, profile.TotalSizeBytes(), int64(profile.TotalSectors)*int64(profile.BytesPerSector))
	assert.True(t, handle.Stat().IsFile())
}

// TestVerifyFATCopies_DetectsMismatch scenario S10: Probe succeeds even when
// two FAT copies disagree, but VerifyFATCopies surfaces the discrepancy.
func TestVerifyFATCopies_DetectsMismatch(t *testing.T) {
	geometry := smallGeometry()
	builder := testfixture.NewBuilder(geometry)
	builder.AddFile("ONE.TXT", []byte("x"))
	stream := builder.Build(fat16.ExtendedSignature)

	fatBytesPerCopy := int64(geometry.SectorsPerFAT * geometry.BytesPerSector)
	firstFATByte := int64(geometry.ReservedSectors * geometry.BytesPerSector)
	secondCopyOffset := firstFATByte + fatBytesPerCopy

	_, err := stream.Seek(secondCopyOffset+4, io.SeekStart)
	require.NoError(t, err)
	_, err = stream.Write([]byte{0xEE, 0xEE})
	require.NoError(t, err)
	_, err = stream.Seek(0, io.SeekStart)
	require.NoError(t, err)

	device := block.NewSeekerDevice(stream, geometry.BytesPerSector, geometry.TotalSectors, 0)
	disk := testfixture.DiskFor(t.Name(), geometry.BytesPerSector)
	fat16.BindDevice(disk, device)
	t.Cleanup(func() { fat16.UnbindDevice(disk) })

	require.NoError(t, fat16.Probe(disk))

	state, ok := disk.Private().(*fat16.PrivateState)
	require.True(t, ok)

	verifyErr := fat16.VerifyFATCopies(state.Geometry, device)
	assert.Error(t, verifyErr)
}
