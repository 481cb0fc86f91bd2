package fat16

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelkernel/kfat/block"
	"github.com/kestrelkernel/kfat/testfixture"
)

func mustMountForResolve(t *testing.T, populate func(b *testfixture.Builder)) *PrivateState {
	t.Helper()

	geometry := testfixture.Geometry{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   1,
		FATCopies:         1,
		SectorsPerFAT:     1,
		RootDirEntries:    16,
		TotalSectors:      64,
	}

	builder := testfixture.NewBuilder(geometry)
	populate(builder)
	stream := builder.Build(ExtendedSignature)
	device := block.NewSeekerDevice(stream, geometry.BytesPerSector, geometry.TotalSectors, 0)

	raw, err := ReadRawBootSector(stream)
	require.NoError(t, err)
	_, err = stream.Seek(0, io.SeekStart)
	require.NoError(t, err)

	g, err := NewGeometry(raw)
	require.NoError(t, err)

	walker, err := NewWalker(g, device)
	require.NoError(t, err)
	reader, err := NewClusterReader(g, device, walker)
	require.NoError(t, err)
	loader, err := newDirectoryLoader(g, device, walker, reader)
	require.NoError(t, err)

	root, err := loader.LoadRoot()
	require.NoError(t, err)

	return &PrivateState{Geometry: g, Root: root, walker: walker, reader: reader, loader: loader, device: device}
}

func TestResolve_RootPath(t *testing.T) {
	state := mustMountForResolve(t, func(b *testfixture.Builder) {
		b.AddFile("ONE.TXT", []byte("x"))
	})

	item, err := Resolve(state.loader, state.Root, nil)
	require.NoError(t, err)

	dirItem, ok := item.(DirectoryItem)
	require.True(t, ok)
	assert.Same(t, state.Root, dirItem.Dir)
}

func TestResolve_NestedPathReleasesIntermediateItems(t *testing.T) {
	state := mustMountForResolve(t, func(b *testfixture.Builder) {
		b.AddDirectory("A", map[string][]byte{"B.TXT": []byte("b")})
	})

	before := LiveDirectoryItems()

	_, err := Resolve(state.loader, state.Root, []string{"A", "B.TXT"})
	require.NoError(t, err)

	assert.Equal(t, before, LiveDirectoryItems(),
		"resolver must not leak a held DirectoryItem past Resolve returning")
}

func TestResolve_NotFoundReturnsNilWithoutError(t *testing.T) {
	state := mustMountForResolve(t, func(b *testfixture.Builder) {
		b.AddFile("ONE.TXT", []byte("x"))
	})

	item, err := Resolve(state.loader, state.Root, []string{"MISSING.TXT"})
	assert.NoError(t, err)
	assert.Nil(t, item)
}

func TestResolve_ComponentPastAFileFails(t *testing.T) {
	state := mustMountForResolve(t, func(b *testfixture.Builder) {
		b.AddFile("ONE.TXT", []byte("x"))
	})

	item, err := Resolve(state.loader, state.Root, []string{"ONE.TXT", "NESTED"})
	assert.NoError(t, err)
	assert.Nil(t, item)
}
