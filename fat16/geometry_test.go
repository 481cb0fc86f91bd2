package fat16_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kfs "github.com/kestrelkernel/kfat"
	"github.com/kestrelkernel/kfat/fat16"
)

func validRawBootSector() *fat16.RawBootSector {
	return &fat16.RawBootSector{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   1,
		NumFATs:           2,
		RootEntryCount:    16,
		TotalSectors16:    64,
		SectorsPerFAT16:   1,
		ExtendedSignature: fat16.ExtendedSignature,
	}
}

func TestNewGeometry_Valid(t *testing.T) {
	geometry, err := fat16.NewGeometry(validRawBootSector())
	require.NoError(t, err)

	assert.EqualValues(t, 512, geometry.BytesPerSector)
	assert.EqualValues(t, 1, geometry.FirstFATSector)
	assert.EqualValues(t, 3, geometry.FirstRootDirSector) // reserved(1) + 2 FAT copies * 1 sector
	assert.EqualValues(t, 4, geometry.FirstDataSector)    // +1 root dir sector
	assert.EqualValues(t, 60, geometry.TotalClusters)     // (64-4)/1
}

func TestNewGeometry_WrongSignature(t *testing.T) {
	raw := validRawBootSector()
	raw.ExtendedSignature = 0x28

	_, err := fat16.NewGeometry(raw)
	assert.ErrorIs(t, err, kfs.ErrNotOurFileSystem)
}

func TestNewGeometry_BadBytesPerSector(t *testing.T) {
	raw := validRawBootSector()
	raw.BytesPerSector = 300

	_, err := fat16.NewGeometry(raw)
	assert.ErrorIs(t, err, kfs.ErrInvalidArgument)
}

func TestNewGeometry_BadSectorsPerCluster(t *testing.T) {
	raw := validRawBootSector()
	raw.SectorsPerCluster = 3

	_, err := fat16.NewGeometry(raw)
	assert.ErrorIs(t, err, kfs.ErrInvalidArgument)
}

func TestNewGeometry_ZeroFATsRejected(t *testing.T) {
	raw := validRawBootSector()
	raw.NumFATs = 0

	_, err := fat16.NewGeometry(raw)
	assert.ErrorIs(t, err, kfs.ErrInvalidArgument)
}

func TestNewGeometry_ZeroReservedSectorsRejected(t *testing.T) {
	raw := validRawBootSector()
	raw.ReservedSectors = 0

	_, err := fat16.NewGeometry(raw)
	assert.ErrorIs(t, err, kfs.ErrInvalidArgument)
}

func TestGeometry_ClusterToSector(t *testing.T) {
	geometry, err := fat16.NewGeometry(validRawBootSector())
	require.NoError(t, err)

	assert.EqualValues(t, geometry.FirstDataSector, geometry.ClusterToSector(2))
	assert.EqualValues(t, geometry.FirstDataSector+1, geometry.ClusterToSector(3))
}

func TestGeometry_FATEntryByteOffset(t *testing.T) {
	geometry, err := fat16.NewGeometry(validRawBootSector())
	require.NoError(t, err)

	firstFATByte := geometry.SectorToByte(geometry.FirstFATSector)
	assert.EqualValues(t, firstFATByte+4, geometry.FATEntryByteOffset(2))
}
