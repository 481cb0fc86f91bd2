package compression_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelkernel/kfat/compression"
)

func TestRoundTripImageCompression(t *testing.T) {
	randomData := make([]byte, 119)
	rand.Read(randomData)

	testData := map[string][]byte{
		"homogenous":   bytes.Repeat([]byte{0x42}, 9174),
		"empty":        {},
		"heterogenous": randomData,
	}

	for name, sourceData := range testData {
		t.Run(name, func(t *testing.T) {
			compressedBuffer := make([]byte, 10240)
			compressedWriter := bytewriter.New(compressedBuffer)

			compressedSize, err := compression.CompressImage(bytes.NewReader(sourceData), compressedWriter)
			require.NoError(t, err)

			decompressedBuffer := make([]byte, len(sourceData))
			decompressedWriter := bytewriter.New(decompressedBuffer)

			n, err := compression.DecompressImage(
				bytes.NewReader(compressedBuffer[:compressedSize]), decompressedWriter)
			require.NoError(t, err)
			assert.EqualValues(t, len(sourceData), n)
			assert.Equal(t, sourceData, decompressedBuffer)
		})
	}
}

func TestDecompressImageToBytes(t *testing.T) {
	original := bytes.Repeat([]byte{0x01, 0x02}, 300)

	var compressed bytes.Buffer
	_, err := compression.CompressImage(bytes.NewReader(original), &compressed)
	require.NoError(t, err)

	decompressed, err := compression.DecompressImageToBytes(&compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}
