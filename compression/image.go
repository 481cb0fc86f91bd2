package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// CompressImage RLE8-encodes input and gzips the result into output, for
// storing a synthetic disk image as a small fixture. It returns the number
// of bytes written to output.
func CompressImage(input io.Reader, output io.Writer) (int64, error) {
	counter := &countingWriter{w: output}

	gzWriter, err := gzip.NewWriterLevel(counter, gzip.BestCompression)
	if err != nil {
		return 0, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	_, encodeErr := encodeRLE8(input, gzWriter)
	closeErr := gzWriter.Close()
	if encodeErr != nil {
		return counter.n, fmt.Errorf("RLE8 encoding error: %w", encodeErr)
	}
	if closeErr != nil {
		return counter.n, fmt.Errorf("gzip compression error: %w", closeErr)
	}
	return counter.n, nil
}

// DecompressImage reverses CompressImage, writing the original bytes to
// output.
func DecompressImage(input io.Reader, output io.Writer) (int64, error) {
	gzReader, err := gzip.NewReader(input)
	if err != nil {
		return 0, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()
	return decodeRLE8(gzReader, output)
}

// DecompressImageToBytes decompresses input directly into a byte slice, the
// form test fixtures need to hand a disk image to an in-memory ReadWriteSeeker.
func DecompressImageToBytes(input io.Reader) ([]byte, error) {
	var buffer bytes.Buffer
	if _, err := DecompressImage(input, &buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// countingWriter tracks how many bytes have passed through it, since
// gzip.Writer doesn't expose that on its own.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
