// Package compression implements an RLE8+gzip codec for storing synthetic
// FAT16 disk images as compact test fixtures, so a multi-megabyte floppy
// image could live in a test file as a few hundred bytes of source.
package compression

import (
	"bufio"
	"errors"
	"io"
	"math"
)

// byteRun is one run of a repeated byte value, as produced by a runScanner.
type byteRun struct {
	value  byte
	length int
}

// runScanner groups consecutive identical bytes from a reader into runs,
// the way `uniq -c` groups identical lines.
type runScanner struct {
	src io.ByteScanner
}

func newRunScanner(r io.Reader) runScanner {
	return runScanner{src: bufio.NewReader(r)}
}

// next returns the next run. A non-zero length run is always paired with a
// nil or io.EOF error, matching io.Reader's own EOF convention.
func (s runScanner) next() (byteRun, error) {
	first, err := s.src.ReadByte()
	if err != nil {
		return byteRun{}, err
	}

	length := 1
	for ; length < math.MaxInt; length++ {
		next, err := s.src.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return byteRun{value: first, length: length}, io.EOF
			}
			return byteRun{}, err
		}
		if next != first {
			s.src.UnreadByte()
			return byteRun{value: first, length: length}, nil
		}
	}
	return byteRun{value: first, length: length}, nil
}

// encodeRLE8 writes a byte-oriented RLE encoding of input to output: a
// single byte stands for itself, and a run of two or more identical bytes
// is written as [byte, byte, count] where count is run length minus 2,
// capped at 255 (runs longer than 257 bytes are split across records).
func encodeRLE8(input io.Reader, output io.Writer) (int64, error) {
	scanner := newRunScanner(input)
	var written int64

	for {
		run, scanErr := scanner.next()
		if scanErr != nil && !errors.Is(scanErr, io.EOF) {
			return written, scanErr
		}

		for run.length >= 2 {
			var repeatCount int
			if run.length > 257 {
				repeatCount = 255
			} else {
				repeatCount = run.length - 2
			}
			n, err := output.Write([]byte{run.value, run.value, byte(repeatCount)})
			if err != nil {
				return written, err
			}
			written += int64(n)
			run.length -= repeatCount + 2
		}

		if run.length == 1 {
			n, err := output.Write([]byte{run.value})
			if err != nil {
				return written, err
			}
			written += int64(n)
		}

		if scanErr != nil {
			return written, nil
		}
	}
}

// decodeRLE8 reverses encodeRLE8.
func decodeRLE8(input io.Reader, output io.Writer) (int64, error) {
	src := bufio.NewReader(input)
	lastByte := -1
	var written int64

	for {
		current, err := src.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return written, nil
			}
			return written, err
		}

		var chunk []byte
		if int(current) == lastByte {
			repeatByte, err := src.ReadByte()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return written, io.ErrUnexpectedEOF
				}
				return written, err
			}
			chunk = make([]byte, int(repeatByte)+1)
			for i := range chunk {
				chunk[i] = current
			}
			lastByte = -1
		} else {
			lastByte = int(current)
			chunk = []byte{current}
		}

		n, err := output.Write(chunk)
		if err != nil {
			return written, err
		}
		written += int64(n)
	}
}
