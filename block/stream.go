package block

import (
	"io"

	kfs "github.com/kestrelkernel/kfat"
)

// Stream is a byte-granular, read-only, seekable view over a Device. It
// buffers the sectors its current read spans and copies out only the
// requested bytes, so callers never have to round offsets or sizes to the
// device's sector size themselves.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	device Device
	// length is the logical size of the stream in bytes, which may be
	// smaller than device.TotalSectors()*device.SectorSize() when the
	// stream represents, say, a file shorter than its last cluster.
	length   int64
	position int64
}

// New creates a Stream of the given logical length over device. length must
// not exceed the device's total capacity in bytes.
func New(device Device, length int64) (*Stream, error) {
	capacity := int64(device.TotalSectors()) * int64(device.SectorSize())
	if length < 0 || length > capacity {
		return nil, kfs.ErrInvalidArgument.WithMessage("stream length out of range")
	}
	return &Stream{device: device, length: length}, nil
}

// Seek repositions the stream. Seeking past the end of the stream is legal;
// a subsequent Read simply returns io.EOF immediately.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var absolute int64
	switch whence {
	case io.SeekStart:
		absolute = offset
	case io.SeekCurrent:
		absolute = s.position + offset
	case io.SeekEnd:
		absolute = s.length + offset
	default:
		return s.position, kfs.ErrInvalidArgument.WithMessage("invalid seek whence")
	}
	if absolute < 0 {
		return s.position, kfs.ErrInvalidArgument.WithMessage("seek before start of stream")
	}
	s.position = absolute
	return absolute, nil
}

// Tell returns the current stream position without moving it.
func (s *Stream) Tell() int64 {
	return s.position
}

// Size returns the logical length of the stream, in bytes.
func (s *Stream) Size() int64 {
	return s.length
}

func (s *Stream) convertLinearAddr(offset int64) (uint, uint) {
	sectorSize := int64(s.device.SectorSize())
	return uint(offset / sectorSize), uint(offset % sectorSize)
}

// Read reads into buffer starting at the current position and advances it
// by the number of bytes read.
func (s *Stream) Read(buffer []byte) (int, error) {
	n, err := s.ReadAt(buffer, s.position)
	s.position += int64(n)
	return n, err
}

// ReadAt reads into buffer starting at absolute offset offset, without
// touching the stream's current position. It clamps the read to the
// stream's logical length and returns io.EOF once offset reaches it.
func (s *Stream) ReadAt(buffer []byte, offset int64) (int, error) {
	bufLen := int64(len(buffer))
	if bufLen == 0 {
		return 0, nil
	}

	var wantLen int64
	if offset >= s.length {
		return 0, io.EOF
	} else if offset+bufLen > s.length {
		wantLen = s.length - offset
	} else {
		wantLen = bufLen
	}

	firstSector, firstSectorOffset := s.convertLinearAddr(offset)
	lastSector, _ := s.convertLinearAddr(offset + wantLen - 1)

	sectorData, err := s.device.ReadSectors(firstSector, lastSector-firstSector+1)
	if err != nil {
		return 0, err
	}

	copy(buffer, sectorData[firstSectorOffset:firstSectorOffset+uint(wantLen)])

	if wantLen < bufLen {
		return int(wantLen), io.EOF
	}
	return int(wantLen), nil
}

// Close is a no-op: Stream owns no resource beyond the Device it was built
// on, which outlives any one Stream drawn from it.
func (s *Stream) Close() error {
	return nil
}
