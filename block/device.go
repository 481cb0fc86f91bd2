// Package block provides a read-only, sector-granular view over a backing
// io.ReadSeeker, and a byte-granular Stream built on top of it. File system
// drivers never seek the backing storage directly; they go through a
// Device and the Stream it supports.
package block

import (
	"fmt"
	"io"

	kfs "github.com/kestrelkernel/kfat"
)

// Device is the narrow read interface a driver's Probe/Open implementation
// requires of the underlying storage: fetch whole sectors by index. It
// deliberately carries none of a disko.DriverImplementation's write,
// allocate, or resize members; a device here is always mounted read-only.
type Device interface {
	// SectorSize returns the size, in bytes, of one sector on this device.
	SectorSize() uint
	// TotalSectors returns the total number of sectors available.
	TotalSectors() uint
	// ReadSectors reads count whole sectors starting at sector index first
	// and returns exactly count*SectorSize() bytes. It fails with
	// kfs.ErrIO if the requested range falls outside [0, TotalSectors()).
	ReadSectors(first uint, count uint) ([]byte, error)
}

// SeekerDevice adapts any io.ReadSeeker (a disk image, a test fixture backed
// by bytesextra.NewReadWriteSeeker, ...) into a Device with a fixed sector
// size and an optional byte offset marking where sector 0 begins. The
// offset lets a Device be built over a single partition embedded inside a
// larger image without a caller having to slice the backing stream first.
type SeekerDevice struct {
	sectorSize   uint
	totalSectors uint
	startOffset  int64
	source       io.ReadSeeker
}

// NewSeekerDevice builds a SeekerDevice. totalSectors is taken as given
// rather than derived from the stream's length, since a caller may want to
// expose only a subrange of a larger backing stream.
func NewSeekerDevice(source io.ReadSeeker, sectorSize uint, totalSectors uint, startOffset int64) *SeekerDevice {
	return &SeekerDevice{
		sectorSize:   sectorSize,
		totalSectors: totalSectors,
		startOffset:  startOffset,
		source:       source,
	}
}

// DetermineSectorCount returns the number of whole sectors of size
// sectorSize that fit in stream, rounding down.
func DetermineSectorCount(stream io.Seeker, sectorSize uint) (uint, error) {
	offset, err := stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, kfs.ErrIO.Wrap(err)
	}
	return uint(offset) / sectorSize, nil
}

func (d *SeekerDevice) SectorSize() uint   { return d.sectorSize }
func (d *SeekerDevice) TotalSectors() uint { return d.totalSectors }

func (d *SeekerDevice) sectorOffset(first uint) (int64, error) {
	if first >= d.totalSectors {
		return 0, kfs.ErrIO.WithMessage(
			fmt.Sprintf("sector %d out of range [0, %d)", first, d.totalSectors))
	}
	return d.startOffset + int64(first)*int64(d.sectorSize), nil
}

// ReadSectors implements Device.
func (d *SeekerDevice) ReadSectors(first uint, count uint) ([]byte, error) {
	if count == 0 {
		return nil, nil
	}
	if first+count > d.totalSectors {
		return nil, kfs.ErrIO.WithMessage(
			fmt.Sprintf(
				"read of %d sectors at %d extends past end of device (%d sectors total)",
				count, first, d.totalSectors))
	}

	offset, err := d.sectorOffset(first)
	if err != nil {
		return nil, err
	}
	if _, err := d.source.Seek(offset, io.SeekStart); err != nil {
		return nil, kfs.ErrIO.Wrap(err)
	}

	buffer := make([]byte, d.sectorSize*count)
	if _, err := io.ReadFull(d.source, buffer); err != nil {
		return nil, kfs.ErrIO.Wrap(err)
	}
	return buffer, nil
}
