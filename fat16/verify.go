package fat16

import (
	"bytes"
	"fmt"

	"github.com/hashicorp/go-multierror"

	kfs "github.com/kestrelkernel/kfat"
	"github.com/kestrelkernel/kfat/block"
)

// VerifyFATCopies reads every FAT copy geometry.FATCopies describes and
// compares each one against the first, byte for byte. Unlike the read path
// this package otherwise implements, this is a diagnostic pass invoked
// explicitly by a caller: it accumulates one discrepancy per mismatched copy
// into a multierror.Error instead of stopping at the first mismatch, and it
// never influences Probe or Open beyond the warning Probe logs when copies
// disagree — traversal always reads copy 0 only.
func VerifyFATCopies(geometry *Geometry, device block.Device) error {
	if geometry.FATCopies < 2 {
		return nil
	}

	fatBytes := int64(geometry.SectorsPerFAT) * int64(geometry.BytesPerSector)
	stream, err := block.New(device, int64(device.TotalSectors())*int64(device.SectorSize()))
	if err != nil {
		return err
	}

	first := make([]byte, fatBytes)
	firstOffset := geometry.SectorToByte(geometry.FirstFATSector)
	if _, err := stream.ReadAt(first, firstOffset); err != nil {
		return kfs.ErrIO.Wrap(err)
	}

	var result *multierror.Error
	for copyIndex := uint(1); copyIndex < geometry.FATCopies; copyIndex++ {
		copyOffset := firstOffset + int64(copyIndex)*fatBytes
		candidate := make([]byte, fatBytes)
		if _, err := stream.ReadAt(candidate, copyOffset); err != nil {
			result = multierror.Append(result, kfs.ErrIO.Wrap(err))
			continue
		}
		if !bytes.Equal(first, candidate) {
			result = multierror.Append(result, fmt.Errorf("FAT copy %d differs from copy 0", copyIndex))
		}
	}

	return result.ErrorOrNil()
}
