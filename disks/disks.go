// Package disks catalogs known FAT16 volume geometries for well-established
// media formats, so test fixtures and diagnostic tooling can build a
// synthetic image from a slug ("floppy-1440k", "hdd-20m") instead of hand-filling
// every BIOS Parameter Block field.
package disks

import (
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// VolumeProfile is one row of the known-geometry catalog: the BPB field
// values that describe a FAT16 volume of a given, named size class.
type VolumeProfile struct {
	Name              string `csv:"name"`
	Slug              string `csv:"slug"`
	BytesPerSector    uint   `csv:"bytes_per_sector"`
	SectorsPerCluster uint   `csv:"sectors_per_cluster"`
	ReservedSectors   uint   `csv:"reserved_sectors"`
	FATCopies         uint   `csv:"fat_copies"`
	SectorsPerFAT     uint   `csv:"sectors_per_fat"`
	RootDirEntries    uint   `csv:"root_dir_entries"`
	TotalSectors      uint   `csv:"total_sectors"`
	Notes             string `csv:"notes"`
}

// TotalSizeBytes gives the minimum image size this profile describes.
func (p *VolumeProfile) TotalSizeBytes() int64 {
	return int64(p.TotalSectors) * int64(p.BytesPerSector)
}

// knownVolumeProfilesCSV holds the catalog inline rather than via go:embed:
// this package ships as a single file and the catalog is small enough that
// a separate data file would only add a build-time dependency with no
// benefit.
const knownVolumeProfilesCSV = `name,slug,bytes_per_sector,sectors_per_cluster,reserved_sectors,fat_copies,sectors_per_fat,root_dir_entries,total_sectors,notes
"360KB 5.25in floppy",floppy-360k,512,2,1,2,2,112,720,"double-sided double-density"
"720KB 3.5in floppy",floppy-720k,512,2,1,2,3,112,1440,"double-sided double-density"
"1.2MB 5.25in floppy",floppy-1200k,512,1,1,2,7,224,2400,"double-sided high-density"
"1.44MB 3.5in floppy",floppy-1440k,512,1,1,2,9,224,2880,"double-sided high-density"
"20MB hard disk partition",hdd-20m,512,4,1,2,32,512,40960,"small FAT16 hard disk volume"
`

var volumeProfiles map[string]VolumeProfile

func init() {
	volumeProfiles = make(map[string]VolumeProfile)

	reader := strings.NewReader(knownVolumeProfilesCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row VolumeProfile) error {
		if _, exists := volumeProfiles[row.Slug]; exists {
			return fmt.Errorf("duplicate volume profile slug %q", row.Slug)
		}
		volumeProfiles[row.Slug] = row
		return nil
	})
	if err != nil {
		panic(err)
	}
}

// Lookup returns the named volume profile, or an error if no profile with
// that slug is known.
func Lookup(slug string) (VolumeProfile, error) {
	profile, ok := volumeProfiles[slug]
	if !ok {
		return VolumeProfile{}, fmt.Errorf("no predefined volume profile exists with slug %q", slug)
	}
	return profile, nil
}

// Slugs returns every known profile's slug. The order of the returned slugs
// is not defined; it does not follow the catalog's row order.
func Slugs() []string {
	slugs := make([]string, 0, len(volumeProfiles))
	for slug := range volumeProfiles {
		slugs = append(slugs, slug)
	}
	return slugs
}
