package kfs

import (
	"os"
	"time"
)

// OpenMode is the access mode requested of Open. It mirrors the handful of
// os.O_* flags a read-only driver actually needs to inspect, rather than the
// full POSIX open(2) flag set external collaborators (the VFS dispatch
// table, the file descriptor table) are responsible for interpreting
// further.
type OpenMode int

const (
	// ModeRead opens a file for reading only. It is the only mode a
	// read-only driver accepts.
	ModeRead OpenMode = iota
	// ModeWrite opens a file for writing only.
	ModeWrite
	// ModeReadWrite opens a file for both reading and writing.
	ModeReadWrite
)

// IsReadOnly reports whether mode requests nothing but read access.
func (mode OpenMode) IsReadOnly() bool {
	return mode == ModeRead
}

// FileStat is the subset of file metadata a read-only driver can report,
// trimmed from a general POSIX stat(2) structure down to what a FAT16
// directory entry actually carries.
type FileStat struct {
	Size         int64
	ModeFlags    os.FileMode
	CreatedAt    time.Time
	LastAccessed time.Time
	LastModified time.Time
}

// IsDir reports whether the described object is a directory.
func (stat FileStat) IsDir() bool {
	return stat.ModeFlags.IsDir()
}

// IsFile reports whether the described object is a regular file.
func (stat FileStat) IsFile() bool {
	return stat.ModeFlags.IsRegular()
}

// Disk is the minimal view of a mounted block device that a driver's
// capability table operates on. The block device and stream layers
// (package block) are external collaborators; Disk is the
// handle the VFS dispatch layer threads through Probe and Open.
type Disk struct {
	// ID identifies the underlying block device to the block/stream layer.
	ID string
	// SectorSize is the size of one addressable unit on the device, in
	// bytes. The driver never issues reads smaller than this directly.
	SectorSize uint

	// fsPrivate is the driver-owned state installed by a successful Probe,
	// and is nil until then. It is `any` because kfs does not know the
	// concrete type of any particular driver's private state; drivers type
	// assert on their own sentinel type when reclaiming it.
	fsPrivate any
	// driver is the capability table that claimed this disk, or nil.
	driver *FileSystemDriver
}

// Private returns the driver-installed private state, or nil if no driver
// has successfully probed this disk yet.
func (d *Disk) Private() any {
	return d.fsPrivate
}

// SetPrivate installs or clears (pass nil) the private state and owning
// driver for this disk. Probe implementations call this; nothing else
// should.
func (d *Disk) SetPrivate(driver *FileSystemDriver, state any) {
	d.driver = driver
	d.fsPrivate = state
}

// Driver returns the capability table that has successfully probed this
// disk, or nil.
func (d *Disk) Driver() *FileSystemDriver {
	return d.driver
}

// FileHandle is what Open returns on success: an opaque, driver-owned
// reference plus the read cursor the VFS-level file descriptor table wraps.
// Reading through the cursor and closing the handle are the responsibility
// of that external file descriptor table; this type only
// carries what a driver needs to service those calls.
type FileHandle interface {
	// Stat returns metadata about the open file.
	Stat() FileStat
	// ReadAt reads len(p) bytes starting at absolute offset off within the
	// file, returning the number of bytes read before io.EOF or error.
	ReadAt(p []byte, off int64) (int, error)
}

// FileSystemDriver is the capability table a driver registers with the VFS
// dispatch layer: a name, a probe function, and an open function. The
// dispatch table, the registry it lives in, and the top-level file
// descriptor table are external collaborators; this struct is only the
// shape a driver must present to them.
type FileSystemDriver struct {
	// Name identifies the driver, e.g. "FAT16".
	Name string
	// Probe attempts to recognize and mount the file system on disk. It
	// returns ErrNotOurFileSystem if the volume's signature doesn't match,
	// ErrInvalidArgument if the disk or its boot sector fields are unusable,
	// or ErrIO/ErrNoMemory on other failures. On success disk.Private()
	// becomes non-nil.
	Probe func(disk *Disk) error
	// Open resolves path (a sequence of canonical NAME[.EXT] components,
	// already tokenized by an external collaborator) to a readable file
	// handle. mode must be ModeRead; anything else fails with
	// ErrReadOnlyFileSystem.
	Open func(disk *Disk, path []string, mode OpenMode) (FileHandle, error)
}
