package fat16

import (
	"github.com/dsoprea/go-logging"

	kfs "github.com/kestrelkernel/kfat"
	"github.com/kestrelkernel/kfat/block"
)

// Driver is the registered capability table for this package, matching the
// generic filesystem capability set { name, probe, open }.
var Driver = kfs.FileSystemDriver{
	Name:  "FAT16",
	Probe: Probe,
	Open:  Open,
}

var driverLogger = log.NewLogger("fat16.driver")

// Probe attempts to recognize and mount a FAT16 volume on disk. On success
// disk.Private() holds a *PrivateState; on any failure the disk is left
// unbound, matching the cleanup-on-failure discipline of the rest of this
// package.
func Probe(disk *kfs.Disk) error {
	device, err := deviceFor(disk)
	if err != nil {
		return err
	}

	bootStream, err := block.New(device, int64(device.SectorSize()))
	if err != nil {
		return err
	}

	raw, err := ReadRawBootSector(bootStream)
	if err != nil {
		return err
	}

	geometry, err := NewGeometry(raw)
	if err != nil {
		return err
	}

	walker, err := NewWalker(geometry, device)
	if err != nil {
		return err
	}
	reader, err := NewClusterReader(geometry, device, walker)
	if err != nil {
		return err
	}
	loader, err := newDirectoryLoader(geometry, device, walker, reader)
	if err != nil {
		return err
	}

	root, err := loader.LoadRoot()
	if err != nil {
		return err
	}

	if geometry.FATCopies > 1 {
		if verifyErr := VerifyFATCopies(geometry, device); verifyErr != nil {
			driverLogger.Warningf(nil, "FAT copies disagree on %q, mounting read-only anyway: %s", disk.ID, verifyErr)
		}
	}

	state := &PrivateState{
		Geometry: geometry,
		Root:     root,
		walker:   walker,
		reader:   reader,
		loader:   loader,
		device:   device,
	}
	disk.SetPrivate(&Driver, state)
	return nil
}

// Open resolves path to a readable file handle. It fails with
// kfs.ErrReadOnlyFileSystem if mode isn't ModeRead, kfs.ErrIO if path
// doesn't exist, and kfs.ErrInvalidArgument if path names a directory.
func Open(disk *kfs.Disk, path []string, mode kfs.OpenMode) (kfs.FileHandle, error) {
	if !mode.IsReadOnly() {
		return nil, kfs.ErrReadOnlyFileSystem
	}

	state, ok := disk.Private().(*PrivateState)
	if !ok || state == nil {
		return nil, kfs.ErrIO.WithMessage("disk has not been probed by the FAT16 driver")
	}

	item, err := Resolve(state.loader, state.Root, path)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, kfs.ErrIO.WithMessage("path not found")
	}

	fileItem, ok := item.(FileItem)
	if !ok {
		return nil, kfs.ErrInvalidArgument.WithMessage("path resolves to a directory, not a file")
	}

	return newFileHandle(state, fileItem), nil
}

// ListDirectory resolves path to a directory and returns its entries. It
// exists for host-side tooling (cmd/fat16cli's ls command) that needs to
// enumerate a directory, which falls outside kfs.FileHandle's read-a-file
// contract.
func ListDirectory(disk *kfs.Disk, path []string) ([]Dirent, error) {
	state, ok := disk.Private().(*PrivateState)
	if !ok || state == nil {
		return nil, kfs.ErrIO.WithMessage("disk has not been probed by the FAT16 driver")
	}

	item, err := Resolve(state.loader, state.Root, path)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, kfs.ErrIO.WithMessage("path not found")
	}

	dirItem, ok := item.(DirectoryItem)
	if !ok {
		return nil, kfs.ErrInvalidArgument.WithMessage("path resolves to a file, not a directory")
	}
	return dirItem.Dir.Entries, nil
}

// deviceFor adapts a *kfs.Disk into the block.Device this package reads
// through. The disk's ID names the underlying block device to an external
// block-device registry, which is a non-goal collaborator here; in this
// module a disk's backing device is supplied directly via BindDevice.
func deviceFor(disk *kfs.Disk) (block.Device, error) {
	device, ok := diskDevices[disk]
	if !ok {
		return nil, kfs.ErrInvalidArgument.WithMessage("disk has no bound block.Device; call fat16.BindDevice first")
	}
	return device, nil
}

// diskDevices binds a *kfs.Disk to the block.Device Probe/Open read through.
// A real kernel VFS would carry this binding on the Disk itself via its own
// registry; this package-level map is the seam this module's tests and CLI
// use in place of that external collaborator.
var diskDevices = map[*kfs.Disk]block.Device{}

// BindDevice associates disk with the block.Device its data lives on. It
// must be called before Probe.
func BindDevice(disk *kfs.Disk, device block.Device) {
	diskDevices[disk] = device
}

// UnbindDevice removes a disk's device binding, used by tests to avoid
// leaking entries in diskDevices across test cases.
func UnbindDevice(disk *kfs.Disk) {
	delete(diskDevices, disk)
}
