package fat16

import "sync/atomic"

// Item is the tagged union spec'd as "FAT Item": either a file (an owned
// copy of its directory entry) or a directory (a fully loaded Directory).
// It is implemented as a small interface with two concrete types rather
// than a hand-rolled union tag, which is Go's idiomatic sum type.
type Item interface {
	isItem()
}

// FileItem is the file variant of Item.
type FileItem struct {
	Entry Dirent
}

func (FileItem) isItem() {}

// DirectoryItem is the directory variant of Item.
type DirectoryItem struct {
	Entry Dirent
	Dir   *Directory
}

func (DirectoryItem) isItem() {}

// liveDirectoryItems tracks how many DirectoryItem values the resolver
// currently holds on to. Go has no explicit drop to hook a decrement into,
// so resolve.go increments and decrements this around the point it would
// otherwise "drop" a parent directory item, making the "resolver holds
// exactly one item at a time" discipline from the design notes assertable
// from a test instead of merely aspirational.
var liveDirectoryItems int32

// LiveDirectoryItems returns the current count, for use in tests.
func LiveDirectoryItems() int32 {
	return atomic.LoadInt32(&liveDirectoryItems)
}

func retainDirectoryItem() {
	atomic.AddInt32(&liveDirectoryItems, 1)
}

func releaseDirectoryItem() {
	atomic.AddInt32(&liveDirectoryItems, -1)
}
