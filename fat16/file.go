package fat16

import (
	"io"
	"os"

	kfs "github.com/kestrelkernel/kfat"
)

// fileHandle implements kfs.FileHandle over a resolved FileItem. It carries
// no read cursor of its own beyond what ReadAt's caller supplies; the
// top-level file descriptor table (an external collaborator) owns the
// sequential read position.
type fileHandle struct {
	state *PrivateState
	item  FileItem
}

func newFileHandle(state *PrivateState, item FileItem) *fileHandle {
	return &fileHandle{state: state, item: item}
}

// Stat implements kfs.FileHandle.
func (h *fileHandle) Stat() kfs.FileStat {
	entry := h.item.Entry
	var mode os.FileMode = 0o444
	if entry.AttributeFlags&kfs.AttrReadOnly == 0 {
		mode = 0o644
	}

	return kfs.FileStat{
		Size:         entry.Size,
		ModeFlags:    mode,
		CreatedAt:    entry.Created,
		LastAccessed: entry.LastAccessed,
		LastModified: entry.LastModified,
	}
}

// ReadAt implements kfs.FileHandle, reading through the chain reader shared
// by the mounted disk's private state and clamping to the file's declared
// size.
func (h *fileHandle) ReadAt(p []byte, off int64) (int, error) {
	size := h.item.Entry.Size
	if off >= size {
		return 0, io.EOF
	}

	wantLen := int64(len(p))
	truncated := false
	if off+wantLen > size {
		wantLen = size - off
		truncated = true
	}

	if err := h.state.reader.Read(h.item.Entry.FirstCluster, off, p[:wantLen]); err != nil {
		return 0, err
	}

	if truncated {
		return int(wantLen), io.EOF
	}
	return int(wantLen), nil
}
