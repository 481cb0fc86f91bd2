package fat16

// findInDirectory performs a linear scan of dir's entries for one matching
// name case-insensitively, constructing the corresponding Item on match.
// Order of equal matches is on-disk order since the scan stops at the first
// hit. A nil, nil return means "not found", distinct from an I/O error.
func findInDirectory(loader *directoryLoader, dir *Directory, name string) (Item, error) {
	for i := range dir.Entries {
		entry := dir.Entries[i]
		if !namesEqual(entry.Name, name) {
			continue
		}

		if entry.IsDirectory() {
			subdir, err := loader.LoadSubdirectory(&entry)
			if err != nil {
				return nil, err
			}
			return DirectoryItem{Entry: entry, Dir: subdir}, nil
		}
		return FileItem{Entry: entry}, nil
	}
	return nil, nil
}

// Resolve walks path, a sequence of canonical NAME[.EXT] components, starting
// from root, descending into subdirectories as needed. It returns (nil, nil)
// when any component isn't found, and propagates the first I/O error
// encountered while loading an intermediate subdirectory.
func Resolve(loader *directoryLoader, root *Directory, path []string) (Item, error) {
	if len(path) == 0 {
		return DirectoryItem{Dir: root}, nil
	}

	current, err := findInDirectory(loader, root, path[0])
	if err != nil || current == nil {
		return nil, err
	}

	if _, ok := current.(DirectoryItem); ok {
		retainDirectoryItem()
	}

	for _, component := range path[1:] {
		dirItem, ok := current.(DirectoryItem)
		if !ok {
			return nil, nil
		}

		next, err := findInDirectory(loader, dirItem.Dir, component)

		// The resolver never holds more than one directory item at a time:
		// the parent is released here, before the child (if any) is
		// retained below.
		releaseDirectoryItem()

		if err != nil || next == nil {
			return nil, err
		}

		current = next
		if _, ok := current.(DirectoryItem); ok {
			retainDirectoryItem()
		}
	}

	if _, ok := current.(DirectoryItem); ok {
		releaseDirectoryItem()
	}

	return current, nil
}
