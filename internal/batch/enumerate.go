package batch

import (
	def "UploadVerification/definitions"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Enumerate lists the regular files directly inside dir, ordered by name.
// Symlinks are followed; anything that does not resolve to a regular file is skipped.
func Enumerate(dir string) (*Batch, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, def.IOError("list directory", dir, err)
	}

	b := &Batch{
		Dir:     dir,
		Entries: make([]FileEntry, 0, len(dirEntries)),
	}

	// os.ReadDir returns entries sorted by filename.
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}

		p := filepath.Join(dir, de.Name())
		info, err := os.Stat(p)
		if err != nil {
			if de.Type()&fs.ModeSymlink != 0 && errors.Is(err, fs.ErrNotExist) {
				continue // dangling link
			}
			return nil, def.IOError("stat", p, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		b.Entries = append(b.Entries, FileEntry{
			Name:   de.Name(),
			Path:   p,
			Length: info.Size(),
		})
		b.TotalBytes += info.Size()
	}

	return b, nil
}
