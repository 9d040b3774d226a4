package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileEntry is a read-only snapshot of one directory entry.
type FileEntry struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	IsDir     bool      `json:"is_dir"`
	IsSymlink bool      `json:"is_symlink,omitempty"`
	Extension string    `json:"extension,omitempty"`
	Modified  time.Time `json:"modified"`
}

func newEntry(path string, info fs.FileInfo) FileEntry {
	e := FileEntry{
		Name:      info.Name(),
		Path:      path,
		Size:      info.Size(),
		IsDir:     info.IsDir(),
		IsSymlink: info.Mode()&fs.ModeSymlink != 0,
		Modified:  info.ModTime(),
	}
	if !e.IsDir {
		e.Extension = strings.ToLower(filepath.Ext(e.Name))
	}
	return e
}

// isHidden reports whether a directory entry name is dot-prefixed.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// lstatEntry builds an entry for path, describing the link target when path
// is a symlink whose target stays inside the whitelist.
func (w *Walker) lstatEntry(path string) (FileEntry, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return FileEntry{}, false
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return newEntry(path, info), true
	}

	e := newEntry(path, info)
	e.Size = 0
	e.Extension = strings.ToLower(filepath.Ext(e.Name))
	if resolved, ok := w.validator.Resolve(path); ok {
		if target, err := os.Stat(resolved.Canonical); err == nil {
			e.Size = target.Size()
			e.IsDir = target.IsDir()
			e.Modified = target.ModTime()
			if e.IsDir {
				e.Extension = ""
			}
		}
	}
	return e, true
}
