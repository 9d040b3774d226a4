package files

import (
	"errors"
	"io/fs"
	"os"
)

// renameChecked is the portable fallback: an existence check immediately
// followed by rename. A destination created between the two is overwritten
// for files, so this path is best-effort only.
func renameChecked(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}
