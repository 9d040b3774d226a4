//go:build unix

package files

import (
	"os"

	"golang.org/x/sys/unix"
)

// removeEmptyDir removes dir only if it is empty, without unlink fallback.
func removeEmptyDir(dir string) error {
	if err := unix.Rmdir(dir); err != nil {
		return &os.PathError{Op: "rmdir", Path: dir, Err: err}
	}
	return nil
}
