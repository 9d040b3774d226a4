//go:build unix

package access

import (
	"os"

	"golang.org/x/sys/unix"
)

// OpenNoFollow opens a validated file for reading. If the final component
// was replaced with a symlink after validation the open fails with ELOOP.
func OpenNoFollow(canonical string) (*os.File, error) {
	fd, err := unix.Open(canonical, unix.O_RDONLY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: canonical, Err: err}
	}
	return os.NewFile(uintptr(fd), canonical), nil
}

// CreateExclusive creates a new file at canonical, failing if anything,
// including a dangling symlink, already exists there.
func CreateExclusive(canonical string, perm os.FileMode) (*os.File, error) {
	fd, err := unix.Open(canonical, unix.O_WRONLY|unix.O_CREAT|unix.O_EXCL|unix.O_NOFOLLOW|unix.O_CLOEXEC, uint32(perm.Perm()))
	if err != nil {
		return nil, &os.PathError{Op: "create", Path: canonical, Err: err}
	}
	return os.NewFile(uintptr(fd), canonical), nil
}
