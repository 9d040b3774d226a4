//go:build !unix

package access

import "os"

// OpenNoFollow opens a validated file for reading. Platforms without
// O_NOFOLLOW fall back to a plain open.
func OpenNoFollow(canonical string) (*os.File, error) {
	return os.Open(canonical)
}

// CreateExclusive creates a new file at canonical, failing if it exists.
func CreateExclusive(canonical string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(canonical, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
}
