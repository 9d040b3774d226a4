//go:build !unix

package files

import "os"

func removeEmptyDir(dir string) error {
	return os.Remove(dir)
}
