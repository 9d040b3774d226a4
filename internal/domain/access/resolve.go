package access

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// maxLinkHops bounds symlink chains through dangling links, matching the
// usual kernel limit.
const maxLinkHops = 40

// ResolvedPath is a requested path after canonicalization, together with the
// allowed root it lies under.
type ResolvedPath struct {
	Requested string
	// Canonical has every symlink resolved, including the final component.
	Canonical string
	// Entry is the canonical parent joined with the final component, which
	// is not followed. Mutations act on Entry so a symlink is removed or
	// renamed itself instead of its target.
	Entry string
	Root  string
}

// Rel returns the canonical path relative to its allowed root.
func (r ResolvedPath) Rel() string {
	rel, err := filepath.Rel(r.Root, r.Canonical)
	if err != nil {
		return r.Canonical
	}
	return rel
}

// IsRoot reports whether the path is the allowed root itself.
func (r ResolvedPath) IsRoot() bool { return r.Canonical == r.Root }

var (
	errNotDir  = errors.New("intermediate path component is not a directory")
	errTooDeep = errors.New("too many levels of symbolic links")
)

// canonicalize resolves path as far as the filesystem allows. The longest
// existing prefix is resolved with symlink evaluation; the remaining,
// not-yet-existing components are appended lexically. An existing component
// that is not a directory but has further components after it is reported
// as errNotDir.
func canonicalize(path string) (string, error) {
	return canonicalizeHops(path, 0)
}

func canonicalizeHops(path string, hops int) (string, error) {
	if hops > maxLinkHops {
		return "", errTooDeep
	}
	clean := filepath.Clean(path)

	existing := clean
	var rest []string
	for {
		_, err := os.Lstat(existing)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			if isNotDir(err) {
				return "", errNotDir
			}
			return "", err
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		rest = append(rest, filepath.Base(existing))
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	switch {
	case err == nil:
	case isNotDir(err):
		return "", errNotDir
	case errors.Is(err, fs.ErrNotExist):
		// existing is a dangling symlink. Its parent exists, so resolve the
		// parent and follow the link target as a path that may not exist.
		resolved, err = followDangling(existing, hops)
		if err != nil {
			return "", err
		}
	default:
		return "", err
	}

	if len(rest) > 0 {
		info, err := os.Stat(resolved)
		switch {
		case err == nil && !info.IsDir():
			return "", errNotDir
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", err
		}
	}

	for i := len(rest) - 1; i >= 0; i-- {
		resolved = filepath.Join(resolved, rest[i])
	}
	return resolved, nil
}

// entryOf canonicalizes the parent of path and appends the final component
// unresolved.
func entryOf(path string) (string, error) {
	clean := filepath.Clean(path)
	parent := filepath.Dir(clean)
	if parent == clean {
		return canonicalize(clean)
	}
	resolved, err := canonicalize(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolved, filepath.Base(clean)), nil
}

func followDangling(link string, hops int) (string, error) {
	parent, err := filepath.EvalSymlinks(filepath.Dir(link))
	if err != nil {
		return "", err
	}
	target, err := os.Readlink(link)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(parent, target)
	}
	return canonicalizeHops(target, hops+1)
}

func isNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}

// within reports whether path equals root or has root as a component-wise
// ancestor. Both arguments must be clean absolute paths.
func within(root, path string) bool {
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
