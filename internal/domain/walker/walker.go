package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
)

// Walker traverses validated directories.
type Walker struct {
	validator *access.Validator
	policy    *access.Policy
	hidden    bool
}

// New creates a walker. Hidden entries are listed only when the validator's
// settings enable them.
func New(validator *access.Validator, policy *access.Policy) *Walker {
	return &Walker{
		validator: validator,
		policy:    policy,
		hidden:    validator.Settings().IncludeHidden(),
	}
}

func (w *Walker) skipName(name string) bool {
	return !w.hidden && isHidden(name)
}

// ListOne returns the entries of a single directory level, sorted by name.
func (w *Walker) ListOne(ctx context.Context, dir access.ResolvedPath) ([]FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(dir.Canonical)
	if err != nil {
		return nil, err
	}

	entries := make([]FileEntry, 0, len(dirents))
	for _, d := range dirents {
		if w.skipName(d.Name()) {
			continue
		}
		if e, ok := w.lstatEntry(filepath.Join(dir.Canonical, d.Name())); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// FilesOptions narrows a recursive file enumeration.
type FilesOptions struct {
	// Pattern is an optional doublestar glob matched against the path
	// relative to the walked directory (slash separated) or the base name.
	Pattern string
	// Filter, when set, must accept a file name for it to be listed.
	Filter func(name string) bool
}

// Files enumerates regular files below dir. Directory symlinks are never
// followed; file symlinks are listed only when their target is contained.
// The result is sorted by path.
func (w *Walker) Files(ctx context.Context, dir access.ResolvedPath, opts FilesOptions) ([]FileEntry, error) {
	if opts.Pattern != "" && !doublestar.ValidatePattern(opts.Pattern) {
		return nil, doublestar.ErrBadPattern
	}

	var (
		mu      sync.Mutex
		entries []FileEntry
	)
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, dir.Canonical, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			// Unreadable subtrees are skipped, the root is reported.
			if path == dir.Canonical {
				return err
			}
			return nil
		}
		if path == dir.Canonical {
			return nil
		}
		if w.skipName(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if opts.Filter != nil && !opts.Filter(d.Name()) {
			return nil
		}
		if opts.Pattern != "" && !matchGlob(opts.Pattern, dir.Canonical, path) {
			return nil
		}

		e, ok := w.lstatEntry(path)
		if !ok || e.IsDir {
			return nil
		}
		if e.IsSymlink {
			if _, contained := w.validator.Resolve(path); !contained {
				return nil
			}
		}

		mu.Lock()
		entries = append(entries, e)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(entries, func(a, b FileEntry) int { return strings.Compare(a.Path, b.Path) })
	return entries, nil
}

// matchGlob reports whether pattern matches path relative to base, or its
// base name when the pattern has no separator.
func matchGlob(pattern, base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		ok, _ := doublestar.Match(pattern, filepath.Base(path))
		return ok
	}
	return false
}
