package access

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// BytesPerMB converts the configured megabyte ceiling to bytes.
const BytesPerMB int64 = 1024 * 1024

var (
	ErrNoAllowedDirectories = errors.New("at least one allowed directory is required")
	ErrInvalidMaxSize       = errors.New("max file size must be positive")
	ErrInvalidExtension     = errors.New("extensions must begin with '.'")
)

// Options is the raw administrator input used to build Settings.
type Options struct {
	AllowedDirectories  []string
	MaxFileSizeMB       int64
	SupportedExtensions []string
	AllowDelete         bool
	IncludeHidden       bool
}

// Settings is the immutable access configuration shared by the validator,
// the policy engine and the walker.
type Settings struct {
	roots         []string
	maxBytes      int64
	extensions    map[string]struct{}
	extList       []string
	allowDelete   bool
	includeHidden bool
}

// NewSettings validates opts and canonicalizes every allowed directory.
// Directories must be absolute, exist and be directories.
func NewSettings(opts Options) (*Settings, error) {
	if len(opts.AllowedDirectories) == 0 {
		return nil, ErrNoAllowedDirectories
	}
	if opts.MaxFileSizeMB <= 0 {
		return nil, ErrInvalidMaxSize
	}

	s := &Settings{
		maxBytes:      opts.MaxFileSizeMB * BytesPerMB,
		extensions:    make(map[string]struct{}, len(opts.SupportedExtensions)),
		allowDelete:   opts.AllowDelete,
		includeHidden: opts.IncludeHidden,
	}

	for _, dir := range opts.AllowedDirectories {
		if !filepath.IsAbs(dir) {
			return nil, fmt.Errorf("allowed directory %q: %w", dir, ErrNotAbsolute)
		}
		canonical, err := filepath.EvalSymlinks(filepath.Clean(dir))
		if err != nil {
			return nil, fmt.Errorf("allowed directory %q: %w", dir, err)
		}
		info, err := os.Stat(canonical)
		if err != nil {
			return nil, fmt.Errorf("allowed directory %q: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("allowed directory %q is not a directory", dir)
		}
		if !slices.Contains(s.roots, canonical) {
			s.roots = append(s.roots, canonical)
		}
	}

	for _, ext := range opts.SupportedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return nil, fmt.Errorf("%q: %w", ext, ErrInvalidExtension)
		}
		norm := strings.ToLower(ext)
		if _, ok := s.extensions[norm]; !ok {
			s.extensions[norm] = struct{}{}
			s.extList = append(s.extList, norm)
		}
	}
	slices.Sort(s.extList)

	return s, nil
}

// AllowedDirectories returns a copy of the canonical allowed roots in
// configuration order.
func (s *Settings) AllowedDirectories() []string {
	return slices.Clone(s.roots)
}

// MaxFileSize returns the size ceiling in bytes.
func (s *Settings) MaxFileSize() int64 { return s.maxBytes }

// Extensions returns the normalized (lower-case) extension allow-list.
func (s *Settings) Extensions() []string { return slices.Clone(s.extList) }

// DeleteEnabled reports whether delete operations are permitted.
func (s *Settings) DeleteEnabled() bool { return s.allowDelete }

// IncludeHidden reports whether dot-prefixed entries are listed.
func (s *Settings) IncludeHidden() bool { return s.includeHidden }

// IsRoot reports whether canonical is exactly one of the allowed roots.
func (s *Settings) IsRoot(canonical string) bool {
	return slices.Contains(s.roots, canonical)
}
