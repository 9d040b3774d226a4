package walker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
)

// binarySniffLen is how much of a file is inspected for NUL bytes.
const binarySniffLen = 8 * 1024

var ErrEmptyPattern = errors.New("search pattern must not be empty")

// Query describes a content search.
type Query struct {
	Pattern      string
	Extensions   []string
	ContextLines int
	IgnoreCase   bool
	// Include is an optional doublestar glob on the relative path.
	Include    string
	MaxResults int
}

// SearchMatch is one matching line.
type SearchMatch struct {
	Path          string   `json:"path"`
	Line          int      `json:"line_number"`
	Text          string   `json:"line"`
	ContextBefore []string `json:"context_before,omitempty"`
	ContextAfter  []string `json:"context_after,omitempty"`
}

// Search returns a lazy sequence of matches below dir. Files are visited in
// lexical order. A file whose extension or size fails policy, that does not
// match the query's extension or include filters, or that looks binary is
// skipped without error. The sequence ends early when the consumer stops,
// ctx is cancelled or MaxResults matches were produced.
func (w *Walker) Search(ctx context.Context, dir access.ResolvedPath, q Query) iter.Seq2[SearchMatch, error] {
	return func(yield func(SearchMatch, error) bool) {
		if q.Pattern == "" {
			yield(SearchMatch{}, ErrEmptyPattern)
			return
		}
		if q.Include != "" && !doublestar.ValidatePattern(q.Include) {
			yield(SearchMatch{}, doublestar.ErrBadPattern)
			return
		}

		s := &searcher{
			w:       w,
			ctx:     ctx,
			base:    dir.Canonical,
			query:   q,
			needle:  q.Pattern,
			exts:    normalizeExtensions(q.Extensions),
			yield:   yield,
			maxLine: int(w.validator.Settings().MaxFileSize()) + 1,
		}
		if q.IgnoreCase {
			s.needle = lowerASCII(q.Pattern)
		}

		if err := s.dir(dir.Canonical); err != nil {
			yield(SearchMatch{}, err)
		}
	}
}

type searcher struct {
	w       *Walker
	ctx     context.Context
	base    string
	query   Query
	needle  string
	exts    map[string]struct{}
	yield   func(SearchMatch, error) bool
	count   int
	maxLine int
	stopped bool
}

func (s *searcher) stop() bool {
	if s.stopped {
		return true
	}
	if err := s.ctx.Err(); err != nil {
		s.yield(SearchMatch{}, err)
		s.stopped = true
	}
	return s.stopped
}

// dir scans one directory. Only the error from reading the walk root is
// returned; unreadable subdirectories are skipped.
func (s *searcher) dir(path string) error {
	dirents, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	for _, d := range dirents {
		if s.stop() {
			return nil
		}
		if s.w.skipName(d.Name()) {
			continue
		}
		child := filepath.Join(path, d.Name())
		switch {
		case d.IsDir():
			_ = s.dir(child)
		case d.Type().IsRegular():
			s.file(child, child)
		case d.Type()&os.ModeSymlink != 0:
			// Directory links are not followed here; file links only when
			// the target is contained.
			if resolved, ok := s.w.validator.Resolve(child); ok {
				if info, err := os.Stat(resolved.Canonical); err == nil && info.Mode().IsRegular() {
					s.file(child, resolved.Canonical)
				}
			}
		}
	}
	return nil
}

func (s *searcher) accepts(path string, size int64) bool {
	name := filepath.Base(path)
	if !s.w.policy.AllowsExtension(name) || !s.w.policy.WithinSize(size) {
		return false
	}
	if len(s.exts) > 0 {
		if _, ok := s.exts[strings.ToLower(filepath.Ext(name))]; !ok {
			return false
		}
	}
	if s.query.Include != "" && !matchGlob(s.query.Include, s.base, path) {
		return false
	}
	return true
}

// file scans one file. display is the path reported to the caller; open is
// the path actually read.
func (s *searcher) file(display, open string) {
	info, err := os.Stat(open)
	if err != nil || !s.accepts(display, info.Size()) {
		return
	}

	lines, ok := s.readLines(open)
	if !ok {
		return
	}

	n := s.query.ContextLines
	for i, line := range lines {
		if !s.matches(line) {
			continue
		}
		m := SearchMatch{Path: display, Line: i + 1, Text: line}
		if n > 0 {
			m.ContextBefore = lines[max(0, i-n):i]
			m.ContextAfter = lines[i+1 : min(len(lines), i+1+n)]
		}
		if !s.yield(m, nil) {
			s.stopped = true
			return
		}
		s.count++
		if s.query.MaxResults > 0 && s.count >= s.query.MaxResults {
			s.stopped = true
			return
		}
		if s.stop() {
			return
		}
	}
}

func (s *searcher) matches(line string) bool {
	if s.query.IgnoreCase {
		return strings.Contains(lowerASCII(line), s.needle)
	}
	return strings.Contains(line, s.needle)
}

// readLines returns the file's lines without terminators, or false when the
// file is binary or unreadable.
func (s *searcher) readLines(path string) ([]string, bool) {
	f, err := access.OpenNoFollow(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, binarySniffLen)
	head, err := br.Peek(binarySniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, false
	}
	if IsBinary(head) {
		return nil, false
	}

	var lines []string
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), s.maxLine)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if sc.Err() != nil {
		return nil, false
	}
	return lines, true
}

// IsBinary reports whether head, the start of a file, contains a NUL byte.
func IsBinary(head []byte) bool {
	if len(head) > binarySniffLen {
		head = head[:binarySniffLen]
	}
	return bytes.IndexByte(head, 0) >= 0
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out[e] = struct{}{}
	}
	return out
}

// lowerASCII folds ASCII letters only, leaving other bytes untouched so that
// byte offsets and multi-byte sequences are preserved.
func lowerASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
