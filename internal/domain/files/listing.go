package files

import (
	"context"
	"iter"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
	"github.com/GriffinCanCode/FileMaster/internal/domain/walker"
)

// GetFilesRequest lists files in a directory.
type GetFilesRequest struct {
	Directory string
	// Extensions further narrows the policy allow-list.
	Extensions []string
	Recursive  bool
	Pattern    string
}

// GetFiles lists the files in a directory whose extensions pass policy and
// the optional extension filter.
func (s *Service) GetFiles(ctx context.Context, call access.Call, req GetFilesRequest) ([]walker.FileEntry, error) {
	dir, err := s.validator.Validate(ctx, call, req.Directory)
	if err != nil {
		return nil, err
	}
	if _, err := s.statDir(call, dir); err != nil {
		return nil, err
	}
	if req.Pattern != "" && !doublestar.ValidatePattern(req.Pattern) {
		return nil, access.InvalidArgument(call.Operation, req.Directory, "invalid glob pattern")
	}

	filter := s.extensionFilter(req.Extensions)

	if req.Recursive {
		entries, err := s.walker.Files(ctx, dir, walker.FilesOptions{Pattern: req.Pattern, Filter: filter})
		if err != nil {
			return nil, s.walkError(ctx, call, req.Directory, err)
		}
		return entries, nil
	}

	all, err := s.walker.ListOne(ctx, dir)
	if err != nil {
		return nil, s.walkError(ctx, call, req.Directory, err)
	}
	entries := make([]walker.FileEntry, 0, len(all))
	for _, e := range all {
		if e.IsDir || !filter(e.Name) {
			continue
		}
		if req.Pattern != "" {
			if ok, _ := doublestar.Match(req.Pattern, e.Name); !ok {
				continue
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Service) extensionFilter(exts []string) func(string) bool {
	wanted := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		wanted[e] = struct{}{}
	}
	return func(name string) bool {
		if !s.policy.AllowsExtension(name) {
			return false
		}
		if len(wanted) == 0 {
			return true
		}
		_, ok := wanted[extOf(name)]
		return ok
	}
}

// DirectoriesRequest renders a directory tree.
type DirectoriesRequest struct {
	Directory    string
	MaxDepth     int
	IncludeFiles bool
}

// DirectoryTree is the result of get_directories.
type DirectoryTree struct {
	Root *walker.DirectoryNode `json:"root"`
	Text string                `json:"tree"`
}

// GetDirectories walks a directory tree.
func (s *Service) GetDirectories(ctx context.Context, call access.Call, req DirectoriesRequest) (*DirectoryTree, error) {
	dir, err := s.validator.Validate(ctx, call, req.Directory)
	if err != nil {
		return nil, err
	}
	if _, err := s.statDir(call, dir); err != nil {
		return nil, err
	}

	root, err := s.walker.Walk(ctx, dir, walker.WalkOptions{MaxDepth: req.MaxDepth, IncludeFiles: req.IncludeFiles})
	if err != nil {
		return nil, s.walkError(ctx, call, req.Directory, err)
	}
	return &DirectoryTree{Root: root, Text: walker.Render(root)}, nil
}

// SearchRequest is a content search below Directory.
type SearchRequest struct {
	Directory string
	walker.Query
}

// SearchResult holds collected matches.
type SearchResult struct {
	Matches   []walker.SearchMatch `json:"matches"`
	Count     int                  `json:"count"`
	Truncated bool                 `json:"truncated"`
}

// Search validates the directory and returns the lazy match sequence. The
// caller owns iteration; stopping early stops the walk.
func (s *Service) Search(ctx context.Context, call access.Call, req SearchRequest) (iter.Seq2[walker.SearchMatch, error], error) {
	dir, err := s.validator.Validate(ctx, call, req.Directory)
	if err != nil {
		return nil, err
	}
	if _, err := s.statDir(call, dir); err != nil {
		return nil, err
	}
	if req.Include != "" && !doublestar.ValidatePattern(req.Include) {
		return nil, access.InvalidArgument(call.Operation, req.Directory, "invalid include pattern")
	}
	if req.Pattern == "" {
		return nil, access.InvalidArgument(call.Operation, req.Directory, "search pattern must not be empty")
	}
	return s.walker.Search(ctx, dir, req.Query), nil
}

// SearchFiles collects up to the request's limit, or the service limit when
// none is set.
func (s *Service) SearchFiles(ctx context.Context, call access.Call, req SearchRequest) (*SearchResult, error) {
	limit := req.MaxResults
	if limit <= 0 || limit > s.searchLimit {
		limit = s.searchLimit
	}
	req.MaxResults = limit + 1

	seq, err := s.Search(ctx, call, req)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{Matches: []walker.SearchMatch{}}
	for m, err := range seq {
		if err != nil {
			return nil, s.walkError(ctx, call, req.Directory, err)
		}
		if len(result.Matches) == limit {
			result.Truncated = true
			break
		}
		result.Matches = append(result.Matches, m)
	}
	result.Count = len(result.Matches)
	return result, nil
}

// walkError keeps context errors recognisable and maps the rest.
func (s *Service) walkError(ctx context.Context, call access.Call, requested string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return s.ioError(call, requested, err)
}

func extOf(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
