package filesystem

import (
	"context"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
	"github.com/GriffinCanCode/FileMaster/internal/domain/files"
	"github.com/GriffinCanCode/FileMaster/internal/domain/walker"
	"github.com/GriffinCanCode/FileMaster/internal/types"
)

type runFunc func(ctx context.Context, svc *files.Service, call access.Call, p params) (map[string]any, error)

// operation is one row of the dispatch table.
type operation struct {
	tool types.Tool
	run  runFunc
}

func str(name, desc string, required bool) types.Parameter {
	return types.Parameter{Name: name, Type: types.TypeString, Description: desc, Required: required}
}

func boolean(name, desc string) types.Parameter {
	return types.Parameter{Name: name, Type: types.TypeBoolean, Description: desc}
}

func integer(name, desc string) types.Parameter {
	return types.Parameter{Name: name, Type: types.TypeInteger, Description: desc}
}

func list(name, desc string, required bool) types.Parameter {
	return types.Parameter{Name: name, Type: types.TypeArray, Items: types.TypeString, Description: desc, Required: required}
}

// operations is the fixed tool surface, in presentation order.
func operations() []operation {
	return []operation{
		{
			tool: types.Tool{
				Name:        files.OpListAllowedDirectories,
				Description: "List the directories this server may access",
				Returns:     "array",
			},
			run: listAllowedDirectories,
		},
		{
			tool: types.Tool{
				Name:        files.OpGetFiles,
				Description: "List files with allowed extensions in a directory",
				Parameters: []types.Parameter{
					str("directory", "Absolute directory path", true),
					list("extension_filter", "Only return these extensions (e.g. ['.log'])", false),
					boolean("recursive", "Descend into subdirectories"),
					str("pattern", "Glob on the file name, or on the relative path when it contains '/'", false),
				},
				Returns: "array",
			},
			run: getFiles,
		},
		{
			tool: types.Tool{
				Name:        files.OpGetDirectories,
				Description: "Render the directory tree, including empty directories",
				Parameters: []types.Parameter{
					str("directory", "Absolute directory path", true),
					integer("max_depth", "Deepest level listed below the directory (0 = unlimited)"),
					boolean("include_files", "Include files in the tree"),
				},
				Returns: "object",
			},
			run: getDirectories,
		},
		{
			tool: types.Tool{
				Name:        files.OpSearchFiles,
				Description: "Search file contents for a literal pattern; returns 1-based line numbers",
				Parameters: []types.Parameter{
					str("directory", "Absolute directory path", true),
					str("pattern", "Literal text to find", true),
					list("extensions", "Only search these extensions", false),
					integer("context_lines", "Lines of context around each match"),
					boolean("ignore_case", "Case-insensitive match"),
					str("include", "Glob on the relative path", false),
					integer("max_results", "Stop after this many matches"),
				},
				Returns: "object",
			},
			run: searchFiles,
		},
		{
			tool: types.Tool{
				Name:        files.OpGetFilesContent,
				Description: "Read files and summarize them (log levels, recent errors, sizes)",
				Parameters: []types.Parameter{
					list("paths", "Absolute file paths", false),
					str("directory", "Read every allowed file in this directory instead", false),
				},
				Returns: "object",
			},
			run: getFilesContent,
		},
		{
			tool: types.Tool{
				Name:        files.OpCreateDirectory,
				Description: "Create a directory",
				Parameters: []types.Parameter{
					str("path", "Absolute directory path", true),
					boolean("parents", "Create missing parent directories"),
				},
				Returns: "object",
			},
			run: createDirectory,
		},
		{
			tool: types.Tool{
				Name:        files.OpCreateFile,
				Description: "Create a new file; fails if it exists",
				Parameters: []types.Parameter{
					str("path", "Absolute file path", true),
					str("content", "File content", false),
					boolean("parents", "Create missing parent directories"),
				},
				Returns: "object",
			},
			run: createFile,
		},
		{
			tool: types.Tool{
				Name:        files.OpMoveFile,
				Description: "Move a file; fails if the destination exists",
				Parameters: []types.Parameter{
					str("source", "Absolute source file path", true),
					str("destination", "Absolute destination path", true),
				},
				Returns: "object",
			},
			run: moveFile,
		},
		{
			tool: types.Tool{
				Name:        files.OpMoveDirectory,
				Description: "Move a directory; fails if the destination exists",
				Parameters: []types.Parameter{
					str("source", "Absolute source directory path", true),
					str("destination", "Absolute destination path", true),
				},
				Returns: "object",
			},
			run: moveDirectory,
		},
		{
			tool: types.Tool{
				Name:        files.OpDeleteFile,
				Description: "Delete a file (requires delete permission)",
				Parameters: []types.Parameter{
					str("path", "Absolute file path", true),
				},
				Returns:     "object",
				Destructive: true,
			},
			run: deleteFile,
		},
		{
			tool: types.Tool{
				Name:        files.OpDeleteDirectory,
				Description: "Delete a directory (requires delete permission)",
				Parameters: []types.Parameter{
					str("path", "Absolute directory path", true),
					boolean("recursive", "Delete contents too; otherwise the directory must be empty"),
				},
				Returns:     "object",
				Destructive: true,
			},
			run: deleteDirectory,
		},
	}
}

func listAllowedDirectories(_ context.Context, svc *files.Service, _ access.Call, _ params) (map[string]any, error) {
	dirs := svc.ListAllowedDirectories()
	return map[string]any{"directories": dirs, "count": len(dirs)}, nil
}

func getFiles(ctx context.Context, svc *files.Service, call access.Call, p params) (map[string]any, error) {
	dir, err := p.requiredString("directory")
	if err != nil {
		return nil, err
	}
	exts, err := p.stringList("extension_filter", "extensions")
	if err != nil {
		return nil, err
	}
	recursive, err := p.optionalBool(false, "recursive")
	if err != nil {
		return nil, err
	}
	pattern, err := p.optionalString("pattern")
	if err != nil {
		return nil, err
	}

	entries, err := svc.GetFiles(ctx, call, files.GetFilesRequest{
		Directory:  dir,
		Extensions: exts,
		Recursive:  recursive,
		Pattern:    pattern,
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []walker.FileEntry{}
	}
	return map[string]any{"directory": dir, "files": entries, "count": len(entries)}, nil
}

func getDirectories(ctx context.Context, svc *files.Service, call access.Call, p params) (map[string]any, error) {
	dir, err := p.requiredString("directory")
	if err != nil {
		return nil, err
	}
	depth, err := p.optionalInt(0, "max_depth")
	if err != nil {
		return nil, err
	}
	includeFiles, err := p.optionalBool(false, "include_files")
	if err != nil {
		return nil, err
	}

	tree, err := svc.GetDirectories(ctx, call, files.DirectoriesRequest{
		Directory:    dir,
		MaxDepth:     depth,
		IncludeFiles: includeFiles,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"directory": dir, "tree": tree.Text, "root": tree.Root}, nil
}

// searchRequest decodes search parameters; the WebSocket stream shares it.
func searchRequest(p params) (files.SearchRequest, error) {
	var req files.SearchRequest
	var err error
	if req.Directory, err = p.requiredString("directory"); err != nil {
		return req, err
	}
	if req.Pattern, err = p.requiredString("pattern"); err != nil {
		return req, err
	}
	if req.Extensions, err = p.stringList("extensions"); err != nil {
		return req, err
	}
	if req.ContextLines, err = p.optionalInt(0, "context_lines"); err != nil {
		return req, err
	}
	if req.IgnoreCase, err = p.optionalBool(false, "ignore_case"); err != nil {
		return req, err
	}
	if req.Include, err = p.optionalString("include"); err != nil {
		return req, err
	}
	if req.MaxResults, err = p.optionalInt(0, "max_results"); err != nil {
		return req, err
	}
	return req, nil
}

// DecodeSearch builds a search request from raw tool arguments.
func DecodeSearch(raw map[string]any) (files.SearchRequest, error) {
	return searchRequest(newParams(files.OpSearchFiles, raw))
}

func searchFiles(ctx context.Context, svc *files.Service, call access.Call, p params) (map[string]any, error) {
	req, err := searchRequest(p)
	if err != nil {
		return nil, err
	}
	result, err := svc.SearchFiles(ctx, call, req)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"matches":   result.Matches,
		"count":     result.Count,
		"truncated": result.Truncated,
	}, nil
}

func getFilesContent(ctx context.Context, svc *files.Service, call access.Call, p params) (map[string]any, error) {
	paths, err := p.stringList("paths")
	if err != nil {
		return nil, err
	}
	dir, err := p.optionalString("directory")
	if err != nil {
		return nil, err
	}

	switch {
	case len(paths) > 0 && dir != "":
		return nil, p.invalid("paths", "give either paths or directory, not both")
	case dir != "":
		entries, err := svc.GetFiles(ctx, call, files.GetFilesRequest{Directory: dir})
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			paths = append(paths, e.Path)
		}
		if len(paths) == 0 {
			return map[string]any{"files": []files.FileContent{}, "summary": files.ContentSummary{}}, nil
		}
	case len(paths) == 0:
		return nil, p.invalid("paths", "parameter required")
	}

	report, err := svc.GetFilesContent(ctx, call, paths)
	if err != nil {
		return nil, err
	}
	return map[string]any{"files": report.Files, "summary": report.Summary}, nil
}

func createDirectory(ctx context.Context, svc *files.Service, call access.Call, p params) (map[string]any, error) {
	path, err := p.requiredString("path", "directory")
	if err != nil {
		return nil, err
	}
	parents, err := p.optionalBool(false, "parents")
	if err != nil {
		return nil, err
	}
	if err := svc.CreateDirectory(ctx, call, path, parents); err != nil {
		return nil, err
	}
	return map[string]any{"path": path, "created": true}, nil
}

func createFile(ctx context.Context, svc *files.Service, call access.Call, p params) (map[string]any, error) {
	path, err := p.requiredString("path", "file_path")
	if err != nil {
		return nil, err
	}
	content, err := p.optionalString("content")
	if err != nil {
		return nil, err
	}
	parents, err := p.optionalBool(false, "parents")
	if err != nil {
		return nil, err
	}
	if err := svc.CreateFile(ctx, call, path, content, parents); err != nil {
		return nil, err
	}
	return map[string]any{"path": path, "created": true, "size": len(content)}, nil
}

func movePaths(p params) (string, string, error) {
	src, err := p.requiredString("source", "source_path")
	if err != nil {
		return "", "", err
	}
	dst, err := p.requiredString("destination", "target_path")
	if err != nil {
		return "", "", err
	}
	return src, dst, nil
}

func moveFile(ctx context.Context, svc *files.Service, call access.Call, p params) (map[string]any, error) {
	src, dst, err := movePaths(p)
	if err != nil {
		return nil, err
	}
	if err := svc.MoveFile(ctx, call, src, dst); err != nil {
		return nil, err
	}
	return map[string]any{"source": src, "destination": dst, "moved": true}, nil
}

func moveDirectory(ctx context.Context, svc *files.Service, call access.Call, p params) (map[string]any, error) {
	src, dst, err := movePaths(p)
	if err != nil {
		return nil, err
	}
	if err := svc.MoveDirectory(ctx, call, src, dst); err != nil {
		return nil, err
	}
	return map[string]any{"source": src, "destination": dst, "moved": true}, nil
}

func deleteFile(ctx context.Context, svc *files.Service, call access.Call, p params) (map[string]any, error) {
	if err := svc.CheckDeletable(ctx, call, p.asGiven("path", "file_path")); err != nil {
		return nil, err
	}
	path, err := p.requiredString("path", "file_path")
	if err != nil {
		return nil, err
	}
	if err := svc.DeleteFile(ctx, call, path); err != nil {
		return nil, err
	}
	return map[string]any{"path": path, "deleted": true}, nil
}

func deleteDirectory(ctx context.Context, svc *files.Service, call access.Call, p params) (map[string]any, error) {
	if err := svc.CheckDeletable(ctx, call, p.asGiven("path", "directory")); err != nil {
		return nil, err
	}
	path, err := p.requiredString("path", "directory")
	if err != nil {
		return nil, err
	}
	recursive, err := p.optionalBool(false, "recursive")
	if err != nil {
		return nil, err
	}
	if err := svc.DeleteDirectory(ctx, call, path, recursive); err != nil {
		return nil, err
	}
	return map[string]any{"path": path, "deleted": true}, nil
}
