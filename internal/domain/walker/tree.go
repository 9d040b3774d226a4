package walker

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
)

// MaxDepthCeiling bounds every tree walk regardless of the requested depth.
const MaxDepthCeiling = 64

// DirectoryNode is a FileEntry with its children, for tree visualization.
type DirectoryNode struct {
	FileEntry
	IsEmpty  bool             `json:"is_empty"`
	Cycle    bool             `json:"cycle,omitempty"`
	Children []*DirectoryNode `json:"children,omitempty"`
}

// WalkOptions bounds a tree walk.
type WalkOptions struct {
	// MaxDepth is the deepest level listed below the root; 0 means up to
	// MaxDepthCeiling.
	MaxDepth int
	// IncludeFiles adds file nodes alongside directories.
	IncludeFiles bool
}

func (o WalkOptions) depthLimit() int {
	if o.MaxDepth <= 0 || o.MaxDepth > MaxDepthCeiling {
		return MaxDepthCeiling
	}
	return o.MaxDepth
}

// Walk builds the directory tree rooted at dir. Symlinked directories are
// descended only when their canonical target is inside the whitelist and not
// already on the current descent path; siblings may share a target.
func (w *Walker) Walk(ctx context.Context, dir access.ResolvedPath, opts WalkOptions) (*DirectoryNode, error) {
	info, err := os.Stat(dir.Canonical)
	if err != nil {
		return nil, err
	}
	root := &DirectoryNode{FileEntry: newEntry(dir.Canonical, info)}

	visited := map[string]bool{dir.Canonical: true}
	if err := w.descend(ctx, root, dir.Canonical, 1, opts, visited); err != nil {
		return nil, err
	}
	return root, nil
}

func (w *Walker) descend(ctx context.Context, node *DirectoryNode, canonical string, depth int, opts WalkOptions, visited map[string]bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirents, err := os.ReadDir(node.Path)
	if err != nil {
		if depth == 1 {
			return err
		}
		return nil
	}
	node.IsEmpty = len(dirents) == 0
	if depth > opts.depthLimit() {
		return nil
	}

	for _, d := range dirents {
		if w.skipName(d.Name()) {
			continue
		}
		path := filepath.Join(node.Path, d.Name())
		entry, ok := w.lstatEntry(path)
		if !ok {
			continue
		}
		if !entry.IsDir {
			if opts.IncludeFiles {
				node.Children = append(node.Children, &DirectoryNode{FileEntry: entry})
			}
			continue
		}

		child := &DirectoryNode{FileEntry: entry}
		node.Children = append(node.Children, child)

		childCanonical := filepath.Join(canonical, d.Name())
		if entry.IsSymlink {
			resolved, contained := w.validator.Resolve(path)
			if !contained {
				continue
			}
			childCanonical = resolved.Canonical
		}
		if visited[childCanonical] {
			child.Cycle = true
			continue
		}

		visited[childCanonical] = true
		err := w.descend(ctx, child, childCanonical, depth+1, opts, visited)
		delete(visited, childCanonical)
		if err != nil {
			return err
		}
	}
	return nil
}

// Render draws node as an indented text tree with directories suffixed by
// a slash.
func Render(node *DirectoryNode) string {
	var b strings.Builder
	b.WriteString(label(node))
	b.WriteByte('\n')
	renderChildren(&b, node, "")
	return b.String()
}

func renderChildren(b *strings.Builder, node *DirectoryNode, prefix string) {
	for i, child := range node.Children {
		last := i == len(node.Children)-1
		branch, next := "├── ", "│   "
		if last {
			branch, next = "└── ", "    "
		}
		b.WriteString(prefix)
		b.WriteString(branch)
		b.WriteString(label(child))
		b.WriteByte('\n')
		renderChildren(b, child, prefix+next)
	}
}

func label(node *DirectoryNode) string {
	name := node.Name
	if node.IsDir {
		name += "/"
	}
	switch {
	case node.IsSymlink && node.Cycle:
		name += " (link, cycle)"
	case node.IsSymlink:
		name += " (link)"
	}
	return name
}
