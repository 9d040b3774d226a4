package walker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type env struct {
	base    string
	root    string
	walker  *Walker
	resolve func(string) access.ResolvedPath
}

func newEnv(t *testing.T, mutate ...func(*access.Options)) *env {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	root := filepath.Join(base, "data")
	require.NoError(t, os.MkdirAll(root, 0o755))

	opts := access.Options{
		AllowedDirectories:  []string{root},
		MaxFileSizeMB:       1,
		SupportedExtensions: []string{".txt", ".log", ".md"},
	}
	for _, m := range mutate {
		m(&opts)
	}
	settings, err := access.NewSettings(opts)
	require.NoError(t, err)
	validator := access.NewValidator(settings, nil)

	return &env{
		base:   base,
		root:   root,
		walker: New(validator, access.NewPolicy(settings, nil)),
		resolve: func(p string) access.ResolvedPath {
			r, err := validator.Validate(context.Background(), access.Call{Operation: "test"}, p)
			require.NoError(t, err)
			return r
		},
	}
}

func (e *env) write(t *testing.T, rel, content string) string {
	t.Helper()
	p := filepath.Join(e.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func names(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestListOne(t *testing.T) {
	e := newEnv(t)
	e.write(t, "b.txt", "hello")
	e.write(t, "a.log", "x")
	e.write(t, ".hidden.txt", "h")
	require.NoError(t, os.Mkdir(filepath.Join(e.root, "sub"), 0o755))

	outside := filepath.Join(e.base, "outside")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(e.root, "escape")))

	entries, err := e.walker.ListOne(context.Background(), e.resolve(e.root))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.log", "b.txt", "escape", "sub"}, names(entries))

	byName := map[string]FileEntry{}
	for _, en := range entries {
		byName[en.Name] = en
	}
	assert.Equal(t, int64(5), byName["b.txt"].Size)
	assert.Equal(t, ".txt", byName["b.txt"].Extension)
	assert.True(t, byName["sub"].IsDir)
	assert.True(t, byName["escape"].IsSymlink)
	assert.False(t, byName["escape"].IsDir, "escaping link target is not described")
}

func TestListOneIncludeHidden(t *testing.T) {
	e := newEnv(t, func(o *access.Options) { o.IncludeHidden = true })
	e.write(t, ".hidden.txt", "h")

	entries, err := e.walker.ListOne(context.Background(), e.resolve(e.root))
	require.NoError(t, err)
	assert.Equal(t, []string{".hidden.txt"}, names(entries))
}

func TestFiles(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a.txt", "a")
	e.write(t, "logs/app.log", "l")
	e.write(t, "logs/deep/old.LOG", "o")
	e.write(t, "logs/image.png", "p")
	e.write(t, ".git/config.txt", "c")

	outside := filepath.Join(e.base, "outside")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "leak.txt"), []byte("s"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(e.root, "escape-dir")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "leak.txt"), filepath.Join(e.root, "leak.txt")))
	require.NoError(t, os.Symlink(filepath.Join(e.root, "a.txt"), filepath.Join(e.root, "alias.txt")))

	ctx := context.Background()
	dir := e.resolve(e.root)

	all, err := e.walker.Files(ctx, dir, FilesOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "alias.txt", "app.log", "old.LOG", "image.png"}, names(all))

	logs, err := e.walker.Files(ctx, dir, FilesOptions{Filter: func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ".log")
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.log", "old.LOG"}, names(logs))

	deep, err := e.walker.Files(ctx, dir, FilesOptions{Pattern: "logs/**/*.LOG"})
	require.NoError(t, err)
	assert.Equal(t, []string{"old.LOG"}, names(deep))

	base, err := e.walker.Files(ctx, dir, FilesOptions{Pattern: "a*.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "alias.txt"}, names(base))

	_, err = e.walker.Files(ctx, dir, FilesOptions{Pattern: "[unclosed"})
	assert.Error(t, err)
}

func TestFilesCancelled(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a.txt", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.walker.Files(ctx, e.resolve(e.root), FilesOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

// shape reduces a tree to names for comparison.
type shape struct {
	Name     string
	Empty    bool
	Cycle    bool
	Children []shape
}

func toShape(n *DirectoryNode) shape {
	s := shape{Name: n.Name, Empty: n.IsEmpty, Cycle: n.Cycle}
	for _, c := range n.Children {
		s.Children = append(s.Children, toShape(c))
	}
	return s
}

func TestWalkDepth(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a/b/c/file.txt", "x")
	require.NoError(t, os.MkdirAll(filepath.Join(e.root, "empty"), 0o755))

	ctx := context.Background()
	tree, err := e.walker.Walk(ctx, e.resolve(e.root), WalkOptions{MaxDepth: 2})
	require.NoError(t, err)

	want := shape{Name: "data", Children: []shape{
		{Name: "a", Children: []shape{{Name: "b"}}},
		{Name: "empty", Empty: true},
	}}
	if diff := cmp.Diff(want, toShape(tree)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	full, err := e.walker.Walk(ctx, e.resolve(e.root), WalkOptions{IncludeFiles: true})
	require.NoError(t, err)
	want = shape{Name: "data", Children: []shape{
		{Name: "a", Children: []shape{{Name: "b", Children: []shape{{Name: "c", Children: []shape{{Name: "file.txt"}}}}}}},
		{Name: "empty", Empty: true},
	}}
	if diff := cmp.Diff(want, toShape(full)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkSymlinkCycle(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(e.root, "a", "b"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(e.root, "a"), filepath.Join(e.root, "a", "b", "loop")))
	require.NoError(t, os.Symlink(filepath.Join(e.root, "a", "b"), filepath.Join(e.root, "shortcut")))

	outside := filepath.Join(e.base, "outside")
	require.NoError(t, os.MkdirAll(filepath.Join(outside, "secret"), 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(e.root, "escape")))

	tree, err := e.walker.Walk(context.Background(), e.resolve(e.root), WalkOptions{})
	require.NoError(t, err)

	want := shape{Name: "data", Children: []shape{
		{Name: "a", Children: []shape{
			{Name: "b", Children: []shape{{Name: "loop", Cycle: true}}},
		}},
		// shortcut shares a/b's target but is a separate descent; it stops
		// once loop -> a leads back to a/b.
		{Name: "shortcut", Children: []shape{
			{Name: "loop", Children: []shape{{Name: "b", Cycle: true}}},
		}},
	}}
	if diff := cmp.Diff(want, toShape(tree)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a/x.txt", "x")
	e.write(t, "b.txt", "b")

	tree, err := e.walker.Walk(context.Background(), e.resolve(e.root), WalkOptions{IncludeFiles: true})
	require.NoError(t, err)

	want := strings.Join([]string{
		"data/",
		"├── a/",
		"│   └── x.txt",
		"└── b.txt",
		"",
	}, "\n")
	assert.Equal(t, want, Render(tree))
}
