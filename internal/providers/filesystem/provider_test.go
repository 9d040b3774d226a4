package filesystem

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
	"github.com/GriffinCanCode/FileMaster/internal/domain/files"
	"github.com/GriffinCanCode/FileMaster/internal/domain/walker"
	"github.com/GriffinCanCode/FileMaster/internal/types"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveOperation(op string, outcome audit.Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, op+"="+string(outcome))
}

func setup(t *testing.T, allowDelete bool) (*Provider, string, *recordingObserver) {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	root := filepath.Join(base, "data")
	require.NoError(t, os.MkdirAll(root, 0o755))

	settings, err := access.NewSettings(access.Options{
		AllowedDirectories:  []string{root},
		MaxFileSizeMB:       1,
		SupportedExtensions: []string{".txt", ".log"},
		AllowDelete:         allowDelete,
	})
	require.NoError(t, err)

	obs := &recordingObserver{}
	p := NewProvider(files.NewService(settings, audit.NewMemory(64)), WithObserver(obs))
	return p, root, obs
}

func exec(t *testing.T, p *Provider, tool string, params map[string]any) *types.Result {
	t.Helper()
	result, err := p.Execute(context.Background(), ServiceID+"."+tool, params, &types.Context{Actor: "tester"})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestDefinition(t *testing.T) {
	p, _, _ := setup(t, false)
	def := p.Definition()

	assert.Equal(t, ServiceID, def.ID)
	assert.Equal(t, types.CategoryFilesystem, def.Category)

	names := make([]string, len(def.Tools))
	for i, tool := range def.Tools {
		names[i] = tool.Name
		assert.Equal(t, ServiceID+"."+tool.Name, tool.ID)
	}
	assert.ElementsMatch(t, []string{
		"list_allowed_directories", "get_files", "get_directories", "search_files",
		"get_files_content", "create_directory", "create_file", "move_file",
		"move_directory", "delete_file", "delete_directory",
	}, names)

	for _, tool := range def.Tools {
		if tool.Name == files.OpDeleteFile {
			assert.True(t, tool.Destructive)
		}
	}
}

func TestCreateReadRoundTrip(t *testing.T) {
	p, root, obs := setup(t, false)
	path := filepath.Join(root, "notes", "a.txt")

	res := exec(t, p, "create_file", map[string]any{"path": path, "content": "hello\n", "parents": true})
	require.True(t, res.Success, "create_file: %v", res.Error)
	assert.Equal(t, 6, res.Data["size"])

	res = exec(t, p, "get_files_content", map[string]any{"paths": []any{path}})
	require.True(t, res.Success)
	contents := res.Data["files"].([]files.FileContent)
	require.Len(t, contents, 1)
	assert.Equal(t, "hello\n", contents[0].Content)

	assert.Equal(t, []string{"create_file=success", "get_files_content=success"}, obs.calls)
}

func TestLegacyParameterNames(t *testing.T) {
	p, root, _ := setup(t, false)
	src := filepath.Join(root, "a.log")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	res := exec(t, p, "move_file", map[string]any{
		"source_path": src,
		"target_path": filepath.Join(root, "b.log"),
	})
	require.True(t, res.Success, "move_file: %v", res.Error)
	assert.FileExists(t, filepath.Join(root, "b.log"))
	assert.NoFileExists(t, src)
}

func TestGetFiles(t *testing.T) {
	p, root, _ := setup(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.log"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.bin"), nil, 0o644))

	res := exec(t, p, "get_files", map[string]any{"directory": root, "extension_filter": "log"})
	require.True(t, res.Success)
	entries := res.Data["files"].([]walker.FileEntry)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.log", entries[0].Name)

	res = exec(t, p, "get_files", map[string]any{"directory": filepath.Join(root, "missing")})
	assert.False(t, res.Success)
	assert.Equal(t, string(access.KindNotFound), res.Kind)
	assert.Equal(t, string(audit.OutcomeNotFound), res.Outcome)
}

func TestGetFilesContentFromDirectory(t *testing.T) {
	p, root, _ := setup(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.log"), []byte("ERROR boom\nINFO ok\n"), 0o644))

	res := exec(t, p, "get_files_content", map[string]any{"directory": root})
	require.True(t, res.Success)
	summary := res.Data["summary"].(files.ContentSummary)
	assert.Equal(t, 1, summary.TotalFiles)
	assert.Equal(t, 1, summary.LogLevels["ERROR"])

	res = exec(t, p, "get_files_content", map[string]any{"directory": root, "paths": []any{"/x"}})
	assert.False(t, res.Success)
	assert.Equal(t, string(access.KindInvalidArgument), res.Kind)

	res = exec(t, p, "get_files_content", map[string]any{})
	assert.False(t, res.Success)
	assert.Equal(t, string(access.KindInvalidArgument), res.Kind)
}

func TestSearchFiles(t *testing.T) {
	p, root, _ := setup(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.log"), []byte("ok\nERROR one\nok\nERROR two\n"), 0o644))

	res := exec(t, p, "search_files", map[string]any{"directory": root, "pattern": "ERROR", "max_results": float64(10)})
	require.True(t, res.Success)
	matches := res.Data["matches"].([]walker.SearchMatch)
	require.Len(t, matches, 2)
	assert.Equal(t, 2, matches[0].Line)
	assert.Equal(t, 4, matches[1].Line)
	assert.Equal(t, false, res.Data["truncated"])
}

func TestDeleteDisabled(t *testing.T) {
	p, root, obs := setup(t, false)

	res := exec(t, p, "delete_file", map[string]any{"path": filepath.Join(root, "nope.txt")})
	assert.False(t, res.Success)
	assert.Equal(t, string(access.KindDeleteDisabled), res.Kind)
	assert.Equal(t, string(audit.OutcomeDenied), res.Outcome)
	require.NotNil(t, res.Error)
	assert.Equal(t, access.KindDeleteDisabled.Message(), *res.Error)
	assert.Equal(t, []string{"delete_file=denied"}, obs.calls)
}

func TestDeleteDisabledBeforeParams(t *testing.T) {
	tests := []struct {
		name   string
		tool   string
		params map[string]any
	}{
		{"file without path", "delete_file", nil},
		{"file with wrong type", "delete_file", map[string]any{"path": 42}},
		{"directory with empty path", "delete_directory", map[string]any{"path": ""}},
		{"directory with bad recursive", "delete_directory", map[string]any{"path": "/x", "recursive": []any{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, obs := setup(t, false)
			res := exec(t, p, tt.tool, tt.params)
			assert.False(t, res.Success)
			assert.Equal(t, string(access.KindDeleteDisabled), res.Kind)
			assert.Equal(t, []string{tt.tool + "=denied"}, obs.calls)
		})
	}

	p, _, _ := setup(t, true)
	res := exec(t, p, "delete_file", nil)
	assert.Equal(t, string(access.KindInvalidArgument), res.Kind, "params are still checked when deletes are on")
}

func TestDeleteDirectory(t *testing.T) {
	p, root, _ := setup(t, true)
	dir := filepath.Join(root, "d")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), nil, 0o644))

	res := exec(t, p, "delete_directory", map[string]any{"path": dir})
	assert.False(t, res.Success)
	assert.Equal(t, string(access.KindDirectoryNotEmpty), res.Kind)

	res = exec(t, p, "delete_directory", map[string]any{"path": dir, "recursive": "true"})
	require.True(t, res.Success)
	assert.NoDirExists(t, dir)
}

func TestOutsideWhitelistMessageHidesPaths(t *testing.T) {
	p, root, _ := setup(t, false)

	res := exec(t, p, "get_directories", map[string]any{"directory": root + "2"})
	assert.False(t, res.Success)
	assert.Equal(t, string(access.KindOutsideWhitelist), res.Kind)
	assert.NotContains(t, *res.Error, root)
}

func TestParameterErrors(t *testing.T) {
	p, root, _ := setup(t, false)

	tests := []struct {
		name   string
		tool   string
		params map[string]any
	}{
		{"missing directory", "get_files", nil},
		{"wrong type", "get_files", map[string]any{"directory": 42}},
		{"bad bool", "get_files", map[string]any{"directory": root, "recursive": "maybe"}},
		{"fractional depth", "get_directories", map[string]any{"directory": root, "max_depth": 1.5}},
		{"negative depth", "get_directories", map[string]any{"directory": root, "max_depth": -1}},
		{"bad list element", "search_files", map[string]any{"directory": root, "pattern": "x", "extensions": []any{1}}},
		{"empty pattern", "search_files", map[string]any{"directory": root, "pattern": ""}},
		{"missing destination", "move_file", map[string]any{"source": root}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := exec(t, p, tt.tool, tt.params)
			assert.False(t, res.Success)
			assert.Equal(t, string(access.KindInvalidArgument), res.Kind)
			assert.Equal(t, string(audit.OutcomeDenied), res.Outcome)
		})
	}
}

func TestUnknownTool(t *testing.T) {
	p, _, _ := setup(t, false)
	res, err := p.Execute(context.Background(), "filesystem.format_disk", nil, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestFailureFromCancelled(t *testing.T) {
	res, err := FailureFrom(context.Canceled)
	require.NoError(t, err)
	assert.Equal(t, "context canceled", *res.Error)
	assert.Equal(t, string(access.KindIOFailure), res.Kind)
}

func TestResultJSON(t *testing.T) {
	p, _, _ := setup(t, false)
	res := exec(t, p, "list_allowed_directories", nil)
	require.True(t, res.Success)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"directories"`)
	assert.NotContains(t, string(data), `"kind"`)
}

func TestDecodeSearch(t *testing.T) {
	req, err := DecodeSearch(map[string]any{
		"directory":     "/data",
		"pattern":       "x",
		"context_lines": json.Number("2"),
		"ignore_case":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/data", req.Directory)
	assert.Equal(t, 2, req.ContextLines)
	assert.True(t, req.IgnoreCase)
}
