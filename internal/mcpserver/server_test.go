package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
	"github.com/GriffinCanCode/FileMaster/internal/domain/files"
	"github.com/GriffinCanCode/FileMaster/internal/providers/filesystem"
	"github.com/GriffinCanCode/FileMaster/internal/service"
	"github.com/GriffinCanCode/FileMaster/internal/types"
)

type fixture struct {
	srv    *Server
	root   string
	base   string
	events *audit.Memory
}

func setup(t *testing.T) *fixture {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	root := filepath.Join(base, "data")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("hello mcp\n"), 0o644))

	settings, err := access.NewSettings(access.Options{
		AllowedDirectories:  []string{root},
		MaxFileSizeMB:       1,
		SupportedExtensions: []string{".txt"},
	})
	require.NoError(t, err)

	events := audit.NewMemory(32)
	svc := files.NewService(settings, events)
	registry := service.NewRegistry()
	require.NoError(t, registry.Register(filesystem.NewProvider(svc)))

	return &fixture{srv: New(registry, svc, "test", nil), root: root, base: base, events: events}
}

func call(t *testing.T, f *fixture, ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, types.Result) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Name = tool
	req.Params.Arguments = args

	res, err := f.srv.callTool(filesystem.ServiceID+"."+tool)(ctx, req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var out types.Result
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return res, out
}

func TestToolsList(t *testing.T) {
	f := setup(t)
	msg := f.srv.MCP().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	var resp struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				InputSchema struct {
					Required []string `json:"required"`
				} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))

	byName := map[string][]string{}
	for _, tool := range resp.Result.Tools {
		byName[tool.Name] = tool.InputSchema.Required
	}
	assert.Contains(t, byName, files.OpGetFiles)
	assert.Contains(t, byName, files.OpDeleteDirectory)
	assert.Contains(t, byName[files.OpSearchFiles], "pattern")
}

func TestCallTool(t *testing.T) {
	f := setup(t)
	ctx := context.WithValue(context.Background(), actorKey{}, "agent-3")

	res, out := call(t, f, ctx, files.OpGetFiles, map[string]any{"directory": f.root})
	assert.False(t, res.IsError)
	assert.True(t, out.Success)
	assert.EqualValues(t, 1, out.Data["count"])

	res, out = call(t, f, ctx, files.OpCreateFile, map[string]any{"path": filepath.Join(f.base, "x.txt"), "content": "x"})
	assert.True(t, res.IsError)
	assert.Equal(t, string(access.KindOutsideWhitelist), out.Kind)

	events := f.events.Recent(1)
	require.Len(t, events, 1)
	assert.Equal(t, "agent-3", events[0].Actor)
}

func TestReadFileResource(t *testing.T) {
	f := setup(t)
	var req mcp.ReadResourceRequest
	req.Params.URI = filePrefix + filepath.Join(f.root, "readme.txt")

	contents, err := f.srv.readFile(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "hello mcp\n", text.Text)
	assert.Equal(t, req.Params.URI, text.URI)

	req.Params.URI = filePrefix + filepath.Join(f.base, "secret.txt")
	_, err = f.srv.readFile(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(access.KindOutsideWhitelist))
	assert.NotContains(t, err.Error(), f.base)
}

func TestReadDirectoriesResource(t *testing.T) {
	f := setup(t)
	var req mcp.ReadResourceRequest
	req.Params.URI = DirectoriesURI

	contents, err := f.srv.readDirectories(context.Background(), req)
	require.NoError(t, err)
	text := contents[0].(mcp.TextResourceContents)

	var body struct {
		Directories []string `json:"directories"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &body))
	assert.Equal(t, []string{f.root}, body.Directories)
}

func TestActorFrom(t *testing.T) {
	assert.Equal(t, "mcp", actorFrom(context.Background()))
	assert.Equal(t, "agent", actorFrom(context.WithValue(context.Background(), actorKey{}, "agent")))
}

func TestParameterOptions(t *testing.T) {
	tool := toolSchema(types.Tool{
		Name:        "demo",
		Description: "demo tool",
		Destructive: true,
		Parameters: []types.Parameter{
			{Name: "path", Type: types.TypeString, Required: true},
			{Name: "paths", Type: types.TypeArray},
			{Name: "depth", Type: types.TypeInteger},
			{Name: "force", Type: types.TypeBoolean},
		},
	})

	assert.Equal(t, "demo", tool.Name)
	assert.Equal(t, []string{"path"}, tool.InputSchema.Required)
	assert.Equal(t, "number", tool.InputSchema.Properties["depth"].(map[string]any)["type"])
	assert.Equal(t, "array", tool.InputSchema.Properties["paths"].(map[string]any)["type"])
	require.NotNil(t, tool.Annotations.DestructiveHint)
	assert.True(t, *tool.Annotations.DestructiveHint)
}
