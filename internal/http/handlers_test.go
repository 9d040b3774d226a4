package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
	"github.com/GriffinCanCode/FileMaster/internal/domain/files"
	"github.com/GriffinCanCode/FileMaster/internal/infrastructure/auditstore"
	"github.com/GriffinCanCode/FileMaster/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FileMaster/internal/middleware"
	"github.com/GriffinCanCode/FileMaster/internal/providers/filesystem"
	"github.com/GriffinCanCode/FileMaster/internal/service"
	"github.com/GriffinCanCode/FileMaster/internal/types"
)

type fixture struct {
	router *gin.Engine
	root   string
	base   string
	events *audit.Memory
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	root := filepath.Join(base, "data")
	require.NoError(t, os.MkdirAll(root, 0o755))

	settings, err := access.NewSettings(access.Options{
		AllowedDirectories:  []string{root},
		MaxFileSizeMB:       1,
		SupportedExtensions: []string{".txt"},
	})
	require.NoError(t, err)

	events := audit.NewMemory(128)
	svc := files.NewService(settings, events)
	registry := service.NewRegistry()
	require.NoError(t, registry.Register(filesystem.NewProvider(svc)))

	h := NewHandlers(registry, svc, auditstore.MemoryQuerier{Memory: events}, monitoring.NewMetrics(), nil)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Actor())
	h.Register(router)

	return &fixture{router: router, root: root, base: base, events: events}
}

func (f *fixture) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestRoot(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "FileMaster", body["service"])
}

func TestHealth(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "metrics")

	acc := body["access"].(map[string]any)
	assert.EqualValues(t, 1, acc["allowed_directories"])
	assert.Equal(t, false, acc["delete_enabled"])
	assert.NotContains(t, w.Body.String(), f.root)
}

func TestListTools(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodGet, "/tools", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Tools []types.Tool `json:"tools"`
		Count int          `json:"count"`
	}](t, w)
	assert.Equal(t, len(body.Tools), body.Count)
	assert.GreaterOrEqual(t, body.Count, 11)
}

func TestListServices(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodGet, "/services?category=filesystem", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Services []types.Service `json:"services"`
	}](t, w)
	require.Len(t, body.Services, 1)
	assert.Equal(t, filesystem.ServiceID, body.Services[0].ID)

	w = f.do(t, http.MethodGet, "/services?category=bad%20category", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiscoverServices(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodPost, "/services/discover", map[string]any{"intent": "search files for errors"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Services []types.Service `json:"services"`
	}](t, w)
	require.NotEmpty(t, body.Services)
	assert.Equal(t, filesystem.ServiceID, body.Services[0].ID)

	w = f.do(t, http.MethodPost, "/services/discover", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteToolRoundTrip(t *testing.T) {
	f := setup(t)
	path := filepath.Join(f.root, "notes.txt")

	w := f.do(t, http.MethodPost, "/tools/execute", map[string]any{
		"tool_id": "create_file",
		"params":  map[string]any{"path": path, "content": "hello"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[types.Result](t, w)
	require.True(t, created.Success, created.Error)

	w = f.do(t, http.MethodPost, "/tools/execute", map[string]any{
		"tool_id": "filesystem.get_files_content",
		"params":  map[string]any{"paths": []string{path}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hello")
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestExecuteToolDenied(t *testing.T) {
	f := setup(t)
	outside := filepath.Join(f.base, "outside.txt")

	w := f.do(t, http.MethodPost, "/tools/execute", map[string]any{
		"tool_id": "create_file",
		"params":  map[string]any{"path": outside, "content": "x"},
	}, middleware.HeaderActor, "agent-7")

	require.Equal(t, http.StatusOK, w.Code)
	res := decode[types.Result](t, w)
	assert.False(t, res.Success)
	assert.Equal(t, string(access.KindOutsideWhitelist), res.Kind)
	assert.Equal(t, string(audit.OutcomeDenied), res.Outcome)
	assert.NotContains(t, w.Body.String(), f.base)
	assert.NoFileExists(t, outside)

	w = f.do(t, http.MethodGet, "/audit/events?outcome=denied&actor=agent-7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Events []audit.SecurityEvent `json:"events"`
		Count  int                   `json:"count"`
	}](t, w)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, files.OpCreateFile, body.Events[0].Operation)
	assert.Equal(t, outside, body.Events[0].Requested)
}

func TestExecuteToolRejected(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"malformed json", `{"tool_id":`, http.StatusBadRequest},
		{"missing tool id", map[string]any{"params": map[string]any{}}, http.StatusBadRequest},
		{"invalid tool id", map[string]any{"tool_id": "get files"}, http.StatusBadRequest},
		{"unknown tool", map[string]any{"tool_id": "format_disk"}, http.StatusNotFound},
		{"unknown service", map[string]any{"tool_id": "shell.exec"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/tools/execute", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestExecuteToolParamsTooDeep(t *testing.T) {
	f := setup(t)
	deep := `{"tool_id":"get_files","params":{"a":` + strings.Repeat("[", 12) + strings.Repeat("]", 12) + `}}`

	w := f.do(t, http.MethodPost, "/tools/execute", deep)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteToolBodyTooLarge(t *testing.T) {
	f := setup(t)
	big := `{"tool_id":"create_file","params":{"content":"` + strings.Repeat("a", int(bodyLimit(1<<20))+1) + `"}}`

	w := f.do(t, http.MethodPost, "/tools/execute", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAuditEventsFilters(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"no filter", "", http.StatusOK},
		{"since", "?since=2024-01-02T15:04:05Z", http.StatusOK},
		{"bad outcome", "?outcome=exploded", http.StatusBadRequest},
		{"bad since", "?since=yesterday", http.StatusBadRequest},
		{"bad limit", "?limit=-1", http.StatusBadRequest},
		{"bad operation", "?operation=a%20b", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodGet, "/audit/events"+tt.query, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}
