package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
	"github.com/GriffinCanCode/FileMaster/internal/domain/files"
	"github.com/GriffinCanCode/FileMaster/internal/logging"
	"github.com/GriffinCanCode/FileMaster/internal/middleware"
	"github.com/GriffinCanCode/FileMaster/internal/providers/filesystem"
	"github.com/GriffinCanCode/FileMaster/internal/service"
	"github.com/GriffinCanCode/FileMaster/internal/types"
)

const (
	// Name is the server name reported to MCP clients.
	Name = "FileMaster"

	// DirectoriesURI lists the allowed directories.
	DirectoriesURI = "files://directories"
	// FileURITemplate reads one file by absolute path.
	FileURITemplate = "files://{+path}"

	filePrefix = "files://"
	stdioActor = "mcp:stdio"
)

// ErrBinaryResource is returned when a files:// resource is not text.
var ErrBinaryResource = errors.New("binary files are not served as resources")

type actorKey struct{}

// Server exposes the registry's tools and the file resources over MCP.
type Server struct {
	mcp      *server.MCPServer
	registry *service.Registry
	files    *files.Service
	logger   *logging.Logger
}

// New builds an MCP server with one tool per registered tool.
func New(registry *service.Registry, svc *files.Service, version string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		mcp: server.NewMCPServer(Name, version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithRecovery(),
		),
		registry: registry,
		files:    svc,
		logger:   logger.Named("mcp"),
	}

	for _, tool := range registry.Tools() {
		s.mcp.AddTool(toolSchema(tool), s.callTool(tool.ID))
	}

	s.mcp.AddResource(
		mcp.NewResource(DirectoriesURI, "Allowed directories",
			mcp.WithResourceDescription("Directories the server may operate in"),
			mcp.WithMIMEType("application/json"),
		),
		s.readDirectories,
	)
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(FileURITemplate, "File",
			mcp.WithTemplateDescription("Text content of a file inside an allowed directory"),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		s.readFile,
	)
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// SSEHandler serves the SSE transport. The X-Actor header of the SSE
// request attributes every call made on that stream.
func (s *Server) SSEHandler(basePath string) http.Handler {
	return server.NewSSEServer(s.mcp,
		server.WithStaticBasePath(basePath),
		server.WithSSEContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if actor := strings.TrimSpace(r.Header.Get(middleware.HeaderActor)); actor != "" {
				return context.WithValue(ctx, actorKey{}, actor)
			}
			return ctx
		}),
	)
}

// ServeStdio serves MCP on in and out until ctx ends or in closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Logger))
	stdio.SetContextFunc(func(ctx context.Context) context.Context {
		return context.WithValue(ctx, actorKey{}, stdioActor)
	})
	return stdio.Listen(ctx, in, out)
}

func (s *Server) callTool(toolID string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		appCtx := &types.Context{Actor: actorFrom(ctx), Transport: "mcp"}

		result, err := s.registry.Execute(ctx, toolID, req.GetArguments(), appCtx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		text, err := sonic.MarshalString(result)
		if err != nil {
			s.logger.Error("Failed to encode tool result", zap.String("tool_id", toolID), zap.Error(err))
			return mcp.NewToolResultError("failed to encode result"), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(text)},
			IsError: !result.Success,
		}, nil
	}
}

func (s *Server) readDirectories(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := sonic.MarshalString(map[string]any{"directories": s.files.ListAllowedDirectories()})
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: text},
	}, nil
}

func (s *Server) readFile(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	path := strings.TrimPrefix(req.Params.URI, filePrefix)
	call := access.Call{Operation: files.OpReadFile, Actor: actorFrom(ctx)}

	content, err := s.files.ReadFile(ctx, call, path)
	if err != nil {
		res, _ := filesystem.FailureFrom(err)
		return nil, fmt.Errorf("%s: %s", res.Kind, *res.Error)
	}
	if content.Binary {
		return nil, ErrBinaryResource
	}

	mime := content.MIMEType
	if mime == "" {
		mime = "text/plain"
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: req.Params.URI, MIMEType: mime, Text: content.Content},
	}, nil
}

// actorFrom prefers the transport's actor, then the MCP session ID.
func actorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	if session := server.ClientSessionFromContext(ctx); session != nil {
		return "mcp:" + session.SessionID()
	}
	return "mcp"
}
