package filesystem

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
	"github.com/GriffinCanCode/FileMaster/internal/domain/files"
	"github.com/GriffinCanCode/FileMaster/internal/logging"
	"github.com/GriffinCanCode/FileMaster/internal/types"
)

// ServiceID qualifies every tool this provider owns.
const ServiceID = "filesystem"

// Observer receives one notification per executed tool call.
type Observer interface {
	ObserveOperation(operation string, outcome audit.Outcome, duration time.Duration)
}

// Provider exposes files.Service through the tool registry.
type Provider struct {
	files    *files.Service
	logger   *logging.Logger
	observer Observer
	ops      map[string]operation
	tools    []types.Tool
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the operational logger.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver reports every call to o.
func WithObserver(o Observer) Option {
	return func(p *Provider) { p.observer = o }
}

// NewProvider builds the provider over svc.
func NewProvider(svc *files.Service, opts ...Option) *Provider {
	p := &Provider{
		files:  svc,
		logger: logging.NewNop(),
		ops:    make(map[string]operation),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, op := range operations() {
		tool := op.tool
		tool.ID = ServiceID + "." + tool.Name
		p.ops[tool.ID] = op
		p.tools = append(p.tools, tool)
	}
	return p
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          ServiceID,
		Name:        "Filesystem Service",
		Description: "Whitelisted file and directory operations with policy enforcement and audit",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"list",
			"tree",
			"search",
			"read",
			"create",
			"move",
			"delete",
		},
		Tools: append([]types.Tool(nil), p.tools...),
	}
}

// Execute runs one tool. Domain failures come back as a failed Result with
// a nil error so transports can hand them to the agent unchanged.
func (p *Provider) Execute(ctx context.Context, toolID string, raw map[string]any, appCtx *types.Context) (*types.Result, error) {
	op, ok := p.ops[toolID]
	if !ok {
		return Failure("unknown tool: " + toolID)
	}

	name := op.tool.Name
	call := access.Call{Operation: name, Actor: appCtx.ActorOrAnonymous()}
	start := time.Now()

	data, err := op.run(ctx, p.files, call, newParams(name, raw))

	outcome := audit.OutcomeSuccess
	if err != nil {
		outcome = access.OutcomeOf(err)
	}
	if p.observer != nil {
		p.observer.ObserveOperation(name, outcome, time.Since(start))
	}

	if err != nil {
		p.logger.Debug("Tool call failed",
			zap.String("tool", name),
			zap.String("actor", call.Actor),
			zap.String("kind", string(access.KindOf(err))),
			zap.Error(err),
		)
		return FailureFrom(err)
	}
	return Success(data)
}

// Success helper
func Success(data map[string]any) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure helper
func Failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}

// FailureFrom converts an operation error into a failed Result carrying the
// stable kind and audit outcome. Host paths never reach the message.
func FailureFrom(err error) (*types.Result, error) {
	kind := access.KindOf(err)
	var msg string
	var e *access.Error
	switch {
	case errors.As(err, &e):
		msg = e.Public()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		msg = err.Error()
	default:
		msg = kind.Message()
	}
	return &types.Result{
		Success: false,
		Error:   &msg,
		Kind:    string(kind),
		Outcome: string(access.OutcomeOf(err)),
	}, nil
}
