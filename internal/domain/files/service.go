package files

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
	"github.com/GriffinCanCode/FileMaster/internal/domain/walker"
	"github.com/GriffinCanCode/FileMaster/internal/logging"
)

// Operation names, stable across every transport.
const (
	OpGetFiles               = "get_files"
	OpGetDirectories         = "get_directories"
	OpSearchFiles            = "search_files"
	OpGetFilesContent        = "get_files_content"
	OpCreateDirectory        = "create_directory"
	OpCreateFile             = "create_file"
	OpMoveFile               = "move_file"
	OpMoveDirectory          = "move_directory"
	OpDeleteFile             = "delete_file"
	OpDeleteDirectory        = "delete_directory"
	OpListAllowedDirectories = "list_allowed_directories"
	OpReadFile               = "read_file"
)

const (
	// DefaultContentBudget caps the total content returned by one
	// get_files_content call.
	DefaultContentBudget int64 = 4 * 1024 * 1024
	// DefaultSearchLimit caps collected search results when the caller sets
	// no limit.
	DefaultSearchLimit = 1000
	// contentWorkers bounds concurrent file reads.
	contentWorkers = 4
)

// Service executes file operations inside the whitelist.
type Service struct {
	settings  *access.Settings
	validator *access.Validator
	policy    *access.Policy
	walker    *walker.Walker
	recorder  audit.Recorder
	logger    *logging.Logger

	contentBudget int64
	searchLimit   int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the operational logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithContentBudget overrides DefaultContentBudget.
func WithContentBudget(bytes int64) Option {
	return func(s *Service) {
		if bytes > 0 {
			s.contentBudget = bytes
		}
	}
}

// WithSearchLimit overrides DefaultSearchLimit.
func WithSearchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.searchLimit = n
		}
	}
}

// NewService wires the validator, policy engine and walker over settings.
// All three share recorder.
func NewService(settings *access.Settings, recorder audit.Recorder, opts ...Option) *Service {
	if recorder == nil {
		recorder = audit.Nop
	}
	validator := access.NewValidator(settings, recorder)
	policy := access.NewPolicy(settings, recorder)

	s := &Service{
		settings:      settings,
		validator:     validator,
		policy:        policy,
		walker:        walker.New(validator, policy),
		recorder:      recorder,
		logger:        logging.NewNop(),
		contentBudget: DefaultContentBudget,
		searchLimit:   DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the access configuration in force.
func (s *Service) Settings() *access.Settings { return s.settings }

// Validator exposes the path validator for transports that resolve paths
// themselves, such as the check-path command.
func (s *Service) Validator() *access.Validator { return s.validator }

// ListAllowedDirectories returns the canonical allowed roots.
func (s *Service) ListAllowedDirectories() []string {
	return s.settings.AllowedDirectories()
}

// record writes the outcome of a destructive operation. Denials the
// validator or the policy engine emitted are already in the trail.
func (s *Service) record(ctx context.Context, call access.Call, requested, resolved, destination string, err error) {
	if access.Recorded(err) {
		return
	}

	event := audit.NewEvent(call.Operation, call.Actor, requested).
		WithResolved(resolved).
		WithDestination(destination)
	switch outcome := access.OutcomeOf(err); {
	case err == nil:
		event = event.Succeeded()
	case outcome == audit.OutcomeDenied:
		event = event.Denied(string(access.KindOf(err)))
	default:
		event = event.Failed(outcome, string(access.KindOf(err)))
	}

	if rerr := s.recorder.Record(ctx, event); rerr != nil {
		s.logger.Error("Failed to record audit event",
			zap.String("operation", call.Operation),
			zap.String("event_id", event.ID),
			zap.Error(rerr))
	}
}

// ioError converts an OS error and logs IO failures.
func (s *Service) ioError(call access.Call, requested string, err error) error {
	e := access.FromOS(call.Operation, requested, err)
	if e.Kind == access.KindIOFailure {
		s.logger.Warn("Filesystem operation failed",
			zap.String("operation", call.Operation),
			zap.String("actor", call.Actor),
			zap.Error(err))
	}
	return e
}

// statDir requires r to exist and be a directory.
func (s *Service) statDir(call access.Call, r access.ResolvedPath) (fs.FileInfo, error) {
	info, err := os.Stat(r.Canonical)
	if err != nil {
		return nil, s.ioError(call, r.Requested, err)
	}
	if !info.IsDir() {
		return nil, access.NewError(access.KindTypeMismatch, call.Operation, r.Requested)
	}
	return info, nil
}

// statFile requires r to exist and be a regular file.
func (s *Service) statFile(call access.Call, r access.ResolvedPath) (fs.FileInfo, error) {
	info, err := os.Stat(r.Canonical)
	if err != nil {
		return nil, s.ioError(call, r.Requested, err)
	}
	if !info.Mode().IsRegular() {
		return nil, access.NewError(access.KindTypeMismatch, call.Operation, r.Requested)
	}
	return info, nil
}

// revalidate repeats validation right before a destructive syscall and
// requires the path to still resolve to the same place.
func (s *Service) revalidate(ctx context.Context, call access.Call, prev access.ResolvedPath) (access.ResolvedPath, error) {
	r, err := s.validator.ValidateEntry(ctx, call, prev.Requested)
	if err != nil {
		return access.ResolvedPath{}, err
	}
	if r.Canonical != prev.Canonical || r.Entry != prev.Entry {
		return access.ResolvedPath{}, &access.Error{
			Kind:   access.KindIOFailure,
			Op:     call.Operation,
			Path:   prev.Requested,
			Detail: "path changed during operation",
		}
	}
	return r, nil
}

func notFound(call access.Call, requested string) error {
	return access.NewError(access.KindNotFound, call.Operation, requested)
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
