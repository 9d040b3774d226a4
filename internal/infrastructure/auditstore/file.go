package auditstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
)

// FileSink appends events as JSON lines with a fixed field order:
// id, ts, operation, outcome, reason, actor, requested, resolved,
// destination. Empty optional fields are omitted.
type FileSink struct {
	mu    sync.Mutex
	core  zapcore.Core
	close func()
}

// OpenFile opens (or creates) path for appending.
func OpenFile(path string) (*FileSink, error) {
	if path == "" {
		return nil, ErrPathRequired
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenLog, err)
	}
	ws, closeFn, err := zap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenLog, err)
	}
	return NewFileSink(ws, closeFn), nil
}

// NewFileSink writes to an arbitrary syncer. closeFn may be nil.
func NewFileSink(ws zapcore.WriteSyncer, closeFn func()) *FileSink {
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		LineEnding: zapcore.DefaultLineEnding,
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
	})
	if closeFn == nil {
		closeFn = func() {}
	}
	return &FileSink{
		core:  zapcore.NewCore(enc, ws, zapcore.DebugLevel),
		close: closeFn,
	}
}

// Record implements audit.Recorder. The line is synced before returning.
func (s *FileSink) Record(_ context.Context, event audit.SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := zapcore.Entry{Level: zapcore.InfoLevel, Time: time.Now()}
	if err := s.core.Write(entry, eventFields(event)); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteEvent, err)
	}
	if err := s.core.Sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteEvent, err)
	}
	return nil
}

// Close releases the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.core.Sync()
	s.close()
	return err
}

func eventFields(e audit.SecurityEvent) []zap.Field {
	fields := []zap.Field{
		zap.String("id", e.ID),
		zap.Time("ts", e.Timestamp),
		zap.String("operation", e.Operation),
		zap.String("outcome", string(e.Outcome)),
	}
	if e.Reason != "" {
		fields = append(fields, zap.String("reason", e.Reason))
	}
	fields = append(fields,
		zap.String("actor", e.Actor),
		zap.String("requested", e.Requested),
	)
	if e.Resolved != "" {
		fields = append(fields, zap.String("resolved", e.Resolved))
	}
	if e.Destination != "" {
		fields = append(fields, zap.String("destination", e.Destination))
	}
	return fields
}
