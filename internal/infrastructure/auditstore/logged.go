package auditstore

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
	"github.com/GriffinCanCode/FileMaster/internal/logging"
)

type logged struct {
	next   audit.Recorder
	logger *logging.Logger
}

// Logged reports recorder failures to logger and still returns them.
func Logged(next audit.Recorder, logger *logging.Logger) audit.Recorder {
	return &logged{next: next, logger: logger}
}

func (l *logged) Record(ctx context.Context, event audit.SecurityEvent) error {
	err := l.next.Record(ctx, event)
	if err != nil {
		l.logger.Error("Audit sink failed",
			zap.String("event_id", event.ID),
			zap.String("operation", event.Operation),
			zap.String("outcome", string(event.Outcome)),
			zap.Error(err))
	}
	return err
}
