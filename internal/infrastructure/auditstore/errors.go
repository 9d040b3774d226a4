package auditstore

import "errors"

var (
	ErrPathRequired   = errors.New("audit store path is required")
	ErrOpenLog        = errors.New("open audit log")
	ErrWriteEvent     = errors.New("write audit event")
	ErrOpenDB         = errors.New("open audit database")
	ErrConfigureDB    = errors.New("configure audit database")
	ErrApplyMigration = errors.New("apply audit migration")
	ErrInsertEvent    = errors.New("insert audit event")
	ErrQueryEvents    = errors.New("query audit events")
)
