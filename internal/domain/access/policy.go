package access

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
)

// Policy enforces the extension allow-list, the size ceiling, the delete
// flag and root protection on paths that already passed validation.
type Policy struct {
	settings *Settings
	recorder audit.Recorder
}

// NewPolicy creates a policy engine over settings. A nil recorder discards
// events.
func NewPolicy(settings *Settings, recorder audit.Recorder) *Policy {
	if recorder == nil {
		recorder = audit.Nop
	}
	return &Policy{settings: settings, recorder: recorder}
}

// AllowsExtension reports whether name's extension is allow-listed.
// Comparison is case-insensitive; a name without an extension never passes.
func (p *Policy) AllowsExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	_, ok := p.settings.extensions[ext]
	return ok
}

// WithinSize reports whether size is at or below the configured ceiling.
func (p *Policy) WithinSize(size int64) bool {
	return size <= p.settings.maxBytes
}

// CheckReadable verifies that a file may be returned to the caller.
func (p *Policy) CheckReadable(ctx context.Context, call Call, r ResolvedPath, size int64) error {
	return p.checkFile(ctx, call, r, size)
}

// CheckWritable verifies that a file of the given size may be created at r.
func (p *Policy) CheckWritable(ctx context.Context, call Call, r ResolvedPath, size int64) error {
	return p.checkFile(ctx, call, r, size)
}

// CheckDeletable rejects every delete when deletes are disabled. It runs
// before any path resolution, so requested is recorded as given.
func (p *Policy) CheckDeletable(ctx context.Context, call Call, requested string) error {
	if p.settings.allowDelete {
		return nil
	}
	return p.deny(ctx, call, requested, "", KindDeleteDisabled)
}

// CheckDestination verifies a move target. File destinations must carry an
// allowed extension; directory destinations need nothing beyond validation.
func (p *Policy) CheckDestination(ctx context.Context, call Call, dst ResolvedPath, isDir bool) error {
	if isDir || p.AllowsExtension(dst.Canonical) {
		return nil
	}
	return p.deny(ctx, call, dst.Requested, dst.Canonical, KindExtensionDenied)
}

// CheckNotRoot rejects moving or deleting an allowed directory itself.
func (p *Policy) CheckNotRoot(ctx context.Context, call Call, r ResolvedPath) error {
	if !p.settings.IsRoot(r.Canonical) {
		return nil
	}
	return p.deny(ctx, call, r.Requested, r.Canonical, KindProtectedRoot)
}

func (p *Policy) checkFile(ctx context.Context, call Call, r ResolvedPath, size int64) error {
	if !p.AllowsExtension(r.Canonical) {
		return p.deny(ctx, call, r.Requested, r.Canonical, KindExtensionDenied)
	}
	if !p.WithinSize(size) {
		return p.deny(ctx, call, r.Requested, r.Canonical, KindSizeExceeded)
	}
	return nil
}

func (p *Policy) deny(ctx context.Context, call Call, requested, resolved string, kind Kind) error {
	event := audit.NewEvent(call.Operation, call.Actor, requested).
		WithResolved(resolved).
		Denied(string(kind))
	_ = p.recorder.Record(ctx, event)
	return recordedError(kind, call.Operation, requested)
}
