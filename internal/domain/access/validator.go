package access

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
)

// Validator decides whether a requested path lies inside the whitelist.
type Validator struct {
	settings *Settings
	recorder audit.Recorder
}

// NewValidator creates a validator over settings. A nil recorder discards
// events.
func NewValidator(settings *Settings, recorder audit.Recorder) *Validator {
	if recorder == nil {
		recorder = audit.Nop
	}
	return &Validator{settings: settings, recorder: recorder}
}

// Settings returns the configuration the validator enforces.
func (v *Validator) Settings() *Settings { return v.settings }

// Validate canonicalizes requested and checks it against every allowed
// directory in order. The first directory that is a component-wise ancestor
// of the canonical path wins. Every failure is recorded as a denial.
func (v *Validator) Validate(ctx context.Context, call Call, requested string) (ResolvedPath, error) {
	if requested == "" || strings.ContainsRune(requested, 0) || !filepath.IsAbs(requested) {
		return ResolvedPath{}, v.deny(ctx, call, requested, "", KindNotAbsolute)
	}

	canonical, err := canonicalize(requested)
	if err != nil {
		if errors.Is(err, errNotDir) {
			return ResolvedPath{}, v.deny(ctx, call, requested, "", KindUnresolvableParent)
		}
		// Loops and unreadable components leave containment unproven.
		return ResolvedPath{}, v.deny(ctx, call, requested, "", KindOutsideWhitelist)
	}

	root, ok := v.Contains(canonical)
	if !ok {
		return ResolvedPath{}, v.deny(ctx, call, requested, canonical, KindOutsideWhitelist)
	}

	// An unresolvable entry stays empty and fails ValidateEntry.
	entry, _ := entryOf(requested)
	return ResolvedPath{Requested: requested, Canonical: canonical, Entry: entry, Root: root}, nil
}

// ValidateEntry is Validate for operations that modify the directory entry
// itself. Both the resolved target and the entry must lie inside the
// whitelist, so a link placed outside cannot be renamed or removed through
// a target inside it.
func (v *Validator) ValidateEntry(ctx context.Context, call Call, requested string) (ResolvedPath, error) {
	r, err := v.Validate(ctx, call, requested)
	if err != nil {
		return ResolvedPath{}, err
	}
	if _, ok := v.Contains(r.Entry); !ok {
		return ResolvedPath{}, v.deny(ctx, call, requested, r.Entry, KindOutsideWhitelist)
	}
	return r, nil
}

// Contains reports the allowed root that canonical lies under, if any. It
// records nothing; the walker uses it to decide whether to follow a
// symlinked directory.
func (v *Validator) Contains(canonical string) (string, bool) {
	for _, root := range v.settings.roots {
		if within(root, canonical) {
			return root, true
		}
	}
	return "", false
}

// Resolve canonicalizes a path that was already produced from a validated
// ResolvedPath (for example a directory entry) and checks containment
// silently.
func (v *Validator) Resolve(path string) (ResolvedPath, bool) {
	canonical, err := canonicalize(path)
	if err != nil {
		return ResolvedPath{}, false
	}
	root, ok := v.Contains(canonical)
	if !ok {
		return ResolvedPath{}, false
	}
	return ResolvedPath{Requested: path, Canonical: canonical, Root: root}, true
}

func (v *Validator) deny(ctx context.Context, call Call, requested, resolved string, kind Kind) error {
	event := audit.NewEvent(call.Operation, call.Actor, requested).
		WithResolved(resolved).
		Denied(string(kind))
	// Sink failures are reported by the sink; the denial stands either way.
	_ = v.recorder.Record(ctx, event)
	return recordedError(kind, call.Operation, requested)
}
