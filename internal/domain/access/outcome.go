package access

import "github.com/GriffinCanCode/FileMaster/internal/domain/audit"

// OutcomeOf maps an operation error to its outcome tag. A nil error is a
// success.
func OutcomeOf(err error) audit.Outcome {
	if err == nil {
		return audit.OutcomeSuccess
	}
	switch KindOf(err).Class() {
	case ClassValidation, ClassPolicy:
		return audit.OutcomeDenied
	case ClassNotFound:
		return audit.OutcomeNotFound
	case ClassConflict:
		return audit.OutcomeConflict
	default:
		return audit.OutcomeIOFailure
	}
}
