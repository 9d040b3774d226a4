package access

// Call identifies the operation and actor a check is performed for. It is
// copied into every audit event the check emits.
type Call struct {
	Operation string
	Actor     string
}
