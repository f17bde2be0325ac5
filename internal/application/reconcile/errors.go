package reconcile

import "fmt"

// ReconciliationError is a batch-level failure: the run aborts, the session
// is marked failed, and any items already produced are kept for diagnosis
// but never presented as a trustworthy result.
type ReconciliationError struct {
	SessionID string
	Stage     string // validate, match, persist
	Err       error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation %s failed at %s: %v", e.SessionID, e.Stage, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
