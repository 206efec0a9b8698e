package pipeline

import "fmt"

// EligibilityError is a fatal failure to read ledger state. The task aborts
// before any side effect. Distinct from a clean rule rejection, which is a
// decision, not an error.
type EligibilityError struct {
	Err error
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("eligibility check failed: %v", e.Err)
}

func (e *EligibilityError) Unwrap() error {
	return e.Err
}

// VerificationError is fatal to the task but not to the process. No
// settlement or receipt is attempted after it.
type VerificationError struct {
	Err error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed: %v", e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}
