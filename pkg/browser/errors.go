package browser

import "fmt"

// ErrorCategory groups automation failures by how the executor reacts to
// them.
type ErrorCategory string

// Error categories.
const (
	CategoryTarget     ErrorCategory = "target"
	CategoryTimeout    ErrorCategory = "timeout"
	CategoryTransient  ErrorCategory = "transient"
	CategoryNavigation ErrorCategory = "navigation"
)

// AutomationError is a structured failure with category and machine-readable
// code.
type AutomationError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *AutomationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AutomationError) Unwrap() error {
	return e.Cause
}

// Is matches on code, so wrapped copies still compare equal to the
// predefined values.
func (e *AutomationError) Is(target error) bool {
	t, ok := target.(*AutomationError)
	return ok && t.Code == e.Code
}

// WithCause returns a copy of the error carrying the given cause.
func (e *AutomationError) WithCause(cause error) *AutomationError {
	return &AutomationError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message.
func (e *AutomationError) WithMessage(msg string) *AutomationError {
	return &AutomationError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Cause:    e.Cause,
	}
}

// Predefined errors.
var (
	// ErrMissingTarget: a targeted action carries neither a selector nor a
	// role/name pair. Raised before any interaction is attempted.
	ErrMissingTarget = &AutomationError{
		Category: CategoryTarget,
		Code:     "missing_target",
		Message:  "action requires a target but none was provided",
	}

	// ErrActionTimeout: a single action's timeout elapsed.
	ErrActionTimeout = &AutomationError{
		Category: CategoryTimeout,
		Code:     "action_timeout",
		Message:  "action timed out",
	}

	// ErrNavigation: page navigation failed.
	ErrNavigation = &AutomationError{
		Category: CategoryNavigation,
		Code:     "navigation_failed",
		Message:  "navigation failed",
	}

	// ErrTransientUI: a click stayed unclickable through its whole recovery
	// budget. Contained inside the click recovery until the budget is
	// exhausted.
	ErrTransientUI = &AutomationError{
		Category: CategoryTransient,
		Code:     "transient_ui",
		Message:  "element remained unclickable after all recovery attempts",
	}
)
