package errclass

import "fmt"

// Error is a stable, machine-readable error class.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// WithMessage returns a new Error with the same Code but a specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

// WithMessagef returns a new Error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes.
var (
	ErrNotFound               = &Error{Code: "E_NOT_FOUND"}
	ErrContainerCorrupt       = &Error{Code: "E_CONTAINER_CORRUPT"}
	ErrTreeInvalid            = &Error{Code: "E_TREE_INVALID"}
	ErrConfigInvalid          = &Error{Code: "E_CONFIG_INVALID"}
	ErrAlreadyLocked          = &Error{Code: "E_ALREADY_LOCKED"}
	ErrNotLockOwner           = &Error{Code: "E_NOT_LOCK_OWNER"}
	ErrLockBackendUnavailable = &Error{Code: "E_LOCK_BACKEND_UNAVAILABLE"}
)
