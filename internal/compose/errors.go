package compose

import (
	"errors"
	"fmt"
)

// Error codes for the recoverable conditions the orchestrator decides on
// per section. None of these abort a whole run; only template-unreadable
// conditions are fatal and those surface as plain errors from the caller's
// loading layer.
const (
	CodeHeadingNotFound     = "heading_not_found"
	CodeEmptyExtraction     = "empty_extraction"
	CodeSanitizationFailure = "sanitization_failure"
	CodeInvariantViolation  = "invariant_violation"
)

type Error struct {
	Code    string
	Section string
	Message string
}

func (e *Error) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Section, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, section, format string, args ...any) *Error {
	return &Error{Code: code, Section: section, Message: fmt.Sprintf(format, args...)}
}

// HasCode reports whether err is a compose error carrying the given code.
func HasCode(err error, code string) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == code
}
