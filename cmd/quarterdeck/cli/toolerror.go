// Copyright 2026 The Quarterdeck Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command failures so the top-level error
// printer can choose an exit status and decide whether an actionable
// hint applies, without parsing error message text.
type ErrorCategory string

const (
	// CategoryValidation indicates the caller provided invalid input:
	// missing arguments, conflicting flags, unparseable values. The
	// caller should fix the invocation and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a referenced resource does not exist:
	// unknown session ID, missing socket path. Retrying with the same
	// parameters will not help.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden indicates the caller lacks permission for the
	// requested operation, usually socket file ownership or mode.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryUnavailable indicates the daemon could not be reached:
	// stale socket, connection refused, dropped connection. The daemon
	// may need to be started or restarted.
	CategoryUnavailable ErrorCategory = "unavailable"

	// CategoryInternal indicates an unexpected error: bugs, I/O
	// failures, malformed responses. The caller should report the
	// error rather than retry.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by CLI commands. The
// category selects the process exit status (validation errors exit 2,
// everything else 1) and the optional hint is appended to the error
// message after a blank line.
//
// ToolError wraps an inner error, preserving the full error chain for
// errors.Is and errors.As. Use the category-specific constructors
// (Validation, NotFound, etc.) rather than constructing ToolError
// directly.
type ToolError struct {
	// Category classifies the error for exit-status selection.
	Category ErrorCategory

	// Hint, when non-empty, is an actionable suggestion shown after
	// the error message ("is quarterdeck-daemon running?").
	Hint string

	// Err is the underlying error with the human-readable message.
	Err error
}

// Error returns the underlying error message, followed by the hint
// after a blank line when one is set. The category is not included in
// the text.
func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

// Unwrap returns the underlying error, allowing errors.Is and
// errors.As to walk the full chain through the ToolError wrapper.
func (e *ToolError) Unwrap() error { return e.Err }

// WithHint attaches an actionable suggestion to the error and returns
// the same error for use in return statements.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: a referenced resource does not exist.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Forbidden creates a forbidden error: the caller lacks permission.
func Forbidden(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

// Unavailable creates an unavailable error: the daemon could not be reached.
func Unavailable(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryUnavailable, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure, bug, or I/O error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
