package access

import (
	"errors"
	"fmt"
)

// ErrToolUnavailable means the source tooling cannot be located at all. It is
// the only condition that aborts a migration before any table work.
var ErrToolUnavailable = errors.New("source database tool unavailable")

// ErrSchemaUnavailable means no parseable column rows came back for a table,
// typically because the object is a view or saved query. Callers skip the
// table and continue.
var ErrSchemaUnavailable = errors.New("schema unavailable")

// ToolTimeoutError is raised when a tool invocation exceeds its deadline.
// Distinct from ToolFailureError because a stalled console is worth retrying.
type ToolTimeoutError struct {
	Tool string
	Err  error
}

func (e *ToolTimeoutError) Error() string {
	return fmt.Sprintf("tool timeout: %s: %v", e.Tool, e.Err)
}

func (e *ToolTimeoutError) Unwrap() error {
	return e.Err
}

// ToolFailureError is a tool invocation that could not be started or produced
// no usable output.
type ToolFailureError struct {
	Tool string
	Err  error
}

func (e *ToolFailureError) Error() string {
	return fmt.Sprintf("tool failure: %s: %v", e.Tool, e.Err)
}

func (e *ToolFailureError) Unwrap() error {
	return e.Err
}
