package tool

import (
	"context"
	"errors"
	"fmt"
)

// #region types
// Query is the input to a tool call.
type Query struct {
	Content string
	Context map[string]any
}

// Result is what a tool returns. Raw holds the backend's native response.
type Result struct {
	Content  string
	Raw      any
	Metadata map[string]any
}

// #endregion types

// #region tool-interface
// Tool is an external capability the loop can ask questions of.
type Tool interface {
	Name() string
	Call(ctx context.Context, q Query) (Result, error)
}

// #endregion tool-interface

// #region errors
// ErrToolFailure matches any error returned by a failed tool call.
var ErrToolFailure = errors.New("tool failure")

// CallError wraps the underlying error of a failed call with the tool's name.
type CallError struct {
	Tool string
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Is reports ErrToolFailure as a match so callers need not know the concrete type.
func (e *CallError) Is(target error) bool {
	return target == ErrToolFailure
}

// #endregion errors
