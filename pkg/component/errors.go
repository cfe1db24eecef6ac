package component

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel for a component name that no source file or
// registration maps to. Callers should test with errors.Is.
var ErrNotFound = errors.New("component not found")

// NotFoundError reports which component name could not be resolved.
// It matches ErrNotFound under errors.Is.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("component %q not found", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// CompileError reports that a component's source was found but could not be
// turned into a renderable component. It wraps the underlying cause, which
// is reachable through errors.Unwrap / errors.As.
//
// A CompileError is deliberately distinct from ErrNotFound so that callers
// can degrade differently: a missing component is a caller mistake, a broken
// one is a content bug.
type CompileError struct {
	Name string
	Path string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("component %q (%s): compilation failed: %v", e.Name, e.Path, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
