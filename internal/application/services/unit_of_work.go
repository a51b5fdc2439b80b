package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Step is one write of a composite operation. Compensate undoes a completed Do and
// may be nil when the write cannot or need not be undone.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// UnitOfWork runs dependent writes against independent stores in order. When a step
// fails the completed steps are compensated in reverse order.
type UnitOfWork struct {
	steps []Step
}

// NewUnitOfWork creates an empty unit of work
func NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{}
}

// Add appends a step
func (u *UnitOfWork) Add(name string, do, compensate func(ctx context.Context) error) *UnitOfWork {
	u.steps = append(u.steps, Step{Name: name, Do: do, Compensate: compensate})
	return u
}

// Execute runs every step. The returned error is a *CompositeWriteError.
func (u *UnitOfWork) Execute(ctx context.Context) error {
	for i, step := range u.steps {
		err := step.Do(ctx)
		if err == nil {
			continue
		}

		failure := &CompositeWriteError{Step: step.Name, Cause: err}
		for j := i - 1; j >= 0; j-- {
			done := u.steps[j]
			if done.Compensate == nil {
				continue
			}
			// compensation must not be cut short by the request being cancelled
			if cerr := done.Compensate(context.WithoutCancel(ctx)); cerr != nil {
				failure.CompensationErrors = append(failure.CompensationErrors,
					fmt.Errorf("compensate %s: %w", done.Name, cerr))
			}
		}
		return failure
	}
	return nil
}

// CompositeWriteError reports a composite write that did not complete. Orphan names
// a record left behind when it could not be cleaned up.
type CompositeWriteError struct {
	Step               string
	Cause              error
	CompensationErrors []error
	Orphan             string
}

func (e *CompositeWriteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "composite write failed at %q: %v", e.Step, e.Cause)
	if len(e.CompensationErrors) > 0 {
		fmt.Fprintf(&b, " (compensation failed: %v)", errors.Join(e.CompensationErrors...))
	}
	if e.Orphan != "" {
		fmt.Fprintf(&b, " (orphaned %s)", e.Orphan)
	}
	return b.String()
}

func (e *CompositeWriteError) Unwrap() error {
	return e.Cause
}

// Compensated reports whether every completed step was rolled back
func (e *CompositeWriteError) Compensated() bool {
	return len(e.CompensationErrors) == 0 && e.Orphan == ""
}
