package comp

import (
	"context"
	"errors"
	"fmt"

	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// CompletionError reports a class that could not be completed. The call
// site that triggered the completion turns it into a diagnostic.
type CompletionError = symbols.CompletionError

// FatalError aborts the whole compilation. It is raised when java.lang is
// missing and when no constructor of the repair exception can be found.
type FatalError struct {
	Key  string
	Args []any
	msg  string
}

func (e *FatalError) Error() string {
	if e.msg != "" {
		return "fatal error: " + e.msg
	}
	return "fatal error: " + e.Key
}

func newFatalError(messages *diag.Messages, key string, args ...any) *FatalError {
	return &FatalError{Key: key, Args: args, msg: messages.Render(key, args...)}
}

// BreakError unwinds member entry when the driver abandons the current
// attempt.
type BreakError struct {
	Cause error
}

func (e *BreakError) Error() string { return fmt.Sprintf("compilation abandoned: %v", e.Cause) }

func (e *BreakError) Unwrap() error { return e.Cause }

// IsAbort reports whether err stops the compilation rather than a single
// declaration.
func IsAbort(err error) bool {
	var fatal *FatalError
	var brk *BreakError
	return errors.As(err, &fatal) || errors.As(err, &brk)
}

// checkBreak turns a cancelled context into a BreakError.
func checkBreak(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &BreakError{Cause: err}
	}
	return nil
}

// completionError reports a failed completion at n.
func (s *Session) completionError(n tree.Node, err *CompletionError) {
	reason := "class file not found"
	if err.Err != nil {
		reason = err.Err.Error()
	}
	s.log.ErrorWithFlags(diag.FlagRecoverable, n, diag.KeyCantAccess, err.Name, reason)
}

// handleCompletion converts completion failures into diagnostics at n and
// passes aborts through. ok is false when the symbol could not be completed.
func (s *Session) handleCompletion(n tree.Node, err error) (ok bool, abort error) {
	if err == nil {
		return true, nil
	}
	var cerr *CompletionError
	if errors.As(err, &cerr) {
		s.completionError(n, cerr)
		return false, nil
	}
	return false, err
}

// completeAt completes id, reporting a completion failure at n.
func (s *Session) completeAt(n tree.Node, id symbols.SymbolID) (bool, error) {
	return s.handleCompletion(n, s.table.Complete(id))
}
