// Package diag formats the three kinds of problem the SSA middle end can
// raise: a CompileError a user caused and can fix (a failed static_assert,
// an out-of-range array index known at compile time), an SsaReport that
// merely informs without stopping compilation, and an ICE — an internal
// compiler error — for anything that should have been impossible. Styled
// after internal/errors.ErrorReporter's Rust-like output, generalized from
// AST source positions to the SSA ir.Location call-stack frames a pass
// failure is blamed on.
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	pkgerrors "github.com/pkg/errors"

	"kanso/internal/ssa/ir"
)

// Level mirrors internal/errors.ErrorLevel for the subset of severities
// the SSA pipeline ever reports.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelNote    Level = "note"
)

// CompileError is a user-facing failure raised by the SSA pipeline
// itself rather than by front-end semantic analysis: a static
// assertion that evaluated false, an intrinsic given a non-constant
// argument it required, a range check that a constant-folding pass
// proved will always fail.
type CompileError struct {
	Level   Level
	Message string
	Where   []ir.Location // root-to-leaf call stack, innermost last
}

func (e *CompileError) Error() string {
	if len(e.Where) == 0 {
		return fmt.Sprintf("%s: %s", e.Level, e.Message)
	}
	loc := e.Where[len(e.Where)-1]
	return fmt.Sprintf("%s: %s\n  --> %s:%d:%d", e.Level, e.Message, loc.File, loc.Line, loc.Col)
}

// Format renders e the way internal/errors.ErrorReporter renders a
// CompilerError: a colored level/message header followed by a
// --> file:line:col pointer and, when the call stack has more than one
// frame, one line per outer frame beneath it, marked with a dimmed "...".
func (e *CompileError) Format() string {
	var b strings.Builder
	levelColor := color.New(color.FgRed, color.Bold).SprintFunc()
	if e.Level == LevelWarning {
		levelColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	dim := color.New(color.Faint).SprintFunc()

	b.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(e.Level)), e.Message))
	for i := len(e.Where) - 1; i >= 0; i-- {
		loc := e.Where[i]
		arrow := "-->"
		if i != len(e.Where)-1 {
			arrow = "..."
		}
		b.WriteString(fmt.Sprintf("  %s %s:%d:%d\n", dim(arrow), loc.File, loc.Line, loc.Col))
	}
	return b.String()
}

// SsaReport is a non-fatal observation a pass wants surfaced without
// aborting compilation — e.g. a loop whose bound could not be proven
// constant and so was left for a later pass to handle, or a warning
// that an unconstrained block contains a constraint that will never be
// checked.
type SsaReport struct {
	Level   Level
	Message string
	Where   []ir.Location
}

func (r SsaReport) String() string {
	return fmt.Sprintf("%s: %s", r.Level, r.Message)
}

// ICE wraps a value recovered from a panic raised anywhere in the SSA
// pipeline, stamping it as an internal compiler error: a bug in this
// compiler, never something the user's program could have caused. The
// underlying pkg/errors stack trace is preserved so the recovering
// caller can log exactly where the panic originated.
type ICE struct {
	cause error
	Pass  string
}

// NewICE wraps a recovered panic value, capturing a stack trace at the
// point of recovery via pkg/errors.
func NewICE(pass string, recovered any) *ICE {
	var cause error
	switch v := recovered.(type) {
	case error:
		cause = pkgerrors.WithStack(v)
	default:
		cause = pkgerrors.Errorf("%v", v)
	}
	return &ICE{cause: cause, Pass: pass}
}

func (e *ICE) Error() string {
	return fmt.Sprintf("internal compiler error in pass %q: %v", e.Pass, e.cause)
}

func (e *ICE) Unwrap() error { return e.cause }

// StackTrace exposes the pkg/errors-captured frames, for callers that
// want to log a full trace rather than just the summary Error() gives.
func (e *ICE) StackTrace() pkgerrors.StackTrace {
	type tracer interface{ StackTrace() pkgerrors.StackTrace }
	if t, ok := e.cause.(tracer); ok {
		return t.StackTrace()
	}
	return nil
}
