package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // program construction
	PhaseRegister Phase = "register" // function/class registration
	PhaseExec     Phase = "exec"     // bytecode execution
	PhaseCodec    Phase = "codec"    // UTF-8/UTF-32 conversion
	PhaseAlloc    Phase = "alloc"    // heap pool operations
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindOutOfRange   Kind = "out_of_range"
	KindAllocation   Kind = "allocation"
	KindNotFound     Kind = "not_found"
	KindSealed       Kind = "sealed"
	KindUnsealed     Kind = "unsealed"
	KindInvalidUTF8  Kind = "invalid_utf8"
	KindOverflow     Kind = "overflow"
	KindRegistration Kind = "registration"
	KindCancelled    Kind = "cancelled"
	KindRaised       Kind = "raised"
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Func   string
	Op     string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Func != "" {
		b.WriteString(" in ")
		b.WriteString(e.Func)
	}

	if e.Op != "" {
		b.WriteString(" during ")
		b.WriteString(e.Op)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Func sets the function name the error occurred in
func (b *Builder) Func(name string) *Builder {
	b.err.Func = name
	return b
}

// Op sets the operation being executed
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// OutOfRange creates an out of range error
func OutOfRange(phase Phase, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfRange,
		Detail: fmt.Sprintf("index %d out of range (length %d)", index, length),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, units int64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("pool budget exhausted allocating %d units", units),
	}
}

// NotFound creates a not found error
func NotFound(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: what,
	}
}

// Sealed reports a mutation attempted on a sealed program
func Sealed(op string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindSealed,
		Op:     op,
		Detail: "program is sealed",
	}
}

// Unsealed reports execution attempted on an unsealed program
func Unsealed(op string) *Error {
	return &Error{
		Phase:  PhaseExec,
		Kind:   KindUnsealed,
		Op:     op,
		Detail: "program is not sealed",
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseCodec,
		Kind:   KindInvalidUTF8,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// Load wraps an error from program loading
func Load(op string, cause error) *Error {
	return &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidInput,
		Op:    op,
		Cause: cause,
	}
}

// Raised carries a runtime-raised error that reached the embedder with
// no handler frame left to catch it.
type Raised struct {
	ErrorKind string // type_error, math_error, index_error, out_of_memory_error, ...
	Message   string
	Func      string
}

// Error implements the error interface
func (e *Raised) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("[exec] uncaught %s in %s: %s", e.ErrorKind, e.Func, e.Message)
	}
	return fmt.Sprintf("[exec] uncaught %s: %s", e.ErrorKind, e.Message)
}

// Is reports whether target is a Raised error of the same kind
func (e *Raised) Is(target error) bool {
	if t, ok := target.(*Raised); ok {
		return e.ErrorKind == t.ErrorKind
	}
	return false
}
