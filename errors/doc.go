// Package errors provides structured error types for the sable-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: function name, operation, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseExec, errors.KindOutOfRange).
//		Func("main").
//		Op("index").
//		Detail("slot %d outside frame", 9).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfRange(errors.PhaseExec, 9, 4)
//	err := errors.Sealed("RegisterFunction")
//
// Runtime-raised errors (type-error, math-error, index-error,
// out-of-memory-error) that escape every handler frame reach the
// embedder as *Raised, which carries the raised kind and message.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
