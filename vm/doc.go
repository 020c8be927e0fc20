// Package vm implements the bytecode virtual machine: tagged values,
// a reference-counted pool-allocated heap, container values, and the
// threaded instruction dispatch core.
//
// # Value model
//
// A value slot is a tagged record. Immediate kinds (int, float, bool,
// none, function references, nest records) carry their payload
// inline. Strings have three representations: inline short strings of
// up to ShortStrCap codepoints, const-prealloc strings pointing into
// the program image, and boxed heap strings. Only boxed values
// participate in reference counting.
//
// Heap objects carry two counts: external references from stack and
// global slots, internal references from other heap objects. An
// object is destroyed when both reach zero. Reference cycles (a list
// holding itself) are therefore never reclaimed; the runtime has no
// cycle collector and programs that build cycles leak them.
//
// # Map key semantics
//
// Map lookup hashes int and float keys by numeric value, so {1: x}
// and {1.0: y} occupy one entry. String keys of any representation
// hash and compare by codepoint sequence. Every other boxed key —
// lists, maps — hashes and compares by object identity: two distinct
// lists with equal contents are distinct keys, even though the ==
// operator reports them equal. The asymmetry is intentional; identity
// hashing keeps container keys O(1) regardless of size.
//
// # Dispatch
//
// Execution threads through a per-opcode handler table: each handler
// advances the instruction pointer itself and transfers back through
// the table, with no central decode loop. Unknown opcodes, holes in
// the table, and unimplemented operator subtypes (notably the
// reserved notequal binop and negate unop) are implementation bugs:
// they log a diagnostic and abort the thread via panic rather than
// raising a catchable error.
//
// # Errors
//
// Runtime errors (type-error, math-error, index-error,
// out-of-memory-error) are values: raising unwinds the stack to the
// nearest handler frame, releasing every reference in between, and
// resumes at the handler with the error value stored in its
// designated slot. An unhandled raise terminates the thread and
// surfaces as *errors.Raised.
//
// # Threads and pools
//
// A Thread is strictly single-threaded and owns its evaluation stack
// and heap pool. Programs are sealed before execution and then
// read-only, so several threads may share one program; the global
// slots are the only mutable shared state and require external
// coordination. Cancellation via context is observed only between
// instructions and releases every live reference on the way out.
package vm
