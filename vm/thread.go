package vm

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/wippyai/sable-runtime/errors"
	"github.com/wippyai/sable-runtime/utf32"
)

// frame records one active function invocation. Frames overlap on the
// stack: a callee's argument slots are the tail of its caller's frame.
type frame struct {
	funcIdx    int
	bottom     int
	top        int // one past the frame's last slot; grows with stackgrow
	retPC      int // caller resumes here
	retSlotAbs int // absolute stack index receiving the result
}

// catchFrame is one installed error handler.
type catchFrame struct {
	target     int // handler address in the owning function
	errSlot    int // frame-relative slot receiving the error value
	frameDepth int
	bottom     int
}

// Thread is a single-threaded interpreter: one evaluation stack, one
// instruction pointer, one heap pool. A program may host several
// threads, each with its own pool; only the program tables are shared
// and they are read-only once sealed.
type Thread struct {
	prog *Program
	pool *Pool

	stack   []Value
	bottom  int
	frames  []frame
	catches []catchFrame

	fn      *Func
	funcIdx int
	pc      int

	// pending raise set by a native callback before returning failure
	pending *ErrorPayload

	retVal  Value
	failure error

	trace bool
}

// NewThread creates a thread over a sealed program with an unlimited
// pool.
func NewThread(p *Program) (*Thread, error) {
	return NewThreadWithPool(p, NewPool())
}

// NewThreadWithPool creates a thread owning the given pool. The pool
// must not be shared with another thread.
func NewThreadWithPool(p *Program, pool *Pool) (*Thread, error) {
	if !p.Sealed() {
		return nil, errors.Unsealed("NewThread")
	}
	return &Thread{prog: p, pool: pool}, nil
}

// SetTrace enables per-instruction debug logging through the package
// logger.
func (t *Thread) SetTrace(on bool) { t.trace = on }

// Pool returns the thread's heap pool.
func (t *Thread) Pool() *Pool { return t.pool }

// Program returns the program this thread executes.
func (t *Thread) Program() *Program { return t.prog }

// slot returns the frame-relative slot k of the current frame.
func (t *Thread) slot(k int) *Value {
	return &t.stack[t.bottom+k]
}

// Run executes function funcIdx to completion. Arguments transfer
// ownership into the frame; the returned value carries one external
// reference which the caller releases with ReleaseValue.
//
// Cancellation is observed between instructions only: on ctx
// cancellation the stack unwinds, every live reference is released,
// and ctx's error is reported wrapped as cancelled.
func (t *Thread) Run(ctx context.Context, funcIdx int, args ...Value) (Value, error) {
	fn := t.prog.FuncAt(funcIdx)
	if fn == nil {
		return Value{}, errors.NotFound(errors.PhaseExec, fmt.Sprintf("function %d", funcIdx))
	}
	if len(args) != fn.ArgCount {
		return Value{}, errors.New(errors.PhaseExec, errors.KindInvalidInput).
			Func(t.prog.symbols.FuncName(funcIdx)).
			Detail("have %d arguments, function takes %d", len(args), fn.ArgCount).
			Build()
	}
	if len(t.frames) != 0 {
		return Value{}, errors.InvalidInput(errors.PhaseExec, "thread is already running")
	}

	t.retVal = Value{}
	t.failure = nil

	// root frame
	t.stack = t.stack[:0]
	for i := 0; i < fn.StackSlotsUsed; i++ {
		t.stack = append(t.stack, Value{})
	}
	for i := range args {
		t.stack[i] = args[i]
	}
	t.bottom = 0
	t.funcIdx = funcIdx
	t.fn = fn
	t.pc = 0
	t.frames = append(t.frames[:0], frame{
		funcIdx:    funcIdx,
		bottom:     0,
		top:        fn.StackSlotsUsed,
		retPC:      -1,
		retSlotAbs: -1,
	})
	t.catches = t.catches[:0]

	if fn.IsNative {
		if fn.ArgCount < fn.StackSlotsUsed {
			t.stack[fn.ArgCount] = Value{}
		}
		ok := fn.Native(t, 0)
		if !ok {
			kind, msg := t.takePending()
			t.unwindAll()
			return Value{}, &errors.Raised{
				ErrorKind: kind.String(),
				Message:   msg,
				Func:      t.prog.symbols.FuncName(funcIdx),
			}
		}
		ret := t.stack[fn.ArgCount]
		t.stack[fn.ArgCount] = Value{}
		t.unwindAll()
		return ret, nil
	}

	t.dispatch(ctx)

	if t.failure != nil {
		return Value{}, t.failure
	}
	ret := t.retVal
	t.retVal = Value{}
	return ret, nil
}

// takePending consumes the error a native callback staged via
// SetRaise, defaulting to value-error.
func (t *Thread) takePending() (ErrorKind, string) {
	if t.pending != nil {
		p := t.pending
		t.pending = nil
		return p.Kind, p.Message
	}
	return ValueError, "native function failed"
}

// SetRaise stages the error a failing native callback wants raised.
func (t *Thread) SetRaise(kind ErrorKind, format string, args ...any) {
	t.pending = &ErrorPayload{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Close releases anything the thread still holds and verifies the
// pool reclaimed every object.
func (t *Thread) Close() error {
	t.unwindAll()
	var err error
	if t.retVal.kind != KindInvalid {
		t.pool.releaseValue(&t.retVal)
	}
	err = multierr.Append(err, t.pool.Close())
	return err
}

// ReleaseValue drops a reference handed out by Run or built through
// the New* helpers.
func (t *Thread) ReleaseValue(v *Value) {
	t.pool.releaseValue(v)
}

// unwindAll releases every live stack slot and clears all frames.
// Every exit path funnels through here or through frame-exact unwind
// in raise; no path skips the release.
func (t *Thread) unwindAll() {
	for i := range t.stack {
		t.pool.releaseValue(&t.stack[i])
	}
	t.stack = t.stack[:0]
	t.frames = t.frames[:0]
	t.catches = t.catches[:0]
	t.bottom = 0
	t.fn = nil
	t.pc = 0
}

// shrinkTo releases slots from newTop upward and truncates the stack.
func (t *Thread) shrinkTo(newTop int) {
	for i := newTop; i < len(t.stack); i++ {
		t.pool.releaseValue(&t.stack[i])
	}
	t.stack = t.stack[:newTop]
}

// growTo extends the stack with zeroed slots up to newTop.
func (t *Thread) growTo(newTop int) {
	for len(t.stack) < newTop {
		t.stack = append(t.stack, Value{})
	}
}

// Native ABI accessors.

// NativeArg returns a borrowed view of argument i of a native
// invocation whose frame starts at stackBottom. The native must not
// release it.
func (t *Thread) NativeArg(stackBottom, i int) *Value {
	return &t.stack[stackBottom+i]
}

// SetNativeResult stores v into the invocation's return slot (slot
// argCount of the native frame), taking ownership of v.
func (t *Thread) SetNativeResult(stackBottom, argCount int, v Value) {
	slot := &t.stack[stackBottom+argCount]
	t.pool.releaseValue(slot)
	*slot = v
}

// Embedder value constructors. Values built here carry one external
// reference; hand them to Run (ownership transfers) or release them
// with ReleaseValue.

// NewString builds a string value from a Go string. Invalid UTF-8
// bytes are surrogate-escaped so arbitrary byte strings round-trip.
func (t *Thread) NewString(s string) (Value, error) {
	cps, err := utf32.Decode([]byte(s), utf32.SurrogateEscape)
	if err != nil {
		return Value{}, err
	}
	return t.NewStringFromRunes(cps)
}

// NewStringFromRunes builds a string value from a codepoint sequence.
func (t *Thread) NewStringFromRunes(cps []rune) (Value, error) {
	v, ok := newStringValue(t.pool, cps)
	if !ok {
		return Value{}, errors.AllocationFailed(errors.PhaseAlloc, int64(len(cps)))
	}
	return v, nil
}

// NewList builds a boxed list holding items. The list takes its own
// references; the caller keeps ownership of the passed values.
func (t *Thread) NewList(items ...Value) (Value, error) {
	o := t.pool.Alloc(classList)
	if o == nil {
		return Value{}, errors.AllocationFailed(errors.PhaseAlloc, 1)
	}
	for _, it := range items {
		o.list.Append(it)
	}
	o.externalRefs = 1
	return boxed(o), nil
}

// NewMap builds an empty boxed map.
func (t *Thread) NewMap() (Value, error) {
	o := t.pool.Alloc(classMap)
	if o == nil {
		return Value{}, errors.AllocationFailed(errors.PhaseAlloc, 1)
	}
	o.externalRefs = 1
	return boxed(o), nil
}

// MapSet inserts key -> val into a boxed map value. The map takes its
// own references.
func (t *Thread) MapSet(m Value, key, val Value) error {
	if m.kind != KindBoxed || m.obj.kind != ObjMap {
		return errors.InvalidInput(errors.PhaseExec, "value is not a map")
	}
	m.obj.m.set(t.pool, key, val)
	return nil
}
