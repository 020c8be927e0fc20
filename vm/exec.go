package vm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/sable-runtime/errors"
)

// stepStatus is a handler's verdict: keep dispatching, the root frame
// returned, or the thread failed (t.failure set).
type stepStatus uint8

const (
	stepNext stepStatus = iota
	stepReturned
	stepFailed
)

// handlers is the per-opcode address table. Handlers advance the
// instruction pointer themselves and control returns through the
// table; there is no central decode. A nil entry for a reachable
// opcode is an implementation bug and aborts the thread.
var handlers [opCount]func(*Thread, Instr) stepStatus

func init() {
	handlers[OpStackGrow] = execStackGrow
	handlers[OpSetConst] = execSetConst
	handlers[OpCopy] = execCopy
	handlers[OpGetGlobal] = execGetGlobal
	handlers[OpSetGlobal] = execSetGlobal
	handlers[OpJump] = execJump
	handlers[OpCondJump] = execCondJump
	handlers[OpPushCatch] = execPushCatch
	handlers[OpPopCatch] = execPopCatch
	handlers[OpCall] = execCall
	handlers[OpReturn] = execReturn
	handlers[OpBinOp] = execBinOp
	handlers[OpUnOp] = execUnOp
}

// dispatch runs the thread until return, failure, or cancellation.
// An instruction is the atomic unit: cancellation is only observed
// between instructions.
func (t *Thread) dispatch(ctx context.Context) {
	for {
		if err := ctx.Err(); err != nil {
			t.unwindAll()
			t.failure = errors.New(errors.PhaseExec, errors.KindCancelled).
				Op("dispatch").
				Cause(err).
				Build()
			return
		}
		in := t.fn.Instr[t.pc]
		op := in.op()
		if int(op) >= int(opCount) {
			t.fatalf("opcode %d out of table range", op)
		}
		h := handlers[op]
		if h == nil {
			t.fatalf("opcode %s missing in handler table", op)
		}
		if t.trace {
			t.traceInstr(in)
		}
		switch h(t, in) {
		case stepNext:
		case stepReturned, stepFailed:
			return
		}
	}
}

func (t *Thread) traceInstr(in Instr) {
	Logger().Debug("exec",
		zap.String("func", t.prog.symbols.FuncName(t.funcIdx)),
		zap.Int("pc", t.pc),
		zap.Stringer("instr", in),
	)
}

// fatalf reports an implementation bug: unknown opcode, a hole in the
// handler table, an unimplemented operator subtype. Not recoverable;
// the thread aborts with a diagnostic.
func (t *Thread) fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Logger().Error("vm fatal",
		zap.String("func", t.prog.symbols.FuncName(t.funcIdx)),
		zap.Int("pc", t.pc),
		zap.String("bug", msg),
	)
	panic("vm: " + msg)
}

// raise constructs an error value and hands control to the nearest
// handler frame, unwinding and releasing everything in between. With
// no handler installed the thread terminates and the error surfaces
// to the embedder.
func (t *Thread) raise(kind ErrorKind, format string, args ...any) stepStatus {
	msg := fmt.Sprintf(format, args...)
	if len(t.catches) == 0 {
		name := t.prog.symbols.FuncName(t.funcIdx)
		t.unwindAll()
		t.failure = &errors.Raised{
			ErrorKind: kind.String(),
			Message:   msg,
			Func:      name,
		}
		return stepFailed
	}

	c := t.catches[len(t.catches)-1]
	t.catches = t.catches[:len(t.catches)-1]

	// unwind frames above the handler's frame
	t.frames = t.frames[:c.frameDepth]
	top := &t.frames[len(t.frames)-1]
	t.shrinkTo(top.top)
	t.bottom = top.bottom
	t.funcIdx = top.funcIdx
	t.fn = t.prog.FuncAt(top.funcIdx)

	errSlot := &t.stack[c.bottom+c.errSlot]
	t.pool.releaseValue(errSlot)
	*errSlot = ErrorVal(kind, msg)
	t.pc = c.target
	return stepNext
}

// raiseOOM is the shared allocation-failure path.
func (t *Thread) raiseOOM() stepStatus {
	return t.raise(OutOfMemoryError, "out of memory")
}

// Plain handlers

func execStackGrow(t *Thread, in Instr) stepStatus {
	i := in.(StackGrow)
	if i.Size < 0 {
		t.fatalf("stackgrow by negative size %d", i.Size)
	}
	cur := &t.frames[len(t.frames)-1]
	cur.top += i.Size
	t.growTo(cur.top)
	t.pc++
	return stepNext
}

func execSetConst(t *Thread, in Instr) stepStatus {
	i := in.(SetConst)
	dst := t.slot(i.Slot)
	t.pool.releaseValue(dst)
	*dst = i.Value
	t.pc++
	return stepNext
}

func execCopy(t *Thread, in Instr) stepStatus {
	i := in.(Copy)
	if i.To != i.From {
		src := *t.slot(i.From)
		dst := t.slot(i.To)
		t.pool.releaseValue(dst)
		*dst = src
		addRef(dst)
	}
	t.pc++
	return stepNext
}

func execGetGlobal(t *Thread, in Instr) stepStatus {
	i := in.(GetGlobal)
	if i.Global < 0 || i.Global >= len(t.prog.globals) {
		t.fatalf("global %d out of table range", i.Global)
	}
	src := t.prog.globals[i.Global]
	dst := t.slot(i.Slot)
	t.pool.releaseValue(dst)
	*dst = src
	addRef(dst)
	t.pc++
	return stepNext
}

func execSetGlobal(t *Thread, in Instr) stepStatus {
	i := in.(SetGlobal)
	if i.Global < 0 || i.Global >= len(t.prog.globals) {
		t.fatalf("global %d out of table range", i.Global)
	}
	src := *t.slot(i.Slot)
	g := &t.prog.globals[i.Global]
	t.pool.releaseValue(g)
	*g = src
	addRef(g)
	t.pc++
	return stepNext
}

func execJump(t *Thread, in Instr) stepStatus {
	t.pc = in.(Jump).Target
	return stepNext
}

func execCondJump(t *Thread, in Instr) stepStatus {
	i := in.(CondJump)
	b, ok := condValue(t.slot(i.Slot))
	if !ok {
		return t.raise(TypeError, "this value type cannot be evaluated as conditional")
	}
	if b == i.IfTrue {
		t.pc = i.Target
	} else {
		t.pc++
	}
	return stepNext
}

func execPushCatch(t *Thread, in Instr) stepStatus {
	i := in.(PushCatch)
	t.catches = append(t.catches, catchFrame{
		target:     i.Target,
		errSlot:    i.ErrSlot,
		frameDepth: len(t.frames),
		bottom:     t.bottom,
	})
	t.pc++
	return stepNext
}

func execPopCatch(t *Thread, in Instr) stepStatus {
	if len(t.catches) == 0 {
		t.fatalf("popcatch with no handler installed")
	}
	t.catches = t.catches[:len(t.catches)-1]
	t.pc++
	return stepNext
}

func execCall(t *Thread, in Instr) stepStatus {
	i := in.(Call)
	callee := t.prog.FuncAt(i.Func)
	if callee == nil {
		t.fatalf("call to function %d outside table", i.Func)
	}
	if i.ArgCount != callee.ArgCount {
		return t.raise(TypeError,
			"function expects %d arguments, got %d", callee.ArgCount, i.ArgCount)
	}

	newBottom := t.bottom + i.ArgBottom
	calleeTop := newBottom + callee.StackSlotsUsed
	t.growTo(calleeTop)

	if callee.IsNative {
		ret := &t.stack[newBottom+callee.ArgCount]
		t.pool.releaseValue(ret)
		ok := callee.Native(t, newBottom)
		if !ok {
			kind, msg := t.takePending()
			return t.raise(kind, "%s", msg)
		}
		result := *ret
		*ret = Value{}
		t.shrinkTo(t.frames[len(t.frames)-1].top)
		dst := t.slot(i.To)
		t.pool.releaseValue(dst)
		*dst = result
		t.pc++
		return stepNext
	}

	// nest record sits after the arguments, before locals
	nest := &t.stack[newBottom+callee.ArgCount]
	t.pool.releaseValue(nest)
	*nest = nestRecord(t.bottom)

	t.frames = append(t.frames, frame{
		funcIdx:    i.Func,
		bottom:     newBottom,
		top:        calleeTop,
		retPC:      t.pc + 1,
		retSlotAbs: t.bottom + i.To,
	})
	t.bottom = newBottom
	t.funcIdx = i.Func
	t.fn = callee
	t.pc = 0
	return stepNext
}

func execReturn(t *Thread, in Instr) stepStatus {
	i := in.(Return)

	// move the result out of the dying frame without touching counts
	result := *t.slot(i.Slot)
	*t.slot(i.Slot) = Value{}

	done := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]

	// drop handlers installed inside the finished frame
	for len(t.catches) > 0 && t.catches[len(t.catches)-1].frameDepth > len(t.frames) {
		t.catches = t.catches[:len(t.catches)-1]
	}

	if len(t.frames) == 0 {
		t.shrinkTo(0)
		t.retVal = result
		return stepReturned
	}

	caller := &t.frames[len(t.frames)-1]
	ownerFn := t.prog.FuncAt(caller.funcIdx)
	t.shrinkTo(caller.top)
	t.bottom = caller.bottom
	t.funcIdx = caller.funcIdx
	t.fn = ownerFn
	t.pc = done.retPC

	dst := &t.stack[done.retSlotAbs]
	t.pool.releaseValue(dst)
	*dst = result
	return stepNext
}

func execUnOp(t *Thread, in Instr) stepStatus {
	i := in.(UnOp)

	copyAtEnd := false
	var tmpBuf Value
	tmp := t.slot(i.To)
	if i.To == i.Arg {
		copyAtEnd = true
		tmp = &tmpBuf
	} else {
		t.pool.releaseValue(tmp)
	}

	v1 := t.slot(i.Arg)

	switch i.Op {
	case UnOpBoolNot:
		b, ok := condValue(v1)
		if !ok {
			return t.raise(TypeError, "this value type cannot be evaluated as conditional")
		}
		*tmp = Bool(!b)
	default:
		t.fatalf("unop %s not implemented", i.Op)
	}

	if copyAtEnd {
		dst := t.slot(i.To)
		t.pool.releaseValue(dst)
		*dst = *tmp
	}
	t.pc++
	return stepNext
}
