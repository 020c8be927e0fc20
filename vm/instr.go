package vm

import "fmt"

// Instr is one decoded instruction. Slot operands are frame-relative.
type Instr interface {
	op() Opcode
	fmt.Stringer
}

// StackGrow extends the current frame by Size zeroed slots.
type StackGrow struct {
	Size int
}

// SetConst writes a constant into Slot.
type SetConst struct {
	Slot  int
	Value Value
}

// Copy duplicates From into To, taking a new reference.
type Copy struct {
	To   int
	From int
}

// GetGlobal reads global Global into Slot.
type GetGlobal struct {
	Slot   int
	Global int
}

// SetGlobal writes Slot into global Global.
type SetGlobal struct {
	Global int
	Slot   int
}

// Jump transfers to instruction index Target.
type Jump struct {
	Target int
}

// CondJump transfers to Target when Slot's conditional value matches
// IfTrue. A non-coercible slot raises type-error.
type CondJump struct {
	Slot   int
	Target int
	IfTrue bool
}

// PushCatch installs a handler frame: a raise while it is active
// stores the error value into ErrSlot and resumes at Target.
type PushCatch struct {
	Target  int
	ErrSlot int
}

// PopCatch removes the most recent handler frame.
type PopCatch struct{}

// Call invokes function Func. Arguments live in the ArgCount slots
// starting at ArgBottom, which becomes the callee's frame bottom. The
// callee's result is copied into To after return.
type Call struct {
	To        int
	Func      int
	ArgBottom int
	ArgCount  int
}

// Return ends the current function, yielding Slot's value.
type Return struct {
	Slot int
}

// BinOp applies Op to Arg1 and Arg2, writing the result to To. When
// To aliases either source, the result is built in a temporary and
// copied at the end.
type BinOp struct {
	Op   BinOpType
	To   int
	Arg1 int
	Arg2 int
}

// UnOp applies Op to Arg, writing the result to To.
type UnOp struct {
	Op  UnOpType
	To  int
	Arg int
}

func (StackGrow) op() Opcode { return OpStackGrow }
func (SetConst) op() Opcode  { return OpSetConst }
func (Copy) op() Opcode      { return OpCopy }
func (GetGlobal) op() Opcode { return OpGetGlobal }
func (SetGlobal) op() Opcode { return OpSetGlobal }
func (Jump) op() Opcode      { return OpJump }
func (CondJump) op() Opcode  { return OpCondJump }
func (PushCatch) op() Opcode { return OpPushCatch }
func (PopCatch) op() Opcode  { return OpPopCatch }
func (Call) op() Opcode      { return OpCall }
func (Return) op() Opcode    { return OpReturn }
func (BinOp) op() Opcode     { return OpBinOp }
func (UnOp) op() Opcode      { return OpUnOp }

func (in StackGrow) String() string { return fmt.Sprintf("stackgrow %d", in.Size) }
func (in SetConst) String() string {
	return fmt.Sprintf("setconst s%d, %s", in.Slot, formatValue(in.Value))
}
func (in Copy) String() string      { return fmt.Sprintf("copy s%d, s%d", in.To, in.From) }
func (in GetGlobal) String() string { return fmt.Sprintf("getglobal s%d, g%d", in.Slot, in.Global) }
func (in SetGlobal) String() string { return fmt.Sprintf("setglobal g%d, s%d", in.Global, in.Slot) }
func (in Jump) String() string      { return fmt.Sprintf("jump @%d", in.Target) }
func (in PushCatch) String() string { return fmt.Sprintf("pushcatch @%d, s%d", in.Target, in.ErrSlot) }
func (PopCatch) String() string     { return "popcatch" }
func (in Return) String() string    { return fmt.Sprintf("return s%d", in.Slot) }

func (in CondJump) String() string {
	cond := "false"
	if in.IfTrue {
		cond = "true"
	}
	return fmt.Sprintf("condjump s%d, @%d if %s", in.Slot, in.Target, cond)
}

func (in Call) String() string {
	return fmt.Sprintf("call s%d, f%d, args s%d+%d", in.To, in.Func, in.ArgBottom, in.ArgCount)
}

func (in BinOp) String() string {
	return fmt.Sprintf("binop s%d, s%d %s s%d", in.To, in.Arg1, in.Op, in.Arg2)
}

func (in UnOp) String() string {
	return fmt.Sprintf("unop s%d, %s s%d", in.To, in.Op, in.Arg)
}

// formatValue renders a constant for disassembly and tracing.
func formatValue(v Value) string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("int %d", v.i)
	case KindFloat:
		return fmt.Sprintf("float %g", v.f)
	case KindBool:
		return fmt.Sprintf("bool %v", v.i != 0)
	case KindNone:
		return "none"
	case KindShortStr:
		return fmt.Sprintf("str %q", string(v.short[:v.shortLen]))
	case KindPreallocStr:
		return fmt.Sprintf("str %q", string(v.prealloc))
	case KindFuncRef:
		return fmt.Sprintf("func f%d", v.i)
	case KindNestRecord:
		return fmt.Sprintf("nest %d", v.i)
	case KindError:
		return fmt.Sprintf("error %s %q", v.errp.Kind, v.errp.Message)
	case KindBoxed:
		return fmt.Sprintf("boxed %s#%d", v.obj.kind, v.obj.id)
	}
	return "invalid"
}
