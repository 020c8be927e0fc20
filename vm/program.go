package vm

import (
	"strconv"

	"github.com/wippyai/sable-runtime/errors"
)

// NativeFunc is the native function ABI: it reads its arguments from
// stack[stackBottom..stackBottom+argCount), writes its result into
// the return slot (slot argCount of its frame), and reports success.
// On failure the caller raises; a pending raise set through
// Thread.SetRaise overrides the generic failure error.
type NativeFunc func(t *Thread, stackBottom int) bool

// NoClass marks a function or registration without an associated class.
const NoClass = -1

// Func describes one entry of the program function table.
type Func struct {
	ArgCount        int
	LastIsMultiArg  bool
	StackSlotsUsed  int
	IsNative        bool
	Threadable      bool
	AssociatedClass int

	Instr  []Instr    // bytecode functions
	Native NativeFunc // native functions
}

// Class describes one entry of the program class table.
type Class struct {
	MemberCount   int
	MethodFuncIdx []int
}

// FuncSymbol carries debug information for one function.
type FuncSymbol struct {
	Name       string
	FileURI    string
	ModulePath string
	Library    string
	ArgNames   []string
}

// ClassSymbol carries debug information for one class.
type ClassSymbol struct {
	Name       string
	FileURI    string
	ModulePath string
	Library    string
}

// Symbols is the optional debug symbol table.
type Symbols struct {
	Funcs   []FuncSymbol
	Classes []ClassSymbol
}

// FuncName returns the registered name of function idx, or a
// positional fallback.
func (s *Symbols) FuncName(idx int) string {
	if s != nil && idx >= 0 && idx < len(s.Funcs) && s.Funcs[idx].Name != "" {
		return s.Funcs[idx].Name
	}
	return "f" + strconv.Itoa(idx)
}

// Program is the loaded unit a thread executes: globals, classes,
// functions, interned strings, and optional symbols. Construction is
// two-phase: registration mutates the tables, Seal freezes them, and
// only sealed programs can be run.
type Program struct {
	globals  []Value
	classes  []Class
	funcs    []Func
	interned [][]rune
	symbols  Symbols
	sealed   bool
}

// NewProgram creates an empty unsealed program.
func NewProgram() *Program {
	return &Program{}
}

// Sealed reports whether registration has finished.
func (p *Program) Sealed() bool { return p.sealed }

// AddGlobal appends a global slot initialized to v and returns its
// index. Boxed initial values are rejected: the program image owns no
// pool to free them from.
func (p *Program) AddGlobal(v Value) (int, error) {
	if p.sealed {
		return -1, errors.Sealed("AddGlobal")
	}
	if v.kind == KindBoxed {
		return -1, errors.InvalidInput(errors.PhaseLoad, "global initializer cannot be a boxed value")
	}
	p.globals = append(p.globals, v)
	return len(p.globals) - 1, nil
}

// InternString stores s in the program string table and returns a
// const-prealloc string value pointing into it. Interned strings are
// immutable and never refcounted.
func (p *Program) InternString(s string) (Value, error) {
	if p.sealed {
		return Value{}, errors.Sealed("InternString")
	}
	cps := []rune(s)
	p.interned = append(p.interned, cps)
	return PreallocStr(cps), nil
}

// AddClass registers a class and returns its dense index.
func (p *Program) AddClass(
	name, fileURI, modulePath, library string,
	memberCount int, methodFuncIdx []int,
) (int, error) {
	if p.sealed {
		return -1, errors.Sealed("AddClass")
	}
	if memberCount < 0 {
		return -1, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Op("AddClass").
			Detail("negative member count %d", memberCount).
			Build()
	}
	p.classes = append(p.classes, Class{
		MemberCount:   memberCount,
		MethodFuncIdx: append([]int(nil), methodFuncIdx...),
	})
	p.symbols.Classes = append(p.symbols.Classes, ClassSymbol{
		Name:       name,
		FileURI:    fileURI,
		ModulePath: modulePath,
		Library:    library,
	})
	return len(p.classes) - 1, nil
}

// RegisterNativeFunction registers a native callback and returns its
// dense function index.
func (p *Program) RegisterNativeFunction(
	name string, fn NativeFunc, fileURI string,
	argCount int, argNames []string, lastIsMultiArg bool,
	modulePath, library string, threadable bool, classIdx int,
) (int, error) {
	if err := p.checkRegistration("RegisterNativeFunction", argCount, classIdx); err != nil {
		return -1, err
	}
	if fn == nil {
		return -1, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Op("RegisterNativeFunction").
			Func(name).
			Detail("nil callback").
			Build()
	}
	p.funcs = append(p.funcs, Func{
		ArgCount:        argCount,
		LastIsMultiArg:  lastIsMultiArg,
		StackSlotsUsed:  argCount + 1, // args plus return slot
		IsNative:        true,
		Threadable:      threadable,
		AssociatedClass: classIdx,
		Native:          fn,
	})
	p.addFuncSymbol(name, fileURI, modulePath, library, argNames)
	return len(p.funcs) - 1, nil
}

// RegisterFunction registers a bytecode function and returns its
// dense function index. stackSlotsUsed covers arguments, the nest
// record slot, and locals.
func (p *Program) RegisterFunction(
	name, fileURI string,
	argCount int, argNames []string, lastIsMultiArg bool,
	modulePath, library string, threadable bool, classIdx int,
	stackSlotsUsed int, instr []Instr,
) (int, error) {
	if err := p.checkRegistration("RegisterFunction", argCount, classIdx); err != nil {
		return -1, err
	}
	if stackSlotsUsed < argCount+1 {
		return -1, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Op("RegisterFunction").
			Func(name).
			Detail("stack slots %d below args+nest %d", stackSlotsUsed, argCount+1).
			Build()
	}
	if len(instr) == 0 {
		return -1, errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Op("RegisterFunction").
			Func(name).
			Detail("empty instruction array").
			Build()
	}
	p.funcs = append(p.funcs, Func{
		ArgCount:        argCount,
		LastIsMultiArg:  lastIsMultiArg,
		StackSlotsUsed:  stackSlotsUsed,
		Threadable:      threadable,
		AssociatedClass: classIdx,
		Instr:           append([]Instr(nil), instr...),
	})
	p.addFuncSymbol(name, fileURI, modulePath, library, argNames)
	return len(p.funcs) - 1, nil
}

func (p *Program) checkRegistration(op string, argCount, classIdx int) error {
	if p.sealed {
		return errors.Sealed(op)
	}
	if argCount < 0 {
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Op(op).
			Detail("negative arg count %d", argCount).
			Build()
	}
	if classIdx != NoClass && (classIdx < 0 || classIdx >= len(p.classes)) {
		return errors.New(errors.PhaseRegister, errors.KindNotFound).
			Op(op).
			Detail("class index %d not registered", classIdx).
			Build()
	}
	return nil
}

func (p *Program) addFuncSymbol(name, fileURI, modulePath, library string, argNames []string) {
	p.symbols.Funcs = append(p.symbols.Funcs, FuncSymbol{
		Name:       name,
		FileURI:    fileURI,
		ModulePath: modulePath,
		Library:    library,
		ArgNames:   append([]string(nil), argNames...),
	})
}

// Seal validates the tables and freezes the program. After Seal the
// program is a read view; registration calls fail.
func (p *Program) Seal() error {
	if p.sealed {
		return nil
	}
	for ci := range p.classes {
		for _, fi := range p.classes[ci].MethodFuncIdx {
			if fi < 0 || fi >= len(p.funcs) {
				return errors.New(errors.PhaseLoad, errors.KindNotFound).
					Op("Seal").
					Detail("class %d references missing function %d", ci, fi).
					Build()
			}
		}
	}
	for fi := range p.funcs {
		fn := &p.funcs[fi]
		if fn.IsNative {
			continue
		}
		if err := p.validateInstr(fi, fn); err != nil {
			return err
		}
	}
	p.sealed = true
	return nil
}

// validateInstr checks jump targets and constant kinds so the
// dispatch core can trust the instruction stream.
func (p *Program) validateInstr(funcIdx int, fn *Func) error {
	bad := func(pc int, detail string, args ...any) error {
		return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Op("Seal").
			Func(p.symbols.FuncName(funcIdx)).
			Detail("instr %d: "+detail, append([]any{pc}, args...)...).
			Build()
	}
	checkTarget := func(pc, target int) error {
		if target < 0 || target >= len(fn.Instr) {
			return bad(pc, "jump target %d outside instruction range", target)
		}
		return nil
	}
	for pc, in := range fn.Instr {
		switch in := in.(type) {
		case SetConst:
			if in.Value.kind == KindBoxed || in.Value.kind == KindInvalid {
				return bad(pc, "constant of kind %s", in.Value.kind)
			}
		case Jump:
			if err := checkTarget(pc, in.Target); err != nil {
				return err
			}
		case CondJump:
			if err := checkTarget(pc, in.Target); err != nil {
				return err
			}
		case PushCatch:
			if err := checkTarget(pc, in.Target); err != nil {
				return err
			}
		case Call:
			if in.Func < 0 || in.Func >= len(p.funcs) {
				return bad(pc, "call to missing function %d", in.Func)
			}
		}
	}
	// terminal instruction must return or transfer control explicitly
	switch last := fn.Instr[len(fn.Instr)-1].(type) {
	case Return, Jump:
	default:
		return bad(len(fn.Instr)-1, "function falls off instruction range after %s", last.op())
	}
	return nil
}

// Read accessors (valid on sealed and unsealed programs; threads
// require sealed).

// FuncCount returns the function table size.
func (p *Program) FuncCount() int { return len(p.funcs) }

// FuncAt returns a read view of function idx.
func (p *Program) FuncAt(idx int) *Func {
	if idx < 0 || idx >= len(p.funcs) {
		return nil
	}
	return &p.funcs[idx]
}

// ClassCount returns the class table size.
func (p *Program) ClassCount() int { return len(p.classes) }

// ClassAt returns a read view of class idx.
func (p *Program) ClassAt(idx int) *Class {
	if idx < 0 || idx >= len(p.classes) {
		return nil
	}
	return &p.classes[idx]
}

// GlobalCount returns the global table size.
func (p *Program) GlobalCount() int { return len(p.globals) }

// Symbols returns the debug symbol table.
func (p *Program) Symbols() *Symbols { return &p.symbols }
