package main

import (
	"fmt"

	"github.com/wippyai/sable-runtime/vm"
)

// A demo is a small prebuilt program exercising one part of the
// interpreter. build returns the sealed program and the index of the
// function to run; args (integers, or floats when not an integer) are
// collected from flags or the interactive prompt.
type demo struct {
	name     string
	desc     string
	argNames []string
	build    func() (*vm.Program, int, error)
}

var demos = []demo{
	{
		name:     "divide",
		desc:     "integer/float division with divide-by-zero raising",
		argNames: []string{"a", "b"},
		build:    buildDivide,
	},
	{
		name:     "modulo",
		desc:     "mathematical modulo (result carries the divisor's sign)",
		argNames: []string{"a", "b"},
		build:    buildModulo,
	},
	{
		name:  "strings",
		desc:  "concatenation across the short-string threshold, then indexing",
		build: buildStrings,
	},
	{
		name:  "caught",
		desc:  "a raised index error caught by a handler frame",
		build: buildCaught,
	},
	{
		name:     "native",
		desc:     "calling a registered native function",
		argNames: []string{"a", "b"},
		build:    buildNative,
	},
	{
		name:  "counter",
		desc:  "a global slot bumped through a loop",
		build: buildCounter,
	},
}

func findDemo(name string) *demo {
	for i := range demos {
		if demos[i].name == name {
			return &demos[i]
		}
	}
	return nil
}

func buildDivide() (*vm.Program, int, error) {
	p := vm.NewProgram()
	idx, err := p.RegisterFunction(
		"divide", "demo:///divide.sbl", 2, []string{"a", "b"}, false, "demo", "", false, vm.NoClass,
		4, []vm.Instr{
			vm.BinOp{Op: vm.BinOpDivide, To: 3, Arg1: 0, Arg2: 1},
			vm.Return{Slot: 3},
		},
	)
	if err != nil {
		return nil, 0, err
	}
	return p, idx, p.Seal()
}

func buildModulo() (*vm.Program, int, error) {
	p := vm.NewProgram()
	idx, err := p.RegisterFunction(
		"modulo", "demo:///modulo.sbl", 2, []string{"a", "b"}, false, "demo", "", false, vm.NoClass,
		4, []vm.Instr{
			vm.BinOp{Op: vm.BinOpModulo, To: 3, Arg1: 0, Arg2: 1},
			vm.Return{Slot: 3},
		},
	)
	if err != nil {
		return nil, 0, err
	}
	return p, idx, p.Seal()
}

func buildStrings() (*vm.Program, int, error) {
	p := vm.NewProgram()
	greet, err := p.InternString("sable ")
	if err != nil {
		return nil, 0, err
	}
	idx, err := p.RegisterFunction(
		"strings", "demo:///strings.sbl", 0, nil, false, "demo", "", false, vm.NoClass,
		4, []vm.Instr{
			vm.SetConst{Slot: 0, Value: greet},
			vm.SetConst{Slot: 1, Value: vm.ShortStr([]rune("vm"))},
			// crosses the short-string threshold: boxed result
			vm.BinOp{Op: vm.BinOpAdd, To: 2, Arg1: 0, Arg2: 1},
			vm.SetConst{Slot: 1, Value: vm.Int(7)},
			// letter 7 of "sable vm"
			vm.BinOp{Op: vm.BinOpIndexByExpr, To: 3, Arg1: 2, Arg2: 1},
			vm.Return{Slot: 3},
		},
	)
	if err != nil {
		return nil, 0, err
	}
	return p, idx, p.Seal()
}

func buildCaught() (*vm.Program, int, error) {
	p := vm.NewProgram()
	idx, err := p.RegisterFunction(
		"caught", "demo:///caught.sbl", 0, nil, false, "demo", "", false, vm.NoClass,
		4, []vm.Instr{
			vm.PushCatch{Target: 6, ErrSlot: 3},
			vm.SetConst{Slot: 0, Value: vm.ShortStr([]rune("abc"))},
			vm.SetConst{Slot: 1, Value: vm.Int(99)},
			vm.BinOp{Op: vm.BinOpIndexByExpr, To: 2, Arg1: 0, Arg2: 1},
			vm.PopCatch{},
			vm.Return{Slot: 2},
			vm.Return{Slot: 3}, // handler: the error value itself
		},
	)
	if err != nil {
		return nil, 0, err
	}
	return p, idx, p.Seal()
}

func buildNative() (*vm.Program, int, error) {
	p := vm.NewProgram()
	gcd, err := p.RegisterNativeFunction(
		"gcd",
		func(t *vm.Thread, bottom int) bool {
			a := t.NativeArg(bottom, 0)
			b := t.NativeArg(bottom, 1)
			if a.Kind() != vm.KindInt || b.Kind() != vm.KindInt {
				t.SetRaise(vm.TypeError, "gcd takes two ints")
				return false
			}
			x, y := a.AsInt(), b.AsInt()
			if x < 0 {
				x = -x
			}
			if y < 0 {
				y = -y
			}
			for y != 0 {
				x, y = y, x%y
			}
			t.SetNativeResult(bottom, 2, vm.Int(x))
			return true
		},
		"demo:///native.sbl", 2, []string{"a", "b"}, false, "demo", "", false, vm.NoClass,
	)
	if err != nil {
		return nil, 0, err
	}
	idx, err := p.RegisterFunction(
		"native", "demo:///native.sbl", 2, []string{"a", "b"}, false, "demo", "", false, vm.NoClass,
		6, []vm.Instr{
			vm.Copy{To: 3, From: 0},
			vm.Copy{To: 4, From: 1},
			vm.Call{To: 2, Func: gcd, ArgBottom: 3, ArgCount: 2},
			vm.Return{Slot: 2},
		},
	)
	if err != nil {
		return nil, 0, err
	}
	return p, idx, p.Seal()
}

func buildCounter() (*vm.Program, int, error) {
	p := vm.NewProgram()
	g, err := p.AddGlobal(vm.Int(0))
	if err != nil {
		return nil, 0, err
	}
	idx, err := p.RegisterFunction(
		"counter", "demo:///counter.sbl", 0, nil, false, "demo", "", false, vm.NoClass,
		4, []vm.Instr{
			vm.GetGlobal{Slot: 0, Global: g},
			vm.SetConst{Slot: 1, Value: vm.Int(10)},
			vm.SetConst{Slot: 3, Value: vm.Int(1)},
			vm.BinOp{Op: vm.BinOpSmaller, To: 2, Arg1: 0, Arg2: 1},
			vm.CondJump{Slot: 2, Target: 6, IfTrue: true},
			vm.Jump{Target: 8},
			vm.BinOp{Op: vm.BinOpAdd, To: 0, Arg1: 0, Arg2: 3},
			vm.Jump{Target: 3},
			vm.SetGlobal{Global: g, Slot: 0},
			vm.Return{Slot: 0},
		},
	)
	if err != nil {
		return nil, 0, err
	}
	return p, idx, p.Seal()
}

// renderResult formats a run result (or raised error) for display.
func renderResult(ret vm.Value, err error) string {
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	switch ret.Kind() {
	case vm.KindInt:
		return fmt.Sprintf("int %d", ret.AsInt())
	case vm.KindFloat:
		return fmt.Sprintf("float %g", ret.AsFloat())
	case vm.KindBool:
		return fmt.Sprintf("bool %v", ret.AsBool())
	case vm.KindNone:
		return "none"
	case vm.KindShortStr, vm.KindPreallocStr:
		return fmt.Sprintf("str %q", string(ret.StrRunes()))
	case vm.KindBoxed:
		if ret.IsStr() {
			return fmt.Sprintf("str %q (boxed)", string(ret.StrRunes()))
		}
		return fmt.Sprintf("boxed %s", ret.Obj().Kind())
	case vm.KindError:
		pl := ret.ErrorPayload()
		return fmt.Sprintf("caught %s: %s", pl.Kind, pl.Message)
	}
	return "invalid"
}
