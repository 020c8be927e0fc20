package vm

import (
	"errors"
	"testing"

	rterr "github.com/wippyai/sable-runtime/errors"
)

func validInstr() []Instr {
	return []Instr{
		SetConst{Slot: 0, Value: Int(1)},
		Return{Slot: 0},
	}
}

func TestRegistrationReturnsDenseIndices(t *testing.T) {
	p := NewProgram()

	i0, err := p.RegisterFunction("a", "file:///a.sbl", 0, nil, false, "m", "", false, NoClass, 1, validInstr())
	if err != nil {
		t.Fatal(err)
	}
	i1, err := p.RegisterNativeFunction("b", func(*Thread, int) bool { return true },
		"file:///b.sbl", 0, nil, false, "m", "", false, NoClass)
	if err != nil {
		t.Fatal(err)
	}
	if i0 != 0 || i1 != 1 {
		t.Errorf("indices = %d, %d, want 0, 1", i0, i1)
	}

	ci, err := p.AddClass("C", "file:///c.sbl", "m", "", 2, []int{i0, i1})
	if err != nil {
		t.Fatal(err)
	}
	if ci != 0 {
		t.Errorf("class index = %d, want 0", ci)
	}

	if name := p.Symbols().FuncName(i1); name != "b" {
		t.Errorf("FuncName = %q, want %q", name, "b")
	}
}

func TestRegistrationValidation(t *testing.T) {
	t.Run("nil native callback", func(t *testing.T) {
		p := NewProgram()
		if _, err := p.RegisterNativeFunction("x", nil, "", 0, nil, false, "", "", false, NoClass); err == nil {
			t.Error("nil callback accepted")
		}
	})

	t.Run("stack slots below args plus nest", func(t *testing.T) {
		p := NewProgram()
		if _, err := p.RegisterFunction("x", "", 2, nil, false, "", "", false, NoClass, 2, validInstr()); err == nil {
			t.Error("undersized frame accepted")
		}
	})

	t.Run("empty instruction array", func(t *testing.T) {
		p := NewProgram()
		if _, err := p.RegisterFunction("x", "", 0, nil, false, "", "", false, NoClass, 1, nil); err == nil {
			t.Error("empty bytecode accepted")
		}
	})

	t.Run("unknown class index", func(t *testing.T) {
		p := NewProgram()
		if _, err := p.RegisterFunction("x", "", 0, nil, false, "", "", false, 3, 1, validInstr()); err == nil {
			t.Error("unknown class accepted")
		}
	})
}

func TestSealValidation(t *testing.T) {
	t.Run("jump target outside range", func(t *testing.T) {
		p := NewProgram()
		_, err := p.RegisterFunction("x", "", 0, nil, false, "", "", false, NoClass, 1, []Instr{
			Jump{Target: 9},
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Seal(); err == nil {
			t.Error("bad jump target sealed")
		}
	})

	t.Run("function falls off instruction range", func(t *testing.T) {
		p := NewProgram()
		_, err := p.RegisterFunction("x", "", 0, nil, false, "", "", false, NoClass, 1, []Instr{
			SetConst{Slot: 0, Value: Int(1)},
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Seal(); err == nil {
			t.Error("non-terminal tail sealed")
		}
	})

	t.Run("invalid constant kind", func(t *testing.T) {
		p := NewProgram()
		_, err := p.RegisterFunction("x", "", 0, nil, false, "", "", false, NoClass, 1, []Instr{
			SetConst{Slot: 0, Value: Value{}},
			Return{Slot: 0},
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Seal(); err == nil {
			t.Error("invalid constant sealed")
		}
	})

	t.Run("class method outside function table", func(t *testing.T) {
		p := NewProgram()
		if _, err := p.AddClass("C", "", "", "", 0, []int{5}); err != nil {
			t.Fatal(err)
		}
		if err := p.Seal(); err == nil {
			t.Error("dangling method index sealed")
		}
	})

	t.Run("call to missing function", func(t *testing.T) {
		p := NewProgram()
		_, err := p.RegisterFunction("x", "", 0, nil, false, "", "", false, NoClass, 2, []Instr{
			Call{To: 0, Func: 7, ArgBottom: 1, ArgCount: 0},
			Return{Slot: 0},
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Seal(); err == nil {
			t.Error("dangling call target sealed")
		}
	})
}

func TestSealFreezesProgram(t *testing.T) {
	p := NewProgram()
	if _, err := p.RegisterFunction("x", "", 0, nil, false, "", "", false, NoClass, 1, validInstr()); err != nil {
		t.Fatal(err)
	}
	if err := p.Seal(); err != nil {
		t.Fatal(err)
	}
	if err := p.Seal(); err != nil {
		t.Errorf("re-seal = %v, want nil", err)
	}

	var sealed *rterr.Error
	if _, err := p.RegisterFunction("y", "", 0, nil, false, "", "", false, NoClass, 1, validInstr()); !errors.As(err, &sealed) || sealed.Kind != rterr.KindSealed {
		t.Errorf("registration after seal = %v, want sealed error", err)
	}
	if _, err := p.AddClass("C", "", "", "", 0, nil); err == nil {
		t.Error("AddClass after seal accepted")
	}
	if _, err := p.AddGlobal(Int(1)); err == nil {
		t.Error("AddGlobal after seal accepted")
	}
	if _, err := p.InternString("s"); err == nil {
		t.Error("InternString after seal accepted")
	}
}

func TestThreadRequiresSealedProgram(t *testing.T) {
	p := NewProgram()
	if _, err := NewThread(p); err == nil {
		t.Error("thread created over unsealed program")
	}
}

func TestInternString(t *testing.T) {
	p := NewProgram()
	v, err := p.InternString("interned text")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind() != KindPreallocStr {
		t.Fatalf("kind = %v, want preallocstr", v.Kind())
	}
	if string(v.StrRunes()) != "interned text" {
		t.Errorf("content = %q", string(v.StrRunes()))
	}
}

func TestGlobalInitializerRejectsBoxed(t *testing.T) {
	p := NewProgram()
	pool := NewPool()
	bv, ok := newStringValue(pool, []rune("boxed global"))
	if !ok {
		t.Fatal("string construction failed")
	}
	if _, err := p.AddGlobal(bv); err == nil {
		t.Error("boxed global initializer accepted")
	}
	pool.releaseValue(&bv)
}

func TestDisassemble(t *testing.T) {
	p := NewProgram()
	if _, err := p.RegisterFunction("main", "", 0, nil, false, "", "", false, NoClass, 2, []Instr{
		SetConst{Slot: 0, Value: Int(7)},
		SetConst{Slot: 1, Value: Int(3)},
		BinOp{Op: BinOpDivide, To: 0, Arg1: 0, Arg2: 1},
		Return{Slot: 0},
	}); err != nil {
		t.Fatal(err)
	}
	lines, err := p.Disassemble(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 5 {
		t.Fatalf("lines = %d, want 5", len(lines))
	}
	if want := "func main (args 0, slots 2)"; lines[0] != want {
		t.Errorf("header = %q, want %q", lines[0], want)
	}

	if _, err := p.Disassemble(3); err == nil {
		t.Error("missing function disassembled")
	}
}
