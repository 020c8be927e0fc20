package vm

import (
	"fmt"
	"strings"
)

// Disassemble renders one function's instruction stream for tracing
// and tooling. Native functions render as a single stub line.
func (p *Program) Disassemble(funcIdx int) ([]string, error) {
	fn := p.FuncAt(funcIdx)
	if fn == nil {
		return nil, fmt.Errorf("function %d outside table", funcIdx)
	}
	name := p.symbols.FuncName(funcIdx)
	header := fmt.Sprintf("func %s (args %d, slots %d)", name, fn.ArgCount, fn.StackSlotsUsed)
	if fn.IsNative {
		return []string{header, "  <native>"}, nil
	}
	lines := make([]string, 0, len(fn.Instr)+1)
	lines = append(lines, header)
	for pc, in := range fn.Instr {
		lines = append(lines, fmt.Sprintf("  %3d  %s", pc, in))
	}
	return lines, nil
}

// DisassembleAll renders every function in the program.
func (p *Program) DisassembleAll() string {
	var b strings.Builder
	for i := 0; i < p.FuncCount(); i++ {
		lines, _ := p.Disassemble(i)
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
