package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/sable-runtime/vm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	demoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	disasmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectDemo modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err      error
	result   string
	disasm   string
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type callResultMsg struct {
	err    error
	result string
	disasm string
}

func newInteractiveModel() *interactiveModel {
	return &interactiveModel{state: stateSelectDemo}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) prepareInputs() {
	d := &demos[m.selected]
	m.inputs = nil
	m.focusIdx = 0
	for i, name := range d.argNames {
		in := textinput.New()
		in.Placeholder = name
		in.CharLimit = 20
		in.Width = 20
		if i == 0 {
			in.Focus()
		}
		m.inputs = append(m.inputs, in)
	}
}

func (m *interactiveModel) callDemo() tea.Msg {
	d := &demos[m.selected]

	var args []vm.Value
	for _, in := range m.inputs {
		s := strings.TrimSpace(in.Value())
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return callResultMsg{err: fmt.Errorf("argument %q is not a number", s)}
			}
			args = append(args, vm.Float(f))
			continue
		}
		args = append(args, vm.Int(n))
	}

	prog, entry, err := d.build()
	if err != nil {
		return callResultMsg{err: err}
	}

	th, err := vm.NewThread(prog)
	if err != nil {
		return callResultMsg{err: err}
	}
	defer th.Close()

	ret, runErr := th.Run(context.Background(), entry, args...)
	out := renderResult(ret, runErr)
	th.ReleaseValue(&ret)

	return callResultMsg{result: out, disasm: prog.DisassembleAll()}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateSelectDemo || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectDemo && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectDemo && m.selected < len(demos)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectDemo:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callDemo
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callDemo

			case stateShowResult:
				m.state = stateSelectDemo
				m.result = ""
				m.disasm = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectDemo
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectDemo
				m.result = ""
				m.disasm = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.disasm = msg.disasm
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs && len(m.inputs) > 0 {
		var cmd tea.Cmd
		m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("sable vm"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectDemo:
		for i, d := range demos {
			var line string
			if i == m.selected {
				line = selectedStyle.Render(fmt.Sprintf("%-10s", d.name)) + " " + descStyle.Render(d.desc)
			} else {
				line = demoStyle.Render(fmt.Sprintf("%-10s", d.name)) + " " + descStyle.Render(d.desc)
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("up/down select · enter run · q quit"))

	case stateInputArgs:
		d := &demos[m.selected]
		b.WriteString(demoStyle.Render(d.name))
		b.WriteString("\n\n")
		for i, in := range m.inputs {
			b.WriteString(fmt.Sprintf("%s: %s\n", d.argNames[i], in.View()))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field · enter run · esc back"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", m.err)))
		} else {
			if m.disasm != "" {
				b.WriteString(disasmStyle.Render(strings.TrimRight(m.disasm, "\n")))
				b.WriteString("\n\n")
			}
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter/esc back · ctrl+c quit"))
	}

	b.WriteByte('\n')
	return b.String()
}

func runInteractive() error {
	p := tea.NewProgram(newInteractiveModel())
	_, err := p.Run()
	return err
}
