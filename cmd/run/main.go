package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/sable-runtime/vm"
)

func main() {
	var (
		demoName    = flag.String("demo", "", "Demo program to run")
		argsStr     = flag.String("args", "", "Numeric arguments, int or float (comma-separated)")
		trace       = flag.Bool("trace", false, "Log every executed instruction")
		list        = flag.Bool("list", false, "List demo programs and exit")
		disasm      = flag.Bool("disasm", false, "Print the demo's bytecode before running")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *list {
		for _, d := range demos {
			args := ""
			if len(d.argNames) > 0 {
				args = " (" + strings.Join(d.argNames, ", ") + ")"
			}
			fmt.Printf("%-10s%s  %s\n", d.name, args, d.desc)
		}
		return
	}

	if *trace {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		vm.SetLogger(logger)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *demoName == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -demo <name> [-args a,b] [-trace] [-disasm]")
		fmt.Fprintln(os.Stderr, "       run -list")
		fmt.Fprintln(os.Stderr, "       run -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(*demoName, *argsStr, *disasm, *trace); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(demoName, argsStr string, disasm, trace bool) error {
	d := findDemo(demoName)
	if d == nil {
		return fmt.Errorf("unknown demo %q (try -list)", demoName)
	}

	args, err := parseArgs(argsStr, len(d.argNames))
	if err != nil {
		return err
	}

	prog, entry, err := d.build()
	if err != nil {
		return fmt.Errorf("build %s: %w", d.name, err)
	}

	if disasm {
		fmt.Print(prog.DisassembleAll())
	}

	th, err := vm.NewThread(prog)
	if err != nil {
		return err
	}
	defer th.Close()
	th.SetTrace(trace)

	ret, runErr := th.Run(context.Background(), entry, args...)
	fmt.Println(renderResult(ret, runErr))
	th.ReleaseValue(&ret)
	return nil
}

func parseArgs(argsStr string, want int) ([]vm.Value, error) {
	if argsStr == "" {
		if want != 0 {
			return nil, fmt.Errorf("demo takes %d arguments, pass -args", want)
		}
		return nil, nil
	}
	parts := strings.Split(argsStr, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("have %d arguments, demo takes %d", len(parts), want)
	}
	args := make([]vm.Value, 0, want)
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			args = append(args, vm.Int(n))
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q is not a number", s)
		}
		args = append(args, vm.Float(f))
	}
	return args, nil
}
