// Package sableruntime is the root of the Sable bytecode runtime: a
// stack-based virtual machine with tagged values, a reference-counted
// pool-allocated heap, and a threaded-dispatch interpreter loop.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	sable-runtime/
//	├── vm/          Values, heap pool, containers, programs, threads, dispatch
//	├── utf32/       UTF-8 <-> UTF-32 codec, surrogate escaping, letter counts
//	├── errors/      Structured error types for the embedder boundary
//	└── cmd/run/     Demo runner CLI with an interactive TUI
//
// # Quick Start
//
// Build a program, seal it, and run it on a thread:
//
//	p := vm.NewProgram()
//	idx, _ := p.RegisterFunction("main", "file:///main.sbl",
//	    0, nil, false, "main", "", false, vm.NoClass,
//	    3, []vm.Instr{
//	        vm.SetConst{Slot: 0, Value: vm.Int(7)},
//	        vm.SetConst{Slot: 1, Value: vm.Int(3)},
//	        vm.BinOp{Op: vm.BinOpDivide, To: 2, Arg1: 0, Arg2: 1},
//	        vm.Return{Slot: 2},
//	    })
//	if err := p.Seal(); err != nil {
//	    log.Fatal(err)
//	}
//
//	th, _ := vm.NewThread(p)
//	defer th.Close()
//
//	ret, err := th.Run(ctx, idx)
//	fmt.Println(ret.AsInt()) // 2
//	th.ReleaseValue(&ret)
//
// # Values
//
// Slots hold tagged values: int64, float64, bool, none, strings in
// three representations (inline short strings, program-owned prealloc
// strings, boxed heap strings), lists, maps, function references, and
// runtime error values. Boxed values are reference counted against a
// per-thread pool; Thread.Close verifies everything was reclaimed.
//
// # Errors
//
// Runtime raises (type-error, math-error, index-error,
// out-of-memory-error) unwind to the nearest handler frame installed
// by PushCatch; an unhandled raise surfaces to the embedder as
// *errors.Raised. Host-level failures (registration, sealing, codec)
// use the structured errors package.
package sableruntime
