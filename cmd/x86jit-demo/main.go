// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

// Command x86jit-demo builds and runs a small JIT-compiled identity
// function to exercise the assembler end to end.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ProjectSerenity/x86jit/asm"
	"github.com/ProjectSerenity/x86jit/internal/x86"
)

var arg = flag.Int64("arg", 42, "argument to pass to the generated identity function")

func main() {
	flag.Parse()

	if err := run(*arg); err != nil {
		fmt.Fprintf(os.Stderr, "x86jit-demo: %v\n", err)
		os.Exit(1)
	}
}

func run(argument int64) error {
	region, err := asm.NewRegion(4096)
	if err != nil {
		return fmt.Errorf("allocating region: %w", err)
	}
	defer region.Close()

	stream, err := asm.New(region, 1)
	if err != nil {
		return fmt.Errorf("creating stream: %w", err)
	}

	// The identity function, per the System V AMD64 calling
	// convention: the sole integer argument arrives in RDI, the
	// integer result is returned in RAX.
	//
	//   MOV RAX, RDI
	//   RET
	if err := stream.MovRegReg(x86.RAX, x86.RDI); err != nil {
		return fmt.Errorf("encoding MOV: %w", err)
	}
	stream.RET()

	if err := stream.Finish(); err != nil {
		return fmt.Errorf("finishing stream: %w", err)
	}

	identity, err := asm.UnaryFunctionPointer[int64, int64](region, 0)
	if err != nil {
		return fmt.Errorf("extracting function pointer: %w", err)
	}

	result := identity(argument)
	fmt.Printf("identity(%d) = %d\n", argument, result)
	if result != argument {
		return fmt.Errorf("identity(%d) returned %d, want %d", argument, result, argument)
	}

	return nil
}
