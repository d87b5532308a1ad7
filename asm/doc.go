// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

// Package asm implements a runtime x86-64 assembler: a host program builds
// a stream of machine instructions directly into an executable memory
// region, binds labels to positions within that stream, and resolves
// forward and backward branch displacements in a single pass. The result
// can be called as a native function pointer once the stream is finished.
//
// The typed mnemonic surface lives in this package; instruction encoding
// primitives (registers, memory operands, immediates, prefix bytes) live in
// github.com/ProjectSerenity/x86jit/internal/x86.
package asm
