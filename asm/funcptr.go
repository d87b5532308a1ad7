// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"unsafe"
)

// Go represents a func value as a pointer to a funcval, whose first
// word is the code's entry address. A local variable holding a
// uintptr has exactly the memory layout of a one-field funcval, so
// writing the code's address into such a variable and taking its
// address gives something indistinguishable, to the runtime, from a
// real closure pointer. This is the standard unsafe-pointer-to-
// function-type trick used wherever Go code calls directly into
// runtime-generated machine code.
//
// Safety contract: the returned function must not be invoked before
// the owning Stream's Finish has run, and must not outlive the
// Region the code lives in.
type funcPointer struct {
	entry uintptr
}

func codeAddress(region *Region, offset int) (uintptr, error) {
	if offset < 0 || offset >= region.Capacity() {
		return 0, fmt.Errorf("asm: offset %d is outside the region", offset)
	}

	return uintptr(unsafe.Pointer(&region.Base()[offset])), nil
}

// NullaryFunctionPointer returns a func() R calling the code at
// offset within region.
func NullaryFunctionPointer[R any](region *Region, offset int) (func() R, error) {
	entry, err := codeAddress(region, offset)
	if err != nil {
		return nil, err
	}

	fp := &funcPointer{entry: entry}
	return *(*func() R)(unsafe.Pointer(&fp)), nil
}

// UnaryFunctionPointer returns a func(A) R calling the code at offset
// within region.
func UnaryFunctionPointer[A, R any](region *Region, offset int) (func(A) R, error) {
	entry, err := codeAddress(region, offset)
	if err != nil {
		return nil, err
	}

	fp := &funcPointer{entry: entry}
	return *(*func(A) R)(unsafe.Pointer(&fp)), nil
}

// BinaryFunctionPointer returns a func(A, B) R calling the code at
// offset within region.
func BinaryFunctionPointer[A, B, R any](region *Region, offset int) (func(A, B) R, error) {
	entry, err := codeAddress(region, offset)
	if err != nil {
		return nil, err
	}

	fp := &funcPointer{entry: entry}
	return *(*func(A, B) R)(unsafe.Pointer(&fp)), nil
}

// TernaryFunctionPointer returns a func(A, B, C) R calling the code
// at offset within region.
func TernaryFunctionPointer[A, B, C, R any](region *Region, offset int) (func(A, B, C) R, error) {
	entry, err := codeAddress(region, offset)
	if err != nil {
		return nil, err
	}

	fp := &funcPointer{entry: entry}
	return *(*func(A, B, C) R)(unsafe.Pointer(&fp)), nil
}

// FuncPointerAt is the escape hatch for arities beyond three, or for
// System V AMD64's full six register-passed arguments: F must be a
// func type, e.g. FuncPointerAt[func(int64, int64, int64, int64) int64](region, 0).
func FuncPointerAt[F any](region *Region, offset int) (F, error) {
	var zero F
	entry, err := codeAddress(region, offset)
	if err != nil {
		return zero, err
	}

	fp := &funcPointer{entry: entry}
	return *(*F)(unsafe.Pointer(&fp)), nil
}
