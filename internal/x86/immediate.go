// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package x86

import "fmt"

// Immediate represents a signed literal operand of a
// fixed encoded width (8, 16, 32 or 64 bits), carried
// internally as an int64 so that narrower widths can be
// widened without loss before being placed in the
// instruction's immediate field.
type Immediate struct {
	Bits  int
	Value int64
}

// Imm8, Imm16, Imm32 and Imm64 construct an Immediate of
// the given width. The parameter's Go type already limits
// the value to that width's signed range.
func Imm8(v int8) Immediate  { return Immediate{Bits: 8, Value: int64(v)} }
func Imm16(v int16) Immediate { return Immediate{Bits: 16, Value: int64(v)} }
func Imm32(v int32) Immediate { return Immediate{Bits: 32, Value: int64(v)} }
func Imm64(v int64) Immediate { return Immediate{Bits: 64, Value: v} }

// Bounds returns the inclusive signed range representable
// by an immediate of the given width.
func Bounds(bits int) (min, max int64) {
	switch bits {
	case 8:
		return -1 << 7, 1<<7 - 1
	case 16:
		return -1 << 15, 1<<15 - 1
	case 32:
		return -1 << 31, 1<<31 - 1
	case 64:
		return -1 << 63, 1<<63 - 1
	default:
		panic(fmt.Sprintf("x86: invalid immediate width %d", bits))
	}
}

// FitsIn reports whether i's value is representable in
// the given width without truncation.
func (i Immediate) FitsIn(bits int) bool {
	min, max := Bounds(bits)
	return i.Value >= min && i.Value <= max
}

// Widen converts i to the requested width, which must be
// no narrower than i's current width. It reports false if
// bits is narrower than i.Bits, since that would require
// truncation rather than sign-extension.
func (i Immediate) Widen(bits int) (Immediate, bool) {
	if bits < i.Bits {
		return Immediate{}, false
	}

	return Immediate{Bits: bits, Value: i.Value}, true
}

// Narrowest returns the smallest standard width (8, 16,
// 32 or 64 bits) that can hold i.Value without loss,
// regardless of the width i was originally constructed
// with. Encoders use this to pick the most compact
// immediate-width form an instruction supports.
func (i Immediate) Narrowest() int {
	for _, bits := range []int{8, 16, 32, 64} {
		if i.FitsIn(bits) {
			return bits
		}
	}

	panic("x86: immediate value fits no standard width")
}

func (i Immediate) String() string {
	return fmt.Sprintf("%#x", i.Value)
}
