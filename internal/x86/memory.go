// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package x86

import (
	"fmt"
	"math"
)

// Memory represents an x86 memory operand: an optional
// segment override, an optional base register, an
// optional (index, scale) pair, and a signed 32-bit
// displacement.
//
// A nil Base with a nil Index represents either an
// absolute address (in 32-bit mode, or when AbsoluteIn64
// is set) or a RIP-relative address (the default in
// 64-bit mode, per Intel SDM Volume 2A, Section 2.2.1.6).
type Memory struct {
	Segment *Register
	Base    *Register
	Index   *Register
	Scale   uint8 // One of 1, 2, 4, 8. Zero means no index.

	Displacement int32

	// AbsoluteIn64 forces a base-less, index-less
	// operand to be encoded as a SIB-addressed
	// absolute disp32 in 64-bit mode instead of the
	// default RIP-relative form.
	AbsoluteIn64 bool
}

// BaseDisp builds a [base + disp] memory operand,
// validating that disp fits in the encodable 32-bit
// displacement field.
func BaseDisp(base *Register, disp int64) (*Memory, error) {
	if disp < math.MinInt32 || disp > math.MaxInt32 {
		return nil, fmt.Errorf("x86: displacement %#x does not fit in 32 bits", disp)
	}

	return &Memory{Base: base, Displacement: int32(disp)}, nil
}

// BaseIndexScaleDisp builds a [base + index*scale + disp]
// memory operand, validating the scale and displacement.
func BaseIndexScaleDisp(base, index *Register, scale uint8, disp int64) (*Memory, error) {
	switch scale {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("x86: invalid scale %d", scale)
	}

	if index == RSP {
		return nil, fmt.Errorf("x86: RSP cannot be used as an index register")
	}

	if disp < math.MinInt32 || disp > math.MaxInt32 {
		return nil, fmt.Errorf("x86: displacement %#x does not fit in 32 bits", disp)
	}

	return &Memory{Base: base, Index: index, Scale: scale, Displacement: int32(disp)}, nil
}

// RIPRelative builds a [RIP + disp] memory operand.
func RIPRelative(disp int32) *Memory {
	return &Memory{Base: RIP, Displacement: disp}
}

// Absolute builds a bare [disp32] memory operand. In
// 64-bit mode this is encoded as a SIB byte with no
// base and no index, per Intel SDM Volume 2A, Table 2-5.
func Absolute(disp int32) *Memory {
	return &Memory{Displacement: disp, AbsoluteIn64: true}
}

func (m *Memory) String() string {
	segment := m.Segment != nil
	base := m.Base != nil
	index := m.Index != nil
	disp := m.Displacement != 0

	switch {
	case segment && base && index && disp:
		return fmt.Sprintf("%s:[%s + %s*%d + %#x]", m.Segment, m.Base, m.Index, m.Scale, m.Displacement)
	case base && index && disp:
		return fmt.Sprintf("[%s + %s*%d + %#x]", m.Base, m.Index, m.Scale, m.Displacement)
	case base && index:
		return fmt.Sprintf("[%s + %s*%d]", m.Base, m.Index, m.Scale)
	case segment && base && disp:
		return fmt.Sprintf("%s:[%s + %#x]", m.Segment, m.Base, m.Displacement)
	case base && disp:
		return fmt.Sprintf("[%s + %#x]", m.Base, m.Displacement)
	case segment && base:
		return fmt.Sprintf("%s:[%s]", m.Segment, m.Base)
	case base:
		return fmt.Sprintf("[%s]", m.Base)
	default:
		return fmt.Sprintf("[%#x]", m.Displacement)
	}
}
