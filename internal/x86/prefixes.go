// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package x86

import "fmt"

// Prefix represents a legacy x86 prefix byte.
type Prefix byte

const (
	PrefixLock        Prefix = 0xf0
	PrefixRepeatNot   Prefix = 0xf2
	PrefixRepeat      Prefix = 0xf3
	PrefixCS          Prefix = 0x2e
	PrefixSS          Prefix = 0x36
	PrefixDS          Prefix = 0x3e
	PrefixES          Prefix = 0x26
	PrefixFS          Prefix = 0x64
	PrefixGS          Prefix = 0x65
	PrefixOperandSize Prefix = 0x66
	PrefixAddressSize Prefix = 0x67
)

func (p Prefix) String() string {
	switch p {
	case PrefixLock:
		return "lock"
	case PrefixRepeatNot:
		return "repnz/repne"
	case PrefixRepeat:
		return "rep/repe/repz"
	case PrefixCS:
		return "cs"
	case PrefixSS:
		return "ss"
	case PrefixDS:
		return "ds"
	case PrefixES:
		return "es"
	case PrefixFS:
		return "fs"
	case PrefixGS:
		return "gs"
	case PrefixOperandSize:
		return "data16/data32"
	case PrefixAddressSize:
		return "addr16/addr32"
	default:
		return fmt.Sprintf("Prefix(%#02x)", byte(p))
	}
}

func b2i(b bool) byte {
	if b {
		return 1
	}

	return 0
}

// REX provides helper functionality for reading and
// writing a REX prefix byte.
//
// Intel SDM Volume 2A, Section 2.2.1.2, Table 2-4:
//
//	| 7  6  5  4   3  2  1  0 |
//	+-------------------------|
//	| 0  1  0  0   W  R  X  B |
type REX byte

func (r REX) On() bool       { return ((r >> 6) & 1) == 1 }
func (r REX) W() bool        { return ((r >> 3) & 1) == 1 }
func (r REX) R() bool        { return ((r >> 2) & 1) == 1 }
func (r REX) X() bool        { return ((r >> 1) & 1) == 1 }
func (r REX) B() bool        { return ((r >> 0) & 1) == 1 }
func (r *REX) SetOn()        { *r |= 1 << 6 }
func (r *REX) SetW(b bool)   { *r = (*r &^ (1 << 3)) | REX(b2i(b)<<3) }
func (r *REX) SetR(b bool)   { *r = (*r &^ (1 << 2)) | REX(b2i(b)<<2) }
func (r *REX) SetX(b bool)   { *r = (*r &^ (1 << 1)) | REX(b2i(b)<<1) }
func (r *REX) SetB(b bool)   { *r = (*r &^ (1 << 0)) | REX(b2i(b)<<0) }

func (r REX) String() string {
	out := make([]byte, 8)
	at := func(i int, zero, one byte) byte {
		if ((r >> (7 - i)) & 1) == 1 {
			return one
		}

		return zero
	}

	out[0] = at(0, '0', '1')
	out[1] = at(1, '0', '1')
	out[2] = at(2, '0', '1')
	out[3] = at(3, '0', '1')
	out[4] = at(4, '0', 'W')
	out[5] = at(5, '0', 'R')
	out[6] = at(6, '0', 'X')
	out[7] = at(7, '0', 'B')

	return string(out)
}

// VEX provides helper functionality for reading and
// writing a VEX prefix. It is always stored in the
// 3-byte form internally, but can be encoded to either
// the 2-byte or 3-byte wire form.
//
// Intel SDM Volume 2A, Section 2.3.5, Table 2-9.
//
// 3-byte form:
//
//	| 7  6  5  4   3  2  1  0 |
//	+-------------------------|
//	| 1  1  0  0   0  1  0  0 | // 0xc4 prefix.
//	| R  X  B  m   m  m  m  m | // P0.
//	| W  v  v  v   v  L  p  p | // P1.
//
// 2-byte form:
//
//	| 7  6  5  4   3  2  1  0 |
//	+-------------------------|
//	| 1  1  0  0   0  1  0  1 | // 0xc5 prefix.
//	| R  v  v  v   v  L  p  p | // P0.
type VEX [2]byte

func (v VEX) R() bool      { return ((v[0] >> 7) & 1) == 1 }
func (v VEX) X() bool      { return ((v[0] >> 6) & 1) == 1 }
func (v VEX) B() bool      { return ((v[0] >> 5) & 1) == 1 }
func (v VEX) M_MMMM() byte { return v[0] & 0b1_1111 }

func (v VEX) W() bool    { return ((v[1] >> 7) & 1) == 1 }
func (v VEX) VVVV() byte { return (v[1] >> 3) & 0b1111 }
func (v VEX) L() bool    { return ((v[1] >> 2) & 1) == 1 }
func (v VEX) PP() byte   { return v[1] & 0b11 }

func (v *VEX) SetR(b bool)      { v[0] = v[0]&0b0111_1111 | (b2i(b) << 7) }
func (v *VEX) SetX(b bool)      { v[0] = v[0]&0b1011_1111 | (b2i(b) << 6) }
func (v *VEX) SetB(b bool)      { v[0] = v[0]&0b1101_1111 | (b2i(b) << 5) }
func (v *VEX) SetM_MMMM(b byte) { v[0] = v[0]&0b1110_0000 | (b & 0b1_1111) }

func (v *VEX) SetW(b bool)    { v[1] = v[1]&0b0111_1111 | (b2i(b) << 7) }
func (v *VEX) SetVVVV(b byte) { v[1] = v[1]&0b1000_0111 | ((b & 0b1111) << 3) }
func (v *VEX) SetL(b bool)    { v[1] = v[1]&0b1111_1011 | (b2i(b) << 2) }
func (v *VEX) SetPP(b byte)   { v[1] = v[1]&0b1111_1100 | (b & 0b11) }

// On reports whether this VEX value represents an active
// prefix. m-mmmm is a reserved field that is never
// legitimately zero once a VEX prefix is in use.
func (v VEX) On() bool { return v.M_MMMM() != 0 }

// Default resets v to the VEX prefix's default state:
// the inverted-bit fields (R, X, B) set, and vvvv set to
// its "unused" encoding (0b1111).
func (v *VEX) Default() {
	v.SetR(true)
	v.SetX(true)
	v.SetB(true)
	v.SetVVVV(0b1111)
}

// Can2Byte reports whether v can be encoded using the
// shorter 2-byte VEX form, which requires X and B to be
// unset (inverted bits both 1), W clear, and m-mmmm equal
// to the implied 0F leading opcode map.
func (v VEX) Can2Byte() bool {
	return v.X() && v.B() && !v.W() && v.M_MMMM() == 0b0_0001
}

// Encode2Byte returns the wire bytes of v's 2-byte form.
func (v VEX) Encode2Byte() (prefix, p0 byte) {
	v.SetW(v.R())
	return 0xc5, v[1]
}

// Encode3Byte returns the wire bytes of v's 3-byte form.
func (v VEX) Encode3Byte() (prefix, p0, p1 byte) {
	return 0xc4, v[0], v[1]
}

func (v VEX) String() string {
	return fmt.Sprintf("{R: %b, X: %b, B: %b, m-mmmm: %05b, W: %v, vvvv: %04b, L: %b, pp: %02b}",
		b2i(v.R()), b2i(v.X()), b2i(v.B()), v.M_MMMM(), v.W(), v.VVVV(), b2i(v.L()), v.PP())
}

// ModRM provides helper functionality for reading and
// writing a ModR/M byte.
type ModRM byte

const (
	ModRMmodDereferenceRegister    ModRM = 0b00_000_000 // [reg], or a disp32/SIB special case.
	ModRMmodSmallDisplacedRegister ModRM = 0b01_000_000 // [reg + disp8].
	ModRMmodLargeDisplacedRegister ModRM = 0b10_000_000 // [reg + disp32].
	ModRMmodRegister               ModRM = 0b11_000_000 // reg, reg.

	ModRMrmSIB                ModRM = 0b00_000_100
	ModRMrmDisplacementOnly32 ModRM = 0b00_000_101
)

func (m ModRM) Mod() byte      { return byte(m&0b11000000) >> 6 }
func (m ModRM) Reg() byte      { return byte(m&0b00111000) >> 3 }
func (m ModRM) RM() byte       { return byte(m&0b00000111) >> 0 }
func (m *ModRM) SetMod(b byte) { *m = (*m & 0b00111111) | ((ModRM(b) & 0b11) << 6) }
func (m *ModRM) SetReg(b byte) { *m = (*m & 0b11000111) | ((ModRM(b) & 0b111) << 3) }
func (m *ModRM) SetRM(b byte)  { *m = (*m & 0b11111000) | ((ModRM(b) & 0b111) << 0) }

func (m ModRM) String() string {
	return fmt.Sprintf("{Mod: %02b, Reg: %03b, R/M: %03b}", m.Mod(), m.Reg(), m.RM())
}

// SIB provides helper functionality for reading and
// writing a Scale/Index/Base byte.
type SIB byte

const (
	SIBscale1 SIB = 0b00_000_000
	SIBscale2 SIB = 0b01_000_000
	SIBscale4 SIB = 0b10_000_000
	SIBscale8 SIB = 0b11_000_000

	// Section 2.1.5, table 2.3, Index column: index=100
	// means "no index register".
	SIBindexNone byte = 0b100

	// Section 2.1.5, table 2.3, Base row: with mod=00,
	// base=101 means "no base register, disp32 follows".
	SIBbaseNone byte = 0b101
)

func (s SIB) Scale() byte      { return byte(s&0b11000000) >> 6 }
func (s SIB) Index() byte      { return byte(s&0b00111000) >> 3 }
func (s SIB) Base() byte       { return byte(s&0b00000111) >> 0 }
func (s *SIB) SetScale(b byte) { *s = (*s & 0b00111111) | ((SIB(b) & 0b11) << 6) }
func (s *SIB) SetIndex(b byte) { *s = (*s & 0b11000111) | ((SIB(b) & 0b111) << 3) }
func (s *SIB) SetBase(b byte)  { *s = (*s & 0b11111000) | ((SIB(b) & 0b111) << 0) }

func (s SIB) String() string {
	return fmt.Sprintf("{Scale: %02b, Index: %03b, Base: %03b}", s.Scale(), s.Index(), s.Base())
}

// ScaleEncoding returns the 2-bit SIB scale field for one
// of the four legal scale factors (1, 2, 4, 8).
func ScaleEncoding(scale uint8) (byte, error) {
	switch scale {
	case 1:
		return 0b00, nil
	case 2:
		return 0b01, nil
	case 4:
		return 0b10, nil
	case 8:
		return 0b11, nil
	default:
		return 0, fmt.Errorf("x86: invalid SIB scale %d", scale)
	}
}
