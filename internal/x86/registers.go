// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package x86

import "fmt"

// Kind categorises an x86 register
// into the bank it belongs to.
type Kind uint8

const (
	_ Kind = iota
	KindGeneralPurpose
	KindInstructionPointer
	KindSegment
	KindX87
	KindControl
	KindDebug
	KindMMX
	KindXMM
	KindYMM
	KindZMM
)

func (k Kind) String() string {
	switch k {
	case KindGeneralPurpose:
		return "general purpose register"
	case KindInstructionPointer:
		return "instruction pointer register"
	case KindSegment:
		return "segment register"
	case KindX87:
		return "x87 register"
	case KindControl:
		return "control register"
	case KindDebug:
		return "debug register"
	case KindMMX:
		return "MMX register"
	case KindXMM:
		return "XMM register"
	case KindYMM:
		return "YMM register"
	case KindZMM:
		return "ZMM register"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Register contains information about an x86
// register, including its size in bits and the
// numeric index used to encode it.
//
// Index carries the full 5-bit encoding (0-31)
// for the extended AVX-512 register files; only
// the low 4 bits are relevant until EVEX support
// is added, which this assembler does not need.
type Register struct {
	Name  string
	Kind  Kind
	Bits  int
	Index byte // The 5-bit encoding used for ModR/M.reg and opcode-embedded forms.
	Addr  byte // The encoding used when the register is a memory base/index.
}

func (r *Register) String() string { return r.Name }

// RequiresREX reports whether encoding r always
// forces a REX prefix to be emitted, even if no
// extension bit would otherwise be set. This is
// true only for SPL, BPL, SIL and DIL, which would
// otherwise be indistinguishable from AH, CH, DH
// and BH.
func (r *Register) RequiresREX() bool {
	switch r {
	case SPL, BPL, SIL, DIL:
		return true
	}

	return false
}

// ModRM returns the fields needed to encode r in
// a ModR/M byte (or an opcode-embedded register, or
// a VEX.vvvv field): whether a REX prefix is needed
// to access the register at all (rex), whether the
// register's index requires the relevant REX
// extension bit to be set (ext), and the 3-bit
// encoding to place in the ModR/M field itself.
func (r *Register) ModRM() (rex, ext bool, reg byte) {
	rex = r.Index > 7 || r.RequiresREX()
	ext = (r.Index & 0b1000) != 0
	return rex, ext, r.Index & 0b111
}

// Base returns the fields needed to encode r as the
// base (or SIB-embedded) register of a memory operand.
func (r *Register) Base() (rex, ext bool, reg byte) {
	rex = r.Addr > 7 || r.RequiresREX()
	ext = (r.Addr & 0b1000) != 0
	return rex, ext, r.Addr & 0b111
}

// VEXvvvv returns the 4-bit identifier used in the
// VEX.vvvv field, encoded as the one's complement of
// the register's index as required by the VEX prefix
// format (Intel SDM Volume 2A, Section 2.3.5).
func (r *Register) VEXvvvv() byte {
	return ^r.Index & 0xf
}

// AsMMX reinterprets an x87 stack register as the MMX
// register that shares its 3-bit index, following the
// explicit-conversion approach noted in the original
// assembler's design rather than relying on
// representation punning.
func (r *Register) AsMMX() *Register {
	if r.Kind != KindX87 {
		panic("x86: AsMMX called on non-x87 register " + r.Name)
	}

	return Registers64bitMMX[r.Index&0b111]
}

// AsX87 reinterprets an MMX register as the x87 stack
// register that shares its 3-bit index.
func (r *Register) AsX87() *Register {
	if r.Kind != KindMMX {
		panic("x86: AsX87 called on non-MMX register " + r.Name)
	}

	return RegistersStackIndices[r.Index&0b111]
}

var (
	// 8-bit registers.
	AL  = &Register{Name: "al", Kind: KindGeneralPurpose, Bits: 8, Index: 0x0, Addr: 0x0}
	CL  = &Register{Name: "cl", Kind: KindGeneralPurpose, Bits: 8, Index: 0x1, Addr: 0x1}
	DL  = &Register{Name: "dl", Kind: KindGeneralPurpose, Bits: 8, Index: 0x2, Addr: 0x2}
	BL  = &Register{Name: "bl", Kind: KindGeneralPurpose, Bits: 8, Index: 0x3, Addr: 0x3}
	AH  = &Register{Name: "ah", Kind: KindGeneralPurpose, Bits: 8, Index: 0x4, Addr: 0x4}
	CH  = &Register{Name: "ch", Kind: KindGeneralPurpose, Bits: 8, Index: 0x5, Addr: 0x5}
	DH  = &Register{Name: "dh", Kind: KindGeneralPurpose, Bits: 8, Index: 0x6, Addr: 0x6}
	BH  = &Register{Name: "bh", Kind: KindGeneralPurpose, Bits: 8, Index: 0x7, Addr: 0x7}
	SPL = &Register{Name: "spl", Kind: KindGeneralPurpose, Bits: 8, Index: 0x4, Addr: 0x4}
	BPL = &Register{Name: "bpl", Kind: KindGeneralPurpose, Bits: 8, Index: 0x5, Addr: 0x5}
	SIL = &Register{Name: "sil", Kind: KindGeneralPurpose, Bits: 8, Index: 0x6, Addr: 0x6}
	DIL = &Register{Name: "dil", Kind: KindGeneralPurpose, Bits: 8, Index: 0x7, Addr: 0x7}
	R8L = &Register{Name: "r8l", Kind: KindGeneralPurpose, Bits: 8, Index: 0x8, Addr: 0x8}
	R9L = &Register{Name: "r9l", Kind: KindGeneralPurpose, Bits: 8, Index: 0x9, Addr: 0x9}

	// 32-bit registers.
	EAX = &Register{Name: "eax", Kind: KindGeneralPurpose, Bits: 32, Index: 0x0, Addr: 0x0}
	ECX = &Register{Name: "ecx", Kind: KindGeneralPurpose, Bits: 32, Index: 0x1, Addr: 0x1}
	EDX = &Register{Name: "edx", Kind: KindGeneralPurpose, Bits: 32, Index: 0x2, Addr: 0x2}
	EBX = &Register{Name: "ebx", Kind: KindGeneralPurpose, Bits: 32, Index: 0x3, Addr: 0x3}
	ESP = &Register{Name: "esp", Kind: KindGeneralPurpose, Bits: 32, Index: 0x4, Addr: 0x4}
	EBP = &Register{Name: "ebp", Kind: KindGeneralPurpose, Bits: 32, Index: 0x5, Addr: 0x5}
	ESI = &Register{Name: "esi", Kind: KindGeneralPurpose, Bits: 32, Index: 0x6, Addr: 0x6}
	EDI = &Register{Name: "edi", Kind: KindGeneralPurpose, Bits: 32, Index: 0x7, Addr: 0x7}

	R8D  = &Register{Name: "r8d", Kind: KindGeneralPurpose, Bits: 32, Index: 0x8, Addr: 0x8}
	R9D  = &Register{Name: "r9d", Kind: KindGeneralPurpose, Bits: 32, Index: 0x9, Addr: 0x9}
	R10D = &Register{Name: "r10d", Kind: KindGeneralPurpose, Bits: 32, Index: 0xa, Addr: 0xa}
	R11D = &Register{Name: "r11d", Kind: KindGeneralPurpose, Bits: 32, Index: 0xb, Addr: 0xb}
	R12D = &Register{Name: "r12d", Kind: KindGeneralPurpose, Bits: 32, Index: 0xc, Addr: 0xc}
	R13D = &Register{Name: "r13d", Kind: KindGeneralPurpose, Bits: 32, Index: 0xd, Addr: 0xd}
	R14D = &Register{Name: "r14d", Kind: KindGeneralPurpose, Bits: 32, Index: 0xe, Addr: 0xe}
	R15D = &Register{Name: "r15d", Kind: KindGeneralPurpose, Bits: 32, Index: 0xf, Addr: 0xf}

	// 64-bit registers.
	RAX = &Register{Name: "rax", Kind: KindGeneralPurpose, Bits: 64, Index: 0x0, Addr: 0x0}
	RCX = &Register{Name: "rcx", Kind: KindGeneralPurpose, Bits: 64, Index: 0x1, Addr: 0x1}
	RDX = &Register{Name: "rdx", Kind: KindGeneralPurpose, Bits: 64, Index: 0x2, Addr: 0x2}
	RBX = &Register{Name: "rbx", Kind: KindGeneralPurpose, Bits: 64, Index: 0x3, Addr: 0x3}
	RSP = &Register{Name: "rsp", Kind: KindGeneralPurpose, Bits: 64, Index: 0x4, Addr: 0x4}
	RBP = &Register{Name: "rbp", Kind: KindGeneralPurpose, Bits: 64, Index: 0x5, Addr: 0x5}
	RSI = &Register{Name: "rsi", Kind: KindGeneralPurpose, Bits: 64, Index: 0x6, Addr: 0x6}
	RDI = &Register{Name: "rdi", Kind: KindGeneralPurpose, Bits: 64, Index: 0x7, Addr: 0x7}

	R8  = &Register{Name: "r8", Kind: KindGeneralPurpose, Bits: 64, Index: 0x8, Addr: 0x8}
	R9  = &Register{Name: "r9", Kind: KindGeneralPurpose, Bits: 64, Index: 0x9, Addr: 0x9}
	R10 = &Register{Name: "r10", Kind: KindGeneralPurpose, Bits: 64, Index: 0xa, Addr: 0xa}
	R11 = &Register{Name: "r11", Kind: KindGeneralPurpose, Bits: 64, Index: 0xb, Addr: 0xb}
	R12 = &Register{Name: "r12", Kind: KindGeneralPurpose, Bits: 64, Index: 0xc, Addr: 0xc}
	R13 = &Register{Name: "r13", Kind: KindGeneralPurpose, Bits: 64, Index: 0xd, Addr: 0xd}
	R14 = &Register{Name: "r14", Kind: KindGeneralPurpose, Bits: 64, Index: 0xe, Addr: 0xe}
	R15 = &Register{Name: "r15", Kind: KindGeneralPurpose, Bits: 64, Index: 0xf, Addr: 0xf}

	// Instruction pointer.
	RIP = &Register{Name: "rip", Kind: KindInstructionPointer, Bits: 64, Addr: 0x5}

	// Segment registers.
	ES = &Register{Name: "es", Kind: KindSegment, Bits: 16, Index: 0x0}
	CS = &Register{Name: "cs", Kind: KindSegment, Bits: 16, Index: 0x1}
	SS = &Register{Name: "ss", Kind: KindSegment, Bits: 16, Index: 0x2}
	DS = &Register{Name: "ds", Kind: KindSegment, Bits: 16, Index: 0x3}
	FS = &Register{Name: "fs", Kind: KindSegment, Bits: 16, Index: 0x4}
	GS = &Register{Name: "gs", Kind: KindSegment, Bits: 16, Index: 0x5}

	// x87 floating point stack positions.
	ST0 = &Register{Name: "st0", Kind: KindX87, Bits: 80, Index: 0}
	ST1 = &Register{Name: "st1", Kind: KindX87, Bits: 80, Index: 1}
	ST2 = &Register{Name: "st2", Kind: KindX87, Bits: 80, Index: 2}
	ST3 = &Register{Name: "st3", Kind: KindX87, Bits: 80, Index: 3}
	ST4 = &Register{Name: "st4", Kind: KindX87, Bits: 80, Index: 4}
	ST5 = &Register{Name: "st5", Kind: KindX87, Bits: 80, Index: 5}
	ST6 = &Register{Name: "st6", Kind: KindX87, Bits: 80, Index: 6}
	ST7 = &Register{Name: "st7", Kind: KindX87, Bits: 80, Index: 7}

	// Control registers.
	CR0 = &Register{Name: "cr0", Kind: KindControl, Index: 0}
	CR2 = &Register{Name: "cr2", Kind: KindControl, Index: 2}
	CR3 = &Register{Name: "cr3", Kind: KindControl, Index: 3}
	CR4 = &Register{Name: "cr4", Kind: KindControl, Index: 4}
	CR8 = &Register{Name: "cr8", Kind: KindControl, Index: 8}

	// Debug registers.
	DR0 = &Register{Name: "dr0", Kind: KindDebug, Index: 0}
	DR7 = &Register{Name: "dr7", Kind: KindDebug, Index: 7}

	// MMX registers.
	MMX0 = &Register{Name: "mmx0", Kind: KindMMX, Bits: 64, Index: 0x0, Addr: 0x0}
	MMX1 = &Register{Name: "mmx1", Kind: KindMMX, Bits: 64, Index: 0x1, Addr: 0x1}
	MMX2 = &Register{Name: "mmx2", Kind: KindMMX, Bits: 64, Index: 0x2, Addr: 0x2}
	MMX3 = &Register{Name: "mmx3", Kind: KindMMX, Bits: 64, Index: 0x3, Addr: 0x3}
	MMX4 = &Register{Name: "mmx4", Kind: KindMMX, Bits: 64, Index: 0x4, Addr: 0x4}
	MMX5 = &Register{Name: "mmx5", Kind: KindMMX, Bits: 64, Index: 0x5, Addr: 0x5}
	MMX6 = &Register{Name: "mmx6", Kind: KindMMX, Bits: 64, Index: 0x6, Addr: 0x6}
	MMX7 = &Register{Name: "mmx7", Kind: KindMMX, Bits: 64, Index: 0x7, Addr: 0x7}

	// XMM registers (0-15; the extended AVX-512 set is out of
	// scope, since this assembler does not support EVEX).
	XMM0  = &Register{Name: "xmm0", Kind: KindXMM, Bits: 128, Index: 0x0, Addr: 0x0}
	XMM1  = &Register{Name: "xmm1", Kind: KindXMM, Bits: 128, Index: 0x1, Addr: 0x1}
	XMM2  = &Register{Name: "xmm2", Kind: KindXMM, Bits: 128, Index: 0x2, Addr: 0x2}
	XMM3  = &Register{Name: "xmm3", Kind: KindXMM, Bits: 128, Index: 0x3, Addr: 0x3}
	XMM4  = &Register{Name: "xmm4", Kind: KindXMM, Bits: 128, Index: 0x4, Addr: 0x4}
	XMM5  = &Register{Name: "xmm5", Kind: KindXMM, Bits: 128, Index: 0x5, Addr: 0x5}
	XMM6  = &Register{Name: "xmm6", Kind: KindXMM, Bits: 128, Index: 0x6, Addr: 0x6}
	XMM7  = &Register{Name: "xmm7", Kind: KindXMM, Bits: 128, Index: 0x7, Addr: 0x7}
	XMM8  = &Register{Name: "xmm8", Kind: KindXMM, Bits: 128, Index: 0x8, Addr: 0x8}
	XMM9  = &Register{Name: "xmm9", Kind: KindXMM, Bits: 128, Index: 0x9, Addr: 0x9}
	XMM10 = &Register{Name: "xmm10", Kind: KindXMM, Bits: 128, Index: 0xa, Addr: 0xa}
	XMM11 = &Register{Name: "xmm11", Kind: KindXMM, Bits: 128, Index: 0xb, Addr: 0xb}
	XMM12 = &Register{Name: "xmm12", Kind: KindXMM, Bits: 128, Index: 0xc, Addr: 0xc}
	XMM13 = &Register{Name: "xmm13", Kind: KindXMM, Bits: 128, Index: 0xd, Addr: 0xd}
	XMM14 = &Register{Name: "xmm14", Kind: KindXMM, Bits: 128, Index: 0xe, Addr: 0xe}
	XMM15 = &Register{Name: "xmm15", Kind: KindXMM, Bits: 128, Index: 0xf, Addr: 0xf}

	// YMM registers (0-15).
	YMM0  = &Register{Name: "ymm0", Kind: KindYMM, Bits: 256, Index: 0x0, Addr: 0x0}
	YMM1  = &Register{Name: "ymm1", Kind: KindYMM, Bits: 256, Index: 0x1, Addr: 0x1}
	YMM2  = &Register{Name: "ymm2", Kind: KindYMM, Bits: 256, Index: 0x2, Addr: 0x2}
	YMM3  = &Register{Name: "ymm3", Kind: KindYMM, Bits: 256, Index: 0x3, Addr: 0x3}
	YMM4  = &Register{Name: "ymm4", Kind: KindYMM, Bits: 256, Index: 0x4, Addr: 0x4}
	YMM5  = &Register{Name: "ymm5", Kind: KindYMM, Bits: 256, Index: 0x5, Addr: 0x5}
	YMM6  = &Register{Name: "ymm6", Kind: KindYMM, Bits: 256, Index: 0x6, Addr: 0x6}
	YMM7  = &Register{Name: "ymm7", Kind: KindYMM, Bits: 256, Index: 0x7, Addr: 0x7}
	YMM8  = &Register{Name: "ymm8", Kind: KindYMM, Bits: 256, Index: 0x8, Addr: 0x8}
	YMM9  = &Register{Name: "ymm9", Kind: KindYMM, Bits: 256, Index: 0x9, Addr: 0x9}
	YMM10 = &Register{Name: "ymm10", Kind: KindYMM, Bits: 256, Index: 0xa, Addr: 0xa}
	YMM11 = &Register{Name: "ymm11", Kind: KindYMM, Bits: 256, Index: 0xb, Addr: 0xb}
	YMM12 = &Register{Name: "ymm12", Kind: KindYMM, Bits: 256, Index: 0xc, Addr: 0xc}
	YMM13 = &Register{Name: "ymm13", Kind: KindYMM, Bits: 256, Index: 0xd, Addr: 0xd}
	YMM14 = &Register{Name: "ymm14", Kind: KindYMM, Bits: 256, Index: 0xe, Addr: 0xe}
	YMM15 = &Register{Name: "ymm15", Kind: KindYMM, Bits: 256, Index: 0xf, Addr: 0xf}
)

// Registers8bitGeneralPurpose contains the 8-bit
// general purpose registers, including the
// REX-only SPL/BPL/SIL/DIL quartet.
var Registers8bitGeneralPurpose = []*Register{
	AL, CL, DL, BL, AH, CH, DH, BH, SPL, BPL, SIL, DIL, R8L, R9L,
}

// Registers32bitGeneralPurpose contains the
// 32-bit general purpose registers.
var Registers32bitGeneralPurpose = []*Register{
	EAX, ECX, EDX, EBX, ESP, EBP, ESI, EDI,
	R8D, R9D, R10D, R11D, R12D, R13D, R14D, R15D,
}

// Registers64bitGeneralPurpose contains the
// 64-bit general purpose registers.
var Registers64bitGeneralPurpose = []*Register{
	RAX, RCX, RDX, RBX, RSP, RBP, RSI, RDI,
	R8, R9, R10, R11, R12, R13, R14, R15,
}

// RegistersAddress contains the registers that can
// be used as a memory operand's base register.
var RegistersAddress = []*Register{
	EAX, ECX, EDX, EBX, ESP, EBP, ESI, EDI,
	R8D, R9D, R10D, R11D, R12D, R13D, R14D, R15D,
	RAX, RCX, RDX, RBX, RSP, RBP, RSI, RDI,
	R8, R9, R10, R11, R12, R13, R14, R15, RIP,
}

// RegistersStackIndices contains the x87 FPU stack
// indices, in index order (ST(0)-ST(7)).
var RegistersStackIndices = []*Register{
	ST0, ST1, ST2, ST3, ST4, ST5, ST6, ST7,
}

// Registers64bitMMX contains the MMX registers, in
// index order.
var Registers64bitMMX = []*Register{
	MMX0, MMX1, MMX2, MMX3, MMX4, MMX5, MMX6, MMX7,
}

// Registers128bitXMM contains the XMM registers
// addressable without EVEX, in index order.
var Registers128bitXMM = []*Register{
	XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7,
	XMM8, XMM9, XMM10, XMM11, XMM12, XMM13, XMM14, XMM15,
}

// Registers256bitYMM contains the YMM registers
// addressable without EVEX, in index order.
var Registers256bitYMM = []*Register{
	YMM0, YMM1, YMM2, YMM3, YMM4, YMM5, YMM6, YMM7,
	YMM8, YMM9, YMM10, YMM11, YMM12, YMM13, YMM14, YMM15,
}
