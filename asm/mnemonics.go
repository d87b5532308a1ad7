// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package asm

import (
	"encoding/binary"
	"fmt"

	"github.com/ProjectSerenity/x86jit/internal/x86"
)

// This file contains the typed, public mnemonic emitters. Each one
// builds an operandInstr describing the instruction's prefixes,
// opcode, ModR/M, SIB, displacement and immediate bytes, then hands
// it to operandInstr.emit. The supported set is a representative
// slice of the mnemonic table (control flow, data movement,
// arithmetic/logic, stack, and one AVX form) rather than the
// exhaustive thousand-plus-form table, whose size is dominated by
// data, not control flow.

// RET emits a near return, C3.
func (s *Stream) RET() {
	s.emitter.EmitU8(0xc3)
}

// NOP emits a single-byte no-op, 90.
func (s *Stream) NOP() {
	s.emitter.EmitU8(0x90)
}

// MovRegImm64 emits MOV r64, imm64 (opcode B8+rd io).
func (s *Stream) MovRegImm64(dst *x86.Register, imm int64) error {
	if dst.Bits != 64 {
		return fmt.Errorf("asm: MovRegImm64 requires a 64-bit register, got %s", dst)
	}

	in := &operandInstr{opcode: []byte{0xb8}}
	in.rex.w = true
	in.setRegOpcode(dst)

	var imm64 [8]byte
	binary.LittleEndian.PutUint64(imm64[:], uint64(imm))
	in.imm = imm64[:]

	in.emit(s.emitter)
	return nil
}

// MovRegImm32 emits MOV r32, imm32 (opcode B8+rd id).
func (s *Stream) MovRegImm32(dst *x86.Register, imm int32) error {
	if dst.Bits != 32 {
		return fmt.Errorf("asm: MovRegImm32 requires a 32-bit register, got %s", dst)
	}

	in := &operandInstr{opcode: []byte{0xb8}}
	in.setRegOpcode(dst)

	var imm32 [4]byte
	binary.LittleEndian.PutUint32(imm32[:], uint32(imm))
	in.imm = imm32[:]

	in.emit(s.emitter)
	return nil
}

// MovRegReg emits MOV r/m, r (opcode 89 /r), the register-to-register
// form, for 32- or 64-bit general purpose registers.
func (s *Stream) MovRegReg(dst, src *x86.Register) error {
	if dst.Bits != src.Bits || (dst.Bits != 32 && dst.Bits != 64) {
		return fmt.Errorf("asm: MovRegReg requires matching 32- or 64-bit registers, got %s, %s", dst, src)
	}

	in := &operandInstr{opcode: []byte{0x89}}
	in.rex.w = dst.Bits == 64
	in.setReg(src)
	in.setRegDirect(dst)
	in.emit(s.emitter)
	return nil
}

// LEA emits LEA r64, m (opcode 8D /r).
func (s *Stream) LEA(dst *x86.Register, src *x86.Memory) error {
	if dst.Bits != 64 {
		return fmt.Errorf("asm: LEA requires a 64-bit destination register, got %s", dst)
	}

	in := &operandInstr{opcode: []byte{0x8d}}
	in.rex.w = true
	in.setReg(dst)
	if err := in.setMemory(src); err != nil {
		return err
	}

	in.emit(s.emitter)
	return nil
}

// arithOp names one of the /digit arithmetic operations sharing the
// ADD/OR/ADC/SBB/AND/SUB/XOR/CMP opcode family layout.
type arithOp byte

const (
	OpAdd arithOp = 0
	OpOr  arithOp = 1
	OpAnd arithOp = 4
	OpSub arithOp = 5
	OpXor arithOp = 6
	OpCmp arithOp = 7
)

// ArithRegImm8 emits the short imm8-sign-extended form of op against
// a 32- or 64-bit register (opcode 83 /digit ib), e.g. ADD EAX, 1 ->
// 83 C0 01.
func (s *Stream) ArithRegImm8(op arithOp, dst *x86.Register, imm int8) error {
	if dst.Bits != 32 && dst.Bits != 64 {
		return fmt.Errorf("asm: ArithRegImm8 requires a 32- or 64-bit register, got %s", dst)
	}

	in := &operandInstr{opcode: []byte{0x83}}
	in.rex.w = dst.Bits == 64
	in.modrm.SetReg(byte(op))
	in.setRegDirect(dst)
	in.imm = []byte{byte(imm)}
	in.emit(s.emitter)
	return nil
}

// ArithRegImm emits op against a 32- or 64-bit register using
// whichever immediate form the value's Narrowest width allows: the
// imm8 sign-extended form (opcode 83 /digit ib) when imm fits in 8
// bits, otherwise the imm32 form (opcode 81 /digit id). This is the
// tie-break rule that picks the most compact encoding an instruction
// supports, rather than always emitting the widest immediate field.
func (s *Stream) ArithRegImm(op arithOp, dst *x86.Register, imm x86.Immediate) error {
	if dst.Bits != 32 && dst.Bits != 64 {
		return fmt.Errorf("asm: ArithRegImm requires a 32- or 64-bit register, got %s", dst)
	}

	if imm.Narrowest() <= 8 {
		return s.ArithRegImm8(op, dst, int8(imm.Value))
	}

	wide, ok := x86.Immediate{Bits: imm.Narrowest(), Value: imm.Value}.Widen(32)
	if !ok {
		return fmt.Errorf("asm: immediate %s does not fit in 32 bits", imm)
	}

	in := &operandInstr{opcode: []byte{0x81}}
	in.rex.w = dst.Bits == 64
	in.modrm.SetReg(byte(op))
	in.setRegDirect(dst)

	var imm32 [4]byte
	binary.LittleEndian.PutUint32(imm32[:], uint32(wide.Value))
	in.imm = imm32[:]

	in.emit(s.emitter)
	return nil
}

// ArithRegReg emits the register-register form of op (opcode
// base+1 /r, where base is op's 8-bit-operand opcode), e.g.
// ArithRegReg(OpAdd, ...) emits ADD r/m, r (01 /r).
func (s *Stream) ArithRegReg(op arithOp, dst, src *x86.Register) error {
	if dst.Bits != src.Bits || (dst.Bits != 32 && dst.Bits != 64) {
		return fmt.Errorf("asm: ArithRegReg requires matching 32- or 64-bit registers, got %s, %s", dst, src)
	}

	in := &operandInstr{opcode: []byte{byte(op)<<3 + 1}}
	in.rex.w = dst.Bits == 64
	in.setReg(src)
	in.setRegDirect(dst)
	in.emit(s.emitter)
	return nil
}

// PUSH emits PUSH r64 (opcode 50+rd).
func (s *Stream) PUSH(reg *x86.Register) error {
	if reg.Bits != 64 {
		return fmt.Errorf("asm: PUSH requires a 64-bit register, got %s", reg)
	}

	in := &operandInstr{opcode: []byte{0x50}}
	in.setRegOpcode(reg)
	in.emit(s.emitter)
	return nil
}

// POP emits POP r64 (opcode 58+rd).
func (s *Stream) POP(reg *x86.Register) error {
	if reg.Bits != 64 {
		return fmt.Errorf("asm: POP requires a 64-bit register, got %s", reg)
	}

	in := &operandInstr{opcode: []byte{0x58}}
	in.setRegOpcode(reg)
	in.emit(s.emitter)
	return nil
}

// IncDec selects INC or DEC for INCDEC.
type IncDec byte

const (
	Inc IncDec = 0
	Dec IncDec = 1
)

// INCDEC emits INC or DEC r/m (opcode FF /0 or FF /1).
func (s *Stream) INCDEC(which IncDec, reg *x86.Register) error {
	if reg.Bits != 32 && reg.Bits != 64 {
		return fmt.Errorf("asm: INCDEC requires a 32- or 64-bit register, got %s", reg)
	}

	in := &operandInstr{opcode: []byte{0xff}}
	in.rex.w = reg.Bits == 64
	in.modrm.SetReg(byte(which))
	in.setRegDirect(reg)
	in.emit(s.emitter)
	return nil
}

// TEST emits TEST r/m, r (opcode 85 /r).
func (s *Stream) TEST(a, b *x86.Register) error {
	if a.Bits != b.Bits || (a.Bits != 32 && a.Bits != 64) {
		return fmt.Errorf("asm: TEST requires matching 32- or 64-bit registers, got %s, %s", a, b)
	}

	in := &operandInstr{opcode: []byte{0x85}}
	in.rex.w = a.Bits == 64
	in.setReg(b)
	in.setRegDirect(a)
	in.emit(s.emitter)
	return nil
}

// JMPRel8ToLabel emits a short (8-bit) unconditional jump to label
// (opcode EB cb). The cursor is bookmarked before the opcode byte is
// written, so on ShortJmpOverflow the whole instruction (opcode and
// reserved displacement byte alike) is rolled back, leaving the
// cursor at its pre-emit value; the caller should retry with
// JMPRel32ToLabel.
func (s *Stream) JMPRel8ToLabel(label Label) ShortJmpResult {
	s.emitter.StoreBookmark()
	s.emitter.EmitU8(0xeb)
	result := s.resolver.Rel8ToLabel(label)
	if result == ShortJmpOverflow {
		s.emitter.ResetToBookmark()
	}
	return result
}

// JMPRel32ToLabel emits a near (32-bit) unconditional jump to label
// (opcode E9 cd).
func (s *Stream) JMPRel32ToLabel(label Label) {
	s.emitter.EmitU8(0xe9)
	s.resolver.Rel32ToLabel(label)
}

// CALLRel32ToLabel emits a near call to label (opcode E8 cd).
func (s *Stream) CALLRel32ToLabel(label Label) {
	s.emitter.EmitU8(0xe8)
	s.resolver.Rel32ToLabel(label)
}

// Condition identifies one of the Jcc condition codes.
type Condition byte

const (
	CondO  Condition = 0x0
	CondNO Condition = 0x1
	CondB  Condition = 0x2
	CondAE Condition = 0x3
	CondE  Condition = 0x4
	CondNE Condition = 0x5
	CondBE Condition = 0x6
	CondA  Condition = 0x7
	CondS  Condition = 0x8
	CondNS Condition = 0x9
	CondL  Condition = 0xc
	CondGE Condition = 0xd
	CondLE Condition = 0xe
	CondG  Condition = 0xf
)

// JccRel8ToLabel emits a short conditional jump to label (opcode
// 70+cc cb). As with JMPRel8ToLabel, the cursor is bookmarked before
// the opcode byte, so overflow rolls the whole instruction back to
// the pre-emit cursor and returns ShortJmpOverflow.
func (s *Stream) JccRel8ToLabel(cond Condition, label Label) ShortJmpResult {
	s.emitter.StoreBookmark()
	s.emitter.EmitU8(0x70 + byte(cond))
	result := s.resolver.Rel8ToLabel(label)
	if result == ShortJmpOverflow {
		s.emitter.ResetToBookmark()
	}
	return result
}

// JccRel32ToLabel emits a near conditional jump to label (opcode
// 0F 80+cc cd).
func (s *Stream) JccRel32ToLabel(cond Condition, label Label) {
	s.emitter.EmitU8(0x0f)
	s.emitter.EmitU8(0x80 + byte(cond))
	s.resolver.Rel32ToLabel(label)
}

// VADDPS emits VADDPS ymm1, ymm2, ymm3 (VEX.256.0F.WIG 58 /r),
// the packed single-precision floating point add.
func (s *Stream) VADDPS(dst, src1, src2 *x86.Register) error {
	if dst.Kind != x86.KindYMM || src1.Kind != x86.KindYMM || src2.Kind != x86.KindYMM {
		return fmt.Errorf("asm: VADDPS requires YMM operands, got %s, %s, %s", dst, src1, src2)
	}

	_, rExt, _ := dst.ModRM()
	_, bExt, _ := src2.ModRM()
	v := vexFields(true, 0b00, 0b0_0001, false, src1, rExt, false, bExt)

	emitVEX(s.emitter, v)
	s.emitter.EmitU8(0x58)

	in := &operandInstr{}
	in.setReg(dst)
	in.setRegDirect(src2)
	s.emitter.EmitU8(uint8(in.modrm))
	return nil
}
