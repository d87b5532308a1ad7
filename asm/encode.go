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

// rexState accumulates the REX bits implied by one instruction's
// operands, following §4.3 step 5.
type rexState struct {
	w, r, x, b bool
	force      bool // Set for SPL/BPL/SIL/DIL operands, forcing REX even with no extension bits.
}

func (s *rexState) byte() x86.REX {
	var rex x86.REX
	if s.w || s.r || s.x || s.b || s.force {
		rex.SetOn()
	}
	rex.SetW(s.w)
	rex.SetR(s.r)
	rex.SetX(s.x)
	rex.SetB(s.b)
	return rex
}

// operandInstr is the shared state for one instruction being built:
// the REX bits seen so far and the eventual opcode/ModRM/SIB/disp
// bytes. Mnemonics in mnemonics.go populate this then call emit.
type operandInstr struct {
	prefixes []x86.Prefix
	rex      rexState
	opcode   []byte
	useModRM bool
	modrm    x86.ModRM
	useSIB   bool
	sib      x86.SIB
	disp     []byte
	imm      []byte
}

// setRegDirect configures ModR/M for a register-direct operand in
// the rm field (mod=11).
func (in *operandInstr) setRegDirect(reg *x86.Register) {
	rex, ext, field := reg.ModRM()
	in.rex.b = in.rex.b || ext
	in.rex.force = in.rex.force || (rex && !ext)
	in.useModRM = true
	in.modrm.SetMod(0b11)
	in.modrm.SetRM(field)
}

// setReg configures ModR/M.reg for reg (the instruction's "reg"
// operand, as opposed to "rm").
func (in *operandInstr) setReg(reg *x86.Register) {
	rex, ext, field := reg.ModRM()
	in.rex.r = in.rex.r || ext
	in.rex.force = in.rex.force || (rex && !ext)
	in.useModRM = true
	in.modrm.SetReg(field)
}

// setRegOpcode embeds reg's 3-bit index into the low bits of the
// last opcode byte (the "ToOpcode" form used by e.g. PUSH r64).
func (in *operandInstr) setRegOpcode(reg *x86.Register) {
	rex, ext, field := reg.ModRM()
	in.rex.b = in.rex.b || ext
	in.rex.force = in.rex.force || (rex && !ext)
	in.opcode[len(in.opcode)-1] += field
}

// setMemory configures ModR/M, SIB and displacement for a memory
// operand, following §4.3 step 8's edge cases.
func (in *operandInstr) setMemory(mem *x86.Memory) error {
	in.useModRM = true

	if mem.Segment != nil {
		switch mem.Segment {
		case x86.ES:
			in.prefixes = append(in.prefixes, x86.PrefixES)
		case x86.CS:
			in.prefixes = append(in.prefixes, x86.PrefixCS)
		case x86.SS:
			in.prefixes = append(in.prefixes, x86.PrefixSS)
		case x86.DS:
			in.prefixes = append(in.prefixes, x86.PrefixDS)
		case x86.FS:
			in.prefixes = append(in.prefixes, x86.PrefixFS)
		case x86.GS:
			in.prefixes = append(in.prefixes, x86.PrefixGS)
		default:
			return fmt.Errorf("asm: invalid segment register %s", mem.Segment)
		}
	}

	// Address-size override: a 32-bit base or index selects 32-bit
	// addressing.
	if (mem.Base != nil && mem.Base.Bits == 32) || (mem.Index != nil && mem.Index.Bits == 32) {
		in.prefixes = append(in.prefixes, x86.PrefixAddressSize)
	}

	switch {
	case mem.Base == x86.RIP, mem.Base == nil && mem.Index == nil && !mem.AbsoluteIn64:
		// [RIP + disp32]: mod=00, rm=101, disp32 follows. A bare
		// base-less, index-less operand defaults to this form unless
		// AbsoluteIn64 forces the SIB-addressed absolute form below.
		in.modrm.SetMod(0b00)
		in.modrm.SetRM(0b101)
		in.disp = encodeDisp32(mem.Displacement)
		return nil

	case mem.Base == nil && mem.Index == nil && mem.AbsoluteIn64:
		// Absolute [disp32]: mod=00, rm=100 (SIB), SIB base=101
		// (none), index=100 (none), disp32 = absolute address.
		in.modrm.SetMod(0b00)
		in.modrm.SetRM(0b100)
		in.useSIB = true
		in.sib.SetScale(0)
		in.sib.SetIndex(x86.SIBindexNone)
		in.sib.SetBase(x86.SIBbaseNone)
		in.disp = encodeDisp32(mem.Displacement)
		return nil

	case mem.Index != nil:
		// [base + index*scale + disp] (base may be nil, which is
		// encoded as SIB base=none with an explicit disp32).
		in.useSIB = true
		scale, err := x86.ScaleEncoding(mem.Scale)
		if err != nil {
			return err
		}

		_, indexExt, indexField := mem.Index.Base()
		in.rex.x = in.rex.x || indexExt
		in.sib.SetScale(scale)
		in.sib.SetIndex(indexField)

		in.modrm.SetRM(0b100)

		if mem.Base == nil {
			in.modrm.SetMod(0b00)
			in.sib.SetBase(x86.SIBbaseNone)
			in.disp = encodeDisp32(mem.Displacement)
			return nil
		}

		baseRex, baseExt, baseField := mem.Base.Base()
		in.rex.b = in.rex.b || baseExt
		in.rex.force = in.rex.force || (baseRex && !baseExt)
		in.sib.SetBase(baseField)

		return in.setDisplacementMod(mem.Base, mem.Displacement)

	default:
		// [base], [base+disp8] or [base+disp32].
		base := mem.Base
		baseRex, baseExt, baseField := base.Base()
		in.rex.b = in.rex.b || baseExt
		in.rex.force = in.rex.force || (baseRex && !baseExt)

		if base == x86.RSP || base == x86.R12 {
			// mod=00, rm=100 (SIB), SIB index=100 (none), base=field.
			in.useSIB = true
			in.sib.SetScale(0)
			in.sib.SetIndex(x86.SIBindexNone)
			in.sib.SetBase(baseField)
			in.modrm.SetRM(0b100)
			return in.setDisplacementMod(base, mem.Displacement)
		}

		in.modrm.SetRM(baseField)
		return in.setDisplacementMod(base, mem.Displacement)
	}
}

// setDisplacementMod chooses mod=00/01/10 for a [base(+disp)] form,
// handling the RBP/R13 quirk where mod=00 is unavailable (it's
// reserved for RIP-relative/absolute addressing) and a zero
// displacement must still be encoded as disp8=0.
func (in *operandInstr) setDisplacementMod(base *x86.Register, disp int32) error {
	needsDisp8Quirk := base == x86.RBP || base == x86.R13

	switch {
	case disp == 0 && !needsDisp8Quirk:
		in.modrm.SetMod(0b00)
	case disp >= -128 && disp <= 127:
		in.modrm.SetMod(0b01)
		in.disp = []byte{byte(int8(disp))}
	default:
		in.modrm.SetMod(0b10)
		in.disp = encodeDisp32(disp)
	}

	return nil
}

func encodeDisp32(disp int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(disp))
	return b[:]
}

// emit writes out in's accumulated prefixes, REX, opcode, ModR/M,
// SIB, displacement and immediate bytes, in Intel-prescribed order
// (§4.3).
func (in *operandInstr) emit(e *Emitter) {
	for _, p := range in.prefixes {
		e.EmitU8(uint8(p))
	}

	rex := in.rex.byte()
	e.EmitU8IfNotZero(uint8(rex))

	e.EmitBytes(in.opcode)

	if in.useModRM {
		e.EmitU8(uint8(in.modrm))
	}

	if in.useSIB {
		e.EmitU8(uint8(in.sib))
	}

	e.EmitBytes(in.disp)
	e.EmitBytes(in.imm)
}

// vexFields computes the wire bytes for a VEX-encoded instruction
// given the non-REX inputs §4.3 step 6 describes.
func vexFields(l bool, pp, mmmmm byte, w bool, vvvv *x86.Register, r, x, b bool) x86.VEX {
	var v x86.VEX
	v.Default()
	v.SetR(!r)
	v.SetX(!x)
	v.SetB(!b)
	v.SetM_MMMM(mmmmm)
	v.SetW(w)
	v.SetL(l)
	v.SetPP(pp)
	if vvvv != nil {
		v.SetVVVV(vvvv.VEXvvvv())
	}

	return v
}

// emitVEX writes the shorter 2-byte form when legal, otherwise the
// 3-byte form, per §4.3 step 6.
func emitVEX(e *Emitter, v x86.VEX) {
	if v.Can2Byte() {
		prefix, p0 := v.Encode2Byte()
		e.EmitU8(prefix)
		e.EmitU8(p0)
		return
	}

	prefix, p0, p1 := v.Encode3Byte()
	e.EmitU8(prefix)
	e.EmitU8(p0)
	e.EmitU8(p1)
}
