// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package asm

import (
	"encoding/hex"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ProjectSerenity/x86jit/internal/x86"
)

// newTestStream allocates a small region and a fresh stream over it,
// failing the test on any error.
func newTestStream(t *testing.T) (*Region, *Stream) {
	t.Helper()

	region, err := NewRegion(4096)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	t.Cleanup(func() { region.Close() })

	stream, err := New(region, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return region, stream
}

func wantBytes(t *testing.T, hexStr string, region *Region, stream *Stream) {
	t.Helper()

	want, err := hex.DecodeString(hexStr)
	if err != nil {
		t.Fatalf("invalid fixture %q: %v", hexStr, err)
	}

	got := region.Base()[:stream.Cursor()]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected machine code (-want +got):\n%s", diff)
	}
}

func TestRET(t *testing.T) {
	region, stream := newTestStream(t)
	stream.RET()
	wantBytes(t, "c3", region, stream)
}

func TestNOP(t *testing.T) {
	region, stream := newTestStream(t)
	stream.NOP()
	wantBytes(t, "90", region, stream)
}

func TestMovRegImm64(t *testing.T) {
	region, stream := newTestStream(t)
	if err := stream.MovRegImm64(x86.RAX, 0x1122334455667788); err != nil {
		t.Fatalf("MovRegImm64: %v", err)
	}

	wantBytes(t, "48 b8 88 77 66 55 44 33 22 11", region, stream)
}

func TestArithRegImm8(t *testing.T) {
	region, stream := newTestStream(t)
	if err := stream.ArithRegImm8(OpAdd, x86.EAX, 1); err != nil {
		t.Fatalf("ArithRegImm8: %v", err)
	}

	wantBytes(t, "83 c0 01", region, stream)
}

func TestArithRegImm8NoREX(t *testing.T) {
	// §8.2: for every instruction where no extension bit and no
	// 8-bit-GPR-3 operand is in play, no 0x40 byte appears.
	region, stream := newTestStream(t)
	if err := stream.ArithRegImm8(OpAdd, x86.EAX, 1); err != nil {
		t.Fatalf("ArithRegImm8: %v", err)
	}

	got := region.Base()[:stream.Cursor()]
	for _, b := range got {
		if b&0xf0 == 0x40 {
			t.Errorf("unexpected REX-range byte %#02x in %x", b, got)
		}
	}
}

func TestArithRegImmPicksNarrowestForm(t *testing.T) {
	// imm8 fits in 8 bits: opcode 83 /digit ib, matching ArithRegImm8.
	region, stream := newTestStream(t)
	if err := stream.ArithRegImm(OpAdd, x86.EAX, x86.Imm32(1)); err != nil {
		t.Fatalf("ArithRegImm: %v", err)
	}
	wantBytes(t, "83 c0 01", region, stream)

	// A value too wide for imm8 falls back to the imm32 form: opcode
	// 81 /digit id.
	region, stream = newTestStream(t)
	if err := stream.ArithRegImm(OpAdd, x86.EAX, x86.Imm32(0x1000)); err != nil {
		t.Fatalf("ArithRegImm: %v", err)
	}
	wantBytes(t, "81 c0 00 10 00 00", region, stream)
}

func TestMovRegReg(t *testing.T) {
	region, stream := newTestStream(t)
	if err := stream.MovRegReg(x86.RAX, x86.RDI); err != nil {
		t.Fatalf("MovRegReg: %v", err)
	}
	stream.RET()

	wantBytes(t, "48 89 f8 c3", region, stream)
}

func TestVADDPS(t *testing.T) {
	region, stream := newTestStream(t)
	if err := stream.VADDPS(x86.YMM0, x86.YMM1, x86.YMM2); err != nil {
		t.Fatalf("VADDPS: %v", err)
	}

	wantBytes(t, "c5 f4 58 c2", region, stream)
}

func TestJMPRel8ToLabelForward(t *testing.T) {
	region, stream := newTestStream(t)

	label := stream.CreateLabel()
	if got := stream.JMPRel8ToLabel(label); got != ShortJmpOK {
		t.Fatalf("JMPRel8ToLabel: got %v, want ShortJmpOK", got)
	}
	stream.NOP()
	stream.AttachLabel(label)

	if err := stream.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	wantBytes(t, "eb 01 90", region, stream)
}

func TestJMPRel8ToLabelOverflowRollsBack(t *testing.T) {
	region, stream := newTestStream(t)

	label := stream.CreateAndAttachLabel()
	for i := 0; i < 200; i++ {
		stream.NOP()
	}

	before := stream.Cursor()
	if got := stream.JMPRel8ToLabel(label); got != ShortJmpOverflow {
		t.Fatalf("JMPRel8ToLabel: got %v, want ShortJmpOverflow", got)
	}

	if stream.Cursor() != before {
		t.Errorf("cursor after overflow = %d, want unchanged %d", stream.Cursor(), before)
	}

	_ = region
}

func TestIdentityFunction(t *testing.T) {
	region, stream := newTestStream(t)
	if err := stream.MovRegReg(x86.RAX, x86.RDI); err != nil {
		t.Fatalf("MovRegReg: %v", err)
	}
	stream.RET()

	if err := stream.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	identity, err := UnaryFunctionPointer[int64, int64](region, 0)
	if err != nil {
		t.Fatalf("UnaryFunctionPointer: %v", err)
	}

	got := identity(0x2a)
	if got != 0x2a {
		t.Errorf("identity(0x2a) = %#x, want 0x2a", got)
	}
}
