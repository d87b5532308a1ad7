// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package x86

import "testing"

func TestImmediateWiden(t *testing.T) {
	imm := Imm8(-1)

	wide, ok := imm.Widen(32)
	if !ok {
		t.Fatal("Widen(32) reported failure")
	}

	if wide.Value != -1 {
		t.Errorf("widened value = %d, want -1", wide.Value)
	}

	if _, ok := Imm32(1000).Widen(8); ok {
		t.Error("Widen to a narrower width reported success")
	}
}

func TestImmediateFitsIn(t *testing.T) {
	tests := []struct {
		imm  Immediate
		bits int
		want bool
	}{
		{Imm8(127), 8, true},
		{Imm16(200), 8, false},
		{Imm32(-1), 8, true},
		{Imm64(1 << 40), 32, false},
	}

	for _, test := range tests {
		if got := test.imm.FitsIn(test.bits); got != test.want {
			t.Errorf("%v.FitsIn(%d) = %v, want %v", test.imm, test.bits, got, test.want)
		}
	}
}

func TestImmediateNarrowest(t *testing.T) {
	tests := []struct {
		value int64
		want  int
	}{
		{0, 8},
		{127, 8},
		{128, 16},
		{1 << 20, 32},
		{1 << 40, 64},
	}

	for _, test := range tests {
		imm := Imm64(test.value)
		if got := imm.Narrowest(); got != test.want {
			t.Errorf("Narrowest(%d) = %d, want %d", test.value, got, test.want)
		}
	}
}
