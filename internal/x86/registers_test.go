// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package x86

import "testing"

func TestModRMExtensionBit(t *testing.T) {
	tests := []struct {
		reg     *Register
		wantExt bool
	}{
		{RAX, false},
		{RDI, false},
		{R8, true},
		{R15, true},
	}

	for _, test := range tests {
		_, ext, field := test.reg.ModRM()
		if ext != test.wantExt {
			t.Errorf("%s: ext = %v, want %v", test.reg, ext, test.wantExt)
		}

		if field != test.reg.Index&0b111 {
			t.Errorf("%s: field = %#x, want %#x", test.reg, field, test.reg.Index&0b111)
		}
	}
}

func TestRequiresREX(t *testing.T) {
	tests := []struct {
		reg  *Register
		want bool
	}{
		{AH, false},
		{CH, false},
		{SPL, true},
		{BPL, true},
		{SIL, true},
		{DIL, true},
		{AL, false},
		{EAX, false},
	}

	for _, test := range tests {
		if got := test.reg.RequiresREX(); got != test.want {
			t.Errorf("%s.RequiresREX() = %v, want %v", test.reg, got, test.want)
		}
	}
}

func TestVEXvvvvIsOnesComplement(t *testing.T) {
	tests := []struct {
		reg  *Register
		want byte
	}{
		{YMM0, 0b1111},
		{YMM1, 0b1110},
		{YMM15, 0b0000},
	}

	for _, test := range tests {
		if got := test.reg.VEXvvvv(); got != test.want {
			t.Errorf("%s.VEXvvvv() = %#05b, want %#05b", test.reg, got, test.want)
		}
	}
}

func TestAsMMXAsX87RoundTrip(t *testing.T) {
	for i, st := range RegistersStackIndices {
		mmx := st.AsMMX()
		if mmx.Kind != KindMMX {
			t.Fatalf("ST%d.AsMMX().Kind = %v, want KindMMX", i, mmx.Kind)
		}

		if mmx != Registers64bitMMX[i] {
			t.Errorf("ST%d.AsMMX() = %s, want %s", i, mmx, Registers64bitMMX[i])
		}

		back := mmx.AsX87()
		if back != st {
			t.Errorf("MMX%d.AsX87() = %s, want %s", i, back, st)
		}
	}
}

func TestAsMMXPanicsOnWrongKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("AsMMX did not panic on a non-x87 register")
		}
	}()

	RAX.AsMMX()
}
