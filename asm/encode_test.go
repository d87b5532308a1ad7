// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package asm

import (
	"testing"

	"github.com/ProjectSerenity/x86jit/internal/x86"
)

// TestModRMMemoryEdgeCases exercises §4.3 step 8's ModR/M edge cases
// via LEA, whose encoding (REX.W 8D /r) makes the addressing-mode byte
// easy to isolate: REX (W, plus B for an extended base register),
// opcode 8D, then ModR/M (+SIB) (+disp).
func TestModRMMemoryEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		mem  func() *x86.Memory
		want string // Full encoding of LEA RAX, mem.
	}{
		{
			name: "[RBP] uses mod=01 disp8=0",
			mem:  func() *x86.Memory { m, _ := x86.BaseDisp(x86.RBP, 0); return m },
			want: "48 8d 45 00", // ModR/M {mod:01, reg:000, rm:101}, disp8=00.
		},
		{
			name: "[R13] uses mod=01 disp8=0",
			mem:  func() *x86.Memory { m, _ := x86.BaseDisp(x86.R13, 0); return m },
			want: "49 8d 45 00", // REX.WB.
		},
		{
			name: "[RSP] forces a SIB byte",
			mem:  func() *x86.Memory { m, _ := x86.BaseDisp(x86.RSP, 0); return m },
			want: "48 8d 04 24", // ModR/M {mod:00, rm:100}, SIB {scale:00, index:100, base:100}.
		},
		{
			name: "[R12] forces a SIB byte",
			mem:  func() *x86.Memory { m, _ := x86.BaseDisp(x86.R12, 0); return m },
			want: "49 8d 04 24", // REX.WB.
		},
		{
			name: "[RIP+d]",
			mem:  func() *x86.Memory { return x86.RIPRelative(0x10) },
			want: "48 8d 05 10 00 00 00",
		},
		{
			name: "[disp32] absolute",
			mem:  func() *x86.Memory { return x86.Absolute(0x1000) },
			want: "48 8d 04 25 00 10 00 00",
		},
		{
			name: "bare base-less, index-less operand defaults to RIP-relative",
			mem:  func() *x86.Memory { return &x86.Memory{Displacement: 0x10} },
			want: "48 8d 05 10 00 00 00", // Same encoding as [RIP+d] above.
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			region, stream := newTestStream(t)

			if err := stream.LEA(x86.RAX, test.mem()); err != nil {
				t.Fatalf("LEA: %v", err)
			}

			wantBytes(t, test.want, region, stream)
		})
	}
}
