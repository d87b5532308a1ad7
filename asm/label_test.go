// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package asm

import "testing"

func TestLabelRoundTrip(t *testing.T) {
	widths := []struct {
		name string
		emit func(s *Stream, l Label)
		size int
	}{
		{"rel8", func(s *Stream, l Label) { s.JMPRel8ToLabel(l) }, 1},
		{"rel32", func(s *Stream, l Label) { s.JMPRel32ToLabel(l) }, 4},
	}

	for _, w := range widths {
		for _, attachBefore := range []bool{true, false} {
			t.Run(w.name+"/attachBefore="+boolString(attachBefore), func(t *testing.T) {
				region, stream := newTestStream(t)

				var label Label
				if attachBefore {
					label = stream.CreateAndAttachLabel()
					stream.NOP()
					stream.NOP()
				} else {
					label = stream.CreateLabel()
				}

				site := stream.Cursor() + 1 // +1 for the opcode byte the emit helper writes first.
				w.emit(stream, label)

				if !attachBefore {
					target := stream.Cursor()
					stream.AttachLabel(label)
					_ = target
				}

				if err := stream.Finish(); err != nil {
					t.Fatalf("Finish: %v", err)
				}

				target, ok := stream.resolver.position(label)
				if !ok {
					t.Fatalf("label never bound")
				}

				var got int64
				switch w.size {
				case 1:
					got = int64(int8(region.Base()[site]))
				case 4:
					got = int64(int32(uint32(region.Base()[site]) |
						uint32(region.Base()[site+1])<<8 |
						uint32(region.Base()[site+2])<<16 |
						uint32(region.Base()[site+3])<<24))
				}

				want := int64(target) - int64(site+w.size)
				if got != want {
					t.Errorf("patched displacement = %d, want %d", got, want)
				}
			})
		}
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}

	return "false"
}

func TestFinishPanicsOnUnresolvedLabel(t *testing.T) {
	_, stream := newTestStream(t)

	label := stream.CreateLabel()
	stream.JMPRel32ToLabel(label)

	defer func() {
		if recover() == nil {
			t.Fatal("Finish did not panic on unresolved label")
		}
	}()

	stream.Finish()
}

func TestAttachLabelTwicePanics(t *testing.T) {
	_, stream := newTestStream(t)

	label := stream.CreateAndAttachLabel()

	defer func() {
		if recover() == nil {
			t.Fatal("AttachLabel did not panic on double-attach")
		}
	}()

	stream.AttachLabel(label)
}
