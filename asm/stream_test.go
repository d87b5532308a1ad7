// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package asm

import "testing"

func TestEmitAlignmentIdempotent(t *testing.T) {
	_, stream := newTestStream(t)

	stream.EmitByte(0x90)
	stream.EmitByte(0x90)
	stream.EmitByte(0x90)

	stream.EmitAlignment(16)
	afterFirst := stream.Cursor()
	if afterFirst%16 != 0 {
		t.Fatalf("cursor %d not aligned to 16", afterFirst)
	}

	stream.EmitAlignment(16)
	if stream.Cursor() != afterFirst {
		t.Errorf("second EmitAlignment moved cursor from %d to %d", afterFirst, stream.Cursor())
	}
}

func TestEmitAlignmentPadsWithNOPs(t *testing.T) {
	region, stream := newTestStream(t)

	stream.EmitByte(0x90)
	stream.EmitAlignment(8)

	if stream.Cursor()%8 != 0 {
		t.Fatalf("cursor %d not aligned to 8", stream.Cursor())
	}

	for _, b := range region.Base()[1:stream.Cursor()] {
		if b != 0x90 && b != 0x66 && b != 0x0f && b != 0x1f && b != 0x00 && b != 0x40 && b != 0x44 && b != 0x80 && b != 0x84 {
			t.Errorf("unexpected non-NOP padding byte %#02x", b)
		}
	}
}

func TestStreamRequiresWritableRegion(t *testing.T) {
	region, err := NewRegion(4096)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer region.Close()

	if err := region.MakeExecutable(); err != nil {
		t.Fatalf("MakeExecutable: %v", err)
	}

	if _, err := New(region, 1); err == nil {
		t.Fatal("New did not reject an executable region")
	}
}

func TestFinishTwicePanics(t *testing.T) {
	_, stream := newTestStream(t)
	stream.RET()

	if err := stream.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("second Finish did not panic")
		}
	}()

	stream.Finish()
}
