// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package asm

import "fmt"

// Stream is an instruction stream bound exclusively to a Region for
// its lifetime. It combines the byte emitter and the label resolver,
// and exposes the typed mnemonic emitters in mnemonics.go.
type Stream struct {
	region   *Region
	emitter  *Emitter
	resolver *Resolver
	finished bool
}

// New creates a Stream that emits into region, which must currently
// be Writable. likelyLabelCount is a sizing hint for the label table;
// it is not a hard limit.
func New(region *Region, likelyLabelCount int) (*Stream, error) {
	if region.Protection() != Writable {
		return nil, fmt.Errorf("asm: region must be writable to start a new stream")
	}

	e := newEmitter(region)
	return &Stream{
		region:   region,
		emitter:  e,
		resolver: newResolver(e, likelyLabelCount),
	}, nil
}

// Cursor returns the stream's current write offset within its region.
func (s *Stream) Cursor() int { return s.emitter.Cursor() }

// CreateLabel returns a fresh, unbound label.
func (s *Stream) CreateLabel() Label { return s.resolver.CreateLabel() }

// AttachLabel binds label to the current cursor position.
func (s *Stream) AttachLabel(label Label) { s.resolver.AttachLabel(label) }

// CreateAndAttachLabel creates a label and immediately binds it to
// the current cursor position.
func (s *Stream) CreateAndAttachLabel() Label { return s.resolver.CreateAndAttachLabel() }

// EmitByte appends a single raw byte.
func (s *Stream) EmitByte(v uint8) { s.emitter.EmitU8(v) }

// EmitWord appends a raw 16-bit little-endian value.
func (s *Stream) EmitWord(v uint16) { s.emitter.EmitU16(v) }

// EmitDoubleWord appends a raw 32-bit little-endian value.
func (s *Stream) EmitDoubleWord(v uint32) { s.emitter.EmitU32(v) }

// EmitQuadWord appends a raw 64-bit little-endian value.
func (s *Stream) EmitQuadWord(v uint64) { s.emitter.EmitU64(v) }

// EmitDoubleQuadWord appends a raw 128-bit little-endian value, given
// as its low and high 64-bit halves.
func (s *Stream) EmitDoubleQuadWord(lo, hi uint64) { s.emitter.EmitU128(lo, hi) }

// EmitBytes bulk-appends b.
func (s *Stream) EmitBytes(b []byte) { s.emitter.EmitBytes(b) }

// nopSequences holds the canonical single- and multi-byte NOP
// encodings used to pad alignment, indexed by length in bytes (1-9).
// Intel SDM Volume 2B, NOP, Table 4-13 "Recommended Multi-Byte
// Sequence of NOP Instruction".
var nopSequences = [][]byte{
	{},
	{0x90},
	{0x66, 0x90},
	{0x0f, 0x1f, 0x00},
	{0x0f, 0x1f, 0x40, 0x00},
	{0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x0f, 0x1f, 0x80, 0x00, 0x00, 0x00, 0x00},
	{0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
}

// EmitAlignment pads the stream with NOPs until the cursor is a
// multiple of a. Calling it twice in a row is idempotent: if the
// cursor is already aligned, the second call is a no-op.
func (s *Stream) EmitAlignment(a int) {
	if a <= 0 {
		panic(fmt.Sprintf("asm: invalid alignment %d", a))
	}

	pad := (a - s.Cursor()%a) % a
	for pad > 0 {
		n := pad
		if n > len(nopSequences)-1 {
			n = len(nopSequences) - 1
		}

		s.EmitBytes(nopSequences[n])
		pad -= n
	}
}

// Finish patches every pending label reference and flips the
// region to executable. After Finish, the stream must not be
// written to again.
func (s *Stream) Finish() error {
	if s.finished {
		panic("asm: stream finished twice")
	}

	s.resolver.Finish()
	if err := s.region.MakeExecutable(); err != nil {
		return err
	}

	s.finished = true
	return nil
}
