// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package asm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Emitter is an append-only cursor into a Region. It writes
// little-endian scalars at the cursor and advances it; it never grows
// the underlying buffer, since the Region is pre-sized by the host.
type Emitter struct {
	region   *Region
	cursor   int
	bookmark int
}

// newEmitter wraps region with a cursor starting at offset 0.
func newEmitter(region *Region) *Emitter {
	return &Emitter{region: region}
}

// Cursor returns the offset of the next byte to be written.
func (e *Emitter) Cursor() int { return e.cursor }

// checkRoom panics if writing n more bytes would overflow the region;
// per §4.2, an emit past capacity is a programmer error, not a
// recoverable condition.
func (e *Emitter) checkRoom(n int) {
	if e.cursor+n > e.region.Capacity() {
		panic(fmt.Sprintf("asm: emit of %d bytes at cursor %d overflows region of capacity %d", n, e.cursor, e.region.Capacity()))
	}
}

// EmitU8 writes v at the cursor and advances it by one byte.
func (e *Emitter) EmitU8(v uint8) {
	e.checkRoom(1)
	e.region.data[e.cursor] = v
	e.cursor++
}

// EmitU16 writes v at the cursor, little-endian, and advances by two.
func (e *Emitter) EmitU16(v uint16) {
	e.checkRoom(2)
	binary.LittleEndian.PutUint16(e.region.data[e.cursor:], v)
	e.cursor += 2
}

// EmitU32 writes v at the cursor, little-endian, and advances by four.
func (e *Emitter) EmitU32(v uint32) {
	e.checkRoom(4)
	binary.LittleEndian.PutUint32(e.region.data[e.cursor:], v)
	e.cursor += 4
}

// EmitU64 writes v at the cursor, little-endian, and advances by eight.
func (e *Emitter) EmitU64(v uint64) {
	e.checkRoom(8)
	binary.LittleEndian.PutUint64(e.region.data[e.cursor:], v)
	e.cursor += 8
}

// EmitU128 writes a 128-bit value, given as its low and high 64-bit
// halves, little-endian, and advances by sixteen.
func (e *Emitter) EmitU128(lo, hi uint64) {
	e.EmitU64(lo)
	e.EmitU64(hi)
}

// EmitBytes bulk-copies b at the cursor and advances by len(b).
func (e *Emitter) EmitBytes(b []byte) {
	e.checkRoom(len(b))
	copy(e.region.data[e.cursor:], b)
	e.cursor += len(b)
}

// EmitU8IfNotZero writes v only if it is non-zero. This is used for
// REX emission: an instruction with no extension bits and no forcing
// register computes a REX value of zero, so no REX byte is written.
func (e *Emitter) EmitU8IfNotZero(v uint8) {
	if v != 0 {
		e.EmitU8(v)
	}
}

// SkipU8 advances the cursor by one byte without writing, reserving a
// patch slot, and returns the reserved offset.
func (e *Emitter) SkipU8() int {
	e.checkRoom(1)
	site := e.cursor
	e.cursor++
	return site
}

// SkipU32 advances the cursor by four bytes without writing,
// reserving a patch slot, and returns the reserved offset.
func (e *Emitter) SkipU32() int {
	e.checkRoom(4)
	site := e.cursor
	e.cursor += 4
	return site
}

// StoreBookmark saves the current cursor for a later ResetToBookmark.
func (e *Emitter) StoreBookmark() {
	e.bookmark = e.cursor
}

// ResetToBookmark restores the cursor to the last stored bookmark,
// discarding any bytes written since.
func (e *Emitter) ResetToBookmark() {
	e.cursor = e.bookmark
}

// PatchRel8 writes target-(site+1) as a signed 8-bit displacement at
// site. It reports false without writing if the displacement does not
// fit in an int8.
func (e *Emitter) PatchRel8(site, target int) bool {
	rel := int64(target) - int64(site+1)
	if rel < math.MinInt8 || rel > math.MaxInt8 {
		return false
	}

	e.region.data[site] = byte(int8(rel))
	return true
}

// PatchRel32 writes target-(site+4) as a signed 32-bit displacement
// at site. It panics if the displacement does not fit in an int32;
// per §4.2 this is fatal, since the bytes between site and target
// cannot be rewritten without disturbing already-resolved labels.
func (e *Emitter) PatchRel32(site, target int) {
	rel := int64(target) - int64(site+4)
	if rel < math.MinInt32 || rel > math.MaxInt32 {
		panic(fmt.Sprintf("asm: rel32 patch at site %d overflows: target %d, displacement %d", site, target, rel))
	}

	binary.LittleEndian.PutUint32(e.region.data[site:], uint32(int32(rel)))
}
