// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package asm

import "fmt"

// Label is an opaque cursor-position identifier, unique within one
// Stream.
type Label struct {
	id int
}

func (l Label) String() string { return fmt.Sprintf("L%d", l.id) }

// PatchKind names the displacement width a pending patch will
// eventually write. The vocabulary mirrors the relocation-kind naming
// of a narrower AOT-patching design that this stream does not
// implement, so a future object-file backend has names to extend
// rather than a redesign.
type PatchKind uint8

const (
	PatchRel8 PatchKind = iota
	PatchRel32
)

func (k PatchKind) String() string {
	switch k {
	case PatchRel8:
		return "rel8"
	case PatchRel32:
		return "rel32"
	default:
		return fmt.Sprintf("PatchKind(%d)", k)
	}
}

// ShortJmpResult reports the outcome of an inline rel8 branch
// attempt to an already-bound label.
type ShortJmpResult uint8

const (
	ShortJmpOK ShortJmpResult = iota
	ShortJmpOverflow
)

// pendingPatch records one not-yet-resolved reference to a label.
type pendingPatch struct {
	label Label
	site  int
	kind  PatchKind
}

// Resolver manages label bindings and the queue of pending patch
// sites for 8-bit and 32-bit PC-relative displacements.
type Resolver struct {
	emitter *Emitter

	nextID    int
	positions map[int]int // label id -> bound cursor position.
	pending   []pendingPatch
}

// newResolver creates a Resolver bound to emitter, with room
// reserved for likelyLabelCount labels.
func newResolver(emitter *Emitter, likelyLabelCount int) *Resolver {
	return &Resolver{
		emitter:   emitter,
		positions: make(map[int]int, likelyLabelCount),
	}
}

// CreateLabel returns a fresh, unbound label.
func (r *Resolver) CreateLabel() Label {
	r.nextID++
	return Label{id: r.nextID}
}

// CreateAndAttachLabel is shorthand for CreateLabel followed by
// AttachLabel at the current cursor.
func (r *Resolver) CreateAndAttachLabel() Label {
	l := r.CreateLabel()
	r.AttachLabel(l)
	return l
}

// AttachLabel binds label to the current cursor position. Binding an
// already-bound label is a programmer error.
func (r *Resolver) AttachLabel(label Label) {
	if _, bound := r.positions[label.id]; bound {
		panic(fmt.Sprintf("asm: label %s attached twice", label))
	}

	r.positions[label.id] = r.emitter.Cursor()
}

// position returns label's bound cursor position, if any.
func (r *Resolver) position(label Label) (int, bool) {
	pos, ok := r.positions[label.id]
	return pos, ok
}

// Rel8ToLabel emits an 8-bit PC-relative displacement referencing
// label at the current cursor (the displacement is measured from the
// byte following the 8-bit field, as usual for short branches).
//
// If label is already bound and the displacement doesn't fit in 8
// bits, ShortJmpOverflow is returned and the one reserved byte is left
// in place. Rel8ToLabel does not know how many bytes of opcode the
// caller already committed before calling it, so it cannot roll the
// cursor back to the instruction's start on its own: a caller that
// wants the pre-emit-value property on overflow must StoreBookmark
// before emitting its opcode byte(s) and ResetToBookmark itself when
// this returns ShortJmpOverflow (see JMPRel8ToLabel, JccRel8ToLabel).
// If label is not yet bound, one byte is reserved and the site is
// queued for patching at Finish.
func (r *Resolver) Rel8ToLabel(label Label) ShortJmpResult {
	if target, bound := r.position(label); bound {
		site := r.emitter.SkipU8()
		if r.emitter.PatchRel8(site, target) {
			return ShortJmpOK
		}

		return ShortJmpOverflow
	}

	site := r.emitter.SkipU8()
	r.pending = append(r.pending, pendingPatch{label: label, site: site, kind: PatchRel8})
	return ShortJmpOK
}

// Rel32ToLabel emits a 32-bit PC-relative displacement referencing
// label. An out-of-range displacement is only possible for addresses
// beyond what a single Region can hold; it is fatal, and PatchRel32
// panics on it at emit time for an already-bound label, or at Finish
// for a label bound later.
func (r *Resolver) Rel32ToLabel(label Label) {
	if target, bound := r.position(label); bound {
		site := r.emitter.SkipU32()
		r.emitter.PatchRel32(site, target)
		return
	}

	site := r.emitter.SkipU32()
	r.pending = append(r.pending, pendingPatch{label: label, site: site, kind: PatchRel32})
}

// Finish drains the pending-patch queue, resolving every site against
// its label's bound position. An unresolved label, or an 8-bit patch
// whose displacement doesn't fit, is fatal: there is no recovery
// once other code may already depend on the bytes in between.
func (r *Resolver) Finish() {
	for _, p := range r.pending {
		target, bound := r.position(p.label)
		if !bound {
			panic(fmt.Sprintf("asm: label %s referenced but never attached", p.label))
		}

		switch p.kind {
		case PatchRel8:
			if !r.emitter.PatchRel8(p.site, target) {
				panic(fmt.Sprintf("asm: rel8 patch for label %s at site %d does not fit in 8 bits", p.label, p.site))
			}
		case PatchRel32:
			r.emitter.PatchRel32(p.site, target)
		default:
			panic(fmt.Sprintf("asm: unknown patch kind %v", p.kind))
		}
	}

	r.pending = nil
}
