// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Protection identifies a Region's current memory protection mode. A
// Region is either Writable or Executable, never both: an anonymous
// page is mapped RW, code is emitted into it, and only then is it
// flipped to RX before any code within it runs.
type Protection uint8

const (
	Writable Protection = iota
	Executable
)

func (p Protection) String() string {
	switch p {
	case Writable:
		return "writable"
	case Executable:
		return "executable"
	default:
		return fmt.Sprintf("Protection(%d)", p)
	}
}

// Region owns a page-aligned anonymous memory mapping that can be
// flipped between writable and executable. It is the host-provided
// collaborator a Stream borrows exclusively for its lifetime.
type Region struct {
	data []byte
	prot Protection
}

// NewRegion maps a fresh anonymous region of at least size bytes,
// rounded up to a whole number of pages, and returns it in the
// Writable state.
func NewRegion(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("asm: invalid region size %d", size)
	}

	pageSize := unix.Getpagesize()
	pages := (size + pageSize - 1) / pageSize
	mapped, err := unix.Mmap(-1, 0, pages*pageSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("asm: mmap %d bytes: %w", pages*pageSize, err)
	}

	return &Region{data: mapped, prot: Writable}, nil
}

// Base returns the region's backing storage. While the region is
// Writable, it is safe to write into; while Executable, writes are
// still memory-safe from Go's perspective but will not be reflected
// in subsequently fetched instructions on architectures that require
// an explicit instruction-cache sync, so a Stream only ever writes
// before calling MakeExecutable.
func (r *Region) Base() []byte { return r.data }

// Capacity returns the region's total size in bytes.
func (r *Region) Capacity() int { return len(r.data) }

// Protection reports the region's current protection mode.
func (r *Region) Protection() Protection { return r.prot }

// MakeWritable flips the region back to RW. Calling it while already
// Writable is a no-op.
func (r *Region) MakeWritable() error {
	if r.prot == Writable {
		return nil
	}

	if err := unix.Mprotect(r.data, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return fmt.Errorf("asm: mprotect writable: %w", err)
	}

	r.prot = Writable
	return nil
}

// MakeExecutable flips the region to RX, durably publishing every
// byte written so far to instruction fetch. Calling it while already
// Executable is a no-op.
func (r *Region) MakeExecutable() error {
	if r.prot == Executable {
		return nil
	}

	if err := unix.Mprotect(r.data, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("asm: mprotect executable: %w", err)
	}

	r.prot = Executable
	return nil
}

// Close unmaps the region. It must not be called while any function
// pointer derived from the region may still be invoked.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}

	err := unix.Munmap(r.data)
	r.data = nil
	if err != nil {
		return fmt.Errorf("asm: munmap: %w", err)
	}

	return nil
}
