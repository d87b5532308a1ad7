// Copyright 2023 The Firefly Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package asm

import "testing"

func TestRegionProtectionTransitions(t *testing.T) {
	region, err := NewRegion(4096)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer region.Close()

	if region.Protection() != Writable {
		t.Fatalf("new region protection = %v, want Writable", region.Protection())
	}

	region.Base()[0] = 0xc3 // RET

	if err := region.MakeExecutable(); err != nil {
		t.Fatalf("MakeExecutable: %v", err)
	}

	if region.Protection() != Executable {
		t.Fatalf("protection = %v, want Executable", region.Protection())
	}

	if err := region.MakeWritable(); err != nil {
		t.Fatalf("MakeWritable: %v", err)
	}

	if region.Protection() != Writable {
		t.Fatalf("protection = %v, want Writable", region.Protection())
	}
}

func TestRegionCapacityRoundsUpToPage(t *testing.T) {
	region, err := NewRegion(1)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer region.Close()

	if region.Capacity() < 1 {
		t.Fatalf("capacity = %d, want at least 1", region.Capacity())
	}

	if region.Capacity()%4096 != 0 {
		t.Errorf("capacity %d is not a whole number of (typical) pages", region.Capacity())
	}
}

func TestNewRegionRejectsNonPositiveSize(t *testing.T) {
	if _, err := NewRegion(0); err == nil {
		t.Fatal("NewRegion(0) did not return an error")
	}
}
