/*
Copyright (C) 2024-2026 Carl-Philip Hänsch

 This program is free software: you can redistribute it and/or modify
 it under the terms of the GNU General Public License as published by
 the Free Software Foundation, either version 3 of the License, or
 (at your option) any later version.

 This program is distributed in the hope that it will be useful,
 but WITHOUT ANY WARRANTY; without even the implied warranty of
 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 GNU General Public License for more details.

 You should have received a copy of the GNU General Public License
 along with this program. If not, see <https://www.gnu.org/licenses/>.
*/

package memregion

import "testing"

func TestAllocateAndCopy(t *testing.T) {
	r, err := Allocate(64, 32, TrampolineSize*2)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Free()

	code := []byte{0x01, 0x02, 0x03, 0x04}
	if err := r.CopyCode(code); err != nil {
		t.Fatalf("CopyCode: %v", err)
	}
	if err := r.CopyData([]byte{0xAA, 0xBB}); err != nil {
		t.Fatalf("CopyData: %v", err)
	}
	if r.Code.mem[0] != 0x01 || r.Code.mem[3] != 0x04 {
		t.Fatalf("copied code bytes mismatch: %v", r.Code.mem[:4])
	}
}

func TestWritesRefusedAfterMakeExecutable(t *testing.T) {
	r, err := Allocate(64, 32, TrampolineSize*2)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Free()

	if err := r.CopyCode([]byte{0xD6, 0x5F, 0x03, 0xC0}); err != nil { // RET
		t.Fatalf("CopyCode: %v", err)
	}
	if err := r.MakeExecutable(); err != nil {
		t.Fatalf("MakeExecutable: %v", err)
	}
	if err := r.AssertWX(); err != nil {
		t.Fatalf("AssertWX: %v", err)
	}

	if err := r.CopyCode([]byte{0x00}); err == nil {
		t.Fatal("expected CopyCode to be refused after MakeExecutable")
	}
	if err := r.PatchWord(0, 0); err == nil {
		t.Fatal("expected PatchWord to be refused after MakeExecutable")
	}
	if _, err := r.WriteTrampoline(0); err == nil {
		t.Fatal("expected WriteTrampoline to be refused after MakeExecutable")
	}
}

func TestPatchBLToTrampoline(t *testing.T) {
	r, err := Allocate(64, 0, TrampolineSize)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Free()

	bl := uint32(0x94000000) // BL #0
	if err := r.PatchWord(0, bl); err != nil {
		t.Fatalf("PatchWord: %v", err)
	}
	stubOff, err := r.WriteTrampoline(0xDEADBEEF)
	if err != nil {
		t.Fatalf("WriteTrampoline: %v", err)
	}
	if err := r.PatchBLToTrampoline(0, stubOff); err != nil {
		t.Fatalf("PatchBLToTrampoline: %v", err)
	}
}

func TestWriteTrapStubSentinelNeverZero(t *testing.T) {
	r, err := Allocate(0, 0, TrapStubSize)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Free()

	off, err := r.WriteTrapStub()
	if err != nil {
		t.Fatalf("WriteTrapStub: %v", err)
	}
	sentinel := uint64(0)
	for i := 0; i < 8; i++ {
		sentinel |= uint64(r.Code.mem[off+8+i]) << (8 * i)
	}
	if sentinel == 0 {
		t.Fatal("trap stub sentinel address must never be zero")
	}
}
