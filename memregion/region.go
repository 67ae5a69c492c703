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

// Package memregion implements the W^X executable-memory manager
//: two page-aligned regions — code (transitions W->R+X)
// and data (stays R+W) — with the patch/trampoline/trap-stub operations
// the linker needs. Grounded on the allocExec/makeRX pattern already
// used elsewhere in this codebase, which does page-rounding plus
// syscall.Mmap(PROT_READ|PROT_WRITE) + syscall.Mprotect(PROT_READ|PROT_EXEC)
// for a single region; this generalizes that to two regions and the
// richer patch surface a JIT linker requires.
package memregion

import (
	"encoding/binary"
	"fmt"
	"syscall"
)

// TrampolineSize is the fixed byte size of one trampoline stub:
// LDR X16,[PC,#8]; BR X16;.quad target_addr.
const TrampolineSize = 16

// TrapStubSize is the fixed byte size of one trap stub: two BRK words
// followed by a sentinel quad.
const TrapStubSize = 16

// Region is one page-aligned mmap'd region with a permission state.
type Region struct {
	mem []byte
	size int
	writable bool
	executable bool
}

// JitMemoryRegion owns a code region and a data region and enforces
// that they are never simultaneously writable and executable.
type JitMemoryRegion struct {
	Code *Region
	Data *Region

	// trampolineOff tracks the next free offset in the code region's
	// trampoline island, appended after the compiled instructions.
	trampolineOff int
}

// Len reports the region's total mapped byte size (including any
// unused tail left by page rounding), for reporting.
func (r *Region) Len() int { return len(r.mem) }

func pageRound(n int) int {
	page := syscall.Getpagesize()
	return (n + page - 1) &^ (page - 1)
}

// Allocate reserves a code region of codeSize bytes and a data region of
// dataSize bytes, both initially R+W, plus trampolineReserve extra bytes
// appended to the code region for trampoline/trap stubs.
func Allocate(codeSize, dataSize, trampolineReserve int) (*JitMemoryRegion, error) {
	codeRegion, err := newRegion(codeSize + trampolineReserve)
	if err != nil {
		return nil, fmt.Errorf("memregion: allocate code region: %w", err)
	}
	dataRegion, err := newRegion(dataSize)
	if err != nil {
		syscall.Munmap(codeRegion.mem)
		return nil, fmt.Errorf("memregion: allocate data region: %w", err)
	}
	return &JitMemoryRegion{Code: codeRegion, Data: dataRegion, trampolineOff: codeSize}, nil
}

func newRegion(size int) (*Region, error) {
	n := pageRound(size)
	if n == 0 {
		n = syscall.Getpagesize()
	}
	mem, err := syscall.Mmap(-1, 0, n, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_PRIVATE|syscall.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &Region{mem: mem, size: n, writable: true}, nil
}

// Free releases both regions' backing mmap'd memory.
func (j *JitMemoryRegion) Free() error {
	var firstErr error
	if j.Code != nil {
		if err := syscall.Munmap(j.Code.mem); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if j.Data != nil {
		if err := syscall.Munmap(j.Data.mem); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CodeAddress returns the absolute runtime address of a code-region
// byte offset.
func (j *JitMemoryRegion) CodeAddress(offset int) uintptr {
	return regionAddress(j.Code, offset)
}

// DataAddress returns the absolute runtime address of a data-region
// byte offset.
func (j *JitMemoryRegion) DataAddress(offset int) uintptr {
	return regionAddress(j.Data, offset)
}

// CopyCode writes code into the start of the code region. Must be
// called before MakeExecutable.
func (j *JitMemoryRegion) CopyCode(code []byte) error {
	if j.Code.executable {
		return fmt.Errorf("memregion: cannot write code after makeExecutable")
	}
	if len(code) > len(j.Code.mem) {
		return fmt.Errorf("memregion: code (%d bytes) exceeds region (%d bytes)", len(code), len(j.Code.mem))
	}
	copy(j.Code.mem, code)
	return nil
}

// CopyData writes data into the start of the data region.
func (j *JitMemoryRegion) CopyData(data []byte) error {
	if len(data) > len(j.Data.mem) {
		return fmt.Errorf("memregion: data (%d bytes) exceeds region (%d bytes)", len(data), len(j.Data.mem))
	}
	copy(j.Data.mem, data)
	return nil
}

// PatchWord overwrites one 32-bit little-endian instruction word at a
// code-region byte offset. Only valid before MakeExecutable.
func (j *JitMemoryRegion) PatchWord(offset int, word uint32) error {
	if j.Code.executable {
		return fmt.Errorf("memregion: cannot patch code after makeExecutable")
	}
	if offset+4 > len(j.Code.mem) {
		return fmt.Errorf("memregion: patch offset %d out of range", offset)
	}
	binary.LittleEndian.PutUint32(j.Code.mem[offset:], word)
	return nil
}

// PatchAdrpAdd patches an ADRP+ADD pair at adrpOffset (ADRP word
// immediately followed by the ADD word) so that, once executed, Rd
// holds targetAddr. Computes (target_page - adrp_page) >> 12 and masks
// it into the ADRP imm fields, then ORs target_addr & 0xfff into the
// following ADD's imm12 slot.
func (j *JitMemoryRegion) PatchAdrpAdd(adrpOffset int, targetAddr uintptr) error {
	if j.Code.executable {
		return fmt.Errorf("memregion: cannot patch code after makeExecutable")
	}
	adrpPC := j.CodeAddress(adrpOffset)
	pageDelta := int64(targetAddr>>12) - int64(adrpPC>>12)
	if pageDelta < -(1<<20) || pageDelta >= (1<<20) {
		return fmt.Errorf("memregion: ADRP page delta %d out of range", pageDelta)
	}
	adrpWord := binary.LittleEndian.Uint32(j.Code.mem[adrpOffset:])
	immlo := uint32(pageDelta) & 0x3
	immhi := (uint32(pageDelta) >> 2) & 0x7FFFF
	adrpWord &^= (0x3 << 29) | (0x7FFFF << 5)
	adrpWord |= immlo << 29
	adrpWord |= immhi << 5
	binary.LittleEndian.PutUint32(j.Code.mem[adrpOffset:], adrpWord)

	addOffset := adrpOffset + 4
	addWord := binary.LittleEndian.Uint32(j.Code.mem[addOffset:])
	pageOff := uint32(targetAddr) & 0xFFF
	addWord &^= 0xFFF << 10
	addWord |= pageOff << 10
	binary.LittleEndian.PutUint32(j.Code.mem[addOffset:], addWord)
	return nil
}

// PatchBLToTrampoline patches the BL at blOffset to branch to the
// trampoline/function stub at stubOffset: computes (stub_offset -
// bl_offset) / 4 as a 26-bit signed word delta and ORs it into the BL.
// Also used to patch a BL directly to an internal function's code
// offset (stubOffset is simply that offset in that case).
func (j *JitMemoryRegion) PatchBLToTrampoline(blOffset, stubOffset int) error {
	if j.Code.executable {
		return fmt.Errorf("memregion: cannot patch code after makeExecutable")
	}
	delta := int64(stubOffset-blOffset) / 4
	if delta < -(1<<25) || delta >= (1<<25) {
		return fmt.Errorf("memregion: BL offset %d out of imm26 range", delta)
	}
	word := binary.LittleEndian.Uint32(j.Code.mem[blOffset:])
	word &^= 0x3FFFFFF
	word |= uint32(delta) & 0x3FFFFFF
	binary.LittleEndian.PutUint32(j.Code.mem[blOffset:], word)
	return nil
}

// PatchDataWord64 overwrites an 8-byte little-endian slot in the data
// region at offset, used by the linker to fill in a DATA_SYMREF address
// once the referenced symbol is resolved.
func (j *JitMemoryRegion) PatchDataWord64(offset int, v uint64) error {
	if offset+8 > len(j.Data.mem) {
		return fmt.Errorf("memregion: data patch offset %d out of range", offset)
	}
	binary.LittleEndian.PutUint64(j.Data.mem[offset:], v)
	return nil
}

// WriteTrampoline appends a 16-byte stub "LDR X16,[PC,#8]; BR X16;
//.quad target_addr" to the code region's trampoline island and returns
// its byte offset.
func (j *JitMemoryRegion) WriteTrampoline(targetAddr uintptr) (int, error) {
	off, err := j.reserveTrampolineSlot(TrampolineSize)
	if err != nil {
		return 0, err
	}
	// LDR X16, [PC, #8] — encoding: 0x58000040 (imm19=2 words) | Rt=16
	ldr := uint32(0x58000050)
	binary.LittleEndian.PutUint32(j.Code.mem[off:], ldr)
	// BR X16
	br := uint32(0xD61F0200)
	binary.LittleEndian.PutUint32(j.Code.mem[off+4:], br)
	binary.LittleEndian.PutUint64(j.Code.mem[off+8:], uint64(targetAddr))
	return off, nil
}

// WriteTrapStub appends a pair of BRK-encoded words followed by a
// sentinel quad, standing in for an unresolved external symbol so a
// runtime call lands on a clean SIGTRAP rather than a null dereference
//.
func (j *JitMemoryRegion) WriteTrapStub() (int, error) {
	off, err := j.reserveTrampolineSlot(TrapStubSize)
	if err != nil {
		return 0, err
	}
	brk := uint32(0xD4200000) // BRK #0
	binary.LittleEndian.PutUint32(j.Code.mem[off:], brk)
	binary.LittleEndian.PutUint32(j.Code.mem[off+4:], brk)
	binary.LittleEndian.PutUint64(j.Code.mem[off+8:], 0xDEADDEADDEADDEAD) // sentinel, never a valid address
	return off, nil
}

func (j *JitMemoryRegion) reserveTrampolineSlot(size int) (int, error) {
	if j.Code.executable {
		return 0, fmt.Errorf("memregion: cannot write trampoline after makeExecutable")
	}
	off := j.trampolineOff
	if off+size > len(j.Code.mem) {
		return 0, fmt.Errorf("memregion: trampoline island overflow")
	}
	j.trampolineOff += size
	return off, nil
}

func regionAddress(r *Region, offset int) uintptr {
	return uintptr(offsetPointer(r.mem, offset))
}
