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

package encoder

import "github.com/albanread/fasterbasic/jitinst"

type memOp uint8

const (
	memLDR memOp = iota
	memSTR
)

// encodeMemLoadStore emits LDR/STR with an unsigned, scaled immediate
// offset: Rt, [Rn, #imm]. imm must be a multiple of the access size and
// fit the 12-bit scaled field; out-of-range immediates fail to a
// diagnostic rather than silently emitting the wrong instruction
//. FP classes (S/D) route to the FP-opcode
// variant of the same family.
func encodeMemLoadStore(in *jitinst.Inst) (uint32, bool) {
	op := memOp(in.Imm2)
	size, isFP := memSizeFor(in.Cls)

	var rt uint32
	var ok bool
	if isFP {
		rt, ok = vreg(in.Rd)
	} else {
		rt, ok = gpr(in.Rd)
	}
	rn, okn := gpr(in.Rn)
	if !ok || !okn {
		return 0, false
	}

	scale := uint32(size)
	byteOff := in.Imm
	if byteOff < 0 || byteOff%(1<<scale) != 0 {
		return 0, false
	}
	scaledOff := byteOff >> scale
	if !fitsUnsigned(scaledOff, 12) {
		return 0, false
	}
	imm12 := uint32(scaledOff) & 0xFFF

	var base uint32
	switch {
	case !isFP && op == memLDR:
		base = sizeBase(size) | 0x00400000 // LDR (immediate, unsigned offset)
	case !isFP && op == memSTR:
		base = sizeBase(size) // STR (immediate, unsigned offset)
	case isFP && op == memLDR:
		base = fpSizeBase(size) | 0x00400000
	case isFP && op == memSTR:
		base = fpSizeBase(size)
	}
	return base | imm12<<10 | rn<<5 | rt, true
}

// memSizeFor returns the log2(byte size) and whether the class is
// floating point.
func memSizeFor(cls jitinst.Class) (sizeLog2 uint, isFP bool) {
	switch cls {
	case jitinst.ClassW:
		return 2, false
	case jitinst.ClassL:
		return 3, false
	case jitinst.ClassS:
		return 2, true
	case jitinst.ClassD:
		return 3, true
	}
	return 2, false
}

func sizeBase(sizeLog2 uint) uint32 {
	if sizeLog2 == 3 {
		return 0xF9000000 // 64-bit LDR/STR immediate family
	}
	return 0xB9000000 // 32-bit LDR/STR immediate family
}

func fpSizeBase(sizeLog2 uint) uint32 {
	if sizeLog2 == 3 {
		return 0xFD000000 // 64-bit (D) FP LDR/STR immediate family
	}
	return 0xBD000000 // 32-bit (S) FP LDR/STR immediate family
}

// encodeMemLoadStorePair emits LDP/STP Rt, Rt2, [Rn, #imm] with a
// signed, scaled 7-bit immediate. Ra in the jitinst record carries Rt2.
func encodeMemLoadStorePair(in *jitinst.Inst) (uint32, bool) {
	op := memOp(in.Imm2)
	size, isFP := memSizeFor(in.Cls)

	var rt, rt2 uint32
	var ok1, ok2 bool
	if isFP {
		rt, ok1 = vreg(in.Rd)
		rt2, ok2 = vreg(in.Ra)
	} else {
		rt, ok1 = gpr(in.Rd)
		rt2, ok2 = gpr(in.Ra)
	}
	rn, okn := gpr(in.Rn)
	if !ok1 || !ok2 || !okn {
		return 0, false
	}

	scale := uint32(size)
	byteOff := in.Imm
	if byteOff%(1<<scale) != 0 {
		return 0, false
	}
	scaledOff := byteOff >> scale
	if !fitsSigned(scaledOff, 7) {
		return 0, false
	}
	imm7 := signExtract(scaledOff, 7)

	var base uint32
	isLoad := op == memLDR
	switch {
	case !isFP && size == 3:
		base = 0xA9400000 // 64-bit LDP/STP, signed offset
	case !isFP:
		base = 0x29400000 // 32-bit LDP/STP, signed offset
	case isFP && size == 3:
		base = 0x6D400000 // D-form FP LDP/STP
	default:
		base = 0x2D400000 // S-form FP LDP/STP
	}
	if !isLoad {
		base &^= 0x00400000
	}
	return base | imm7<<15 | rt2<<10 | rn<<5 | rt, true
}
