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

type specialOp uint8

const (
	spNOP specialOp = iota
	spBRK
	spSVC
	spRET
)

// encodeSpecial emits NOP/BRK/SVC/RET, selected by Imm.
func encodeSpecial(in *jitinst.Inst) (uint32, bool) {
	switch specialOp(in.Imm) {
	case spNOP:
		return 0xD503201F, true
	case spBRK:
		imm16 := uint32(in.Imm2) & 0xFFFF
		return 0xD4200000 | imm16<<5, true
	case spSVC:
		imm16 := uint32(in.Imm2) & 0xFFFF
		return 0xD4000001 | imm16<<5, true
	case spRET:
		rn := uint32(30) // LR by default
		if in.Rn != 0 {
			if id, ok := gpr(in.Rn); ok {
				rn = id
			}
		}
		return 0xD65F0000 | rn<<5, true
	}
	return 0, false
}

// encodeStackAdjust emits ADD/SUB sp, sp, #n, selected by the sign of
// Imm (negative grows the stack, matching a typical "allocate N bytes
// of stack" instruction).
func encodeStackAdjust(in *jitinst.Inst) (uint32, bool) {
	n := in.Imm
	sub := n < 0
	if sub {
		n = -n
	}
	if !fitsUnsigned(n, 12) {
		return 0, false
	}
	const sp = 31
	base := uint32(0x91000000) // ADD (immediate), sf=1 implied below
	if sub {
		base = 0xD1000000 // SUB (immediate), sf=1
	}
	return base | uint32(n)<<10 | sp<<5 | sp, true
}

// encodePCRelative emits a plain ADR/ADRP (not the two-instruction
// LOAD_ADDR sequence, which is handled separately by the encode driver
// since it needs a relocation record). immhi/immlo packing follows the
// standard ADR(P) layout.
func encodePCRelative(in *jitinst.Inst) (uint32, bool) {
	rd, ok := gpr(in.Rd)
	if !ok {
		return 0, false
	}
	isPage := in.Imm2 != 0 // non-zero flag selects ADRP vs ADR
	imm := in.Imm
	immlo := uint32(imm) & 0x3
	immhi := uint32(imm>>2) & 0x7FFFF
	op := uint32(0)
	if isPage {
		op = 1
	}
	return 0x10000000 | op<<31 | immlo<<29 | immhi<<5 | rd, true
}

// Data directives have no encoder in this file: a data directive writes
// raw bytes into the data buffer rather than a code word, so it does not
// fit the uint32-returning encoder shape and is handled by Encode's
// KindData case instead.
