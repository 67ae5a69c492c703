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

type cmpOp uint8

const (
	cmpCMP cmpOp = iota
	cmpCMN
	cmpFCMP // uses the signalling FCMPE variant by contract
)

// encodeCompare emits CMP/CMN (SUBS/ADDS with a discarded Rd=XZR) or
// FCMPE, selected by Imm2.
func encodeCompare(in *jitinst.Inst) (uint32, bool) {
	op := cmpOp(in.Imm2)
	switch op {
	case cmpCMP, cmpCMN:
		rn, ok1 := gpr(in.Rn)
		rm, ok2 := gpr(in.Rm)
		if !ok1 || !ok2 {
			return 0, false
		}
		s := sf(in.Cls)
		const zr = 31
		base := uint32(0x6B00001F) // SUBS XZR, Rn, Rm pattern (rd field forced to 31)
		if op == cmpCMN {
			base = 0x2B00001F
		}
		return base | s<<31 | rm<<16 | rn<<5 | zr, true
	case cmpFCMP:
		rn, ok1 := vreg(in.Rn)
		rm, ok2 := vreg(in.Rm)
		if !ok1 || !ok2 {
			return 0, false
		}
		ty := fpType(in.Cls)
		// FCMPE Rn, Rm — the signalling variant (opcode bits = 10000)
		return 0x1E202010 | ty<<22 | rm<<16 | rn<<5, true
	}
	return 0, false
}

type condSetOp uint8

const (
	csetCSET condSetOp = iota
	csetCSEL
	csetCSINC
	csetCSNEG
)

// encodeCondSet emits CSET/CSEL/CSINC/CSNEG, selected by Imm2.
func encodeCondSet(in *jitinst.Inst) (uint32, bool) {
	rd, ok1 := gpr(in.Rd)
	if !ok1 {
		return 0, false
	}
	s := sf(in.Cls)
	cond := condCode(in.Cond)
	op := condSetOp(in.Imm2)

	switch op {
	case csetCSET:
		// CSET Rd, cond == CSINC Rd, XZR, XZR, invert(cond)
		const zr = 31
		invCond := cond ^ 1
		return 0x1A800400 | s<<31 | zr<<16 | invCond<<12 | zr<<5 | rd, true
	case csetCSEL, csetCSINC, csetCSNEG:
		rn, ok2 := gpr(in.Rn)
		rm, ok3 := gpr(in.Rm)
		if !ok2 || !ok3 {
			return 0, false
		}
		var opBit, op2 uint32
		switch op {
		case csetCSEL:
			opBit, op2 = 0, 0
		case csetCSINC:
			opBit, op2 = 0, 1
		case csetCSNEG:
			opBit, op2 = 1, 1
		}
		return 0x1A800000 | s<<31 | opBit<<30 | rm<<16 | cond<<12 | op2<<10 | rn<<5 | rd, true
	}
	return 0, false
}
