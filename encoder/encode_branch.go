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

type branchOp uint8

const (
	brB branchOp = iota
	brBL
	brBcond
	brCBZ
	brCBNZ
	brTBZ
	brTBNZ
)

// branchBase returns the base opcode (with a zero immediate field) and
// the branch class for a branch operator, packed into in.Imm2 by the
// producer.
func branchBase(in *jitinst.Inst) (base uint32, class jitinst.BranchClass, ok bool) {
	op := branchOp(in.Imm2)
	switch op {
	case brB:
		return 0x14000000, jitinst.BranchImm26, true
	case brBL:
		return 0x94000000, jitinst.BranchImm26, true
	case brBcond:
		return 0x54000000 | condCode(in.Cond), jitinst.BranchImm19, true
	case brCBZ, brCBNZ:
		rt, okr := gpr(in.Rd)
		if !okr {
			return 0, 0, false
		}
		b := uint32(0x34000000) // CBZ
		if op == brCBNZ {
			b = 0x35000000
		}
		return b | sf(in.Cls)<<31 | rt, jitinst.BranchImm19, true
	case brTBZ, brTBNZ:
		rt, okr := gpr(in.Rd)
		if !okr {
			return 0, 0, false
		}
		bitNum := uint32(in.Imm) & 0x3F
		b := uint32(0x36000000) // TBZ
		if op == brTBNZ {
			b = 0x37000000
		}
		b |= (bitNum & 0x1F) << 19
		b |= (bitNum >> 5) << 31
		return b | rt, jitinst.BranchImm14, true
	}
	return 0, 0, false
}

// patchBranchImmediate ORs a signed word-delta into the preserved base
// opcode per branch class, used both by the immediate (backward-branch)
// path in Encode and by ResolveFixups for forward branches.
func patchBranchImmediate(base uint32, class jitinst.BranchClass, deltaWords int64) (uint32, bool) {
	switch class {
	case jitinst.BranchImm26:
		if !fitsSigned(deltaWords, 26) {
			return 0, false
		}
		return base | signExtract(deltaWords, 26), true
	case jitinst.BranchImm19:
		if !fitsSigned(deltaWords, 19) {
			return 0, false
		}
		return base | signExtract(deltaWords, 19)<<5, true
	case jitinst.BranchImm14:
		if !fitsSigned(deltaWords, 14) {
			return 0, false
		}
		return base | signExtract(deltaWords, 14)<<5, true
	}
	return 0, false
}
