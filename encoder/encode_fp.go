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

type fpOp uint8

const (
	fpADD fpOp = iota
	fpSUB
	fpMUL
	fpDIV
	fpNEG
	fpABS
)

// encodeFP emits floating-point dp-2-source (ADD/SUB/MUL/DIV) or
// dp-1-source (NEG/ABS) instructions, selected by the op packed into
// Imm2's low byte (same per-kind convention as the integer ALU family).
func encodeFP(in *jitinst.Inst) (uint32, bool) {
	rd, ok1 := vregOrGpr(in.Rd)
	rn, ok2 := vregOrGpr(in.Rn)
	if !ok1 || !ok2 {
		return 0, false
	}
	ty := fpType(in.Cls)
	op := fpOp(in.Imm2)

	switch op {
	case fpADD, fpSUB, fpMUL, fpDIV:
		rm, ok3 := vregOrGpr(in.Rm)
		if !ok3 {
			return 0, false
		}
		var opcode uint32
		switch op {
		case fpADD:
			opcode = 0x2
		case fpSUB:
			opcode = 0x3
		case fpMUL:
			opcode = 0x0
		case fpDIV:
			opcode = 0x1
		}
		return 0x1E200800 | ty<<22 | rm<<16 | opcode<<12 | rn<<5 | rd, true
	case fpNEG:
		return 0x1E214000 | ty<<22 | rn<<5 | rd, true
	case fpABS:
		return 0x1E20C000 | ty<<22 | rn<<5 | rd, true
	}
	return 0, false
}

// vregOrGpr resolves an operand that may be a NEON V-register (scalar
// FP operands live in the same register file as vector ones).
func vregOrGpr(id int32) (uint32, bool) {
	if jitinst.IsVReg(id) {
		return vreg(id)
	}
	return 0, false
}

type fpConvOp uint8

const (
	convSCVTF fpConvOp = iota // signed int -> float
	convUCVTF // unsigned int -> float
	convFCVTZS // float -> signed int, round toward zero
	convFCVTZU // float -> unsigned int, round toward zero
)

// encodeFPConvert emits SCVTF/UCVTF/FCVTZS/FCVTZU, selected by the op
// packed into in.Imm.
func encodeFPConvert(in *jitinst.Inst) (uint32, bool) {
	op := fpConvOp(in.Imm)
	s := sf(in.Cls) // integer side width
	ty := fpType(in.Cls)

	switch op {
	case convSCVTF, convUCVTF:
		rd, ok1 := vreg(in.Rd)
		rn, ok2 := gpr(in.Rn)
		if !ok1 || !ok2 {
			return 0, false
		}
		rmode := uint32(0)
		opcode := uint32(2)
		if op == convUCVTF {
			opcode = 3
		}
		return 0x1E220000 | s<<31 | ty<<22 | rmode<<19 | opcode<<16 | rn<<5 | rd, true
	case convFCVTZS, convFCVTZU:
		rd, ok1 := gpr(in.Rd)
		rn, ok2 := vreg(in.Rn)
		if !ok1 || !ok2 {
			return 0, false
		}
		rmode := uint32(3)
		opcode := uint32(0)
		if op == convFCVTZU {
			opcode = 1
		}
		return 0x1E200000 | s<<31 | ty<<22 | rmode<<19 | opcode<<16 | rn<<5 | rd, true
	}
	return 0, false
}
