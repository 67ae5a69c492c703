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

// aluOp identifies which ALU operation a KindALURRR/KindALURRI/
// KindALUShifted record performs; carried in Imm2's low bits since the
// jitinst record has no dedicated opcode-family field beyond Kind.
// Convention: Imm2 low byte = aluOp for these three kinds.
type aluOp uint8

const (
	aluADD aluOp = iota
	aluSUB
	aluAND
	aluORR
	aluEOR
	aluMUL
	aluSDIV
	aluUDIV
)

// encodeALURRR emits a register-register-register ALU instruction:
// Rd = Rn OP Rm. ADD/SUB/AND/ORR/EOR use the standard dp-2-source
// "shifted register" form with a zero shift; MUL/SDIV/UDIV use the
// dp-3-source / dp-2-source multiply/divide encodings.
func encodeALURRR(in *jitinst.Inst) (uint32, bool) {
	rd, ok1 := gpr(in.Rd)
	rn, ok2 := gpr(in.Rn)
	rm, ok3 := gpr(in.Rm)
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}
	s := sf(in.Cls)
	op := aluOp(in.Imm2)

	switch op {
	case aluADD, aluSUB, aluAND, aluORR, aluEOR:
		var base uint32
		switch op {
		case aluADD:
			base = 0x0B000000 // ADD (shifted register)
		case aluSUB:
			base = 0x4B000000 // SUB (shifted register)
		case aluAND:
			base = 0x0A000000 // AND (shifted register)
		case aluORR:
			base = 0x2A000000 // ORR (shifted register)
		case aluEOR:
			base = 0x4A000000 // EOR (shifted register)
		}
		return base | s<<31 | rm<<16 | rn<<5 | rd, true

	case aluMUL:
		// MADD Rd, Rn, Rm, XZR (ARM64's MUL pseudo-instruction)
		const zr = 31
		return 0x1B000000 | s<<31 | rm<<16 | zr<<10 | rn<<5 | rd, true

	case aluSDIV:
		return 0x1AC00C00 | s<<31 | rm<<16 | rn<<5 | rd, true

	case aluUDIV:
		return 0x1AC00800 | s<<31 | rm<<16 | rn<<5 | rd, true
	}
	return 0, false
}

// encodeALURRI emits Rd = Rn OP #imm for ADD/SUB (12-bit unsigned
// immediate, optionally shifted left 12) and AND/ORR/EOR (bitmask
// immediate, which this layer requires the producer to have already
// validated/encoded into Imm as the raw N:immr:imms field — the
// general bitmask-immediate encoder is a well-known but lengthy
// algorithm; this encoder trusts Imm to already carry the packed
// N:immr:imms value in its low 13 bits for AND/ORR/EOR, exactly as the
// producer emits it for ALURRI on those ops).
func encodeALURRI(in *jitinst.Inst) (uint32, bool) {
	rd, ok1 := gpr(in.Rd)
	rn, ok2 := gpr(in.Rn)
	if !ok1 || !ok2 {
		return 0, false
	}
	s := sf(in.Cls)
	op := aluOp(in.Imm2)

	switch op {
	case aluADD, aluSUB:
		imm := in.Imm
		shift := uint32(0)
		if imm < 0 || imm > 0xFFF {
			if imm%4096 == 0 && imm>>12 <= 0xFFF && imm >= 0 {
				shift = 1
				imm = imm >> 12
			} else {
				return 0, false
			}
		}
		base := uint32(0x11000000) // ADD (immediate)
		if op == aluSUB {
			base = 0x51000000 // SUB (immediate)
		}
		return base | s<<31 | shift<<22 | uint32(imm)<<10 | rn<<5 | rd, true

	case aluAND, aluORR, aluEOR:
		packed := uint32(in.Imm) & 0x1FFF // N:immr:imms, 13 bits
		var base uint32
		switch op {
		case aluAND:
			base = 0x12000000
		case aluORR:
			base = 0x32000000
		case aluEOR:
			base = 0x52000000
		}
		return base | s<<31 | packed<<10 | rn<<5 | rd, true
	}
	return 0, false
}

// encodeALUShifted emits Rd = Rn OP (Rm shift_type #amount), reading the
// shift type from in.ShiftType and the amount from in.Imm2.
func encodeALUShifted(in *jitinst.Inst) (uint32, bool) {
	rd, ok1 := gpr(in.Rd)
	rn, ok2 := gpr(in.Rn)
	rm, ok3 := gpr(in.Rm)
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}
	s := sf(in.Cls)
	amount := uint32(in.Imm2) & 0x3F
	shiftBits := uint32(in.ShiftType) & 0x3
	op := aluOp(in.Imm)

	var base uint32
	switch op {
	case aluADD:
		base = 0x0B000000
	case aluSUB:
		base = 0x4B000000
	case aluAND:
		base = 0x0A000000
	case aluORR:
		base = 0x2A000000
	case aluEOR:
		base = 0x4A000000
	default:
		return 0, false
	}
	return base | s<<31 | shiftBits<<22 | rm<<16 | amount<<10 | rn<<5 | rd, true
}

// encodeMoveWide emits MOVZ/MOVK/MOVN. The 16-bit immediate comes from
// Imm, the shift slot (0/16/32/48, encoded as hw=slot/16) from Imm2
//. The specific opcode (Z/K/N) is selected by in.Cond
// being reused as a 2-bit sub-opcode: 0=MOVN,2=MOVZ,3=MOVK (matching
// ARM64's own "opc" encoding field so no extra translation is needed).
func encodeMoveWide(in *jitinst.Inst) (uint32, bool) {
	rd, ok := gpr(in.Rd)
	if !ok {
		return 0, false
	}
	s := sf(in.Cls)
	imm16 := uint32(in.Imm) & 0xFFFF
	hw := uint32(in.Imm2/16) & 0x3
	opc := uint32(in.Cond) & 0x3
	return 0x12800000 | opc<<29 | s<<31 | hw<<21 | imm16<<5 | rd, true
}

// encodeExtend emits SXTB/SXTH/SXTW/UXTB/UXTH as their canonical
// SBFM/UBFM aliases.
func encodeExtend(in *jitinst.Inst) (uint32, bool) {
	rd, ok1 := gpr(in.Rd)
	rn, ok2 := gpr(in.Rn)
	if !ok1 || !ok2 {
		return 0, false
	}
	s := sf(in.Cls)
	// in.Imm selects width: 0=byte,1=half,2=word(only for sign-extend to 64)
	width := in.Imm
	signed := in.Cond == 0 // Cond reused as a signed(0)/unsigned(1) flag here
	var imms uint32
	switch width {
	case 0:
		imms = 7
	case 1:
		imms = 15
	case 2:
		imms = 31
	default:
		return 0, false
	}
	base := uint32(0x13000000) // SBFM
	if !signed {
		base = 0x53000000 // UBFM
	}
	return base | s<<31 | s<<22 /* N bit tracks sf for 64-bit forms */ | 0<<16 | imms<<10 | rn<<5 | rd, true
}
