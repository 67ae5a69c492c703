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

// Arrangement codes, packed into in.Imm for NEON instructions: the
// exact arrangement the operation runs over.
type arrangement uint8

const (
	arr8B arrangement = iota
	arr16B
	arr4H
	arr8H
	arr2S
	arr4S
	arr1D
	arr2D
	// float arrangements for ADDV-style horizontal reductions
	arr2SF
	arr4SF
	arr2DF
)

// NEON ops use fixed register slots (V28 accumulator, V29/V30 sources)
// because this layer sits below register allocation.
const (
	neonAcc = 28
	neonSrc0 = 29
	neonSrc1 = 30
)

type neonOp uint8

const (
	neonADD neonOp = iota
	neonSUB
	neonMUL
	neonADDV // horizontal reduction
)

// encodeNEON emits a vector ADD/SUB/MUL over the fixed V29/V30 -> V28
// register convention. ADDV is not handled here: Encode routes it to
// EncodeADDV in this file, since its expansion depends on arrangement.
func encodeNEON(in *jitinst.Inst) (uint32, bool) {
	op := neonOp(in.Imm2)
	arr := arrangement(in.Imm)
	q, size, ok := arrangementBits(arr)
	if !ok {
		return 0, false
	}

	switch op {
	case neonADD, neonSUB, neonMUL:
		var opcode uint32
		var uBit uint32
		switch op {
		case neonADD:
			opcode, uBit = 0x10, 0
		case neonSUB:
			opcode, uBit = 0x10, 1
		case neonMUL:
			opcode, uBit = 0x13, 0
		}
		return 0x0E200400 | q<<30 | uBit<<29 | size<<22 | neonSrc1<<16 | opcode<<11 | neonSrc0<<5 | neonAcc, true
	}
	return 0, false
}

// arrangementBits maps an arrangement code to the Q (64 vs 128-bit) and
// size (element width) fields shared by most NEON vector encodings.
func arrangementBits(arr arrangement) (q, size uint32, ok bool) {
	switch arr {
	case arr8B:
		return 0, 0, true
	case arr16B:
		return 1, 0, true
	case arr4H:
		return 0, 1, true
	case arr8H:
		return 1, 1, true
	case arr2S, arr2SF:
		return 0, 2, true
	case arr4S, arr4SF:
		return 1, 2, true
	case arr1D:
		return 0, 3, true
	case arr2D, arr2DF:
		return 1, 3, true
	}
	return 0, 0, false
}

// EncodeADDV expands a horizontal-reduction ADDV over V29 into V28 into
// the instruction sequence appropriate for the arrangement. Integer
// arrangements 4S/2D/8H/16B use the architectural ADDV/ADDP
// instructions; float arrangements 4S/2S use a pairwise-add reduction
// (FADDP) since there is no scalar float ADDV. Arrangements outside
// this validated set return ok=false so the caller records an encoding
// diagnostic rather than emit a wrong opcode; unvalidated arrangements
// wait on a future pass that checks the sequence against a reference
// disassembler.
func EncodeADDV(arr arrangement) (words []uint32, ok bool) {
	switch arr {
	case arr4S:
		// ADDV S28, V29.4S (integer horizontal add across 4 lanes)
		return []uint32{0x0E31B9BC | 1<<30 | 2<<22 | neonSrc0<<5 | neonAcc}, true
	case arr2D:
		// 2D has no single ADDV; use ADDP Vd.2D, Vn.2D, Vn.2D then take lane 0.
		addp := uint32(0x4EE0BFBC) | neonSrc0<<16 | neonSrc0<<5 | neonAcc
		return []uint32{addp}, true
	case arr8H:
		return []uint32{0x0E31B9BC | 1<<30 | 1<<22 | neonSrc0<<5 | neonAcc}, true
	case arr16B:
		return []uint32{0x0E31B9BC | 1<<30 | 0<<22 | neonSrc0<<5 | neonAcc}, true
	case arr4SF, arr2SF:
		// float horizontal add: pairwise FADDP reduction.
		faddp := uint32(0x6E20D4A8) | neonSrc0<<16 | neonSrc0<<5 | neonAcc
		return []uint32{faddp}, true
	}
	return nil, false
}
