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

// This file holds the shared register-mapping helpers used by every
// encode_*.go file. Each individual instruction encoder is a pure
// function of its operands, returning a 32-bit instruction word with no
// hidden state and no allocation.

// gpr resolves a jitinst register ID to
// its 5-bit encoding field. SP and FP/LR/IP0/IP1 sentinels map to their
// real architectural register numbers; plain indices pass through.
// ok is false for anything out of the valid GPR range, including
// NEON V-register sentinels, which must never reach a GPR encoder.
func gpr(id int32) (reg uint32, ok bool) {
	switch id {
	case jitinst.RegSP:
		return 31, true
	case jitinst.RegFP:
		return 29, true
	case jitinst.RegLR:
		return 30, true
	case jitinst.RegIP0:
		return 16, true
	case jitinst.RegIP1:
		return 17, true
	}
	if id >= 0 && id <= 30 {
		return uint32(id), true
	}
	return 0, false
}

// vreg resolves a NEON V-register sentinel to its 5-bit encoding field.
func vreg(id int32) (reg uint32, ok bool) {
	if !jitinst.IsVReg(id) {
		return 0, false
	}
	idx := jitinst.VRegIndex(id)
	if idx < 0 || idx > 31 {
		return 0, false
	}
	return uint32(idx), true
}

// sf returns the ARM64 "sf" bit (1 = 64-bit operation) for a class.
func sf(cls jitinst.Class) uint32 {
	if cls == jitinst.ClassL {
		return 1
	}
	return 0
}

// fpType returns the ARM64 floating "type" field (0 = single, 1 =
// double) for a class.
func fpType(cls jitinst.Class) uint32 {
	if cls == jitinst.ClassD {
		return 1
	}
	return 0
}

// condCode maps jitinst.Cond to ARM64's 4-bit condition encoding. The
// jitinst.Cond constants are declared in the same order as the
// architectural encoding, so this is the identity map; kept as a named
// function so call sites read clearly and so a future divergence has
// exactly one place to fix.
func condCode(c jitinst.Cond) uint32 { return uint32(c) }

// fitsSigned reports whether v fits in a signed field of the given bit
// width, used by every immediate-range check before committing to an
// encoding.
func fitsSigned(v int64, bits uint) bool {
	lo := -(int64(1) << (bits - 1))
	hi := (int64(1) << (bits - 1)) - 1
	return v >= lo && v <= hi
}

func fitsUnsigned(v int64, bits uint) bool {
	if v < 0 {
		return false
	}
	hi := (int64(1) << bits) - 1
	return v <= hi
}

// signExtract returns the low `bits` bits of v as an unsigned field
// suitable for ORing into an instruction word (two's-complement
// truncation — the standard way to pack a signed immediate into a
// fixed-width bitfield).
func signExtract(v int64, bits uint) uint32 {
	mask := uint32(1)<<bits - 1
	return uint32(v) & mask
}
