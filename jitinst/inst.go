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

// Package jitinst defines the flat, ABI-stable JitInst record that is the
// contract between the IL backend's final lowering stage (the collector,
// out of scope here) and the ARM64 encoder (package encoder).
package jitinst

// SymNameLen is the fixed size of the sym_name field, including its NUL
// terminator. The field is part of the binary ABI contract with the
// instruction producer and must never change size.
const SymNameLen = 80

// Class selects the operand width/kind: 32-bit int, 64-bit int, 32-bit
// float, 64-bit float.
type Class uint8

const (
	ClassW Class = iota // 32-bit integer
	ClassL // 64-bit integer
	ClassS // 32-bit float (single)
	ClassD // 64-bit float (double)
)

// SymType tags what kind of symbol sym_name refers to, for instructions
// that reference one (CALL_EXT, LOAD_ADDR, DATA_SYMREF).
type SymType uint8

const (
	SymNone SymType = iota
	SymGlobal
	SymTLS
	SymData
	SymFunc
)

// ShiftType selects the shift applied to the third ALU operand.
type ShiftType uint8

const (
	ShiftLSL ShiftType = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// Kind tags the family an instruction record belongs to. The space is
// partitioned by family; pseudo-kinds emit no machine code but drive
// the encoder's bookkeeping.
type Kind uint16

const (
	KindInvalid Kind = iota

	// ALU register-register-register: ADD/SUB/AND/ORR/EOR/MUL/SDIV/UDIV...
	KindALURRR
	// ALU register-register-immediate: ADDi/SUBi/ANDi/ORRi/EORi...
	KindALURRI
	// Shifted-ALU: rd = rn OP (rm shift_type imm2)
	KindALUShifted
	// Move-wide: MOVZ/MOVK/MOVN, 16-bit imm at shift slot imm2
	KindMoveWide
	// Floating point arithmetic: FADD/FSUB/FMUL/FDIV/FNEG/FABS...
	KindFP
	// Float <-> integer conversion: SCVTF/UCVTF/FCVTZS/FCVTZU
	KindFPConvert
	// Sign/zero extension: SXTB/SXTH/SXTW/UXTB/UXTH
	KindExtend
	// Comparisons: CMP/CMN/FCMP(E)/FCMPE
	KindCompare
	// Conditional set: CSET/CSEL/CSINC/CSNEG
	KindCondSet
	// Memory load/store, single register, immediate or register offset
	KindMemLoadStore
	// Memory load/store pair (LDP/STP)
	KindMemLoadStorePair
	// Unconditional / conditional / compare-and-branch
	KindBranch
	// PC-relative address materialization (plain ADR/ADRP, not LOAD_ADDR)
	KindPCRelative
	// ADRP+ADD pair for an external/data symbol address
	KindLoadAddr
	// Call to a name resolved at link time
	KindCallExt
	// 8-byte data-slot symbol reference, resolved at link time
	KindDataSymRef
	// Stack pointer manipulation: SUB sp,sp,#n / ADD sp,sp,#n
	KindStackAdjust
	// Special: NOP/BRK/SVC/RET/miscellaneous single-word instructions
	KindSpecial
	// NEON vector instruction
	KindNEON
	// Raw data directive (bytes emitted verbatim into the data buffer)
	KindData

	// Pseudo-kinds: bookkeeping only, emit no machine code.
	KindLabel
	KindFuncBegin
	KindFuncEnd
	KindDebugLoc
	KindNop
	KindComment
)

// BranchClass selects which immediate field width/position a branch
// fixup patches.
type BranchClass uint8

const (
	BranchImm26 BranchClass = iota // B, BL
	BranchImm19 // B.cond, CBZ, CBNZ
	BranchImm14 // TBZ, TBNZ
)

// Register sentinels. Values 0..30 are plain GPR indices (class-dependent
// Xn/Wn). Negative values are sentinels distinguishable from any GPR
// index.
const (
	RegSP int32 = -1
	RegFP int32 = -2 // X29
	RegLR int32 = -3 // X30
	RegIP0 int32 = -4 // X16
	RegIP1 int32 = -5 // X17
	// RegNone marks an unused operand slot (ra on a 3-operand ALU op).
	RegNone int32 = -100

	// VRegBase is the sentinel offset for NEON V-registers: a V-register
	// index i in [0,31] is encoded as VRegBase - i, always <= -1000 so it
	// can never collide with the small negative GPR sentinels above.
	VRegBase int32 = -1000
)

// VReg encodes NEON vector register i (0..31) as a negative sentinel.
func VReg(i int32) int32 { return VRegBase - i }

// IsVReg reports whether a register ID refers to a NEON V-register.
func IsVReg(id int32) bool { return id <= VRegBase }

// VRegIndex extracts the V-register index from a sentinel produced by VReg.
// Only valid when IsVReg(id) is true.
func VRegIndex(id int32) int32 { return VRegBase - id }

// Inst is the encoder's input record. Layout mirrors the 128-byte binary
// contract field-for-field (kind@0, cls@2, cond@3, shift_type@4,
// sym_type@5, is_float@6, padding@7, rd@8, rn@12, rm@16, ra@20, imm@24,
// imm2@32, target_id@40, sym_name@48..127). Go's struct
// layout for this exact field order and type sequence already produces
// these offsets with natural alignment on amd64/arm64; this is verified
// by TestInstLayout rather than asserted with struct tags, since the
// producer and consumer agree on offsets, not on Go's field names.
type Inst struct {
	Kind Kind // @0, 2 bytes
	Cls Class // @2, 1 byte
	Cond Cond // @3, 1 byte
	ShiftType ShiftType // @4, 1 byte
	SymType SymType // @5, 1 byte
	IsFloat bool // @6, 1 byte
	_ byte // @7, 1 byte padding
	Rd int32 // @8
	Rn int32 // @12
	Rm int32 // @16
	Ra int32 // @20
	Imm int64 // @24
	Imm2 int64 // @32
	TargetID uint32 // @40
	_ [4]byte // @44 padding to reach sym_name at @48
	SymName [SymNameLen]byte // @48, 80 bytes, NUL-terminated
}

// SetSymName copies name into the fixed sym_name field, truncating if
// necessary and always leaving room for (and writing) a NUL terminator.
func (in *Inst) SetSymName(name string) {
	n := len(name)
	if n > SymNameLen-1 {
		n = SymNameLen - 1
	}
	copy(in.SymName[:], name[:n])
	for i := n; i < SymNameLen; i++ {
		in.SymName[i] = 0
	}
}

// GetSymName reads the NUL-terminated sym_name field back into a string.
func (in *Inst) GetSymName() string {
	n := 0
	for n < SymNameLen && in.SymName[n] != 0 {
		n++
	}
	return string(in.SymName[:n])
}

// Cond is an ARM64 condition code (EQ, NE, CS,...).
type Cond uint8

const (
	CondEQ Cond = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
	CondNV
)

// Stream is an append-only sequence of Inst records, exactly as produced
// by the (external) IL backend collector. The encoder consumes it
// read-only; references between instructions are by TargetID or SymName,
// never by pointer.
type Stream []Inst
