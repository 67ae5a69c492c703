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

// Encode runs the ARM64 encoder over a full instruction stream: pass 1
// (this function) encodes every instruction, resolving backward
// branches immediately and recording a Fixup for every forward branch;
// pass 2 (ResolveFixups) patches those once all labels are known
//. Encoding never stops at
// the first error — every diagnostic is collected so as many surface in
// one pass as possible.
func Encode(stream jitinst.Stream) *Module {
	m := NewModule()

	for idx := range stream {
		in := &stream[idx]
		switch in.Kind {
		case jitinst.KindLabel:
			m.Labels[in.TargetID] = len(m.Code)
			m.Counters.LabelsDefined++
			continue
		case jitinst.KindFuncBegin, jitinst.KindFuncEnd, jitinst.KindNop, jitinst.KindComment:
			continue
		case jitinst.KindDebugLoc:
			m.SourceMap[len(m.Code)] = SourceLoc{Line: int(in.Imm), Col: int(in.Imm2)}
			continue
		case jitinst.KindData:
			m.emitDataBytes(dataBytesFromInst(in))
			continue
		case jitinst.KindDataSymRef:
			off := m.emitDataWord64(0)
			m.DataSymRefs = append(m.DataSymRefs, DataSymRef{DataOffset: off, SymName: in.GetSymName(), Addend: in.Imm})
			continue
		}

		if in.Kind == jitinst.KindBranch {
			m.encodeBranchInst(idx, in)
			continue
		}
		if in.Kind == jitinst.KindLoadAddr {
			m.encodeLoadAddr(idx, in)
			continue
		}
		if in.Kind == jitinst.KindCallExt {
			m.encodeCallExt(idx, in)
			continue
		}
		if in.Kind == jitinst.KindNEON && neonOp(in.Imm2) == neonADDV {
			words, ok := EncodeADDV(arrangement(in.Imm))
			if !ok {
				m.diag(idx, SevError, "unsupported ADDV arrangement %d at index %d", in.Imm, idx)
				continue
			}
			for _, w := range words {
				m.emitWord(w)
			}
			continue
		}

		word, ok := dispatch(in)
		if !ok {
			m.diag(idx, SevError, "unable to encode instruction kind %d at index %d", in.Kind, idx)
			continue
		}
		m.emitWord(word)
	}

	return m
}

// dataBytesFromInst extracts raw bytes for a KindData directive. The
// producer packs up to 8 bytes into Imm (little-endian) and the count
// into Imm2; longer runs are expected to be split into multiple
// KindData records by the producer, keeping this encoder a pure,
// allocation-light function.
func dataBytesFromInst(in *jitinst.Inst) []byte {
	n := int(in.Imm2)
	if n < 0 {
		n = 0
	}
	if n > 8 {
		n = 8
	}
	out := make([]byte, n)
	v := uint64(in.Imm)
	for i := 0; i < n; i++ {
		out[i] = byte(v >> (8 * uint(i)))
	}
	return out
}

// dispatch routes an instruction to its family encoder by Kind.
func dispatch(in *jitinst.Inst) (uint32, bool) {
	switch in.Kind {
	case jitinst.KindALURRR:
		return encodeALURRR(in)
	case jitinst.KindALURRI:
		return encodeALURRI(in)
	case jitinst.KindALUShifted:
		return encodeALUShifted(in)
	case jitinst.KindMoveWide:
		return encodeMoveWide(in)
	case jitinst.KindFP:
		return encodeFP(in)
	case jitinst.KindFPConvert:
		return encodeFPConvert(in)
	case jitinst.KindExtend:
		return encodeExtend(in)
	case jitinst.KindCompare:
		return encodeCompare(in)
	case jitinst.KindCondSet:
		return encodeCondSet(in)
	case jitinst.KindMemLoadStore:
		return encodeMemLoadStore(in)
	case jitinst.KindMemLoadStorePair:
		return encodeMemLoadStorePair(in)
	case jitinst.KindPCRelative:
		return encodePCRelative(in)
	case jitinst.KindStackAdjust:
		return encodeStackAdjust(in)
	case jitinst.KindSpecial:
		return encodeSpecial(in)
	case jitinst.KindNEON:
		return encodeNEON(in)
	}
	return 0, false
}

// encodeBranchInst implements the two-pass branch handling: a backward
// branch (target label already defined) computes its delta immediately;
// a forward branch emits a placeholder and records a Fixup.
func (m *Module) encodeBranchInst(idx int, in *jitinst.Inst) {
	base, class, ok := branchBase(in)
	if !ok {
		m.diag(idx, SevError, "invalid branch operand at index %d", idx)
		return
	}
	off := len(m.Code)
	if targetOff, known := m.Labels[in.TargetID]; known {
		deltaWords := int64(targetOff-off) / 4
		word, ok := patchBranchImmediate(base, class, deltaWords)
		if !ok {
			m.diag(idx, SevError, "branch offset out of range at index %d", idx)
			return
		}
		m.emitWord(word)
		return
	}
	m.emitWord(base) // placeholder, offset field is zero
	m.Fixups = append(m.Fixups, Fixup{CodeOffset: off, TargetID: in.TargetID, BranchClass: class, BaseOpcode: base})
	m.Counters.FixupsRecorded++
}

// ResolveFixups is the encoder's pass 2: for each recorded Fixup,
// compute the delta in words to its now-known label and patch the word
// in place. A fixup whose label
// was never defined contributes to the error count rather than leaving
// a stray branch to garbage.
func (m *Module) ResolveFixups() {
	for _, f := range m.Fixups {
		targetOff, known := m.Labels[f.TargetID]
		if !known {
			m.diag(-1, SevError, "unresolved label %d for fixup at code offset %d", f.TargetID, f.CodeOffset)
			continue
		}
		deltaWords := int64(targetOff-f.CodeOffset) / 4
		word, ok := patchBranchImmediate(f.BaseOpcode, f.BranchClass, deltaWords)
		if !ok {
			m.diag(-1, SevError, "fixup offset out of range at code offset %d", f.CodeOffset)
			continue
		}
		patchWord(m.Code, f.CodeOffset, word)
		m.Counters.FixupsResolved++
	}
}

func patchWord(code []byte, offset int, word uint32) {
	code[offset] = byte(word)
	code[offset+1] = byte(word >> 8)
	code[offset+2] = byte(word >> 16)
	code[offset+3] = byte(word >> 24)
}

// encodeLoadAddr implements LOAD_ADDR: emit ADRP then ADD
// with zero immediates as placeholders, and record a LoadAddrReloc for
// the linker.
func (m *Module) encodeLoadAddr(idx int, in *jitinst.Inst) {
	rd, ok := gpr(in.Rd)
	if !ok {
		m.diag(idx, SevError, "invalid destination register for LOAD_ADDR at index %d", idx)
		return
	}
	adrpOff := m.emitWord(0x90000000 | rd) // ADRP Rd, #0 placeholder
	m.emitWord(0x91000000 | rd<<5 | rd) // ADD Rd, Rd, #0 placeholder
	m.LoadAddrRelocs = append(m.LoadAddrRelocs, LoadAddrReloc{AdrpOffset: adrpOff, SymName: in.GetSymName(), Addend: in.Imm})
}

// encodeCallExt implements CALL_EXT: emit a BL with
// offset 0 and append an ExtCall record for the linker to resolve.
func (m *Module) encodeCallExt(idx int, in *jitinst.Inst) {
	off := m.emitWord(0x94000000) // BL #0 placeholder
	m.ExtCalls = append(m.ExtCalls, ExtCall{CodeOffset: off, SymName: in.GetSymName()})
}
