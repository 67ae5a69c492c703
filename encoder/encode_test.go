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

import (
	"testing"

	"github.com/albanread/fasterbasic/jitinst"
)

// Scenario 6: Forward branch fixup. Encode [B->L99, NOP, LABEL L99].
// After ResolveFixups, the B instruction's imm26 field equals +2 words;
// fixups_resolved == 1.
func TestScenario6ForwardBranchFixup(t *testing.T) {
	var b jitinst.Inst
	b.Kind = jitinst.KindBranch
	b.Imm2 = int64(brB)
	b.TargetID = 99

	var nop jitinst.Inst
	nop.Kind = jitinst.KindSpecial
	nop.Imm = int64(spNOP)

	var label jitinst.Inst
	label.Kind = jitinst.KindLabel
	label.TargetID = 99

	stream := jitinst.Stream{b, nop, label}
	m := Encode(stream)
	if len(m.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", m.Diagnostics)
	}
	if len(m.Fixups) != 1 {
		t.Fatalf("fixups recorded = %d, want 1", len(m.Fixups))
	}
	m.ResolveFixups()
	if m.Counters.FixupsResolved != 1 {
		t.Fatalf("fixups_resolved = %d, want 1", m.Counters.FixupsResolved)
	}

	word := uint32(m.Code[0]) | uint32(m.Code[1])<<8 | uint32(m.Code[2])<<16 | uint32(m.Code[3])<<24
	imm26 := int32(word << 6) // sign-extend the low 26 bits
	imm26 >>= 6
	if imm26 != 2 {
		t.Fatalf("resolved branch imm26 = %d, want +2 words", imm26)
	}
}

func TestCodeLenMultipleOf4(t *testing.T) {
	var add jitinst.Inst
	add.Kind = jitinst.KindALURRR
	add.Cls = jitinst.ClassL
	add.Imm2 = int64(aluADD)
	add.Rd, add.Rn, add.Rm = 0, 1, 2

	stream := jitinst.Stream{add, add, add}
	m := Encode(stream)
	if m.CodeLen()%4 != 0 {
		t.Fatalf("code_len = %d, not a multiple of 4", m.CodeLen())
	}
	if m.ErrorCount() != 0 {
		t.Fatalf("unexpected encoding errors: %+v", m.Diagnostics)
	}
}

func TestUnresolvedLabelIsDiagnostic(t *testing.T) {
	var b jitinst.Inst
	b.Kind = jitinst.KindBranch
	b.Imm2 = int64(brB)
	b.TargetID = 42 // never defined

	m := Encode(jitinst.Stream{b})
	m.ResolveFixups()
	if m.ErrorCount() == 0 {
		t.Fatalf("expected an error diagnostic for an unresolved label")
	}
}

func TestALURRREncodesADD(t *testing.T) {
	var in jitinst.Inst
	in.Kind = jitinst.KindALURRR
	in.Cls = jitinst.ClassL
	in.Imm2 = int64(aluADD)
	in.Rd, in.Rn, in.Rm = 0, 1, 2
	word, ok := encodeALURRR(&in)
	if !ok {
		t.Fatal("encodeALURRR returned ok=false")
	}
	// ADD X0, X1, X2 => sf=1, opcode 0x0B, rm=2, rn=1, rd=0
	want := uint32(0x0B000000) | 1<<31 | 2<<16 | 1<<5 | 0
	if word != want {
		t.Fatalf("word = %#08x, want %#08x", word, want)
	}
}
