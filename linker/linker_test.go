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

package linker

import (
	"testing"

	"github.com/albanread/fasterbasic/encoder"
	"github.com/albanread/fasterbasic/jitinst"
)

// Scenario 7: an external call whose symbol the jump table already
// knows about gets a real trampoline, not a trap.
func TestScenario7TrampolineForResolvedCall(t *testing.T) {
	var call jitinst.Inst
	call.Kind = jitinst.KindCallExt
	call.SetSymName("PRINT_STRING")

	m := encoder.Encode(jitinst.Stream{call})
	if m.ErrorCount() != 0 {
		t.Fatalf("unexpected encoder errors: %+v", m.Diagnostics)
	}

	jt := NewJumpTable()
	jt.Publish("PRINT_STRING", 0x4141414141)

	res, err := Link(m, "", jt, nil)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if res.TrampolinesBuilt != 1 {
		t.Fatalf("trampolines_built = %d, want 1", res.TrampolinesBuilt)
	}
	if res.TrapsInstalled != 0 {
		t.Fatalf("traps_installed = %d, want 0", res.TrapsInstalled)
	}
	res.Region.Free()
}

// Scenario 8: calling an unresolved symbol traps, it does not segfault —
// the linker must still succeed and install a trap stub rather than
// failing the whole link.
func TestScenario8UnresolvedSymbolTraps(t *testing.T) {
	var call jitinst.Inst
	call.Kind = jitinst.KindCallExt
	call.SetSymName("NEVER_DEFINED")

	m := encoder.Encode(jitinst.Stream{call})
	res, err := Link(m, "", NewJumpTable(), nil)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if res.TrapsInstalled != 1 {
		t.Fatalf("traps_installed = %d, want 1", res.TrapsInstalled)
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0] != "NEVER_DEFINED" {
		t.Fatalf("unresolved = %+v, want [NEVER_DEFINED]", res.Unresolved)
	}
	res.Region.Free()
}

func TestLinkRefusesModuleWithEncoderErrors(t *testing.T) {
	var bad jitinst.Inst
	bad.Kind = jitinst.KindBranch
	bad.Imm2 = -1 // not a valid branchOp
	m := encoder.Encode(jitinst.Stream{bad})
	if m.ErrorCount() == 0 {
		t.Fatal("expected the encoder to record an error for an invalid branch op")
	}
	if _, err := Link(m, "", NewJumpTable(), nil); err == nil {
		t.Fatal("expected Link to refuse a module with encoder errors")
	}
}

func TestLinkAndFinalizeMakesCodeExecutable(t *testing.T) {
	var add jitinst.Inst
	add.Kind = jitinst.KindALURRR
	add.Cls = jitinst.ClassL
	add.Imm2 = 0 // aluADD
	add.Rd, add.Rn, add.Rm = 0, 1, 2

	var ret jitinst.Inst
	ret.Kind = jitinst.KindSpecial
	ret.Imm = 3 // spRET

	m := encoder.Encode(jitinst.Stream{add, ret})
	if m.ErrorCount() != 0 {
		t.Fatalf("unexpected encoder errors: %+v", m.Diagnostics)
	}
	res, err := LinkAndFinalize(m, "", NewJumpTable(), nil)
	if err != nil {
		t.Fatalf("LinkAndFinalize: %v", err)
	}
	if err := res.Region.AssertWX(); err != nil {
		t.Fatalf("AssertWX: %v", err)
	}
	res.Region.Free()
}
