package jitinst

import (
	"testing"
	"unsafe"
)

// TestInstLayout pins the Inst struct to the exact byte offsets the
// producer/consumer contract requires. If Go's natural
// struct layout ever drifts (e.g. after adding a field), this test
// catches it immediately rather than failing silently at the ABI
// boundary.
func TestInstLayout(t *testing.T) {
	var in Inst
	cases := []struct {
		name string
		off uintptr
	}{
		{"Kind", unsafe.Offsetof(in.Kind)},
		{"Cls", unsafe.Offsetof(in.Cls)},
		{"Cond", unsafe.Offsetof(in.Cond)},
		{"ShiftType", unsafe.Offsetof(in.ShiftType)},
		{"SymType", unsafe.Offsetof(in.SymType)},
		{"IsFloat", unsafe.Offsetof(in.IsFloat)},
		{"Rd", unsafe.Offsetof(in.Rd)},
		{"Rn", unsafe.Offsetof(in.Rn)},
		{"Rm", unsafe.Offsetof(in.Rm)},
		{"Ra", unsafe.Offsetof(in.Ra)},
		{"Imm", unsafe.Offsetof(in.Imm)},
		{"Imm2", unsafe.Offsetof(in.Imm2)},
		{"TargetID", unsafe.Offsetof(in.TargetID)},
		{"SymName", unsafe.Offsetof(in.SymName)},
	}
	want := map[string]uintptr{
		"Kind": 0, "Cls": 2, "Cond": 3, "ShiftType": 4, "SymType": 5,
		"IsFloat": 6, "Rd": 8, "Rn": 12, "Rm": 16, "Ra": 20, "Imm": 24,
		"Imm2": 32, "TargetID": 40, "SymName": 48,
	}
	for _, c := range cases {
		if w := want[c.name]; c.off != w {
			t.Errorf("field %s at offset %d, want %d", c.name, c.off, w)
		}
	}
	if got := unsafe.Sizeof(in); got != 128 {
		t.Errorf("sizeof(Inst) = %d, want 128", got)
	}
}

func TestSymNameRoundTrip(t *testing.T) {
	var in Inst
	in.SetSymName("printf")
	if got := in.GetSymName(); got != "printf" {
		t.Errorf("GetSymName() = %q, want %q", got, "printf")
	}
}

func TestSymNameTruncation(t *testing.T) {
	var in Inst
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	in.SetSymName(string(long))
	got := in.GetSymName()
	if len(got) != SymNameLen-1 {
		t.Errorf("truncated name length = %d, want %d", len(got), SymNameLen-1)
	}
}

func TestVRegSentinel(t *testing.T) {
	for i := int32(0); i < 32; i++ {
		id := VReg(i)
		if !IsVReg(id) {
			t.Fatalf("VReg(%d) = %d not recognized by IsVReg", i, id)
		}
		if VRegIndex(id) != i {
			t.Fatalf("VRegIndex(VReg(%d)) = %d, want %d", i, VRegIndex(id), i)
		}
	}
	if IsVReg(RegSP) || IsVReg(RegFP) || IsVReg(RegLR) || IsVReg(RegIP0) || IsVReg(RegIP1) {
		t.Fatalf("GPR sentinels misclassified as V-registers")
	}
}
