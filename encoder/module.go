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

// Package encoder turns a jitinst.Stream into machine code: a library of
// pure per-instruction-kind encode functions (encode_*.go), a dispatch
// table keyed on instruction kind, and the JitModule that accumulates
// the resulting code/data buffers along with every table the linker
// will need.
package encoder

import (
	"fmt"

	"github.com/albanread/fasterbasic/jitinst"
)

// Severity tags a Diagnostic's importance.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

// Diagnostic is one encoder-time message, always tagged with the
// instruction index and code offset that produced it.
type Diagnostic struct {
	Severity Severity
	InstIndex int
	CodeOff int
	Message string
}

// Fixup is an unresolved forward branch recorded during encoding and
// patched by ResolveFixups.
type Fixup struct {
	CodeOffset int
	TargetID uint32
	BranchClass jitinst.BranchClass
	BaseOpcode uint32
}

// ExtCall records a BL instruction whose target is an external symbol,
// needing a trampoline.
type ExtCall struct {
	CodeOffset int
	SymName string
}

// LoadAddrReloc records an ADRP+ADD pair needing a real address patched
// in once the linker knows it.
type LoadAddrReloc struct {
	AdrpOffset int
	SymName string
	Addend int64
}

// DataSymRef records an 8-byte address slot in the data buffer that the
// linker must fill in.
type DataSymRef struct {
	DataOffset int
	SymName string
	Addend int64
}

// SourceLoc is one entry of the code_offset -> (line, col) source map.
type SourceLoc struct {
	Line, Col int
}

// SymbolInfo records where a named symbol lives within the module.
type SymbolInfo struct {
	Offset int
	IsCode bool
	SymType jitinst.SymType
}

// Counters tallies encoder-time bookkeeping.
type Counters struct {
	InstructionsEmitted int
	LabelsDefined int
	FixupsRecorded int
	FixupsResolved int
}

// Module is the encoder's output: raw code/data
// buffers plus every table the linker needs to finish the job.
type Module struct {
	Code []byte
	Data []byte

	Labels map[uint32]int // block ID -> code byte offset
	Symbols map[string]SymbolInfo

	Fixups []Fixup
	ExtCalls []ExtCall
	LoadAddrRelocs []LoadAddrReloc
	DataSymRefs []DataSymRef

	SourceMap map[int]SourceLoc

	Diagnostics []Diagnostic
	Counters Counters
}

// NewModule returns an empty Module ready to accept encoded instructions.
func NewModule() *Module {
	return &Module{
		Labels: make(map[uint32]int),
		Symbols: make(map[string]SymbolInfo),
		SourceMap: make(map[int]SourceLoc),
	}
}

// CodeLen and DataLen satisfy the monotonically-increasing-during-
// encoding invariant on code_len/data_len by always being derived from
// len(Code)/len(Data) rather than tracked separately — there is no way
// for them to desynchronize from the buffers.
func (m *Module) CodeLen() int { return len(m.Code) }
func (m *Module) DataLen() int { return len(m.Data) }

// ErrorCount reports how many SevError diagnostics have been recorded.
// A nonzero count means the module must not be executed.
func (m *Module) ErrorCount() int {
	n := 0
	for _, d := range m.Diagnostics {
		if d.Severity == SevError {
			n++
		}
	}
	return n
}

func (m *Module) diag(idx int, sev Severity, format string, args...interface{}) {
	m.Diagnostics = append(m.Diagnostics, Diagnostic{
		Severity: sev,
		InstIndex: idx,
		CodeOff: len(m.Code),
		Message: fmt.Sprintf(format, args...),
	})
}

// emitWord appends one little-endian 32-bit instruction word to the code
// buffer and returns its byte offset.
func (m *Module) emitWord(w uint32) int {
	off := len(m.Code)
	m.Code = append(m.Code, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	m.Counters.InstructionsEmitted++
	return off
}

// emitDataWord64 appends an 8-byte little-endian slot to the data buffer
// (used by DATA_SYMREF) and returns its byte offset.
func (m *Module) emitDataWord64(v uint64) int {
	off := len(m.Data)
	for i := 0; i < 8; i++ {
		m.Data = append(m.Data, byte(v>>(8*uint(i))))
	}
	return off
}

// emitDataBytes appends raw data bytes (KindData) and returns the
// starting offset.
func (m *Module) emitDataBytes(b []byte) int {
	off := len(m.Data)
	m.Data = append(m.Data, b...)
	return off
}
