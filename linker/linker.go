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

// Package linker copies an encoder.Module's code and data into a
// memregion.JitMemoryRegion and resolves every outstanding relocation:
// external calls (trampoline island), LOAD_ADDR ADRP+ADD pairs, and
// DATA_SYMREF address slots. Symbol resolution tries, in order, the
// module's own internal symbol table, a shared jump table of
// already-linked functions (so one BASIC program's GOSUB targets can
// call into another that was JIT-compiled earlier in the same batch
// run), and finally a host-process dlsym-equivalent lookup for runtime
// library calls such as PRINT or SQR. An external symbol that resolves
// at none of those three steps gets a trap stub instead of a link
// failure, so the unresolved call faults cleanly at the call site
// rather than aborting compilation of everything else in the module.
package linker

import (
	"fmt"
	"plugin"
	"reflect"

	"github.com/albanread/fasterbasic/encoder"
	"github.com/albanread/fasterbasic/memregion"
	nlrm "github.com/launix-de/NonLockingReadMap"
)

// jumpEntry is one function published into the shared jump table so
// later links in the same batch run can call it directly instead of
// trapping.
type jumpEntry struct {
	name string
	addr uintptr
}

func (e *jumpEntry) Key() string { return e.name }

// JumpTable is a process-wide table of already-linked function
// addresses, shared by every link in a batch run and safe for
// concurrent use.
type JumpTable struct {
	m *nlrm.NonLockingReadMap[jumpEntry, string]
}

// NewJumpTable creates an empty shared jump table.
func NewJumpTable() *JumpTable {
	return &JumpTable{m: nlrm.New[jumpEntry, string]()}
}

// Publish makes a linked function's address visible to later links.
func (jt *JumpTable) Publish(name string, addr uintptr) {
	jt.m.Set(&jumpEntry{name: name, addr: addr})
}

func (jt *JumpTable) lookup(name string) (uintptr, bool) {
	e := jt.m.Get(name)
	if e == nil {
		return 0, false
	}
	return e.addr, true
}

// RuntimeResolver looks up a runtime-library symbol by name (PRINT,
// SQR, and the rest of the intrinsic surface named but not defined
// here — the runtime library itself is out of scope, only the lookup
// mechanism is implemented). The default resolver wraps
// Go's plugin.Symbol lookup against a runtime shared object, the same
// pattern used elsewhere in this codebase to resolve external function
// pointers for JIT'd closures.
type RuntimeResolver func(name string) (uintptr, bool)

// Result reports what the linker did.
type Result struct {
	EntryPoint uintptr
	TrampolinesBuilt int
	TrapsInstalled int
	Resolved []string
	Unresolved []string
	Diagnostics []encoder.Diagnostic
	Region *memregion.JitMemoryRegion
}

// ErrorCount reports how many SevError diagnostics the link step itself
// recorded (distinct from the encoder's own pre-existing diagnostics).
func (r *Result) ErrorCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == encoder.SevError {
			n++
		}
	}
	return n
}

// Link copies an encoded module into fresh memory and resolves every
// relocation. It never refuses to proceed because of an unresolved
// external symbol — a trap stub takes that call site instead. It does refuse if the encoder itself already recorded
// errors: linking instructions known to be malformed would only produce
// a misleading result.
func Link(m *encoder.Module, entrySymbol string, jt *JumpTable, resolver RuntimeResolver) (*Result, error) {
	if m.ErrorCount() > 0 {
		return nil, fmt.Errorf("linker: refusing to link a module with %d encoder error(s)", m.ErrorCount())
	}

	trampolineReserve := (len(m.ExtCalls) + len(m.LoadAddrRelocs)) * memregion.TrampolineSize
	region, err := memregion.Allocate(len(m.Code), len(m.Data), trampolineReserve)
	if err != nil {
		return nil, fmt.Errorf("linker: allocate region: %w", err)
	}

	if err := region.CopyCode(m.Code); err != nil {
		region.Free()
		return nil, fmt.Errorf("linker: copy code: %w", err)
	}
	if err := region.CopyData(m.Data); err != nil {
		region.Free()
		return nil, fmt.Errorf("linker: copy data: %w", err)
	}

	res := &Result{Region: region}

	for _, call := range m.ExtCalls {
		addr, how := resolveSymbol(call.SymName, m, jt, resolver)
		if how == resolveUnresolved {
			stubOff, err := region.WriteTrapStub()
			if err != nil {
				res.Diagnostics = append(res.Diagnostics, linkErr(call.CodeOffset, "trap stub allocation failed for %q: %v", call.SymName, err))
				continue
			}
			if err := region.PatchBLToTrampoline(call.CodeOffset, stubOff); err != nil {
				res.Diagnostics = append(res.Diagnostics, linkErr(call.CodeOffset, "patch trap call to %q: %v", call.SymName, err))
				continue
			}
			res.TrapsInstalled++
			res.Unresolved = append(res.Unresolved, call.SymName)
			continue
		}
		if how == resolveInternal {
			// addr is the callee's code offset in this region: branch
			// to it directly, no trampoline needed.
			if err := region.PatchBLToTrampoline(call.CodeOffset, int(addr)); err != nil {
				res.Diagnostics = append(res.Diagnostics, linkErr(call.CodeOffset, "patch internal call to %q: %v", call.SymName, err))
				continue
			}
			res.Resolved = append(res.Resolved, call.SymName)
			continue
		}
		stubOff, err := region.WriteTrampoline(addr)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, linkErr(call.CodeOffset, "trampoline allocation failed for %q: %v", call.SymName, err))
			continue
		}
		if err := region.PatchBLToTrampoline(call.CodeOffset, stubOff); err != nil {
			res.Diagnostics = append(res.Diagnostics, linkErr(call.CodeOffset, "patch call to %q: %v", call.SymName, err))
			continue
		}
		res.TrampolinesBuilt++
		res.Resolved = append(res.Resolved, call.SymName)
	}

	for _, reloc := range m.LoadAddrRelocs {
		addr, how := resolveSymbol(reloc.SymName, m, jt, resolver)
		if how == resolveUnresolved {
			res.Diagnostics = append(res.Diagnostics, linkErr(reloc.AdrpOffset, "unresolved LOAD_ADDR symbol %q", reloc.SymName))
			continue
		}
		if err := region.PatchAdrpAdd(reloc.AdrpOffset, addr+uintptr(reloc.Addend)); err != nil {
			res.Diagnostics = append(res.Diagnostics, linkErr(reloc.AdrpOffset, "patch LOAD_ADDR %q: %v", reloc.SymName, err))
			continue
		}
		res.Resolved = append(res.Resolved, reloc.SymName)
	}

	for _, ref := range m.DataSymRefs {
		addr, how := resolveSymbol(ref.SymName, m, jt, resolver)
		if how == resolveUnresolved {
			res.Diagnostics = append(res.Diagnostics, linkErr(ref.DataOffset, "unresolved DATA_SYMREF symbol %q", ref.SymName))
			continue
		}
		value := uint64(addr + uintptr(ref.Addend))
		if err := region.PatchDataWord64(ref.DataOffset, value); err != nil {
			res.Diagnostics = append(res.Diagnostics, linkErr(ref.DataOffset, "patch DATA_SYMREF %q: %v", ref.SymName, err))
			continue
		}
		res.Resolved = append(res.Resolved, ref.SymName)
	}

	if entry, ok := m.Symbols[entrySymbol]; ok {
		res.EntryPoint = region.CodeAddress(entry.Offset)
	} else if entrySymbol != "" {
		res.Diagnostics = append(res.Diagnostics, linkErr(0, "entry symbol %q not found in module", entrySymbol))
	}

	return res, nil
}

type resolveHow uint8

const (
	resolveUnresolved resolveHow = iota
	resolveInternal
	resolveJumpTable
	resolveRuntime
)

// resolveSymbol tries, in order: the module's own code/data symbol
// table, the cross-module jump table, then the host runtime resolver
//.
func resolveSymbol(name string, m *encoder.Module, jt *JumpTable, resolver RuntimeResolver) (uintptr, resolveHow) {
	if info, ok := m.Symbols[name]; ok {
		return uintptr(info.Offset), resolveInternal
	}
	if jt != nil {
		if addr, ok := jt.lookup(name); ok {
			return addr, resolveJumpTable
		}
	}
	if resolver != nil {
		if addr, ok := resolver(name); ok {
			return addr, resolveRuntime
		}
	}
	return 0, resolveUnresolved
}

func linkErr(offset int, format string, args...interface{}) encoder.Diagnostic {
	return encoder.Diagnostic{
		Severity: encoder.SevError,
		CodeOff: offset,
		Message: fmt.Sprintf(format, args...),
	}
}

// LinkAndFinalize links the module and then, iff the link step itself
// recorded zero errors, flips the code region to R+X so the result is
// callable.
func LinkAndFinalize(m *encoder.Module, entrySymbol string, jt *JumpTable, resolver RuntimeResolver) (*Result, error) {
	res, err := Link(m, entrySymbol, jt, resolver)
	if err != nil {
		return nil, err
	}
	if res.ErrorCount() > 0 {
		return res, nil
	}
	if err := res.Region.MakeExecutable(); err != nil {
		return res, fmt.Errorf("linker: make executable: %w", err)
	}
	return res, nil
}

// DefaultPluginResolver builds a RuntimeResolver backed by a Go plugin
// (.so) exposing the runtime library's intrinsics as exported symbols —
// the closest Go-native equivalent to a dlsym lookup against a runtime
// shared object.
func DefaultPluginResolver(p *plugin.Plugin) RuntimeResolver {
	return func(name string) (uintptr, bool) {
		sym, err := p.Lookup(name)
		if err != nil {
			return 0, false
		}
		return reflect.ValueOf(sym).Pointer(), true
	}
}
