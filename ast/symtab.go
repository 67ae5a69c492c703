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

package ast

import (
	"strings"

	nlrm "github.com/launix-de/NonLockingReadMap"
)

// symEntry is the record stored for each CONST symbol. It implements
// nlrm.KeyGetter so the table can be backed by a NonLockingReadMap when a
// batch run wants to share one warmed constant table across many files
// (SPEC_FULL.md §4.1 Domain note).
type symEntry struct {
	name string
	value Value
}

func (e *symEntry) Key() string { return e.name }

// SymbolTable maps an upper-cased constant name to its value. It is
// read-only from the optimizer's point of view; population happens
// before optimization runs (semantic analysis is an external
// collaborator).
type SymbolTable struct {
	plain map[string]Value // used when no shared cache is needed
	fast *nlrm.NonLockingReadMap[symEntry, string]
}

// NewSymbolTable creates an empty, independent symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{plain: make(map[string]Value)}
}

// NewSharedSymbolTable wraps a NonLockingReadMap so that many concurrent
// optimizer passes (one per batch-harness file) can read a common set of
// constants without contending on a mutex. Rebuilds (via Set) are
// expected to be infrequent and batched, exactly the access pattern
// NonLockingReadMap targets.
func NewSharedSymbolTable(m *nlrm.NonLockingReadMap[symEntry, string]) *SymbolTable {
	return &SymbolTable{fast: m}
}

// Set installs or overwrites a constant. Names are upper-cased on entry
// so lookups never have to normalize case themselves.
func (t *SymbolTable) Set(name string, v Value) {
	name = strings.ToUpper(name)
	if t.fast != nil {
		t.fast.Set(&symEntry{name: name, value: v})
		return
	}
	t.plain[name] = v
}

// Lookup returns the constant bound to name (already upper-cased by
// convention) and whether it exists.
func (t *SymbolTable) Lookup(name string) (Value, bool) {
	if t.fast != nil {
		e := t.fast.Get(name)
		if e == nil {
			return Value{}, false
		}
		return e.value, true
	}
	v, ok := t.plain[name]
	return v, ok
}

// StepDirection classifies a FOR loop's step expression at compile time.
type StepDirection uint8

const (
	StepUnknown StepDirection = iota
	StepPositive
	StepNegative
	StepZero
)

// StepDirectionMap records, per upper-cased FOR-loop variable name, the
// most recently analyzed step direction. A subsequent FOR reusing the
// same variable name overwrites the prior entry.
type StepDirectionMap struct {
	m map[string]StepDirection
}

// NewStepDirectionMap creates an empty map.
func NewStepDirectionMap() *StepDirectionMap {
	return &StepDirectionMap{m: make(map[string]StepDirection)}
}

// Set records the step direction for a loop variable, overwriting any
// prior entry for the same upper-cased name.
func (m *StepDirectionMap) Set(varName string, dir StepDirection) {
	m.m[strings.ToUpper(varName)] = dir
}

// Get returns the step direction recorded for a loop variable.
func (m *StepDirectionMap) Get(varName string) (StepDirection, bool) {
	d, ok := m.m[strings.ToUpper(varName)]
	return d, ok
}
