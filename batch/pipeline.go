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

package batch

import (
	"unsafe"

	"github.com/albanread/fasterbasic/encoder"
	"github.com/albanread/fasterbasic/jitinst"
	"github.com/albanread/fasterbasic/session"
)

// encode is a thin indirection over encoder.Encode and its fixup pass
// (ResolveFixups), kept as its own function so tests can stub the whole
// pipeline seam below it without reaching into the encoder package's
// internals.
func encode(stream jitinst.Stream) *encoder.Module {
	m := encoder.Encode(stream)
	m.ResolveFixups()
	return m
}

// nativeEntry is the calling convention the compiled entry point
// presents: no arguments, an int32 exit code, matching the
// "int main(void)" form (the args-taking form is handled by a future
// ABI thunk once the runtime library's argv marshaling is in scope).
type nativeEntry func() int32

// makeEntry reinterprets a linked code address as a callable Go
// function value. This is the standard (if officially unsupported) Go
// JIT trick: a function value is, at the ABI level, just a pointer to a
// pointer to code, so wrapping the address twice and casting produces
// a value the Go compiler will happily call.
func makeEntry(addr uintptr) session.Entry {
	if addr == 0 {
		return func(args []string) int { return 0 }
	}
	fnPtr := &addr
	fn := *(*nativeEntry)(unsafe.Pointer(&fnPtr))
	return func(args []string) int {
		return int(fn())
	}
}
