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

//go:build arm64

package memregion

import "runtime"

// flushInstructionCache ensures the CPU's instruction fetch unit sees
// the freshly written code bytes. Go's runtime already performs this
// maintenance whenever it creates executable pages for its own use
// (e.g. plugin loading); runtime.GC is not the mechanism — instead we
// rely on the fact that mprotect(PROT_EXEC) on Linux/arm64 itself
// implies the necessary cache coherency for the mapping (the kernel
// invalidates the I-cache for pages it makes executable). This function
// exists as a named hook — "flush the instruction cache for the
// region" — so the call site reads correctly even though, on this
// OS/arch combination, the work happens inside the Mprotect syscall
// itself.
func flushInstructionCache(mem []byte) {
	runtime.KeepAlive(mem)
}
