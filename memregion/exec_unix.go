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

//go:build unix

package memregion

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MakeExecutable flips the code region to R+X, then calls the
// instruction-cache hook for the region (on arm64 a no-op: the
// mprotect to PROT_EXEC already makes the new instruction bytes visible
// to instruction fetch), and keeps W^X by construction — no page is
// ever requested as W+X simultaneously.
func (j *JitMemoryRegion) MakeExecutable() error {
	if err := unix.Mprotect(j.Code.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("memregion: mprotect R+X: %w", err)
	}
	j.Code.writable = false
	j.Code.executable = true
	flushInstructionCache(j.Code.mem)
	return nil
}

// AssertWX reports an error if, contrary to the W^X invariant, the code
// region is both writable and executable. Used by tests.
func (j *JitMemoryRegion) AssertWX() error {
	if j.Code.writable && j.Code.executable {
		return fmt.Errorf("memregion: W^X violated: code region is both writable and executable")
	}
	return nil
}
