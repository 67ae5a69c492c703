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

package memregion

import "unsafe"

// offsetPointer returns the address of mem[offset] without bounds
// re-checking (callers already validated offset against len(mem)).
func offsetPointer(mem []byte, offset int) unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(&mem[0])) + uintptr(offset))
}
