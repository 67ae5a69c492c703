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

// Arena allocates the nodes the optimizer creates. A real compilation
// unit uses internal/arena.Arena (a bump allocator scoped to one file);
// this thin interface lets the optimizer stay agnostic of the concrete
// allocator and lets tests use a trivial heap-backed one.
type Arena interface {
	NewNode() *Node
}

// heapArena satisfies Arena by allocating directly on the Go heap. Used
// by tests and by any caller that does not need per-file arena scoping.
type heapArena struct{}

// HeapArena is a stateless Arena that allocates nodes normally.
var HeapArena Arena = heapArena{}

func (heapArena) NewNode() *Node { return &Node{} }
