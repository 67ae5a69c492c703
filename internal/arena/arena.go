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

// Package arena implements a per-compilation-unit bump allocator: an
// arena/region allocator per compilation unit, with the optimizer's
// "alias vs allocate" discipline preserved by having the optimizer
// return handles that the arena owns. One Arena is created per
// batch-harness file (or per ad hoc compile) and discarded wholesale
// when that unit is done.
package arena

import (
	"github.com/google/uuid"
	"github.com/albanread/fasterbasic/ast"
)

const chunkSize = 256

// Arena bump-allocates ast.Node values in fixed-size chunks, avoiding a
// separate heap allocation per node during a pass that may allocate
// thousands of them (every fold that doesn't alias an existing subtree
// allocates one). It satisfies ast.Arena.
type Arena struct {
	id uuid.UUID
	chunks [][]ast.Node
	cursor int // index into the last chunk
}

// New creates an empty arena tagged with a fresh correlation ID, used to
// tie diagnostics and batch-run records back to the compilation unit
// that produced them.
func New() *Arena {
	return &Arena{id: uuid.New()}
}

// ID returns the arena's correlation ID.
func (a *Arena) ID() uuid.UUID { return a.id }

// NewNode returns a pointer to a fresh, zeroed ast.Node living in the
// arena's current chunk, growing the chunk list if needed.
func (a *Arena) NewNode() *ast.Node {
	if len(a.chunks) == 0 || a.cursor == len(a.chunks[len(a.chunks)-1]) {
		a.chunks = append(a.chunks, make([]ast.Node, chunkSize))
		a.cursor = 0
	}
	last := a.chunks[len(a.chunks)-1]
	n := &last[a.cursor]
	a.cursor++
	return n
}

// NodeCount returns how many nodes have been allocated from this arena,
// for reporting.
func (a *Arena) NodeCount() int {
	if len(a.chunks) == 0 {
		return 0
	}
	return (len(a.chunks)-1)*chunkSize + a.cursor
}

// Reset discards every node allocated so far, freeing the arena for
// reuse by the next compilation unit without returning memory to the OS
// chunk-by-chunk (the whole backing slice is simply dropped).
func (a *Arena) Reset() {
	a.chunks = nil
	a.cursor = 0
}
