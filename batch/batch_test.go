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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/albanread/fasterbasic/internal/arena"
	"github.com/albanread/fasterbasic/jitinst"
)

func writeFixture(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(p, []byte("10 PRINT \"HI\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func retEntry() jitinst.Stream {
	var ret jitinst.Inst
	ret.Kind = jitinst.KindSpecial
	ret.Imm = 3 // spRET
	return jitinst.Stream{ret}
}

func TestDiscoverFilesSortedRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "b.bas")
	writeFixture(t, dir, "sub/a.bas")
	writeFixture(t, dir, "ignored.txt")

	files, err := DiscoverFiles(dir)
	if err != nil {
		t.Fatalf("DiscoverFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want 2 entries", files)
	}
	if files[0] >= files[1] {
		t.Fatalf("files not sorted: %v", files)
	}
}

func TestRunAllFilesSucceed(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "one.bas")
	writeFixture(t, dir, "two.bas")

	h := NewHarness()
	results, err := h.Run(context.Background(), Options{
		Root: dir,
		Collect: func(path string, a *arena.Arena) (jitinst.Stream, error) {
			return retEntry(), nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("file %s failed: %v", r.Path, r.Err)
		}
		if r.FailedAt != PhaseComplete {
			t.Fatalf("file %s ended at phase %s, want complete", r.Path, r.FailedAt)
		}
	}
}

func TestRunFailFastStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.bas")
	writeFixture(t, dir, "b.bas")

	h := NewHarness()
	results, err := h.Run(context.Background(), Options{
		Root: dir,
		FailFast: true,
		Collect: func(path string, a *arena.Arena) (jitinst.Stream, error) {
			return nil, fmt.Errorf("collector refuses on purpose")
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1 (fail-fast should stop after the first)", len(results))
	}
	if results[0].FailedAt != PhaseCollect {
		t.Fatalf("FailedAt = %s, want collect", results[0].FailedAt)
	}
}

func TestRunContinuesWithoutFailFast(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.bas")
	writeFixture(t, dir, "b.bas")

	h := NewHarness()
	results, err := h.Run(context.Background(), Options{
		Root: dir,
		Collect: func(path string, a *arena.Arena) (jitinst.Stream, error) {
			return nil, fmt.Errorf("collector refuses on purpose")
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (no fail-fast should process every file)", len(results))
	}
}
