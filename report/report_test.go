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

package report

import (
	"strings"
	"testing"

	"github.com/albanread/fasterbasic/batch"
)

func TestRenderIsDeterministicRegardlessOfInsertOrder(t *testing.T) {
	entries := []Entry{
		{File: "b.bas", Phase: batch.PhaseEncode, Severity: 2, Message: "bad immediate"},
		{File: "a.bas", Phase: batch.PhaseComplete, Severity: 0, Message: "ok"},
		{File: "a.bas", Phase: batch.PhaseLink, Severity: 1, Message: "unresolved symbol"},
	}

	r1 := New()
	for _, e := range entries {
		r1.Add(e)
	}
	r2 := New()
	for i := len(entries) - 1; i >= 0; i-- {
		r2.Add(entries[i])
	}

	if r1.Render() != r2.Render() {
		t.Fatalf("render differs by insertion order:\n%s\n---\n%s", r1.Render(), r2.Render())
	}
}

func TestRenderOrdersFilesAndErrorsFirst(t *testing.T) {
	r := New()
	r.Add(Entry{File: "a.bas", Phase: batch.PhaseLink, Severity: 0, Message: "info"})
	r.Add(Entry{File: "a.bas", Phase: batch.PhaseLink, Severity: 2, Message: "error"})

	out := r.Render()
	if strings.Index(out, "error") > strings.Index(out, "info") {
		t.Fatalf("expected error entry before info entry, got:\n%s", out)
	}
}

func TestSummarizeCountsFilesAndSeverities(t *testing.T) {
	r := New()
	r.Add(Entry{File: "a.bas", Phase: batch.PhaseComplete, Severity: 0})
	r.Add(Entry{File: "b.bas", Phase: batch.PhaseEncode, Severity: 2})
	r.Add(Entry{File: "b.bas", Phase: batch.PhaseLink, Severity: 1})

	s := r.Summarize()
	if s.Files != 2 {
		t.Fatalf("Files = %d, want 2", s.Files)
	}
	if s.Errors != 1 || s.Warnings != 1 {
		t.Fatalf("Summary = %+v, want 1 error 1 warning", s)
	}
}
