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

// Package batch drives many BASIC files through the full pipeline in
// one process without cross-contamination: recursive,
// sorted *.bas discovery; a dedicated arena and a fresh uuid-tagged
// correlation ID per file; the session signal/timeout guard around
// execution; optional fail-fast. Collection, encoding and linking run
// directly on the harness goroutine, outside that guard, and the harness
// keeps no metrics state of its own to reset between runs. Exactly one
// compilation is ever in flight, matching QBE's single-flight
// requirement.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/albanread/fasterbasic/internal/arena"
	"github.com/albanread/fasterbasic/jitinst"
	"github.com/albanread/fasterbasic/linker"
	"github.com/albanread/fasterbasic/session"
)

// Phase names a pipeline stage, used for per-file failure attribution
//.
type Phase string

const (
	PhaseRead Phase = "read"
	PhaseCollect Phase = "collect" // lex/parse/analyze/optimize/CFG/codegen, external collaborator
	PhaseEncode Phase = "encode"
	PhaseLink Phase = "link"
	PhaseExecute Phase = "execute"
	PhaseComplete Phase = "complete"
)

// Collector turns one BASIC source file's text into an instruction
// stream ready for the encoder. It stands in for the lexer, parser,
// semantic analyzer, CFG builder, and QBE-based codegen this spec
// treats as external collaborators — the batch harness
// only needs a function boundary at that seam, not an implementation of
// what's on the far side of it.
type Collector func(sourcePath string, a *arena.Arena) (jitinst.Stream, error)

// FileResult is the outcome of running one file through the pipeline.
type FileResult struct {
	Path string
	RunID uuid.UUID
	FailedAt Phase
	Err error
	LinkResult *linker.Result
	Session Result
	Duration time.Duration
}

// Result mirrors session.Result so callers of batch don't need to
// import session just to read a FileResult.
type Result struct {
	Completed bool
	ExitCode int
	Signal int
}

// Options configures one batch run.
type Options struct {
	Root string
	FailFast bool
	Timeout time.Duration
	JumpTable *linker.JumpTable
	EntrySym string
	Collect Collector
	Resolver linker.RuntimeResolver
}

// Harness runs Options.Collect over every discovered file, serialized
// behind a single mutex.
type Harness struct {
	mu sync.Mutex
}

// NewHarness returns a ready-to-use Harness.
func NewHarness() *Harness { return &Harness{} }

// DiscoverFiles walks root recursively and returns every *.bas file,
// sorted lexicographically for run-to-run determinism.
func DiscoverFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".bas") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: discover files under %q: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Run executes every discovered *.bas file under opts.Root in sorted
// order, stopping immediately if opts.FailFast is set and a file fails.
// Between files the per-file arena is simply discarded (never reused)
// and a fresh JumpTable entry may be published on success — satisfying
// the invariant that no global process state leaks from one file's run
// into the next.
func (h *Harness) Run(ctx context.Context, opts Options) ([]FileResult, error) {
	files, err := DiscoverFiles(opts.Root)
	if err != nil {
		return nil, err
	}

	jt := opts.JumpTable
	if jt == nil {
		jt = linker.NewJumpTable()
	}

	var results []FileResult
	for _, path := range files {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		fr := h.runOne(path, opts, jt)
		results = append(results, fr)
		if fr.Err != nil && opts.FailFast {
			break
		}
	}
	return results, nil
}

func (h *Harness) runOne(path string, opts Options, jt *linker.JumpTable) FileResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	fr := FileResult{Path: path, RunID: uuid.New()}

	a := arena.New()

	stream, err := opts.Collect(path, a)
	if err != nil {
		fr.FailedAt = PhaseCollect
		fr.Err = fmt.Errorf("batch: collect %s: %w", path, err)
		fr.Duration = time.Since(start)
		return fr
	}

	mod := encode(stream)
	if mod.ErrorCount() > 0 {
		fr.FailedAt = PhaseEncode
		fr.Err = fmt.Errorf("batch: encode %s: %d diagnostic(s)", path, mod.ErrorCount())
		fr.Duration = time.Since(start)
		return fr
	}

	linkRes, err := linker.LinkAndFinalize(mod, opts.EntrySym, jt, opts.Resolver)
	if err != nil {
		fr.FailedAt = PhaseLink
		fr.Err = fmt.Errorf("batch: link %s: %w", path, err)
		fr.Duration = time.Since(start)
		return fr
	}
	fr.LinkResult = linkRes
	if linkRes.ErrorCount() > 0 {
		fr.FailedAt = PhaseLink
		fr.Err = fmt.Errorf("batch: link %s: %d diagnostic(s)", path, linkRes.ErrorCount())
		fr.Duration = time.Since(start)
		return fr
	}

	sess := session.New(linkRes)
	defer sess.Close()

	entry := makeEntry(linkRes.EntryPoint)
	sessRes := sess.Run(opts.Timeout, entry, nil)
	fr.Session = Result{Completed: sessRes.Completed, ExitCode: sessRes.ExitCode, Signal: int(sessRes.Signal)}
	if !sessRes.Completed {
		fr.FailedAt = PhaseExecute
		fr.Err = fmt.Errorf("batch: execute %s: terminated by signal %d", path, sessRes.Signal)
	} else {
		fr.FailedAt = PhaseComplete
		if opts.EntrySym != "" {
			jt.Publish(opts.EntrySym, linkRes.EntryPoint)
		}
	}
	fr.Duration = time.Since(start)
	return fr
}
