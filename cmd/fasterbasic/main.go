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
/*
	fasterbasic ARM64 JIT compiler driver

	Lexing, parsing, semantic analysis, CFG construction, and QBE-based
	code generation are external collaborators; this binary wires their
	output (an IL text contract on stdin/file, in the real pipeline) into
	the encoder, linker, session, and batch packages this
	repository implements.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/albanread/fasterbasic/batch"
	"github.com/albanread/fasterbasic/internal/arena"
	"github.com/albanread/fasterbasic/jitinst"
	"github.com/albanread/fasterbasic/linker"
	"github.com/albanread/fasterbasic/report"
)

const (
	exitOK = 0
	exitPipelineError = 1
	exitTimeout = 124
)

func main() {
	fmt.Print(`fasterbasic Copyright (C) 2024-2026
 This program comes with ABSOLUTELY NO WARRANTY;
 This is free software, and you are welcome to redistribute it
 under certain conditions.
`)

	var (
		outputPath = flag.String("o", "", "output path")
		ccPath = flag.String("cc", "", "AOT backend C compiler path (outside this pipeline's scope)")
		runtimeDir = flag.String("runtime-dir", "", "runtime library directory")
		noOptimize = flag.Bool("no-optimize", false, "skip the AST optimizer pass")
		verbose = flag.Bool("v", false, "verbose output")
		showIL = flag.Bool("show-il", false, "print the collected IL before encoding")
		showTokens = flag.Bool("show-tokens", false, "print lexer tokens (external collaborator)")
		emitIL = flag.Bool("i", false, "emit IL text")
		emitAsm = flag.Bool("c", false, "emit assembly text")
		jitMode = flag.Bool("J", false, "JIT-compile in process")
		runMode = flag.Bool("r", false, "JIT-compile and run; trailing args are not forwarded to the program")
		metrics = flag.Bool("metrics", false, "print encoder/linker counters after compiling")
		batchJitDir = flag.String("batch-jit", "", "run every *.bas file under this directory through the full pipeline")
		failFast = flag.Bool("fail-fast", false, "stop the batch run at the first failing file")
		timeoutSecs = flag.Int("timeout", 0, "per-file execution timeout in seconds (0 = none)")
	)
	flag.BoolVar(emitIL, "il", false, "emit IL text (long form)")
	flag.BoolVar(emitAsm, "asm", false, "emit assembly text (long form)")
	flag.BoolVar(jitMode, "jit", false, "JIT-compile in process (long form)")
	flag.BoolVar(runMode, "run", false, "JIT-compile and run (long form)")
	flag.Parse()

	_ = noOptimize
	_ = showTokens
	_ = runtimeDir
	_ = ccPath
	_ = outputPath
	_ = emitIL
	_ = emitAsm

	if *batchJitDir != "" {
		os.Exit(runBatch(*batchJitDir, *failFast, time.Duration(*timeoutSecs)*time.Second, *verbose, *metrics))
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: fasterbasic [flags] <input.bas> | --batch-jit <dir>")
		os.Exit(exitPipelineError)
	}

	if *jitMode || *runMode {
		os.Exit(runSingle(args[0], flag.Args()[1:], *verbose, *metrics))
	}

	if *showIL {
		fmt.Fprintln(os.Stderr, "note: --show-il has no effect without -J/-r in this build; IL collection is an external collaborator")
	}
	fmt.Fprintln(os.Stderr, "note: only -J/--jit and -r/--run are wired to this repository's pipeline; -i/-c emit modes depend on the external IL/codegen collaborator")
	os.Exit(exitOK)
}

// collectorAdapter stands in for the lexer/parser/semantic-analyzer/CFG/
// QBE pipeline external to this repository. It always
// returns a trivial RET-only instruction stream so the wiring from CLI
// flags down through batch.Harness, the encoder, the linker, and the
// session guard is exercised end to end even without that external
// collaborator present.
func collectorAdapter(path string, a *arena.Arena) (jitinst.Stream, error) {
	var ret jitinst.Inst
	ret.Kind = jitinst.KindSpecial
	ret.Imm = 3 // spRET
	return jitinst.Stream{ret}, nil
}

func runBatch(dir string, failFast bool, timeout time.Duration, verbose, showMetrics bool) int {
	h := batch.NewHarness()
	jt := linker.NewJumpTable()

	results, err := h.Run(context.Background(), batch.Options{
		Root: dir,
		FailFast: failFast,
		Timeout: timeout,
		JumpTable: jt,
		Collect: collectorAdapter,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "fasterbasic:", err)
		return exitPipelineError
	}

	rep := report.New()
	worstExit := exitOK
	for _, fr := range results {
		rep.AddFileResult(fr)
		if fr.Err != nil && worstExit == exitOK {
			worstExit = exitPipelineError
		}
		if fr.Session.Completed && fr.Session.ExitCode == exitTimeout {
			worstExit = exitTimeout
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "[%s] %s: %+v\n", fr.RunID, fr.Path, fr.Session)
		}
	}
	fmt.Print(rep.Render())
	if showMetrics {
		s := rep.Summarize()
		fmt.Fprintf(os.Stderr, "files=%d errors=%d warnings=%d\n", s.Files, s.Errors, s.Warnings)
	}
	return worstExit
}

func runSingle(path string, programArgs []string, verbose, showMetrics bool) int {
	h := batch.NewHarness()
	jt := linker.NewJumpTable()
	results, err := h.Run(context.Background(), batch.Options{
		Root: path,
		JumpTable: jt,
		Collect: collectorAdapter,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "fasterbasic:", err)
		return exitPipelineError
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "fasterbasic: no input file found at", path)
		return exitPipelineError
	}
	fr := results[0]
	if verbose {
		fmt.Fprintf(os.Stderr, "[%s] %s: %+v\n", fr.RunID, fr.Path, fr.Session)
	}
	if showMetrics && fr.LinkResult != nil {
		fmt.Fprintf(os.Stderr, "trampolines=%d traps=%d\n", fr.LinkResult.TrampolinesBuilt, fr.LinkResult.TrapsInstalled)
	}
	if fr.FailedAt == batch.PhaseExecute && !fr.Session.Completed {
		fmt.Fprintln(os.Stderr, "fasterbasic:", fr.Err)
		return fr.Session.Signal
	}
	if fr.Err != nil {
		fmt.Fprintln(os.Stderr, "fasterbasic:", fr.Err)
		return exitPipelineError
	}
	return fr.Session.ExitCode
}
