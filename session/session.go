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

// Package session owns a linked JIT module's memory region and runs the
// compiled entry point under a guard that distinguishes a clean return
// from a fatal signal from a timeout. Go has no setjmp/longjmp and
// cannot safely resume a goroutine that has taken a hardware fault
// inside non-Go machine code, so the guard here is the honest Go
// mapping of that contract rather than a literal port of it: the call
// runs on a freshly spawned, runtime.LockOSThread-pinned goroutine;
// os/signal.Notify is armed for the fatal set before the call; a
// goroutine-local "current guard" token travels via jtolds/gls;
// a time.Timer drives the timeout; dc0d/onexit registers the region
// teardown. When a fatal signal fires, the goroutine that initiated the
// call returns {completed:false, signal:N}; when the timeout fires it
// returns {completed:true, exit_code:124} — the faulted OS thread is
// deliberately abandoned, never returned to the scheduler, which is the
// documented trade-off recorded in DESIGN.md in place of true
// mid-native-call unwinding.
package session

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/dc0d/onexit"
	"github.com/jtolds/gls"

	"github.com/albanread/fasterbasic/linker"
)

// FatalSignals is the signal set a guarded call watches for: SIGSEGV,
// SIGBUS, SIGILL, SIGTRAP, SIGABRT, SIGFPE.
var FatalSignals = []os.Signal{
	syscall.SIGSEGV,
	syscall.SIGBUS,
	syscall.SIGILL,
	syscall.SIGTRAP,
	syscall.SIGABRT,
	syscall.SIGFPE,
}

// Result is the outcome of a single guarded execution.
type Result struct {
	Completed bool
	ExitCode int
	Signal syscall.Signal // 0 whenever Completed
}

const (
	exitOK = 0
	exitFailure = 1
	exitTimeout = 124
)

var mgr = gls.NewContextManager()

// guardKey is the gls values-map key carrying the currently active
// Session pointer on a guarded goroutine — the jump-buffer analogue
// for a runtime that has no setjmp/longjmp.
const guardKey = "fasterbasic-session-guard"

// Session owns one linked module's memory region for the lifetime of a
// single guarded call. Only one call may be in flight on a Session at a
// time — QBE's single-flight requirement extends to execution as well
// as compilation.
type Session struct {
	mu sync.Mutex
	Region *linker.Result
}

// New wraps a link result in a Session and registers its region's
// teardown with onexit so an abandoned, never-cleanly-closed Session
// still releases its mmap'd pages when the process exits.
func New(link *linker.Result) *Session {
	s := &Session{Region: link}
	onexit.Register(func() {
		if s.Region != nil && s.Region.Region != nil {
			s.Region.Region.Free()
		}
	})
	return s
}

// Close releases the Session's memory region immediately, outside of
// process-exit teardown.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Region == nil || s.Region.Region == nil {
		return nil
	}
	err := s.Region.Region.Free()
	s.Region = nil
	return err
}

// Entry is the shape of a compiled BASIC program's entry point: an
// argc/argv-style call taking program arguments (possibly empty) and
// returning the process exit code the compiled program itself chose.
type Entry func(args []string) int

// Run invokes entry under the signal/timeout guard described in the
// package doc, blocking until the call returns, a fatal signal arrives,
// or timeout elapses (0 means no timeout). Only one Run may execute on
// a Session at a time.
func (s *Session) Run(timeout time.Duration, entry Entry, args []string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, FatalSignals...)
	defer signal.Stop(sigCh)

	doneCh := make(chan int, 1)
	go s.runGuarded(entry, args, doneCh)

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case code := <-doneCh:
		return Result{Completed: true, ExitCode: code}
	case sig := <-sigCh:
		ss, _ := sig.(syscall.Signal)
		return Result{Completed: false, Signal: ss}
	case <-timeoutCh:
		return Result{Completed: true, ExitCode: exitTimeout}
	}
}

// runGuarded pins the calling goroutine to its OS thread before
// invoking entry — a fatal signal during entry terminates this thread
// (or the whole process, for signals Go's runtime does not forward to
// user handlers), so the thread is never returned to the scheduler once
// it has run untrusted JIT code. The goroutine-local guard token lets
// any future re-entrant diagnostics code (e.g. a SIGTRAP handler inside
// the runtime library) identify which Session is currently executing.
func (s *Session) runGuarded(entry Entry, args []string, doneCh chan<- int) {
	runtime.LockOSThread() // never unlocked: the thread dies with the goroutine
	mgr.SetValues(gls.Values{guardKey: s}, func() {
		code := func() (ret int) {
			defer func() {
				if r := recover(); r != nil {
					ret = exitFailure
				}
			}()
			return entry(args)
		}()
		doneCh <- code
	})
}

// CurrentSession returns the Session guarding the calling goroutine, if
// any — used by runtime-library intrinsics that need to report back
// into the active guard context.
func CurrentSession() (*Session, bool) {
	v, ok := mgr.GetValue(guardKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}

// describeResult renders a Result the way the CLI reports exit status:
// 0 success, 1 pipeline/link failure, 124 timeout, signal number for
// uncaught signals.
func describeResult(r Result) string {
	if !r.Completed {
		return fmt.Sprintf("terminated by signal %d (%s)", r.Signal, r.Signal)
	}
	if r.ExitCode == exitTimeout {
		return "timed out"
	}
	return fmt.Sprintf("exited %d", r.ExitCode)
}
