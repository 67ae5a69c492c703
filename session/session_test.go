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

package session

import (
	"syscall"
	"testing"
	"time"

	"github.com/albanread/fasterbasic/linker"
)

func TestRunCompletesNormally(t *testing.T) {
	s := New(&linker.Result{})
	res := s.Run(0, func(args []string) int { return 0 }, nil)
	if !res.Completed || res.ExitCode != 0 {
		t.Fatalf("res = %+v, want completed/exit 0", res)
	}
	if got := describeResult(res); got != "exited 0" {
		t.Fatalf("describeResult = %q", got)
	}
}

func TestRunTimesOut(t *testing.T) {
	s := New(&linker.Result{})
	res := s.Run(20*time.Millisecond, func(args []string) int {
		time.Sleep(time.Second)
		return 0
	}, nil)
	if !res.Completed || res.ExitCode != exitTimeout {
		t.Fatalf("res = %+v, want timeout", res)
	}
	if got := describeResult(res); got != "timed out" {
		t.Fatalf("describeResult = %q", got)
	}
}

func TestRunRecoversPanic(t *testing.T) {
	s := New(&linker.Result{})
	res := s.Run(0, func(args []string) int { panic("boom") }, nil)
	if !res.Completed || res.ExitCode != exitFailure {
		t.Fatalf("res = %+v, want completed/exit 1", res)
	}
}

func TestCurrentSessionVisibleInsideGuard(t *testing.T) {
	s := New(&linker.Result{})
	found := false
	s.Run(0, func(args []string) int {
		cur, ok := CurrentSession()
		found = ok && cur == s
		return 0
	}, nil)
	if !found {
		t.Fatal("CurrentSession did not observe the active guard")
	}
}

func TestDescribeResultSignal(t *testing.T) {
	got := describeResult(Result{Completed: false, Signal: syscall.SIGSEGV})
	if got == "" {
		t.Fatal("expected a non-empty description for a signal result")
	}
}
