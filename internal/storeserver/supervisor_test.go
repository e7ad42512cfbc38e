package storeserver

import (
	"strings"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestSupervisor_CapturesOutput(t *testing.T) {
	logs := NewLogBuffer(10)
	s := NewSupervisor([]string{"sh", "-c", "echo remapper ready; echo oops >&2"}, time.Second, logs)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ok := waitFor(t, 5*time.Second, func() bool { return len(logs.Lines()) == 2 })
	if !ok {
		t.Fatalf("Lines() = %q, want two lines", logs.Lines())
	}

	joined := strings.Join(logs.Lines(), "|")
	if !strings.Contains(joined, "remapper ready") || !strings.Contains(joined, "oops") {
		t.Errorf("Lines() = %q", logs.Lines())
	}

	if !waitFor(t, 5*time.Second, func() bool { return !s.Running() }) {
		t.Error("short-lived process still reported as running")
	}
}

func TestSupervisor_RestartInterruptible(t *testing.T) {
	s := NewSupervisor([]string{"sleep", "30"}, time.Second, NewLogBuffer(10))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = s.Stop() }()

	firstPID := s.cmd.Process.Pid

	start := time.Now()
	if err := s.Restart(); err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 900*time.Millisecond {
		t.Errorf("Restart() took %v; SIGINT should have stopped sleep", elapsed)
	}

	if !s.Running() {
		t.Error("process not running after Restart()")
	}
	if s.cmd.Process.Pid == firstPID {
		t.Error("Restart() did not start a new process")
	}
}

func TestSupervisor_KillsAfterTimeout(t *testing.T) {
	s := NewSupervisor([]string{"sh", "-c", `trap "" INT; exec sleep 30`}, 200*time.Millisecond, NewLogBuffer(10))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Give the shell time to install the trap.
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 200*time.Millisecond {
		t.Errorf("Stop() returned after %v, before the timeout", elapsed)
	}
	if elapsed > 5*time.Second {
		t.Errorf("Stop() took %v", elapsed)
	}
	if s.Running() {
		t.Error("process still running after Stop()")
	}
}

func TestSupervisor_RestartAfterExit(t *testing.T) {
	s := NewSupervisor([]string{"true"}, time.Second, NewLogBuffer(10))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, 5*time.Second, func() bool { return !s.Running() })

	if err := s.Restart(); err != nil {
		t.Errorf("Restart() of exited process error = %v", err)
	}
}

func TestSupervisor_StartErrors(t *testing.T) {
	if err := NewSupervisor(nil, 0, NewLogBuffer(1)).Start(); err == nil {
		t.Error("Start() with no command should fail")
	}

	s := NewSupervisor([]string{"/nonexistent/remapper"}, 0, NewLogBuffer(1))
	if err := s.Start(); err == nil {
		t.Error("Start() of missing binary should fail")
	}
	if s.timeout != DefaultReloadTimeout {
		t.Errorf("timeout = %v, want %v", s.timeout, DefaultReloadTimeout)
	}
}
