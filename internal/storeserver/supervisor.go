package storeserver

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rawjoystick/joymap/internal/logging"
)

// DefaultReloadTimeout is how long the remapper gets to exit after SIGINT
// before it is killed
const DefaultReloadTimeout = 5 * time.Second

// Supervisor runs the remapper process and restarts it so it picks up a
// saved mapping. Its stdout and stderr go to a LogBuffer.
type Supervisor struct {
	argv    []string
	timeout time.Duration
	output  *LogBuffer

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// NewSupervisor creates a supervisor for argv. Nothing runs until Start.
func NewSupervisor(argv []string, timeout time.Duration, output *LogBuffer) *Supervisor {
	if timeout <= 0 {
		timeout = DefaultReloadTimeout
	}
	return &Supervisor{argv: argv, timeout: timeout, output: output}
}

// Start launches the process
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

func (s *Supervisor) startLocked() error {
	if len(s.argv) == 0 {
		return errors.New("no reload command configured")
	}

	cmd := exec.Command(s.argv[0], s.argv[1:]...)
	cmd.Stdout = s.output
	cmd.Stderr = s.output
	// Children that outlive the remapper must not hold Wait open.
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.argv[0], err)
	}

	done := make(chan struct{})
	go func() {
		err := cmd.Wait()
		logging.Info("Remapper exited",
			zap.Int("pid", cmd.Process.Pid),
			zap.Error(err),
		)
		close(done)
	}()

	s.cmd = cmd
	s.done = done

	logging.Info("Remapper started",
		zap.Strings("argv", s.argv),
		zap.Int("pid", cmd.Process.Pid),
	)
	return nil
}

// Running reports whether the process is alive
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Restart interrupts the process, kills it if it has not exited within the
// timeout, and starts it again. A process that already exited is simply
// started.
func (s *Supervisor) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := s.stopLocked(); err != nil {
		return err
	}
	logging.Info("Remapper stopped for reload", zap.Duration("stop_time", time.Since(start)))

	return s.startLocked()
}

// Stop interrupts the process and waits for it, killing it after the timeout
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Supervisor) stopLocked() error {
	if s.cmd == nil {
		return nil
	}

	select {
	case <-s.done:
		return nil
	default:
	}

	if err := s.cmd.Process.Signal(syscall.SIGINT); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			<-s.done
			return nil
		}
		return fmt.Errorf("failed to send SIGINT: %w", err)
	}

	select {
	case <-s.done:
		return nil
	case <-time.After(s.timeout):
	}

	logging.Warn("Remapper ignored SIGINT, killing it",
		zap.Int("pid", s.cmd.Process.Pid),
		zap.Duration("timeout", s.timeout),
	)
	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill after timeout: %w", err)
	}
	<-s.done
	return nil
}
