// Package exec provides an abstraction around package os/exec's process
// handling for easier testing.
package exec

import (
	"io"
	"os"
	osexec "os/exec"
	"runtime"
	"syscall"

	"github.com/pkg/errors"
)

// Process describes a command process.
type Process interface {
	PID() int
	Signal(os.Signal) error
	Kill() error
	Wait() ExitStatus
}

// ExitStatus is a process' exit status.
type ExitStatus struct {
	PID   int
	Code  int // -1 for interrupt
	Error error
}

type process struct {
	cmd *osexec.Cmd
}

var _ Process = (*process)(nil)

// StartDetached starts argv in its own process group with the caller's
// stdio, so it keeps running and keeps the terminal once the caller exits.
func StartDetached(argv []string) (Process, error) {
	cmd := osexec.Command(argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &process{cmd}, nil
}

// StartPiped starts argv with its stdin fed from r and its combined output
// written to w. The child is bound to the calling thread's lifetime with
// SIGTERM, so a dead pump never leaves an orphaned watcher behind.
func StartPiped(argv []string, r io.Reader, w io.Writer) (Process, error) {
	// Lock this goroutine to the OS thread for Pdeathsig.
	// See https://github.com/golang/go/issues/27505.
	runtime.LockOSThread()

	cmd := osexec.Command(argv[0], argv[1:]...)
	cmd.Stdout = w
	cmd.Stderr = w
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, err
	}

	// Feed stdin on our own instead of handing r to the Cmd: the reader
	// follows a growing file and never reaches EOF, so Wait must not block
	// on it. The copy stops on its own once the child exits and the pipe
	// breaks.
	go func() {
		io.Copy(stdin, r)
		stdin.Close()
	}()

	return &process{cmd}, nil
}

func (proc *process) PID() int {
	return proc.cmd.Process.Pid
}

func (proc *process) Signal(sig os.Signal) error {
	return proc.cmd.Process.Signal(sig)
}

func (proc *process) Kill() error {
	return proc.cmd.Process.Kill()
}

// Wait waits for the process to exit. It must be called on the same
// goroutine as StartPiped.
func (proc *process) Wait() ExitStatus {
	err := proc.cmd.Wait()
	runtime.UnlockOSThread()

	status := ExitStatus{
		PID:  proc.cmd.Process.Pid,
		Code: -1,
	}
	if proc.cmd.ProcessState != nil {
		status.Code = proc.cmd.ProcessState.ExitCode()
	}

	// A non-zero exit is already captured in Code; only I/O and wait
	// failures are real errors.
	var exitErr *osexec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		status.Error = err
	}

	return status
}
