package watchmon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// errEmptyCommand rejects a blank watcher command before it reaches the
// process table or the launcher.
var errEmptyCommand = errors.New("empty target command")

// EnumerationError is returned when the process table cannot be listed at
// all. It is fatal for the invocation: proceeding to launch on a failed scan
// could break the singleton invariant.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return "cannot enumerate processes: " + e.Err.Error()
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// StuckProcessError is returned when matching processes survive the maximum
// number of termination rounds.
type StuckProcessError struct {
	Attempts int
	PIDs     []int32
}

func (e *StuckProcessError) Error() string {
	pids := make([]string, len(e.PIDs))
	for i, pid := range e.PIDs {
		pids[i] = strconv.Itoa(int(pid))
	}

	return fmt.Sprintf(
		"processes still alive after %d termination rounds: pid %s",
		e.Attempts, strings.Join(pids, ", "),
	)
}

// LaunchError is returned when the watcher pipeline cannot be started, either
// because the log file cannot be created or because the watcher command does
// not resolve to an executable.
type LaunchError struct {
	Op  string
	Err error
}

func (e *LaunchError) Error() string {
	return "cannot launch watcher: " + e.Op + ": " + e.Err.Error()
}

func (e *LaunchError) Unwrap() error { return e.Err }
