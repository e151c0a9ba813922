package watchmon

import (
	"context"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Match is one process whose command line contains the watcher command.
type Match struct {
	PID     int32
	Cmdline string
}

// FindMatches scans the process table and returns every process whose full
// command line contains target as a contiguous substring. The calling
// process is excluded so that a supervisor carrying the command in its own
// arguments never matches itself.
//
// An EnumerationError is returned if the table cannot be listed; callers
// must treat that as fatal rather than proceed to launch on a blind scan.
func FindMatches(ctx context.Context, target string) ([]Match, error) {
	if target == "" {
		return nil, errEmptyCommand
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, &EnumerationError{Err: err}
	}

	self := int32(os.Getpid())

	var matches []Match

	for _, p := range procs {
		if p.Pid == self {
			continue
		}

		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil || cmdline == "" {
			// The process exited mid-scan or belongs to another user;
			// either way it is not ours to manage.
			continue
		}

		if strings.Contains(cmdline, target) {
			matches = append(matches, Match{PID: p.Pid, Cmdline: cmdline})
		}
	}

	return matches, nil
}
