package watchmon

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ReapPollInterval is the time to wait between termination rounds before the
// process table is scanned again.
var ReapPollInterval = 2 * time.Second

// ReapMaxAttempts caps the number of termination rounds before the reaper
// gives up with a StuckProcessError. Zero or negative disables the cap.
var ReapMaxAttempts = 15

// Reaper terminates every process matching the watcher command, polling the
// process table between rounds until no match remains.
type Reaper struct {
	PollInterval time.Duration
	MaxAttempts  int

	j Journaler

	find   func(ctx context.Context, target string) ([]Match, error)
	signal func(pid int32) error
}

// NewReaper creates a reaper that scans the real process table and signals
// with SIGTERM.
func NewReaper(j Journaler) *Reaper {
	return &Reaper{
		PollInterval: ReapPollInterval,
		MaxAttempts:  ReapMaxAttempts,

		j:      j,
		find:   FindMatches,
		signal: terminate,
	}
}

func terminate(pid int32) error {
	return unix.Kill(int(pid), unix.SIGTERM)
}

// ReapAll signals every match of target and rescans until the table is
// clean. A failed signal on an individual process is a transient race, not a
// failure: the process may have exited between the scan and the signal, and
// the next scan authoritatively decides. A failed scan aborts with an
// EnumerationError, and survivors past MaxAttempts rounds abort with a
// StuckProcessError.
func (r *Reaper) ReapAll(ctx context.Context, target string) error {
	for round := 0; ; round++ {
		matches, err := r.find(ctx, target)
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			r.j.Write(&EventTableCleared{Rounds: round})
			return nil
		}

		if r.MaxAttempts > 0 && round >= r.MaxAttempts {
			pids := make([]int32, len(matches))
			for i, m := range matches {
				pids[i] = m.PID
			}

			return &StuckProcessError{Attempts: round, PIDs: pids}
		}

		for _, m := range matches {
			if err := r.signal(m.PID); err != nil {
				r.j.Write(&EventWarning{
					Component: "reaper",
					Error:     fmt.Sprintf("cannot signal pid %d: %v", m.PID, err),
				})
				continue
			}

			r.j.Write(&EventProcessKilled{PID: m.PID, Cmdline: m.Cmdline})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.PollInterval):
		}
	}
}
