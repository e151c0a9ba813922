package watchmon

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
)

// fakeTable is a process table whose entries disappear when signalled,
// either immediately or after a configurable number of extra scans.
type fakeTable struct {
	procs map[int32]string
}

func newFakeTable(procs map[int32]string) *fakeTable {
	if procs == nil {
		procs = map[int32]string{}
	}
	return &fakeTable{procs: procs}
}

func (ft *fakeTable) find(ctx context.Context, target string) ([]Match, error) {
	var matches []Match
	for pid, cmdline := range ft.procs {
		matches = append(matches, Match{PID: pid, Cmdline: cmdline})
	}
	return matches, nil
}

func (ft *fakeTable) signal(pid int32) error {
	if _, ok := ft.procs[pid]; !ok {
		return errors.New("no such process")
	}
	delete(ft.procs, pid)
	return nil
}

func newTestReaper(j Journaler, ft *fakeTable) *Reaper {
	r := NewReaper(j)
	r.PollInterval = 0 // no pacing in tests
	r.find = ft.find
	r.signal = ft.signal
	return r
}

func TestReapAll(t *testing.T) {
	t.Run("already clean", func(t *testing.T) {
		j := mockJournal{}
		r := newTestReaper(&j, newFakeTable(nil))

		if err := r.ReapAll(context.Background(), "python3 watch.py"); err != nil {
			t.Fatal("failed to reap empty table:", err)
		}

		j.Verify(t, true, []Event{
			&EventTableCleared{Rounds: 0},
		})
	})

	t.Run("kills until clean", func(t *testing.T) {
		j := mockJournal{}
		ft := newFakeTable(map[int32]string{
			100: "python3 watch.py",
		})
		r := newTestReaper(&j, ft)

		if err := r.ReapAll(context.Background(), "python3 watch.py"); err != nil {
			t.Fatal("failed to reap:", err)
		}

		if len(ft.procs) != 0 {
			t.Errorf("expected empty table, %d left", len(ft.procs))
		}

		j.Verify(t, true, []Event{
			&EventProcessKilled{PID: 100, Cmdline: "python3 watch.py"},
			&EventTableCleared{Rounds: 1},
		})
	})

	t.Run("signal error is transient", func(t *testing.T) {
		j := mockJournal{}
		ft := newFakeTable(map[int32]string{
			100: "python3 watch.py",
		})

		r := newTestReaper(&j, ft)

		// Simulate the process exiting between the scan and the signal:
		// the signal fails, but the next scan no longer reports it.
		r.signal = func(pid int32) error {
			delete(ft.procs, pid)
			return errors.New("process already finished")
		}

		if err := r.ReapAll(context.Background(), "python3 watch.py"); err != nil {
			t.Fatal("transient signal failure must not fail the reap:", err)
		}

		j.Verify(t, true, []Event{
			&EventWarning{
				Component: "reaper",
				Error:     "cannot signal pid 100: process already finished",
			},
			&EventTableCleared{Rounds: 1},
		})
	})

	t.Run("stuck process", func(t *testing.T) {
		j := mockJournal{}
		r := NewReaper(&j)
		r.PollInterval = 0
		r.MaxAttempts = 3
		r.find = func(ctx context.Context, target string) ([]Match, error) {
			return []Match{{PID: 666, Cmdline: "python3 watch.py"}}, nil
		}
		r.signal = func(pid int32) error { return nil }

		err := r.ReapAll(context.Background(), "python3 watch.py")

		var stuck *StuckProcessError
		if !errors.As(err, &stuck) {
			t.Fatalf("expected StuckProcessError, got %v", err)
		}
		if stuck.Attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", stuck.Attempts)
		}
		if len(stuck.PIDs) != 1 || stuck.PIDs[0] != 666 {
			t.Errorf("unexpected surviving pids: %v", stuck.PIDs)
		}
	})

	t.Run("enumeration failure aborts", func(t *testing.T) {
		j := mockJournal{}
		r := NewReaper(&j)
		r.PollInterval = 0
		r.find = func(ctx context.Context, target string) ([]Match, error) {
			return nil, &EnumerationError{Err: errors.New("permission denied")}
		}

		var signalled bool
		r.signal = func(pid int32) error {
			signalled = true
			return nil
		}

		err := r.ReapAll(context.Background(), "python3 watch.py")

		var enum *EnumerationError
		if !errors.As(err, &enum) {
			t.Fatalf("expected EnumerationError, got %v", err)
		}
		if signalled {
			t.Error("nothing must be signalled on a failed scan")
		}

		j.Verify(t, true, nil)
	})

	t.Run("canceled between rounds", func(t *testing.T) {
		j := mockJournal{}
		ft := newFakeTable(map[int32]string{
			100: "python3 watch.py",
		})

		r := newTestReaper(&j, ft)
		r.PollInterval = time.Hour
		r.signal = func(pid int32) error { return nil } // never dies

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := r.ReapAll(ctx, "python3 watch.py"); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
