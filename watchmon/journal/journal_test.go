package journal

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CrimeIsDown/vast-pyworker/watchmon"
	"github.com/pkg/errors"
)

func TestWriterReaderRoundtrip(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)

	events := []watchmon.Event{
		&watchmon.EventAcquired{},
		&watchmon.EventProcessKilled{PID: 9, Cmdline: "python3 watch.py"},
		&watchmon.EventWatcherStarted{PID: 42, Command: "python3 watch.py"},
	}
	for _, ev := range events {
		if err := w.Write(ev); err != nil {
			t.Fatal("failed to write event:", err)
		}
	}

	r := NewReader(bytes.NewReader(buf.Bytes()))

	// The reader yields events newest first.
	for i := len(events) - 1; i >= 0; i-- {
		ev, _, err := r.Read()
		if err != nil {
			t.Fatal("failed to read event:", err)
		}

		if ev.Type() != events[i].Type() {
			t.Errorf("event %d type mismatch, got %q, expected %q",
				i, ev.Type(), events[i].Type())
		}
	}

	if _, _, err := r.Read(); err != io.EOF {
		t.Errorf("expected io.EOF at the top of the journal, got %v", err)
	}
}

func TestFileLockJournaler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "watchmon.journal")

	j, err := NewFileLockJournaler(path)
	if err != nil {
		t.Fatal("failed to create journaler:", err)
	}

	if err := j.Write(&watchmon.EventWatcherStarted{PID: 77, Command: "cmd"}); err != nil {
		t.Fatal("failed to write:", err)
	}

	// A concurrent pass must be locked out.
	if _, err := NewFileLockJournaler(path); !errors.Is(err, ErrLockedElsewhere) {
		t.Fatalf("expected ErrLockedElsewhere, got %v", err)
	}

	prev, err := j.PreviousRun()
	if err != nil {
		t.Fatal("failed to read previous run:", err)
	}
	if prev == nil || prev.PID != 77 {
		t.Errorf("unexpected previous run: %#v", prev)
	}

	if err := j.Close(); err != nil {
		t.Fatal("failed to close journaler:", err)
	}

	// The lock is free again after Close.
	j2, err := NewFileLockJournaler(path)
	if err != nil {
		t.Fatal("failed to reacquire journaler:", err)
	}
	j2.Close()
}

func TestDescribe(t *testing.T) {
	got := Describe(&watchmon.EventWatcherStarted{PID: 5, Command: "python3 watch.py"})
	if !strings.Contains(got, "pid 5") || !strings.Contains(got, "python3 watch.py") {
		t.Errorf("unhelpful description: %q", got)
	}

	got = Describe(&watchmon.EventTableCleared{})
	if !strings.Contains(got, "no matching process") {
		t.Errorf("unhelpful description: %q", got)
	}
}

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer

	mw := MultiWriter(NewWriter(&a), NewHumanWriter(&b))
	if err := mw.Write(&watchmon.EventAcquired{}); err != nil {
		t.Fatal("failed to write:", err)
	}

	if a.Len() == 0 || b.Len() == 0 {
		t.Error("one of the writers did not receive the event")
	}
}
