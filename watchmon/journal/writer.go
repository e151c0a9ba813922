package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/CrimeIsDown/vast-pyworker/watchmon"
	"github.com/pkg/errors"
)

// Event describes the JSON structure of an event to be written.
type Event struct {
	Time time.Time      `json:"time"`
	Type string         `json:"type"`
	Data watchmon.Event `json:"data"`
}

// Writer is a simple journaler that writes line-delimited JSON events into
// the writer.
type Writer struct{ w io.Writer }

var _ watchmon.Journaler = Writer{}

// NewWriter creates a new journal writer.
func NewWriter(w io.Writer) Writer {
	return Writer{w}
}

// Write writes the given event into the writer. Writes are concurrently safe
// and are atomic.
func (l Writer) Write(ev watchmon.Event) error {
	evJSON := Event{
		Time: time.Now(),
		Type: ev.Type(),
		Data: ev,
	}

	buf := bytes.Buffer{}
	buf.Grow(512)

	if err := json.NewEncoder(&buf).Encode(evJSON); err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	_, err := l.w.Write(buf.Bytes())
	if err != nil {
		return errors.Wrap(err, "failed to write event")
	}

	return nil
}

// HumanWriter is a journaler that writes one plain line per event, meant for
// the operator's terminal rather than for parsing back.
type HumanWriter struct{ w io.Writer }

var _ watchmon.Journaler = HumanWriter{}

// NewHumanWriter creates a journaler writing human-readable lines into w.
func NewHumanWriter(w io.Writer) HumanWriter {
	return HumanWriter{w}
}

// Write formats and writes the given event.
func (l HumanWriter) Write(ev watchmon.Event) error {
	_, err := fmt.Fprintf(l.w, "%s %s\n", time.Now().Format("15:04:05"), Describe(ev))
	return err
}

// Describe renders a single event as a human-readable sentence.
func Describe(ev watchmon.Event) string {
	switch ev := ev.(type) {
	case *watchmon.EventWarning:
		return fmt.Sprintf("warning (%s): %s", ev.Component, ev.Error)
	case *watchmon.EventAcquired:
		return "acquired journal lock"
	case *watchmon.EventProcessKilled:
		return fmt.Sprintf("sent SIGTERM to pid %d (%s)", ev.PID, ev.Cmdline)
	case *watchmon.EventTableCleared:
		if ev.Rounds == 0 {
			return "no matching process was running"
		}
		return fmt.Sprintf("process table clean after %d round(s)", ev.Rounds)
	case *watchmon.EventLogFileCreated:
		return "created empty log file " + ev.Path
	case *watchmon.EventWatcherStarted:
		return fmt.Sprintf("started watcher pipeline pid %d (%s)", ev.PID, ev.Command)
	default:
		return fmt.Sprintf("%s: %#v", ev.Type(), ev)
	}
}

// multiWriter combines multiple journalers.
type multiWriter struct {
	writers []watchmon.Journaler
}

// MultiWriter creates a journaler that writes to multiple other journalers.
func MultiWriter(ws ...watchmon.Journaler) watchmon.Journaler {
	return &multiWriter{ws}
}

func (w *multiWriter) Write(event watchmon.Event) error {
	var firstErr error
	for _, writer := range w.writers {
		if err := writer.Write(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
