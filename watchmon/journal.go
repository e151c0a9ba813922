package watchmon

import (
	"io"
	"time"
)

// Journaler describes an event logger.
type Journaler interface {
	Write(Event) error
}

// EventReader describes a source of journaled events, read newest first. An
// io.EOF error is returned once the source is exhausted.
type EventReader interface {
	Read() (Event, time.Time, error)
}

// PreviousRun is the most recent watcher launch recorded in a journal. It
// lets a later invocation locate the pipeline it started without scanning
// the process table.
type PreviousRun struct {
	PID       int
	Command   string
	StartedAt time.Time
}

// ReadPreviousRun consumes the reader until the most recent watcher launch
// is found. Nil is returned without an error if the journal records no
// launch at all.
func ReadPreviousRun(r EventReader) (*PreviousRun, error) {
	for {
		ev, t, err := r.Read()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}

		started, ok := ev.(*EventWatcherStarted)
		if !ok {
			continue
		}

		return &PreviousRun{
			PID:       started.PID,
			Command:   started.Command,
			StartedAt: t,
		}, nil
	}
}
