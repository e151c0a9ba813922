// Package tail implements a reader that follows an append-only file from its
// first byte, never stopping at end-of-file.
package tail

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// DefaultPollInterval is the fallback rescan interval. Appends are normally
// picked up through inotify; the poll only covers missed or unavailable
// notifications.
var DefaultPollInterval = 250 * time.Millisecond

// Follower is an io.ReadCloser over a growing file. Read blocks at
// end-of-file until more bytes are appended, the context is canceled or the
// follower is closed; the latter two surface as io.EOF so that copiers
// terminate cleanly.
type Follower struct {
	PollInterval time.Duration

	ctx  context.Context
	f    *os.File
	w    *fsnotify.Watcher // nil if inotify is unavailable
	done chan struct{}
	once sync.Once
}

// Follow opens path for reading from byte 0. The file must already exist;
// the supervisor guarantees that before the pipeline starts.
func Follow(ctx context.Context, path string) (*Follower, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}

	fl := &Follower{
		PollInterval: DefaultPollInterval,

		ctx:  ctx,
		f:    f,
		done: make(chan struct{}),
	}

	// Watch the file itself for writes. Degrade to pure polling if the
	// watch cannot be established.
	if w, err := fsnotify.NewWatcher(); err == nil {
		if err := w.Add(path); err == nil {
			fl.w = w
		} else {
			w.Close()
		}
	}

	return fl, nil
}

// Read reads available bytes, blocking at end-of-file until the file grows.
func (fl *Follower) Read(p []byte) (int, error) {
	var events chan fsnotify.Event
	var werrs chan error
	if fl.w != nil {
		events = fl.w.Events
		werrs = fl.w.Errors
	}

	for {
		n, err := fl.f.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			select {
			case <-fl.done:
				return 0, io.EOF
			default:
				return 0, err
			}
		}

		select {
		case <-fl.ctx.Done():
			return 0, io.EOF
		case <-fl.done:
			return 0, io.EOF
		case <-events:
			// A write happened; loop around and read it.
		case <-werrs:
			// Notification trouble; the poll below still makes progress.
		case <-time.After(fl.PollInterval):
		}
	}
}

// Close releases the file and the watch and unblocks any pending Read.
func (fl *Follower) Close() error {
	fl.once.Do(func() {
		close(fl.done)
		if fl.w != nil {
			fl.w.Close()
		}
		fl.f.Close()
	})

	return nil
}
