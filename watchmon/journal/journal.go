// Package journal provides implementations of watchmon's Journaler interface
// on top of files and writers. It also provides a file locking abstraction so
// that only one supervisor pass can run against the same journal file at a
// time.
package journal

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/CrimeIsDown/vast-pyworker/watchmon"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// FileLockJournaler is a journaler that uses a file lock (flock) to lock the
// given file and writes to it. The FileLockJournaler instance must be closed
// by the caller or by the operating system when the application exits.
//
// Reading the Journal
//
// The caller does not need to acquire the file lock in order to read the
// written journal, as each Write operation performed on the file is
// guaranteed to always be valid and atomic.
type FileLockJournaler struct {
	Writer
	path string
	f    *os.File
	l    *flock.Flock
}

// ErrLockedElsewhere is returned if NewFileLockJournaler can't acquire the
// file lock, meaning another supervisor pass currently holds it.
var ErrLockedElsewhere = errors.New("file already locked elsewhere")

// NewFileLockJournaler creates a new file journaler if it can acquire a flock
// on the path. It returns ErrLockedElsewhere if the lock is held.
func NewFileLockJournaler(path string) (*FileLockJournaler, error) {
	return newFileLockJournaler(nil, path)
}

// NewFileLockJournalerWait creates a new file journaler but waits until the
// lock can be acquired or until the context times out.
func NewFileLockJournalerWait(ctx context.Context, path string) (*FileLockJournaler, error) {
	return newFileLockJournaler(ctx, path)
}

func newFileLockJournaler(ctx context.Context, path string) (*FileLockJournaler, error) {
	// Ensure the directory exists.
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, "failed to create journal directory")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE|os.O_SYNC, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}

	l := flock.New(path)

	var locked bool
	if ctx != nil {
		locked, err = l.TryLockContext(ctx, 25*time.Millisecond)
	} else {
		locked, err = l.TryLock()
	}

	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to acquire lock")
	}

	if !locked {
		f.Close()
		return nil, ErrLockedElsewhere
	}

	return &FileLockJournaler{
		Writer: Writer{f},
		path:   path,
		f:      f,
		l:      l,
	}, nil
}

// PreviousRun reads back the most recent watcher launch recorded in this
// journal, using a separate read handle so the append position is untouched.
// Nil is returned without an error if no launch was ever recorded.
func (f *FileLockJournaler) PreviousRun() (*watchmon.PreviousRun, error) {
	return ReadPreviousRunFromFile(f.path)
}

// Close closes the file and releases the flock.
func (f *FileLockJournaler) Close() error {
	f.f.Close()
	return f.l.Unlock()
}
