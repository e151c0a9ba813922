package watchmon

import (
	"context"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/CrimeIsDown/vast-pyworker/watchmon/internal/exec"
	"github.com/CrimeIsDown/vast-pyworker/watchmon/internal/tail"
	"github.com/pkg/errors"
)

// RunPump runs the resident half of the watcher pipeline: it follows the
// inference log from its first byte into a fresh watcher process and mirrors
// the watcher's combined output both to the mirror file and to console.
//
// RunPump blocks until the watcher exits or the context is canceled. It is
// called from the detached process the launcher spawns, never from the
// supervisor pass itself; the supervisor has exited long before this
// returns. The watcher child carries a parent-death signal, so the pump and
// its watcher always die together.
func RunPump(ctx context.Context, cfg Config, console io.Writer) error {
	follower, err := tail.Follow(ctx, cfg.LogPath())
	if err != nil {
		return errors.Wrap(err, "failed to follow log file")
	}
	defer follower.Close()

	mirror, err := os.OpenFile(cfg.MirrorPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to open mirror file")
	}
	defer mirror.Close()

	argv := strings.Fields(cfg.Target)
	if len(argv) == 0 {
		return errEmptyCommand
	}

	p, err := exec.StartPiped(argv, follower, io.MultiWriter(mirror, console))
	if err != nil {
		return errors.Wrap(err, "failed to start watcher")
	}

	go func() {
		<-ctx.Done()
		p.Signal(syscall.SIGTERM)
	}()

	status := p.Wait()
	// Unblock the stdin copy in case the follower is still waiting on the
	// log to grow.
	follower.Close()

	if status.Error != nil {
		return errors.Wrap(status.Error, "failed to wait for watcher")
	}
	if status.Code > 0 {
		return errors.Errorf("watcher exited with status %d", status.Code)
	}

	return nil
}
