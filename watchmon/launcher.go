package watchmon

import (
	"context"
	"os"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/CrimeIsDown/vast-pyworker/watchmon/internal/exec"
)

// Launcher starts the watcher pipeline: a detached pump process that feeds
// the inference log into a fresh watcher and mirrors its output.
type Launcher struct {
	j Journaler

	startProc func(argv []string) (exec.Process, error)
}

// NewLauncher creates a launcher that re-executes the current binary in pump
// mode.
func NewLauncher(j Journaler) *Launcher {
	return &Launcher{
		j:         j,
		startProc: exec.StartDetached,
	}
}

// Launch ensures the inference log exists, then starts the pipeline and
// returns immediately with a handle to its process group leader. The caller
// must have reaped all previous matches first; Launch itself performs no
// scan.
func (l *Launcher) Launch(ctx context.Context, cfg Config) (*Handle, error) {
	if err := l.ensureLogFile(cfg.LogPath()); err != nil {
		return nil, &LaunchError{Op: "ensure log file", Err: err}
	}

	// Resolve the watcher interpreter up front so a bad command surfaces
	// here instead of inside the detached pump.
	argv := strings.Fields(cfg.Target)
	if len(argv) == 0 {
		return nil, &LaunchError{Op: "parse command", Err: errEmptyCommand}
	}
	if _, err := osexec.LookPath(argv[0]); err != nil {
		return nil, &LaunchError{Op: "resolve command", Err: err}
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, &LaunchError{Op: "locate self", Err: err}
	}

	p, err := l.startProc([]string{exe, "-d", cfg.Dir, "-c", cfg.Target, "pump"})
	if err != nil {
		return nil, &LaunchError{Op: "start pump", Err: err}
	}

	h := &Handle{
		PID:       p.PID(),
		Command:   cfg.Target,
		StartedAt: time.Now(),
	}

	l.j.Write(&EventWatcherStarted{PID: h.PID, Command: h.Command})

	return h, nil
}

// ensureLogFile creates the log file empty if it is missing. An existing
// file is left untouched; the log is append-only and shared with the
// inference server.
func (l *Launcher) ensureLogFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	l.j.Write(&EventLogFileCreated{Path: path})
	return f.Close()
}
