package watchmon

import (
	"time"

	"golang.org/x/sys/unix"
)

// Handle identifies a launched watcher pipeline. PID is the pump process
// that leads the pipeline's process group; the watcher child lives in the
// same group and dies with it.
type Handle struct {
	PID       int
	Command   string
	StartedAt time.Time
}

// Alive reports whether the pipeline leader still exists. EPERM counts as
// alive: the process is there, we just may not own it anymore.
func (h *Handle) Alive() bool {
	err := unix.Kill(h.PID, 0)
	return err == nil || err == unix.EPERM
}
