package watchmon

import "context"

// Supervisor runs one ensure-singleton pass: reap every process matching the
// watcher command, then launch exactly one fresh watcher pipeline.
type Supervisor struct {
	cfg Config
	j   Journaler

	reaper   *Reaper
	launcher *Launcher
}

// NewSupervisor creates a supervisor for the given configuration.
func NewSupervisor(j Journaler, cfg Config) *Supervisor {
	return &Supervisor{
		cfg: cfg,
		j:   j,

		reaper:   NewReaper(j),
		launcher: NewLauncher(j),
	}
}

// Run performs the single pass. The launch only happens once a scan of the
// process table has come back empty; that ordering is the whole point, since
// two watchers tailing the same log would double-process every line. Run
// returns a handle to the new pipeline, and the supervisor process is free
// to exit afterwards.
func (s *Supervisor) Run(ctx context.Context) (*Handle, error) {
	if err := s.reaper.ReapAll(ctx, s.cfg.Target); err != nil {
		return nil, err
	}

	return s.launcher.Launch(ctx, s.cfg)
}
