package watchmon

import "path/filepath"

// Well-known file names inside the worker directory. The inference server
// appends to the log file; the watcher's combined output is mirrored to the
// mirror file.
const (
	LogFileName    = "infer.log"
	MirrorFileName = "watch.log"
)

// Config carries the two inputs of a supervisor pass: the worker directory
// and the watcher command. The command string is used verbatim both as the
// process table match and as the command to execute.
type Config struct {
	// Dir is the worker base directory that the log and mirror paths are
	// derived from.
	Dir string
	// Target is the full watcher command, interpreter included, e.g.
	// "python3 /workspace/watch.py".
	Target string
}

// LogPath returns the path of the inference log inside the worker directory.
func (cfg Config) LogPath() string {
	return filepath.Join(cfg.Dir, LogFileName)
}

// MirrorPath returns the path the watcher's output is mirrored to.
func (cfg Config) MirrorPath() string {
	return filepath.Join(cfg.Dir, MirrorFileName)
}
