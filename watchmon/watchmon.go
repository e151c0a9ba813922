// Package watchmon implements a one-shot singleton supervisor for the
// PyWorker log watcher: the long-running process that consumes the inference
// server's log and reacts to its contents.
//
// Mechanism of Operation
//
// A watchmon invocation is a single pass, not a resident daemon. It first
// reaps every process whose command line contains the configured watcher
// command, polling the process table between termination rounds until no
// match remains. Only once the table is clean does it launch a fresh watcher,
// wired so that the watcher reads the inference log from its first byte and
// keeps reading as the log grows, with its combined output mirrored to a
// second log file as well as the invoking terminal.
//
// Because the supervisor exits right after launching, the tail-feed pipeline
// cannot live inside the supervisor process. Instead the launcher re-executes
// the watchmon binary in "pump" mode as a detached process group leader; the
// pump owns the tailing reader, the watcher child and the output mirror, and
// the watcher dies with its pump. A later supervisor invocation finds both by
// the watcher command embedded in their command lines.
//
// Every observable action is recorded as an Event through a Journaler, and
// the journal file doubles as an exclusive lock so that two supervisor
// invocations can never interleave their reap and launch phases.
package watchmon
