package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/CrimeIsDown/vast-pyworker/watchmon"
	"github.com/CrimeIsDown/vast-pyworker/watchmon/journal"
	"github.com/pkg/errors"
)

var (
	baseDir     string
	watchCmd    string
	journalFile string
)

func init() {
	baseDir = os.Getenv("WORKER_DIR")
	if baseDir == "" {
		baseDir, _ = os.Getwd()
	}
	watchCmd = os.Getenv("WATCH_CMD")

	flag.StringVar(&baseDir, "d", baseDir, "worker base directory")
	flag.StringVar(&watchCmd, "c", watchCmd, "watcher command to supervise")
	flag.StringVar(&journalFile, "j", journalFile, "journal file path")
	flag.Usage = func() {
		f := func(f string, v ...interface{}) {
			fmt.Fprintf(flag.CommandLine.Output(), f, v...)
		}

		f("Usage:\n")
		f("  %s -d <dir> -c <command> [status|cron|pump]\n", filepath.Base(os.Args[0]))
		f("\n")
		f("Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if baseDir == "" {
		log.Fatalln("missing -d worker base directory")
	}
	if watchCmd == "" {
		watchCmd = "python3 " + filepath.Join(baseDir, "watch.py")
	}
	if journalFile == "" {
		journalFile = filepath.Join(baseDir, "watchmon.journal")
	}
}

func main() {
	var err error
	switch flag.Arg(0) {
	case "cron":
		cron()
	case "status":
		err = status()
	case "pump":
		err = pump()
	case "":
		err = supervise()
	default:
		log.Fatalf("unknown subcommand %q\n", flag.Arg(0))
	}

	if err != nil {
		log.Fatalln(err)
	}
}

// cron prints crontab lines that periodically re-assert the watcher
// singleton, since a supervisor pass is one-shot and never restarts a
// crashed watcher on its own.
func cron() {
	crontimes := [...]string{
		"# Re-assert the watcher singleton on startup.",
		"@reboot",
		"# And again every five minutes.",
		"*/5 * * * *",
	}

	d := strconv.Quote(baseDir)
	c := strconv.Quote(watchCmd)

	for _, crontime := range crontimes {
		if strings.HasPrefix(crontime, "#") {
			fmt.Println(crontime)
			continue
		}

		fmt.Println(crontime, os.Args[0], "-d", d, "-c", c)
	}
}

func supervise() error {
	j, err := journal.NewFileLockJournaler(journalFile)
	if err != nil {
		if errors.Is(err, journal.ErrLockedElsewhere) {
			// Non-fatal: another pass is mid-flight and will leave
			// exactly one watcher behind.
			log.Println("another watchmon pass is already running")
			return nil
		}

		return errors.Wrap(err, "failed to acquire journal lock")
	}
	defer j.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	journaler := journal.MultiWriter(j, journal.NewHumanWriter(os.Stderr))
	journaler.Write(&watchmon.EventAcquired{})

	if prev, err := j.PreviousRun(); err == nil && prev != nil {
		h := watchmon.Handle{PID: prev.PID, Command: prev.Command, StartedAt: prev.StartedAt}
		if h.Alive() {
			log.Println("previous pipeline pid", prev.PID, "is still up and will be reaped")
		}
	}

	s := watchmon.NewSupervisor(journaler, watchmon.Config{Dir: baseDir, Target: watchCmd})

	h, err := s.Run(ctx)
	if err != nil {
		return err
	}

	log.Println("watcher pipeline running as pid", h.PID)
	return nil
}

func status() error {
	prev, err := journal.ReadPreviousRunFromFile(journalFile)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("no journal at", journalFile)
			return nil
		}

		return errors.Wrap(err, "failed to read journal")
	}

	if prev == nil {
		fmt.Println("no watcher launch recorded")
	} else {
		h := watchmon.Handle{PID: prev.PID, Command: prev.Command, StartedAt: prev.StartedAt}

		state := "dead"
		if h.Alive() {
			state = "alive"
		}

		fmt.Printf("last launch: pid %d at %s, now %s\n",
			prev.PID, prev.StartedAt.Format(time.RFC3339), state)
	}

	matches, err := watchmon.FindMatches(context.Background(), watchCmd)
	if err != nil {
		return err
	}

	fmt.Printf("%d process(es) currently match %q\n", len(matches), watchCmd)
	for _, m := range matches {
		fmt.Printf("  pid %d: %s\n", m.PID, m.Cmdline)
	}

	return printRecentEvents(5)
}

func printRecentEvents(n int) error {
	f, err := os.Open(journalFile)
	if err != nil {
		return errors.Wrap(err, "failed to open journal")
	}
	defer f.Close()

	r := journal.NewReader(f)

	fmt.Println("recent events:")
	for i := 0; i < n; i++ {
		ev, t, err := r.Read()
		if err != nil {
			break
		}

		fmt.Printf("  %s  %s\n", t.Format("2006-01-02 15:04:05"), journal.Describe(ev))
	}

	return nil
}

// pump is the hidden subcommand the launcher re-executes the binary with; it
// stays resident for the watcher's whole life while the supervisor pass that
// spawned it has long exited.
func pump() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := watchmon.Config{Dir: baseDir, Target: watchCmd}
	return watchmon.RunPump(ctx, cfg, os.Stdout)
}
