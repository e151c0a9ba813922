package watchmon

// eventType describes an event type.
type eventType = string

const (
	eventWarning        eventType = "warning"
	eventAcquired       eventType = "acquired lock"
	eventProcessKilled  eventType = "process killed"
	eventTableCleared   eventType = "process table cleared"
	eventLogFileCreated eventType = "log file created"
	eventWatcherStarted eventType = "watcher started"
)

// Event is an interface describing known events.
type Event interface {
	Type() string
	event()
}

// NewEvent creates a new event from the given event type. It is used
// primarily for decoding events from its type. Nil is returned if the event
// type is unknown.
func NewEvent(eventType string) Event {
	switch eventType {
	case eventWarning:
		return &EventWarning{}
	case eventAcquired:
		return &EventAcquired{}
	case eventProcessKilled:
		return &EventProcessKilled{}
	case eventTableCleared:
		return &EventTableCleared{}
	case eventLogFileCreated:
		return &EventLogFileCreated{}
	case eventWatcherStarted:
		return &EventWatcherStarted{}
	default:
		return nil
	}
}

// EventWarning is emitted when a non-fatal error occurs, such as a
// termination signal failing because the process exited between the scan and
// the signal.
type EventWarning struct {
	Component string `json:"component"`
	Error     string `json:"error"`
}

func (ev *EventWarning) Type() string { return eventWarning }
func (ev *EventWarning) event()       {}

// EventAcquired is emitted when the flock (i.e. write lock on the journal) is
// acquired, which is on startup.
type EventAcquired struct{}

func (ev *EventAcquired) Type() string { return eventAcquired }
func (ev *EventAcquired) event()       {}

// EventProcessKilled is emitted once per process that was sent a termination
// signal during a reap round.
type EventProcessKilled struct {
	PID     int32  `json:"pid"`
	Cmdline string `json:"cmdline"`
}

func (ev *EventProcessKilled) Type() string { return eventProcessKilled }
func (ev *EventProcessKilled) event()       {}

// EventTableCleared is emitted when a scan of the process table reports no
// remaining match for the watcher command. Rounds is the number of
// termination rounds that were needed; 0 means the table was already clean.
type EventTableCleared struct {
	Rounds int `json:"rounds"`
}

func (ev *EventTableCleared) Type() string { return eventTableCleared }
func (ev *EventTableCleared) event()       {}

// EventLogFileCreated is emitted when the inference log file did not exist
// and an empty one was created. The file is never truncated if it exists.
type EventLogFileCreated struct {
	Path string `json:"path"`
}

func (ev *EventLogFileCreated) Type() string { return eventLogFileCreated }
func (ev *EventLogFileCreated) event()       {}

// EventWatcherStarted is emitted when a new watcher pipeline has been
// launched. PID is the pipeline's process group leader.
type EventWatcherStarted struct {
	PID     int    `json:"pid"`
	Command string `json:"command"`
}

func (ev *EventWatcherStarted) Type() string { return eventWatcherStarted }
func (ev *EventWatcherStarted) event()       {}
