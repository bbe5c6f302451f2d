package operations

import "time"

// Kind classifies what an operation does.
type Kind string

const (
	KindStart      Kind = "start"
	KindStop       Kind = "stop"
	KindRestart    Kind = "restart"
	KindStartGroup Kind = "start_group"
	KindStopGroup  Kind = "stop_group"
	KindCleanup    Kind = "cleanup"
)

// Status is the server-side operation status. Clients additionally infer a
// local "timeout" pseudo-state after exhausting their polling budget; that is
// never stored here.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Counter names the per-kind progress counters.
type Counter string

const (
	CounterStarted        Counter = "started"
	CounterAlreadyRunning Counter = "already_running"
	CounterStopped        Counter = "stopped"
	CounterNotRunning     Counter = "not_running"
	CounterRemoved        Counter = "removed"
	CounterFailed         Counter = "failed"
)

// Operation is a tracked asynchronous unit of work. Counters only increase
// and status transitions are monotonic: running -> completed | error.
type Operation struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Target    string          `json:"target"`
	Status    Status          `json:"status"`
	Counters  map[Counter]int `json:"counters"`
	Total     int             `json:"total"`
	StartedAt time.Time       `json:"started_at"`
	Errors    []string        `json:"errors,omitempty"`
}

// Terminal reports whether the operation reached a final status.
func (o *Operation) Terminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusError
}

// Count returns a counter value (zero when never incremented).
func (o *Operation) Count(c Counter) int {
	return o.Counters[c]
}

// clone returns a deep copy so callers never observe in-flight mutation.
func (o *Operation) clone() *Operation {
	dup := *o
	dup.Counters = make(map[Counter]int, len(o.Counters))
	for k, v := range o.Counters {
		dup.Counters[k] = v
	}
	dup.Errors = append([]string(nil), o.Errors...)
	return &dup
}
