package operations

import (
	"sort"
	"sync"
	"time"

	"github.com/nrednav/cuid2"
)

// Tracker assigns ids to asynchronous requests and serves their mutable
// progress records to polling clients. Records live until the client
// explicitly deletes them; there is no server-side expiry.
type Tracker interface {
	// Create registers a new running operation and returns its snapshot.
	Create(kind Kind, target string, total int) *Operation

	// Increment bumps a counter by one. Counters never decrease.
	Increment(id string, counter Counter) error

	// AppendError records a failure message without changing status.
	AppendError(id string, msg string) error

	// Complete marks the operation completed. Partial member failures still
	// complete; they are visible through the failed counter and error list.
	Complete(id string) error

	// Fail marks the operation as error: nothing ran (or the run aborted).
	Fail(id string, msg string) error

	// Get returns a snapshot of the operation, or ErrNotFound. Never blocks.
	Get(id string) (*Operation, error)

	// Delete discards the record. This is the client-side close action.
	Delete(id string) error

	// List returns snapshots of all retained operations, newest first.
	List() []*Operation
}

type tracker struct {
	mu  sync.RWMutex
	ops map[string]*Operation
}

// NewTracker creates an in-memory operation tracker.
func NewTracker() Tracker {
	return &tracker{ops: make(map[string]*Operation)}
}

func (t *tracker) Create(kind Kind, target string, total int) *Operation {
	op := &Operation{
		ID:        cuid2.Generate(),
		Kind:      kind,
		Target:    target,
		Status:    StatusRunning,
		Counters:  make(map[Counter]int),
		Total:     total,
		StartedAt: time.Now(),
	}

	t.mu.Lock()
	t.ops[op.ID] = op
	t.mu.Unlock()

	return op.clone()
}

// mutate runs fn against the live record while holding the write lock.
// Terminal records reject further mutation so an observed completed/error
// status can never regress or drift.
func (t *tracker) mutate(id string, fn func(*Operation)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.ops[id]
	if !ok {
		return ErrNotFound
	}
	if op.Terminal() {
		return ErrTerminal
	}
	fn(op)
	return nil
}

func (t *tracker) Increment(id string, counter Counter) error {
	return t.mutate(id, func(op *Operation) {
		op.Counters[counter]++
	})
}

func (t *tracker) AppendError(id string, msg string) error {
	return t.mutate(id, func(op *Operation) {
		op.Errors = append(op.Errors, msg)
	})
}

func (t *tracker) Complete(id string) error {
	return t.mutate(id, func(op *Operation) {
		op.Status = StatusCompleted
	})
}

func (t *tracker) Fail(id string, msg string) error {
	return t.mutate(id, func(op *Operation) {
		if msg != "" {
			op.Errors = append(op.Errors, msg)
		}
		op.Status = StatusError
	})
}

func (t *tracker) Get(id string) (*Operation, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	op, ok := t.ops[id]
	if !ok {
		return nil, ErrNotFound
	}
	return op.clone(), nil
}

func (t *tracker) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.ops[id]; !ok {
		return ErrNotFound
	}
	delete(t.ops, id)
	return nil
}

func (t *tracker) List() []*Operation {
	t.mu.RLock()
	defer t.mu.RUnlock()

	list := make([]*Operation, 0, len(t.ops))
	for _, op := range t.ops {
		list = append(list, op.clone())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].StartedAt.After(list[j].StartedAt)
	})
	return list
}
