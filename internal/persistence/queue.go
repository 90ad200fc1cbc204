package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("sync queue is closed")

// Operation is one unit of queued work.
type Operation func(ctx context.Context) error

// Status is a snapshot of the queue counters.
type Status struct {
	Pending     int        `json:"pending"`
	InProgress  bool       `json:"inProgress"`
	Current     string     `json:"current,omitempty"`
	Completed   uint64     `json:"completed"`
	Failed      uint64     `json:"failed"`
	LastError   string     `json:"lastError,omitempty"`
	LastErrorAt *time.Time `json:"lastErrorAt,omitempty"`
}

type queuedOp struct {
	id   string
	name string
	run  Operation
}

// Queue runs operations one at a time in submission order. A failing or
// panicking operation is logged and counted; it never stops the queue and
// is never retried.
type Queue struct {
	mu        sync.Mutex
	pending   []queuedOp
	running   bool
	current   string
	closed    bool
	idle      chan struct{}
	completed uint64
	failed    uint64
	lastErr   string
	lastErrAt time.Time

	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

// NewQueue creates an idle queue. A positive timeout bounds each operation;
// zero lets an operation run as long as it needs.
func NewQueue(timeout time.Duration, log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	idle := make(chan struct{})
	close(idle)
	return &Queue{
		idle:    idle,
		timeout: timeout,
		log:     log.Named("sync_queue"),
		now:     time.Now,
	}
}

// Enqueue appends op and starts the drain goroutine if none is running.
// It returns the operation id used in log lines.
func (q *Queue) Enqueue(name string, op Operation) (string, error) {
	if op == nil {
		return "", errors.New("nil operation")
	}
	item := queuedOp{id: uuid.NewString(), name: name, run: op}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", ErrQueueClosed
	}
	q.pending = append(q.pending, item)
	if !q.running {
		q.running = true
		q.idle = make(chan struct{})
		go q.drain()
	}
	return item.id, nil
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.current = ""
			close(q.idle)
			q.mu.Unlock()
			return
		}
		item := q.pending[0]
		q.pending[0] = queuedOp{}
		q.pending = q.pending[1:]
		q.current = item.name
		q.mu.Unlock()

		err := q.execute(item)

		q.mu.Lock()
		if err != nil {
			q.failed++
			q.lastErr = err.Error()
			q.lastErrAt = q.now()
		} else {
			q.completed++
		}
		q.mu.Unlock()

		if err != nil {
			q.log.Error("Sync operation failed", zap.String("op_id", item.id), zap.String("op", item.name), zap.Error(err))
		} else {
			q.log.Debug("Sync operation completed", zap.String("op_id", item.id), zap.String("op", item.name))
		}
	}
}

func (q *Queue) execute(item queuedOp) (err error) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return item.run(ctx)
}

// Status returns the current counters.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	st := Status{
		Pending:    len(q.pending),
		InProgress: q.running,
		Current:    q.current,
		Completed:  q.completed,
		Failed:     q.failed,
		LastError:  q.lastErr,
	}
	if !q.lastErrAt.IsZero() {
		t := q.lastErrAt
		st.LastErrorAt = &t
	}
	return st
}

// Wait blocks until the queue is empty and nothing is running.
func (q *Queue) Wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		idle := q.idle
		running := q.running
		q.mu.Unlock()
		if !running {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close rejects further operations and waits for the queued ones to finish.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return q.Wait(ctx)
}
