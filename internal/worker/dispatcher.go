package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

type TaskError struct {
	Name string
	Err  error
}

// Dispatcher runs fire-and-forget tasks on a fixed set of workers. Task
// failures go to a separate error channel that is drained into the log and
// never reach the submitter.
type Dispatcher struct {
	workers int
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	tasks  chan namedTask
	errs   chan TaskError

	wg      sync.WaitGroup
	errWG   sync.WaitGroup
	onError func(TaskError)
}

type namedTask struct {
	name string
	run  Task
}

func NewDispatcher(workers, buffer int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		workers: workers,
		timeout: 10 * time.Second,
		logger:  logger,
		tasks:   make(chan namedTask, buffer),
		errs:    make(chan TaskError, workers*16),
	}
}

func (d *Dispatcher) SetTaskTimeout(timeout time.Duration) {
	if d == nil {
		return
	}
	d.timeout = timeout
}

// OnError registers a hook called for every failed task after it is logged.
// It must be set before Start.
func (d *Dispatcher) OnError(fn func(TaskError)) {
	if d == nil {
		return
	}
	d.onError = fn
}

func (d *Dispatcher) Start(ctx context.Context) {
	if d == nil {
		return
	}

	d.errWG.Add(1)
	go func() {
		defer d.errWG.Done()
		for te := range d.errs {
			d.logger.Warn("async task failed", zap.String("task", te.Name), zap.Error(te.Err))
			if d.onError != nil {
				d.onError(te)
			}
		}
	}()

	d.wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go func() {
			defer d.wg.Done()
			for t := range d.tasks {
				if err := d.run(ctx, t); err != nil {
					d.errs <- TaskError{Name: t.name, Err: err}
				}
			}
		}()
	}
}

func (d *Dispatcher) run(parent context.Context, t namedTask) (err error) {
	ctx := context.WithoutCancel(parent)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.run(ctx)
}

// Submit enqueues t without blocking. It reports false when the dispatcher is
// closed or its queue is full; the task is dropped in that case.
func (d *Dispatcher) Submit(name string, t Task) bool {
	if d == nil || t == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.tasks <- namedTask{name: name, run: t}:
		return true
	default:
		d.logger.Warn("async task dropped", zap.String("task", name), zap.String("reason", "queue_full"))
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	d.wg.Wait()
	close(d.errs)
	d.errWG.Wait()
}
