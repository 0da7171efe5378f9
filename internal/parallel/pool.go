package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/testorch/internal/errors"
	"github.com/agbru/testorch/internal/logging"
)

// State is the lifecycle state of a Pool.
type State int32

const (
	// StateAccepting allows submissions.
	StateAccepting State = iota
	// StateDraining rejects submissions and waits for queued and in-flight work.
	StateDraining
	// StateForceCancelling interrupts in-flight work and discards queued work.
	StateForceCancelling
	// StateTerminated is final.
	StateTerminated
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateAccepting:
		return "accepting"
	case StateDraining:
		return "draining"
	case StateForceCancelling:
		return "force_cancelling"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Task is a unit of work. ctx is cancelled when the pool is force-cancelled.
type Task func(ctx context.Context)

// ShutdownResult describes how a pool reached the Terminated state.
type ShutdownResult struct {
	// Forced is true when the pool went through ForceCancelling.
	Forced bool
	// Reason is an apperrors.DrainTimeoutError or apperrors.InterruptedWaitError
	// when Forced, nil otherwise.
	Reason error
	// Discarded is the number of queued tasks that never started.
	Discarded int
	// Abandoned is the number of tasks still running when Shutdown returned.
	Abandoned int
	// Elapsed is the time spent in Shutdown.
	Elapsed time.Duration
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Workers   int
	Queued    int
	Active    int
	Completed int64
	Discarded int64
	Panics    int
	State     State
}

// Pool is a fixed-size worker pool. See the package documentation for its
// state machine.
type Pool struct {
	size    int
	grace   time.Duration
	logger  logging.Logger
	onState func(State)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Task
	closed bool

	state     atomic.Int32
	active    atomic.Int64
	completed atomic.Int64
	discarded atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	done   chan struct{}

	panics ErrorCollector

	shutdownOnce sync.Once
	result       ShutdownResult
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for pool events.
func WithLogger(l logging.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithGracePeriod makes a forced shutdown wait up to d for cancelled tasks to
// return before giving up on them. The default is zero: forced shutdown
// returns as soon as cancellation was signalled.
func WithGracePeriod(d time.Duration) Option {
	return func(p *Pool) { p.grace = d }
}

// WithStateObserver registers a callback invoked on every state transition.
// It runs synchronously on the goroutine performing the transition.
func WithStateObserver(fn func(State)) Option {
	return func(p *Pool) { p.onState = fn }
}

// NewPool starts size workers. A size below 1 means runtime.NumCPU().
func NewPool(size int, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size:   size,
		logger: logging.NewNopLogger(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cond = sync.NewCond(&p.mu)
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.notify(StateAccepting)

	for i := 0; i < size; i++ {
		id := i
		p.group.Go(func() error {
			p.worker(id)
			return nil
		})
	}
	go func() {
		_ = p.group.Wait()
		close(p.done)
	}()
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// State returns the current state.
func (p *Pool) State() State { return State(p.state.Load()) }

// Submit enqueues task. It never blocks and fails with
// apperrors.ErrPoolNotAccepting once Shutdown was called.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return apperrors.ErrPoolNotAccepting
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return nil
}

// Shutdown stops accepting work and waits up to timeout for queued and
// in-flight tasks. If the timeout elapses or ctx is cancelled first, the pool
// is force-cancelled. Only the first call does any work; later calls return
// the same result.
func (p *Pool) Shutdown(ctx context.Context, timeout time.Duration) ShutdownResult {
	p.shutdownOnce.Do(func() {
		p.result = p.shutdown(ctx, timeout)
	})
	return p.result
}

// Done is closed once every worker has exited.
func (p *Pool) Done() <-chan struct{} { return p.done }

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	queued := len(p.queue)
	p.mu.Unlock()
	return Stats{
		Workers:   p.size,
		Queued:    queued,
		Active:    int(p.active.Load()),
		Completed: p.completed.Load(),
		Discarded: p.discarded.Load(),
		Panics:    p.panics.Count(),
		State:     p.State(),
	}
}

// PanicErr returns the first panic that escaped a task, if any.
func (p *Pool) PanicErr() error { return p.panics.Err() }

func (p *Pool) shutdown(ctx context.Context, timeout time.Duration) ShutdownResult {
	start := time.Now()

	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.notify(StateDraining)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var reason error
	select {
	case <-p.done:
	case <-timer.C:
		reason = apperrors.DrainTimeoutError{Limit: timeout}
	case <-ctx.Done():
		reason = apperrors.InterruptedWaitError{Cause: ctx.Err()}
	}

	res := ShutdownResult{}
	if reason != nil {
		p.notify(StateForceCancelling)
		p.cancel()
		res.Forced = true
		res.Reason = reason
		p.discardQueued()
		if p.grace > 0 {
			select {
			case <-p.done:
			case <-time.After(p.grace):
			}
		}
		res.Discarded = int(p.discarded.Load())
		res.Abandoned = int(p.active.Load())
		p.logger.Warn("drain forced",
			logging.Err(reason),
			logging.Int("discarded", res.Discarded),
			logging.Int("abandoned", res.Abandoned))
	}
	p.cancel()
	res.Elapsed = time.Since(start)
	p.notify(StateTerminated)
	return res
}

func (p *Pool) discardQueued() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discarded.Add(int64(len(p.queue)))
	p.queue = nil
	p.cond.Broadcast()
}

// next blocks until a task is available or the pool is closed and empty.
// Popping, the cancellation check and the active count happen under one lock
// so a forced shutdown reading its counters after discardQueued sees every
// task either discarded or active.
func (p *Pool) next() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			return nil, false
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		if p.ctx.Err() != nil {
			p.discarded.Add(1)
			continue
		}
		p.active.Add(1)
		return task, true
	}
}

func (p *Pool) worker(id int) {
	for {
		task, ok := p.next()
		if !ok {
			return
		}
		p.run(id, task)
	}
}

// run executes a task already counted as active by next.
func (p *Pool) run(id int, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("worker %d: task panicked: %v", id, rec)
			p.panics.SetError(err)
			p.logger.Error("task panicked", err, logging.Int("worker", id))
		}
		p.active.Add(-1)
		p.completed.Add(1)
	}()
	task(p.ctx)
}

func (p *Pool) notify(s State) {
	p.state.Store(int32(s))
	p.logger.Debug("pool state", logging.String("state", s.String()), logging.Int("workers", p.size))
	if p.onState != nil {
		p.onState(s)
	}
}
