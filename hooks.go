package fiberpool

import (
	"context"
	"time"

	"github.com/zoobzio/hookz"
)

// Hook event keys, matching the reference implementation's hookz-based
// OnTimeout/OnNearTimeout convention.
const (
	EventWorkerRetired hookz.Key = "pool.worker.retired"
	EventJobPanic      hookz.Key = "pool.job.panic"
	EventQuiescent     hookz.Key = "pool.quiescent"
)

// WorkerRetiredEvent is emitted when a worker completes self-retirement
// after observing KILL_N.
type WorkerRetiredEvent struct {
	PoolName      string
	WorkersLeft   int
	KillQuotaLeft int64
	Timestamp     time.Time
}

// JobPanicEvent is emitted when a job's function panics. The pool recovers
// the panic so one bad job cannot take down a worker goroutine; this event
// is the only way a caller learns it happened, since job functions have no
// declared return-error channel — a job's return value is always discarded
// by the pool.
type JobPanicEvent struct {
	PoolName  string
	JobID     JobID
	Recovered any
	Timestamp time.Time
}

// QuiescentEvent is emitted when the pool reaches quiescence (no worker
// executing, queue empty) while a Wait call is pending.
type QuiescentEvent struct {
	PoolName  string
	Timestamp time.Time
}

// hooks bundles the three typed hook buses a Pool exposes, mirroring the
// reference implementation's per-connector *hookz.Hooks[Event] field.
type hooks struct {
	workerRetired *hookz.Hooks[WorkerRetiredEvent]
	jobPanic      *hookz.Hooks[JobPanicEvent]
	quiescent     *hookz.Hooks[QuiescentEvent]
}

func newHooks() *hooks {
	return &hooks{
		workerRetired: hookz.New[WorkerRetiredEvent](),
		jobPanic:      hookz.New[JobPanicEvent](),
		quiescent:     hookz.New[QuiescentEvent](),
	}
}

func (h *hooks) close() {
	h.workerRetired.Close()
	h.jobPanic.Close()
	h.quiescent.Close()
}

// OnWorkerRetired registers a handler called whenever a worker self-retires.
func (p *Pool) OnWorkerRetired(handler func(context.Context, WorkerRetiredEvent) error) error {
	_, err := p.hooks.workerRetired.Hook(EventWorkerRetired, handler)
	return err
}

// OnJobPanic registers a handler called whenever a job's function panics.
func (p *Pool) OnJobPanic(handler func(context.Context, JobPanicEvent) error) error {
	_, err := p.hooks.jobPanic.Hook(EventJobPanic, handler)
	return err
}

// OnQuiescent registers a handler called whenever the pool reaches
// quiescence while a Wait caller is blocked.
func (p *Pool) OnQuiescent(handler func(context.Context, QuiescentEvent) error) error {
	_, err := p.hooks.quiescent.Hook(EventQuiescent, handler)
	return err
}
