package fiberpool

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Pool is a bounded FIFO job queue served by a fixed (but resizable) set of
// worker goroutines. The zero value is not usable; construct one with New.
//
// Grounded on the original's struct fiber_thread_pool (fiber.h) and its
// lifecycle in pool.c (fiber_thread_pool_init / _add / _remove / _free):
// the pool mutex, job-id allocator, and flag bits are carried over; the
// linked worker list becomes workerRegistry; the POSIX semaphore pair
// backing the queue becomes fifoQueue; and the ambient observability
// fields (clock/metrics/tracer/hooks) are new, wired the way the
// reference implementation's own connectors wire theirs.
type Pool struct {
	name string

	queue         QueueOps
	queueCapacity int

	ids      *jobIDAllocator
	registry *workerRegistry
	flags    poolFlags

	totalWorkers   atomic.Int64
	workingWorkers atomic.Int64

	quiesceCh chan struct{}

	wg       sync.WaitGroup
	freeOnce sync.Once
	freed    atomic.Bool

	clock   clockz.Clock
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hooks

	debug bool
}

// New constructs and starts a Pool per opts. Validation follows the
// EINVLD_SIZE -> EQUEOPS_NONE -> resource-failure order:
// size fields are checked before a queue implementation is even
// constructed, and the queue is constructed before any worker is spawned.
func New(opts Options) (*Pool, error) {
	if opts.ThreadsNumber < 1 || opts.QueueLength < 1 {
		return nil, ErrInvalidSize
	}

	factory := opts.QueueFactory
	if factory == nil {
		if opts.ExcludeBuiltinFIFO {
			return nil, ErrQueueOpsNone
		}
		factory = newFIFOQueue
	}

	queue, err := factory(opts.QueueLength)
	if err != nil {
		return nil, err
	}
	if queue == nil {
		return nil, ErrQueueNull
	}

	name := opts.Name
	if name == "" {
		name = "pool"
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockz.RealClock
	}

	maxID := opts.MaxJobID
	if maxID == 0 {
		maxID = math.MaxInt64
	}

	p := &Pool{
		name:          name,
		queue:         queue,
		queueCapacity: opts.QueueLength,
		ids:           newJobIDAllocator(maxID, opts.DisableOverflowCheck),
		registry:      newWorkerRegistry(),
		quiesceCh:     make(chan struct{}, 1),
		clock:         clock,
		metrics:       newMetrics(),
		tracer:        tracez.New(),
		hooks:         newHooks(),
		debug:         opts.Debug,
	}
	p.ids.onWrap = func() { p.metrics.Counter(MetricJobIDWrapsTotal).Inc() }

	if err := p.Add(opts.ThreadsNumber); err != nil {
		queue.Close()
		return nil, err
	}
	return p, nil
}

// Push stamps job with a freshly allocated id and enqueues it. On success it
// returns the allocated id; on failure the id is returned as 0 alongside the
// error (the id counter may still have advanced — a harmless, documented
// side effect, since job ids need only be unique, not gap-free).
func (p *Pool) Push(job Job, flags PushFlag) (JobID, error) {
	if p == nil || job.Func == nil {
		return 0, ErrNullArgs
	}
	if p.freed.Load() {
		return 0, ErrPoolUninit
	}

	id := p.ids.next()
	p.assertf(id != jobIDWake, "allocator produced the wake sentinel as a caller-visible id")
	job.ID = id

	ctx := context.Background()
	if depth, ok := p.queue.Length(); ok {
		p.metrics.Gauge(MetricQueueDepth).Set(float64(depth))
		if depth >= p.queueCapacity {
			capitan.Warn(ctx, SignalQueueSaturated,
				FieldPoolName.Field(p.name),
				FieldQueueDepth.Field(depth),
				FieldQueueCapacity.Field(p.queueCapacity),
			)
		}
	}

	switch err := p.pushTraced(job, flags); {
	case err == nil:
		p.metrics.Counter(MetricJobsPushedTotal).Inc()
		capitan.Info(ctx, SignalJobPushed,
			FieldPoolName.Field(p.name),
			FieldJobID.Field(int(id)),
			FieldTimestamp.Field(float64(p.clock.Now().Unix())),
		)
		return id, nil
	case errors.Is(err, ErrWouldBlock):
		return 0, ErrWouldBlock
	case errors.Is(err, ErrQueueClosed):
		return 0, ErrPoolUninit
	default:
		capitan.Warn(ctx, SignalJobPushed,
			FieldPoolName.Field(p.name),
			FieldJobID.Field(int(id)),
			FieldError.Field(err.Error()),
		)
		return 0, ErrPushJob
	}
}

// JobsPending reports the queue's current advisory depth. ok is false if the
// underlying queue implementation does not support length reporting.
func (p *Pool) JobsPending() (int, bool) {
	depth, ok := p.queue.Length()
	if ok {
		p.metrics.Gauge(MetricQueueDepth).Set(float64(depth))
	}
	return depth, ok
}

// Metrics returns this pool's metrics registry, letting callers (and tests)
// observe the counters/gauges emitted during Push/Add/Remove/job execution.
func (p *Pool) Metrics() *metricz.Registry {
	return p.metrics
}

// Tracer returns this pool's tracer, letting callers attach span processors
// or tests assert on recorded spans.
func (p *Pool) Tracer() *tracez.Tracer {
	return p.tracer
}

// ThreadsNumber reports the current total worker count (idle + working).
func (p *Pool) ThreadsNumber() int {
	return int(p.totalWorkers.Load())
}

// ThreadsWorking reports how many workers are currently executing a job.
func (p *Pool) ThreadsWorking() int {
	return int(p.workingWorkers.Load())
}

// Wait blocks until the pool is quiescent: no worker is executing a job and
// the queue is empty. If both conditions already hold at the moment the
// WAIT bit is set, Wait returns immediately without blocking.
func (p *Pool) Wait() {
	p.flags.setWait()
	defer p.flags.clearWait()

	depth, _ := p.queue.Length()
	if p.workingWorkers.Load() == 0 && depth == 0 {
		return
	}
	<-p.quiesceCh
}

// Add spawns n new worker goroutines and splices them into the registry as
// a batch, matching the original's thread_ll_add batch-splice semantics
// (registry.addChain). Unlike pthread_create, a Go goroutine launch cannot
// fail for lack of system resources, so the original's ENO_RSC/EPTHRD_PERM
// codes are preserved on the Options/Error surface for API-fidelity but are
// never produced by this path; only EINVLD_SIZE, and EPOOL_UNINIT after
// Free, are reachable here.
func (p *Pool) Add(n int) error {
	if n < 1 {
		return ErrInvalidSize
	}
	if p.freed.Load() {
		return ErrPoolUninit
	}

	handles := make([]*workerHandle, n)
	for i := range handles {
		h := &workerHandle{}
		h.currentJob.Store(-1)
		handles[i] = h
	}
	p.registry.addChain(handles)
	p.totalWorkers.Add(int64(n))

	ctx := context.Background()
	for _, h := range handles {
		p.wg.Add(1)
		go p.workerLoop(h)
		capitan.Info(ctx, SignalWorkerAdded,
			FieldPoolName.Field(p.name),
			FieldWorkerCount.Field(p.ThreadsNumber()),
		)
	}
	p.metrics.Gauge(MetricWorkersTotal).Set(float64(p.ThreadsNumber()))
	return nil
}

// Remove asks n currently-live workers to self-retire via the wake-job
// relay (see worker.go): the kill quota is bumped by n, the KILL_N bit is
// set, and a single wake-job is pushed to prime the relay. It returns
// before any worker has actually exited; inspect ThreadsNumber or register
// OnWorkerRetired to observe completion. Wait tracks job quiescence only,
// not worker retirement.
func (p *Pool) Remove(n int) error {
	if n < 1 {
		return ErrInvalidSize
	}
	if p.freed.Load() {
		return ErrPoolUninit
	}
	return p.primeKillRelay(int64(n))
}

func (p *Pool) primeKillRelay(n int64) error {
	p.flags.killQuota.Add(n)
	p.flags.setKillN()
	if err := p.queue.Push(p.wakeJob(), Block); err != nil {
		return ErrPushJob
	}
	return nil
}

// Free retires every currently-live worker (reusing the same relay Remove
// uses), joins all worker goroutines, and releases the queue and
// observability collaborators. It is idempotent and safe to call more than
// once. Matching the original's deferred pthread_cancel semantics, Free
// does not forcibly interrupt a worker in the middle of a job's Func: a
// worker stuck in a job that never returns makes Free block forever too,
// in both implementations, since the cancellation/retirement point is the
// next queue Pop, not an arbitrary instant.
func (p *Pool) Free() {
	p.freeOnce.Do(func() {
		if n := p.registry.len(); n > 0 {
			_ = p.primeKillRelay(int64(n))
		}
		p.wg.Wait()
		p.freed.Store(true)
		p.queue.Close()
		p.hooks.close()
		p.tracer.Close()
	})
}

// assertf panics with msg if cond is false and Options.Debug was set. It is
// a no-op in production configurations.
func (p *Pool) assertf(cond bool, msg string) {
	if p.debug && !cond {
		panic("fiberpool: debug assertion failed: " + msg)
	}
}

// pushTraced wraps a single Push call in a span covering the time spent
// waiting on the queue (a blocking Push waits on a free slot), so a
// producer's time-in-queue is visible to a tracer the same way spanJobExec
// makes a worker's execution time visible.
func (p *Pool) pushTraced(job Job, flags PushFlag) error {
	_, span := p.tracer.StartSpan(context.Background(), spanQueueWait)
	defer span.Finish()
	span.SetTag(tagQueueOp, "push")
	span.SetTag(tagBlocking, strconv.FormatBool(flags&Block != 0))

	return p.queue.Push(job, flags)
}

// wakeJob builds the internal sentinel job used to relay worker
// self-retirement through the queue instead of signaling a specific
// goroutine (see job.go's jobIDWake and worker.go's drain loop).
func (p *Pool) wakeJob() Job {
	return Job{ID: jobIDWake, Func: func(any) any { return nil }}
}
