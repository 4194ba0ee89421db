package fiberpool

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/tracez"
)

// Tracing keys for job execution and queue-wait spans.
const (
	spanJobExec   tracez.Key = "pool.job.exec"
	spanQueueWait tracez.Key = "pool.queue.wait"

	tagJobID     tracez.Tag = "pool.job.id"
	tagPanicked  tracez.Tag = "pool.job.panicked"
	tagRecovered tracez.Tag = "pool.job.recovered"
	tagQueueOp   tracez.Tag = "pool.queue.op"
	tagBlocking  tracez.Tag = "pool.queue.blocking"
)

// workerLoop is the body of a single worker goroutine. It is grounded on the
// original's worker_loop (pool.c) state machine — Idle (blocking pop) ->
// Running-first -> Draining (non-blocking pop until empty or KILL_N) ->
// Flag-handling -> either back to Idle or Exiting — adapted so the signal-
// driven wake (SIGUSR1/pthread_cond) becomes the wake-job relay: a worker
// told to retire via Remove/Free observes a sentinel job (job.go's
// jobIDWake) rather than an OS signal, since that sentinel travels through
// the same FIFO as real work and therefore needs no extra synchronization
// primitive of its own.
func (p *Pool) workerLoop(h *workerHandle) {
	defer p.wg.Done()

	for {
		job, err := p.popTraced(Block)
		switch {
		case err == nil && !job.isWake():
			h.currentJob.Store(job.ID)
			p.metrics.Gauge(MetricWorkersWorking).Set(float64(p.workingWorkers.Add(1)))
			p.runJob(job)

			// Draining: keep picking up queued work without blocking until
			// the queue goes empty or KILL_N appears, matching the
			// original's "drain what's already queued before re-checking
			// flags" behavior.
			for !p.flags.isKillN() {
				next, perr := p.popTraced(NoBlock)
				if perr != nil {
					break
				}
				if next.isWake() {
					break
				}
				h.currentJob.Store(next.ID)
				p.runJob(next)
			}

			h.currentJob.Store(-1)
			p.metrics.Gauge(MetricWorkersWorking).Set(float64(p.workingWorkers.Add(-1)))

		case err != nil:
			// A custom QueueOps implementation interrupted the blocking
			// pop for a reason of its own (the portable equivalent of
			// EINTR). Fall through to flag-handling without having
			// executed anything.
		}

		// Flag-handling: KILL_N takes priority over WAIT. A worker that
		// observes both bits set treats retirement as the higher-priority
		// instruction.
		if p.flags.isKillN() {
			p.retire(h)
			return
		}
		if p.flags.isWait() && p.workingWorkers.Load() == 0 {
			p.postQuiescence()
		}
	}
}

// popTraced wraps a single Pop call in a span covering the time spent
// waiting on the queue, so a blocking Pop's idle time (time-in-queue, from
// the consumer side) is visible to a tracer alongside spanJobExec's
// execution time.
func (p *Pool) popTraced(flags PushFlag) (Job, error) {
	_, span := p.tracer.StartSpan(context.Background(), spanQueueWait)
	defer span.Finish()
	span.SetTag(tagQueueOp, "pop")
	span.SetTag(tagBlocking, strconv.FormatBool(flags&Block != 0))

	return p.queue.Pop(flags)
}

// runJob executes job's function with panic recovery, tracing, and metrics.
// A panicking job must not take down the worker; its return value is
// discarded either way (no result-retrieval support).
func (p *Pool) runJob(job Job) {
	ctx := context.Background()
	ctx, span := p.tracer.StartSpan(ctx, spanJobExec)
	span.SetTag(tagJobID, strconv.FormatInt(int64(job.ID), 10))

	defer func() {
		if r := recover(); r != nil {
			span.SetTag(tagPanicked, "true")
			span.SetTag(tagRecovered, fmt.Sprintf("%v", r))
			p.metrics.Counter(MetricJobsPanickedTotal).Inc()
			capitan.Warn(ctx, SignalJobPopped,
				FieldPoolName.Field(p.name),
				FieldJobID.Field(int(job.ID)),
				FieldError.Field(fmt.Sprintf("%v", r)),
			)
			_ = p.hooks.jobPanic.Emit(ctx, EventJobPanic, JobPanicEvent{
				PoolName:  p.name,
				JobID:     job.ID,
				Recovered: r,
				Timestamp: p.clock.Now(),
			})
		}
		span.Finish()
	}()

	job.Func(job.Arg)

	p.metrics.Counter(MetricJobsExecutedTotal).Inc()
	p.metrics.Counter(MetricJobsPoppedTotal).Inc()
	capitan.Info(ctx, SignalJobPopped,
		FieldPoolName.Field(p.name),
		FieldJobID.Field(int(job.ID)),
	)
}

// retire completes a worker's self-retirement: decrement the kill quota,
// relay another wake-job if more workers still need to retire (otherwise
// clear KILL_N), unlink from the registry, and emit the retirement event.
// This mirrors the original's thread_clean_self plus the relay decision in
// handle_flag_kill_n, kept to one exact ordering: decrement first, then
// decide relay-vs-clear from the result.
func (p *Pool) retire(h *workerHandle) {
	remaining := p.flags.killQuota.Add(-1)
	if remaining > 0 {
		_ = p.queue.Push(p.wakeJob(), Block)
	} else {
		p.flags.clearKillN()
	}

	p.registry.remove(h)
	left := p.totalWorkers.Add(-1)
	p.assertf(left >= 0, "total worker count went negative on retire")
	p.metrics.Gauge(MetricWorkersTotal).Set(float64(left))

	ctx := context.Background()
	capitan.Info(ctx, SignalWorkerRemoved,
		FieldPoolName.Field(p.name),
		FieldWorkerCount.Field(int(left)),
	)
	_ = p.hooks.workerRetired.Emit(ctx, EventWorkerRetired, WorkerRetiredEvent{
		PoolName:      p.name,
		WorkersLeft:   int(left),
		KillQuotaLeft: max64(remaining, 0),
		Timestamp:     p.clock.Now(),
	})

	// A retiring worker that still owed a Wait caller a quiescence signal
	// (it was the last one working, or the queue just drained) must post
	// before it exits, or that Wait would block forever.
	if p.flags.isWait() && p.workingWorkers.Load() == 0 {
		p.postQuiescence()
	}
}

// postQuiescence notifies a single blocked Wait caller. The send is
// non-blocking: if quiesceCh already holds an unconsumed permit (no Wait
// call is currently pending, or a previous post hasn't been drained yet),
// the redundant post is silently absorbed rather than escalated, since a
// buffered channel has no "overflow" failure mode the way a POSIX
// semaphore with a bounded count does.
func (p *Pool) postQuiescence() {
	select {
	case p.quiesceCh <- struct{}{}:
	default:
	}

	ctx := context.Background()
	capitan.Info(ctx, SignalPoolQuiescent,
		FieldPoolName.Field(p.name),
		FieldWorkingCount.Field(int(p.workingWorkers.Load())),
	)
	_ = p.hooks.quiescent.Emit(ctx, EventQuiescent, QuiescentEvent{
		PoolName:  p.name,
		Timestamp: p.clock.Now(),
	})
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
