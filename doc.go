// Package fiberpool provides a fixed-capacity worker pool: a bounded job
// queue dispatched across a dynamically sized set of worker goroutines, with
// explicit lifecycle operations for waiting on drain, growing and shrinking
// the worker set, and tearing the pool down.
//
// # Overview
//
// Callers construct a Pool with New, submit work with Push, and control its
// size and lifecycle with Add, Remove, Wait, and Free. Jobs are opaque
// values — a function plus its argument — with no declared relationship to
// each other; the pool does not support job dependencies, cancellation by
// id, or result retrieval.
//
// # Core Concepts
//
//   - Job: a {id, func(any) any, arg} triple. The id is assigned by the pool.
//   - Queue: a pluggable bounded FIFO by default (see QueueOps), supporting
//     blocking and non-blocking push/pop.
//   - Pool: owns the queue, the worker registry, and the coordination state
//     (pool flags, kill quota, quiescence signal).
//   - Worker: a goroutine running the worker loop, which pops jobs, drains
//     bursts non-blockingly, and observes pool flags to self-retire.
//
// # Usage Example
//
//	pool, err := fiberpool.New(fiberpool.Options{
//	    ThreadsNumber: 4,
//	    QueueLength:   100,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Free()
//
//	for i := 0; i < 500; i++ {
//	    if _, err := pool.Push(fiberpool.Job{
//	        Func: func(arg any) any {
//	            process(arg)
//	            return nil
//	        },
//	        Arg: i,
//	    }, fiberpool.Block); err != nil {
//	        log.Printf("push failed: %v", err)
//	    }
//	}
//	pool.Wait()
//
// # Lifecycle
//
//   - Add(n) grows the pool by n workers.
//   - Remove(n) asynchronously retires n workers: the call returns once a
//     wake-job has been relayed through the queue, not once the workers have
//     actually exited.
//   - Wait blocks until no worker is executing a job and the queue is empty.
//   - Free retires every worker through the same relay Remove uses and
//     releases the queue; it lets running jobs finish and joins all worker
//     goroutines before returning.
//
// # Observability
//
// Every lifecycle event (job pushed/popped, worker added/removed, pool
// saturated, pool quiescent) is emitted as a signal with typed fields (see
// signals.go), tracked in a metrics registry (see metrics.go), traced with
// spans around job execution and blocking queue waits, and available via
// typed hook subscriptions for worker retirement, job panics, and
// quiescence (see hooks.go). A Clock abstraction backs every timestamp, so
// tests can inject a fake clock instead of depending on wall time.
//
// # Non-goals
//
// Work-stealing, priority scheduling, job cancellation by id, result
// retrieval, dependencies between jobs, CPU affinity, dynamic queue
// resizing, persistence, and cross-process IPC are all out of scope.
package fiberpool
