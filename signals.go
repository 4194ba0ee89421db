package fiberpool

import "github.com/zoobzio/capitan"

// Signal constants for pool lifecycle events.
// Signals follow the pattern: <subsystem>.<event>.
const (
	// SignalJobPushed fires every time Push successfully stamps and
	// enqueues a job.
	SignalJobPushed capitan.Signal = "pool.job.pushed"

	// SignalJobPopped fires every time a worker successfully pops a
	// caller-submitted job (not the internal wake-job).
	SignalJobPopped capitan.Signal = "pool.job.popped"

	// SignalQueueSaturated fires when Push observes the queue already at
	// capacity before attempting to enqueue.
	SignalQueueSaturated capitan.Signal = "pool.queue.saturated"

	// SignalWorkerAdded fires once per worker successfully spawned by Add
	// (and by New's initial spawn).
	SignalWorkerAdded capitan.Signal = "pool.worker.added"

	// SignalWorkerRemoved fires once per worker that completes
	// self-retirement after observing KILL_N.
	SignalWorkerRemoved capitan.Signal = "pool.worker.removed"

	// SignalPoolQuiescent fires when a worker posts the quiescence signal
	// for a blocked Wait caller.
	SignalPoolQuiescent capitan.Signal = "pool.quiescent"
)

// Common field keys using capitan primitive types.
// All keys use primitive types to avoid custom struct serialization.
var (
	FieldPoolName      = capitan.NewStringKey("pool_name")      // Pool instance name
	FieldError         = capitan.NewStringKey("error")          // Error message
	FieldTimestamp     = capitan.NewFloat64Key("timestamp")     // Unix timestamp
	FieldJobID         = capitan.NewIntKey("job_id")            // Job id
	FieldQueueDepth    = capitan.NewIntKey("queue_depth")       // Jobs currently queued
	FieldQueueCapacity = capitan.NewIntKey("queue_capacity")    // Queue capacity
	FieldWorkerCount   = capitan.NewIntKey("worker_count")      // Total live workers
	FieldWorkingCount  = capitan.NewIntKey("working_count")     // Workers currently executing a job
)
