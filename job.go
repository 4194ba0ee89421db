package fiberpool

import (
	"math"
	"sync/atomic"
)

// JobID identifies a submitted job. Non-negative values (starting at 0) are
// allocated by the pool; negative values are reserved as invalid/error markers, except for
// jobIDWake, the sentinel used internally by the wake-job relay (see
// worker.go).
type JobID int64

// jobIDWake is the sentinel id carried by the internal wake-job. It is never
// returned to a caller of Push.
const jobIDWake JobID = math.MinInt64

// JobFunc is the function executed for a job. Its return value is discarded
// by the pool; jobs communicate results through their own side channels if
// the caller needs them (result retrieval is an explicit Non-goal).
type JobFunc func(arg any) any

// Job is a single unit of work submitted to the pool. Jobs are copied by
// value at every queue boundary.
type Job struct {
	ID   JobID
	Func JobFunc
	Arg  any
}

// isWake reports whether this job is the internal wake-job sentinel rather
// than caller-submitted work.
func (j Job) isWake() bool {
	return j.ID == jobIDWake
}

// jobIDAllocator hands out non-negative, monotonically increasing job ids,
// wrapping to 0 on overflow. The zero value is not usable; use
// newJobIDAllocator.
//
// Grounded on the original C allocator (fiber.c's next-id CAS loop): read
// the current value, compute the successor with wraparound, commit with
// compare-and-swap, retry on conflict.
type jobIDAllocator struct {
	counter         atomic.Int64
	max             int64
	noOverflowCheck bool
	onWrap          func()
}

func newJobIDAllocator(max int64, disableOverflowCheck bool) *jobIDAllocator {
	a := &jobIDAllocator{max: max, noOverflowCheck: disableOverflowCheck}
	a.counter.Store(-1)
	return a
}

// next returns the next id in the sequence. It never returns a negative
// value; the wrap target is 0, never -1. onWrap, if set, is called exactly
// once per genuine wraparound (current >= max), never on the allocator's
// ordinary first id (which legitimately is 0).
func (a *jobIDAllocator) next() JobID {
	if a.noOverflowCheck {
		// The host has determined overflow is impossible within the
		// program's lifetime for the chosen width; skip the CAS retry
		// loop in favor of a plain increment-and-read.
		return JobID(a.counter.Add(1))
	}
	for {
		current := a.counter.Load()
		var next int64
		wrapped := current >= a.max
		if wrapped {
			next = 0
		} else {
			next = current + 1
		}
		if a.counter.CompareAndSwap(current, next) {
			if wrapped && a.onWrap != nil {
				a.onWrap()
			}
			return JobID(next)
		}
	}
}
