package fiberpool

import "github.com/zoobzio/clockz"

// Options configures a new Pool. ThreadsNumber and QueueLength are
// required; everything else has a sensible default.
type Options struct {
	// Name identifies this pool in emitted signals/metrics/traces. Defaults
	// to "pool" if empty.
	Name string

	// ThreadsNumber is the number of worker goroutines to start. Must be >= 1.
	ThreadsNumber int

	// QueueLength is the capacity passed to the queue implementation. Must
	// be >= 1.
	QueueLength int

	// QueueFactory, if non-nil, replaces the built-in FIFO queue entirely.
	// If nil and ExcludeBuiltinFIFO is false, the built-in bounded FIFO is
	// used.
	QueueFactory QueueFactory

	// ExcludeBuiltinFIFO matches the FIBER_NO_DEFAULT_QUEUE
	// build-time knob: if true and QueueFactory is nil, New fails with
	// ErrQueueOpsNone instead of falling back to the built-in FIFO.
	ExcludeBuiltinFIFO bool

	// Clock overrides the pool's time source. Defaults to clockz.RealClock.
	// A clockz fake clock can be injected to make the timestamps carried by
	// emitted events deterministic.
	Clock clockz.Clock

	// DisableOverflowCheck elides the job-id counter's CAS-retry wrap check
	// in favor of a plain increment, for hosts that can guarantee the
	// counter will never be pushed anywhere near its ceiling.
	DisableOverflowCheck bool

	// MaxJobID bounds the job-id counter's wrap point. Defaults to
	// math.MaxInt64. Tests lower this to exercise the overflow scenario
	// without running 2^63 pushes.
	MaxJobID int64

	// Debug enables additional internal consistency assertions that panic
	// on violation. Leave false in production.
	Debug bool
}
