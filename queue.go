package fiberpool

// PushFlag governs blocking behavior for Push and Pop. It mirrors the
// original C library's bit-pattern flags (FIBER_BLOCK / FIBER_NO_BLOCK) for
// interface fidelity.
type PushFlag uint32

const (
	// NoBlock returns ErrWouldBlock immediately if the queue is full (push)
	// or empty (pop) rather than waiting.
	NoBlock PushFlag = 0

	// Block waits indefinitely for a free slot (push) or a job (pop).
	Block PushFlag = 1 << 31
)

// QueueOps is the collaborator contract the pool consumes from any queue
// implementation. A queue need only satisfy Push/Pop/Close; Length is
// optional (report ok=false if unsupported) and advisory even when
// supported — callers must not assume strict accuracy.
type QueueOps interface {
	// Push enqueues job by copy. With Block set it waits for a free slot;
	// otherwise it returns ErrWouldBlock immediately if the queue is full.
	Push(job Job, flags PushFlag) error

	// Pop dequeues a job by copy. With Block set it waits for a job;
	// otherwise it returns ErrWouldBlock immediately if the queue is empty.
	// It returns ErrQueueClosed if the queue was closed while a blocking
	// pop was waiting.
	Pop(flags PushFlag) (Job, error)

	// Close releases all queue-owned resources. Callers must ensure no
	// goroutine is currently inside Push or Pop.
	Close()

	// Length reports the instantaneous, advisory element count. ok is
	// false if this queue implementation does not support length
	// reporting.
	Length() (count int, ok bool)
}

// QueueFactory constructs a QueueOps of the given positive capacity. The
// built-in FIFO queue (newFIFOQueue) is used when Options.QueueFactory is
// nil, unless Options.ExcludeBuiltinFIFO is set (then New fails with
// ErrQueueOpsNone); supplying a factory replaces the built-in queue
// entirely.
type QueueFactory func(capacity int) (QueueOps, error)
