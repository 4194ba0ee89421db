package fiberpool

import "errors"

// poolError is a closed, stable-identifier error value, mirroring the
// original C library's FBR_E* enumeration (fiber.h) while remaining usable
// with errors.Is/errors.As, per the idiomatic (value, error) resolution
// recorded in DESIGN.md.
type poolError struct {
	code string
	msg  string
}

func (e *poolError) Error() string { return e.msg }

// Code returns the stable identifier for this error, matching the
// original C library's FBR_E* naming so operators can correlate this
// port's errors with the original library's documentation.
func (e *poolError) Code() string { return e.code }

//nolint:errname // mirrors the original FBR_E* naming, not Go's ErrFoo convention
var (
	// ErrNullArgs is returned by Push when it is called on a nil *Pool or
	// the job has no Func.
	ErrNullArgs = &poolError{code: "ENULL_ARGS", msg: "fiberpool: required argument is nil"}

	// ErrInvalidSize is returned when threads_number or queue_length (or an
	// Add/Remove count) is not a positive integer.
	ErrInvalidSize = &poolError{code: "EINVLD_SIZE", msg: "fiberpool: size must be positive"}

	// ErrQueueOpsNone is returned when no queue implementation is available:
	// no QueueFactory was supplied and the built-in FIFO was excluded.
	ErrQueueOpsNone = &poolError{code: "EQUEOPS_NONE", msg: "fiberpool: no queue implementation available"}

	// ErrNoResource maps underlying resource-creation failures (other than
	// memory) that have no more specific code.
	ErrNoResource = &poolError{code: "ENO_RSC", msg: "fiberpool: insufficient system resources"}

	// ErrPermission maps permission failures during worker startup.
	ErrPermission = &poolError{code: "EPTHRD_PERM", msg: "fiberpool: insufficient permissions to start worker"}

	// ErrSemRange is returned when a queue's internal semaphore could not be
	// sized for the requested capacity.
	ErrSemRange = &poolError{code: "ESEM_RNG", msg: "fiberpool: queue capacity out of range"}

	// ErrQueueNull is returned when a queue implementation's Init returned a
	// nil handle without an error.
	ErrQueueNull = &poolError{code: "EQUE_NULL", msg: "fiberpool: queue implementation returned a nil queue"}

	// ErrPoolUninit is returned when Push, Add or Remove is attempted on a
	// pool that has already been freed.
	ErrPoolUninit = &poolError{code: "EPOOL_UNINIT", msg: "fiberpool: pool is not initialized"}

	// ErrPushJob is returned when the queue's Push implementation reports a
	// failure that isn't itself a closed-set error (a non-negative,
	// non-ErrWouldBlock failure, in the original C terms).
	ErrPushJob = &poolError{code: "EPUSH_JOB", msg: "fiberpool: failed to push job onto queue"}

	// ErrWouldBlock is returned by a queue's Push/Pop when NoBlock was
	// requested and the queue was full/empty respectively. It is a queue
	// transient, not a pool failure.
	ErrWouldBlock = &poolError{code: "EAGAIN", msg: "fiberpool: queue operation would block"}

	// ErrQueueClosed is returned by a queue's Push/Pop once the queue has
	// been closed, including a blocking call that was waiting when Close
	// ran. It is the portable equivalent of the original's EINTR: the worker
	// loop treats any Pop error identically to a signal interruption and
	// proceeds to flag-handling. Pool.Free closes the default queue only
	// after every worker has exited, so its workers never observe it.
	ErrQueueClosed = &poolError{code: "EINTR", msg: "fiberpool: queue closed"}
)

// Code returns the stable identifier carried by err, if err (or something it
// wraps) is a fiberpool error; ok is false otherwise.
func Code(err error) (code string, ok bool) {
	var pe *poolError
	if errors.As(err, &pe) {
		return pe.code, true
	}
	return "", false
}
