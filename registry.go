package fiberpool

import "sync"

// workerHandle is a worker descriptor: an atomically-updated current job id
// (-1 when idle) plus whatever the registry needs to find and remove it.
// Grounded on the original's struct fiber_thread, replacing the linked-list
// node with a registry-owned handle holding an atomic job-id field.
type workerHandle struct {
	id         uint64
	currentJob atomicJobID
}

// workerRegistry is an unordered collection of live worker descriptors,
// mutated only under mu. The original's singly-linked list (O(1) insert,
// O(n) remove-by-identity) is replaced by a map for O(1) insert and O(1)
// remove, the Go-idiomatic substitute for a memory-safe host. There is no
// "find a sleeping worker" traversal (the original's wake_next_sleeping_thread)
// because the wake-job relay (see worker.go) retires workers by posting
// through the queue instead of signaling a specific goroutine directly.
type workerRegistry struct {
	mu      sync.Mutex
	nextID  uint64
	workers map[uint64]*workerHandle
}

func newWorkerRegistry() *workerRegistry {
	return &workerRegistry{workers: make(map[uint64]*workerHandle)}
}

// addChain splices a freshly spawned batch of worker handles into the
// registry as a unit, matching the original's thread_ll_add batch-splice
// semantics.
func (r *workerRegistry) addChain(handles []*workerHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range handles {
		r.nextID++
		h.id = r.nextID
		r.workers[h.id] = h
	}
}

// remove unlinks a single descriptor by identity, called by a worker during
// its own self-retirement (thread_clean_self in the original).
func (r *workerRegistry) remove(h *workerHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workers, h.id)
}

// len returns the current number of live worker descriptors.
func (r *workerRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

// snapshot returns a stable slice of the currently registered handles.
func (r *workerRegistry) snapshot() []*workerHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*workerHandle, 0, len(r.workers))
	for _, h := range r.workers {
		out = append(out, h)
	}
	return out
}
