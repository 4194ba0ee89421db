package fiberpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/tracez"
)

func TestNewRejectsInvalidSize(t *testing.T) {
	if _, err := New(Options{ThreadsNumber: 0, QueueLength: 4}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("ThreadsNumber=0: expected ErrInvalidSize, got %v", err)
	}
	if _, err := New(Options{ThreadsNumber: 2, QueueLength: 0}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("QueueLength=0: expected ErrInvalidSize, got %v", err)
	}
}

func TestNewRejectsExcludedBuiltinWithoutFactory(t *testing.T) {
	_, err := New(Options{ThreadsNumber: 1, QueueLength: 1, ExcludeBuiltinFIFO: true})
	if !errors.Is(err, ErrQueueOpsNone) {
		t.Errorf("expected ErrQueueOpsNone, got %v", err)
	}
}

func TestNewStartsRequestedWorkerCount(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 3, QueueLength: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	if got := p.ThreadsNumber(); got != 3 {
		t.Errorf("expected 3 workers, got %d", got)
	}
}

func TestPushRejectsNilFunc(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 1, QueueLength: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	if _, err := p.Push(Job{}, Block); !errors.Is(err, ErrNullArgs) {
		t.Errorf("expected ErrNullArgs for a job with no Func, got %v", err)
	}
}

func TestPushAssignsIncreasingIDs(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 1, QueueLength: 100})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	noop := func(any) any { return nil }
	var prev JobID = -1
	for i := 0; i < 10; i++ {
		id, err := p.Push(Job{Func: noop}, Block)
		if err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
		if id <= prev {
			t.Errorf("expected strictly increasing ids, got %d after %d", id, prev)
		}
		prev = id
	}
}

func TestPoolExecutesPushedJobs(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 4, QueueLength: 50})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	const n = 200
	var executed atomic.Int64
	for i := 0; i < n; i++ {
		if _, err := p.Push(Job{Func: func(any) any {
			executed.Add(1)
			return nil
		}}, Block); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	p.Wait()

	if got := executed.Load(); got != n {
		t.Fatalf("expected %d executions, got %d", n, got)
	}
}

func TestPoolRecoversJobPanic(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 1, QueueLength: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	panicked := make(chan JobPanicEvent, 1)
	if err := p.OnJobPanic(func(_ context.Context, ev JobPanicEvent) error {
		panicked <- ev
		return nil
	}); err != nil {
		t.Fatalf("OnJobPanic: %v", err)
	}

	if _, err := p.Push(Job{Func: func(any) any {
		panic("boom")
	}}, Block); err != nil {
		t.Fatalf("push: %v", err)
	}

	select {
	case ev := <-panicked:
		if ev.Recovered != "boom" {
			t.Errorf("expected recovered value %q, got %v", "boom", ev.Recovered)
		}
	case <-time.After(time.Second):
		t.Fatal("OnJobPanic handler never fired")
	}

	// The worker must survive the panic and keep serving jobs.
	var ran atomic.Bool
	if _, err := p.Push(Job{Func: func(any) any {
		ran.Store(true)
		return nil
	}}, Block); err != nil {
		t.Fatalf("push after panic: %v", err)
	}
	p.Wait()
	if !ran.Load() {
		t.Error("worker did not survive the panic to run a subsequent job")
	}
}

func TestAddGrowsWorkerCount(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 1, QueueLength: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	if err := p.Add(3); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := p.ThreadsNumber(); got != 4 {
		t.Errorf("expected 4 workers after Add(3), got %d", got)
	}
}

func TestAddRejectsInvalidSize(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 1, QueueLength: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	if err := p.Add(0); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}

func TestRemoveShrinksWorkerCount(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 4, QueueLength: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	retired := make(chan WorkerRetiredEvent, 4)
	if err := p.OnWorkerRetired(func(_ context.Context, ev WorkerRetiredEvent) error {
		retired <- ev
		return nil
	}); err != nil {
		t.Fatalf("OnWorkerRetired: %v", err)
	}

	if err := p.Remove(2); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-retired:
		case <-time.After(time.Second):
			t.Fatalf("worker %d never retired", i)
		}
	}

	if got := p.ThreadsNumber(); got != 2 {
		t.Errorf("expected 2 workers remaining, got %d", got)
	}
}

func TestWaitReturnsImmediatelyWhenAlreadyQuiescent(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 2, QueueLength: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on an already-quiescent pool")
	}
}

func TestWaitBlocksUntilJobsDrain(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 2, QueueLength: 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	for i := 0; i < 2; i++ {
		if _, err := p.Push(Job{Func: func(any) any {
			started.Done()
			<-release
			return nil
		}}, Block); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	started.Wait()

	waitDone := make(chan struct{})
	go func() {
		p.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		t.Fatal("Wait returned before the running jobs finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after jobs finished")
	}
}

func TestFreeIsIdempotent(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 2, QueueLength: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Free()
	p.Free()

	if got := p.ThreadsNumber(); got != 0 {
		t.Errorf("expected 0 workers after Free, got %d", got)
	}
}

func TestDebugAssertionsAreNoOpWhenDisabled(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 1, QueueLength: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	// assertf must never panic when Debug is left false, regardless of the
	// condition passed in.
	p.assertf(false, "this must not panic with Debug disabled")
}

func TestDebugAssertionsPanicWhenEnabled(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 1, QueueLength: 1, Debug: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	defer func() {
		if recover() == nil {
			t.Error("expected assertf to panic on a false condition with Debug enabled")
		}
	}()
	p.assertf(false, "expected panic")
}

func TestMetricsAndTracerAreObservable(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 2, QueueLength: 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	if p.Metrics() == nil {
		t.Fatal("expected a non-nil metrics registry")
	}
	if p.Tracer() == nil {
		t.Fatal("expected a non-nil tracer")
	}

	var spans []tracez.Span
	var spanMu sync.Mutex
	p.Tracer().OnSpanComplete(func(span tracez.Span) {
		spanMu.Lock()
		spans = append(spans, span)
		spanMu.Unlock()
	})

	noop := func(any) any { return nil }
	const n = 5
	for i := 0; i < n; i++ {
		if _, err := p.Push(Job{Func: noop}, Block); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	p.Wait()

	if got := p.Metrics().Counter(MetricJobsPushedTotal).Value(); got != n {
		t.Errorf("expected MetricJobsPushedTotal=%d, got %f", n, got)
	}
	if got := p.Metrics().Counter(MetricJobsExecutedTotal).Value(); got != n {
		t.Errorf("expected MetricJobsExecutedTotal=%d, got %f", n, got)
	}
	if got := p.Metrics().Gauge(MetricWorkersTotal).Value(); got != 2 {
		t.Errorf("expected MetricWorkersTotal=2, got %f", got)
	}

	spanMu.Lock()
	defer spanMu.Unlock()
	var sawExec, sawQueueWait bool
	for _, s := range spans {
		switch s.Name {
		case spanJobExec:
			sawExec = true
		case spanQueueWait:
			sawQueueWait = true
		}
	}
	if !sawExec {
		t.Error("expected at least one spanJobExec span")
	}
	if !sawQueueWait {
		t.Error("expected at least one spanQueueWait span covering a push/pop wait")
	}
}

func TestJobIDWrapMetricCountsOnlyGenuineWraps(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 1, QueueLength: 4, MaxJobID: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	noop := func(any) any { return nil }

	// First push legitimately allocates id 0 and must not be counted as a wrap.
	if _, err := p.Push(Job{Func: noop}, Block); err != nil {
		t.Fatalf("push: %v", err)
	}
	p.Wait()
	if got := p.Metrics().Counter(MetricJobIDWrapsTotal).Value(); got != 0 {
		t.Errorf("expected no wrap counted after the first push, got %f", got)
	}

	// Ids 1 and 2 fill out the configured range; the next push (id 0 again)
	// is a genuine wrap.
	for i := 0; i < 2; i++ {
		if _, err := p.Push(Job{Func: noop}, Block); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	p.Wait()
	if got := p.Metrics().Counter(MetricJobIDWrapsTotal).Value(); got != 0 {
		t.Errorf("expected no wrap counted before reaching MaxJobID, got %f", got)
	}

	if _, err := p.Push(Job{Func: noop}, Block); err != nil {
		t.Fatalf("push: %v", err)
	}
	p.Wait()
	if got := p.Metrics().Counter(MetricJobIDWrapsTotal).Value(); got != 1 {
		t.Errorf("expected exactly one wrap counted, got %f", got)
	}
}

func TestQueueDepthGaugeReflectsPendingJobs(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 1, QueueLength: 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Free()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	if _, err := p.Push(Job{Func: func(any) any {
		started.Done()
		<-release
		return nil
	}}, Block); err != nil {
		t.Fatalf("push: %v", err)
	}
	started.Wait()

	for i := 0; i < 3; i++ {
		if _, err := p.Push(Job{Func: func(any) any { return nil }}, Block); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	if depth, ok := p.JobsPending(); !ok || depth < 3 {
		t.Errorf("expected JobsPending to report at least 3 queued jobs, got %d (ok=%v)", depth, ok)
	}
	if got := p.Metrics().Gauge(MetricQueueDepth).Value(); got < 3 {
		t.Errorf("expected MetricQueueDepth gauge to reflect queued jobs, got %f", got)
	}

	close(release)
	p.Wait()
}

func TestPushAfterFreeFails(t *testing.T) {
	p, err := New(Options{ThreadsNumber: 1, QueueLength: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Free()

	if _, err := p.Push(Job{Func: func(any) any { return nil }}, NoBlock); !errors.Is(err, ErrPoolUninit) {
		t.Errorf("expected ErrPoolUninit after Free, got %v", err)
	}
}
