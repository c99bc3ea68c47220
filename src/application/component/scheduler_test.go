package component

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
)

// pipelineFunc adapts a function to service.PipelineService.
type pipelineFunc func(context.Context, *domain.ChangeEvent) error

func (self pipelineFunc) Process(ctx context.Context, event *domain.ChangeEvent) error {
	return self(ctx, event)
}

func newTestScheduler(t *testing.T, workers, maxPending int, pipeline pipelineFunc) (*Scheduler, *config.Metrics) {
	t.Helper()
	logger := zerolog.Nop()
	metrics := config.NewMetrics()
	return NewScheduler(config.SchedulerPolicy{Workers: workers, MaxPending: maxPending}, pipeline, metrics, &logger), metrics
}

func startScheduler(t *testing.T, scheduler *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func enqueue(t *testing.T, scheduler *Scheduler, specRef, eventID string) *domain.ChangeEvent {
	t.Helper()
	reservation, err := scheduler.Reserve()
	require.NoError(t, err)
	event := &domain.ChangeEvent{EventID: eventID, SpecRef: specRef}
	reservation.Enqueue(event)
	return event
}

func TestSchedulerPreservesOrderPerKey(t *testing.T) {
	t.Parallel()

	// given
	var mutex sync.Mutex
	var log []string
	processed := make(chan struct{}, 3)
	scheduler, _ := newTestScheduler(t, 4, 10, func(_ context.Context, event *domain.ChangeEvent) error {
		mutex.Lock()
		log = append(log, "start "+event.EventID)
		mutex.Unlock()

		time.Sleep(10 * time.Millisecond)

		mutex.Lock()
		log = append(log, "end "+event.EventID)
		mutex.Unlock()
		processed <- struct{}{}
		return nil
	})

	enqueue(t, scheduler, "users-api", "T1")
	enqueue(t, scheduler, "users-api", "T2")
	enqueue(t, scheduler, "users-api", "T3")

	// when
	startScheduler(t, scheduler)
	for i := 0; i < 3; i++ {
		<-processed
	}

	// then
	mutex.Lock()
	defer mutex.Unlock()
	assert.Equal(t, []string{"start T1", "end T1", "start T2", "end T2", "start T3", "end T3"}, log)
}

func TestSchedulerRunsKeysConcurrently(t *testing.T) {
	t.Parallel()

	// given
	var started sync.WaitGroup
	started.Add(2)
	release := make(chan struct{})
	processed := make(chan string, 2)
	scheduler, _ := newTestScheduler(t, 2, 10, func(_ context.Context, event *domain.ChangeEvent) error {
		started.Done()
		<-release
		processed <- event.SpecRef
		return nil
	})
	startScheduler(t, scheduler)

	// when
	enqueue(t, scheduler, "users-api", "T1")
	enqueue(t, scheduler, "orders-api", "T1")

	// then
	started.Wait()
	close(release)
	assert.ElementsMatch(t, []string{"users-api", "orders-api"}, []string{<-processed, <-processed})
}

func TestSchedulerBoundsWorkers(t *testing.T) {
	t.Parallel()

	// given
	var running, peak int32
	processed := make(chan struct{}, 3)
	scheduler, _ := newTestScheduler(t, 1, 10, func(context.Context, *domain.ChangeEvent) error {
		now := atomic.AddInt32(&running, 1)
		for {
			max := atomic.LoadInt32(&peak)
			if now <= max || atomic.CompareAndSwapInt32(&peak, max, now) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		processed <- struct{}{}
		return nil
	})
	startScheduler(t, scheduler)

	// when
	enqueue(t, scheduler, "a", "T1")
	enqueue(t, scheduler, "b", "T1")
	enqueue(t, scheduler, "c", "T1")
	for i := 0; i < 3; i++ {
		<-processed
	}

	// then
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestSchedulerSupersedesInFlightEvent(t *testing.T) {
	t.Parallel()

	// given
	inFlight := make(chan struct{})
	causes := make(chan error, 2)
	scheduler, metrics := newTestScheduler(t, 2, 10, func(ctx context.Context, event *domain.ChangeEvent) error {
		if event.EventID == "T1" {
			close(inFlight)
			<-ctx.Done()
		}
		causes <- context.Cause(ctx)
		return ctx.Err()
	})
	startScheduler(t, scheduler)

	// when
	enqueue(t, scheduler, "users-api", "T1")
	<-inFlight
	enqueue(t, scheduler, "users-api", "T2")

	// then
	assert.ErrorIs(t, <-causes, domain.ErrSuperseded)
	assert.NoError(t, <-causes)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.PendingJobs) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerRejectsWhenSaturated(t *testing.T) {
	t.Parallel()

	// given
	scheduler, metrics := newTestScheduler(t, 1, 1, func(context.Context, *domain.ChangeEvent) error { return nil })
	first, err := scheduler.Reserve()
	require.NoError(t, err)

	// when
	_, err = scheduler.Reserve()

	// then
	assert.ErrorIs(t, err, ErrSaturated)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PendingJobs))

	first.Release()
	first.Release()
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.PendingJobs))

	_, err = scheduler.Reserve()
	assert.NoError(t, err)
}

func TestSchedulerKeepsQueueAcrossRestart(t *testing.T) {
	t.Parallel()

	// given
	processed := make(chan string, 1)
	scheduler, _ := newTestScheduler(t, 1, 10, func(_ context.Context, event *domain.ChangeEvent) error {
		processed <- event.EventID
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, scheduler.Start(ctx))

	// when
	enqueue(t, scheduler, "users-api", "T1")
	startScheduler(t, scheduler)

	// then
	select {
	case id := <-processed:
		assert.Equal(t, "T1", id)
	case <-time.After(time.Second):
		t.Fatal("event was not processed")
	}
}
