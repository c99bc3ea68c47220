package component

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/input-output-hk/quaestor/src/application/service"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
)

var ErrSaturated = errors.New("Too many pending events")

// Scheduler runs accepted ChangeEvents through the pipeline.
// Events of one spec_ref are processed one at a time in the order they were enqueued
// while distinct spec_refs proceed concurrently, bounded by the number of workers.
// A newer event for a spec_ref supersedes the one being processed.
type Scheduler struct {
	logger     zerolog.Logger
	pipeline   service.PipelineService
	metrics    *config.Metrics
	workers    *semaphore.Weighted
	maxPending int

	mutex   sync.Mutex
	ctx     context.Context
	pending int
	queues  map[string]*keyQueue
	running sync.WaitGroup
}

type keyQueue struct {
	jobs    []*domain.ChangeEvent
	current *job
}

type job struct {
	ctx    context.Context
	event  *domain.ChangeEvent
	cancel context.CancelCauseFunc
}

func NewScheduler(policy config.SchedulerPolicy, pipeline service.PipelineService, metrics *config.Metrics, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		logger:     logger.With().Str("component", "Scheduler").Logger(),
		pipeline:   pipeline,
		metrics:    metrics,
		workers:    semaphore.NewWeighted(int64(policy.Workers)),
		maxPending: policy.MaxPending,
		queues:     map[string]*keyQueue{},
	}
}

// Reservation is a slot for one event in the scheduler.
// It must be either enqueued or released.
type Reservation struct {
	scheduler *Scheduler
	done      bool
}

// Reserve claims a slot or fails with ErrSaturated.
func (self *Scheduler) Reserve() (*Reservation, error) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.pending >= self.maxPending {
		return nil, ErrSaturated
	}
	self.pending += 1
	self.metrics.PendingJobs.Set(float64(self.pending))

	return &Reservation{scheduler: self}, nil
}

func (self *Reservation) Release() {
	if self.done {
		return
	}
	self.done = true
	self.scheduler.release()
}

func (self *Reservation) Enqueue(event *domain.ChangeEvent) {
	if self.done {
		panic("reservation already used")
	}
	self.done = true
	self.scheduler.enqueue(event)
}

func (self *Scheduler) release() {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	self.pending -= 1
	self.metrics.PendingJobs.Set(float64(self.pending))
}

func (self *Scheduler) enqueue(event *domain.ChangeEvent) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	queue, exists := self.queues[event.SpecRef]
	if !exists {
		queue = &keyQueue{}
		self.queues[event.SpecRef] = queue
	}
	queue.jobs = append(queue.jobs, event)

	if queue.current != nil {
		self.logger.Info().
			Str("spec_ref", event.SpecRef).
			Str("event_id", queue.current.event.EventID).
			Str("superseded_by", event.EventID).
			Msg("Superseding ChangeEvent")
		queue.current.cancel(domain.ErrSuperseded)
	}

	self.logger.Debug().
		Str("spec_ref", event.SpecRef).
		Str("event_id", event.EventID).
		Int("queued", len(queue.jobs)).
		Msg("Enqueued ChangeEvent")

	if self.ctx != nil && !exists {
		self.spawn(event.SpecRef)
	}
}

// spawn must be called with the mutex held.
func (self *Scheduler) spawn(key string) {
	ctx := self.ctx
	if ctx.Err() != nil {
		// queued work is picked up again by the next Start
		return
	}

	self.running.Add(1)
	go func() {
		defer self.running.Done()
		self.drain(ctx, key)
	}()
}

func (self *Scheduler) Start(ctx context.Context) error {
	self.logger.Info().Msg("Starting")

	self.mutex.Lock()
	if self.ctx != nil {
		self.mutex.Unlock()
		return errors.New("Scheduler is already running")
	}
	self.ctx = ctx
	for key := range self.queues {
		self.spawn(key)
	}
	self.mutex.Unlock()

	<-ctx.Done()

	self.logger.Info().Msg("Stopping")
	self.running.Wait()

	self.mutex.Lock()
	self.ctx = nil
	self.mutex.Unlock()

	return nil
}

// drain processes the queue of one key until it is empty.
func (self *Scheduler) drain(ctx context.Context, key string) {
	for {
		if err := self.workers.Acquire(ctx, 1); err != nil {
			return
		}

		current := self.next(ctx, key)
		if current == nil {
			self.workers.Release(1)
			return
		}

		self.process(current)
		self.workers.Release(1)

		if self.finish(key) {
			return
		}
	}
}

func (self *Scheduler) next(ctx context.Context, key string) *job {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	queue := self.queues[key]
	if len(queue.jobs) == 0 {
		delete(self.queues, key)
		return nil
	}

	jobCtx, cancel := context.WithCancelCause(ctx)
	queue.current = &job{ctx: jobCtx, event: queue.jobs[0], cancel: cancel}
	queue.jobs = queue.jobs[1:]

	return queue.current
}

func (self *Scheduler) process(current *job) {
	logger := self.logger.With().
		Str("spec_ref", current.event.SpecRef).
		Str("event_id", current.event.EventID).
		Logger()

	logger.Debug().Msg("Processing ChangeEvent")

	if err := self.pipeline.Process(current.ctx, current.event); err != nil {
		if errors.Is(context.Cause(current.ctx), domain.ErrSuperseded) {
			logger.Debug().Msg("Discarded superseded ChangeEvent")
		} else {
			logger.Err(err).Msg("Could not process ChangeEvent")
		}
	}
}

// finish reports whether the key has no more work.
func (self *Scheduler) finish(key string) bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	queue := self.queues[key]
	queue.current.cancel(nil)
	queue.current = nil

	self.pending -= 1
	self.metrics.PendingJobs.Set(float64(self.pending))

	if len(queue.jobs) == 0 {
		delete(self.queues, key)
		return true
	}
	return false
}
