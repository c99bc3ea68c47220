package service_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/quaestor/src/application/assemble"
	"github.com/input-output-hk/quaestor/src/application/mocks"
	"github.com/input-output-hk/quaestor/src/application/normalize"
	"github.com/input-output-hk/quaestor/src/application/retry"
	"github.com/input-output-hk/quaestor/src/application/service"
	"github.com/input-output-hk/quaestor/src/application/synthesize"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
	"github.com/input-output-hk/quaestor/src/infrastructure/memory"
)

const usersSpec = `{
	"openapi": "3.0.3",
	"info": {"title": "Users", "version": "1"},
	"paths": {
		"/users": {"post": {
			"operationId": "createUser",
			"requestBody": {"content": {"application/json": {"schema": {
				"type": "object",
				"required": ["name", "email"],
				"properties": {
					"name": {"type": "string"},
					"email": {"type": "string", "format": "email"},
					"age": {"type": "integer"}
				}
			}}}},
			"responses": {"201": {"description": "created"}, "400": {"description": "invalid"}}
		}},
		"/health": {"get": {"responses": {"200": {"description": "ok"}}}}
	}
}`

// usersSpecV2 retypes "age", which changes POST /users only.
const usersSpecV2 = `{
	"openapi": "3.0.3",
	"info": {"title": "Users", "version": "2"},
	"paths": {
		"/users": {"post": {
			"operationId": "createUser",
			"requestBody": {"content": {"application/json": {"schema": {
				"type": "object",
				"required": ["name", "email"],
				"properties": {
					"name": {"type": "string"},
					"email": {"type": "string", "format": "email"},
					"age": {"type": "string"}
				}
			}}}},
			"responses": {"201": {"description": "created"}, "400": {"description": "invalid"}}
		}},
		"/health": {"get": {"responses": {"200": {"description": "ok"}}}}
	}
}`

// flakyDataSets fails the first saves with a transient error.
type flakyDataSets struct {
	repository.TestDataSetRepository
	failures atomic.Int32
	calls    atomic.Int32
}

func (self *flakyDataSets) Save(ctx context.Context, data *domain.TestDataSet) (bool, error) {
	self.calls.Add(1)
	if self.failures.Add(-1) >= 0 {
		return false, domain.Transient(context.DeadlineExceeded)
	}
	return self.TestDataSetRepository.Save(ctx, data)
}

type harness struct {
	store        repository.Store
	metrics      *config.Metrics
	templates    service.TemplateService
	failures     service.FailureService
	specs        service.SpecificationService
	generation   service.GenerationService
	review       service.ReviewService
	pipeline     service.PipelineService
	vcs          *mocks.VcsService
	alerts       *mocks.AlertSink
	frameworks   []string
	reviewPolicy config.ReviewPolicy
}

type option func(*harness)

func withStore(wrap func(repository.Store) repository.Store) option {
	return func(self *harness) { self.store = wrap(self.store) }
}

func withReview(policy config.ReviewPolicy) option {
	return func(self *harness) { self.reviewPolicy = policy }
}

func newHarness(t *testing.T, options ...option) *harness {
	t.Helper()

	logger := zerolog.Nop()
	cfg := config.DefaultPipelineConfig()
	cfg.Retry.InitialInterval = time.Millisecond
	cfg.Retry.MaxInterval = 4 * time.Millisecond

	self := &harness{
		store:        memory.NewStore(),
		metrics:      config.NewMetrics(),
		vcs:          mocks.NewVcsService(t),
		alerts:       mocks.NewAlertSink(t),
		frameworks:   []string{"pytest", "jest"},
		reviewPolicy: cfg.Review,
	}
	for _, option := range options {
		option(self)
	}

	runner, err := retry.New(cfg.Retry, cfg.Breaker, self.metrics, &logger)
	require.NoError(t, err)

	self.templates, err = service.NewTemplateService("", &logger)
	require.NoError(t, err)

	self.alerts.On("Send", mock.Anything, mock.Anything).Return(nil).Maybe()

	self.failures = service.NewFailureService(self.store, self.metrics, &logger, self.alerts)
	self.specs = service.NewSpecificationService(normalize.New(cfg.Normalize), self.store, self.failures, &logger)
	self.generation = service.NewGenerationService(
		synthesize.New(cfg.Synthesis),
		assemble.New(self.templates.Registry(), assemble.AuthContext{}),
		self.store, self.failures, self.metrics, &logger,
	)
	self.review = service.NewReviewService(self.reviewPolicy, self.store, self.generation, self.vcs, self.failures, runner, self.metrics, &logger)
	self.pipeline = service.NewPipelineService(self.frameworks, self.store, runner, self.specs, self.generation, self.review, self.failures, &logger)

	return self
}

// accept records a new event the way the webhook does.
func (self *harness) accept(t *testing.T, specRef, content string) *domain.ChangeEvent {
	t.Helper()
	event := &domain.ChangeEvent{
		ID:          uuid.New(),
		EventID:     uuid.NewString(),
		SpecRef:     specRef,
		ContentHash: "sha256-" + uuid.NewString(),
		Type:        domain.ChangeEventUpdated,
		Status:      domain.ChangeEventAccepted,
		ReceivedAt:  time.Now().UTC(),
		Content:     []byte(content),
	}
	created, err := self.store.Events.Insert(context.Background(), event)
	require.NoError(t, err)
	require.True(t, created)
	return event
}

// item processes the users spec and returns the review item of POST /users in pytest.
func (self *harness) item(t *testing.T) *domain.ReviewItem {
	t.Helper()
	require.NoError(t, self.pipeline.Process(context.Background(), self.accept(t, "users-api", usersSpec)))
	return self.active(t, "POST /users", "pytest")
}

func (self *harness) active(t *testing.T, operation, framework string) *domain.ReviewItem {
	t.Helper()
	item, err := self.store.ReviewItems.GetActiveByLineage(context.Background(), domain.Lineage{
		SpecRef:     "users-api",
		OperationID: operation,
		Framework:   framework,
	})
	require.NoError(t, err)
	return item
}

func (self *harness) committed() {
	self.vcs.On("Commit", mock.Anything, mock.Anything, "quaestor/generated-tests").
		Return(service.CommitResult{Branch: "quaestor/generated-tests", Ref: "abc123"}, nil)
}
