package service_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

func flaky(failures int32) (*flakyDataSets, option) {
	repo := &flakyDataSets{}
	repo.failures.Store(failures)
	return repo, withStore(func(store repository.Store) repository.Store {
		repo.TestDataSetRepository = store.DataSets
		store.DataSets = repo
		return store
	})
}

func TestProcessEvent(t *testing.T) {
	t.Parallel()

	// given
	h := newHarness(t)
	event := h.accept(t, "users-api", usersSpec)

	// when
	err := h.pipeline.Process(context.Background(), event)

	// then
	require.NoError(t, err)

	stored, err := h.store.Events.GetByKey(context.Background(), event.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.ChangeEventProcessed, stored.Status)

	spec, err := h.specs.GetLatest(context.Background(), "users-api")
	require.NoError(t, err)
	assert.Equal(t, 1, spec.Revision)
	assert.Len(t, spec.Operations, 2)

	items, err := h.review.GetPage(context.Background(), repository.NewPage(0, 0), domain.ReviewPending)
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, 4.0, testutil.ToFloat64(h.metrics.ArtifactsRender))

	data, err := h.store.DataSets.Get(context.Background(), spec.ID, "POST /users", 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "example", "email": "user@example.com"}, withoutOptional(data.ValidInstance))
	assert.NotEmpty(t, data.InvalidVariants)
}

// withoutOptional drops the optional "age" property the seed may pick.
func withoutOptional(instance any) map[string]any {
	out := map[string]any{}
	for k, v := range instance.(map[string]any) {
		if k != "age" {
			out[k] = v
		}
	}
	return out
}

func TestProcessIsIdempotent(t *testing.T) {
	t.Parallel()

	// given
	h := newHarness(t)
	event := h.accept(t, "users-api", usersSpec)
	require.NoError(t, h.pipeline.Process(context.Background(), event))
	before := h.active(t, "POST /users", "pytest")

	// when
	err := h.pipeline.Process(context.Background(), event)

	// then
	require.NoError(t, err)
	after := h.active(t, "POST /users", "pytest")
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.ArtifactID, after.ArtifactID)
	assert.Equal(t, 4.0, testutil.ToFloat64(h.metrics.ArtifactsRender))

	spec, err := h.specs.GetLatest(context.Background(), "users-api")
	require.NoError(t, err)
	assert.Equal(t, 1, spec.Revision)
}

func TestMalformedSpecIsDeadLettered(t *testing.T) {
	t.Parallel()

	// given
	h := newHarness(t)
	event := h.accept(t, "users-api", `{"openapi": "3.0.3", "paths": `)

	// when
	err := h.pipeline.Process(context.Background(), event)

	// then
	assert.True(t, domain.IsMalformed(err))

	letters, err := h.failures.GetDeadLetters(context.Background(), repository.NewPage(0, 0))
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, domain.StageNormalize, letters[0].Stage)
	assert.Equal(t, 1, letters[0].Attempts)
	assert.False(t, letters[0].Retryable)
	assert.Equal(t, event.EventID, letters[0].EventID)

	stored, err := h.store.Events.GetByKey(context.Background(), event.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.ChangeEventDeadLetter, stored.Status)

	h.alerts.AssertCalled(t, "Send", mock.Anything, mock.MatchedBy(func(alert domain.Alert) bool {
		return alert.Subject == "dead_letter" && alert.EventID == event.EventID
	}))
}

func TestTransientSynthesisFailureIsRetried(t *testing.T) {
	t.Parallel()

	// given
	repo, option := flaky(2)
	h := newHarness(t, option)
	event := h.accept(t, "users-api", usersSpec)

	// when
	err := h.pipeline.Process(context.Background(), event)

	// then
	require.NoError(t, err)
	assert.Equal(t, int32(4), repo.calls.Load(), "three attempts for the first operation, one for the second")
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.StageAttempts.WithLabelValues("synthesize", "retry")))

	letters, err := h.failures.GetDeadLetters(context.Background(), repository.NewPage(0, 0))
	require.NoError(t, err)
	assert.Empty(t, letters)

	spec, err := h.specs.GetLatest(context.Background(), "users-api")
	require.NoError(t, err)
	for _, op := range spec.Operations {
		_, err := h.store.DataSets.Get(context.Background(), spec.ID, op.ID, 0)
		assert.NoError(t, err, op.ID)
	}
}

func TestExhaustedRetriesAreDeadLettered(t *testing.T) {
	t.Parallel()

	// given
	_, option := flaky(100)
	h := newHarness(t, option)
	event := h.accept(t, "users-api", usersSpec)

	// when
	err := h.pipeline.Process(context.Background(), event)

	// then
	require.Error(t, err)

	letters, err := h.failures.GetDeadLetters(context.Background(), repository.NewPage(0, 0))
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, domain.StageSynthesize, letters[0].Stage)
	assert.Equal(t, 3, letters[0].Attempts)
	assert.True(t, letters[0].Retryable)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.DeadLetters.WithLabelValues("synthesize")))
}

func TestNewRevisionReusesUnchangedOperations(t *testing.T) {
	t.Parallel()

	// given
	h := newHarness(t)
	require.NoError(t, h.pipeline.Process(context.Background(), h.accept(t, "users-api", usersSpec)))
	health := h.active(t, "GET /health", "pytest")
	users := h.active(t, "POST /users", "pytest")

	// when
	err := h.pipeline.Process(context.Background(), h.accept(t, "users-api", usersSpecV2))

	// then
	require.NoError(t, err)

	assert.Equal(t, health.ArtifactID, h.active(t, "GET /health", "pytest").ArtifactID)
	assert.Equal(t, 1, h.active(t, "GET /health", "pytest").Version)

	next := h.active(t, "POST /users", "pytest")
	assert.Equal(t, users.ID, next.ID)
	assert.Equal(t, 2, next.Version)
	artifact, err := h.store.Artifacts.GetById(context.Background(), next.ArtifactID)
	require.NoError(t, err)
	assert.Equal(t, 2, artifact.Version)
	assert.Equal(t, &users.ArtifactID, artifact.Supersedes)

	warnings, err := h.failures.GetWarnings(context.Background(), repository.NewPage(0, 0), "users-api")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarningDrift, warnings[0].Kind)
	assert.Equal(t, "POST /users", warnings[0].OperationID)

	spec, err := h.specs.GetLatest(context.Background(), "users-api")
	require.NoError(t, err)
	assert.Equal(t, 2, spec.Revision)
	op, _ := spec.Operation("POST /users")
	assert.True(t, op.Stale)
}

func TestDeletedEventRetiresSpecification(t *testing.T) {
	t.Parallel()

	// given
	h := newHarness(t)
	require.NoError(t, h.pipeline.Process(context.Background(), h.accept(t, "users-api", usersSpec)))
	deleted := h.accept(t, "users-api", "")
	deleted.Type = domain.ChangeEventDeleted

	// when
	err := h.pipeline.Process(context.Background(), deleted)

	// then
	require.NoError(t, err)
	_, err = h.specs.GetLatest(context.Background(), "users-api")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOperationSetFilter(t *testing.T) {
	t.Parallel()

	// given
	h := newHarness(t)
	event := h.accept(t, "users-api", usersSpec)
	event.OperationSet = []string{"createUser"}

	// when
	err := h.pipeline.Process(context.Background(), event)

	// then
	require.NoError(t, err)
	items, err := h.review.GetPage(context.Background(), repository.NewPage(0, 0), domain.ReviewPending)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, "POST /users", item.Lineage.OperationID)
	}
}

func TestSupersededEventIsNotDeadLettered(t *testing.T) {
	t.Parallel()

	// given
	h := newHarness(t)
	event := h.accept(t, "users-api", usersSpec)
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(domain.ErrSuperseded)

	// when
	err := h.pipeline.Process(ctx, event)

	// then
	assert.ErrorIs(t, err, context.Canceled)

	letters, err := h.failures.GetDeadLetters(context.Background(), repository.NewPage(0, 0))
	require.NoError(t, err)
	assert.Empty(t, letters)

	stored, err := h.store.Events.GetByKey(context.Background(), event.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.ChangeEventSuperseded, stored.Status)
}

func TestInterruptedEventStaysAccepted(t *testing.T) {
	t.Parallel()

	// given
	h := newHarness(t)
	event := h.accept(t, "users-api", usersSpec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// when
	err := h.pipeline.Process(ctx, event)

	// then
	assert.ErrorIs(t, err, context.Canceled)

	letters, err := h.failures.GetDeadLetters(context.Background(), repository.NewPage(0, 0))
	require.NoError(t, err)
	assert.Empty(t, letters)

	stored, err := h.store.Events.GetByKey(context.Background(), event.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.ChangeEventAccepted, stored.Status)
}
