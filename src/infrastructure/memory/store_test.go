package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

func TestChangeEventInsertIsIdempotent(t *testing.T) {
	t.Parallel()

	// given
	ctx := context.Background()
	store := NewStore()
	event := domain.ChangeEvent{SpecRef: "users-api", ContentHash: "sha256-a", Content: []byte("{}")}

	// when
	first, err1 := store.Events.Insert(ctx, &event)
	duplicate := event
	duplicate.ID = [16]byte{}
	second, err2 := store.Events.Insert(ctx, &duplicate)

	// then
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.True(t, first)
	assert.False(t, second)

	stored, err := store.Events.GetByKey(ctx, event.Key())
	require.NoError(t, err)
	assert.Nil(t, stored.Content)
}

func TestSpecificationRevisions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()

	first := domain.Specification{SpecRef: "users-api", ContentHash: "a"}
	created, err := store.Specifications.Save(ctx, &first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, first.Revision)

	second := domain.Specification{SpecRef: "users-api", ContentHash: "b"}
	_, err = store.Specifications.Save(ctx, &second)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Revision)

	again := domain.Specification{SpecRef: "users-api", ContentHash: "a"}
	created, err = store.Specifications.Save(ctx, &again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	latest, err := store.Specifications.GetLatest(ctx, "users-api")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	require.NoError(t, store.Specifications.Retire(ctx, "users-api"))
	_, err = store.Specifications.GetLatest(ctx, "users-api")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewItemCompareAndSwap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	lineage := domain.Lineage{SpecRef: "users-api", OperationID: "POST /users", Framework: "pytest"}

	item := domain.ReviewItem{Lineage: lineage, State: domain.ReviewPending, Version: 1}
	require.NoError(t, store.ReviewItems.Insert(ctx, &item))
	assert.Error(t, store.ReviewItems.Insert(ctx, &domain.ReviewItem{Lineage: lineage, State: domain.ReviewPending, Version: 1}))

	approved := item
	approved.State = domain.ReviewApproved
	swapped, err := store.ReviewItems.CompareAndSwap(ctx, &approved, 1, domain.ReviewPending)
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = store.ReviewItems.CompareAndSwap(ctx, &approved, 1, domain.ReviewPending)
	require.NoError(t, err)
	assert.False(t, swapped)

	_, err = store.ReviewItems.GetActiveByLineage(ctx, lineage)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWarningPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	for _, ref := range []string{"a", "b", "a"} {
		require.NoError(t, store.Warnings.Save(ctx, &domain.PipelineWarning{SpecRef: ref, Kind: domain.WarningDrift}))
	}

	page := repository.NewPage(1, 0)
	warnings, err := store.Warnings.GetPage(ctx, page, "a")
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
	assert.Equal(t, 2, page.Total)
}
