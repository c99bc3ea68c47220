package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"

	"github.com/input-output-hk/quaestor/src/config/mocks"
	"github.com/input-output-hk/quaestor/src/domain"
)

func TestShouldCompareAndSwapReviewItem(t *testing.T) {
	t.Parallel()

	item := domain.ReviewItem{
		ID:         uuid.New(),
		ArtifactID: uuid.New(),
		State:      domain.ReviewApproved,
		Version:    2,
		Priority:   domain.PriorityNormal,
	}

	tries := map[string]struct {
		affected int64
		swapped  bool
	}{
		"current version": {1, true},
		"stale version":   {0, false},
	}

	for name, try := range tries {
		try := try
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// given
			db := mocks.BuildConn(t)
			db.ExpectExec("UPDATE review_item").
				WithArgs(item.ID, 2, "pending", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
					pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
				WillReturnResult(pgxmock.NewResult("UPDATE", try.affected))
			repo := NewReviewItemRepository(db)
			copied := item

			// when
			swapped, err := repo.CompareAndSwap(context.Background(), &copied, 2, domain.ReviewPending)

			// then
			assert.NoError(t, err)
			assert.Equal(t, try.swapped, swapped)
		})
	}
}

func TestShouldMapMissingReviewItemToNotFound(t *testing.T) {
	t.Parallel()

	// given
	db := mocks.BuildConn(t)
	db.ExpectQuery("SELECT (.+) FROM review_item").WillReturnRows(db.NewRows([]string{"id"}))
	repo := NewReviewItemRepository(db)

	// when
	_, err := repo.GetById(context.Background(), uuid.New())

	// then
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
