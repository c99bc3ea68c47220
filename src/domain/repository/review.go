package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/input-output-hk/quaestor/src/domain"
)

type ReviewItemRepository interface {
	Insert(context.Context, *domain.ReviewItem) error
	GetById(context.Context, uuid.UUID) (*domain.ReviewItem, error)
	GetActiveByLineage(context.Context, domain.Lineage) (*domain.ReviewItem, error)
	GetByArtifactId(context.Context, uuid.UUID) (*domain.ReviewItem, error)
	GetPage(ctx context.Context, page *Page, state domain.ReviewState) ([]*domain.ReviewItem, error)
	// CompareAndSwap writes the item only if the stored one is still at the given version and state.
	// It reports whether the write happened.
	CompareAndSwap(ctx context.Context, item *domain.ReviewItem, version int, state domain.ReviewState) (bool, error)
}
