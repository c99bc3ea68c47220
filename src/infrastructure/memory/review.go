package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

type reviewItemRepository struct{ *state }

func cloneItem(item domain.ReviewItem) domain.ReviewItem {
	item.Feedback = slices.Clone(item.Feedback)
	if item.CommittedVersion != nil {
		v := *item.CommittedVersion
		item.CommittedVersion = &v
	}
	return item
}

func (self *reviewItemRepository) Insert(_ context.Context, item *domain.ReviewItem) error {
	self.Lock()
	defer self.Unlock()

	if item.State.Active() {
		for _, existing := range self.reviewItems {
			if existing.Lineage == item.Lineage && existing.State.Active() {
				return errors.Errorf("An active review item already exists for lineage %s", item.Lineage)
			}
		}
	}

	ensureID(&item.ID)
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	self.reviewItems[item.ID] = cloneItem(*item)
	return nil
}

func (self *reviewItemRepository) GetById(_ context.Context, id uuid.UUID) (*domain.ReviewItem, error) {
	self.RLock()
	defer self.RUnlock()

	item, exists := self.reviewItems[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	item = cloneItem(item)
	return &item, nil
}

func (self *reviewItemRepository) GetActiveByLineage(_ context.Context, lineage domain.Lineage) (*domain.ReviewItem, error) {
	self.RLock()
	defer self.RUnlock()

	for _, item := range self.reviewItems {
		if item.Lineage == lineage && item.State.Active() {
			item = cloneItem(item)
			return &item, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (self *reviewItemRepository) GetByArtifactId(_ context.Context, id uuid.UUID) (*domain.ReviewItem, error) {
	self.RLock()
	defer self.RUnlock()

	for _, item := range self.reviewItems {
		if item.ArtifactID == id {
			item = cloneItem(item)
			return &item, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (self *reviewItemRepository) GetPage(_ context.Context, p *repository.Page, state domain.ReviewState) ([]*domain.ReviewItem, error) {
	self.RLock()
	items := make([]domain.ReviewItem, 0, len(self.reviewItems))
	for _, item := range self.reviewItems {
		if state == "" || item.State == state {
			items = append(items, cloneItem(item))
		}
	}
	self.RUnlock()

	// page() reverses, so sort oldest and lowest priority first.
	slices.SortFunc(items, func(a, b domain.ReviewItem) bool {
		if a.Priority != b.Priority {
			return a.Priority == domain.PriorityNormal
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return page(items, p), nil
}

func (self *reviewItemRepository) CompareAndSwap(_ context.Context, item *domain.ReviewItem, version int, state domain.ReviewState) (bool, error) {
	self.Lock()
	defer self.Unlock()

	current, exists := self.reviewItems[item.ID]
	if !exists {
		return false, domain.ErrNotFound
	}
	if current.Version != version || current.State != state {
		return false, nil
	}

	item.UpdatedAt = time.Now().UTC()
	self.reviewItems[item.ID] = cloneItem(*item)
	return true, nil
}
