package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

type changeEventRepository struct{ *state }

func (self *changeEventRepository) Insert(_ context.Context, event *domain.ChangeEvent) (bool, error) {
	self.Lock()
	defer self.Unlock()

	if _, exists := self.events[event.Key()]; exists {
		return false, nil
	}
	ensureID(&event.ID)
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}
	stored := *event
	stored.Content = nil
	stored.OperationSet = slices.Clone(event.OperationSet)
	self.events[event.Key()] = stored
	return true, nil
}

func (self *changeEventRepository) GetByKey(_ context.Context, key domain.EventKey) (*domain.ChangeEvent, error) {
	self.RLock()
	defer self.RUnlock()

	event, exists := self.events[key]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return &event, nil
}

func (self *changeEventRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.ChangeEventStatus) error {
	self.Lock()
	defer self.Unlock()

	for key, event := range self.events {
		if event.ID == id {
			event.Status = status
			self.events[key] = event
			return nil
		}
	}
	return domain.ErrNotFound
}

func (self *changeEventRepository) GetPage(_ context.Context, p *repository.Page) ([]*domain.ChangeEvent, error) {
	self.RLock()
	events := make([]domain.ChangeEvent, 0, len(self.events))
	for _, event := range self.events {
		events = append(events, event)
	}
	self.RUnlock()

	slices.SortFunc(events, func(a, b domain.ChangeEvent) bool { return a.ReceivedAt.Before(b.ReceivedAt) })
	return page(events, p), nil
}
