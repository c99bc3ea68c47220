package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/input-output-hk/quaestor/src/domain"
)

type ChangeEventRepository interface {
	// Insert records the event unless one with the same key exists.
	// It reports whether the event was new.
	Insert(context.Context, *domain.ChangeEvent) (bool, error)
	GetByKey(context.Context, domain.EventKey) (*domain.ChangeEvent, error)
	UpdateStatus(context.Context, uuid.UUID, domain.ChangeEventStatus) error
	GetPage(context.Context, *Page) ([]*domain.ChangeEvent, error)
}
