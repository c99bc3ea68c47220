package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/input-output-hk/quaestor/src/domain"
)

type SpecificationRepository interface {
	// Save assigns the next revision of the spec_ref and stores the specification
	// unless one with the same content hash exists, in which case that one is loaded into it.
	// It reports whether a new revision was created.
	Save(context.Context, *domain.Specification) (bool, error)
	GetById(context.Context, uuid.UUID) (*domain.Specification, error)
	GetByKey(context.Context, domain.EventKey) (*domain.Specification, error)
	GetByRevision(ctx context.Context, specRef string, revision int) (*domain.Specification, error)
	// GetLatest returns the highest revision that is not retired.
	GetLatest(context.Context, string) (*domain.Specification, error)
	Retire(context.Context, string) error
}
