package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/input-output-hk/quaestor/src/domain"
)

type specificationRepository struct{ *state }

func (self *specificationRepository) Save(_ context.Context, spec *domain.Specification) (bool, error) {
	self.Lock()
	defer self.Unlock()

	revision := 0
	for _, existing := range self.specifications {
		if existing.SpecRef != spec.SpecRef {
			continue
		}
		if existing.ContentHash == spec.ContentHash {
			*spec = existing
			return false, nil
		}
		if existing.Revision > revision {
			revision = existing.Revision
		}
	}

	ensureID(&spec.ID)
	spec.Revision = revision + 1
	if spec.CreatedAt.IsZero() {
		spec.CreatedAt = time.Now().UTC()
	}
	self.specifications[spec.ID] = *spec
	return true, nil
}

func (self *specificationRepository) GetById(_ context.Context, id uuid.UUID) (*domain.Specification, error) {
	self.RLock()
	defer self.RUnlock()

	spec, exists := self.specifications[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return &spec, nil
}

func (self *specificationRepository) GetByKey(_ context.Context, key domain.EventKey) (*domain.Specification, error) {
	self.RLock()
	defer self.RUnlock()

	for _, spec := range self.specifications {
		if spec.SpecRef == key.SpecRef && spec.ContentHash == key.ContentHash {
			return &spec, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (self *specificationRepository) GetByRevision(_ context.Context, specRef string, revision int) (*domain.Specification, error) {
	self.RLock()
	defer self.RUnlock()

	for _, spec := range self.specifications {
		if spec.SpecRef == specRef && spec.Revision == revision {
			return &spec, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (self *specificationRepository) GetLatest(_ context.Context, specRef string) (*domain.Specification, error) {
	self.RLock()
	defer self.RUnlock()

	var latest *domain.Specification
	for _, spec := range self.specifications {
		spec := spec
		if spec.SpecRef != specRef || spec.Retired {
			continue
		}
		if latest == nil || spec.Revision > latest.Revision {
			latest = &spec
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (self *specificationRepository) Retire(_ context.Context, specRef string) error {
	self.Lock()
	defer self.Unlock()

	for id, spec := range self.specifications {
		if spec.SpecRef == specRef {
			spec.Retired = true
			self.specifications[id] = spec
		}
	}
	return nil
}
