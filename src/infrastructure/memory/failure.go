package memory

import (
	"context"
	"time"

	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

type deadLetterRepository struct{ *state }

func (self *deadLetterRepository) Save(_ context.Context, letter *domain.DeadLetter) error {
	self.Lock()
	defer self.Unlock()

	ensureID(&letter.ID)
	if letter.CreatedAt.IsZero() {
		letter.CreatedAt = time.Now().UTC()
	}
	self.deadLetters = append(self.deadLetters, *letter)
	return nil
}

func (self *deadLetterRepository) GetPage(_ context.Context, p *repository.Page) ([]*domain.DeadLetter, error) {
	self.RLock()
	defer self.RUnlock()
	return page(self.deadLetters, p), nil
}

type pipelineWarningRepository struct{ *state }

func (self *pipelineWarningRepository) Save(_ context.Context, warning *domain.PipelineWarning) error {
	self.Lock()
	defer self.Unlock()

	ensureID(&warning.ID)
	if warning.CreatedAt.IsZero() {
		warning.CreatedAt = time.Now().UTC()
	}
	self.warnings = append(self.warnings, *warning)
	return nil
}

func (self *pipelineWarningRepository) GetPage(_ context.Context, p *repository.Page, specRef string) ([]*domain.PipelineWarning, error) {
	self.RLock()
	defer self.RUnlock()

	if specRef == "" {
		return page(self.warnings, p), nil
	}

	filtered := make([]domain.PipelineWarning, 0, len(self.warnings))
	for _, warning := range self.warnings {
		if warning.SpecRef == specRef {
			filtered = append(filtered, warning)
		}
	}
	return page(filtered, p), nil
}
