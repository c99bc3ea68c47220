package repository

import (
	"context"

	"github.com/input-output-hk/quaestor/src/domain"
)

type DeadLetterRepository interface {
	Save(context.Context, *domain.DeadLetter) error
	GetPage(context.Context, *Page) ([]*domain.DeadLetter, error)
}

type PipelineWarningRepository interface {
	Save(context.Context, *domain.PipelineWarning) error
	// GetPage lists warnings, optionally restricted to one spec_ref.
	GetPage(ctx context.Context, page *Page, specRef string) ([]*domain.PipelineWarning, error)
}
