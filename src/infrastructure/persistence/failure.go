package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

type deadLetterRepository struct {
	db config.PgxIface
}

func NewDeadLetterRepository(db config.PgxIface) repository.DeadLetterRepository {
	return &deadLetterRepository{db}
}

func (self *deadLetterRepository) Save(ctx context.Context, letter *domain.DeadLetter) error {
	if letter.ID == (uuid.UUID{}) {
		letter.ID = uuid.New()
	}
	if letter.CreatedAt.IsZero() {
		letter.CreatedAt = time.Now().UTC()
	}
	_, err := self.db.Exec(ctx, `
		INSERT INTO dead_letter (id, event_id, spec_ref, content_hash, stage, attempts, retryable, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		letter.ID, letter.EventID, letter.SpecRef, letter.ContentHash, string(letter.Stage),
		letter.Attempts, letter.Retryable, letter.Reason, letter.CreatedAt,
	)
	return err
}

func (self *deadLetterRepository) GetPage(ctx context.Context, page *repository.Page) ([]*domain.DeadLetter, error) {
	letters := make([]*domain.DeadLetter, 0, page.Limit)
	return letters, fetchPage(ctx, self.db, page, &letters, `*`, `dead_letter`, `created_at DESC`)
}

type pipelineWarningRepository struct {
	db config.PgxIface
}

func NewPipelineWarningRepository(db config.PgxIface) repository.PipelineWarningRepository {
	return &pipelineWarningRepository{db}
}

func (self *pipelineWarningRepository) Save(ctx context.Context, warning *domain.PipelineWarning) error {
	if warning.ID == (uuid.UUID{}) {
		warning.ID = uuid.New()
	}
	if warning.CreatedAt.IsZero() {
		warning.CreatedAt = time.Now().UTC()
	}
	_, err := self.db.Exec(ctx, `
		INSERT INTO pipeline_warning (id, spec_ref, event_id, operation_id, kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		warning.ID, warning.SpecRef, warning.EventID, warning.OperationID,
		string(warning.Kind), warning.Message, warning.CreatedAt,
	)
	return err
}

func (self *pipelineWarningRepository) GetPage(ctx context.Context, page *repository.Page, specRef string) ([]*domain.PipelineWarning, error) {
	warnings := make([]*domain.PipelineWarning, 0, page.Limit)
	if specRef == "" {
		return warnings, fetchPage(ctx, self.db, page, &warnings, `*`, `pipeline_warning`, `created_at DESC`)
	}
	return warnings, fetchPage(ctx, self.db, page, &warnings, `*`, `pipeline_warning WHERE spec_ref = $1`, `created_at DESC`, specRef)
}
