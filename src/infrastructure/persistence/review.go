package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

type reviewItemRepository struct {
	db config.PgxIface
}

func NewReviewItemRepository(db config.PgxIface) repository.ReviewItemRepository {
	return &reviewItemRepository{db}
}

type reviewItemRow struct {
	ID               uuid.UUID `db:"id"`
	ArtifactID       uuid.UUID `db:"artifact_id"`
	SpecRef          string    `db:"spec_ref"`
	OperationID      string    `db:"operation_id"`
	Framework        string    `db:"framework"`
	State            string    `db:"state"`
	Version          int       `db:"version"`
	Priority         string    `db:"priority"`
	Feedback         []byte    `db:"feedback"`
	Reviewer         string    `db:"reviewer"`
	CommittedVersion *int      `db:"committed_version"`
	CommitRef        string    `db:"commit_ref"`
	EscalationReason string    `db:"escalation_reason"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (self reviewItemRow) toDomain() (*domain.ReviewItem, error) {
	item := &domain.ReviewItem{
		ID:         self.ID,
		ArtifactID: self.ArtifactID,
		Lineage: domain.Lineage{
			SpecRef:     self.SpecRef,
			OperationID: self.OperationID,
			Framework:   self.Framework,
		},
		State:            domain.ReviewState(self.State),
		Version:          self.Version,
		Priority:         domain.Priority(self.Priority),
		Reviewer:         self.Reviewer,
		CommittedVersion: self.CommittedVersion,
		CommitRef:        self.CommitRef,
		EscalationReason: self.EscalationReason,
		CreatedAt:        self.CreatedAt,
		UpdatedAt:        self.UpdatedAt,
	}
	if len(self.Feedback) > 0 {
		if err := json.Unmarshal(self.Feedback, &item.Feedback); err != nil {
			return nil, errors.WithMessage(err, "Could not decode review feedback")
		}
	}
	return item, nil
}

func rowsToReviewItems(rows []reviewItemRow) ([]*domain.ReviewItem, error) {
	items := make([]*domain.ReviewItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (self *reviewItemRepository) get(ctx context.Context, sql string, args ...any) (*domain.ReviewItem, error) {
	var row reviewItemRow
	if err := pgxscan.Get(ctx, self.db, &row, sql, args...); err != nil {
		return nil, notFound(err)
	}
	return row.toDomain()
}

func feedbackJson(item *domain.ReviewItem) ([]byte, error) {
	if item.Feedback == nil {
		return []byte(`[]`), nil
	}
	return json.Marshal(item.Feedback)
}

func (self *reviewItemRepository) Insert(ctx context.Context, item *domain.ReviewItem) error {
	if item.ID == (uuid.UUID{}) {
		item.ID = uuid.New()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	feedback, err := feedbackJson(item)
	if err != nil {
		return err
	}

	_, err = self.db.Exec(ctx, `
		INSERT INTO review_item (id, artifact_id, spec_ref, operation_id, framework, state, version, priority, feedback, reviewer, committed_version, commit_ref, escalation_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		item.ID, item.ArtifactID, item.Lineage.SpecRef, item.Lineage.OperationID, item.Lineage.Framework,
		string(item.State), item.Version, string(item.Priority), feedback, item.Reviewer,
		item.CommittedVersion, item.CommitRef, item.EscalationReason, item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (self *reviewItemRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.ReviewItem, error) {
	return self.get(ctx, `SELECT * FROM review_item WHERE id = $1`, id)
}

func (self *reviewItemRepository) GetActiveByLineage(ctx context.Context, lineage domain.Lineage) (*domain.ReviewItem, error) {
	return self.get(
		ctx,
		`SELECT * FROM review_item
		WHERE spec_ref = $1 AND operation_id = $2 AND framework = $3 AND state IN ('pending', 'rejected')`,
		lineage.SpecRef, lineage.OperationID, lineage.Framework,
	)
}

func (self *reviewItemRepository) GetByArtifactId(ctx context.Context, id uuid.UUID) (*domain.ReviewItem, error) {
	return self.get(ctx, `SELECT * FROM review_item WHERE artifact_id = $1`, id)
}

func (self *reviewItemRepository) GetPage(ctx context.Context, page *repository.Page, state domain.ReviewState) ([]*domain.ReviewItem, error) {
	rows := make([]reviewItemRow, 0, page.Limit)
	var err error
	if state == "" {
		err = fetchPage(ctx, self.db, page, &rows, `*`, `review_item`, `priority ASC, created_at DESC`)
	} else {
		err = fetchPage(ctx, self.db, page, &rows, `*`, `review_item WHERE state = $1`, `priority ASC, created_at DESC`, string(state))
	}
	if err != nil {
		return nil, err
	}
	return rowsToReviewItems(rows)
}

func (self *reviewItemRepository) CompareAndSwap(ctx context.Context, item *domain.ReviewItem, version int, state domain.ReviewState) (bool, error) {
	feedback, err := feedbackJson(item)
	if err != nil {
		return false, err
	}
	item.UpdatedAt = time.Now().UTC()

	tag, err := self.db.Exec(ctx, `
		UPDATE review_item SET
			artifact_id = $4, state = $5, version = $6, priority = $7, feedback = $8, reviewer = $9,
			committed_version = $10, commit_ref = $11, escalation_reason = $12, updated_at = $13
		WHERE id = $1 AND version = $2 AND state = $3`,
		item.ID, version, string(state),
		item.ArtifactID, string(item.State), item.Version, string(item.Priority), feedback, item.Reviewer,
		item.CommittedVersion, item.CommitRef, item.EscalationReason, item.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
