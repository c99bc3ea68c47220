package persistence

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

type changeEventRepository struct {
	db config.PgxIface
}

func NewChangeEventRepository(db config.PgxIface) repository.ChangeEventRepository {
	return &changeEventRepository{db}
}

type changeEventRow struct {
	ID           uuid.UUID `db:"id"`
	EventID      string    `db:"event_id"`
	SpecRef      string    `db:"spec_ref"`
	ContentHash  string    `db:"content_hash"`
	EventType    string    `db:"event_type"`
	OperationSet []string  `db:"operation_set"`
	Signature    string    `db:"signature"`
	Status       string    `db:"status"`
	ReceivedAt   time.Time `db:"received_at"`
}

func (self changeEventRow) toDomain() (*domain.ChangeEvent, error) {
	event := &domain.ChangeEvent{
		ID:           self.ID,
		EventID:      self.EventID,
		SpecRef:      self.SpecRef,
		ContentHash:  self.ContentHash,
		OperationSet: self.OperationSet,
		Signature:    self.Signature,
		Status:       domain.ChangeEventStatus(self.Status),
		ReceivedAt:   self.ReceivedAt,
	}
	return event, event.Type.FromString(self.EventType)
}

func (self *changeEventRepository) Insert(ctx context.Context, event *domain.ChangeEvent) (bool, error) {
	if event.ID == (uuid.UUID{}) {
		event.ID = uuid.New()
	}
	if event.OperationSet == nil {
		event.OperationSet = []string{}
	}

	tag, err := self.db.Exec(ctx, `
		INSERT INTO change_event (id, event_id, spec_ref, content_hash, event_type, operation_set, signature, status, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (spec_ref, content_hash) DO NOTHING`,
		event.ID, event.EventID, event.SpecRef, event.ContentHash, event.Type.String(),
		event.OperationSet, event.Signature, string(event.Status), event.ReceivedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (self *changeEventRepository) GetByKey(ctx context.Context, key domain.EventKey) (*domain.ChangeEvent, error) {
	var row changeEventRow
	if err := pgxscan.Get(
		ctx, self.db, &row,
		`SELECT * FROM change_event WHERE spec_ref = $1 AND content_hash = $2`,
		key.SpecRef, key.ContentHash,
	); err != nil {
		return nil, notFound(err)
	}
	return row.toDomain()
}

func (self *changeEventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ChangeEventStatus) error {
	tag, err := self.db.Exec(ctx, `UPDATE change_event SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	} else if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (self *changeEventRepository) GetPage(ctx context.Context, page *repository.Page) ([]*domain.ChangeEvent, error) {
	rows := make([]changeEventRow, 0, page.Limit)
	if err := fetchPage(ctx, self.db, page, &rows, `*`, `change_event`, `received_at DESC`); err != nil {
		return nil, err
	}

	events := make([]*domain.ChangeEvent, 0, len(rows))
	for _, row := range rows {
		event, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
