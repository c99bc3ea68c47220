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

type testDataSetRepository struct {
	db config.PgxIface
}

func NewTestDataSetRepository(db config.PgxIface) repository.TestDataSetRepository {
	return &testDataSetRepository{db}
}

type testDataSetRow struct {
	ID              uuid.UUID `db:"id"`
	SpecificationID uuid.UUID `db:"specification_id"`
	OperationID     string    `db:"operation_id"`
	Fingerprint     string    `db:"fingerprint"`
	Generation      int       `db:"generation"`
	ValidInstance   []byte    `db:"valid_instance"`
	ValidStatus     int       `db:"valid_status"`
	InvalidVariants []byte    `db:"invalid_variants"`
	Warnings        []string  `db:"warnings"`
	Hint            string    `db:"hint"`
	CreatedAt       time.Time `db:"created_at"`
}

func (self testDataSetRow) toDomain() (*domain.TestDataSet, error) {
	data := &domain.TestDataSet{
		ID:              self.ID,
		SpecificationID: self.SpecificationID,
		OperationID:     self.OperationID,
		Fingerprint:     self.Fingerprint,
		Generation:      self.Generation,
		ValidStatus:     self.ValidStatus,
		Warnings:        self.Warnings,
		Hint:            domain.FeedbackCategory(self.Hint),
		CreatedAt:       self.CreatedAt,
	}
	if err := json.Unmarshal(self.ValidInstance, &data.ValidInstance); err != nil {
		return nil, errors.WithMessage(err, "Could not decode valid instance")
	}
	if err := json.Unmarshal(self.InvalidVariants, &data.InvalidVariants); err != nil {
		return nil, errors.WithMessage(err, "Could not decode invalid variants")
	}
	return data, nil
}

func (self *testDataSetRepository) get(ctx context.Context, sql string, args ...any) (*domain.TestDataSet, error) {
	var row testDataSetRow
	if err := pgxscan.Get(ctx, self.db, &row, sql, args...); err != nil {
		return nil, notFound(err)
	}
	return row.toDomain()
}

func (self *testDataSetRepository) Save(ctx context.Context, data *domain.TestDataSet) (bool, error) {
	valid, err := json.Marshal(data.ValidInstance)
	if err != nil {
		return false, err
	}
	variants, err := json.Marshal(data.InvalidVariants)
	if err != nil {
		return false, err
	}
	if data.ID == (uuid.UUID{}) {
		data.ID = uuid.New()
	}
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now().UTC()
	}
	warnings := data.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	tag, err := self.db.Exec(ctx, `
		INSERT INTO test_data_set (id, specification_id, operation_id, fingerprint, generation, valid_instance, valid_status, invalid_variants, warnings, hint, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (specification_id, operation_id, generation) DO NOTHING`,
		data.ID, data.SpecificationID, data.OperationID, data.Fingerprint, data.Generation,
		valid, data.ValidStatus, variants, warnings, string(data.Hint), data.CreatedAt,
	)
	if err != nil {
		return false, err
	} else if tag.RowsAffected() == 1 {
		return true, nil
	}

	existing, err := self.Get(ctx, data.SpecificationID, data.OperationID, data.Generation)
	if err != nil {
		return false, err
	}
	*data = *existing
	return false, nil
}

func (self *testDataSetRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.TestDataSet, error) {
	return self.get(ctx, `SELECT * FROM test_data_set WHERE id = $1`, id)
}

func (self *testDataSetRepository) Get(ctx context.Context, specificationId uuid.UUID, operationId string, generation int) (*domain.TestDataSet, error) {
	return self.get(
		ctx,
		`SELECT * FROM test_data_set WHERE specification_id = $1 AND operation_id = $2 AND generation = $3`,
		specificationId, operationId, generation,
	)
}
