package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

type specificationRepository struct {
	db config.PgxIface
}

func NewSpecificationRepository(db config.PgxIface) repository.SpecificationRepository {
	return &specificationRepository{db}
}

type specificationRow struct {
	ID          uuid.UUID `db:"id"`
	SpecRef     string    `db:"spec_ref"`
	Revision    int       `db:"revision"`
	ContentHash string    `db:"content_hash"`
	Title       string    `db:"title"`
	Graph       []byte    `db:"graph"`
	Operations  []byte    `db:"operations"`
	Quality     float64   `db:"quality"`
	LowQuality  bool      `db:"low_quality"`
	Retired     bool      `db:"retired"`
	CreatedAt   time.Time `db:"created_at"`
}

func (self specificationRow) toDomain() (*domain.Specification, error) {
	spec := &domain.Specification{
		ID:          self.ID,
		SpecRef:     self.SpecRef,
		Revision:    self.Revision,
		ContentHash: self.ContentHash,
		Title:       self.Title,
		Quality:     self.Quality,
		LowQuality:  self.LowQuality,
		Retired:     self.Retired,
		CreatedAt:   self.CreatedAt,
	}
	if err := json.Unmarshal(self.Graph, &spec.Graph); err != nil {
		return nil, errors.WithMessage(err, "Could not decode schema graph")
	}
	if err := json.Unmarshal(self.Operations, &spec.Operations); err != nil {
		return nil, errors.WithMessage(err, "Could not decode operations")
	}
	return spec, nil
}

func (self *specificationRepository) get(ctx context.Context, db pgxscan.Querier, sql string, args ...any) (*domain.Specification, error) {
	var row specificationRow
	if err := pgxscan.Get(ctx, db, &row, sql, args...); err != nil {
		return nil, notFound(err)
	}
	return row.toDomain()
}

func (self *specificationRepository) Save(ctx context.Context, spec *domain.Specification) (created bool, err error) {
	graph, err := json.Marshal(spec.Graph)
	if err != nil {
		return false, err
	}
	operations, err := json.Marshal(spec.Operations)
	if err != nil {
		return false, err
	}

	err = pgx.BeginFunc(ctx, self.db, func(tx pgx.Tx) error {
		if existing, err := self.get(
			ctx, tx,
			`SELECT * FROM specification WHERE spec_ref = $1 AND content_hash = $2`,
			spec.SpecRef, spec.ContentHash,
		); err == nil {
			*spec = *existing
			return nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if err := tx.QueryRow(
			ctx,
			`SELECT COALESCE(max(revision), 0) + 1 FROM specification WHERE spec_ref = $1`,
			spec.SpecRef,
		).Scan(&spec.Revision); err != nil {
			return err
		}

		if spec.ID == (uuid.UUID{}) {
			spec.ID = uuid.New()
		}
		if spec.CreatedAt.IsZero() {
			spec.CreatedAt = time.Now().UTC()
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO specification (id, spec_ref, revision, content_hash, title, graph, operations, quality, low_quality, retired, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			spec.ID, spec.SpecRef, spec.Revision, spec.ContentHash, spec.Title, graph, operations,
			spec.Quality, spec.LowQuality, spec.Retired, spec.CreatedAt,
		); err != nil {
			return err
		}

		created = true
		return nil
	})
	return
}

func (self *specificationRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Specification, error) {
	return self.get(ctx, self.db, `SELECT * FROM specification WHERE id = $1`, id)
}

func (self *specificationRepository) GetByKey(ctx context.Context, key domain.EventKey) (*domain.Specification, error) {
	return self.get(
		ctx, self.db,
		`SELECT * FROM specification WHERE spec_ref = $1 AND content_hash = $2`,
		key.SpecRef, key.ContentHash,
	)
}

func (self *specificationRepository) GetByRevision(ctx context.Context, specRef string, revision int) (*domain.Specification, error) {
	return self.get(
		ctx, self.db,
		`SELECT * FROM specification WHERE spec_ref = $1 AND revision = $2`,
		specRef, revision,
	)
}

func (self *specificationRepository) GetLatest(ctx context.Context, specRef string) (*domain.Specification, error) {
	return self.get(
		ctx, self.db,
		`SELECT * FROM specification WHERE spec_ref = $1 AND NOT retired ORDER BY revision DESC LIMIT 1`,
		specRef,
	)
}

func (self *specificationRepository) Retire(ctx context.Context, specRef string) error {
	_, err := self.db.Exec(ctx, `UPDATE specification SET retired = true WHERE spec_ref = $1`, specRef)
	return err
}
