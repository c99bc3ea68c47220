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

type testArtifactRepository struct {
	db config.PgxIface
}

func NewTestArtifactRepository(db config.PgxIface) repository.TestArtifactRepository {
	return &testArtifactRepository{db}
}

type testArtifactRow struct {
	ID              uuid.UUID  `db:"id"`
	SpecRef         string     `db:"spec_ref"`
	OperationID     string     `db:"operation_id"`
	Framework       string     `db:"framework"`
	Version         int        `db:"version"`
	SuiteID         string     `db:"suite_id"`
	SpecificationID uuid.UUID  `db:"specification_id"`
	DataSetID       uuid.UUID  `db:"data_set_id"`
	Content         string     `db:"content"`
	QualityFlags    []string   `db:"quality_flags"`
	Supersedes      *uuid.UUID `db:"supersedes"`
	CreatedAt       time.Time  `db:"created_at"`
}

func (self testArtifactRow) toDomain() *domain.TestArtifact {
	flags := make([]domain.QualityFlag, len(self.QualityFlags))
	for i, flag := range self.QualityFlags {
		flags[i] = domain.QualityFlag(flag)
	}
	return &domain.TestArtifact{
		ID: self.ID,
		Lineage: domain.Lineage{
			SpecRef:     self.SpecRef,
			OperationID: self.OperationID,
			Framework:   self.Framework,
		},
		Version:         self.Version,
		OperationID:     self.OperationID,
		SuiteID:         self.SuiteID,
		Framework:       self.Framework,
		SpecificationID: self.SpecificationID,
		DataSetID:       self.DataSetID,
		Content:         self.Content,
		QualityFlags:    flags,
		Supersedes:      self.Supersedes,
		CreatedAt:       self.CreatedAt,
	}
}

func (self *testArtifactRepository) get(ctx context.Context, sql string, args ...any) (*domain.TestArtifact, error) {
	var row testArtifactRow
	if err := pgxscan.Get(ctx, self.db, &row, sql, args...); err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

func (self *testArtifactRepository) Save(ctx context.Context, artifact *domain.TestArtifact) (bool, error) {
	if artifact.ID == (uuid.UUID{}) {
		artifact.ID = uuid.New()
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}
	flags := make([]string, len(artifact.QualityFlags))
	for i, flag := range artifact.QualityFlags {
		flags[i] = string(flag)
	}

	tag, err := self.db.Exec(ctx, `
		INSERT INTO test_artifact (id, spec_ref, operation_id, framework, version, suite_id, specification_id, data_set_id, content, quality_flags, supersedes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (data_set_id, framework) DO NOTHING`,
		artifact.ID, artifact.Lineage.SpecRef, artifact.OperationID, artifact.Framework, artifact.Version,
		artifact.SuiteID, artifact.SpecificationID, artifact.DataSetID, artifact.Content, flags,
		artifact.Supersedes, artifact.CreatedAt,
	)
	if err != nil {
		return false, err
	} else if tag.RowsAffected() == 1 {
		return true, nil
	}

	existing, err := self.GetByDataSet(ctx, artifact.DataSetID, artifact.Framework)
	if err != nil {
		return false, err
	}
	*artifact = *existing
	return false, nil
}

func (self *testArtifactRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.TestArtifact, error) {
	return self.get(ctx, `SELECT * FROM test_artifact WHERE id = $1`, id)
}

func (self *testArtifactRepository) GetByDataSet(ctx context.Context, dataSetId uuid.UUID, framework string) (*domain.TestArtifact, error) {
	return self.get(
		ctx,
		`SELECT * FROM test_artifact WHERE data_set_id = $1 AND framework = $2`,
		dataSetId, framework,
	)
}

func (self *testArtifactRepository) LatestVersion(ctx context.Context, lineage domain.Lineage) (version int, err error) {
	err = self.db.QueryRow(
		ctx,
		`SELECT COALESCE(max(version), 0) FROM test_artifact WHERE spec_ref = $1 AND operation_id = $2 AND framework = $3`,
		lineage.SpecRef, lineage.OperationID, lineage.Framework,
	).Scan(&version)
	return
}
