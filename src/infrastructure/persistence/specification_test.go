package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"

	"github.com/input-output-hk/quaestor/src/config/mocks"
	"github.com/input-output-hk/quaestor/src/domain"
)

var specificationColumns = []string{"id", "spec_ref", "revision", "content_hash", "title", "graph", "operations", "quality", "low_quality", "retired", "created_at"}

func TestShouldSaveNextRevision(t *testing.T) {
	t.Parallel()

	spec := domain.Specification{
		SpecRef:     "users-api",
		ContentHash: "sha256-new",
		Title:       "Users",
		Operations:  []domain.Operation{{ID: "POST /users", RequestSchema: domain.NoNode}},
	}

	// given
	db := mocks.BuildTransaction(t)
	db.ExpectQuery("SELECT (.+) FROM specification WHERE spec_ref = (.+) AND content_hash").
		WithArgs(spec.SpecRef, spec.ContentHash).
		WillReturnRows(db.NewRows(specificationColumns))
	db.ExpectQuery("SELECT COALESCE").WithArgs(spec.SpecRef).WillReturnRows(db.NewRows([]string{"revision"}).AddRow(3))
	db.ExpectExec("INSERT INTO specification").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	db.ExpectCommit()
	repo := NewSpecificationRepository(db)

	// when
	created, err := repo.Save(context.Background(), &spec)

	// then
	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 3, spec.Revision)
	assert.NotEqual(t, uuid.UUID{}, spec.ID)
	assert.NoError(t, db.ExpectationsWereMet())
}

func TestShouldLoadExistingRevisionOnSave(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	spec := domain.Specification{SpecRef: "users-api", ContentHash: "sha256-old"}

	// given
	db := mocks.BuildTransaction(t)
	db.ExpectQuery("SELECT (.+) FROM specification").
		WithArgs(spec.SpecRef, spec.ContentHash).
		WillReturnRows(db.NewRows(specificationColumns).
			AddRow(id, "users-api", 1, "sha256-old", "Users", []byte(`{"nodes":[]}`), []byte(`[]`), 0.8, false, false, time.Now().UTC()))
	db.ExpectCommit()
	repo := NewSpecificationRepository(db)

	// when
	created, err := repo.Save(context.Background(), &spec)

	// then
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, spec.ID)
	assert.Equal(t, 1, spec.Revision)
	assert.Equal(t, 0.8, spec.Quality)
}
