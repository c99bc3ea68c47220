package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/input-output-hk/quaestor/src/domain"
)

type TestArtifactRepository interface {
	// Save stores the artifact unless one exists for the same data set and framework,
	// which is then loaded into it.
	Save(context.Context, *domain.TestArtifact) (bool, error)
	GetById(context.Context, uuid.UUID) (*domain.TestArtifact, error)
	GetByDataSet(ctx context.Context, dataSetId uuid.UUID, framework string) (*domain.TestArtifact, error)
	// LatestVersion returns 0 if the lineage has no artifacts yet.
	LatestVersion(context.Context, domain.Lineage) (int, error)
}
