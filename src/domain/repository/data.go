package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/input-output-hk/quaestor/src/domain"
)

type TestDataSetRepository interface {
	// Save stores the data set unless one exists for the same
	// specification, operation and generation, which is then loaded into it.
	Save(context.Context, *domain.TestDataSet) (bool, error)
	GetById(context.Context, uuid.UUID) (*domain.TestDataSet, error)
	Get(ctx context.Context, specificationId uuid.UUID, operationId string, generation int) (*domain.TestDataSet, error)
}
