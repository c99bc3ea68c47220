package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/input-output-hk/quaestor/src/domain"
)

type testDataSetRepository struct{ *state }

func (self *testDataSetRepository) Save(_ context.Context, data *domain.TestDataSet) (bool, error) {
	self.Lock()
	defer self.Unlock()

	for _, existing := range self.dataSets {
		if existing.SpecificationID == data.SpecificationID &&
			existing.OperationID == data.OperationID &&
			existing.Generation == data.Generation {
			*data = existing
			return false, nil
		}
	}

	ensureID(&data.ID)
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now().UTC()
	}
	self.dataSets[data.ID] = *data
	return true, nil
}

func (self *testDataSetRepository) GetById(_ context.Context, id uuid.UUID) (*domain.TestDataSet, error) {
	self.RLock()
	defer self.RUnlock()

	data, exists := self.dataSets[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return &data, nil
}

func (self *testDataSetRepository) Get(_ context.Context, specificationId uuid.UUID, operationId string, generation int) (*domain.TestDataSet, error) {
	self.RLock()
	defer self.RUnlock()

	for _, data := range self.dataSets {
		if data.SpecificationID == specificationId && data.OperationID == operationId && data.Generation == generation {
			return &data, nil
		}
	}
	return nil, domain.ErrNotFound
}

type testArtifactRepository struct{ *state }

func (self *testArtifactRepository) Save(_ context.Context, artifact *domain.TestArtifact) (bool, error) {
	self.Lock()
	defer self.Unlock()

	for _, existing := range self.artifacts {
		if existing.DataSetID == artifact.DataSetID && existing.Framework == artifact.Framework {
			*artifact = existing
			return false, nil
		}
	}

	ensureID(&artifact.ID)
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}
	self.artifacts[artifact.ID] = *artifact
	return true, nil
}

func (self *testArtifactRepository) GetById(_ context.Context, id uuid.UUID) (*domain.TestArtifact, error) {
	self.RLock()
	defer self.RUnlock()

	artifact, exists := self.artifacts[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return &artifact, nil
}

func (self *testArtifactRepository) GetByDataSet(_ context.Context, dataSetId uuid.UUID, framework string) (*domain.TestArtifact, error) {
	self.RLock()
	defer self.RUnlock()

	for _, artifact := range self.artifacts {
		if artifact.DataSetID == dataSetId && artifact.Framework == framework {
			return &artifact, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (self *testArtifactRepository) LatestVersion(_ context.Context, lineage domain.Lineage) (int, error) {
	self.RLock()
	defer self.RUnlock()

	version := 0
	for _, artifact := range self.artifacts {
		if artifact.Lineage == lineage && artifact.Version > version {
			version = artifact.Version
		}
	}
	return version, nil
}
