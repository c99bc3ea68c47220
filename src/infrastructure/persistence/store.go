package persistence

import (
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

func NewStore(db config.PgxIface) repository.Store {
	return repository.Store{
		Events:         NewChangeEventRepository(db),
		Specifications: NewSpecificationRepository(db),
		DataSets:       NewTestDataSetRepository(db),
		Artifacts:      NewTestArtifactRepository(db),
		ReviewItems:    NewReviewItemRepository(db),
		DeadLetters:    NewDeadLetterRepository(db),
		Warnings:       NewPipelineWarningRepository(db),
	}
}
