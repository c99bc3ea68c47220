// Package memory keeps every repository in process memory.
// It backs `--store memory` and the service tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

type state struct {
	sync.RWMutex

	events         map[domain.EventKey]domain.ChangeEvent
	specifications map[uuid.UUID]domain.Specification
	dataSets       map[uuid.UUID]domain.TestDataSet
	artifacts      map[uuid.UUID]domain.TestArtifact
	reviewItems    map[uuid.UUID]domain.ReviewItem
	deadLetters    []domain.DeadLetter
	warnings       []domain.PipelineWarning
}

func NewStore() repository.Store {
	s := &state{
		events:         map[domain.EventKey]domain.ChangeEvent{},
		specifications: map[uuid.UUID]domain.Specification{},
		dataSets:       map[uuid.UUID]domain.TestDataSet{},
		artifacts:      map[uuid.UUID]domain.TestArtifact{},
		reviewItems:    map[uuid.UUID]domain.ReviewItem{},
	}
	return repository.Store{
		Events:         &changeEventRepository{s},
		Specifications: &specificationRepository{s},
		DataSets:       &testDataSetRepository{s},
		Artifacts:      &testArtifactRepository{s},
		ReviewItems:    &reviewItemRepository{s},
		DeadLetters:    &deadLetterRepository{s},
		Warnings:       &pipelineWarningRepository{s},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == (uuid.UUID{}) {
		*id = uuid.New()
	}
}

// page returns the window of items selected by page, newest first.
func page[T any](items []T, p *repository.Page) []*T {
	from, to := p.Slice(len(items))
	result := make([]*T, 0, to-from)
	for i := from; i < to; i++ {
		item := items[len(items)-1-i]
		result = append(result, &item)
	}
	return result
}
