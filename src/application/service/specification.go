package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/application/normalize"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

type SpecificationService interface {
	// Ingest normalizes the event content into a new revision of its spec_ref.
	// It returns the stored revision and the one it replaces, if any.
	Ingest(context.Context, *domain.ChangeEvent) (spec, previous *domain.Specification, err error)
	Retire(context.Context, *domain.ChangeEvent) error
	GetById(context.Context, uuid.UUID) (*domain.Specification, error)
	GetLatest(context.Context, string) (*domain.Specification, error)
}

type specificationService struct {
	logger         zerolog.Logger
	normalizer     *normalize.Normalizer
	specifications repository.SpecificationRepository
	failureService FailureService
}

func NewSpecificationService(normalizer *normalize.Normalizer, store repository.Store, failureService FailureService, logger *zerolog.Logger) SpecificationService {
	return &specificationService{
		logger:         logger.With().Str("component", "SpecificationService").Logger(),
		normalizer:     normalizer,
		specifications: store.Specifications,
		failureService: failureService,
	}
}

func (self *specificationService) Ingest(ctx context.Context, event *domain.ChangeEvent) (*domain.Specification, *domain.Specification, error) {
	if existing, err := self.specifications.GetByKey(ctx, event.Key()); err == nil {
		previous, err := self.previous(ctx, existing)
		return existing, previous, err
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, errors.WithMessagef(err, "Could not select Specification %s", event.Key())
	}

	result, err := self.normalizer.Normalize(event.Content)
	if err != nil {
		return nil, nil, err
	}

	spec := result.Specification
	spec.SpecRef = event.SpecRef
	spec.ContentHash = event.ContentHash

	previous, err := self.specifications.GetLatest(ctx, event.SpecRef)
	if errors.Is(err, domain.ErrNotFound) {
		previous = nil
	} else if err != nil {
		return nil, nil, errors.WithMessagef(err, "Could not select latest Specification of %q", event.SpecRef)
	}

	findings := append(result.Findings, normalize.DetectDrift(previous, &spec)...)

	created, err := self.specifications.Save(ctx, &spec)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "Could not insert Specification %s", event.Key())
	}
	if !created {
		previous, err := self.previous(ctx, &spec)
		return &spec, previous, err
	}

	self.logger.Info().
		Str("spec_ref", spec.SpecRef).
		Int("revision", spec.Revision).
		Int("operations", len(spec.Operations)).
		Float64("quality", spec.Quality).
		Msg("Ingested Specification")

	for _, finding := range findings {
		if err := self.failureService.Warn(ctx, &domain.PipelineWarning{
			SpecRef:     spec.SpecRef,
			EventID:     event.EventID,
			OperationID: finding.OperationID,
			Kind:        finding.Kind,
			Message:     finding.Message,
		}); err != nil {
			return nil, nil, err
		}
	}

	return &spec, previous, nil
}

// previous loads the revision right before spec.
func (self *specificationService) previous(ctx context.Context, spec *domain.Specification) (*domain.Specification, error) {
	if spec.Revision <= 1 {
		return nil, nil
	}
	previous, err := self.specifications.GetByRevision(ctx, spec.SpecRef, spec.Revision-1)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return previous, errors.WithMessagef(err, "Could not select revision %d of %q", spec.Revision-1, spec.SpecRef)
}

func (self *specificationService) Retire(ctx context.Context, event *domain.ChangeEvent) error {
	self.logger.Info().Str("spec_ref", event.SpecRef).Msg("Retiring Specification")
	return errors.WithMessagef(self.specifications.Retire(ctx, event.SpecRef), "Could not retire Specification %q", event.SpecRef)
}

func (self *specificationService) GetById(ctx context.Context, id uuid.UUID) (spec *domain.Specification, err error) {
	spec, err = self.specifications.GetById(ctx, id)
	err = errors.WithMessagef(err, "Could not select Specification with ID %q", id)
	return
}

func (self *specificationService) GetLatest(ctx context.Context, specRef string) (spec *domain.Specification, err error) {
	spec, err = self.specifications.GetLatest(ctx, specRef)
	err = errors.WithMessagef(err, "Could not select latest Specification of %q", specRef)
	return
}
