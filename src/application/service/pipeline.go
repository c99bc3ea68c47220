package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/application/retry"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

// PipelineService carries one accepted ChangeEvent through every stage.
type PipelineService interface {
	Process(context.Context, *domain.ChangeEvent) error
}

type pipelineService struct {
	logger               zerolog.Logger
	frameworks           []string
	events               repository.ChangeEventRepository
	runner               *retry.Runner
	specificationService SpecificationService
	generationService    GenerationService
	reviewService        ReviewService
	failureService       FailureService
}

func NewPipelineService(
	frameworks []string,
	store repository.Store,
	runner *retry.Runner,
	specificationService SpecificationService,
	generationService GenerationService,
	reviewService ReviewService,
	failureService FailureService,
	logger *zerolog.Logger,
) PipelineService {
	return &pipelineService{
		logger:               logger.With().Str("component", "PipelineService").Logger(),
		frameworks:           frameworks,
		events:               store.Events,
		runner:               runner,
		specificationService: specificationService,
		generationService:    generationService,
		reviewService:        reviewService,
		failureService:       failureService,
	}
}

func (self *pipelineService) Process(ctx context.Context, event *domain.ChangeEvent) error {
	logger := self.logger.With().
		Str("event_id", event.EventID).
		Str("spec_ref", event.SpecRef).
		Str("content_hash", event.ContentHash).
		Logger()
	logger.Debug().Msg("Processing ChangeEvent")

	if event.Type == domain.ChangeEventDeleted {
		if attempts, err := self.runner.Do(ctx, event.SpecRef, domain.StageNormalize, func(ctx context.Context) error {
			return self.specificationService.Retire(ctx, event)
		}); err != nil {
			return self.fail(ctx, event, domain.StageNormalize, attempts, err)
		}
		return self.finish(ctx, event, domain.ChangeEventProcessed)
	}

	var spec, previous *domain.Specification
	if attempts, err := self.runner.Do(ctx, event.SpecRef, domain.StageNormalize, func(ctx context.Context) (err error) {
		spec, previous, err = self.specificationService.Ingest(ctx, event)
		return
	}); err != nil {
		return self.fail(ctx, event, domain.StageNormalize, attempts, err)
	}

	for _, op := range spec.Operations {
		if !event.Includes(op) {
			continue
		}
		if ctx.Err() != nil {
			return self.fail(ctx, event, domain.StageSynthesize, 0, ctx.Err())
		}
		if err := self.operation(ctx, event, spec, previous, op); err != nil {
			return err
		}
	}

	logger.Info().Int("revision", spec.Revision).Msg("Processed ChangeEvent")
	return self.finish(ctx, event, domain.ChangeEventProcessed)
}

func (self *pipelineService) operation(ctx context.Context, event *domain.ChangeEvent, spec, previous *domain.Specification, op domain.Operation) error {
	var data *domain.TestDataSet
	if attempts, err := self.runner.Do(ctx, event.SpecRef, domain.StageSynthesize, func(ctx context.Context) (err error) {
		data, err = self.generationService.Synthesize(ctx, event, spec, previous, op)
		return
	}); err != nil {
		var synthesisErr *domain.SynthesisError
		if errors.As(err, &synthesisErr) {
			return self.skip(ctx, event, op, domain.WarningKind(synthesisErr.Kind), err)
		}
		return self.fail(ctx, event, domain.StageSynthesize, attempts, err)
	}

	for _, framework := range self.frameworks {
		var artifact *domain.TestArtifact
		if attempts, err := self.runner.Do(ctx, event.SpecRef, domain.StageAssemble, func(ctx context.Context) (err error) {
			artifact, err = self.generationService.Assemble(ctx, event, spec, op, data, framework)
			return
		}); err != nil {
			return self.fail(ctx, event, domain.StageAssemble, attempts, err)
		}
		if artifact == nil {
			continue
		}

		if attempts, err := self.runner.Do(ctx, event.SpecRef, domain.StageSubmit, func(ctx context.Context) error {
			_, err := self.reviewService.Submit(ctx, artifact)
			return err
		}); err != nil {
			return self.fail(ctx, event, domain.StageSubmit, attempts, err)
		}
	}
	return nil
}

// skip records that op produced no artifacts and lets the event continue.
func (self *pipelineService) skip(ctx context.Context, event *domain.ChangeEvent, op domain.Operation, kind domain.WarningKind, cause error) error {
	return self.failureService.Warn(ctx, &domain.PipelineWarning{
		SpecRef:     event.SpecRef,
		EventID:     event.EventID,
		OperationID: op.ID,
		Kind:        kind,
		Message:     "operation skipped: " + cause.Error(),
	})
}

func (self *pipelineService) fail(ctx context.Context, event *domain.ChangeEvent, stage domain.Stage, attempts int, cause error) error {
	if ctx.Err() != nil {
		logger := self.logger.With().
			Str("event_id", event.EventID).
			Str("spec_ref", event.SpecRef).
			Str("stage", string(stage)).
			Logger()

		// Interrupted events stay accepted.
		if !errors.Is(context.Cause(ctx), domain.ErrSuperseded) {
			logger.Warn().Msg("ChangeEvent interrupted")
			return ctx.Err()
		}

		logger.Info().Msg("ChangeEvent superseded")
		if err := self.events.UpdateStatus(context.Background(), event.ID, domain.ChangeEventSuperseded); err != nil {
			logger.Err(err).Msg("Could not mark ChangeEvent as superseded")
		}
		return ctx.Err()
	}

	if _, err := self.failureService.DeadLetter(ctx, event, stage, attempts, cause); err != nil {
		return errors.WithMessage(err, cause.Error())
	}
	return cause
}

func (self *pipelineService) finish(ctx context.Context, event *domain.ChangeEvent, status domain.ChangeEventStatus) error {
	event.Status = status
	return errors.WithMessagef(
		self.events.UpdateStatus(ctx, event.ID, status),
		"Could not mark ChangeEvent %q as %s", event.EventID, status,
	)
}
