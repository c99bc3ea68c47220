package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/application/assemble"
	"github.com/input-output-hk/quaestor/src/application/synthesize"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

// Regenerator produces the next artifact version of a rejected review item.
type Regenerator interface {
	Regenerate(ctx context.Context, item *domain.ReviewItem, hint domain.FeedbackCategory) (*domain.TestArtifact, error)
}

type GenerationService interface {
	Regenerator

	// Synthesize returns the data set of op, reusing the one of the previous
	// revision if the operation did not change.
	Synthesize(ctx context.Context, event *domain.ChangeEvent, spec, previous *domain.Specification, op domain.Operation) (*domain.TestDataSet, error)
	// Assemble renders data for framework. A framework without template yields nil and a warning.
	Assemble(ctx context.Context, event *domain.ChangeEvent, spec *domain.Specification, op domain.Operation, data *domain.TestDataSet, framework string) (*domain.TestArtifact, error)
	GetArtifact(ctx context.Context, id uuid.UUID) (*domain.TestArtifact, error)
}

type generationService struct {
	logger         zerolog.Logger
	synthesizer    *synthesize.Synthesizer
	assembler      *assemble.Assembler
	store          repository.Store
	failureService FailureService
	metrics        *config.Metrics
}

func NewGenerationService(synthesizer *synthesize.Synthesizer, assembler *assemble.Assembler, store repository.Store, failureService FailureService, metrics *config.Metrics, logger *zerolog.Logger) GenerationService {
	return &generationService{
		logger:         logger.With().Str("component", "GenerationService").Logger(),
		synthesizer:    synthesizer,
		assembler:      assembler,
		store:          store,
		failureService: failureService,
		metrics:        metrics,
	}
}

func (self *generationService) Synthesize(ctx context.Context, event *domain.ChangeEvent, spec, previous *domain.Specification, op domain.Operation) (*domain.TestDataSet, error) {
	if previous != nil {
		if before, ok := previous.Operation(op.ID); ok && before.Fingerprint == op.Fingerprint {
			data, err := self.store.DataSets.Get(ctx, previous.ID, op.ID, 0)
			if err == nil {
				self.logger.Debug().
					Str("spec_ref", spec.SpecRef).
					Str("operation", op.ID).
					Int("revision", previous.Revision).
					Msg("Reusing TestDataSet of unchanged operation")
				return data, nil
			} else if !errors.Is(err, domain.ErrNotFound) {
				return nil, errors.WithMessagef(err, "Could not select TestDataSet of %s in revision %d", op.ID, previous.Revision)
			}
		}
	}

	data, err := self.synthesizer.Synthesize(spec, op, synthesize.Hint{})
	if err != nil {
		return nil, err
	}

	created, err := self.store.DataSets.Save(ctx, &data)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not insert TestDataSet of %s", op.ID)
	}
	if created {
		self.warnData(ctx, event, spec.SpecRef, &data)
	}
	return &data, nil
}

func (self *generationService) warn(ctx context.Context, event *domain.ChangeEvent, specRef, operation string, kind domain.WarningKind, message string) {
	warning := &domain.PipelineWarning{
		SpecRef:     specRef,
		OperationID: operation,
		Kind:        kind,
		Message:     message,
	}
	if event != nil {
		warning.EventID = event.EventID
	}
	if err := self.failureService.Warn(ctx, warning); err != nil {
		self.logger.Err(err).Str("operation", operation).Msg("Could not record warning")
	}
}

func (self *generationService) warnData(ctx context.Context, event *domain.ChangeEvent, specRef string, data *domain.TestDataSet) {
	for _, message := range data.Warnings {
		self.warn(ctx, event, specRef, data.OperationID, synthesize.WarningKind(message), message)
	}
}

func (self *generationService) Assemble(ctx context.Context, event *domain.ChangeEvent, spec *domain.Specification, op domain.Operation, data *domain.TestDataSet, framework string) (*domain.TestArtifact, error) {
	if existing, err := self.store.Artifacts.GetByDataSet(ctx, data.ID, framework); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, errors.WithMessagef(err, "Could not select TestArtifact of data set %q", data.ID)
	}

	lineage := domain.Lineage{SpecRef: spec.SpecRef, OperationID: op.ID, Framework: framework}
	revision, err := self.nextRevision(ctx, lineage)
	if err != nil {
		return nil, err
	}

	artifact, err := self.assembler.Assemble(spec, &op, data, framework, revision)
	if err != nil {
		var assemblyErr *domain.AssemblyError
		if errors.As(err, &assemblyErr) && assemblyErr.Kind == domain.AssemblyMissingTemplate {
			self.warn(ctx, event, spec.SpecRef, op.ID, domain.WarningMissingTemplate, assemblyErr.Error())
			return nil, nil
		}
		return nil, err
	}

	return self.save(ctx, artifact)
}

// nextRevision places a new artifact after the latest one of its lineage.
func (self *generationService) nextRevision(ctx context.Context, lineage domain.Lineage) (assemble.Revision, error) {
	latest, err := self.store.Artifacts.LatestVersion(ctx, lineage)
	if err != nil {
		return assemble.Revision{}, errors.WithMessagef(err, "Could not select latest version of %s", lineage)
	}

	revision := assemble.Revision{Version: latest + 1}
	if active, err := self.store.ReviewItems.GetActiveByLineage(ctx, lineage); err == nil {
		revision.Supersedes = &active.ArtifactID
	} else if !errors.Is(err, domain.ErrNotFound) {
		return revision, errors.WithMessagef(err, "Could not select active ReviewItem of %s", lineage)
	}
	return revision, nil
}

func (self *generationService) save(ctx context.Context, artifact *domain.TestArtifact) (*domain.TestArtifact, error) {
	created, err := self.store.Artifacts.Save(ctx, artifact)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not insert TestArtifact of %s", artifact.Lineage)
	}
	if created {
		self.metrics.ArtifactsRender.Inc()
		self.logger.Info().
			Stringer("lineage", artifact.Lineage).
			Int("version", artifact.Version).
			Strs("flags", qualityFlagStrings(artifact.QualityFlags)).
			Msg("Rendered TestArtifact")
	}
	return artifact, nil
}

func (self *generationService) Regenerate(ctx context.Context, item *domain.ReviewItem, hint domain.FeedbackCategory) (*domain.TestArtifact, error) {
	current, err := self.store.Artifacts.GetById(ctx, item.ArtifactID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select TestArtifact with ID %q", item.ArtifactID)
	}
	spec, err := self.store.Specifications.GetById(ctx, current.SpecificationID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Specification with ID %q", current.SpecificationID)
	}
	op, ok := spec.Operation(item.Lineage.OperationID)
	if !ok {
		return nil, errors.Errorf("Operation %q does not exist in revision %d of %q", item.Lineage.OperationID, spec.Revision, spec.SpecRef)
	}

	generation := item.Version + 1
	data, err := self.store.DataSets.Get(ctx, spec.ID, op.ID, generation)
	if errors.Is(err, domain.ErrNotFound) {
		synthesized, err := self.synthesizer.Synthesize(spec, op, synthesize.Hint{Category: hint, Generation: generation})
		if err != nil {
			return nil, err
		}
		if _, err := self.store.DataSets.Save(ctx, &synthesized); err != nil {
			return nil, errors.WithMessagef(err, "Could not insert TestDataSet of %s", op.ID)
		}
		data = &synthesized
		self.warnData(ctx, nil, spec.SpecRef, data)
	} else if err != nil {
		return nil, errors.WithMessagef(err, "Could not select TestDataSet of %s", op.ID)
	}

	if existing, err := self.store.Artifacts.GetByDataSet(ctx, data.ID, item.Lineage.Framework); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, errors.WithMessagef(err, "Could not select TestArtifact of data set %q", data.ID)
	}

	latest, err := self.store.Artifacts.LatestVersion(ctx, item.Lineage)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select latest version of %s", item.Lineage)
	}

	artifact, err := self.assembler.Assemble(spec, &op, data, item.Lineage.Framework, assemble.Revision{
		Version:    latest + 1,
		Supersedes: &current.ID,
	})
	if err != nil {
		return nil, err
	}

	self.logger.Info().
		Stringer("lineage", item.Lineage).
		Str("hint", string(hint)).
		Int("generation", generation).
		Msg("Regenerated TestArtifact")

	return self.save(ctx, artifact)
}

func (self *generationService) GetArtifact(ctx context.Context, id uuid.UUID) (artifact *domain.TestArtifact, err error) {
	artifact, err = self.store.Artifacts.GetById(ctx, id)
	err = errors.WithMessagef(err, "Could not select TestArtifact with ID %q", id)
	return
}

func qualityFlagStrings(flags []domain.QualityFlag) []string {
	strs := make([]string, len(flags))
	for i, flag := range flags {
		strs[i] = string(flag)
	}
	return strs
}
