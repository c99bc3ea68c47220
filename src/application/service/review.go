package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/input-output-hk/quaestor/src/application/retry"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

// AutoReviewer is the reviewer name recorded on automatic approvals.
const AutoReviewer = "quaestor"

type ReviewService interface {
	// Submit puts an artifact up for review. An active item of the same lineage is
	// superseded in place. Artifacts older than the latest of their lineage are ignored.
	Submit(context.Context, *domain.TestArtifact) (*domain.ReviewItem, error)
	Approve(ctx context.Context, id uuid.UUID, version int, reviewer string, override bool) (*domain.ReviewItem, error)
	Reject(ctx context.Context, id uuid.UUID, version int, reviewer string, category domain.FeedbackCategory, note string) (*domain.ReviewItem, error)
	BulkApply(ctx context.Context, refs []domain.ItemRef, action domain.BulkAction, decision BulkDecision) []domain.BulkResult
	GetById(context.Context, uuid.UUID) (*domain.ReviewItem, error)
	GetPage(ctx context.Context, page *repository.Page, state domain.ReviewState) ([]*domain.ReviewItem, error)
}

// BulkDecision carries what a bulk action applies to every item.
type BulkDecision struct {
	Reviewer string
	Override bool
	Category domain.FeedbackCategory
	Note     string
}

type reviewService struct {
	logger         zerolog.Logger
	policy         config.ReviewPolicy
	artifacts      repository.TestArtifactRepository
	items          repository.ReviewItemRepository
	regenerator    Regenerator
	vcsService     VcsService
	failureService FailureService
	runner         *retry.Runner
	metrics        *config.Metrics
}

func NewReviewService(policy config.ReviewPolicy, store repository.Store, regenerator Regenerator, vcsService VcsService, failureService FailureService, runner *retry.Runner, metrics *config.Metrics, logger *zerolog.Logger) ReviewService {
	if policy.BulkConcurrency < 1 {
		policy.BulkConcurrency = 1
	}
	return &reviewService{
		logger:         logger.With().Str("component", "ReviewService").Logger(),
		policy:         policy,
		artifacts:      store.Artifacts,
		items:          store.ReviewItems,
		regenerator:    regenerator,
		vcsService:     vcsService,
		failureService: failureService,
		runner:         runner,
		metrics:        metrics,
	}
}

func priorityOf(artifact *domain.TestArtifact) domain.Priority {
	if len(artifact.QualityFlags) > 0 {
		return domain.PriorityHigh
	}
	return domain.PriorityNormal
}

func (self *reviewService) Submit(ctx context.Context, artifact *domain.TestArtifact) (*domain.ReviewItem, error) {
	if item, err := self.items.GetByArtifactId(ctx, artifact.ID); err == nil {
		return item, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, errors.WithMessagef(err, "Could not select ReviewItem of TestArtifact %q", artifact.ID)
	}

	latest, err := self.artifacts.LatestVersion(ctx, artifact.Lineage)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select latest version of %s", artifact.Lineage)
	}
	if artifact.Version < latest {
		self.logger.Debug().
			Stringer("lineage", artifact.Lineage).
			Int("version", artifact.Version).
			Int("latest", latest).
			Msg("Not submitting outdated TestArtifact")
		return nil, nil
	}

	now := time.Now().UTC()
	active, err := self.items.GetActiveByLineage(ctx, artifact.Lineage)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		item := &domain.ReviewItem{
			ID:         uuid.New(),
			ArtifactID: artifact.ID,
			Lineage:    artifact.Lineage,
			State:      domain.ReviewPending,
			Version:    1,
			Priority:   priorityOf(artifact),
			Feedback:   []domain.Feedback{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := self.items.Insert(ctx, item); err != nil {
			// lost a race against another submission of the lineage
			return nil, domain.Transient(errors.WithMessagef(err, "Could not insert ReviewItem of %s", artifact.Lineage))
		}
		self.transitioned(item, "Submitted ReviewItem")
		return self.autoApprove(ctx, item, artifact)

	case err != nil:
		return nil, errors.WithMessagef(err, "Could not select active ReviewItem of %s", artifact.Lineage)
	}

	next := *active
	next.ArtifactID = artifact.ID
	next.State = domain.ReviewPending
	next.Version = active.Version + 1
	next.Priority = priorityOf(artifact)
	next.UpdatedAt = now
	if err := self.swap(ctx, &next, active.Version, active.State); err != nil {
		return nil, domain.Transient(err)
	}
	self.transitioned(&next, "Superseded ReviewItem with newer TestArtifact")
	return self.autoApprove(ctx, &next, artifact)
}

func (self *reviewService) autoApprove(ctx context.Context, item *domain.ReviewItem, artifact *domain.TestArtifact) (*domain.ReviewItem, error) {
	if !self.policy.AutoApproveClean || len(artifact.QualityFlags) > 0 {
		return item, nil
	}
	return self.Approve(ctx, item.ID, item.Version, AutoReviewer, false)
}

// swap writes item if the stored one is still at version and state.
func (self *reviewService) swap(ctx context.Context, item *domain.ReviewItem, version int, state domain.ReviewState) error {
	swapped, err := self.items.CompareAndSwap(ctx, item, version, state)
	if err != nil {
		return errors.WithMessagef(err, "Could not update ReviewItem %q", item.ID)
	}
	if swapped {
		return nil
	}

	actual := 0
	if current, err := self.items.GetById(ctx, item.ID); err == nil {
		actual = current.Version
	}
	return &domain.ConflictError{ID: item.ID, Expected: version, Actual: actual}
}

func (self *reviewService) transitioned(item *domain.ReviewItem, msg string) {
	self.metrics.ReviewActions.WithLabelValues(string(item.State)).Inc()
	self.logger.Info().
		Str("id", item.ID.String()).
		Stringer("lineage", item.Lineage).
		Str("state", string(item.State)).
		Int("version", item.Version).
		Msg(msg)
}

// load fetches the item and checks that the caller saw its current version.
func (self *reviewService) load(ctx context.Context, id uuid.UUID, version int) (*domain.ReviewItem, error) {
	item, err := self.items.GetById(ctx, id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select ReviewItem with ID %q", id)
	}
	if item.Version != version {
		return item, &domain.ConflictError{ID: id, Expected: version, Actual: item.Version}
	}
	return item, nil
}

func (self *reviewService) Approve(ctx context.Context, id uuid.UUID, version int, reviewer string, override bool) (*domain.ReviewItem, error) {
	item, err := self.load(ctx, id, version)
	if err != nil {
		return nil, err
	}
	if item.State == domain.ReviewApproved {
		return item, nil
	}
	if !item.State.CanTransition(domain.ReviewApproved) {
		return nil, &domain.TransitionError{ID: id, From: item.State, To: domain.ReviewApproved}
	}

	artifact, err := self.artifacts.GetById(ctx, item.ArtifactID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select TestArtifact with ID %q", item.ArtifactID)
	}
	if blocking := artifact.BlockingFlags(); len(blocking) > 0 && !override {
		return nil, &domain.TransitionError{
			ID:     id,
			From:   item.State,
			To:     domain.ReviewApproved,
			Reason: "quality flags " + strings.Join(qualityFlagStrings(blocking), ", ") + " require an override",
		}
	}

	approved := *item
	approved.State = domain.ReviewApproved
	approved.Reviewer = reviewer
	approved.UpdatedAt = time.Now().UTC()
	if err := self.swap(ctx, &approved, version, item.State); err != nil {
		if current, getErr := self.items.GetById(ctx, id); getErr == nil &&
			current.State == domain.ReviewApproved && current.Version == version {
			// a concurrent approval of the same version won, it does the commit
			return current, nil
		}
		return nil, err
	}
	self.transitioned(&approved, "Approved ReviewItem")

	return self.commit(ctx, &approved, artifact)
}

// commit runs once per approved item version, only by the approval that won the swap.
func (self *reviewService) commit(ctx context.Context, item *domain.ReviewItem, artifact *domain.TestArtifact) (*domain.ReviewItem, error) {
	var result CommitResult
	attempts, err := self.runner.Do(ctx, item.Lineage.SpecRef, domain.StageCommit, func(ctx context.Context) (err error) {
		result, err = self.vcsService.Commit(ctx, artifact, self.policy.Branch)
		var commitErr *domain.CommitError
		if errors.As(err, &commitErr) {
			return domain.Transient(err)
		}
		return err
	})

	next := *item
	next.UpdatedAt = time.Now().UTC()
	if err != nil {
		next.State = domain.ReviewEscalated
		next.EscalationReason = err.Error()
	} else {
		version := item.Version
		next.CommittedVersion = &version
		next.CommitRef = result.Ref
	}

	if swapErr := self.swap(ctx, &next, item.Version, domain.ReviewApproved); swapErr != nil {
		return nil, errors.WithMessage(swapErr, "While recording commit")
	}

	if err != nil {
		self.transitioned(&next, "Escalated ReviewItem after failed commit")
		self.failureService.Alert(ctx, domain.Alert{
			Severity: domain.AlertCritical,
			Subject:  "escalation",
			SpecRef:  item.Lineage.SpecRef,
			Message:  fmt.Sprintf("commit of %s failed after %d attempt(s): %s", item.Lineage, attempts, err),
		})
	}
	return &next, nil
}

func (self *reviewService) Reject(ctx context.Context, id uuid.UUID, version int, reviewer string, category domain.FeedbackCategory, note string) (*domain.ReviewItem, error) {
	if !category.Valid() {
		return nil, &domain.TransitionError{ID: id, From: domain.ReviewPending, To: domain.ReviewRejected, Reason: "unknown feedback category " + string(category)}
	}

	item, err := self.load(ctx, id, version)
	if err != nil {
		return nil, err
	}
	if !item.State.CanTransition(domain.ReviewRejected) {
		return nil, &domain.TransitionError{ID: id, From: item.State, To: domain.ReviewRejected}
	}

	now := time.Now().UTC()
	rejected := *item
	rejected.State = domain.ReviewRejected
	rejected.Reviewer = reviewer
	rejected.UpdatedAt = now
	rejected.Feedback = append(append([]domain.Feedback{}, item.Feedback...), domain.Feedback{
		Reviewer:  reviewer,
		Category:  category,
		Note:      note,
		Version:   version,
		CreatedAt: now,
	})
	if err := self.swap(ctx, &rejected, version, item.State); err != nil {
		return nil, err
	}
	self.transitioned(&rejected, "Rejected ReviewItem")

	next := rejected
	next.UpdatedAt = time.Now().UTC()

	artifact, err := self.regenerator.Regenerate(ctx, &rejected, category)
	if err != nil {
		self.logger.Err(err).Stringer("lineage", item.Lineage).Msg("Could not regenerate TestArtifact")
		next.State = domain.ReviewEscalated
		next.EscalationReason = "regeneration failed: " + err.Error()
	} else {
		next.State = domain.ReviewPending
		next.Version = rejected.Version + 1
		next.ArtifactID = artifact.ID
		next.Priority = priorityOf(artifact)
	}

	if err := self.swap(ctx, &next, rejected.Version, domain.ReviewRejected); err != nil {
		return nil, errors.WithMessage(err, "While returning rejected ReviewItem to review")
	}

	if next.State == domain.ReviewEscalated {
		self.transitioned(&next, "Escalated ReviewItem after failed regeneration")
		self.failureService.Alert(ctx, domain.Alert{
			Severity: domain.AlertCritical,
			Subject:  "escalation",
			SpecRef:  item.Lineage.SpecRef,
			Message:  next.EscalationReason,
		})
	} else {
		self.transitioned(&next, "Regenerated ReviewItem")
	}
	return &next, nil
}

func (self *reviewService) BulkApply(ctx context.Context, refs []domain.ItemRef, action domain.BulkAction, decision BulkDecision) []domain.BulkResult {
	results := make([]domain.BulkResult, len(refs))

	p := pool.New().WithMaxGoroutines(self.policy.BulkConcurrency)
	for i, ref := range refs {
		i, ref := i, ref
		p.Go(func() {
			var item *domain.ReviewItem
			var err error
			switch action {
			case domain.BulkApprove:
				item, err = self.Approve(ctx, ref.ID, ref.Version, decision.Reviewer, decision.Override)
			case domain.BulkReject:
				item, err = self.Reject(ctx, ref.ID, ref.Version, decision.Reviewer, decision.Category, decision.Note)
			default:
				err = errors.Errorf("Unknown bulk action %q", action)
			}

			results[i] = domain.BulkResult{ID: ref.ID, Item: item}
			if err != nil {
				results[i].Error = err.Error()
			}
		})
	}
	p.Wait()

	return results
}

func (self *reviewService) GetById(ctx context.Context, id uuid.UUID) (item *domain.ReviewItem, err error) {
	item, err = self.items.GetById(ctx, id)
	err = errors.WithMessagef(err, "Could not select ReviewItem with ID %q", id)
	return
}

func (self *reviewService) GetPage(ctx context.Context, page *repository.Page, state domain.ReviewState) (items []*domain.ReviewItem, err error) {
	items, err = self.items.GetPage(ctx, page, state)
	err = errors.WithMessage(err, "Could not select ReviewItems")
	return
}
