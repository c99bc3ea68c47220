package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/application/component"
	"github.com/input-output-hk/quaestor/src/application/service"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

const maxWebhookBody = 16 << 20

// Ingestor accepts webhook deliveries.
type Ingestor interface {
	Receive(ctx context.Context, body []byte, signature string) (component.Ack, error)
}

type Web struct {
	Config config.WebConfig

	Logger            zerolog.Logger
	Ingestor          Ingestor
	ReviewService     service.ReviewService
	GenerationService service.GenerationService
	FailureService    service.FailureService
	Metrics           *config.Metrics
}

func (self *Web) Router() *mux.Router {
	r := mux.NewRouter().StrictSlash(true).UseEncodedPath()
	r.NotFoundHandler = http.NotFoundHandler()

	// sorted alphabetically, please keep it this way
	r.HandleFunc("/api/artifact/{id}", self.ApiArtifactIdGet).Methods(http.MethodGet)
	r.HandleFunc("/api/dead-letter", self.ApiDeadLetterGet).Methods(http.MethodGet)
	r.HandleFunc("/api/review", self.ApiReviewGet).Methods(http.MethodGet)
	r.HandleFunc("/api/review/bulk", self.ApiReviewBulkPost).Methods(http.MethodPost)
	r.HandleFunc("/api/review/{id}", self.ApiReviewIdGet).Methods(http.MethodGet)
	r.HandleFunc("/api/review/{id}/approve", self.ApiReviewIdApprovePost).Methods(http.MethodPost)
	r.HandleFunc("/api/review/{id}/reject", self.ApiReviewIdRejectPost).Methods(http.MethodPost)
	r.HandleFunc("/api/warning", self.ApiWarningGet).Methods(http.MethodGet)
	r.HandleFunc("/api/webhook", self.ApiWebhookPost).Methods(http.MethodPost)
	r.Handle("/metrics", self.Metrics.Handler()).Methods(http.MethodGet)

	return r
}

func (self *Web) Start(ctx context.Context) error {
	self.Logger.Info().Str("listen", self.Config.Listen).Msg("Starting")

	server := &http.Server{
		Addr:              self.Config.Listen,
		Handler:           self.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			self.Logger.Err(err).Msgf("Failed to start web server on %s", self.Config.Listen)
		}
	}()

	<-ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		self.Logger.Err(err).Msg("Failed to stop web server")
	}

	return nil
}

func (self *Web) ApiWebhookPost(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxWebhookBody))
	if err != nil {
		self.Error(w, HandlerError{errors.WithMessage(err, "Could not read body"), http.StatusRequestEntityTooLarge})
		return
	}

	ack, err := self.Ingestor.Receive(req.Context(), body, req.Header.Get(component.SignatureHeader))

	var malformed *component.MalformedEventError
	var transient *domain.TransientError
	switch {
	case err == nil:
		self.json(w, ack, http.StatusAccepted)
	case domain.IsAuthError(err):
		self.json(w, apiReason{Reason: "invalid_signature"}, http.StatusUnauthorized)
	case errors.As(err, &malformed):
		self.ClientError(w, err)
	case errors.Is(err, component.ErrSaturated), errors.As(err, &transient):
		w.Header().Set("Retry-After", "5")
		self.Error(w, HandlerError{err, http.StatusServiceUnavailable})
	default:
		self.ServerError(w, err)
	}
}

type apiReason struct {
	Reason string `json:"reason"`
}

type apiPageResponse[T any] struct {
	Page  *repository.Page `json:"page"`
	Items []T              `json:"items"`
}

func (self *Web) ApiReviewGet(w http.ResponseWriter, req *http.Request) {
	state := domain.ReviewState(req.FormValue("state"))
	switch state {
	case "", domain.ReviewPending, domain.ReviewApproved, domain.ReviewRejected, domain.ReviewEscalated:
	default:
		self.ClientError(w, errors.Errorf("unknown state %q", state))
		return
	}

	if page, err := getPage(req); err != nil {
		self.ClientError(w, err)
	} else if items, err := self.ReviewService.GetPage(req.Context(), page, state); err != nil {
		self.ServerError(w, err)
	} else {
		self.json(w, apiPageResponse[*domain.ReviewItem]{Page: page, Items: items}, http.StatusOK)
	}
}

func (self *Web) ApiReviewIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := uuid.Parse(mux.Vars(req)["id"]); err != nil {
		self.ClientError(w, errors.WithMessage(err, "Failed to parse id"))
	} else if item, err := self.ReviewService.GetById(req.Context(), id); err != nil {
		self.reviewError(w, err)
	} else {
		self.json(w, item, http.StatusOK)
	}
}

type apiReviewDecision struct {
	Version  int                     `json:"version"`
	Reviewer string                  `json:"reviewer"`
	Override bool                    `json:"override"`
	Category domain.FeedbackCategory `json:"category"`
	Note     string                  `json:"note"`
}

func (self *apiReviewDecision) validate() error {
	switch {
	case self.Version < 1:
		return errors.New("version is required")
	case self.Reviewer == "":
		return errors.New("reviewer is required")
	}
	return nil
}

func (self *Web) decision(w http.ResponseWriter, req *http.Request) (id uuid.UUID, decision apiReviewDecision, ok bool) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		self.ClientError(w, errors.WithMessage(err, "Failed to parse id"))
		return
	}
	if err := json.NewDecoder(req.Body).Decode(&decision); err != nil {
		self.ClientError(w, errors.WithMessage(err, "Could not decode body"))
		return
	}
	if err := decision.validate(); err != nil {
		self.ClientError(w, err)
		return
	}
	ok = true
	return
}

func (self *Web) ApiReviewIdApprovePost(w http.ResponseWriter, req *http.Request) {
	id, decision, ok := self.decision(w, req)
	if !ok {
		return
	}

	if item, err := self.ReviewService.Approve(req.Context(), id, decision.Version, decision.Reviewer, decision.Override); err != nil {
		self.reviewError(w, err)
	} else {
		self.json(w, item, http.StatusOK)
	}
}

func (self *Web) ApiReviewIdRejectPost(w http.ResponseWriter, req *http.Request) {
	id, decision, ok := self.decision(w, req)
	if !ok {
		return
	}

	if item, err := self.ReviewService.Reject(req.Context(), id, decision.Version, decision.Reviewer, decision.Category, decision.Note); err != nil {
		self.reviewError(w, err)
	} else {
		self.json(w, item, http.StatusOK)
	}
}

type apiReviewBulk struct {
	Action   domain.BulkAction       `json:"action"`
	Items    []domain.ItemRef        `json:"items"`
	Reviewer string                  `json:"reviewer"`
	Override bool                    `json:"override"`
	Category domain.FeedbackCategory `json:"category"`
	Note     string                  `json:"note"`
}

func (self *Web) ApiReviewBulkPost(w http.ResponseWriter, req *http.Request) {
	var params apiReviewBulk
	if err := json.NewDecoder(req.Body).Decode(&params); err != nil {
		self.ClientError(w, errors.WithMessage(err, "Could not decode body"))
		return
	}

	switch {
	case params.Action != domain.BulkApprove && params.Action != domain.BulkReject:
		self.ClientError(w, errors.Errorf("unknown action %q", params.Action))
		return
	case params.Reviewer == "":
		self.ClientError(w, errors.New("reviewer is required"))
		return
	case len(params.Items) == 0:
		self.ClientError(w, errors.New("no items given"))
		return
	}

	results := self.ReviewService.BulkApply(req.Context(), params.Items, params.Action, service.BulkDecision{
		Reviewer: params.Reviewer,
		Override: params.Override,
		Category: params.Category,
		Note:     params.Note,
	})

	self.json(w, map[string]any{"results": results}, http.StatusOK)
}

func (self *Web) ApiArtifactIdGet(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		self.ClientError(w, errors.WithMessage(err, "Failed to parse id"))
		return
	}

	artifact, err := self.GenerationService.GetArtifact(req.Context(), id)
	if err != nil {
		self.reviewError(w, err)
		return
	}

	if _, raw := req.URL.Query()["raw"]; raw {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := io.WriteString(w, artifact.Content); err != nil {
			self.Logger.Err(err).Msg("Could not write artifact")
		}
		return
	}

	self.json(w, artifact, http.StatusOK)
}

func (self *Web) ApiDeadLetterGet(w http.ResponseWriter, req *http.Request) {
	if page, err := getPage(req); err != nil {
		self.ClientError(w, err)
	} else if letters, err := self.FailureService.GetDeadLetters(req.Context(), page); err != nil {
		self.ServerError(w, err)
	} else {
		self.json(w, apiPageResponse[*domain.DeadLetter]{Page: page, Items: letters}, http.StatusOK)
	}
}

func (self *Web) ApiWarningGet(w http.ResponseWriter, req *http.Request) {
	if page, err := getPage(req); err != nil {
		self.ClientError(w, err)
	} else if warnings, err := self.FailureService.GetWarnings(req.Context(), page, req.FormValue("spec_ref")); err != nil {
		self.ServerError(w, err)
	} else {
		self.json(w, apiPageResponse[*domain.PipelineWarning]{Page: page, Items: warnings}, http.StatusOK)
	}
}

func getPage(req *http.Request) (*repository.Page, error) {
	var limit, offset int

	if offsetStr := req.FormValue("offset"); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err != nil || v < 0 {
			return nil, errors.New("offset parameter is invalid, should be positive integer")
		} else {
			offset = v
		}
	}

	if limitStr := req.FormValue("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err != nil || v < 1 {
			return nil, errors.New("limit parameter is invalid, should be positive integer")
		} else {
			limit = v
		}
	}

	return repository.NewPage(limit, offset), nil
}

// reviewError maps errors of the review workflow to status codes.
func (self *Web) reviewError(w http.ResponseWriter, err error) {
	var conflict *domain.ConflictError
	var transition *domain.TransitionError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		self.NotFound(w, err)
	case errors.As(err, &conflict):
		self.Error(w, HandlerError{err, http.StatusConflict})
	case errors.As(err, &transition) && transition.Reason != "":
		self.Error(w, HandlerError{err, http.StatusUnprocessableEntity})
	case errors.As(err, &transition):
		self.Error(w, HandlerError{err, http.StatusConflict})
	default:
		self.ServerError(w, err)
	}
}

type HandlerError struct {
	error
	StatusCode int
}

func (self HandlerError) HasError() bool {
	return self.error != nil
}

func (self *Web) ServerError(w http.ResponseWriter, err error) {
	self.Error(w, HandlerError{err, http.StatusInternalServerError})
}

func (self *Web) ClientError(w http.ResponseWriter, err error) {
	self.Error(w, HandlerError{err, http.StatusBadRequest})
}

func (self *Web) NotFound(w http.ResponseWriter, err error) {
	self.Error(w, HandlerError{err, http.StatusNotFound})
}

func (self *Web) Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	if handlerErr, ok := err.(HandlerError); ok {
		status = handlerErr.StatusCode
		if !handlerErr.HasError() {
			err = nil
		}
	}

	var e *zerolog.Event
	if status >= 500 {
		e = self.Logger.Error()
	} else {
		e = self.Logger.Debug()
	}
	e.Err(err).Int("status", status).Msg("Handler error")

	var msg string
	if err != nil {
		msg = err.Error()
	}

	http.Error(w, msg, status)
}

func (self *Web) json(w http.ResponseWriter, obj any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		self.Logger.Err(err).Msg("Could not encode response")
	}
}
