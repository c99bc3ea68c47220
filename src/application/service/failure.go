package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/application/retry"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

type AlertSink interface {
	Send(context.Context, domain.Alert) error
}

type FailureService interface {
	// DeadLetter records that the event could not be processed past stage.
	DeadLetter(ctx context.Context, event *domain.ChangeEvent, stage domain.Stage, attempts int, cause error) (*domain.DeadLetter, error)
	Warn(context.Context, *domain.PipelineWarning) error
	Alert(context.Context, domain.Alert)
	GetDeadLetters(context.Context, *repository.Page) ([]*domain.DeadLetter, error)
	GetWarnings(ctx context.Context, page *repository.Page, specRef string) ([]*domain.PipelineWarning, error)
}

type failureService struct {
	logger      zerolog.Logger
	events      repository.ChangeEventRepository
	deadLetters repository.DeadLetterRepository
	warnings    repository.PipelineWarningRepository
	sinks       []AlertSink
	metrics     *config.Metrics
}

func NewFailureService(store repository.Store, metrics *config.Metrics, logger *zerolog.Logger, sinks ...AlertSink) FailureService {
	return &failureService{
		logger:      logger.With().Str("component", "FailureService").Logger(),
		events:      store.Events,
		deadLetters: store.DeadLetters,
		warnings:    store.Warnings,
		sinks:       sinks,
		metrics:     metrics,
	}
}

func (self *failureService) DeadLetter(ctx context.Context, event *domain.ChangeEvent, stage domain.Stage, attempts int, cause error) (*domain.DeadLetter, error) {
	letter := &domain.DeadLetter{
		ID:          uuid.New(),
		EventID:     event.EventID,
		SpecRef:     event.SpecRef,
		ContentHash: event.ContentHash,
		Stage:       stage,
		Attempts:    attempts,
		Retryable:   retry.Retryable(cause),
		Reason:      cause.Error(),
		CreatedAt:   time.Now().UTC(),
	}

	self.logger.Error().
		Err(cause).
		Str("event_id", event.EventID).
		Str("spec_ref", event.SpecRef).
		Str("stage", string(stage)).
		Int("attempts", attempts).
		Msg("Moving event to dead letters")

	if err := self.deadLetters.Save(ctx, letter); err != nil {
		return nil, errors.WithMessagef(err, "Could not insert DeadLetter for event %q", event.EventID)
	}
	if err := self.events.UpdateStatus(ctx, event.ID, domain.ChangeEventDeadLetter); err != nil {
		return letter, errors.WithMessagef(err, "Could not mark event %q as dead letter", event.EventID)
	}
	self.metrics.DeadLetters.WithLabelValues(string(stage)).Inc()

	self.Alert(ctx, domain.Alert{
		Severity: domain.AlertCritical,
		Subject:  "dead_letter",
		SpecRef:  event.SpecRef,
		EventID:  event.EventID,
		Message:  fmt.Sprintf("%s failed after %d attempt(s): %s", stage, attempts, letter.Reason),
		Time:     letter.CreatedAt,
	})

	return letter, nil
}

func (self *failureService) Warn(ctx context.Context, warning *domain.PipelineWarning) error {
	if warning.ID == uuid.Nil {
		warning.ID = uuid.New()
	}
	if warning.CreatedAt.IsZero() {
		warning.CreatedAt = time.Now().UTC()
	}

	self.logger.Warn().
		Str("spec_ref", warning.SpecRef).
		Str("operation", warning.OperationID).
		Str("kind", string(warning.Kind)).
		Msg(warning.Message)

	if err := self.warnings.Save(ctx, warning); err != nil {
		return errors.WithMessagef(err, "Could not insert PipelineWarning for %q", warning.SpecRef)
	}
	self.metrics.Warnings.WithLabelValues(string(warning.Kind)).Inc()
	return nil
}

func (self *failureService) Alert(ctx context.Context, alert domain.Alert) {
	if alert.Time.IsZero() {
		alert.Time = time.Now().UTC()
	}
	for _, sink := range self.sinks {
		if err := sink.Send(ctx, alert); err != nil {
			self.logger.Err(err).Str("subject", alert.Subject).Msg("Could not send alert")
		}
	}
}

func (self *failureService) GetDeadLetters(ctx context.Context, page *repository.Page) (letters []*domain.DeadLetter, err error) {
	letters, err = self.deadLetters.GetPage(ctx, page)
	err = errors.WithMessage(err, "Could not select DeadLetters")
	return
}

func (self *failureService) GetWarnings(ctx context.Context, page *repository.Page, specRef string) (warnings []*domain.PipelineWarning, err error) {
	warnings, err = self.warnings.GetPage(ctx, page, specRef)
	err = errors.WithMessagef(err, "Could not select PipelineWarnings for %q", specRef)
	return
}

type logAlertSink struct {
	logger zerolog.Logger
}

// NewLogAlertSink writes alerts to the log.
func NewLogAlertSink(logger *zerolog.Logger) AlertSink {
	return &logAlertSink{logger.With().Str("component", "AlertSink").Logger()}
}

func (self *logAlertSink) Send(_ context.Context, alert domain.Alert) error {
	event := self.logger.Warn()
	if alert.Severity == domain.AlertCritical {
		event = self.logger.Error()
	}
	event.
		Str("severity", string(alert.Severity)).
		Str("subject", alert.Subject).
		Str("spec_ref", alert.SpecRef).
		Str("event_id", alert.EventID).
		Time("time", alert.Time).
		Msg(alert.Message)
	return nil
}

// NatsAlertSink publishes alerts as JSON on a NATS subject.
type NatsAlertSink struct {
	conn    *nats.Conn
	subject string
}

func NewNatsAlertSink(url, subject string, logger *zerolog.Logger) (*NatsAlertSink, error) {
	sinkLogger := logger.With().Str("component", "NatsAlertSink").Logger()
	conn, err := nats.Connect(url,
		nats.Name("quaestor"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			sinkLogger.Warn().Err(err).Msg("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			sinkLogger.Info().Str("url", conn.ConnectedUrl()).Msg("Reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not connect to NATS at %q", url)
	}
	return &NatsAlertSink{conn: conn, subject: subject}, nil
}

func (self *NatsAlertSink) Send(_ context.Context, alert domain.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return self.conn.Publish(self.subject+"."+string(alert.Severity), payload)
}

func (self *NatsAlertSink) Close() {
	self.conn.Close()
}
