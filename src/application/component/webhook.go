package component

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/direnv/direnv/v2/pkg/sri"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/application/service"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

const (
	SignatureHeader = "X-Quaestor-Signature-256"
	signaturePrefix = "sha256="
)

// InboundEvent is the webhook payload.
// Content is base64 in JSON. Without it the document is fetched from Source, or from SpecRef.
type InboundEvent struct {
	EventID    string                 `json:"event_id"`
	SpecRef    string                 `json:"spec_ref"`
	Content    []byte                 `json:"content"`
	Source     string                 `json:"source,omitempty"`
	EventType  domain.ChangeEventType `json:"event_type"`
	Operations []string               `json:"operations,omitempty"`
}

type AckStatus string

const (
	AckAccepted  AckStatus = "accepted"
	AckDuplicate AckStatus = "duplicate"
)

type Ack struct {
	ID          uuid.UUID `json:"id"`
	EventID     string    `json:"event_id"`
	ContentHash string    `json:"content_hash"`
	Status      AckStatus `json:"status"`
}

// MalformedEventError reports a payload that cannot be turned into a ChangeEvent.
type MalformedEventError struct {
	Reason string
}

func (self *MalformedEventError) Error() string {
	return "Malformed event: " + self.Reason
}

// Sign computes the signature header value of body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func verify(secret, body []byte, signature string) error {
	if signature == "" {
		return &domain.AuthError{Reason: "missing signature"}
	}
	if !strings.HasPrefix(signature, signaturePrefix) {
		return &domain.AuthError{Reason: "unsupported signature scheme"}
	}
	given, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return &domain.AuthError{Reason: "signature is not hex encoded"}
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(given, mac.Sum(nil)) {
		return &domain.AuthError{Reason: "signature mismatch"}
	}
	return nil
}

type WebhookIngestor struct {
	logger        zerolog.Logger
	secret        []byte
	events        repository.ChangeEventRepository
	sourceService service.SourceService
	scheduler     *Scheduler
	metrics       *config.Metrics
}

func NewWebhookIngestor(secret []byte, events repository.ChangeEventRepository, sourceService service.SourceService, scheduler *Scheduler, metrics *config.Metrics, logger *zerolog.Logger) *WebhookIngestor {
	return &WebhookIngestor{
		logger:        logger.With().Str("component", "WebhookIngestor").Logger(),
		secret:        secret,
		events:        events,
		sourceService: sourceService,
		scheduler:     scheduler,
		metrics:       metrics,
	}
}

// Receive verifies, deduplicates and schedules one webhook delivery.
// Nothing is recorded unless the signature is valid.
func (self *WebhookIngestor) Receive(ctx context.Context, body []byte, signature string) (ack Ack, err error) {
	outcome := "accepted"
	defer func() {
		if err != nil {
			outcome = outcomeOf(err)
		}
		self.metrics.EventsReceived.WithLabelValues(outcome).Inc()
	}()

	if err = verify(self.secret, body, signature); err != nil {
		self.logger.Warn().Err(err).Msg("Rejected webhook delivery")
		return
	}

	var inbound InboundEvent
	if err = json.Unmarshal(body, &inbound); err != nil {
		err = &MalformedEventError{Reason: err.Error()}
		return
	}
	if err = inbound.validate(); err != nil {
		return
	}

	event, err := self.changeEvent(ctx, &inbound, signature)
	if err != nil {
		return
	}

	reservation, err := self.scheduler.Reserve()
	if err != nil {
		self.logger.Warn().Str("spec_ref", event.SpecRef).Msg("Scheduler is saturated")
		return
	}
	defer reservation.Release()

	created, err := self.events.Insert(ctx, event)
	if err != nil {
		err = errors.WithMessagef(err, "Could not record event %q", event.EventID)
		return
	}

	ack = Ack{
		ID:          event.ID,
		EventID:     event.EventID,
		ContentHash: event.ContentHash,
		Status:      AckAccepted,
	}

	if !created {
		outcome = string(AckDuplicate)
		ack.Status = AckDuplicate
		if existing, getErr := self.events.GetByKey(ctx, event.Key()); getErr == nil {
			ack.ID = existing.ID
			ack.EventID = existing.EventID
		}
		self.logger.Debug().
			Str("spec_ref", event.SpecRef).
			Str("content_hash", event.ContentHash).
			Msg("Ignoring duplicate ChangeEvent")
		return
	}

	self.logger.Info().
		Str("spec_ref", event.SpecRef).
		Str("event_id", event.EventID).
		Str("type", event.Type.String()).
		Msg("Accepted ChangeEvent")

	reservation.Enqueue(event)
	return
}

func (self *InboundEvent) validate() error {
	switch {
	case self.EventID == "":
		return &MalformedEventError{Reason: "event_id is required"}
	case self.SpecRef == "":
		return &MalformedEventError{Reason: "spec_ref is required"}
	}
	return nil
}

func (self *WebhookIngestor) changeEvent(ctx context.Context, inbound *InboundEvent, signature string) (*domain.ChangeEvent, error) {
	content := inbound.Content
	if len(content) == 0 && inbound.EventType != domain.ChangeEventDeleted {
		source := inbound.Source
		if source == "" {
			source = inbound.SpecRef
		}

		fetched, err := self.sourceService.Fetch(ctx, source)
		if err != nil {
			return nil, errors.WithMessagef(err, "Could not fetch content of %q", inbound.SpecRef)
		}
		content = fetched
	}

	hash, err := contentHash(inbound.EventType, content)
	if err != nil {
		return nil, err
	}

	return &domain.ChangeEvent{
		ID:           uuid.New(),
		EventID:      inbound.EventID,
		SpecRef:      inbound.SpecRef,
		ContentHash:  hash,
		Type:         inbound.EventType,
		OperationSet: inbound.Operations,
		Signature:    signature,
		Status:       domain.ChangeEventAccepted,
		ReceivedAt:   time.Now().UTC(),
		Content:      content,
	}, nil
}

// contentHash keys an event by its document.
// Deletions carry no document, so they are keyed by their type.
func contentHash(eventType domain.ChangeEventType, content []byte) (string, error) {
	hash := sri.NewWriter(io.Discard, sri.SHA256)
	if eventType == domain.ChangeEventDeleted {
		if _, err := io.WriteString(hash, eventType.String()+"\x00"); err != nil {
			return "", err
		}
	}
	if _, err := io.Copy(hash, bytes.NewReader(content)); err != nil {
		return "", errors.WithMessage(err, "Could not hash content")
	}
	return hash.Sum().String(), nil
}

func outcomeOf(err error) string {
	var malformed *MalformedEventError
	var transient *domain.TransientError
	switch {
	case domain.IsAuthError(err):
		return "unauthorized"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.Is(err, ErrSaturated):
		return "saturated"
	case errors.As(err, &transient):
		return "unavailable"
	default:
		return "error"
	}
}
