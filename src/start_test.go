package quaestor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/quaestor/src/application/assemble"
	"github.com/input-output-hk/quaestor/src/application/component"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
	"github.com/input-output-hk/quaestor/src/domain/repository"
)

const usersSpec = `{
	"openapi": "3.0.3",
	"info": {"title": "Users", "version": "1"},
	"paths": {
		"/users": {"post": {
			"operationId": "createUser",
			"requestBody": {"content": {"application/json": {"schema": {
				"type": "object",
				"required": ["name", "email"],
				"properties": {
					"name": {"type": "string"},
					"email": {"type": "string", "format": "email"}
				}
			}}}},
			"responses": {"201": {"description": "created"}, "400": {"description": "invalid"}}
		}}
	}
}`

type memoryOpts struct {
	secret []byte
}

func (self memoryOpts) NewDB(context.Context, *zerolog.Logger) (*pgxpool.Pool, error) {
	return nil, nil
}

func (self memoryOpts) GetPipelineConfig() (config.PipelineConfig, error) {
	cfg := config.DefaultPipelineConfig()
	cfg.Retry.InitialInterval = time.Millisecond
	cfg.Retry.MaxInterval = 4 * time.Millisecond
	return cfg, cfg.Validate()
}

func (self memoryOpts) GetWebConfig() (config.WebConfig, error) {
	return config.WebConfig{Listen: "127.0.0.1:0", WebhookSecret: self.secret}, nil
}

func (self memoryOpts) GetAuthContext() assemble.AuthContext {
	return assemble.AuthContext{}
}

func TestWebhookToCommit(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.Nop()
	secret := []byte("s3cr3t")
	instance, err := NewInstance(context.Background(), memoryOpts{secret: secret}, &logger)
	require.NoError(t, err)
	defer instance.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = instance.Scheduler.Start(ctx) }()

	router := instance.Web.Router()
	body, err := json.Marshal(component.InboundEvent{
		EventID:   "evt-1",
		SpecRef:   "users",
		Content:   []byte(usersSpec),
		EventType: domain.ChangeEventCreated,
	})
	require.NoError(t, err)

	// when
	apitest.New().Handler(router).
		Post("/api/webhook").
		Header(component.SignatureHeader, component.Sign(secret, body)).
		Body(string(body)).
		Expect(t).
		Status(http.StatusAccepted).
		End()

	// then
	var item *domain.ReviewItem
	require.Eventually(t, func() bool {
		items, err := instance.Web.ReviewService.GetPage(ctx, repository.NewPage(0, 0), domain.ReviewPending)
		if err != nil {
			return false
		}
		for _, candidate := range items {
			if candidate.Lineage.OperationID == "POST /users" {
				item = candidate
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	apitest.New().Handler(router).
		Post("/api/review/"+item.ID.String()+"/approve").
		JSON(`{"version":1,"reviewer":"alice"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(func(res *http.Response, _ *http.Request) error {
			var approved domain.ReviewItem
			if err := json.NewDecoder(res.Body).Decode(&approved); err != nil {
				return err
			}
			assert.Equal(t, domain.ReviewApproved, approved.State)
			assert.True(t, strings.HasPrefix(approved.CommitRef, "local-"), approved.CommitRef)
			return nil
		}).
		End()

	apitest.New().Handler(router).
		Post("/api/webhook").
		Header(component.SignatureHeader, component.Sign(secret, body)).
		Body(string(body)).
		Expect(t).
		Status(http.StatusAccepted).
		Assert(func(res *http.Response, _ *http.Request) error {
			var ack component.Ack
			if err := json.NewDecoder(res.Body).Decode(&ack); err != nil {
				return err
			}
			assert.Equal(t, component.AckDuplicate, ack.Status)
			return nil
		}).
		End()
}

func TestPreview(t *testing.T) {
	t.Parallel()

	// given
	logger := zerolog.Nop()
	file := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(file, []byte(usersSpec), 0o644))

	var out bytes.Buffer
	cmd := &PreviewCmd{File: file, Frameworks: []string{"pytest"}, Output: &out}

	// when
	err := cmd.Run(&logger)

	// then
	require.NoError(t, err)
	assert.Contains(t, out.String(), "def test_users_post_users_valid(")
	assert.Contains(t, out.String(), "POST /users")
	assert.Contains(t, out.String(), "users_post_users")
}

func TestPreviewMissingFile(t *testing.T) {
	t.Parallel()

	logger := zerolog.Nop()
	cmd := &PreviewCmd{File: filepath.Join(t.TempDir(), "missing.json"), Output: &bytes.Buffer{}}

	assert.Error(t, cmd.Run(&logger))
}
