package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/application/assemble"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
)

type CommitResult struct {
	Branch string `json:"branch"`
	Path   string `json:"path"`
	Ref    string `json:"ref"`
}

type VcsService interface {
	Commit(ctx context.Context, artifact *domain.TestArtifact, branch string) (CommitResult, error)
}

// ArtifactPath is where an artifact lives in the repository, e.g. "pytest/users_api_post_users.py".
func ArtifactPath(artifact *domain.TestArtifact, templates assemble.TemplateProvider) string {
	extension := ""
	if tmpl, ok := templates.Get(artifact.Framework); ok {
		extension = tmpl.Conventions.Extension
	}
	return fmt.Sprintf("%s/%s%s", artifact.Framework, artifact.SuiteID, extension)
}

// NewVcsService talks to the commit endpoint of cfg.URL,
// or only logs commits if no URL is configured.
func NewVcsService(cfg config.VcsConfig, templates assemble.TemplateProvider, logger *zerolog.Logger) VcsService {
	if cfg.URL == "" {
		return &logVcsService{
			logger:    logger.With().Str("component", "VcsService").Logger(),
			templates: templates,
		}
	}

	serviceLogger := logger.With().Str("component", "VcsService").Logger()

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 4 * time.Second
	client.Logger = leveledLogger{serviceLogger}

	return &httpVcsService{
		logger:    serviceLogger,
		client:    client,
		url:       strings.TrimSuffix(cfg.URL, "/") + "/commits",
		token:     cfg.Token,
		templates: templates,
	}
}

type httpVcsService struct {
	logger    zerolog.Logger
	client    *retryablehttp.Client
	url       string
	token     string
	templates assemble.TemplateProvider
}

type commitRequest struct {
	Branch  string `json:"branch"`
	Path    string `json:"path"`
	Content string `json:"content"`
	Message string `json:"message"`
}

func (self *httpVcsService) Commit(ctx context.Context, artifact *domain.TestArtifact, branch string) (CommitResult, error) {
	result := CommitResult{Branch: branch, Path: ArtifactPath(artifact, self.templates)}

	body, err := json.Marshal(commitRequest{
		Branch:  branch,
		Path:    result.Path,
		Content: artifact.Content,
		Message: fmt.Sprintf("Update %s tests of %s (version %d)", artifact.Framework, artifact.OperationID, artifact.Version),
	})
	if err != nil {
		return result, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, self.url, bytes.NewReader(body))
	if err != nil {
		return result, &domain.CommitError{Branch: branch, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if self.token != "" {
		req.Header.Set("Authorization", "Bearer "+self.token)
	}

	res, err := self.client.Do(req)
	if err != nil {
		return result, &domain.CommitError{Branch: branch, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return result, &domain.CommitError{
			Branch: branch,
			Err:    errors.Errorf("%s: %s", res.Status, bytes.TrimSpace(msg)),
		}
	}

	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return result, &domain.CommitError{Branch: branch, Err: errors.WithMessage(err, "Could not decode commit response")}
	}

	self.logger.Info().
		Str("branch", branch).
		Str("path", result.Path).
		Str("ref", result.Ref).
		Msg("Committed TestArtifact")

	return result, nil
}

type logVcsService struct {
	logger    zerolog.Logger
	templates assemble.TemplateProvider
}

func (self *logVcsService) Commit(_ context.Context, artifact *domain.TestArtifact, branch string) (CommitResult, error) {
	result := CommitResult{
		Branch: branch,
		Path:   ArtifactPath(artifact, self.templates),
		Ref:    "local-" + artifact.ID.String(),
	}
	self.logger.Info().
		Str("branch", branch).
		Str("path", result.Path).
		Int("version", artifact.Version).
		Msg("No VCS configured, not committing TestArtifact")
	return result, nil
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger zerolog.Logger
}

func (self leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	self.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (self leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	self.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (self leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	self.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (self leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	self.logger.Warn().Fields(keysAndValues).Msg(msg)
}
