package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipelineConfigIsValid(t *testing.T) {
	t.Parallel()

	conf := DefaultPipelineConfig()

	assert.NoError(t, conf.Validate())
	assert.Equal(t, 5, conf.Synthesis.MaxVariants)
	assert.Equal(t, 10, conf.Synthesis.MaxDepth)
	assert.Equal(t, 3, conf.Retry.MaxAttempts)
	assert.Equal(t, 4*time.Second, conf.Retry.MaxInterval)
}

func TestLoadPipelineConfigFromFileAndEnv(t *testing.T) {
	// given
	file := filepath.Join(t.TempDir(), "quaestor.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
synthesis:
  max_variants: 7
breaker:
  cooldown: 1m
frameworks: [jest, gotest]
`), 0o600))
	t.Setenv("QUAESTOR_MAX_DEPTH", "4")
	t.Setenv("QUAESTOR_AUTO_APPROVE", "true")

	// when
	conf, err := LoadPipelineConfig(file)

	// then
	require.NoError(t, err)
	assert.Equal(t, 7, conf.Synthesis.MaxVariants)
	assert.Equal(t, 4, conf.Synthesis.MaxDepth)
	assert.Equal(t, time.Minute, conf.Breaker.Cooldown)
	assert.Equal(t, []string{"jest", "gotest"}, conf.Frameworks)
	assert.True(t, conf.Review.AutoApproveClean)
	assert.Equal(t, 400, conf.Synthesis.ClientErrorStatus)
}

func TestLoadPipelineConfigRejectsInvalidEnv(t *testing.T) {
	t.Setenv("QUAESTOR_WORKERS", "many")

	_, err := LoadPipelineConfig("")

	assert.Error(t, err)
}

func TestNewWebConfigReadsSecret(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	secret := filepath.Join(dir, "secret")
	require.NoError(t, os.WriteFile(secret, []byte("s3cret\n"), 0o600))

	conf, err := NewWebConfig(":8080", secret)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), conf.WebhookSecret)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = NewWebConfig(":8080", empty)
	assert.Error(t, err)
}
