package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type NormalizePolicy struct {
	MaxSchemaDepth   int     `yaml:"max_schema_depth"`
	QualityThreshold float64 `yaml:"quality_threshold"`
}

type SynthesisPolicy struct {
	MaxVariants       int `yaml:"max_variants"`
	MaxDepth          int `yaml:"max_depth"`
	OptionalPercent   int `yaml:"optional_percent"`
	ClientErrorStatus int `yaml:"client_error_status"`
	SuccessStatus     int `yaml:"success_status"`
}

type RetryPolicy struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	Multiplier      float64       `yaml:"multiplier"`
}

type BreakerPolicy struct {
	Threshold int           `yaml:"threshold"`
	Cooldown  time.Duration `yaml:"cooldown"`
}

type SchedulerPolicy struct {
	Workers    int `yaml:"workers"`
	MaxPending int `yaml:"max_pending"`
}

type ReviewPolicy struct {
	AutoApproveClean bool   `yaml:"auto_approve_clean"`
	Branch           string `yaml:"branch"`
	BulkConcurrency  int    `yaml:"bulk_concurrency"`
}

type VcsConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type AlertConfig struct {
	NatsURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// PipelineConfig is the tunable policy of the whole pipeline.
// It is built from defaults, then an optional YAML file, then the environment.
type PipelineConfig struct {
	Normalize   NormalizePolicy `yaml:"normalize"`
	Synthesis   SynthesisPolicy `yaml:"synthesis"`
	Retry       RetryPolicy     `yaml:"retry"`
	Breaker     BreakerPolicy   `yaml:"breaker"`
	Scheduler   SchedulerPolicy `yaml:"scheduler"`
	Review      ReviewPolicy    `yaml:"review"`
	Frameworks  []string        `yaml:"frameworks"`
	TemplateDir string          `yaml:"template_dir"`
	Vcs         VcsConfig       `yaml:"vcs"`
	Alert       AlertConfig     `yaml:"alert"`
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Normalize: NormalizePolicy{
			MaxSchemaDepth:   32,
			QualityThreshold: 0.5,
		},
		Synthesis: SynthesisPolicy{
			MaxVariants:       5,
			MaxDepth:          10,
			OptionalPercent:   10,
			ClientErrorStatus: 400,
			SuccessStatus:     200,
		},
		Retry: RetryPolicy{
			MaxAttempts:     3,
			InitialInterval: time.Second,
			MaxInterval:     4 * time.Second,
			Multiplier:      2,
		},
		Breaker: BreakerPolicy{
			Threshold: 5,
			Cooldown:  30 * time.Second,
		},
		Scheduler: SchedulerPolicy{
			Workers:    8,
			MaxPending: 1024,
		},
		Review: ReviewPolicy{
			Branch:          "quaestor/generated-tests",
			BulkConcurrency: 4,
		},
		Frameworks: []string{"pytest"},
		Alert: AlertConfig{
			Subject: "quaestor.alert",
		},
	}
}

func LoadPipelineConfig(file string) (PipelineConfig, error) {
	self := DefaultPipelineConfig()

	if file != "" {
		if content, err := os.ReadFile(file); err != nil {
			return self, errors.WithMessagef(err, "While reading pipeline config %q", file)
		} else if err := yaml.Unmarshal(content, &self); err != nil {
			return self, errors.WithMessagef(err, "While parsing pipeline config %q", file)
		}
	}

	if err := self.applyEnv(); err != nil {
		return self, errors.WithMessage(err, "While reading pipeline config from environment")
	}

	return self, self.Validate()
}

func (self *PipelineConfig) applyEnv() error {
	ints := map[string]*int{
		"QUAESTOR_MAX_SCHEMA_DEPTH":    &self.Normalize.MaxSchemaDepth,
		"QUAESTOR_MAX_VARIANTS":        &self.Synthesis.MaxVariants,
		"QUAESTOR_MAX_DEPTH":           &self.Synthesis.MaxDepth,
		"QUAESTOR_OPTIONAL_PERCENT":    &self.Synthesis.OptionalPercent,
		"QUAESTOR_CLIENT_ERROR_STATUS": &self.Synthesis.ClientErrorStatus,
		"QUAESTOR_RETRY_ATTEMPTS":      &self.Retry.MaxAttempts,
		"QUAESTOR_BREAKER_THRESHOLD":   &self.Breaker.Threshold,
		"QUAESTOR_WORKERS":             &self.Scheduler.Workers,
		"QUAESTOR_MAX_PENDING":         &self.Scheduler.MaxPending,
	}
	for key, dst := range ints {
		if v, err := GetenvInt(key); err != nil {
			return errors.WithMessage(err, key)
		} else if v != nil {
			*dst = *v
		}
	}

	if v, err := GetenvFloat("QUAESTOR_QUALITY_THRESHOLD"); err != nil {
		return errors.WithMessage(err, "QUAESTOR_QUALITY_THRESHOLD")
	} else if v != nil {
		self.Normalize.QualityThreshold = *v
	}

	if v, err := GetenvDuration("QUAESTOR_BREAKER_COOLDOWN"); err != nil {
		return errors.WithMessage(err, "QUAESTOR_BREAKER_COOLDOWN")
	} else if v != nil {
		self.Breaker.Cooldown = *v
	}

	if v, err := GetenvBool("QUAESTOR_AUTO_APPROVE"); err != nil {
		return errors.WithMessage(err, "QUAESTOR_AUTO_APPROVE")
	} else if v != nil {
		self.Review.AutoApproveClean = *v
	}

	strs := map[string]*string{
		"QUAESTOR_TEMPLATE_DIR":  &self.TemplateDir,
		"QUAESTOR_BRANCH":        &self.Review.Branch,
		"QUAESTOR_VCS_URL":       &self.Vcs.URL,
		"QUAESTOR_VCS_TOKEN":     &self.Vcs.Token,
		"QUAESTOR_NATS_URL":      &self.Alert.NatsURL,
		"QUAESTOR_ALERT_SUBJECT": &self.Alert.Subject,
	}
	for key, dst := range strs {
		if v := GetenvStr(key); v != "" {
			*dst = v
		}
	}

	if v := GetenvStr("QUAESTOR_FRAMEWORKS"); v != "" {
		self.Frameworks = nil
		for _, framework := range strings.Split(v, ",") {
			if framework = strings.TrimSpace(framework); framework != "" {
				self.Frameworks = append(self.Frameworks, framework)
			}
		}
	}

	return nil
}

func (self PipelineConfig) Validate() error {
	switch {
	case self.Synthesis.MaxVariants < 0:
		return errors.New("max_variants must not be negative")
	case self.Synthesis.MaxDepth < 1:
		return errors.New("max_depth must be at least 1")
	case self.Synthesis.OptionalPercent < 0 || self.Synthesis.OptionalPercent > 100:
		return errors.New("optional_percent must be within [0, 100]")
	case self.Normalize.MaxSchemaDepth < 1:
		return errors.New("max_schema_depth must be at least 1")
	case self.Normalize.QualityThreshold < 0 || self.Normalize.QualityThreshold > 1:
		return errors.New("quality_threshold must be within [0, 1]")
	case self.Retry.MaxAttempts < 1:
		return errors.New("retry max_attempts must be at least 1")
	case self.Breaker.Threshold < 1:
		return errors.New("breaker threshold must be at least 1")
	case self.Scheduler.Workers < 1:
		return errors.New("scheduler workers must be at least 1")
	case self.Scheduler.MaxPending < 1:
		return errors.New("scheduler max_pending must be at least 1")
	case len(self.Frameworks) == 0:
		return errors.New("at least one framework must be configured")
	}
	return nil
}
