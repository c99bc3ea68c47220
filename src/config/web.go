package config

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
)

type WebConfig struct {
	Listen        string
	WebhookSecret []byte
}

func NewWebConfig(listen, webhookSecretFile string) (WebConfig, error) {
	self := WebConfig{Listen: listen}

	if v, err := os.ReadFile(webhookSecretFile); err != nil {
		return self, errors.WithMessage(err, "While reading webhook secret")
	} else if v = bytes.TrimSpace(v); len(v) == 0 {
		return self, errors.Errorf("Webhook secret file %q is empty", webhookSecretFile)
	} else {
		self.WebhookSecret = v
	}

	return self, nil
}
