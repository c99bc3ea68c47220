package service

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	getter "github.com/hashicorp/go-getter/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
)

// SourceService fetches specification documents that events only refer to.
type SourceService interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

type sourceService struct {
	logger   zerolog.Logger
	cacheDir string
}

func NewSourceService(logger *zerolog.Logger) SourceService {
	serviceLogger := logger.With().Str("component", "SourceService").Logger()

	cacheDir := config.GetenvStr("QUAESTOR_CACHE_DIR")
	if cacheDir == "" {
		serviceLogger.Debug().Msg("Falling back to XDG cache directory")
		cacheDir = xdg.CacheHome + "/quaestor"
	}

	return &sourceService{
		logger:   serviceLogger,
		cacheDir: cacheDir + "/sources",
	}
}

func (self *sourceService) Fetch(ctx context.Context, ref string) ([]byte, error) {
	dst, err := filepath.Abs(self.cacheDir + "/" + base64.RawURLEncoding.EncodeToString([]byte(ref)))
	if err != nil {
		return nil, err
	}

	self.logger.Debug().Str("ref", ref).Str("dst", dst).Msg("Fetching specification")

	result, err := getter.GetFile(ctx, dst, ref)
	if err != nil {
		return nil, domain.Transient(errors.WithMessagef(err, "Could not fetch %q", ref))
	}
	if result.Dst != dst {
		return nil, errors.Errorf("go-getter wrote %q instead of %q", result.Dst, dst)
	}

	content, err := os.ReadFile(dst)
	return content, errors.WithMessagef(err, "Could not read fetched %q", ref)
}
