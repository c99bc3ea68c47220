package service

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/application/assemble"
)

// TemplateService keeps the template registry in sync with the
// built-in templates and an optional override directory.
type TemplateService interface {
	Registry() *assemble.Registry
	Dir() string
	Reload() error
}

type templateService struct {
	logger   zerolog.Logger
	dir      string
	registry *assemble.Registry
}

func NewTemplateService(dir string, logger *zerolog.Logger) (TemplateService, error) {
	self := &templateService{
		logger:   logger.With().Str("component", "TemplateService").Logger(),
		dir:      dir,
		registry: assemble.NewRegistry(),
	}
	return self, self.Reload()
}

func (self *templateService) Registry() *assemble.Registry {
	return self.registry
}

func (self *templateService) Dir() string {
	return self.dir
}

func (self *templateService) Reload() error {
	templates, err := assemble.Builtin()
	if err != nil {
		return errors.WithMessage(err, "Could not load built-in templates")
	}

	if self.dir != "" {
		overrides, err := assemble.Load(os.DirFS(self.dir))
		if err != nil {
			return errors.WithMessagef(err, "Could not load templates from %q", self.dir)
		}
		templates = append(templates, overrides...)
	}

	self.registry.Set(templates...)

	self.logger.Info().
		Str("dir", self.dir).
		Strs("frameworks", self.registry.Frameworks()).
		Msg("Loaded templates")
	return nil
}
