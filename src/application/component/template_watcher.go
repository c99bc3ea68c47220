package component

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/quaestor/src/application/service"
)

// TemplateWatcher reloads the templates whenever the override directory changes.
type TemplateWatcher struct {
	logger          zerolog.Logger
	templateService service.TemplateService
	settle          time.Duration
}

func NewTemplateWatcher(templateService service.TemplateService, logger *zerolog.Logger) *TemplateWatcher {
	return &TemplateWatcher{
		logger:          logger.With().Str("component", "TemplateWatcher").Logger(),
		templateService: templateService,
		settle:          250 * time.Millisecond,
	}
}

func (self *TemplateWatcher) Start(ctx context.Context) error {
	dir := self.templateService.Dir()
	if dir == "" {
		self.logger.Debug().Msg("No template directory configured")
		<-ctx.Done()
		return nil
	}

	self.logger.Info().Str("dir", dir).Msg("Starting")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithMessage(err, "Could not create file watcher")
	}
	defer watcher.Close()

	if err := self.watch(watcher, dir); err != nil {
		return err
	}

	// Editors write files in several steps so reloads wait for the directory to settle.
	timer := time.NewTimer(self.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("File watcher closed its event channel")
			}
			if !relevant(event.Name) {
				continue
			}
			self.logger.Trace().Str("file", event.Name).Str("op", event.Op.String()).Msg("Template changed")

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := self.watch(watcher, event.Name); err != nil {
						self.logger.Err(err).Str("dir", event.Name).Msg("Could not watch new directory")
					}
				}
			}
			timer.Reset(self.settle)

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("File watcher closed its error channel")
			}
			self.logger.Err(err).Msg("File watcher error")

		case <-timer.C:
			if err := self.templateService.Reload(); err != nil {
				// keep serving the previous templates
				self.logger.Err(err).Msg("Could not reload templates")
			}
		}
	}
}

// watch adds dir and all directories below it.
func (self *TemplateWatcher) watch(watcher *fsnotify.Watcher, dir string) error {
	if err := watcher.Add(dir); err != nil {
		return errors.WithMessagef(err, "Could not watch %q", dir)
	}
	return doublestar.GlobWalk(os.DirFS(dir), "**", func(path string, entry fs.DirEntry) error {
		if !entry.IsDir() || path == "." {
			return nil
		}
		return errors.WithMessagef(watcher.Add(filepath.Join(dir, path)), "Could not watch %q", path)
	})
}

func relevant(name string) bool {
	switch filepath.Ext(name) {
	case ".tmpl", ".yaml":
		return true
	case "":
		return !strings.HasPrefix(filepath.Base(name), ".")
	}
	return false
}
