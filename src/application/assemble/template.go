package assemble

import (
	"bytes"
	"embed"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

//go:embed templates
var builtinFS embed.FS

type MarkerRule struct {
	// Trigger matches a case that needs the marker.
	Trigger string `yaml:"trigger"`
	Marker  string `yaml:"marker"`

	trigger *regexp.Regexp
}

// Conventions describe how a framework shares fixtures and names its tests.
type Conventions struct {
	Extension      string       `yaml:"extension"`
	SharedFixtures []string     `yaml:"shared_fixtures"`
	FixturePattern string       `yaml:"fixture_pattern"`
	CasePattern    string       `yaml:"case_pattern"`
	Markers        []MarkerRule `yaml:"markers"`

	fixture  *regexp.Regexp
	caseName *regexp.Regexp
}

func (self *Conventions) compile() (err error) {
	if self.FixturePattern != "" {
		if self.fixture, err = regexp.Compile(self.FixturePattern); err != nil {
			return errors.WithMessage(err, "Invalid fixture_pattern")
		}
	}
	if self.CasePattern != "" {
		if self.caseName, err = regexp.Compile(self.CasePattern); err != nil {
			return errors.WithMessage(err, "Invalid case_pattern")
		}
	}
	for i := range self.Markers {
		if self.Markers[i].trigger, err = regexp.Compile(self.Markers[i].Trigger); err != nil {
			return errors.WithMessagef(err, "Invalid trigger of marker %q", self.Markers[i].Marker)
		}
	}
	return nil
}

// Template renders one framework. It must define a "case" block
// and may define "header" and "footer" blocks.
type Template struct {
	Framework   string
	Conventions Conventions

	tmpl *template.Template
}

func Parse(framework, source string, conventions Conventions) (*Template, error) {
	tmpl, err := template.New(framework).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(source)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not parse template for framework %q", framework)
	}
	if tmpl.Lookup("case") == nil {
		return nil, errors.Errorf("Template for framework %q does not define a \"case\" block", framework)
	}
	if err := conventions.compile(); err != nil {
		return nil, errors.WithMessagef(err, "While compiling conventions of framework %q", framework)
	}
	return &Template{Framework: framework, Conventions: conventions, tmpl: tmpl}, nil
}

func (self *Template) render(block string, ctx Context) (string, bool, error) {
	if self.tmpl.Lookup(block) == nil {
		return "", false, nil
	}
	var buf bytes.Buffer
	if err := self.tmpl.ExecuteTemplate(&buf, block, ctx); err != nil {
		return "", true, errors.WithMessagef(err, "Could not render %q block of framework %q", block, self.Framework)
	}
	return buf.String(), true, nil
}

type TemplateProvider interface {
	Get(framework string) (*Template, bool)
}

// Registry is a TemplateProvider whose templates can be replaced at runtime.
type Registry struct {
	lock      sync.RWMutex
	templates map[string]*Template
}

func NewRegistry(templates ...*Template) *Registry {
	self := &Registry{templates: map[string]*Template{}}
	self.Set(templates...)
	return self
}

func (self *Registry) Get(framework string) (*Template, bool) {
	self.lock.RLock()
	defer self.lock.RUnlock()
	t, ok := self.templates[framework]
	return t, ok
}

func (self *Registry) Set(templates ...*Template) {
	self.lock.Lock()
	defer self.lock.Unlock()
	for _, t := range templates {
		self.templates[t.Framework] = t
	}
}

func (self *Registry) Frameworks() []string {
	self.lock.RLock()
	defer self.lock.RUnlock()
	frameworks := maps.Keys(self.templates)
	slices.Sort(frameworks)
	return frameworks
}

// Load parses every "*.tmpl" file below the root of fsys together with
// the conventions in the ".yaml" file of the same name.
func Load(fsys fs.FS) ([]*Template, error) {
	files, err := doublestar.Glob(fsys, "**/*.tmpl")
	if err != nil {
		return nil, err
	}
	slices.Sort(files)

	templates := make([]*Template, 0, len(files))
	for _, file := range files {
		framework := strings.TrimSuffix(path.Base(file), ".tmpl")

		source, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, errors.WithMessagef(err, "While reading template %q", file)
		}

		var conventions Conventions
		if raw, err := fs.ReadFile(fsys, strings.TrimSuffix(file, ".tmpl")+".yaml"); err == nil {
			if err := yaml.Unmarshal(raw, &conventions); err != nil {
				return nil, errors.WithMessagef(err, "While parsing conventions of %q", file)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		t, err := Parse(framework, string(source), conventions)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// Builtin returns the embedded pytest, jest and gotest templates.
func Builtin() ([]*Template, error) {
	sub, err := fs.Sub(builtinFS, "templates")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}
