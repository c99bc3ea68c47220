package assemble

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/input-output-hk/quaestor/src/domain"
)

type AuthContext struct {
	Header string `json:"header,omitempty"`
	Scheme string `json:"scheme,omitempty"`
}

// Case is one rendered test case: the valid instance or one invalid variant.
type Case struct {
	Name           string
	Kind           string
	Field          string
	Body           any
	BodyJSON       string
	HasBody        bool
	ExpectedStatus int
	Index          int
}

func (self Case) Valid() bool {
	return self.Kind == "valid"
}

// Context is everything a template sees.
type Context struct {
	Operation      domain.Operation
	Case           Case
	Cases          []Case
	ExpectedStatus int
	AuthContext    AuthContext
	Suite          string
	Version        int
	Framework      string
}

// Revision places the artifact in its lineage.
type Revision struct {
	Version    int
	Supersedes *uuid.UUID
}

type Assembler struct {
	templates TemplateProvider
	auth      AuthContext
}

func New(templates TemplateProvider, auth AuthContext) *Assembler {
	return &Assembler{templates: templates, auth: auth}
}

func (self *Assembler) Assemble(spec *domain.Specification, op *domain.Operation, data *domain.TestDataSet, framework string, revision Revision) (*domain.TestArtifact, error) {
	tmpl, ok := self.templates.Get(framework)
	if !ok {
		return nil, &domain.AssemblyError{
			Kind:      domain.AssemblyMissingTemplate,
			Framework: framework,
			Reason:    "no template registered",
		}
	}

	if revision.Version < 1 {
		revision.Version = 1
	}

	cases, err := buildCases(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "While preparing cases of %s", op.ID)
	}

	ctx := Context{
		Operation:   *op,
		Cases:       cases,
		AuthContext: self.auth,
		Suite:       SuiteID(spec.SpecRef, op.ID),
		Version:     revision.Version,
		Framework:   framework,
	}

	var content strings.Builder
	if header, ok, err := tmpl.render("header", ctx); err != nil {
		return nil, err
	} else if ok {
		content.WriteString(header)
	}

	blocks := make([]string, 0, len(cases))
	for _, c := range cases {
		caseCtx := ctx
		caseCtx.Case = c
		caseCtx.ExpectedStatus = c.ExpectedStatus
		block, _, err := tmpl.render("case", caseCtx)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
		content.WriteString(block)
	}

	if footer, ok, err := tmpl.render("footer", ctx); err != nil {
		return nil, err
	} else if ok {
		content.WriteString(footer)
	}

	rendered := content.String()
	flags := inspect(&tmpl.Conventions, rendered, blocks)
	if spec.LowQuality {
		flags = append(flags, domain.FlagLowQualitySpec)
	}

	return &domain.TestArtifact{
		ID: uuid.New(),
		Lineage: domain.Lineage{
			SpecRef:     spec.SpecRef,
			OperationID: op.ID,
			Framework:   framework,
		},
		Version:         revision.Version,
		OperationID:     op.ID,
		SuiteID:         ctx.Suite,
		Framework:       framework,
		SpecificationID: spec.ID,
		DataSetID:       data.ID,
		Content:         rendered,
		QualityFlags:    sortFlags(flags),
		Supersedes:      revision.Supersedes,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func buildCases(data *domain.TestDataSet) ([]Case, error) {
	cases := make([]Case, 0, len(data.InvalidVariants)+1)

	valid, err := newCase(0, "valid", "", data.ValidInstance, data.ValidStatus)
	if err != nil {
		return nil, err
	}
	cases = append(cases, valid)

	for i, variant := range data.InvalidVariants {
		c, err := newCase(i+1, string(variant.MutationKind), variant.Field, variant.Instance, variant.ExpectedStatus)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func newCase(index int, kind, field string, body any, status int) (Case, error) {
	name := kind
	if field != "" {
		slug := Slug(field)
		if slug == "" {
			slug = "body"
		}
		name += "_" + slug
	}

	c := Case{
		Name:           name,
		Kind:           kind,
		Field:          field,
		Body:           body,
		HasBody:        body != nil,
		ExpectedStatus: status,
		Index:          index,
	}
	if c.HasBody {
		raw, err := json.Marshal(body)
		if err != nil {
			return c, errors.WithMessagef(err, "Could not encode body of case %q", name)
		}
		c.BodyJSON = string(raw)
	}
	return c, nil
}

// SuiteID names the suite of an operation, e.g. "users_api_post_users".
func SuiteID(specRef, operationID string) string {
	return Slug(specRef + " " + operationID)
}

// Slug lowercases s and collapses every run of other characters than
// letters and digits into one underscore.
func Slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		} else {
			pending = true
		}
	}
	return b.String()
}
