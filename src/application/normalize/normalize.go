// Package normalize turns raw OpenAPI documents into specifications
// whose request schemas live in a flat node arena.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
)

// Finding is a non-fatal problem found while normalizing or comparing revisions.
type Finding struct {
	OperationID string
	Kind        domain.WarningKind
	Message     string
}

type Result struct {
	// Specification has every field set except identity and revision.
	Specification domain.Specification
	Findings      []Finding
}

type Normalizer struct {
	MaxSchemaDepth   int
	QualityThreshold float64
}

func New(policy config.NormalizePolicy) *Normalizer {
	return &Normalizer{
		MaxSchemaDepth:   policy.MaxSchemaDepth,
		QualityThreshold: policy.QualityThreshold,
	}
}

func (self *Normalizer) Normalize(raw []byte) (result Result, err error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return result, &domain.SpecError{Kind: domain.SpecMalformed, Reason: "could not load document", Err: err}
	}
	if doc.OpenAPI == "" {
		return result, &domain.SpecError{Kind: domain.SpecMalformed, Reason: "missing openapi version"}
	}
	if len(doc.Paths) == 0 {
		return result, &domain.SpecError{Kind: domain.SpecMalformed, Reason: "document declares no paths"}
	}

	spec := &result.Specification
	if doc.Info != nil {
		spec.Title = doc.Info.Title
	}

	paths := maps.Keys(doc.Paths)
	slices.Sort(paths)
	for _, path := range paths {
		item := doc.Paths[path]
		if item == nil {
			continue
		}

		operations := item.Operations()
		methods := maps.Keys(operations)
		slices.Sort(methods)
		for _, method := range methods {
			op, finding := self.operation(&spec.Graph, path, method, operations[method])
			if finding != nil {
				result.Findings = append(result.Findings, *finding)
				continue
			}
			spec.Operations = append(spec.Operations, op)
		}
	}

	spec.Quality = Quality(spec.Graph)
	spec.LowQuality = spec.Quality < self.QualityThreshold

	return result, nil
}

func (self *Normalizer) operation(graph *domain.SchemaGraph, path, method string, source *openapi3.Operation) (domain.Operation, *Finding) {
	op := domain.Operation{
		ID:            domain.OperationKey(method, path),
		Path:          path,
		Method:        strings.ToUpper(method),
		OperationID:   source.OperationID,
		RequestSchema: domain.NoNode,
	}

	for code := range source.Responses {
		status, err := strconv.Atoi(code)
		if err != nil {
			continue
		}
		switch {
		case status >= 200 && status < 300:
			op.ExpectedStatus = append(op.ExpectedStatus, status)
		case status >= 400 && status < 500:
			op.ErrorStatus = append(op.ErrorStatus, status)
		}
	}
	slices.Sort(op.ExpectedStatus)
	slices.Sort(op.ErrorStatus)

	if schema := requestSchema(source); schema != nil {
		mark := len(graph.Nodes)
		root, err := newBuilder(graph, self.MaxSchemaDepth).build(schema, "", 0)
		if err != nil {
			// drop the partial subtree so the arena only holds valid operations
			graph.Nodes = graph.Nodes[:mark]
			return op, &Finding{
				OperationID: op.ID,
				Kind:        domain.WarningInvalidSchema,
				Message:     fmt.Sprintf("operation skipped: %s", err),
			}
		}
		op.RequestSchema = root
	}

	op.Fingerprint = Fingerprint(*graph, op)
	return op, nil
}

// requestSchema picks the JSON request body schema, if any.
func requestSchema(op *openapi3.Operation) *openapi3.SchemaRef {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	if media := content.Get("application/json"); media != nil {
		return media.Schema
	}

	types := maps.Keys(content)
	slices.Sort(types)
	for _, mime := range types {
		if strings.HasSuffix(mime, "+json") {
			return content[mime].Schema
		}
	}
	return nil
}
