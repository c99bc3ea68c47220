package normalize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
)

func newNormalizer() *Normalizer {
	return New(config.DefaultPipelineConfig().Normalize)
}

// document wraps path items into a minimal OpenAPI document.
func document(paths string, components string) []byte {
	if components == "" {
		components = "{}"
	}
	return []byte(fmt.Sprintf(`{
		"openapi": "3.0.3",
		"info": {"title": "Users", "version": "1.0.0"},
		"paths": %s,
		"components": {"schemas": %s}
	}`, paths, components))
}

const usersPaths = `{
	"/users": {
		"post": {
			"operationId": "createUser",
			"requestBody": {"content": {"application/json": {"schema": {
				"type": "object",
				"required": ["name", "email"],
				"properties": {
					"name": {"type": "string"},
					"email": {"type": "string", "format": "email"}
				}
			}}}},
			"responses": {"201": {"description": "created"}, "422": {"description": "invalid"}, "400": {"description": "bad"}}
		}
	}
}`

func TestNormalizeUsers(t *testing.T) {
	t.Parallel()

	// when
	result, err := newNormalizer().Normalize(document(usersPaths, ""))

	// then
	require.NoError(t, err)
	spec := result.Specification
	assert.Equal(t, "Users", spec.Title)
	require.Len(t, spec.Operations, 1)

	op := spec.Operations[0]
	assert.Equal(t, "POST /users", op.ID)
	assert.Equal(t, "createUser", op.OperationID)
	assert.Equal(t, []int{201}, op.ExpectedStatus)
	assert.Equal(t, []int{400, 422}, op.ErrorStatus)
	assert.NotEmpty(t, op.Fingerprint)

	root, ok := spec.Graph.Node(op.RequestSchema)
	require.True(t, ok)
	assert.Equal(t, domain.SchemaObject, root.Type)
	assert.Equal(t, []string{"name", "email"}, root.Required)

	email, ok := spec.Graph.Property(op.RequestSchema, "email")
	require.True(t, ok)
	assert.Equal(t, domain.SchemaString, email.Type)
	assert.Equal(t, "email", email.Format)
	assert.Empty(t, result.Findings)
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	t.Parallel()

	tries := map[string][]byte{
		"not a document": []byte(`{"openapi": `),
		"no version":     []byte(`{"info": {"title": "x", "version": "1"}, "paths": {"/x": {}}}`),
		"no paths":       document(`{}`, ""),
		"external ref":   document(`{"/x": {"post": {"requestBody": {"content": {"application/json": {"schema": {"$ref": "other.json#/User"}}}}, "responses": {"200": {"description": "ok"}}}}}`, ""),
		"unresolved ref": document(`{"/x": {"post": {"requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Missing"}}}}, "responses": {"200": {"description": "ok"}}}}}`, ""),
	}

	for name, raw := range tries {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := newNormalizer().Normalize(raw)

			assert.True(t, domain.IsMalformed(err), "expected malformed error, got %v", err)
		})
	}
}

func TestNormalizeSkipsInvalidOperation(t *testing.T) {
	t.Parallel()

	// given
	raw := document(`{
		"/tags": {"post": {
			"requestBody": {"content": {"application/json": {"schema": {"type": "object", "properties": {"tags": {"type": "array"}}}}}},
			"responses": {"200": {"description": "ok"}}
		}},
		"/users": {"post": {
			"requestBody": {"content": {"application/json": {"schema": {"type": "object", "properties": {"name": {"type": "string"}}}}}},
			"responses": {"200": {"description": "ok"}}
		}}
	}`, "")

	// when
	result, err := newNormalizer().Normalize(raw)

	// then
	require.NoError(t, err)
	require.Len(t, result.Specification.Operations, 1)
	assert.Equal(t, "POST /users", result.Specification.Operations[0].ID)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, domain.WarningInvalidSchema, result.Findings[0].Kind)
	assert.Equal(t, "POST /tags", result.Findings[0].OperationID)
	assert.Contains(t, result.Findings[0].Message, "array without items")
	// only the surviving operation's nodes remain
	assert.Len(t, result.Specification.Graph.Nodes, 2)
}

func TestNormalizeRecursiveSchema(t *testing.T) {
	t.Parallel()

	// given
	raw := document(`{"/nodes": {"post": {
		"requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Node"}}}},
		"responses": {"200": {"description": "ok"}}
	}}}`, `{"Node": {
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"},
			"children": {"type": "array", "items": {"$ref": "#/components/schemas/Node"}}
		}
	}}`)

	// when
	result, err := newNormalizer().Normalize(raw)

	// then
	require.NoError(t, err)
	graph := result.Specification.Graph
	op := result.Specification.Operations[0]

	children, ok := graph.Property(op.RequestSchema, "children")
	require.True(t, ok)
	items, ok := graph.Node(children.Items)
	require.True(t, ok)
	assert.True(t, items.Recursive)
	assert.Equal(t, "#/components/schemas/Node", items.Ref)
}

func TestNormalizeComposition(t *testing.T) {
	t.Parallel()

	// given
	raw := document(`{"/pets": {"post": {
		"requestBody": {"content": {"application/json": {"schema": {
			"type": "object",
			"required": ["owner", "pet"],
			"properties": {
				"owner": {"allOf": [
					{"type": "object", "required": ["id"], "properties": {"id": {"type": "integer"}}},
					{"type": "object", "properties": {"nick": {"type": "string"}}}
				]},
				"pet": {"oneOf": [
					{"type": "object", "required": ["bark"], "properties": {"bark": {"type": "boolean"}}},
					{"type": "object", "required": ["meow"], "properties": {"meow": {"type": "boolean"}}}
				]}
			}
		}}}},
		"responses": {"200": {"description": "ok"}}
	}}}`, "")

	// when
	result, err := newNormalizer().Normalize(raw)

	// then
	require.NoError(t, err)
	graph := result.Specification.Graph
	root := result.Specification.Operations[0].RequestSchema

	owner, ok := graph.Property(root, "owner")
	require.True(t, ok)
	assert.Equal(t, domain.SchemaObject, owner.Type)
	assert.Equal(t, domain.UnionNone, owner.Union)
	assert.Equal(t, []string{"id", "nick"}, owner.PropertyNames())
	assert.Equal(t, []string{"id"}, owner.Required)

	pet, ok := graph.Property(root, "pet")
	require.True(t, ok)
	assert.Equal(t, domain.UnionOneOf, pet.Union)
	assert.Len(t, pet.Branches, 2)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	t.Parallel()

	first, err := newNormalizer().Normalize(document(usersPaths, ""))
	require.NoError(t, err)
	second, err := newNormalizer().Normalize(document(usersPaths, ""))
	require.NoError(t, err)

	assert.Equal(t, first.Specification, second.Specification)
}

func TestQuality(t *testing.T) {
	t.Parallel()

	rich := domain.SchemaGraph{}
	name := rich.Add(domain.SchemaNode{Type: domain.SchemaString, Example: "Ada", Items: domain.NoNode})
	rich.Add(domain.SchemaNode{Type: domain.SchemaObject, Required: []string{"name"}, Properties: map[string]domain.NodeID{"name": name}, Items: domain.NoNode})

	poor := domain.SchemaGraph{}
	untyped := poor.Add(domain.SchemaNode{Items: domain.NoNode})
	poor.Add(domain.SchemaNode{Type: domain.SchemaObject, Properties: map[string]domain.NodeID{"x": untyped}, Items: domain.NoNode, Example: "oops"})

	assert.Equal(t, 1.0, Quality(rich))
	assert.Less(t, Quality(poor), 0.5)
	assert.Equal(t, 1.0, Quality(domain.SchemaGraph{}))
}

func TestDetectDrift(t *testing.T) {
	t.Parallel()

	// given
	previous, err := newNormalizer().Normalize(document(usersPaths, ""))
	require.NoError(t, err)

	retyped, err := newNormalizer().Normalize(document(`{
		"/users": {"post": {
			"requestBody": {"content": {"application/json": {"schema": {
				"type": "object",
				"required": ["name"],
				"properties": {"name": {"type": "integer"}}
			}}}},
			"responses": {"201": {"description": "created"}}
		}}
	}`, ""))
	require.NoError(t, err)

	unchanged, err := newNormalizer().Normalize(document(usersPaths, ""))
	require.NoError(t, err)

	// when
	findings := DetectDrift(&previous.Specification, &retyped.Specification)
	none := DetectDrift(&previous.Specification, &unchanged.Specification)

	// then
	assert.True(t, retyped.Specification.Operations[0].Stale)
	require.Len(t, findings, 2)
	assert.Contains(t, findings[0].Message, `property "email" removed`)
	assert.Contains(t, findings[1].Message, `property "name" changed type`)

	assert.Empty(t, none)
	assert.False(t, unchanged.Specification.Operations[0].Stale)
}
