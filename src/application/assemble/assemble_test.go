package assemble

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/quaestor/src/domain"
)

func builtin(t *testing.T) *Registry {
	t.Helper()
	templates, err := Builtin()
	require.NoError(t, err)
	return NewRegistry(templates...)
}

func fixture() (*domain.Specification, *domain.Operation, *domain.TestDataSet) {
	spec := &domain.Specification{
		ID:      uuid.New(),
		SpecRef: "users-api",
		Quality: 0.9,
	}
	op := &domain.Operation{
		ID:             "POST /users",
		Path:           "/users",
		Method:         "POST",
		ExpectedStatus: []int{201},
		ErrorStatus:    []int{400},
	}
	data := &domain.TestDataSet{
		ID:            uuid.New(),
		OperationID:   op.ID,
		ValidInstance: map[string]any{"name": "example", "email": "user@example.com"},
		ValidStatus:   201,
		InvalidVariants: []domain.InvalidVariant{
			{
				Instance:       map[string]any{"email": "user@example.com"},
				MutationKind:   domain.MutationMissingRequired,
				Field:          "name",
				ExpectedStatus: 400,
			},
			{
				Instance:       map[string]any{"name": 12345, "email": "user@example.com"},
				MutationKind:   domain.MutationWrongType,
				Field:          "name",
				ExpectedStatus: 400,
			},
		},
	}
	return spec, op, data
}

func TestBuiltinTemplates(t *testing.T) {
	t.Parallel()

	registry := builtin(t)
	assert.Equal(t, []string{"gotest", "jest", "pytest"}, registry.Frameworks())

	for _, framework := range registry.Frameworks() {
		framework := framework
		t.Run(framework, func(t *testing.T) {
			t.Parallel()

			// given
			spec, op, data := fixture()

			// when
			artifact, err := New(registry, AuthContext{}).Assemble(spec, op, data, framework, Revision{Version: 1})

			// then
			require.NoError(t, err)
			assert.Empty(t, artifact.QualityFlags, artifact.Content)
			assert.Equal(t, "users_api_post_users", artifact.SuiteID)
			assert.Equal(t, domain.Lineage{SpecRef: "users-api", OperationID: "POST /users", Framework: framework}, artifact.Lineage)
			assert.Equal(t, data.ID, artifact.DataSetID)
			assert.Equal(t, spec.ID, artifact.SpecificationID)
			assert.Contains(t, artifact.Content, "201")
			assert.Contains(t, artifact.Content, "400")
		})
	}
}

func TestAssemblePytest(t *testing.T) {
	t.Parallel()

	// given
	spec, op, data := fixture()

	// when
	artifact, err := New(builtin(t), AuthContext{Header: "Authorization"}).Assemble(spec, op, data, "pytest", Revision{Version: 3})

	// then
	require.NoError(t, err)
	assert.Equal(t, 3, artifact.Version)
	assert.Contains(t, artifact.Content, "suite users_api_post_users, version 3")
	assert.Contains(t, artifact.Content, "def test_users_api_post_users_valid(api_client, auth_headers):")
	assert.Contains(t, artifact.Content, "def test_users_api_post_users_missing_required_name(api_client, auth_headers):")
	assert.Contains(t, artifact.Content, "def test_users_api_post_users_wrong_type_name(api_client, auth_headers):")
	assert.Contains(t, artifact.Content, `json=json.loads("{\"email\":\"user@example.com\",\"name\":\"example\"}"),`)
	assert.Contains(t, artifact.Content, "assert response.status_code == 201")
	assert.Equal(t, 2, strings.Count(artifact.Content, "assert response.status_code == 400"))
}

func TestAssembleIsPure(t *testing.T) {
	t.Parallel()

	// given
	spec, op, data := fixture()
	assembler := New(builtin(t), AuthContext{})

	// when
	first, err := assembler.Assemble(spec, op, data, "jest", Revision{Version: 1})
	require.NoError(t, err)
	second, err := assembler.Assemble(spec, op, data, "jest", Revision{Version: 1})
	require.NoError(t, err)

	// then
	assert.Equal(t, first.Content, second.Content)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAssembleRevision(t *testing.T) {
	t.Parallel()

	// given
	spec, op, data := fixture()
	previous := uuid.New()

	// when
	artifact, err := New(builtin(t), AuthContext{}).Assemble(spec, op, data, "gotest", Revision{Version: 2, Supersedes: &previous})

	// then
	require.NoError(t, err)
	assert.Equal(t, 2, artifact.Version)
	assert.Equal(t, &previous, artifact.Supersedes)
	assert.Contains(t, artifact.Content, "func TestUsersApiPostUsersValid(t *testing.T) {")
}

func TestAssembleMissingTemplate(t *testing.T) {
	t.Parallel()

	// given
	spec, op, data := fixture()

	// when
	_, err := New(NewRegistry(), AuthContext{}).Assemble(spec, op, data, "rspec", Revision{Version: 1})

	// then
	var assemblyErr *domain.AssemblyError
	require.ErrorAs(t, err, &assemblyErr)
	assert.Equal(t, domain.AssemblyMissingTemplate, assemblyErr.Kind)
	assert.Equal(t, "rspec", assemblyErr.Framework)
}

func TestQualityConflict(t *testing.T) {
	t.Parallel()

	// given
	conventions := Conventions{
		SharedFixtures: []string{"api_client"},
		FixturePattern: `(?m)^@pytest\.fixture[^\n]*\n(?:async )?def (\w+)`,
		CasePattern:    `(?m)^def (test_\w+)`,
	}
	tmpl, err := Parse("pytest", `
{{- define "header" }}
@pytest.fixture
def api_client():
    return LocalClient()
{{ end }}
{{- define "case" }}
def test_{{ .Suite }}_{{ .Case.Name }}(api_client):
    assert api_client.post({{ .Operation.Path | quote }}).status_code == {{ .ExpectedStatus }}
{{ end }}`, conventions)
	require.NoError(t, err)
	spec, op, data := fixture()

	// when
	artifact, err := New(NewRegistry(tmpl), AuthContext{}).Assemble(spec, op, data, "pytest", Revision{Version: 1})

	// then
	require.NoError(t, err)
	assert.Equal(t, []domain.QualityFlag{domain.FlagQualityConflict}, artifact.QualityFlags)
	assert.Equal(t, []domain.QualityFlag{domain.FlagQualityConflict}, artifact.BlockingFlags())
}

func TestMissingMarker(t *testing.T) {
	t.Parallel()

	// given
	conventions := Conventions{
		Markers: []MarkerRule{{Trigger: `(?m)^async def test_`, Marker: "@pytest.mark.asyncio"}},
	}
	tmpl, err := Parse("pytest", `
{{- define "case" }}
async def test_{{ .Case.Name }}(api_client):
    assert (await api_client.post({{ .Operation.Path | quote }})).status_code == {{ .ExpectedStatus }}
{{ end }}`, conventions)
	require.NoError(t, err)
	spec, op, data := fixture()

	// when
	artifact, err := New(NewRegistry(tmpl), AuthContext{}).Assemble(spec, op, data, "pytest", Revision{Version: 1})

	// then
	require.NoError(t, err)
	assert.Equal(t, []domain.QualityFlag{domain.FlagMissingMarker}, artifact.QualityFlags)
}

func TestDuplicateCaseAndLowQuality(t *testing.T) {
	t.Parallel()

	// given
	spec, op, data := fixture()
	spec.LowQuality = true
	data.InvalidVariants = append(data.InvalidVariants, domain.InvalidVariant{
		Instance:       map[string]any{"name": "example", "email": "user@example.com", "profile": map[string]any{"name": 1}},
		MutationKind:   domain.MutationWrongType,
		Field:          "name.",
		ExpectedStatus: 400,
	})

	// when
	artifact, err := New(builtin(t), AuthContext{}).Assemble(spec, op, data, "pytest", Revision{Version: 1})

	// then
	require.NoError(t, err)
	assert.Equal(t, []domain.QualityFlag{domain.FlagDuplicateCase, domain.FlagLowQualitySpec}, artifact.QualityFlags)
	assert.Equal(t, []domain.QualityFlag{domain.FlagDuplicateCase}, artifact.BlockingFlags())
}

func TestParseRequiresCaseBlock(t *testing.T) {
	t.Parallel()

	_, err := Parse("pytest", `{{ define "header" }}import pytest{{ end }}`, Conventions{})
	assert.ErrorContains(t, err, `"case"`)

	_, err = Parse("pytest", `{{ define "case" }}{{ end }}`, Conventions{FixturePattern: "("})
	assert.ErrorContains(t, err, "fixture_pattern")
}

func TestSlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "users_api_post_users_id", Slug("users-api POST /users/{id}"))
	assert.Equal(t, "profile_age", Slug("profile.age"))
	assert.Equal(t, "", Slug("$"))
}
