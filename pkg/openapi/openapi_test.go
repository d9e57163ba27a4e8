package openapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/speechmark/pkg/openapi"
)

func TestNewSpec(t *testing.T) {
	cfg := &openapi.Config{}
	require.NoError(t, cfg.Finalize(nil))

	spec := openapi.NewSpec(cfg, "1.2.0")
	assert.Equal(t, "3.1.0", spec.OpenAPI)
	assert.Equal(t, "speechmark API", spec.Info.Title)
	assert.Equal(t, "1.2.0", spec.Info.Version)
	assert.Contains(t, spec.Components.Responses, "BadRequest")
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("TEST_OPENAPI_TITLE", "Tagger")

	cfg := &openapi.Config{}
	require.NoError(t, cfg.Finalize(&openapi.ConfigEnv{Title: "TEST_OPENAPI_TITLE"}))
	assert.Equal(t, "Tagger", cfg.Title)
}

func TestAddOperation(t *testing.T) {
	spec := openapi.NewSpec(&openapi.Config{}, "1.0.0")

	require.NoError(t, spec.AddOperation("get", "/labels", &openapi.Operation{Summary: "get"}))
	require.NoError(t, spec.AddOperation("PATCH", "/labels", &openapi.Operation{Summary: "patch"}))
	assert.Error(t, spec.AddOperation("TRACE", "/labels", &openapi.Operation{}))

	item := spec.Paths["/labels"]
	require.NotNil(t, item)
	assert.Equal(t, "get", item.Get.Summary)
	assert.Equal(t, "patch", item.Patch.Summary)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "#/components/schemas/Status", openapi.SchemaRef("Status").Ref)
	assert.Equal(t, "#/components/responses/NotFound", openapi.ResponseRef("NotFound").Ref)

	rb := openapi.RequestBodyJSON("Revision", true)
	assert.True(t, rb.Required)
	assert.Equal(t, "#/components/schemas/Revision", rb.Content["application/json"].Schema.Ref)

	q := openapi.QueryParam("key", "string", "Document key", true)
	assert.Equal(t, "query", q.In)
	assert.Len(t, openapi.PageParams(), 4)
}

func TestServeSpec(t *testing.T) {
	spec := openapi.NewSpec(&openapi.Config{Title: "t"}, "1.0.0")
	spec.AddServer("http://localhost:8080")

	handler, err := openapi.ServeSpec(spec)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "3.1.0", decoded["openapi"])
}
