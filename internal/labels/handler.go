package labels

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/speechmark/pkg/handlers"
	"github.com/JaimeStill/speechmark/pkg/openapi"
	"github.com/JaimeStill/speechmark/pkg/routes"
)

// Handler exposes the label map over HTTP. Updates are handed to remap so
// that they are ordered with document traffic.
type Handler struct {
	labels      *Map
	remap       func(Update)
	logger      *slog.Logger
	maxBodySize int64
}

// NewHandler creates a Handler reading from m and writing through remap.
func NewHandler(m *Map, remap func(Update), logger *slog.Logger, maxBodySize int64) *Handler {
	return &Handler{
		labels:      m,
		remap:       remap,
		logger:      logger.With("handler", "labels"),
		maxBodySize: maxBodySize,
	}
}

// Routes returns the route group definition for label endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/labels",
		Tags:   []string{"Labels"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Get, OpenAPI: labelOps.Get},
			{Method: "PATCH", Pattern: "", Handler: h.Patch, OpenAPI: labelOps.Patch},
			{Method: "GET", Pattern: "/legend", Handler: h.Legend, OpenAPI: labelOps.Legend},
		},
	}
}

// Get returns the active category table. Suppressed categories are absent.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Table(h.labels.Snapshot()))
}

// Patch merges an update into the label map.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, err)
		return
	}

	update, err := ParseUpdate(data)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.remap(update)
	handlers.RespondJSON(w, http.StatusAccepted, update)
}

// Legend returns the token type and modifier names in index order.
func (h *Handler) Legend(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, NewLegend())
}

var labelOps = struct {
	Get    *openapi.Operation
	Patch  *openapi.Operation
	Legend *openapi.Operation
}{
	Get: &openapi.Operation{
		OperationID: "getLabels",
		Summary:     "Active label map",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Category to token descriptor table", "LabelTable"),
		},
	},
	Patch: &openapi.Operation{
		OperationID: "remapLabels",
		Summary:     "Merge a label map update",
		Description: "Categories mapped to null are suppressed. Categories not named keep their mapping.",
		RequestBody: openapi.RequestBodyJSON("LabelUpdate", true),
		Responses: map[int]*openapi.Response{
			202: openapi.ResponseJSON("Update accepted", "LabelUpdate"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Legend: &openapi.Operation{
		OperationID: "getLegend",
		Summary:     "Semantic token legend",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Token type and modifier names", "Legend"),
		},
	},
}

// Schemas returns the component schemas referenced by label routes.
func Schemas() map[string]*openapi.Schema {
	legend := NewLegend()
	types := make([]any, len(legend.TokenTypes))
	for i, t := range legend.TokenTypes {
		types[i] = t
	}
	mods := make([]any, len(legend.TokenModifiers))
	for i, m := range legend.TokenModifiers {
		mods[i] = m
	}

	descriptor := &openapi.Schema{
		Type:     "object",
		Required: []string{"type"},
		Properties: map[string]*openapi.Schema{
			"type":      {Type: "string", Enum: types},
			"modifiers": {Type: "array", Items: &openapi.Schema{Type: "string", Enum: mods}},
		},
	}

	return map[string]*openapi.Schema{
		"Descriptor": descriptor,
		"LabelTable": {
			Type:        "object",
			Description: "Keyed by category label, for example NN or VBD",
		},
		"LabelUpdate": {
			Type:        "object",
			Description: "Keyed by category label; a null value suppresses the category",
			Example: map[string]any{
				"CC": map[string]any{"type": "modifier", "modifiers": []string{"readonly"}},
				"IN": nil,
			},
		},
		"Legend": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"tokenTypes":     {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"tokenModifiers": {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
	}
}
