package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/speechmark/internal/tokens"
	"github.com/JaimeStill/speechmark/pkg/handlers"
	"github.com/JaimeStill/speechmark/pkg/pagination"
	"github.com/JaimeStill/speechmark/pkg/routes"
)

// Handler provides HTTP endpoints for the document coordinator.
type Handler struct {
	sys          System
	logger       *slog.Logger
	pagination   pagination.Config
	fetchTimeout time.Duration
	maxBodySize  int64
}

// ForgetRequest is the body of POST /documents/forget.
type ForgetRequest struct {
	Key string `json:"key"`
}

// TokensResponse carries flattened semantic tokens.
type TokensResponse struct {
	Data []uint32 `json:"data"`
}

// NewHandler creates a Handler. Token requests wait at most fetchTimeout.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	fetchTimeout time.Duration,
	maxBodySize int64,
) *Handler {
	return &Handler{
		sys:          sys,
		logger:       logger.With("handler", "documents"),
		pagination:   pagination,
		fetchTimeout: fetchTimeout,
		maxBodySize:  maxBodySize,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Tags:   []string{"Documents"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: docsOps.List},
			{Method: "GET", Pattern: "/status", Handler: h.Status, OpenAPI: docsOps.Status},
			{Method: "GET", Pattern: "/tokens", Handler: h.Tokens, OpenAPI: docsOps.Tokens},
			{Method: "POST", Pattern: "/revise", Handler: h.Revise, OpenAPI: docsOps.Revise},
			{Method: "POST", Pattern: "/forget", Handler: h.Forget, OpenAPI: docsOps.Forget},
		},
	}
}

// List returns a paginated list of document statuses.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Status returns the status of the document named by the key query parameter.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRevision)
		return
	}

	status, err := h.sys.Status(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, status)
}

// Revise accepts a revision for asynchronous classification.
func (h *Handler) Revise(w http.ResponseWriter, r *http.Request) {
	rev, err := handlers.DecodeJSON[Revision](w, r, h.maxBodySize)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if rev.Key == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRevision)
		return
	}

	h.sys.Revise(rev)
	handlers.RespondJSON(w, http.StatusAccepted, map[string]any{
		"key":     rev.Key,
		"version": rev.Version,
	})
}

// Forget drops a document and closes its pending token requests.
func (h *Handler) Forget(w http.ResponseWriter, r *http.Request) {
	req, err := handlers.DecodeJSON[ForgetRequest](w, r, h.maxBodySize)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if req.Key == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRevision)
		return
	}

	h.sys.Forget(req.Key)
	handlers.RespondJSON(w, http.StatusAccepted, req)
}

// Tokens waits for the semantic tokens of a document. It responds 204 when
// the request is closed without an answer or the wait times out.
func (h *Handler) Tokens(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRevision)
		return
	}

	ctx := r.Context()
	if h.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.fetchTimeout)
		defer cancel()
	}

	toks, err := h.sys.FetchTokens(ctx, key)
	switch {
	case err == nil:
		handlers.RespondJSON(w, http.StatusOK, TokensResponse{Data: tokens.Flatten(toks)})
	case errors.Is(err, ErrNoResult), errors.Is(err, context.DeadlineExceeded):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, context.Canceled):
		h.logger.Debug("token request abandoned", "key", key)
	default:
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), fmt.Errorf("fetch tokens: %w", err))
	}
}
