package documents_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/speechmark/internal/documents"
	"github.com/JaimeStill/speechmark/internal/labels"
	"github.com/JaimeStill/speechmark/internal/tokens"
	"github.com/JaimeStill/speechmark/pkg/lifecycle"
	"github.com/JaimeStill/speechmark/pkg/pagination"
)

type mockSystem struct {
	revised   []documents.Revision
	forgotten []string
	fetchFn   func(ctx context.Context, key string) ([]tokens.Token, error)
	statusFn  func(ctx context.Context, key string) (documents.Status, error)
	listFn    func(ctx context.Context, page pagination.PageRequest) (pagination.PageResult[documents.Status], error)
}

func (m *mockSystem) Revise(rev documents.Revision) { m.revised = append(m.revised, rev) }

func (m *mockSystem) Forget(key string) { m.forgotten = append(m.forgotten, key) }

func (m *mockSystem) RemapLabels(update labels.Update) {}

func (m *mockSystem) Start(lc *lifecycle.Coordinator) error { return nil }

func (m *mockSystem) FetchTokens(ctx context.Context, key string) ([]tokens.Token, error) {
	return m.fetchFn(ctx, key)
}

func (m *mockSystem) Status(ctx context.Context, key string) (documents.Status, error) {
	return m.statusFn(ctx, key)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest) (pagination.PageResult[documents.Status], error) {
	return m.listFn(ctx, page)
}

func (m *mockSystem) Handler(fetchTimeout time.Duration, maxBodySize int64) *documents.Handler {
	return newTestHandler(m, fetchTimeout)
}

func newTestHandler(sys documents.System, fetchTimeout time.Duration) *documents.Handler {
	return documents.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		fetchTimeout,
		1024,
	)
}

func setupMux(h *documents.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRevise(t *testing.T) {
	sys := &mockSystem{}
	mux := setupMux(sys.Handler(time.Second, 1024))

	rec := serve(mux, "POST", "/documents/revise", `{"key":"notes.txt","text":"hello","version":3}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, sys.revised, 1)
	assert.Equal(t, documents.Revision{Key: "notes.txt", Text: "hello", Version: 3}, sys.revised[0])

	rec = serve(mux, "POST", "/documents/revise", `{"text":"no key"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, "POST", "/documents/revise", `{"key":"a","text":"`+strings.Repeat("x", 2048)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, sys.revised, 1)
}

func TestHandlerForget(t *testing.T) {
	sys := &mockSystem{}
	mux := setupMux(sys.Handler(time.Second, 1024))

	rec := serve(mux, "POST", "/documents/forget", `{"key":"notes.txt"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"notes.txt"}, sys.forgotten)
}

func TestHandlerTokens(t *testing.T) {
	tests := []struct {
		name       string
		fetch      func(ctx context.Context, key string) ([]tokens.Token, error)
		wantStatus int
		wantBody   string
	}{
		{
			name: "answered",
			fetch: func(ctx context.Context, key string) ([]tokens.Token, error) {
				return []tokens.Token{{DeltaLine: 0, DeltaStart: 0, Length: 3, Type: 15, Modifiers: 256}}, nil
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"data":[0,0,3,15,256]}`,
		},
		{
			name: "closed without result",
			fetch: func(ctx context.Context, key string) ([]tokens.Token, error) {
				return nil, documents.ErrNoResult
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "timed out",
			fetch: func(ctx context.Context, key string) ([]tokens.Token, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "stopped",
			fetch: func(ctx context.Context, key string) ([]tokens.Token, error) {
				return nil, documents.ErrStopped
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{fetchFn: tt.fetch}
			mux := setupMux(sys.Handler(20*time.Millisecond, 1024))

			rec := serve(mux, "GET", "/documents/tokens?key=a", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestHandlerTokensRequiresKey(t *testing.T) {
	mux := setupMux(newTestHandler(&mockSystem{}, time.Second))
	assert.Equal(t, http.StatusBadRequest, serve(mux, "GET", "/documents/tokens", "").Code)
}

func TestHandlerStatus(t *testing.T) {
	version := int32(2)
	sys := &mockSystem{
		statusFn: func(ctx context.Context, key string) (documents.Status, error) {
			if key != "a" {
				return documents.Status{}, documents.ErrNotFound
			}
			return documents.Status{Key: "a", Version: &version}, nil
		},
	}
	mux := setupMux(newTestHandler(sys, time.Second))

	rec := serve(mux, "GET", "/documents/status?key=a", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got documents.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "a", got.Key)
	assert.Equal(t, int32(2), *got.Version)

	assert.Equal(t, http.StatusNotFound, serve(mux, "GET", "/documents/status?key=b", "").Code)
}

func TestHandlerList(t *testing.T) {
	var captured pagination.PageRequest
	sys := &mockSystem{
		listFn: func(ctx context.Context, page pagination.PageRequest) (pagination.PageResult[documents.Status], error) {
			captured = page
			return pagination.NewPageResult([]documents.Status{{Key: "a"}}, 1, page.Page, page.PageSize), nil
		},
	}
	mux := setupMux(newTestHandler(sys, time.Second))

	rec := serve(mux, "GET", "/documents?page=2&page_size=5&search=no", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, captured.Page)
	assert.Equal(t, 5, captured.PageSize)
	require.NotNil(t, captured.Search)
	assert.Equal(t, "no", *captured.Search)
}
