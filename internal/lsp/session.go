package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/JaimeStill/speechmark/internal/documents"
	"github.com/JaimeStill/speechmark/internal/labels"
	"github.com/JaimeStill/speechmark/internal/tokens"
)

// session holds per-connection state. Handle runs on the connection's
// read loop, so notifications reach the coordinator in arrival order.
// Each session owns its documents: coordinator keys are scoped by the
// session ID, so two editors with the same URI open never share a
// watermark, a stored document or reply slots.
type session struct {
	id     string
	srv    *Server
	logger *slog.Logger
	stop   context.CancelFunc

	mu       sync.Mutex
	open     map[string]struct{}
	inflight map[jsonrpc2.ID]context.CancelFunc
	shutdown bool
	fetches  sync.WaitGroup
}

func newSession(srv *Server, stop context.CancelFunc) *session {
	id := uuid.NewString()
	return &session{
		id:       id,
		srv:      srv,
		logger:   srv.logger.With("session", id),
		stop:     stop,
		open:     make(map[string]struct{}),
		inflight: make(map[jsonrpc2.ID]context.CancelFunc),
	}
}

func (s *session) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	s.srv.requests.WithLabelValues(req.Method).Inc()

	if s.closing() && req.Method != MethodExit {
		s.reply(ctx, conn, req, nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidRequest,
			Message: "server is shutting down",
		})
		return
	}

	switch req.Method {
	case MethodInitialize:
		result, err := s.initialize(req)
		s.reply(ctx, conn, req, result, err)
	case MethodInitialized:
		s.logger.Debug("client initialized")
	case MethodDidOpen:
		s.notify(req, s.didOpen)
	case MethodDidChange:
		s.notify(req, s.didChange)
	case MethodDidClose:
		s.notify(req, s.didClose)
	case MethodDidChangeConfiguration:
		s.notify(req, s.didChangeConfiguration)
	case MethodSemanticTokensFull:
		s.semanticTokens(ctx, conn, req)
	case MethodCancelRequest:
		s.notify(req, s.cancel)
	case MethodShutdown:
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		s.reply(ctx, conn, req, nil, nil)
	case MethodExit:
		s.stop()
	default:
		if req.Notif {
			s.logger.Debug("notification ignored", "method", req.Method)
			return
		}
		s.reply(ctx, conn, req, nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("method not supported: %s", req.Method),
		})
	}
}

func (s *session) initialize(req *jsonrpc2.Request) (any, error) {
	var params InitializeParams
	if req.Params != nil {
		if err := decode(req, &params); err != nil {
			return nil, err
		}
	}

	if params.ClientInfo != nil {
		s.logger.Info("client connected",
			"client", params.ClientInfo.Name,
			"version", params.ClientInfo.Version,
		)
	}
	if params.InitializationOptions != nil {
		if err := s.remap(params.InitializationOptions.TokenMap); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
	}

	return InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TextDocumentSyncFull,
			SemanticTokensProvider: SemanticTokensOptions{
				Legend: labels.NewLegend(),
				Full:   true,
			},
		},
		ServerInfo: &ServerInfo{Name: "speechmark", Version: s.srv.version},
	}, nil
}

func (s *session) didOpen(req *jsonrpc2.Request) error {
	var params DidOpenParams
	if err := decode(req, &params); err != nil {
		return err
	}

	doc := params.TextDocument
	s.track(doc.URI)
	s.srv.docs.Revise(documents.Revision{Key: s.key(doc.URI), Text: doc.Text, Version: doc.Version})
	return nil
}

func (s *session) didChange(req *jsonrpc2.Request) error {
	var params DidChangeParams
	if err := decode(req, &params); err != nil {
		return err
	}
	if len(params.ContentChanges) == 0 {
		return nil
	}

	change := params.ContentChanges[len(params.ContentChanges)-1]
	if change.Range != nil {
		return fmt.Errorf("incremental change for %s: only full document sync is supported", params.TextDocument.URI)
	}

	doc := params.TextDocument
	s.track(doc.URI)
	s.srv.docs.Revise(documents.Revision{Key: s.key(doc.URI), Text: change.Text, Version: doc.Version})
	return nil
}

func (s *session) didClose(req *jsonrpc2.Request) error {
	var params DidCloseParams
	if err := decode(req, &params); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.open, params.TextDocument.URI)
	s.mu.Unlock()

	s.srv.docs.Forget(s.key(params.TextDocument.URI))
	return nil
}

func (s *session) didChangeConfiguration(req *jsonrpc2.Request) error {
	var params DidChangeConfigurationParams
	if err := decode(req, &params); err != nil {
		return err
	}
	if params.Settings == nil {
		return nil
	}
	return s.remap(params.Settings.TokenMap)
}

func (s *session) cancel(req *jsonrpc2.Request) error {
	var params CancelParams
	if err := decode(req, &params); err != nil {
		return err
	}

	s.mu.Lock()
	cancel, ok := s.inflight[params.ID]
	s.mu.Unlock()

	if ok {
		cancel()
	}
	return nil
}

// semanticTokens answers on its own goroutine so that a waiting request
// does not hold up the notifications that will eventually satisfy it.
func (s *session) semanticTokens(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	var params SemanticTokensParams
	if err := decode(req, &params); err != nil {
		s.reply(ctx, conn, req, nil, err)
		return
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.inflight[req.ID] = cancel
	s.mu.Unlock()

	s.fetches.Go(func() {
		defer func() {
			s.mu.Lock()
			delete(s.inflight, req.ID)
			s.mu.Unlock()
			cancel()
		}()

		uri := params.TextDocument.URI
		toks, err := s.srv.docs.FetchTokens(fetchCtx, s.key(uri))
		switch {
		case err == nil:
			s.reply(ctx, conn, req, SemanticTokens{Data: tokens.Flatten(toks)}, nil)
		case errors.Is(err, documents.ErrNoResult):
			s.logger.Debug("semantic tokens closed without result", "uri", uri)
			s.reply(ctx, conn, req, nil, nil)
		case errors.Is(err, context.Canceled) && ctx.Err() == nil:
			s.reply(ctx, conn, req, nil, &jsonrpc2.Error{
				Code:    CodeRequestCancelled,
				Message: "request cancelled",
			})
		case ctx.Err() != nil:
		default:
			s.reply(ctx, conn, req, nil, err)
		}
	})
}

func (s *session) remap(raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}

	update, err := labels.ParseUpdate(raw)
	if err != nil {
		return fmt.Errorf("tokenMap: %w", err)
	}
	s.srv.docs.RemapLabels(update)
	s.logger.Info("token map updated", "categories", len(update))
	return nil
}

// key scopes uri to this session in the shared coordinator.
func (s *session) key(uri string) string {
	return DocumentKey(s.id, uri)
}

func (s *session) track(uri string) {
	s.mu.Lock()
	s.open[uri] = struct{}{}
	s.mu.Unlock()
}

func (s *session) closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// close forgets documents the client left open and waits for in-flight
// token requests to finish.
func (s *session) close() {
	s.mu.Lock()
	for _, cancel := range s.inflight {
		cancel()
	}
	open := s.open
	s.open = make(map[string]struct{})
	s.mu.Unlock()

	for uri := range open {
		s.srv.docs.Forget(s.key(uri))
	}
	s.fetches.Wait()
}

func (s *session) notify(req *jsonrpc2.Request, fn func(*jsonrpc2.Request) error) {
	if err := fn(req); err != nil {
		s.logger.Warn("notification rejected", "method", req.Method, "error", err)
	}
}

func (s *session) reply(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, result any, err error) {
	if req.Notif {
		if err != nil {
			s.logger.Warn("notification rejected", "method", req.Method, "error", err)
		}
		return
	}

	var sendErr error
	if err != nil {
		var rpcErr *jsonrpc2.Error
		if !errors.As(err, &rpcErr) {
			rpcErr = &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
		}
		sendErr = conn.ReplyWithError(ctx, req.ID, rpcErr)
	} else {
		sendErr = conn.Reply(ctx, req.ID, result)
	}
	if sendErr != nil && !errors.Is(sendErr, jsonrpc2.ErrClosed) {
		s.logger.Warn("reply failed", "method", req.Method, "error", sendErr)
	}
}

func decode(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}
