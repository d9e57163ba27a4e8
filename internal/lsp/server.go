// Package lsp serves semantic tokens to editors over JSON-RPC 2.0, on
// stdio or over a WebSocket.
package lsp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sourcegraph/jsonrpc2"
	wsstream "github.com/sourcegraph/jsonrpc2/websocket"

	"github.com/JaimeStill/speechmark/internal/documents"
	"github.com/JaimeStill/speechmark/pkg/lifecycle"
	"github.com/JaimeStill/speechmark/pkg/middleware"
)

// DocumentKey is the coordinator key for uri as opened by the session
// with the given ID.
func DocumentKey(sessionID, uri string) string {
	return "lsp:" + sessionID + ":" + uri
}

// Server translates LSP traffic into document coordinator operations.
// Every connection is an independent session with its own document keys
// in one shared coordinator.
type Server struct {
	docs     documents.System
	logger   *slog.Logger
	version  string
	upgrader websocket.Upgrader

	ctx      context.Context
	sessions sync.WaitGroup

	active   prometheus.Gauge
	requests *prometheus.CounterVec
}

// NewServer creates a Server. Browser WebSocket clients are accepted only
// from origins listed in origins ("*" allows any); clients that send no
// Origin header are always accepted. Metrics are registered with reg when
// it is non-nil.
func NewServer(
	docs documents.System,
	reg prometheus.Registerer,
	logger *slog.Logger,
	version string,
	origins []string,
) *Server {
	factory := promauto.With(reg)

	s := &Server{
		docs:    docs,
		logger:  logger.With("system", "lsp"),
		version: version,
		ctx:     context.Background(),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "speechmark",
			Subsystem: "lsp",
			Name:      "sessions",
			Help:      "Open LSP sessions.",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "speechmark",
			Subsystem: "lsp",
			Name:      "messages_total",
			Help:      "LSP requests and notifications received, by method.",
		}, []string{"method"}),
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return middleware.OriginAllowed(origins, origin)
		},
	}

	return s
}

// Start binds sessions to the lifecycle context. Shutdown waits for open
// sessions to end, which happens once the context is cancelled.
func (s *Server) Start(lc *lifecycle.Coordinator) error {
	s.ctx = lc.Context()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		s.sessions.Wait()
		s.logger.Info("lsp sessions closed")
	})
	return nil
}

// Serve runs one session over stream. It returns when the peer disconnects,
// sends exit, or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, stream jsonrpc2.ObjectStream) {
	s.sessions.Add(1)
	defer s.sessions.Done()

	s.active.Inc()
	defer s.active.Dec()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := newSession(s, cancel)

	var opts []jsonrpc2.ConnOpt
	if s.logger.Enabled(ctx, slog.LevelDebug) {
		opts = append(opts, jsonrpc2.LogMessages(slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug)))
	}
	conn := jsonrpc2.NewConn(ctx, stream, sess, opts...)

	s.logger.Info("lsp session opened")

	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		conn.Close()
	}

	sess.close()
	s.logger.Info("lsp session closed")
}

// ServeStdio runs a session over an editor's stdin and stdout using
// Content-Length framing.
func (s *Server) ServeStdio(ctx context.Context, in io.ReadCloser, out io.WriteCloser) {
	stream := jsonrpc2.NewBufferedStream(stdio{in: in, out: out}, jsonrpc2.VSCodeObjectCodec{})
	s.Serve(ctx, stream)
}

// ServeHTTP upgrades the request to a WebSocket and runs a session on it.
// The session is bound to the server lifecycle rather than the request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}
	s.Serve(s.ctx, wsstream.NewObjectStream(ws))
}

type stdio struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s stdio) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdio) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s stdio) Close() error {
	inErr := s.in.Close()
	if err := s.out.Close(); err != nil {
		return err
	}
	return inErr
}
