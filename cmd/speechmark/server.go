package main

import (
	"time"

	"github.com/JaimeStill/speechmark/internal/api"
	"github.com/JaimeStill/speechmark/internal/config"
	"github.com/JaimeStill/speechmark/internal/infrastructure"
	"github.com/JaimeStill/speechmark/internal/lsp"
	"github.com/JaimeStill/speechmark/pkg/middleware"
	"github.com/JaimeStill/speechmark/web/scalar"
)

// Server wires the HTTP API, the WebSocket LSP endpoint and the shared
// document coordinator.
type Server struct {
	infra   *infrastructure.Infrastructure
	runtime *api.Runtime
	domain  *api.Domain
	lsp     *lsp.Server
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, infra)
}

func newServer(cfg *config.Config, infra *infrastructure.Infrastructure) (*Server, error) {
	runtime := api.NewRuntime(cfg, infra)
	domain := api.NewDomain(cfg, runtime)

	apiModule, err := api.NewModule(cfg, runtime, domain)
	if err != nil {
		return nil, err
	}

	lspServer := lsp.NewServer(domain.Documents, infra.Registry, infra.Logger, cfg.Version, cfg.API.CORS.Origins)

	scalarModule := scalar.NewModule("/scalar", cfg.API.BasePath+"/openapi.json")
	scalarModule.Use(middleware.Logger(infra.Logger))
	scalarModule.Use(middleware.Recover(infra.Logger))

	router := buildRouter(infra, lspServer)
	router.Mount(apiModule)
	router.Mount(scalarModule)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"provider", cfg.Classifier.Provider,
	)

	return &Server{
		infra:   infra,
		runtime: runtime,
		domain:  domain,
		lsp:     lspServer,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.domain.Start(s.runtime); err != nil {
		return err
	}
	if err := s.lsp.Start(s.infra.Lifecycle); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}

