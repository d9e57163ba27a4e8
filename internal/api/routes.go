package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/speechmark/internal/config"
	"github.com/JaimeStill/speechmark/internal/documents"
	"github.com/JaimeStill/speechmark/internal/labels"
	"github.com/JaimeStill/speechmark/pkg/openapi"
	"github.com/JaimeStill/speechmark/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	maxBody := cfg.API.MaxBodySizeBytes()

	groups := []routes.Group{
		domain.Documents.Handler(cfg.API.FetchTimeoutDuration(), maxBody).Routes(),
		labels.NewHandler(runtime.Labels, domain.Documents.RemapLabels, runtime.Logger, maxBody).Routes(),
	}
	routes.Register(mux, groups...)

	spec := openapi.NewSpec(&cfg.API.OpenAPI, cfg.Version)
	spec.Components.AddSchemas(documents.Schemas())
	spec.Components.AddSchemas(labels.Schemas())
	if err := routes.Describe(spec, cfg.API.BasePath, groups...); err != nil {
		return fmt.Errorf("describe routes: %w", err)
	}

	serve, err := openapi.ServeSpec(spec)
	if err != nil {
		return err
	}
	mux.HandleFunc("GET /openapi.json", serve)
	return nil
}
