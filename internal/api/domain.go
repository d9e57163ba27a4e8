package api

import (
	"fmt"

	"github.com/JaimeStill/speechmark/internal/config"
	"github.com/JaimeStill/speechmark/internal/documents"
)

// Domain holds all domain systems that comprise the API. The same systems
// back the LSP transport.
type Domain struct {
	Documents documents.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	docsSystem := documents.New(
		runtime.Classifier,
		runtime.Gate,
		runtime.Labels,
		&cfg.Documents,
		runtime.Registry,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Documents: docsSystem,
	}
}

// Start launches every domain system on the runtime lifecycle and routes
// label file reloads through the document coordinator.
func (d *Domain) Start(runtime *Runtime) error {
	if err := d.Documents.Start(runtime.Lifecycle); err != nil {
		return fmt.Errorf("documents start failed: %w", err)
	}
	if err := runtime.Infrastructure.Start(d.Documents.RemapLabels); err != nil {
		return err
	}
	return nil
}
