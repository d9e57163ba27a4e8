package classifications

import (
	"fmt"
	"log/slog"
	"net/http"
)

// New builds the classifier selected by cfg.Provider. Network providers
// are wrapped in a Guard.
func New(cfg *Config, logger *slog.Logger) (Classifier, error) {
	logger = logger.With("system", "classifier", "provider", cfg.Provider)

	switch cfg.Provider {
	case ProviderLexicon:
		return NewLexicon(), nil
	case ProviderOpenAI:
		return NewGuard(NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model), cfg, logger), nil
	case ProviderRemote:
		client := &http.Client{Timeout: cfg.TimeoutDuration()}
		return NewGuard(NewRemote(cfg.BaseURL, client), cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
