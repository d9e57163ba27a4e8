// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, metrics, labels, classifier) that
// domain systems require.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JaimeStill/speechmark/internal/classifications"
	"github.com/JaimeStill/speechmark/internal/config"
	"github.com/JaimeStill/speechmark/internal/labels"
	"github.com/JaimeStill/speechmark/pkg/lifecycle"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Registry   *prometheus.Registry
	Labels     *labels.Map
	Classifier classifications.Classifier
	Gate       *classifications.Gate

	labels config.LabelsConfig
}

// New creates an Infrastructure from the application configuration. Logs
// go to stderr so that stdout stays free for the stdio LSP transport. The
// label file, if configured, is applied before New returns.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithLogger(cfg, NewLogger(&cfg.Logging, os.Stderr))
}

// NewWithLogger is New with a caller-supplied logger.
func NewWithLogger(cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	classifier, err := classifications.New(&cfg.Classifier, logger)
	if err != nil {
		return nil, fmt.Errorf("classifier init failed: %w", err)
	}

	labelMap := labels.NewMap()
	if cfg.Labels.File != "" {
		update, err := labels.LoadUpdateFile(cfg.Labels.File)
		if err != nil {
			return nil, fmt.Errorf("label file: %w", err)
		}
		labelMap.Extend(update)
		logger.Info("label file applied", "file", cfg.Labels.File, "categories", len(update))
	}

	return &Infrastructure{
		Lifecycle:  lifecycle.New(),
		Logger:     logger,
		Registry:   reg,
		Labels:     labelMap,
		Classifier: classifier,
		Gate:       classifications.NewGate(cfg.Classifier.ThresholdValue(), logger.With("system", "gate")),
		labels:     cfg.Labels,
	}, nil
}

// NewLogger builds the process logger from the logging config.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Start registers infrastructure hooks with the lifecycle coordinator. When
// label watching is enabled, reloaded files are passed to remap.
func (i *Infrastructure) Start(remap func(labels.Update)) error {
	if guard, ok := i.Classifier.(*classifications.Guard); ok {
		i.Lifecycle.AddReadiness("classifier", lifecycle.ReadyFunc(func() bool {
			return guard.State() != "open"
		}))
	}

	if !i.labels.Watch {
		return nil
	}

	w, err := labels.NewWatcher(
		i.labels.File,
		i.labels.DebounceDuration(),
		remap,
		i.Logger.With("system", "labels"),
	)
	if err != nil {
		return fmt.Errorf("label watcher start failed: %w", err)
	}

	i.Lifecycle.OnShutdown(func() {
		w.Run(i.Lifecycle.Context())
	})
	return nil
}
