package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/speechmark/internal/api"
	"github.com/JaimeStill/speechmark/internal/config"
	"github.com/JaimeStill/speechmark/internal/infrastructure"
	"github.com/JaimeStill/speechmark/internal/lsp"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "speechmark",
		Short:        "Live part-of-speech highlighting for plain-text documents",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the TOML config file (default ./config.toml when present)")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(
		newServeCmd(load),
		newLSPCmd(load),
		newTagCmd(load),
		newVersionCmd(load),
	)
	return root
}

type loader func() (*config.Config, error)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the LSP over WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := NewServer(cfg)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.http.Run)
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown(cfg.ShutdownTimeoutDuration())
	})

	err = g.Wait()
	srv.infra.Logger.Info("speechmark stopped")
	return err
}

func newLSPCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server on stdin and stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			infra, err := infrastructure.New(cfg)
			if err != nil {
				return err
			}

			runtime := api.NewRuntime(cfg, infra)
			domain := api.NewDomain(cfg, runtime)
			if err := domain.Start(runtime); err != nil {
				return err
			}

			server := lsp.NewServer(domain.Documents, infra.Registry, infra.Logger, cfg.Version, nil)
			if err := server.Start(infra.Lifecycle); err != nil {
				return err
			}
			infra.Lifecycle.WaitForStartup()

			infra.Logger.Info("speechmark lsp starting", "version", cfg.Version, "provider", cfg.Classifier.Provider)
			server.ServeStdio(ctx, os.Stdin, os.Stdout)

			return infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())
		},
	}
}

func newVersionCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build and configured versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "speechmark %s\n", version)

			if cfg, err := load(); err == nil {
				fmt.Fprintf(out, "api version %s\n", cfg.Version)
			}
			return nil
		},
	}
}
