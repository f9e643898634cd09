package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BerriAI/litellm-go/config"
	"github.com/BerriAI/litellm-go/proxy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the OpenAI-compatible proxy server",
	Long: `Start the proxy server described by the config file.

The server exposes /v1/chat/completions, /v1/completions, /v1/embeddings,
/v1/images/generations, /v1/rerank and /v1/models, plus health checks and
key management endpoints when a master key is configured.`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind address (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.GeneralSettings.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.GeneralSettings.Port = servePort
	}

	srv, err := proxy.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize proxy: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting proxy", "addr", cfg.GeneralSettings.Addr(), "model_groups", len(cfg.ModelList))
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
