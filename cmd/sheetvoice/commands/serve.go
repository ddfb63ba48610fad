package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/config"
	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/script"
	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/store"
	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/webui"
)

// newServeCmd creates the `sheetvoice serve` command that runs the server.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the sheetvoice server: the upload/query API plus the
static ask and admin pages.

Examples:
  sheetvoice serve
  sheetvoice serve --address :9000
  sheetvoice serve --config ./sheetvoice.yaml`,
		RunE: runServe,
	}

	cmd.Flags().String("address", "", "listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Load config ──
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if address, _ := cmd.Flags().GetString("address"); address != "" {
		cfg.Server.Address = address
	}

	// ── Configure logger ──
	logger := newLogger(cmd, cfg)

	// ── Open record store ──
	records, err := store.Open(store.Options{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.RecordsPath(),
	}, logger)
	if err != nil {
		return fmt.Errorf("opening record store: %w", err)
	}
	defer records.Close()

	// ── Build the service and rebuild indexes from disk ──
	svc := script.New(script.Config{
		UploadsDir:     cfg.Storage.UploadsPath(),
		BaseURL:        cfg.Server.BaseURL,
		Threshold:      cfg.Matching.Threshold,
		FallbackAnswer: cfg.Matching.FallbackAnswer,
		NoDataAnswer:   cfg.Matching.NoDataAnswer,
		LinkLogPath:    cfg.Storage.LinkLogPath(),
	}, records, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.RebuildIndexes(ctx)

	// ── Start the web server ──
	srv := webui.New(webui.Config{
		Address:        cfg.Server.Address,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, svc, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting web server: %w", err)
	}

	// ── Wait for shutdown ──
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	srv.Stop()
	return nil
}

// newLogger builds the slog logger from config and the --verbose flag.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logLevel := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	return slog.New(handler)
}
