package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cardscan/internal/pipeline"
	"cardscan/internal/segment"
	"cardscan/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scanning server",
	Long: `Start an HTTP server that extracts contact records from uploaded images.

The server provides the following endpoints:
  POST /scan    - Process an uploaded business card image
  GET  /health  - Health check endpoint
  GET  /metrics - Prometheus metrics

Examples:
  cardscan serve
  cardscan serve --port 8080
  cardscan serve --host 0.0.0.0 --port 3000`,
	SilenceUsage: true,
	RunE:         runServeCommand,
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}
	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
	}
	maxUploadMB := cfg.Server.MaxUploadMB
	if cmd.Flags().Changed("max-upload-size") {
		maxUploadMB, _ = cmd.Flags().GetInt("max-upload-size")
	}
	shutdownTimeout, _ := cmd.Flags().GetInt("shutdown-timeout")

	segCfg := segment.DefaultConfig()
	segCfg.MinAreaRatio = cfg.Segment.MinAreaRatio
	segCfg.MaxAreaRatio = cfg.Segment.MaxAreaRatio
	segCfg.MaxCards = cfg.Segment.MaxCards

	proc, err := pipeline.NewBuilder().
		WithLanguage(cfg.Scan.Lang).
		WithEnrichment(cfg.Scan.Enrich).
		WithSegmenterConfig(segCfg).
		WithLogger(slog.Default()).
		Build()
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}
	defer func() { _ = proc.Close() }()

	serverConfig := server.DefaultConfig()
	serverConfig.Host = host
	serverConfig.Port = port
	serverConfig.MaxUploadBytes = int64(maxUploadMB) * 1024 * 1024

	srv := server.New(serverConfig, proc, slog.Default())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(shutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		return err
	}
	slog.Info("graceful shutdown completed")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("host", "H", "", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().Int("max-upload-size", 10, "maximum upload size in MB")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
}
