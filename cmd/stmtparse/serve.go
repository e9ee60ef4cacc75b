package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/wealthdesk/stmtparse/internal/api"
	"github.com/wealthdesk/stmtparse/internal/audit"
	"github.com/wealthdesk/stmtparse/internal/engine"
	"github.com/wealthdesk/stmtparse/internal/ml"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the email parsing HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	recorder, err := buildRecorder(cfg.Audit.Path)
	if err != nil {
		return err
	}
	defer func() { _ = recorder.Close() }()

	opts := []engine.Option{engine.WithRecorder(recorder)}

	if cfg.Classifier.Enabled {
		classifier, clErr := ml.NewHTTPClassifier(cfg.Classifier, slog.Default())
		if clErr != nil {
			return clErr
		}
		opts = append(opts, engine.WithClassifier(classifier))
		slog.Info("statistical classifier enabled", "endpoint", cfg.Classifier.Endpoint)
	} else {
		slog.Info("statistical classifier disabled, rule-based only")
	}

	eng, err := engine.New(cfg, opts...)
	if err != nil {
		return err
	}

	server := api.NewServer(eng, slog.Default())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-cmd.Context().Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// buildRecorder selects the SQLite outcome store when a path is configured,
// the structured log otherwise.
func buildRecorder(path string) (audit.Recorder, error) {
	if path == "" {
		return &audit.SlogRecorder{Logger: slog.Default()}, nil
	}
	recorder, err := audit.NewSQLiteRecorder(path)
	if err != nil {
		return nil, fmt.Errorf("opening audit store: %w", err)
	}
	slog.Info("audit store opened", "path", path)
	return recorder, nil
}
