package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docsplit/internal/api"
	"github.com/dgallion1/docsplit/internal/config"
	"github.com/dgallion1/docsplit/internal/logger"
	"github.com/dgallion1/docsplit/internal/pipeline"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: "json", Output: os.Stdout})
	if err != nil {
		log = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.OutputRoot, 0o755); err != nil {
		log.Error("create output root", "dir", cfg.OutputRoot, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Error("listen", "addr", httpServer.Addr, "error", err)
		os.Exit(1)
	}

	log.Info("starting docsplit server", "port", cfg.Port, "output_root", cfg.OutputRoot, "workers", cfg.WorkerCount, "pdf_engine", cfg.PDFEngine)
	if err := serve(sigCtx, httpServer, ln, orch, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// stopper is the part of the orchestrator serve needs at shutdown.
type stopper interface {
	Stop()
}

// serve runs httpServer on ln until ctx is done, then drains HTTP and stops
// orch. It returns only after orch.Stop has returned, so in-flight exports
// finish before the process exits.
func serve(ctx context.Context, httpServer *http.Server, ln net.Listener, orch stopper, log *slog.Logger) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}

		orch.Stop()
		log.Info("pipeline stopped")
	}()

	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
