package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/link-enricher/internal/api"
	"github.com/JakeFAU/link-enricher/internal/config"
	"github.com/JakeFAU/link-enricher/internal/logging"
	"github.com/JakeFAU/link-enricher/internal/metrics"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	input := flag.String("input", "", `Claims JSON to enrich once ("-" for stdin); serves HTTP when empty`)
	flag.Parse()

	if err := run(*cfgPath, *input); err != nil {
		fmt.Fprintf(os.Stderr, "linkenricher: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, input string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.close()

	if input != "" {
		return runOnce(ctx, svc, input, os.Stdout, logger)
	}
	return serve(ctx, svc, cfg, logger)
}

// serve runs the worker pool and the HTTP server until a signal arrives.
func serve(ctx context.Context, svc *service, cfg config.Config, logger *zap.Logger) error {
	port := cfg.Server.Port
	if env := os.Getenv("PORT"); env != "" {
		if _, err := fmt.Sscanf(env, "%d", &port); err != nil {
			return fmt.Errorf("parse PORT: %w", err)
		}
	}

	apiServer := api.NewServer(svc.enricher, cfg, logger, svc.readiness...)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("dispatcher started", zap.Int("workers", svc.dispatcher.Size()))
		svc.dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("http server started", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		svc.queue.Close()
		if err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck // already wrapped by the group members
	}
	logger.Info("shutdown complete")
	return nil
}

// runOnce enriches the claims in input and writes the BatchResult as JSON.
func runOnce(ctx context.Context, svc *service, input string, out io.Writer, logger *zap.Logger) error {
	req, err := readClaims(input)
	if err != nil {
		return err
	}

	poolCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.dispatcher.Run(poolCtx)
	}()
	defer func() {
		cancel()
		svc.queue.Close()
		<-done
	}()

	result := svc.enricher.Enrich(ctx, req.Claims)
	logger.Info("one-shot batch finished",
		zap.String("batch_id", result.BatchID),
		zap.Int("links", result.TotalLinksProcessed),
		zap.Int("successful", result.SuccessfulExtractions),
	)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
