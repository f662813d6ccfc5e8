package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/pixelcv-arcade/internal/arcadebuilder"
	appcfg "github.com/park285/pixelcv-arcade/internal/config"
	"github.com/park285/pixelcv-arcade/internal/httpapi"
	"github.com/park285/pixelcv-arcade/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer obslog.Sync()

	deps, err := arcadebuilder.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("arcade_init_failed", zap.Error(err))
	}

	srv := httpapi.New(deps.Service, deps.Presenter, logger.Named("http"))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(cfg.HTTPAddr) }()

	// Finished sessions leave memory on a timer; their snapshots expire in Redis.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweepLoop(sweepCtx, deps, cfg.SweepInterval, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown_signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("http_serve_failed", zap.Error(err))
		}
	}
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("http_shutdown", zap.Error(err))
	}
	if err := deps.Close(ctx); err != nil {
		logger.Warn("arcade_close", zap.Error(err))
	}
	logger.Info("bye")
}

func sweepLoop(ctx context.Context, deps *arcadebuilder.Deps, every time.Duration, logger *zap.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := deps.Service.Sweep(); n > 0 {
				logger.Debug("sessions_swept", zap.Int("count", n), zap.Int("live", len(deps.Service.Sessions())))
			}
		}
	}
}
