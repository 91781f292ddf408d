package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/racerank/internal/adapters/http/api"
	app "github.com/okian/racerank/internal/app"
	"github.com/okian/racerank/internal/config"
	"github.com/okian/racerank/pkg/logger"
	"github.com/okian/racerank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg, os.Stdout); err != nil {
		logger.Get().Error(ctx, "rating run failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run rates the configured results tree, prints the run summary as JSON and,
// when an address is configured, serves the read API until ctx is done.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	lg := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		lg.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.SetEnabled(cfg.MetricsEnabled)

	svc, err := newService(cfg, lg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	sum, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		return err
	}

	if cfg.Addr == "" {
		return nil
	}
	return serve(ctx, cfg, svc, lg)
}

func newService(cfg *config.Config, lg logger.Logger) (*app.Service, error) {
	minDate, err := cfg.MinEventDate()
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(lg),
		app.WithResultsDir(cfg.ResultsDir),
		app.WithOutputDir(cfg.OutputDir),
		app.WithRule(cfg.Rule),
		app.WithKFactor(cfg.KFactor),
		app.WithDefaultRating(cfg.DefaultRating),
		app.WithMinRaces(cfg.MinRaces),
		app.WithMinDate(minDate),
		app.WithStrictOrder(cfg.StrictOrder),
		app.WithAbortOnDegenerate(cfg.AbortOnDegenerate),
		app.WithIDLength(cfg.IDLength),
		app.WithLoaderConcurrency(cfg.LoaderConcurrency),
		app.WithHistoryDB(cfg.HistoryDB),
	), nil
}

func serve(ctx context.Context, cfg *config.Config, svc *app.Service, lg logger.Logger) error {
	mux := http.NewServeMux()
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	lg.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	lg.Info(ctx, "server stopped")
	return nil
}
