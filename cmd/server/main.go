package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"route-optimization-service/internal/adapters/distance"
	"route-optimization-service/internal/adapters/repositories"
	"route-optimization-service/internal/adapters/sink"
	"route-optimization-service/internal/api"
	"route-optimization-service/internal/config"
	"route-optimization-service/internal/platform/db"
	"route-optimization-service/internal/platform/obs"
	"route-optimization-service/internal/ports"
	"route-optimization-service/internal/services"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (using environment variables)")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	obs.SetupLogger(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	conn, err := db.Open(cfg.DBDriver, cfg.DBSource)
	if err != nil {
		return err
	}
	defer conn.Close()

	dialect := db.Dialect(cfg.DBDriver)
	if err := initAndSeed(ctx, conn, dialect, cfg); err != nil {
		return err
	}

	provider, err := newDistanceProvider(cfg)
	if err != nil {
		return err
	}

	resultSink, closeSink, err := newResultSink(ctx, cfg, conn, dialect)
	if err != nil {
		return err
	}
	defer closeSink()

	repo := repositories.NewSQLDeliveryRepository(conn, dialect)

	optimizer := services.NewRouteOptimizer(
		repo,
		services.NewDistanceMatrixBuilder(provider, cfg.ProviderTimeout),
		resultSink,
	)
	optimizer.Timeout = cfg.OptimizeTimeout
	optimizer.Genetic.PopulationSize = cfg.GAPopulation
	optimizer.Genetic.Generations = cfg.GAGenerations
	optimizer.Genetic.MutationRate = cfg.GAMutationRate
	optimizer.Genetic.CrossoverRate = cfg.GACrossoverRate
	optimizer.Genetic.ElitismRate = cfg.GAElitismRate
	optimizer.Genetic.Workers = cfg.GAWorkers
	if err := optimizer.Genetic.Validate(); err != nil {
		return fmt.Errorf("genetic config: %w", err)
	}

	// WriteTimeout leaves room for the optimizer deadline plus encoding.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(optimizer, repo),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.OptimizeTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", srv.Addr).
			Str("distance_provider", cfg.DistanceProvider).
			Str("result_sink", cfg.ResultSink).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// initAndSeed creates tables and, for local sqlite runs, loads demo deliveries.
func initAndSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, cfg config.Config) error {
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if dialect != db.DialectSQLite || cfg.SeedPath == "" {
		return nil
	}
	if _, err := os.Stat(cfg.SeedPath); err != nil {
		log.Warn().Str("path", cfg.SeedPath).Msg("seed file not found, skipping seed")
		return nil
	}

	if err := repositories.SeedFromJSON(ctx, conn, dialect, cfg.SeedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	return nil
}

// newDistanceProvider returns nil for "haversine", which makes the matrix
// builder estimate every cell locally.
func newDistanceProvider(cfg config.Config) (ports.DistanceMatrixProvider, error) {
	switch cfg.DistanceProvider {
	case "ors":
		p, err := distance.NewORSMatrixProvider(
			cfg.ORSAPIKey,
			distance.WithORSBaseURL(cfg.ORSBaseURL),
			distance.WithORSRateLimit(cfg.ProviderRateLimit),
		)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "osrm":
		return distance.NewOSRMMatrixProvider(cfg.OSRMBaseURL), nil
	default:
		return nil, nil
	}
}

// newResultSink wraps the configured sink in an AsyncResultSink. The returned
// close func drains queued results.
func newResultSink(ctx context.Context, cfg config.Config, conn *sql.DB, dialect db.Dialect) (ports.ResultSink, func(), error) {
	var (
		next    ports.ResultSink
		cleanup = func() {}
	)

	switch cfg.ResultSink {
	case "sql":
		next = sink.NewSQLResultSink(conn, dialect)
	case "redis":
		client, err := sink.NewRedisClient(ctx, cfg.RedisAddress, cfg.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		next = sink.NewRedisResultSink(client, cfg.RedisStream)
		cleanup = func() { _ = client.Close() }
	default:
		return nil, func() {}, nil
	}

	async := sink.NewAsyncResultSink(next, cfg.SinkQueueSize)
	closeFn := func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := async.Close(drainCtx); err != nil {
			log.Warn().Err(err).Int64("dropped", async.Dropped()).Msg("result sink did not drain")
		}
		cleanup()
	}
	return async, closeFn, nil
}
