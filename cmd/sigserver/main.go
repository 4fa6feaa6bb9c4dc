// sigserver serves read-only alphabet queries and signature computation over
// HTTP.  On startup it restores the named alphabet from PostgreSQL when a
// database is configured, then answers bit lookups, occurrence vectors, and
// signature builds against it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appalphabet "github.com/turtacn/MolSig-Alphabet/internal/application/alphabet"
	"github.com/turtacn/MolSig-Alphabet/internal/config"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/database/redis"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/prometheus"
	httpiface "github.com/turtacn/MolSig-Alphabet/internal/interfaces/http"
	"github.com/turtacn/MolSig-Alphabet/internal/interfaces/http/handlers"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	alphabetName := flag.String("alphabet", "default", "alphabet to restore from the store")
	flag.Parse()

	if err := run(*configPath, *alphabetName); err != nil {
		fmt.Fprintf(os.Stderr, "sigserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, alphabetName string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	var metrics *prometheus.AppMetrics
	if cfg.Metrics.Enabled {
		metrics = prometheus.NewAppMetrics(collector)
	}

	ctx := context.Background()
	var checkers []handlers.HealthChecker
	opts := appalphabet.Options{
		Logger:      logger,
		Metrics:     metrics,
		Concurrency: cfg.Worker.Concurrency,
		ChunkSize:   cfg.Worker.ChunkSize,
	}

	if cfg.Database.Host != "" {
		conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Database)); err != nil {
			return err
		}
		opts.Store = repositories.NewAlphabetRepository(conn.Pool(), logger)
		checkers = append(checkers, namedChecker{"postgres", conn.HealthCheck})
	}

	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		opts.Cache = redis.NewSignatureCache(client, cfg.Signature, logger)
		checkers = append(checkers, namedChecker{"redis", client.Ping})
	}

	service := appalphabet.NewService(cfg.Signature, opts)

	if opts.Store != nil {
		if err := service.Restore(ctx, alphabetName); err != nil {
			if !errors.IsCode(err, errors.ErrCodeNotFound) {
				return err
			}
			logger.Warn("alphabet not found in store, starting empty",
				logging.String("alphabet", alphabetName))
		} else {
			info := service.Info()
			logger.Info("alphabet restored",
				logging.String("alphabet", alphabetName),
				logging.Int("entries", info.Entries),
				logging.Int("occupied_bits", info.OccupiedBits),
			)
		}
	}

	router := httpiface.NewRouter(httpiface.RouterConfig{
		Mode:             cfg.Server.Mode,
		AlphabetHandler:  handlers.NewAlphabetHandler(service),
		SignatureHandler: handlers.NewSignatureHandler(service),
		HealthHandler:    handlers.NewHealthHandler(version, checkers...),
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
	})
	server := httpiface.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	}

	return server.Stop(ctx)
}

// namedChecker adapts a ping function to the HealthChecker interface.
type namedChecker struct {
	name  string
	check func(ctx context.Context) error
}

func (n namedChecker) Name() string                    { return n.name }
func (n namedChecker) Check(ctx context.Context) error { return n.check(ctx) }
