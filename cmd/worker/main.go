// worker consumes the molecule stream from Kafka and folds every notation
// into the alphabet.  The alphabet is checkpointed to PostgreSQL at a fixed
// cadence, and an alphabet.updated event is published after each checkpoint
// so downstream readers can refresh.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appalphabet "github.com/turtacn/MolSig-Alphabet/internal/application/alphabet"
	"github.com/turtacn/MolSig-Alphabet/internal/config"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/database/redis"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

const defaultHealthPort = 8081

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	alphabetName := flag.String("alphabet", "default", "alphabet checkpoint name")
	flag.Parse()

	if err := run(*configPath, *alphabetName); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	}

	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		opts.Cache = redis.NewSignatureCache(client, cfg.Signature, logger)
	}

	service := appalphabet.NewService(cfg.Signature, opts)

	// Resume from the last checkpoint so restarts do not lose the alphabet.
	if opts.Store != nil {
		if err := service.Restore(ctx, alphabetName); err != nil {
			if !errors.IsCode(err, errors.ErrCodeNotFound) {
				return err
			}
			logger.Info("no checkpoint found, starting with an empty alphabet",
				logging.String("alphabet", alphabetName))
		} else {
			logger.Info("resumed from checkpoint",
				logging.String("alphabet", alphabetName),
				logging.Int("entries", service.Info().Entries))
		}
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.MoleculeTopic, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer producer.Close()

	w := &fillWorker{
		service:      service,
		producer:     producer,
		logger:       logger,
		alphabetName: alphabetName,
		hasStore:     opts.Store != nil,
		persistEvery: cfg.Worker.ChunkSize,
	}

	healthSrv := startHealthServer(collector, logger)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = healthSrv.Shutdown(shutdownCtx)
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- consumer.Run(ctx, w.handle) }()

	logger.Info("worker consuming molecule stream",
		logging.String("topic", cfg.Kafka.MoleculeTopic),
		logging.String("group", cfg.Kafka.GroupID),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			return err
		}
	case sig := <-quit:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
		cancel()
		<-errCh
	}

	// Final checkpoint before exit.
	return w.checkpoint(context.Background())
}

// fillWorker folds consumed molecules into the alphabet and checkpoints at a
// fixed message cadence.
type fillWorker struct {
	service      appalphabet.Service
	producer     *kafka.Producer
	logger       logging.Logger
	alphabetName string
	hasStore     bool
	persistEvery int

	sinceCheckpoint int
}

// handle processes one molecule.submitted event.  A fill error is returned to
// the consumer so the message stays uncommitted and is redelivered.
func (w *fillWorker) handle(ctx context.Context, env *kafka.EventEnvelope) error {
	var payload kafka.MoleculeSubmittedPayload
	if err := env.DecodePayload(&payload); err != nil {
		return err
	}

	report, err := w.service.Fill(ctx, []string{payload.Notation})
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		// Unparseable molecules are logged and dropped, not redelivered.
		w.logger.Warn("molecule rejected",
			logging.String("notation", payload.Notation),
			logging.String("source", payload.Source),
		)
	}

	w.sinceCheckpoint++
	if w.sinceCheckpoint >= w.persistEvery {
		if err := w.checkpoint(ctx); err != nil {
			w.logger.Error("checkpoint failed", logging.Err(err))
		}
	}
	return nil
}

// checkpoint saves the alphabet and announces the new size.
func (w *fillWorker) checkpoint(ctx context.Context) error {
	if !w.hasStore {
		w.sinceCheckpoint = 0
		return nil
	}

	if err := w.service.Persist(ctx, w.alphabetName); err != nil {
		return err
	}
	w.sinceCheckpoint = 0

	info := w.service.Info()
	w.logger.Info("alphabet checkpoint saved",
		logging.String("alphabet", w.alphabetName),
		logging.Int("entries", info.Entries),
		logging.Int("occupied_bits", info.OccupiedBits),
	)

	env, err := kafka.NewEnvelope("alphabet.updated", "worker", kafka.AlphabetUpdatedPayload{
		AlphabetName: w.alphabetName,
		Entries:      info.Entries,
		OccupiedBits: info.OccupiedBits,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := w.producer.Publish(ctx, kafka.TopicAlphabetUpdated, w.alphabetName, env); err != nil {
		w.logger.Warn("failed to publish alphabet.updated", logging.Err(err))
	}
	return nil
}

// startHealthServer exposes probes and metrics for the worker process.
func startHealthServer(collector prometheus.MetricsCollector, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", defaultHealthPort),
		Handler: mux,
	}
	go func() {
		logger.Info("health server listening", logging.Int("port", defaultHealthPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}
