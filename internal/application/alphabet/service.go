// Package alphabet provides the application-level service for building,
// querying, merging, and persisting signature alphabets.  This package sits
// between the HTTP/CLI handlers and the domain logic.
package alphabet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domain "github.com/turtacn/MolSig-Alphabet/internal/domain/alphabet"
	"github.com/turtacn/MolSig-Alphabet/internal/domain/molecule"
	"github.com/turtacn/MolSig-Alphabet/internal/domain/signature"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// Store persists alphabets by name.  Satisfied by the PostgreSQL repository.
type Store interface {
	Save(ctx context.Context, name string, a *domain.Alphabet) error
	Load(ctx context.Context, name string) (*domain.Alphabet, error)
}

// SignatureCache caches rendered molecule signatures by notation.  Satisfied
// by the Redis signature cache.
type SignatureCache interface {
	GetOrCompute(ctx context.Context, notation string,
		compute func(ctx context.Context) (string, error)) (string, error)
}

// Service exposes the alphabet use cases.
type Service interface {
	// Signature parses a notation and returns the rendered molecule
	// signature string with fingerprint bits and neighbor forms.
	Signature(ctx context.Context, notation string) (string, error)

	// Fill registers the signatures of every notation into the alphabet,
	// fanning the work out over the configured number of workers.
	Fill(ctx context.Context, notations []string) (domain.FillReport, error)

	// FillFromSignatures registers pre-computed signature strings.
	FillFromSignatures(sigs []string) domain.FillReport

	// OccurrenceVector counts alphabet entries in a molecule signature.
	OccurrenceVector(ctx context.Context, notation string) (counts []int, unknown []string, err error)

	// SignaturesForBit lists the signatures registered under one bit.
	SignaturesForBit(bit uint32) ([]string, error)

	// Merge unions a compatible alphabet into this service's alphabet.
	Merge(other *domain.Alphabet) error

	// Snapshot returns an independent copy of the current alphabet.
	Snapshot() *domain.Alphabet

	// Info summarises configuration and content.
	Info() Info

	// Persist saves the alphabet under a name; Restore replaces it with a
	// stored one.
	Persist(ctx context.Context, name string) error
	Restore(ctx context.Context, name string) error
}

// Info is the queryable summary of the service's alphabet.
type Info struct {
	Config       domain.Config `json:"config"`
	Entries      int           `json:"entries"`
	OccupiedBits int           `json:"occupied_bits"`
	Description  string        `json:"description"`
}

// Options carries the optional collaborators of the service.
type Options struct {
	Provider    molecule.GraphProvider
	Store       Store
	Cache       SignatureCache
	Metrics     *prometheus.AppMetrics
	Logger      logging.Logger
	Concurrency int
	ChunkSize   int
}

type serviceImpl struct {
	mu       sync.RWMutex
	alphabet *domain.Alphabet

	provider    molecule.GraphProvider
	store       Store
	cache       SignatureCache
	metrics     *prometheus.AppMetrics
	logger      logging.Logger
	concurrency int
	chunkSize   int
}

// NewService creates an alphabet service over an empty alphabet with the
// given configuration.
func NewService(cfg domain.Config, opts Options) Service {
	if opts.Provider == nil {
		opts.Provider = molecule.NewSMILESParser()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.ChunkSize < 1 {
		opts.ChunkSize = 256
	}
	return &serviceImpl{
		alphabet:    domain.New(cfg),
		provider:    opts.Provider,
		store:       opts.Store,
		cache:       opts.Cache,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		concurrency: opts.Concurrency,
		chunkSize:   opts.ChunkSize,
	}
}

func (s *serviceImpl) config() domain.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alphabet.Config()
}

// computeSignature builds the canonical molecule signature string for one
// notation.
func (s *serviceImpl) computeSignature(notation string) (string, error) {
	cfg := s.config()
	mol, err := s.provider.Parse(notation)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	oracle := s.alphabet.Oracle()
	s.mu.RUnlock()

	ms, err := signature.NewMoleculeSignature(mol, signature.Options{
		Radius:    cfg.Radius,
		UseStereo: cfg.UseStereo,
	}, oracle)
	if err != nil {
		return "", err
	}
	return ms.ToString(signature.StringOptions{Neighbors: true, Morgans: true})
}

func (s *serviceImpl) Signature(ctx context.Context, notation string) (string, error) {
	if notation == "" {
		return "", errors.New(errors.ErrCodeValidation, "notation is required")
	}
	if s.cache != nil {
		return s.cache.GetOrCompute(ctx, notation, func(context.Context) (string, error) {
			return s.computeSignature(notation)
		})
	}
	return s.computeSignature(notation)
}

func (s *serviceImpl) Fill(ctx context.Context, notations []string) (domain.FillReport, error) {
	jobID := uuid.NewString()
	start := time.Now()
	cfg := s.config()

	s.logger.Info("starting fill job",
		logging.String("job_id", jobID),
		logging.Int("molecules", len(notations)),
		logging.Int("workers", s.concurrency),
	)

	// The alphabet is not safe for concurrent mutation, so every worker
	// fills a private shard and the shards are reduced with Merge.
	chunks := make(chan []string)
	shards := make([]*domain.Alphabet, s.concurrency)
	reports := make([]domain.FillReport, s.concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		i := i
		shards[i] = domain.New(cfg)
		g.Go(func() error {
			if s.metrics != nil {
				s.metrics.ActiveFillWorkers.WithLabelValues(jobID).Inc()
				defer s.metrics.ActiveFillWorkers.WithLabelValues(jobID).Dec()
			}
			for chunk := range chunks {
				if err := gctx.Err(); err != nil {
					return err
				}
				reports[i].Merge(shards[i].Fill(chunk, s.provider))
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(chunks)
		for start := 0; start < len(notations); start += s.chunkSize {
			end := start + s.chunkSize
			if end > len(notations) {
				end = len(notations)
			}
			select {
			case chunks <- notations[start:end]:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.FillReport{}, errors.Wrap(err, errors.ErrCodeCanceled, "fill job aborted")
	}

	var report domain.FillReport
	s.mu.Lock()
	for i, shard := range shards {
		if err := s.alphabet.Merge(shard); err != nil {
			s.mu.Unlock()
			return domain.FillReport{}, err
		}
		report.Merge(reports[i])
	}
	entries, bits := s.alphabet.Size(), len(s.alphabet.Bits())
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.FillDuration.WithLabelValues("parallel").Observe(time.Since(start).Seconds())
		prometheus.RecordFillOutcome(s.metrics, report.Processed, report.Skipped, report.Failed)
		prometheus.RecordAlphabetSize(s.metrics, "default", entries, bits)
	}
	s.logger.Info("fill job finished",
		logging.String("job_id", jobID),
		logging.Int("processed", report.Processed),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed),
		logging.Int("entries", entries),
		logging.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

func (s *serviceImpl) FillFromSignatures(sigs []string) domain.FillReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alphabet.FillFromSignatures(sigs)
}

func (s *serviceImpl) OccurrenceVector(ctx context.Context, notation string) ([]int, []string, error) {
	rendered, err := s.Signature(ctx, notation)
	if err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alphabet.OccurrenceVector(rendered)
}

func (s *serviceImpl) SignaturesForBit(bit uint32) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alphabet.SignaturesForBit(bit)
}

func (s *serviceImpl) Merge(other *domain.Alphabet) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.alphabet.Merge(other); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.MergeDuration.WithLabelValues("default").Observe(time.Since(start).Seconds())
	}
	return nil
}

func (s *serviceImpl) Snapshot() *domain.Alphabet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alphabet.Clone()
}

func (s *serviceImpl) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		Config:       s.alphabet.Config(),
		Entries:      s.alphabet.Size(),
		OccupiedBits: len(s.alphabet.Bits()),
		Description:  s.alphabet.Describe(),
	}
}

func (s *serviceImpl) Persist(ctx context.Context, name string) error {
	if s.store == nil {
		return errors.New(errors.ErrCodeUnavailable, "no alphabet store configured")
	}
	return s.store.Save(ctx, name, s.Snapshot())
}

func (s *serviceImpl) Restore(ctx context.Context, name string) error {
	if s.store == nil {
		return errors.New(errors.ErrCodeUnavailable, "no alphabet store configured")
	}
	loaded, err := s.store.Load(ctx, name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alphabet.Config().Equal(loaded.Config()) {
		return errors.New(errors.ErrCodeIncompatibleAlphabet,
			"stored alphabet was built with a different configuration")
	}
	s.alphabet = loaded
	return nil
}
