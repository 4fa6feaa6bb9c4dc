package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/MolSig-Alphabet/internal/domain/alphabet"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// SignatureCache caches rendered molecule signature strings keyed by the
// molecule notation and the signature configuration.  Two processes with the
// same configuration share entries; changing radius, bit width, or stereo
// handling changes the key space.
type SignatureCache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	cfgDigest  string
	defaultTTL time.Duration
	group      singleflight.Group
}

// CacheOption customises a SignatureCache.
type CacheOption func(*SignatureCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *SignatureCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *SignatureCache) { c.defaultTTL = ttl }
}

// NewSignatureCache builds a cache scoped to one signature configuration.
func NewSignatureCache(client *Client, cfg alphabet.Config, log logging.Logger, opts ...CacheOption) *SignatureCache {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%d|%t|%t",
		cfg.Radius, cfg.BitWidth, cfg.UseStereo, cfg.RegisterAllLevels)))
	c := &SignatureCache{
		client:     client,
		logger:     log,
		prefix:     "molsig:sig:",
		cfgDigest:  hex.EncodeToString(sum[:8]),
		defaultTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// key hashes the notation so that arbitrarily long SMILES strings map to
// fixed-size keys.
func (c *SignatureCache) key(notation string) string {
	sum := sha256.Sum256([]byte(notation))
	return c.prefix + c.cfgDigest + ":" + hex.EncodeToString(sum[:])
}

// jitterTTL spreads expiries +/- 10% so bulk fills do not expire at once.
func (c *SignatureCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

// Get returns the cached rendered signature for a notation.
func (c *SignatureCache) Get(ctx context.Context, notation string) (string, error) {
	val, err := c.client.Backend().Get(ctx, c.key(notation)).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeCacheError, "failed to get cached signature")
	}
	return val, nil
}

// Set stores a rendered signature.  A zero ttl uses the cache default.
func (c *SignatureCache) Set(ctx context.Context, notation, rendered string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	err := c.client.Backend().Set(ctx, c.key(notation), rendered, c.jitterTTL(ttl)).Err()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to cache signature")
	}
	return nil
}

// Delete removes cached signatures for the given notations.
func (c *SignatureCache) Delete(ctx context.Context, notations ...string) error {
	keys := make([]string, len(notations))
	for i, n := range notations {
		keys[i] = c.key(n)
	}
	if err := c.client.Backend().Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cached signatures")
	}
	return nil
}

// GetOrCompute returns the cached signature or computes and stores it.
// Concurrent callers for the same notation share one computation.
func (c *SignatureCache) GetOrCompute(ctx context.Context, notation string,
	compute func(ctx context.Context) (string, error)) (string, error) {

	if rendered, err := c.Get(ctx, notation); err == nil {
		return rendered, nil
	} else if !errors.IsCode(err, errors.ErrCodeNotFound) {
		c.logger.Warn("signature cache unavailable, computing directly", logging.Err(err))
		return compute(ctx)
	}

	v, err, _ := c.group.Do(c.key(notation), func() (interface{}, error) {
		rendered, err := compute(ctx)
		if err != nil {
			return "", err
		}
		if err := c.Set(ctx, notation, rendered, 0); err != nil {
			c.logger.Warn("failed to cache computed signature", logging.Err(err))
		}
		return rendered, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
