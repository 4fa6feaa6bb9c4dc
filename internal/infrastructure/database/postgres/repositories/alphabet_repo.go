// Package repositories holds the PostgreSQL implementations of the platform's
// storage interfaces.
package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/MolSig-Alphabet/internal/domain/alphabet"
	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// insertChunkSize bounds the number of entry inserts queued into one batch
// round-trip.
const insertChunkSize = 1000

// AlphabetInfo summarises one stored alphabet without its entries.
type AlphabetInfo struct {
	Name      string
	Config    alphabet.Config
	Entries   int
	UpdatedAt time.Time
}

// AlphabetRepository persists alphabets as a config row plus one row per
// (bit, signature) entry.  Saving the same alphabet again only adds entries
// that are new, so a save after further fills behaves like a merge.
type AlphabetRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewAlphabetRepository constructs a ready-to-use AlphabetRepository.
func NewAlphabetRepository(pool *pgxpool.Pool, logger logging.Logger) *AlphabetRepository {
	return &AlphabetRepository{pool: pool, logger: logger}
}

// Save upserts the alphabet under the given name.  A stored alphabet with a
// different configuration is never silently overwritten; the caller gets an
// incompatibility error instead.
func (r *AlphabetRepository) Save(ctx context.Context, name string, a *alphabet.Alphabet) error {
	r.logger.Debug("AlphabetRepository.Save",
		logging.String("name", name), logging.Int("entries", a.Size()))

	stored, err := r.loadConfig(ctx, name)
	if err != nil && !errors.IsCode(err, errors.ErrCodeNotFound) {
		return err
	}
	if err == nil && !stored.Equal(a.Config()) {
		return errors.New(errors.ErrCodeIncompatibleAlphabet,
			"stored alphabet was built with a different configuration")
	}

	cfg := a.Config()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO alphabets (name, radius, bit_width, use_stereo, register_all_levels, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (name) DO UPDATE SET updated_at = now()`,
		name, cfg.Radius, int64(cfg.BitWidth), cfg.UseStereo, cfg.RegisterAllLevels,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert alphabet")
	}

	entries := a.Index()
	for start := 0; start < len(entries); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := &pgx.Batch{}
		for _, e := range entries[start:end] {
			batch.Queue(`
				INSERT INTO alphabet_entries (alphabet_name, bit, signature)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`,
				name, int64(e.Bit), e.Signature,
			)
		}
		if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert alphabet entries")
		}
	}
	return nil
}

// Load reads the named alphabet and rebuilds the in-memory container.
func (r *AlphabetRepository) Load(ctx context.Context, name string) (*alphabet.Alphabet, error) {
	cfg, err := r.loadConfig(ctx, name)
	if err != nil {
		return nil, err
	}
	a := alphabet.New(cfg)

	rows, err := r.pool.Query(ctx, `
		SELECT bit, signature FROM alphabet_entries
		WHERE alphabet_name = $1`, name)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query alphabet entries")
	}
	defer rows.Close()

	for rows.Next() {
		var bit int64
		var sig string
		if err := rows.Scan(&bit, &sig); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan alphabet entry")
		}
		if err := a.Register(uint32(bit), sig); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAlphabetLoad, "stored entry is out of range")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read alphabet entries")
	}
	return a, nil
}

// Delete removes the named alphabet and all its entries.
func (r *AlphabetRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alphabets WHERE name = $1`, name)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete alphabet")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeNotFound, "alphabet %q not found", name)
	}
	return nil
}

// List returns summaries of every stored alphabet, newest first.
func (r *AlphabetRepository) List(ctx context.Context) ([]AlphabetInfo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.name, a.radius, a.bit_width, a.use_stereo, a.register_all_levels,
		       a.updated_at, count(e.signature)
		FROM alphabets a
		LEFT JOIN alphabet_entries e ON e.alphabet_name = a.name
		GROUP BY a.name
		ORDER BY a.updated_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list alphabets")
	}
	defer rows.Close()

	var out []AlphabetInfo
	for rows.Next() {
		var info AlphabetInfo
		var bitWidth, count int64
		if err := rows.Scan(&info.Name, &info.Config.Radius, &bitWidth,
			&info.Config.UseStereo, &info.Config.RegisterAllLevels,
			&info.UpdatedAt, &count); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan alphabet row")
		}
		info.Config.BitWidth = uint32(bitWidth)
		info.Entries = int(count)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read alphabet rows")
	}
	return out, nil
}

func (r *AlphabetRepository) loadConfig(ctx context.Context, name string) (alphabet.Config, error) {
	var cfg alphabet.Config
	var bitWidth int64
	err := r.pool.QueryRow(ctx, `
		SELECT radius, bit_width, use_stereo, register_all_levels
		FROM alphabets WHERE name = $1`, name).
		Scan(&cfg.Radius, &bitWidth, &cfg.UseStereo, &cfg.RegisterAllLevels)
	if err == pgx.ErrNoRows {
		return cfg, errors.Newf(errors.ErrCodeNotFound, "alphabet %q not found", name)
	}
	if err != nil {
		return cfg, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load alphabet config")
	}
	cfg.BitWidth = uint32(bitWidth)
	return cfg, nil
}
