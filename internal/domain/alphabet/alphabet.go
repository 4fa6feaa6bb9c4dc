// Package alphabet provides the Alphabet container: the set of canonical
// atomic signatures observed over a corpus of molecules, indexed by the
// fingerprint bit each signature hashes to.  Alphabets built with identical
// configurations can be merged, persisted, and queried by bit.
package alphabet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/MolSig-Alphabet/internal/domain/molecule"
	"github.com/turtacn/MolSig-Alphabet/internal/domain/signature"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Config
// ─────────────────────────────────────────────────────────────────────────────

// Config fixes how the signatures of an alphabet are computed.  Every field
// participates in the compatibility check: two alphabets may only be merged
// or compared when their configurations are identical.
type Config struct {
	// Radius is the environment radius signatures are computed at.
	Radius int `mapstructure:"radius" json:"radius"`

	// BitWidth is the size of the fingerprint bit space.
	BitWidth uint32 `mapstructure:"bit_width" json:"bit_width"`

	// UseStereo keeps stereochemistry descriptors in signatures.
	UseStereo bool `mapstructure:"use_stereo" json:"use_stereo"`

	// RegisterAllLevels registers each signature under every bit of its
	// tuple instead of only the final-radius bit.
	RegisterAllLevels bool `mapstructure:"register_all_levels" json:"register_all_levels"`
}

// DefaultConfig returns the conventional configuration: radius 2, 2048 bits,
// no stereo, final-bit registration.
func DefaultConfig() Config {
	return Config{Radius: 2, BitWidth: 2048}
}

// normalize applies defaults to unset fields.
func (c Config) normalize() Config {
	if c.Radius == 0 {
		c.Radius = 2
	}
	if c.BitWidth == 0 {
		c.BitWidth = 2048
	}
	return c
}

// Equal reports field-wise equality.
func (c Config) Equal(o Config) bool { return c == o }

// ─────────────────────────────────────────────────────────────────────────────
// Alphabet
// ─────────────────────────────────────────────────────────────────────────────

// Alphabet is the container of observed atomic signatures, keyed by
// fingerprint bit.  The registered string is the neighbor-inclusive form of
// the atom signature without its bit prefix; the bit tuple is the key side.
//
// An Alphabet is not safe for concurrent mutation.  Parallel fills build one
// shard per worker and reduce them with Merge.
type Alphabet struct {
	cfg     Config
	entries map[uint32]map[string]struct{}
	oracle  molecule.MorganOracle
}

// New constructs an empty Alphabet with the given configuration.
func New(cfg Config) *Alphabet {
	cfg = cfg.normalize()
	return &Alphabet{
		cfg:     cfg,
		entries: make(map[uint32]map[string]struct{}),
		oracle:  molecule.NewHashOracle(cfg.BitWidth),
	}
}

// Config returns the alphabet's configuration.
func (a *Alphabet) Config() Config { return a.cfg }

// Oracle returns the morgan oracle matching the alphabet's bit width.
func (a *Alphabet) Oracle() molecule.MorganOracle { return a.oracle }

// Register records one raw (bit, signature string) pair.  It is the load-path
// entry point for stores that persist the index directly; bits outside the
// configured width are rejected.
func (a *Alphabet) Register(bit uint32, sig string) error {
	if bit >= a.cfg.BitWidth {
		return errors.Newf(errors.ErrCodeBadRequest,
			"bit %d exceeds bit width %d", bit, a.cfg.BitWidth)
	}
	a.add(bit, sig)
	return nil
}

// add registers one (bit, signature string) pair.
func (a *Alphabet) add(bit uint32, sig string) {
	set, ok := a.entries[bit]
	if !ok {
		set = make(map[string]struct{})
		a.entries[bit] = set
	}
	set[sig] = struct{}{}
}

// AddSignature registers every atom signature of a molecule signature.  The
// atom signatures must carry fingerprint bits and expanded neighbor forms.
func (a *Alphabet) AddSignature(ms *signature.MoleculeSignature) error {
	for _, atom := range ms.Atoms() {
		bits := atom.Morgans()
		if len(bits) == 0 {
			return errors.New(errors.ErrCodeValidation,
				"atom signature carries no fingerprint bits")
		}
		rendered, err := atom.Format(signature.StringOptions{Neighbors: true})
		if err != nil {
			return err
		}
		if a.cfg.RegisterAllLevels {
			for _, bit := range bits {
				a.add(bit, rendered)
			}
		} else {
			a.add(bits[len(bits)-1], rendered)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Fill
// ─────────────────────────────────────────────────────────────────────────────

// FillReport summarises one fill pass.
type FillReport struct {
	// Processed counts molecules whose signatures were registered.
	Processed int

	// Skipped counts wildcard molecules, which never register.
	Skipped int

	// Failed counts molecules that could not be parsed or signed.
	Failed int

	// Errors holds one representative error per failed molecule, capped at
	// errorSampleCap entries.
	Errors []error
}

const errorSampleCap = 10

func (r *FillReport) recordFailure(err error) {
	r.Failed++
	if len(r.Errors) < errorSampleCap {
		r.Errors = append(r.Errors, err)
	}
}

// merge folds another report into r.
func (r *FillReport) merge(o FillReport) {
	r.Processed += o.Processed
	r.Skipped += o.Skipped
	r.Failed += o.Failed
	for _, e := range o.Errors {
		if len(r.Errors) < errorSampleCap {
			r.Errors = append(r.Errors, e)
		}
	}
}

// Merge folds another report into r.
func (r *FillReport) Merge(o FillReport) { r.merge(o) }

// Fill parses every notation, computes its molecule signature, and registers
// all atom signatures.  Wildcard molecules are skipped and malformed ones are
// counted without aborting the pass, matching corpus-scale usage where a few
// bad records must not discard hours of work.
func (a *Alphabet) Fill(notations []string, provider molecule.GraphProvider) FillReport {
	var report FillReport
	for _, notation := range notations {
		mol, err := provider.Parse(notation)
		if err != nil {
			report.recordFailure(err)
			continue
		}
		if mol.HasWildcard() {
			report.Skipped++
			continue
		}
		ms, err := signature.NewMoleculeSignature(mol, signature.Options{
			Radius:    a.cfg.Radius,
			UseStereo: a.cfg.UseStereo,
		}, a.oracle)
		if err != nil {
			report.recordFailure(err)
			continue
		}
		if err := a.AddSignature(ms); err != nil {
			report.recordFailure(err)
			continue
		}
		report.Processed++
	}
	return report
}

// FillFromSignatures registers pre-computed molecule signature strings
// without re-extraction.  Strings must be in the bit-prefixed
// neighbor-inclusive form produced by MoleculeSignature.ToString.
func (a *Alphabet) FillFromSignatures(sigs []string) FillReport {
	var report FillReport
	for _, s := range sigs {
		ms, err := signature.ParseMoleculeSignature(s)
		if err != nil {
			report.recordFailure(err)
			continue
		}
		if err := a.AddSignature(ms); err != nil {
			report.recordFailure(err)
			continue
		}
		report.Processed++
	}
	return report
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// Size returns the number of distinct (bit, signature) pairs.
func (a *Alphabet) Size() int {
	n := 0
	for _, set := range a.entries {
		n += len(set)
	}
	return n
}

// Bits returns the occupied fingerprint bits in ascending order.
func (a *Alphabet) Bits() []uint32 {
	bits := make([]uint32, 0, len(a.entries))
	for b := range a.entries {
		bits = append(bits, b)
	}
	sort.Slice(bits, func(i, j int) bool { return bits[i] < bits[j] })
	return bits
}

// SignaturesForBit returns all signature strings registered under a bit, in
// sorted order.  Bits outside the configured width are rejected.
func (a *Alphabet) SignaturesForBit(bit uint32) ([]string, error) {
	if bit >= a.cfg.BitWidth {
		return nil, errors.Newf(errors.ErrCodeBadRequest,
			"bit %d exceeds bit width %d", bit, a.cfg.BitWidth)
	}
	set := a.entries[bit]
	sigs := make([]string, 0, len(set))
	for s := range set {
		sigs = append(sigs, s)
	}
	sort.Strings(sigs)
	return sigs, nil
}

// Contains reports whether the (bit, signature) pair is registered.
func (a *Alphabet) Contains(bit uint32, sig string) bool {
	_, ok := a.entries[bit][sig]
	return ok
}

// Entry is one (bit, signature) pair of the alphabet index.
type Entry struct {
	Bit       uint32
	Signature string
}

// Index returns all entries in canonical order (bit ascending, signature
// ascending).  The order is stable for a given content, so occurrence
// vectors computed against it are comparable across processes.
func (a *Alphabet) Index() []Entry {
	out := make([]Entry, 0, a.Size())
	for _, bit := range a.Bits() {
		sigs, _ := a.SignaturesForBit(bit)
		for _, s := range sigs {
			out = append(out, Entry{Bit: bit, Signature: s})
		}
	}
	return out
}

// OccurrenceVector counts how often each alphabet entry occurs in a molecule
// signature string, in Index order.  Atom signatures absent from the
// alphabet are returned in unknown rather than silently dropped.
func (a *Alphabet) OccurrenceVector(molSig string) (counts []int, unknown []string, err error) {
	ms, err := signature.ParseMoleculeSignature(molSig)
	if err != nil {
		return nil, nil, err
	}

	index := a.Index()
	position := make(map[Entry]int, len(index))
	for i, e := range index {
		position[e] = i
	}

	counts = make([]int, len(index))
	for _, atom := range ms.Atoms() {
		bits := atom.Morgans()
		rendered, ferr := atom.Format(signature.StringOptions{Neighbors: true})
		if ferr != nil {
			return nil, nil, ferr
		}
		if len(bits) == 0 {
			unknown = append(unknown, rendered)
			continue
		}
		if i, ok := position[Entry{Bit: bits[len(bits)-1], Signature: rendered}]; ok {
			counts[i]++
		} else {
			unknown = append(unknown, rendered)
		}
	}
	return counts, unknown, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Compatibility and merge
// ─────────────────────────────────────────────────────────────────────────────

// Compatible reports whether another alphabet can be merged into this one.
// It returns nil when the configurations match and an incompatibility error
// naming the differing fields otherwise.
func (a *Alphabet) Compatible(o *Alphabet) error {
	if a.cfg.Equal(o.cfg) {
		return nil
	}
	return errors.New(errors.ErrCodeIncompatibleAlphabet,
		"alphabet configurations differ").
		WithDetail(fmt.Sprintf("%+v vs %+v", a.cfg, o.cfg))
}

// Merge unions another alphabet's entries into this one.  Merging is
// commutative and associative in content, and merging an empty alphabet of
// the same configuration is a no-op.
func (a *Alphabet) Merge(o *Alphabet) error {
	if err := a.Compatible(o); err != nil {
		return err
	}
	for bit, set := range o.entries {
		for s := range set {
			a.add(bit, s)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (a *Alphabet) Clone() *Alphabet {
	c := New(a.cfg)
	for bit, set := range a.entries {
		for s := range set {
			c.add(bit, s)
		}
	}
	return c
}

// Describe renders a human-readable summary of configuration and content.
func (a *Alphabet) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "radius: %d\n", a.cfg.Radius)
	fmt.Fprintf(&sb, "bit width: %d\n", a.cfg.BitWidth)
	fmt.Fprintf(&sb, "use stereo: %t\n", a.cfg.UseStereo)
	fmt.Fprintf(&sb, "register all levels: %t\n", a.cfg.RegisterAllLevels)
	fmt.Fprintf(&sb, "occupied bits: %d\n", len(a.entries))
	fmt.Fprintf(&sb, "alphabet length: %d\n", a.Size())
	return sb.String()
}
