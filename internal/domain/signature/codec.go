package signature

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/MolSig-Alphabet/internal/domain/molecule"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
	"github.com/turtacn/MolSig-Alphabet/pkg/types/chem"
)

// Separators of the canonical signature grammar.  These are part of the
// persisted format: changing any of them invalidates every stored alphabet.
const (
	// BitSep joins the fingerprint bits of one atom.
	BitSep = "-"

	// MorganSep separates the bit tuple from the pattern part.
	MorganSep = " ## "

	// NeighborSep separates the radius-1 root pattern from each neighbor
	// entry in the neighbor-inclusive form.
	NeighborSep = " && "

	// BondSep separates a neighbor entry's bond tag from its pattern.
	BondSep = " <> "

	// AtomSep joins atom signatures inside a molecule signature.
	AtomSep = " .. "
)

// RootMapTag marks the root atom inside its pattern.
const RootMapTag = ":1"

// ─────────────────────────────────────────────────────────────────────────────
// Atom pattern parsing
// ─────────────────────────────────────────────────────────────────────────────

// parseAtomPattern decodes one bracketed atom pattern, e.g. "[C;H3;h3;D1;X4:1]".
// It returns the descriptor and whether the pattern carries the root map tag.
func parseAtomPattern(s string) (chem.AtomDescriptor, bool, error) {
	var d chem.AtomDescriptor
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return d, false, errors.Newf(errors.ErrCodeMalformedSignature,
			"atom pattern %q is not bracketed", s)
	}
	body := s[1 : len(s)-1]

	root := strings.HasSuffix(body, RootMapTag)
	if root {
		body = strings.TrimSuffix(body, RootMapTag)
	}

	fields := strings.Split(body, ";")
	if len(fields) < 5 {
		return d, false, errors.Newf(errors.ErrCodeMalformedSignature,
			"atom pattern %q is missing fields", s)
	}

	sym := fields[0]
	if sym == "" {
		return d, false, errors.Newf(errors.ErrCodeMalformedSignature,
			"atom pattern %q has an empty symbol", s)
	}
	if sym != "*" && sym[0] >= 'a' && sym[0] <= 'z' {
		d.Aromatic = true
		sym = strings.ToUpper(sym[:1]) + sym[1:]
	}
	d.Symbol = sym

	counts := []struct {
		prefix string
		dst    *int
	}{
		{"H", &d.TotalH}, {"h", &d.ImplicitH}, {"D", &d.Degree}, {"X", &d.Valence},
	}
	for i, c := range counts {
		f := fields[1+i]
		if !strings.HasPrefix(f, c.prefix) {
			return d, false, errors.Newf(errors.ErrCodeMalformedSignature,
				"atom pattern %q: expected %s field, got %q", s, c.prefix, f)
		}
		n, err := strconv.Atoi(f[len(c.prefix):])
		if err != nil || n < 0 {
			return d, false, errors.Newf(errors.ErrCodeMalformedSignature,
				"atom pattern %q: bad %s count %q", s, c.prefix, f)
		}
		*c.dst = n
	}

	for _, f := range fields[5:] {
		switch {
		case f == "@" || f == "@@":
			d.Parity = f
		case f == "+" || f == "-":
			d.Charge = 1
			if f == "-" {
				d.Charge = -1
			}
		case strings.HasPrefix(f, "+") || strings.HasPrefix(f, "-"):
			n, err := strconv.Atoi(f)
			if err != nil {
				return d, false, errors.Newf(errors.ErrCodeMalformedSignature,
					"atom pattern %q: bad charge %q", s, f)
			}
			d.Charge = n
		default:
			return d, false, errors.Newf(errors.ErrCodeMalformedSignature,
				"atom pattern %q: unknown field %q", s, f)
		}
	}
	return d, root, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Pattern → fragment reconstruction
// ─────────────────────────────────────────────────────────────────────────────

// patternParser is a recursive-descent reader for the rooted pattern grammar:
//
//	pattern := atom_pattern group*
//	group   := "(" bond_sym pattern ")"
type patternParser struct {
	input string
	pos   int

	atoms       []molecule.Atom
	bonds       []molecule.Bond
	descriptors []chem.AtomDescriptor
	rootIdx     int
}

func (p *patternParser) fail(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrCodeMalformedSignature, format, args...).
		WithDetail(fmt.Sprintf("pattern=%s pos=%d", p.input, p.pos))
}

// readAtom consumes one bracketed atom pattern and registers the atom.
func (p *patternParser) readAtom() (int, error) {
	if p.pos >= len(p.input) || p.input[p.pos] != '[' {
		return 0, p.fail("expected atom pattern")
	}
	end := strings.IndexByte(p.input[p.pos:], ']')
	if end < 0 {
		return 0, p.fail("unterminated atom pattern")
	}
	raw := p.input[p.pos : p.pos+end+1]
	p.pos += end + 1

	d, root, err := parseAtomPattern(raw)
	if err != nil {
		return 0, err
	}
	idx := len(p.atoms)
	explicitH := d.TotalH
	if d.Symbol == "*" {
		explicitH = -1
	}
	p.atoms = append(p.atoms, molecule.Atom{
		Symbol:    d.Symbol,
		Aromatic:  d.Aromatic,
		Charge:    d.Charge,
		ExplicitH: explicitH,
		Parity:    d.Parity,
	})
	p.descriptors = append(p.descriptors, d)
	if root {
		if p.rootIdx >= 0 {
			return 0, p.fail("pattern has more than one root tag")
		}
		p.rootIdx = idx
	}
	return idx, nil
}

// readBond consumes one bond symbol.
func (p *patternParser) readBond() (chem.BondOrder, chem.BondStereo, error) {
	if p.pos >= len(p.input) {
		return 0, chem.StereoNone, p.fail("expected bond symbol")
	}
	c := p.input[p.pos]
	order, err := chem.ParseBondSymbol(string(c))
	if err != nil {
		return 0, chem.StereoNone, p.fail("unknown bond symbol %q", c)
	}
	p.pos++
	switch c {
	case '/':
		return order, chem.StereoUp, nil
	case '\\':
		return order, chem.StereoDown, nil
	}
	return order, chem.StereoNone, nil
}

// readPattern consumes an atom pattern plus its parenthesised subtrees.
func (p *patternParser) readPattern() (int, error) {
	idx, err := p.readAtom()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.input) && p.input[p.pos] == '(' {
		p.pos++
		order, stereo, err := p.readBond()
		if err != nil {
			return 0, err
		}
		child, err := p.readPattern()
		if err != nil {
			return 0, err
		}
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return 0, p.fail("expected closing parenthesis")
		}
		p.pos++
		p.bonds = append(p.bonds, molecule.Bond{
			A: idx, B: child, Order: order, Stereo: stereo,
		})
	}
	return idx, nil
}

// ParsePattern reconstructs a molecular fragment from a rooted pattern
// string.  Atom descriptors are taken verbatim from the pattern, so hydrogen
// counts and connectivity recorded at extraction time survive even where the
// fragment is smaller than its source molecule.  It returns the fragment and
// the index of the root atom.
func ParsePattern(pattern string) (*molecule.Molecule, int, error) {
	p := &patternParser{input: pattern, rootIdx: -1}
	if _, err := p.readPattern(); err != nil {
		return nil, 0, err
	}
	if p.pos != len(p.input) {
		return nil, 0, p.fail("trailing characters after pattern")
	}
	if p.rootIdx < 0 {
		return nil, 0, errors.New(errors.ErrCodeMalformedSignature,
			"pattern has no root tag").
			WithDetail(fmt.Sprintf("pattern=%s", pattern))
	}

	frag, err := molecule.NewFragment(p.atoms, p.bonds, p.descriptors)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeMalformedSignature,
			"pattern describes an inconsistent fragment")
	}
	return frag, p.rootIdx, nil
}

// ValidatePattern reports whether a pattern string is well formed without
// materialising the fragment root.
func ValidatePattern(pattern string) error {
	p := &patternParser{input: pattern, rootIdx: -1}
	if _, err := p.readPattern(); err != nil {
		return err
	}
	if p.pos != len(p.input) {
		return p.fail("trailing characters after pattern")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bit tuple helpers
// ─────────────────────────────────────────────────────────────────────────────

// formatBits joins a bit tuple with BitSep.
func formatBits(bits []uint32) string {
	parts := make([]string, len(bits))
	for i, b := range bits {
		parts[i] = strconv.FormatUint(uint64(b), 10)
	}
	return strings.Join(parts, BitSep)
}

// parseBits decodes a BitSep-joined bit tuple.
func parseBits(s string) ([]uint32, error) {
	parts := strings.Split(s, BitSep)
	bits := make([]uint32, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeMalformedSignature,
				"bad fingerprint bit %q", p)
		}
		bits[i] = uint32(n)
	}
	return bits, nil
}
