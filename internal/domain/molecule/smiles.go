package molecule

import (
	"fmt"
	"strings"

	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
	"github.com/turtacn/MolSig-Alphabet/pkg/types/chem"
)

// SMILESParser is the bundled GraphProvider for a practical subset of the
// SMILES notation: organic-subset atoms, bracket atoms with charge, explicit
// hydrogen counts and tetrahedral parity, branches, ring closures (including
// %nn), aromatic lowercase atoms, directional single bonds, dot-separated
// components, and the "*" wildcard atom.
//
// Isotope labels inside bracket atoms are accepted and ignored.  A real-world
// deployment would replace this with an RDKit-backed provider.
type SMILESParser struct{}

// NewSMILESParser returns the bundled SMILES-subset GraphProvider.
func NewSMILESParser() *SMILESParser { return &SMILESParser{} }

var _ GraphProvider = (*SMILESParser)(nil)

// organicSubset lists the element symbols that may appear outside brackets.
// Two-character symbols must be checked before their one-character prefixes.
var organicSubset = []string{"Cl", "Br", "B", "C", "N", "O", "P", "S", "F", "I"}

// aromaticSubset lists the lowercase aromatic forms allowed outside brackets.
var aromaticSubset = map[byte]string{
	'b': "B", 'c': "C", 'n': "N", 'o': "O", 'p': "P", 's': "S",
}

// pendingBond carries bond state between the previous atom and the next one.
type pendingBond struct {
	order  chem.BondOrder
	stereo chem.BondStereo
	set    bool
}

// ringRef records an open ring-closure digit.
type ringRef struct {
	atom int
	bond pendingBond
}

type smilesState struct {
	input string
	pos   int

	atoms []Atom
	bonds []Bond

	// prev is the index of the atom a new atom will bond to, -1 at the start
	// of a component.
	prev    int
	pending pendingBond
	stack   []int
	rings   map[int]ringRef
}

// Parse implements GraphProvider.
func (p *SMILESParser) Parse(notation string) (*Molecule, error) {
	notation = strings.TrimSpace(notation)
	if notation == "" {
		return nil, errors.New(errors.ErrCodeInvalidSMILES, "empty SMILES string")
	}

	st := &smilesState{
		input: notation,
		prev:  -1,
		rings: map[int]ringRef{},
	}
	if err := st.run(); err != nil {
		return nil, err
	}
	if len(st.rings) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidSMILES, "unclosed ring bond").
			WithDetail(fmt.Sprintf("smiles=%s", notation))
	}
	if len(st.stack) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidSMILES, "unbalanced parentheses").
			WithDetail(fmt.Sprintf("smiles=%s", notation))
	}

	m, err := NewMolecule(st.atoms, st.bonds)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidSMILES, "inconsistent molecular graph").
			WithDetail(fmt.Sprintf("smiles=%s", notation))
	}
	m.notation = notation
	return m, nil
}

func (st *smilesState) fail(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrCodeInvalidSMILES, format, args...).
		WithDetail(fmt.Sprintf("smiles=%s pos=%d", st.input, st.pos))
}

func (st *smilesState) run() error {
	for st.pos < len(st.input) {
		c := st.input[st.pos]
		switch {
		case c == '(':
			if st.prev < 0 {
				return st.fail("branch before any atom")
			}
			st.stack = append(st.stack, st.prev)
			st.pos++

		case c == ')':
			if len(st.stack) == 0 {
				return st.fail("unmatched closing parenthesis")
			}
			st.prev = st.stack[len(st.stack)-1]
			st.stack = st.stack[:len(st.stack)-1]
			st.pos++

		case c == '.':
			if st.pending.set {
				return st.fail("bond symbol before component separator")
			}
			st.prev = -1
			st.pos++

		case c == '-' || c == '=' || c == '#' || c == ':' || c == '/' || c == '\\':
			if st.pending.set {
				return st.fail("consecutive bond symbols")
			}
			order, _ := chem.ParseBondSymbol(string(c))
			st.pending = pendingBond{order: order, set: true}
			switch c {
			case '/':
				st.pending.stereo = chem.StereoUp
			case '\\':
				st.pending.stereo = chem.StereoDown
			}
			st.pos++

		case c >= '0' && c <= '9':
			if err := st.closeRing(int(c - '0')); err != nil {
				return err
			}
			st.pos++

		case c == '%':
			if st.pos+2 >= len(st.input) ||
				!isDigit(st.input[st.pos+1]) || !isDigit(st.input[st.pos+2]) {
				return st.fail("%% must be followed by two digits")
			}
			n := int(st.input[st.pos+1]-'0')*10 + int(st.input[st.pos+2]-'0')
			if err := st.closeRing(n); err != nil {
				return err
			}
			st.pos += 3

		case c == '[':
			atom, err := st.readBracketAtom()
			if err != nil {
				return err
			}
			st.addAtom(atom)

		case c == '*':
			st.addAtom(Atom{Symbol: "*", ExplicitH: -1})
			st.pos++

		default:
			atom, err := st.readOrganicAtom()
			if err != nil {
				return err
			}
			st.addAtom(atom)
		}
	}
	return nil
}

// readOrganicAtom consumes an organic-subset atom (aromatic lowercase or
// aliphatic symbol) at the current position.
func (st *smilesState) readOrganicAtom() (Atom, error) {
	c := st.input[st.pos]
	if sym, ok := aromaticSubset[c]; ok {
		st.pos++
		return Atom{Symbol: sym, Aromatic: true, ExplicitH: -1}, nil
	}
	for _, sym := range organicSubset {
		if strings.HasPrefix(st.input[st.pos:], sym) {
			st.pos += len(sym)
			return Atom{Symbol: sym, ExplicitH: -1}, nil
		}
	}
	return Atom{}, st.fail("unexpected character %q", c)
}

// readBracketAtom consumes a "[...]" atom specification:
// [isotope] symbol [@|@@] [H count] [charge].
func (st *smilesState) readBracketAtom() (Atom, error) {
	end := strings.IndexByte(st.input[st.pos:], ']')
	if end < 0 {
		return Atom{}, st.fail("unterminated bracket atom")
	}
	body := st.input[st.pos+1 : st.pos+end]
	start := st.pos
	st.pos += end + 1

	i := 0
	// isotope label, ignored
	for i < len(body) && isDigit(body[i]) {
		i++
	}
	if i >= len(body) {
		st.pos = start
		return Atom{}, st.fail("bracket atom missing element symbol")
	}

	atom := Atom{ExplicitH: 0}
	switch {
	case body[i] == '*':
		atom.Symbol = "*"
		atom.ExplicitH = -1
		i++
	case body[i] >= 'a' && body[i] <= 'z':
		sym, ok := aromaticSubset[body[i]]
		if !ok {
			st.pos = start
			return Atom{}, st.fail("unknown aromatic symbol %q", body[i])
		}
		atom.Symbol = sym
		atom.Aromatic = true
		i++
	case body[i] >= 'A' && body[i] <= 'Z':
		// Hydrogen counts use uppercase H, so a lowercase letter after an
		// uppercase one is always the second character of the symbol.
		j := i + 1
		if j < len(body) && body[j] >= 'a' && body[j] <= 'z' {
			j++
		}
		atom.Symbol = body[i:j]
		i = j
	default:
		st.pos = start
		return Atom{}, st.fail("bracket atom missing element symbol")
	}

	// tetrahedral parity
	if i < len(body) && body[i] == '@' {
		if i+1 < len(body) && body[i+1] == '@' {
			atom.Parity = "@@"
			i += 2
		} else {
			atom.Parity = "@"
			i++
		}
	}

	// explicit hydrogen count
	if i < len(body) && body[i] == 'H' {
		i++
		n := 1
		if i < len(body) && isDigit(body[i]) {
			n = 0
			for i < len(body) && isDigit(body[i]) {
				n = n*10 + int(body[i]-'0')
				i++
			}
		}
		atom.ExplicitH = n
	}

	// formal charge: +, -, ++, --, +n, -n
	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		mark := body[i]
		i++
		n := 1
		switch {
		case i < len(body) && isDigit(body[i]):
			n = 0
			for i < len(body) && isDigit(body[i]) {
				n = n*10 + int(body[i]-'0')
				i++
			}
		default:
			for i < len(body) && body[i] == mark {
				n++
				i++
			}
		}
		atom.Charge = sign * n
	}

	if i != len(body) {
		st.pos = start
		return Atom{}, st.fail("trailing characters in bracket atom %q", body)
	}
	return atom, nil
}

// addAtom appends the atom and bonds it to the previous atom using the
// pending bond, defaulting to single (or aromatic when both ends are
// aromatic).
func (st *smilesState) addAtom(a Atom) {
	idx := len(st.atoms)
	st.atoms = append(st.atoms, a)
	if st.prev >= 0 {
		st.bonds = append(st.bonds, st.resolveBond(st.prev, idx))
	}
	st.pending = pendingBond{}
	st.prev = idx
}

// closeRing opens ring label n on first sight and closes it on second.
func (st *smilesState) closeRing(n int) error {
	if st.prev < 0 {
		return st.fail("ring closure before any atom")
	}
	ref, open := st.rings[n]
	if !open {
		st.rings[n] = ringRef{atom: st.prev, bond: st.pending}
		st.pending = pendingBond{}
		return nil
	}
	delete(st.rings, n)
	if ref.atom == st.prev {
		return st.fail("ring closure %d bonds atom to itself", n)
	}
	// The bond symbol may be written at either end; written symbols must agree.
	bondSpec := st.pending
	if !bondSpec.set {
		bondSpec = ref.bond
	} else if ref.bond.set && ref.bond.order != bondSpec.order {
		return st.fail("conflicting bond orders on ring closure %d", n)
	}
	st.pending = bondSpec
	st.bonds = append(st.bonds, st.resolveBond(ref.atom, st.prev))
	st.pending = pendingBond{}
	return nil
}

// resolveBond materialises the pending bond between atoms a and b.
func (st *smilesState) resolveBond(a, b int) Bond {
	bond := Bond{A: a, B: b, Order: chem.BondSingle}
	if st.pending.set {
		bond.Order = st.pending.order
		bond.Stereo = st.pending.stereo
	} else if st.atoms[a].Aromatic && st.atoms[b].Aromatic {
		bond.Order = chem.BondAromatic
	}
	return bond
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
