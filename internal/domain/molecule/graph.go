// Package molecule provides the molecular graph model that signature
// extraction operates on.  A Molecule is an immutable labelled graph of atoms
// and bonds; all chemistry-aware derivation (implicit hydrogens, ring
// membership, canonical atom descriptors) happens once at construction so the
// extractor can treat atoms as plain descriptor-carrying nodes.
package molecule

import (
	"fmt"

	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
	"github.com/turtacn/MolSig-Alphabet/pkg/types/chem"
)

// ─────────────────────────────────────────────────────────────────────────────
// Atom and Bond
// ─────────────────────────────────────────────────────────────────────────────

// Atom is the raw input form of an atom, as produced by a notation parser.
// Derived quantities (degree, implicit hydrogens, ring membership) are
// computed by NewMolecule, not supplied by the caller.
type Atom struct {
	// Symbol is the element symbol ("C", "Cl") or "*" for a wildcard atom.
	Symbol string

	// Aromatic marks membership in an aromatic system.
	Aromatic bool

	// Charge is the formal charge.
	Charge int

	// ExplicitH is the hydrogen count written explicitly in the notation
	// (bracket atoms).  Negative means "not specified": implicit hydrogens
	// are then derived from default valences.
	ExplicitH int

	// Parity is the optional tetrahedral stereo tag ("@" or "@@").
	Parity string
}

// Bond is the raw input form of a bond between atoms A and B (indices into
// the atom slice).
type Bond struct {
	A, B   int
	Order  chem.BondOrder
	Stereo chem.BondStereo
}

// Neighbor pairs an adjacent atom with the bond that reaches it.
type Neighbor struct {
	Atom int
	Bond int
}

// ─────────────────────────────────────────────────────────────────────────────
// Molecule
// ─────────────────────────────────────────────────────────────────────────────

// Molecule is an immutable molecular graph.  Construct with NewMolecule;
// the zero value is not usable.
type Molecule struct {
	atoms []Atom
	bonds []Bond

	// adjacency[i] lists the neighbors of atom i, in input bond order.
	adjacency [][]Neighbor

	// descriptors[i] is the canonical descriptor of atom i.
	descriptors []chem.AtomDescriptor

	// ringBond[k] is true when bond k lies on at least one cycle.
	ringBond []bool

	// notation is the source string the molecule was parsed from, when any.
	notation string
}

// defaultValences lists the allowed valences, in increasing order, used to
// derive implicit hydrogen counts for atoms written without an explicit H
// count.  Elements not listed get no implicit hydrogens.
var defaultValences = map[string][]int{
	"B":  {3},
	"C":  {4},
	"N":  {3, 5},
	"O":  {2},
	"P":  {3, 5},
	"S":  {2, 4, 6},
	"F":  {1},
	"Cl": {1},
	"Br": {1},
	"I":  {1},
}

// NewMolecule validates the raw atoms and bonds and derives the per-atom
// descriptors.  Bond endpoints must be distinct, in range, and unique per
// atom pair.
func NewMolecule(atoms []Atom, bonds []Bond) (*Molecule, error) {
	m := &Molecule{
		atoms:     atoms,
		bonds:     bonds,
		adjacency: make([][]Neighbor, len(atoms)),
	}

	seen := make(map[[2]int]bool, len(bonds))
	for k, b := range bonds {
		if b.A < 0 || b.A >= len(atoms) || b.B < 0 || b.B >= len(atoms) {
			return nil, errors.Newf(errors.ErrCodeInvalidAtom,
				"bond %d references atom out of range", k)
		}
		if b.A == b.B {
			return nil, errors.Newf(errors.ErrCodeInvalidAtom,
				"bond %d is a self-loop on atom %d", k, b.A)
		}
		key := [2]int{min(b.A, b.B), max(b.A, b.B)}
		if seen[key] {
			return nil, errors.Newf(errors.ErrCodeInvalidAtom,
				"duplicate bond between atoms %d and %d", b.A, b.B)
		}
		seen[key] = true
		m.adjacency[b.A] = append(m.adjacency[b.A], Neighbor{Atom: b.B, Bond: k})
		m.adjacency[b.B] = append(m.adjacency[b.B], Neighbor{Atom: b.A, Bond: k})
	}

	m.ringBond = m.findRingBonds()
	m.descriptors = make([]chem.AtomDescriptor, len(atoms))
	for i := range atoms {
		m.descriptors[i] = m.deriveDescriptor(i)
	}
	return m, nil
}

// findRingBonds marks every bond that lies on a cycle.  A bond is a ring bond
// exactly when it is not a bridge; bridges are found with a single DFS over
// discovery times (Tarjan).
func (m *Molecule) findRingBonds() []bool {
	ring := make([]bool, len(m.bonds))
	for k := range ring {
		ring[k] = true
	}

	disc := make([]int, len(m.atoms))
	low := make([]int, len(m.atoms))
	for i := range disc {
		disc[i] = -1
	}
	timer := 0

	var dfs func(at, viaBond int)
	dfs = func(at, viaBond int) {
		disc[at] = timer
		low[at] = timer
		timer++
		for _, nb := range m.adjacency[at] {
			if nb.Bond == viaBond {
				continue
			}
			if disc[nb.Atom] == -1 {
				dfs(nb.Atom, nb.Bond)
				low[at] = min(low[at], low[nb.Atom])
				if low[nb.Atom] > disc[at] {
					ring[nb.Bond] = false // bridge
				}
			} else {
				low[at] = min(low[at], disc[nb.Atom])
			}
		}
	}
	for i := range m.atoms {
		if disc[i] == -1 {
			dfs(i, -1)
		}
	}
	return ring
}

// deriveDescriptor computes the canonical descriptor of atom i.  Bond order
// sums use doubled integer units so aromatic bonds can count as 1.5.
func (m *Molecule) deriveDescriptor(i int) chem.AtomDescriptor {
	a := m.atoms[i]
	degree := len(m.adjacency[i])

	sum2 := 0
	inRing := false
	for _, nb := range m.adjacency[i] {
		switch m.bonds[nb.Bond].Order {
		case chem.BondSingle:
			sum2 += 2
		case chem.BondDouble:
			sum2 += 4
		case chem.BondTriple:
			sum2 += 6
		case chem.BondAromatic:
			sum2 += 3
		}
		if m.ringBond[nb.Bond] {
			inRing = true
		}
	}
	bondSum := (sum2 + 1) / 2 // round half-integer aromatic sums up

	var implicitH, totalH int
	switch {
	case a.ExplicitH >= 0:
		totalH = a.ExplicitH
	case a.Symbol == "*":
		// wildcard atoms carry no hydrogens
	default:
		for _, v := range defaultValences[a.Symbol] {
			if v >= bondSum {
				implicitH = v - bondSum
				break
			}
		}
		// aromatic atoms donate one bond into the pi system
		if a.Aromatic && implicitH > 0 && sum2%2 == 1 {
			implicitH--
		}
		totalH = implicitH
	}

	return chem.AtomDescriptor{
		Symbol:    a.Symbol,
		Aromatic:  a.Aromatic,
		TotalH:    totalH,
		ImplicitH: implicitH,
		Degree:    degree,
		Valence:   degree + totalH,
		Charge:    a.Charge,
		InRing:    inRing,
		Parity:    a.Parity,
	}
}

// NewFragment builds a Molecule whose atom descriptors are pinned by the
// caller instead of derived from the graph.  Signature patterns record the
// hydrogen counts and connectivity of atoms in their original molecule;
// reconstructing a fragment from such a pattern must preserve those values
// even where the fragment has fewer bonds than the original.
func NewFragment(atoms []Atom, bonds []Bond, descriptors []chem.AtomDescriptor) (*Molecule, error) {
	if len(descriptors) != len(atoms) {
		return nil, errors.Newf(errors.ErrCodeInvalidAtom,
			"descriptor count %d does not match atom count %d", len(descriptors), len(atoms))
	}
	m, err := NewMolecule(atoms, bonds)
	if err != nil {
		return nil, err
	}
	copy(m.descriptors, descriptors)
	return m, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Accessors
// ─────────────────────────────────────────────────────────────────────────────

// AtomCount returns the number of atoms.
func (m *Molecule) AtomCount() int { return len(m.atoms) }

// BondCount returns the number of bonds.
func (m *Molecule) BondCount() int { return len(m.bonds) }

// Atom returns the raw atom at index i.
func (m *Molecule) Atom(i int) Atom { return m.atoms[i] }

// Neighbors returns the adjacency list of atom i.  The returned slice must
// not be modified.
func (m *Molecule) Neighbors(i int) []Neighbor { return m.adjacency[i] }

// Descriptor returns the canonical descriptor of atom i.
func (m *Molecule) Descriptor(i int) (chem.AtomDescriptor, error) {
	if i < 0 || i >= len(m.atoms) {
		return chem.AtomDescriptor{}, errors.Newf(errors.ErrCodeInvalidAtom,
			"atom index %d out of range", i).
			WithDetail(fmt.Sprintf("molecule has %d atoms", len(m.atoms)))
	}
	return m.descriptors[i], nil
}

// BondAt returns the raw bond at index k.
func (m *Molecule) BondAt(k int) Bond { return m.bonds[k] }

// BondDescriptor returns the descriptor of bond k.
func (m *Molecule) BondDescriptor(k int) chem.BondDescriptor {
	b := m.bonds[k]
	return chem.BondDescriptor{Order: b.Order, Stereo: b.Stereo}
}

// BondBetween returns the index of the bond joining atoms a and b, or -1.
func (m *Molecule) BondBetween(a, b int) int {
	for _, nb := range m.adjacency[a] {
		if nb.Atom == b {
			return nb.Bond
		}
	}
	return -1
}

// InRing reports whether atom i lies on a cycle.
func (m *Molecule) InRing(i int) bool { return m.descriptors[i].InRing }

// HasWildcard reports whether any atom is the "*" wildcard.  Such molecules
// are skipped during alphabet fills.
func (m *Molecule) HasWildcard() bool {
	for _, a := range m.atoms {
		if a.Symbol == "*" {
			return true
		}
	}
	return false
}

// Notation returns the source string the molecule was parsed from, empty for
// molecules assembled directly from atoms and bonds.
func (m *Molecule) Notation() string { return m.notation }

// ─────────────────────────────────────────────────────────────────────────────
// GraphProvider
// ─────────────────────────────────────────────────────────────────────────────

// GraphProvider turns a molecule notation string into a Molecule.  The
// bundled SMILES-subset parser is the reference implementation; a real
// deployment would wrap a cheminformatics toolkit such as RDKit behind this
// interface.
type GraphProvider interface {
	Parse(notation string) (*Molecule, error)
}
