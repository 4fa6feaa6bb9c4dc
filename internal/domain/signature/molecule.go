package signature

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/MolSig-Alphabet/internal/domain/molecule"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// Options controls signature extraction.
type Options struct {
	// Radius is the maximum bond distance of the environments.  Negative
	// means the whole molecule.
	Radius int

	// UseStereo keeps stereo descriptors in patterns; when false they are
	// stripped before rendering.
	UseStereo bool
}

// MoleculeSignature is the multiset of the atomic signatures of a molecule,
// held in canonical order.  Equality between molecule signatures is equality
// of the ordered atom signature list, so two structurally identical molecules
// compare equal no matter how their atoms were numbered.
type MoleculeSignature struct {
	atoms []*AtomSignature
}

// NewMoleculeSignature extracts the signature of every atom of mol.  When
// oracle is non-nil each atom also receives its fingerprint bit tuple; pass
// nil to build bit-free signatures.
func NewMoleculeSignature(mol *molecule.Molecule, opts Options, oracle molecule.MorganOracle) (*MoleculeSignature, error) {
	if mol.AtomCount() == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "molecule has no atoms")
	}

	radius := opts.Radius
	if radius < 0 {
		radius = mol.AtomCount()
	}

	// Extract every environment once: envs[atom][r] for r in [0, radius].
	envs := make([][]*Environment, mol.AtomCount())
	for i := range envs {
		envs[i] = make([]*Environment, radius+1)
		for r := 0; r <= radius; r++ {
			env, err := ExtractEnvironment(mol, i, r, opts.UseStereo)
			if err != nil {
				return nil, err
			}
			envs[i][r] = env
		}
	}

	var morgans [][]uint32
	if oracle != nil {
		morgans = assignMorganBits(envs, radius, oracle)
	}

	ms := &MoleculeSignature{atoms: make([]*AtomSignature, 0, mol.AtomCount())}
	for i := 0; i < mol.AtomCount(); i++ {
		sig := &AtomSignature{root: envs[i][radius].Render(true)}
		if morgans != nil {
			sig.morgans = morgans[i]
		}
		if err := sig.expandFrom(mol, i, radius, opts.UseStereo); err != nil {
			return nil, err
		}
		ms.atoms = append(ms.atoms, sig)
	}

	sort.Slice(ms.atoms, func(a, b int) bool { return ms.atoms[a].Less(ms.atoms[b]) })
	return ms, nil
}

// assignMorganBits emits one fingerprint bit per atom per growing radius.
// Environments that stop growing stop emitting, and when several atoms share
// the same bond set at a radius only one of them — the one with the smallest
// rendered environment, a numbering-independent choice — keeps the bit.
func assignMorganBits(envs [][]*Environment, radius int, oracle molecule.MorganOracle) [][]uint32 {
	bits := make([][]uint32, len(envs))

	// Radius 0 environments are single atoms: every atom emits.
	for i := range envs {
		bits[i] = append(bits[i], oracle.Bit(envs[i][0].Render(true)))
	}

	claimed := map[string]bool{}
	for r := 1; r <= radius; r++ {
		type candidate struct {
			atom     int
			rendered string
		}
		byBondSet := map[string][]candidate{}
		for i := range envs {
			if len(envs[i][r].Bonds()) == len(envs[i][r-1].Bonds()) {
				continue // environment stopped growing
			}
			key := bondSetKey(envs[i][r].Bonds())
			byBondSet[key] = append(byBondSet[key], candidate{
				atom:     i,
				rendered: envs[i][r].Render(true),
			})
		}
		for key, cands := range byBondSet {
			if claimed[key] {
				continue
			}
			claimed[key] = true
			best := cands[0]
			for _, c := range cands[1:] {
				if c.rendered < best.rendered {
					best = c
				}
			}
			bits[best.atom] = append(bits[best.atom], oracle.Bit(best.rendered))
		}
	}
	return bits
}

func bondSetKey(bonds []int) string {
	var sb strings.Builder
	for _, b := range bonds {
		fmt.Fprintf(&sb, "%d,", b)
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Accessors
// ─────────────────────────────────────────────────────────────────────────────

// Len returns the number of atom signatures.
func (m *MoleculeSignature) Len() int { return len(m.atoms) }

// Atoms returns the atom signatures in canonical order.  The slice must not
// be modified.
func (m *MoleculeSignature) Atoms() []*AtomSignature { return m.atoms }

// ─────────────────────────────────────────────────────────────────────────────
// String forms
// ─────────────────────────────────────────────────────────────────────────────

// ToList renders every atom signature in the requested form.
func (m *MoleculeSignature) ToList(opts StringOptions) ([]string, error) {
	out := make([]string, len(m.atoms))
	for i, a := range m.atoms {
		s, err := a.Format(opts)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// ToString joins the atom signature renderings with AtomSep.
func (m *MoleculeSignature) ToString(opts StringOptions) (string, error) {
	list, err := m.ToList(opts)
	if err != nil {
		return "", err
	}
	return strings.Join(list, AtomSep), nil
}

// String renders the default form: root patterns with bits when present.
func (m *MoleculeSignature) String() string {
	s, _ := m.ToString(StringOptions{Morgans: true})
	return s
}

// ParseMoleculeSignature decodes a string produced by ToString.
func ParseMoleculeSignature(s string) (*MoleculeSignature, error) {
	if s == "" {
		return nil, errors.New(errors.ErrCodeMalformedSignature, "empty signature string")
	}
	return FromList(strings.Split(s, AtomSep))
}

// FromList decodes a list of atom signature strings.
func FromList(list []string) (*MoleculeSignature, error) {
	m := &MoleculeSignature{atoms: make([]*AtomSignature, 0, len(list))}
	for _, s := range list {
		a, err := ParseAtomSignature(s)
		if err != nil {
			return nil, err
		}
		m.atoms = append(m.atoms, a)
	}
	return m, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Equality and expansion
// ─────────────────────────────────────────────────────────────────────────────

// Equal reports canonical equality of the ordered atom signature lists.
func (m *MoleculeSignature) Equal(o *MoleculeSignature) bool {
	if len(m.atoms) != len(o.atoms) {
		return false
	}
	for i := range m.atoms {
		if !m.atoms[i].Equal(o.atoms[i]) {
			return false
		}
	}
	return true
}

// PostComputeNeighbors expands the neighbor-inclusive form of every atom
// signature that was parsed from its root form.
func (m *MoleculeSignature) PostComputeNeighbors(radius int, useStereo bool) error {
	for _, a := range m.atoms {
		if a.expanded {
			continue
		}
		if err := a.PostComputeNeighbors(radius, useStereo); err != nil {
			return err
		}
	}
	return nil
}
