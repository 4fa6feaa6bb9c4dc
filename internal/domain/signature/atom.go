package signature

import (
	"sort"
	"strings"

	"github.com/turtacn/MolSig-Alphabet/internal/domain/molecule"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// NeighborRef is one entry of the neighbor-inclusive signature form: the tag
// of the bond to the neighbor and the neighbor's own rooted pattern at
// radius-1.
type NeighborRef struct {
	BondTag string
	Pattern string
}

// less orders neighbor entries by (bond tag, pattern), the canonical order of
// the neighbor-inclusive form.
func (n NeighborRef) less(o NeighborRef) bool {
	if n.BondTag != o.BondTag {
		return n.BondTag < o.BondTag
	}
	return n.Pattern < o.Pattern
}

// AtomSignature is the canonical signature of one atom: the fingerprint bits
// its environments hash to, the rooted pattern of its radius environment,
// and — once neighbors are expanded — the radius-1 pattern of the root plus
// one entry per bonded neighbor.
//
// Two AtomSignatures are equal exactly when their bits, root pattern, and
// neighbor entries are equal; atom indices never participate.
type AtomSignature struct {
	morgans   []uint32
	root      string
	rootMinus string
	neighbors []NeighborRef
	expanded  bool
}

// Morgans returns the fingerprint bit tuple, nil when bits were not computed.
func (a *AtomSignature) Morgans() []uint32 { return a.morgans }

// Root returns the rooted pattern of the full-radius environment.
func (a *AtomSignature) Root() string { return a.root }

// RootMinus returns the rooted pattern of the radius-1 environment, empty
// before neighbor expansion.
func (a *AtomSignature) RootMinus() string { return a.rootMinus }

// Neighbors returns the expanded neighbor entries in canonical order.
func (a *AtomSignature) Neighbors() []NeighborRef { return a.neighbors }

// Expanded reports whether the neighbor-inclusive form is available.
func (a *AtomSignature) Expanded() bool { return a.expanded }

// ─────────────────────────────────────────────────────────────────────────────
// String forms
// ─────────────────────────────────────────────────────────────────────────────

// StringOptions selects which signature form Format renders.
type StringOptions struct {
	// Neighbors selects the neighbor-inclusive form: the radius-1 root
	// pattern followed by one bond-tagged entry per neighbor.
	Neighbors bool

	// Morgans includes the fingerprint bit tuple prefix.  Ignored when no
	// bits were computed.
	Morgans bool
}

// Format renders the signature in the requested form.
func (a *AtomSignature) Format(opts StringOptions) (string, error) {
	var sb strings.Builder
	if opts.Morgans && a.morgans != nil {
		sb.WriteString(formatBits(a.morgans))
		sb.WriteString(MorganSep)
	}
	if opts.Neighbors {
		if !a.expanded {
			return "", errors.New(errors.ErrCodeNeighborsNotComputed,
				"neighbor signatures not computed").
				WithDetail("call ExpandNeighbors before requesting the neighbor form")
		}
		sb.WriteString(a.rootMinus)
		for _, n := range a.neighbors {
			sb.WriteString(NeighborSep)
			sb.WriteString(n.BondTag)
			sb.WriteString(BondSep)
			sb.WriteString(n.Pattern)
		}
	} else {
		sb.WriteString(a.root)
	}
	return sb.String(), nil
}

// String renders the default form: root pattern with bits when present.
func (a *AtomSignature) String() string {
	s, _ := a.Format(StringOptions{Morgans: true})
	return s
}

// ParseAtomSignature decodes either signature form produced by Format.
// Signatures parsed from the neighbor-inclusive form have no root pattern;
// signatures parsed from the root form have no neighbor entries until
// PostComputeNeighbors is called.
func ParseAtomSignature(s string) (*AtomSignature, error) {
	if s == "" {
		return nil, errors.New(errors.ErrCodeMalformedSignature, "empty signature string")
	}

	a := &AtomSignature{}
	rest := s
	if i := strings.Index(s, MorganSep); i >= 0 {
		bits, err := parseBits(s[:i])
		if err != nil {
			return nil, err
		}
		a.morgans = bits
		rest = s[i+len(MorganSep):]
	}

	if strings.Contains(rest, NeighborSep) {
		parts := strings.Split(rest, NeighborSep)
		if err := ValidatePattern(parts[0]); err != nil {
			return nil, err
		}
		a.rootMinus = parts[0]
		for _, entry := range parts[1:] {
			tagAndSig := strings.SplitN(entry, BondSep, 2)
			if len(tagAndSig) != 2 {
				return nil, errors.Newf(errors.ErrCodeMalformedSignature,
					"neighbor entry %q has no bond separator", entry)
			}
			if err := ValidatePattern(tagAndSig[1]); err != nil {
				return nil, err
			}
			a.neighbors = append(a.neighbors, NeighborRef{
				BondTag: tagAndSig[0],
				Pattern: tagAndSig[1],
			})
		}
		a.expanded = true
		return a, nil
	}

	if err := ValidatePattern(rest); err != nil {
		return nil, err
	}
	a.root = rest
	return a, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Ordering and equality
// ─────────────────────────────────────────────────────────────────────────────

// Less imposes the canonical order on atom signatures: by bit tuple, then
// root pattern, then neighbor entries.
func (a *AtomSignature) Less(b *AtomSignature) bool {
	if c := compareBits(a.morgans, b.morgans); c != 0 {
		return c < 0
	}
	if a.root != b.root {
		return a.root < b.root
	}
	return compareNeighbors(a.neighbors, b.neighbors) < 0
}

// Equal reports canonical equality.
func (a *AtomSignature) Equal(b *AtomSignature) bool {
	return compareBits(a.morgans, b.morgans) == 0 &&
		a.root == b.root &&
		compareNeighbors(a.neighbors, b.neighbors) == 0
}

func compareBits(a, b []uint32) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

func compareNeighbors(a, b []NeighborRef) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i].less(b[i]) {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// ─────────────────────────────────────────────────────────────────────────────
// Neighbor expansion
// ─────────────────────────────────────────────────────────────────────────────

// expandFrom computes rootMinus and the neighbor entries directly from the
// source molecule.  Used during extraction, when the molecule is at hand.
func (a *AtomSignature) expandFrom(mol *molecule.Molecule, atom, radius int, useStereo bool) error {
	minus, err := ExtractEnvironment(mol, atom, max(radius-1, 0), useStereo)
	if err != nil {
		return err
	}
	a.rootMinus = minus.Render(true)

	a.neighbors = a.neighbors[:0]
	for _, nb := range mol.Neighbors(atom) {
		env, err := ExtractEnvironment(mol, nb.Atom, max(radius-1, 0), useStereo)
		if err != nil {
			return err
		}
		a.neighbors = append(a.neighbors, NeighborRef{
			BondTag: mol.BondDescriptor(nb.Bond).Order.Tag(),
			Pattern: env.Render(true),
		})
	}
	sortNeighbors(a.neighbors)
	a.expanded = true
	return nil
}

// PostComputeNeighbors derives the neighbor-inclusive form for a signature
// that was parsed from its root form: the root pattern is rebuilt into a
// fragment, and the radius-1 environments of the root and its neighbors are
// extracted from that fragment.
func (a *AtomSignature) PostComputeNeighbors(radius int, useStereo bool) error {
	if a.root == "" {
		return errors.New(errors.ErrCodeNeighborsNotComputed,
			"signature has no root pattern to expand from")
	}
	frag, rootIdx, err := ParsePattern(a.root)
	if err != nil {
		return err
	}
	return a.expandFrom(frag, rootIdx, radius, useStereo)
}

func sortNeighbors(refs []NeighborRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].less(refs[j]) })
}
