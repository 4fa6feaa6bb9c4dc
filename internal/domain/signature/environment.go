// Package signature implements canonical atomic signatures: strings that
// identify the radius-bounded environment of an atom independently of atom
// numbering, together with the molecule-level container that aggregates them
// and the codec that round-trips them through their string form.
package signature

import (
	"sort"
	"strings"

	"github.com/turtacn/MolSig-Alphabet/internal/domain/molecule"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// envNode is one atom of the extracted environment tree.  bondSym is the
// rendered symbol of the bond to the parent, empty at the root.
type envNode struct {
	atom     int
	bondSym  string
	children []*envNode

	// rendered is the canonical text of this subtree, filled bottom-up by
	// finalize.
	rendered string
}

// Environment is the canonical spanning tree of the atoms reachable from a
// root atom within a bond radius.  Atoms attach at the level where breadth-
// first search first reaches them; bonds between two already-reached atoms
// are not part of the tree (they still count toward the environment's bond
// set).  Children of every node are ordered by their rendered text, which
// makes the tree a pure function of molecular structure rather than of input
// atom order.
type Environment struct {
	mol    *molecule.Molecule
	root   int
	radius int

	tree  *envNode
	bonds []int // all bond indices within the radius, sorted

	renderedPlain string // canonical text without the root map tag
	renderedRoot  string // canonical text with the root tagged ":1"
}

// ExtractEnvironment computes the environment of the given atom.  A negative
// radius means the whole molecule.  Stereo descriptors are stripped when
// useStereo is false.
func ExtractEnvironment(mol *molecule.Molecule, root, radius int, useStereo bool) (*Environment, error) {
	if root < 0 || root >= mol.AtomCount() {
		return nil, errors.Newf(errors.ErrCodeInvalidAtom,
			"atom index %d out of range", root)
	}
	if radius < 0 {
		radius = mol.AtomCount()
	}

	e := &Environment{mol: mol, root: root, radius: radius}
	e.build(useStereo)
	e.finalize(useStereo)
	return e, nil
}

// atomPattern renders the canonical pattern of one atom, honoring useStereo.
func atomPattern(mol *molecule.Molecule, idx int, useStereo, mapRoot bool) string {
	d, _ := mol.Descriptor(idx) // idx validated by the caller
	if !useStereo {
		d = d.WithoutStereo()
	}
	return d.Pattern(mapRoot)
}

// bondSymbol renders the canonical symbol of one bond, honoring useStereo.
func bondSymbol(mol *molecule.Molecule, bond int, useStereo bool) string {
	b := mol.BondDescriptor(bond)
	if !useStereo {
		b = b.WithoutStereo()
	}
	return b.Symbol()
}

// build runs the breadth-first expansion.  When several atoms of the current
// level reach the same new atom, the parent whose path key (the chain of
// bond symbols and atom patterns from the root) is smallest claims it; equal
// path keys describe symmetric branches, for which either choice renders
// identically.
func (e *Environment) build(useStereo bool) {
	level := map[int]int{e.root: 0}
	nodes := map[int]*envNode{e.root: {atom: e.root}}
	pathKey := map[int]string{e.root: atomPattern(e.mol, e.root, useStereo, false)}
	e.tree = nodes[e.root]

	type claim struct {
		parent int
		bond   int
		key    string
	}

	frontier := []int{e.root}
	for depth := 1; depth <= e.radius && len(frontier) > 0; depth++ {
		claims := map[int]claim{}
		for _, u := range frontier {
			for _, nb := range e.mol.Neighbors(u) {
				if _, ok := level[nb.Atom]; ok {
					continue
				}
				key := pathKey[u] + "|" + bondSymbol(e.mol, nb.Bond, useStereo) +
					atomPattern(e.mol, nb.Atom, useStereo, false)
				if best, ok := claims[nb.Atom]; !ok || key < best.key {
					claims[nb.Atom] = claim{parent: u, bond: nb.Bond, key: key}
				}
			}
		}

		next := make([]int, 0, len(claims))
		for v, c := range claims {
			level[v] = depth
			pathKey[v] = c.key
			child := &envNode{atom: v, bondSym: bondSymbol(e.mol, c.bond, useStereo)}
			nodes[c.parent].children = append(nodes[c.parent].children, child)
			nodes[v] = child
			next = append(next, v)
		}
		sort.Ints(next)
		frontier = next
	}

	// Environment bond set: every bond traversable within the radius,
	// including ring closures that the spanning tree drops.
	for k := 0; k < e.mol.BondCount(); k++ {
		b := e.mol.BondAt(k)
		la, oka := level[b.A]
		lb, okb := level[b.B]
		if oka && okb && min(la, lb)+1 <= e.radius {
			e.bonds = append(e.bonds, k)
		}
	}
	sort.Ints(e.bonds)
}

// finalize renders every subtree bottom-up and sorts children by their
// rendered text, producing the canonical form.
func (e *Environment) finalize(useStereo bool) {
	var render func(n *envNode) string
	render = func(n *envNode) string {
		var sb strings.Builder
		sb.WriteString(atomPattern(e.mol, n.atom, useStereo, false))
		parts := make([]string, 0, len(n.children))
		for _, c := range n.children {
			parts = append(parts, "("+c.bondSym+render(c)+")")
		}
		sort.Strings(parts)
		for _, p := range parts {
			sb.WriteString(p)
		}
		n.rendered = sb.String()
		return n.rendered
	}
	e.renderedPlain = render(e.tree)

	// The root map tag changes only the first atom pattern, never the child
	// ordering, so the rooted form is a prefix rewrite.
	rootPlain := atomPattern(e.mol, e.root, useStereo, false)
	rootTagged := atomPattern(e.mol, e.root, useStereo, true)
	e.renderedRoot = rootTagged + strings.TrimPrefix(e.renderedPlain, rootPlain)
}

// Render returns the canonical environment text, with the root atom tagged
// ":1" when mapRoot is true.
func (e *Environment) Render(mapRoot bool) string {
	if mapRoot {
		return e.renderedRoot
	}
	return e.renderedPlain
}

// Bonds returns the sorted indices of every bond inside the radius.
func (e *Environment) Bonds() []int { return e.bonds }

// Root returns the root atom index.
func (e *Environment) Root() int { return e.root }

// Radius returns the effective radius the environment was extracted at.
func (e *Environment) Radius() int { return e.radius }
