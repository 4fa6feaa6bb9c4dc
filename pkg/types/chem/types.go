// Package chem defines the atom and bond descriptor value types shared by
// every layer of MolSig-Alphabet.  No domain logic lives here — only plain,
// freely copyable data types that are safe to import from any layer without
// creating circular dependencies.
package chem

import (
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// BondOrder
// ─────────────────────────────────────────────────────────────────────────────

// BondOrder identifies the order/type of a chemical bond.
type BondOrder int

const (
	BondSingle BondOrder = iota + 1
	BondDouble
	BondTriple
	BondAromatic
)

// Symbol returns the SMILES-style bond symbol used inside canonical
// signature patterns.
func (o BondOrder) Symbol() string {
	switch o {
	case BondSingle:
		return "-"
	case BondDouble:
		return "="
	case BondTriple:
		return "#"
	case BondAromatic:
		return ":"
	default:
		return "~"
	}
}

// Tag returns the uppercase bond tag used in neighbor-inclusive signature
// exports (SINGLE, DOUBLE, TRIPLE, AROMATIC).
func (o BondOrder) Tag() string {
	switch o {
	case BondSingle:
		return "SINGLE"
	case BondDouble:
		return "DOUBLE"
	case BondTriple:
		return "TRIPLE"
	case BondAromatic:
		return "AROMATIC"
	default:
		return "UNKNOWN"
	}
}

// ParseBondTag converts an uppercase bond tag back into a BondOrder.
func ParseBondTag(tag string) (BondOrder, error) {
	switch tag {
	case "SINGLE":
		return BondSingle, nil
	case "DOUBLE":
		return BondDouble, nil
	case "TRIPLE":
		return BondTriple, nil
	case "AROMATIC":
		return BondAromatic, nil
	default:
		return 0, fmt.Errorf("chem: unknown bond tag %q", tag)
	}
}

// ParseBondSymbol converts a SMILES-style bond symbol into a BondOrder.
// The directional symbols "/" and "\" both denote single bonds.
func ParseBondSymbol(sym string) (BondOrder, error) {
	switch sym {
	case "-", "/", "\\":
		return BondSingle, nil
	case "=":
		return BondDouble, nil
	case "#":
		return BondTriple, nil
	case ":":
		return BondAromatic, nil
	default:
		return 0, fmt.Errorf("chem: unknown bond symbol %q", sym)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// BondStereo
// ─────────────────────────────────────────────────────────────────────────────

// BondStereo carries the optional directional configuration of a single bond
// adjacent to a double bond (cis/trans encoding).
type BondStereo int

const (
	StereoNone BondStereo = iota
	StereoUp              // "/" in SMILES
	StereoDown            // "\" in SMILES
)

// ─────────────────────────────────────────────────────────────────────────────
// AtomDescriptor
// ─────────────────────────────────────────────────────────────────────────────

// AtomDescriptor is an immutable value describing one atom as seen by the
// signature extractor.  It is produced by the graph provider; signatures are
// functions of descriptor content only, never of atom indices.
type AtomDescriptor struct {
	// Symbol is the element symbol in canonical case (e.g. "C", "Cl").
	Symbol string

	// Aromatic marks the atom as part of an aromatic system; aromatic atoms
	// render with a lowercase symbol.
	Aromatic bool

	// TotalH is the total hydrogen count, implicit plus explicit.
	TotalH int

	// ImplicitH is the implicit hydrogen count only.
	ImplicitH int

	// Degree is the number of explicit bonded neighbors (heavy atoms).
	Degree int

	// Valence is the total connectivity including hydrogens (the X field of
	// the canonical atom pattern).
	Valence int

	// Charge is the formal charge.
	Charge int

	// InRing marks ring membership.  It participates in descriptor equality
	// but is not rendered in the canonical atom pattern.
	InRing bool

	// Parity is the optional tetrahedral stereo tag ("@" or "@@"), empty when
	// absent or when stereochemistry is disabled.
	Parity string
}

// Pattern renders the canonical atom pattern, optionally tagging the atom as
// the signature root with the ":1" atom map:
//
//	[C;H3;h3;D1;X4]       plain
//	[O;H1;h1;D1;X2:1]     root
//	[N;H0;h0;D3;X3;+]     charged
//	[c;H1;h1;D2;X3]       aromatic
func (a AtomDescriptor) Pattern(root bool) string {
	sym := a.Symbol
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}

	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(sym)
	fmt.Fprintf(&sb, ";H%d;h%d;D%d;X%d", a.TotalH, a.ImplicitH, a.Degree, a.Valence)
	switch {
	case a.Charge == 1:
		sb.WriteString(";+")
	case a.Charge > 1:
		fmt.Fprintf(&sb, ";+%d", a.Charge)
	case a.Charge == -1:
		sb.WriteString(";-")
	case a.Charge < -1:
		fmt.Fprintf(&sb, ";-%d", -a.Charge)
	}
	if a.Parity != "" {
		sb.WriteByte(';')
		sb.WriteString(a.Parity)
	}
	if root {
		sb.WriteString(":1")
	}
	sb.WriteByte(']')
	return sb.String()
}

// WithoutStereo returns a copy of the descriptor with the stereo parity
// cleared.  Used by the extractor when stereochemistry is disabled.
func (a AtomDescriptor) WithoutStereo() AtomDescriptor {
	a.Parity = ""
	return a
}

// ─────────────────────────────────────────────────────────────────────────────
// BondDescriptor
// ─────────────────────────────────────────────────────────────────────────────

// BondDescriptor is an immutable value describing one bond as seen by the
// signature extractor.
type BondDescriptor struct {
	Order  BondOrder
	Stereo BondStereo
}

// Symbol renders the bond symbol for canonical signature patterns.  When the
// bond carries directional stereo the "/" or "\" form replaces "-".
func (b BondDescriptor) Symbol() string {
	if b.Order == BondSingle {
		switch b.Stereo {
		case StereoUp:
			return "/"
		case StereoDown:
			return "\\"
		}
	}
	return b.Order.Symbol()
}

// WithoutStereo returns a copy of the descriptor with directional stereo
// cleared.
func (b BondDescriptor) WithoutStereo() BondDescriptor {
	b.Stereo = StereoNone
	return b
}
