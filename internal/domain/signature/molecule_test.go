package signature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSig-Alphabet/internal/domain/molecule"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

func TestNewMoleculeSignature_Methanol(t *testing.T) {
	m := mustParse(t, "CO")
	oracle := molecule.NewHashOracle(2048)
	ms, err := NewMoleculeSignature(m, Options{Radius: 2}, oracle)
	require.NoError(t, err)
	require.Equal(t, 2, ms.Len())

	// The carbon's environment grows once (radius 1 reaches the oxygen) and
	// then stops; the same grown environment rooted at the oxygen covers the
	// identical bond set, so only one of the two atoms keeps the radius-1
	// bit.  The carbon wins because its rendering sorts first.
	var carbon, oxygen *AtomSignature
	for _, a := range ms.Atoms() {
		if strings.HasPrefix(a.Root(), "[C") {
			carbon = a
		} else {
			oxygen = a
		}
	}
	require.NotNil(t, carbon)
	require.NotNil(t, oxygen)

	assert.Len(t, carbon.Morgans(), 2)
	assert.Len(t, oxygen.Morgans(), 1)
	for _, bit := range carbon.Morgans() {
		assert.Less(t, bit, uint32(2048))
	}
}

func TestNewMoleculeSignature_NilOracle(t *testing.T) {
	ms := buildSignature(t, "CO", 1)
	for _, a := range ms.Atoms() {
		assert.Nil(t, a.Morgans())
	}

	// Without bits the default string is just the patterns.
	s, err := ms.ToString(StringOptions{Morgans: true})
	require.NoError(t, err)
	assert.NotContains(t, s, MorganSep)
	assert.Contains(t, s, AtomSep)
}

func TestNewMoleculeSignature_OrderIndependence(t *testing.T) {
	oracle := molecule.NewHashOracle(2048)

	a, err := NewMoleculeSignature(mustParse(t, "CCO"), Options{Radius: 2}, oracle)
	require.NoError(t, err)
	b, err := NewMoleculeSignature(mustParse(t, "OCC"), Options{Radius: 2}, oracle)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))

	sa, err := a.ToString(StringOptions{Morgans: true})
	require.NoError(t, err)
	sb, err := b.ToString(StringOptions{Morgans: true})
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
}

func TestNewMoleculeSignature_RadiusSensitivity(t *testing.T) {
	m := mustParse(t, "CCO")

	r1, err := NewMoleculeSignature(m, Options{Radius: 1}, nil)
	require.NoError(t, err)
	r2, err := NewMoleculeSignature(m, Options{Radius: 2}, nil)
	require.NoError(t, err)

	s1, err := r1.ToString(StringOptions{})
	require.NoError(t, err)
	s2, err := r2.ToString(StringOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

func TestNewMoleculeSignature_Idempotent(t *testing.T) {
	m := mustParse(t, "c1ccccc1O") // phenol
	oracle := molecule.NewHashOracle(2048)

	a, err := NewMoleculeSignature(m, Options{Radius: 2}, oracle)
	require.NoError(t, err)
	b, err := NewMoleculeSignature(m, Options{Radius: 2}, oracle)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestNewMoleculeSignature_SymmetricAtomsCollapse(t *testing.T) {
	ms := buildSignature(t, "c1ccccc1", 2) // benzene

	first, err := ms.Atoms()[0].Format(StringOptions{})
	require.NoError(t, err)
	for _, a := range ms.Atoms()[1:] {
		s, err := a.Format(StringOptions{})
		require.NoError(t, err)
		assert.Equal(t, first, s)
	}
}

func TestMoleculeSignature_StringRoundTrip(t *testing.T) {
	m := mustParse(t, "CC(N)=O")
	oracle := molecule.NewHashOracle(2048)
	ms, err := NewMoleculeSignature(m, Options{Radius: 2}, oracle)
	require.NoError(t, err)

	s, err := ms.ToString(StringOptions{Morgans: true})
	require.NoError(t, err)

	parsed, err := ParseMoleculeSignature(s)
	require.NoError(t, err)
	require.Equal(t, ms.Len(), parsed.Len())

	again, err := parsed.ToString(StringOptions{Morgans: true})
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestMoleculeSignature_NeighborFormRoundTrip(t *testing.T) {
	ms := buildSignature(t, "CCO", 2)

	s, err := ms.ToString(StringOptions{Neighbors: true})
	require.NoError(t, err)
	assert.Contains(t, s, NeighborSep)
	assert.Contains(t, s, BondSep)

	parsed, err := ParseMoleculeSignature(s)
	require.NoError(t, err)

	again, err := parsed.ToString(StringOptions{Neighbors: true})
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestMoleculeSignature_PostComputeNeighbors(t *testing.T) {
	want := buildSignature(t, "CCO", 2)
	rootForm, err := want.ToString(StringOptions{})
	require.NoError(t, err)

	parsed, err := ParseMoleculeSignature(rootForm)
	require.NoError(t, err)
	require.NoError(t, parsed.PostComputeNeighbors(2, false))

	wantNb, err := want.ToString(StringOptions{Neighbors: true})
	require.NoError(t, err)
	gotNb, err := parsed.ToString(StringOptions{Neighbors: true})
	require.NoError(t, err)
	assert.Equal(t, wantNb, gotNb)
}

func TestNewMoleculeSignature_EmptyMolecule(t *testing.T) {
	m, err := molecule.NewMolecule(nil, nil)
	require.NoError(t, err)

	_, err = NewMoleculeSignature(m, Options{Radius: 2}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestParseMoleculeSignature_Errors(t *testing.T) {
	_, err := ParseMoleculeSignature("")
	require.Error(t, err)

	_, err = ParseMoleculeSignature("[C;H4;h4;D0;X4:1] .. garbage")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedSignature))
}
