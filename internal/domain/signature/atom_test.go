package signature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

func buildSignature(t *testing.T, smiles string, radius int) *MoleculeSignature {
	t.Helper()
	m := mustParse(t, smiles)
	ms, err := NewMoleculeSignature(m, Options{Radius: radius}, nil)
	require.NoError(t, err)
	return ms
}

func TestAtomSignature_Format(t *testing.T) {
	ms := buildSignature(t, "CO", 1)
	require.Equal(t, 2, ms.Len())

	var carbon *AtomSignature
	for _, a := range ms.Atoms() {
		if strings.HasPrefix(a.Root(), "[C") {
			carbon = a
		}
	}
	require.NotNil(t, carbon)

	root, err := carbon.Format(StringOptions{})
	require.NoError(t, err)
	assert.Equal(t, "[C;H3;h3;D1;X4:1](-[O;H1;h1;D1;X2])", root)

	nb, err := carbon.Format(StringOptions{Neighbors: true})
	require.NoError(t, err)
	assert.Equal(t, "[C;H3;h3;D1;X4:1] && SINGLE <> [O;H1;h1;D1;X2:1]", nb)
}

func TestAtomSignature_NeighborsNotComputed(t *testing.T) {
	parsed, err := ParseAtomSignature("[C;H4;h4;D0;X4:1]")
	require.NoError(t, err)
	assert.False(t, parsed.Expanded())

	_, err = parsed.Format(StringOptions{Neighbors: true})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNeighborsNotComputed))
}

func TestParseAtomSignature_RootForm(t *testing.T) {
	a, err := ParseAtomSignature("807-1155 ## [C;H3;h3;D1;X4:1](-[O;H1;h1;D1;X2])")
	require.NoError(t, err)
	assert.Equal(t, []uint32{807, 1155}, a.Morgans())
	assert.Equal(t, "[C;H3;h3;D1;X4:1](-[O;H1;h1;D1;X2])", a.Root())
	assert.Empty(t, a.Neighbors())

	// Re-rendering reproduces the input.
	s, err := a.Format(StringOptions{Morgans: true})
	require.NoError(t, err)
	assert.Equal(t, "807-1155 ## [C;H3;h3;D1;X4:1](-[O;H1;h1;D1;X2])", s)
}

func TestParseAtomSignature_NeighborForm(t *testing.T) {
	in := "1057 ## [O;H1;h1;D1;X2:1] && SINGLE <> [C;H3;h3;D1;X4:1]"
	a, err := ParseAtomSignature(in)
	require.NoError(t, err)
	assert.True(t, a.Expanded())
	assert.Equal(t, "[O;H1;h1;D1;X2:1]", a.RootMinus())
	require.Len(t, a.Neighbors(), 1)
	assert.Equal(t, "SINGLE", a.Neighbors()[0].BondTag)

	s, err := a.Format(StringOptions{Neighbors: true, Morgans: true})
	require.NoError(t, err)
	assert.Equal(t, in, s)
}

func TestParseAtomSignature_Errors(t *testing.T) {
	tests := []string{
		"",
		"x-y ## [C;H4;h4;D0;X4:1]",
		"12 ## not a pattern",
		"[C;H4;h4;D0;X4:1] && SINGLE",  // neighbor entry without bond separator
		"[C;H4;h4;D0;X4:1] && X <> ]o", // malformed neighbor pattern
	}
	for _, s := range tests {
		_, err := ParseAtomSignature(s)
		require.Error(t, err, "input=%q", s)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedSignature))
	}
}

func TestAtomSignature_Ordering(t *testing.T) {
	a := &AtomSignature{morgans: []uint32{5}, root: "[C]"}
	b := &AtomSignature{morgans: []uint32{9}, root: "[A]"}
	assert.True(t, a.Less(b)) // bits dominate root
	assert.False(t, b.Less(a))

	c := &AtomSignature{morgans: []uint32{5}, root: "[D]"}
	assert.True(t, a.Less(c))
	assert.False(t, a.Equal(c))

	d := &AtomSignature{morgans: []uint32{5}, root: "[C]"}
	assert.True(t, a.Equal(d))
	assert.False(t, a.Less(d))

	// Shorter bit tuple sorts first on shared prefix.
	e := &AtomSignature{morgans: []uint32{5, 1}, root: "[C]"}
	assert.True(t, a.Less(e))
}

func TestAtomSignature_PostComputeNeighbors(t *testing.T) {
	// Build eagerly, round-trip the root form, re-expand from the string:
	// the neighbor form must match the eager one.
	ms := buildSignature(t, "CCO", 2)
	for _, want := range ms.Atoms() {
		rootForm, err := want.Format(StringOptions{})
		require.NoError(t, err)

		parsed, err := ParseAtomSignature(rootForm)
		require.NoError(t, err)
		require.NoError(t, parsed.PostComputeNeighbors(2, false))

		wantNb, err := want.Format(StringOptions{Neighbors: true})
		require.NoError(t, err)
		gotNb, err := parsed.Format(StringOptions{Neighbors: true})
		require.NoError(t, err)
		assert.Equal(t, wantNb, gotNb)
	}
}

func TestAtomSignature_PostComputeNeighbors_NoRoot(t *testing.T) {
	a, err := ParseAtomSignature("[O;H1;h1;D1;X2:1] && SINGLE <> [C;H3;h3;D1;X4:1]")
	require.NoError(t, err)
	err = a.PostComputeNeighbors(2, false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNeighborsNotComputed))
}
