package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSig-Alphabet/internal/domain/molecule"
	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

func mustParse(t *testing.T, smiles string) *molecule.Molecule {
	t.Helper()
	m, err := molecule.NewSMILESParser().Parse(smiles)
	require.NoError(t, err, "smiles=%s", smiles)
	return m
}

func TestExtractEnvironment_Methanol(t *testing.T) {
	m := mustParse(t, "CO")

	// radius 0: just the atom
	env, err := ExtractEnvironment(m, 0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "[C;H3;h3;D1;X4:1]", env.Render(true))
	assert.Equal(t, "[C;H3;h3;D1;X4]", env.Render(false))
	assert.Empty(t, env.Bonds())

	// radius 1: carbon plus the oxygen
	env, err = ExtractEnvironment(m, 0, 1, false)
	require.NoError(t, err)
	assert.Equal(t, "[C;H3;h3;D1;X4:1](-[O;H1;h1;D1;X2])", env.Render(true))
	assert.Equal(t, []int{0}, env.Bonds())

	// rooted at the oxygen
	env, err = ExtractEnvironment(m, 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, "[O;H1;h1;D1;X2:1](-[C;H3;h3;D1;X4])", env.Render(true))
}

func TestExtractEnvironment_ChildOrderCanonical(t *testing.T) {
	// The same halomethane written with substituents in different orders
	// must render identically from the central carbon.
	a := mustParse(t, "FC(Cl)Br")
	b := mustParse(t, "ClC(Br)F")

	envA, err := ExtractEnvironment(a, 1, 1, false)
	require.NoError(t, err)
	envB, err := ExtractEnvironment(b, 1, 1, false)
	require.NoError(t, err)

	assert.Equal(t, envA.Render(true), envB.Render(true))
}

func TestExtractEnvironment_NegativeRadiusCoversMolecule(t *testing.T) {
	m := mustParse(t, "CCO")
	whole, err := ExtractEnvironment(m, 0, -1, false)
	require.NoError(t, err)
	capped, err := ExtractEnvironment(m, 0, 10, false)
	require.NoError(t, err)

	assert.Equal(t, capped.Render(true), whole.Render(true))
	assert.Len(t, whole.Bonds(), 2)
}

func TestExtractEnvironment_RingBondSet(t *testing.T) {
	m := mustParse(t, "C1CC1") // cyclopropane

	// The spanning tree from any atom drops the ring-closure bond, but the
	// bond set still contains all three bonds at radius 2.
	env, err := ExtractEnvironment(m, 0, 2, false)
	require.NoError(t, err)
	assert.Len(t, env.Bonds(), 3)

	// At radius 1 only the two bonds incident to the root are reachable.
	env, err = ExtractEnvironment(m, 0, 1, false)
	require.NoError(t, err)
	assert.Len(t, env.Bonds(), 2)
}

func TestExtractEnvironment_StereoToggle(t *testing.T) {
	m := mustParse(t, `F/C=C/F`)

	with, err := ExtractEnvironment(m, 1, 1, true)
	require.NoError(t, err)
	without, err := ExtractEnvironment(m, 1, 1, false)
	require.NoError(t, err)

	assert.Contains(t, with.Render(true), "/")
	assert.NotContains(t, without.Render(true), "/")
}

func TestExtractEnvironment_InvalidRoot(t *testing.T) {
	m := mustParse(t, "CO")
	_, err := ExtractEnvironment(m, 9, 1, false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAtom))
}

func TestExtractEnvironment_GrowthStops(t *testing.T) {
	m := mustParse(t, "CO")

	r1, err := ExtractEnvironment(m, 0, 1, false)
	require.NoError(t, err)
	r2, err := ExtractEnvironment(m, 0, 2, false)
	require.NoError(t, err)

	// The whole molecule fits in radius 1, so radius 2 renders identically.
	assert.Equal(t, r1.Render(true), r2.Render(true))
	assert.Equal(t, r1.Bonds(), r2.Bonds())
}
