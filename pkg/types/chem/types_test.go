package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBondOrder_SymbolAndTag(t *testing.T) {
	tests := []struct {
		order  BondOrder
		symbol string
		tag    string
	}{
		{BondSingle, "-", "SINGLE"},
		{BondDouble, "=", "DOUBLE"},
		{BondTriple, "#", "TRIPLE"},
		{BondAromatic, ":", "AROMATIC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.symbol, tt.order.Symbol())
		assert.Equal(t, tt.tag, tt.order.Tag())

		parsed, err := ParseBondTag(tt.tag)
		require.NoError(t, err)
		assert.Equal(t, tt.order, parsed)

		parsed, err = ParseBondSymbol(tt.symbol)
		require.NoError(t, err)
		assert.Equal(t, tt.order, parsed)
	}

	_, err := ParseBondTag("QUADRUPLE")
	assert.Error(t, err)
	_, err = ParseBondSymbol("$")
	assert.Error(t, err)
}

func TestParseBondSymbol_Directional(t *testing.T) {
	up, err := ParseBondSymbol("/")
	require.NoError(t, err)
	assert.Equal(t, BondSingle, up)

	down, err := ParseBondSymbol(`\`)
	require.NoError(t, err)
	assert.Equal(t, BondSingle, down)
}

func TestAtomDescriptor_Pattern(t *testing.T) {
	carbon := AtomDescriptor{Symbol: "C", TotalH: 3, ImplicitH: 3, Degree: 1, Valence: 4}
	assert.Equal(t, "[C;H3;h3;D1;X4]", carbon.Pattern(false))
	assert.Equal(t, "[C;H3;h3;D1;X4:1]", carbon.Pattern(true))

	aromatic := AtomDescriptor{Symbol: "C", Aromatic: true, TotalH: 1, ImplicitH: 1, Degree: 2, Valence: 3}
	assert.Equal(t, "[c;H1;h1;D2;X3]", aromatic.Pattern(false))

	ammonium := AtomDescriptor{Symbol: "N", TotalH: 4, ImplicitH: 0, Degree: 0, Valence: 4, Charge: 1}
	assert.Equal(t, "[N;H4;h0;D0;X4;+]", ammonium.Pattern(false))

	dication := AtomDescriptor{Symbol: "Ca", Charge: 2}
	assert.Equal(t, "[Ca;H0;h0;D0;X0;+2]", dication.Pattern(false))

	oxide := AtomDescriptor{Symbol: "O", Valence: 0, Charge: -2}
	assert.Equal(t, "[O;H0;h0;D0;X0;-2]", oxide.Pattern(false))

	chiral := AtomDescriptor{Symbol: "C", TotalH: 1, ImplicitH: 1, Degree: 3, Valence: 4, Parity: "@@"}
	assert.Equal(t, "[C;H1;h1;D3;X4;@@]", chiral.Pattern(false))
}

func TestAtomDescriptor_WithoutStereo(t *testing.T) {
	chiral := AtomDescriptor{Symbol: "C", Parity: "@"}
	plain := chiral.WithoutStereo()
	assert.Empty(t, plain.Parity)
	assert.Equal(t, "@", chiral.Parity)
}

func TestBondDescriptor_Symbol(t *testing.T) {
	assert.Equal(t, "-", BondDescriptor{Order: BondSingle}.Symbol())
	assert.Equal(t, "/", BondDescriptor{Order: BondSingle, Stereo: StereoUp}.Symbol())
	assert.Equal(t, `\`, BondDescriptor{Order: BondSingle, Stereo: StereoDown}.Symbol())
	// Directional stereo only applies to single bonds.
	assert.Equal(t, "=", BondDescriptor{Order: BondDouble, Stereo: StereoUp}.Symbol())

	cleared := BondDescriptor{Order: BondSingle, Stereo: StereoDown}.WithoutStereo()
	assert.Equal(t, "-", cleared.Symbol())
}
