package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRedoxTables_PairsByHydrogenDelta(t *testing.T) {
	variants := map[string][]string{
		"cofactor ox":  {cofactorOx},
		"cofactor red": {cofactorRed},
		"ethanol":      {ethanol},
	}

	tables := BuildRedoxTables(variants, nil)
	require.Equal(t, 1, tables.Len())

	assert.Equal(t, cofactorOx, tables.ReducedToOxidized[cofactorRed])
	assert.Equal(t, cofactorRed, tables.OxidizedToReduced[cofactorOx])

	p, ok := tables.Partner(cofactorRed)
	assert.True(t, ok)
	assert.Equal(t, cofactorOx, p)
	p, ok = tables.Partner(cofactorOx)
	assert.True(t, ok)
	assert.Equal(t, cofactorRed, p)

	_, ok = tables.Partner(ethanol)
	assert.False(t, ok, "no partner with matching skeleton")
}

func TestBuildRedoxTables_RequiresSameSkeleton(t *testing.T) {
	// Same formula family but different heavy bonding must not pair.
	variants := map[string][]string{
		"a": {"[CH3][CH3]"},   // C-C single
		"b": {"[CH2]=[CH2]"},  // C=C double, two fewer hydrogens
	}
	tables := BuildRedoxTables(variants, nil)
	assert.Equal(t, 0, tables.Len())
}

func TestBuildRedoxTables_RequiresDeltaOfTwo(t *testing.T) {
	variants := map[string][]string{
		"a": {"[NH2][NH2]"},
		"b": {"[NH2][NH]"}, // delta of one
	}
	tables := BuildRedoxTables(variants, nil)
	assert.Equal(t, 0, tables.Len())
}

func TestBuildRedoxTables_SkipsUnparseable(t *testing.T) {
	variants := map[string][]string{
		"good": {cofactorOx, cofactorRed},
		"bad":  {"[NH"},
	}
	tables := BuildRedoxTables(variants, nil)
	assert.Equal(t, 1, tables.Len())
}

func TestBuildRedoxTables_EachStructurePairedOnce(t *testing.T) {
	// Two reduced forms compete for one oxidized form; only one pair may
	// form and the outcome must be deterministic.
	variants := map[string][]string{
		"ox":   {"[NH][NH]"},
		"red":  {"[NH2][NH2]"},
		"red2": {"[NH3][NH]"},
	}
	tables := BuildRedoxTables(variants, nil)
	require.Equal(t, 1, tables.Len())
	assert.Equal(t, "[NH][NH]", tables.ReducedToOxidized["[NH2][NH2]"],
		"lexicographically first reduced form wins")
}
