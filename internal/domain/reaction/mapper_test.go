package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/enzymemap/internal/domain/chem"
	rtypes "github.com/turtacn/enzymemap/pkg/types/reaction"
)

func oxidationReaction() Reaction {
	return Reaction{
		Substrates: []string{ethanol, cofactorOx},
		Products:   []string{acetaldehyde, cofactorRed},
	}
}

func etherIsomerization() Reaction {
	return Reaction{
		Substrates: []string{"[CH3][CH2][OH]"},
		Products:   []string{"[CH3][O][CH3]"},
	}
}

func TestMapper_MapSingle(t *testing.T) {
	m := NewMapper(testLibrary(t), nil)

	mappings := m.MapSingle([]Reaction{oxidationReaction()}, nil, rtypes.SourceDirect)
	require.Len(t, mappings, 1)

	got := mappings[0]
	assert.Equal(t, []int{1}, got.RuleIDs)
	assert.Equal(t, []string{"alcohol oxidation"}, got.RuleNames)
	assert.Equal(t, rtypes.StepSingle, got.Step)
	assert.Equal(t, rtypes.SourceDirect, got.Source)
	assert.Empty(t, got.Individuals)
	assert.Equal(t,
		"[CH3:1][CH2:2][OH:3].[NH:4][NH:5]>>[CH3:1][CH:2]=[O:3].[NH2:4][NH2:5]",
		got.Mapped)
}

func TestMapper_MapSingle_RespectsAllowedSet(t *testing.T) {
	m := NewMapper(testLibrary(t), nil)

	mappings := m.MapSingle([]Reaction{oxidationReaction()}, map[int]bool{2: true}, rtypes.SourceDirect)
	assert.Empty(t, mappings, "rule 1 matches but is not allowed")

	mappings = m.MapSingle([]Reaction{oxidationReaction()}, map[int]bool{1: true}, rtypes.SourceDirect)
	assert.Len(t, mappings, 1)
}

func TestMapper_MapSingle_NoMatchIsEmpty(t *testing.T) {
	m := NewMapper(testLibrary(t), nil)

	unmatched := Reaction{
		Substrates: []string{"[CH3][CH3]"},
		Products:   []string{"[CH3][CH3]"},
	}
	assert.Empty(t, m.MapSingle([]Reaction{unmatched}, nil, rtypes.SourceDirect))
}

func TestMapper_MapMulti(t *testing.T) {
	m := NewMapper(testLibrary(t), nil)
	rxn := etherIsomerization()

	// Single-step cannot explain the transformation.
	require.Empty(t, m.MapSingle([]Reaction{rxn}, nil, rtypes.SourceDirect))

	mappings := m.MapMulti([]Reaction{rxn}, nil, rtypes.SourceDirect)
	require.Len(t, mappings, 1)

	got := mappings[0]
	assert.Equal(t, []int{3, 4}, got.RuleIDs)
	assert.Equal(t, []string{"hydroxyl activation", "methyl transfer"}, got.RuleNames)
	assert.Equal(t, rtypes.StepMulti, got.Step)
	assert.Equal(t, []string{
		"[CH3][CH2][OH]>>[CH3][CH2][O][H]",
		"[CH3][CH2][O][H]>>[CH3][O][CH3]",
	}, got.Individuals)
	assert.Equal(t, "[CH3:1][CH2:2][OH:3]>>[CH3:1][O:3][CH3:2]", got.Mapped)
}

func TestMapper_MapMulti_RestrictedToAllowed(t *testing.T) {
	m := NewMapper(testLibrary(t), nil)
	rxn := etherIsomerization()

	assert.Empty(t, m.MapMulti([]Reaction{rxn}, map[int]bool{3: true}, rtypes.SourceDirect),
		"second step rule missing from allowed set")
	assert.Len(t, m.MapMulti([]Reaction{rxn}, map[int]bool{3: true, 4: true}, rtypes.SourceDirect), 1)
}

func TestMapper_MapIsomerization(t *testing.T) {
	m := NewMapper(testLibrary(t), nil)

	mappings := m.MapIsomerization([]Reaction{etherIsomerization()}, rtypes.SourceDirect)
	require.Len(t, mappings, 1)
	assert.Equal(t, []int{IsomerizationRuleID}, mappings[0].RuleIDs)
	assert.Equal(t, []string{IsomerizationName}, mappings[0].RuleNames)
	assert.NotEmpty(t, mappings[0].Mapped)

	// Two substrates disqualify the shortcut.
	multi := oxidationReaction()
	assert.Empty(t, m.MapIsomerization([]Reaction{multi}, rtypes.SourceDirect))

	// Differing formulas disqualify it too.
	unbalanced := Reaction{Substrates: []string{ethanol}, Products: []string{acetaldehyde}}
	assert.Empty(t, m.MapIsomerization([]Reaction{unbalanced}, rtypes.SourceDirect))
}

func TestMapper_MapsReverse(t *testing.T) {
	m := NewMapper(testLibrary(t), nil)
	rxn := oxidationReaction()

	assert.True(t, m.MapsReverse(rxn, map[int]bool{2: true}),
		"reduction rule maps the reversed oxidation")
	assert.False(t, m.MapsReverse(rxn, map[int]bool{3: true}))
}

func TestAtomMap_ConservesAssignments(t *testing.T) {
	mapped, err := AtomMap(oxidationReaction().Canonical())
	require.NoError(t, err)

	rxn, err := ParseReaction(mapped)
	require.NoError(t, err)

	subNums := collectMapNums(t, rxn.Substrates)
	prodNums := collectMapNums(t, rxn.Products)
	assert.Equal(t, subNums, prodNums, "every substrate atom number reappears exactly once on the product side")
	assert.Len(t, subNums, 5)
}

func TestAtomMap_FailsOnAtomDeficit(t *testing.T) {
	_, err := AtomMap(Reaction{
		Substrates: []string{"[CH3]"},
		Products:   []string{"[CH3][OH]"},
	})
	require.Error(t, err)
}

func TestInvertMapped(t *testing.T) {
	mapped, err := AtomMap(oxidationReaction().Canonical())
	require.NoError(t, err)

	inv, err := InvertMapped(mapped)
	require.NoError(t, err)
	assert.NotEqual(t, mapped, inv)

	back, err := InvertMapped(inv)
	require.NoError(t, err)
	assert.Equal(t, mapped, back)

	empty, err := InvertMapped("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = InvertMapped("no separator")
	assert.Error(t, err)
}

func collectMapNums(t *testing.T, fragments []string) map[int]string {
	t.Helper()
	out := map[int]string{}
	for _, frag := range fragments {
		m, err := chem.ParseMolecule(frag)
		require.NoError(t, err)
		for _, a := range m.Atoms {
			require.NotZero(t, a.MapNum, "every atom must carry a map number")
			_, dup := out[a.MapNum]
			require.False(t, dup, "map number %d assigned twice", a.MapNum)
			out[a.MapNum] = a.Element
		}
	}
	return out
}
