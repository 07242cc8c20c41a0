package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rtypes "github.com/turtacn/enzymemap/pkg/types/reaction"
)

func oxidationMapping(t *testing.T) Mapping {
	t.Helper()
	m := NewMapper(testLibrary(t), nil)
	mappings := m.MapSingle([]Reaction{oxidationReaction()}, nil, rtypes.SourceDirect)
	require.Len(t, mappings, 1)
	return mappings[0]
}

func TestSuggestionIndex_AddAndLen(t *testing.T) {
	x := NewSuggestionIndex(nil)
	assert.Equal(t, 0, x.Len())

	x.Add(oxidationMapping(t))
	assert.Equal(t, 1, x.Len())

	// Duplicate centers are indexed once.
	x.Add(oxidationMapping(t))
	assert.Equal(t, 1, x.Len())
}

func TestSuggestionIndex_SkipsIdentityMappings(t *testing.T) {
	x := NewSuggestionIndex(nil)
	x.Add(Mapping{Reaction: Reaction{
		Substrates: []string{ethanol},
		Products:   []string{ethanol},
	}})
	assert.Equal(t, 0, x.Len(), "no changing fragments, nothing to learn")
}

func TestSuggestionIndex_Suggest(t *testing.T) {
	x := NewSuggestionIndex(nil)
	x.Add(oxidationMapping(t))

	// An entry whose product side resolved to something hopeless, but
	// whose substrates carry the known reaction center.
	broken := Reaction{
		Substrates: []string{ethanol, cofactorOx},
		Products:   []string{"[CH3]"},
	}

	suggestions := x.Suggest([]Reaction{broken})
	require.Len(t, suggestions, 1)

	want := Reaction{
		Substrates: []string{ethanol, cofactorOx},
		Products:   []string{acetaldehyde, cofactorRed},
	}
	assert.True(t, suggestions[0].Equal(want))
	assert.True(t, suggestions[0].IsBalanced())
}

func TestSuggestionIndex_Suggest_TransplantsAroundSpectators(t *testing.T) {
	x := NewSuggestionIndex(nil)
	x.Add(oxidationMapping(t))

	// A spectator fragment rides along unchanged.
	broken := Reaction{
		Substrates: []string{ethanol, cofactorOx, "[OH2]"},
		Products:   []string{"[CH3]"},
	}

	suggestions := x.Suggest([]Reaction{broken})
	require.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0].Products, "[OH2]",
		"unconsumed substrate fragments carry over to the predicted products")
	assert.Contains(t, suggestions[0].Products, acetaldehyde)
}

func TestSuggestionIndex_Suggest_NoAnalogyIsEmpty(t *testing.T) {
	x := NewSuggestionIndex(nil)
	x.Add(oxidationMapping(t))

	unrelated := Reaction{
		Substrates: []string{"[CH3][CH3]"},
		Products:   []string{"[CH3]"},
	}
	assert.Empty(t, x.Suggest([]Reaction{unrelated}))

	// Unparseable candidates degrade silently.
	assert.Empty(t, x.Suggest([]Reaction{{
		Substrates: []string{"[CH3"},
		Products:   []string{"[CH3]"},
	}}))
}

func TestSuggestionIndex_RuleIDs(t *testing.T) {
	x := NewSuggestionIndex(nil)
	assert.Empty(t, x.RuleIDs())

	x.Add(oxidationMapping(t))
	assert.Equal(t, map[int]bool{1: true}, x.RuleIDs())
}

func TestSideDifference(t *testing.T) {
	consumed, produced := sideDifference(
		[]string{"A", "B", "B", "C"},
		[]string{"B", "C", "D"},
	)
	assert.Equal(t, []string{"A", "B"}, consumed)
	assert.Equal(t, []string{"D"}, produced)
}
