package reaction

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_KeepsMinimalBondEdit(t *testing.T) {
	s := NewSelector(nil, nil)

	// Two candidate explanations of the same entry: an isomerization with
	// two bond edits and an elimination with three.
	twoEdits := Mapping{Reaction: Reaction{
		Substrates: []string{"[CH3][CH2][OH]"},
		Products:   []string{"[CH3][O][CH3]"},
	}}
	threeEdits := Mapping{Reaction: Reaction{
		Substrates: []string{"[CH3][CH2][OH]"},
		Products:   []string{"[CH2]=[CH2]", "[OH2]"},
	}}

	d2, err := twoEdits.Reaction.BondEdits()
	require.NoError(t, err)
	d3, err := threeEdits.Reaction.BondEdits()
	require.NoError(t, err)
	require.Equal(t, 2, d2)
	require.Equal(t, 3, d3)

	got := s.SelectBest([]Mapping{threeEdits, twoEdits})
	require.Len(t, got, 1)
	assert.Equal(t, twoEdits.Reaction.String(), got[0].Reaction.String())
}

func TestSelector_TiesAreRetained(t *testing.T) {
	s := NewSelector(nil, nil)

	a := Mapping{Reaction: Reaction{Substrates: []string{ethanol}, Products: []string{ethanol}}}
	b := Mapping{Reaction: Reaction{Substrates: []string{acetaldehyde}, Products: []string{acetaldehyde}}}

	got := s.SelectBest([]Mapping{a, b})
	assert.Len(t, got, 2, "ambiguity is preserved, not broken arbitrarily")
}

func TestSelector_SingleCandidatePassesThrough(t *testing.T) {
	s := NewSelector(nil, nil)
	m := Mapping{Reaction: oxidationReaction()}

	assert.Len(t, s.SelectBest([]Mapping{m}), 1)
	assert.Empty(t, s.SelectBest(nil))
}

func TestSelector_UncomputableMetricRanksLast(t *testing.T) {
	s := NewSelector(nil, nil)

	good := Mapping{Reaction: Reaction{Substrates: []string{ethanol}, Products: []string{ethanol}}}
	broken := Mapping{Reaction: Reaction{Substrates: []string{"[CH3"}, Products: []string{"[CH3]"}}}

	got := s.SelectBest([]Mapping{broken, good})
	require.Len(t, got, 1)
	assert.Equal(t, good.Reaction.String(), got[0].Reaction.String())
}

func TestSelector_CustomMetric(t *testing.T) {
	// Invert the ranking to show the metric is honoured.
	inverted := func(r Reaction) (int, error) {
		d, err := r.BondEdits()
		return -d, err
	}
	s := NewSelector(inverted, nil)

	twoEdits := Mapping{Reaction: Reaction{
		Substrates: []string{"[CH3][CH2][OH]"},
		Products:   []string{"[CH3][O][CH3]"},
	}}
	threeEdits := Mapping{Reaction: Reaction{
		Substrates: []string{"[CH3][CH2][OH]"},
		Products:   []string{"[CH2]=[CH2]", "[OH2]"},
	}}

	got := s.SelectBest([]Mapping{twoEdits, threeEdits})
	require.Len(t, got, 1)
	assert.Equal(t, threeEdits.Reaction.String(), got[0].Reaction.String())
}

func TestQualityScores_SumToOne(t *testing.T) {
	lib := testLibrary(t)

	selected := [][]Mapping{
		{{RuleIDs: []int{1}}},
		{{RuleIDs: []int{2}}},
		{{RuleIDs: []int{3}}},
	}
	scores := QualityScores(lib, selected)

	// Rules 1 and 2 share equivalence group 10.
	require.Len(t, scores, 2)
	assert.InDelta(t, 2.0/3.0, scores[10], 1e-9)
	assert.InDelta(t, 1.0/3.0, scores[20], 1e-9)

	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestQualityScores_IsomerizationBucket(t *testing.T) {
	lib := testLibrary(t)
	selected := [][]Mapping{
		{{RuleIDs: []int{IsomerizationRuleID}}},
		{{RuleIDs: []int{1}}},
	}
	scores := QualityScores(lib, selected)
	assert.InDelta(t, 0.5, scores[IsomerizationGroupID], 1e-9)
	assert.InDelta(t, 0.5, scores[10], 1e-9)
}

func TestQualityScores_ZeroOccurrenceGroupsOmitted(t *testing.T) {
	lib := testLibrary(t)
	scores := QualityScores(lib, [][]Mapping{{{RuleIDs: []int{4}}}})

	_, present := scores[10]
	assert.False(t, present)
	assert.InDelta(t, 1.0, scores[30], 1e-9)

	assert.Empty(t, QualityScores(lib, nil))
}

func TestQualityFor(t *testing.T) {
	lib := testLibrary(t)
	scores := map[int]float64{10: 0.75, 30: 0.25}

	assert.InDelta(t, 0.75, QualityFor(lib, scores, Mapping{RuleIDs: []int{1}}), 1e-9)
	assert.InDelta(t, 0.75, QualityFor(lib, scores, Mapping{RuleIDs: []int{2}}), 1e-9)
	assert.InDelta(t, 0.25, QualityFor(lib, scores, Mapping{RuleIDs: []int{4, 3}}), 1e-9,
		"multi-step quality follows the primary rule")
	assert.Zero(t, QualityFor(lib, scores, Mapping{}))
}

func TestQualityScores_MultiStepCountsEachRule(t *testing.T) {
	lib := testLibrary(t)
	scores := QualityScores(lib, [][]Mapping{{{RuleIDs: []int{3, 4}}}})

	assert.InDelta(t, 0.5, scores[20], 1e-9)
	assert.InDelta(t, 0.5, scores[30], 1e-9)
}

func ExampleSelector_SelectBest() {
	s := NewSelector(nil, nil)
	kept := s.SelectBest([]Mapping{
		{Reaction: Reaction{Substrates: []string{"[CH3][CH2][OH]"}, Products: []string{"[CH3][O][CH3]"}}},
		{Reaction: Reaction{Substrates: []string{"[CH3][CH2][OH]"}, Products: []string{"[CH2]=[CH2]", "[OH2]"}}},
	})
	fmt.Println(len(kept))
	// Output: 1
}
