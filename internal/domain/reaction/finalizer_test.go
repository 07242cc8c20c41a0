package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rtypes "github.com/turtacn/enzymemap/pkg/types/reaction"
)

func oxidationEntry(rev rtypes.Reversibility) rtypes.RawReaction {
	return rtypes.RawReaction{
		ID:          "entry-1",
		ECNumber:    "1.1.1.1",
		Substrates:  []string{"ethanol", "NAD+"},
		Products:    []string{"acetaldehyde", "NADH"},
		Reversible:  rev,
		Natural:     true,
		Organism:    "Saccharomyces cerevisiae",
		ProteinRefs: []string{"3", "7"},
		ProteinDB:   "uniprot",
	}
}

func TestFinalizer_IrreversibleSingleRow(t *testing.T) {
	f := NewFinalizer(nil)
	lib := testLibrary(t)
	m := oxidationMapping(t)

	res := EntryResult{
		Entry:      oxidationEntry(rtypes.Irreversible),
		Candidates: []Reaction{m.Reaction},
		Balanced:   []Reaction{m.Reaction},
		Mappings:   []Mapping{m},
	}
	scores := map[int]float64{10: 1.0}

	rows := f.Finalize(res, lib, scores)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.NotEmpty(t, row.ID)
	assert.Equal(t, "entry-1", row.EntryID.String())
	assert.Equal(t, "1.1.1.1", row.ECNumber)
	assert.Equal(t, "ethanol + NAD+ = acetaldehyde + NADH", row.RxnText)
	assert.Equal(t, m.Reaction.String(), row.UncorrectedRxn)
	assert.Equal(t, m.Reaction.String(), row.BalancedRxn)
	assert.Equal(t, m.Mapped, row.MappedRxn)
	assert.Equal(t, []int{1}, row.RuleIDs)
	assert.Equal(t, []string{"alcohol oxidation"}, row.RuleNames)
	assert.Equal(t, rtypes.SourceDirect, row.Source)
	assert.Equal(t, rtypes.StepSingle, row.Step)
	assert.Equal(t, rtypes.DirectionForward, row.Direction)
	assert.Equal(t, rtypes.Irreversible, row.Reversible)
	assert.InDelta(t, 1.0, row.Quality, 1e-9)
	assert.True(t, row.Natural)
	assert.Equal(t, "Saccharomyces cerevisiae", row.Organism)
	assert.Equal(t, []string{"3", "7"}, row.ProteinRefs)
	assert.Equal(t, "uniprot", row.ProteinDB)
}

func TestFinalizer_ReversibleExpandsToTwoRows(t *testing.T) {
	f := NewFinalizer(nil)
	lib := testLibrary(t)
	m := oxidationMapping(t)

	res := EntryResult{
		Entry:      oxidationEntry(rtypes.Reversible),
		Candidates: []Reaction{m.Reaction},
		Balanced:   []Reaction{m.Reaction},
		Mappings:   []Mapping{m},
	}
	rows := f.Finalize(res, lib, map[int]float64{10: 1.0})
	require.Len(t, rows, 2)

	forward, reverse := rows[0], rows[1]
	assert.Equal(t, rtypes.DirectionForward, forward.Direction)
	assert.Equal(t, rtypes.DirectionReverse, reverse.Direction)
	assert.NotEqual(t, forward.ID, reverse.ID)

	assert.Equal(t, m.Reaction.String(), forward.BalancedRxn)
	assert.Equal(t, m.Reaction.Reverse().String(), reverse.BalancedRxn)

	inverted, err := InvertMapped(m.Mapped)
	require.NoError(t, err)
	assert.Equal(t, inverted, reverse.MappedRxn)

	// Everything except identity and orientation carries over.
	assert.Equal(t, forward.EntryID, reverse.EntryID)
	assert.Equal(t, forward.RuleIDs, reverse.RuleIDs)
	assert.Equal(t, forward.RuleNames, reverse.RuleNames)
	assert.Equal(t, forward.Source, reverse.Source)
	assert.Equal(t, forward.Step, reverse.Step)
	assert.InDelta(t, forward.Quality, reverse.Quality, 1e-9)
}

func TestFinalizer_ProbablyReversibleExpands(t *testing.T) {
	f := NewFinalizer(nil)
	lib := testLibrary(t)
	m := oxidationMapping(t)

	res := EntryResult{
		Entry:              oxidationEntry(rtypes.UnknownReversibility),
		Candidates:         []Reaction{m.Reaction},
		Balanced:           []Reaction{m.Reaction},
		Mappings:           []Mapping{m},
		ProbablyReversible: true,
	}
	rows := f.Finalize(res, lib, map[int]float64{10: 1.0})
	require.Len(t, rows, 2)
	assert.True(t, rows[0].ProbablyReversible)
	assert.True(t, rows[1].ProbablyReversible)
	assert.Equal(t, rtypes.UnknownReversibility, rows[0].Reversible)
}

func TestFinalizer_UnmappedEntryRetained(t *testing.T) {
	f := NewFinalizer(nil)
	lib := testLibrary(t)

	cand := Reaction{Substrates: []string{ethanol}, Products: []string{acetaldehyde}}
	res := EntryResult{
		Entry:      oxidationEntry(rtypes.Reversible),
		Candidates: []Reaction{cand},
	}
	rows := f.Finalize(res, lib, nil)
	require.Len(t, rows, 1, "reversibility does not expand unmapped rows")

	row := rows[0]
	assert.Equal(t, cand.String(), row.UncorrectedRxn)
	assert.Empty(t, row.BalancedRxn)
	assert.Empty(t, row.MappedRxn)
	assert.Empty(t, row.RuleIDs)
	assert.Empty(t, row.RuleNames)
	assert.Zero(t, row.Quality)
	assert.Equal(t, rtypes.DirectionForward, row.Direction)
	assert.Equal(t, "entry-1", row.EntryID.String())
}

func TestFinalizer_UnmappedButBalancedKeepsBalancedRxn(t *testing.T) {
	f := NewFinalizer(nil)
	lib := testLibrary(t)

	balanced := oxidationReaction()
	res := EntryResult{
		Entry:      oxidationEntry(rtypes.Irreversible),
		Candidates: []Reaction{balanced},
		Balanced:   []Reaction{balanced},
	}
	rows := f.Finalize(res, lib, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, balanced.String(), rows[0].BalancedRxn)
	assert.Empty(t, rows[0].MappedRxn)
}

func TestFinalizer_UnresolvableEntryRetained(t *testing.T) {
	f := NewFinalizer(nil)
	lib := testLibrary(t)

	res := EntryResult{Entry: oxidationEntry(rtypes.UnknownReversibility)}
	rows := f.Finalize(res, lib, nil)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].UncorrectedRxn)
	assert.Empty(t, rows[0].BalancedRxn)
	assert.Equal(t, "ethanol + NAD+ = acetaldehyde + NADH", rows[0].RxnText)
}

func TestFinalizer_OneRowPerMapping(t *testing.T) {
	f := NewFinalizer(nil)
	lib := testLibrary(t)
	m := oxidationMapping(t)

	other := m
	other.RuleIDs = []int{2}
	other.RuleNames = []string{"aldehyde reduction"}

	res := EntryResult{
		Entry:      oxidationEntry(rtypes.Irreversible),
		Candidates: []Reaction{m.Reaction},
		Balanced:   []Reaction{m.Reaction},
		Mappings:   []Mapping{m, other},
	}
	rows := f.Finalize(res, lib, map[int]float64{10: 1.0})
	require.Len(t, rows, 2)
	assert.Equal(t, []int{1}, rows[0].RuleIDs)
	assert.Equal(t, []int{2}, rows[1].RuleIDs)
}
