package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReversibility_Valid(t *testing.T) {
	assert.True(t, Reversible.Valid())
	assert.True(t, Irreversible.Valid())
	assert.True(t, UnknownReversibility.Valid())
	assert.False(t, Reversibility("maybe").Valid())
}

func TestRawReaction_EquationText(t *testing.T) {
	t.Run("prefers explicit rxn text", func(t *testing.T) {
		r := RawReaction{
			RxnText:    "ethanol + NAD+ = acetaldehyde + NADH + H+",
			Substrates: []string{"ethanol"},
			Products:   []string{"acetaldehyde"},
		}
		assert.Equal(t, "ethanol + NAD+ = acetaldehyde + NADH + H+", r.EquationText())
	})

	t.Run("joins sides when no rxn text", func(t *testing.T) {
		r := RawReaction{
			Substrates: []string{"ethanol", "NAD+"},
			Products:   []string{"acetaldehyde", "NADH", "H+"},
		}
		assert.Equal(t, "ethanol + NAD+ = acetaldehyde + NADH + H+", r.EquationText())
	})
}

func TestBatchStats_Add(t *testing.T) {
	s := BatchStats{Entries: 10, Finalized: 6, Unbalanced: 2, GroupsProcessed: 1}
	s.Add(BatchStats{Entries: 5, Finalized: 3, Unmapped: 1, Suggested: 1, GroupsProcessed: 1, GroupsTimedOut: 1})

	assert.Equal(t, 15, s.Entries)
	assert.Equal(t, 9, s.Finalized)
	assert.Equal(t, 2, s.Unbalanced)
	assert.Equal(t, 1, s.Unmapped)
	assert.Equal(t, 1, s.Suggested)
	assert.Equal(t, 2, s.GroupsProcessed)
	assert.Equal(t, 1, s.GroupsTimedOut)
}
