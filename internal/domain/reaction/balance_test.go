package reaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedoxTables() RedoxTables {
	return RedoxTables{
		ReducedToOxidized: map[string]string{cofactorRed: cofactorOx},
		OxidizedToReduced: map[string]string{cofactorOx: cofactorRed},
	}
}

func TestNormalizeEquation(t *testing.T) {
	assert.Equal(t, "ethanol + NAD+ = acetaldehyde + NADH",
		NormalizeEquation("  ethanol +  NAD+ =\tacetaldehyde + NADH "))
	assert.Equal(t, NormalizeEquation("a = b"), NormalizeEquation("a  =  b"))
}

func TestBalancer_KeepsAllBalancedCandidates(t *testing.T) {
	b := NewBalancer(NewMemoryBalanceCache(), RedoxTables{}, nil)

	balancedA := Reaction{
		Substrates: []string{ethanol, cofactorOx},
		Products:   []string{acetaldehyde, cofactorRed},
	}
	balancedB := Reaction{
		Substrates: []string{ethanol},
		Products:   []string{ethanol},
	}
	unbalanced := Reaction{
		Substrates: []string{ethanol, cofactorOx},
		Products:   []string{acetaldehyde, cofactorOx},
	}

	got := b.Resolve(context.Background(), []Reaction{balancedA, unbalanced, balancedB}, "eq1")
	require.Len(t, got, 2, "no early exit; every balanced candidate survives")
	for _, r := range got {
		assert.True(t, r.IsBalanced())
	}
}

func TestBalancer_RedoxSubstitutionRecoversBalance(t *testing.T) {
	b := NewBalancer(NewMemoryBalanceCache(), testRedoxTables(), nil)

	// Products carry the oxidized form where the reduced one belongs.
	wrong := Reaction{
		Substrates: []string{ethanol, cofactorOx},
		Products:   []string{acetaldehyde, cofactorOx},
	}

	got := b.Resolve(context.Background(), []Reaction{wrong}, "eq2")
	require.Len(t, got, 1)
	assert.True(t, got[0].IsBalanced())
	assert.Contains(t, got[0].Products, cofactorRed)
}

func TestBalancer_NoSubstitutionWhenAlreadyBalanced(t *testing.T) {
	b := NewBalancer(NewMemoryBalanceCache(), testRedoxTables(), nil)

	right := Reaction{
		Substrates: []string{ethanol, cofactorOx},
		Products:   []string{acetaldehyde, cofactorRed},
	}

	got := b.Resolve(context.Background(), []Reaction{right}, "eq3")
	require.Len(t, got, 1)
}

func TestBalancer_UnbalancedOutcomeIsEmptyNotError(t *testing.T) {
	b := NewBalancer(NewMemoryBalanceCache(), RedoxTables{}, nil)

	hopeless := Reaction{
		Substrates: []string{ethanol},
		Products:   []string{acetaldehyde},
	}
	got := b.Resolve(context.Background(), []Reaction{hopeless}, "eq4")
	assert.Empty(t, got)
}

func TestBalancer_CacheSharedAcrossIdenticalEquations(t *testing.T) {
	cache := NewMemoryBalanceCache()
	b := NewBalancer(cache, RedoxTables{}, nil)

	hits, misses := 0, 0
	b.CacheObserver = func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}

	balanced := Reaction{
		Substrates: []string{ethanol, cofactorOx},
		Products:   []string{acetaldehyde, cofactorRed},
	}

	first := b.Resolve(context.Background(), []Reaction{balanced}, "ethanol + cof = acetaldehyde + cofH2")
	// The second entry shares the text but supplies no candidates; the
	// cache must still return the first entry's result.
	second := b.Resolve(context.Background(), nil, "ethanol + cof  =  acetaldehyde + cofH2")

	require.Equal(t, len(first), len(second))
	assert.Equal(t, first[0].String(), second[0].String())
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestBalancer_CachesUnbalancedOutcome(t *testing.T) {
	b := NewBalancer(NewMemoryBalanceCache(), RedoxTables{}, nil)

	hits := 0
	b.CacheObserver = func(hit bool) {
		if hit {
			hits++
		}
	}

	bad := Reaction{Substrates: []string{ethanol}, Products: []string{acetaldehyde}}
	assert.Empty(t, b.Resolve(context.Background(), []Reaction{bad}, "eq5"))
	assert.Empty(t, b.Resolve(context.Background(), []Reaction{bad}, "eq5"))
	assert.Equal(t, 1, hits)
}

func TestBalancer_DeduplicatesEquivalentCandidates(t *testing.T) {
	b := NewBalancer(NewMemoryBalanceCache(), RedoxTables{}, nil)

	a := Reaction{Substrates: []string{ethanol, cofactorOx}, Products: []string{acetaldehyde, cofactorRed}}
	sameDifferentOrder := Reaction{Substrates: []string{cofactorOx, ethanol}, Products: []string{cofactorRed, acetaldehyde}}

	got := b.Resolve(context.Background(), []Reaction{a, sameDifferentOrder}, "eq6")
	assert.Len(t, got, 1)
}
