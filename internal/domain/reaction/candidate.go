package reaction

import (
	"context"
	"fmt"

	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/enzymemap/pkg/errors"
	rtypes "github.com/turtacn/enzymemap/pkg/types/reaction"
)

// StructureResolver resolves compound names to structure variants.  A name
// may map to several plausible structures (tautomers, protonation states);
// an absent or empty list is a valid answer meaning the name is
// unresolvable.
type StructureResolver interface {
	Resolve(ctx context.Context, names []string) (map[string][]string, error)
}

// CandidateBuilder enumerates structure-level candidate reactions for a raw
// entry: one candidate per combination in the Cartesian product of the
// per-compound variant lists.
type CandidateBuilder struct {
	// maxCandidates caps the Cartesian product.  Enumeration past the cap
	// is truncated deterministically, keeping the earliest combinations,
	// which favour each compound's first (preferred) variant.
	maxCandidates int
	logger        logging.Logger
}

// DefaultMaxCandidates bounds the per-entry candidate space.
const DefaultMaxCandidates = 256

// NewCandidateBuilder constructs a CandidateBuilder.  maxCandidates <= 0
// selects DefaultMaxCandidates.
func NewCandidateBuilder(maxCandidates int, logger logging.Logger) *CandidateBuilder {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CandidateBuilder{maxCandidates: maxCandidates, logger: logger.Named("candidates")}
}

// Build returns every candidate reaction for entry, canonicalized.  When any
// participating compound has no resolved structure the entry is
// unresolvable: Build returns a recoverable error and no candidates.
func (b *CandidateBuilder) Build(entry rtypes.RawReaction, variants map[string][]string) ([]Reaction, error) {
	subVariants, err := roleVariants(entry.Substrates, variants)
	if err != nil {
		return nil, err
	}
	prodVariants, err := roleVariants(entry.Products, variants)
	if err != nil {
		return nil, err
	}

	subCombos := b.combinations(subVariants)
	prodCombos := b.combinations(prodVariants)

	total := len(subCombos) * len(prodCombos)
	if total > b.maxCandidates {
		b.logger.Warn("candidate space truncated",
			logging.String("ec", entry.ECNumber),
			logging.String("rxn", entry.EquationText()),
			logging.Int("total", total),
			logging.Int("cap", b.maxCandidates),
		)
	}

	out := make([]Reaction, 0, min(total, b.maxCandidates))
	for _, sub := range subCombos {
		for _, prod := range prodCombos {
			if len(out) >= b.maxCandidates {
				return out, nil
			}
			out = append(out, Reaction{
				Substrates: CanonicalSide(sub),
				Products:   CanonicalSide(prod),
			})
		}
	}
	return out, nil
}

// roleVariants maps each compound name of one side to its variant list,
// failing with a recoverable unresolvable error when a name has none.
func roleVariants(names []string, variants map[string][]string) ([][]string, error) {
	out := make([][]string, 0, len(names))
	for _, name := range names {
		vs := variants[name]
		if len(vs) == 0 {
			return nil, errors.Unresolvable("compound has no resolved structure").
				WithDetail(fmt.Sprintf("name=%s", name))
		}
		out = append(out, vs)
	}
	return out, nil
}

// combinations enumerates the Cartesian product of the given lists in
// lexicographic index order, truncated at maxCandidates.
func (b *CandidateBuilder) combinations(lists [][]string) [][]string {
	if len(lists) == 0 {
		return nil
	}
	idx := make([]int, len(lists))
	var out [][]string
	for {
		combo := make([]string, len(lists))
		for i, list := range lists {
			combo[i] = list[idx[i]]
		}
		out = append(out, combo)
		if len(out) >= b.maxCandidates {
			return out
		}

		// Advance the odometer, last position fastest.
		pos := len(lists) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(lists[pos]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return out
		}
	}
}
