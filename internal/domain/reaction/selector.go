package reaction

import (
	"math"

	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
)

// BondEditMetric ranks a mapped candidate by the structural change between
// its two sides; smaller is more parsimonious.  The metric is injectable
// because the exact distance formula is a heuristic, not a fixed upstream
// contract.
type BondEditMetric func(Reaction) (int, error)

// SymmetricBondEdits is the default metric: the symmetric difference of the
// two sides' bond multisets.
func SymmetricBondEdits(r Reaction) (int, error) {
	return r.BondEdits()
}

// Selector keeps, among all surviving mapped candidates of one entry, the
// subset with the minimal bond-edit distance.  Ties are all retained;
// ambiguity is preserved, never broken arbitrarily.
type Selector struct {
	metric BondEditMetric
	logger logging.Logger
}

// NewSelector constructs a Selector.  A nil metric selects
// SymmetricBondEdits.
func NewSelector(metric BondEditMetric, logger logging.Logger) *Selector {
	if metric == nil {
		metric = SymmetricBondEdits
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Selector{metric: metric, logger: logger.Named("select")}
}

// SelectBest returns the mappings whose reactions have the minimal metric
// value.  Mappings whose metric cannot be computed rank last and survive
// only when no mapping has a computable metric.
func (s *Selector) SelectBest(mappings []Mapping) []Mapping {
	if len(mappings) <= 1 {
		return mappings
	}

	best := math.MaxInt
	dists := make([]int, len(mappings))
	for i, m := range mappings {
		d, err := s.metric(m.Reaction)
		if err != nil {
			d = math.MaxInt
		}
		dists[i] = d
		if d < best {
			best = d
		}
	}

	out := make([]Mapping, 0, len(mappings))
	for i, m := range mappings {
		if dists[i] == best {
			out = append(out, m)
		}
	}
	if len(out) < len(mappings) {
		s.logger.Debug("pruned by bond-edit minimality",
			logging.Int("kept", len(out)),
			logging.Int("pruned", len(mappings)-len(out)),
			logging.Int("edits", best),
		)
	}
	return out
}

// QualityScores computes the per-equivalence-group quality scores for one
// enzyme group: each rule occurrence across all selected mappings counts
// toward its equivalence group, and a group's score is its share of the
// grand total.  Groups with zero occurrences are omitted, so the returned
// scores sum to 1.0.
func QualityScores(library *Library, selected [][]Mapping) map[int]float64 {
	counts := map[int]int{}
	total := 0
	for _, mappings := range selected {
		for _, m := range mappings {
			for _, id := range m.RuleIDs {
				counts[library.GroupOf(id)]++
				total++
			}
		}
	}
	if total == 0 {
		return map[int]float64{}
	}
	scores := make(map[int]float64, len(counts))
	for group, n := range counts {
		scores[group] = float64(n) / float64(total)
	}
	return scores
}

// QualityFor returns the quality score of a mapping: the score of the
// equivalence group of its primary (first) rule.
func QualityFor(library *Library, scores map[int]float64, m Mapping) float64 {
	if len(m.RuleIDs) == 0 {
		return 0
	}
	return scores[library.GroupOf(m.RuleIDs[0])]
}
