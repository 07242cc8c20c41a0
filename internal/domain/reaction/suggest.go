package reaction

import (
	"sort"
	"strings"

	"github.com/turtacn/enzymemap/internal/domain/chem"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
)

// SuggestionIndex is the similarity index behind the suggestion fallback.
// It is built per enzyme group from every reaction the group has already
// mapped: each mapping is reduced to its reaction center at fragment
// granularity, the fragments consumed on the substrate side and the
// fragments produced on the product side.  An unmapped entry whose substrate
// side contains a known center gets the known transformation transplanted
// onto its own structures, producing fresh candidates for re-submission.
//
// Every internal failure degrades to an empty suggestion list; nothing in
// this path returns an error.
type SuggestionIndex struct {
	entries []suggestionEntry
	seen    map[string]bool
	logger  logging.Logger
}

type suggestionEntry struct {
	ruleIDs  []int
	consumed []string // substrate fragments that change, canonical order
	produced []string // product fragments that change, canonical order
	// signature is the heavy-element formula of the consumed fragments,
	// used as a cheap prefilter before the fragment-level containment test.
	signature chem.Formula
}

// NewSuggestionIndex constructs an empty index.
func NewSuggestionIndex(logger logging.Logger) *SuggestionIndex {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SuggestionIndex{
		seen:   map[string]bool{},
		logger: logger.Named("suggest"),
	}
}

// Len returns the number of indexed reaction centers.
func (x *SuggestionIndex) Len() int { return len(x.entries) }

// Add indexes one successful mapping.  Mappings whose center cannot be
// derived (identical sides, unparseable fragments) are skipped.
func (x *SuggestionIndex) Add(m Mapping) {
	canon := m.Reaction.Canonical()
	consumed, produced := sideDifference(canon.Substrates, canon.Products)
	if len(consumed) == 0 || len(produced) == 0 {
		return
	}
	key := strings.Join(consumed, ".") + ">>" + strings.Join(produced, ".")
	if x.seen[key] {
		return
	}

	sig, err := chem.SideFormula(consumed)
	if err != nil {
		return
	}
	x.seen[key] = true
	x.entries = append(x.entries, suggestionEntry{
		ruleIDs:   append([]int(nil), m.RuleIDs...),
		consumed:  consumed,
		produced:  produced,
		signature: sig.WithoutHydrogen(),
	})
}

// Suggest proposes corrected candidates for an entry that failed to balance
// or map: for every candidate whose substrate side contains a known reaction
// center, the center's consumed fragments are swapped for its produced
// fragments to predict a corrected product side.  Results are deduplicated
// and canonical; an empty list means no analogy applied.
func (x *SuggestionIndex) Suggest(candidates []Reaction) []Reaction {
	var out []Reaction
	dedup := map[string]bool{}
	for _, cand := range candidates {
		subs := CanonicalSide(cand.Substrates)
		subSig, err := chem.SideFormula(subs)
		if err != nil {
			continue
		}
		heavySig := subSig.WithoutHydrogen()

		for _, entry := range x.entries {
			if !heavySig.Contains(entry.signature) {
				continue
			}
			remaining, ok := consumeWhole(subs, entry.consumed)
			if !ok {
				continue
			}
			suggestion := Reaction{
				Substrates: subs,
				Products:   CanonicalSide(append(append([]string{}, remaining...), entry.produced...)),
			}
			key := suggestion.String()
			if !dedup[key] {
				dedup[key] = true
				out = append(out, suggestion)
			}
		}
	}
	if len(out) > 0 {
		x.logger.Debug("suggestions generated",
			logging.Int("candidates", len(candidates)),
			logging.Int("suggestions", len(out)),
		)
	}
	return out
}

// RuleIDs returns the union of rule ids across all indexed entries, sorted.
// The fallback mapping pass is restricted to these.
func (x *SuggestionIndex) RuleIDs() map[int]bool {
	out := map[int]bool{}
	for _, e := range x.entries {
		for _, id := range e.ruleIDs {
			out[id] = true
		}
	}
	return out
}

// sideDifference returns the fragments unique to each side, treating the
// sides as multisets of canonical fragments.
func sideDifference(substrates, products []string) (consumed, produced []string) {
	subCounts := map[string]int{}
	for _, f := range substrates {
		subCounts[f]++
	}
	prodCounts := map[string]int{}
	for _, f := range products {
		prodCounts[f]++
	}
	for f, n := range subCounts {
		for i := 0; i < n-prodCounts[f]; i++ {
			consumed = append(consumed, f)
		}
	}
	for f, n := range prodCounts {
		for i := 0; i < n-subCounts[f]; i++ {
			produced = append(produced, f)
		}
	}
	sort.Strings(consumed)
	sort.Strings(produced)
	return consumed, produced
}
