package reaction

import (
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/enzymemap/pkg/types/common"
	rtypes "github.com/turtacn/enzymemap/pkg/types/reaction"
)

// EntryResult gathers everything the pipeline derived for one raw entry
// before finalization.
type EntryResult struct {
	Entry rtypes.RawReaction
	// Candidates are the uncorrected candidate reactions, possibly empty
	// for unresolvable entries.
	Candidates []Reaction
	// Balanced are the candidates that conserved atoms, possibly empty.
	Balanced []Reaction
	// Mappings are the selected mapped candidates, possibly empty.
	Mappings []Mapping
	// ProbablyReversible is the pipeline's own reversibility judgement,
	// distinct from the entry's declared tag.
	ProbablyReversible bool
}

// Finalizer expands reversible reactions into explicit forward and reverse
// rows and flattens per-entry candidate lists into one row per surviving
// mapping.  Entries without any mapping are retained with empty mapping
// fields rather than dropped.
type Finalizer struct {
	logger logging.Logger
}

// NewFinalizer constructs a Finalizer.
func NewFinalizer(logger logging.Logger) *Finalizer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Finalizer{logger: logger.Named("finalize")}
}

// Finalize flattens one entry's result into output rows.  scores are the
// enzyme group's quality scores from QualityScores.
func (f *Finalizer) Finalize(res EntryResult, library *Library, scores map[int]float64) []rtypes.FinalizedReaction {
	base := rtypes.FinalizedReaction{
		EntryID:            res.Entry.ID,
		ECNumber:           res.Entry.ECNumber,
		RxnText:            res.Entry.EquationText(),
		Reversible:         res.Entry.Reversible,
		ProbablyReversible: res.ProbablyReversible,
		Natural:            res.Entry.Natural,
		Organism:           res.Entry.Organism,
		ProteinRefs:        res.Entry.ProteinRefs,
		ProteinDB:          res.Entry.ProteinDB,
	}
	if len(res.Candidates) > 0 {
		base.UncorrectedRxn = res.Candidates[0].String()
	}

	if len(res.Mappings) == 0 {
		row := base
		row.ID = common.NewID()
		row.Direction = rtypes.DirectionForward
		if len(res.Balanced) > 0 {
			row.BalancedRxn = res.Balanced[0].String()
		}
		return []rtypes.FinalizedReaction{row}
	}

	expand := res.Entry.Reversible == rtypes.Reversible || res.ProbablyReversible

	rows := make([]rtypes.FinalizedReaction, 0, len(res.Mappings)*2)
	for _, m := range res.Mappings {
		forward := base
		forward.ID = common.NewID()
		forward.Direction = rtypes.DirectionForward
		forward.BalancedRxn = m.Reaction.String()
		forward.MappedRxn = m.Mapped
		forward.RuleIDs = append([]int(nil), m.RuleIDs...)
		forward.RuleNames = append([]string(nil), m.RuleNames...)
		forward.Individuals = append([]string(nil), m.Individuals...)
		forward.Source = m.Source
		forward.Step = m.Step
		forward.Quality = QualityFor(library, scores, m)
		rows = append(rows, forward)

		if !expand {
			continue
		}
		inverted, err := InvertMapped(m.Mapped)
		if err != nil {
			f.logger.Warn("cannot invert mapped reaction",
				logging.String("mapped", m.Mapped), logging.Err(err))
			continue
		}
		reverse := forward
		reverse.ID = common.NewID()
		reverse.Direction = rtypes.DirectionReverse
		reverse.BalancedRxn = m.Reaction.Reverse().String()
		reverse.MappedRxn = inverted
		reverse.RuleIDs = append([]int(nil), m.RuleIDs...)
		reverse.RuleNames = append([]string(nil), m.RuleNames...)
		reverse.Individuals = invertIndividuals(m.Individuals)
		rows = append(rows, reverse)
	}
	return rows
}

// invertIndividuals reverses a multi-step decomposition: each step is
// inverted and the step order is reversed.
func invertIndividuals(individuals []string) []string {
	if len(individuals) == 0 {
		return nil
	}
	out := make([]string, 0, len(individuals))
	for i := len(individuals) - 1; i >= 0; i-- {
		inv, err := InvertMapped(individuals[i])
		if err != nil {
			continue
		}
		out = append(out, inv)
	}
	return out
}
