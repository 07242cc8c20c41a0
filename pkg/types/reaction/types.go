// Package reaction defines the transfer types exchanged between the curation
// pipeline's layers: raw database entries on the way in, finalized mapped
// reactions on the way out, and the aggregate statistics of a batch run.
package reaction

import (
	"github.com/turtacn/enzymemap/pkg/types/common"
)

// Reversibility encodes the reversibility annotation of a database entry.
type Reversibility string

const (
	// Reversible marks an entry annotated as reversible ({r}).
	Reversible Reversibility = "r"
	// Irreversible marks an entry annotated as irreversible ({ir}).
	Irreversible Reversibility = "ir"
	// UnknownReversibility marks an entry with no reversibility annotation.
	UnknownReversibility Reversibility = "?"
)

// Valid reports whether r is one of the defined reversibility values.
func (r Reversibility) Valid() bool {
	switch r {
	case Reversible, Irreversible, UnknownReversibility:
		return true
	}
	return false
}

// Source describes how a mapped reaction was obtained.
type Source string

const (
	// SourceDirect marks reactions mapped from the entry's own balanced
	// candidates.
	SourceDirect Source = "direct"
	// SourceSuggested marks reactions recovered through the suggestion
	// fallback after direct mapping failed.
	SourceSuggested Source = "suggested"
)

// Step describes the template depth that produced a mapping.
type Step string

const (
	// StepSingle marks reactions mapped by a single rule application.
	StepSingle Step = "single"
	// StepMulti marks reactions mapped by a composed multi-step sequence.
	StepMulti Step = "multi"
)

// Direction describes which way a finalized reaction row runs relative to the
// curated equation.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionReverse Direction = "reverse"
)

// RawReaction is a single reaction entry as parsed from the upstream enzyme
// database, before structure resolution.  Substrates and Products hold
// compound names; coefficients have already been expanded into repetition.
type RawReaction struct {
	ID common.ID `json:"id"`

	// ECNumber is the enzyme classification the entry belongs to, e.g.
	// "1.1.1.1".
	ECNumber string `json:"ec_number"`

	Substrates []string `json:"substrates"`
	Products   []string `json:"products"`

	Reversible Reversibility `json:"reversible"`

	// RxnText is the normalized equation text used as the balance-cache key.
	RxnText string `json:"rxn_text"`
	// OrigRxnText is the equation exactly as it appeared upstream.
	OrigRxnText string `json:"orig_rxn_text"`

	// Natural reports whether the entry came from a natural
	// substrate/product listing rather than an in-vitro one.
	Natural bool `json:"natural"`

	Organism    string   `json:"organism"`
	ProteinRefs []string `json:"protein_refs"`
	ProteinDB   string   `json:"protein_db"`
}

// EquationText renders the entry's name-level equation, joining substrates
// and products with " = " the way the upstream database writes them.
func (r RawReaction) EquationText() string {
	if r.RxnText != "" {
		return r.RxnText
	}
	return joinSides(r.Substrates, r.Products)
}

func joinSides(substrates, products []string) string {
	out := ""
	for i, s := range substrates {
		if i > 0 {
			out += " + "
		}
		out += s
	}
	out += " = "
	for i, p := range products {
		if i > 0 {
			out += " + "
		}
		out += p
	}
	return out
}

// FinalizedReaction is one output row of the pipeline: a single atom-mapped
// reaction in a single direction, with its provenance and quality score.
type FinalizedReaction struct {
	ID      common.ID `json:"id"`
	EntryID common.ID `json:"entry_id"`

	ECNumber string `json:"ec_number"`

	// UncorrectedRxn is the structure-level reaction before balance
	// correction.
	UncorrectedRxn string `json:"uncorrected_rxn"`
	// RxnText is the name-level equation the entry was curated from.
	RxnText string `json:"rxn_text"`
	// BalancedRxn is the corrected, balanced structure-level reaction.
	BalancedRxn string `json:"balanced_rxn"`
	// MappedRxn is the atom-mapped form of BalancedRxn, oriented per
	// Direction.
	MappedRxn string `json:"mapped_rxn"`

	// RuleNames and RuleIDs record the matched template(s), in application
	// order for multi-step mappings.
	RuleNames []string `json:"rule_names,omitempty"`
	RuleIDs   []int    `json:"rule_ids,omitempty"`

	// Individuals lists the per-step mapped reactions when Step is
	// StepMulti; empty for single-step mappings.
	Individuals []string `json:"individuals,omitempty"`

	Source Source `json:"source"`
	Step   Step   `json:"step"`

	Direction Direction `json:"direction"`

	// Reversible is the upstream annotation; ProbablyReversible is the
	// pipeline's own judgement after mapping.
	Reversible         Reversibility `json:"reversible"`
	ProbablyReversible bool          `json:"probably_reversible"`

	// Quality is the frequency-based confidence of the rule group that
	// produced the mapping, in (0, 1].  Scores within one enzyme group sum
	// to 1.0 across rule groups.
	Quality float64 `json:"quality"`

	Natural     bool     `json:"natural"`
	Organism    string   `json:"organism"`
	ProteinRefs []string `json:"protein_refs"`
	ProteinDB   string   `json:"protein_db"`
}

// BatchStats aggregates the per-entry outcomes of a batch run.  Recoverable
// failures are counted here instead of aborting the batch.
type BatchStats struct {
	Entries   int `json:"entries"`
	Finalized int `json:"finalized"`

	Unresolvable int `json:"unresolvable"`
	Unbalanced   int `json:"unbalanced"`
	Unmapped     int `json:"unmapped"`

	Suggested int `json:"suggested"`
	MultiStep int `json:"multi_step"`

	GroupsProcessed int `json:"groups_processed"`
	GroupsTimedOut  int `json:"groups_timed_out"`
}

// Add accumulates other into s.
func (s *BatchStats) Add(other BatchStats) {
	s.Entries += other.Entries
	s.Finalized += other.Finalized
	s.Unresolvable += other.Unresolvable
	s.Unbalanced += other.Unbalanced
	s.Unmapped += other.Unmapped
	s.Suggested += other.Suggested
	s.MultiStep += other.MultiStep
	s.GroupsProcessed += other.GroupsProcessed
	s.GroupsTimedOut += other.GroupsTimedOut
}
