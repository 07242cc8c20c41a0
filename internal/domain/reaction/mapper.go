package reaction

import (
	"fmt"
	"strings"

	"github.com/turtacn/enzymemap/internal/domain/chem"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/enzymemap/pkg/errors"
	rtypes "github.com/turtacn/enzymemap/pkg/types/reaction"
)

// Mapping is one successfully atom-mapped reaction candidate.
type Mapping struct {
	// Reaction is the balanced reaction the mapping derives from, in
	// canonical form.
	Reaction Reaction
	// Mapped is the atom-mapped serialization of Reaction.
	Mapped string
	// RuleIDs and RuleNames record the template(s) that matched, in
	// application order for multi-step mappings.
	RuleIDs   []int
	RuleNames []string
	Step      rtypes.Step
	Source    rtypes.Source
	// Individuals lists the component single-step reactions of a
	// multi-step mapping, unmapped, in application order.
	Individuals []string
}

// Mapper matches balanced reactions against the rule library and emits
// atom-mapped reaction strings.
type Mapper struct {
	library *Library
	logger  logging.Logger
}

// NewMapper constructs a Mapper over a shared, read-only library.
func NewMapper(library *Library, logger logging.Logger) *Mapper {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Mapper{library: library, logger: logger.Named("mapper")}
}

// Library returns the mapper's rule library.
func (m *Mapper) Library() *Library { return m.library }

// ruleIDs returns the ids to try: the allowed subset when non-empty,
// otherwise the whole library.  Sorted, so matching order is deterministic.
func (m *Mapper) ruleIDs(allowed map[int]bool) []int {
	all := m.library.RuleIDs()
	if len(allowed) == 0 {
		return all
	}
	out := make([]int, 0, len(allowed))
	for _, id := range all {
		if allowed[id] {
			out = append(out, id)
		}
	}
	return out
}

// MapSingle tries every balanced candidate against every rule in single-step
// mode.  A rule matches when one application of its pattern rewrites the
// substrate side into exactly the product side.  All matches across all
// candidates are returned; no match is an expected, empty outcome.
func (m *Mapper) MapSingle(balanced []Reaction, allowed map[int]bool, source rtypes.Source) []Mapping {
	var out []Mapping
	seen := map[string]bool{}
	for _, rxn := range balanced {
		canon := rxn.Canonical()
		target := strings.Join(canon.Products, ".")
		for _, id := range m.ruleIDs(allowed) {
			if !m.singleStepMatches(id, canon.Substrates, target) {
				continue
			}
			mapped, err := AtomMap(canon)
			if err != nil {
				m.logger.Warn("matched rule but atom mapping failed",
					logging.Int("rule", id), logging.Err(err))
				continue
			}
			key := fmt.Sprintf("%s|%d", canon.String(), id)
			if seen[key] {
				continue
			}
			seen[key] = true
			rule, _ := m.library.Rule(id)
			out = append(out, Mapping{
				Reaction:  canon,
				Mapped:    mapped,
				RuleIDs:   []int{id},
				RuleNames: []string{rule.Name},
				Step:      rtypes.StepSingle,
				Source:    source,
			})
		}
	}
	return out
}

func (m *Mapper) singleStepMatches(ruleID int, substrates []string, canonicalProducts string) bool {
	for _, result := range m.library.ApplyToSide(ruleID, substrates) {
		if strings.Join(result, ".") == canonicalProducts {
			return true
		}
	}
	return false
}

// MapMulti composes two rule applications: the first rewrites the substrate
// side into an intermediate, the second rewrites the intermediate into the
// product side.  It is called only after single-step mapping failed for the
// whole entry, and is normally restricted to rule ids already validated
// elsewhere in the same enzyme group.
func (m *Mapper) MapMulti(balanced []Reaction, allowed map[int]bool, source rtypes.Source) []Mapping {
	ids := m.ruleIDs(allowed)
	var out []Mapping
	seen := map[string]bool{}
	for _, rxn := range balanced {
		canon := rxn.Canonical()
		target := strings.Join(canon.Products, ".")
		for _, first := range ids {
			for _, intermediate := range m.library.ApplyToSide(first, canon.Substrates) {
				if strings.Join(intermediate, ".") == target {
					// Single-step territory; MapSingle already covers it.
					continue
				}
				for _, second := range ids {
					if !m.singleStepMatches(second, intermediate, target) {
						continue
					}
					mapped, err := AtomMap(canon)
					if err != nil {
						continue
					}
					key := fmt.Sprintf("%s|%d|%d", canon.String(), first, second)
					if seen[key] {
						continue
					}
					seen[key] = true
					r1, _ := m.library.Rule(first)
					r2, _ := m.library.Rule(second)
					out = append(out, Mapping{
						Reaction:  canon,
						Mapped:    mapped,
						RuleIDs:   []int{first, second},
						RuleNames: []string{r1.Name, r2.Name},
						Step:      rtypes.StepMulti,
						Source:    source,
						Individuals: []string{
							Reaction{Substrates: canon.Substrates, Products: intermediate}.String(),
							Reaction{Substrates: intermediate, Products: canon.Products}.String(),
						},
					})
				}
			}
		}
	}
	return out
}

// MapIsomerization assigns the reserved isomerization rule to balanced
// one-substrate, one-product reactions whose sides share a formula.  The
// caller restricts this to enzyme classes where isomerization is the
// expected transformation.
func (m *Mapper) MapIsomerization(balanced []Reaction, source rtypes.Source) []Mapping {
	var out []Mapping
	for _, rxn := range balanced {
		canon := rxn.Canonical()
		if len(canon.Substrates) != 1 || len(canon.Products) != 1 {
			continue
		}
		sf, err := chem.SideFormula(canon.Substrates)
		if err != nil {
			continue
		}
		pf, err := chem.SideFormula(canon.Products)
		if err != nil {
			continue
		}
		if !sf.Equal(pf) {
			continue
		}
		mapped, err := AtomMap(canon)
		if err != nil {
			continue
		}
		out = append(out, Mapping{
			Reaction:  canon,
			Mapped:    mapped,
			RuleIDs:   []int{IsomerizationRuleID},
			RuleNames: []string{IsomerizationName},
			Step:      rtypes.StepSingle,
			Source:    source,
		})
	}
	return out
}

// MapsReverse reports whether the reversed reaction matches any allowed rule
// in single-step mode.  Used to infer probable reversibility.
func (m *Mapper) MapsReverse(rxn Reaction, allowed map[int]bool) bool {
	rev := rxn.Reverse().Canonical()
	target := strings.Join(rev.Products, ".")
	for _, id := range m.ruleIDs(allowed) {
		if m.singleStepMatches(id, rev.Substrates, target) {
			return true
		}
	}
	return false
}

// AtomMap numbers every substrate atom 1..N in writing order and assigns
// each product atom the lowest unused substrate number of the same element,
// then re-emits both sides in bracket form carrying the numbers.  The input
// must be balanced; mapping never changes atom counts.
func AtomMap(r Reaction) (string, error) {
	available := map[string][]int{}
	next := 1

	subStrs := make([]string, 0, len(r.Substrates))
	for _, frag := range r.Substrates {
		mol, err := chem.ParseMolecule(frag)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeMappingFailed, "substrate fragment does not parse")
		}
		nums := make([]int, mol.NumAtoms())
		for i, a := range mol.Atoms {
			nums[i] = next
			available[a.Element] = append(available[a.Element], next)
			next++
		}
		subStrs = append(subStrs, mol.MappedString(nums))
	}

	prodStrs := make([]string, 0, len(r.Products))
	for _, frag := range r.Products {
		mol, err := chem.ParseMolecule(frag)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeMappingFailed, "product fragment does not parse")
		}
		nums := make([]int, mol.NumAtoms())
		for i, a := range mol.Atoms {
			queue := available[a.Element]
			if len(queue) == 0 {
				return "", errors.New(errors.ErrCodeMappingFailed, "product atom without substrate counterpart").
					WithDetail(fmt.Sprintf("element=%s reaction=%s", a.Element, r.String()))
			}
			nums[i] = queue[0]
			available[a.Element] = queue[1:]
		}
		prodStrs = append(prodStrs, mol.MappedString(nums))
	}

	return strings.Join(subStrs, ".") + ">>" + strings.Join(prodStrs, "."), nil
}

// InvertMapped swaps the two sides of an atom-mapped reaction string.  Map
// numbers travel with their atoms, so inverting twice restores the input.
func InvertMapped(mapped string) (string, error) {
	if mapped == "" {
		return "", nil
	}
	parts := strings.Split(mapped, ">>")
	if len(parts) != 2 {
		return "", errors.New(errors.ErrCodeReactionMalformed, "mapped reaction must contain exactly one >> separator").
			WithDetail(mapped)
	}
	return parts[1] + ">>" + parts[0], nil
}
