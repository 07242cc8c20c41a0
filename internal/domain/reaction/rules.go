package reaction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/enzymemap/internal/domain/chem"
	"github.com/turtacn/enzymemap/pkg/errors"
)

// Rule is one reaction-rule template: a fragment-level transformation
// pattern plus the equivalence group that links chemically equivalent
// variants of the same transformation.
type Rule struct {
	ID   int
	Name string
	// Pattern is "lhs>>rhs".  The first left fragment is the reaction
	// center and may match inside a larger substrate fragment; any further
	// left fragments must match whole co-substrate fragments.  The first
	// right fragment replaces the center in place; further right fragments
	// are emitted as new co-products.
	Pattern string
	// GroupID links direction-independent variants of one transformation.
	GroupID int
}

// The isomerization class has no structural template but still receives a
// quality bucket of its own.
const (
	IsomerizationRuleID  = -1
	IsomerizationGroupID = -1
	IsomerizationName    = "isomerization"
)

// parsedRule caches the split pattern sides.
type parsedRule struct {
	Rule
	lhs []string
	rhs []string
}

// Library is the read-only rule library shared by all enzyme groups.
type Library struct {
	rules  []parsedRule
	byID   map[int]parsedRule
	groups map[int][]int
}

// NewLibrary validates and indexes the given rules.  Every pattern must
// split into two sides and every fragment must parse.
func NewLibrary(rules []Rule) (*Library, error) {
	lib := &Library{
		byID:   make(map[int]parsedRule, len(rules)),
		groups: map[int][]int{},
	}
	for _, r := range rules {
		rxn, err := ParseReaction(r.Pattern)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeRulePatternInvalid, "rule pattern is not a reaction").
				WithDetail(fmt.Sprintf("rule=%d pattern=%s", r.ID, r.Pattern))
		}
		if len(rxn.Substrates) == 0 || len(rxn.Products) == 0 {
			return nil, errors.New(errors.ErrCodeRulePatternInvalid, "rule pattern has an empty side").
				WithDetail(fmt.Sprintf("rule=%d pattern=%s", r.ID, r.Pattern))
		}
		for _, frag := range append(append([]string{}, rxn.Substrates...), rxn.Products...) {
			if _, err := chem.ParseMolecule(frag); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeRulePatternInvalid, "rule pattern fragment does not parse").
					WithDetail(fmt.Sprintf("rule=%d fragment=%s", r.ID, frag))
			}
		}
		if _, dup := lib.byID[r.ID]; dup {
			return nil, errors.New(errors.ErrCodeRulePatternInvalid, "duplicate rule id").
				WithDetail(fmt.Sprintf("rule=%d", r.ID))
		}
		pr := parsedRule{Rule: r, lhs: rxn.Substrates, rhs: rxn.Products}
		lib.rules = append(lib.rules, pr)
		lib.byID[r.ID] = pr
		lib.groups[r.GroupID] = append(lib.groups[r.GroupID], r.ID)
	}
	return lib, nil
}

// Len returns the number of rules.
func (l *Library) Len() int { return len(l.rules) }

// Rule returns the rule with the given id.
func (l *Library) Rule(id int) (Rule, bool) {
	if id == IsomerizationRuleID {
		return Rule{ID: IsomerizationRuleID, Name: IsomerizationName, GroupID: IsomerizationGroupID}, true
	}
	pr, ok := l.byID[id]
	return pr.Rule, ok
}

// GroupOf returns the equivalence group of a rule id.  Unknown ids map to
// their own negative-less identity group so scoring still buckets them.
func (l *Library) GroupOf(ruleID int) int {
	if ruleID == IsomerizationRuleID {
		return IsomerizationGroupID
	}
	if pr, ok := l.byID[ruleID]; ok {
		return pr.GroupID
	}
	return ruleID
}

// GroupMembers returns the rule ids in one equivalence group, sorted.
func (l *Library) GroupMembers(groupID int) []int {
	ids := append([]int(nil), l.groups[groupID]...)
	sort.Ints(ids)
	return ids
}

// RuleIDs returns all rule ids, sorted.
func (l *Library) RuleIDs() []int {
	ids := make([]int, 0, len(l.rules))
	for _, r := range l.rules {
		ids = append(ids, r.ID)
	}
	sort.Ints(ids)
	return ids
}

// ApplyToSide applies the rule with the given id once to a fragment list and
// returns every distinct resulting side.  The reaction center (first left
// fragment) is located at every position inside every fragment; remaining
// left fragments consume whole co-substrate fragments.  Rewrites that
// produce unparseable fragments are discarded.
func (l *Library) ApplyToSide(ruleID int, side []string) [][]string {
	pr, ok := l.byID[ruleID]
	if !ok {
		return nil
	}
	return applyPattern(pr, side)
}

func applyPattern(pr parsedRule, side []string) [][]string {
	center := pr.lhs[0]
	coLHS := pr.lhs[1:]

	seen := map[string]bool{}
	var results [][]string

	for fi, frag := range side {
		for _, pos := range substringPositions(frag, center) {
			rest := without(side, fi)
			remaining, ok := consumeWhole(rest, coLHS)
			if !ok {
				continue
			}

			rewritten := frag[:pos] + pr.rhs[0] + frag[pos+len(center):]
			newSide := append([]string(nil), remaining...)
			if rewritten != "" {
				if _, err := chem.ParseMolecule(rewritten); err != nil {
					continue
				}
				newSide = append(newSide, rewritten)
			}
			newSide = append(newSide, pr.rhs[1:]...)

			canon := CanonicalSide(newSide)
			key := strings.Join(canon, ".")
			if !seen[key] {
				seen[key] = true
				results = append(results, canon)
			}
		}
	}
	return results
}

// substringPositions returns every occurrence index of needle in s.
func substringPositions(s, needle string) []int {
	if needle == "" {
		return nil
	}
	var out []int
	from := 0
	for {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return out
		}
		out = append(out, from+i)
		from += i + 1
	}
}

// without returns side with index i removed.
func without(side []string, i int) []string {
	out := make([]string, 0, len(side)-1)
	out = append(out, side[:i]...)
	return append(out, side[i+1:]...)
}

// consumeWhole removes one occurrence of each wanted fragment from side,
// reporting failure when any is missing.
func consumeWhole(side []string, wanted []string) ([]string, bool) {
	out := append([]string(nil), side...)
	for _, w := range wanted {
		found := -1
		for i, f := range out {
			if f == w {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, false
		}
		out = without(out, found)
	}
	return out, true
}
