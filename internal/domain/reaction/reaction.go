// Package reaction implements the correction and atom-mapping engine: it
// turns raw name-level reaction entries into balanced, atom-mapped,
// quality-scored reaction records.  The stages are composed by the curation
// application service; each stage is a pure transform over the previous
// stage's output.
package reaction

import (
	"sort"
	"strings"

	"github.com/turtacn/enzymemap/internal/domain/chem"
	"github.com/turtacn/enzymemap/pkg/errors"
)

// Reaction is a structure-level reaction: fragment lists for each side.
// Fragments are single-molecule structure strings; the serialized form joins
// fragments with "." and sides with ">>".
type Reaction struct {
	Substrates []string
	Products   []string
}

// ParseReaction parses "frag.frag>>frag.frag".
func ParseReaction(s string) (Reaction, error) {
	parts := strings.Split(s, ">>")
	if len(parts) != 2 {
		return Reaction{}, errors.New(errors.ErrCodeReactionMalformed, "reaction must contain exactly one >> separator").
			WithDetail(s)
	}
	return Reaction{
		Substrates: splitFragments(parts[0]),
		Products:   splitFragments(parts[1]),
	}, nil
}

func splitFragments(side string) []string {
	if strings.TrimSpace(side) == "" {
		return nil
	}
	raw := strings.Split(side, ".")
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// String serializes the reaction as "substrates>>products".
func (r Reaction) String() string {
	return strings.Join(r.Substrates, ".") + ">>" + strings.Join(r.Products, ".")
}

// Reverse returns the reaction with its sides swapped.
func (r Reaction) Reverse() Reaction {
	return Reaction{
		Substrates: append([]string(nil), r.Products...),
		Products:   append([]string(nil), r.Substrates...),
	}
}

// Canonical returns the reaction with both sides in canonical fragment
// order: fragments sorted lexicographically, with hydrogen-only fragments
// (protons, dihydrogen) moved after all others.  Canonicalization is
// idempotent, so string equality on canonical forms is a stable reaction
// identity within one level of structural explicitness.
func (r Reaction) Canonical() Reaction {
	return Reaction{
		Substrates: CanonicalSide(r.Substrates),
		Products:   CanonicalSide(r.Products),
	}
}

// CanonicalString is shorthand for r.Canonical().String().
func (r Reaction) CanonicalString() string {
	return r.Canonical().String()
}

// CanonicalSide sorts fragments lexicographically and places hydrogen-only
// fragments last.  Fragments that fail to parse sort with the ordinary ones;
// they will be rejected later by balance checking.
func CanonicalSide(fragments []string) []string {
	var heavy, hOnly []string
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if m, err := chem.ParseMolecule(f); err == nil && m.IsHydrogenOnly() {
			hOnly = append(hOnly, f)
		} else {
			heavy = append(heavy, f)
		}
	}
	sort.Strings(heavy)
	sort.Strings(hOnly)
	return append(heavy, hOnly...)
}

// IsBalanced reports whether the reaction conserves the full atom multiset,
// explicit hydrogens included, and the net charge.  A side that fails to
// parse never balances.
func (r Reaction) IsBalanced() bool {
	sf, err := chem.SideFormula(r.Substrates)
	if err != nil {
		return false
	}
	pf, err := chem.SideFormula(r.Products)
	if err != nil {
		return false
	}
	if !sf.Equal(pf) {
		return false
	}
	sc, err := chem.SideCharge(r.Substrates)
	if err != nil {
		return false
	}
	pc, err := chem.SideCharge(r.Products)
	if err != nil {
		return false
	}
	return sc == pc
}

// BondEdits returns the bond-edit distance between the reaction's two sides:
// the size of the symmetric difference of their bond multisets, a proxy for
// bonds broken plus bonds formed.
func (r Reaction) BondEdits() (int, error) {
	sb, err := chem.SideBondCounts(r.Substrates)
	if err != nil {
		return 0, err
	}
	pb, err := chem.SideBondCounts(r.Products)
	if err != nil {
		return 0, err
	}
	return chem.BondEditDistance(sb, pb), nil
}

// sidesEqual compares two canonical fragment lists.
func sidesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Equal reports whether two reactions are identical under canonicalization.
func (r Reaction) Equal(other Reaction) bool {
	rc, oc := r.Canonical(), other.Canonical()
	return sidesEqual(rc.Substrates, oc.Substrates) && sidesEqual(rc.Products, oc.Products)
}
