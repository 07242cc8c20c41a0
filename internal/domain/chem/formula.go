package chem

import (
	"sort"
	"strconv"
	"strings"
)

// Formula is an elemental composition: element symbol to atom count.
type Formula map[string]int

// Clone returns an independent copy of f.
func (f Formula) Clone() Formula {
	out := make(Formula, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Add accumulates other into f and returns f.
func (f Formula) Add(other Formula) Formula {
	for k, v := range other {
		f[k] += v
	}
	return f
}

// Equal reports whether f and other contain identical counts, ignoring
// zero entries.
func (f Formula) Equal(other Formula) bool {
	for k, v := range f {
		if v != 0 && other[k] != v {
			return false
		}
	}
	for k, v := range other {
		if v != 0 && f[k] != v {
			return false
		}
	}
	return true
}

// Contains reports whether f has at least the counts of other for every
// element, i.e. other is a sub-multiset of f.
func (f Formula) Contains(other Formula) bool {
	for k, v := range other {
		if v > 0 && f[k] < v {
			return false
		}
	}
	return true
}

// WithoutHydrogen returns a copy of f with the hydrogen count removed.
func (f Formula) WithoutHydrogen() Formula {
	out := f.Clone()
	delete(out, "H")
	return out
}

// Hydrogens returns the hydrogen count.
func (f Formula) Hydrogens() int { return f["H"] }

// TotalAtoms returns the sum of all counts.
func (f Formula) TotalAtoms() int {
	n := 0
	for _, v := range f {
		n += v
	}
	return n
}

// String renders the formula in Hill order: carbon first, hydrogen second,
// then the remaining elements alphabetically.  Counts of 1 are omitted.
func (f Formula) String() string {
	var rest []string
	for k, v := range f {
		if v == 0 || k == "C" || k == "H" {
			continue
		}
		rest = append(rest, k)
	}
	sort.Strings(rest)

	var sb strings.Builder
	write := func(elem string) {
		v := f[elem]
		if v == 0 {
			return
		}
		sb.WriteString(elem)
		if v != 1 {
			sb.WriteString(strconv.Itoa(v))
		}
	}
	write("C")
	write("H")
	for _, k := range rest {
		write(k)
	}
	return sb.String()
}

// SideFormula sums the formulas of the given fragments.  Fragments that fail
// to parse contribute an error.
func SideFormula(fragments []string) (Formula, error) {
	total := Formula{}
	for _, frag := range fragments {
		m, err := ParseMolecule(frag)
		if err != nil {
			return nil, err
		}
		total.Add(m.Formula())
	}
	return total, nil
}

// SideCharge sums the net charges of the given fragments.
func SideCharge(fragments []string) (int, error) {
	total := 0
	for _, frag := range fragments {
		m, err := ParseMolecule(frag)
		if err != nil {
			return 0, err
		}
		total += m.NetCharge()
	}
	return total, nil
}

// BondCountsEqual reports whether two bond multisets are identical.
func BondCountsEqual(a, b map[BondKey]int) bool {
	for k, v := range a {
		if v != 0 && b[k] != v {
			return false
		}
	}
	for k, v := range b {
		if v != 0 && a[k] != v {
			return false
		}
	}
	return true
}

// BondEditDistance is the size of the symmetric difference between two bond
// multisets.  It is a cheap, mapping-free proxy for the number of bonds
// broken plus bonds formed between two states of a reaction.
func BondEditDistance(a, b map[BondKey]int) int {
	d := 0
	for k, va := range a {
		if vb := b[k]; va > vb {
			d += va - vb
		}
	}
	for k, vb := range b {
		if va := a[k]; vb > va {
			d += vb - va
		}
	}
	return d
}

// SideBondCounts sums the bond multisets of the given fragments.
func SideBondCounts(fragments []string) (map[BondKey]int, error) {
	total := map[BondKey]int{}
	for _, frag := range fragments {
		m, err := ParseMolecule(frag)
		if err != nil {
			return nil, err
		}
		for k, v := range m.BondCounts() {
			total[k] += v
		}
	}
	return total, nil
}
