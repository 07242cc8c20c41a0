package chem

import (
	"strings"

	"github.com/turtacn/enzymemap/pkg/errors"
)

// BondOrder is the normalized bond symbol: "-", "=", "#" or ":".
type BondOrder string

const (
	BondSingle   BondOrder = "-"
	BondDouble   BondOrder = "="
	BondTriple   BondOrder = "#"
	BondAromatic BondOrder = ":"
)

// Bond is an edge between two atoms, identified by their indices in
// Molecule.Atoms.
type Bond struct {
	A, B  int
	Order BondOrder
}

// Molecule is a parsed single-fragment structure.  Atoms appear in the order
// they were written; Tokens preserves the original spelling so the molecule
// can be re-emitted with atom-map numbers attached.
type Molecule struct {
	Raw    string
	Tokens []Token
	Atoms  []*Atom
	Bonds  []Bond
}

// ring closures pair the first and second occurrence of a digit.
type ringOpen struct {
	atom  int
	order BondOrder
	seen  bool
}

// ParseMolecule parses a single fragment.  The input must not contain the
// "." fragment separator; callers split reaction sides into fragments first.
func ParseMolecule(s string) (*Molecule, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}

	m := &Molecule{Raw: s, Tokens: tokens}

	var (
		stack     []int // branch return points
		prev      = -1  // index of the atom a new bond attaches to
		pending   BondOrder
		hasBond   bool
		ringOpens = map[int]*ringOpen{}
	)

	bondOrder := func(a, b int) BondOrder {
		if hasBond {
			o := pending
			pending, hasBond = "", false
			return o
		}
		if m.Atoms[a].Aromatic && m.Atoms[b].Aromatic {
			return BondAromatic
		}
		return BondSingle
	}

	for ti := range tokens {
		tok := &tokens[ti]
		switch tok.Kind {
		case TokAtom:
			idx := len(m.Atoms)
			m.Atoms = append(m.Atoms, tok.Atom)
			if prev >= 0 {
				m.Bonds = append(m.Bonds, Bond{A: prev, B: idx, Order: bondOrder(prev, idx)})
			} else {
				pending, hasBond = "", false
			}
			prev = idx

		case TokBond:
			pending, hasBond = BondOrder(tok.Text), true

		case TokRing:
			if prev < 0 {
				return nil, errors.New(errors.ErrCodeStructureInvalid, "ring closure before any atom").
					WithDetail(s)
			}
			if open, ok := ringOpens[tok.Ring]; ok && !open.seen {
				open.seen = true
				order := open.order
				if hasBond {
					order = pending
					pending, hasBond = "", false
				}
				if order == "" {
					if m.Atoms[open.atom].Aromatic && m.Atoms[prev].Aromatic {
						order = BondAromatic
					} else {
						order = BondSingle
					}
				}
				m.Bonds = append(m.Bonds, Bond{A: open.atom, B: prev, Order: order})
				delete(ringOpens, tok.Ring)
			} else {
				open := &ringOpen{atom: prev}
				if hasBond {
					open.order = pending
					pending, hasBond = "", false
				}
				ringOpens[tok.Ring] = open
			}

		case TokBranchOpen:
			if prev < 0 {
				return nil, errors.New(errors.ErrCodeStructureInvalid, "branch before any atom").
					WithDetail(s)
			}
			stack = append(stack, prev)

		case TokBranchClose:
			if len(stack) == 0 {
				return nil, errors.New(errors.ErrCodeStructureInvalid, "unmatched closing parenthesis").
					WithDetail(s)
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) != 0 {
		return nil, errors.New(errors.ErrCodeStructureInvalid, "unmatched opening parenthesis").
			WithDetail(s)
	}
	if len(ringOpens) != 0 {
		return nil, errors.New(errors.ErrCodeRingBondUnmatched, "unmatched ring-closure digit").
			WithDetail(s)
	}
	if len(m.Atoms) == 0 {
		return nil, errors.New(errors.ErrCodeStructureInvalid, "structure contains no atoms").
			WithDetail(s)
	}
	return m, nil
}

// NumAtoms returns the number of atoms, including explicit [H] atoms.
func (m *Molecule) NumAtoms() int { return len(m.Atoms) }

// NumHeavyAtoms returns the number of non-hydrogen atoms.
func (m *Molecule) NumHeavyAtoms() int {
	n := 0
	for _, a := range m.Atoms {
		if a.Element != "H" {
			n++
		}
	}
	return n
}

// NetCharge sums the formal charges of all atoms.
func (m *Molecule) NetCharge() int {
	c := 0
	for _, a := range m.Atoms {
		c += a.Charge
	}
	return c
}

// Formula counts atoms by element.  Hydrogens are counted only where written:
// bracket HCount plus explicit [H] atoms.  No implicit-hydrogen inference is
// performed, so formulas are comparable exactly when both sides are written
// at the same level of explicitness, which curated database exports are.
func (m *Molecule) Formula() Formula {
	f := Formula{}
	for _, a := range m.Atoms {
		if a.Element == "*" {
			continue
		}
		f[a.Element]++
		if a.HCount > 0 {
			f["H"] += a.HCount
		}
	}
	return f
}

// BondKey identifies a bond class by its element pair and order, with the
// elements sorted so that C=O and O=C count as the same class.
type BondKey struct {
	ElemLow  string
	Order    BondOrder
	ElemHigh string
}

// BondCounts returns the multiset of bond classes as a count map.
func (m *Molecule) BondCounts() map[BondKey]int {
	counts := map[BondKey]int{}
	for _, b := range m.Bonds {
		ea, eb := m.Atoms[b.A].Element, m.Atoms[b.B].Element
		if ea > eb {
			ea, eb = eb, ea
		}
		counts[BondKey{ElemLow: ea, Order: b.Order, ElemHigh: eb}]++
	}
	return counts
}

// HeavyBondCounts returns BondCounts restricted to bonds between two
// non-hydrogen atoms.  Two structures with equal heavy formulas and equal
// heavy bond multisets share a skeleton and differ at most in hydrogenation.
func (m *Molecule) HeavyBondCounts() map[BondKey]int {
	counts := map[BondKey]int{}
	for _, b := range m.Bonds {
		ea, eb := m.Atoms[b.A].Element, m.Atoms[b.B].Element
		if ea == "H" || eb == "H" {
			continue
		}
		if ea > eb {
			ea, eb = eb, ea
		}
		counts[BondKey{ElemLow: ea, Order: b.Order, ElemHigh: eb}]++
	}
	return counts
}

// String re-emits the molecule from its tokens, preserving the original
// spelling including any map numbers.
func (m *Molecule) String() string {
	var sb strings.Builder
	for _, tok := range m.Tokens {
		sb.WriteString(tok.Text)
	}
	return sb.String()
}

// MappedString re-emits the molecule with every atom written in bracket form
// carrying the map number nums[i] for atom i.  len(nums) must equal
// NumAtoms(); entries <= 0 leave the atom's own map number in place.
func (m *Molecule) MappedString(nums []int) string {
	var sb strings.Builder
	ai := 0
	for _, tok := range m.Tokens {
		if tok.Kind == TokAtom {
			n := 0
			if ai < len(nums) {
				n = nums[ai]
			}
			sb.WriteString(tok.Atom.bracketString(n))
			ai++
		} else {
			sb.WriteString(tok.Text)
		}
	}
	return sb.String()
}

// UnmappedString re-emits the molecule with all map numbers removed, leaving
// every other attribute intact.
func (m *Molecule) UnmappedString() string {
	var sb strings.Builder
	for _, tok := range m.Tokens {
		if tok.Kind == TokAtom && tok.Atom.MapNum > 0 {
			saved := tok.Atom.MapNum
			tok.Atom.MapNum = 0
			sb.WriteString(tok.Atom.bracketString(0))
			tok.Atom.MapNum = saved
		} else {
			sb.WriteString(tok.Text)
		}
	}
	return sb.String()
}

// IsHydrogenOnly reports whether every atom in the fragment is hydrogen, as
// in [H+] or [H][H].
func (m *Molecule) IsHydrogenOnly() bool {
	for _, a := range m.Atoms {
		if a.Element != "H" {
			return false
		}
	}
	return true
}
