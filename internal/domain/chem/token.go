// Package chem implements the structure model of the curation pipeline: a
// line-notation parser for molecular graphs, elemental formulas, bond
// multisets, and atom-map emission.  The model is deliberately self-contained
// and deterministic; it covers the subset of the notation that curated enzyme
// databases use.
package chem

import (
	"fmt"
	"strings"

	"github.com/turtacn/enzymemap/pkg/errors"
)

// TokenKind discriminates the token variants produced by tokenize.
type TokenKind int

const (
	// TokAtom is an atom, bracketed or organic-subset.
	TokAtom TokenKind = iota
	// TokBond is an explicit bond symbol.
	TokBond
	// TokRing is a ring-closure digit.
	TokRing
	// TokBranchOpen is "(".
	TokBranchOpen
	// TokBranchClose is ")".
	TokBranchClose
)

// Token is one lexical unit of a structure string.
type Token struct {
	Kind TokenKind
	// Text is the original spelling, used to re-emit non-atom tokens.
	Text string
	// Atom is populated when Kind is TokAtom.
	Atom *Atom
	// Ring is the ring-closure number when Kind is TokRing.
	Ring int
}

// Atom is a parsed atom with its bracket attributes.
type Atom struct {
	// Element is the capitalised element symbol ("C", "Cl", "H").
	Element string
	// Aromatic records lowercase (aromatic) spelling.
	Aromatic bool
	// Isotope is the leading mass number inside a bracket, 0 when absent.
	Isotope int
	// HCount is the explicit hydrogen count from a bracket atom.
	HCount int
	// Charge is the formal charge.
	Charge int
	// Chiral is the chirality tag inside a bracket: "", "@" or "@@".
	Chiral string
	// MapNum is the atom-map number, 0 when unmapped.
	MapNum int
	// Bracket records whether the atom was written in brackets.  Bracket
	// atoms carry no implicit hydrogens; their HCount is authoritative.
	Bracket bool
}

// organicSubset lists the elements that may be written without brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true,
	"S": true, "F": true, "Cl": true, "Br": true, "I": true,
}

// aromaticSubset lists the lowercase aromatic spellings allowed outside
// brackets.
var aromaticSubset = map[byte]bool{
	'b': true, 'c': true, 'n': true, 'o': true, 'p': true, 's': true,
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

// tokenize splits a single-fragment structure string into tokens.  Fragment
// separators (".") are rejected here; callers split fragments first.
func tokenize(s string) ([]Token, error) {
	if s == "" {
		return nil, errors.New(errors.ErrCodeStructureEmpty, "empty structure string")
	}

	var tokens []Token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, errors.New(errors.ErrCodeBracketUnbalanced, "unclosed bracket atom").
					WithDetail(s)
			}
			atom, err := parseBracketAtom(s[i+1 : i+end])
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Kind: TokAtom, Text: s[i : i+end+1], Atom: atom})
			i += end + 1

		case c == ']':
			return nil, errors.New(errors.ErrCodeBracketUnbalanced, "unmatched closing bracket").
				WithDetail(s)

		case c == '(':
			tokens = append(tokens, Token{Kind: TokBranchOpen, Text: "("})
			i++

		case c == ')':
			tokens = append(tokens, Token{Kind: TokBranchClose, Text: ")"})
			i++

		case c == '-' || c == '=' || c == '#' || c == ':':
			tokens = append(tokens, Token{Kind: TokBond, Text: string(c)})
			i++

		case c == '/' || c == '\\':
			// Directional bonds collapse to single; stereo across double
			// bonds is not modelled.
			tokens = append(tokens, Token{Kind: TokBond, Text: "-"})
			i++

		case isDigit(c):
			tokens = append(tokens, Token{Kind: TokRing, Text: string(c), Ring: int(c - '0')})
			i++

		case c == '%':
			if i+2 >= len(s) || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
				return nil, errors.New(errors.ErrCodeStructureInvalid, "malformed two-digit ring closure").
					WithDetail(s)
			}
			n := int(s[i+1]-'0')*10 + int(s[i+2]-'0')
			tokens = append(tokens, Token{Kind: TokRing, Text: s[i : i+3], Ring: n})
			i += 3

		case c == '*':
			tokens = append(tokens, Token{Kind: TokAtom, Text: "*", Atom: &Atom{Element: "*"}})
			i++

		case isUpper(c):
			elem := string(c)
			if i+1 < len(s) && isLower(s[i+1]) && organicSubset[elem+string(s[i+1])] {
				elem += string(s[i+1])
			}
			if !organicSubset[elem] {
				return nil, errors.New(errors.ErrCodeUnknownElement, "element requires brackets").
					WithDetail(fmt.Sprintf("%s in %s", elem, s))
			}
			tokens = append(tokens, Token{Kind: TokAtom, Text: elem, Atom: &Atom{Element: elem}})
			i += len(elem)

		case isLower(c):
			if !aromaticSubset[c] {
				return nil, errors.New(errors.ErrCodeUnknownElement, "unknown aromatic symbol").
					WithDetail(fmt.Sprintf("%c in %s", c, s))
			}
			tokens = append(tokens, Token{Kind: TokAtom, Text: string(c), Atom: &Atom{
				Element:  strings.ToUpper(string(c)),
				Aromatic: true,
			}})
			i++

		case c == '.':
			return nil, errors.New(errors.ErrCodeStructureInvalid, "fragment separator inside single fragment").
				WithDetail(s)

		default:
			return nil, errors.New(errors.ErrCodeStructureInvalid, "unexpected character").
				WithDetail(fmt.Sprintf("%q in %s", c, s))
		}
	}
	return tokens, nil
}

// parseBracketAtom parses the interior of a bracket atom, i.e. the text
// between "[" and "]": [isotope]symbol[chiral][H count][charge][:map].
func parseBracketAtom(body string) (*Atom, error) {
	if body == "" {
		return nil, errors.New(errors.ErrCodeStructureInvalid, "empty bracket atom")
	}
	atom := &Atom{Bracket: true}
	i := 0

	for i < len(body) && isDigit(body[i]) {
		atom.Isotope = atom.Isotope*10 + int(body[i]-'0')
		i++
	}

	switch {
	case i < len(body) && body[i] == '*':
		atom.Element = "*"
		i++
	case i < len(body) && isUpper(body[i]):
		atom.Element = string(body[i])
		i++
		if i < len(body) && isLower(body[i]) && body[i] != 'h' {
			atom.Element += string(body[i])
			i++
		}
	case i < len(body) && isLower(body[i]):
		if !aromaticSubset[body[i]] {
			return nil, errors.New(errors.ErrCodeUnknownElement, "unknown aromatic symbol in bracket").
				WithDetail(body)
		}
		atom.Element = strings.ToUpper(string(body[i]))
		atom.Aromatic = true
		i++
	default:
		return nil, errors.New(errors.ErrCodeStructureInvalid, "bracket atom missing element").
			WithDetail(body)
	}

	if i < len(body) && body[i] == '@' {
		atom.Chiral = "@"
		i++
		if i < len(body) && body[i] == '@' {
			atom.Chiral = "@@"
			i++
		}
	}

	if i < len(body) && body[i] == 'H' {
		i++
		atom.HCount = 1
		if i < len(body) && isDigit(body[i]) {
			atom.HCount = 0
			for i < len(body) && isDigit(body[i]) {
				atom.HCount = atom.HCount*10 + int(body[i]-'0')
				i++
			}
		}
	}

	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		symbol := body[i]
		i++
		if i < len(body) && isDigit(body[i]) {
			n := 0
			for i < len(body) && isDigit(body[i]) {
				n = n*10 + int(body[i]-'0')
				i++
			}
			atom.Charge = sign * n
		} else {
			atom.Charge = sign
			for i < len(body) && body[i] == symbol {
				atom.Charge += sign
				i++
			}
		}
	}

	if i < len(body) && body[i] == ':' {
		i++
		if i >= len(body) || !isDigit(body[i]) {
			return nil, errors.New(errors.ErrCodeStructureInvalid, "bracket atom has empty map number").
				WithDetail(body)
		}
		for i < len(body) && isDigit(body[i]) {
			atom.MapNum = atom.MapNum*10 + int(body[i]-'0')
			i++
		}
	}

	if i != len(body) {
		return nil, errors.New(errors.ErrCodeStructureInvalid, "trailing characters in bracket atom").
			WithDetail(body)
	}
	return atom, nil
}

// bracketString renders an atom in bracket form, optionally overriding its
// map number.  mapNum <= 0 keeps the atom's own MapNum.
func (a *Atom) bracketString(mapNum int) string {
	var sb strings.Builder
	sb.WriteByte('[')
	if a.Isotope > 0 {
		fmt.Fprintf(&sb, "%d", a.Isotope)
	}
	sym := a.Element
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}
	sb.WriteString(sym)
	sb.WriteString(a.Chiral)
	switch {
	case a.HCount == 1:
		sb.WriteByte('H')
	case a.HCount > 1:
		fmt.Fprintf(&sb, "H%d", a.HCount)
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge > 1:
		fmt.Fprintf(&sb, "+%d", a.Charge)
	case a.Charge < -1:
		fmt.Fprintf(&sb, "-%d", -a.Charge)
	}
	if mapNum <= 0 {
		mapNum = a.MapNum
	}
	if mapNum > 0 {
		fmt.Fprintf(&sb, ":%d", mapNum)
	}
	sb.WriteByte(']')
	return sb.String()
}
