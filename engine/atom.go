package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Atom is a prolog atom.
type Atom string

const (
	atomTrue       = Atom("true")
	atomFail       = Atom("fail")
	atomFalse      = Atom("false")
	atomCut        = Atom("!")
	atomComma      = Atom(",")
	atomSemicolon  = Atom(";")
	atomIf         = Atom(":-")
	atomThen       = Atom("->")
	atomArrow      = Atom("-->")
	atomDot        = Atom(".")
	atomEmptyBlock = Atom("{}")
	atomEqual      = Atom("=")
	atomSlash      = Atom("/")
	atomCall       = Atom("call")
	atomPhrase     = Atom("phrase")
	atomNegation   = Atom(`\+`)
	atomBar        = Atom("|")
)

// Apply returns a compound with the atom as its functor, or the atom itself when
// no arguments are given.
func (a Atom) Apply(args ...Term) Term {
	if len(args) == 0 {
		return a
	}
	return NewCompound(a, args...)
}

func (a Atom) String() string {
	return a.quote()
}

// Type returns ATOM.
func (a Atom) Type() TermType {
	return TypeAtom
}

// Unify unifies the atom with t.
func (a Atom) Unify(t Term) bool {
	return Unify(a, t)
}

// Backtrack does nothing.
func (a Atom) Backtrack() {}

// Copy returns the atom itself.
func (a Atom) Copy(map[*Variable]*Variable) Term {
	return a
}

// IsImmutable returns true.
func (a Atom) IsImmutable() bool {
	return true
}

func (a Atom) quote() string {
	if !a.needsQuote() {
		return string(a)
	}
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range string(a) {
		switch r {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

func (a Atom) needsQuote() bool {
	switch a {
	case "", ",", "|":
		return true
	case "[]", "{}", "!", ";":
		return false
	}
	r, _ := utf8.DecodeRuneInString(string(a))
	switch {
	case unicode.IsLower(r):
		for _, r := range string(a) {
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return true
			}
		}
		return false
	case isGraphic(r):
		for _, r := range string(a) {
			if !isGraphic(r) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func isGraphic(r rune) bool {
	return strings.ContainsRune("#$&*+-./:<=>?@^~\\", r)
}
