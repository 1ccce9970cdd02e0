package engine

import (
	"strconv"
	"strings"
)

// Float is a prolog floating-point number.
type Float float64

func (f Float) String() string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

// Type returns FRACTION.
func (f Float) Type() TermType {
	return TypeFraction
}

// Unify unifies the float with t.
func (f Float) Unify(t Term) bool {
	return Unify(f, t)
}

// Backtrack does nothing.
func (f Float) Backtrack() {}

// Copy returns the float itself.
func (f Float) Copy(map[*Variable]*Variable) Term {
	return f
}

// IsImmutable returns true.
func (f Float) IsImmutable() bool {
	return true
}
