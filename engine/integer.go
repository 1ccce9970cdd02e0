package engine

import "strconv"

// Integer is a prolog integer.
type Integer int64

const (
	smallIntegerMin = -128
	smallIntegerMax = 127
)

var smallIntegers = func() [smallIntegerMax - smallIntegerMin + 1]Term {
	var ret [smallIntegerMax - smallIntegerMin + 1]Term
	for i := range ret {
		ret[i] = Integer(i + smallIntegerMin)
	}
	return ret
}()

// NewInteger returns n as a Term. Values in -128..127 are served from a table of
// preallocated terms so that boxing them does not allocate.
func NewInteger(n int64) Term {
	if n >= smallIntegerMin && n <= smallIntegerMax {
		return smallIntegers[n-smallIntegerMin]
	}
	return Integer(n)
}

func (i Integer) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// Type returns INTEGER.
func (i Integer) Type() TermType {
	return TypeInteger
}

// Unify unifies the integer with t.
func (i Integer) Unify(t Term) bool {
	return Unify(i, t)
}

// Backtrack does nothing.
func (i Integer) Backtrack() {}

// Copy returns the integer itself.
func (i Integer) Copy(map[*Variable]*Variable) Term {
	return i
}

// IsImmutable returns true.
func (i Integer) IsImmutable() bool {
	return true
}
