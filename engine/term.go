package engine

import (
	"fmt"
	"strings"
)

// Term is a prolog term.
//
// Every variant except *Variable is immutable once constructed. Unify may leave
// partial bindings behind on failure; callers undo them with Backtrack.
type Term interface {
	fmt.Stringer
	Type() TermType
	Unify(Term) bool
	Backtrack()
	Copy(map[*Variable]*Variable) Term
	IsImmutable() bool
}

// TermType identifies the variant of a Term.
type TermType uint8

// Term types.
const (
	TypeAtom TermType = iota
	TypeInteger
	TypeFraction
	TypeVariable
	TypeStructure
	TypeList
	TypeEmptyList
)

func (t TermType) String() string {
	return [...]string{
		TypeAtom:      "ATOM",
		TypeInteger:   "INTEGER",
		TypeFraction:  "FRACTION",
		TypeVariable:  "VARIABLE",
		TypeStructure: "STRUCTURE",
		TypeList:      "LIST",
		TypeEmptyList: "EMPTY_LIST",
	}[t]
}

// Resolve follows the chain of variable bindings from t and returns either a
// non-variable term or the last unbound variable of the chain.
func Resolve(t Term) Term {
	for {
		v, ok := t.(*Variable)
		if !ok || v.ref == nil {
			return t
		}
		t = v.ref
	}
}

// Simplify returns t with every bound variable replaced by its value.
// Terms without bound variables are returned as is.
func Simplify(t Term) Term {
	switch t := Resolve(t).(type) {
	case *Compound:
		if t.ground {
			return t
		}
		return t.transform(Simplify)
	default:
		return t
	}
}

// Unify binds unbound variables in x and y so that they become equal.
// When both sides are unbound variables, the younger one is bound to the older one.
// Bindings made before a mismatch is found are left in place.
func Unify(x, y Term) bool {
	for {
		x, y = Resolve(x), Resolve(y)
		if v, ok := x.(*Variable); ok {
			v.bind(y)
			return true
		}
		if v, ok := y.(*Variable); ok {
			v.bind(x)
			return true
		}
		c, ok := x.(*Compound)
		if !ok {
			return x == y
		}
		d, ok := y.(*Compound)
		if !ok || c.Functor != d.Functor || len(c.Args) != len(d.Args) {
			return false
		}
		if c == d || len(c.Args) == 0 {
			return true
		}
		last := len(c.Args) - 1
		for i := 0; i < last; i++ {
			if !Unify(c.Args[i], d.Args[i]) {
				return false
			}
		}
		x, y = c.Args[last], d.Args[last]
	}
}

// StrictEquality checks if x and y are the same term, looking through bound
// variables. Distinct unbound variables are never strictly equal.
func StrictEquality(x, y Term) bool {
	type pair struct {
		x, y Term
	}
	stack := []pair{{x: x, y: y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := Resolve(p.x), Resolve(p.y)
		if x == y {
			continue
		}
		c, ok := x.(*Compound)
		if !ok {
			return false
		}
		d, ok := y.(*Compound)
		if !ok || c.Functor != d.Functor || len(c.Args) != len(d.Args) {
			return false
		}
		for i := range c.Args {
			stack = append(stack, pair{x: c.Args[i], y: d.Args[i]})
		}
	}
	return true
}

func isImmutable(t Term) bool {
	stack := []Term{t}
	for len(stack) > 0 {
		t, stack = Resolve(stack[len(stack)-1]), stack[:len(stack)-1]
		switch t := t.(type) {
		case *Variable:
			return false
		case *Compound:
			if !t.ground {
				stack = append(stack, t.Args...)
			}
		}
	}
	return true
}

// backtrackAll undoes the bindings of every term in ts.
func backtrackAll(ts []Term) {
	for _, t := range ts {
		t.Backtrack()
	}
}

// simplifyAll returns a fresh slice of the simplified terms of ts.
func simplifyAll(ts []Term) []Term {
	ret := make([]Term, len(ts))
	for i, t := range ts {
		ret[i] = Simplify(t)
	}
	return ret
}

// argsOf returns the arguments of a callable term. Atoms have none.
func argsOf(t Term) []Term {
	if c, ok := t.(*Compound); ok {
		return c.Args
	}
	return nil
}

// Text returns the unquoted representation of t, as write/1 prints it.
func Text(t Term) string {
	var sb strings.Builder
	writeTerm(&sb, t, false)
	return sb.String()
}

func writeTerm(sb *strings.Builder, t Term, quoted bool) {
	switch t := Resolve(t).(type) {
	case Atom:
		if quoted {
			sb.WriteString(t.quote())
			return
		}
		sb.WriteString(string(t))
	case *Compound:
		t.write(sb, quoted)
	default:
		sb.WriteString(t.String())
	}
}
