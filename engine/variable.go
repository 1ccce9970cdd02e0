package engine

import (
	"fmt"
	"sync/atomic"
)

var varCounter int64

// Variable is a prolog variable. It is a binding cell that is either unbound or
// refers to another term.
type Variable struct {
	Name string
	id   int64
	ref  Term
}

// NewVariable creates a new unbound variable.
func NewVariable(name string) *Variable {
	return &Variable{Name: name, id: atomic.AddInt64(&varCounter, 1)}
}

// IsAnonymous checks if v was written as _ in the source.
func (v *Variable) IsAnonymous() bool {
	return v.Name == "_"
}

// Bound returns the term v is bound to or nil if v is unbound.
func (v *Variable) Bound() Term {
	return v.ref
}

func (v *Variable) String() string {
	switch t := Resolve(v).(type) {
	case *Variable:
		if t.Name != "" && t.Name != "_" {
			return t.Name
		}
		return fmt.Sprintf("_G%d", t.id)
	default:
		return t.String()
	}
}

// Type returns VARIABLE while v is unbound, the type of its value otherwise.
func (v *Variable) Type() TermType {
	if t := Resolve(v); t != Term(v) {
		if _, ok := t.(*Variable); !ok {
			return t.Type()
		}
	}
	return TypeVariable
}

// Unify unifies v with t.
func (v *Variable) Unify(t Term) bool {
	return Unify(v, t)
}

// bind makes v refer to t. v must be unbound. If t is an unbound variable
// created after v, t is bound to v instead so that chains always point at
// older cells and never form a cycle.
func (v *Variable) bind(t Term) {
	if w, ok := t.(*Variable); ok {
		if w == v {
			return
		}
		if w.id > v.id {
			w.ref = v
			return
		}
	}
	v.ref = t
}

// Backtrack makes v unbound again. The term it was bound to is left untouched.
func (v *Variable) Backtrack() {
	v.ref = nil
}

// Copy returns a fresh variable for an unbound v, consistent within m, or a copy
// of the value v is bound to.
func (v *Variable) Copy(m map[*Variable]*Variable) Term {
	switch t := Resolve(v).(type) {
	case *Variable:
		if c, ok := m[t]; ok {
			return c
		}
		c := NewVariable("")
		if t.IsAnonymous() {
			c.Name = "_"
		}
		m[t] = c
		return c
	default:
		return t.Copy(m)
	}
}

// IsImmutable checks if v is bound to a term without unbound variables.
func (v *Variable) IsImmutable() bool {
	return isImmutable(v)
}
