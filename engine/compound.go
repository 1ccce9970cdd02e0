package engine

import "strings"

// Compound is a prolog structure. A compound with functor . and two arguments is a list cell.
type Compound struct {
	Functor Atom
	Args    []Term

	// ground is set when no argument contained a variable at construction time.
	ground bool
}

// NewCompound creates a compound from a functor and its arguments.
func NewCompound(functor Atom, args ...Term) *Compound {
	c := Compound{Functor: functor, Args: args, ground: true}
	for _, a := range args {
		if !isGround(a) {
			c.ground = false
			break
		}
	}
	return &c
}

func isGround(t Term) bool {
	switch t := t.(type) {
	case *Variable:
		return false
	case *Compound:
		return t.ground
	default:
		return true
	}
}

// Key returns the name/arity of the compound.
func (c *Compound) Key() PredicateKey {
	return PredicateKey{Name: c.Functor, Arity: len(c.Args)}
}

func (c *Compound) isList() bool {
	return c.Functor == atomDot && len(c.Args) == 2
}

func (c *Compound) String() string {
	var sb strings.Builder
	c.write(&sb, true)
	return sb.String()
}

// Type returns LIST for list cells, STRUCTURE otherwise.
func (c *Compound) Type() TermType {
	if c.isList() {
		return TypeList
	}
	return TypeStructure
}

// Unify unifies the compound with t.
func (c *Compound) Unify(t Term) bool {
	return Unify(c, t)
}

// Backtrack undoes the bindings of the variables directly contained in the compound.
func (c *Compound) Backtrack() {
	for d := c; !d.ground && len(d.Args) > 0; {
		last := len(d.Args) - 1
		for _, a := range d.Args[:last] {
			a.Backtrack()
		}
		next, ok := d.Args[last].(*Compound)
		if !ok {
			d.Args[last].Backtrack()
			return
		}
		d = next
	}
}

// Copy returns a copy of the compound with fresh variables. Ground compounds are returned as is.
func (c *Compound) Copy(m map[*Variable]*Variable) Term {
	if c.ground {
		return c
	}
	return c.transform(func(t Term) Term {
		return t.Copy(m)
	})
}

// IsImmutable checks if the compound contains no unbound variables.
func (c *Compound) IsImmutable() bool {
	return c.ground || isImmutable(c)
}

// transform rebuilds the compound with f applied to every argument. List spines are
// walked iteratively. The compound itself is returned if f changes nothing.
func (c *Compound) transform(f func(Term) Term) Term {
	if !c.isList() {
		var args []Term
		for i, a := range c.Args {
			b := f(a)
			if b == a {
				continue
			}
			if args == nil {
				args = make([]Term, len(c.Args))
				copy(args, c.Args)
			}
			args[i] = b
		}
		if args == nil {
			return c
		}
		return NewCompound(c.Functor, args...)
	}

	var spine []*Compound
	var t Term = c
	for {
		d, ok := t.(*Compound)
		if !ok || d.ground || !d.isList() {
			break
		}
		spine = append(spine, d)
		t = Resolve(d.Args[1])
	}
	rest := f(t)
	for i := len(spine) - 1; i >= 0; i-- {
		d := spine[i]
		h := f(d.Args[0])
		if h == d.Args[0] && rest == d.Args[1] {
			rest = d
			continue
		}
		rest = NewCompound(atomDot, h, rest)
	}
	return rest
}

func (c *Compound) write(sb *strings.Builder, quoted bool) {
	switch {
	case c.isList():
		sb.WriteByte('[')
		writeTerm(sb, c.Args[0], quoted)
		t := Resolve(c.Args[1])
		for {
			d, ok := t.(*Compound)
			if !ok || !d.isList() {
				break
			}
			sb.WriteByte(',')
			writeTerm(sb, d.Args[0], quoted)
			t = Resolve(d.Args[1])
		}
		if t != EmptyList {
			sb.WriteByte('|')
			writeTerm(sb, t, quoted)
		}
		sb.WriteByte(']')
	case c.Functor == atomEmptyBlock && len(c.Args) == 1:
		sb.WriteByte('{')
		writeTerm(sb, c.Args[0], quoted)
		sb.WriteByte('}')
	default:
		if quoted {
			sb.WriteString(c.Functor.quote())
		} else {
			sb.WriteString(string(c.Functor))
		}
		sb.WriteByte('(')
		for i, a := range c.Args {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeTerm(sb, a, quoted)
		}
		sb.WriteByte(')')
	}
}
