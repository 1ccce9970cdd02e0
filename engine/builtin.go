package engine

import (
	"fmt"
	"io"
)

// Unification succeeds if the two arguments unify. It is =/2.
func Unification(args []Term) (bool, error) {
	return args[0].Unify(args[1]), nil
}

// NotUnifiable succeeds if the two arguments don't unify. It is \=/2.
func NotUnifiable(args []Term) (bool, error) {
	x, y := Simplify(args[0]), Simplify(args[1])
	ok := x.Unify(y)
	x.Backtrack()
	y.Backtrack()
	return !ok, nil
}

// Identical is ==/2.
func Identical(args []Term) (bool, error) {
	return StrictEquality(args[0], args[1]), nil
}

// NotIdentical is \==/2.
func NotIdentical(args []Term) (bool, error) {
	return !StrictEquality(args[0], args[1]), nil
}

func typeCheck(ok func(Term) bool) Deterministic {
	return func(args []Term) (bool, error) {
		return ok(Resolve(args[0])), nil
	}
}

// Type checks.
var (
	IsVar = typeCheck(func(t Term) bool {
		_, ok := t.(*Variable)
		return ok
	})
	IsNonVar = typeCheck(func(t Term) bool {
		_, ok := t.(*Variable)
		return !ok
	})
	IsAtom = typeCheck(func(t Term) bool {
		switch t.(type) {
		case Atom, emptyList:
			return true
		default:
			return false
		}
	})
	IsNumber = typeCheck(func(t Term) bool {
		_, ok := t.(Number)
		return ok
	})
	IsInteger = typeCheck(func(t Term) bool {
		_, ok := t.(Integer)
		return ok
	})
	IsFloat = typeCheck(func(t Term) bool {
		_, ok := t.(Float)
		return ok
	})
	IsAtomic = typeCheck(func(t Term) bool {
		switch t.(type) {
		case Atom, emptyList, Integer, Float:
			return true
		default:
			return false
		}
	})
	IsCompound = typeCheck(func(t Term) bool {
		_, ok := t.(*Compound)
		return ok
	})
	IsList = typeCheck(func(t Term) bool {
		_, err := Slice(t)
		return err == nil
	})
)

// Functor is functor/3. It either decomposes a term into its name and arity or
// builds a term with fresh arguments from them.
func Functor(args []Term) (bool, error) {
	switch t := Resolve(args[0]).(type) {
	case *Variable:
		name, arity := Resolve(args[1]), Resolve(args[2])
		if _, ok := name.(*Variable); ok {
			return false, InstantiationError(name)
		}
		n, ok := arity.(Integer)
		if !ok {
			if _, ok := arity.(*Variable); ok {
				return false, InstantiationError(arity)
			}
			return false, TypeError("an integer", arity)
		}
		if n == 0 {
			return t.Unify(name), nil
		}
		a, ok := name.(Atom)
		if !ok {
			return false, TypeError("an atom", name)
		}
		vars := make([]Term, n)
		for i := range vars {
			vars[i] = NewVariable("")
		}
		return t.Unify(a.Apply(vars...)), nil
	case *Compound:
		return args[1].Unify(t.Functor) && args[2].Unify(NewInteger(int64(len(t.Args)))), nil
	default:
		return args[1].Unify(t) && args[2].Unify(NewInteger(0)), nil
	}
}

// Arg is arg/3. It unifies the third argument with the nth argument of a compound.
func Arg(args []Term) (bool, error) {
	n, ok := Resolve(args[0]).(Integer)
	if !ok {
		return false, TypeError("an integer", args[0])
	}
	c, ok := Resolve(args[1]).(*Compound)
	if !ok {
		return false, TypeError("a compound", args[1])
	}
	if n < 1 || int(n) > len(c.Args) {
		return false, nil
	}
	return args[2].Unify(c.Args[n-1]), nil
}

// Univ is =../2. It converts between a term and the list of its name and arguments.
func Univ(args []Term) (bool, error) {
	switch t := Resolve(args[0]).(type) {
	case *Variable:
		elems, err := Slice(args[1])
		if err != nil {
			return false, err
		}
		if len(elems) == 0 {
			return false, TypeError("a non-empty list", args[1])
		}
		name := Resolve(elems[0])
		if len(elems) == 1 {
			return t.Unify(name), nil
		}
		a, ok := name.(Atom)
		if !ok {
			return false, TypeError("an atom", name)
		}
		return t.Unify(a.Apply(elems[1:]...)), nil
	case *Compound:
		return args[1].Unify(Cons(t.Functor, List(t.Args...))), nil
	default:
		return args[1].Unify(List(t)), nil
	}
}

// CopyTerm is copy_term/2.
func CopyTerm(args []Term) (bool, error) {
	return args[1].Unify(Simplify(args[0]).Copy(map[*Variable]*Variable{})), nil
}

// Length is length/2. With a partial list and no length it enumerates lists of
// increasing length.
func Length(args []Term) Predicate {
	list, length := Simplify(args[0]), Simplify(args[1])
	n := 0
	rest := list
	for {
		c, ok := rest.(*Compound)
		if !ok || !c.isList() {
			break
		}
		n++
		rest = Resolve(c.Args[1])
	}

	switch r := rest.(type) {
	case emptyList:
		return Bool(length.Unify(NewInteger(int64(n))))
	case *Variable:
	default:
		return Error(TypeError("a list", r))
	}

	tail := rest.(*Variable)
	switch l := length.(type) {
	case Integer:
		if int(l) < n {
			return failed
		}
		return Bool(tail.Unify(freshList(int(l) - n)))
	case *Variable:
		extra := 0
		return &generator{next: func() (bool, error) {
			tail.Backtrack()
			l.Backtrack()
			ok := tail.Unify(freshList(extra)) && l.Unify(NewInteger(int64(n+extra)))
			extra++
			return ok, nil
		}}
	default:
		return Error(TypeError("an integer", length))
	}
}

func freshList(n int) Term {
	elems := make([]Term, n)
	for i := range elems {
		elems[i] = NewVariable("")
	}
	return List(elems...)
}

// Between is between/3. With an unbound third argument it enumerates the
// integers from the first argument to the second one.
func Between(args []Term) Predicate {
	low, ok := Resolve(args[0]).(Integer)
	if !ok {
		return Error(TypeError("an integer", args[0]))
	}
	high, ok := Resolve(args[1]).(Integer)
	if !ok {
		return Error(TypeError("an integer", args[1]))
	}
	switch x := Resolve(args[2]).(type) {
	case Integer:
		return Bool(low <= x && x <= high)
	case *Variable:
		i, done := low, low > high
		return &generator{next: func() (bool, error) {
			x.Backtrack()
			if done {
				return false, nil
			}
			x.Unify(NewInteger(int64(i)))
			if i == high {
				done = true
			} else {
				i++
			}
			return true, nil
		}}
	default:
		return Error(TypeError("an integer", x))
	}
}

// Write returns write/1 printing to w.
func Write(w io.Writer) Deterministic {
	return func(args []Term) (bool, error) {
		_, err := fmt.Fprint(w, Text(args[0]))
		return err == nil, err
	}
}

// Writeln returns writeln/1 printing to w.
func Writeln(w io.Writer) Deterministic {
	return func(args []Term) (bool, error) {
		_, err := fmt.Fprintln(w, Text(args[0]))
		return err == nil, err
	}
}

// Nl returns nl/0 printing to w.
func Nl(w io.Writer) Deterministic {
	return func([]Term) (bool, error) {
		_, err := fmt.Fprintln(w)
		return err == nil, err
	}
}
