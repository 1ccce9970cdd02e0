package engine

import (
	"fmt"
	"strings"
)

// Predicate is a resumable evaluation of a goal against one set of arguments.
//
// Evaluate attempts to find the next solution. A true result leaves the
// solution's bindings in place. Callers must only call Evaluate again while
// CouldReevaluationSucceed reports true.
type Predicate interface {
	Evaluate() (bool, error)
	CouldReevaluationSucceed() bool
}

type boolPredicate bool

var (
	succeeded Predicate = boolPredicate(true)
	failed    Predicate = boolPredicate(false)
)

// Bool returns a predicate that succeeds once if ok is true and fails otherwise.
func Bool(ok bool) Predicate {
	if ok {
		return succeeded
	}
	return failed
}

func (b boolPredicate) Evaluate() (bool, error) {
	return bool(b), nil
}

func (b boolPredicate) CouldReevaluationSucceed() bool {
	return false
}

type errorPredicate struct {
	err error
}

// Error returns a predicate that fails with err.
func Error(err error) Predicate {
	return errorPredicate{err: err}
}

func (e errorPredicate) Evaluate() (bool, error) {
	return false, e.err
}

func (e errorPredicate) CouldReevaluationSucceed() bool {
	return false
}

// PredicateFactory creates predicates for calls to one predicate key.
type PredicateFactory interface {
	GetPredicate(args []Term) Predicate
	IsRetryable() bool
}

// PreprocessablePredicateFactory is a factory that can specialize itself for the
// shape of a goal known before it is called.
type PreprocessablePredicateFactory interface {
	PredicateFactory
	Preprocess(goal Term) PredicateFactory
}

// KnowledgeBaseConsumer is a factory that needs the knowledge base it is registered to.
type KnowledgeBaseConsumer interface {
	SetKnowledgeBase(kb *KnowledgeBase)
}

type alwaysCutOnBacktrack interface {
	IsAlwaysCutOnBacktrack() bool
}

// IsAlwaysCutOnBacktrack checks if asking f's predicates for another solution
// always ends in a cut.
func IsAlwaysCutOnBacktrack(f PredicateFactory) bool {
	c, ok := f.(alwaysCutOnBacktrack)
	return ok && c.IsAlwaysCutOnBacktrack()
}

// PredicateKey identifies a predicate by its name and arity.
type PredicateKey struct {
	Name  Atom
	Arity int
}

func (k PredicateKey) String() string {
	return fmt.Sprintf("%s/%d", k.Name, k.Arity)
}

// Compare orders keys by name and then by arity.
func (k PredicateKey) Compare(o PredicateKey) int {
	if c := strings.Compare(string(k.Name), string(o.Name)); c != 0 {
		return c
	}
	switch {
	case k.Arity < o.Arity:
		return -1
	case k.Arity > o.Arity:
		return 1
	default:
		return 0
	}
}

// Term returns the name/arity indicator term of the key.
func (k PredicateKey) Term() Term {
	return atomSlash.Apply(k.Name, NewInteger(int64(k.Arity)))
}

// KeyOf returns the key of a callable term.
func KeyOf(t Term) (PredicateKey, error) {
	switch t := Resolve(t).(type) {
	case Atom:
		return PredicateKey{Name: t}, nil
	case *Compound:
		return t.Key(), nil
	default:
		return PredicateKey{}, TypeError("an atom or a predicate", t)
	}
}

// KeyOfIndicator returns the key a name/arity term designates.
func KeyOfIndicator(t Term) (PredicateKey, error) {
	c, ok := Resolve(t).(*Compound)
	if !ok || c.Functor != atomSlash || len(c.Args) != 2 {
		return PredicateKey{}, TypeError("a predicate indicator", t)
	}
	name, ok := Resolve(c.Args[0]).(Atom)
	if !ok {
		return PredicateKey{}, TypeError("an atom", c.Args[0])
	}
	arity, ok := Resolve(c.Args[1]).(Integer)
	if !ok || arity < 0 {
		return PredicateKey{}, TypeError("a non-negative integer", c.Args[1])
	}
	return PredicateKey{Name: name, Arity: int(arity)}, nil
}

// Deterministic is a factory for built-ins that yield at most one solution.
// The function is run as soon as the predicate is created.
type Deterministic func(args []Term) (bool, error)

// GetPredicate runs d against args.
func (d Deterministic) GetPredicate(args []Term) Predicate {
	ok, err := d(args)
	if err != nil {
		return Error(err)
	}
	return Bool(ok)
}

// IsRetryable returns false.
func (d Deterministic) IsRetryable() bool {
	return false
}

// Nondeterministic is a factory for built-ins that may yield more than one solution.
type Nondeterministic func(args []Term) Predicate

// GetPredicate calls n with args.
func (n Nondeterministic) GetPredicate(args []Term) Predicate {
	return n(args)
}

// IsRetryable returns true.
func (n Nondeterministic) IsRetryable() bool {
	return true
}

// generator adapts a function yielding successive solutions into a Predicate.
// next reports false once it has no more solutions.
type generator struct {
	next func() (bool, error)
	done bool
}

func (g *generator) Evaluate() (bool, error) {
	if g.done {
		return false, nil
	}
	ok, err := g.next()
	if !ok || err != nil {
		g.done = true
	}
	return ok, err
}

func (g *generator) CouldReevaluationSucceed() bool {
	return !g.done
}

type neverSucceeds struct{}

func (neverSucceeds) GetPredicate([]Term) Predicate {
	return failed
}

func (neverSucceeds) IsRetryable() bool {
	return false
}
