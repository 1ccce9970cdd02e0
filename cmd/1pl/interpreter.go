package main

import (
	"io"
	"os"

	prolog "github.com/ichiban/resolve"
	"github.com/ichiban/resolve/engine"
)

// New creates a prolog.Interpreter with some helper predicates.
func New(w io.Writer, opts ...prolog.Option) *prolog.Interpreter {
	i := prolog.New(w, opts...)
	register := func(name engine.Atom, arity int, f engine.PredicateFactory) {
		if err := i.KB.AddPredicateFactory(engine.PredicateKey{Name: name, Arity: arity}, f); err != nil {
			panic(err)
		}
	}
	register("call_nth", 2, engine.Nondeterministic(func(args []engine.Term) engine.Predicate {
		return callNth(i.KB, args[0], args[1])
	}))
	register("version", 1, engine.Deterministic(func(args []engine.Term) (bool, error) {
		return args[0].Unify(engine.Atom(Version)), nil
	}))
	register("cd", 1, engine.Deterministic(func(args []engine.Term) (bool, error) {
		dir, ok := engine.Resolve(args[0]).(engine.Atom)
		if !ok {
			return false, engine.TypeError("an atom", args[0])
		}
		if err := os.Chdir(string(dir)); err != nil {
			return false, err
		}
		return true, nil
	}))
	return i
}

// callNth succeeds for the nth solutions of goal. An unbound nth enumerates them.
func callNth(kb *engine.KnowledgeBase, goal, nth engine.Term) engine.Predicate {
	nth = engine.Simplify(nth)
	var target int64
	switch n := nth.(type) {
	case *engine.Variable:
	case engine.Integer:
		if n < 0 {
			return engine.Error(engine.TypeError("a non-negative integer", n))
		}
		if n == 0 {
			return engine.Bool(false)
		}
		target = int64(n)
	default:
		return engine.Error(engine.TypeError("an integer", n))
	}
	return &nthPredicate{pred: kb.Call(goal), nth: nth, target: target}
}

type nthPredicate struct {
	pred   engine.Predicate
	nth    engine.Term
	n      int64
	target int64
	done   bool
}

func (p *nthPredicate) Evaluate() (bool, error) {
	for !p.done {
		p.nth.Backtrack()
		ok, err := p.pred.Evaluate()
		if err != nil || !ok {
			p.done = true
			return false, err
		}
		p.n++
		if !p.pred.CouldReevaluationSucceed() {
			p.done = true
		}
		if p.target == 0 {
			return p.nth.Unify(engine.NewInteger(p.n)), nil
		}
		if p.n == p.target {
			p.done = true
			return true, nil
		}
	}
	return false, nil
}

func (p *nthPredicate) CouldReevaluationSucceed() bool {
	return !p.done
}
