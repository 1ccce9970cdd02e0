package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestKnowledgeBase returns a knowledge base with a few built-ins and no listener.
func newTestKnowledgeBase(t *testing.T) *KnowledgeBase {
	t.Helper()
	kb := NewKnowledgeBase()
	kb.SpyPoints.SetListener(nil)
	for _, b := range []struct {
		name  Atom
		arity int
		f     PredicateFactory
	}{
		{name: "=", arity: 2, f: Deterministic(Unification)},
		{name: `\=`, arity: 2, f: Deterministic(NotUnifiable)},
		{name: "==", arity: 2, f: Deterministic(Identical)},
		{name: "is", arity: 2, f: Deterministic(Is)},
		{name: "=:=", arity: 2, f: NumberEqual},
		{name: "<", arity: 2, f: LessThan},
		{name: ">", arity: 2, f: GreaterThan},
		{name: "between", arity: 3, f: Nondeterministic(Between)},
		{name: "length", arity: 2, f: Nondeterministic(Length)},
		{name: "var", arity: 1, f: IsVar},
		{name: "asserta", arity: 1, f: &Assert{First: true}},
		{name: "assertz", arity: 1, f: &Assert{}},
		{name: "retract", arity: 1, f: &Retract{}},
		{name: "clause", arity: 2, f: &Clause{}},
		{name: "dynamic", arity: 1, f: &Dynamic{}},
		{name: "phrase", arity: 2, f: &Phrase{}},
		{name: "phrase", arity: 3, f: &Phrase{}},
	} {
		require.NoError(t, kb.AddPredicateFactory(PredicateKey{Name: b.name, Arity: b.arity}, b.f))
	}
	return kb
}

// consult adds clauses to kb.
func consult(t *testing.T, kb *KnowledgeBase, clauses ...Term) {
	t.Helper()
	for _, c := range clauses {
		m, err := NewClauseModel(c)
		require.NoError(t, err)
		require.NoError(t, kb.AddClause(m))
	}
}

// solve collects goal as it is after every solution. The bindings are undone afterwards.
func solve(kb *KnowledgeBase, goal Term) ([]string, error) {
	defer goal.Backtrack()
	var ret []string
	p := kb.Call(goal)
	for {
		ok, err := p.Evaluate()
		if err != nil || !ok {
			return ret, err
		}
		ret = append(ret, Simplify(goal).String())
		if !p.CouldReevaluationSucceed() {
			return ret, nil
		}
	}
}

func rule(head, body Term) Term {
	return atomIf.Apply(head, body)
}

func and(goals ...Term) Term {
	t := goals[len(goals)-1]
	for i := len(goals) - 2; i >= 0; i-- {
		t = atomComma.Apply(goals[i], t)
	}
	return t
}
