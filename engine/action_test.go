package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileClause(t *testing.T) {
	p, q := Atom("p"), Atom("q")
	x, y := NewVariable("X"), NewVariable("Y")

	tests := []struct {
		title  string
		clause Term
		want   ClauseAction
	}{
		{title: "fact of distinct variables", clause: p.Apply(x, y), want: &alwaysMatchedFact{}},
		{title: "fact of anonymous variables", clause: p.Apply(NewVariable("_"), NewVariable("_")), want: &alwaysMatchedFact{}},
		{title: "ground fact", clause: p.Apply(Atom("a"), Atom("f").Apply(Atom("b"))), want: &immutableFact{}},
		{title: "fact with shared variables", clause: p.Apply(x, x), want: &mutableFact{}},
		{title: "fact with a variable in a compound", clause: p.Apply(Atom("f").Apply(x)), want: &mutableFact{}},
		{title: "fact with a constant and a variable", clause: p.Apply(Atom("a"), x), want: &mutableFact{}},
		{title: "rule with a ground head", clause: rule(p.Apply(Atom("a")), q), want: &immutableConsequentRule{}},
		{title: "rule with a ground head and a variable body", clause: rule(p.Apply(Atom("a")), q.Apply(x)), want: &immutableConsequentRule{}},
		{title: "rule with distinct variables", clause: rule(p.Apply(x, y), q.Apply(x)), want: &mutableRule{}},
		{title: "rule with shared variables", clause: rule(p.Apply(x, Atom("f").Apply(x)), q.Apply(x)), want: &mutableRule{}},
		{title: "atom head", clause: rule(p, q), want: &zeroArgConsequentRule{}},
		{title: "atom fact", clause: p, want: &zeroArgConsequentRule{}},
		{title: "variable body", clause: rule(p.Apply(x), x), want: &variableAntecedent{}},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			kb := newTestKnowledgeBase(t)
			m, err := NewClauseModel(tt.clause)
			require.NoError(t, err)
			a, err := compileClause(m, kb)
			require.NoError(t, err)
			assert.IsType(t, tt.want, a)
			assert.Same(t, m, a.Model())
		})
	}
}

func TestCompileClause_retryable(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	p := Atom("p")
	x := NewVariable("X")

	tests := []struct {
		title     string
		clause    Term
		retryable bool
	}{
		{title: "fact", clause: p.Apply(Atom("a"))},
		{title: "deterministic body", clause: rule(p.Apply(x), atomEqual.Apply(x, Atom("a")))},
		{title: "nondeterministic body", clause: rule(p.Apply(x), Atom("between").Apply(Integer(1), Integer(3), x)), retryable: true},
		{title: "variable body", clause: rule(p.Apply(x), x), retryable: true},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			m, err := NewClauseModel(tt.clause)
			require.NoError(t, err)
			a, err := compileClause(m, kb)
			require.NoError(t, err)
			assert.Equal(t, tt.retryable, a.IsRetryable())
		})
	}
}

func TestIsMatch(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	p, f := Atom("p"), Atom("f")
	x, y := NewVariable("X"), NewVariable("Y")
	q, r := NewVariable("Q"), NewVariable("R")

	tests := []struct {
		title  string
		clause Term
		args   []Term
		match  bool
	}{
		{title: "constant against variable", clause: p.Apply(Atom("a"), Atom("b")), args: []Term{q, r}, match: true},
		{title: "same constants", clause: p.Apply(Atom("a"), Atom("b")), args: []Term{Atom("a"), Atom("b")}, match: true},
		{title: "different constants", clause: p.Apply(Atom("a"), Atom("b")), args: []Term{Atom("a"), Atom("c")}},
		{title: "mismatch after a binding", clause: p.Apply(x, Atom("b")), args: []Term{q, Atom("c")}},
		{title: "shared head variables", clause: p.Apply(x, x), args: []Term{Atom("a"), Atom("b")}},
		{title: "shared head variables against a variable", clause: p.Apply(x, x), args: []Term{Atom("a"), q}, match: true},
		{title: "shared query variables", clause: p.Apply(Atom("a"), Atom("b")), args: []Term{q, q}},
		{title: "compound", clause: rule(p.Apply(f.Apply(x, y), y), Atom("true")), args: []Term{f.Apply(q, Atom("b")), r}, match: true},
		{title: "compound mismatch", clause: p.Apply(f.Apply(x, Atom("c"))), args: []Term{f.Apply(Atom("a"), Atom("b"))}},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			m, err := NewClauseModel(tt.clause)
			require.NoError(t, err)
			a, err := compileClause(m, kb)
			require.NoError(t, err)

			before := m.String()
			assert.Equal(t, tt.match, IsMatch(a, tt.args))

			assert.Equal(t, before, m.String())
			for _, v := range []*Variable{x, y, q, r} {
				assert.Same(t, v, Resolve(v), "%s is bound", v.Name)
			}
		})
	}
}
