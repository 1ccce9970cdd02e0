package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newCompiledStore(t *testing.T, kb *KnowledgeBase, key PredicateKey, clauses ...Term) *staticStore {
	t.Helper()
	s := newStaticStore(key, kb)
	for _, c := range clauses {
		m, err := NewClauseModel(c)
		require.NoError(t, err)
		require.NoError(t, s.AddLast(m))
	}
	require.NoError(t, s.Compile())
	return s
}

func TestStaticStore_Compile(t *testing.T) {
	p := Atom("p")
	x, y, z := NewVariable("X"), NewVariable("Y"), NewVariable("Z")
	xs, ys := NewVariable("Xs"), NewVariable("Ys")

	tests := []struct {
		title   string
		arity   int
		clauses []Term
		want    PredicateFactory
	}{
		{title: "no clauses", arity: 1, want: neverSucceeds{}},
		{title: "single clause", arity: 1, clauses: []Term{p.Apply(Atom("a"))}, want: &singleClauseFactory{}},
		{
			title: "not indexable",
			arity: 1,
			clauses: []Term{
				rule(p.Apply(x), atomEqual.Apply(x, Atom("a"))),
				rule(p.Apply(y), atomEqual.Apply(y, Atom("b"))),
			},
			want: &notIndexableFactory{},
		},
		{
			title:   "unique values in one column",
			arity:   1,
			clauses: []Term{p.Apply(Atom("a")), p.Apply(Atom("b")), p.Apply(Atom("c"))},
			want:    &linkedHashMapFactory{},
		},
		{
			title: "repeated values in one column",
			arity: 2,
			clauses: []Term{
				p.Apply(Atom("a"), x),
				p.Apply(Atom("a"), y),
				p.Apply(Atom("b"), z),
			},
			want: &indexedFactory{},
		},
		{
			title: "several columns",
			arity: 3,
			clauses: []Term{
				p.Apply(Atom("a"), Atom("b"), Atom("c")),
				p.Apply(Integer(1), Integer(2), Integer(3)),
				p.Apply(Atom("x"), Atom("y"), z),
			},
			want: &indexedFactory{},
		},
		{
			title: "tail recursive",
			arity: 2,
			clauses: []Term{
				p.Apply(EmptyList, ys),
				rule(p.Apply(PartialList(xs, x), PartialList(ys, x)), p.Apply(xs, ys)),
			},
			want: &tailRecursiveFactory{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			kb := newTestKnowledgeBase(t)
			s := newCompiledStore(t, kb, PredicateKey{Name: "p", Arity: tt.arity}, tt.clauses...)
			f, err := s.actual()
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}

func TestStaticStore_AddFirst(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	s := newStaticStore(PredicateKey{Name: "p", Arity: 0}, kb)
	m, err := NewClauseModel(Atom("p"))
	require.NoError(t, err)
	assert.EqualError(t, s.AddFirst(m), "Cannot add clause to already defined user defined predicate as it is not dynamic: p/0 clause: p")
}

func TestStaticStore_AddLast(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	consult(t, kb, Atom("test").Apply(Atom("a")))

	ok, err := kb.Once(Atom("test").Apply(Atom("a")))
	require.NoError(t, err)
	assert.True(t, ok)

	m, err := NewClauseModel(Atom("test").Apply(Atom("b")))
	require.NoError(t, err)
	assert.EqualError(t, kb.AddClause(m), "Cannot add clause to already defined user defined predicate as it is not dynamic: test/1 clause: test(b)")

	u, ok := kb.UserDefinedPredicate(PredicateKey{Name: "test", Arity: 1})
	require.True(t, ok)
	assert.Len(t, u.Clauses(), 1)
}

func TestStaticStore_concurrentCompile(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	p := Atom("p")
	var clauses []Term
	for i := 0; i < 100; i++ {
		clauses = append(clauses, p.Apply(Integer(i), Integer(i*i)))
	}
	s := newStaticStore(PredicateKey{Name: "p", Arity: 2}, kb)
	for _, c := range clauses {
		m, err := NewClauseModel(c)
		require.NoError(t, err)
		require.NoError(t, s.AddLast(m))
	}

	factories := make([]PredicateFactory, 16)
	var g errgroup.Group
	for i := range factories {
		i := i
		g.Go(func() error {
			if err := s.Compile(); err != nil {
				return err
			}
			f, err := s.actual()
			factories[i] = f
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, f := range factories {
		assert.Same(t, factories[0], f)
	}
}

func TestStaticStore_results(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	p := Atom("p")
	consult(t, kb,
		p.Apply(Atom("a"), Atom("b"), Atom("c")),
		p.Apply(Integer(1), Integer(2), Integer(3)),
		p.Apply(Atom("x"), Atom("y"), NewVariable("Z")),
	)

	q, r, s := NewVariable("Q"), NewVariable("R"), NewVariable("S")
	tests := []struct {
		goal Term
		want []string
	}{
		{goal: p.Apply(Atom("a"), Atom("b"), q), want: []string{"p(a,b,c)"}},
		{goal: p.Apply(q, r, s), want: []string{"p(a,b,c)", "p(1,2,3)", "p(x,y,S)"}},
		{goal: p.Apply(q, Integer(2), r), want: []string{"p(1,2,3)"}},
		{goal: p.Apply(Atom("x"), Atom("y"), Atom("anything")), want: []string{"p(x,y,anything)"}},
		{goal: p.Apply(Atom("a"), Integer(2), q)},
	}
	for _, tt := range tests {
		t.Run(tt.goal.String(), func(t *testing.T) {
			got, err := solve(kb, tt.goal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("in a clause body", func(t *testing.T) {
		x := NewVariable("X")
		consult(t, kb, rule(Atom("q").Apply(x), p.Apply(Atom("a"), Atom("b"), x)))
		got, err := solve(kb, Atom("q").Apply(q))
		require.NoError(t, err)
		assert.Equal(t, []string{"q(c)"}, got)
	})
}

func TestStaticStore_cyclic(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	x, y := NewVariable("X"), NewVariable("Y")
	consult(t, kb,
		Atom("even").Apply(Integer(0)),
		rule(Atom("even").Apply(x), and(
			Atom(">").Apply(x, Integer(0)),
			Atom("is").Apply(y, Atom("-").Apply(x, Integer(1))),
			Atom("odd").Apply(y),
		)),
		rule(Atom("odd").Apply(x), and(
			Atom(">").Apply(x, Integer(0)),
			Atom("is").Apply(y, Atom("-").Apply(x, Integer(1))),
			Atom("even").Apply(y),
		)),
	)

	ok, err := kb.Once(Atom("even").Apply(Integer(10)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = kb.Once(Atom("odd").Apply(Integer(10)))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaticStore_Preprocess(t *testing.T) {
	p := Atom("p")
	x, y, z := NewVariable("X"), NewVariable("Y"), NewVariable("Z")
	w, v := NewVariable("W"), NewVariable("V")
	unique := []Term{p.Apply(Atom("a")), p.Apply(Atom("b")), p.Apply(Atom("c"))}
	repeated := []Term{p.Apply(Atom("a"), x), p.Apply(Atom("a"), y), p.Apply(Atom("b"), z)}

	tests := []struct {
		title    string
		arity    int
		clauses  []Term
		compiled PredicateFactory
		goal     Term
		want     PredicateFactory
		narrowed []string
		warning  string
	}{
		{title: "unique values, constant", arity: 1, clauses: unique, compiled: &linkedHashMapFactory{}, goal: p.Apply(Atom("b")), want: &singleClauseFactory{}, narrowed: []string{"p(b)"}},
		{title: "unique values, unknown constant", arity: 1, clauses: unique, compiled: &linkedHashMapFactory{}, goal: p.Apply(Atom("d")), want: neverSucceeds{}, warning: "Goal: p(d) will never succeed"},
		{title: "unique values, variable", arity: 1, clauses: unique, compiled: &linkedHashMapFactory{}, goal: p.Apply(w), want: &linkedHashMapFactory{}},
		{title: "repeated values, constant of one clause", arity: 2, clauses: repeated, compiled: &indexedFactory{}, goal: p.Apply(Atom("b"), w), want: &singleClauseFactory{}, narrowed: []string{"p(b,Z)"}},
		{title: "repeated values, constant of two clauses", arity: 2, clauses: repeated, compiled: &indexedFactory{}, goal: p.Apply(Atom("a"), w), want: &notIndexableFactory{}, narrowed: []string{"p(a,X)", "p(a,Y)"}},
		{title: "repeated values, unknown constant", arity: 2, clauses: repeated, compiled: &indexedFactory{}, goal: p.Apply(Atom("c"), w), want: neverSucceeds{}, warning: "Goal: p(c,W) will never succeed"},
		{title: "repeated values, variables", arity: 2, clauses: repeated, compiled: &indexedFactory{}, goal: p.Apply(w, v), want: &indexedFactory{}},
		{title: "single clause, mismatch", arity: 1, clauses: unique[:1], compiled: &singleClauseFactory{}, goal: p.Apply(Atom("b")), want: neverSucceeds{}, warning: "Goal: p(b) will never succeed"},
		{title: "single clause, match", arity: 1, clauses: unique[:1], compiled: &singleClauseFactory{}, goal: p.Apply(w), want: &singleClauseFactory{}, narrowed: []string{"p(a)"}},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			kb := newTestKnowledgeBase(t)
			var l mockListener
			if tt.warning != "" {
				l.On("OnWarn", tt.warning).Once()
			}
			kb.SpyPoints.SetListener(&l)

			s := newCompiledStore(t, kb, PredicateKey{Name: "p", Arity: tt.arity}, tt.clauses...)
			f, err := s.actual()
			require.NoError(t, err)
			require.IsType(t, tt.compiled, f)

			got := s.Preprocess(tt.goal)
			assert.IsType(t, tt.want, got)
			switch g := got.(type) {
			case *singleClauseFactory:
				assert.Equal(t, tt.narrowed, []string{g.action.Model().String()})
			case *notIndexableFactory:
				assert.Equal(t, tt.narrowed, clauseStrings(g.actions))
			case *linkedHashMapFactory, *indexedFactory:
				assert.Same(t, f, got)
			}
			l.AssertExpectations(t)
		})
	}
}
