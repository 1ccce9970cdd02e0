package engine

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileAll(t *testing.T, kb *KnowledgeBase, clauses ...Term) []ClauseAction {
	t.Helper()
	ret := make([]ClauseAction, len(clauses))
	for i, c := range clauses {
		m, err := NewClauseModel(c)
		require.NoError(t, err)
		a, err := compileClause(m, kb)
		require.NoError(t, err)
		ret[i] = a
	}
	return ret
}

func clauseStrings(actions []ClauseAction) []string {
	ret := make([]string, len(actions))
	for i, a := range actions {
		ret[i] = a.Model().String()
	}
	return ret
}

func TestIndexes_Index(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	p := Atom("p")
	actions := compileAll(t, kb,
		p.Apply(Atom("a"), Atom("b"), Atom("c")),
		p.Apply(Integer(1), Integer(2), Integer(3)),
		p.Apply(Atom("x"), Atom("y"), NewVariable("Z")),
	)
	x := NewIndexes(PredicateKey{Name: "p", Arity: 3}, actions, DefaultIndexCacheSize)
	assert.Equal(t, []int{0, 1}, x.Columns())

	q, r, s := NewVariable("Q"), NewVariable("R"), NewVariable("S")
	tests := []struct {
		title string
		args  []Term
		want  []string
	}{
		{title: "both columns", args: []Term{Atom("a"), Atom("b"), q}, want: []string{"p(a,b,c)"}},
		{title: "first column", args: []Term{Integer(1), r, s}, want: []string{"p(1,2,3)"}},
		{title: "second column", args: []Term{q, Atom("y"), s}, want: []string{"p(x,y,Z)"}},
		{title: "no bound column", args: []Term{q, r, Atom("c")}, want: []string{"p(a,b,c)", "p(1,2,3)", "p(x,y,Z)"}},
		{title: "no match", args: []Term{Atom("a"), Integer(2), q}, want: []string{}},
		{title: "unknown value", args: []Term{Atom("z"), r, s}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, clauseStrings(x.Index(tt.args))); diff != "" {
				t.Errorf("Index() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("bound variable", func(t *testing.T) {
		require.True(t, q.Unify(Atom("x")))
		defer q.Backtrack()
		assert.Equal(t, []string{"p(x,y,Z)"}, clauseStrings(x.Index([]Term{q, r, s})))
	})
}

func TestImmutableColumns(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	p := Atom("p")

	tests := []struct {
		title   string
		clauses []Term
		want    []int
	}{
		{title: "none", clauses: nil},
		{
			title: "named variable",
			clauses: []Term{
				p.Apply(NewVariable("X"), Atom("a")),
				p.Apply(Atom("b"), Atom("a")),
			},
			want: []int{1},
		},
		{
			title: "anonymous variable",
			clauses: []Term{
				p.Apply(Atom("a"), NewVariable("_")),
				p.Apply(NewVariable("_"), Atom("b")),
			},
			want: []int{0, 1},
		},
		{
			title: "all anonymous",
			clauses: []Term{
				p.Apply(NewVariable("_"), Atom("a")),
				p.Apply(NewVariable("_"), Atom("b")),
			},
			want: []int{1},
		},
		{
			title: "structure",
			clauses: []Term{
				p.Apply(Atom("f").Apply(Atom("a"))),
				p.Apply(Atom("f").Apply(NewVariable("X"))),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ImmutableColumns(compileAll(t, kb, tt.clauses...)))
		})
	}

	t.Run("at most nine", func(t *testing.T) {
		args := make([]Term, 12)
		for i := range args {
			args[i] = Integer(i)
		}
		cols := ImmutableColumns(compileAll(t, kb, p.Apply(args...)))
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, cols)
	})
}

func TestIndexes_wildcards(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	p := Atom("p")
	actions := compileAll(t, kb,
		p.Apply(Atom("a"), NewVariable("_")),
		p.Apply(Atom("b"), Atom("x")),
		p.Apply(NewVariable("_"), Atom("y")),
		p.Apply(Atom("a"), Atom("z")),
	)
	x := NewIndexes(PredicateKey{Name: "p", Arity: 2}, actions, DefaultIndexCacheSize)
	v := NewVariable("V")

	assert.Equal(t, []int{0, 2, 3}, positions(actions, x.Index([]Term{Atom("a"), v})))
	assert.Equal(t, []int{1, 2}, positions(actions, x.Index([]Term{Atom("b"), v})))
	assert.Equal(t, []int{2}, positions(actions, x.Index([]Term{Atom("c"), v})))
	assert.Equal(t, []int{0, 2}, positions(actions, x.Index([]Term{Atom("a"), Atom("y")})))
}

// positions returns the indices in all of the actions in got.
func positions(all, got []ClauseAction) []int {
	ret := []int{}
	for _, g := range got {
		for i, a := range all {
			if a == g {
				ret = append(ret, i)
			}
		}
	}
	return ret
}

func TestIndexes_Stats(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	p := Atom("p")
	actions := compileAll(t, kb,
		p.Apply(Atom("a"), Atom("b")),
		p.Apply(Atom("c"), Atom("d")),
	)
	x := NewIndexes(PredicateKey{Name: "p", Arity: 2}, actions, 1)
	v := NewVariable("V")

	x.Index([]Term{Atom("a"), v})
	x.Index([]Term{Atom("c"), v})
	x.Index([]Term{v, Atom("b")})
	x.Index([]Term{v, Atom("d")})
	x.Index([]Term{Atom("a"), v})
	x.Index([]Term{v, v})

	if diff := cmp.Diff(IndexCacheStats{Size: 1, Hits: 2, Misses: 3, Evictions: 2}, x.Stats()); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestTermHash(t *testing.T) {
	f := Atom("f")
	assert.Equal(t, termHash(f.Apply(Atom("a"), Integer(1))), termHash(f.Apply(Atom("a"), Integer(1))))
	assert.Equal(t, termHash(List(Atom("a"))), termHash(Cons(Atom("a"), EmptyList)))
	assert.NotEqual(t, termHash(Integer(1)), termHash(Float(1)))
	assert.NotEqual(t, termHash(f.Apply(Atom("a"))), termHash(Atom("f")))
	assert.NotEqual(t, termHash(f.Apply(Atom("a"), Atom("b"))), termHash(f.Apply(Atom("b"), Atom("a"))))
	assert.NotEqual(t, termHash(EmptyList), termHash(Atom("[]")))

	v := NewVariable("V")
	require.True(t, v.Unify(Atom("a")))
	defer v.Backtrack()
	assert.Equal(t, termHash(Atom("a")), termHash(v))
}

func TestIndexes_noMatches(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	p := Atom("p")
	q, r := NewVariable("Q"), NewVariable("R")
	actions := compileAll(t, kb,
		p.Apply(Atom("a"), Atom("b")),
		p.Apply(Atom("c"), Atom("d")),
		p.Apply(Atom("c"), Atom("e")),
	)
	x := NewIndexes(PredicateKey{Name: "p", Arity: 2}, actions, DefaultIndexCacheSize)
	lhm, ok := newLinkedHashMapFactory(kb, PredicateKey{Name: "p", Arity: 2}, nil, 1, actions)
	require.True(t, ok)

	tests := []struct {
		title string
		got   func() []ClauseAction
	}{
		{title: "unknown value", got: func() []ClauseAction { return x.Index([]Term{Atom("z"), q}) }},
		{title: "unknown pair", got: func() []ClauseAction { return x.Index([]Term{Atom("a"), Atom("d")}) }},
		{title: "second lookup", got: func() []ClauseAction { return x.Index([]Term{Atom("z"), r}) }},
		{title: "unique column", got: func() []ClauseAction { return lhm.lookup(Atom("z")) }},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := tt.got()
			assert.NotNil(t, got)
			assert.Empty(t, got)
			assert.Equal(t, cap(noMatches), cap(got))
			assert.Equal(t, reflect.ValueOf(noMatches).Pointer(), reflect.ValueOf(got).Pointer())
		})
	}
}
