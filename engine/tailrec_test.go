package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// prefixClauses are
//
//	prefix([], Ys).
//	prefix([X|Xs], [X|Ys]) :- prefix(Xs, Ys).
func prefixClauses(name Atom) []Term {
	x, xs, ys := NewVariable("X"), NewVariable("Xs"), NewVariable("Ys")
	return []Term{
		name.Apply(EmptyList, ys),
		rule(name.Apply(PartialList(xs, x), PartialList(ys, x)), name.Apply(xs, ys)),
	}
}

func TestNewTailRecursiveFactory(t *testing.T) {
	p := Atom("p")
	x, xs, y := NewVariable("X"), NewVariable("Xs"), NewVariable("Y")
	key := PredicateKey{Name: "p", Arity: 1}

	tests := []struct {
		title   string
		clauses []Term
		ok      bool
	}{
		{
			title: "tail recursive",
			clauses: []Term{
				p.Apply(EmptyList),
				rule(p.Apply(PartialList(xs, x)), and(Atom(">").Apply(x, Integer(0)), p.Apply(xs))),
			},
			ok: true,
		},
		{
			title:   "one clause",
			clauses: []Term{rule(p.Apply(PartialList(xs, x)), p.Apply(xs))},
		},
		{
			title: "three clauses",
			clauses: []Term{
				p.Apply(EmptyList),
				p.Apply(List(Atom("a"))),
				rule(p.Apply(PartialList(xs, x)), p.Apply(xs)),
			},
		},
		{
			title: "recursive call is not last",
			clauses: []Term{
				p.Apply(EmptyList),
				rule(p.Apply(PartialList(xs, x)), and(p.Apply(xs), atomTrue)),
			},
		},
		{
			title: "second clause is a fact",
			clauses: []Term{
				p.Apply(EmptyList),
				p.Apply(List(Atom("a"))),
			},
		},
		{
			title: "several answers before the recursive call",
			clauses: []Term{
				p.Apply(EmptyList),
				rule(p.Apply(PartialList(xs, x)), and(Atom("between").Apply(Integer(1), Integer(3), y), p.Apply(xs))),
			},
		},
		{
			title: "several answers in the first clause",
			clauses: []Term{
				rule(p.Apply(EmptyList), Atom("between").Apply(Integer(1), Integer(3), y)),
				rule(p.Apply(PartialList(xs, x)), p.Apply(xs)),
			},
		},
		{
			title: "variable body",
			clauses: []Term{
				rule(p.Apply(EmptyList), y),
				rule(p.Apply(PartialList(xs, x)), p.Apply(xs)),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			kb := newTestKnowledgeBase(t)
			_, ok := newTailRecursiveFactory(kb, key, kb.SpyPoints.Get(key), compileAll(t, kb, tt.clauses...))
			assert.Equal(t, tt.ok, ok)
		})
	}

	t.Run("arguments", func(t *testing.T) {
		kb := newTestKnowledgeBase(t)
		key := PredicateKey{Name: "prefix", Arity: 2}
		f, ok := newTailRecursiveFactory(kb, key, kb.SpyPoints.Get(key), compileAll(t, kb, prefixClauses("prefix")...))
		require.True(t, ok)
		assert.Equal(t, []bool{true, true}, f.tailRecursiveArgs)
		assert.Equal(t, []bool{true, false}, f.singleResultIfArgImmutable)
	})
}

func TestTailRecursivePredicate(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	consult(t, kb, prefixClauses("prefix")...)
	require.NoError(t, kb.SetDynamic(PredicateKey{Name: "plain", Arity: 2}))
	consult(t, kb, prefixClauses("plain")...)

	u, ok := kb.UserDefinedPredicate(PredicateKey{Name: "prefix", Arity: 2})
	require.True(t, ok)
	s := u.(*staticStore)
	require.NoError(t, s.Compile())
	f, err := s.actual()
	require.NoError(t, err)
	require.IsType(t, &tailRecursiveFactory{}, f)

	abc := List(Atom("a"), Atom("b"), Atom("c"))
	tests := []struct {
		title string
		args  func() []Term
		want  []string
	}{
		{
			title: "enumerate prefixes",
			args:  func() []Term { return []Term{NewVariable("X"), abc} },
			want:  []string{"_([],[a,b,c])", "_([a],[a,b,c])", "_([a,b],[a,b,c])", "_([a,b,c],[a,b,c])"},
		},
		{
			title: "check prefix",
			args:  func() []Term { return []Term{List(Atom("a"), Atom("b")), abc} },
			want:  []string{"_([a,b],[a,b,c])"},
		},
		{
			title: "not a prefix",
			args:  func() []Term { return []Term{List(Atom("b")), abc} },
		},
		{
			title: "open list",
			args:  func() []Term { return []Term{List(Atom("a"), Atom("b")), NewVariable("L")} },
			want:  []string{"_([a,b],[a,b|_])"},
		},
		{
			title: "both open",
			args:  func() []Term { return []Term{PartialList(NewVariable("T"), Atom("a")), List(Atom("a"), Atom("b"))} },
			want:  []string{"_([a],[a,b])", "_([a,b],[a,b])"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			results := func(name Atom) []string {
				got, err := solve(kb, name.Apply(tt.args()...))
				require.NoError(t, err)
				for i, g := range got {
					got[i] = generatedName.ReplaceAllString("_"+g[len(name):], "_")
				}
				return got
			}
			got := results("prefix")
			if diff := cmp.Diff(results("plain"), got); diff != "" {
				t.Errorf("tail recursive results differ (-plain +tail recursive):\n%s", diff)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTailRecursivePredicate_trace(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	var r recorder
	kb.SpyPoints.SetListener(&r)
	consult(t, kb, prefixClauses("prefix")...)
	kb.SpyPoints.SetSpyPoint(PredicateKey{Name: "prefix", Arity: 2}, true)

	got, err := solve(kb, Atom("prefix").Apply(NewVariable("X"), List(Atom("a"), Atom("b"))))
	require.NoError(t, err)
	assert.Len(t, got, 3)

	want := []string{
		"CALL prefix(X,[a,b])",
		"EXIT prefix([],[a,b]) prefix([],Ys)",
		"REDO prefix([],[a,b])",
		"CALL prefix(_,[b])",
		"EXIT prefix([],[b]) prefix([],Ys)",
		"EXIT prefix([a],[a,b]) prefix([X|Xs],[X|Ys])",
		"REDO prefix([a],[a,b])",
		"REDO prefix([],[b])",
		"CALL prefix(_,[])",
		"EXIT prefix([],[]) prefix([],Ys)",
		"EXIT prefix([b],[b]) prefix([X|Xs],[X|Ys])",
		"EXIT prefix([a,b],[a,b]) prefix([X|Xs],[X|Ys])",
		"REDO prefix([a,b],[a,b])",
		"REDO prefix([b],[b])",
		"REDO prefix([],[])",
		"FAIL prefix(_,[])",
		"FAIL prefix(_,[b])",
		"FAIL prefix(X,[a,b])",
	}
	if diff := cmp.Diff(want, r.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestTailRecursivePredicate_deep(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	i, n, i1 := NewVariable("I"), NewVariable("N"), NewVariable("I1")
	count := Atom("count")
	consult(t, kb,
		count.Apply(n, n),
		rule(count.Apply(i, n), and(
			Atom("<").Apply(i, n),
			Atom("is").Apply(i1, Atom("+").Apply(i, Integer(1))),
			count.Apply(i1, n),
		)),
	)

	u, ok := kb.UserDefinedPredicate(PredicateKey{Name: "count", Arity: 2})
	require.True(t, ok)
	s, ok := u.(*staticStore)
	require.True(t, ok)
	f, err := s.actual()
	require.NoError(t, err)
	require.IsType(t, &tailRecursiveFactory{}, f)

	got, err := solve(kb, count.Apply(Integer(0), Integer(100000)))
	require.NoError(t, err)
	assert.Equal(t, []string{"count(0,100000)"}, got)
}

func TestTailRecursivePredicate_error(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	x, xs := NewVariable("X"), NewVariable("Xs")
	pos := Atom("pos")
	consult(t, kb,
		pos.Apply(EmptyList),
		rule(pos.Apply(PartialList(xs, x)), and(Atom(">").Apply(x, Integer(0)), pos.Apply(xs))),
	)

	got, err := solve(kb, pos.Apply(List(Integer(1), Integer(2))))
	require.NoError(t, err)
	assert.Equal(t, []string{"pos([1,2])"}, got)

	_, err = solve(kb, pos.Apply(List(Integer(1), Atom("a"))))
	assert.EqualError(t, err, "Cannot find arithmetic operator: a/0")
	var e *Exception
	require.True(t, errors.As(err, &e))
	require.Len(t, e.Clauses(), 1)
	assert.Equal(t, "pos([X|Xs])", e.Clauses()[0].Consequent.String())
}
