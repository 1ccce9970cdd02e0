package engine

import "fmt"

// The factories a static predicate compiles into.

func warnNeverSucceeds(kb *KnowledgeBase, goal Term) PredicateFactory {
	kb.Warn(fmt.Sprintf("Goal: %s will never succeed", goal))
	return neverSucceeds{}
}

// filterMatches returns the actions whose heads could unify with the arguments of goal.
func filterMatches(actions []ClauseAction, goal Term) []ClauseAction {
	args := argsOf(goal)
	ret := make([]ClauseAction, 0, len(actions))
	for _, a := range actions {
		if IsMatch(a, args) {
			ret = append(ret, a)
		}
	}
	return ret
}

// specialize builds the cheapest factory for a subset of the clauses of key.
func specialize(kb *KnowledgeBase, key PredicateKey, spy *SpyPoint, actions []ClauseAction, goal Term) PredicateFactory {
	switch len(actions) {
	case 0:
		return warnNeverSucceeds(kb, goal)
	case 1:
		return newSingleClauseFactory(kb, key, spy, actions[0])
	default:
		return &notIndexableFactory{kb: kb, key: key, spy: spy, actions: actions}
	}
}

// singleClauseFactory is a predicate with exactly one clause.
type singleClauseFactory struct {
	kb        *KnowledgeBase
	key       PredicateKey
	spy       *SpyPoint
	action    ClauseAction
	retryable bool
}

func newSingleClauseFactory(kb *KnowledgeBase, key PredicateKey, spy *SpyPoint, a ClauseAction) *singleClauseFactory {
	return &singleClauseFactory{
		kb:        kb,
		key:       key,
		spy:       spy,
		action:    a,
		retryable: a.IsRetryable() && !a.IsAlwaysCutOnBacktrack(),
	}
}

func (f *singleClauseFactory) GetPredicate(args []Term) Predicate {
	p := newInterpretedPredicate(f.key, f.spy, args, &sliceSource{actions: []ClauseAction{f.action}})
	if f.retryable {
		return p
	}
	ok, err := p.Evaluate()
	if err != nil {
		return Error(err)
	}
	return Bool(ok)
}

func (f *singleClauseFactory) IsRetryable() bool {
	return f.retryable
}

func (f *singleClauseFactory) IsAlwaysCutOnBacktrack() bool {
	return f.action.IsAlwaysCutOnBacktrack()
}

func (f *singleClauseFactory) Preprocess(goal Term) PredicateFactory {
	if !IsMatch(f.action, argsOf(goal)) {
		return warnNeverSucceeds(f.kb, goal)
	}
	return f
}

// notIndexableFactory tries every clause in order.
type notIndexableFactory struct {
	kb      *KnowledgeBase
	key     PredicateKey
	spy     *SpyPoint
	actions []ClauseAction
}

func (f *notIndexableFactory) GetPredicate(args []Term) Predicate {
	return newInterpretedPredicate(f.key, f.spy, args, &sliceSource{actions: f.actions})
}

func (f *notIndexableFactory) IsRetryable() bool {
	return true
}

func (f *notIndexableFactory) Preprocess(goal Term) PredicateFactory {
	matches := filterMatches(f.actions, goal)
	if len(matches) == len(f.actions) {
		return f
	}
	return specialize(f.kb, f.key, f.spy, matches, goal)
}

// indexedFactory narrows the clauses to try with indexes over the constant
// arguments of the call.
type indexedFactory struct {
	kb      *KnowledgeBase
	key     PredicateKey
	spy     *SpyPoint
	indexes *Indexes
}

func (f *indexedFactory) GetPredicate(args []Term) Predicate {
	return newInterpretedPredicate(f.key, f.spy, args, &sliceSource{actions: f.indexes.Index(args)})
}

func (f *indexedFactory) IsRetryable() bool {
	return true
}

func (f *indexedFactory) Preprocess(goal Term) PredicateFactory {
	args := argsOf(goal)
	if f.indexes.bitmask(args) == 0 {
		return f
	}
	return specialize(f.kb, f.key, f.spy, filterMatches(f.indexes.Index(args), goal), goal)
}

// linkedHashMapFactory is a predicate with one indexable argument whose value is
// different in every clause. A bound argument selects at most one clause.
type linkedHashMapFactory struct {
	kb      *KnowledgeBase
	key     PredicateKey
	spy     *SpyPoint
	column  int
	actions []ClauseAction
	byValue map[uint64][]ClauseAction
}

func newLinkedHashMapFactory(kb *KnowledgeBase, key PredicateKey, spy *SpyPoint, column int, actions []ClauseAction) (*linkedHashMapFactory, bool) {
	f := linkedHashMapFactory{
		kb:      kb,
		key:     key,
		spy:     spy,
		column:  column,
		actions: actions,
		byValue: make(map[uint64][]ClauseAction, len(actions)),
	}
	for _, a := range actions {
		v := argsOf(a.Model().Consequent)[column]
		if isAnonymous(v) {
			return nil, false
		}
		h := termHash(v)
		for _, b := range f.byValue[h] {
			if StrictEquality(argsOf(b.Model().Consequent)[column], v) {
				return nil, false
			}
		}
		f.byValue[h] = append(f.byValue[h], a)
	}
	return &f, true
}

func (f *linkedHashMapFactory) lookup(v Term) []ClauseAction {
	for _, a := range f.byValue[termHash(v)] {
		if StrictEquality(argsOf(a.Model().Consequent)[f.column], v) {
			return []ClauseAction{a}
		}
	}
	return noMatches
}

func (f *linkedHashMapFactory) GetPredicate(args []Term) Predicate {
	actions := f.actions
	if v := Resolve(args[f.column]); v.IsImmutable() {
		actions = f.lookup(v)
	}
	return newInterpretedPredicate(f.key, f.spy, args, &sliceSource{actions: actions})
}

func (f *linkedHashMapFactory) IsRetryable() bool {
	return true
}

func (f *linkedHashMapFactory) Preprocess(goal Term) PredicateFactory {
	v := Resolve(argsOf(goal)[f.column])
	if !v.IsImmutable() {
		return f
	}
	return specialize(f.kb, f.key, f.spy, filterMatches(f.lookup(v), goal), goal)
}
