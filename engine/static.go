package engine

import (
	"sync"
	"sync/atomic"
)

// staticStore holds the clauses of a predicate that is not dynamic. It compiles
// into a specialized factory the first time it is used and rejects clauses
// from then on.
type staticStore struct {
	key PredicateKey
	kb  *KnowledgeBase
	spy *SpyPoint

	mu       sync.Mutex
	models   []*ClauseModel
	compiled atomic.Pointer[compilation]

	// compiling is set while the clause bodies are being compiled. A lookup of
	// the store during that time means the predicate refers to itself.
	compiling atomic.Bool
	cyclic    atomic.Bool
}

type compilation struct {
	factory PredicateFactory
	err     error
}

func newStaticStore(key PredicateKey, kb *KnowledgeBase) *staticStore {
	return &staticStore{key: key, kb: kb, spy: kb.SpyPoints.Get(key)}
}

func (s *staticStore) Key() PredicateKey {
	return s.key
}

func (s *staticStore) IsDynamic() bool {
	return false
}

func (s *staticStore) isEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.models) == 0 && s.compiled.Load() == nil
}

// AddFirst always fails since clauses of a static predicate can only be appended.
func (s *staticStore) AddFirst(m *ClauseModel) error {
	return notDynamicError(s.key, m)
}

// AddLast appends a clause. It fails once the predicate has been compiled.
func (s *staticStore) AddLast(m *ClauseModel) error {
	if s.compiled.Load() != nil || s.compiling.Load() {
		return notDynamicError(s.key, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.compiled.Load() != nil {
		return notDynamicError(s.key, m)
	}
	s.models = append(s.models, m)
	return nil
}

func (s *staticStore) Clauses() []*ClauseModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]*ClauseModel, len(s.models))
	for i, m := range s.models {
		ret[i] = m.Copy()
	}
	return ret
}

// Compile compiles the predicate unless it has been compiled already.
func (s *staticStore) Compile() error {
	_, err := s.actual()
	return err
}

// IsCyclic checks if the predicate was looked up while its own clauses were compiled.
func (s *staticStore) IsCyclic() bool {
	return s.cyclic.Load()
}

func (s *staticStore) actual() (PredicateFactory, error) {
	if c := s.compiled.Load(); c != nil {
		return c.factory, c.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.compiled.Load(); c != nil {
		return c.factory, c.err
	}

	s.compiling.Store(true)
	f, err := s.compile()
	s.compiling.Store(false)
	s.compiled.Store(&compilation{factory: f, err: err})
	return f, err
}

func (s *staticStore) compile() (PredicateFactory, error) {
	actions := make([]ClauseAction, len(s.models))
	for i, m := range s.models {
		a, err := compileClause(m, s.kb)
		if err != nil {
			return nil, wrapEvaluationError(err, s.key, m)
		}
		actions[i] = a
	}

	if f, ok := newTailRecursiveFactory(s.kb, s.key, s.spy, actions); ok {
		compiledPredicates.WithLabelValues("tail_recursive").Inc()
		return f, nil
	}

	switch len(actions) {
	case 0:
		compiledPredicates.WithLabelValues("never_succeeds").Inc()
		return neverSucceeds{}, nil
	case 1:
		compiledPredicates.WithLabelValues("single_clause").Inc()
		return newSingleClauseFactory(s.kb, s.key, s.spy, actions[0]), nil
	}

	columns := ImmutableColumns(actions)
	switch len(columns) {
	case 0:
		compiledPredicates.WithLabelValues("not_indexable").Inc()
		return &notIndexableFactory{kb: s.kb, key: s.key, spy: s.spy, actions: actions}, nil
	case 1:
		if f, ok := newLinkedHashMapFactory(s.kb, s.key, s.spy, columns[0], actions); ok {
			compiledPredicates.WithLabelValues("linked_hash_map").Inc()
			return f, nil
		}
		compiledPredicates.WithLabelValues("single_index").Inc()
	default:
		compiledPredicates.WithLabelValues("multi_index").Inc()
	}
	return &indexedFactory{
		kb:      s.kb,
		key:     s.key,
		spy:     s.spy,
		indexes: NewIndexes(s.key, actions, s.kb.IndexCacheSize),
	}, nil
}

func (s *staticStore) GetPredicate(args []Term) Predicate {
	f, err := s.actual()
	if err != nil {
		return Error(err)
	}
	return f.GetPredicate(args)
}

func (s *staticStore) IsRetryable() bool {
	if s.compiling.Load() {
		s.cyclic.Store(true)
		return true
	}
	f, err := s.actual()
	if err != nil {
		return true
	}
	return f.IsRetryable()
}

func (s *staticStore) IsAlwaysCutOnBacktrack() bool {
	if s.compiling.Load() {
		return false
	}
	f, err := s.actual()
	return err == nil && IsAlwaysCutOnBacktrack(f)
}

// Preprocess returns the compiled factory specialized for goal. A predicate
// that refers to itself returns the store so that it is not compiled again
// while its own compilation is in progress.
func (s *staticStore) Preprocess(goal Term) PredicateFactory {
	if s.compiling.Load() {
		s.cyclic.Store(true)
		return s
	}
	if s.cyclic.Load() {
		return s
	}
	f, err := s.actual()
	if err != nil {
		return s
	}
	if p, ok := f.(PreprocessablePredicateFactory); ok {
		return p.Preprocess(goal)
	}
	return f
}
