package engine

import (
	"sync"
	"sync/atomic"
)

// dynamicStore holds the clauses of a dynamic predicate in a doubly linked list.
// Clauses can be added and removed while calls are iterating over them.
// Structural changes are made under mu. Iterators step through the links
// without locking and see the links as they are when they step.
type dynamicStore struct {
	key PredicateKey
	kb  *KnowledgeBase
	spy *SpyPoint

	mu    sync.Mutex
	first atomic.Pointer[clauseNode]
	last  atomic.Pointer[clauseNode]
	size  int

	// index maps the first argument of every clause to its node. It is only
	// maintained while the first arguments are constants of one type and unique.
	indexing  bool
	indexType TermType
	index     map[uint64]*clauseNode
}

type clauseNode struct {
	action ClauseAction
	prev   atomic.Pointer[clauseNode]
	next   atomic.Pointer[clauseNode]

	hash    uint64
	removed bool
}

func newDynamicStore(key PredicateKey, kb *KnowledgeBase) *dynamicStore {
	s := dynamicStore{key: key, kb: kb, spy: kb.SpyPoints.Get(key)}
	s.resetIndex()
	return &s
}

func (s *dynamicStore) Key() PredicateKey {
	return s.key
}

func (s *dynamicStore) IsDynamic() bool {
	return true
}

// AddFirst inserts a clause before every other clause.
func (s *dynamicStore) AddFirst(m *ClauseModel) error {
	n, err := s.newNode(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.first.Load()
	n.next.Store(first)
	if first == nil {
		s.last.Store(n)
	} else {
		first.prev.Store(n)
	}
	s.first.Store(n)
	s.added(n)
	return nil
}

// AddLast appends a clause after every other clause.
func (s *dynamicStore) AddLast(m *ClauseModel) error {
	n, err := s.newNode(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.last.Load()
	n.prev.Store(last)
	if last == nil {
		s.first.Store(n)
	} else {
		last.next.Store(n)
	}
	s.last.Store(n)
	s.added(n)
	return nil
}

func (s *dynamicStore) newNode(m *ClauseModel) (*clauseNode, error) {
	a, err := compileClause(m, s.kb)
	if err != nil {
		return nil, err
	}
	return &clauseNode{action: a}, nil
}

func (s *dynamicStore) added(n *clauseNode) {
	s.size++
	if !s.indexing {
		return
	}
	k := Resolve(argsOf(n.action.Model().Consequent)[0])
	if !k.IsImmutable() {
		s.disableIndex()
		return
	}
	if len(s.index) == 0 {
		s.indexType = k.Type()
	} else if k.Type() != s.indexType {
		s.disableIndex()
		return
	}
	n.hash = termHash(k)
	if _, ok := s.index[n.hash]; ok {
		s.disableIndex()
		return
	}
	s.index[n.hash] = n
}

func (s *dynamicStore) disableIndex() {
	s.indexing = false
	s.index = nil
}

func (s *dynamicStore) resetIndex() {
	s.indexing = s.key.Arity > 0
	s.index = map[uint64]*clauseNode{}
}

// remove unlinks n. n keeps its own links so that an iterator standing on it
// can still move on.
func (s *dynamicStore) remove(n *clauseNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.removed {
		return
	}
	n.removed = true

	prev, next := n.prev.Load(), n.next.Load()
	if prev == nil {
		s.first.Store(next)
	} else {
		prev.next.Store(next)
	}
	if next == nil {
		s.last.Store(prev)
	} else {
		next.prev.Store(prev)
	}

	if s.indexing {
		delete(s.index, n.hash)
	}
	s.size--
	if s.size == 0 {
		s.resetIndex()
	}
}

// IsIndexed checks if calls with a bound first argument are answered by the index.
func (s *dynamicStore) IsIndexed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexing
}

// Implications returns an iterator over the clauses.
func (s *dynamicStore) Implications() *ImplicationIterator {
	return &ImplicationIterator{store: s}
}

func (s *dynamicStore) Clauses() []*ClauseModel {
	var ret []*ClauseModel
	for i := s.Implications(); i.Next(); {
		ret = append(ret, i.Clause())
	}
	return ret
}

func (s *dynamicStore) GetPredicate(args []Term) Predicate {
	if len(args) > 0 {
		if k := Resolve(args[0]); k.IsImmutable() {
			if actions, ok := s.lookup(k); ok {
				return newInterpretedPredicate(s.key, s.spy, args, &sliceSource{actions: actions})
			}
		}
	}
	return newInterpretedPredicate(s.key, s.spy, args, &implicationSource{iter: s.Implications()})
}

func (s *dynamicStore) lookup(k Term) ([]ClauseAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.indexing {
		return nil, false
	}
	n, ok := s.index[termHash(k)]
	if !ok || !StrictEquality(argsOf(n.action.Model().Consequent)[0], k) {
		return noMatches, true
	}
	return []ClauseAction{n.action}, true
}

func (s *dynamicStore) IsRetryable() bool {
	return true
}

// ImplicationIterator iterates over the clauses of a dynamic predicate.
type ImplicationIterator struct {
	store   *dynamicStore
	current *clauseNode
	started bool
}

func (i *ImplicationIterator) peek() *clauseNode {
	switch {
	case !i.started:
		return i.store.first.Load()
	case i.current == nil:
		return nil
	default:
		return i.current.next.Load()
	}
}

// Next proceeds to the next clause and returns true if there's such a clause.
func (i *ImplicationIterator) Next() bool {
	n := i.peek()
	if n == nil {
		return false
	}
	i.started = true
	i.current = n
	return true
}

// Clause returns a copy of the current clause.
func (i *ImplicationIterator) Clause() *ClauseModel {
	return i.current.action.Model().Copy()
}

// Remove removes the current clause from the predicate.
func (i *ImplicationIterator) Remove() {
	i.store.remove(i.current)
}

type implicationSource struct {
	iter *ImplicationIterator
}

func (s *implicationSource) next() (ClauseAction, bool) {
	if !s.iter.Next() {
		return nil, false
	}
	return s.iter.current.action, true
}

func (s *implicationSource) hasNext() bool {
	return s.iter.peek() != nil
}
