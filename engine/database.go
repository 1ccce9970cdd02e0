package engine

import "fmt"

// Assert is the factory of asserta/1 and assertz/1. First selects asserta/1.
// A clause for a predicate that doesn't exist yet makes the predicate dynamic.
type Assert struct {
	First bool

	kb *KnowledgeBase
}

// SetKnowledgeBase sets the knowledge base clauses are added to.
func (a *Assert) SetKnowledgeBase(kb *KnowledgeBase) {
	a.kb = kb
}

func (a *Assert) GetPredicate(args []Term) Predicate {
	m, err := NewClauseModel(Simplify(args[0]).Copy(map[*Variable]*Variable{}))
	if err != nil {
		return Error(err)
	}
	key := m.Key()
	if _, ok := a.kb.UserDefinedPredicate(key); !ok {
		if err := a.kb.SetDynamic(key); err != nil {
			return Error(err)
		}
	}
	u, err := a.kb.CreateOrReturnUserDefined(key)
	if err != nil {
		return Error(err)
	}
	if a.First {
		err = u.AddFirst(m)
	} else {
		err = u.AddLast(m)
	}
	if err != nil {
		return Error(err)
	}
	return succeeded
}

func (a *Assert) IsRetryable() bool {
	return false
}

// splitClause returns the head and the body of a clause term.
func splitClause(t Term) (Term, Term) {
	if c, ok := t.(*Compound); ok && c.Functor == atomIf && len(c.Args) == 2 {
		return Resolve(c.Args[0]), c.Args[1]
	}
	return t, atomTrue
}

// clauseIterator iterates over copies of the clauses of a predicate.
type clauseIterator interface {
	Next() bool
	Clause() *ClauseModel
}

type sliceClauseIterator struct {
	clauses []*ClauseModel
	i       int
}

func (s *sliceClauseIterator) Next() bool {
	if s.i >= len(s.clauses) {
		return false
	}
	s.i++
	return true
}

func (s *sliceClauseIterator) Clause() *ClauseModel {
	return s.clauses[s.i-1]
}

// matchingClauses returns a predicate that succeeds once for every clause of the
// predicate of head that unifies with head :- body. f is called on every match.
func matchingClauses(kb *KnowledgeBase, head, body Term, f func(clauseIterator)) Predicate {
	key, err := KeyOf(head)
	if err != nil {
		if v, ok := head.(*Variable); ok {
			return Error(InstantiationError(v))
		}
		return Error(err)
	}
	u, ok := kb.UserDefinedPredicate(key)
	if !ok {
		return failed
	}
	var iter clauseIterator
	if d, ok := u.(*dynamicStore); ok {
		iter = d.Implications()
	} else {
		iter = &sliceClauseIterator{clauses: u.Clauses()}
	}
	return &generator{next: func() (bool, error) {
		for {
			head.Backtrack()
			body.Backtrack()
			if !iter.Next() {
				return false, nil
			}
			c := iter.Clause()
			if head.Unify(c.Consequent) && body.Unify(c.Antecedent) {
				if f != nil {
					f(iter)
				}
				return true, nil
			}
		}
	}}
}

// Retract is the factory of retract/1. It removes the clauses matching its
// argument one at a time.
type Retract struct {
	kb *KnowledgeBase
}

// SetKnowledgeBase sets the knowledge base clauses are removed from.
func (r *Retract) SetKnowledgeBase(kb *KnowledgeBase) {
	r.kb = kb
}

func (r *Retract) GetPredicate(args []Term) Predicate {
	head, body := splitClause(Simplify(args[0]))
	key, err := KeyOf(head)
	if err == nil {
		if u, ok := r.kb.UserDefinedPredicate(key); ok && !u.IsDynamic() {
			return Error(NewException(fmt.Sprintf("Cannot retract clause from static predicate: %s", key), nil))
		}
	}
	return matchingClauses(r.kb, head, body, func(iter clauseIterator) {
		iter.(*ImplicationIterator).Remove()
	})
}

func (r *Retract) IsRetryable() bool {
	return true
}

// Clause is the factory of clause/2.
type Clause struct {
	kb *KnowledgeBase
}

// SetKnowledgeBase sets the knowledge base clauses are looked up in.
func (c *Clause) SetKnowledgeBase(kb *KnowledgeBase) {
	c.kb = kb
}

func (c *Clause) GetPredicate(args []Term) Predicate {
	return matchingClauses(c.kb, Simplify(args[0]), Simplify(args[1]), nil)
}

func (c *Clause) IsRetryable() bool {
	return true
}

// indicators returns the keys of a name/arity term, a conjunction of them, or a
// list of them.
func indicators(t Term) ([]PredicateKey, error) {
	t = Resolve(t)
	var terms []Term
	if c, ok := t.(*Compound); ok && c.isList() || t == EmptyList {
		var err error
		if terms, err = Slice(t); err != nil {
			return nil, err
		}
	} else {
		terms = flattenConjunction(Simplify(t), nil)
	}
	keys := make([]PredicateKey, len(terms))
	for i, t := range terms {
		k, err := KeyOfIndicator(t)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

// Dynamic is the factory of dynamic/1.
type Dynamic struct {
	kb *KnowledgeBase
}

// SetKnowledgeBase sets the knowledge base predicates are declared in.
func (d *Dynamic) SetKnowledgeBase(kb *KnowledgeBase) {
	d.kb = kb
}

func (d *Dynamic) GetPredicate(args []Term) Predicate {
	keys, err := indicators(args[0])
	if err != nil {
		return Error(err)
	}
	for _, k := range keys {
		if err := d.kb.SetDynamic(k); err != nil {
			return Error(err)
		}
	}
	return succeeded
}

func (d *Dynamic) IsRetryable() bool {
	return false
}

// Spy is the factory of spy/1 and nospy/1.
type Spy struct {
	Enabled bool

	kb *KnowledgeBase
}

// SetKnowledgeBase sets the knowledge base whose spy points are set.
func (s *Spy) SetKnowledgeBase(kb *KnowledgeBase) {
	s.kb = kb
}

func (s *Spy) GetPredicate(args []Term) Predicate {
	keys, err := indicators(args[0])
	if err != nil {
		return Error(err)
	}
	for _, k := range keys {
		s.kb.SpyPoints.SetSpyPoint(k, s.Enabled)
	}
	return succeeded
}

func (s *Spy) IsRetryable() bool {
	return false
}

// Trace is the factory of trace/0 and notrace/0.
type Trace struct {
	Enabled bool

	kb *KnowledgeBase
}

// SetKnowledgeBase sets the knowledge base whose trace switch is set.
func (t *Trace) SetKnowledgeBase(kb *KnowledgeBase) {
	t.kb = kb
}

func (t *Trace) GetPredicate([]Term) Predicate {
	t.kb.SpyPoints.SetTrace(t.Enabled)
	return succeeded
}

func (t *Trace) IsRetryable() bool {
	return false
}
