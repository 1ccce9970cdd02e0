package engine

import "errors"

// clauseSource yields the clause actions to try for one call in order.
type clauseSource interface {
	next() (ClauseAction, bool)
	hasNext() bool
}

type sliceSource struct {
	actions []ClauseAction
	i       int
}

func (s *sliceSource) next() (ClauseAction, bool) {
	if s.i >= len(s.actions) {
		return nil, false
	}
	a := s.actions[s.i]
	s.i++
	return a, true
}

func (s *sliceSource) hasNext() bool {
	return s.i < len(s.actions)
}

// interpretedPredicate tries the clauses of a user-defined predicate one after
// another against one set of arguments, resuming the current clause before
// moving on to the next one.
type interpretedPredicate struct {
	key     PredicateKey
	spy     *SpyPoint
	debug   bool
	args    []Term
	clauses clauseSource

	current ClauseAction
	pred    Predicate
	retry   bool
	started bool
	done    bool
}

func newInterpretedPredicate(key PredicateKey, spy *SpyPoint, args []Term, clauses clauseSource) *interpretedPredicate {
	return &interpretedPredicate{
		key:     key,
		spy:     spy,
		debug:   spy.Enabled(),
		args:    simplifyAll(args),
		clauses: clauses,
	}
}

func (p *interpretedPredicate) Evaluate() (bool, error) {
	if p.done {
		return false, nil
	}

	if p.started {
		if p.debug {
			p.spy.LogRedo(p.args)
		}
	} else {
		p.started = true
		if p.debug {
			p.spy.LogCall(p.args)
		}
	}

	switch {
	case p.retry:
		p.retry = false
		ok, err := p.pred.Evaluate()
		if err != nil {
			return p.error(err)
		}
		if ok {
			return p.exit(), nil
		}
		backtrackAll(p.args)
	case p.current != nil:
		backtrackAll(p.args)
	}

	for {
		a, ok := p.clauses.next()
		if !ok {
			break
		}
		p.current = a
		p.pred = a.GetPredicate(p.args)
		ok, err := p.pred.Evaluate()
		if err != nil {
			return p.error(err)
		}
		if ok {
			return p.exit(), nil
		}
		backtrackAll(p.args)
	}

	p.fail()
	return false, nil
}

func (p *interpretedPredicate) exit() bool {
	p.retry = p.pred.CouldReevaluationSucceed()
	if p.debug {
		p.spy.LogExit(p.args, p.current.Model())
	}
	return true
}

func (p *interpretedPredicate) fail() {
	p.done = true
	if p.debug {
		p.spy.LogFail(p.args)
	}
}

// error stops the evaluation. A cut ends it as a plain failure.
func (p *interpretedPredicate) error(err error) (bool, error) {
	backtrackAll(p.args)
	p.retry = false
	if errors.Is(err, ErrCut) {
		p.fail()
		return false, nil
	}
	p.done = true
	return false, wrapEvaluationError(err, p.key, p.current.Model())
}

func (p *interpretedPredicate) CouldReevaluationSucceed() bool {
	if p.done {
		return false
	}
	if p.current == nil {
		return true
	}
	return !p.current.IsAlwaysCutOnBacktrack() && (p.retry || p.clauses.hasNext())
}
