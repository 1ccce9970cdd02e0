package engine

// conjunction is the factory of ,/2.
type conjunction struct {
	kb *KnowledgeBase
}

// flattenConjunction appends the conjuncts of t to acc. Variables are not
// looked through so that a bound variable stays a single conjunct.
func flattenConjunction(t Term, acc []Term) []Term {
	for {
		c, ok := t.(*Compound)
		if !ok || c.Functor != atomComma || len(c.Args) != 2 {
			return append(acc, t)
		}
		acc = flattenConjunction(c.Args[0], acc)
		t = c.Args[1]
	}
}

func (c *conjunction) GetPredicate(args []Term) Predicate {
	goals := flattenConjunction(Simplify(atomComma.Apply(args...)), nil)
	return newConjunctionPredicate(c.kb, goals, make([]preparedGoal, len(goals)))
}

func (c *conjunction) IsRetryable() bool {
	return true
}

// Preprocess looks up the factories of the conjuncts once.
func (c *conjunction) Preprocess(goal Term) PredicateFactory {
	goals := flattenConjunction(goal, nil)
	p := preparedConjunction{kb: c.kb, goals: make([]preparedGoal, len(goals))}
	for i, g := range goals {
		p.goals[i] = prepareGoal(c.kb, g)
	}
	return &p
}

type preparedConjunction struct {
	kb    *KnowledgeBase
	goals []preparedGoal
}

func (c *preparedConjunction) GetPredicate(args []Term) Predicate {
	goals := flattenConjunction(atomComma.Apply(args...), nil)
	if len(goals) != len(c.goals) {
		return newConjunctionPredicate(c.kb, goals, make([]preparedGoal, len(goals)))
	}
	return newConjunctionPredicate(c.kb, goals, c.goals)
}

func (c *preparedConjunction) IsRetryable() bool {
	for _, g := range c.goals {
		if g.isRetryable() {
			return true
		}
	}
	return false
}

// IsAlwaysCutOnBacktrack checks if backtracking into the conjunction reaches a
// cut before any conjunct that could offer another solution.
func (c *preparedConjunction) IsAlwaysCutOnBacktrack() bool {
	for i := len(c.goals) - 1; i >= 0; i-- {
		g := c.goals[i]
		switch {
		case g.factory == nil:
			return false
		case IsAlwaysCutOnBacktrack(g.factory):
			return true
		case g.factory.IsRetryable():
			return false
		}
	}
	return false
}

// preparedGoal is a goal whose factory was looked up before it is called.
// A nil factory is looked up when the goal is called.
type preparedGoal struct {
	factory PredicateFactory

	// variable is set for a goal that is a variable in the source. It is run by call/1.
	variable bool
}

func prepareGoal(kb *KnowledgeBase, goal Term) preparedGoal {
	if _, ok := goal.(*Variable); ok {
		return preparedGoal{factory: kb.GetPredicateFactory(PredicateKey{Name: atomCall, Arity: 1}), variable: true}
	}
	f, err := kb.GetPreprocessedPredicateFactory(goal)
	if err != nil {
		return preparedGoal{}
	}
	return preparedGoal{factory: f}
}

func (g preparedGoal) isRetryable() bool {
	return g.factory == nil || g.factory.IsRetryable()
}

// call returns the predicate for goal with its arguments simplified.
func (g preparedGoal) call(kb *KnowledgeBase, goal Term) (Predicate, []Term) {
	goal = Simplify(goal)
	if g.variable {
		args := []Term{goal}
		return g.factory.GetPredicate(args), args
	}
	args := argsOf(goal)
	if g.factory != nil {
		return g.factory.GetPredicate(args), args
	}
	return callGoal(kb, goal), args
}

// callGoal returns the predicate for a simplified goal.
func callGoal(kb *KnowledgeBase, goal Term) Predicate {
	if v, ok := goal.(*Variable); ok {
		return Error(InstantiationError(v))
	}
	f, err := kb.GetPredicateFactoryFor(goal)
	if err != nil {
		return Error(err)
	}
	return f.GetPredicate(argsOf(goal))
}

// conjunctionPredicate evaluates conjuncts left to right and backtracks into the
// most recent conjunct that could offer another solution.
type conjunctionPredicate struct {
	kb      *KnowledgeBase
	goals   []Term
	prepped []preparedGoal

	preds []Predicate
	args  [][]Term

	started bool
	done    bool
}

func newConjunctionPredicate(kb *KnowledgeBase, goals []Term, prepped []preparedGoal) *conjunctionPredicate {
	return &conjunctionPredicate{
		kb:      kb,
		goals:   goals,
		prepped: prepped,
		preds:   make([]Predicate, len(goals)),
		args:    make([][]Term, len(goals)),
	}
}

func (p *conjunctionPredicate) Evaluate() (bool, error) {
	if p.done {
		return false, nil
	}

	i := 0
	retry := false
	if p.started {
		i = len(p.goals) - 1
		if i = p.backtrackFrom(i); i < 0 {
			return p.fail()
		}
		retry = true
	}
	p.started = true

	for i < len(p.goals) {
		if !retry {
			p.preds[i], p.args[i] = p.prepped[i].call(p.kb, p.goals[i])
		}
		retry = false

		ok, err := p.preds[i].Evaluate()
		if err != nil {
			p.done = true
			return false, err
		}
		if ok {
			i++
			continue
		}

		backtrackAll(p.args[i])
		if i = p.backtrackFrom(i - 1); i < 0 {
			return p.fail()
		}
		retry = true
	}
	return true, nil
}

// backtrackFrom returns the index of the latest conjunct up to i that could
// succeed again, undoing the bindings of the conjuncts after it.
func (p *conjunctionPredicate) backtrackFrom(i int) int {
	for ; i >= 0; i-- {
		if p.preds[i].CouldReevaluationSucceed() {
			return i
		}
		backtrackAll(p.args[i])
	}
	return i
}

func (p *conjunctionPredicate) fail() (bool, error) {
	p.done = true
	return false, nil
}

func (p *conjunctionPredicate) CouldReevaluationSucceed() bool {
	if p.done {
		return false
	}
	if !p.started {
		return true
	}
	for _, pred := range p.preds {
		if pred.CouldReevaluationSucceed() {
			return true
		}
	}
	return false
}
