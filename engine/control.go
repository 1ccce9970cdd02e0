package engine

import "errors"

// registerControl defines the control constructs. They are part of every
// knowledge base since clause bodies are compiled against them.
func registerControl(kb *KnowledgeBase) {
	add := func(name Atom, arity int, f PredicateFactory) {
		if err := kb.AddPredicateFactory(PredicateKey{Name: name, Arity: arity}, f); err != nil {
			panic(err)
		}
	}

	add(atomTrue, 0, Deterministic(func([]Term) (bool, error) { return true, nil }))
	add(atomFail, 0, neverSucceeds{})
	add(atomFalse, 0, neverSucceeds{})
	add(atomCut, 0, cutFactory{})
	add(atomComma, 2, &conjunction{kb: kb})
	add(atomSemicolon, 2, &disjunction{kb: kb})
	add(atomThen, 2, &ifThenElse{kb: kb})
	for n := 1; n <= 8; n++ {
		add(atomCall, n, &callFactory{kb: kb})
	}
	negation := Deterministic(func(args []Term) (bool, error) {
		g := Simplify(args[0])
		ok, err := once(kb, g)
		if ok {
			g.Backtrack()
		}
		return !ok, err
	})
	add(atomNegation, 1, negation)
	add("not", 1, negation)
	add("once", 1, Deterministic(func(args []Term) (bool, error) {
		return once(kb, args[0])
	}))
	add("ignore", 1, Deterministic(func(args []Term) (bool, error) {
		_, err := once(kb, args[0])
		return true, err
	}))
	add("findall", 3, Deterministic(func(args []Term) (bool, error) {
		return findAll(kb, args[0], args[1], args[2])
	}))
	add("forall", 2, Deterministic(func(args []Term) (bool, error) {
		return forAll(kb, args[0], args[1])
	}))
	add("repeat", 0, Nondeterministic(func([]Term) Predicate {
		return &generator{next: func() (bool, error) { return true, nil }}
	}))
	add("repeat", 1, Nondeterministic(repeatN))
}

// barrier stops a cut from reaching the evaluators outside of it.
type barrier struct {
	pred Predicate
	done bool
}

func (b *barrier) Evaluate() (bool, error) {
	if b.done {
		return false, nil
	}
	ok, err := b.pred.Evaluate()
	if errors.Is(err, ErrCut) {
		b.done = true
		return false, nil
	}
	return ok, err
}

func (b *barrier) CouldReevaluationSucceed() bool {
	return !b.done && b.pred.CouldReevaluationSucceed()
}

type cutFactory struct{}

func (cutFactory) GetPredicate([]Term) Predicate {
	return &cutPredicate{}
}

func (cutFactory) IsRetryable() bool {
	return true
}

func (cutFactory) IsAlwaysCutOnBacktrack() bool {
	return true
}

// cutPredicate succeeds once. Asking it for another solution returns ErrCut.
type cutPredicate struct {
	evaluated bool
}

func (c *cutPredicate) Evaluate() (bool, error) {
	if c.evaluated {
		return false, ErrCut
	}
	c.evaluated = true
	return true, nil
}

func (c *cutPredicate) CouldReevaluationSucceed() bool {
	return true
}

// callFactory is the factory of call/1 to call/8. Extra arguments are appended
// to the goal.
type callFactory struct {
	kb *KnowledgeBase
}

func (f *callFactory) GetPredicate(args []Term) Predicate {
	goal, err := addArgs(Simplify(args[0]), simplifyAll(args[1:]))
	if err != nil {
		return Error(err)
	}
	return &barrier{pred: callGoal(f.kb, goal)}
}

func (f *callFactory) IsRetryable() bool {
	return true
}

func addArgs(goal Term, extra []Term) (Term, error) {
	if len(extra) == 0 {
		return goal, nil
	}
	switch g := goal.(type) {
	case *Variable:
		return nil, InstantiationError(g)
	case Atom:
		return g.Apply(extra...), nil
	case *Compound:
		args := make([]Term, 0, len(g.Args)+len(extra))
		args = append(args, g.Args...)
		return g.Functor.Apply(append(args, extra...)...), nil
	default:
		return nil, TypeError("an atom or a predicate", g)
	}
}

// Call returns a predicate evaluating goal as call/1 does.
func (kb *KnowledgeBase) Call(goal Term) Predicate {
	return &barrier{pred: callGoal(kb, Simplify(goal))}
}

// Once evaluates goal as once/1 does.
func (kb *KnowledgeBase) Once(goal Term) (bool, error) {
	return once(kb, goal)
}

// once evaluates goal up to its first solution. The bindings of the solution
// are kept. A cut inside goal is local to it.
func once(kb *KnowledgeBase, goal Term) (bool, error) {
	goal = Simplify(goal)
	b := barrier{pred: callGoal(kb, goal)}
	ok, err := b.Evaluate()
	if err != nil || !ok {
		goal.Backtrack()
	}
	return ok, err
}

// solutions evaluates goal and calls f after every solution until f returns
// false. The bindings of goal are undone afterwards.
func solutions(kb *KnowledgeBase, goal Term, f func() bool) error {
	goal = Simplify(goal)
	defer goal.Backtrack()
	b := barrier{pred: callGoal(kb, goal)}
	for {
		ok, err := b.Evaluate()
		if err != nil {
			return err
		}
		if !ok || !f() || !b.CouldReevaluationSucceed() {
			return nil
		}
	}
}

func findAll(kb *KnowledgeBase, template, goal, instances Term) (bool, error) {
	var results []Term
	template = Simplify(template)
	if err := solutions(kb, goal, func() bool {
		results = append(results, Simplify(template).Copy(map[*Variable]*Variable{}))
		return true
	}); err != nil {
		return false, err
	}
	return instances.Unify(List(results...)), nil
}

func forAll(kb *KnowledgeBase, cond, action Term) (bool, error) {
	ok := true
	var actionErr error
	if err := solutions(kb, cond, func() bool {
		g := Simplify(action)
		ok, actionErr = once(kb, g)
		if ok {
			g.Backtrack()
		}
		return ok && actionErr == nil
	}); err != nil {
		return false, err
	}
	return ok, actionErr
}

func repeatN(args []Term) Predicate {
	n, ok := Resolve(args[0]).(Integer)
	if !ok {
		return Error(TypeError("an integer", args[0]))
	}
	var i Integer
	return &generator{next: func() (bool, error) {
		i++
		return i <= n, nil
	}}
}

// disjunction is the factory of ;/2. A left branch of the form C -> T makes it
// an if-then-else.
type disjunction struct {
	kb *KnowledgeBase
}

func (d *disjunction) GetPredicate(args []Term) Predicate {
	args = simplifyAll(args)
	if c, ok := args[0].(*Compound); ok && c.Functor == atomThen && len(c.Args) == 2 {
		return &ifThenElsePredicate{kb: d.kb, args: []Term{c.Args[0], c.Args[1], args[1]}, els: true}
	}
	return &disjunctionPredicate{kb: d.kb, args: args}
}

func (d *disjunction) IsRetryable() bool {
	return true
}

func (d *disjunction) Preprocess(goal Term) PredicateFactory {
	args := argsOf(goal)
	p := preparedDisjunction{d: d, right: prepareGoal(d.kb, args[1])}
	if c, ok := args[0].(*Compound); ok && c.Functor == atomThen && len(c.Args) == 2 {
		p.ite = &preparedIfThenElse{
			kb:   d.kb,
			els:  true,
			goal: [3]preparedGoal{prepareGoal(d.kb, c.Args[0]), prepareGoal(d.kb, c.Args[1]), p.right},
		}
		return &p
	}
	p.left = prepareGoal(d.kb, args[0])
	return &p
}

type preparedDisjunction struct {
	d           *disjunction
	left, right preparedGoal
	ite         *preparedIfThenElse
}

func (p *preparedDisjunction) GetPredicate(args []Term) Predicate {
	if p.ite != nil {
		if c, ok := args[0].(*Compound); ok && c.Functor == atomThen && len(c.Args) == 2 {
			return p.ite.GetPredicate([]Term{c.Args[0], c.Args[1], args[1]})
		}
		return p.d.GetPredicate(args)
	}
	return &disjunctionPredicate{kb: p.d.kb, args: simplifyAll(args), goals: [2]preparedGoal{p.left, p.right}}
}

func (p *preparedDisjunction) IsRetryable() bool {
	if p.ite != nil {
		return p.ite.IsRetryable()
	}
	return true
}

type disjunctionPredicate struct {
	kb    *KnowledgeBase
	args  []Term
	goals [2]preparedGoal

	pred  Predicate
	right bool
	done  bool
}

func (p *disjunctionPredicate) Evaluate() (bool, error) {
	if p.done {
		return false, nil
	}
	if p.pred == nil {
		p.pred, _ = p.goals[0].call(p.kb, p.args[0])
	}
	for {
		ok, err := p.pred.Evaluate()
		if err != nil {
			p.done = true
			return false, err
		}
		if ok {
			return true, nil
		}
		backtrackAll(p.args)
		if p.right {
			p.done = true
			return false, nil
		}
		p.right = true
		p.pred, _ = p.goals[1].call(p.kb, p.args[1])
	}
}

func (p *disjunctionPredicate) CouldReevaluationSucceed() bool {
	if p.done {
		return false
	}
	return p.pred == nil || !p.right || p.pred.CouldReevaluationSucceed()
}

// ifThenElse is the factory of ->/2.
type ifThenElse struct {
	kb *KnowledgeBase
}

func (f *ifThenElse) GetPredicate(args []Term) Predicate {
	return &ifThenElsePredicate{kb: f.kb, args: simplifyAll(args)}
}

func (f *ifThenElse) IsRetryable() bool {
	return true
}

func (f *ifThenElse) Preprocess(goal Term) PredicateFactory {
	args := argsOf(goal)
	return &preparedIfThenElse{
		kb:   f.kb,
		goal: [3]preparedGoal{prepareGoal(f.kb, args[0]), prepareGoal(f.kb, args[1])},
	}
}

type preparedIfThenElse struct {
	kb   *KnowledgeBase
	els  bool
	goal [3]preparedGoal
}

func (p *preparedIfThenElse) GetPredicate(args []Term) Predicate {
	return &ifThenElsePredicate{kb: p.kb, args: simplifyAll(args), els: p.els, goal: p.goal}
}

func (p *preparedIfThenElse) IsRetryable() bool {
	if p.els && p.goal[2].isRetryable() {
		return true
	}
	return p.goal[1].isRetryable()
}

// ifThenElsePredicate runs the condition up to its first solution and then
// either the then branch or the else branch. A cut in the condition is local
// to it. A cut in a branch cuts the clause.
type ifThenElsePredicate struct {
	kb   *KnowledgeBase
	args []Term
	els  bool
	goal [3]preparedGoal

	pred Predicate
	done bool
}

func (p *ifThenElsePredicate) Evaluate() (bool, error) {
	if p.done {
		return false, nil
	}
	if p.pred == nil {
		cond, _ := p.goal[0].call(p.kb, p.args[0])
		ok, err := (&barrier{pred: cond}).Evaluate()
		if err != nil {
			p.done = true
			return false, err
		}
		switch {
		case ok:
			p.pred, _ = p.goal[1].call(p.kb, p.args[1])
		case p.els:
			backtrackAll(p.args)
			p.pred, _ = p.goal[2].call(p.kb, p.args[2])
		default:
			p.done = true
			return false, nil
		}
	}
	ok, err := p.pred.Evaluate()
	if err != nil || !ok {
		p.done = true
	}
	return ok, err
}

func (p *ifThenElsePredicate) CouldReevaluationSucceed() bool {
	return !p.done && (p.pred == nil || p.pred.CouldReevaluationSucceed())
}
