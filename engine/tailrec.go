package engine

// tailRecursiveFactory evaluates a predicate of two clauses whose second clause
// ends with a call to itself, such as:
//
//	prefix([], Ys).
//	prefix([X|Xs], [X|Ys]) :- prefix(Xs, Ys).
//
// Instead of nesting a call per recursion it loops, replacing the arguments of
// the call with the arguments of the recursive call.
type tailRecursiveFactory struct {
	key PredicateKey
	spy *SpyPoint

	first, second ClauseAction

	// conjuncts is the body of the second clause. The last one is the recursive call.
	conjuncts []Term
	factories []PredicateFactory

	tailRecursiveArgs          []bool
	singleResultIfArgImmutable []bool
}

// newTailRecursiveFactory returns a factory for actions if they have the
// tail recursive shape. Only goals that yield at most one answer may appear in
// the first clause's body and before the recursive call in the second one.
func newTailRecursiveFactory(kb *KnowledgeBase, key PredicateKey, spy *SpyPoint, actions []ClauseAction) (*tailRecursiveFactory, bool) {
	if len(actions) != 2 || key.Arity == 0 {
		return nil, false
	}
	first, second := actions[0].Model(), actions[1].Model()
	if _, ok := first.Antecedent.(*Variable); ok {
		return nil, false
	}
	for _, c := range conjunctsOf(first.Antecedent) {
		if !kb.IsSingleAnswer(c) {
			return nil, false
		}
	}

	conjuncts := conjunctsOf(second.Antecedent)
	if len(conjuncts) == 0 {
		return nil, false
	}
	call, ok := conjuncts[len(conjuncts)-1].(*Compound)
	if !ok || call.Key() != key {
		return nil, false
	}
	factories := make([]PredicateFactory, len(conjuncts)-1)
	for i, c := range conjuncts[:len(conjuncts)-1] {
		if !kb.IsSingleAnswer(c) {
			return nil, false
		}
		f, err := kb.GetPreprocessedPredicateFactory(c)
		if err != nil {
			return nil, false
		}
		factories[i] = f
	}

	f := tailRecursiveFactory{
		key:                        key,
		spy:                        spy,
		first:                      actions[0],
		second:                     actions[1],
		conjuncts:                  conjuncts,
		factories:                  factories,
		tailRecursiveArgs:          make([]bool, key.Arity),
		singleResultIfArgImmutable: make([]bool, key.Arity),
	}
	firstHead, secondHead := argsOf(first.Consequent), argsOf(second.Consequent)
	for i := range secondHead {
		l, ok := secondHead[i].(*Compound)
		if !ok || !l.isList() || !StrictEquality(l.Args[1], call.Args[i]) {
			continue
		}
		f.tailRecursiveArgs[i] = true
		f.singleResultIfArgImmutable[i] = firstHead[i] == EmptyList
	}
	return &f, true
}

// conjunctsOf flattens a body into its conjuncts. true has none.
func conjunctsOf(body Term) []Term {
	if body == atomTrue {
		return nil
	}
	return flattenConjunction(body, nil)
}

func (f *tailRecursiveFactory) GetPredicate(args []Term) Predicate {
	p := tailRecursivePredicate{
		factory: f,
		debug:   f.spy.Enabled(),
	}
	p.query = simplifyAll(args)
	p.args = p.query
	if !f.isSingleResult(p.args) {
		return &p
	}
	ok, err := p.Evaluate()
	if err != nil {
		return Error(err)
	}
	return Bool(ok)
}

func (f *tailRecursiveFactory) isSingleResult(args []Term) bool {
	for i, ok := range f.singleResultIfArgImmutable {
		if ok && args[i].IsImmutable() {
			return true
		}
	}
	return false
}

func (f *tailRecursiveFactory) IsRetryable() bool {
	return true
}

// tailRecursivePredicate runs one call of a tail recursive predicate. Each
// recursion is a generation with its own arguments. A generation first tries
// the first clause, which is a solution, and then the second clause, which
// starts the next generation.
type tailRecursivePredicate struct {
	factory *tailRecursiveFactory
	debug   bool

	query []Term
	args  []Term

	// generations holds the arguments of every generation while tracing so
	// that the ports of the nested calls can be reported.
	generations [][]Term

	started  bool
	retrying bool
	done     bool
}

func (p *tailRecursivePredicate) Evaluate() (bool, error) {
	if p.done {
		return false, nil
	}
	if p.started {
		p.redo()
	} else {
		p.started = true
		p.call()
	}

	for {
		if p.retrying {
			p.retrying = false
			backtrackAll(p.args)
		} else {
			ok, err := p.factory.first.GetPredicate(p.args).Evaluate()
			if err != nil {
				return p.error(err, p.factory.first)
			}
			if ok {
				p.retrying = true
				p.exit()
				return true, nil
			}
			backtrackAll(p.args)
		}

		next, ok, err := p.recurse()
		if err != nil {
			return p.error(err, p.factory.second)
		}
		if !ok {
			p.done = true
			backtrackAll(p.query)
			p.fail()
			return false, nil
		}
		tailRecursiveGenerations.Inc()
		p.args = next
		p.call()
	}
}

// recurse unifies the arguments with the head of the second clause, runs the
// body up to the recursive call and returns the arguments of the recursive call.
func (p *tailRecursivePredicate) recurse() ([]Term, bool, error) {
	f := p.factory
	m := f.second.Model()
	vars := map[*Variable]*Variable{}
	for i, h := range argsOf(m.Consequent) {
		if !p.args[i].Unify(h.Copy(vars)) {
			backtrackAll(p.args)
			return nil, false, nil
		}
	}
	last := len(f.conjuncts) - 1
	for i, c := range f.conjuncts[:last] {
		goal := Simplify(c.Copy(vars))
		ok, err := f.factories[i].GetPredicate(argsOf(goal)).Evaluate()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			backtrackAll(p.args)
			return nil, false, nil
		}
	}
	return argsOf(Simplify(f.conjuncts[last].Copy(vars))), true, nil
}

func (p *tailRecursivePredicate) error(err error, a ClauseAction) (bool, error) {
	p.done = true
	backtrackAll(p.query)
	return false, wrapEvaluationError(err, p.factory.key, a.Model())
}

func (p *tailRecursivePredicate) CouldReevaluationSucceed() bool {
	return !p.done
}

func (p *tailRecursivePredicate) call() {
	if !p.debug {
		return
	}
	p.generations = append(p.generations, p.args)
	p.factory.spy.LogCall(p.args)
}

func (p *tailRecursivePredicate) redo() {
	if !p.debug {
		return
	}
	for _, args := range p.generations {
		p.factory.spy.LogRedo(args)
	}
}

func (p *tailRecursivePredicate) exit() {
	if !p.debug {
		return
	}
	clause := p.factory.first.Model()
	for i := len(p.generations) - 1; i >= 0; i-- {
		p.factory.spy.LogExit(p.generations[i], clause)
		clause = p.factory.second.Model()
	}
}

func (p *tailRecursivePredicate) fail() {
	if !p.debug {
		return
	}
	for i := len(p.generations) - 1; i >= 0; i-- {
		backtrackAll(p.generations[i])
		p.factory.spy.LogFail(p.generations[i])
	}
}
