package engine

// ClauseAction is a clause compiled for dispatch. The concrete kind is chosen once
// by compileClause from the shape of the clause's head.
type ClauseAction interface {
	Model() *ClauseModel
	IsRetryable() bool
	IsAlwaysCutOnBacktrack() bool
	GetPredicate(args []Term) Predicate
}

type action struct {
	model *ClauseModel

	// body is nil for facts.
	body PredicateFactory
}

func (a *action) Model() *ClauseModel {
	return a.model
}

func (a *action) IsRetryable() bool {
	return a.body != nil && a.body.IsRetryable()
}

func (a *action) IsAlwaysCutOnBacktrack() bool {
	return a.body != nil && IsAlwaysCutOnBacktrack(a.body)
}

func (a *action) headArgs() []Term {
	return argsOf(a.model.Consequent)
}

func (a *action) callBody(body Term) Predicate {
	if a.body == nil {
		return succeeded
	}
	return a.body.GetPredicate(argsOf(body))
}

// compileClause classifies m into the action kind that matches its head
// with the least work.
func compileClause(m *ClauseModel, kb *KnowledgeBase) (ClauseAction, error) {
	a := action{model: m}
	if _, ok := m.Antecedent.(*Variable); ok {
		return &variableAntecedent{action: a, kb: kb}, nil
	}
	if !m.isFact() {
		f, err := kb.GetPreprocessedPredicateFactory(m.Antecedent)
		if err != nil {
			return nil, err
		}
		a.body = f
	}

	head, ok := m.Consequent.(*Compound)
	if !ok {
		return &zeroArgConsequentRule{action: a, immutableBody: m.Antecedent.IsImmutable()}, nil
	}

	hasVariables, hasSharedVariables, hasConcreteTerms := analyzeHead(head)
	switch {
	case !hasSharedVariables && !hasConcreteTerms:
		if m.isFact() {
			return &alwaysMatchedFact{action: a}, nil
		}
		return &mutableRule{action: a}, nil
	case !hasVariables:
		if m.isFact() {
			return &immutableFact{action: a}, nil
		}
		return &immutableConsequentRule{action: a, immutableBody: m.Antecedent.IsImmutable()}, nil
	default:
		if m.isFact() {
			return &mutableFact{action: a}, nil
		}
		return &mutableRule{action: a}, nil
	}
}

// analyzeHead reports whether any argument contains a variable, whether a variable
// occurs in more than one argument, and whether any argument is not a plain variable.
func analyzeHead(head *Compound) (hasVariables, hasSharedVariables, hasConcreteTerms bool) {
	seen := map[*Variable]int{}
	for i, arg := range head.Args {
		if v, ok := Resolve(arg).(*Variable); ok {
			hasVariables = true
			if j, ok := seen[v]; ok && j != i {
				hasSharedVariables = true
			}
			seen[v] = i
			continue
		}
		hasConcreteTerms = true
		if arg.IsImmutable() {
			continue
		}
		hasVariables = true
		for _, v := range variables(arg) {
			if j, ok := seen[v]; ok && j != i {
				hasSharedVariables = true
			}
			seen[v] = i
		}
	}
	return hasVariables, hasSharedVariables, hasConcreteTerms
}

// variables returns the unbound variables of t in depth-first order.
func variables(t Term) []*Variable {
	var ret []*Variable
	stack := []Term{t}
	for len(stack) > 0 {
		t, stack = Resolve(stack[len(stack)-1]), stack[:len(stack)-1]
		switch t := t.(type) {
		case *Variable:
			ret = append(ret, t)
		case *Compound:
			if t.ground {
				continue
			}
			for i := len(t.Args) - 1; i >= 0; i-- {
				stack = append(stack, t.Args[i])
			}
		}
	}
	return ret
}

// alwaysMatchedFact is a fact whose arguments are distinct variables.
type alwaysMatchedFact struct {
	action
}

func (a *alwaysMatchedFact) GetPredicate([]Term) Predicate {
	return succeeded
}

// immutableFact is a fact without variables. Its arguments are unified as stored.
type immutableFact struct {
	action
}

func (a *immutableFact) GetPredicate(args []Term) Predicate {
	for i, h := range a.headArgs() {
		if !args[i].Unify(h) {
			return failed
		}
	}
	return succeeded
}

// immutableConsequentRule is a rule whose head has no variables.
type immutableConsequentRule struct {
	action
	immutableBody bool
}

func (a *immutableConsequentRule) GetPredicate(args []Term) Predicate {
	for i, h := range a.headArgs() {
		if !args[i].Unify(h) {
			return failed
		}
	}
	body := a.model.Antecedent
	if !a.immutableBody {
		body = body.Copy(map[*Variable]*Variable{})
	}
	return a.callBody(body)
}

// mutableFact is a fact whose head needs fresh variables on every call.
type mutableFact struct {
	action
}

func (a *mutableFact) GetPredicate(args []Term) Predicate {
	vars := map[*Variable]*Variable{}
	for i, h := range a.headArgs() {
		if !args[i].Unify(h.Copy(vars)) {
			return failed
		}
	}
	return succeeded
}

// mutableRule is a rule whose head and body are copied together on every call.
type mutableRule struct {
	action
}

func (a *mutableRule) GetPredicate(args []Term) Predicate {
	vars := map[*Variable]*Variable{}
	for i, h := range a.headArgs() {
		if !args[i].Unify(h.Copy(vars)) {
			return failed
		}
	}
	return a.callBody(a.model.Antecedent.Copy(vars))
}

// zeroArgConsequentRule is a clause whose head is an atom.
type zeroArgConsequentRule struct {
	action
	immutableBody bool
}

func (a *zeroArgConsequentRule) GetPredicate([]Term) Predicate {
	body := a.model.Antecedent
	if !a.immutableBody {
		body = body.Copy(map[*Variable]*Variable{})
	}
	return a.callBody(body)
}

// variableAntecedent is a rule whose body is a variable. The goal to run is
// only known once the head has been unified.
type variableAntecedent struct {
	action
	kb *KnowledgeBase
}

func (a *variableAntecedent) IsRetryable() bool {
	return true
}

func (a *variableAntecedent) GetPredicate(args []Term) Predicate {
	vars := map[*Variable]*Variable{}
	for i, h := range a.headArgs() {
		if !args[i].Unify(h.Copy(vars)) {
			return failed
		}
	}
	goal := Simplify(a.model.Antecedent.Copy(vars))
	f, err := a.kb.GetPredicateFactoryFor(goal)
	if err != nil {
		return Error(err)
	}
	return &barrier{pred: f.GetPredicate(argsOf(goal))}
}

// IsMatch checks if a's head could unify with args without leaving bindings behind.
func IsMatch(a ClauseAction, args []Term) bool {
	head := argsOf(a.Model().Consequent)
	headVars, queryVars := map[*Variable]*Variable{}, map[*Variable]*Variable{}
	hs, qs := make([]Term, len(head)), make([]Term, len(head))
	ok := true
	for i := range head {
		hs[i], qs[i] = head[i].Copy(headVars), args[i].Copy(queryVars)
		if !qs[i].Unify(hs[i]) {
			ok = false
			break
		}
	}
	for i := range head {
		if hs[i] != nil {
			hs[i].Backtrack()
			qs[i].Backtrack()
		}
	}
	return ok
}
