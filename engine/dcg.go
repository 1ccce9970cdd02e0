package engine

import "errors"

// based on: https://www.complang.tuwien.ac.at/ulrich/iso-prolog/dcgs/dcgsdin150408.pdf

var errNotGrammarControl = errors.New("not a grammar control construct")

// expandDCG translates a grammar rule Head --> Body into a clause.
func expandDCG(rule *Compound) (*Compound, error) {
	s0, s := NewVariable(""), NewVariable("")
	head := Resolve(rule.Args[0])
	if c, ok := head.(*Compound); ok && c.Functor == atomComma && len(c.Args) == 2 {
		s1 := NewVariable("")
		h, err := dcgNonTerminal(c.Args[0], s0, s)
		if err != nil {
			return nil, err
		}
		goal, err := dcgBody(rule.Args[1], s0, s1)
		if err != nil {
			return nil, err
		}
		pushback, err := dcgTerminals(c.Args[1], s, s1)
		if err != nil {
			return nil, err
		}
		return NewCompound(atomIf, h, atomComma.Apply(goal, pushback)), nil
	}

	h, err := dcgNonTerminal(head, s0, s)
	if err != nil {
		return nil, err
	}
	body, err := dcgBody(rule.Args[1], s0, s)
	if err != nil {
		return nil, err
	}
	return NewCompound(atomIf, h, body), nil
}

func dcgNonTerminal(t, list, rest Term) (Term, error) {
	switch t := Resolve(t).(type) {
	case Atom:
		return t.Apply(list, rest), nil
	case *Compound:
		args := make([]Term, 0, len(t.Args)+2)
		args = append(args, t.Args...)
		return t.Functor.Apply(append(args, list, rest)...), nil
	case *Variable:
		return nil, InstantiationError(t)
	default:
		return nil, TypeError("an atom or a predicate", t)
	}
}

func dcgTerminals(terminals, list, rest Term) (Term, error) {
	elems, err := Slice(terminals)
	if err != nil {
		return nil, err
	}
	return atomEqual.Apply(list, PartialList(rest, elems...)), nil
}

func dcgBody(t, list, rest Term) (Term, error) {
	t = Resolve(t)
	if v, ok := t.(*Variable); ok {
		return atomPhrase.Apply(v, list, rest), nil
	}
	g, err := dcgControl(t, list, rest)
	if errors.Is(err, errNotGrammarControl) {
		return dcgNonTerminal(t, list, rest)
	}
	return g, err
}

// dcgControl translates the grammar control constructs and terminal lists.
func dcgControl(t, list, rest Term) (Term, error) {
	t = Resolve(t)
	if t == EmptyList {
		return atomEqual.Apply(list, rest), nil
	}
	key, err := KeyOf(t)
	if err != nil {
		return nil, err
	}
	args := argsOf(t)
	switch key {
	case PredicateKey{Name: atomDot, Arity: 2}:
		return dcgTerminals(t, list, rest)
	case PredicateKey{Name: atomComma, Arity: 2}:
		mid := NewVariable("")
		first, err := dcgBody(args[0], list, mid)
		if err != nil {
			return nil, err
		}
		second, err := dcgBody(args[1], mid, rest)
		if err != nil {
			return nil, err
		}
		return atomComma.Apply(first, second), nil
	case PredicateKey{Name: atomSemicolon, Arity: 2}, PredicateKey{Name: atomBar, Arity: 2}:
		translate := dcgBody
		if c, ok := Resolve(args[0]).(*Compound); ok && c.Functor == atomThen && len(c.Args) == 2 {
			translate = dcgControl
		}
		either, err := translate(args[0], list, rest)
		if err != nil {
			return nil, err
		}
		or, err := dcgBody(args[1], list, rest)
		if err != nil {
			return nil, err
		}
		return atomSemicolon.Apply(either, or), nil
	case PredicateKey{Name: atomThen, Arity: 2}:
		mid := NewVariable("")
		cond, err := dcgBody(args[0], list, mid)
		if err != nil {
			return nil, err
		}
		then, err := dcgBody(args[1], mid, rest)
		if err != nil {
			return nil, err
		}
		return atomThen.Apply(cond, then), nil
	case PredicateKey{Name: atomEmptyBlock, Arity: 1}:
		return atomComma.Apply(args[0], atomEqual.Apply(list, rest)), nil
	case PredicateKey{Name: atomCut}:
		return atomComma.Apply(atomCut, atomEqual.Apply(list, rest)), nil
	case PredicateKey{Name: atomNegation, Arity: 1}:
		g, err := dcgBody(args[0], list, NewVariable(""))
		if err != nil {
			return nil, err
		}
		return atomComma.Apply(atomNegation.Apply(g), atomEqual.Apply(list, rest)), nil
	case PredicateKey{Name: atomCall, Arity: 1}:
		return atomCall.Apply(args[0], list, rest), nil
	case PredicateKey{Name: atomPhrase, Arity: 1}:
		return atomPhrase.Apply(args[0], list, rest), nil
	default:
		return nil, errNotGrammarControl
	}
}

// Phrase is the factory of phrase/2 and phrase/3. phrase(G, L) is phrase(G, L, []).
type Phrase struct {
	kb *KnowledgeBase
}

// SetKnowledgeBase sets the knowledge base the grammar rules are looked up in.
func (p *Phrase) SetKnowledgeBase(kb *KnowledgeBase) {
	p.kb = kb
}

func (p *Phrase) GetPredicate(args []Term) Predicate {
	rest := EmptyList
	if len(args) == 3 {
		rest = args[2]
	}
	body := Simplify(args[0])
	if v, ok := body.(*Variable); ok {
		return Error(InstantiationError(v))
	}
	goal, err := dcgBody(body, args[1], rest)
	if err != nil {
		return Error(err)
	}
	return &barrier{pred: callGoal(p.kb, Simplify(goal))}
}

func (p *Phrase) IsRetryable() bool {
	return true
}
