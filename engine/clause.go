package engine

// ClauseModel is a clause as consulted: Consequent :- Antecedent.
// Antecedent is true for facts. It is never modified once created.
type ClauseModel struct {
	Original   Term
	Consequent Term
	Antecedent Term
}

// NewClauseModel creates a clause model from a fact, a rule, or a grammar rule.
func NewClauseModel(t Term) (*ClauseModel, error) {
	original := t
	c, ok := Resolve(t).(*Compound)
	if ok && c.Functor == atomArrow && len(c.Args) == 2 {
		r, err := expandDCG(c)
		if err != nil {
			return nil, err
		}
		c, t = r, r
	}

	m := ClauseModel{Original: original, Consequent: t, Antecedent: atomTrue}
	if ok && c.Functor == atomIf && len(c.Args) == 2 {
		m.Consequent, m.Antecedent = Resolve(c.Args[0]), Resolve(c.Args[1])
	}
	switch m.Consequent.(type) {
	case Atom, *Compound:
		return &m, nil
	default:
		return nil, TypeError("an atom or a predicate", m.Consequent)
	}
}

// Key returns the key of the predicate the clause belongs to.
func (m *ClauseModel) Key() PredicateKey {
	k, _ := KeyOf(m.Consequent)
	return k
}

// Copy returns a copy of the clause with fresh variables shared by head and body.
func (m *ClauseModel) Copy() *ClauseModel {
	vars := map[*Variable]*Variable{}
	return &ClauseModel{
		Original:   m.Original.Copy(vars),
		Consequent: m.Consequent.Copy(vars),
		Antecedent: m.Antecedent.Copy(vars),
	}
}

// Term returns the clause as Consequent :- Antecedent, or Consequent alone for facts.
func (m *ClauseModel) Term() Term {
	if m.Antecedent == atomTrue {
		return m.Consequent
	}
	return atomIf.Apply(m.Consequent, m.Antecedent)
}

func (m *ClauseModel) String() string {
	return m.Original.String()
}

func (m *ClauseModel) isFact() bool {
	return m.Antecedent == atomTrue
}
