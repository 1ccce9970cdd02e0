package prolog

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/ichiban/resolve/config"
	"github.com/ichiban/resolve/engine"
	"github.com/ichiban/resolve/syntax"
)

// Interpreter is a Prolog interpreter. It reads programs and queries with its
// operator table and resolves them against its knowledge base.
type Interpreter struct {
	KB        *engine.KnowledgeBase
	Operators *syntax.Operators

	out io.Writer
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithConfig applies the engine settings of cfg. Files to consult are not read.
func WithConfig(cfg *config.Config) Option {
	return func(i *Interpreter) {
		i.KB.Unknown = cfg.UnknownAction()
		i.KB.IndexCacheSize = cfg.IndexCacheSize
		i.KB.SpyPoints.SetTrace(cfg.Trace)
		for _, k := range cfg.SpyKeys() {
			i.KB.SpyPoints.SetSpyPoint(k, true)
		}
	}
}

// WithListener reports the ports of traced predicates and warnings to l.
func WithListener(l engine.Listener) Option {
	return func(i *Interpreter) {
		i.KB.SpyPoints.SetListener(l)
	}
}

// New creates a new Prolog interpreter with predefined predicates/operators.
// Output predicates write to out.
func New(out io.Writer, opts ...Option) *Interpreter {
	i := Interpreter{
		KB:        engine.NewKnowledgeBase(),
		Operators: syntax.DefaultOperators(),
		out:       out,
	}

	// Directives
	i.register("dynamic", 1, &engine.Dynamic{})
	i.register("op", 3, engine.Deterministic(i.op))
	i.register("consult", 1, engine.Deterministic(i.consult))

	// Term unification and comparison
	i.register("=", 2, engine.Deterministic(engine.Unification))
	i.register(`\=`, 2, engine.Deterministic(engine.NotUnifiable))
	i.register("==", 2, engine.Deterministic(engine.Identical))
	i.register(`\==`, 2, engine.Deterministic(engine.NotIdentical))

	// Type testing
	i.register("var", 1, engine.IsVar)
	i.register("nonvar", 1, engine.IsNonVar)
	i.register("atom", 1, engine.IsAtom)
	i.register("number", 1, engine.IsNumber)
	i.register("integer", 1, engine.IsInteger)
	i.register("float", 1, engine.IsFloat)
	i.register("atomic", 1, engine.IsAtomic)
	i.register("compound", 1, engine.IsCompound)
	i.register("is_list", 1, engine.IsList)

	// Term creation and decomposition
	i.register("functor", 3, engine.Deterministic(engine.Functor))
	i.register("arg", 3, engine.Deterministic(engine.Arg))
	i.register("=..", 2, engine.Deterministic(engine.Univ))
	i.register("copy_term", 2, engine.Deterministic(engine.CopyTerm))
	i.register("length", 2, engine.Nondeterministic(engine.Length))
	i.register("between", 3, engine.Nondeterministic(engine.Between))

	// Arithmetic evaluation and comparison
	i.register("is", 2, engine.Deterministic(engine.Is))
	i.register("=:=", 2, engine.NumberEqual)
	i.register(`=\=`, 2, engine.NumberNotEqual)
	i.register("<", 2, engine.LessThan)
	i.register("=<", 2, engine.LessThanOrEqual)
	i.register(">", 2, engine.GreaterThan)
	i.register(">=", 2, engine.GreaterThanOrEqual)

	// Clause creation, destruction, and retrieval
	i.register("asserta", 1, &engine.Assert{First: true})
	i.register("assertz", 1, &engine.Assert{})
	i.register("assert", 1, &engine.Assert{})
	i.register("retract", 1, &engine.Retract{})
	i.register("clause", 2, &engine.Clause{})

	// Debugging
	i.register("spy", 1, &engine.Spy{Enabled: true})
	i.register("nospy", 1, &engine.Spy{})
	i.register("trace", 0, &engine.Trace{Enabled: true})
	i.register("notrace", 0, &engine.Trace{})

	// Output
	i.register("write", 1, engine.Write(out))
	i.register("writeln", 1, engine.Writeln(out))
	i.register("nl", 0, engine.Nl(out))

	// Grammar rules
	i.register("phrase", 2, &engine.Phrase{})
	i.register("phrase", 3, &engine.Phrase{})

	for _, o := range opts {
		o(&i)
	}
	return &i
}

func (i *Interpreter) register(name engine.Atom, arity int, f engine.PredicateFactory) {
	if err := i.KB.AddPredicateFactory(engine.PredicateKey{Name: name, Arity: arity}, f); err != nil {
		panic(err)
	}
}

// Exec consults the program text.
func (i *Interpreter) Exec(text string) error {
	return i.Consult(strings.NewReader(text))
}

// Consult reads clauses and directives from r. Clauses are added to the
// knowledge base and directives of the form :- Goal are run once.
func (i *Interpreter) Consult(r io.Reader) error {
	p := syntax.NewParser(r, i.Operators)
	for {
		t, err := p.Term()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return errors.Wrap(err, "failed to read clause")
		}

		if err := i.consultTerm(t); err != nil {
			return errors.Wrapf(err, "failed to consult %s", t)
		}
	}
}

func (i *Interpreter) consultTerm(t engine.Term) error {
	if c, ok := t.(*engine.Compound); ok && len(c.Args) == 1 && (c.Functor == ":-" || c.Functor == "?-") {
		ok, err := i.KB.Once(c.Args[0])
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("directive failed")
		}
		return nil
	}

	m, err := engine.NewClauseModel(t)
	if err != nil {
		return err
	}
	return i.KB.AddClause(m)
}

// ConsultFile consults the file at path.
func (i *Interpreter) ConsultFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return errors.Wrapf(i.Consult(f), "failed to consult %s", path)
}

// Query executes a query.
func (i *Interpreter) Query(query string) (*Solutions, error) {
	return i.QueryContext(context.Background(), query)
}

// QueryContext executes a query with context. No more solutions are searched
// for once ctx is done.
func (i *Interpreter) QueryContext(ctx context.Context, query string) (*Solutions, error) {
	p := syntax.NewParser(strings.NewReader(query), i.Operators)
	t, err := p.Term()
	if err != nil {
		return nil, err
	}

	return newSolutions(ctx, i.KB, t, p.Vars), nil
}

func (i *Interpreter) op(args []engine.Term) (bool, error) {
	p, ok := engine.Resolve(args[0]).(engine.Integer)
	if !ok {
		return false, engine.TypeError("an integer", args[0])
	}
	spec, ok := engine.Resolve(args[1]).(engine.Atom)
	if !ok {
		return false, engine.TypeError("an atom", args[1])
	}

	var names []engine.Term
	switch n := engine.Resolve(args[2]).(type) {
	case engine.Atom:
		names = []engine.Term{n}
	default:
		var err error
		if names, err = engine.Slice(n); err != nil {
			return false, err
		}
	}
	for _, n := range names {
		name, ok := engine.Resolve(n).(engine.Atom)
		if !ok {
			return false, engine.TypeError("an atom", n)
		}
		if err := i.Operators.Define(int(p), string(spec), name); err != nil {
			return false, engine.NewException("Cannot define operator", err)
		}
	}
	return true, nil
}

func (i *Interpreter) consult(args []engine.Term) (bool, error) {
	path, ok := engine.Resolve(args[0]).(engine.Atom)
	if !ok {
		return false, engine.TypeError("an atom", args[0])
	}
	if err := i.ConsultFile(string(path)); err != nil {
		return false, engine.NewException("Cannot consult", err)
	}
	return true, nil
}
