package syntax

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ichiban/resolve/engine"
)

// UnexpectedTokenError is returned when a token doesn't fit the term being read.
type UnexpectedTokenError struct {
	Actual Token
}

func (e UnexpectedTokenError) Error() string {
	return fmt.Sprintf("unexpected token: %s", e.Actual)
}

// ParsedVariable is a named variable of the term read last.
type ParsedVariable struct {
	Name     string
	Variable *engine.Variable
	Count    int
}

// Parser turns runes into terms.
type Parser struct {
	lexer *Lexer
	ops   *Operators

	// Vars holds the named variables of the term read last in order of appearance.
	Vars []ParsedVariable

	tokens []Token
	pos    int
}

// NewParser creates a parser reading from r with the operators of ops.
func NewParser(r io.Reader, ops *Operators) *Parser {
	return &Parser{lexer: NewLexer(r), ops: ops}
}

func (p *Parser) next() (Token, error) {
	if p.pos == len(p.tokens) {
		t, err := p.lexer.Next()
		if err != nil {
			return Token{}, err
		}
		p.tokens = append(p.tokens, t)
	}
	t := p.tokens[p.pos]
	p.pos++
	if t.Kind == TokenEOS && p.pos > 1 {
		return Token{}, ErrInsufficient
	}
	return t, nil
}

func (p *Parser) backup() {
	p.pos--
}

func (p *Parser) peek() (Token, error) {
	t, err := p.next()
	if err != nil {
		return Token{}, err
	}
	p.backup()
	return t, nil
}

func (p *Parser) expect(k TokenKind) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t.Kind != k {
		return UnexpectedTokenError{Actual: t}
	}
	return nil
}

// Term reads a term followed by a full stop. It returns io.EOF at the end of
// the input.
func (p *Parser) Term() (engine.Term, error) {
	p.tokens, p.pos, p.Vars = p.tokens[p.pos:], 0, nil

	t, err := p.next()
	if err != nil {
		return nil, err
	}
	if t.Kind == TokenEOS {
		p.backup()
		return nil, io.EOF
	}
	p.backup()

	term, _, err := p.term(1200)
	if err == nil {
		err = p.expect(TokenEnd)
	}
	if err != nil {
		if !errors.Is(err, ErrInsufficient) {
			p.skip()
		}
		return nil, err
	}
	return term, nil
}

// skip discards the tokens up to the next full stop.
func (p *Parser) skip() {
	for {
		t, err := p.next()
		if err != nil || t.Kind == TokenEnd || t.Kind == TokenEOS {
			return
		}
	}
}

func (p *Parser) term(max int) (engine.Term, int, error) {
	lhs, priority, err := p.prefix(max)
	if err != nil {
		return nil, 0, err
	}

	for {
		t, err := p.next()
		if err != nil {
			return nil, 0, err
		}
		var name engine.Atom
		switch t.Kind {
		case TokenName, TokenQuoted:
			name = engine.Atom(t.Val)
		case TokenComma:
			name = ","
		case TokenBar:
			name = "|"
		default:
			p.backup()
			return lhs, priority, nil
		}

		if op, ok := p.ops.lookup(name, operatorClassInfix); ok {
			l, r := op.argPriorities()
			if op.priority <= max && priority <= l {
				rhs, _, err := p.term(r)
				if err != nil {
					return nil, 0, err
				}
				if name == "|" {
					name = ";"
				}
				lhs, priority = name.Apply(lhs, rhs), op.priority
				continue
			}
		}
		if op, ok := p.ops.lookup(name, operatorClassPostfix); ok {
			l, _ := op.argPriorities()
			if op.priority <= max && priority <= l {
				lhs, priority = name.Apply(lhs), op.priority
				continue
			}
		}
		p.backup()
		return lhs, priority, nil
	}
}

// prefix reads a prefix operator application, a negative number, or a primary term.
func (p *Parser) prefix(max int) (engine.Term, int, error) {
	t, err := p.next()
	if err != nil {
		return nil, 0, err
	}
	if t.Kind != TokenName && t.Kind != TokenQuoted {
		p.backup()
		return p.primary()
	}
	name := engine.Atom(t.Val)

	if t.Kind == TokenName && name == "-" {
		n, err := p.next()
		if err != nil {
			return nil, 0, err
		}
		if !n.Layout {
			switch n.Kind {
			case TokenInteger:
				i, err := parseInteger("-" + n.Val)
				return i, 0, err
			case TokenFloat:
				f, err := parseFloat("-" + n.Val)
				return f, 0, err
			}
		}
		p.backup()
	}

	n, err := p.peek()
	if err != nil {
		return nil, 0, err
	}
	op, ok := p.ops.lookup(name, operatorClassPrefix)
	if !ok || op.priority > max || n.Kind == TokenOpenCT {
		p.backup()
		return p.primary()
	}
	if p.isAtomOperand(n) {
		return name, op.priority, nil
	}

	_, r := op.argPriorities()
	save := p.pos
	arg, _, err := p.term(r)
	switch {
	case err == nil:
		return name.Apply(arg), op.priority, nil
	case errors.Is(err, ErrInsufficient):
		return nil, 0, err
	default:
		p.pos = save
		return name, op.priority, nil
	}
}

// isAtomOperand checks if a prefix operator followed by t is an atom rather
// than an application of the operator.
func (p *Parser) isAtomOperand(t Token) bool {
	switch t.Kind {
	case TokenOpenCT:
		return false
	case TokenEnd, TokenClose, TokenComma, TokenBar, TokenCloseList, TokenCloseCurly, TokenEOS:
		return true
	case TokenName:
		name := engine.Atom(t.Val)
		_, infix := p.ops.lookup(name, operatorClassInfix)
		_, prefix := p.ops.lookup(name, operatorClassPrefix)
		return infix && !prefix
	default:
		return false
	}
}

// primary reads a term that is not an operator application.
func (p *Parser) primary() (engine.Term, int, error) {
	t, err := p.next()
	if err != nil {
		return nil, 0, err
	}
	switch t.Kind {
	case TokenOpen, TokenOpenCT:
		inner, _, err := p.term(1200)
		if err != nil {
			return nil, 0, err
		}
		return inner, 0, p.expect(TokenClose)
	case TokenInteger:
		i, err := parseInteger(t.Val)
		return i, 0, err
	case TokenFloat:
		f, err := parseFloat(t.Val)
		return f, 0, err
	case TokenVariable:
		return p.variable(t.Val), 0, nil
	case TokenOpenList:
		l, err := p.list()
		return l, 0, err
	case TokenOpenCurly:
		inner, _, err := p.term(1200)
		if err != nil {
			return nil, 0, err
		}
		return engine.Atom("{}").Apply(inner), 0, p.expect(TokenCloseCurly)
	case TokenDoubleQuoted:
		return chars(t.Val), 0, nil
	case TokenName, TokenQuoted:
		name := engine.Atom(t.Val)
		n, err := p.next()
		if err != nil {
			return nil, 0, err
		}
		if n.Kind == TokenOpenCT {
			c, err := p.arguments(name)
			return c, 0, err
		}
		p.backup()
		if t.Kind == TokenName && name == "[]" {
			return engine.EmptyList, 0, nil
		}
		priority := 0
		if p.ops.isOperator(name) {
			priority = 1201
		}
		return name, priority, nil
	default:
		return nil, 0, UnexpectedTokenError{Actual: t}
	}
}

func (p *Parser) arguments(name engine.Atom) (engine.Term, error) {
	var args []engine.Term
	for {
		arg, _, err := p.term(999)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		t, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case TokenComma:
		case TokenClose:
			return engine.NewCompound(name, args...), nil
		default:
			return nil, UnexpectedTokenError{Actual: t}
		}
	}
}

func (p *Parser) list() (engine.Term, error) {
	var elems []engine.Term
	for {
		e, _, err := p.term(999)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)

		t, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case TokenComma:
		case TokenBar:
			rest, _, err := p.term(999)
			if err != nil {
				return nil, err
			}
			return engine.PartialList(rest, elems...), p.expect(TokenCloseList)
		case TokenCloseList:
			return engine.List(elems...), nil
		default:
			return nil, UnexpectedTokenError{Actual: t}
		}
	}
}

func (p *Parser) variable(name string) engine.Term {
	if name == "_" {
		return engine.NewVariable(name)
	}
	for i, v := range p.Vars {
		if v.Name == name {
			p.Vars[i].Count++
			return v.Variable
		}
	}
	v := engine.NewVariable(name)
	p.Vars = append(p.Vars, ParsedVariable{Name: name, Variable: v, Count: 1})
	return v
}

func parseInteger(s string) (engine.Term, error) {
	base := 10
	digits := strings.TrimPrefix(s, "-")
	if len(digits) > 1 && digits[0] == '0' {
		switch digits[1] {
		case 'x', 'o', 'b':
			base = 0
		}
	}
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer: %s", s)
	}
	return engine.NewInteger(n), nil
}

func parseFloat(s string) (engine.Term, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid float: %s", s)
	}
	return engine.Float(f), nil
}

// chars returns a double-quoted string as a list of one-char atoms.
func chars(s string) engine.Term {
	var elems []engine.Term
	for _, r := range s {
		elems = append(elems, engine.Atom(string(r)))
	}
	return engine.List(elems...)
}
