package syntax

import (
	"fmt"
	"sync"

	"github.com/ichiban/resolve/engine"
)

type operatorClass uint8

const (
	operatorClassPrefix operatorClass = iota
	operatorClassPostfix
	operatorClassInfix
	operatorClassLen
)

type operatorSpecifier uint8

const (
	operatorSpecifierFX operatorSpecifier = iota
	operatorSpecifierFY
	operatorSpecifierXF
	operatorSpecifierYF
	operatorSpecifierXFX
	operatorSpecifierXFY
	operatorSpecifierYFX
)

var specifiers = map[string]operatorSpecifier{
	"fx":  operatorSpecifierFX,
	"fy":  operatorSpecifierFY,
	"xf":  operatorSpecifierXF,
	"yf":  operatorSpecifierYF,
	"xfx": operatorSpecifierXFX,
	"xfy": operatorSpecifierXFY,
	"yfx": operatorSpecifierYFX,
}

func (s operatorSpecifier) class() operatorClass {
	switch s {
	case operatorSpecifierFX, operatorSpecifierFY:
		return operatorClassPrefix
	case operatorSpecifierXF, operatorSpecifierYF:
		return operatorClassPostfix
	default:
		return operatorClassInfix
	}
}

type operator struct {
	priority  int // 1 ~ 1200
	specifier operatorSpecifier
	name      engine.Atom
}

// argPriorities returns the maximum priorities of the left and the right
// arguments. An operator without the argument has 0 for it.
func (o operator) argPriorities() (int, int) {
	switch o.specifier {
	case operatorSpecifierFX:
		return 0, o.priority - 1
	case operatorSpecifierFY:
		return 0, o.priority
	case operatorSpecifierXF:
		return o.priority - 1, 0
	case operatorSpecifierYF:
		return o.priority, 0
	case operatorSpecifierXFX:
		return o.priority - 1, o.priority - 1
	case operatorSpecifierXFY:
		return o.priority - 1, o.priority
	default:
		return o.priority, o.priority - 1
	}
}

// Operators is an operator table. It is safe for concurrent use.
type Operators struct {
	mu    sync.RWMutex
	table map[engine.Atom][operatorClassLen]operator
}

// DefaultOperators returns a table with the standard operators defined.
func DefaultOperators() *Operators {
	ops := Operators{table: map[engine.Atom][operatorClassLen]operator{}}
	for _, d := range []struct {
		priority int
		spec     string
		names    []engine.Atom
	}{
		{1200, "xfx", []engine.Atom{":-", "-->"}},
		{1200, "fx", []engine.Atom{":-", "?-"}},
		{1150, "fx", []engine.Atom{"dynamic"}},
		{1105, "xfy", []engine.Atom{"|"}},
		{1100, "xfy", []engine.Atom{";"}},
		{1050, "xfy", []engine.Atom{"->"}},
		{1000, "xfy", []engine.Atom{","}},
		{900, "fy", []engine.Atom{`\+`}},
		{700, "xfx", []engine.Atom{"=", `\=`, "==", `\==`, "@<", "@>", "@=<", "@>=", "=..", "is", "=:=", `=\=`, "<", ">", "=<", ">="}},
		{500, "yfx", []engine.Atom{"+", "-", `/\`, `\/`}},
		{400, "yfx", []engine.Atom{"*", "/", "//", "rem", "mod", "<<", ">>"}},
		{200, "xfx", []engine.Atom{"**"}},
		{200, "xfy", []engine.Atom{"^"}},
		{200, "fy", []engine.Atom{"-", "+", `\`}},
	} {
		for _, n := range d.names {
			ops.define(d.priority, specifiers[d.spec], n)
		}
	}
	return &ops
}

// Define adds an operator as op/3 does. Priority 0 removes it.
func (o *Operators) Define(priority int, spec string, name engine.Atom) error {
	s, ok := specifiers[spec]
	if !ok {
		return fmt.Errorf("unknown operator specifier: %s", spec)
	}
	if priority < 0 || priority > 1200 {
		return fmt.Errorf("operator priority out of range: %d", priority)
	}
	if name == "," || name == "|" && priority > 0 && (priority < 1001 || s.class() != operatorClassInfix) {
		return fmt.Errorf("can't modify operator: %s", name)
	}
	o.define(priority, s, name)
	return nil
}

func (o *Operators) define(priority int, s operatorSpecifier, name engine.Atom) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.table == nil {
		o.table = map[engine.Atom][operatorClassLen]operator{}
	}
	ops := o.table[name]
	if priority == 0 {
		ops[s.class()] = operator{}
	} else {
		ops[s.class()] = operator{priority: priority, specifier: s, name: name}
	}
	o.table[name] = ops
}

func (o *Operators) lookup(name engine.Atom, class operatorClass) (operator, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	op := o.table[name][class]
	return op, op.priority > 0
}

func (o *Operators) isOperator(name engine.Atom) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.table[name] != [operatorClassLen]operator{}
}
