package engine

import (
	"fmt"
	"math"

	"github.com/cockroachdb/apd"
)

// Number is an Integer or a Float.
type Number interface {
	Term
	number()
}

func (Integer) number() {}

func (Float) number() {}

// intContext has enough digits for the sum or product of any two int64 values
// so that overflow shows up when the result is converted back.
var intContext = apd.BaseContext.WithPrecision(40)

func errIntOverflow() error {
	return EvaluationError("int_overflow")
}

func errZeroDivisor() error {
	return EvaluationError("zero_divisor")
}

// exact applies op to x and y with arbitrary precision and converts the result
// back to an Integer.
func exact(op func(d, x, y *apd.Decimal) (apd.Condition, error), x, y Integer) (Number, error) {
	var d apd.Decimal
	if _, err := op(&d, apd.New(int64(x), 0), apd.New(int64(y), 0)); err != nil {
		return nil, err
	}
	n, err := d.Int64()
	if err != nil {
		return nil, errIntOverflow()
	}
	return Integer(n), nil
}

func checkFloat(f float64) (Number, error) {
	switch {
	case math.IsInf(f, 0):
		return nil, EvaluationError("float_overflow")
	case math.IsNaN(f):
		return nil, EvaluationError("undefined")
	default:
		return Float(f), nil
	}
}

func toFloat(n Number) float64 {
	switch n := n.(type) {
	case Integer:
		return float64(n)
	default:
		return float64(n.(Float))
	}
}

// binaryFunction is an arithmetic function of two arguments. integers is used when both
// are integers. floats is used otherwise.
type binaryFunction struct {
	integers func(x, y Integer) (Number, error)
	floats   func(x, y float64) (Number, error)
}

func (b binaryFunction) apply(x, y Number) (Number, error) {
	if i, ok := x.(Integer); ok {
		if j, ok := y.(Integer); ok {
			return b.integers(i, j)
		}
	}
	if b.floats == nil {
		return nil, TypeError("an integer", floatOperand(x, y))
	}
	return b.floats(toFloat(x), toFloat(y))
}

func floatOperand(x, y Number) Term {
	if _, ok := x.(Float); ok {
		return x
	}
	return y
}

var binaryFunctions = map[Atom]binaryFunction{
	"+": {
		integers: func(x, y Integer) (Number, error) { return exact(intContext.Add, x, y) },
		floats:   func(x, y float64) (Number, error) { return checkFloat(x + y) },
	},
	"-": {
		integers: func(x, y Integer) (Number, error) { return exact(intContext.Sub, x, y) },
		floats:   func(x, y float64) (Number, error) { return checkFloat(x - y) },
	},
	"*": {
		integers: func(x, y Integer) (Number, error) { return exact(intContext.Mul, x, y) },
		floats:   func(x, y float64) (Number, error) { return checkFloat(x * y) },
	},
	"/": {
		integers: func(x, y Integer) (Number, error) {
			switch {
			case y == 0:
				return nil, errZeroDivisor()
			case x == math.MinInt64 && y == -1:
				return nil, errIntOverflow()
			case x%y == 0:
				return x / y, nil
			default:
				return Float(float64(x) / float64(y)), nil
			}
		},
		floats: func(x, y float64) (Number, error) {
			if y == 0 {
				return nil, errZeroDivisor()
			}
			return checkFloat(x / y)
		},
	},
	"//": {
		integers: func(x, y Integer) (Number, error) {
			switch {
			case y == 0:
				return nil, errZeroDivisor()
			case x == math.MinInt64 && y == -1:
				return nil, errIntOverflow()
			default:
				return x / y, nil
			}
		},
	},
	"mod": {
		integers: func(x, y Integer) (Number, error) {
			if y == 0 {
				return nil, errZeroDivisor()
			}
			if y == -1 {
				return Integer(0), nil
			}
			m := x % y
			if m != 0 && (m < 0) != (y < 0) {
				m += y
			}
			return m, nil
		},
	},
	"rem": {
		integers: func(x, y Integer) (Number, error) {
			if y == 0 {
				return nil, errZeroDivisor()
			}
			if y == -1 {
				return Integer(0), nil
			}
			return x % y, nil
		},
	},
	"min": {
		integers: func(x, y Integer) (Number, error) {
			if y < x {
				return y, nil
			}
			return x, nil
		},
		floats: func(x, y float64) (Number, error) { return Float(math.Min(x, y)), nil },
	},
	"max": {
		integers: func(x, y Integer) (Number, error) {
			if y > x {
				return y, nil
			}
			return x, nil
		},
		floats: func(x, y float64) (Number, error) { return Float(math.Max(x, y)), nil },
	},
}

var unaryFunctions = map[Atom]func(Number) (Number, error){
	"-": func(x Number) (Number, error) {
		switch x := x.(type) {
		case Integer:
			if x == math.MinInt64 {
				return nil, errIntOverflow()
			}
			return -x, nil
		default:
			return -x.(Float), nil
		}
	},
	"+": func(x Number) (Number, error) {
		return x, nil
	},
	"abs": func(x Number) (Number, error) {
		switch x := x.(type) {
		case Integer:
			switch {
			case x == math.MinInt64:
				return nil, errIntOverflow()
			case x < 0:
				return -x, nil
			default:
				return x, nil
			}
		default:
			return Float(math.Abs(float64(x.(Float)))), nil
		}
	},
	"sign": func(x Number) (Number, error) {
		switch x := x.(type) {
		case Integer:
			switch {
			case x < 0:
				return Integer(-1), nil
			case x > 0:
				return Integer(1), nil
			default:
				return Integer(0), nil
			}
		default:
			f := float64(x.(Float))
			switch {
			case f < 0:
				return Float(-1), nil
			case f > 0:
				return Float(1), nil
			default:
				return Float(0), nil
			}
		}
	},
}

var constants = map[Atom]Number{
	"pi": Float(math.Pi),
	"e":  Float(math.E),
}

// Eval evaluates an arithmetic expression.
func Eval(t Term) (Number, error) {
	switch t := Resolve(t).(type) {
	case *Variable:
		return nil, InstantiationError(t)
	case Integer:
		return t, nil
	case Float:
		return t, nil
	case Atom:
		if n, ok := constants[t]; ok {
			return n, nil
		}
		return nil, unknownOperatorError(PredicateKey{Name: t})
	case *Compound:
		switch len(t.Args) {
		case 1:
			f, ok := unaryFunctions[t.Functor]
			if !ok {
				break
			}
			x, err := Eval(t.Args[0])
			if err != nil {
				return nil, err
			}
			return f(x)
		case 2:
			f, ok := binaryFunctions[t.Functor]
			if !ok {
				break
			}
			x, err := Eval(t.Args[0])
			if err != nil {
				return nil, err
			}
			y, err := Eval(t.Args[1])
			if err != nil {
				return nil, err
			}
			return f.apply(x, y)
		}
		return nil, unknownOperatorError(t.Key())
	default:
		return nil, TypeError("a number", t)
	}
}

func unknownOperatorError(key PredicateKey) error {
	return NewException(fmt.Sprintf("Cannot find arithmetic operator: %s", key), nil)
}

// compareNumbers returns -1, 0, or 1 as x is less than, equal to, or greater than y.
func compareNumbers(x, y Number) int {
	if i, ok := x.(Integer); ok {
		if j, ok := y.(Integer); ok {
			switch {
			case i < j:
				return -1
			case i > j:
				return 1
			default:
				return 0
			}
		}
	}
	f, g := toFloat(x), toFloat(y)
	switch {
	case f < g:
		return -1
	case f > g:
		return 1
	default:
		return 0
	}
}

// Is evaluates the expression on the right and unifies the result with the left.
func Is(args []Term) (bool, error) {
	n, err := Eval(args[1])
	if err != nil {
		return false, err
	}
	if i, ok := n.(Integer); ok {
		return args[0].Unify(NewInteger(int64(i))), nil
	}
	return args[0].Unify(n), nil
}

func arithmeticComparison(ok func(int) bool) Deterministic {
	return func(args []Term) (bool, error) {
		x, err := Eval(args[0])
		if err != nil {
			return false, err
		}
		y, err := Eval(args[1])
		if err != nil {
			return false, err
		}
		return ok(compareNumbers(x, y)), nil
	}
}

// Arithmetic comparisons.
var (
	NumberEqual        = arithmeticComparison(func(c int) bool { return c == 0 })
	NumberNotEqual     = arithmeticComparison(func(c int) bool { return c != 0 })
	LessThan           = arithmeticComparison(func(c int) bool { return c < 0 })
	LessThanOrEqual    = arithmeticComparison(func(c int) bool { return c <= 0 })
	GreaterThan        = arithmeticComparison(func(c int) bool { return c > 0 })
	GreaterThanOrEqual = arithmeticComparison(func(c int) bool { return c >= 0 })
)
