package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCut is returned from Evaluate by a cut that is asked for another solution.
// It tells every enclosing evaluator up to the nearest cut barrier to stop
// offering alternatives. It is not an error in the user's program.
var ErrCut = errors.New("cut")

// Exception is an error raised while consulting or evaluating a program.
type Exception struct {
	Message string

	cause   error
	clauses []*ClauseModel
}

// NewException creates an exception with an optional cause.
func NewException(msg string, cause error) *Exception {
	return &Exception{Message: msg, cause: cause}
}

func (e *Exception) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

// Unwrap returns the cause.
func (e *Exception) Unwrap() error {
	return e.cause
}

// Clauses returns the clauses that were being evaluated when the exception
// was raised, innermost first.
func (e *Exception) Clauses() []*ClauseModel {
	return e.clauses
}

func (e *Exception) addClause(c *ClauseModel) {
	e.clauses = append(e.clauses, c)
}

// TypeError creates an exception for a term of the wrong type.
func TypeError(expected string, culprit Term) *Exception {
	t := Resolve(culprit)
	return NewException(fmt.Sprintf("Expected %s but got a %s with value: %s", expected, t.Type(), t), nil)
}

// InstantiationError creates an exception for an unbound variable where a value is required.
func InstantiationError(culprit Term) *Exception {
	return NewException(fmt.Sprintf("Instantiation error: %s", culprit), nil)
}

// ExistenceError creates an exception for an unknown procedure.
func ExistenceError(key PredicateKey) *Exception {
	return NewException(fmt.Sprintf("Unknown procedure: %s", key), nil)
}

// EvaluationError creates an exception for an arithmetic failure such as a zero divisor.
func EvaluationError(what string) *Exception {
	return NewException(fmt.Sprintf("Evaluation error: %s", what), nil)
}

func alreadyDefinedError(key PredicateKey) *Exception {
	return NewException(fmt.Sprintf("Already defined: %s", key), nil)
}

func builtInRedefinitionError(key PredicateKey) *Exception {
	return NewException(fmt.Sprintf("Cannot replace already defined built-in predicate: %s", key), nil)
}

func notDynamicError(key PredicateKey, c *ClauseModel) *Exception {
	return NewException(fmt.Sprintf("Cannot add clause to already defined user defined predicate as it is not dynamic: %s clause: %s", key, c.Original), nil)
}

func staticRedeclarationError(key PredicateKey) *Exception {
	return NewException(fmt.Sprintf("Cannot declare %s dynamic as it is already defined and is not dynamic", key), nil)
}

// wrapEvaluationError attaches the active clause to err. Errors other than an
// *Exception are wrapped as host faults of key.
func wrapEvaluationError(err error, key PredicateKey, c *ClauseModel) error {
	var e *Exception
	if !errors.As(err, &e) {
		e = NewException(fmt.Sprintf("Exception processing: %s", key), err)
	}
	if c != nil {
		e.addClause(c)
	}
	return e
}
