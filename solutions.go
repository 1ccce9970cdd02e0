package prolog

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ichiban/resolve/engine"
	"github.com/ichiban/resolve/syntax"
)

var (
	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resolve_query_duration_seconds",
		Help:    "Duration of queries from the start to Close",
		Buckets: prometheus.DefBuckets,
	})

	querySolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolve_query_solutions_total",
		Help: "Total solutions searched for by outcome",
	}, []string{"outcome"})
)

// Solutions is the result of a query. Everytime the Next method is called, it searches for the next solution.
// By calling the Scan method, you can retrieve the content of the solution.
type Solutions struct {
	ctx   context.Context
	kb    *engine.KnowledgeBase
	goal  engine.Term
	vars  []syntax.ParsedVariable
	pred  engine.Predicate
	start time.Time

	started bool
	done    bool
	closed  bool
	err     error
}

func newSolutions(ctx context.Context, kb *engine.KnowledgeBase, goal engine.Term, vars []syntax.ParsedVariable) *Solutions {
	return &Solutions{
		ctx:   ctx,
		kb:    kb,
		goal:  goal,
		vars:  vars,
		start: time.Now(),
	}
}

// Close closes the Solutions and terminates the search for other solutions.
// Bindings made by the query are undone.
func (s *Solutions) Close() error {
	if s.closed {
		return nil
	}
	s.closed, s.done = true, true
	s.goal.Backtrack()
	queryDuration.Observe(time.Since(s.start).Seconds())
	return nil
}

// Next prepares the next solution for reading with the Scan method. It returns true if it finds another solution,
// or false if there's no further solutions or if there's an error.
func (s *Solutions) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	if s.started && !s.pred.CouldReevaluationSucceed() {
		s.done = true
		return false
	}
	s.started = true

	ok, err := s.evaluate()
	switch {
	case err != nil:
		s.err = err
		querySolutions.WithLabelValues("error").Inc()
		return false
	case !ok:
		s.done = true
		querySolutions.WithLabelValues("failure").Inc()
		return false
	default:
		querySolutions.WithLabelValues("success").Inc()
		return true
	}
}

func (s *Solutions) evaluate() (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	if s.pred == nil {
		s.pred = s.kb.Call(s.goal)
	}
	return s.pred.Evaluate()
}

// Current returns the values of the named variables of the current solution.
func (s *Solutions) Current() map[string]engine.Term {
	m := make(map[string]engine.Term, len(s.vars))
	for _, v := range s.vars {
		m[v.Name] = engine.Simplify(v.Variable)
	}
	return m
}

// Scan copies the variable values of the current solution into the specified map.
// The map's value type has to be assignable from engine.Term.
func (s *Solutions) Scan(out interface{}) error {
	o := reflect.ValueOf(out)
	switch o.Kind() {
	case reflect.Map:
		if o.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("invalid key type: %s", o.Type().Key())
		}
		for n, t := range s.Current() {
			v := reflect.ValueOf(t)
			if !v.Type().AssignableTo(o.Type().Elem()) {
				return fmt.Errorf("can't assign %s to %s", v.Type(), o.Type().Elem())
			}
			o.SetMapIndex(reflect.ValueOf(n).Convert(o.Type().Key()), v)
		}
		return nil
	default:
		return fmt.Errorf("invalid kind: %s", o.Kind())
	}
}

// Err returns the error if exists.
func (s *Solutions) Err() error {
	return s.err
}

// Vars returns variable names.
func (s *Solutions) Vars() []string {
	ns := make([]string, len(s.vars))
	for i, v := range s.vars {
		ns[i] = v.Name
	}
	return ns
}
