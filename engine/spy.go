package engine

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Listener receives the ports of traced calls and warnings raised while
// compiling or evaluating.
type Listener interface {
	OnCall(key PredicateKey, args []Term)
	OnRedo(key PredicateKey, args []Term)
	OnExit(key PredicateKey, args []Term, clause *ClauseModel)
	OnFail(key PredicateKey, args []Term)
	OnWarn(msg string)
}

// SpyPoints holds the trace switch and the spy point of every predicate.
type SpyPoints struct {
	trace atomic.Bool

	mu       sync.Mutex
	points   map[PredicateKey]*SpyPoint
	listener atomic.Value
}

// NewSpyPoints creates spy points reporting to l.
func NewSpyPoints(l Listener) *SpyPoints {
	s := SpyPoints{points: map[PredicateKey]*SpyPoint{}}
	s.SetListener(l)
	return &s
}

type listenerHolder struct {
	Listener
}

// SetListener replaces the listener.
func (s *SpyPoints) SetListener(l Listener) {
	s.listener.Store(listenerHolder{Listener: l})
}

// Listener returns the current listener.
func (s *SpyPoints) Listener() Listener {
	return s.listener.Load().(listenerHolder).Listener
}

// SetTrace turns tracing of every predicate on or off.
func (s *SpyPoints) SetTrace(b bool) {
	s.trace.Store(b)
}

// Trace checks if every predicate is traced.
func (s *SpyPoints) Trace() bool {
	return s.trace.Load()
}

// SetSpyPoint turns tracing of the predicate of key on or off.
func (s *SpyPoints) SetSpyPoint(key PredicateKey, b bool) {
	s.Get(key).set.Store(b)
}

// Get returns the spy point of key.
func (s *SpyPoints) Get(key PredicateKey) *SpyPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.points[key]
	if !ok {
		p = &SpyPoint{key: key, points: s}
		s.points[key] = p
	}
	return p
}

// SpyPoint reports the ports of one predicate to the listener while enabled.
type SpyPoint struct {
	key    PredicateKey
	points *SpyPoints
	set    atomic.Bool
}

// Key returns the key of the predicate.
func (p *SpyPoint) Key() PredicateKey {
	return p.key
}

// Enabled checks if the ports of the predicate are reported.
func (p *SpyPoint) Enabled() bool {
	return (p.set.Load() || p.points.trace.Load()) && p.points.Listener() != nil
}

// LogCall reports the CALL port.
func (p *SpyPoint) LogCall(args []Term) {
	p.points.Listener().OnCall(p.key, simplifyAll(args))
}

// LogRedo reports the REDO port.
func (p *SpyPoint) LogRedo(args []Term) {
	p.points.Listener().OnRedo(p.key, simplifyAll(args))
}

// LogExit reports the EXIT port with the clause that succeeded.
func (p *SpyPoint) LogExit(args []Term, clause *ClauseModel) {
	p.points.Listener().OnExit(p.key, simplifyAll(args), clause)
}

// LogFail reports the FAIL port.
func (p *SpyPoint) LogFail(args []Term) {
	p.points.Listener().OnFail(p.key, simplifyAll(args))
}

// LogListener is a Listener writing to a logrus logger. Ports are logged at
// debug level and warnings at warn level.
type LogListener struct {
	Logger logrus.FieldLogger
}

func (l LogListener) port(port string, key PredicateKey, args []Term) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"port":      port,
		"predicate": key.String(),
		"goal":      key.Name.Apply(args...).String(),
	})
}

// OnCall logs the CALL port.
func (l LogListener) OnCall(key PredicateKey, args []Term) {
	l.port("CALL", key, args).Debugf("CALL %s", key.Name.Apply(args...))
}

// OnRedo logs the REDO port.
func (l LogListener) OnRedo(key PredicateKey, args []Term) {
	l.port("REDO", key, args).Debugf("REDO %s", key.Name.Apply(args...))
}

// OnExit logs the EXIT port.
func (l LogListener) OnExit(key PredicateKey, args []Term, clause *ClauseModel) {
	e := l.port("EXIT", key, args)
	if clause != nil {
		e = e.WithField("clause", clause.String())
	}
	e.Debugf("EXIT %s", key.Name.Apply(args...))
}

// OnFail logs the FAIL port.
func (l LogListener) OnFail(key PredicateKey, args []Term) {
	l.port("FAIL", key, args).Debugf("FAIL %s", key.Name.Apply(args...))
}

// OnWarn logs a warning.
func (l LogListener) OnWarn(msg string) {
	l.Logger.Warn(msg)
}
