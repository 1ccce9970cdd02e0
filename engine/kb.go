package engine

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// UnknownAction decides what a call to an undefined predicate does.
type UnknownAction int

// Unknown actions.
const (
	UnknownError UnknownAction = iota
	UnknownFail
	UnknownWarning
)

func (u UnknownAction) String() string {
	return [...]string{
		UnknownError:   "error",
		UnknownFail:    "fail",
		UnknownWarning: "warning",
	}[u]
}

// ParseUnknownAction returns the action named s.
func ParseUnknownAction(s string) (UnknownAction, error) {
	switch s {
	case "error":
		return UnknownError, nil
	case "fail":
		return UnknownFail, nil
	case "warning":
		return UnknownWarning, nil
	default:
		return 0, fmt.Errorf("unknown action: %s", s)
	}
}

// UserDefinedPredicateFactory is the clause store of a user-defined predicate.
type UserDefinedPredicateFactory interface {
	PredicateFactory
	Key() PredicateKey
	AddFirst(*ClauseModel) error
	AddLast(*ClauseModel) error
	IsDynamic() bool
	Clauses() []*ClauseModel
}

// KnowledgeBase holds the built-in and user-defined predicates of a program.
type KnowledgeBase struct {
	// Unknown decides what a call to an undefined predicate does.
	Unknown UnknownAction

	// IndexCacheSize bounds the number of indexes each static predicate keeps.
	IndexCacheSize int

	SpyPoints *SpyPoints

	mu          sync.RWMutex
	builtins    map[PredicateKey]PredicateFactory
	userDefined map[PredicateKey]UserDefinedPredicateFactory
}

// NewKnowledgeBase creates a knowledge base with the control constructs defined.
func NewKnowledgeBase() *KnowledgeBase {
	kb := KnowledgeBase{
		IndexCacheSize: DefaultIndexCacheSize,
		SpyPoints:      NewSpyPoints(LogListener{Logger: logrus.StandardLogger()}),
		builtins:       map[PredicateKey]PredicateFactory{},
		userDefined:    map[PredicateKey]UserDefinedPredicateFactory{},
	}
	registerControl(&kb)
	return &kb
}

// AddPredicateFactory registers a built-in predicate.
func (kb *KnowledgeBase) AddPredicateFactory(key PredicateKey, f PredicateFactory) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if _, ok := kb.builtins[key]; ok {
		return alreadyDefinedError(key)
	}
	if _, ok := kb.userDefined[key]; ok {
		return alreadyDefinedError(key)
	}
	if c, ok := f.(KnowledgeBaseConsumer); ok {
		c.SetKnowledgeBase(kb)
	}
	kb.builtins[key] = f
	return nil
}

// CreateOrReturnUserDefined returns the clause store of key, creating a static one
// if there is none yet.
func (kb *KnowledgeBase) CreateOrReturnUserDefined(key PredicateKey) (UserDefinedPredicateFactory, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if _, ok := kb.builtins[key]; ok {
		return nil, builtInRedefinitionError(key)
	}
	if u, ok := kb.userDefined[key]; ok {
		return u, nil
	}
	u := newStaticStore(key, kb)
	kb.userDefined[key] = u
	return u, nil
}

// SetDynamic declares key dynamic. A static predicate can only be declared dynamic
// while it has no clauses.
func (kb *KnowledgeBase) SetDynamic(key PredicateKey) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if _, ok := kb.builtins[key]; ok {
		return builtInRedefinitionError(key)
	}
	switch u := kb.userDefined[key].(type) {
	case nil:
	case *dynamicStore:
		return nil
	case *staticStore:
		if !u.isEmpty() {
			return staticRedeclarationError(key)
		}
	}
	kb.userDefined[key] = newDynamicStore(key, kb)
	return nil
}

// AddClause appends a clause to the predicate it belongs to.
func (kb *KnowledgeBase) AddClause(m *ClauseModel) error {
	u, err := kb.CreateOrReturnUserDefined(m.Key())
	if err != nil {
		return err
	}
	return u.AddLast(m)
}

// UserDefined returns the user-defined predicates ordered by key.
func (kb *KnowledgeBase) UserDefined() []UserDefinedPredicateFactory {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	ret := make([]UserDefinedPredicateFactory, 0, len(kb.userDefined))
	for _, u := range kb.userDefined {
		ret = append(ret, u)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Key().Compare(ret[j].Key()) < 0
	})
	return ret
}

// UserDefinedPredicate returns the clause store of key if there is one.
func (kb *KnowledgeBase) UserDefinedPredicate(key PredicateKey) (UserDefinedPredicateFactory, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	u, ok := kb.userDefined[key]
	return u, ok
}

func (kb *KnowledgeBase) lookup(key PredicateKey) PredicateFactory {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	if f, ok := kb.builtins[key]; ok {
		return f
	}
	if u, ok := kb.userDefined[key]; ok {
		return u
	}
	return nil
}

// GetPredicateFactory returns the factory of key. Keys that are not defined yet get
// a factory that looks the predicate up again when it is called.
func (kb *KnowledgeBase) GetPredicateFactory(key PredicateKey) PredicateFactory {
	if f := kb.lookup(key); f != nil {
		return f
	}
	return &unknownPredicate{key: key, kb: kb}
}

// GetPredicateFactoryFor returns the factory of a callable term.
func (kb *KnowledgeBase) GetPredicateFactoryFor(t Term) (PredicateFactory, error) {
	key, err := KeyOf(t)
	if err != nil {
		return nil, err
	}
	return kb.GetPredicateFactory(key), nil
}

// GetPreprocessedPredicateFactory returns the factory of a callable term
// specialized for the shape of t where the factory supports it.
func (kb *KnowledgeBase) GetPreprocessedPredicateFactory(t Term) (PredicateFactory, error) {
	t = Resolve(t)
	f, err := kb.GetPredicateFactoryFor(t)
	if err != nil {
		return nil, err
	}
	if p, ok := f.(PreprocessablePredicateFactory); ok {
		return p.Preprocess(t), nil
	}
	return f, nil
}

// IsSingleAnswer checks if calling t can never yield more than one solution.
func (kb *KnowledgeBase) IsSingleAnswer(t Term) bool {
	f, err := kb.GetPreprocessedPredicateFactory(t)
	if err != nil {
		return false
	}
	return !f.IsRetryable()
}

// Warn reports msg to the listener.
func (kb *KnowledgeBase) Warn(msg string) {
	if l := kb.SpyPoints.Listener(); l != nil {
		l.OnWarn(msg)
	}
}

// unknownPredicate stands in for a predicate that was not defined when it was
// looked up. It resolves again on every call until the predicate appears.
type unknownPredicate struct {
	key      PredicateKey
	kb       *KnowledgeBase
	resolved atomic.Pointer[resolvedFactory]
}

type resolvedFactory struct {
	PredicateFactory
}

func (u *unknownPredicate) actual() PredicateFactory {
	if r := u.resolved.Load(); r != nil {
		return r.PredicateFactory
	}
	f := u.kb.lookup(u.key)
	if f != nil {
		u.resolved.Store(&resolvedFactory{f})
	}
	return f
}

func (u *unknownPredicate) GetPredicate(args []Term) Predicate {
	if f := u.actual(); f != nil {
		return f.GetPredicate(args)
	}
	switch u.kb.Unknown {
	case UnknownFail:
		return failed
	case UnknownWarning:
		u.kb.Warn(fmt.Sprintf("Unknown procedure: %s", u.key))
		return failed
	default:
		return Error(ExistenceError(u.key))
	}
}

func (u *unknownPredicate) IsRetryable() bool {
	if f := u.actual(); f != nil {
		return f.IsRetryable()
	}
	return true
}
