package engine

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

const (
	maxIndexableColumns  = 9
	maxArgumentsPerIndex = 3
)

// noMatches is returned by every index lookup that finds nothing.
var noMatches = []ClauseAction{}

// Indexes selects the clauses of a predicate whose heads could match a call,
// using the argument positions that hold constants in every clause.
type Indexes struct {
	key     PredicateKey
	actions []ClauseAction
	columns []int
	cache   *indexCache
}

// NewIndexes creates indexes over actions. At most cacheSize indexes are kept at once.
func NewIndexes(key PredicateKey, actions []ClauseAction, cacheSize int) *Indexes {
	return &Indexes{
		key:     key,
		actions: actions,
		columns: ImmutableColumns(actions),
		cache:   newIndexCache(cacheSize),
	}
}

// Columns returns the indexable argument positions.
func (x *Indexes) Columns() []int {
	return x.columns
}

// Stats returns the counters of the index cache.
func (x *Indexes) Stats() IndexCacheStats {
	return x.cache.stats()
}

// Index returns the clauses that could match args. The result may include clauses
// that fail to unify but never leaves out one that could. When no indexable
// argument of args is bound, all clauses are returned.
func (x *Indexes) Index(args []Term) []ClauseAction {
	bitmask := x.bitmask(args)
	if bitmask == 0 {
		return x.actions
	}
	idx := x.cache.getOrBuild(bitmask, func() *index {
		return x.build(bitmask)
	})
	return idx.lookup(args)
}

func (x *Indexes) bitmask(args []Term) uint16 {
	var (
		bitmask uint16
		n       int
	)
	for j, col := range x.columns {
		if !Resolve(args[col]).IsImmutable() {
			continue
		}
		bitmask |= 1 << j
		n++
		if n == maxArgumentsPerIndex {
			break
		}
	}
	return bitmask
}

func (x *Indexes) build(bitmask uint16) *index {
	idx := index{buckets: map[uint64][]indexBucket{}}
	for j, col := range x.columns {
		if bitmask&(1<<j) != 0 {
			idx.positions = append(idx.positions, col)
		}
	}
	for _, a := range x.actions {
		head := argsOf(a.Model().Consequent)
		if idx.isWildcard(head) {
			idx.addWildcard(a)
			continue
		}
		idx.add(newIndexKey(idx.positions, head), a)
	}
	return &idx
}

// ImmutableColumns returns the argument positions that hold a constant in every
// clause. Anonymous variables do not disqualify a position. At most 9 positions
// are returned.
func ImmutableColumns(actions []ClauseAction) []int {
	if len(actions) == 0 {
		return nil
	}
	arity := len(argsOf(actions[0].Model().Consequent))
	var cols []int
	for i := 0; i < arity && len(cols) < maxIndexableColumns; i++ {
		if isImmutableColumn(actions, i) {
			cols = append(cols, i)
		}
	}
	return cols
}

func isImmutableColumn(actions []ClauseAction, col int) bool {
	var constant bool
	for _, a := range actions {
		t := argsOf(a.Model().Consequent)[col]
		if isAnonymous(t) {
			continue
		}
		if !t.IsImmutable() {
			return false
		}
		constant = true
	}
	return constant
}

func isAnonymous(t Term) bool {
	v, ok := t.(*Variable)
	return ok && v.ref == nil && v.IsAnonymous()
}

// index maps the values of a fixed set of argument positions to the clauses
// that have those values.
type index struct {
	positions []int
	buckets   map[uint64][]indexBucket

	// wildcards are the clauses with an anonymous variable at an indexed position.
	// They are also in every bucket.
	wildcards []ClauseAction
}

type indexBucket struct {
	key     indexKey
	actions []ClauseAction
}

func (idx *index) isWildcard(head []Term) bool {
	for _, p := range idx.positions {
		if isAnonymous(head[p]) {
			return true
		}
	}
	return false
}

func (idx *index) addWildcard(a ClauseAction) {
	idx.wildcards = append(idx.wildcards, a)
	for _, bs := range idx.buckets {
		for i := range bs {
			bs[i].actions = append(bs[i].actions, a)
		}
	}
}

func (idx *index) add(k indexKey, a ClauseAction) {
	h := k.hash()
	bs := idx.buckets[h]
	for i := range bs {
		if bs[i].key.equal(k) {
			bs[i].actions = append(bs[i].actions, a)
			return
		}
	}
	actions := make([]ClauseAction, len(idx.wildcards), len(idx.wildcards)+1)
	copy(actions, idx.wildcards)
	idx.buckets[h] = append(bs, indexBucket{key: k, actions: append(actions, a)})
}

func (idx *index) lookup(args []Term) []ClauseAction {
	k := newIndexKey(idx.positions, args)
	for _, b := range idx.buckets[k.hash()] {
		if b.key.equal(k) {
			return b.actions
		}
	}
	if len(idx.wildcards) > 0 {
		return idx.wildcards
	}
	return noMatches
}

// indexKey is a tuple of up to 3 argument values. It is stored inline so that
// building one for a lookup does not allocate.
type indexKey struct {
	n    uint8
	args [maxArgumentsPerIndex]Term
}

func newIndexKey(positions []int, args []Term) indexKey {
	var k indexKey
	for _, p := range positions {
		k.args[k.n] = Resolve(args[p])
		k.n++
	}
	return k
}

func (k indexKey) hash() uint64 {
	d := xxhash.New()
	for _, t := range k.args[:k.n] {
		writeTermHash(d, t)
	}
	return d.Sum64()
}

func (k indexKey) equal(o indexKey) bool {
	if k.n != o.n {
		return false
	}
	for i := uint8(0); i < k.n; i++ {
		if !StrictEquality(k.args[i], o.args[i]) {
			return false
		}
	}
	return true
}

// termHash returns a hash of a term without unbound variables.
// Strictly equal terms have the same hash.
func termHash(t Term) uint64 {
	d := xxhash.New()
	writeTermHash(d, t)
	return d.Sum64()
}

func writeTermHash(d *xxhash.Digest, t Term) {
	var buf [9]byte
	stack := []Term{t}
	for len(stack) > 0 {
		t, stack = Resolve(stack[len(stack)-1]), stack[:len(stack)-1]
		buf[0] = byte(t.Type())
		switch t := t.(type) {
		case Atom:
			_, _ = d.Write(buf[:1])
			_, _ = d.WriteString(string(t))
		case Integer:
			binary.LittleEndian.PutUint64(buf[1:], uint64(t))
			_, _ = d.Write(buf[:])
		case Float:
			binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(float64(t)))
			_, _ = d.Write(buf[:])
		case *Compound:
			binary.LittleEndian.PutUint64(buf[1:], uint64(len(t.Args)))
			_, _ = d.Write(buf[:])
			_, _ = d.WriteString(string(t.Functor))
			for i := len(t.Args) - 1; i >= 0; i-- {
				stack = append(stack, t.Args[i])
			}
		default:
			_, _ = d.Write(buf[:1])
		}
	}
}
