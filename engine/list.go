package engine

type emptyList struct{}

// EmptyList is the prolog empty list.
var EmptyList Term = emptyList{}

func (emptyList) String() string {
	return "[]"
}

// Type returns EMPTY_LIST.
func (emptyList) Type() TermType {
	return TypeEmptyList
}

func (e emptyList) Unify(t Term) bool {
	return Unify(e, t)
}

func (emptyList) Backtrack() {}

func (e emptyList) Copy(map[*Variable]*Variable) Term {
	return e
}

func (emptyList) IsImmutable() bool {
	return true
}

// Cons returns a list cell.
func Cons(car, cdr Term) Term {
	return NewCompound(atomDot, car, cdr)
}

// List returns a list of ts.
func List(ts ...Term) Term {
	return PartialList(EmptyList, ts...)
}

// PartialList returns a list of ts followed by rest.
func PartialList(rest Term, ts ...Term) Term {
	l := rest
	for i := len(ts) - 1; i >= 0; i-- {
		l = Cons(ts[i], l)
	}
	return l
}

// ListIterator is an iterator for a list.
type ListIterator struct {
	List Term

	current Term
	err     error
}

// Next proceeds to the next element of the list and returns true if there's such an element.
func (i *ListIterator) Next() bool {
	if i.err != nil {
		return false
	}
	switch l := Resolve(i.List).(type) {
	case emptyList:
		return false
	case *Variable:
		i.err = InstantiationError(l)
		return false
	case *Compound:
		if !l.isList() {
			i.err = TypeError("a list", i.List)
			return false
		}
		i.current, i.List = l.Args[0], l.Args[1]
		return true
	default:
		i.err = TypeError("a list", i.List)
		return false
	}
}

// Current returns the current element.
func (i *ListIterator) Current() Term {
	return i.current
}

// Err returns an error that occurred while iterating.
func (i *ListIterator) Err() error {
	return i.err
}

// Slice returns the elements of a proper list.
func Slice(list Term) ([]Term, error) {
	var ret []Term
	iter := ListIterator{List: list}
	for iter.Next() {
		ret = append(ret, iter.Current())
	}
	return ret, iter.Err()
}
