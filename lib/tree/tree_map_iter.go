package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

type rangeIter[K any, V any] struct {
	m       *TreeMap[K, V]
	next    uint32
	stop    *K
	version uint64
	err     error
}

func (it *rangeIter[K, V]) Next() (MapEntry[K, V], bool) {
	if it.err != nil || it.next == nilIdx {
		return nil, false
	}
	if it.m.tree.version != it.version {
		it.err = infra.WrapErrorStack(ErrIteratorInvalidated)
		return nil, false
	}
	if it.stop != nil && it.m.keyCompare(it.m.keyAt(it.next), *it.stop) >= 0 {
		it.next = nilIdx
		return nil, false
	}
	e := it.m.entryAt(it.next)
	it.next = it.m.succ(it.next)
	return e, true
}

func (it *rangeIter[K, V]) Err() error {
	return it.err
}

type keyIter[K any, V any] struct {
	*rangeIter[K, V]
}

func (it keyIter[K, V]) Next() (K, bool) {
	e, ok := it.rangeIter.Next()
	if !ok {
		var zero K
		return zero, false
	}
	return e.Key(), true
}

// FindRange iterates lazily over the entries with start <= key < stop in
// key order. A nil start begins with the minimum key, a nil stop runs
// through the maximum key. The bounds are copied.
func (m *TreeMap[K, V]) FindRange(start, stop *K) EntryIterator[K, V] {
	var next uint32
	if start == nil {
		if m.tree.root != nilIdx {
			next = m.subtreeFirst(m.tree.root)
		}
	} else if next = m.findPosition(*start); next != nilIdx && m.keyCompare(m.keyAt(next), *start) < 0 {
		next = m.succ(next)
	}
	it := &rangeIter[K, V]{
		m:       m,
		next:    next,
		version: m.tree.version,
	}
	if stop != nil {
		bound := *stop
		it.stop = &bound
	}
	return it
}

// Entries iterates over all entries in key order.
func (m *TreeMap[K, V]) Entries() EntryIterator[K, V] {
	return m.FindRange(nil, nil)
}

// Keys iterates over all keys in key order.
func (m *TreeMap[K, V]) Keys() KeyIterator[K] {
	return keyIter[K, V]{
		rangeIter: m.FindRange(nil, nil).(*rangeIter[K, V]),
	}
}
