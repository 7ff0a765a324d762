package id

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

const cacheLinePadSize = unsafe.Sizeof(cpu.CacheLinePad{})

// monotonicNonZeroID only increases, if it overflows, it restarts from 1.
// The counter occupies a whole cache line to avoid false sharing between
// generators living next to each other.
type monotonicNonZeroID struct {
	_   [cacheLinePadSize - unsafe.Sizeof(*new(uint64))]byte
	val uint64
	_   [cacheLinePadSize - unsafe.Sizeof(*new(uint64))]byte
}

func (id *monotonicNonZeroID) next() uint64 {
	var v uint64
	if v = atomic.AddUint64(&id.val, 1); v == 0 {
		v = atomic.AddUint64(&id.val, 1)
	}
	return v
}

func (id *monotonicNonZeroID) last() uint64 {
	return atomic.LoadUint64(&id.val)
}

type ownerGen struct {
	next Gen
	last Gen
}

func (g ownerGen) Next() uint64   { return g.next() }
func (g ownerGen) Issued() uint64 { return g.last() }

// MonotonicNonZeroID returns a lock free OwnerGen counting from 1.
func MonotonicNonZeroID() OwnerGen {
	src := &monotonicNonZeroID{}
	return ownerGen{next: src.next, last: src.last}
}
