package tree

import (
	"errors"
	"fmt"
)

type RBColor uint8

const (
	Black RBColor = iota
	Red
)

func (c RBColor) String() string {
	switch c {
	case Black:
		return "Black"
	case Red:
		return "Red"
	default:
	}
	return fmt.Sprintf("RBColor(%d)", uint8(c))
}

var (
	ErrKeyNotFound            = errors.New("[tree] key not found")
	ErrKeyExists              = errors.New("[tree] key exists, replace disabled")
	ErrEmptyMap               = errors.New("[tree] there is no element")
	ErrInvalidPosition        = errors.New("[tree] invalid position")
	ErrIteratorInvalidated    = errors.New("[tree] iterator invalidated by structural change")
	ErrStructuralPrecondition = errors.New("[tree] structural precondition violated")
	ErrRootExists             = fmt.Errorf("%w: root exists", ErrStructuralPrecondition)
	ErrChildExists            = fmt.Errorf("%w: child exists", ErrStructuralPrecondition)
	ErrNotLeaf                = fmt.Errorf("%w: position is not a leaf", ErrStructuralPrecondition)
	ErrTwoChildren            = fmt.Errorf("%w: position has two children", ErrStructuralPrecondition)
	ErrAttachConflict         = fmt.Errorf("%w: attach source conflicts with target", ErrStructuralPrecondition)
	ErrRotateRoot             = fmt.Errorf("%w: root has no parent to rotate above", ErrStructuralPrecondition)
	ErrRotateBalanced         = fmt.Errorf("%w: red-black map reshapes only through its balancer", ErrStructuralPrecondition)
	ErrNotRedBlack            = errors.New("[tree] map is not balanced by red-black rules")
	ErrRedViolation           = errors.New("[tree] red-black tree red violation")
	ErrBlackViolation         = errors.New("[tree] red-black tree black violation")
	ErrOrderViolation         = errors.New("[tree] binary search tree order violation")
)

// Position is a handle to a node of a LinkedBinaryTree.
// The zero Position stands for "no node". A Position becomes stale once
// its node is removed from the tree.
type Position struct {
	owner uint64
	idx   uint32
	gen   uint32
}

func (p Position) IsNil() bool {
	return p.idx == 0
}

func (p Position) String() string {
	if p.IsNil() {
		return "Position(nil)"
	}
	return fmt.Sprintf("Position(%d:%d@%d)", p.owner, p.idx, p.gen)
}

// PositionIterator is a lazy, one-shot sequence of positions.
// Next reports false once the sequence is exhausted or the tree has been
// structurally modified since the iterator was created; Err tells the two apart.
type PositionIterator interface {
	Next() (Position, bool)
	Err() error
}

type MapEntry[K any, V any] interface {
	Key() K
	Val() V
}

type EntryIterator[K any, V any] interface {
	Next() (MapEntry[K, V], bool)
	Err() error
}

type KeyIterator[K any] interface {
	Next() (K, bool)
	Err() error
}

// Balancer is invoked by TreeMap after every structural change.
//
//	OnInsert: p is the freshly inserted leaf.
//	OnDelete: p is the parent of the spliced node, nil if the root was spliced.
//	OnAccess: p is the last node visited by a search or an overwritten node.
type Balancer[K any, V any] interface {
	OnInsert(m *TreeMap[K, V], p Position)
	OnDelete(m *TreeMap[K, V], p Position)
	OnAccess(m *TreeMap[K, V], p Position)
}

// SortedMap is the key based contract shared by TreeMap and its
// lock guarded delegator.
type SortedMap[K any, V any] interface {
	Len() int64
	Height() int
	Get(key K) (V, error)
	Set(key K, val V)
	SetIfAbsent(key K, val V) error
	Delete(key K) (V, error)
	Contains(key K) bool
	FindMin() MapEntry[K, V]
	FindMax() MapEntry[K, V]
	FindGe(key K) MapEntry[K, V]
	FindLe(key K) MapEntry[K, V]
	FindGt(key K) MapEntry[K, V]
	FindLt(key K) MapEntry[K, V]
	RemoveMin() (MapEntry[K, V], error)
	RemoveMax() (MapEntry[K, V], error)
	Foreach(action func(idx int64, key K, val V) bool)
	ReverseForeach(action func(idx int64, key K, val V) bool)
	ForeachRange(start, stop *K, action func(idx int64, key K, val V) bool)
	Clear()
}
