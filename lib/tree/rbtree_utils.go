package tree

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

func isRedBlack[K any, V any](m *TreeMap[K, V]) bool {
	_, ok := m.balancer.(redBlackBalancer[K, V])
	return ok
}

// RedViolationValidate checks p3 and p5, the root is black and no red node
// has a red child.
func RedViolationValidate[K any, V any](m *TreeMap[K, V]) error {
	if !isRedBlack[K, V](m) {
		return ErrNotRedBlack
	}
	t := rbArena[K, V]{m.tree}
	if t.isRed(t.root) {
		return infra.WrapErrorStackWithMessage(ErrRedViolation, fmt.Sprintf("red root %v", m.keyAt(t.root)))
	}
	for i := 1; i < len(t.nodes); i++ {
		idx := uint32(i)
		if !t.nodes[idx].inUse || !t.isRed(idx) {
			continue
		}
		if t.isRed(t.nodes[idx].parent) {
			return infra.WrapErrorStackWithMessage(ErrRedViolation, fmt.Sprintf("red node %v under red parent", m.keyAt(idx)))
		}
	}
	return nil
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
	        /  \
	     <8>    [15]
	     / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            <16>

Every node missing a child stands next to a NIL leaf, the black depth from
each of them to the root must be equal.
*/
func BlackViolationValidate[K any, V any](m *TreeMap[K, V]) error {
	if !isRedBlack[K, V](m) {
		return ErrNotRedBlack
	}
	t := rbArena[K, V]{m.tree}
	blackDepth := -1
	for i := 1; i < len(t.nodes); i++ {
		idx := uint32(i)
		if !t.nodes[idx].inUse || t.numChildren(idx) == 2 {
			continue
		}
		depth := 0
		for aux := idx; aux != nilIdx; aux = t.nodes[aux].parent {
			if !t.isRed(aux) {
				depth++
			}
		}
		if blackDepth < 0 {
			blackDepth = depth
		} else if depth != blackDepth {
			return infra.WrapErrorStackWithMessage(ErrBlackViolation,
				fmt.Sprintf("black depth %d at %v, expected %d", depth, m.keyAt(idx), blackDepth))
		}
	}
	return nil
}

// OrderViolationValidate checks the strictly ascending in-order sequence,
// the parent back references and the element count.
func OrderViolationValidate[K any, V any](m *TreeMap[K, V]) error {
	t := m.tree
	if t.root != nilIdx && t.nodes[t.root].parent != nilIdx {
		return infra.WrapErrorStackWithMessage(ErrOrderViolation, "root has a parent")
	}
	var (
		count int64
		prev  uint32
	)
	it := t.Inorder().(*inorderIter[entry[K, V]])
	for p, ok := it.Next(); ok; p, ok = it.Next() {
		count++
		for _, c := range [2]uint32{t.nodes[p.idx].left, t.nodes[p.idx].right} {
			if c != nilIdx && t.nodes[c].parent != p.idx {
				return infra.WrapErrorStackWithMessage(ErrOrderViolation,
					fmt.Sprintf("broken parent link under %v", m.keyAt(p.idx)))
			}
		}
		if prev != nilIdx && m.keyCompare(m.keyAt(prev), m.keyAt(p.idx)) >= 0 {
			return infra.WrapErrorStackWithMessage(ErrOrderViolation,
				fmt.Sprintf("%v is not before %v", m.keyAt(prev), m.keyAt(p.idx)))
		}
		prev = p.idx
	}
	if count != t.count {
		return infra.WrapErrorStackWithMessage(ErrOrderViolation,
			fmt.Sprintf("reachable %d, recorded %d", count, t.count))
	}
	return nil
}

// Validate combines all violations of m. The red-black rules are only
// checked if m is balanced by the red-black balancer.
func Validate[K any, V any](m *TreeMap[K, V]) error {
	err := OrderViolationValidate[K, V](m)
	if !isRedBlack[K, V](m) {
		return err
	}
	return multierr.Combine(
		err,
		RedViolationValidate[K, V](m),
		BlackViolationValidate[K, V](m),
	)
}
