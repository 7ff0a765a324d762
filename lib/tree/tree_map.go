package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

var (
	_ SortedMap[int, struct{}] = (*TreeMap[int, struct{}])(nil)
	_ MapEntry[int, struct{}]  = (*entry[int, struct{}])(nil)
)

type entry[K any, V any] struct {
	key K
	val V
}

func (e *entry[K, V]) Key() K { return e.key }
func (e *entry[K, V]) Val() V { return e.val }

// TreeMap is a sorted map on top of a LinkedBinaryTree.
// Without a balancer it is a plain binary search tree, the red-black
// balancer keeps its height logarithmic.
// A TreeMap is not safe for concurrent use, see NewThreadSafeTreeMap.
type TreeMap[K any, V any] struct {
	tree           *LinkedBinaryTree[entry[K, V]]
	cmp            infra.Comparator[K]
	balancer       Balancer[K, V]
	isDesc         bool
	isRmBorrowSucc bool
}

func (m *TreeMap[K, V]) keyCompare(k1, k2 K) int64 {
	res := m.cmp(k1, k2)
	if m.isDesc {
		return -res
	}
	return res
}

func (m *TreeMap[K, V]) keyAt(idx uint32) K {
	return m.tree.nodes[idx].elem.key
}

func (m *TreeMap[K, V]) entryAt(idx uint32) MapEntry[K, V] {
	e := m.tree.nodes[idx].elem
	return &e
}

func (m *TreeMap[K, V]) Len() int64 {
	return m.tree.Len()
}

func (m *TreeMap[K, V]) IsEmpty() bool {
	return m.tree.IsEmpty()
}

func (m *TreeMap[K, V]) Height() int {
	return m.tree.Height()
}

// subtreeSearch returns the node holding key, or the last node visited,
// which is the in-order neighbour of key.
func (m *TreeMap[K, V]) subtreeSearch(idx uint32, key K) uint32 {
	for {
		res := m.keyCompare(key, m.keyAt(idx))
		if res == 0 {
			return idx
		}
		next := m.tree.nodes[idx].right
		if res < 0 {
			next = m.tree.nodes[idx].left
		}
		if next == nilIdx {
			return idx
		}
		idx = next
	}
}

func (m *TreeMap[K, V]) subtreeFirst(idx uint32) uint32 {
	for ; m.tree.nodes[idx].left != nilIdx; idx = m.tree.nodes[idx].left {
	}
	return idx
}

func (m *TreeMap[K, V]) subtreeLast(idx uint32) uint32 {
	for ; m.tree.nodes[idx].right != nilIdx; idx = m.tree.nodes[idx].right {
	}
	return idx
}

// The pred node of the current node is its previous node in sorted order.
func (m *TreeMap[K, V]) pred(idx uint32) uint32 {
	if l := m.tree.nodes[idx].left; l != nilIdx {
		return m.subtreeLast(l)
	}
	walk, ancestor := idx, m.tree.nodes[idx].parent
	// Backtrack while walk is a left child.
	for ancestor != nilIdx && walk == m.tree.nodes[ancestor].left {
		walk, ancestor = ancestor, m.tree.nodes[ancestor].parent
	}
	return ancestor
}

// The succ node of the current node is its next node in sorted order.
func (m *TreeMap[K, V]) succ(idx uint32) uint32 {
	if r := m.tree.nodes[idx].right; r != nilIdx {
		return m.subtreeFirst(r)
	}
	walk, ancestor := idx, m.tree.nodes[idx].parent
	// Backtrack while walk is a right child.
	for ancestor != nilIdx && walk == m.tree.nodes[ancestor].right {
		walk, ancestor = ancestor, m.tree.nodes[ancestor].parent
	}
	return ancestor
}

func (m *TreeMap[K, V]) First() Position {
	if m.tree.root == nilIdx {
		return Position{}
	}
	return m.tree.position(m.subtreeFirst(m.tree.root))
}

func (m *TreeMap[K, V]) Last() Position {
	if m.tree.root == nilIdx {
		return Position{}
	}
	return m.tree.position(m.subtreeLast(m.tree.root))
}

// Before returns the position just before p in key order, nil if p is the first.
func (m *TreeMap[K, V]) Before(p Position) (Position, error) {
	idx, err := m.tree.validate(p)
	if err != nil {
		return Position{}, err
	}
	return m.tree.position(m.pred(idx)), nil
}

// After returns the position just after p in key order, nil if p is the last.
func (m *TreeMap[K, V]) After(p Position) (Position, error) {
	idx, err := m.tree.validate(p)
	if err != nil {
		return Position{}, err
	}
	return m.tree.position(m.succ(idx)), nil
}

func (m *TreeMap[K, V]) findPosition(key K) uint32 {
	if m.tree.root == nilIdx {
		return nilIdx
	}
	idx := m.subtreeSearch(m.tree.root, key)
	m.balancer.OnAccess(m, m.tree.position(idx))
	return idx
}

// FindPosition returns the position holding key, otherwise the position
// of a neighbour of key. Nil only if the map is empty.
func (m *TreeMap[K, V]) FindPosition(key K) Position {
	return m.tree.position(m.findPosition(key))
}

func (m *TreeMap[K, V]) Key(p Position) (K, error) {
	e, err := m.tree.Element(p)
	return e.key, err
}

func (m *TreeMap[K, V]) Value(p Position) (V, error) {
	e, err := m.tree.Element(p)
	return e.val, err
}

func (m *TreeMap[K, V]) Entry(p Position) (MapEntry[K, V], error) {
	e, err := m.tree.Element(p)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (m *TreeMap[K, V]) Get(key K) (V, error) {
	idx := m.findPosition(key)
	if idx == nilIdx || m.keyCompare(key, m.keyAt(idx)) != 0 {
		var zero V
		return zero, ErrKeyNotFound
	}
	return m.tree.nodes[idx].elem.val, nil
}

func (m *TreeMap[K, V]) Contains(key K) bool {
	_, err := m.Get(key)
	return err == nil
}

// Set overwrites the value in place if the key exists, otherwise it
// inserts a new leaf.
func (m *TreeMap[K, V]) Set(key K, val V) {
	_ = m.set(key, val, false)
}

// SetIfAbsent inserts only if the key does not exist.
func (m *TreeMap[K, V]) SetIfAbsent(key K, val V) error {
	return m.set(key, val, true)
}

func (m *TreeMap[K, V]) set(key K, val V, ifNotPresent bool) error {
	if m.tree.root == nilIdx {
		leaf := m.tree.addRoot(entry[K, V]{key: key, val: val})
		m.balancer.OnInsert(m, m.tree.position(leaf))
		return nil
	}

	idx := m.subtreeSearch(m.tree.root, key)
	res := m.keyCompare(key, m.keyAt(idx))
	if /* equal */ res == 0 {
		if ifNotPresent {
			m.balancer.OnAccess(m, m.tree.position(idx))
			return ErrKeyExists
		}
		m.tree.nodes[idx].elem.val = val
		m.balancer.OnAccess(m, m.tree.position(idx))
		return nil
	}
	leaf := m.tree.addChild(idx, entry[K, V]{key: key, val: val}, /* less */ res < 0)
	m.balancer.OnInsert(m, m.tree.position(leaf))
	return nil
}

func (m *TreeMap[K, V]) Delete(key K) (V, error) {
	idx := nilIdx
	if m.tree.root != nilIdx {
		idx = m.subtreeSearch(m.tree.root, key)
	}
	if idx == nilIdx || m.keyCompare(key, m.keyAt(idx)) != 0 {
		if idx != nilIdx {
			m.balancer.OnAccess(m, m.tree.position(idx))
		}
		var zero V
		return zero, ErrKeyNotFound
	}
	return m.deleteIdx(idx).val, nil
}

// DeletePosition removes the entry stored at p.
// If the node at p has two children, p keeps pointing at the same node,
// which now holds the borrowed neighbour entry, and the neighbour's
// position turns stale.
func (m *TreeMap[K, V]) DeletePosition(p Position) (V, error) {
	idx, err := m.tree.validate(p)
	if err != nil {
		var zero V
		return zero, err
	}
	return m.deleteIdx(idx).val, nil
}

/*
d1: The node X has at most one child, splice it directly.

d2: The node X has two children. Borrow the pred (or succ) entry into X,
then splice the pred (or succ) node, which has at most one child.

	  |                    |
	  X                    L
	 / \                  / \
	..  ..   borrow(L)   ..  ..
	  \      ========>     \
	   L                    (spliced)

The balancer receives the parent of the spliced node.
*/
func (m *TreeMap[K, V]) deleteIdx(idx uint32) entry[K, V] {
	removed := m.tree.nodes[idx].elem
	if /* d2 */ m.tree.numChildren(idx) == 2 {
		var borrow uint32
		if m.isRmBorrowSucc {
			borrow = m.subtreeFirst(m.tree.nodes[idx].right)
		} else {
			borrow = m.subtreeLast(m.tree.nodes[idx].left)
		}
		m.tree.nodes[idx].elem = m.tree.nodes[borrow].elem
		idx = borrow
	}
	parent := m.tree.nodes[idx].parent
	m.tree.deleteIdx(idx)
	m.balancer.OnDelete(m, m.tree.position(parent))
	return removed
}

func (m *TreeMap[K, V]) RemoveMin() (MapEntry[K, V], error) {
	if m.tree.root == nilIdx {
		return nil, ErrEmptyMap
	}
	e := m.deleteIdx(m.subtreeFirst(m.tree.root))
	return &e, nil
}

func (m *TreeMap[K, V]) RemoveMax() (MapEntry[K, V], error) {
	if m.tree.root == nilIdx {
		return nil, ErrEmptyMap
	}
	e := m.deleteIdx(m.subtreeLast(m.tree.root))
	return &e, nil
}

// Clear removes every entry, positions handed out before turn stale.
func (m *TreeMap[K, V]) Clear() {
	m.tree.reset()
}

func (m *TreeMap[K, V]) FindMin() MapEntry[K, V] {
	if m.tree.root == nilIdx {
		return nil
	}
	return m.entryAt(m.subtreeFirst(m.tree.root))
}

func (m *TreeMap[K, V]) FindMax() MapEntry[K, V] {
	if m.tree.root == nilIdx {
		return nil
	}
	return m.entryAt(m.subtreeLast(m.tree.root))
}

// An unsuccessful search stops at the pred or the succ of key, one
// step of pred/succ is enough to reach the answer.

// FindGe returns the entry with the least key greater than or equal to key.
func (m *TreeMap[K, V]) FindGe(key K) MapEntry[K, V] {
	idx := m.findPosition(key)
	if idx != nilIdx && m.keyCompare(m.keyAt(idx), key) < 0 {
		idx = m.succ(idx)
	}
	if idx == nilIdx {
		return nil
	}
	return m.entryAt(idx)
}

// FindGt returns the entry with the least key strictly greater than key.
func (m *TreeMap[K, V]) FindGt(key K) MapEntry[K, V] {
	idx := m.findPosition(key)
	if idx != nilIdx && m.keyCompare(m.keyAt(idx), key) <= 0 {
		idx = m.succ(idx)
	}
	if idx == nilIdx {
		return nil
	}
	return m.entryAt(idx)
}

// FindLe returns the entry with the greatest key less than or equal to key.
func (m *TreeMap[K, V]) FindLe(key K) MapEntry[K, V] {
	idx := m.findPosition(key)
	if idx != nilIdx && m.keyCompare(m.keyAt(idx), key) > 0 {
		idx = m.pred(idx)
	}
	if idx == nilIdx {
		return nil
	}
	return m.entryAt(idx)
}

// FindLt returns the entry with the greatest key strictly less than key.
func (m *TreeMap[K, V]) FindLt(key K) MapEntry[K, V] {
	idx := m.findPosition(key)
	if idx != nilIdx && m.keyCompare(m.keyAt(idx), key) >= 0 {
		idx = m.pred(idx)
	}
	if idx == nilIdx {
		return nil
	}
	return m.entryAt(idx)
}

// Foreach walks the entries in key order until action returns false.
func (m *TreeMap[K, V]) Foreach(action func(idx int64, key K, val V) bool) {
	if m.tree.root == nilIdx {
		return
	}
	i := int64(0)
	for aux := m.subtreeFirst(m.tree.root); aux != nilIdx; aux = m.succ(aux) {
		e := m.tree.nodes[aux].elem
		if !action(i, e.key, e.val) {
			return
		}
		i++
	}
}

// ReverseForeach walks the entries in reverse key order until action returns false.
func (m *TreeMap[K, V]) ReverseForeach(action func(idx int64, key K, val V) bool) {
	if m.tree.root == nilIdx {
		return
	}
	i := int64(0)
	for aux := m.subtreeLast(m.tree.root); aux != nilIdx; aux = m.pred(aux) {
		e := m.tree.nodes[aux].elem
		if !action(i, e.key, e.val) {
			return
		}
		i++
	}
}

// ForeachRange walks the entries with start <= key < stop, a nil bound is open.
func (m *TreeMap[K, V]) ForeachRange(start, stop *K, action func(idx int64, key K, val V) bool) {
	it := m.FindRange(start, stop)
	for i := int64(0); ; i++ {
		e, ok := it.Next()
		if !ok || !action(i, e.Key(), e.Val()) {
			return
		}
	}
}

// Rotate rotates p above its parent. The key order is kept, only the
// shape changes, so it is safe for custom balancers. A red-black map
// refuses it, the colors would no longer match the shape.
func (m *TreeMap[K, V]) Rotate(p Position) error {
	idx, err := m.tree.validate(p)
	if err != nil {
		return err
	}
	if isRedBlack(m) {
		return infra.WrapErrorStackWithMessage(ErrRotateBalanced, p.String())
	}
	if m.tree.nodes[idx].parent == nilIdx {
		return infra.WrapErrorStackWithMessage(ErrRotateRoot, p.String())
	}
	m.tree.rotate(idx)
	return nil
}

// Restructure runs the tri-node restructure of p with its parent and
// grandparent, and returns the new subtree root.
func (m *TreeMap[K, V]) Restructure(p Position) (Position, error) {
	idx, err := m.tree.validate(p)
	if err != nil {
		return Position{}, err
	}
	if isRedBlack(m) {
		return Position{}, infra.WrapErrorStackWithMessage(ErrRotateBalanced, p.String())
	}
	if parent := m.tree.nodes[idx].parent; parent == nilIdx || m.tree.nodes[parent].parent == nilIdx {
		return Position{}, infra.WrapErrorStackWithMessage(ErrRotateRoot, "restructure without grandparent "+p.String())
	}
	return m.tree.position(m.tree.restructure(idx)), nil
}

// Read only views of the underlying tree.

func (m *TreeMap[K, V]) Root() Position                       { return m.tree.Root() }
func (m *TreeMap[K, V]) Parent(p Position) (Position, error)  { return m.tree.Parent(p) }
func (m *TreeMap[K, V]) Left(p Position) (Position, error)    { return m.tree.Left(p) }
func (m *TreeMap[K, V]) Right(p Position) (Position, error)   { return m.tree.Right(p) }
func (m *TreeMap[K, V]) Sibling(p Position) (Position, error) { return m.tree.Sibling(p) }
func (m *TreeMap[K, V]) NumChildren(p Position) (int, error)  { return m.tree.NumChildren(p) }
func (m *TreeMap[K, V]) IsLeaf(p Position) (bool, error)      { return m.tree.IsLeaf(p) }
func (m *TreeMap[K, V]) IsRoot(p Position) (bool, error)      { return m.tree.IsRoot(p) }
func (m *TreeMap[K, V]) Depth(p Position) (int, error)        { return m.tree.Depth(p) }
func (m *TreeMap[K, V]) Inorder() PositionIterator            { return m.tree.Inorder() }
func (m *TreeMap[K, V]) Preorder() PositionIterator           { return m.tree.Preorder() }
func (m *TreeMap[K, V]) Postorder() PositionIterator          { return m.tree.Postorder() }
func (m *TreeMap[K, V]) BreadthFirst() PositionIterator       { return m.tree.BreadthFirst() }

type TreeMapOpt[K any, V any] func(*TreeMap[K, V])

func WithTreeMapBalancer[K any, V any](b Balancer[K, V]) TreeMapOpt[K, V] {
	return func(m *TreeMap[K, V]) {
		if b != nil {
			m.balancer = b
		}
	}
}

func WithTreeMapDesc[K any, V any]() TreeMapOpt[K, V] {
	return func(m *TreeMap[K, V]) {
		m.isDesc = true
	}
}

// WithTreeMapRemoveBorrowSucc makes the two children deletion borrow the
// succ entry instead of the pred entry.
func WithTreeMapRemoveBorrowSucc[K any, V any]() TreeMapOpt[K, V] {
	return func(m *TreeMap[K, V]) {
		m.isRmBorrowSucc = true
	}
}

// NewTreeMap creates an unbalanced map unless a balancer option is given.
func NewTreeMap[K any, V any](cmp infra.Comparator[K], opts ...TreeMapOpt[K, V]) *TreeMap[K, V] {
	if cmp == nil {
		// impossible run to here
		panic( /* debug assertion */ "[tree] tree map without key comparator")
	}
	m := &TreeMap[K, V]{
		tree:     NewLinkedBinaryTree[entry[K, V]](),
		cmp:      cmp,
		balancer: NopBalancer[K, V]{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func NewOrderedTreeMap[K infra.OrderedKey, V any](opts ...TreeMapOpt[K, V]) *TreeMap[K, V] {
	return NewTreeMap[K, V](infra.CompareOrderedKey[K], opts...)
}

// NewRBTreeMap creates a red-black balanced map over the builtin ordered kinds.
func NewRBTreeMap[K infra.OrderedKey, V any](opts ...TreeMapOpt[K, V]) *TreeMap[K, V] {
	return NewRBTreeMapFunc[K, V](infra.CompareOrderedKey[K], opts...)
}

// NewRBTreeMapFunc creates a red-black balanced map ordered by cmp.
func NewRBTreeMapFunc[K any, V any](cmp infra.Comparator[K], opts ...TreeMapOpt[K, V]) *TreeMap[K, V] {
	opts = append([]TreeMapOpt[K, V]{WithTreeMapBalancer[K, V](NewRedBlackBalancer[K, V]())}, opts...)
	return NewTreeMap[K, V](cmp, opts...)
}

// NopBalancer keeps the map a plain binary search tree.
type NopBalancer[K any, V any] struct{}

func (NopBalancer[K, V]) OnInsert(*TreeMap[K, V], Position) {}
func (NopBalancer[K, V]) OnDelete(*TreeMap[K, V], Position) {}
func (NopBalancer[K, V]) OnAccess(*TreeMap[K, V], Position) {}
