package tree

import (
	"fmt"

	"github.com/benz9527/xtree/lib/id"
	"github.com/benz9527/xtree/lib/infra"
)

// Every tree takes an owner id, so a Position from another tree is rejected.
var treeOwnerGen = id.MonotonicNonZeroID()

const nilIdx uint32 = 0

type binaryNode[E any] struct {
	elem   E
	parent uint32
	left   uint32
	right  uint32
	gen    uint32 // bumped on release, stale positions carry an older one
	meta   uint8  // balancing tag, the color of a red-black node
	inUse  bool
}

// LinkedBinaryTree is a binary tree whose nodes live in an arena and are
// addressed by slot indices. Slot 0 is the nil sentinel.
// The parent index is a back reference used for navigation only, the arena
// owns every node and released slots are recycled through the free list.
type LinkedBinaryTree[E any] struct {
	nodes   []binaryNode[E]
	free    []uint32
	owner   uint64
	root    uint32
	count   int64
	version uint64 // structural version, fail-fast iterators compare it
}

func NewLinkedBinaryTree[E any]() *LinkedBinaryTree[E] {
	return &LinkedBinaryTree[E]{
		nodes: make([]binaryNode[E], 1, 16),
		owner: treeOwnerGen.Next(),
	}
}

func (t *LinkedBinaryTree[E]) Len() int64 {
	return t.count
}

func (t *LinkedBinaryTree[E]) IsEmpty() bool {
	return t.count == 0
}

func (t *LinkedBinaryTree[E]) position(idx uint32) Position {
	if idx == nilIdx {
		return Position{}
	}
	return Position{
		owner: t.owner,
		idx:   idx,
		gen:   t.nodes[idx].gen,
	}
}

func (t *LinkedBinaryTree[E]) validate(p Position) (uint32, error) {
	if p.owner != t.owner || p.idx == nilIdx || int(p.idx) >= len(t.nodes) {
		return nilIdx, infra.WrapErrorStackWithMessage(ErrInvalidPosition, p.String())
	}
	if n := &t.nodes[p.idx]; !n.inUse || n.gen != p.gen {
		return nilIdx, infra.WrapErrorStackWithMessage(ErrInvalidPosition, "stale "+p.String())
	}
	return p.idx, nil
}

func (t *LinkedBinaryTree[E]) alloc(elem E, parent uint32) uint32 {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.nodes = append(t.nodes, binaryNode[E]{})
		idx = uint32(len(t.nodes) - 1)
	}
	gen := t.nodes[idx].gen
	t.nodes[idx] = binaryNode[E]{
		elem:   elem,
		parent: parent,
		gen:    gen,
		inUse:  true,
	}
	return idx
}

func (t *LinkedBinaryTree[E]) release(idx uint32) {
	var zero E
	n := &t.nodes[idx]
	n.elem = zero
	n.parent, n.left, n.right = nilIdx, nilIdx, nilIdx
	n.meta = 0
	n.inUse = false
	n.gen++
	t.free = append(t.free, idx)
}

func (t *LinkedBinaryTree[E]) Root() Position {
	return t.position(t.root)
}

func (t *LinkedBinaryTree[E]) Parent(p Position) (Position, error) {
	idx, err := t.validate(p)
	if err != nil {
		return Position{}, err
	}
	return t.position(t.nodes[idx].parent), nil
}

func (t *LinkedBinaryTree[E]) Left(p Position) (Position, error) {
	idx, err := t.validate(p)
	if err != nil {
		return Position{}, err
	}
	return t.position(t.nodes[idx].left), nil
}

func (t *LinkedBinaryTree[E]) Right(p Position) (Position, error) {
	idx, err := t.validate(p)
	if err != nil {
		return Position{}, err
	}
	return t.position(t.nodes[idx].right), nil
}

func (t *LinkedBinaryTree[E]) siblingIdx(idx uint32) uint32 {
	parent := t.nodes[idx].parent
	if parent == nilIdx {
		return nilIdx
	}
	if t.nodes[parent].left == idx {
		return t.nodes[parent].right
	}
	return t.nodes[parent].left
}

func (t *LinkedBinaryTree[E]) Sibling(p Position) (Position, error) {
	idx, err := t.validate(p)
	if err != nil {
		return Position{}, err
	}
	return t.position(t.siblingIdx(idx)), nil
}

// Children returns the left child first.
func (t *LinkedBinaryTree[E]) Children(p Position) ([]Position, error) {
	idx, err := t.validate(p)
	if err != nil {
		return nil, err
	}
	children := make([]Position, 0, 2)
	if l := t.nodes[idx].left; l != nilIdx {
		children = append(children, t.position(l))
	}
	if r := t.nodes[idx].right; r != nilIdx {
		children = append(children, t.position(r))
	}
	return children, nil
}

func (t *LinkedBinaryTree[E]) numChildren(idx uint32) int {
	n := 0
	if t.nodes[idx].left != nilIdx {
		n++
	}
	if t.nodes[idx].right != nilIdx {
		n++
	}
	return n
}

func (t *LinkedBinaryTree[E]) NumChildren(p Position) (int, error) {
	idx, err := t.validate(p)
	if err != nil {
		return 0, err
	}
	return t.numChildren(idx), nil
}

func (t *LinkedBinaryTree[E]) IsLeaf(p Position) (bool, error) {
	idx, err := t.validate(p)
	if err != nil {
		return false, err
	}
	return t.numChildren(idx) == 0, nil
}

func (t *LinkedBinaryTree[E]) IsRoot(p Position) (bool, error) {
	idx, err := t.validate(p)
	if err != nil {
		return false, err
	}
	return idx == t.root, nil
}

func (t *LinkedBinaryTree[E]) Element(p Position) (E, error) {
	idx, err := t.validate(p)
	if err != nil {
		var zero E
		return zero, err
	}
	return t.nodes[idx].elem, nil
}

// Depth is the number of ancestors of p, the root is at depth 0.
func (t *LinkedBinaryTree[E]) Depth(p Position) (int, error) {
	idx, err := t.validate(p)
	if err != nil {
		return 0, err
	}
	depth := 0
	for aux := t.nodes[idx].parent; aux != nilIdx; aux = t.nodes[aux].parent {
		depth++
	}
	return depth, nil
}

// Height counts the nodes on the longest root to leaf path.
// An empty tree has height 0.
func (t *LinkedBinaryTree[E]) Height() int {
	if t.root == nilIdx {
		return 0
	}
	type frame struct {
		idx   uint32
		level int
	}
	height := 0
	stack := make([]frame, 0, 64)
	stack = append(stack, frame{t.root, 1})
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.level > height {
			height = f.level
		}
		if l := t.nodes[f.idx].left; l != nilIdx {
			stack = append(stack, frame{l, f.level + 1})
		}
		if r := t.nodes[f.idx].right; r != nilIdx {
			stack = append(stack, frame{r, f.level + 1})
		}
	}
	return height
}

func (t *LinkedBinaryTree[E]) addRoot(elem E) uint32 {
	t.root = t.alloc(elem, nilIdx)
	t.count++
	t.version++
	return t.root
}

func (t *LinkedBinaryTree[E]) AddRoot(elem E) (Position, error) {
	if t.root != nilIdx {
		return Position{}, infra.WrapErrorStack(ErrRootExists)
	}
	return t.position(t.addRoot(elem)), nil
}

func (t *LinkedBinaryTree[E]) addChild(parent uint32, elem E, isLeft bool) uint32 {
	child := t.alloc(elem, parent)
	if isLeft {
		t.nodes[parent].left = child
	} else {
		t.nodes[parent].right = child
	}
	t.count++
	t.version++
	return child
}

func (t *LinkedBinaryTree[E]) AddLeft(p Position, elem E) (Position, error) {
	idx, err := t.validate(p)
	if err != nil {
		return Position{}, err
	}
	if t.nodes[idx].left != nilIdx {
		return Position{}, infra.WrapErrorStackWithMessage(ErrChildExists, "left of "+p.String())
	}
	return t.position(t.addChild(idx, elem, true)), nil
}

func (t *LinkedBinaryTree[E]) AddRight(p Position, elem E) (Position, error) {
	idx, err := t.validate(p)
	if err != nil {
		return Position{}, err
	}
	if t.nodes[idx].right != nilIdx {
		return Position{}, infra.WrapErrorStackWithMessage(ErrChildExists, "right of "+p.String())
	}
	return t.position(t.addChild(idx, elem, false)), nil
}

// Replace overwrites the element stored at p and returns the previous one.
// It is not a structural change, iterators stay valid.
func (t *LinkedBinaryTree[E]) Replace(p Position, elem E) (E, error) {
	idx, err := t.validate(p)
	if err != nil {
		var zero E
		return zero, err
	}
	old := t.nodes[idx].elem
	t.nodes[idx].elem = elem
	return old, nil
}

// deleteIdx splices out a node with at most one child.
func (t *LinkedBinaryTree[E]) deleteIdx(idx uint32) E {
	n := t.nodes[idx]
	child := n.left
	if child == nilIdx {
		child = n.right
	}
	if child != nilIdx {
		t.nodes[child].parent = n.parent
	}
	if n.parent == nilIdx {
		t.root = child
	} else if t.nodes[n.parent].left == idx {
		t.nodes[n.parent].left = child
	} else {
		t.nodes[n.parent].right = child
	}
	t.release(idx)
	t.count--
	t.version++
	return n.elem
}

// Delete removes the node at p, which must have at most one child, and
// promotes its child into its place.
func (t *LinkedBinaryTree[E]) Delete(p Position) (E, error) {
	idx, err := t.validate(p)
	if err != nil {
		var zero E
		return zero, err
	}
	if t.numChildren(idx) == 2 {
		var zero E
		return zero, infra.WrapErrorStackWithMessage(ErrTwoChildren, p.String())
	}
	return t.deleteIdx(idx), nil
}

// Attach grafts the left and right trees as the subtrees of the leaf p.
// Both source trees are left empty and their positions become stale.
// A nil or empty source leaves the corresponding side empty.
func (t *LinkedBinaryTree[E]) Attach(p Position, left, right *LinkedBinaryTree[E]) error {
	idx, err := t.validate(p)
	if err != nil {
		return err
	}
	if t.numChildren(idx) != 0 {
		return infra.WrapErrorStackWithMessage(ErrNotLeaf, p.String())
	}
	if left == t || right == t {
		return infra.WrapErrorStackWithMessage(ErrAttachConflict, "attach a tree to itself")
	}
	if left != nil && left == right && !left.IsEmpty() {
		return infra.WrapErrorStackWithMessage(ErrAttachConflict, "attach the same tree on both sides")
	}

	if left != nil && !left.IsEmpty() {
		sub := t.graft(left)
		t.nodes[idx].left = sub
		t.nodes[sub].parent = idx
	}
	if right != nil && !right.IsEmpty() {
		sub := t.graft(right)
		t.nodes[idx].right = sub
		t.nodes[sub].parent = idx
	}
	t.version++
	return nil
}

// graft copies every node of src into t, keeping shape and balancing tags,
// then empties src. Returns the slot of the copied root.
func (t *LinkedBinaryTree[E]) graft(src *LinkedBinaryTree[E]) uint32 {
	type frame struct {
		srcIdx    uint32
		dstParent uint32
		isLeft    bool
	}
	var subRoot uint32
	stack := make([]frame, 0, 64)
	stack = append(stack, frame{srcIdx: src.root})
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := src.nodes[f.srcIdx]
		dst := t.alloc(n.elem, f.dstParent)
		t.nodes[dst].meta = n.meta
		if f.dstParent == nilIdx {
			subRoot = dst
		} else if f.isLeft {
			t.nodes[f.dstParent].left = dst
		} else {
			t.nodes[f.dstParent].right = dst
		}
		if n.right != nilIdx {
			stack = append(stack, frame{srcIdx: n.right, dstParent: dst})
		}
		if n.left != nilIdx {
			stack = append(stack, frame{srcIdx: n.left, dstParent: dst, isLeft: true})
		}
	}
	t.count += src.count
	src.reset()
	return subRoot
}

// reset releases every node, positions handed out before become stale.
func (t *LinkedBinaryTree[E]) reset() {
	for i := 1; i < len(t.nodes); i++ {
		if t.nodes[i].inUse {
			t.release(uint32(i))
		}
	}
	t.root = nilIdx
	t.count = 0
	t.version++
}

func (t *LinkedBinaryTree[E]) relink(parent, child uint32, makeLeft bool) {
	if makeLeft {
		t.nodes[parent].left = child
	} else {
		t.nodes[parent].right = child
	}
	if child != nilIdx {
		t.nodes[child].parent = parent
	}
}

/*
rotate(X), X is the left child of Y:

	    |                  |
	    Y                  X
	   / \                / \
	  X   C   =====>     A   Y
	 / \                    / \
	A   B                  B   C

rotate(X), X is the right child of Y, is the mirror.
The middle subtree B moves from X to Y, the in-order sequence is kept.
*/
func (t *LinkedBinaryTree[E]) rotate(x uint32) {
	y := t.nodes[x].parent
	if y == nilIdx {
		// impossible run to here
		panic( /* debug assertion */ "[tree] rotate the root node")
	}
	z := t.nodes[y].parent
	if z == nilIdx {
		t.root = x
		t.nodes[x].parent = nilIdx
	} else {
		t.relink(z, x, y == t.nodes[z].left)
	}
	if x == t.nodes[y].left {
		t.relink(y, t.nodes[x].right, true)
		t.relink(x, y, false)
	} else {
		t.relink(y, t.nodes[x].left, false)
		t.relink(x, y, true)
	}
	t.version++
}

/*
restructure(X) with parent Y and grandparent Z.

Aligned, single rotation of Y, Y becomes the subtree root:

	      Z
	     /               Y
	    Y     =====>    / \
	   /               X   Z
	  X

Zig-zag, double rotation of X, X becomes the subtree root:

	    Z
	   /                 X
	  Y       =====>    / \
	   \               Y   Z
	    X
*/
func (t *LinkedBinaryTree[E]) restructure(x uint32) uint32 {
	y := t.nodes[x].parent
	z := t.nodes[y].parent
	if (x == t.nodes[y].right) == (y == t.nodes[z].right) {
		t.rotate(y)
		return y
	}
	t.rotate(x)
	t.rotate(x)
	return x
}

func (t *LinkedBinaryTree[E]) String() string {
	return fmt.Sprintf("LinkedBinaryTree(owner: %d, len: %d, height: %d)", t.owner, t.count, t.Height())
}
