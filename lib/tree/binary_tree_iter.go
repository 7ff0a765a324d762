package tree

import (
	"github.com/eapache/queue"

	"github.com/benz9527/xtree/lib/infra"
)

type traversal[E any] struct {
	tree    *LinkedBinaryTree[E]
	version uint64
	err     error
}

func newTraversal[E any](tree *LinkedBinaryTree[E]) traversal[E] {
	return traversal[E]{
		tree:    tree,
		version: tree.version,
	}
}

func (it *traversal[E]) alive() bool {
	if it.err != nil {
		return false
	}
	if it.tree.version != it.version {
		it.err = infra.WrapErrorStack(ErrIteratorInvalidated)
		return false
	}
	return true
}

func (it *traversal[E]) Err() error {
	return it.err
}

type inorderIter[E any] struct {
	traversal[E]
	stack []uint32
}

func (it *inorderIter[E]) pushLeft(idx uint32) {
	for ; idx != nilIdx; idx = it.tree.nodes[idx].left {
		it.stack = append(it.stack, idx)
	}
}

func (it *inorderIter[E]) Next() (Position, bool) {
	if !it.alive() || len(it.stack) == 0 {
		return Position{}, false
	}
	idx := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	it.pushLeft(it.tree.nodes[idx].right)
	return it.tree.position(idx), true
}

type preorderIter[E any] struct {
	traversal[E]
	stack []uint32
}

func (it *preorderIter[E]) Next() (Position, bool) {
	if !it.alive() || len(it.stack) == 0 {
		return Position{}, false
	}
	idx := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	if r := it.tree.nodes[idx].right; r != nilIdx {
		it.stack = append(it.stack, r)
	}
	if l := it.tree.nodes[idx].left; l != nilIdx {
		it.stack = append(it.stack, l)
	}
	return it.tree.position(idx), true
}

type postorderFrame struct {
	idx      uint32
	expanded bool
}

type postorderIter[E any] struct {
	traversal[E]
	stack []postorderFrame
}

func (it *postorderIter[E]) Next() (Position, bool) {
	if !it.alive() {
		return Position{}, false
	}
	for len(it.stack) > 0 {
		f := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		if f.expanded {
			return it.tree.position(f.idx), true
		}
		it.stack = append(it.stack, postorderFrame{idx: f.idx, expanded: true})
		if r := it.tree.nodes[f.idx].right; r != nilIdx {
			it.stack = append(it.stack, postorderFrame{idx: r})
		}
		if l := it.tree.nodes[f.idx].left; l != nilIdx {
			it.stack = append(it.stack, postorderFrame{idx: l})
		}
	}
	return Position{}, false
}

type breadthFirstIter[E any] struct {
	traversal[E]
	fringe *queue.Queue
}

func (it *breadthFirstIter[E]) Next() (Position, bool) {
	if !it.alive() || it.fringe.Length() == 0 {
		return Position{}, false
	}
	idx := it.fringe.Remove().(uint32)
	if l := it.tree.nodes[idx].left; l != nilIdx {
		it.fringe.Add(l)
	}
	if r := it.tree.nodes[idx].right; r != nilIdx {
		it.fringe.Add(r)
	}
	return it.tree.position(idx), true
}

// Inorder visits left subtree, node, right subtree.
func (t *LinkedBinaryTree[E]) Inorder() PositionIterator {
	it := &inorderIter[E]{
		traversal: newTraversal(t),
		stack:     make([]uint32, 0, 32),
	}
	it.pushLeft(t.root)
	return it
}

// Preorder visits node, left subtree, right subtree.
func (t *LinkedBinaryTree[E]) Preorder() PositionIterator {
	it := &preorderIter[E]{
		traversal: newTraversal(t),
		stack:     make([]uint32, 0, 32),
	}
	if t.root != nilIdx {
		it.stack = append(it.stack, t.root)
	}
	return it
}

// Postorder visits left subtree, right subtree, node.
func (t *LinkedBinaryTree[E]) Postorder() PositionIterator {
	it := &postorderIter[E]{
		traversal: newTraversal(t),
		stack:     make([]postorderFrame, 0, 32),
	}
	if t.root != nilIdx {
		it.stack = append(it.stack, postorderFrame{idx: t.root})
	}
	return it
}

// BreadthFirst visits the tree level by level, left to right.
func (t *LinkedBinaryTree[E]) BreadthFirst() PositionIterator {
	it := &breadthFirstIter[E]{
		traversal: newTraversal(t),
		fringe:    queue.New(),
	}
	if t.root != nilIdx {
		it.fringe.Add(t.root)
	}
	return it
}

// Positions is the in-order sequence.
func (t *LinkedBinaryTree[E]) Positions() PositionIterator {
	return t.Inorder()
}
