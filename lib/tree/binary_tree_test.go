package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collectElements[E any](t *testing.T, tree *LinkedBinaryTree[E], it PositionIterator) []E {
	t.Helper()
	res := make([]E, 0, tree.Len())
	for p, ok := it.Next(); ok; p, ok = it.Next() {
		e, err := tree.Element(p)
		require.NoError(t, err)
		res = append(res, e)
	}
	require.NoError(t, it.Err())
	return res
}

/*
	    A
	   / \
	  B   C
	 / \   \
	D   E   F
*/
func buildSampleTree(t *testing.T) (*LinkedBinaryTree[string], map[string]Position) {
	t.Helper()
	tree := NewLinkedBinaryTree[string]()
	pos := make(map[string]Position, 6)
	var err error
	pos["A"], err = tree.AddRoot("A")
	require.NoError(t, err)
	pos["B"], err = tree.AddLeft(pos["A"], "B")
	require.NoError(t, err)
	pos["C"], err = tree.AddRight(pos["A"], "C")
	require.NoError(t, err)
	pos["D"], err = tree.AddLeft(pos["B"], "D")
	require.NoError(t, err)
	pos["E"], err = tree.AddRight(pos["B"], "E")
	require.NoError(t, err)
	pos["F"], err = tree.AddRight(pos["C"], "F")
	require.NoError(t, err)
	require.Equal(t, int64(6), tree.Len())
	return tree, pos
}

func TestLinkedBinaryTree_Traversal(t *testing.T) {
	tree, _ := buildSampleTree(t)
	testcases := []struct {
		name     string
		iter     func() PositionIterator
		expected []string
	}{
		{"preorder", tree.Preorder, []string{"A", "B", "D", "E", "C", "F"}},
		{"inorder", tree.Inorder, []string{"D", "B", "E", "A", "C", "F"}},
		{"postorder", tree.Postorder, []string{"D", "E", "B", "F", "C", "A"}},
		{"breadth first", tree.BreadthFirst, []string{"A", "B", "C", "D", "E", "F"}},
		{"positions", tree.Positions, []string{"D", "B", "E", "A", "C", "F"}},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			require.Equal(tt, tc.expected, collectElements(tt, tree, tc.iter()))
			// Restart after full consumption.
			require.Equal(tt, tc.expected, collectElements(tt, tree, tc.iter()))
		})
	}
}

func TestLinkedBinaryTree_EmptyTraversal(t *testing.T) {
	tree := NewLinkedBinaryTree[int]()
	require.True(t, tree.IsEmpty())
	require.True(t, tree.Root().IsNil())
	require.Equal(t, 0, tree.Height())
	for _, it := range []PositionIterator{tree.Inorder(), tree.Preorder(), tree.Postorder(), tree.BreadthFirst()} {
		p, ok := it.Next()
		require.False(t, ok)
		require.True(t, p.IsNil())
		require.NoError(t, it.Err())
	}
}

func TestLinkedBinaryTree_Navigation(t *testing.T) {
	tree, pos := buildSampleTree(t)

	root := tree.Root()
	require.Equal(t, pos["A"], root)
	parent, err := tree.Parent(root)
	require.NoError(t, err)
	require.True(t, parent.IsNil())

	parent, err = tree.Parent(pos["E"])
	require.NoError(t, err)
	require.Equal(t, pos["B"], parent)

	sibling, err := tree.Sibling(pos["B"])
	require.NoError(t, err)
	require.Equal(t, pos["C"], sibling)
	sibling, err = tree.Sibling(pos["F"])
	require.NoError(t, err)
	require.True(t, sibling.IsNil())

	left, err := tree.Left(pos["C"])
	require.NoError(t, err)
	require.True(t, left.IsNil())
	right, err := tree.Right(pos["C"])
	require.NoError(t, err)
	require.Equal(t, pos["F"], right)

	children, err := tree.Children(pos["B"])
	require.NoError(t, err)
	require.Equal(t, []Position{pos["D"], pos["E"]}, children)

	n, err := tree.NumChildren(pos["C"])
	require.NoError(t, err)
	require.Equal(t, 1, n)

	leaf, err := tree.IsLeaf(pos["D"])
	require.NoError(t, err)
	require.True(t, leaf)
	leaf, err = tree.IsLeaf(pos["B"])
	require.NoError(t, err)
	require.False(t, leaf)

	isRoot, err := tree.IsRoot(pos["A"])
	require.NoError(t, err)
	require.True(t, isRoot)
	isRoot, err = tree.IsRoot(pos["F"])
	require.NoError(t, err)
	require.False(t, isRoot)

	depth, err := tree.Depth(pos["F"])
	require.NoError(t, err)
	require.Equal(t, 2, depth)
	require.Equal(t, 3, tree.Height())
}

func TestLinkedBinaryTree_StructuralPreconditions(t *testing.T) {
	tree, pos := buildSampleTree(t)

	_, err := tree.AddRoot("X")
	require.ErrorIs(t, err, ErrRootExists)
	require.ErrorIs(t, err, ErrStructuralPrecondition)

	_, err = tree.AddLeft(pos["B"], "X")
	require.ErrorIs(t, err, ErrChildExists)
	_, err = tree.AddRight(pos["C"], "X")
	require.ErrorIs(t, err, ErrChildExists)

	_, err = tree.Delete(pos["A"])
	require.ErrorIs(t, err, ErrTwoChildren)
	require.ErrorIs(t, err, ErrStructuralPrecondition)
	require.Equal(t, int64(6), tree.Len())

	err = tree.Attach(pos["B"], nil, nil)
	require.ErrorIs(t, err, ErrNotLeaf)
}

func TestLinkedBinaryTree_ReplaceAndDelete(t *testing.T) {
	tree, pos := buildSampleTree(t)

	old, err := tree.Replace(pos["D"], "d")
	require.NoError(t, err)
	require.Equal(t, "D", old)

	// C has the single child F, which is promoted.
	removed, err := tree.Delete(pos["C"])
	require.NoError(t, err)
	require.Equal(t, "C", removed)
	require.Equal(t, int64(5), tree.Len())
	right, err := tree.Right(pos["A"])
	require.NoError(t, err)
	require.Equal(t, pos["F"], right)
	parent, err := tree.Parent(pos["F"])
	require.NoError(t, err)
	require.Equal(t, pos["A"], parent)

	_, err = tree.Element(pos["C"])
	require.ErrorIs(t, err, ErrInvalidPosition)
	_, err = tree.Parent(pos["C"])
	require.ErrorIs(t, err, ErrInvalidPosition)

	require.Equal(t, []string{"d", "B", "E", "A", "F"}, collectElements(t, tree, tree.Inorder()))

	// The released slot is reused, the stale position stays rejected.
	g, err := tree.AddLeft(pos["F"], "G")
	require.NoError(t, err)
	require.Equal(t, pos["C"].idx, g.idx)
	require.NotEqual(t, pos["C"], g)
	_, err = tree.Element(pos["C"])
	require.ErrorIs(t, err, ErrInvalidPosition)
	e, err := tree.Element(g)
	require.NoError(t, err)
	require.Equal(t, "G", e)

	// Deleting the root with a single child promotes the child.
	single := NewLinkedBinaryTree[int]()
	r, err := single.AddRoot(1)
	require.NoError(t, err)
	c, err := single.AddRight(r, 2)
	require.NoError(t, err)
	_, err = single.Delete(r)
	require.NoError(t, err)
	require.Equal(t, c, single.Root())
	isRoot, err := single.IsRoot(c)
	require.NoError(t, err)
	require.True(t, isRoot)
	_, err = single.Delete(c)
	require.NoError(t, err)
	require.True(t, single.IsEmpty())
	require.True(t, single.Root().IsNil())
}

func TestLinkedBinaryTree_InvalidPosition(t *testing.T) {
	tree, _ := buildSampleTree(t)
	other, _ := buildSampleTree(t)

	_, err := tree.Element(Position{})
	require.ErrorIs(t, err, ErrInvalidPosition)

	// Same slot layout, different owner.
	_, err = tree.Element(other.Root())
	require.ErrorIs(t, err, ErrInvalidPosition)
	_, err = tree.AddLeft(other.Root(), "X")
	require.ErrorIs(t, err, ErrInvalidPosition)
	_, err = tree.Delete(other.Root())
	require.ErrorIs(t, err, ErrInvalidPosition)

	_, err = tree.Element(Position{owner: tree.owner, idx: 1 << 20})
	require.ErrorIs(t, err, ErrInvalidPosition)
	require.Equal(t, int64(6), tree.Len())
}

func TestLinkedBinaryTree_Attach(t *testing.T) {
	tree := NewLinkedBinaryTree[int]()
	root, err := tree.AddRoot(4)
	require.NoError(t, err)

	left := NewLinkedBinaryTree[int]()
	l, err := left.AddRoot(2)
	require.NoError(t, err)
	ll, err := left.AddLeft(l, 1)
	require.NoError(t, err)
	_, err = left.AddRight(l, 3)
	require.NoError(t, err)

	right := NewLinkedBinaryTree[int]()
	r, err := right.AddRoot(6)
	require.NoError(t, err)
	_, err = right.AddRight(r, 7)
	require.NoError(t, err)

	require.ErrorIs(t, tree.Attach(root, tree, nil), ErrAttachConflict)
	require.ErrorIs(t, tree.Attach(root, left, left), ErrAttachConflict)

	require.NoError(t, tree.Attach(root, left, right))
	require.Equal(t, int64(6), tree.Len())
	require.Equal(t, 3, tree.Height())
	require.Equal(t, []int{1, 2, 3, 4, 6, 7}, collectElements(t, tree, tree.Inorder()))
	require.Equal(t, []int{4, 2, 6, 1, 3, 7}, collectElements(t, tree, tree.BreadthFirst()))

	require.True(t, left.IsEmpty())
	require.True(t, right.IsEmpty())
	_, err = left.Element(ll)
	require.ErrorIs(t, err, ErrInvalidPosition)

	// The sources are reusable.
	_, err = left.AddRoot(10)
	require.NoError(t, err)

	// Attaching empty trees is a no-op.
	leaf, err := tree.Right(root)
	require.NoError(t, err)
	leaf, err = tree.Right(leaf)
	require.NoError(t, err)
	require.NoError(t, tree.Attach(leaf, nil, NewLinkedBinaryTree[int]()))
	require.Equal(t, int64(6), tree.Len())
}

func TestLinkedBinaryTree_IteratorInvalidation(t *testing.T) {
	tree, pos := buildSampleTree(t)

	it := tree.Inorder()
	p, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, pos["D"], p)

	_, err := tree.AddLeft(pos["D"], "X")
	require.NoError(t, err)
	_, ok = it.Next()
	require.False(t, ok)
	require.ErrorIs(t, it.Err(), ErrIteratorInvalidated)

	// Replace is not structural.
	it = tree.BreadthFirst()
	_, ok = it.Next()
	require.True(t, ok)
	_, err = tree.Replace(pos["A"], "a")
	require.NoError(t, err)
	p, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, pos["B"], p)
	require.NoError(t, it.Err())
}

func TestLinkedBinaryTree_Restructure(t *testing.T) {
	testcases := []struct {
		name   string
		shape  []bool // true: add to the left
		middle int
	}{
		{"left-left", []bool{true, true}, 2},
		{"right-right", []bool{false, false}, 2},
		{"left-right", []bool{true, false}, 3},
		{"right-left", []bool{false, true}, 3},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			tree := NewLinkedBinaryTree[int]()
			p, err := tree.AddRoot(1)
			require.NoError(tt, err)
			for i, isLeft := range tc.shape {
				if isLeft {
					p, err = tree.AddLeft(p, i+2)
				} else {
					p, err = tree.AddRight(p, i+2)
				}
				require.NoError(tt, err)
			}
			before := collectElements(tt, tree, tree.Inorder())
			middle := tree.restructure(p.idx)
			require.Equal(tt, tree.root, middle)
			require.Equal(tt, tc.middle, tree.nodes[middle].elem)
			require.Equal(tt, 2, tree.numChildren(middle))
			require.Equal(tt, 2, tree.Height())
			require.Equal(tt, before, collectElements(tt, tree, tree.Inorder()))

			// Rotation keeps every position valid.
			_, err = tree.Element(p)
			require.NoError(tt, err)
		})
	}
}
