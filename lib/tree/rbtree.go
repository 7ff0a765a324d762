package tree

// References:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// Goodrich, Tamassia, Goldwasser, "Data Structures and Algorithms in Python", 11.6
// rbtree properties:
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) If a node X has exactly one child, it must be a red leaf.
// The longest path nodes' number is at most 2 * shortest path nodes' number.

type redBlackBalancer[K any, V any] struct{}

// NewRedBlackBalancer keeps the color of every node in its balancing tag.
func NewRedBlackBalancer[K any, V any]() Balancer[K, V] {
	return redBlackBalancer[K, V]{}
}

type rbArena[K any, V any] struct {
	*LinkedBinaryTree[entry[K, V]]
}

func (t rbArena[K, V]) color(idx uint32) RBColor {
	if idx == nilIdx {
		return Black
	}
	return RBColor(t.nodes[idx].meta)
}

func (t rbArena[K, V]) setColor(idx uint32, c RBColor) {
	if idx != nilIdx {
		t.nodes[idx].meta = uint8(c)
	}
}

func (t rbArena[K, V]) isRed(idx uint32) bool {
	return t.color(idx) == Red
}

func (t rbArena[K, V]) isRedLeaf(idx uint32) bool {
	return t.isRed(idx) && t.numChildren(idx) == 0
}

// redChild returns a red child of idx, the left one first, or nil.
func (t rbArena[K, V]) redChild(idx uint32) uint32 {
	if l := t.nodes[idx].left; t.isRed(l) {
		return l
	}
	if r := t.nodes[idx].right; t.isRed(r) {
		return r
	}
	return nilIdx
}

func (redBlackBalancer[K, V]) OnAccess(*TreeMap[K, V], Position) {}

func (redBlackBalancer[K, V]) OnInsert(m *TreeMap[K, V], p Position) {
	idx, err := m.tree.validate(p)
	if err != nil {
		// impossible run to here
		panic( /* debug assertion */ "[tree] red-black insert hook on a stale position: " + err.Error())
	}
	t := rbArena[K, V]{m.tree}
	t.setColor(idx, Red)
	t.resolveRed(idx)
}

/*
New node X is red.

<X> is a RED node.
[X] is a BLACK node (or NIL).

ir1: X is the root, repaint it into black.

ir2: X's parent P is black, nothing violated.

ir3: P is red and the uncle U is black, a misshapen 4-node.
Tri-node restructure X, P and G, the middle becomes black and its
children red.

	    [G]                  [P]
	    / \   restructure    / \
	  <P> [U]  ========>   <X> <G>
	  /                          \
	<X>                          [U]

ir4: P and U are both red, an overfull 5-node.
Repaint G into red, P and U into black, then G may be red-violation.
Recursive to fix G.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>
*/
func (t rbArena[K, V]) resolveRed(x uint32) {
	for {
		p := t.nodes[x].parent
		if /* ir1 */ p == nilIdx {
			t.setColor(x, Black)
			return
		}
		if /* ir2 */ !t.isRed(p) {
			return
		}
		if /* ir3 */ uncle := t.siblingIdx(p); !t.isRed(uncle) {
			middle := t.restructure(x)
			t.setColor(middle, Black)
			t.setColor(t.nodes[middle].left, Red)
			t.setColor(t.nodes[middle].right, Red)
			return
		}
		/* ir4 */
		g := t.nodes[p].parent
		t.setColor(g, Red)
		t.setColor(t.nodes[g].left, Black)
		t.setColor(t.nodes[g].right, Black)
		x = g
	}
}

/*
P is the parent of the spliced node X.

rd1: Only one node left, it must be black.

rd2: P has one child C after splicing. A black leaf X was removed beside C,
so P is black-deficient on X's side, unless C is a red leaf (then X was a
red leaf too).

rd3: P still has two children. X was black with a single red leaf child,
which has been promoted. Repaint the promoted red leaf into black.
*/
func (redBlackBalancer[K, V]) OnDelete(m *TreeMap[K, V], p Position) {
	t := rbArena[K, V]{m.tree}
	if /* rd1 */ t.count == 1 {
		t.setColor(t.root, Black)
		return
	}
	if p.IsNil() {
		t.setColor(t.root, Black)
		return
	}
	idx, err := t.validate(p)
	if err != nil {
		// impossible run to here
		panic( /* debug assertion */ "[tree] red-black delete hook on a stale position: " + err.Error())
	}
	switch t.numChildren(idx) {
	case /* rd2 */ 1:
		c := t.nodes[idx].left
		if c == nilIdx {
			c = t.nodes[idx].right
		}
		if !t.isRedLeaf(c) {
			t.fixDeficit(idx, c)
		}
	case /* rd3 */ 2:
		if l := t.nodes[idx].left; t.isRedLeaf(l) {
			t.setColor(l, Black)
		} else {
			t.setColor(t.nodes[idx].right, Black)
		}
	default:
	}
}

/*
Z is black-deficient on one side, Y is the root of Z's heavier subtree.
{X} is either a RED node or a BLACK node.

fd1: Y is black and has a red child X, transfer.
Tri-node restructure X, Y and Z. The middle takes Z's old color and its
children become black.

	    {Z}                  {Y}
	    / \   restructure    / \
	  [Y] [.]  ========>   [X] [Z]
	  /                          \
	<X>                          [.]

fd2: Y is black and both of its children are black, fusion.
Repaint Y into red. If Z is red, repaint it into black and stop.
Otherwise the deficit moves up to Z's parent.

	    {Z}             [Z]
	    / \             / \
	  [Y] [.]  ====>  <Y> [.]
	  / \             / \
	[.] [.]         [.] [.]

fd3: Y is red, rotate Y above Z, repaint Y into black and Z into red.
Z's new heavier child is black, fd1 or fd2 finishes it.

	    [Z]                <Y>              [Y]
	    / \   rotate(Y)    / \    repaint   / \
	  <Y> [.]  ======>   [a] [Z]  =====>  [a] <Z>
	  / \                    / \              / \
	[a] [b]                [b] [.]          [b] [.]
*/
func (t rbArena[K, V]) fixDeficit(z, y uint32) {
	for {
		if /* fd3 */ t.isRed(y) {
			t.rotate(y)
			t.setColor(y, Black)
			t.setColor(z, Red)
			if z == t.nodes[y].right {
				y = t.nodes[z].left
			} else {
				y = t.nodes[z].right
			}
			continue
		}

		if /* fd1 */ x := t.redChild(y); x != nilIdx {
			oldColor := t.color(z)
			middle := t.restructure(x)
			t.setColor(middle, oldColor)
			t.setColor(t.nodes[middle].left, Black)
			t.setColor(t.nodes[middle].right, Black)
			return
		}

		/* fd2 */
		t.setColor(y, Red)
		if t.isRed(z) {
			t.setColor(z, Black)
			return
		}
		if t.nodes[z].parent == nilIdx {
			return
		}
		y = t.siblingIdx(z)
		z = t.nodes[z].parent
	}
}
