package tree

import (
	"math/rand"
	"testing"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/google/btree"
	"github.com/stretchr/testify/require"
)

// Random operations replayed against gods' red-black tree and google's
// btree, both maps must agree on every observation.
func TestRBTreeMap_Differential(t *testing.T) {
	testcases := []struct {
		name string
		seed int64
		opts []TreeMapOpt[int, int]
	}{
		{"pred seed 1", 1, nil},
		{"pred seed 42", 42, nil},
		{"succ seed 7", 7, []TreeMapOpt[int, int]{WithTreeMapRemoveBorrowSucc[int, int]()}},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			r := rand.New(rand.NewSource(tc.seed))
			m := NewRBTreeMap[int, int](tc.opts...)
			gods := redblacktree.NewWithIntComparator()
			bt := btree.NewOrderedG[int](8)

			const keySpace = 512
			for step := 0; step < 8000; step++ {
				k := r.Intn(keySpace)
				switch op := r.Intn(10); {
				case op < 5:
					m.Set(k, step)
					gods.Put(k, step)
					bt.ReplaceOrInsert(k)
				case op < 8:
					v, err := m.Delete(k)
					expected, found := gods.Get(k)
					if found {
						require.NoError(tt, err)
						require.Equal(tt, expected, v)
					} else {
						require.ErrorIs(tt, err, ErrKeyNotFound)
					}
					gods.Remove(k)
					_, had := bt.Delete(k)
					require.Equal(tt, found, had)
				default:
					v, err := m.Get(k)
					expected, found := gods.Get(k)
					if found {
						require.NoError(tt, err)
						require.Equal(tt, expected, v)
					} else {
						require.ErrorIs(tt, err, ErrKeyNotFound)
					}
				}

				require.Equal(tt, gods.Size(), int(m.Len()))
				require.Equal(tt, bt.Len(), int(m.Len()))
				if step%250 == 0 {
					require.NoError(tt, Validate(m))
					assertSameOrder(tt, m, gods, bt)
					assertSameNeighbours(tt, m, gods, r.Intn(keySpace))
				}
			}
			require.NoError(tt, Validate(m))
			assertSameOrder(tt, m, gods, bt)
		})
	}
}

func assertSameOrder(t *testing.T, m *TreeMap[int, int], gods *redblacktree.Tree, bt *btree.BTreeG[int]) {
	t.Helper()
	keys := mapKeys(m)

	godsKeys := make([]int, 0, gods.Size())
	for _, k := range gods.Keys() {
		godsKeys = append(godsKeys, k.(int))
	}
	require.Equal(t, godsKeys, keys)

	btKeys := make([]int, 0, bt.Len())
	bt.Ascend(func(item int) bool {
		btKeys = append(btKeys, item)
		return true
	})
	require.Equal(t, btKeys, keys)

	if len(keys) == 0 {
		require.Nil(t, m.FindMin())
		return
	}
	first, last := keys[0], keys[len(keys)-1]
	minKey, _ := bt.Min()
	maxKey, _ := bt.Max()
	require.Equal(t, minKey, m.FindMin().Key())
	require.Equal(t, maxKey, m.FindMax().Key())

	// Half open range of the middle part.
	start, stop := first+(last-first)/4, last-(last-first)/4
	expected := make([]int, 0, len(keys))
	bt.AscendRange(start, stop, func(item int) bool {
		expected = append(expected, item)
		return true
	})
	res := make([]int, 0, len(expected))
	m.ForeachRange(&start, &stop, func(idx int64, key int, val int) bool {
		res = append(res, key)
		return true
	})
	require.Equal(t, expected, res)
}

func assertSameNeighbours(t *testing.T, m *TreeMap[int, int], gods *redblacktree.Tree, key int) {
	t.Helper()
	floor, found := gods.Floor(key)
	if e := m.FindLe(key); found {
		require.NotNil(t, e)
		require.Equal(t, floor.Key, e.Key())
		require.Equal(t, floor.Value, e.Val())
	} else {
		require.Nil(t, e)
	}
	ceiling, found := gods.Ceiling(key)
	if e := m.FindGe(key); found {
		require.NotNil(t, e)
		require.Equal(t, ceiling.Key, e.Key())
	} else {
		require.Nil(t, e)
	}
}
