package tree

import (
	"sync"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestThreadSafeTreeMap_Concurrent(t *testing.T) {
	pool, err := ants.NewPool(16)
	require.NoError(t, err)
	defer pool.Release()

	impl := NewRBTreeMap[int, int]()
	m := NewThreadSafeTreeMap[int, int](impl)

	const workers, perWorker = 32, 256
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		require.NoError(t, pool.Submit(func() {
			defer wg.Done()
			base := w * perWorker
			for i := 0; i < perWorker; i++ {
				m.Set(base+i, base+i)
				_ = m.Contains(base + i)
				_ = m.FindGe(base)
			}
			// Drop the odd keys of this worker.
			for i := 1; i < perWorker; i += 2 {
				_, _ = m.Delete(base + i)
			}
		}))
	}
	wg.Wait()

	require.Equal(t, int64(workers*perWorker/2), m.Len())
	require.NoError(t, Validate(impl))
	keys := make([]int, 0, m.Len())
	m.Foreach(func(idx int64, key int, val int) bool {
		require.Equal(t, key, val)
		keys = append(keys, key)
		return true
	})
	expected := lo.Filter(lo.Range(workers*perWorker), func(k int, _ int) bool {
		return k%2 == 0
	})
	require.Equal(t, expected, keys)
}

func TestThreadSafeTreeMap_Delegates(t *testing.T) {
	m := NewThreadSafeTreeMap[int, string](NewRBTreeMap[int, string]())
	for _, k := range []int{5, 1, 9, 3, 7} {
		require.NoError(t, m.SetIfAbsent(k, "v"))
	}
	require.ErrorIs(t, m.SetIfAbsent(5, "x"), ErrKeyExists)
	require.Equal(t, 1, m.FindMin().Key())
	require.Equal(t, 9, m.FindMax().Key())
	require.Equal(t, 3, m.FindGt(1).Key())
	require.Equal(t, 7, m.FindLt(9).Key())
	require.Equal(t, 5, m.FindLe(6).Key())
	require.LessOrEqual(t, m.Height(), 4)

	reversed := make([]int, 0, 5)
	m.ReverseForeach(func(idx int64, key int, val string) bool {
		reversed = append(reversed, key)
		return true
	})
	require.Equal(t, []int{9, 7, 5, 3, 1}, reversed)

	ranged := make([]int, 0, 2)
	m.ForeachRange(lo.ToPtr(3), lo.ToPtr(7), func(idx int64, key int, val string) bool {
		ranged = append(ranged, key)
		return true
	})
	require.Equal(t, []int{3, 5}, ranged)

	e, err := m.RemoveMax()
	require.NoError(t, err)
	require.Equal(t, 9, e.Key())
	e, err = m.RemoveMin()
	require.NoError(t, err)
	require.Equal(t, 1, e.Key())
	v, err := m.Get(7)
	require.NoError(t, err)
	require.Equal(t, "v", v)

	m.Clear()
	require.Equal(t, int64(0), m.Len())
	_, err = m.RemoveMin()
	require.ErrorIs(t, err, ErrEmptyMap)
}
