package id

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonotonicNonZeroID(t *testing.T) {
	gen := MonotonicNonZeroID()
	require.Equal(t, uint64(0), gen.Issued())
	prev := uint64(0)
	for i := 0; i < 1000; i++ {
		n := gen.Next()
		require.Greater(t, n, prev)
		require.Equal(t, n, gen.Issued())
		prev = n
	}
}

func TestMonotonicNonZeroID_Overflow(t *testing.T) {
	src := &monotonicNonZeroID{val: ^uint64(0) - 1}
	require.Equal(t, ^uint64(0), src.next())
	require.Equal(t, uint64(1), src.next())
	require.Equal(t, uint64(1), src.last())
}

func TestMonotonicNonZeroID_Concurrent(t *testing.T) {
	gen := MonotonicNonZeroID()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint64]struct{}, 8*256)
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint64, 0, 256)
			for i := 0; i < 256; i++ {
				local = append(local, gen.Next())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, n := range local {
				seen[n] = struct{}{}
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, 8*256)
	require.Equal(t, uint64(8*256), gen.Issued())
}
