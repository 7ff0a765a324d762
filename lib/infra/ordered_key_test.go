package infra

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareOrderedKey(t *testing.T) {
	require.Equal(t, int64(0), CompareOrderedKey(3, 3))
	require.Equal(t, int64(-1), CompareOrderedKey(2, 3))
	require.Equal(t, int64(1), CompareOrderedKey("b", "a"))
	require.Equal(t, int64(-1), CompareOrderedKey(1.5, 2.5))

	desc := Reverse[int](CompareOrderedKey[int])
	require.Equal(t, int64(1), desc(2, 3))
	require.Equal(t, int64(-1), desc(3, 2))
	require.Equal(t, int64(0), desc(3, 3))
}
