package tree

import (
	"sync"
)

var _ SortedMap[uint8, struct{}] = (*treeMapDelegator[uint8, struct{}])(nil)

// treeMapDelegator serializes every call with one exclusive lock,
// lookups included since OnAccess may reshape the tree.
type treeMapDelegator[K any, V any] struct {
	mu   sync.Mutex
	impl *TreeMap[K, V]
}

// NewThreadSafeTreeMap guards m with a mutex. m must not be used
// directly afterwards. The callbacks of the Foreach family run with the
// lock held and must not call back into the returned map.
func NewThreadSafeTreeMap[K any, V any](m *TreeMap[K, V]) SortedMap[K, V] {
	return &treeMapDelegator[K, V]{impl: m}
}

func (d *treeMapDelegator[K, V]) Len() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.Len()
}

func (d *treeMapDelegator[K, V]) Height() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.Height()
}

func (d *treeMapDelegator[K, V]) Get(key K) (V, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.Get(key)
}

func (d *treeMapDelegator[K, V]) Set(key K, val V) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.impl.Set(key, val)
}

func (d *treeMapDelegator[K, V]) SetIfAbsent(key K, val V) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.SetIfAbsent(key, val)
}

func (d *treeMapDelegator[K, V]) Delete(key K) (V, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.Delete(key)
}

func (d *treeMapDelegator[K, V]) Contains(key K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.Contains(key)
}

func (d *treeMapDelegator[K, V]) FindMin() MapEntry[K, V] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.FindMin()
}

func (d *treeMapDelegator[K, V]) FindMax() MapEntry[K, V] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.FindMax()
}

func (d *treeMapDelegator[K, V]) FindGe(key K) MapEntry[K, V] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.FindGe(key)
}

func (d *treeMapDelegator[K, V]) FindLe(key K) MapEntry[K, V] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.FindLe(key)
}

func (d *treeMapDelegator[K, V]) FindGt(key K) MapEntry[K, V] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.FindGt(key)
}

func (d *treeMapDelegator[K, V]) FindLt(key K) MapEntry[K, V] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.FindLt(key)
}

func (d *treeMapDelegator[K, V]) RemoveMin() (MapEntry[K, V], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.RemoveMin()
}

func (d *treeMapDelegator[K, V]) RemoveMax() (MapEntry[K, V], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.impl.RemoveMax()
}

func (d *treeMapDelegator[K, V]) Foreach(action func(idx int64, key K, val V) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.impl.Foreach(action)
}

func (d *treeMapDelegator[K, V]) ReverseForeach(action func(idx int64, key K, val V) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.impl.ReverseForeach(action)
}

func (d *treeMapDelegator[K, V]) ForeachRange(start, stop *K, action func(idx int64, key K, val V) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.impl.ForeachRange(start, stop, action)
}

func (d *treeMapDelegator[K, V]) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.impl.Clear()
}
