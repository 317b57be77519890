// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

// ShardedMap is a synchronized map[K]V, internally sharded by a user-defined
// K-sharding function.
//
// Each shard is its own CriticalState, so each shard's lock and map header
// share one allocation, padded away from the neighboring shards.
//
// The zero value is not safe for use; use NewShardedMap.
type ShardedMap[K comparable, V any] struct {
	shardFunc func(K) int
	shards    []CriticalState[map[K]V]
}

// NewShardedMap returns a new ShardedMap with the given number of shards and
// sharding function.
//
// The shard func must return a integer in the range [0, shards) purely
// deterministically based on the provided K.
func NewShardedMap[K comparable, V any](shards int, shard func(K) int) *ShardedMap[K, V] {
	m := &ShardedMap[K, V]{
		shardFunc: shard,
		shards:    make([]CriticalState[map[K]V], shards),
	}
	for i := range m.shards {
		m.shards[i] = NewCriticalState(make(map[K]V))
	}
	return m
}

func (m *ShardedMap[K, V]) shard(key K) CriticalState[map[K]V] {
	return m.shards[m.shardFunc(key)]
}

// GetOk returns m[key] and whether it was present.
func (m *ShardedMap[K, V]) GetOk(key K) (value V, ok bool) {
	m.shard(key).WithLock(func(sm *map[K]V) {
		value, ok = (*sm)[key]
	})
	return
}

// Get returns m[key] or the zero value of V if key is not present.
func (m *ShardedMap[K, V]) Get(key K) (value V) {
	value, _ = m.GetOk(key)
	return
}

// Mutate atomically mutates m[k] by calling mutator.
//
// The mutator function is called with the old value (or its zero value) and
// whether it existed in the map and it returns the new value and whether it
// should be set in the map (true) or deleted from the map (false). It runs
// inside the shard's critical region and must not call back into m.
//
// It returns the change in size of the map as a result of the mutation, one of
// -1 (delete), 0 (change), or 1 (addition).
func (m *ShardedMap[K, V]) Mutate(key K, mutator func(oldValue V, oldValueExisted bool) (newValue V, keep bool)) (sizeDelta int) {
	return WithCriticalRegion(m.shard(key), func(sm *map[K]V) int {
		oldV, oldOK := (*sm)[key]
		newV, newOK := mutator(oldV, oldOK)
		if newOK {
			(*sm)[key] = newV
			if oldOK {
				return 0
			}
			return 1
		}
		delete(*sm, key)
		if oldOK {
			return -1
		}
		return 0
	})
}

// Set sets m[key] = value.
//
// It reports whether the map grew in size (that is, whether key was not already
// present in m).
func (m *ShardedMap[K, V]) Set(key K, value V) (grew bool) {
	return WithCriticalRegion(m.shard(key), func(sm *map[K]V) bool {
		s0 := len(*sm)
		(*sm)[key] = value
		return len(*sm) > s0
	})
}

// Delete removes key from m.
//
// It reports whether the map size shrunk (that is, whether key was present in
// the map).
func (m *ShardedMap[K, V]) Delete(key K) (shrunk bool) {
	return WithCriticalRegion(m.shard(key), func(sm *map[K]V) bool {
		s0 := len(*sm)
		delete(*sm, key)
		return len(*sm) < s0
	})
}

// Contains reports whether m contains key.
func (m *ShardedMap[K, V]) Contains(key K) bool {
	_, ok := m.GetOk(key)
	return ok
}

// Len returns the number of elements in m.
//
// It does so by locking shards one at a time, so it's not particularly cheap,
// nor does it give a consistent snapshot of the map. It's mostly intended for
// metrics or testing.
func (m *ShardedMap[K, V]) Len() int {
	n := 0
	for _, s := range m.shards {
		n += WithCriticalRegion(s, func(sm *map[K]V) int { return len(*sm) })
	}
	return n
}

// Close closes every shard. m must not be used afterwards.
func (m *ShardedMap[K, V]) Close() {
	for _, s := range m.shards {
		s.Close()
	}
}
