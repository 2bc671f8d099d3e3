// Package cmap provides a sharded concurrent map.
//
// Keys are spread over a power-of-two number of shards, each guarded by its
// own RWMutex. Every single-key operation is atomic with respect to other
// operations on the same key; multi-key operations (Range, DeleteFunc, Count)
// visit shards one at a time and do not see a consistent snapshot.
//
//	m := cmap.New[token.Digest, *Record]()
//	if !m.SetIfAbsent(d, rec) {
//		// digest already present
//	}
//	rec, ok := m.Pop(d)
package cmap
