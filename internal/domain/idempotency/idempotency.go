// Package idempotency remembers which member a client-supplied
// Idempotency-Key produced, so retried creates return the original member.
package idempotency

import (
	"container/list"
	"context"
	"sync"
)

// Keys tracks idempotency keys and the member IDs they resolved to.
type Keys interface {
	// Claim atomically reserves key. If the key is new it is recorded as
	// pending and claimed is true. Otherwise claimed is false and id holds
	// the member created under it, or 0 while the first request is in flight.
	Claim(ctx context.Context, key string) (id int64, claimed bool)

	// Complete binds a claimed key to the member it created.
	Complete(ctx context.Context, key string, id int64)

	// Release drops a claim whose create failed so the client can retry.
	Release(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key string
	id  int64
}

// inMemoryKeys evicts the oldest key once maxSize is reached. maxSize <= 0
// disables eviction.
type inMemoryKeys struct {
	mu      sync.Mutex
	byKey   map[string]*list.Element
	order   *list.List // front = oldest
	maxSize int
}

// NewInMemoryKeys creates an in-memory key cache.
func NewInMemoryKeys(opts ...Option) Keys {
	k := &inMemoryKeys{
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(k)
	}
	k.byKey = make(map[string]*list.Element)
	k.order = list.New()
	return k
}

func (k *inMemoryKeys) Claim(_ context.Context, key string) (int64, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if el, ok := k.byKey[key]; ok {
		return el.Value.(*entry).id, false
	}
	if k.maxSize > 0 && k.order.Len() >= k.maxSize {
		k.evictOldest()
	}
	k.byKey[key] = k.order.PushBack(&entry{key: key})
	return 0, true
}

func (k *inMemoryKeys) Complete(_ context.Context, key string, id int64) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if el, ok := k.byKey[key]; ok {
		el.Value.(*entry).id = id
	}
}

func (k *inMemoryKeys) Release(_ context.Context, key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if el, ok := k.byKey[key]; ok {
		k.order.Remove(el)
		delete(k.byKey, key)
	}
}

// Must be called with k.mu held.
func (k *inMemoryKeys) evictOldest() {
	el := k.order.Front()
	if el == nil {
		return
	}
	k.order.Remove(el)
	delete(k.byKey, el.Value.(*entry).key)
}

func (k *inMemoryKeys) Size() int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return int64(k.order.Len())
}
