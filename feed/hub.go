// Package feed delivers live query results: a subscriber receives the
// current value right away and then every published value.
package feed

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

type Hub[K comparable, V any] struct {
	topics *xsync.MapOf[K, *topic[V]]
}

type topic[V any] struct {
	lock sync.Mutex
	subs map[chan V]struct{}
}

func NewHub[K comparable, V any]() *Hub[K, V] {
	return &Hub[K, V]{
		topics: xsync.NewMapOf[K, *topic[V]](),
	}
}

// Subscribe registers a listener for key. fetch is called once to replay the
// current value. Delivery is latest-wins: a slow reader skips intermediate
// values but always ends up with the newest one. The channel is closed when
// ctx is done.
func (h *Hub[K, V]) Subscribe(ctx context.Context, key K, fetch func(ctx context.Context) (V, error)) (<-chan V, error) {
	t, _ := h.topics.LoadOrStore(key, &topic[V]{subs: map[chan V]struct{}{}})
	ch := make(chan V, 1)

	// holding the topic lock while fetching keeps a concurrent publish from
	// being overwritten by an older replayed value
	t.lock.Lock()
	if fetch != nil {
		v, err := fetch(ctx)
		if err != nil {
			t.lock.Unlock()
			return nil, err
		}
		ch <- v
	}
	t.subs[ch] = struct{}{}
	t.lock.Unlock()

	go func() {
		<-ctx.Done()
		t.lock.Lock()
		delete(t.subs, ch)
		close(ch)
		t.lock.Unlock()
	}()

	return ch, nil
}

// Publish sends v to every subscriber of key without blocking.
func (h *Hub[K, V]) Publish(key K, v V) {
	t, ok := h.topics.Load(key)
	if !ok {
		return
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	for sub := range t.subs {
		select {
		case <-sub: // drop old value
		default:
		}
		sub <- v
	}
}

// Subscribers returns the number of live subscriptions on key.
func (h *Hub[K, V]) Subscribers(key K) int {
	t, ok := h.topics.Load(key)
	if !ok {
		return 0
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.subs)
}
