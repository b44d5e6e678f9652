// Package loader batches and caches keyed lookups made while resolving one
// GraphQL request, so that N sibling fields cost one query instead of N.
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultWait     = 2 * time.Millisecond
	DefaultMaxBatch = 100
)

// BatchFunc fetches many keys at once. Keys missing from the returned map
// resolve to the zero value. An error fails every key of the batch.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

type Options struct {
	// Wait is how long a batch collects keys before it is dispatched.
	Wait time.Duration
	// MaxBatch dispatches a batch early once it holds this many keys.
	MaxBatch int
}

type result[V any] struct {
	done  chan struct{}
	value V
	err   error
}

type batch[K comparable, V any] struct {
	keys    []K
	results []*result[V]
	timer   *time.Timer
	sent    bool
}

// Loader is safe for concurrent use. Results, failures included, are kept
// for the lifetime of the loader; it is meant to live for one request.
type Loader[K comparable, V any] struct {
	ctx      context.Context
	fetch    BatchFunc[K, V]
	wait     time.Duration
	maxBatch int

	mu      sync.Mutex
	cache   map[K]*result[V]
	pending *batch[K, V]
}

// New builds a loader whose batches run with ctx. Zero options take the
// defaults.
func New[K comparable, V any](ctx context.Context, fetch BatchFunc[K, V], opts Options) *Loader[K, V] {
	if opts.Wait <= 0 {
		opts.Wait = DefaultWait
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	return &Loader[K, V]{
		ctx:      ctx,
		fetch:    fetch,
		wait:     opts.Wait,
		maxBatch: opts.MaxBatch,
		cache:    make(map[K]*result[V]),
	}
}

// Load returns the value for key, joining the pending batch or starting a
// new one. ctx only bounds the wait of this caller.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	r := l.enqueue(key)

	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Clear forgets key so the next Load fetches it again.
func (l *Loader[K, V]) Clear(key K) {
	l.mu.Lock()
	delete(l.cache, key)
	l.mu.Unlock()
}

func (l *Loader[K, V]) enqueue(key K) *result[V] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if r, ok := l.cache[key]; ok {
		return r
	}

	r := &result[V]{done: make(chan struct{})}
	l.cache[key] = r

	b := l.pending
	if b == nil {
		b = &batch[K, V]{}
		l.pending = b
		b.timer = time.AfterFunc(l.wait, func() { l.flush(b) })
	}
	b.keys = append(b.keys, key)
	b.results = append(b.results, r)

	if len(b.keys) >= l.maxBatch {
		l.pending = nil
		b.sent = true
		b.timer.Stop()
		go l.run(b)
	}
	return r
}

func (l *Loader[K, V]) flush(b *batch[K, V]) {
	l.mu.Lock()
	if b.sent {
		l.mu.Unlock()
		return
	}
	b.sent = true
	if l.pending == b {
		l.pending = nil
	}
	l.mu.Unlock()

	l.run(b)
}

func (l *Loader[K, V]) run(b *batch[K, V]) {
	values, err := l.call(b.keys)
	for i, key := range b.keys {
		r := b.results[i]
		if err != nil {
			r.err = err
		} else {
			r.value = values[key]
		}
		close(r.done)
	}
}

func (l *Loader[K, V]) call(keys []K) (values map[K]V, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("loader batch panicked: %v", p)
		}
	}()
	return l.fetch(l.ctx, keys)
}
