// Package concurrency has the small synchronization primitives shared by
// the server: lazily built singletons and per-key locks.
package concurrency

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("future closed")

// Future builds a value once, on first use. Concurrent first callers share
// one build; a failed build is retried by the next caller. Close releases
// the value through the configured closer.
type Future[T any] struct {
	build func(ctx context.Context) (T, error)
	close func(T) error

	group  singleflight.Group
	mu     sync.RWMutex
	value  T
	ready  bool
	closed bool
}

// NewFuture wraps build. closer may be nil.
func NewFuture[T any](build func(ctx context.Context) (T, error), closer func(T) error) *Future[T] {
	return &Future[T]{build: build, close: closer}
}

// Get returns the value, building it if needed.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	f.mu.RLock()
	if f.closed {
		f.mu.RUnlock()
		var zero T
		return zero, ErrClosed
	}
	if f.ready {
		v := f.value
		f.mu.RUnlock()
		return v, nil
	}
	f.mu.RUnlock()

	v, err, _ := f.group.Do("build", func() (interface{}, error) {
		f.mu.RLock()
		if f.ready {
			v := f.value
			f.mu.RUnlock()
			return v, nil
		}
		f.mu.RUnlock()

		v, err := f.build(ctx)
		if err != nil {
			return nil, err
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.closed {
			if f.close != nil {
				_ = f.close(v)
			}
			return nil, ErrClosed
		}
		f.value, f.ready = v, true
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Close releases a built value. Safe to call more than once.
func (f *Future[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if !f.ready || f.close == nil {
		return nil
	}
	var zero T
	v := f.value
	f.value, f.ready = zero, false
	return f.close(v)
}
