package pipeline

import (
	"context"
	"sync"
)

// Cache memoizes resolutions for the life of the process and runs at most
// one computation per key at a time. Concurrent callers for a key wait on
// the same computation. A computation whose callers have all gone away is
// cancelled and its key freed for the next caller. Failed computations are
// not memoized.
type Cache struct {
	mu       sync.Mutex
	done     map[string]*resolution
	calls    map[string]*call
	computes int
}

type call struct {
	done    chan struct{}
	res     *resolution
	err     error
	cancel  context.CancelFunc
	waiters int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		done:  make(map[string]*resolution),
		calls: make(map[string]*call),
	}
}

// Len returns the number of memoized resolutions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.done)
}

// Computes returns how many computations have been started.
func (c *Cache) Computes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.computes
}

func (c *Cache) get(ctx context.Context, key string, compute func(context.Context) (*resolution, error)) (*resolution, error) {
	c.mu.Lock()
	if res, ok := c.done[key]; ok {
		c.mu.Unlock()
		return res, nil
	}
	cl, ok := c.calls[key]
	if !ok {
		// The computation outlives any single caller; it is cancelled
		// only when the last waiter leaves.
		cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		cl = &call{done: make(chan struct{}), cancel: cancel}
		c.calls[key] = cl
		c.computes++
		go c.run(cctx, key, cl, compute)
	}
	cl.waiters++
	c.mu.Unlock()

	select {
	case <-cl.done:
		c.release(key, cl)
		return cl.res, cl.err
	case <-ctx.Done():
		c.release(key, cl)
		return nil, ctx.Err()
	}
}

func (c *Cache) run(ctx context.Context, key string, cl *call, compute func(context.Context) (*resolution, error)) {
	res, err := compute(ctx)

	c.mu.Lock()
	if err == nil {
		c.done[key] = res
	}
	if c.calls[key] == cl {
		delete(c.calls, key)
	}
	cl.res, cl.err = res, err
	c.mu.Unlock()

	cl.cancel()
	close(cl.done)
}

func (c *Cache) release(key string, cl *call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl.waiters--
	if cl.waiters > 0 {
		return
	}
	select {
	case <-cl.done:
		return
	default:
	}
	cl.cancel()
	if c.calls[key] == cl {
		delete(c.calls, key)
	}
}
