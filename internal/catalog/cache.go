package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultCacheTTL = 12 * time.Hour
	defaultMaxBytes = 100 << 20
)

// cacheKey identifies one logical catalog request.
type cacheKey struct {
	op     string
	kind   Kind
	id     int64
	number int
	query  string
	year   int
}

// slot is either an in-flight request or a cached body.
type slot interface{ slot() }

// inFlight is owned by the single goroutine performing the underlying
// request; body and err are written before done is closed.
type inFlight struct {
	done chan struct{}
	body []byte
	err  error
}

func (*inFlight) slot() {}

type ready struct {
	body      []byte
	expiresAt time.Time
}

func (*ready) slot() {}

// cache coalesces identical requests and keeps successful bodies until
// they expire or the size ceiling forces them out.
type cache struct {
	mu       sync.Mutex
	slots    map[cacheKey]slot
	order    []cacheKey
	size     atomic.Int64
	ttl      time.Duration
	maxBytes int64

	evictCh   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newCache(ttl time.Duration, maxBytes int64) *cache {
	c := &cache{
		slots:    make(map[cacheKey]slot),
		ttl:      ttl,
		maxBytes: maxBytes,
		evictCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go c.evictLoop()
	return c
}

// getOrFetch returns the cached body for key, or elects this caller to
// run fetch. Concurrent callers for the same key wait on the owner's
// broadcast; exactly one underlying request is issued.
func (c *cache) getOrFetch(ctx context.Context, key cacheKey, fetch func() ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	switch s := c.slots[key].(type) {
	case *ready:
		if time.Now().Before(s.expiresAt) {
			c.mu.Unlock()
			return s.body, nil
		}
		// Expired; this caller takes ownership of the refresh.
		c.size.Add(-int64(len(s.body)))
	case *inFlight:
		c.mu.Unlock()
		select {
		case <-s.done:
			if s.err != nil {
				return nil, s.err
			}
			return s.body, nil
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
	}
	f := &inFlight{done: make(chan struct{})}
	c.slots[key] = f
	c.mu.Unlock()

	body, err := fetch()

	c.mu.Lock()
	if err != nil {
		delete(c.slots, key)
	} else {
		c.slots[key] = &ready{body: body, expiresAt: time.Now().Add(c.ttl)}
		c.order = append(c.order, key)
		c.size.Add(int64(len(body)))
	}
	c.mu.Unlock()

	f.body, f.err = body, err
	close(f.done)

	if err != nil {
		return nil, err
	}
	if c.size.Load() > c.maxBytes {
		select {
		case c.evictCh <- struct{}{}:
		default:
		}
	}
	return body, nil
}

func (c *cache) evictLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.evictCh:
			c.evict()
		}
	}
}

// evict drops cached bodies oldest first until under the ceiling.
// In-flight slots are never evicted.
func (c *cache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.size.Load() > c.maxBytes && len(c.order) > 0 {
		key := c.order[0]
		c.order = c.order[1:]
		r, ok := c.slots[key].(*ready)
		if !ok {
			continue
		}
		delete(c.slots, key)
		c.size.Add(-int64(len(r.body)))
	}
}

// close stops the eviction goroutine.
func (c *cache) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
