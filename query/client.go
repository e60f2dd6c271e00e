// Package query keeps list screens in sync with a collection backend: paging
// and search state, an explicit page cache, deduplicated in-flight fetches and
// revalidation after mutations.
package query

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Client struct {
	backend collection.Backend
	cache   *Cache
	group   singleflight.Group
	logger  *zap.Logger
	maxAge  time.Duration
	now     func() time.Time
	seq     atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	handles     map[*Handle]struct{}
	generation  uint64
	generations map[string]uint64
}

type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMaxAge lets Fetch answer from the cache while an entry is younger than
// maxAge. Handles always refetch.
func WithMaxAge(maxAge time.Duration) Option {
	return func(c *Client) {
		c.maxAge = maxAge
	}
}

func WithCache(cache *Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func NewClient(backend collection.Backend, opts ...Option) *Client {

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		backend: backend,
		cache:   NewCache(),
		logger:  zap.NewNop(),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		handles:     map[*Handle]struct{}{},
		generations: map[string]uint64{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Cache() *Cache {
	return c.cache
}

// Collection opens a handle on ref and starts its first fetch.
func (c *Client) Collection(ref collection.Reference, pageSize int) (*Handle, error) {

	if pageSize < 1 {
		return nil, errors.PageSizeInvalidError.New()
	}

	h := newHandle(c, ref, pageSize)

	c.mu.Lock()
	c.handles[h] = struct{}{}
	c.mu.Unlock()

	h.mu.Lock()
	h.refetchLocked(false)
	h.mu.Unlock()

	return h, nil
}

// Fetch returns one page, sharing an in-flight fetch of the same key.
func (c *Client) Fetch(ctx context.Context, ref collection.Reference, page, pageSize int, searchTerm string) (collection.Page, error) {

	if page < 1 {
		return collection.Page{}, errors.CurrentPageInvalidError.New()
	}

	if pageSize < 1 {
		return collection.Page{}, errors.PageSizeInvalidError.New()
	}

	key := NewKey(ref, page, pageSize, searchTerm)
	if c.maxAge > 0 {
		if cached, fetchedAt, ok := c.cache.Get(key); ok && c.now().Sub(fetchedAt) <= c.maxAge {
			return cached, nil
		}
	}

	select {
	case res := <-c.do(key, ref, false):
		if res.Err != nil {
			return collection.Page{}, res.Err
		}

		return res.Val.(collection.Page), nil

	case <-ctx.Done():
		return collection.Page{}, ctx.Err()
	}
}

// RevalidateCollection is called after a mutation. It drops cached pages that
// read from the collection and refetches every open handle on it. Fetches
// already running against the collection are neither joined nor cached.
func (c *Client) RevalidateCollection(collectionName string) {

	c.mu.Lock()
	c.generation++
	c.generations[collectionName] = c.generation
	c.mu.Unlock()

	dropped := c.cache.Invalidate(collectionName, c.seq.Load())

	c.mu.Lock()
	var affected []*Handle
	for h := range c.handles {
		if h.ref.Touches(collectionName) {
			affected = append(affected, h)
		}
	}
	c.mu.Unlock()

	c.logger.Debug("revalidating collection",
		zap.String("collection", collectionName),
		zap.Int("dropped_entries", dropped),
		zap.Int("handles", len(affected)))

	for _, h := range affected {
		_ = h.Revalidate()
	}
}

// Close closes every open handle and cancels running backend queries.
func (c *Client) Close() {

	c.mu.Lock()
	handles := make([]*Handle, 0, len(c.handles))
	for h := range c.handles {
		handles = append(handles, h)
	}
	c.mu.Unlock()

	for _, h := range handles {
		h.Close()
	}

	c.cancel()
}

func (c *Client) forget(h *Handle) {

	c.mu.Lock()
	delete(c.handles, h)
	c.mu.Unlock()
}

// do runs at most one backend query per key at a time. fresh skips a query
// already in flight, which may predate a mutation.
func (c *Client) do(key Key, ref collection.Reference, fresh bool) <-chan singleflight.Result {

	name := c.flightName(key, ref)
	if fresh {
		c.group.Forget(name)
	}

	return c.group.DoChan(name, func() (any, error) {

		seq := c.seq.Add(1)
		req := ref.Request(key.Page, key.PageSize, key.SearchTerm)

		page, err := c.backend.Query(c.ctx, req)
		if err != nil {
			c.logger.Warn("fetch failed",
				zap.String("collection", key.Collection),
				zap.Int("page", key.Page),
				zap.String("search", key.SearchTerm),
				zap.Error(err))
			return nil, err
		}

		if page.Rows == nil {
			page.Rows = []collection.Record{}
		}

		c.cache.Put(key, ref, page, seq, c.now())
		return page, nil
	})
}

// flightName separates fetches of the same key started before and after the
// last revalidation of any collection the reference reads.
func (c *Client) flightName(key Key, ref collection.Reference) string {

	c.mu.Lock()
	defer c.mu.Unlock()

	var generation uint64
	for _, name := range touchedCollections(ref) {
		generation = max(generation, c.generations[name])
	}

	return fmt.Sprintf("%s#%d", key.String(), generation)
}
