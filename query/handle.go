package query

import (
	"context"
	"sync"

	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Handle is the list state of one screen: page, page size, the committed
// search term and the uncommitted search box text. Every change that affects
// the key starts a fetch; responses of superseded fetches are dropped.
type Handle struct {
	client *Client
	ref    collection.Reference

	mu       sync.Mutex
	page     int
	pageSize int
	active   string
	pending  string
	result   Result
	seq      uint64
	settled  chan struct{}
	closed   bool

	subscribers map[chan Result]struct{}
}

func newHandle(client *Client, ref collection.Reference, pageSize int) *Handle {

	return &Handle{
		client:      client,
		ref:         ref,
		page:        1,
		pageSize:    pageSize,
		subscribers: map[chan Result]struct{}{},
	}
}

func (h *Handle) Reference() collection.Reference {
	return h.ref
}

func (h *Handle) Result() Result {

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.result
}

// PageCount is derived from the last successful count.
func (h *Handle) PageCount() int {
	return h.Result().PageCount()
}

func (h *Handle) PendingSearchTerm() string {

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.pending
}

func (h *Handle) SetPage(page int) error {

	if page < 1 {
		return errors.CurrentPageInvalidError.New()
	}

	return h.change(false, func() {
		h.page = page
	})
}

func (h *Handle) SetPageSize(pageSize int) error {

	if pageSize < 1 {
		return errors.PageSizeInvalidError.New()
	}

	return h.change(false, func() {
		h.pageSize = pageSize
		h.page = 1
	})
}

// SetPendingSearchTerm updates the search box text without fetching.
func (h *Handle) SetPendingSearchTerm(text string) {

	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending = text
}

// SubmitSearch commits the search box text and goes back to the first page.
func (h *Handle) SubmitSearch() error {

	return h.change(false, func() {
		h.active = h.pending
		h.page = 1
	})
}

func (h *Handle) ClearSearch() error {

	return h.change(false, func() {
		h.pending = ""
		h.active = ""
		h.page = 1
	})
}

// Revalidate refetches the current page without changing any state.
func (h *Handle) Revalidate() error {
	return h.change(true, func() {})
}

// Subscribe returns a channel carrying the latest snapshot after every change.
// Slow readers only miss intermediate snapshots. The channel is closed by
// cancel or Close.
func (h *Handle) Subscribe() (<-chan Result, func()) {

	ch := make(chan Result, 1)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch, func() {}
	}

	h.subscribers[ch] = struct{}{}
	ch <- h.result

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if _, ok := h.subscribers[ch]; ok {
				delete(h.subscribers, ch)
				close(ch)
			}
		})
	}
}

// Wait blocks until the latest fetch of the handle has been applied.
func (h *Handle) Wait(ctx context.Context) error {

	h.mu.Lock()
	settled := h.settled
	h.mu.Unlock()

	if settled == nil {
		return nil
	}

	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close detaches the handle. Responses arriving later are dropped.
func (h *Handle) Close() {

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}

	h.closed = true
	if h.settled != nil {
		close(h.settled)
		h.settled = nil
	}

	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
	h.mu.Unlock()

	h.client.forget(h)
}

func (h *Handle) change(fresh bool, mutate func()) error {

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errors.HandleClosedError.New(h.ref.Name)
	}

	mutate()
	h.refetchLocked(fresh)

	return nil
}

func (h *Handle) keyLocked() Key {
	return NewKey(h.ref, h.page, h.pageSize, h.active)
}

func (h *Handle) refetchLocked(fresh bool) {

	key := h.keyLocked()

	h.seq++
	seq := h.seq
	if h.settled == nil {
		h.settled = make(chan struct{})
	}

	if cached, _, ok := h.client.cache.Get(key); ok {
		h.result.Rows = cached.Rows
		h.result.Count = cached.Count
		h.result.HasData = true
	}

	h.result.Status = StatusLoading
	h.result.Err = nil
	h.result.Page = h.page
	h.result.PageSize = h.pageSize
	h.result.SearchTerm = h.active
	h.publishLocked()

	ch := h.client.do(key, h.ref, fresh)
	go h.await(key, seq, ch)
}

func (h *Handle) await(key Key, seq uint64, ch <-chan singleflight.Result) {

	res := <-ch

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || seq != h.seq || key != h.keyLocked() {
		h.client.logger.Debug("dropping superseded response",
			zap.String("collection", key.Collection),
			zap.Int("page", key.Page),
			zap.String("search", key.SearchTerm))
		return
	}

	if res.Err != nil {
		h.result.Status = StatusError
		h.result.Err = res.Err
	} else {
		page := res.Val.(collection.Page)
		h.result.Rows = page.Rows
		h.result.Count = page.Count
		h.result.Status = StatusSuccess
		h.result.Err = nil
		h.result.HasData = true
	}

	close(h.settled)
	h.settled = nil
	h.publishLocked()
}

func (h *Handle) publishLocked() {

	for ch := range h.subscribers {
		select {
		case <-ch:
		default:
		}

		ch <- h.result
	}
}
