package query

import (
	"context"
	"sync/atomic"

	"github.com/supakorn-kn/propadmin/collection"
)

// countingBackend counts queries and fails them while fail is set.
type countingBackend struct {
	inner collection.Backend
	calls atomic.Int32
	fail  atomic.Pointer[error]
}

func (b *countingBackend) Query(ctx context.Context, req collection.Request) (collection.Page, error) {

	b.calls.Add(1)
	if err := b.fail.Load(); err != nil {
		return collection.Page{}, *err
	}

	return b.inner.Query(ctx, req)
}

func (b *countingBackend) failWith(err error) {

	if err == nil {
		b.fail.Store(nil)
		return
	}

	b.fail.Store(&err)
}

type pendingCall struct {
	req     collection.Request
	proceed chan struct{}
}

func (c *pendingCall) release() {
	close(c.proceed)
}

// gatedBackend answers every query from the state at call time but holds the
// answer until the test releases it.
type gatedBackend struct {
	inner collection.Backend
	calls chan *pendingCall
}

func newGatedBackend(inner collection.Backend) *gatedBackend {
	return &gatedBackend{inner: inner, calls: make(chan *pendingCall, 16)}
}

func (b *gatedBackend) Query(ctx context.Context, req collection.Request) (collection.Page, error) {

	page, err := b.inner.Query(ctx, req)

	call := &pendingCall{req: req, proceed: make(chan struct{})}
	b.calls <- call

	select {
	case <-call.proceed:
	case <-ctx.Done():
		return collection.Page{}, ctx.Err()
	}

	return page, err
}
