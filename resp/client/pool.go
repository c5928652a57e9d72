package client

import (
	"context"
	"time"

	pool "github.com/jolestar/go-commons-pool/v2"
)

// --------------------------------------------------------------------------
// Client Pool
// --------------------------------------------------------------------------

// Pool manages a bounded set of client connections for concurrent callers
// (one connection is checked out per in-flight command).
type Pool struct {
	inner *pool.ObjectPool
}

// NewPool creates a connection pool of at most maxTotal clients to addr.
// Connections are created lazily on first borrow.
func NewPool(ctx context.Context, addr string, timeout time.Duration, maxTotal int) *Pool {
	factory := pool.NewPooledObjectFactory(
		func(context.Context) (interface{}, error) {
			return Dial(addr, timeout)
		},
		func(_ context.Context, obj *pool.PooledObject) error {
			return obj.Object.(*Client).Close()
		},
		nil, nil, nil,
	)

	inner := pool.NewObjectPoolWithDefaultConfig(ctx, factory)
	inner.Config.MaxTotal = maxTotal
	inner.Config.MaxIdle = maxTotal

	return &Pool{inner: inner}
}

// Borrow checks a client out of the pool, dialing a new one if needed.
func (p *Pool) Borrow(ctx context.Context) (*Client, error) {
	obj, err := p.inner.BorrowObject(ctx)
	if err != nil {
		return nil, err
	}
	return obj.(*Client), nil
}

// Return hands a client back for reuse.
func (p *Pool) Return(ctx context.Context, c *Client) {
	_ = p.inner.ReturnObject(ctx, c)
}

// Invalidate drops a broken client instead of returning it.
func (p *Pool) Invalidate(ctx context.Context, c *Client) {
	_ = p.inner.InvalidateObject(ctx, c)
}

// Close closes the pool and every idle connection.
func (p *Pool) Close(ctx context.Context) {
	p.inner.Close(ctx)
}
