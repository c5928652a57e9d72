package tikv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/redikv/lib/backend"
	"github.com/ValentinKolb/redikv/lib/logging"
	"github.com/tikv/client-go/v2/config"
	tikverr "github.com/tikv/client-go/v2/error"
	"github.com/tikv/client-go/v2/rawkv"
	"github.com/tikv/client-go/v2/txnkv"
	"github.com/tikv/client-go/v2/txnkv/transaction"
)

var logger = logging.GetLogger("backend/tikv")

// applyGlobalConfig pushes the tuning knobs into the client-go global
// configuration. client-go reads them at client construction time, so this
// must run before the first Dial* call; sync.Once keeps repeated dials from
// re-applying them.
var applyGlobalConfig sync.Once

func configure(cfg backend.Config) {
	applyGlobalConfig.Do(func() {
		config.UpdateGlobal(func(c *config.Config) {
			if cfg.WithTLS() {
				c.Security = config.NewSecurity(cfg.CAPath, cfg.CertPath, cfg.KeyPath, nil)
			}
			if cfg.Timeout > 0 {
				c.TiKVClient.CommitTimeout = cfg.Timeout.String()
			}
			if cfg.AllowBatch {
				c.TiKVClient.MaxBatchSize = cfg.MaxBatchSize
				c.TiKVClient.MaxBatchWaitTime = cfg.MaxBatchWaitTime
				c.TiKVClient.OverloadThreshold = cfg.OverloadThreshold
			} else {
				c.TiKVClient.MaxBatchSize = 0
			}
			if cfg.MaxInflightRequests > 0 {
				c.TiKVClient.StoreLimit = int64(cfg.MaxInflightRequests)
			}
			if cfg.GrpcKeepaliveTime > 0 {
				c.TiKVClient.GrpcKeepAliveTime = uint(cfg.GrpcKeepaliveTime / time.Second)
			}
			if cfg.GrpcKeepaliveTimeout > 0 {
				c.TiKVClient.GrpcKeepAliveTimeout = uint(cfg.GrpcKeepaliveTimeout / time.Second)
			}
		})
		logger.Debugf("applied client configuration (tls=%t, batch=%t)", cfg.WithTLS(), cfg.AllowBatch)
	})
}

// --------------------------------------------------------------------------
// Dialer
// --------------------------------------------------------------------------

// Dialer implements backend.IDialer for TiKV.
type Dialer struct{}

// NewDialer creates a backend.IDialer that connects to a TiKV cluster via
// its PD endpoints.
func NewDialer() backend.IDialer {
	return &Dialer{}
}

// DialTxn establishes one transactional client (docu see backend.IDialer)
func (d *Dialer) DialTxn(ctx context.Context, cfg backend.Config) (backend.ITxnClient, error) {
	configure(cfg)
	cli, err := txnkv.NewClient(cfg.Addrs)
	if err != nil {
		return nil, fmt.Errorf("failed to connect txn client to %v: %w", cfg.Addrs, err)
	}
	return &txnClient{cli: cli, timeout: cfg.Timeout}, nil
}

// DialRaw establishes the raw client (docu see backend.IDialer)
func (d *Dialer) DialRaw(ctx context.Context, cfg backend.Config) (backend.IRawClient, error) {
	configure(cfg)
	cli, err := rawkv.NewClient(ctx, cfg.Addrs, config.GetGlobalConfig().Security)
	if err != nil {
		return nil, fmt.Errorf("failed to connect raw client to %v: %w", cfg.Addrs, err)
	}
	return &rawClient{cli: cli, timeout: cfg.Timeout}, nil
}

// bound derives a per-call context from the configured timeout
func bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// --------------------------------------------------------------------------
// Transactional Client
// --------------------------------------------------------------------------

type txnClient struct {
	cli     *txnkv.Client
	timeout time.Duration
}

func (c *txnClient) Begin() (backend.ITxn, error) {
	inner, err := c.cli.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &txn{inner: inner, timeout: c.timeout}, nil
}

func (c *txnClient) Close() error {
	return c.cli.Close()
}

type txn struct {
	inner   *transaction.KVTxn
	timeout time.Duration
}

func (t *txn) Get(ctx context.Context, key []byte) ([]byte, error) {
	ctx, cancel := bound(ctx, t.timeout)
	defer cancel()

	val, err := t.inner.Get(ctx, key)
	if err != nil {
		if tikverr.IsErrNotFound(err) {
			return nil, backend.ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

func (t *txn) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	ctx, cancel := bound(ctx, t.timeout)
	defer cancel()

	return t.inner.BatchGet(ctx, keys)
}

func (t *txn) Set(key, value []byte) error {
	return t.inner.Set(key, value)
}

func (t *txn) Delete(key []byte) error {
	return t.inner.Delete(key)
}

func (t *txn) Scan(ctx context.Context, start, end []byte, limit int) ([]backend.KVPair, error) {
	ctx, cancel := bound(ctx, t.timeout)
	defer cancel()

	it, err := t.inner.Iter(start, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var pairs []backend.KVPair
	for it.Valid() && len(pairs) < limit {
		// the iterator API carries no context, so enforce the bound here
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := append([]byte(nil), it.Key()...)
		val := append([]byte(nil), it.Value()...)
		pairs = append(pairs, backend.KVPair{Key: key, Value: val})
		if err := it.Next(); err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

func (t *txn) Commit(ctx context.Context) error {
	ctx, cancel := bound(ctx, t.timeout)
	defer cancel()

	if err := t.inner.Commit(ctx); err != nil {
		if tikverr.IsErrWriteConflict(err) {
			return fmt.Errorf("%w: %v", backend.ErrWriteConflict, err)
		}
		return err
	}
	return nil
}

func (t *txn) Rollback() error {
	// client-go reports rolling back a finished txn as an error, the
	// backend contract requires double-finish to be harmless
	if !t.inner.Valid() {
		return nil
	}
	return t.inner.Rollback()
}

// --------------------------------------------------------------------------
// Raw Client
// --------------------------------------------------------------------------

type rawClient struct {
	cli     *rawkv.Client
	timeout time.Duration
}

func (c *rawClient) Get(ctx context.Context, key []byte) ([]byte, error) {
	ctx, cancel := bound(ctx, c.timeout)
	defer cancel()

	val, err := c.cli.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	// the raw client reports absence as a nil value
	if val == nil {
		return nil, backend.ErrKeyNotFound
	}
	return val, nil
}

func (c *rawClient) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	ctx, cancel := bound(ctx, c.timeout)
	defer cancel()

	vals, err := c.cli.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]byte, len(keys))
	for i, v := range vals {
		if v != nil {
			result[string(keys[i])] = v
		}
	}
	return result, nil
}

func (c *rawClient) Put(ctx context.Context, key, value []byte) error {
	ctx, cancel := bound(ctx, c.timeout)
	defer cancel()

	return c.cli.Put(ctx, key, value)
}

func (c *rawClient) BatchPut(ctx context.Context, pairs []backend.KVPair) error {
	ctx, cancel := bound(ctx, c.timeout)
	defer cancel()

	keys := make([][]byte, len(pairs))
	vals := make([][]byte, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
		vals[i] = p.Value
	}
	return c.cli.BatchPut(ctx, keys, vals)
}

func (c *rawClient) Delete(ctx context.Context, key []byte) error {
	ctx, cancel := bound(ctx, c.timeout)
	defer cancel()

	return c.cli.Delete(ctx, key)
}

func (c *rawClient) BatchDelete(ctx context.Context, keys [][]byte) error {
	ctx, cancel := bound(ctx, c.timeout)
	defer cancel()

	return c.cli.BatchDelete(ctx, keys)
}

func (c *rawClient) Close() error {
	return c.cli.Close()
}
