package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/ValentinKolb/redikv/lib/backend"
	"github.com/ValentinKolb/redikv/lib/logging"
)

var poolLogger = logging.GetLogger("engine/pool")

// --------------------------------------------------------------------------
// Session Pool
// --------------------------------------------------------------------------

// SessionPool owns backend connectivity for the whole process: a fixed set
// of transactional sessions plus one raw session, created once by Connect
// and kept for the process lifetime.
//
// Acquisition never blocks; new transaction starts are spread over the
// session set by the selection policy. The underlying clients multiplex
// concurrent transactions, so a session is never removed from the candidate
// set while a transaction is open on it.
type SessionPool struct {
	dialer   backend.IDialer
	selector ISelector

	mu         sync.RWMutex
	txnClients []backend.ITxnClient
	rawClient  backend.IRawClient
	connected  bool
}

// NewSessionPool creates a pool that establishes sessions through the given
// dialer. The pool is not usable until Connect succeeds.
func NewSessionPool(dialer backend.IDialer) *SessionPool {
	return &SessionPool{
		dialer:   dialer,
		selector: NewRoundRobinSelector(),
	}
}

// Connect establishes exactly concurrency transactional sessions plus the
// raw session. It is all-or-nothing: if any dial fails, everything already
// opened is closed again and the pool stays in the not-connected state.
func (p *SessionPool) Connect(ctx context.Context, cfg backend.Config, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	txnClients := make([]backend.ITxnClient, 0, concurrency)
	closeAll := func() {
		for _, c := range txnClients {
			_ = c.Close()
		}
	}

	for i := 0; i < concurrency; i++ {
		client, err := p.dialer.DialTxn(ctx, cfg)
		if err != nil {
			closeAll()
			return &ConnectError{Addrs: cfg.Addrs, Err: fmt.Errorf("txn session %d/%d: %w", i+1, concurrency, err)}
		}
		txnClients = append(txnClients, client)
	}

	rawClient, err := p.dialer.DialRaw(ctx, cfg)
	if err != nil {
		closeAll()
		return &ConnectError{Addrs: cfg.Addrs, Err: fmt.Errorf("raw session: %w", err)}
	}

	p.mu.Lock()
	p.txnClients = txnClients
	p.rawClient = rawClient
	p.connected = true
	p.mu.Unlock()

	poolLogger.Infof("connected to backend %v (%d txn sessions, 1 raw session)", cfg.Addrs, concurrency)
	return nil
}

// AcquireTxnSession returns one of the transactional sessions, selected by
// the pool's policy. Returns backend.ErrNotConnected before Connect.
func (p *SessionPool) AcquireTxnSession() (backend.ITxnClient, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.connected {
		return nil, backend.ErrNotConnected
	}
	return p.txnClients[p.selector.Next(len(p.txnClients))], nil
}

// AcquireRawSession returns the raw session.
// Returns backend.ErrNotConnected before Connect.
func (p *SessionPool) AcquireRawSession() (backend.IRawClient, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.connected {
		return nil, backend.ErrNotConnected
	}
	return p.rawClient, nil
}

// Size returns the number of transactional sessions (0 if not connected).
func (p *SessionPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txnClients)
}

// Close tears the pool down. Only called at process exit.
func (p *SessionPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, c := range p.txnClients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.rawClient != nil {
		if err := p.rawClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.txnClients = nil
	p.rawClient = nil
	p.connected = false
	return firstErr
}
