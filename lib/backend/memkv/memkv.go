package memkv

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ValentinKolb/redikv/lib/backend"
)

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

type entry struct {
	value   []byte
	version uint64
}

// Store is a shared in-memory key space. All clients created from one Store
// see the same data.
type Store struct {
	mu   sync.Mutex
	data map[string]entry
	// monotonically increasing write counter, used as the per-key version
	tick uint64
	// number of upcoming commits that should fail with a write conflict
	forcedConflicts int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string]entry)}
}

// ForceConflicts makes the next n commits fail with backend.ErrWriteConflict
// before applying any write. Used by tests to exercise the retry path.
func (s *Store) ForceConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forcedConflicts = n
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// --------------------------------------------------------------------------
// Dialer
// --------------------------------------------------------------------------

type dialer struct {
	store *Store
}

// NewDialer creates a backend.IDialer whose clients all share the given
// store.
func NewDialer(store *Store) backend.IDialer {
	return &dialer{store: store}
}

func (d *dialer) DialTxn(_ context.Context, _ backend.Config) (backend.ITxnClient, error) {
	return &txnClient{store: d.store}, nil
}

func (d *dialer) DialRaw(_ context.Context, _ backend.Config) (backend.IRawClient, error) {
	return &rawClient{store: d.store}, nil
}

// --------------------------------------------------------------------------
// Transactional Client
// --------------------------------------------------------------------------

type txnClient struct {
	store *Store
}

func (c *txnClient) Begin() (backend.ITxn, error) {
	return &txn{
		store:  c.store,
		reads:  make(map[string]uint64),
		writes: make(map[string]bufferedWrite),
	}, nil
}

func (c *txnClient) Close() error { return nil }

// bufferedWrite is one pending mutation. Deletions need their own flag
// because an empty value is a legal write (set members are stored empty).
type bufferedWrite struct {
	value   []byte
	deleted bool
}

type txn struct {
	store *Store
	// reads maps every observed key to the version it had when read
	// (0 means the key was absent)
	reads  map[string]uint64
	writes map[string]bufferedWrite
	done   bool
}

func (t *txn) Get(_ context.Context, key []byte) ([]byte, error) {
	if t.done {
		return nil, fmt.Errorf("memkv: transaction already finished")
	}
	// read-your-writes
	if w, ok := t.writes[string(key)]; ok {
		if w.deleted {
			return nil, backend.ErrKeyNotFound
		}
		return append([]byte{}, w.value...), nil
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	e, ok := t.store.data[string(key)]
	if !ok {
		t.reads[string(key)] = 0
		return nil, backend.ErrKeyNotFound
	}
	t.reads[string(key)] = e.version
	return append([]byte{}, e.value...), nil
}

func (t *txn) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		val, err := t.Get(ctx, key)
		if err != nil {
			if backend.IsKeyNotFound(err) {
				continue
			}
			return nil, err
		}
		result[string(key)] = val
	}
	return result, nil
}

func (t *txn) Set(key, value []byte) error {
	if t.done {
		return fmt.Errorf("memkv: transaction already finished")
	}
	t.writes[string(key)] = bufferedWrite{value: append([]byte(nil), value...)}
	return nil
}

func (t *txn) Delete(key []byte) error {
	if t.done {
		return fmt.Errorf("memkv: transaction already finished")
	}
	t.writes[string(key)] = bufferedWrite{deleted: true}
	return nil
}

func (t *txn) Scan(_ context.Context, start, end []byte, limit int) ([]backend.KVPair, error) {
	if t.done {
		return nil, fmt.Errorf("memkv: transaction already finished")
	}

	t.store.mu.Lock()
	// merge the store with the local write buffer
	merged := make(map[string][]byte)
	for k, e := range t.store.data {
		if inRange([]byte(k), start, end) {
			merged[k] = e.value
			t.reads[k] = e.version
		}
	}
	t.store.mu.Unlock()

	for k, w := range t.writes {
		if !inRange([]byte(k), start, end) {
			continue
		}
		if w.deleted {
			delete(merged, k)
		} else {
			merged[k] = w.value
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []backend.KVPair
	for _, k := range keys {
		if len(pairs) >= limit {
			break
		}
		pairs = append(pairs, backend.KVPair{
			Key:   []byte(k),
			Value: append([]byte{}, merged[k]...),
		})
	}
	return pairs, nil
}

func (t *txn) Commit(_ context.Context) error {
	if t.done {
		return fmt.Errorf("memkv: transaction already finished")
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.store.forcedConflicts > 0 {
		t.store.forcedConflicts--
		return fmt.Errorf("%w: forced by test hook", backend.ErrWriteConflict)
	}

	// optimistic validation: every key read must be unchanged
	for k, seen := range t.reads {
		e, ok := t.store.data[k]
		current := uint64(0)
		if ok {
			current = e.version
		}
		if current != seen {
			return fmt.Errorf("%w: key %q changed concurrently", backend.ErrWriteConflict, k)
		}
	}

	// apply the write buffer atomically
	for k, w := range t.writes {
		t.store.tick++
		if w.deleted {
			delete(t.store.data, k)
			continue
		}
		t.store.data[k] = entry{value: w.value, version: t.store.tick}
	}
	return nil
}

func (t *txn) Rollback() error {
	// double-finish must be harmless
	t.done = true
	t.writes = nil
	return nil
}

// inRange reports start <= key < end (nil end means unbounded)
func inRange(key, start, end []byte) bool {
	if bytes.Compare(key, start) < 0 {
		return false
	}
	return end == nil || bytes.Compare(key, end) < 0
}

// --------------------------------------------------------------------------
// Raw Client
// --------------------------------------------------------------------------

type rawClient struct {
	store *Store
}

func (c *rawClient) Get(_ context.Context, key []byte) ([]byte, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	e, ok := c.store.data[string(key)]
	if !ok {
		return nil, backend.ErrKeyNotFound
	}
	return append([]byte{}, e.value...), nil
}

func (c *rawClient) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		val, err := c.Get(ctx, key)
		if err != nil {
			if backend.IsKeyNotFound(err) {
				continue
			}
			return nil, err
		}
		result[string(key)] = val
	}
	return result, nil
}

func (c *rawClient) Put(_ context.Context, key, value []byte) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	c.store.tick++
	c.store.data[string(key)] = entry{
		value:   append([]byte(nil), value...),
		version: c.store.tick,
	}
	return nil
}

func (c *rawClient) BatchPut(ctx context.Context, pairs []backend.KVPair) error {
	for _, p := range pairs {
		if err := c.Put(ctx, p.Key, p.Value); err != nil {
			return err
		}
	}
	return nil
}

func (c *rawClient) Delete(_ context.Context, key []byte) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	c.store.tick++
	delete(c.store.data, string(key))
	return nil
}

func (c *rawClient) BatchDelete(ctx context.Context, keys [][]byte) error {
	for _, k := range keys {
		if err := c.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (c *rawClient) Close() error { return nil }
