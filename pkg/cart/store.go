// Package cart implements the client cart ledger: identifiers, the quantity
// store and its durable storage port.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"cartflow/pkg/logger"
)

var (
	// ErrNotFound indicates no state is stored under a key.
	ErrNotFound = errors.New("cart state not found")
	// ErrPersist wraps storage write failures; the mutation is not applied.
	ErrPersist = errors.New("persist cart state")
	// ErrLoad wraps storage read failures during restore.
	ErrLoad = errors.New("load cart state")
)

// Storage is the durable key/value space the ledger is written to.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Entry is one ledger line.
type Entry struct {
	Key      string `json:"key"`
	Quantity int    `json:"quantity"`
}

// Snapshot is the ledger as seen right after a mutation.
type Snapshot struct {
	Entries    []Entry `json:"items"`
	TotalItems int     `json:"total_items"`
}

// Store is the authoritative quantity ledger for one client. Every mutation
// reads, modifies, persists and notifies as a single step.
type Store struct {
	mu      sync.Mutex
	items   map[string]int
	key     string
	storage Storage
	log     *logger.Logger

	notifyMu sync.Mutex
	subs     map[int]func(Snapshot)
	nextSub  int
}

// NewStore restores the ledger saved under key. Missing or unreadable state
// yields an empty cart.
func NewStore(ctx context.Context, storage Storage, key string, log *logger.Logger) *Store {
	s, _ := Open(ctx, storage, key, log)
	return s
}

// Open is NewStore that also reports a failed storage read as ErrLoad. The
// returned store is empty and usable either way; callers that must not
// overwrite durable state after a transient failure should discard it.
// Absent or corrupt state is not an error.
func Open(ctx context.Context, storage Storage, key string, log *logger.Logger) (*Store, error) {
	s := &Store{
		items:   make(map[string]int),
		key:     key,
		storage: storage,
		log:     log,
		subs:    make(map[int]func(Snapshot)),
	}
	return s, s.restore(ctx)
}

func (s *Store) restore(ctx context.Context) error {
	data, err := s.storage.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.Warn(ctx, "load cart state, starting empty", "key", s.key, "error", err)
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.Warn(ctx, "parse cart state, starting empty", "key", s.key, "error", err)
		return nil
	}
	for k, v := range raw {
		var qty int
		if err := json.Unmarshal(v, &qty); err != nil || qty <= 0 {
			s.log.Debug(ctx, "dropping invalid cart entry", "key", s.key, "entry", k, "value", string(v))
			continue
		}
		s.items[k] = qty
	}
	return nil
}

// Add increments the quantity of id by delta, creating the entry if absent.
// A result of zero or less removes the entry.
func (s *Store) Add(ctx context.Context, id Identifier, delta int) error {
	if err := id.Validate(); err != nil {
		return err
	}
	key := id.Encode()
	return s.mutate(ctx, func(items map[string]int) bool {
		setQuantity(items, key, items[key]+delta)
		return true
	})
}

// AddOne is Add with a delta of one.
func (s *Store) AddOne(ctx context.Context, id Identifier) error {
	return s.Add(ctx, id, 1)
}

// Remove decrements id by one. Absent entries are a no-op: nothing is
// persisted and no subscriber runs.
func (s *Store) Remove(ctx context.Context, id Identifier) error {
	if err := id.Validate(); err != nil {
		return err
	}
	key := id.Encode()
	return s.mutate(ctx, func(items map[string]int) bool {
		qty, ok := items[key]
		if !ok {
			return false
		}
		setQuantity(items, key, qty-1)
		return true
	})
}

// Update sets the quantity of id. Zero or less removes the entry.
func (s *Store) Update(ctx context.Context, id Identifier, quantity int) error {
	if err := id.Validate(); err != nil {
		return err
	}
	key := id.Encode()
	return s.mutate(ctx, func(items map[string]int) bool {
		setQuantity(items, key, quantity)
		return true
	})
}

// Subtract decrements each entry's key by its quantity in one step. Keys no
// longer present are skipped; quantities added since the entries were read
// are kept.
func (s *Store) Subtract(ctx context.Context, remove []Entry) error {
	return s.mutate(ctx, func(items map[string]int) bool {
		changed := false
		for _, e := range remove {
			qty, ok := items[e.Key]
			if !ok || e.Quantity <= 0 {
				continue
			}
			setQuantity(items, e.Key, qty-e.Quantity)
			changed = true
		}
		return changed
	})
}

// Clear empties the ledger.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func(items map[string]int) bool {
		clear(items)
		return true
	})
}

// Quantity returns the quantity held for id, zero when absent or invalid.
func (s *Store) Quantity(id Identifier) int {
	if id.Validate() != nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id.Encode()]
}

// TotalItems sums all quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.items)
}

// Entries returns the ledger sorted by key.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entries(s.items)
}

// Snapshot returns the current entries and item count.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.items)
}

// Subscribe registers fn to run after every successful mutation, in mutation
// order. fn may read the store but must not mutate it. The returned func
// cancels the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.subs, id)
	}
}

// mutate applies a change to a copy of the ledger and persists it. apply
// reports whether it changed anything; unchanged ledgers are not persisted.
func (s *Store) mutate(ctx context.Context, apply func(map[string]int) bool) error {
	s.mu.Lock()

	next := make(map[string]int, len(s.items)+1)
	for k, v := range s.items {
		next[k] = v
	}
	if !apply(next) {
		s.mu.Unlock()
		return nil
	}

	data, err := json.Marshal(next)
	if err == nil {
		err = s.storage.Save(ctx, s.key, data)
	}
	if err != nil {
		s.mu.Unlock()
		s.log.Error(ctx, "persist cart state", "key", s.key, "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.items = next
	snap := snapshot(next)

	// Take the notify lock before releasing the ledger so notifications
	// keep mutation order.
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, fn := range s.subscribersLocked() {
		fn(snap)
	}
	return nil
}

func (s *Store) subscribersLocked() []func(Snapshot) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}

func setQuantity(items map[string]int, key string, qty int) {
	if qty <= 0 {
		delete(items, key)
		return
	}
	items[key] = qty
}

func totalItems(items map[string]int) int {
	n := 0
	for _, qty := range items {
		n += qty
	}
	return n
}

func entries(items map[string]int) []Entry {
	out := make([]Entry, 0, len(items))
	for k, v := range items {
		out = append(out, Entry{Key: k, Quantity: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func snapshot(items map[string]int) Snapshot {
	return Snapshot{Entries: entries(items), TotalItems: totalItems(items)}
}
