package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Persisted keys. The values are JSON arrays of the corresponding records.
const (
	KeyContacts  = "campaign_contacts"
	KeyGroups    = "campaign_groups"
	KeyCampaigns = "campaign_campaigns"
)

// Collection names accepted by Reset.
const (
	CollectionContacts  = "contacts"
	CollectionGroups    = "groups"
	CollectionCampaigns = "campaigns"
)

var (
	// ErrNotFound is returned when an update targets an id that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrCorrupt is returned when a persisted collection cannot be parsed.
	ErrCorrupt = errors.New("stored collection is corrupt")
)

// Recorder receives one event per store operation. It is satisfied by
// *instrumentation.Metrics.
type Recorder interface {
	RecordStoreOperation(ctx context.Context, collection, operation, status string)
}

// Store provides the collection operations on top of a KV.
//
// Each read-modify-write runs under a single mutex so concurrent callers in
// one process cannot lose each other's updates.
type Store struct {
	kv       KV
	mu       sync.Mutex
	now      func() time.Time
	newID    func() string
	recorder Recorder
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the random id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithRecorder attaches an operation recorder (metrics).
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// New returns a Store backed by kv.
func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KV returns the underlying key-value store. The session holder shares it.
func (s *Store) KV() KV {
	return s.kv
}

// Close closes the underlying key-value store.
func (s *Store) Close() error {
	return s.kv.Close()
}

// Reset deletes a whole collection. Groups are re-seeded with the defaults on
// the next read.
func (s *Store) Reset(ctx context.Context, collection string) error {
	key, err := collectionKey(collection)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.kv.Delete(ctx, key)
	s.record(ctx, collection, "reset", err)
	return err
}

func collectionKey(collection string) (string, error) {
	switch collection {
	case CollectionContacts:
		return KeyContacts, nil
	case CollectionGroups:
		return KeyGroups, nil
	case CollectionCampaigns:
		return KeyCampaigns, nil
	}
	return "", fmt.Errorf("unknown collection %q (valid: contacts, groups, campaigns)", collection)
}

func (s *Store) record(ctx context.Context, collection, operation string, err error) {
	if s.recorder == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.recorder.RecordStoreOperation(ctx, collection, operation, status)
}

// load reads and decodes a collection. found is false when the key is absent.
func load[T any](ctx context.Context, kv KV, key string) ([]T, bool, error) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, true, fmt.Errorf("%w: key %s: %v", ErrCorrupt, key, err)
	}
	return items, true, nil
}

func save[T any](ctx context.Context, kv KV, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, string(data))
}
