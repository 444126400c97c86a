package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Fixed keys the application persists under.
const (
	KeyOfflineQueue  = "offline_queue"
	KeyBookings      = "bookings"
	KeyListings      = "listings"
	KeyDisputes      = "disputes"
	KeyQuotes        = "quote_requests"
	KeyUsers         = "users"
	KeyNotifications = "notifications"
)

var ErrNotFound = errors.New("key not found")

// Store is a durable key-value store backed by one JSON file per key.
// It stands in for browser localStorage: values survive a process restart,
// and a missing or corrupt key falls back to the caller's default rather
// than failing.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open creates the backing directory if needed and returns a store.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localstore: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get unmarshals the value stored under key into out. It returns ErrNotFound
// for a missing key and a wrapped error for a corrupt one; callers are
// expected to fall back to their built-in defaults in both cases.
func (s *Store) Get(key string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("localstore: read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.WithFields(log.Fields{"key": key}).WithError(err).Warn("Corrupt value in local store")
		return fmt.Errorf("localstore: decode %s: %w", key, err)
	}
	return nil
}

// Put serializes v as JSON and durably replaces the value under key.
// The write goes to a temp file first so a crash never leaves a torn value.
func (s *Store) Put(key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstore: encode %s: %w", key, err)
	}
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("localstore: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("localstore: rename %s: %w", key, err)
	}
	return nil
}

// Delete removes the value under key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("localstore: delete %s: %w", key, err)
	}
	return nil
}
