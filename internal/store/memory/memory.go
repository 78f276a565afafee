// Package memory provides an in-process slot backend. Contents are lost
// when the process exits.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrQuotaExceeded is returned when a write would exceed the byte quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

type Store struct {
	mu       sync.Mutex
	maxBytes int
	slots    map[string][]byte
	writes   int
}

// New returns an empty store. maxBytes <= 0 disables the quota.
func New(maxBytes int) *Store {
	return &Store{maxBytes: maxBytes, slots: map[string][]byte{}}
}

// NewFromFile returns a store whose slot name is pre-filled with the
// contents of path. A missing file leaves the slot empty.
func NewFromFile(maxBytes int, name, path string) (*Store, error) {
	s := New(maxBytes)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	s.slots[name] = data
	return s, nil
}

// ReadSlot returns a copy of the stored value.
func (s *Store) ReadSlot(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// WriteSlot replaces the value, enforcing the quota over all slots.
func (s *Store) WriteSlot(_ context.Context, name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxBytes > 0 {
		total := len(value)
		for k, v := range s.slots {
			if k != name {
				total += len(v)
			}
		}
		if total > s.maxBytes {
			return fmt.Errorf("%w: %d bytes over a %d byte quota", ErrQuotaExceeded, total, s.maxBytes)
		}
	}
	s.slots[name] = append([]byte(nil), value...)
	s.writes++
	return nil
}

func (s *Store) DeleteSlot(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, name)
	return nil
}

// Writes reports how many successful writes the store has accepted.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
