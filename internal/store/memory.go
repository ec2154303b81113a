package store

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"tally/internal/core"
)

// MemoryStore keeps the snapshot in process memory. Optionally seeded from a
// JSON file so local runs start with data.
type MemoryStore struct {
	mu    sync.Mutex
	state State
	saved bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreFromFile seeds the store from a JSON snapshot if the file
// exists; a missing or malformed file just yields an empty store.
func NewMemoryStoreFromFile(path string) *MemoryStore {
	s := NewMemoryStore()
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return s
	}
	s.state = state
	s.saved = true
	return s
}

func (s *MemoryStore) Load(_ context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return State{}, ErrEmpty
	}
	return copyState(s.state), nil
}

func (s *MemoryStore) Save(_ context.Context, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = copyState(state)
	s.saved = true
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// copyState clones the snapshot so callers cannot alias the stored slices.
func copyState(in State) State {
	out := in
	out.Records = append([]core.Record(nil), in.Records...)
	out.Categories = append([]string(nil), in.Categories...)
	return out
}
