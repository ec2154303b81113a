// Package store persists the full ledger state.
//
// The contract is deliberately coarse: Load returns the last saved state (or
// reports absence) and Save replaces it wholesale. The ledger saves after
// every mutation, so a backend only ever holds one consistent snapshot.
package store

import (
	"context"
	"errors"

	"tally/internal/core"
)

// State is everything a ledger persists: the record list, the category set,
// and the preference state.
type State struct {
	Records    []core.Record `json:"records"`
	Categories []string      `json:"categories"`
	Settings   core.Settings `json:"settings"`
}

// ErrEmpty is returned by Load when nothing has been saved yet.
var ErrEmpty = errors.New("store: no saved state")

type Store interface {
	// Load returns the previously saved state, or ErrEmpty.
	Load(ctx context.Context) (State, error)
	// Save replaces the saved state with the given snapshot.
	Save(ctx context.Context, state State) error
	Close() error
}
