package store

import (
	"context"
	"fmt"

	"TrancheTrack/internal/model"
)

// Unavailable stands in for a backend that could not be opened. Every call
// returns the open error, so the ledger falls back to its secondary.
type Unavailable struct {
	name string
	err  error
}

// NewUnavailable wraps the error that prevented opening the named backend.
func NewUnavailable(name string, err error) *Unavailable {
	return &Unavailable{name: name, err: fmt.Errorf("%s unavailable: %w", name, err)}
}

func (u *Unavailable) Name() string { return u.name }

func (u *Unavailable) ReadAll(context.Context) ([]model.Tranche, error) { return nil, u.err }

func (u *Unavailable) Insert(context.Context, model.Tranche) (model.Tranche, error) {
	return model.Tranche{}, u.err
}

func (u *Unavailable) InsertBatch(context.Context, []model.Tranche) error { return u.err }

func (u *Unavailable) UpdateFields(context.Context, model.TrancheID, model.Patch) error {
	return u.err
}

func (u *Unavailable) Delete(context.Context, model.TrancheID) error { return u.err }

func (u *Unavailable) DeleteBatch(context.Context, []model.TrancheID) error { return u.err }

func (u *Unavailable) Close() error { return nil }
