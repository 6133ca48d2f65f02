// Package store defines the persistence contract for the tranche collection.
package store

import (
	"context"
	"errors"

	"TrancheTrack/internal/model"
)

// ErrNotFound is returned when an id does not exist in the backend.
var ErrNotFound = errors.New("tranche not found")

// Backend persists the tranche collection. Identities are assigned by the
// backend on insert.
type Backend interface {
	Name() string
	ReadAll(ctx context.Context) ([]model.Tranche, error)
	Insert(ctx context.Context, t model.Tranche) (model.Tranche, error)
	// InsertBatch inserts all tranches atomically.
	InsertBatch(ctx context.Context, ts []model.Tranche) error
	UpdateFields(ctx context.Context, id model.TrancheID, p model.Patch) error
	Delete(ctx context.Context, id model.TrancheID) error
	// DeleteBatch deletes all ids atomically. Unknown ids are ignored.
	DeleteBatch(ctx context.Context, ids []model.TrancheID) error
	Close() error
}

// Mirror is implemented by backends that can hold a full copy of another
// backend's collection, identities included.
type Mirror interface {
	ReplaceAll(ctx context.Context, ts []model.Tranche) error
}
