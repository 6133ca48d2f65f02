package store_test

import (
	"context"
	"errors"
	"testing"

	"TrancheTrack/internal/store"
	"TrancheTrack/internal/store/storetest"

	"github.com/stretchr/testify/assert"
)

func TestMemory_Contract(t *testing.T) {
	storetest.Run(t, store.NewMemory())
}

func TestMemory_Fail(t *testing.T) {
	m := store.NewMemory()
	m.Fail = errors.New("offline")
	_, err := m.ReadAll(context.Background())
	assert.EqualError(t, err, "offline")
	assert.Equal(t, []string{"ReadAll"}, m.Calls)
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	u := store.NewUnavailable("surrealdb", cause)
	assert.Equal(t, "surrealdb", u.Name())

	_, err := u.ReadAll(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, u.InsertBatch(context.Background(), nil), cause)
	assert.NoError(t, u.Close())
}
