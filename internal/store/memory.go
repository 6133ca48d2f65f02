package store

import (
	"context"
	"fmt"
	"sync"

	"TrancheTrack/internal/model"
)

// Memory is an in-process Backend. Fail, when set, makes every call return
// that error.
type Memory struct {
	mu      sync.Mutex
	records []model.Tranche
	nextID  int
	Fail    error
	Calls   []string
}

// NewMemory creates a Memory backend holding copies of ts.
func NewMemory(ts ...model.Tranche) *Memory {
	m := &Memory{nextID: 1}
	for _, t := range ts {
		m.records = append(m.records, t.Clone())
	}
	return m
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) enter(op string) error {
	m.Calls = append(m.Calls, op)
	return m.Fail
}

func (m *Memory) ReadAll(_ context.Context) ([]model.Tranche, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ReadAll"); err != nil {
		return nil, err
	}
	out := make([]model.Tranche, len(m.records))
	for i, t := range m.records {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *Memory) assign(t model.Tranche) model.Tranche {
	t = t.Clone()
	t.ID = model.TrancheID(fmt.Sprintf("mem-%d", m.nextID))
	m.nextID++
	return t
}

func (m *Memory) Insert(_ context.Context, t model.Tranche) (model.Tranche, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Insert"); err != nil {
		return model.Tranche{}, err
	}
	t = m.assign(t)
	m.records = append(m.records, t)
	return t.Clone(), nil
}

func (m *Memory) InsertBatch(_ context.Context, ts []model.Tranche) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("InsertBatch"); err != nil {
		return err
	}
	for _, t := range ts {
		m.records = append(m.records, m.assign(t))
	}
	return nil
}

func (m *Memory) UpdateFields(_ context.Context, id model.TrancheID, p model.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateFields"); err != nil {
		return err
	}
	for i := range m.records {
		if m.records[i].ID == id {
			p.Apply(&m.records[i])
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) Delete(_ context.Context, id model.TrancheID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Delete"); err != nil {
		return err
	}
	for i := range m.records {
		if m.records[i].ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) DeleteBatch(_ context.Context, ids []model.TrancheID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteBatch"); err != nil {
		return err
	}
	drop := make(map[model.TrancheID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.records[:0]
	for _, t := range m.records {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	m.records = kept
	return nil
}

// ReplaceAll swaps the whole collection for copies of ts.
func (m *Memory) ReplaceAll(_ context.Context, ts []model.Tranche) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ReplaceAll"); err != nil {
		return err
	}
	m.records = m.records[:0]
	for _, t := range ts {
		m.records = append(m.records, t.Clone())
	}
	return nil
}

func (m *Memory) Close() error { return nil }
