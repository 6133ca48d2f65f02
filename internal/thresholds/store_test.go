package thresholds

import (
	"os"
	"path/filepath"
	"testing"

	"TrancheTrack/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, defaults map[string]model.AlertThreshold) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "thresholds.json")
	s, err := Open(path, defaults, nil)
	require.NoError(t, err)
	return s, path
}

func TestGet_Resolution(t *testing.T) {
	s, _ := openTemp(t, map[string]model.AlertThreshold{"mrk": {AddPct: -0.15, TrimPct: 0.30}})

	assert.Equal(t, model.AlertThreshold{AddPct: -0.15, TrimPct: 0.30}, s.Get("MRK"))
	assert.Equal(t, model.DefaultThreshold, s.Get("XYZ"))

	require.NoError(t, s.Set("mrk", model.AlertThreshold{AddPct: -0.10, TrimPct: 0.25}))
	assert.Equal(t, model.AlertThreshold{AddPct: -0.10, TrimPct: 0.25}, s.Get("MRK"))

	all := s.For([]string{"MRK", "XYZ"})
	assert.Len(t, all, 2)
	assert.Equal(t, model.DefaultThreshold, all["XYZ"])
}

func TestSet_PersistsWholeMap(t *testing.T) {
	s, path := openTemp(t, nil)
	require.NoError(t, s.Set("GLD", model.AlertThreshold{AddPct: -0.05, TrimPct: 0.10}))

	// Another writer adds a ticker between our calls.
	other, err := Open(path, nil, nil)
	require.NoError(t, err)
	require.NoError(t, other.Set("SLV", model.AlertThreshold{AddPct: -0.30, TrimPct: 0.50}))

	require.NoError(t, s.Set("DIA", model.AlertThreshold{AddPct: -0.25, TrimPct: 0.45}))
	assert.Equal(t, []string{"DIA", "GLD", "SLV"}, s.Overridden())

	reopened, err := Open(path, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.AlertThreshold{AddPct: -0.30, TrimPct: 0.50}, reopened.Get("SLV"))
	assert.Equal(t, 3, len(reopened.Overridden()))
}

func TestSet_Validation(t *testing.T) {
	s, path := openTemp(t, nil)
	for _, th := range []model.AlertThreshold{
		{AddPct: 0.10, TrimPct: 0.40},
		{AddPct: -0.20, TrimPct: 0},
		{AddPct: -1.5, TrimPct: 0.40},
		{},
	} {
		assert.ErrorIs(t, s.Set("DIA", th), ErrInvalid, "%+v", th)
	}
	assert.ErrorIs(t, s.Set(" ", model.DefaultThreshold), ErrInvalid)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing written")
}

func TestReset(t *testing.T) {
	s, _ := openTemp(t, map[string]model.AlertThreshold{"DIA": {AddPct: -0.15, TrimPct: 0.35}})
	require.NoError(t, s.Set("DIA", model.AlertThreshold{AddPct: -0.05, TrimPct: 0.05}))

	removed, err := s.Reset("dia")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, model.AlertThreshold{AddPct: -0.15, TrimPct: 0.35}, s.Get("DIA"))

	removed, err = s.Reset("DIA")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := Open(path, nil, nil)
	assert.Error(t, err)
}
