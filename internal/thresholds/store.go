// Package thresholds persists per-ticker alert thresholds independently of
// the tranche data.
package thresholds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/model"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid rejects a threshold with a non-negative add or non-positive
// trim fraction.
var ErrInvalid = errors.New("invalid alert threshold")

// file is the on-disk shape. The whole map is rewritten on every change.
type file struct {
	Thresholds map[string]model.AlertThreshold `json:"thresholds"`
	UpdatedAt  time.Time                       `json:"updatedAt"`
}

// Store resolves thresholds as override, then configured default, then
// model.DefaultThreshold.
type Store struct {
	mu        sync.Mutex
	path      string
	defaults  map[string]model.AlertThreshold
	overrides map[string]model.AlertThreshold
	validate  *validator.Validate
	logger    *logging.Logger
}

// Open loads overrides from path. A missing file means no overrides.
func Open(path string, defaults map[string]model.AlertThreshold, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewSilent()
	}
	s := &Store{
		path:     path,
		defaults: make(map[string]model.AlertThreshold, len(defaults)),
		validate: validator.New(),
		logger:   logger,
	}
	for t, th := range defaults {
		s.defaults[model.NormalizeTicker(t)] = th
	}
	overrides, err := s.read()
	if err != nil {
		return nil, err
	}
	s.overrides = overrides
	return s, nil
}

func (s *Store) read() (map[string]model.AlertThreshold, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.AlertThreshold{}, nil
		}
		return nil, fmt.Errorf("read thresholds: %w", err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode thresholds: %w", err)
	}
	if f.Thresholds == nil {
		f.Thresholds = map[string]model.AlertThreshold{}
	}
	return f.Thresholds, nil
}

func (s *Store) write(m map[string]model.AlertThreshold) error {
	data, err := json.MarshalIndent(file{Thresholds: m, UpdatedAt: time.Now()}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create thresholds dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write thresholds: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Get returns the effective threshold for ticker.
func (s *Store) Get(ticker string) model.AlertThreshold {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(model.NormalizeTicker(ticker))
}

func (s *Store) get(ticker string) model.AlertThreshold {
	if th, ok := s.overrides[ticker]; ok {
		return th
	}
	if th, ok := s.defaults[ticker]; ok {
		return th
	}
	return model.DefaultThreshold
}

// For returns the effective thresholds of every given ticker.
func (s *Store) For(tickers []string) map[string]model.AlertThreshold {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.AlertThreshold, len(tickers))
	for _, t := range tickers {
		out[t] = s.get(model.NormalizeTicker(t))
	}
	return out
}

// Overridden lists tickers with a persisted override, sorted.
func (s *Store) Overridden() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.overrides))
	for t := range s.overrides {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Set persists an override for ticker. The file is re-read first so that
// changes written by another process survive; the in-memory map changes only
// once the write succeeds.
func (s *Store) Set(ticker string, th model.AlertThreshold) error {
	ticker = model.NormalizeTicker(ticker)
	if ticker == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalid)
	}
	if err := s.validate.Struct(th); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return s.modify(func(m map[string]model.AlertThreshold) bool {
		m[ticker] = th
		return true
	})
}

// Reset removes the override for ticker and reports whether one existed.
func (s *Store) Reset(ticker string) (bool, error) {
	ticker = model.NormalizeTicker(ticker)
	removed := false
	err := s.modify(func(m map[string]model.AlertThreshold) bool {
		if _, ok := m[ticker]; !ok {
			return false
		}
		delete(m, ticker)
		removed = true
		return true
	})
	return removed, err
}

func (s *Store) modify(fn func(map[string]model.AlertThreshold) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.read()
	if err != nil {
		return err
	}
	if !fn(m) {
		s.overrides = m
		return nil
	}
	if err := s.write(m); err != nil {
		return err
	}
	s.overrides = m
	s.logger.Info().Int("overrides", len(m)).Msg("alert thresholds saved")
	return nil
}
