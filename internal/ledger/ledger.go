// Package ledger owns the tranche set: it reconciles persisted records with
// the defaults on load and routes every mutation to the active backend.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/notifier"
	"TrancheTrack/internal/store"

	"github.com/shopspring/decimal"
)

// State is the reconciliation state of a Ledger.
type State string

const (
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateDegraded State = "degraded"
)

// Editable fields for Update.
const (
	FieldPurchasePrice  = "purchasePrice"
	FieldBenchmarkPrice = "benchmarkPrice"
	FieldShares         = "shares"
)

var (
	// ErrInvalidInput rejects an Add with missing or malformed fields.
	ErrInvalidInput = errors.New("invalid tranche input")
	// ErrDuplicate rejects a change that would repeat an existing natural key.
	ErrDuplicate = errors.New("tranche already exists")
	// ErrUnknownField rejects an Update naming a field that cannot be edited.
	ErrUnknownField = errors.New("unknown tranche field")
	// ErrPersist wraps backend failures after the in-memory change was kept.
	ErrPersist = errors.New("persist tranche change")
	// ErrNotLoaded is returned by mutations before Load succeeded.
	ErrNotLoaded = errors.New("ledger not loaded")
)

// Poster receives non-fatal notices.
type Poster interface {
	Post(n notifier.Notice) bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithDefaults replaces the seeded default tranches.
func WithDefaults(ts []model.Tranche) Option {
	return func(l *Ledger) { l.defaults = ts }
}

// WithShareSeeds replaces the backfill table.
func WithShareSeeds(s ShareSeeds) Option {
	return func(l *Ledger) { l.seeds = s }
}

// WithNotices routes persistence and degradation notices to p.
func WithNotices(p Poster) Option {
	return func(l *Ledger) { l.notices = p }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// Ledger is the single owner of the tranche set.
type Ledger struct {
	mu        sync.Mutex
	primary   store.Backend
	secondary store.Backend
	active    store.Backend
	state     State
	tranches  []model.Tranche
	// synced is false while the secondary holds records the primary lacks.
	synced bool

	defaults []model.Tranche
	seeds    ShareSeeds
	notices  Poster
	logger   *logging.Logger
}

// New creates a Ledger. primary may be nil, in which case secondary is the
// only backend and is not considered degraded.
func New(primary, secondary store.Backend, opts ...Option) *Ledger {
	l := &Ledger{
		primary:   primary,
		secondary: secondary,
		state:     StateLoading,
		defaults:  DefaultTranches,
		seeds:     DefaultShareSeeds,
		logger:    logging.NewSilent(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current reconciliation state.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Backend returns the name of the backend receiving writes.
func (l *Ledger) Backend() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return ""
	}
	return l.active.Name()
}

// Tranches returns a copy of the reconciled set in insertion order.
func (l *Ledger) Tranches() []model.Tranche {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Tranche, len(l.tranches))
	for i, t := range l.tranches {
		out[i] = t.Clone()
	}
	return out
}

// Load reads, seeds, deduplicates and backfills the tranche set. Each phase
// is idempotent and persisted on its own. A failing primary switches the
// ledger to the secondary for the rest of its life.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateDegraded {
		l.state = StateLoading
	}
	records, err := l.read(ctx)
	if err != nil {
		return err
	}
	merged := true
	if l.state != StateDegraded {
		if records, merged, err = l.adoptLocal(ctx, records); err != nil {
			return err
		}
	}

	if missing := MissingDefaults(records, l.defaults); len(missing) > 0 {
		if err := l.active.InsertBatch(ctx, missing); err != nil {
			l.persistFailed("seed", err)
		} else {
			l.logger.Info().Int("count", len(missing)).Str("backend", l.active.Name()).Msg("seeded default tranches")
			if records, err = l.active.ReadAll(ctx); err != nil {
				return fmt.Errorf("re-read after seed: %w", err)
			}
		}
	}

	kept, removed := Dedup(records)
	if len(removed) > 0 {
		ids := make([]model.TrancheID, len(removed))
		for i, t := range removed {
			ids[i] = t.ID
		}
		if err := l.active.DeleteBatch(ctx, ids); err != nil {
			l.persistFailed("dedup", err)
		} else {
			l.logger.Info().Int("count", len(removed)).Msg("removed duplicate tranches")
		}
	}

	out, filled := Backfill(kept, l.seeds)
	for _, t := range filled {
		if err := l.active.UpdateFields(ctx, t.ID, model.Patch{Shares: t.Shares}); err != nil {
			l.persistFailed("backfill", err)
		}
	}
	if len(filled) > 0 {
		l.logger.Info().Int("count", len(filled)).Msg("backfilled share counts")
	}

	l.tranches = out
	if l.state != StateDegraded {
		l.state = StateReady
		l.synced = merged
		l.mirror(ctx)
	}
	return nil
}

// read loads from the active backend, falling back to the secondary once.
func (l *Ledger) read(ctx context.Context) ([]model.Tranche, error) {
	if l.active == nil {
		l.active = l.primary
		if l.active == nil {
			l.active = l.secondary
		}
	}
	records, err := l.active.ReadAll(ctx)
	if err == nil {
		return records, nil
	}
	if l.active == l.secondary || l.secondary == nil {
		return nil, fmt.Errorf("read tranches from %s: %w", l.active.Name(), err)
	}

	l.logger.Warn().Err(err).Str("primary", l.active.Name()).Str("secondary", l.secondary.Name()).Msg("primary store unavailable, using local data")
	l.post(notifier.Notice{
		Fingerprint: "degraded",
		Kind:        notifier.KindDegraded,
		Message:     fmt.Sprintf("%s unavailable, using local data: %v", l.active.Name(), err),
	})
	l.active = l.secondary
	l.state = StateDegraded

	records, err = l.active.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read tranches from %s: %w", l.active.Name(), err)
	}
	return records, nil
}

// adoptLocal inserts secondary records unknown to the primary, such as
// tranches added during a degraded session, and re-reads the primary. merged
// is false when the secondary could not be read or the insert failed; the
// secondary must then not be overwritten.
func (l *Ledger) adoptLocal(ctx context.Context, records []model.Tranche) (out []model.Tranche, merged bool, err error) {
	if l.secondary == nil || l.active == l.secondary {
		return records, true, nil
	}
	local, err := l.secondary.ReadAll(ctx)
	if err != nil {
		l.logger.Warn().Err(err).Msg("read local store failed, skipping merge")
		return records, false, nil
	}
	orphans := LocalOnly(records, local)
	if len(orphans) == 0 {
		return records, true, nil
	}
	if err := l.active.InsertBatch(ctx, orphans); err != nil {
		l.persistFailed("merge", err)
		return records, false, nil
	}
	l.logger.Info().Int("count", len(orphans)).Str("backend", l.active.Name()).Msg("merged local-only tranches")
	if out, err = l.active.ReadAll(ctx); err != nil {
		return nil, false, fmt.Errorf("re-read after merge: %w", err)
	}
	return out, true, nil
}

// mirror copies the reconciled set into the secondary so a later degraded
// session starts from it. Callers hold l.mu.
func (l *Ledger) mirror(ctx context.Context) {
	if !l.synced || l.secondary == nil || l.active == l.secondary {
		return
	}
	m, ok := l.secondary.(store.Mirror)
	if !ok {
		return
	}
	if err := m.ReplaceAll(ctx, l.tranches); err != nil {
		l.logger.Warn().Err(err).Msg("mirror to local store failed")
	}
}

// AddInput is the raw user input for a new tranche.
type AddInput struct {
	Ticker         string
	Date           string
	PurchasePrice  string
	BenchmarkPrice string
	Shares         string
}

func (in AddInput) parse() (model.Tranche, error) {
	t := model.Tranche{Ticker: model.NormalizeTicker(in.Ticker)}
	if t.Ticker == "" {
		return t, fmt.Errorf("%w: ticker is required", ErrInvalidInput)
	}
	date, err := model.ParseDate(in.Date)
	if err != nil {
		return t, fmt.Errorf("%w: %v (use MM/DD/YYYY)", ErrInvalidInput, err)
	}
	t.Date = date
	var ok bool
	if t.PurchasePrice, ok = parsePositive(in.PurchasePrice); !ok {
		return t, fmt.Errorf("%w: purchase price %q", ErrInvalidInput, in.PurchasePrice)
	}
	if t.BenchmarkPrice, ok = parsePositive(in.BenchmarkPrice); !ok {
		return t, fmt.Errorf("%w: benchmark price %q", ErrInvalidInput, in.BenchmarkPrice)
	}
	if s, ok := parsePositive(in.Shares); ok {
		t.Shares = &s
	}
	return t, nil
}

// parsePositive parses a strictly positive decimal.
func parsePositive(s string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// Add validates and persists a new tranche. The backend assigns its identity,
// so a failed insert leaves the set unchanged.
func (l *Ledger) Add(ctx context.Context, in AddInput) (model.Tranche, error) {
	t, err := in.parse()
	if err != nil {
		return model.Tranche{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return model.Tranche{}, ErrNotLoaded
	}
	if l.indexOfKey(t.Key(), "") >= 0 {
		return model.Tranche{}, fmt.Errorf("%w: %s %s @ %s", ErrDuplicate, t.Ticker, t.Date, t.Key().Price)
	}

	added, err := l.active.Insert(ctx, t)
	if err != nil {
		l.persistFailed("add", err)
		return model.Tranche{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	l.tranches = append(l.tranches, added.Clone())
	l.mirror(ctx)
	l.logger.Info().Str("id", string(added.ID)).Str("ticker", added.Ticker).Msg("tranche added")
	return added, nil
}

// Update edits one numeric field. Invalid numbers and unknown ids are
// ignored and report false. For shares, an empty or invalid value removes
// the field.
func (l *Ledger) Update(ctx context.Context, id model.TrancheID, field, value string) (bool, error) {
	var p model.Patch
	switch field {
	case FieldPurchasePrice:
		v, ok := parsePositive(value)
		if !ok {
			return false, nil
		}
		p.PurchasePrice = &v
	case FieldBenchmarkPrice:
		v, ok := parsePositive(value)
		if !ok {
			return false, nil
		}
		p.BenchmarkPrice = &v
	case FieldShares:
		if v, ok := parsePositive(value); ok {
			p.Shares = &v
		} else {
			p.ClearShares = true
		}
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return l.apply(ctx, id, p)
}

// UpdateDate moves a tranche to another purchase date. Malformed dates and
// unknown ids are ignored and report false.
func (l *Ledger) UpdateDate(ctx context.Context, id model.TrancheID, value string) (bool, error) {
	date, err := model.ParseDate(value)
	if err != nil {
		return false, nil
	}
	return l.apply(ctx, id, model.Patch{Date: &date})
}

func (l *Ledger) apply(ctx context.Context, id model.TrancheID, p model.Patch) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return false, ErrNotLoaded
	}
	i := l.indexOf(id)
	if i < 0 {
		return false, nil
	}
	if p.ClearShares && !l.tranches[i].HasShares() {
		return false, nil
	}

	next := l.tranches[i].Clone()
	p.Apply(&next)
	if next.Key() != l.tranches[i].Key() && l.indexOfKey(next.Key(), id) >= 0 {
		return false, fmt.Errorf("%w: %s %s @ %s", ErrDuplicate, next.Ticker, next.Date, next.Key().Price)
	}
	l.tranches[i] = next

	if err := l.active.UpdateFields(ctx, id, p); err != nil {
		l.persistFailed("update", err)
		return true, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	l.mirror(ctx)
	return true, nil
}

// Delete removes a tranche. Unknown ids report false.
func (l *Ledger) Delete(ctx context.Context, id model.TrancheID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return false, ErrNotLoaded
	}
	i := l.indexOf(id)
	if i < 0 {
		return false, nil
	}
	l.tranches = append(l.tranches[:i], l.tranches[i+1:]...)

	if err := l.active.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		l.persistFailed("delete", err)
		return true, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	l.mirror(ctx)
	l.logger.Info().Str("id", string(id)).Msg("tranche deleted")
	return true, nil
}

func (l *Ledger) indexOf(id model.TrancheID) int {
	for i, t := range l.tranches {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// indexOfKey finds a tranche with key k other than the one with id except.
func (l *Ledger) indexOfKey(k model.NaturalKey, except model.TrancheID) int {
	for i, t := range l.tranches {
		if t.ID != except && t.Key() == k {
			return i
		}
	}
	return -1
}

func (l *Ledger) persistFailed(op string, err error) {
	name := l.active.Name()
	l.logger.Error().Err(err).Str("op", op).Str("backend", name).Msg("persist failed")
	l.post(notifier.Notice{
		Fingerprint: "persist:" + name + ":" + op,
		Kind:        notifier.KindPersist,
		Message:     fmt.Sprintf("Failed to %s tranche on %s: %v", op, name, err),
	})
}

func (l *Ledger) post(n notifier.Notice) {
	if l.notices != nil {
		l.notices.Post(n)
	}
}
