package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TrancheTrack/internal/collector"
	"TrancheTrack/internal/dashboard"
	"TrancheTrack/internal/ledger"
	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/notifier"
	"TrancheTrack/internal/portfolio"
	"TrancheTrack/internal/recorder"
	"TrancheTrack/internal/thresholds"

	"github.com/robfig/cron/v3"
)

// Sender delivers chat messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Deps are the collaborators of a Scheduler.
type Deps struct {
	Ledger     *ledger.Ledger
	Collector  *collector.Collector
	State      *dashboard.State
	Thresholds *thresholds.Store
	Center     *notifier.Center
	Sender     Sender
	Recorder   recorder.Recorder
	Logger     *logging.Logger
}

// Scheduler runs the refresh job on a cron schedule and answers chat
// commands. Jobs and commands run one at a time.
type Scheduler struct {
	Cron *cron.Cron
	Ctx  context.Context

	ledger     *ledger.Ledger
	collector  *collector.Collector
	state      *dashboard.State
	thresholds *thresholds.Store
	center     *notifier.Center
	sender     Sender
	recorder   recorder.Recorder
	logger     *logging.Logger

	benchmark string
	view      dashboard.Options
	now       func() time.Time

	mu sync.Mutex
}

// NewScheduler creates a new Scheduler. benchmark is appended to every
// refresh batch; view holds the default sort and pinned banner.
func NewScheduler(ctx context.Context, d Deps, benchmark string, view dashboard.Options) *Scheduler {
	if d.Logger == nil {
		d.Logger = logging.NewSilent()
	}
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	if d.State == nil {
		d.State = dashboard.NewState()
	}
	if d.Center == nil {
		d.Center = notifier.NewCenter(nil)
	}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Ctx:        ctx,
		ledger:     d.Ledger,
		collector:  d.Collector,
		state:      d.State,
		thresholds: d.Thresholds,
		center:     d.Center,
		sender:     d.Sender,
		recorder:   d.Recorder,
		logger:     d.Logger,
		benchmark:  benchmark,
		view:       view,
		now:        time.Now,
	}
}

// RegisterAll registers the refresh job.
func (s *Scheduler) RegisterAll(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunRefreshNow executes the refresh job immediately (RUN_ON_START).
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info().Msg("running refresh task")
	rep := s.refresh(s.Ctx)
	s.trySend(notifier.FormatReport(rep))
}

// Refresh runs one refresh outside the schedule and returns the report.
func (s *Scheduler) Refresh(ctx context.Context) dashboard.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

// Report builds the current view without fetching prices.
func (s *Scheduler) Report(opts dashboard.Options) dashboard.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report(s.ledger.Tranches(), opts)
}

// refresh prices every tracked ticker plus the benchmark, updates the
// dashboard state and records the outcome. Callers hold s.mu.
func (s *Scheduler) refresh(ctx context.Context) dashboard.Report {
	tranches := s.ledger.Tranches()
	res := s.collector.Refresh(ctx, portfolio.Tickers(tranches), s.benchmark)
	s.state.Apply(res)

	for _, n := range collector.Notices(res) {
		s.center.Post(n)
	}

	rep := s.report(tranches, dashboard.Options{})
	rec := recorder.NewRefreshRecord(rep, s.state.Indicators, res.Failures)
	if err := s.recorder.RecordRefresh(ctx, rec); err != nil {
		s.logger.Error().Err(err).Msg("record refresh")
	}
	s.logger.Info().
		Int("priced", len(res.Snapshot.Prices)).
		Int("failed", len(res.Failures)).
		Msg("refresh complete")
	return rep
}

// report builds the view over the given tranches. Unset options fall back
// to the configured defaults.
func (s *Scheduler) report(tranches []model.Tranche, opts dashboard.Options) dashboard.Report {
	if opts.Sort == "" {
		opts.Sort = s.view.Sort
	}
	if opts.Pin == "" {
		opts.Pin = s.view.Pin
	}
	var th dashboard.Thresholds
	if s.thresholds != nil {
		th = s.thresholds
	}
	return dashboard.Build(s.state, tranches, th, s.now(), opts)
}

func (s *Scheduler) recordEvent(ctx context.Context, evt *recorder.TrancheEvent) {
	if err := s.recorder.RecordTrancheEvent(ctx, evt); err != nil {
		s.logger.Error().Err(err).Str("action", evt.Action).Msg("record tranche event")
	}
}

func (s *Scheduler) trySend(text string) {
	if s.sender == nil {
		return
	}
	if err := s.sender.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}
