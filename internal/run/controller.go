// Package run sequences one reconciliation pass: schedule refresh,
// summary rebuild, history reconcile, notification. The two data steps
// decide success; everything after degrades gracefully.
package run

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"samplewatch/internal/eventbus"
	"samplewatch/internal/history"
	"samplewatch/internal/metrics"
	"samplewatch/internal/notify"
	"samplewatch/internal/rowtable"
	"samplewatch/internal/schedule"
	"samplewatch/internal/summary"
	logx "samplewatch/pkg/logx"
)

// ErrRunActive is returned by TryRun when a run is already in flight.
// Runs never overlap; an overdue trigger is skipped, not queued.
var ErrRunActive = errors.New("a run is already active")

// SheetRef names one schedule sheet and the label its items carry.
type SheetRef struct {
	Sheet string
	Label string
}

// Options is the per-run configuration snapshot.
type Options struct {
	Sheets  []SheetRef
	Columns map[string]string // header label overrides per field

	HistorySheet string
	HistoryRows  int
	HistoryCols  int

	// SummarySheet is the roll-up worksheet; empty disables the rebuild.
	SummarySheet string

	NotifyEnabled bool
	DueSoonDays   int
	Chart         bool
	Subject       string
}

// Controller owns the run sequence. It is single-flight: concurrent
// triggers see ErrRunActive. The clock is injectable so tests can pin
// "today".
type Controller struct {
	store      rowtable.Store
	updater    *schedule.Updater
	ledger     *history.Ledger
	summarizer *summary.Builder
	bus        eventbus.Bus     // optional
	metrics    *metrics.Metrics // optional
	log        logx.Logger
	now        func() time.Time

	mu         sync.Mutex
	opts       Options
	dispatcher *notify.Dispatcher // nil when no channels are configured
	running    bool
}

// Deps are the collaborators a Controller needs. Store is required;
// the rest defaults to working zero implementations.
type Deps struct {
	Store      rowtable.Store
	Dispatcher *notify.Dispatcher
	Bus        eventbus.Bus
	Metrics    *metrics.Metrics
	Log        logx.Logger
	Now        func() time.Time
}

func NewController(opts Options, deps Deps) (*Controller, error) {
	if deps.Store == nil {
		return nil, errors.New("run: store is required")
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	log := deps.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		store:      deps.Store,
		updater:    schedule.NewUpdater(log),
		ledger:     history.NewLedger(log),
		summarizer: summary.NewBuilder(log),
		dispatcher: deps.Dispatcher,
		bus:        deps.Bus,
		metrics:    deps.Metrics,
		log:        log,
		now:        now,
		opts:       opts,
	}, nil
}

func validateOptions(opts Options) error {
	if len(opts.Sheets) == 0 {
		return errors.New("run: at least one schedule sheet is required")
	}
	for _, ref := range opts.Sheets {
		if ref.Sheet == "" {
			return errors.New("run: schedule sheet name must not be empty")
		}
	}
	if opts.HistorySheet == "" {
		return errors.New("run: history sheet name is required")
	}
	return nil
}

// Apply swaps the options for subsequent runs. The active run, if any,
// finishes with the snapshot it started with.
func (c *Controller) Apply(opts Options) error {
	if err := validateOptions(opts); err != nil {
		return err
	}
	c.mu.Lock()
	c.opts = opts
	c.mu.Unlock()
	return nil
}

// SetDispatcher swaps the delivery dispatcher for subsequent runs
// (hot reload of channel config).
func (c *Controller) SetDispatcher(d *notify.Dispatcher) {
	c.mu.Lock()
	c.dispatcher = d
	c.mu.Unlock()
}

// TryRun executes a run unless one is already active.
func (c *Controller) TryRun(ctx context.Context) (*Report, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, ErrRunActive
	}
	c.running = true
	opts := c.opts
	dispatcher := c.dispatcher
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()
	return c.run(ctx, opts, dispatcher), nil
}

// Run executes a run and turns a failed terminal state into an error,
// which is what the CLI wants for its exit code.
func (c *Controller) Run(ctx context.Context) (*Report, error) {
	rep, err := c.TryRun(ctx)
	if err != nil {
		return nil, err
	}
	if rep.State == StateFailed {
		return rep, errors.New(rep.Err)
	}
	return rep, nil
}

func (c *Controller) run(ctx context.Context, opts Options, dispatcher *notify.Dispatcher) *Report {
	started := c.now()
	today := started
	rep := &Report{
		ID:      uuid.NewString(),
		Started: started,
		State:   StateStart,
	}
	log := c.log.With(logx.String("run", rep.ID))
	log.Info("run started", logx.Time("today", today))
	c.publish("run.started", rep)

	// Step 1: schedule refresh, every sheet in configured order.
	stepStart := time.Now()
	var all, due []schedule.Item
	for _, ref := range opts.Sheets {
		sheet, err := c.store.Sheet(ctx, ref.Sheet)
		if err != nil {
			return c.fail(rep, log, fmt.Errorf("open schedule sheet %q: %w", ref.Sheet, err))
		}
		out, err := c.updater.Refresh(ctx, sheet, ref.Label, opts.Columns, today)
		if err != nil {
			return c.fail(rep, log, fmt.Errorf("refresh %q: %w", ref.Sheet, err))
		}
		rep.Sheets = append(rep.Sheets, SheetReport{
			Sheet:    ref.Sheet,
			Label:    ref.Label,
			Rows:     out.Rows,
			Computed: out.Computed,
			Skipped:  out.Skipped,
			Due:      len(out.Due),
		})
		rep.RowsComputed += out.Computed
		rep.RowsSkipped += out.Skipped
		rep.RowsDue += len(out.Due)
		all = append(all, out.All...)
		due = append(due, out.Due...)
	}
	rep.State = StateScheduleUpdated
	rep.addStep("schedule", stepStart, time.Now())
	c.publish("schedule.updated", rep)

	// Step 2: summary rebuild. Derived data; failure degrades only.
	if opts.SummarySheet != "" {
		stepStart = time.Now()
		if err := c.rebuildSummary(ctx, opts, all, today); err != nil {
			c.degrade(rep, log, "summary rebuild failed", err)
		}
		rep.addStep("summary", stepStart, time.Now())
	}

	// Step 3: history reconcile. The schedule writes from step 1 stay
	// in place on failure; a rerun converges via the dedup set.
	stepStart = time.Now()
	histSheet, err := c.store.EnsureSheet(ctx, opts.HistorySheet, opts.HistoryRows, opts.HistoryCols)
	if err != nil {
		return c.fail(rep, log, fmt.Errorf("ensure history sheet %q: %w", opts.HistorySheet, err))
	}
	appended, err := c.ledger.Reconcile(ctx, histSheet, all, today)
	if err != nil {
		return c.fail(rep, log, fmt.Errorf("reconcile history: %w", err))
	}
	rep.HistoryAppended = appended
	rep.State = StateHistoryReconciled
	rep.addStep("history", stepStart, time.Now())
	c.publish("history.reconciled", rep)

	// Step 4: notification. Degrades, never fails.
	stepStart = time.Now()
	c.notifyDue(ctx, opts, dispatcher, rep, log, all, due, today)
	rep.State = StateNotified
	rep.addStep("notify", stepStart, time.Now())
	c.publish("notification.sent", rep)

	rep.State = StateDone
	rep.Finished = c.now()
	c.metrics.ObserveRun("ok", rep.RowsComputed, rep.RowsSkipped, rep.RowsDue, rep.HistoryAppended,
		rep.Finished.Sub(rep.Started).Seconds(), float64(rep.Finished.Unix()))
	log.Info("run finished",
		logx.Int("computed", rep.RowsComputed),
		logx.Int("due", rep.RowsDue),
		logx.Int("skipped", rep.RowsSkipped),
		logx.Int("history_appended", rep.HistoryAppended),
		logx.Bool("notification_sent", rep.NotificationSent),
		logx.Int("degradations", len(rep.Degradations)),
	)
	c.publish("run.finished", rep)
	return rep
}

func (c *Controller) rebuildSummary(ctx context.Context, opts Options, all []schedule.Item, today time.Time) error {
	sheet, err := c.store.EnsureSheet(ctx, opts.SummarySheet, 0, 0)
	if err != nil {
		return fmt.Errorf("ensure summary sheet %q: %w", opts.SummarySheet, err)
	}
	return c.summarizer.Rebuild(ctx, sheet, all, today)
}

func (c *Controller) notifyDue(ctx context.Context, opts Options, dispatcher *notify.Dispatcher, rep *Report, log logx.Logger, all, due []schedule.Item, today time.Time) {
	if !opts.NotifyEnabled {
		return
	}

	payload := notify.Assemble(due, notify.UpcomingWithin(all, opts.DueSoonDays), today)
	if payload == nil {
		// Not an error: the run succeeded and there is nothing to say.
		log.Info("nothing due, no notification")
		return
	}

	if opts.Chart {
		png, err := notify.RenderAreaChart(payload.Areas)
		if err != nil {
			c.degrade(rep, log, "chart render failed", err)
		} else {
			payload.ChartPNG = png
		}
	}

	if dispatcher == nil {
		c.degrade(rep, log, "notification skipped", notify.ErrNoChannels)
		return
	}

	subject := opts.Subject
	if subject == "" {
		subject = fmt.Sprintf("Sampling checks due: %d (%s)", payload.Total, schedule.FormatDate(today))
	}
	msg := &notify.Message{
		Subject:  subject,
		HTML:     notify.EmailHTML(payload),
		Text:     notify.ChatText(payload),
		ChartPNG: payload.ChartPNG,
	}

	outcomes, err := dispatcher.Dispatch(ctx, msg)
	rep.Notification = outcomes
	for _, out := range outcomes {
		c.metrics.ObserveNotification(out.Channel, out.OK)
		if out.OK {
			rep.NotificationSent = true
		} else {
			c.degrade(rep, log, "channel delivery failed: "+out.Channel, errors.New(out.Err))
		}
	}
	if err != nil && len(outcomes) == 0 {
		c.degrade(rep, log, "notification skipped", err)
	}
}

func (c *Controller) fail(rep *Report, log logx.Logger, err error) *Report {
	rep.State = StateFailed
	rep.Err = err.Error()
	rep.Finished = c.now()
	c.metrics.ObserveRun("failed", rep.RowsComputed, rep.RowsSkipped, rep.RowsDue, rep.HistoryAppended,
		rep.Finished.Sub(rep.Started).Seconds(), float64(rep.Finished.Unix()))
	log.Error("run failed", logx.Err(err))
	c.publish("run.finished", rep)
	return rep
}

func (c *Controller) degrade(rep *Report, log logx.Logger, what string, err error) {
	rep.Degradations = append(rep.Degradations, what+": "+err.Error())
	log.Warn(what, logx.Err(err))
}

func (c *Controller) publish(event string, rep *Report) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(eventbus.Event{Type: event, Data: rep.ID})
}
