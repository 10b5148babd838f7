// Package app wires configuration into the run controller and its
// collaborators, and hosts the two execution modes: one-shot runs and
// the long-running daemon.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"samplewatch/internal/config"
	"samplewatch/internal/eventbus"
	"samplewatch/internal/metrics"
	"samplewatch/internal/notify"
	"samplewatch/internal/rowtable"
	"samplewatch/internal/run"
	tgram "samplewatch/internal/transport/telegram"
	logx "samplewatch/pkg/logx"
)

// App holds everything a mode needs. Construct with New, then call
// RunOnce or Daemon.
type App struct {
	cfgm  *config.ConfigManager
	logs  *logx.Service
	log   logx.Logger
	bus   eventbus.Bus
	store rowtable.Store
	ctrl  *run.Controller

	sender *tgram.Sender // nil unless telegram is configured

	met *metrics.Metrics // set in daemon mode only
}

// Options tweaks construction for specific modes.
type Options struct {
	// DryRun swaps the configured store for an in-memory one, so a run
	// exercises the whole pipeline without touching live data.
	DryRun bool

	// Metrics enables the prometheus collectors (daemon mode).
	Metrics *metrics.Metrics
}

func New(cfgPath string, opt Options) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	if err := Validate(context.Background(), cfg); err != nil {
		return nil, err
	}

	// Telegram transport first: the log service mirrors into chat
	// through it. Bootstrap with chat logging off, set the target, then
	// apply the final config so the first Apply doesn't warn about a
	// missing target.
	var sender *tgram.Sender
	tg := cfg.Notify.Telegram
	if tg != nil && tg.Enabled {
		s, err := tgram.New(tgram.Config{Token: tg.Token}, logx.NewConsole(cfg.Logging.Level))
		if err != nil {
			return nil, fmt.Errorf("telegram transport: %w", err)
		}
		sender = s
	}

	logCfg := logConfigFrom(cfg)
	bootCfg := logCfg
	bootCfg.Chat.Enabled = false
	logSvc, log := logx.New(bootCfg, sender)
	if tg != nil && tg.Enabled {
		chatID := tg.LogChatID
		if chatID == 0 {
			chatID = tg.ChatID
		}
		logSvc.SetChatTarget(chatID)
	}
	logSvc.Apply(logCfg)
	log = log.With(logx.String("comp", "app"))

	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(Validate)

	var store rowtable.Store
	if opt.DryRun {
		store = rowtable.NewMemory()
		log.Info("dry run: using in-memory store")
	} else {
		sc, err := storeConfigFrom(cfg)
		if err != nil {
			return nil, err
		}
		st, err := rowtable.Open(sc, log.With(logx.String("comp", "store")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("store opened", logx.String("driver", sc.Driver))
	}

	bus := eventbus.New()

	dispatcher, err := dispatcherFrom(cfg, sender, log)
	if err != nil {
		return nil, err
	}

	now, err := clockFrom(cfg)
	if err != nil {
		return nil, err
	}

	ctrl, err := run.NewController(controllerOptionsFrom(cfg), run.Deps{
		Store:      store,
		Dispatcher: dispatcher,
		Bus:        bus,
		Metrics:    opt.Metrics,
		Log:        log.With(logx.String("comp", "run")),
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfgm:   cfgm,
		logs:   logSvc,
		log:    log,
		bus:    bus,
		store:  store,
		ctrl:   ctrl,
		sender: sender,
		met:    opt.Metrics,
	}, nil
}

// Config returns the committed configuration.
func (a *App) Config() *config.Config { return a.cfgm.Get() }

// RunOnce executes a single reconciliation run.
func (a *App) RunOnce(ctx context.Context) (*run.Report, error) {
	return a.ctrl.Run(ctx)
}

// Close releases the store and flushes log sinks.
func (a *App) Close() error {
	var first error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			first = err
		}
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return first
}

// ---- config mapping ----

func logConfigFrom(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Chat: logx.ChatConfig{
			Enabled:    cfg.Logging.Chat.Enabled,
			MinLevel:   cfg.Logging.Chat.MinLevel,
			RatePerSec: cfg.Logging.Chat.RatePerSec,
		},
	}
}

func storeConfigFrom(cfg *config.Config) (rowtable.Config, error) {
	s := cfg.Store
	retryBase, err := config.ParseDurationField("store.retry_base", s.RetryBase)
	if err != nil {
		return rowtable.Config{}, err
	}
	timeout, err := config.ParseDurationField("store.timeout", s.Timeout)
	if err != nil {
		return rowtable.Config{}, err
	}
	busy, err := config.ParseDurationField("store.busy_timeout", s.BusyTimeout)
	if err != nil {
		return rowtable.Config{}, err
	}
	tokenEnv := strings.TrimSpace(s.TokenEnv)
	if tokenEnv == "" && strings.TrimSpace(s.TokenFile) == "" {
		tokenEnv = "SHEETS_TOKEN"
	}
	return rowtable.Config{
		Driver:        s.Driver,
		SpreadsheetID: s.SpreadsheetID,
		TokenFile:     s.TokenFile,
		TokenEnv:      tokenEnv,
		Endpoint:      s.Endpoint,
		RatePerSec:    s.RatePerSec,
		RetryMax:      s.RetryMax,
		RetryBase:     retryBase,
		Timeout:       timeout,
		Path:          s.Path,
		BusyTimeout:   busy,
	}, nil
}

func controllerOptionsFrom(cfg *config.Config) run.Options {
	opts := run.Options{
		Columns:       cfg.Schedule.Columns,
		HistorySheet:  cfg.History.Sheet,
		HistoryRows:   cfg.History.Rows,
		HistoryCols:   cfg.History.Cols,
		SummarySheet:  cfg.Summary.Sheet,
		NotifyEnabled: cfg.Notify.Enabled,
		DueSoonDays:   cfg.Notify.DueSoonDays,
		Chart:         cfg.Notify.Chart,
		Subject:       cfg.Notify.Subject,
	}
	for _, ref := range cfg.Schedule.Sheets {
		opts.Sheets = append(opts.Sheets, run.SheetRef{Sheet: ref.Sheet, Label: ref.Label})
	}
	return opts
}

func dispatcherFrom(cfg *config.Config, sender *tgram.Sender, log logx.Logger) (*notify.Dispatcher, error) {
	n := cfg.Notify
	if !n.Enabled {
		return nil, nil
	}

	var channels []notify.Channel
	if em := n.Email; em != nil && em.Enabled {
		timeout, err := config.ParseDurationField("notify.email.timeout", em.Timeout)
		if err != nil {
			return nil, err
		}
		passEnv := strings.TrimSpace(em.PasswordEnv)
		if passEnv == "" {
			passEnv = "EMAIL_PASSWORD"
		}
		ch, err := notify.NewEmailChannel(notify.EmailOptions{
			Host:     em.Host,
			Port:     em.Port,
			From:     em.From,
			To:       em.To,
			Username: em.Username,
			Password: os.Getenv(passEnv),
			Timeout:  timeout,
		})
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	if tg := n.Telegram; tg != nil && tg.Enabled {
		if sender == nil {
			return nil, fmt.Errorf("notify.telegram enabled but transport not built")
		}
		channels = append(channels, notify.NewTelegramChannel(sender, tg.ChatID, log))
	}
	if len(channels) == 0 {
		return nil, nil
	}

	retryBase, err := config.ParseDurationField("notify.retry_base", n.RetryBase)
	if err != nil {
		return nil, err
	}
	retryMaxDelay, err := config.ParseDurationField("notify.retry_max_delay", n.RetryMaxDelay)
	if err != nil {
		return nil, err
	}
	return notify.NewDispatcher(channels, notify.DispatcherOptions{
		RetryMax:      n.RetryMax,
		RetryBase:     retryBase,
		RetryMaxDelay: retryMaxDelay,
	}, log.With(logx.String("comp", "notify"))), nil
}

// clockFrom pins "today" to the configured timezone. Due math truncates
// to calendar days, so the zone decides when a new day starts.
func clockFrom(cfg *config.Config) (func() time.Time, error) {
	tz := strings.TrimSpace(cfg.Schedule.Timezone)
	if tz == "" {
		return time.Now, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	return func() time.Time { return time.Now().In(loc) }, nil
}
