package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"

	"samplewatch/internal/config"
	"samplewatch/internal/run"
	rtsup "samplewatch/internal/runtime/supervisor"
	"samplewatch/internal/trigger"
	"samplewatch/internal/web"
	logx "samplewatch/pkg/logx"
)

// Daemon runs until ctx is cancelled: runs fire on the configured
// trigger, the config file is watched for hot reloads, and the optional
// web server exposes health, metrics and the last report.
func (a *App) Daemon(ctx context.Context, registry *prometheus.Registry) error {
	cfg := a.cfgm.Get()
	if strings.TrimSpace(cfg.Daemon.Schedule) == "" {
		return fmt.Errorf("daemon.schedule is required in daemon mode")
	}

	var (
		lastMu sync.RWMutex
		last   *run.Report
	)
	fire := func(fctx context.Context) {
		rep, err := a.ctrl.TryRun(fctx)
		if err != nil {
			// A trigger that lands mid-run is skipped, never queued.
			a.log.Warn("trigger skipped", logx.Err(err))
			return
		}
		lastMu.Lock()
		last = rep
		lastMu.Unlock()
	}

	trig, err := trigger.New(trigger.Config{
		Schedule:   cfg.Daemon.Schedule,
		Timezone:   cfg.Schedule.Timezone,
		RunOnStart: cfg.Daemon.RunOnStart,
	}, fire, a.log.With(logx.String("comp", "trigger")))
	if err != nil {
		return err
	}

	sup := rtsup.NewSupervisor(ctx,
		rtsup.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		rtsup.WithCancelOnError(true),
	)

	sup.Go("trigger", trig.Run)
	sup.Go0("config.watch", func(c context.Context) {
		_ = a.cfgm.Watch(c)
	})
	sup.Go0("config.fanout", func(c context.Context) {
		a.fanoutReloads(c, trig)
	})
	sup.Go0("events", func(c context.Context) {
		ev, unsub := a.bus.Subscribe(16)
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-ev:
				if !ok {
					return
				}
				a.log.Debug("run event", logx.String("event", e.Type), logx.Any("run", e.Data))
			}
		}
	})

	if w := cfg.Web; w != nil && w.Enabled {
		srv, err := a.buildWebServer(cfg, registry, func() any {
			lastMu.RLock()
			defer lastMu.RUnlock()
			return struct {
				LastRun *run.Report              `json:"last_run"`
				Sup     rtsup.SupervisorSnapshot `json:"supervisor"`
			}{last, sup.Snapshot()}
		})
		if err != nil {
			sup.Cancel()
			return err
		}
		sup.Go("web", srv.Run)
	}

	// systemd integration is a no-op outside a systemd unit.
	_, _ = sd.SdNotify(false, sd.SdNotifyReady)
	if interval, err := sd.SdWatchdogEnabled(false); err == nil && interval > 0 {
		sup.Go0("watchdog", func(c context.Context) {
			t := time.NewTicker(interval / 2)
			defer t.Stop()
			for {
				select {
				case <-c.Done():
					return
				case <-t.C:
					_, _ = sd.SdNotify(false, sd.SdNotifyWatchdog)
				}
			}
		})
	}

	a.log.Info("daemon started", logx.String("schedule", cfg.Daemon.Schedule))
	<-sup.Context().Done()
	_, _ = sd.SdNotify(false, sd.SdNotifyStopping)

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sup.Wait(waitCtx); err != nil {
		a.log.Warn("shutdown incomplete", logx.Err(err))
	}
	return sup.Err()
}

func (a *App) buildWebServer(cfg *config.Config, registry *prometheus.Registry, status web.StatusSource) (*web.Server, error) {
	w := cfg.Web
	readT, err := config.ParseDurationField("web.read_timeout", w.ReadTimeout)
	if err != nil {
		return nil, err
	}
	writeT, err := config.ParseDurationField("web.write_timeout", w.WriteTimeout)
	if err != nil {
		return nil, err
	}
	idleT, err := config.ParseDurationField("web.idle_timeout", w.IdleTimeout)
	if err != nil {
		return nil, err
	}
	var gatherer prometheus.Gatherer
	if registry != nil {
		gatherer = registry
	}
	return web.New(web.Options{
		Addr:         w.Addr,
		Pprof:        w.Pprof,
		ReadTimeout:  readT,
		WriteTimeout: writeT,
		IdleTimeout:  idleT,
		Gatherer:     gatherer,
		Status:       status,
		Log:          a.log.With(logx.String("comp", "web")),
	}), nil
}

// fanoutReloads applies validated config updates to the live services.
// Store driver changes need a restart; everything else hot-swaps.
func (a *App) fanoutReloads(ctx context.Context, trig *trigger.Service) {
	sub := a.cfgm.Subscribe(4)
	defer a.cfgm.Unsubscribe(sub)

	prev := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok || cfg == nil {
				return
			}
			changed, attrs := config.SummarizeChange(prev, cfg)
			a.log.Info("config reloaded", append([]logx.Field{
				logx.String("sections", strings.Join(changed, ",")),
			}, attrs...)...)

			a.logs.Apply(logConfigFrom(cfg))
			if tg := cfg.Notify.Telegram; tg != nil && tg.Enabled {
				chatID := tg.LogChatID
				if chatID == 0 {
					chatID = tg.ChatID
				}
				a.logs.SetChatTarget(chatID)
			}

			if err := a.ctrl.Apply(controllerOptionsFrom(cfg)); err != nil {
				a.log.Warn("run options not applied", logx.Err(err))
			}
			dispatcher, err := dispatcherFrom(cfg, a.sender, a.log)
			if err != nil {
				a.log.Warn("notification channels not applied", logx.Err(err))
			} else {
				a.ctrl.SetDispatcher(dispatcher)
			}

			if err := trig.Apply(trigger.Config{
				Schedule:   cfg.Daemon.Schedule,
				Timezone:   cfg.Schedule.Timezone,
				RunOnStart: false,
			}); err != nil {
				a.log.Warn("trigger schedule not applied", logx.Err(err))
			}

			if prev != nil && prev.Store != cfg.Store {
				a.log.Warn("store config changed; restart required to take effect")
			}
			prev = cfg
		}
	}
}
