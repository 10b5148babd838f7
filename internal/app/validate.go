package app

import (
	"context"
	"fmt"
	"strings"

	"samplewatch/internal/config"
	"samplewatch/internal/trigger"
)

// Validate is the transactional validation hook: New runs it on the
// initial load and the config watcher runs it before committing a
// reload, so a bad edit never replaces a working config.
func Validate(_ context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch driver {
	case "":
		return fmt.Errorf("store.driver is required")
	case "sheets":
		if strings.TrimSpace(cfg.Store.SpreadsheetID) == "" {
			return fmt.Errorf("store.spreadsheet_id is required for the sheets driver")
		}
	case "sqlite", "sqlite3":
		if strings.TrimSpace(cfg.Store.Path) == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store.driver %q", cfg.Store.Driver)
	}
	for _, field := range []struct{ path, raw string }{
		{"store.retry_base", cfg.Store.RetryBase},
		{"store.timeout", cfg.Store.Timeout},
		{"store.busy_timeout", cfg.Store.BusyTimeout},
	} {
		if _, err := config.ParseDurationField(field.path, field.raw); err != nil {
			return err
		}
	}

	if len(cfg.Schedule.Sheets) == 0 {
		return fmt.Errorf("schedule.sheets must list at least one sheet")
	}
	for i, ref := range cfg.Schedule.Sheets {
		if strings.TrimSpace(ref.Sheet) == "" {
			return fmt.Errorf("schedule.sheets[%d].sheet is required", i)
		}
	}
	for key := range cfg.Schedule.Columns {
		if !knownColumnKey(key) {
			return fmt.Errorf("schedule.columns: unknown field %q", key)
		}
	}
	if tz := strings.TrimSpace(cfg.Schedule.Timezone); tz != "" {
		if _, err := clockFrom(cfg); err != nil {
			return err
		}
	}

	if strings.TrimSpace(cfg.History.Sheet) == "" {
		return fmt.Errorf("history.sheet is required")
	}

	if cfg.Notify.Enabled {
		if em := cfg.Notify.Email; em != nil && em.Enabled {
			if strings.TrimSpace(em.Host) == "" {
				return fmt.Errorf("notify.email.host is required")
			}
			if strings.TrimSpace(em.From) == "" {
				return fmt.Errorf("notify.email.from is required")
			}
			if len(em.To) == 0 {
				return fmt.Errorf("notify.email.to must list at least one recipient")
			}
			if _, err := config.ParseDurationField("notify.email.timeout", em.Timeout); err != nil {
				return err
			}
		}
		if tg := cfg.Notify.Telegram; tg != nil && tg.Enabled {
			if strings.TrimSpace(tg.Token) == "" {
				return fmt.Errorf("notify.telegram.token is required")
			}
			if tg.ChatID == 0 {
				return fmt.Errorf("notify.telegram.chat_id is required")
			}
		}
		for _, field := range []struct{ path, raw string }{
			{"notify.retry_base", cfg.Notify.RetryBase},
			{"notify.retry_max_delay", cfg.Notify.RetryMaxDelay},
		} {
			if _, err := config.ParseDurationField(field.path, field.raw); err != nil {
				return err
			}
		}
		if cfg.Notify.DueSoonDays < 0 {
			return fmt.Errorf("notify.due_soon_days must be >= 0")
		}
	}

	if s := strings.TrimSpace(cfg.Daemon.Schedule); s != "" {
		if _, err := trigger.ParseSchedule(s); err != nil {
			return fmt.Errorf("daemon.schedule: %w", err)
		}
	}
	if w := cfg.Web; w != nil && w.Enabled {
		for _, field := range []struct{ path, raw string }{
			{"web.read_timeout", w.ReadTimeout},
			{"web.write_timeout", w.WriteTimeout},
			{"web.idle_timeout", w.IdleTimeout},
		} {
			if _, err := config.ParseDurationField(field.path, field.raw); err != nil {
				return err
			}
		}
	}
	return nil
}

func knownColumnKey(key string) bool {
	switch key {
	case "area", "product", "line", "attribute", "frequency",
		"last_inspected", "sample_id", "next_due":
		return true
	}
	return false
}
