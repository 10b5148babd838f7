package config

import (
	"reflect"
	"sort"
	"strings"

	logx "samplewatch/pkg/logx"
)

// SummarizeChange returns (1) a compact list of changed sections and
// (2) safe structured attrs for logging. Secrets (tokens, passwords) are
// never included; only whether they are set.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	// Store (never log token material)
	if !reflect.DeepEqual(oldCfg.Store, newCfg.Store) {
		changed = append(changed, "store")
		attrs = append(attrs,
			logx.String("store.driver", strings.TrimSpace(newCfg.Store.Driver)),
			logx.Bool("store.spreadsheet_set", strings.TrimSpace(newCfg.Store.SpreadsheetID) != ""),
			logx.Bool("store.path_set", strings.TrimSpace(newCfg.Store.Path) != ""),
		)
	}

	// Schedule
	if !reflect.DeepEqual(oldCfg.Schedule, newCfg.Schedule) {
		changed = append(changed, "schedule")
		attrs = append(attrs,
			logx.Int("schedule.sheets", len(newCfg.Schedule.Sheets)),
			logx.Int("schedule.column_overrides", len(newCfg.Schedule.Columns)),
			logx.String("schedule.timezone", strings.TrimSpace(newCfg.Schedule.Timezone)),
		)
	}

	// History
	if !reflect.DeepEqual(oldCfg.History, newCfg.History) {
		changed = append(changed, "history")
		attrs = append(attrs, logx.String("history.sheet", strings.TrimSpace(newCfg.History.Sheet)))
	}

	// Summary
	if !reflect.DeepEqual(oldCfg.Summary, newCfg.Summary) {
		changed = append(changed, "summary")
		attrs = append(attrs, logx.Bool("summary.enabled", strings.TrimSpace(newCfg.Summary.Sheet) != ""))
	}

	// Notify (never log SMTP/bot credentials)
	if !notifyEqual(oldCfg.Notify, newCfg.Notify) {
		changed = append(changed, "notify")
		attrs = append(attrs,
			logx.Bool("notify.enabled", newCfg.Notify.Enabled),
			logx.Bool("notify.chart", newCfg.Notify.Chart),
			logx.Int("notify.due_soon_days", newCfg.Notify.DueSoonDays),
			logx.Bool("notify.email", newCfg.Notify.Email != nil && newCfg.Notify.Email.Enabled),
			logx.Bool("notify.telegram", newCfg.Notify.Telegram != nil && newCfg.Notify.Telegram.Enabled),
		)
	}

	// Daemon
	if !reflect.DeepEqual(oldCfg.Daemon, newCfg.Daemon) {
		changed = append(changed, "daemon")
		attrs = append(attrs,
			logx.String("daemon.schedule", strings.TrimSpace(newCfg.Daemon.Schedule)),
			logx.Bool("daemon.run_on_start", newCfg.Daemon.RunOnStart),
		)
	}

	// Web
	oWeb := derefWeb(oldCfg.Web)
	nWeb := derefWeb(newCfg.Web)
	if !reflect.DeepEqual(oWeb, nWeb) {
		changed = append(changed, "web")
		attrs = append(attrs,
			logx.Bool("web.enabled", nWeb.Enabled),
			logx.String("web.addr", strings.TrimSpace(nWeb.Addr)),
			logx.Bool("web.pprof", nWeb.Pprof),
		)
	}

	// Logging
	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.chat_enabled", newCfg.Logging.Chat.Enabled),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

func notifyEqual(o, n NotifyConfig) bool {
	oe := derefEmail(o.Email)
	ne := derefEmail(n.Email)
	ot := derefTelegram(o.Telegram)
	nt := derefTelegram(n.Telegram)
	o.Email, n.Email = nil, nil
	o.Telegram, n.Telegram = nil, nil
	return reflect.DeepEqual(o, n) && reflect.DeepEqual(oe, ne) && reflect.DeepEqual(ot, nt)
}

func derefEmail(e *EmailConfig) EmailConfig {
	if e == nil {
		return EmailConfig{}
	}
	return *e
}

func derefTelegram(t *TelegramConfig) TelegramConfig {
	if t == nil {
		return TelegramConfig{}
	}
	return *t
}

func derefWeb(w *WebConfig) WebConfig {
	if w == nil {
		return WebConfig{}
	}
	return *w
}
