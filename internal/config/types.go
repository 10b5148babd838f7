package config

// Config is the whole samplewatch configuration.
//
// The file may be JSON or YAML; both are decoded strictly, so unknown keys
// are rejected (typos fail at load time, not silently at 3am).
type Config struct {
	Store    StoreConfig    `json:"store"`
	Schedule ScheduleConfig `json:"schedule"`
	History  HistoryConfig  `json:"history"`
	Summary  SummaryConfig  `json:"summary,omitempty"`
	Notify   NotifyConfig   `json:"notify"`
	Daemon   DaemonConfig   `json:"daemon,omitempty"`
	Web      *WebConfig     `json:"web,omitempty"`
	Logging  LoggingConfig  `json:"logging"`
}

// StoreConfig selects and configures the row-table backend.
//
// Driver values:
//   - "sheets": Google Sheets spreadsheet (REST v4)
//   - "sqlite": local SQLite database file
//   - "memory": volatile in-memory store (dry runs, tests)
type StoreConfig struct {
	Driver string `json:"driver"`

	// sheets driver
	SpreadsheetID string  `json:"spreadsheet_id,omitempty"`
	TokenFile     string  `json:"token_file,omitempty"`
	TokenEnv      string  `json:"token_env,omitempty"` // default: SHEETS_TOKEN
	Endpoint      string  `json:"endpoint,omitempty"`  // override for tests
	RatePerSec    float64 `json:"rate_per_sec,omitempty"`
	RetryMax      int     `json:"retry_max,omitempty"`
	// RetryBase is a Go duration string (e.g. "2s").
	RetryBase string `json:"retry_base,omitempty"`
	Timeout   string `json:"timeout,omitempty"` // per-call HTTP timeout

	// sqlite driver
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

// SheetRef names one schedule sheet and its display label.
// The label tags items in notifications when several sheets are configured
// (e.g. one sheet per check type).
type SheetRef struct {
	Sheet string `json:"sheet"`
	Label string `json:"label,omitempty"`
}

type ScheduleConfig struct {
	Sheets []SheetRef `json:"sheets"`

	// Columns overrides header labels per field. Keys are the canonical
	// field names: area, product, line, attribute, frequency,
	// last_inspected, sample_id, next_due. Unknown keys are rejected.
	Columns map[string]string `json:"columns,omitempty"`

	// Timezone controls what "today" means for due math and when the
	// daemon trigger fires. Empty means the system local time.
	Timezone string `json:"timezone,omitempty"`
}

type HistoryConfig struct {
	Sheet string `json:"sheet"`
	// Grid size used when the sheet has to be created.
	Rows int `json:"rows,omitempty"`
	Cols int `json:"cols,omitempty"`
}

// SummaryConfig controls the derived status worksheet.
// An empty sheet name disables the rebuild.
type SummaryConfig struct {
	Sheet string `json:"sheet,omitempty"`
}

// NotifyConfig controls assembly and delivery of the due-items notification.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type NotifyConfig struct {
	Enabled bool `json:"enabled"`

	// DueSoonDays adds a "coming up" section for items due within N days.
	// 0 disables the section.
	DueSoonDays int `json:"due_soon_days,omitempty"`

	Chart   bool   `json:"chart"`
	Subject string `json:"subject,omitempty"`

	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`

	Email    *EmailConfig    `json:"email,omitempty"`
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

type EmailConfig struct {
	Enabled bool     `json:"enabled"`
	Host    string   `json:"host"`
	Port    int      `json:"port,omitempty"` // default 587
	From    string   `json:"from"`
	To      []string `json:"to"`

	Username string `json:"username,omitempty"`
	// PasswordEnv names the environment variable holding the SMTP password,
	// so the secret never lives in the config file. Default: EMAIL_PASSWORD.
	PasswordEnv string `json:"password_env,omitempty"`

	Timeout string `json:"timeout,omitempty"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  int64  `json:"chat_id"`

	// LogChatID receives mirrored WARN+ log lines when logging.chat is
	// enabled. 0 falls back to ChatID.
	LogChatID int64 `json:"log_chat_id,omitempty"`
}

// DaemonConfig controls long-running mode.
type DaemonConfig struct {
	// Schedule accepts a cron expression ("0 7 * * *", "@daily"), an
	// interval duration ("12h"), or HH:MM ("24:00").
	Schedule   string `json:"schedule,omitempty"`
	RunOnStart bool   `json:"run_on_start,omitempty"`
}

// WebConfig controls the daemon's status HTTP server.
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:9090").
type WebConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:9090"
	Pprof   bool   `json:"pprof,omitempty"`

	// Server timeouts (Go duration strings).
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Chat    LoggingChat `json:"chat"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingChat mirrors WARN+ lines to the Telegram chat configured under
// notify.telegram (log_chat_id or chat_id).
type LoggingChat struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}
