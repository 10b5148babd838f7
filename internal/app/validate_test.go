package app

import (
	"context"
	"strings"
	"testing"

	"samplewatch/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Driver: "memory"},
		Schedule: config.ScheduleConfig{
			Sheets: []config.SheetRef{{Sheet: "Schedule"}},
		},
		History: config.HistoryConfig{Sheet: "History"},
	}
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	t.Parallel()
	if err := Validate(context.Background(), validConfig()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantSub string
	}{
		{
			name:    "no driver",
			mutate:  func(c *config.Config) { c.Store.Driver = "" },
			wantSub: "store.driver",
		},
		{
			name:    "sheets without spreadsheet id",
			mutate:  func(c *config.Config) { c.Store.Driver = "sheets" },
			wantSub: "spreadsheet_id",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *config.Config) { c.Store.Driver = "sqlite" },
			wantSub: "store.path",
		},
		{
			name:    "no schedule sheets",
			mutate:  func(c *config.Config) { c.Schedule.Sheets = nil },
			wantSub: "schedule.sheets",
		},
		{
			name: "unknown column key",
			mutate: func(c *config.Config) {
				c.Schedule.Columns = map[string]string{"flavor": "Flavor"}
			},
			wantSub: "unknown field",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *config.Config) { c.Schedule.Timezone = "Mars/Olympus" },
			wantSub: "timezone",
		},
		{
			name:    "no history sheet",
			mutate:  func(c *config.Config) { c.History.Sheet = "" },
			wantSub: "history.sheet",
		},
		{
			name: "email without recipients",
			mutate: func(c *config.Config) {
				c.Notify.Enabled = true
				c.Notify.Email = &config.EmailConfig{
					Enabled: true, Host: "smtp.example.com", From: "qa@example.com",
				}
			},
			wantSub: "notify.email.to",
		},
		{
			name: "telegram without chat id",
			mutate: func(c *config.Config) {
				c.Notify.Enabled = true
				c.Notify.Telegram = &config.TelegramConfig{Enabled: true, Token: "t"}
			},
			wantSub: "chat_id",
		},
		{
			name:    "bad daemon schedule",
			mutate:  func(c *config.Config) { c.Daemon.Schedule = "whenever" },
			wantSub: "daemon.schedule",
		},
		{
			name: "bad web timeout",
			mutate: func(c *config.Config) {
				c.Web = &config.WebConfig{Enabled: true, ReadTimeout: "soon"}
			},
			wantSub: "web.read_timeout",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(context.Background(), cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}
