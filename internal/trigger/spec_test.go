package trigger

import (
	"context"
	"testing"
	"time"

	logx "samplewatch/pkg/logx"
)

func TestParseScheduleVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		raw      string
		kind     SpecKind
		source   string
		duration time.Duration
	}{
		{name: "cron", raw: "0 7 * * *", kind: SpecCron, source: "cron"},
		{name: "descriptor", raw: "@daily", kind: SpecCron, source: "cron"},
		{name: "prefixed cron", raw: "cron:0 0 * * *", kind: SpecCron, source: "cron"},
		{name: "duration", raw: "12h", kind: SpecInterval, source: "duration", duration: 12 * time.Hour},
		{name: "prefixed interval", raw: "interval:45m", kind: SpecInterval, source: "duration", duration: 45 * time.Minute},
		{name: "hhmm", raw: "02:30", kind: SpecInterval, source: "hhmm", duration: 150 * time.Minute},
		{name: "daily hhmm", raw: "24:00", kind: SpecInterval, source: "hhmm", duration: 24 * time.Hour},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule(tt.raw)
			if err != nil {
				t.Fatalf("ParseSchedule(%q) error: %v", tt.raw, err)
			}
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.Source != tt.source {
				t.Fatalf("Source = %s, want %s", got.Source, tt.source)
			}
			if tt.kind == SpecInterval && got.Every != tt.duration {
				t.Fatalf("Every = %v, want %v", got.Every, tt.duration)
			}
		})
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "0s", "01:99"} {
		if _, err := ParseSchedule(raw); err == nil {
			t.Fatalf("ParseSchedule(%q): expected error", raw)
		}
	}
}

func TestNewRejectsBadCron(t *testing.T) {
	t.Parallel()
	_, err := New(Config{Schedule: "61 * * * * * *"}, func(context.Context) {}, logx.Nop())
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestNewRejectsBadTimezone(t *testing.T) {
	t.Parallel()
	_, err := New(Config{Schedule: "12h", Timezone: "Mars/Olympus"}, func(context.Context) {}, logx.Nop())
	if err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
