package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "config.json", `{
		"store": {"driver": "memory"},
		"schedule": {"sheets": [{"sheet": "Sampling Plan", "label": "Physical"}], "timezone": "Asia/Ho_Chi_Minh"},
		"history": {"sheet": "Sample History"},
		"notify": {"enabled": true, "chart": true},
		"logging": {"level": "DEBUG", "console": true, "file": {"enabled": false, "path": ""}, "chat": {"enabled": false, "min_level": "", "rate_per_sec": 0}}
	}`)

	m := NewConfigManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("driver = %q, want memory", cfg.Store.Driver)
	}
	if len(cfg.Schedule.Sheets) != 1 || cfg.Schedule.Sheets[0].Sheet != "Sampling Plan" {
		t.Errorf("sheets = %+v", cfg.Schedule.Sheets)
	}
	if got := m.Get(); got != cfg {
		t.Errorf("Get returned a different pointer than Load")
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "config.yaml", strings.Join([]string{
		"store:",
		"  driver: sqlite",
		"  path: ./data/plan.db",
		"schedule:",
		"  sheets:",
		"    - sheet: Sampling Plan",
		"  columns:",
		"    area: Zone",
		"history:",
		"  sheet: Sample History",
		"notify:",
		"  enabled: false",
		"  chart: false",
		"logging:",
		"  level: INFO",
		"  console: true",
		"  file: {enabled: false, path: \"\"}",
		"  chat: {enabled: false, min_level: \"\", rate_per_sec: 0}",
	}, "\n"))

	cfg, err := NewConfigManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Path != "./data/plan.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Schedule.Columns["area"] != "Zone" {
		t.Errorf("columns = %+v", cfg.Schedule.Columns)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		file string
		body string
	}{
		{
			name: "top level json",
			file: "config.json",
			body: `{"store": {"driver": "memory"}, "scheduel": {}}`,
		},
		{
			name: "nested yaml",
			file: "config.yaml",
			body: "store:\n  driver: memory\n  sheet_id: abc\n",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, tc.file, tc.body)
			if _, err := NewConfigManager(path).Load(); err == nil {
				t.Fatalf("Load accepted unknown field")
			}
		})
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "config.json", `{"store": {"driver": "memory"}}{"extra": 1}`)
	if _, err := NewConfigManager(path).Load(); err == nil {
		t.Fatalf("Load accepted trailing data")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"  ", 0, false},
		{"500ms", 500 * time.Millisecond, false},
		{"2m30s", 2*time.Minute + 30*time.Second, false},
		{"-1s", 0, true},
		{"soon", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseDurationField("notify.retry_base", tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDurationField(%q): want error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDurationField(%q): %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDurationField(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()

	oldCfg := &Config{
		Store:   StoreConfig{Driver: "memory"},
		Logging: LoggingConfig{Level: "INFO", Console: true},
	}
	newCfg := &Config{
		Store:   StoreConfig{Driver: "sqlite", Path: "./plan.db"},
		Logging: LoggingConfig{Level: "DEBUG", Console: true},
	}

	changed, _ := SummarizeChange(oldCfg, newCfg)
	want := []string{"logging", "store"}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Fatalf("changed = %v, want %v", changed, want)
		}
	}

	changed, _ = SummarizeChange(newCfg, newCfg)
	if len(changed) != 0 {
		t.Errorf("no-op change reported sections: %v", changed)
	}
}
