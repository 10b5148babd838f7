package rowtable

import (
	"errors"
	logx "samplewatch/pkg/logx"
	"strings"
)

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		return nil, errors.New("store.driver is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sheets":
		return openSheets(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New("unknown store driver: " + driver)
	}
}
