// Package rowtable provides the tabular storage layer the engine reads
// schedules from and writes history to.
//
// It currently supports:
//   - Google Sheets over the REST v4 API (production)
//   - SQLite database file (self-hosted)
//   - In-memory tables (tests, dry runs)
package rowtable
