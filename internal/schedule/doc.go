// Package schedule holds the due-date engine: date parsing, header
// resolution, per-row computation and the sheet sweep that writes
// refreshed next-due dates back to the store.
package schedule
