package run

import (
	"time"

	"samplewatch/internal/notify"
)

// State is the run position in the step sequence. Failed is terminal
// and reachable from any active state; the state at failure time tells
// which steps completed.
type State int

const (
	StateStart State = iota
	StateScheduleUpdated
	StateHistoryReconciled
	StateNotified
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateScheduleUpdated:
		return "schedule_updated"
	case StateHistoryReconciled:
		return "history_reconciled"
	case StateNotified:
		return "notified"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// SheetReport summarizes one schedule sheet sweep.
type SheetReport struct {
	Sheet    string `json:"sheet"`
	Label    string `json:"label,omitempty"`
	Rows     int    `json:"rows"`
	Computed int    `json:"computed"`
	Skipped  int    `json:"skipped"`
	Due      int    `json:"due"`
}

// StepDuration is the wall time one step took.
type StepDuration struct {
	Step     string        `json:"step"`
	Duration time.Duration `json:"duration"`
}

// Report is the full account of one run.
type Report struct {
	ID       string    `json:"id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	State    State     `json:"state"`

	Sheets []SheetReport `json:"sheets,omitempty"`

	RowsComputed    int `json:"rows_computed"`
	RowsSkipped     int `json:"rows_skipped"`
	RowsDue         int `json:"rows_due"`
	HistoryAppended int `json:"history_appended"`

	// NotificationSent is true when at least one channel delivered.
	NotificationSent bool             `json:"notification_sent"`
	Notification     []notify.Outcome `json:"notification,omitempty"`

	// Degradations lists non-fatal problems: summary rebuild failures,
	// chart render failures, channel delivery failures. A degraded run
	// is still a successful run.
	Degradations []string `json:"degradations,omitempty"`

	Steps []StepDuration `json:"steps,omitempty"`

	Err string `json:"err,omitempty"`
}

// OK reports whether both data steps completed.
func (r *Report) OK() bool {
	return r.State == StateDone
}

func (r *Report) addStep(step string, since time.Time, now time.Time) {
	r.Steps = append(r.Steps, StepDuration{Step: step, Duration: now.Sub(since)})
}
