package model

import (
	"fmt"
	"time"
)

// Run status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

// ContainerRef identifies a folder-equivalent in the remote store.
type ContainerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UploadRecord is an audit entry for one uploaded payslip.
type UploadRecord struct {
	Identifier string    `json:"identifier"`
	Filename   string    `json:"filename"`
	RemoteID   string    `json:"remote_id"`
	Link       string    `json:"link"`
	Timestamp  time.Time `json:"timestamp"`
}

// RunSummary holds the aggregate counters of a run.
type RunSummary struct {
	Total    int `json:"total"`
	Uploaded int `json:"uploaded"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// Balanced reports whether every row was accounted for exactly once.
func (s RunSummary) Balanced() bool {
	return s.Uploaded+s.Failed+s.Skipped == s.Total
}

// RunEvent is a timestamped, human-readable activity log line.
type RunEvent struct {
	Time       time.Time `json:"time"`
	Level      string    `json:"level"`
	Identifier string    `json:"identifier,omitempty"`
	Message    string    `json:"message"`
}

func (e RunEvent) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}

// DistributionRun is the state of one end-to-end distribution.
type DistributionRun struct {
	ID          string          `json:"id"`
	Owner       string          `json:"owner,omitempty"`
	Period      string          `json:"period"`
	Document    string          `json:"document,omitempty"`
	Container   ContainerRef    `json:"container"`
	Status      string          `json:"status"`
	Pages       int             `json:"pages_with_identifier"`
	Records     []*RosterRecord `json:"-"`
	History     []UploadRecord  `json:"history"`
	Summary     RunSummary      `json:"summary"`
	Report      *Report         `json:"report,omitempty"`
	Events      []RunEvent      `json:"events"`
	ErrorMsg    string          `json:"error_msg,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt time.Time       `json:"completed_at,omitempty"`
}
