package stores

import "time"

// RunStatus represents the status of one recorded invocation.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded lxstack invocation.
type Run struct {
	ID         string     `json:"id"`
	Command    string     `json:"command"`
	Key        string     `json:"key"`
	Status     RunStatus  `json:"status"`
	Error      *string    `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
