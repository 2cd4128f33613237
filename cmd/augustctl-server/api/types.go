package api

import "time"

// Operation names recorded in the history.
const (
	OperationStatus = "status"
	OperationLock   = "lock"
	OperationUnlock = "unlock"
)

// Outcome values recorded in the history.
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Entry is one recorded lock operation.
type Entry struct {
	ID         string     `json:"id"`
	LockID     string     `json:"lock_id"`
	Operation  string     `json:"operation"`
	Outcome    string     `json:"outcome"`
	LockState  string     `json:"lock_state,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Duration   string     `json:"duration,omitempty"`
}

// HistoryResponse is the response for GET /api/v1/history.
type HistoryResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}
