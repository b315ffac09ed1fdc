package models

// Recompute run status constants
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Recompute run sources
const (
	RunSourceScheduler = "scheduler"
	RunSourceAdmin     = "admin"
)

// RecomputeRun records one batch recompute pass.
type RecomputeRun struct {
	ID               int64  `json:"id" db:"id"`
	Source           string `json:"source" db:"source"`
	OnlyUnpositioned bool   `json:"only_unpositioned" db:"only_unpositioned"`
	Status           string `json:"status" db:"status"`
	Total            int    `json:"total" db:"total"`
	Updated          int    `json:"updated" db:"updated"`
	Skipped          int    `json:"skipped" db:"skipped"`
	Failed           int    `json:"failed" db:"failed"`
	ErrorMessage     string `json:"error_message,omitempty" db:"error_message"`
	StartedAt        *int64 `json:"started_at,omitempty" db:"started_at"`
	CompletedAt      *int64 `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt        int64  `json:"created_at" db:"created_at"`
}

// RecomputeRequest is the body of POST /api/v1/admin/recalculate.
type RecomputeRequest struct {
	OnlyUnpositioned bool `json:"only_unpositioned"`
}
