package models

import (
	"time"

	"github.com/google/uuid"
)

// MRPRunStatus is the state of one planning run.
type MRPRunStatus string

const (
	RunStatusRunning   MRPRunStatus = "running"
	RunStatusCompleted MRPRunStatus = "completed"
	RunStatusFailed    MRPRunStatus = "failed"
)

// MRPRun records one invocation of the planning engine and its
// per-run statistics.
type MRPRun struct {
	ID                  uuid.UUID    `json:"id" db:"id"`
	TenantID            uuid.UUID    `json:"tenant_id" db:"tenant_id"`
	RunCode             string       `json:"run_code" db:"run_code"`
	Status              MRPRunStatus `json:"status" db:"status"`
	HorizonDays         int          `json:"horizon_days" db:"horizon_days"`
	StartedAt           time.Time    `json:"started_at" db:"started_at"`
	CompletedAt         *time.Time   `json:"completed_at" db:"completed_at"`
	MaterialsPlanned    int          `json:"materials_planned" db:"materials_planned"`
	MaterialsSkipped    int          `json:"materials_skipped" db:"materials_skipped"`
	RequirementsCreated int          `json:"requirements_created" db:"requirements_created"`
	ErrorMessage        *string      `json:"error_message" db:"error_message"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
}
