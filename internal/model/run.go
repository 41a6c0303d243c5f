package model

import "time"

// RunStatus represents the current state of a reconciliation run.
type RunStatus string

const (
	RunStatusIdle            RunStatus = "idle"
	RunStatusValidating      RunStatus = "validating"
	RunStatusIngestingGoogle RunStatus = "ingesting_google"
	RunStatusIngestingCRM    RunStatus = "ingesting_crm"
	RunStatusPostProcessing  RunStatus = "post_processing"
	RunStatusWriting         RunStatus = "writing"
	RunStatusDone            RunStatus = "done"
	RunStatusCancelled       RunStatus = "cancelled"
	RunStatusFailed          RunStatus = "failed"
)

// Terminal reports whether no further transitions can happen from s.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusDone, RunStatusCancelled, RunStatusFailed:
		return true
	default:
		return false
	}
}

// RunRequest captures the inputs of a run as recorded in the history store.
type RunRequest struct {
	CRMPath    string          `json:"crm_path,omitempty"`
	GooglePath string          `json:"google_path,omitempty"`
	OutDir     string          `json:"out_dir"`
	DryRun     bool            `json:"dry_run"`
	Overrides  ColumnOverrides `json:"overrides"`
}

// Run is a history entry for one pipeline execution.
type Run struct {
	ID        string     `json:"id"`
	Request   RunRequest `json:"request"`
	Status    RunStatus  `json:"status"`
	Report    *Report    `json:"report,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
