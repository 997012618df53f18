package domain

import (
	"context"
	"time"
)

// AssignmentJob is one dispatched unit handed to the execution driver.
// Wait and BatchBreak carry the pacing advice computed at assignment
// time; honoring them is the driver's responsibility.
type AssignmentJob struct {
	ID           string       `json:"job_id"`
	PassID       string       `json:"pass_id"`
	WorkspaceID  string       `json:"workspace_id"`
	AccountID    string       `json:"account_id"`
	Task         OutreachTask `json:"task"`
	WaitSeconds  int          `json:"wait_seconds"`
	Humanized    bool         `json:"humanized"`
	BreakSeconds int          `json:"break_seconds,omitempty"`
	EnqueuedAt   time.Time    `json:"enqueued_at"`
}

// OutcomeEvent is the execution driver's report after performing (or
// failing to perform) one assignment.
type OutcomeEvent struct {
	JobID              string         `json:"job_id"`
	AccountID          string         `json:"account_id"`
	Action             ActionType     `json:"action"`
	TargetID           string         `json:"target_id"`
	Success            bool           `json:"success"`
	Error              string         `json:"error,omitempty"`
	ConnectionAccepted bool           `json:"connection_accepted,omitempty"`
	PendingInvitations *int           `json:"pending_invitations,omitempty"`
	VariantSetID       string         `json:"variant_set_id,omitempty"`
	VariantIndex       int            `json:"variant_index,omitempty"`
	VariantOutcome     VariantOutcome `json:"variant_outcome,omitempty"`
	OccurredAt         time.Time      `json:"occurred_at"`
}

// AssignmentQueue carries assignment jobs to the execution driver.
type AssignmentQueue interface {
	Enqueue(ctx context.Context, job AssignmentJob) error
	Pop(ctx context.Context) (AssignmentJob, error)
}

// OutcomeAckFunc confirms processing of an outcome event, or requests
// redelivery when success is false.
type OutcomeAckFunc func(success bool) error

// OutcomeQueue carries outcome events back from the execution driver.
type OutcomeQueue interface {
	Publish(ctx context.Context, event OutcomeEvent) error
	Receive(ctx context.Context) (OutcomeEvent, OutcomeAckFunc, error)
}
