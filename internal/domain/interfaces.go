package domain

import (
	"context"
	"errors"
	"time"
)

// ErrProfileNotFound is returned when an account has no safety profile.
var ErrProfileNotFound = errors.New("safety profile not found")

// ErrVariantSetNotFound is returned for an unknown variant set ID.
var ErrVariantSetNotFound = errors.New("variant set not found")

// ErrVariantIndexOutOfRange is returned for an outcome report on a
// variant index the set does not have.
var ErrVariantIndexOutOfRange = errors.New("variant index out of range")

// ProfileRepo manages account safety profiles.
type ProfileRepo interface {
	Get(ctx context.Context, accountID string) (AccountSafetyProfile, error)
	Put(ctx context.Context, profile AccountSafetyProfile) error
	ListActive(ctx context.Context, workspaceID string) ([]AccountSafetyProfile, error)
	Deactivate(ctx context.Context, accountID string) error
}

// UsageStore holds the day- and week-bucketed counters. Reads of absent
// buckets return zero-valued records without creating them. Mutations
// run the callback inside a per-account exclusive section so concurrent
// increments cannot lose updates.
type UsageStore interface {
	GetDaily(ctx context.Context, accountID, date string) (DailyUsage, error)
	GetWeekly(ctx context.Context, accountID, weekStart string) (WeeklyUsage, error)
	MutateDaily(ctx context.Context, accountID, date string, mutate func(*DailyUsage)) (DailyUsage, error)
	MutateWeekly(ctx context.Context, accountID, weekStart string, mutate func(*WeeklyUsage)) (WeeklyUsage, error)
}

// VariantRepo stores message variant sets and their outcome counters.
type VariantRepo interface {
	CreateSet(ctx context.Context, set MessageVariantSet) error
	GetSet(ctx context.Context, setID string) (MessageVariantSet, error)
	MutateSet(ctx context.Context, setID string, mutate func(*MessageVariantSet) error) (MessageVariantSet, error)
}

// TaskRepo supplies pending outreach tasks and records pass results.
type TaskRepo interface {
	ListWorkspaces(ctx context.Context) ([]string, error)
	ListPending(ctx context.Context, workspaceID string, limit int) ([]OutreachTask, error)
	SetStatus(ctx context.Context, taskID string, status TaskStatus, accountID string) error
}

// ActionLog records dispatched actions for diagnostics. Implementations
// are bounded; old entries fall off. Not a system of record.
type ActionLog interface {
	Append(entry ActionLogEntry)
	Recent(limit int) []ActionLogEntry
}

// PassLock serializes distribution passes over a shared workspace.
type PassLock interface {
	// Acquire returns false when another pass already holds the lock.
	Acquire(ctx context.Context, workspaceID string, ttl time.Duration) (release func(), ok bool, err error)
}
