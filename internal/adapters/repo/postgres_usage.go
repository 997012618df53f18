package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/infra/metrics"
)

// GetDaily implements domain.UsageStore. Absent days come back
// zero-valued without creating a row.
func (p *Postgres) GetDaily(ctx context.Context, accountID, date string) (domain.DailyUsage, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rec := domain.DailyUsage{AccountID: accountID, Date: date}
	var counts []byte
	err := p.pool.QueryRow(ctx, `
SELECT counts, connections_accepted, acceptance_rate, pending_invitations
FROM daily_usage WHERE account_id = $1 AND day = $2
`, accountID, date).Scan(&counts, &rec.ConnectionsAccepted, &rec.AcceptanceRate, &rec.PendingInvitations)
	metrics.ObserveStoreRequest("postgres", "daily_get", start, err)
	if err != nil {
		if isNoRows(err) {
			return rec, nil
		}
		return domain.DailyUsage{}, fmt.Errorf("select daily usage: %w", err)
	}
	if err := json.Unmarshal(counts, &rec.Counts); err != nil {
		return domain.DailyUsage{}, fmt.Errorf("decode counts: %w", err)
	}
	return rec, nil
}

// GetWeekly implements domain.UsageStore.
func (p *Postgres) GetWeekly(ctx context.Context, accountID, weekStart string) (domain.WeeklyUsage, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rec := domain.WeeklyUsage{AccountID: accountID, WeekStart: weekStart}
	err := p.pool.QueryRow(ctx, `
SELECT connection_requests, messages
FROM weekly_usage WHERE account_id = $1 AND week_start = $2
`, accountID, weekStart).Scan(&rec.ConnectionRequests, &rec.Messages)
	metrics.ObserveStoreRequest("postgres", "weekly_get", start, err)
	if err != nil {
		if isNoRows(err) {
			return rec, nil
		}
		return domain.WeeklyUsage{}, fmt.Errorf("select weekly usage: %w", err)
	}
	return rec, nil
}

// MutateDaily implements domain.UsageStore. The row lock taken by
// SELECT ... FOR UPDATE is the per-account exclusive section that keeps
// concurrent outcome reports from losing increments.
func (p *Postgres) MutateDaily(ctx context.Context, accountID, date string, mutate func(*domain.DailyUsage)) (domain.DailyUsage, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.DailyUsage{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO daily_usage (account_id, day, counts, connections_accepted, acceptance_rate, pending_invitations)
VALUES ($1, $2, '{}'::jsonb, 0, 0, 0)
ON CONFLICT (account_id, day) DO NOTHING
`, accountID, date); err != nil {
		return domain.DailyUsage{}, fmt.Errorf("ensure daily row: %w", err)
	}

	rec := domain.DailyUsage{AccountID: accountID, Date: date}
	var counts []byte
	if err := tx.QueryRow(ctx, `
SELECT counts, connections_accepted, acceptance_rate, pending_invitations
FROM daily_usage WHERE account_id = $1 AND day = $2 FOR UPDATE
`, accountID, date).Scan(&counts, &rec.ConnectionsAccepted, &rec.AcceptanceRate, &rec.PendingInvitations); err != nil {
		return domain.DailyUsage{}, fmt.Errorf("lock daily row: %w", err)
	}
	if err := json.Unmarshal(counts, &rec.Counts); err != nil {
		return domain.DailyUsage{}, fmt.Errorf("decode counts: %w", err)
	}

	mutate(&rec)

	encoded, err := json.Marshal(rec.Counts)
	if err != nil {
		return domain.DailyUsage{}, fmt.Errorf("encode counts: %w", err)
	}
	if _, err := tx.Exec(ctx, `
UPDATE daily_usage
SET counts = $3, connections_accepted = $4, acceptance_rate = $5, pending_invitations = $6
WHERE account_id = $1 AND day = $2
`, accountID, date, encoded, rec.ConnectionsAccepted, rec.AcceptanceRate, rec.PendingInvitations); err != nil {
		return domain.DailyUsage{}, fmt.Errorf("update daily row: %w", err)
	}

	err = tx.Commit(ctx)
	metrics.ObserveStoreRequest("postgres", "daily_mutate", start, err)
	if err != nil {
		return domain.DailyUsage{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// MutateWeekly implements domain.UsageStore.
func (p *Postgres) MutateWeekly(ctx context.Context, accountID, weekStart string, mutate func(*domain.WeeklyUsage)) (domain.WeeklyUsage, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.WeeklyUsage{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO weekly_usage (account_id, week_start, connection_requests, messages)
VALUES ($1, $2, 0, 0)
ON CONFLICT (account_id, week_start) DO NOTHING
`, accountID, weekStart); err != nil {
		return domain.WeeklyUsage{}, fmt.Errorf("ensure weekly row: %w", err)
	}

	rec := domain.WeeklyUsage{AccountID: accountID, WeekStart: weekStart}
	if err := tx.QueryRow(ctx, `
SELECT connection_requests, messages
FROM weekly_usage WHERE account_id = $1 AND week_start = $2 FOR UPDATE
`, accountID, weekStart).Scan(&rec.ConnectionRequests, &rec.Messages); err != nil {
		return domain.WeeklyUsage{}, fmt.Errorf("lock weekly row: %w", err)
	}

	mutate(&rec)

	if _, err := tx.Exec(ctx, `
UPDATE weekly_usage SET connection_requests = $3, messages = $4
WHERE account_id = $1 AND week_start = $2
`, accountID, weekStart, rec.ConnectionRequests, rec.Messages); err != nil {
		return domain.WeeklyUsage{}, fmt.Errorf("update weekly row: %w", err)
	}

	err = tx.Commit(ctx)
	metrics.ObserveStoreRequest("postgres", "weekly_mutate", start, err)
	if err != nil {
		return domain.WeeklyUsage{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}
