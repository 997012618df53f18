// Package repo implements the engine's store interfaces over Postgres.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/infra/metrics"
)

// Postgres implements ProfileRepo, UsageStore, VariantRepo and TaskRepo
// on one pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ProfileRepo = (*Postgres)(nil)
	_ domain.UsageStore  = (*Postgres)(nil)
	_ domain.VariantRepo = (*Postgres)(nil)
	_ domain.TaskRepo    = (*Postgres)(nil)
)

// NewPostgres creates the adapter.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if _, ok := parent.Deadline(); ok {
		return parent, func() {}
	}
	return context.WithTimeout(parent, 5*time.Second)
}

// profileRow is the JSONB shape of the structured profile columns.
type profileRow struct {
	Daily  domain.DailyCeilings  `json:"daily"`
	Weekly domain.WeeklyCeilings `json:"weekly"`
	Delay  domain.DelayConfig    `json:"delay"`
	Hours  domain.WorkingHours   `json:"hours"`
}

// Get implements domain.ProfileRepo.
func (p *Postgres) Get(ctx context.Context, accountID string) (domain.AccountSafetyProfile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	var (
		profile domain.AccountSafetyProfile
		limits  []byte
	)
	err := p.pool.QueryRow(ctx, `
SELECT account_id, workspace_id, tier, active, has_live_session, limits,
       warmup_enabled, warmup_started_at, min_acceptance_rate,
       pending_invitation_ceiling, timezone, created_at, updated_at
FROM safety_profiles WHERE account_id = $1
`, accountID).Scan(
		&profile.AccountID, &profile.WorkspaceID, &profile.Tier,
		&profile.Active, &profile.HasLiveSession, &limits,
		&profile.WarmUpEnabled, &profile.WarmUpStartedAt,
		&profile.MinAcceptanceRate, &profile.PendingInvitationCeiling,
		&profile.Timezone, &profile.CreatedAt, &profile.UpdatedAt,
	)
	metrics.ObserveStoreRequest("postgres", "profile_get", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AccountSafetyProfile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.AccountSafetyProfile{}, fmt.Errorf("select profile: %w", err)
	}
	var row profileRow
	if err := json.Unmarshal(limits, &row); err != nil {
		return domain.AccountSafetyProfile{}, fmt.Errorf("decode limits: %w", err)
	}
	profile.Daily, profile.Weekly, profile.Delay, profile.Hours = row.Daily, row.Weekly, row.Delay, row.Hours
	return profile, nil
}

// Put implements domain.ProfileRepo.
func (p *Postgres) Put(ctx context.Context, profile domain.AccountSafetyProfile) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	limits, err := json.Marshal(profileRow{
		Daily: profile.Daily, Weekly: profile.Weekly,
		Delay: profile.Delay, Hours: profile.Hours,
	})
	if err != nil {
		return fmt.Errorf("encode limits: %w", err)
	}
	start := time.Now()
	_, err = p.pool.Exec(ctx, `
INSERT INTO safety_profiles (
    account_id, workspace_id, tier, active, has_live_session, limits,
    warmup_enabled, warmup_started_at, min_acceptance_rate,
    pending_invitation_ceiling, timezone, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (account_id) DO UPDATE SET
    workspace_id = EXCLUDED.workspace_id,
    tier = EXCLUDED.tier,
    active = EXCLUDED.active,
    has_live_session = EXCLUDED.has_live_session,
    limits = EXCLUDED.limits,
    warmup_enabled = EXCLUDED.warmup_enabled,
    warmup_started_at = EXCLUDED.warmup_started_at,
    min_acceptance_rate = EXCLUDED.min_acceptance_rate,
    pending_invitation_ceiling = EXCLUDED.pending_invitation_ceiling,
    timezone = EXCLUDED.timezone,
    updated_at = EXCLUDED.updated_at
`, profile.AccountID, profile.WorkspaceID, profile.Tier, profile.Active,
		profile.HasLiveSession, limits, profile.WarmUpEnabled,
		profile.WarmUpStartedAt, profile.MinAcceptanceRate,
		profile.PendingInvitationCeiling, profile.Timezone,
		profile.CreatedAt, profile.UpdatedAt)
	metrics.ObserveStoreRequest("postgres", "profile_put", start, err)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// ListActive implements domain.ProfileRepo.
func (p *Postgres) ListActive(ctx context.Context, workspaceID string) ([]domain.AccountSafetyProfile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT account_id FROM safety_profiles
WHERE workspace_id = $1 AND active
ORDER BY account_id
`, workspaceID)
	metrics.ObserveStoreRequest("postgres", "profile_list_active", start, err)
	if err != nil {
		return nil, fmt.Errorf("select active profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan profile id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.AccountSafetyProfile, 0, len(ids))
	for _, id := range ids {
		profile, err := p.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, profile)
	}
	return out, nil
}

// Deactivate implements domain.ProfileRepo.
func (p *Postgres) Deactivate(ctx context.Context, accountID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE safety_profiles SET active = FALSE, updated_at = NOW()
WHERE account_id = $1
`, accountID)
	metrics.ObserveStoreRequest("postgres", "profile_deactivate", start, err)
	if err != nil {
		return fmt.Errorf("deactivate profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
