package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/infra/metrics"
)

// Tracker counts performed actions per account and calendar bucket.
// It never rejects anything; admission decisions happen upstream.
type Tracker struct {
	store    domain.UsageStore
	profiles domain.ProfileRepo
	log      domain.ActionLog
	logger   zerolog.Logger
}

// NewTracker creates the tracker.
func NewTracker(store domain.UsageStore, profiles domain.ProfileRepo, log domain.ActionLog, logger zerolog.Logger) *Tracker {
	return &Tracker{store: store, profiles: profiles, log: log, logger: logger}
}

// Today returns the account's usage for the current local day.
func (t *Tracker) Today(ctx context.Context, account domain.AccountSafetyProfile, now time.Time) (domain.DailyUsage, error) {
	return t.store.GetDaily(ctx, account.AccountID, domain.DayKey(now, account.Location()))
}

// ThisWeek returns the account's usage for the current ISO week.
func (t *Tracker) ThisWeek(ctx context.Context, account domain.AccountSafetyProfile, now time.Time) (domain.WeeklyUsage, error) {
	return t.store.GetWeekly(ctx, account.AccountID, domain.WeekStartKey(now, account.Location()))
}

// RecordAction registers one executed action. Counters move only on
// success; the diagnostic log records failures too. Weekly counters
// move only for the weekly-capped action types.
func (t *Tracker) RecordAction(ctx context.Context, accountID string, action domain.ActionType, success bool, errMsg string, now time.Time) error {
	profile, err := t.profiles.Get(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	t.log.Append(domain.ActionLogEntry{
		AccountID: accountID,
		Action:    action,
		At:        now,
		Success:   success,
		Error:     errMsg,
	})
	metrics.IncActionRecorded(string(action), success)

	if !success {
		t.logger.Debug().Str("account", accountID).Str("action", string(action)).Str("error", errMsg).Msg("usage: action failed, counters unchanged")
		return nil
	}

	loc := profile.Location()
	day := domain.DayKey(now, loc)
	if _, err := t.store.MutateDaily(ctx, accountID, day, func(rec *domain.DailyUsage) {
		rec.Counts.Add(action)
		if action == domain.ActionConnectionRequest {
			rec.AcceptanceRate = acceptanceRate(rec.ConnectionsAccepted, rec.Counts.ConnectionRequests)
		}
	}); err != nil {
		return fmt.Errorf("daily increment: %w", err)
	}

	if !action.HasWeeklyCeiling() {
		return nil
	}
	week := domain.WeekStartKey(now, loc)
	if _, err := t.store.MutateWeekly(ctx, accountID, week, func(rec *domain.WeeklyUsage) {
		switch action {
		case domain.ActionConnectionRequest:
			rec.ConnectionRequests++
		case domain.ActionMessage:
			rec.Messages++
		}
	}); err != nil {
		return fmt.Errorf("weekly increment: %w", err)
	}
	return nil
}

// RecordConnectionAccepted bumps the acceptance counter and recomputes
// the acceptance rate against today's sent requests.
func (t *Tracker) RecordConnectionAccepted(ctx context.Context, accountID string, now time.Time) error {
	profile, err := t.profiles.Get(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	day := domain.DayKey(now, profile.Location())
	_, err = t.store.MutateDaily(ctx, accountID, day, func(rec *domain.DailyUsage) {
		rec.ConnectionsAccepted++
		rec.AcceptanceRate = acceptanceRate(rec.ConnectionsAccepted, rec.Counts.ConnectionRequests)
	})
	if err != nil {
		return fmt.Errorf("acceptance increment: %w", err)
	}
	return nil
}

// UpdatePendingInvitations overwrites today's pending-invitation
// snapshot. The execution driver owns the cadence of these reports.
func (t *Tracker) UpdatePendingInvitations(ctx context.Context, accountID string, count int, now time.Time) error {
	if count < 0 {
		count = 0
	}
	profile, err := t.profiles.Get(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	day := domain.DayKey(now, profile.Location())
	_, err = t.store.MutateDaily(ctx, accountID, day, func(rec *domain.DailyUsage) {
		rec.PendingInvitations = count
	})
	if err != nil {
		return fmt.Errorf("pending snapshot: %w", err)
	}
	return nil
}

// RecentLog returns the newest diagnostic entries.
func (t *Tracker) RecentLog(limit int) []domain.ActionLogEntry {
	return t.log.Recent(limit)
}

func acceptanceRate(accepted, requests int) float64 {
	if requests == 0 {
		return 0
	}
	return float64(accepted) / float64(requests)
}
