package admission

import (
	"context"
	"fmt"
	"time"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/infra/metrics"
)

// Dashboard thresholds. The acceptance rule intentionally fires from
// the first sent request, unlike the circuit breaker's 20-request floor.
const (
	summaryLowAcceptance  = 0.25
	summaryPendingAlert   = 500
	summaryCeilingAlertAt = 0.9
)

// AccountSummary aggregates today's usage against effective ceilings
// for an operator dashboard.
type AccountSummary struct {
	AccountID          string               `json:"account_id"`
	Date               string               `json:"date"`
	WarmUpActive       bool                 `json:"warmup_active"`
	WarmUpDay          int                  `json:"warmup_day,omitempty"`
	Usage              domain.ActionCounts  `json:"usage"`
	Ceilings           domain.DailyCeilings `json:"ceilings"`
	AcceptanceRate     float64              `json:"acceptance_rate"`
	PendingInvitations int                  `json:"pending_invitations"`
	HealthScore        int                  `json:"health_score"`
	Recommendations    []string             `json:"recommendations"`
}

// Summarize builds the dashboard view for one account.
func (s *Service) Summarize(ctx context.Context, accountID string, now time.Time) (AccountSummary, error) {
	profile, err := s.profiles.Get(ctx, accountID)
	if err != nil {
		return AccountSummary{}, fmt.Errorf("load profile: %w", err)
	}
	today, err := s.tracker.Today(ctx, profile, now)
	if err != nil {
		return AccountSummary{}, fmt.Errorf("daily usage: %w", err)
	}
	ceilings := s.warmup.EffectiveCeilings(profile, now)

	summary := AccountSummary{
		AccountID:          profile.AccountID,
		Date:               today.Date,
		Usage:              today.Counts,
		Ceilings:           ceilings,
		AcceptanceRate:     today.AcceptanceRate,
		PendingInvitations: today.PendingInvitations,
	}
	if profile.WarmUpEnabled && !s.warmup.Complete(profile, now) {
		summary.WarmUpActive = true
		summary.WarmUpDay = s.warmup.DayIndex(profile, now)
	}

	score := 100
	if today.Counts.ConnectionRequests >= 1 && today.AcceptanceRate < summaryLowAcceptance {
		score -= 30
		summary.Recommendations = append(summary.Recommendations,
			"Acceptance rate is below 25%: pause connection requests and review targeting.")
	}
	if today.PendingInvitations > summaryPendingAlert {
		score -= 20
		summary.Recommendations = append(summary.Recommendations,
			"More than 500 invitations are pending: withdraw stale invitations before sending new ones.")
	}
	if ceilings.TotalActions > 0 &&
		float64(today.Counts.Total()) >= summaryCeilingAlertAt*float64(ceilings.TotalActions) {
		score -= 15
		summary.Recommendations = append(summary.Recommendations,
			"Daily action total is at 90% of the ceiling: let the account rest until tomorrow.")
	}
	if len(summary.Recommendations) == 0 {
		summary.Recommendations = append(summary.Recommendations, "Account is operating within safe limits.")
	}
	summary.HealthScore = score
	metrics.SetHealthScore(profile.AccountID, score)
	return summary, nil
}
