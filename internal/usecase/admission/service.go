// Package admission decides whether an account may perform an action
// right now. Denial is data, not an error: callers always get a
// Decision with a typed reason from the closed set.
package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/infra/metrics"
	"outreach-engine/internal/usecase/usage"
	"outreach-engine/internal/usecase/warmup"
)

// breakerMinRequests is how many connection requests must have gone out
// today before the acceptance-rate circuit breaker is evaluated. The
// floor is deliberately independent of warm-up day: early accounts get
// the same protection.
const breakerMinRequests = 20

// Service is the admission controller.
type Service struct {
	profiles domain.ProfileRepo
	tracker  *usage.Tracker
	warmup   *warmup.Scheduler
	logger   zerolog.Logger
}

// NewService creates the admission controller.
func NewService(profiles domain.ProfileRepo, tracker *usage.Tracker, scheduler *warmup.Scheduler, logger zerolog.Logger) *Service {
	return &Service{profiles: profiles, tracker: tracker, warmup: scheduler, logger: logger}
}

// Check answers whether the account may perform the action now. A
// missing profile yields a NOT_CONFIGURED denial, not an error.
func (s *Service) Check(ctx context.Context, accountID string, action domain.ActionType, now time.Time) (domain.Decision, error) {
	profile, err := s.profiles.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			metrics.IncAdmission(string(action), string(domain.DenyNotConfigured))
			return domain.Deny(domain.DenyNotConfigured), nil
		}
		return domain.Decision{}, fmt.Errorf("load profile: %w", err)
	}
	decision, err := s.CheckProfile(ctx, profile, action, now)
	if err != nil {
		return domain.Decision{}, err
	}
	metrics.IncAdmission(string(action), string(decision.Reason))
	return decision, nil
}

// CheckProfile runs the gate chain against an already loaded profile.
// The gates short-circuit in a fixed order so the reason reported to an
// operator is deterministic: schedule and account-wide safety issues
// surface before any narrow per-type ceiling.
func (s *Service) CheckProfile(ctx context.Context, profile domain.AccountSafetyProfile, action domain.ActionType, now time.Time) (domain.Decision, error) {
	if profile.Hours.Enabled && !withinWorkingHours(profile, now) {
		return domain.Deny(domain.DenyOutsideWorkingHours), nil
	}

	today, err := s.tracker.Today(ctx, profile, now)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("daily usage: %w", err)
	}
	ceilings := s.warmup.EffectiveCeilings(profile, now)

	if today.Counts.Total() >= ceilings.TotalActions {
		return domain.Deny(domain.DenyDailyTotalLimit), nil
	}

	if today.Counts.ConnectionRequests >= breakerMinRequests &&
		today.AcceptanceRate < profile.MinAcceptanceRate {
		return domain.Deny(domain.DenyLowAcceptanceRate), nil
	}

	if action == domain.ActionConnectionRequest &&
		today.PendingInvitations >= profile.PendingInvitationCeiling {
		return domain.Deny(domain.DenyPendingLimit), nil
	}

	remainingToday := ceilings.ForAction(action) - today.Counts.ForAction(action)
	if remainingToday <= 0 {
		return domain.Decision{Allowed: false, Reason: domain.DenyDailyTypeLimit}, nil
	}

	decision := domain.Decision{Allowed: true, RemainingToday: remainingToday}
	if !action.HasWeeklyCeiling() {
		return decision, nil
	}

	week, err := s.tracker.ThisWeek(ctx, profile, now)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("weekly usage: %w", err)
	}
	remainingWeek := profile.Weekly.ForAction(action) - week.ForAction(action)
	if remainingWeek <= 0 {
		zero := 0
		return domain.Decision{Allowed: false, Reason: domain.DenyWeeklyTypeLimit, RemainingWeek: &zero}, nil
	}
	decision.RemainingWeek = &remainingWeek
	return decision, nil
}

// withinWorkingHours checks now against [StartHour, EndHour) in the
// profile's timezone. Windows crossing midnight wrap.
func withinWorkingHours(profile domain.AccountSafetyProfile, now time.Time) bool {
	hour := now.In(profile.Location()).Hour()
	start, end := profile.Hours.StartHour, profile.Hours.EndHour
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
