package admission

import (
	"context"
	"fmt"
	"time"

	"outreach-engine/internal/domain"
)

// Capacity is a point-in-time view of how much headroom an account has
// across every dimension the distributor cares about. It is read-only;
// real counters move only after the driver reports an outcome.
type Capacity struct {
	AccountID      string
	RemainingToday map[domain.ActionType]int
	RemainingWeek  map[domain.ActionType]int
	RemainingTotal int
	Allowed        map[domain.ActionType]bool
}

// Score ranks accounts for distribution: spare connection plus message
// slots, the two dimensions that dominate outreach volume.
func (c Capacity) Score() int {
	return c.RemainingToday[domain.ActionConnectionRequest] + c.RemainingToday[domain.ActionMessage]
}

// CanAnything reports whether at least one action type is admissible.
func (c Capacity) CanAnything() bool {
	for _, ok := range c.Allowed {
		if ok {
			return true
		}
	}
	return false
}

// Snapshot computes the account's current capacity across all action
// types in one shot, so a distribution pass does not repeat the gate
// chain per task.
func (s *Service) Snapshot(ctx context.Context, profile domain.AccountSafetyProfile, now time.Time) (Capacity, error) {
	today, err := s.tracker.Today(ctx, profile, now)
	if err != nil {
		return Capacity{}, fmt.Errorf("daily usage: %w", err)
	}
	week, err := s.tracker.ThisWeek(ctx, profile, now)
	if err != nil {
		return Capacity{}, fmt.Errorf("weekly usage: %w", err)
	}
	ceilings := s.warmup.EffectiveCeilings(profile, now)

	snap := Capacity{
		AccountID:      profile.AccountID,
		RemainingToday: make(map[domain.ActionType]int),
		RemainingWeek:  make(map[domain.ActionType]int),
		RemainingTotal: clampNonNegative(ceilings.TotalActions - today.Counts.Total()),
		Allowed:        make(map[domain.ActionType]bool),
	}
	for _, action := range domain.ActionTypes() {
		snap.RemainingToday[action] = clampNonNegative(ceilings.ForAction(action) - today.Counts.ForAction(action))
		if action.HasWeeklyCeiling() {
			snap.RemainingWeek[action] = clampNonNegative(profile.Weekly.ForAction(action) - week.ForAction(action))
		}
		decision, err := s.CheckProfile(ctx, profile, action, now)
		if err != nil {
			return Capacity{}, err
		}
		snap.Allowed[action] = decision.Allowed
	}
	return snap, nil
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
