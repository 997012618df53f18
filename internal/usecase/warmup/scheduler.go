package warmup

import (
	"time"

	"outreach-engine/internal/domain"
)

// rampDays is the length of the warm-up ramp. Accounts past it run on
// their permanent ceilings.
const rampDays = 21

// Scheduler maps a profile's enrollment date to today's effective
// ceilings. It is stateless; the ramp table is shared by all accounts.
type Scheduler struct{}

// NewScheduler creates the scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// DayIndex returns the 1-based warm-up day for the account, clamped to
// [1, 21]. Day 1 covers the first 24 hours after enrollment.
func (s *Scheduler) DayIndex(profile domain.AccountSafetyProfile, now time.Time) int {
	elapsed := now.Sub(profile.WarmUpStartedAt)
	day := int(elapsed.Hours()/24) + 1
	if day < 1 {
		day = 1
	}
	if day > rampDays {
		day = rampDays
	}
	return day
}

// Complete reports whether the account has finished the ramp.
func (s *Scheduler) Complete(profile domain.AccountSafetyProfile, now time.Time) bool {
	if !profile.WarmUpEnabled {
		return true
	}
	return now.Sub(profile.WarmUpStartedAt) >= rampDays*24*time.Hour
}

// EffectiveCeilings returns today's daily ceilings for the account.
// With warm-up disabled or complete these are the permanent profile
// ceilings. During the ramp they come from the table, except search
// pulls, which always run at the permanent ceiling: operators may need
// full search volume even on a fresh account.
func (s *Scheduler) EffectiveCeilings(profile domain.AccountSafetyProfile, now time.Time) domain.DailyCeilings {
	if !profile.WarmUpEnabled || s.Complete(profile, now) {
		return profile.Daily
	}
	step := rampTable[s.DayIndex(profile, now)-1]
	return domain.DailyCeilings{
		ConnectionRequests: step.ConnectionRequests,
		Messages:           step.Messages,
		ProfileViews:       step.ProfileViews,
		PostLikes:          step.PostLikes,
		Endorsements:       step.PostLikes / 3,
		SearchPulls:        profile.Daily.SearchPulls,
		TotalActions:       step.TotalActions,
	}
}
