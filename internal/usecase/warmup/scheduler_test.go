package warmup

import (
	"testing"
	"time"

	"outreach-engine/internal/domain"
)

func rampProfile(start time.Time) domain.AccountSafetyProfile {
	return domain.AccountSafetyProfile{
		AccountID:       "acc-1",
		WarmUpEnabled:   true,
		WarmUpStartedAt: start,
		Daily: domain.DailyCeilings{
			ConnectionRequests: 60,
			Messages:           120,
			ProfileViews:       250,
			PostLikes:          150,
			Endorsements:       50,
			SearchPulls:        150,
			TotalActions:       600,
		},
	}
}

func TestDayIndexClamped(t *testing.T) {
	s := NewScheduler()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 1},
		{23 * time.Hour, 1},
		{25 * time.Hour, 2},
		{14 * 24 * time.Hour, 15},
		{40 * 24 * time.Hour, 21},
		{-time.Hour, 1},
	}
	for _, c := range cases {
		got := s.DayIndex(rampProfile(start), start.Add(c.elapsed))
		if got != c.want {
			t.Fatalf("elapsed %v: expected day %d, got %d", c.elapsed, c.want, got)
		}
	}
}

func TestCeilingsNonDecreasingAcrossRamp(t *testing.T) {
	s := NewScheduler()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	profile := rampProfile(start)
	prev := domain.DailyCeilings{}
	for day := 1; day <= 21; day++ {
		now := start.Add(time.Duration(day-1)*24*time.Hour + time.Hour)
		eff := s.EffectiveCeilings(profile, now)
		for _, action := range domain.ActionTypes() {
			if eff.ForAction(action) < prev.ForAction(action) {
				t.Fatalf("day %d: ceiling for %s decreased (%d < %d)", day, action, eff.ForAction(action), prev.ForAction(action))
			}
		}
		if eff.TotalActions < prev.TotalActions {
			t.Fatalf("day %d: total ceiling decreased", day)
		}
		prev = eff
	}
}

func TestSearchPullsNeverRamped(t *testing.T) {
	s := NewScheduler()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	profile := rampProfile(start)
	eff := s.EffectiveCeilings(profile, start.Add(time.Hour))
	if eff.SearchPulls != profile.Daily.SearchPulls {
		t.Fatalf("expected permanent search ceiling %d on day 1, got %d", profile.Daily.SearchPulls, eff.SearchPulls)
	}
}

func TestEndorsementsDerivedFromPostLikes(t *testing.T) {
	s := NewScheduler()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	profile := rampProfile(start)
	eff := s.EffectiveCeilings(profile, start.Add(time.Hour))
	if eff.Endorsements != eff.PostLikes/3 {
		t.Fatalf("expected endorsements = post likes / 3, got %d for %d likes", eff.Endorsements, eff.PostLikes)
	}
}

func TestPermanentCeilingsWhenDisabledOrComplete(t *testing.T) {
	s := NewScheduler()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	disabled := rampProfile(start)
	disabled.WarmUpEnabled = false
	if eff := s.EffectiveCeilings(disabled, start.Add(time.Hour)); eff != disabled.Daily {
		t.Fatalf("disabled warm-up must pass ceilings through unchanged")
	}

	profile := rampProfile(start)
	after := start.Add(22 * 24 * time.Hour)
	if !s.Complete(profile, after) {
		t.Fatalf("expected ramp complete after 22 days")
	}
	if eff := s.EffectiveCeilings(profile, after); eff != profile.Daily {
		t.Fatalf("completed ramp must use permanent ceilings")
	}
}
