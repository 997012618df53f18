package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"outreach-engine/internal/adapters/memstore"
	"outreach-engine/internal/domain"
)

var enrolledAt = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func newService() (*Service, *memstore.Profiles) {
	repo := memstore.NewProfiles()
	return NewService(repo, zerolog.Nop()), repo
}

func TestEnrollAppliesTierDefaults(t *testing.T) {
	svc, _ := newService()
	profile, err := svc.Enroll(context.Background(), "acc-1", "ws-1", domain.TierFree, 500, "Europe/Berlin", enrolledAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Daily.ConnectionRequests != 25 || profile.Daily.TotalActions != 250 {
		t.Fatalf("free tier ceilings wrong: %+v", profile.Daily)
	}
	if profile.Weekly.ConnectionRequests != 100 || profile.Weekly.Messages != 250 {
		t.Fatalf("free tier weekly ceilings wrong: %+v", profile.Weekly)
	}
	if !profile.Active || profile.Timezone != "Europe/Berlin" {
		t.Fatalf("profile base fields wrong: %+v", profile)
	}
	if profile.Delay.BatchSize != 10 || profile.Delay.MinSeconds != 45 {
		t.Fatalf("delay defaults wrong: %+v", profile.Delay)
	}
	if profile.MinAcceptanceRate != 0.25 || profile.PendingInvitationCeiling != 700 {
		t.Fatalf("safety defaults wrong: %+v", profile)
	}
	if !profile.Hours.Enabled || profile.Hours.StartHour != 9 || profile.Hours.EndHour != 18 {
		t.Fatalf("working hours defaults wrong: %+v", profile.Hours)
	}
}

func TestEnrollTierCeilingsScaleUp(t *testing.T) {
	svc, _ := newService()
	premium, err := svc.Enroll(context.Background(), "acc-p", "ws-1", domain.TierPremium, 500, "", enrolledAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elite, err := svc.Enroll(context.Background(), "acc-e", "ws-1", domain.TierElite, 500, "", enrolledAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if premium.Daily.ConnectionRequests != 40 || elite.Daily.ConnectionRequests != 60 {
		t.Fatalf("connection ceilings must grow with tier: %d / %d",
			premium.Daily.ConnectionRequests, elite.Daily.ConnectionRequests)
	}
	if premium.Daily.TotalActions != 400 || elite.Daily.TotalActions != 600 {
		t.Fatalf("total ceilings must grow with tier: %d / %d",
			premium.Daily.TotalActions, elite.Daily.TotalActions)
	}
}

func TestEnrollAutoWarmupBelowConnectionFloor(t *testing.T) {
	svc, _ := newService()
	young, err := svc.Enroll(context.Background(), "acc-young", "ws-1", domain.TierFree, 99, "", enrolledAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !young.WarmUpEnabled || !young.WarmUpStartedAt.Equal(enrolledAt) {
		t.Fatalf("99 connections must start warm-up: %+v", young)
	}
	seasoned, err := svc.Enroll(context.Background(), "acc-old", "ws-1", domain.TierFree, 100, "", enrolledAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seasoned.WarmUpEnabled {
		t.Fatalf("100 connections must not start warm-up")
	}
}

func TestEnrollRejectsUnknownTier(t *testing.T) {
	svc, _ := newService()
	if _, err := svc.Enroll(context.Background(), "acc-1", "ws-1", "platinum", 0, "", enrolledAt); !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("expected ErrUnknownTier, got %v", err)
	}
}

func TestUpdateLimitsIsPartial(t *testing.T) {
	svc, _ := newService()
	if _, err := svc.Enroll(context.Background(), "acc-1", "ws-1", domain.TierFree, 500, "", enrolledAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rate := 0.4
	live := true
	later := enrolledAt.Add(time.Hour)
	profile, err := svc.UpdateLimits(context.Background(), "acc-1", LimitsUpdate{
		MinAcceptanceRate: &rate,
		HasLiveSession:    &live,
	}, later)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.MinAcceptanceRate != 0.4 || !profile.HasLiveSession {
		t.Fatalf("updated fields not applied: %+v", profile)
	}
	if profile.Daily.ConnectionRequests != 25 {
		t.Fatalf("untouched fields must survive the update: %+v", profile.Daily)
	}
	if !profile.UpdatedAt.Equal(later) {
		t.Fatalf("UpdatedAt not stamped: %v", profile.UpdatedAt)
	}
}

func TestUpdateLimitsEnablingWarmupRestampsStart(t *testing.T) {
	svc, _ := newService()
	if _, err := svc.Enroll(context.Background(), "acc-1", "ws-1", domain.TierFree, 500, "", enrolledAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	on := true
	later := enrolledAt.Add(48 * time.Hour)
	profile, err := svc.UpdateLimits(context.Background(), "acc-1", LimitsUpdate{WarmUpEnabled: &on}, later)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !profile.WarmUpEnabled || !profile.WarmUpStartedAt.Equal(later) {
		t.Fatalf("enabling warm-up must stamp its start: %+v", profile)
	}

	// Re-enabling an already-enabled warm-up keeps the original start.
	evenLater := later.Add(72 * time.Hour)
	profile, err = svc.UpdateLimits(context.Background(), "acc-1", LimitsUpdate{WarmUpEnabled: &on}, evenLater)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !profile.WarmUpStartedAt.Equal(later) {
		t.Fatalf("re-enabling must not move the warm-up start: %v", profile.WarmUpStartedAt)
	}
}

func TestUpdateLimitsUnknownAccount(t *testing.T) {
	svc, _ := newService()
	if _, err := svc.UpdateLimits(context.Background(), "ghost", LimitsUpdate{}, enrolledAt); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestDeactivateKeepsProfile(t *testing.T) {
	svc, repo := newService()
	if _, err := svc.Enroll(context.Background(), "acc-1", "ws-1", domain.TierFree, 500, "", enrolledAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Deactivate(context.Background(), "acc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	profile, err := repo.Get(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("deactivated profiles must remain readable: %v", err)
	}
	if profile.Active {
		t.Fatalf("profile still active after deactivation")
	}
	active, err := repo.ListActive(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("deactivated profile must leave the active pool, got %d", len(active))
	}
}
