package usage

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"outreach-engine/internal/adapters/memstore"
	"outreach-engine/internal/domain"
)

func newTracker(t *testing.T, profile domain.AccountSafetyProfile) (*Tracker, *memstore.Usage) {
	t.Helper()
	profiles := memstore.NewProfiles()
	if err := profiles.Put(context.Background(), profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store := memstore.NewUsage()
	return NewTracker(store, profiles, NewRingLog(16), zerolog.Nop()), store
}

func testProfile() domain.AccountSafetyProfile {
	return domain.AccountSafetyProfile{
		AccountID:   "acc-1",
		WorkspaceID: "ws-1",
		Active:      true,
	}
}

func TestRecordActionCountsOnlyOnSuccess(t *testing.T) {
	tracker, _ := newTracker(t, testProfile())
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)

	if err := tracker.RecordAction(context.Background(), "acc-1", domain.ActionMessage, false, "captcha", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	today, err := tracker.Today(context.Background(), testProfile(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if today.Counts.Messages != 0 {
		t.Fatalf("failed action must not move counters, got %d", today.Counts.Messages)
	}

	if err := tracker.RecordAction(context.Background(), "acc-1", domain.ActionMessage, true, "", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	today, _ = tracker.Today(context.Background(), testProfile(), now)
	if today.Counts.Messages != 1 {
		t.Fatalf("expected 1 message, got %d", today.Counts.Messages)
	}

	entries := tracker.RecentLog(10)
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[1].Error != "captcha" || entries[1].Success {
		t.Fatalf("oldest entry should be the failure")
	}
}

func TestWeeklyCountersOnlyForWeeklyCappedTypes(t *testing.T) {
	tracker, _ := newTracker(t, testProfile())
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)

	for _, action := range []domain.ActionType{domain.ActionConnectionRequest, domain.ActionMessage, domain.ActionProfileView, domain.ActionPostLike} {
		if err := tracker.RecordAction(context.Background(), "acc-1", action, true, "", now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	week, err := tracker.ThisWeek(context.Background(), testProfile(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if week.ConnectionRequests != 1 || week.Messages != 1 {
		t.Fatalf("expected 1 connection and 1 message this week, got %+v", week)
	}
	today, _ := tracker.Today(context.Background(), testProfile(), now)
	if today.Counts.Total() != 4 {
		t.Fatalf("expected 4 daily actions, got %d", today.Counts.Total())
	}
}

func TestAcceptanceRateRecomputed(t *testing.T) {
	tracker, _ := newTracker(t, testProfile())
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)

	if err := tracker.RecordConnectionAccepted(context.Background(), "acc-1", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	today, _ := tracker.Today(context.Background(), testProfile(), now)
	if today.AcceptanceRate != 0 {
		t.Fatalf("no requests sent yet, rate must be 0, got %f", today.AcceptanceRate)
	}

	for i := 0; i < 4; i++ {
		if err := tracker.RecordAction(context.Background(), "acc-1", domain.ActionConnectionRequest, true, "", now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	today, _ = tracker.Today(context.Background(), testProfile(), now)
	if today.AcceptanceRate != 0.25 {
		t.Fatalf("expected rate 0.25 (1 of 4), got %f", today.AcceptanceRate)
	}
}

func TestDayBoundaryFollowsProfileTimezone(t *testing.T) {
	profile := testProfile()
	profile.Timezone = "Asia/Tokyo"
	tracker, store := newTracker(t, profile)
	// Late UTC evening is already tomorrow in Tokyo.
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	if err := tracker.RecordAction(context.Background(), "acc-1", domain.ActionProfileView, true, "", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, err := store.GetDaily(context.Background(), "acc-1", "2026-03-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Counts.ProfileViews != 1 {
		t.Fatalf("expected the view counted on the Tokyo date, got %+v", rec)
	}
	utcRec, _ := store.GetDaily(context.Background(), "acc-1", "2026-03-01")
	if utcRec.Counts.ProfileViews != 0 {
		t.Fatalf("UTC date must stay empty")
	}
}

func TestUpdatePendingInvitationsOverwrites(t *testing.T) {
	tracker, _ := newTracker(t, testProfile())
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)

	if err := tracker.UpdatePendingInvitations(context.Background(), "acc-1", 420, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tracker.UpdatePendingInvitations(context.Background(), "acc-1", 380, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	today, _ := tracker.Today(context.Background(), testProfile(), now)
	if today.PendingInvitations != 380 {
		t.Fatalf("expected snapshot 380, got %d", today.PendingInvitations)
	}
}

func TestRingLogBounded(t *testing.T) {
	ring := NewRingLog(3)
	for i := 0; i < 5; i++ {
		ring.Append(domain.ActionLogEntry{Error: string(rune('a' + i))})
	}
	recent := ring.Recent(10)
	if len(recent) != 3 {
		t.Fatalf("expected 3 retained entries, got %d", len(recent))
	}
	if recent[0].Error != "e" || recent[2].Error != "c" {
		t.Fatalf("expected newest-first e,d,c, got %+v", recent)
	}
}
