package distributor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"outreach-engine/internal/adapters/memstore"
	"outreach-engine/internal/domain"
	"outreach-engine/internal/usecase/admission"
	"outreach-engine/internal/usecase/usage"
	"outreach-engine/internal/usecase/warmup"
)

var noon = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

// poolProfile returns an always-admissible account whose connection
// headroom for the day equals connections.
func poolProfile(accountID string, connections int) domain.AccountSafetyProfile {
	return domain.AccountSafetyProfile{
		AccountID:      accountID,
		WorkspaceID:    "ws-1",
		Active:         true,
		HasLiveSession: true,
		Daily: domain.DailyCeilings{
			ConnectionRequests: connections,
			Messages:           50,
			ProfileViews:       100,
			TotalActions:       1000,
		},
		Weekly:                   domain.WeeklyCeilings{ConnectionRequests: 1000, Messages: 1000},
		PendingInvitationCeiling: 5000,
	}
}

func newDistributor(t *testing.T, profiles ...domain.AccountSafetyProfile) (*Service, []domain.AccountSafetyProfile) {
	t.Helper()
	repo := memstore.NewProfiles()
	for _, profile := range profiles {
		if err := repo.Put(context.Background(), profile); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	tracker := usage.NewTracker(memstore.NewUsage(), repo, usage.NewRingLog(16), zerolog.Nop())
	svc := NewService(admission.NewService(repo, tracker, warmup.NewScheduler(), zerolog.Nop()), zerolog.Nop())
	return svc, profiles
}

func connectionTasks(n int, priority func(i int) int) []domain.OutreachTask {
	tasks := make([]domain.OutreachTask, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, domain.OutreachTask{
			ID:       fmt.Sprintf("task-%d", i),
			TargetID: fmt.Sprintf("target-%d", i),
			Action:   domain.ActionConnectionRequest,
			Priority: priority(i),
		})
	}
	return tasks
}

func TestSingleAccountKeepsHighestPriorities(t *testing.T) {
	svc, pool := newDistributor(t, poolProfile("acc-1", 4))
	// Priorities 0..9, so the four chosen must be tasks 6..9.
	tasks := connectionTasks(10, func(i int) int { return i })

	result, err := svc.Distribute(context.Background(), tasks, pool, noon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assigned := result.Assignments["acc-1"]
	if len(assigned) != 4 || len(result.Skipped) != 6 {
		t.Fatalf("expected 4 assigned / 6 skipped, got %d / %d", len(assigned), len(result.Skipped))
	}
	for i, task := range assigned {
		if want := fmt.Sprintf("task-%d", 9-i); task.ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, task.ID)
		}
		if task.Status != domain.TaskAssigned || task.AccountID != "acc-1" {
			t.Fatalf("assigned task not stamped: %+v", task)
		}
	}
	for _, task := range result.Skipped {
		if task.Status != domain.TaskSkipped || task.AccountID != "" {
			t.Fatalf("skipped task not stamped: %+v", task)
		}
	}
}

func TestEqualPrioritiesKeepInputOrder(t *testing.T) {
	svc, pool := newDistributor(t, poolProfile("acc-1", 3))
	tasks := connectionTasks(5, func(int) int { return 10 })

	result, err := svc.Distribute(context.Background(), tasks, pool, noon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assigned := result.Assignments["acc-1"]
	if len(assigned) != 3 {
		t.Fatalf("expected 3 assigned, got %d", len(assigned))
	}
	for i, task := range assigned {
		if want := fmt.Sprintf("task-%d", i); task.ID != want {
			t.Fatalf("stable order broken at %d: got %s", i, task.ID)
		}
	}
}

func TestLargerAccountDrainsBeforeSmaller(t *testing.T) {
	svc, pool := newDistributor(t, poolProfile("small", 3), poolProfile("large", 7))
	tasks := connectionTasks(8, func(int) int { return 1 })

	result, err := svc.Distribute(context.Background(), tasks, pool, noon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(result.Assignments["large"]); got != 7 {
		t.Fatalf("larger account must absorb 7 tasks, got %d", got)
	}
	if got := len(result.Assignments["small"]); got != 1 {
		t.Fatalf("smaller account must receive the single overflow task, got %d", got)
	}
	if result.Assignments["small"][0].ID != "task-7" {
		t.Fatalf("overflow must be the last task, got %s", result.Assignments["small"][0].ID)
	}
	if len(result.Skipped) != 0 {
		t.Fatalf("nothing should be skipped, got %d", len(result.Skipped))
	}
}

func TestDuplicateTargetsClaimedOnce(t *testing.T) {
	svc, pool := newDistributor(t, poolProfile("acc-1", 10))
	tasks := connectionTasks(4, func(i int) int { return 4 - i })
	tasks[2].TargetID = tasks[0].TargetID

	result, err := svc.Distribute(context.Background(), tasks, pool, noon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Assignments["acc-1"]) != 3 {
		t.Fatalf("expected 3 assigned, got %d", len(result.Assignments["acc-1"]))
	}
	if len(result.Skipped) != 1 || result.Skipped[0].ID != "task-2" {
		t.Fatalf("the duplicate target must be skipped, got %+v", result.Skipped)
	}
}

func TestInactiveAndSessionlessAccountsExcluded(t *testing.T) {
	inactive := poolProfile("inactive", 10)
	inactive.Active = false
	sessionless := poolProfile("sessionless", 10)
	sessionless.HasLiveSession = false
	svc, pool := newDistributor(t, inactive, sessionless, poolProfile("live", 2))
	tasks := connectionTasks(3, func(int) int { return 1 })

	result, err := svc.Distribute(context.Background(), tasks, pool, noon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Assignments) != 1 || len(result.Assignments["live"]) != 2 {
		t.Fatalf("only the live account may receive work: %+v", result.Assignments)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("expected 1 skipped once the live account is full, got %d", len(result.Skipped))
	}
}

func TestTotalCeilingCapsMixedActions(t *testing.T) {
	profile := poolProfile("acc-1", 10)
	profile.Daily.TotalActions = 3
	svc, pool := newDistributor(t, profile)

	tasks := connectionTasks(2, func(int) int { return 1 })
	tasks = append(tasks,
		domain.OutreachTask{ID: "msg-1", TargetID: "target-m1", Action: domain.ActionMessage, Priority: 1},
		domain.OutreachTask{ID: "msg-2", TargetID: "target-m2", Action: domain.ActionMessage, Priority: 1},
	)

	result, err := svc.Distribute(context.Background(), tasks, pool, noon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(result.Assignments["acc-1"]); got != 3 {
		t.Fatalf("total ceiling of 3 must cap mixed actions, got %d assigned", got)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("expected 1 skipped, got %d", len(result.Skipped))
	}
}

func TestWeeklyHeadroomBindsWhenTighter(t *testing.T) {
	profile := poolProfile("acc-1", 10)
	profile.Weekly.ConnectionRequests = 2
	svc, pool := newDistributor(t, profile)
	tasks := connectionTasks(5, func(int) int { return 1 })

	result, err := svc.Distribute(context.Background(), tasks, pool, noon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(result.Assignments["acc-1"]); got != 2 {
		t.Fatalf("weekly headroom of 2 must bind, got %d assigned", got)
	}
}
