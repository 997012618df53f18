package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"outreach-engine/internal/domain"
)

func newTestQueue(t *testing.T) *RedisAssignmentQueue {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisAssignmentQueue(client, "outreach_assignments")
}

func TestQueueRoundTrip(t *testing.T) {
	q := newTestQueue(t)
	job := domain.AssignmentJob{
		ID:          "job-1",
		PassID:      "pass-1",
		WorkspaceID: "ws-1",
		AccountID:   "acc-1",
		Task: domain.OutreachTask{
			ID:       "task-1",
			TargetID: "target-1",
			Action:   domain.ActionConnectionRequest,
			Priority: 5,
		},
		WaitSeconds: 73,
		Humanized:   true,
	}
	if err := q.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := q.Pop(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != job.ID || got.AccountID != job.AccountID || got.WaitSeconds != 73 || !got.Humanized {
		t.Fatalf("job did not survive the round trip: %+v", got)
	}
	if got.Task.TargetID != "target-1" || got.Task.Action != domain.ActionConnectionRequest {
		t.Fatalf("task payload lost: %+v", got.Task)
	}
}

func TestQueueDeliversInOrder(t *testing.T) {
	q := newTestQueue(t)
	for _, id := range []string{"job-1", "job-2", "job-3"} {
		if err := q.Enqueue(context.Background(), domain.AssignmentJob{ID: id}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, want := range []string{"job-1", "job-2", "job-3"} {
		got, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != want {
			t.Fatalf("expected %s, got %s", want, got.ID)
		}
	}
}

func TestPopStopsWhenContextCancelled(t *testing.T) {
	q := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.Pop(ctx); err == nil {
		t.Fatalf("cancelled context must abort the pop")
	}
}
