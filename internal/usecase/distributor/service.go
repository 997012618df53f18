// Package distributor spreads a batch of pending outreach tasks across
// the eligible account pool without breaching any capacity dimension.
package distributor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/infra/metrics"
	"outreach-engine/internal/usecase/admission"
)

// Service runs distribution passes.
type Service struct {
	admission *admission.Service
	logger    zerolog.Logger
}

// NewService creates the distributor.
func NewService(adm *admission.Service, logger zerolog.Logger) *Service {
	return &Service{admission: adm, logger: logger}
}

// Result is the outcome of one pass. Assignments holds, per account,
// the tasks in assignment order; only accounts that received work
// appear. Skipped tasks carry status TaskSkipped.
type Result struct {
	Assignments map[string][]domain.OutreachTask
	Skipped     []domain.OutreachTask
}

// candidate pairs an eligible account with its pre-pass capacity and a
// transient claimed-this-pass overlay. The overlay is local to one
// Distribute call and never persisted; durable counters move only when
// the driver reports a real outcome.
type candidate struct {
	profile  domain.AccountSafetyProfile
	capacity admission.Capacity
	claimed  map[domain.ActionType]int
	total    int
}

// available is the task-type headroom left for this candidate within
// the current pass: the tightest of the per-type daily, the weekly
// (where one exists), and the all-types total dimension.
func (c *candidate) available(action domain.ActionType) int {
	if !c.capacity.Allowed[action] {
		return 0
	}
	left := c.capacity.RemainingToday[action] - c.claimed[action]
	if action.HasWeeklyCeiling() {
		if weekly := c.capacity.RemainingWeek[action] - c.claimed[action]; weekly < left {
			left = weekly
		}
	}
	if total := c.capacity.RemainingTotal - c.total; total < left {
		left = total
	}
	return left
}

func (c *candidate) claim(action domain.ActionType) {
	c.claimed[action]++
	c.total++
}

// Distribute assigns each task to at most one account, deduplicating
// targets across the whole pass. Greedy best-fit by pre-pass capacity:
// the pool is ordered once by available slots, and each task lands on
// the highest-capacity account that still has headroom for its type,
// so the roomiest account absorbs work before smaller ones are touched.
func (s *Service) Distribute(ctx context.Context, tasks []domain.OutreachTask, accounts []domain.AccountSafetyProfile, now time.Time) (Result, error) {
	started := time.Now()
	defer func() { metrics.PassDuration.Observe(time.Since(started).Seconds()) }()

	pool, err := s.eligible(ctx, accounts, now)
	if err != nil {
		return Result{}, err
	}

	ordered := make([]domain.OutreachTask, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	result := Result{Assignments: make(map[string][]domain.OutreachTask)}
	claimedTargets := make(map[string]struct{})

	for _, task := range ordered {
		if _, dup := claimedTargets[task.TargetID]; dup {
			result.Skipped = append(result.Skipped, skip(task))
			continue
		}

		best := -1
		for i := range pool {
			if pool[i].available(task.Action) > 0 {
				best = i
				break
			}
		}
		if best < 0 {
			result.Skipped = append(result.Skipped, skip(task))
			continue
		}

		winner := pool[best]
		winner.claim(task.Action)
		claimedTargets[task.TargetID] = struct{}{}
		task.Status = domain.TaskAssigned
		task.AccountID = winner.profile.AccountID
		result.Assignments[winner.profile.AccountID] = append(result.Assignments[winner.profile.AccountID], task)
	}

	metrics.TasksAssigned.Add(float64(len(ordered) - len(result.Skipped)))
	metrics.TasksSkipped.Add(float64(len(result.Skipped)))
	s.logger.Info().
		Int("tasks", len(ordered)).
		Int("accounts", len(pool)).
		Int("skipped", len(result.Skipped)).
		Msg("distributor: pass complete")
	return result, nil
}

// eligible filters the pool to active accounts with a live session that
// can perform at least one action right now, ordered by available
// connection+message slots descending. Ties keep input order; the pool
// order fixed here is the drain order for the whole pass.
func (s *Service) eligible(ctx context.Context, accounts []domain.AccountSafetyProfile, now time.Time) ([]*candidate, error) {
	var pool []*candidate
	for _, profile := range accounts {
		if !profile.Active || !profile.HasLiveSession {
			continue
		}
		capacity, err := s.admission.Snapshot(ctx, profile, now)
		if err != nil {
			return nil, fmt.Errorf("capacity snapshot for %s: %w", profile.AccountID, err)
		}
		if !capacity.CanAnything() {
			continue
		}
		pool = append(pool, &candidate{
			profile:  profile,
			capacity: capacity,
			claimed:  make(map[domain.ActionType]int),
		})
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].capacity.Score() > pool[j].capacity.Score()
	})
	return pool, nil
}

func skip(task domain.OutreachTask) domain.OutreachTask {
	task.Status = domain.TaskSkipped
	task.AccountID = ""
	return task
}
