package distributor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/usecase/pacing"
)

// Runner drives periodic distribution passes: it fetches pending work,
// runs the assignment, attaches pacing advice and hands the jobs to the
// execution driver's queue.
type Runner struct {
	distributor *Service
	pacing      *pacing.Engine
	profiles    domain.ProfileRepo
	tasks       domain.TaskRepo
	queue       domain.AssignmentQueue
	lock        domain.PassLock
	logger      zerolog.Logger
	batchLimit  int
	lockTTL     time.Duration
}

// NewRunner creates the runner.
func NewRunner(dist *Service, pace *pacing.Engine, profiles domain.ProfileRepo, tasks domain.TaskRepo, queue domain.AssignmentQueue, lock domain.PassLock, logger zerolog.Logger, batchLimit int, lockTTL time.Duration) *Runner {
	return &Runner{
		distributor: dist,
		pacing:      pace,
		profiles:    profiles,
		tasks:       tasks,
		queue:       queue,
		lock:        lock,
		logger:      logger,
		batchLimit:  batchLimit,
		lockTTL:     lockTTL,
	}
}

// RunPass processes every workspace with pending tasks. Workspaces that
// are already being passed over by another instance are skipped; they
// will be picked up on the next tick.
func (r *Runner) RunPass(ctx context.Context, now time.Time) {
	workspaces, err := r.tasks.ListWorkspaces(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("distributor: listing workspaces failed")
		return
	}
	for _, workspace := range workspaces {
		release, ok, err := r.lock.Acquire(ctx, workspace, r.lockTTL)
		if err != nil {
			r.logger.Error().Err(err).Str("workspace", workspace).Msg("distributor: pass lock failed")
			continue
		}
		if !ok {
			r.logger.Debug().Str("workspace", workspace).Msg("distributor: pass already running elsewhere")
			continue
		}
		if err := r.passWorkspace(ctx, workspace, now); err != nil {
			r.logger.Error().Err(err).Str("workspace", workspace).Msg("distributor: pass failed")
		}
		release()
	}
}

func (r *Runner) passWorkspace(ctx context.Context, workspace string, now time.Time) error {
	tasks, err := r.tasks.ListPending(ctx, workspace, r.batchLimit)
	if err != nil {
		return fmt.Errorf("list pending tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil
	}
	accounts, err := r.profiles.ListActive(ctx, workspace)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	result, err := r.distributor.Distribute(ctx, tasks, accounts, now)
	if err != nil {
		return fmt.Errorf("distribute: %w", err)
	}

	profilesByID := make(map[string]domain.AccountSafetyProfile, len(accounts))
	for _, profile := range accounts {
		profilesByID[profile.AccountID] = profile
	}

	passID := uuid.NewString()
	for accountID, assigned := range result.Assignments {
		delay := profilesByID[accountID].Delay
		for i, task := range assigned {
			wait, humanized := r.pacing.NextDelay(delay)
			job := domain.AssignmentJob{
				ID:          uuid.NewString(),
				PassID:      passID,
				WorkspaceID: workspace,
				AccountID:   accountID,
				Task:        task,
				WaitSeconds: int(wait / time.Second),
				Humanized:   humanized,
				EnqueuedAt:  now,
			}
			// Position within the account's run decides when the driver
			// should take its longer batch break.
			if due, pause := r.pacing.ShouldBatchBreak(delay, i+1); due && (i+1)%delay.BatchSize == 0 {
				job.BreakSeconds = int(pause / time.Second)
			}
			if err := r.queue.Enqueue(ctx, job); err != nil {
				return fmt.Errorf("enqueue job: %w", err)
			}
			if err := r.tasks.SetStatus(ctx, task.ID, domain.TaskAssigned, accountID); err != nil {
				return fmt.Errorf("mark task assigned: %w", err)
			}
		}
	}
	for _, task := range result.Skipped {
		if err := r.tasks.SetStatus(ctx, task.ID, domain.TaskSkipped, ""); err != nil {
			return fmt.Errorf("mark task skipped: %w", err)
		}
	}
	return nil
}
