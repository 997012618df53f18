package repo

import (
	"context"
	"fmt"
	"time"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/infra/metrics"
)

// ListWorkspaces implements domain.TaskRepo.
func (p *Postgres) ListWorkspaces(ctx context.Context) ([]string, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT DISTINCT workspace_id FROM outreach_tasks
WHERE status = 'pending' ORDER BY workspace_id
`)
	metrics.ObserveStoreRequest("postgres", "task_workspaces", start, err)
	if err != nil {
		return nil, fmt.Errorf("select workspaces: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListPending implements domain.TaskRepo, oldest first so a cut-off
// batch does not starve early arrivals.
func (p *Postgres) ListPending(ctx context.Context, workspaceID string, limit int) ([]domain.OutreachTask, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, workspace_id, campaign_id, target_id, action, priority, status, created_at
FROM outreach_tasks
WHERE workspace_id = $1 AND status = 'pending'
ORDER BY created_at, id
LIMIT $2
`, workspaceID, limit)
	metrics.ObserveStoreRequest("postgres", "task_list_pending", start, err)
	if err != nil {
		return nil, fmt.Errorf("select pending tasks: %w", err)
	}
	defer rows.Close()

	var out []domain.OutreachTask
	for rows.Next() {
		var task domain.OutreachTask
		if err := rows.Scan(&task.ID, &task.WorkspaceID, &task.CampaignID, &task.TargetID,
			&task.Action, &task.Priority, &task.Status, &task.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// SetStatus implements domain.TaskRepo.
func (p *Postgres) SetStatus(ctx context.Context, taskID string, status domain.TaskStatus, accountID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE outreach_tasks SET status = $2, account_id = NULLIF($3, '')
WHERE id = $1
`, taskID, status, accountID)
	metrics.ObserveStoreRequest("postgres", "task_set_status", start, err)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}
