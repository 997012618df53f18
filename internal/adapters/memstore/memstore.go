// Package memstore holds mutex-serialized in-memory implementations of
// the engine's store interfaces. They back single-node deployments and
// tests; durability across restarts is the Postgres adapter's job.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"outreach-engine/internal/domain"
)

// Profiles implements domain.ProfileRepo in memory.
type Profiles struct {
	mu sync.RWMutex
	m  map[string]domain.AccountSafetyProfile
}

// NewProfiles creates an empty profile store.
func NewProfiles() *Profiles {
	return &Profiles{m: make(map[string]domain.AccountSafetyProfile)}
}

// Get implements domain.ProfileRepo.
func (p *Profiles) Get(_ context.Context, accountID string) (domain.AccountSafetyProfile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	profile, ok := p.m[accountID]
	if !ok {
		return domain.AccountSafetyProfile{}, domain.ErrProfileNotFound
	}
	return profile, nil
}

// Put implements domain.ProfileRepo.
func (p *Profiles) Put(_ context.Context, profile domain.AccountSafetyProfile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[profile.AccountID] = profile
	return nil
}

// ListActive implements domain.ProfileRepo. Results are ordered by
// account ID so distribution passes see a stable pool order.
func (p *Profiles) ListActive(_ context.Context, workspaceID string) ([]domain.AccountSafetyProfile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []domain.AccountSafetyProfile
	for _, profile := range p.m {
		if profile.Active && profile.WorkspaceID == workspaceID {
			out = append(out, profile)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

// Deactivate implements domain.ProfileRepo.
func (p *Profiles) Deactivate(_ context.Context, accountID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	profile, ok := p.m[accountID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	profile.Active = false
	profile.UpdatedAt = time.Now().UTC()
	p.m[accountID] = profile
	return nil
}

type usageKey struct {
	accountID string
	bucket    string
}

// Usage implements domain.UsageStore in memory. A single mutex
// serializes mutations, which satisfies the no-lost-update requirement
// for counter increments.
type Usage struct {
	mu     sync.Mutex
	daily  map[usageKey]domain.DailyUsage
	weekly map[usageKey]domain.WeeklyUsage
}

// NewUsage creates an empty usage store.
func NewUsage() *Usage {
	return &Usage{
		daily:  make(map[usageKey]domain.DailyUsage),
		weekly: make(map[usageKey]domain.WeeklyUsage),
	}
}

// GetDaily implements domain.UsageStore. Absent buckets come back
// zero-valued and are not created.
func (u *Usage) GetDaily(_ context.Context, accountID, date string) (domain.DailyUsage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if rec, ok := u.daily[usageKey{accountID, date}]; ok {
		return rec, nil
	}
	return domain.DailyUsage{AccountID: accountID, Date: date}, nil
}

// GetWeekly implements domain.UsageStore.
func (u *Usage) GetWeekly(_ context.Context, accountID, weekStart string) (domain.WeeklyUsage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if rec, ok := u.weekly[usageKey{accountID, weekStart}]; ok {
		return rec, nil
	}
	return domain.WeeklyUsage{AccountID: accountID, WeekStart: weekStart}, nil
}

// MutateDaily implements domain.UsageStore.
func (u *Usage) MutateDaily(_ context.Context, accountID, date string, mutate func(*domain.DailyUsage)) (domain.DailyUsage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	key := usageKey{accountID, date}
	rec, ok := u.daily[key]
	if !ok {
		rec = domain.DailyUsage{AccountID: accountID, Date: date}
	}
	mutate(&rec)
	u.daily[key] = rec
	return rec, nil
}

// MutateWeekly implements domain.UsageStore.
func (u *Usage) MutateWeekly(_ context.Context, accountID, weekStart string, mutate func(*domain.WeeklyUsage)) (domain.WeeklyUsage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	key := usageKey{accountID, weekStart}
	rec, ok := u.weekly[key]
	if !ok {
		rec = domain.WeeklyUsage{AccountID: accountID, WeekStart: weekStart}
	}
	mutate(&rec)
	u.weekly[key] = rec
	return rec, nil
}

// Variants implements domain.VariantRepo in memory.
type Variants struct {
	mu sync.Mutex
	m  map[string]domain.MessageVariantSet
}

// NewVariants creates an empty variant store.
func NewVariants() *Variants {
	return &Variants{m: make(map[string]domain.MessageVariantSet)}
}

// CreateSet implements domain.VariantRepo.
func (v *Variants) CreateSet(_ context.Context, set domain.MessageVariantSet) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.m[set.ID] = cloneSet(set)
	return nil
}

// GetSet implements domain.VariantRepo.
func (v *Variants) GetSet(_ context.Context, setID string) (domain.MessageVariantSet, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	set, ok := v.m[setID]
	if !ok {
		return domain.MessageVariantSet{}, domain.ErrVariantSetNotFound
	}
	return cloneSet(set), nil
}

// MutateSet implements domain.VariantRepo.
func (v *Variants) MutateSet(_ context.Context, setID string, mutate func(*domain.MessageVariantSet) error) (domain.MessageVariantSet, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	set, ok := v.m[setID]
	if !ok {
		return domain.MessageVariantSet{}, domain.ErrVariantSetNotFound
	}
	if err := mutate(&set); err != nil {
		return domain.MessageVariantSet{}, err
	}
	v.m[setID] = cloneSet(set)
	return set, nil
}

func cloneSet(set domain.MessageVariantSet) domain.MessageVariantSet {
	out := set
	out.Variants = append([]string(nil), set.Variants...)
	out.Stats = append([]domain.VariantStats(nil), set.Stats...)
	return out
}

// Tasks implements domain.TaskRepo in memory.
type Tasks struct {
	mu sync.Mutex
	m  map[string]domain.OutreachTask
}

// NewTasks creates an empty task store.
func NewTasks() *Tasks {
	return &Tasks{m: make(map[string]domain.OutreachTask)}
}

// Add seeds a task; intended for tests and local runs.
func (t *Tasks) Add(task domain.OutreachTask) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if task.Status == "" {
		task.Status = domain.TaskPending
	}
	t.m[task.ID] = task
}

// ListWorkspaces implements domain.TaskRepo.
func (t *Tasks) ListWorkspaces(_ context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, task := range t.m {
		if task.Status != domain.TaskPending {
			continue
		}
		if _, ok := seen[task.WorkspaceID]; ok {
			continue
		}
		seen[task.WorkspaceID] = struct{}{}
		out = append(out, task.WorkspaceID)
	}
	sort.Strings(out)
	return out, nil
}

// ListPending implements domain.TaskRepo. Oldest tasks come first so a
// cut-off batch does not starve early arrivals.
func (t *Tasks) ListPending(_ context.Context, workspaceID string, limit int) ([]domain.OutreachTask, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []domain.OutreachTask
	for _, task := range t.m {
		if task.WorkspaceID == workspaceID && task.Status == domain.TaskPending {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SetStatus implements domain.TaskRepo.
func (t *Tasks) SetStatus(_ context.Context, taskID string, status domain.TaskStatus, accountID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.m[taskID]
	if !ok {
		return nil
	}
	task.Status = status
	task.AccountID = accountID
	t.m[taskID] = task
	return nil
}
