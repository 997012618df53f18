package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/infra/metrics"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// CreateSet implements domain.VariantRepo.
func (p *Postgres) CreateSet(ctx context.Context, set domain.MessageVariantSet) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	variants, err := json.Marshal(set.Variants)
	if err != nil {
		return fmt.Errorf("encode variants: %w", err)
	}
	stats, err := json.Marshal(set.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	start := time.Now()
	_, err = p.pool.Exec(ctx, `
INSERT INTO variant_sets (id, template, variants, strategy, stats, next_index, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, set.ID, set.Template, variants, set.Strategy, stats, set.NextIndex, set.CreatedAt)
	metrics.ObserveStoreRequest("postgres", "variant_create", start, err)
	if err != nil {
		return fmt.Errorf("insert variant set: %w", err)
	}
	return nil
}

// GetSet implements domain.VariantRepo.
func (p *Postgres) GetSet(ctx context.Context, setID string) (domain.MessageVariantSet, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	set, err := scanVariantSet(p.pool.QueryRow(ctx, `
SELECT id, template, variants, strategy, stats, next_index, created_at
FROM variant_sets WHERE id = $1
`, setID))
	metrics.ObserveStoreRequest("postgres", "variant_get", start, err)
	if isNoRows(err) {
		return domain.MessageVariantSet{}, domain.ErrVariantSetNotFound
	}
	if err != nil {
		return domain.MessageVariantSet{}, fmt.Errorf("select variant set: %w", err)
	}
	return set, nil
}

// MutateSet implements domain.VariantRepo with a row lock around the
// callback, mirroring the usage store's exclusive section.
func (p *Postgres) MutateSet(ctx context.Context, setID string, mutate func(*domain.MessageVariantSet) error) (domain.MessageVariantSet, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.MessageVariantSet{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	set, err := scanVariantSet(tx.QueryRow(ctx, `
SELECT id, template, variants, strategy, stats, next_index, created_at
FROM variant_sets WHERE id = $1 FOR UPDATE
`, setID))
	if isNoRows(err) {
		return domain.MessageVariantSet{}, domain.ErrVariantSetNotFound
	}
	if err != nil {
		return domain.MessageVariantSet{}, fmt.Errorf("lock variant set: %w", err)
	}

	if err := mutate(&set); err != nil {
		return domain.MessageVariantSet{}, err
	}

	stats, err := json.Marshal(set.Stats)
	if err != nil {
		return domain.MessageVariantSet{}, fmt.Errorf("encode stats: %w", err)
	}
	if _, err := tx.Exec(ctx, `
UPDATE variant_sets SET stats = $2, next_index = $3 WHERE id = $1
`, setID, stats, set.NextIndex); err != nil {
		return domain.MessageVariantSet{}, fmt.Errorf("update variant set: %w", err)
	}

	err = tx.Commit(ctx)
	metrics.ObserveStoreRequest("postgres", "variant_mutate", start, err)
	if err != nil {
		return domain.MessageVariantSet{}, fmt.Errorf("commit: %w", err)
	}
	return set, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVariantSet(row rowScanner) (domain.MessageVariantSet, error) {
	var (
		set      domain.MessageVariantSet
		variants []byte
		stats    []byte
	)
	if err := row.Scan(&set.ID, &set.Template, &variants, &set.Strategy, &stats, &set.NextIndex, &set.CreatedAt); err != nil {
		return domain.MessageVariantSet{}, err
	}
	if err := json.Unmarshal(variants, &set.Variants); err != nil {
		return domain.MessageVariantSet{}, fmt.Errorf("decode variants: %w", err)
	}
	if err := json.Unmarshal(stats, &set.Stats); err != nil {
		return domain.MessageVariantSet{}, fmt.Errorf("decode stats: %w", err)
	}
	return set, nil
}
