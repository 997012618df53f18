// Package variants rotates message texts across their alternatives and
// tracks per-variant outcomes for adaptive weighting.
package variants

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"outreach-engine/internal/domain"
)

// ErrNoVariants is returned when a set is created without any texts.
var ErrNoVariants = errors.New("variant set needs at least one variant")

// Service selects variants and records outcomes.
type Service struct {
	repo domain.VariantRepo

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates the rotator around a seedable random source.
func NewService(repo domain.VariantRepo, rng *rand.Rand) *Service {
	return &Service{repo: repo, rng: rng}
}

// Create registers a new variant set and returns it with its ID filled.
func (s *Service) Create(ctx context.Context, template string, texts []string, strategy domain.VariantStrategy) (domain.MessageVariantSet, error) {
	if len(texts) == 0 {
		return domain.MessageVariantSet{}, ErrNoVariants
	}
	if strategy == "" {
		strategy = domain.StrategySequential
	}
	set := domain.MessageVariantSet{
		ID:        uuid.NewString(),
		Template:  template,
		Variants:  append([]string(nil), texts...),
		Strategy:  strategy,
		Stats:     make([]domain.VariantStats, len(texts)),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateSet(ctx, set); err != nil {
		return domain.MessageVariantSet{}, fmt.Errorf("store variant set: %w", err)
	}
	return set, nil
}

// Next picks the variant to send now and returns its text and index.
// Sequential sets advance their cursor; the other strategies leave the
// stored set untouched.
func (s *Service) Next(ctx context.Context, setID string) (string, int, error) {
	set, err := s.repo.GetSet(ctx, setID)
	if err != nil {
		return "", 0, err
	}

	var index int
	switch set.Strategy {
	case domain.StrategySequential:
		updated, err := s.repo.MutateSet(ctx, setID, func(cur *domain.MessageVariantSet) error {
			index = cur.NextIndex % len(cur.Variants)
			cur.NextIndex = (index + 1) % len(cur.Variants)
			return nil
		})
		if err != nil {
			return "", 0, err
		}
		set = updated
	case domain.StrategyRandom:
		index = s.draw(len(set.Variants))
	case domain.StrategyABTest:
		index = s.weightedDraw(set)
	default:
		index = 0
	}
	return set.Variants[index], index, nil
}

// RecordOutcome bumps one variant's counter. Counters only increase.
func (s *Service) RecordOutcome(ctx context.Context, setID string, index int, outcome domain.VariantOutcome) error {
	_, err := s.repo.MutateSet(ctx, setID, func(cur *domain.MessageVariantSet) error {
		if index < 0 || index >= len(cur.Stats) {
			return domain.ErrVariantIndexOutOfRange
		}
		switch outcome {
		case domain.OutcomeSent:
			cur.Stats[index].Sent++
		case domain.OutcomeOpened:
			cur.Stats[index].Opened++
		case domain.OutcomeReplied:
			cur.Stats[index].Replied++
		}
		return nil
	})
	return err
}

// weightedDraw implements the ab_test strategy: each variant weighs
// replied/sent, unsent variants weigh 1 so every variant gets explored
// before history dominates. All-zero weights fall back to index 0.
func (s *Service) weightedDraw(set domain.MessageVariantSet) int {
	weights := make([]float64, len(set.Variants))
	var sum float64
	for i, stats := range set.Stats {
		if stats.Sent == 0 {
			weights[i] = 1
		} else {
			weights[i] = float64(stats.Replied) / float64(stats.Sent)
		}
		sum += weights[i]
	}
	if sum == 0 {
		return 0
	}

	s.mu.Lock()
	r := s.rng.Float64() * sum
	s.mu.Unlock()
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}

func (s *Service) draw(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
