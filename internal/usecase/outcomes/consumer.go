// Package outcomes feeds the execution driver's reports back into the
// usage counters and variant statistics.
package outcomes

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/usecase/usage"
	"outreach-engine/internal/usecase/variants"
)

// Consumer drains the outcome queue. Counter mutations happen here and
// only here, strictly after a real outcome, so admission checks stay
// side-effect free.
type Consumer struct {
	queue    domain.OutcomeQueue
	tracker  *usage.Tracker
	variants *variants.Service
	logger   zerolog.Logger
}

// NewConsumer creates the consumer.
func NewConsumer(queue domain.OutcomeQueue, tracker *usage.Tracker, vars *variants.Service, logger zerolog.Logger) *Consumer {
	return &Consumer{queue: queue, tracker: tracker, variants: vars, logger: logger}
}

// Run consumes events until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		event, ack, err := c.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return err
		}
		if err := c.process(ctx, event); err != nil {
			c.logger.Error().Err(err).Str("job", event.JobID).Msg("outcomes: processing failed, requeueing")
			_ = ack(false)
			continue
		}
		_ = ack(true)
	}
}

func (c *Consumer) process(ctx context.Context, event domain.OutcomeEvent) error {
	now := event.OccurredAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if err := c.tracker.RecordAction(ctx, event.AccountID, event.Action, event.Success, event.Error, now); err != nil {
		// An unknown account cannot be retried into existence.
		if errors.Is(err, domain.ErrProfileNotFound) {
			c.logger.Warn().Str("account", event.AccountID).Msg("outcomes: report for unknown account dropped")
			return nil
		}
		return err
	}
	if event.ConnectionAccepted {
		if err := c.tracker.RecordConnectionAccepted(ctx, event.AccountID, now); err != nil {
			return err
		}
	}
	if event.PendingInvitations != nil {
		if err := c.tracker.UpdatePendingInvitations(ctx, event.AccountID, *event.PendingInvitations, now); err != nil {
			return err
		}
	}
	if event.VariantSetID != "" && event.VariantOutcome != "" {
		if err := c.variants.RecordOutcome(ctx, event.VariantSetID, event.VariantIndex, event.VariantOutcome); err != nil {
			if errors.Is(err, domain.ErrVariantSetNotFound) || errors.Is(err, domain.ErrVariantIndexOutOfRange) {
				c.logger.Warn().Str("set", event.VariantSetID).Int("index", event.VariantIndex).Msg("outcomes: bad variant reference dropped")
				return nil
			}
			return err
		}
	}
	return nil
}
