package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/infra/metrics"
)

// RedisAssignmentQueue carries assignment jobs to the execution driver
// over a Redis list.
type RedisAssignmentQueue struct {
	client *redis.Client
	key    string
}

// NewRedisAssignmentQueue creates the queue on the given list key.
func NewRedisAssignmentQueue(client *redis.Client, key string) *RedisAssignmentQueue {
	return &RedisAssignmentQueue{client: client, key: key}
}

// Enqueue publishes one assignment job.
func (q *RedisAssignmentQueue) Enqueue(ctx context.Context, job domain.AssignmentJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		metrics.QueuePublishErrors.WithLabelValues(q.key).Inc()
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop blocks until a job is available or ctx is done.
func (q *RedisAssignmentQueue) Pop(ctx context.Context) (domain.AssignmentJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.AssignmentJob{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.AssignmentJob{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.AssignmentJob{}, err
		}
		if len(res) != 2 {
			return domain.AssignmentJob{}, errors.New("redis queue: unexpected response")
		}
		var job domain.AssignmentJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return domain.AssignmentJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}
