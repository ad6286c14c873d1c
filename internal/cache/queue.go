package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// EmbeddingJob asks the worker to embed catalog items that have no vector yet.
type EmbeddingJob struct {
	Reason string   `json:"reason"`          // e.g. "categories", "manual"
	Keys   []string `json:"keys,omitempty"`  // "<kind>:<id>" of the items that triggered the job
	Limit  int      `json:"limit,omitempty"` // max items to embed in this run
}

// DefaultQueue is the Redis list key used for the embedding job queue.
const DefaultQueue = "wolfflix:jobs:embeddings"

// Enqueue pushes a job onto the left side of a Redis list.
func Enqueue(ctx context.Context, r *Redis, queue string, job EmbeddingJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue marshal: %w", err)
	}
	return r.client.LPush(ctx, queue, data).Err()
}

// Dequeue blocks until a job is available on the right side of the list
// or the timeout expires. When the timeout elapses without a job,
// (nil, nil) is returned so the caller can loop and check for shutdown.
func Dequeue(ctx context.Context, r *Redis, queue string, timeout time.Duration) (*EmbeddingJob, error) {
	result, err := r.client.BRPop(ctx, timeout, queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		// Context cancelled during shutdown.
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, nil
	}
	var job EmbeddingJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("queue unmarshal: %w", err)
	}
	return &job, nil
}

// QueueLength returns the number of pending jobs.
func QueueLength(ctx context.Context, r *Redis, queue string) (int64, error) {
	return r.client.LLen(ctx, queue).Result()
}
