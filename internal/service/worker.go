package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voyagen/wolfflix/internal/cache"
	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/metrics"
)

const (
	workerLockKey = "wolfflix:lock:embeddings"
	workerLockTTL = 10 * time.Minute
	dequeueWait   = 5 * time.Second
	errorBackoff  = 2 * time.Second
)

// RunWorker dequeues embedding jobs until ctx is cancelled. Only one
// worker across all instances refreshes at a time; a job that finds the
// lock taken is dropped, since the holder is already draining the backlog.
func (ix *Indexer) RunWorker(ctx context.Context) {
	log := logging.Component("embedding-worker")
	if ix.redis == nil || ix.embedder == nil {
		log.Warn().Msg("worker needs redis and an embedder; not started")
		return
	}
	log.Info().Msg("embedding worker started")
	for {
		if ctx.Err() != nil {
			log.Info().Msg("embedding worker stopping")
			return
		}

		job, err := cache.Dequeue(ctx, ix.redis, ix.queue, dequeueWait)
		if err != nil {
			log.Error().Err(err).Msg("dequeue")
			sleep(ctx, errorBackoff)
			continue
		}
		if job == nil {
			continue
		}
		ix.process(ctx, job)
	}
}

func (ix *Indexer) process(ctx context.Context, job *cache.EmbeddingJob) {
	log := logging.Component("embedding-worker").With().
		Str("reason", job.Reason).Int("keys", len(job.Keys)).Logger()

	unlock, err := cache.TryLock(ctx, ix.redis, workerLockKey, workerLockTTL)
	if errors.Is(err, cache.ErrLocked) {
		metrics.EmbeddingJobs.WithLabelValues("skipped").Inc()
		log.Debug().Msg("refresh already running elsewhere")
		return
	}
	if err != nil {
		metrics.EmbeddingJobs.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("lock")
		return
	}
	defer unlock()

	n, err := ix.RefreshEmbeddings(ctx, job.Limit)
	if err != nil {
		metrics.EmbeddingJobs.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("refresh embeddings")
		return
	}
	metrics.EmbeddingJobs.WithLabelValues("done").Inc()
	log.Info().Int("embedded", n).Msg("job processed")
}

// Backlog describes embedding work not yet done.
type Backlog struct {
	Queued     int64 `json:"queued"`
	Refreshing bool  `json:"refreshing"`
}

// Backlog reports queued embedding jobs and whether a worker holds the
// refresh lock. It returns a zero Backlog when no queue is configured.
func (ix *Indexer) Backlog(ctx context.Context) (Backlog, error) {
	if ix.redis == nil {
		return Backlog{}, nil
	}
	n, err := cache.QueueLength(ctx, ix.redis, ix.queue)
	if err != nil {
		return Backlog{}, fmt.Errorf("Backlog: %w", err)
	}
	return Backlog{Queued: n, Refreshing: cache.IsLocked(ctx, ix.redis, workerLockKey)}, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
