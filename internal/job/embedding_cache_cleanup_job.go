package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type EmbeddingCachePurger interface {
	DeleteIdleSince(ctx context.Context, cutoff int64) (int64, error)
}

// EmbeddingCacheCleanupJob drops cached embeddings nobody read for maxAgeDays.
type EmbeddingCacheCleanupJob struct {
	cache      EmbeddingCachePurger
	maxAgeDays int
	now        func() time.Time
}

func NewEmbeddingCacheCleanupJob(cache EmbeddingCachePurger, maxAgeDays int) *EmbeddingCacheCleanupJob {
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	return &EmbeddingCacheCleanupJob{cache: cache, maxAgeDays: maxAgeDays, now: time.Now}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.cache == nil {
		return nil
	}
	cutoff := j.now().Add(-time.Duration(j.maxAgeDays) * 24 * time.Hour).UnixMilli()
	removed, err := j.cache.DeleteIdleSince(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("idle embeddings purged", zap.Int64("removed", removed))
	}
	return nil
}
