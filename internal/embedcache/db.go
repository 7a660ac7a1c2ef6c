package embedcache

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/ai"
	"github.com/COROTANjayson/readify/internal/metrics"
	"github.com/COROTANjayson/readify/internal/model"
)

// Store persists vectors across restarts. Lookup refreshes the access time
// of a hit.
type Store interface {
	Lookup(ctx context.Context, key model.EmbeddingKey, now int64) ([]float32, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCache) error
}

// WithStore reads through store before calling next. Store failures only
// cost a provider call.
func WithStore(next ai.IEmbedder, store Store) ai.IEmbedder {
	if next == nil || store == nil {
		return next
	}
	return &storeEmbedder{next: next, store: store, now: time.Now}
}

type storeEmbedder struct {
	next  ai.IEmbedder
	store Store
	now   func() time.Time
}

func (s *storeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	logger := logutil.GetLogger(ctx)
	key := keyOf(s.next.ModelName(), taskType, text)
	now := s.now().UnixMilli()

	vec, ok, err := s.store.Lookup(ctx, key, now)
	switch {
	case err != nil:
		logger.Warn("embedding store lookup failed", zap.String("model", key.Model), zap.Error(err))
	case ok:
		metrics.ObserveEmbedCache(layerDB, true)
		return vec, nil
	default:
		metrics.ObserveEmbedCache(layerDB, false)
	}

	vec, err = s.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, &model.EmbeddingCache{Key: key, Embedding: vec, Ctime: now, Atime: now}); err != nil {
		logger.Warn("embedding store save failed", zap.String("model", key.Model), zap.Error(err))
	}
	return vec, nil
}

func (s *storeEmbedder) ModelName() string {
	return s.next.ModelName()
}
