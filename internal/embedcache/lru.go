package embedcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/COROTANjayson/readify/internal/ai"
	"github.com/COROTANjayson/readify/internal/metrics"
	"github.com/COROTANjayson/readify/internal/model"
)

// WithLRU keeps up to size vectors in process for ttl. Returned slices are
// copies, so callers may mutate them.
func WithLRU(next ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &memoryEmbedder{
		next:    next,
		vectors: expirable.NewLRU[model.EmbeddingKey, []float32](size, nil, ttl),
	}
}

type memoryEmbedder struct {
	next    ai.IEmbedder
	vectors *expirable.LRU[model.EmbeddingKey, []float32]
}

func (m *memoryEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := keyOf(m.next.ModelName(), taskType, text)
	if vec, ok := m.vectors.Get(key); ok {
		metrics.ObserveEmbedCache(layerLRU, true)
		return cloneEmbedding(vec), nil
	}
	metrics.ObserveEmbedCache(layerLRU, false)
	vec, err := m.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	m.vectors.Add(key, cloneEmbedding(vec))
	return vec, nil
}

func (m *memoryEmbedder) ModelName() string {
	return m.next.ModelName()
}
