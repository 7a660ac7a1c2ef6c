package embedcache

import (
	"strings"

	"github.com/COROTANjayson/readify/internal/model"
	"github.com/COROTANjayson/readify/internal/pkg/hashutil"
)

const (
	layerLRU = "lru"
	layerDB  = "db"
)

func keyOf(modelName, taskType, text string) model.EmbeddingKey {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	return model.EmbeddingKey{
		Model:    modelName,
		TaskType: taskType,
		Digest:   hashutil.ContentHash(text),
	}
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
