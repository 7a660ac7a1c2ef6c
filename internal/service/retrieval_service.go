package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/COROTANjayson/readify/internal/ai"
	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

type Embedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

// Retriever ranks the passages of one namespace against a query, most
// similar first.
type Retriever interface {
	Search(ctx context.Context, query string, k int, namespace string) ([]model.Passage, error)
}

type RetrievalService struct {
	embedder Embedder
	chunks   ChunkRepository
}

func NewRetrievalService(embedder Embedder, chunks ChunkRepository) *RetrievalService {
	return &RetrievalService{embedder: embedder, chunks: chunks}
}

func (s *RetrievalService) Search(ctx context.Context, query string, k int, namespace string) ([]model.Passage, error) {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 || namespace == "" {
		return nil, fmt.Errorf("%w: query, k and namespace are required", appErr.ErrInvalid)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	vec, err := s.embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.chunks.Search(ctx, namespace, vec, k)
}
