package servicetest

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/COROTANjayson/readify/internal/ai"
	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

type BlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	// SaveErr, when set, fails every Save.
	SaveErr error
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: map[string][]byte{}}
}

func (s *BlobStore) Save(ctx context.Context, key string, r io.ReadSeeker, size int64) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *BlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return appErr.ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}

func (s *BlobStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok
}

// Retriever serves fixed passages per namespace and records the queries it
// received.
type Retriever struct {
	mu       sync.Mutex
	passages map[string][]model.Passage
	Err      error
	Queries  []string
}

func NewRetriever() *Retriever {
	return &Retriever{passages: map[string][]model.Passage{}}
}

func (r *Retriever) Set(namespace string, texts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ps []model.Passage
	for i, t := range texts {
		ps = append(ps, model.Passage{Content: t, Page: 1, Score: 1 - float64(i)/10})
	}
	r.passages[namespace] = ps
}

func (r *Retriever) Search(ctx context.Context, query string, k int, namespace string) ([]model.Passage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Queries = append(r.Queries, query)
	if r.Err != nil {
		return nil, r.Err
	}
	ps := r.passages[namespace]
	if len(ps) > k {
		ps = ps[:k]
	}
	return ps, nil
}

// Generator returns canned results. Err, when set, fails every call.
type Generator struct {
	mu      sync.Mutex
	Summary string
	Insight *model.InsightContent
	Deck    *model.SlideDeck
	Tokens  []string
	Err     error

	Calls       int
	LastHistory []model.Message
	LastCount   int
}

func (g *Generator) record() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
}

func (g *Generator) Summarize(ctx context.Context, passages []string) (string, error) {
	g.record()
	if g.Err != nil {
		return "", g.Err
	}
	return g.Summary, nil
}

func (g *Generator) ExtractInsight(ctx context.Context, passages []string) (*model.InsightContent, error) {
	g.record()
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Insight, nil
}

func (g *Generator) OutlineSlides(ctx context.Context, passages []string, slideCount int) (*model.SlideDeck, error) {
	g.record()
	g.mu.Lock()
	g.LastCount = slideCount
	g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Deck, nil
}

func (g *Generator) Chat(ctx context.Context, history []model.Message, passages []string, question string, onToken ai.TokenFunc) (string, error) {
	g.record()
	g.mu.Lock()
	g.LastHistory = append([]model.Message(nil), history...)
	g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	var out string
	for _, tok := range g.Tokens {
		if onToken != nil {
			if err := onToken(tok); err != nil {
				return out, err
			}
		}
		out += tok
	}
	return out, nil
}

// Embedder returns a vector derived from the text length.
type Embedder struct {
	mu    sync.Mutex
	Err   error
	Calls int
}

func (e *Embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.mu.Lock()
	e.Calls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	return []float32{float32(len(text)), 1, 0}, nil
}
