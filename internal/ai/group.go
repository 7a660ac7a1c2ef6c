package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var errNotConfigured = errors.New("no provider configured")

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

// firstSuccess calls fn on each entry in order until one succeeds. stop
// reports whether a failed attempt must not be retried elsewhere.
func firstSuccess[E any, R any](ctx context.Context, kind string, entries []E, name func(E) string,
	fn func(E) (R, error), stop func() bool) (R, error) {
	var zero R
	lastErr := errNotConfigured
	for i, entry := range entries {
		res, err := fn(entry)
		if err == nil {
			return res, nil
		}
		if stop != nil && stop() {
			return res, err
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("provider attempt failed",
			zap.String("kind", kind), zap.Int("index", i), zap.String("name", name(entry)), zap.Error(err))
	}
	return zero, fmt.Errorf("%s: %w", kind, lastErr)
}

type groupGenerator struct {
	items []GeneratorEntry
}

func NewGroupGenerator(items []GeneratorEntry) IGenerator {
	live := make([]GeneratorEntry, 0, len(items))
	for _, item := range items {
		if item.Generator != nil {
			live = append(live, item)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return &groupGenerator{items: live}
}

func generatorName(e GeneratorEntry) string { return e.Name }

func (g *groupGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	return firstSuccess(ctx, "generate", g.items, generatorName, func(e GeneratorEntry) (string, error) {
		return e.Generator.Generate(ctx, req)
	}, nil)
}

// Stream moves on to the next generator only while nothing has been
// delivered to onToken.
func (g *groupGenerator) Stream(ctx context.Context, req *Request, onToken TokenFunc) (string, error) {
	emitted := false
	return firstSuccess(ctx, "stream", g.items, generatorName, func(e GeneratorEntry) (string, error) {
		return e.Generator.Stream(ctx, req, func(token string) error {
			emitted = true
			if onToken == nil {
				return nil
			}
			return onToken(token)
		})
	}, func() bool { return emitted })
}

// groupEmbedder falls back between embedders that share one vector space.
// The first vector fixes the dimension; a fallback producing another
// dimension is rejected since its vectors cannot be compared with the index.
type groupEmbedder struct {
	items []EmbedderEntry
	dim   atomic.Int64
}

func NewGroupEmbedder(items []EmbedderEntry) IEmbedder {
	live := make([]EmbedderEntry, 0, len(items))
	for _, item := range items {
		if item.Embedder != nil {
			live = append(live, item)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return &groupEmbedder{items: live}
}

func (g *groupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return firstSuccess(ctx, "embed", g.items, func(e EmbedderEntry) string { return e.Name },
		func(e EmbedderEntry) ([]float32, error) {
			vec, err := e.Embedder.Embed(ctx, text, taskType)
			if err != nil {
				return nil, err
			}
			return vec, g.checkDim(len(vec))
		}, nil)
}

func (g *groupEmbedder) checkDim(n int) error {
	if n == 0 {
		return fmt.Errorf("empty embedding")
	}
	if g.dim.CompareAndSwap(0, int64(n)) {
		return nil
	}
	if want := g.dim.Load(); want != int64(n) {
		return fmt.Errorf("embedding dimension %d, want %d", n, want)
	}
	return nil
}

func (g *groupEmbedder) ModelName() string {
	names := make([]string, 0, len(g.items))
	for _, item := range g.items {
		if item.Name != "" {
			names = append(names, item.Name)
		}
	}
	return strings.Join(names, "|")
}
