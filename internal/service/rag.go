package service

import (
	"context"
	"errors"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/ai"
	"github.com/COROTANjayson/readify/internal/metrics"
	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

// Probe queries used to pull broad coverage of a document for the
// whole-document tools.
const (
	summaryProbe = "summary overview main points key information"
	insightProbe = "key insights analysis patterns trends implications recommendations"
	slidesProbe  = "summary key points main topics important information highlights"

	summaryK = 10
	insightK = 15
	slidesK  = 15
	chatK    = 4
)

// Generator produces tool output from retrieved passages.
type Generator interface {
	Summarize(ctx context.Context, passages []string) (string, error)
	ExtractInsight(ctx context.Context, passages []string) (*model.InsightContent, error)
	OutlineSlides(ctx context.Context, passages []string, slideCount int) (*model.SlideDeck, error)
	Chat(ctx context.Context, history []model.Message, passages []string, question string, onToken ai.TokenFunc) (string, error)
}

// RAGOrchestrator grounds every tool run on passages retrieved from the
// file's namespace. It has no side effects beyond retrieval and generation.
type RAGOrchestrator struct {
	retriever Retriever
	gen       Generator
}

func NewRAGOrchestrator(retriever Retriever, gen Generator) *RAGOrchestrator {
	return &RAGOrchestrator{retriever: retriever, gen: gen}
}

func (o *RAGOrchestrator) Summary(ctx context.Context, fileID string) (string, error) {
	var out string
	err := o.run(ctx, model.ToolSummarize, summaryProbe, summaryK, fileID, func(passages []string) error {
		var err error
		out, err = o.gen.Summarize(ctx, passages)
		return err
	})
	return out, err
}

func (o *RAGOrchestrator) Insight(ctx context.Context, fileID string) (*model.InsightContent, error) {
	var out *model.InsightContent
	err := o.run(ctx, model.ToolInsight, insightProbe, insightK, fileID, func(passages []string) error {
		var err error
		out, err = o.gen.ExtractInsight(ctx, passages)
		return err
	})
	return out, err
}

func (o *RAGOrchestrator) Slides(ctx context.Context, fileID string, slideCount int) (*model.SlideDeck, error) {
	var out *model.SlideDeck
	err := o.run(ctx, model.ToolPresentation, slidesProbe, slidesK, fileID, func(passages []string) error {
		var err error
		out, err = o.gen.OutlineSlides(ctx, passages, slideCount)
		return err
	})
	return out, err
}

// Chat answers question from the passages closest to it. history must be
// ordered oldest first. Tokens reach onToken as they are generated and the
// complete answer is returned at the end.
func (o *RAGOrchestrator) Chat(ctx context.Context, fileID string, history []model.Message, question string, onToken ai.TokenFunc) (string, error) {
	var out string
	err := o.run(ctx, model.ToolChat, question, chatK, fileID, func(passages []string) error {
		var err error
		out, err = o.gen.Chat(ctx, history, passages, question, onToken)
		return err
	})
	return out, err
}

func (o *RAGOrchestrator) run(ctx context.Context, tool model.Tool, query string, k int, namespace string, generate func(passages []string) error) error {
	start := time.Now()
	err := o.retrieveAndGenerate(ctx, tool, query, k, namespace, generate)
	metrics.ObserveGeneration(tool.String(), outcomeOf(err), time.Since(start))
	return err
}

func (o *RAGOrchestrator) retrieveAndGenerate(ctx context.Context, tool model.Tool, query string, k int, namespace string, generate func(passages []string) error) error {
	logger := logutil.GetLogger(ctx).With(zap.String("file_id", namespace), zap.String("tool", tool.String()))
	found, err := o.retriever.Search(ctx, query, k, namespace)
	if err != nil {
		return err
	}
	metrics.ObserveRetrieval(tool.String(), len(found))
	if len(found) == 0 {
		logger.Warn("retrieval returned no passages")
		return appErr.ErrNoContentFound
	}
	passages := make([]string, 0, len(found))
	for _, p := range found {
		passages = append(passages, p.Content)
	}
	logger.Debug("passages retrieved", zap.Int("count", len(passages)))
	return generate(passages)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, appErr.ErrNoContentFound):
		return "no_content"
	case errors.Is(err, appErr.ErrMalformedOutput):
		return "malformed"
	default:
		return "error"
	}
}
