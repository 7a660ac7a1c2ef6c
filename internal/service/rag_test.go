package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

func TestRAGUsesProbeQueries(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	_, err := f.rag.Summary(ctx, testFile)
	require.NoError(t, err)
	_, err = f.rag.Insight(ctx, testFile)
	require.NoError(t, err)
	_, err = f.rag.Slides(ctx, testFile, 4)
	require.NoError(t, err)
	answer, err := f.rag.Chat(ctx, testFile, nil, "what grew?", nil)
	require.NoError(t, err)
	require.Equal(t, "Revenue grew 10%.", answer)

	require.Equal(t, []string{summaryProbe, insightProbe, slidesProbe, "what grew?"}, f.retriever.Queries)
	require.Equal(t, 4, f.gen.LastCount)
}

func TestRAGNoPassages(t *testing.T) {
	f := newFixture(t, 3)
	_, err := f.rag.Summary(context.Background(), "empty-namespace")
	require.ErrorIs(t, err, appErr.ErrNoContentFound)
	require.Equal(t, 0, f.gen.Calls)
}

func TestRAGRetrievalError(t *testing.T) {
	f := newFixture(t, 3)
	f.retriever.Err = errors.New("vector store down")
	_, err := f.rag.Insight(context.Background(), testFile)
	require.Error(t, err)
	require.Equal(t, 0, f.gen.Calls)
}

func TestOutcomeOf(t *testing.T) {
	require.Equal(t, "ok", outcomeOf(nil))
	require.Equal(t, "no_content", outcomeOf(appErr.ErrNoContentFound))
	require.Equal(t, "malformed", outcomeOf(fmt.Errorf("slides: %w", appErr.ErrMalformedOutput)))
	require.Equal(t, "error", outcomeOf(errors.New("x")))
}
