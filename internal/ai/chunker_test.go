package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkerKeepsPages(t *testing.T) {
	c := NewChunker()
	chunks := c.Chunk(context.Background(), []Page{
		{Number: 1, Text: "intro paragraph\n\nsecond paragraph"},
		{Number: 2, Text: "   "},
		{Number: 3, Text: "closing words"},
	})
	require.Len(t, chunks, 2)
	require.Equal(t, 1, chunks[0].Page)
	require.Equal(t, "intro paragraph\n\nsecond paragraph", chunks[0].Content)
	require.Equal(t, 3, chunks[1].Page)
	require.Equal(t, 1, chunks[1].Position)
	require.NotEmpty(t, chunks[0].ContentHash)
	require.NotEqual(t, chunks[0].ContentHash, chunks[1].ContentHash)
}

func TestChunkerSplitsLongPagesWithOverlap(t *testing.T) {
	var paras []string
	for i := 0; i < 30; i++ {
		paras = append(paras, strings.TrimSpace(strings.Repeat("word ", 50)))
	}
	c := NewChunker()
	chunks := c.Chunk(context.Background(), []Page{{Number: 1, Text: strings.Join(paras, "\n\n")}})
	require.Greater(t, len(chunks), 3)
	for i, ch := range chunks {
		require.LessOrEqual(t, ch.TokenCount, defaultChunkTokens)
		require.Equal(t, i, ch.Position)
	}
	// the last paragraph of a chunk opens the next one
	first := strings.Split(chunks[0].Content, "\n\n")
	second := strings.Split(chunks[1].Content, "\n\n")
	require.Equal(t, first[len(first)-1], second[0])
}

func TestChunkerSplitsOversizedParagraph(t *testing.T) {
	c := NewChunker()
	chunks := c.Chunk(context.Background(), []Page{{Number: 4, Text: strings.Repeat("token ", 1000)}})
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		require.Equal(t, 4, ch.Page)
		require.LessOrEqual(t, ch.TokenCount, defaultChunkTokens)
	}
}

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 0, estimateTokens(""))
	require.Equal(t, 3, estimateTokens("one two three"))
	require.Equal(t, 3, estimateTokens("中文"))
}
