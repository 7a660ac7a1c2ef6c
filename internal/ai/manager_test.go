package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

type scriptedGenerator struct {
	output  string
	tokens  []string
	err     error
	lastReq *Request
}

func (g *scriptedGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	g.lastReq = req
	return g.output, g.err
}

func (g *scriptedGenerator) Stream(ctx context.Context, req *Request, onToken TokenFunc) (string, error) {
	g.lastReq = req
	if g.err != nil {
		return "", g.err
	}
	var sb strings.Builder
	for _, tok := range g.tokens {
		sb.WriteString(tok)
		if onToken != nil {
			_ = onToken(tok)
		}
	}
	return sb.String(), nil
}

func TestManagerSummarizeJoinsPassagesInOrder(t *testing.T) {
	gen := &scriptedGenerator{output: "<h1>Document Summary</h1>"}
	m := NewManager(gen, nil, ManagerConfig{Timeout: 5})
	out, err := m.Summarize(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Equal(t, "<h1>Document Summary</h1>", out)
	require.Equal(t, summarySystem, gen.lastReq.System)
	require.InDelta(t, 0.3, gen.lastReq.Temperature, 0.0001)
	require.Contains(t, gen.lastReq.Messages[0].Content, "first\n\nsecond")
}

func TestManagerOutlineSlidesMalformed(t *testing.T) {
	gen := &scriptedGenerator{output: `{"slides":[]}`}
	m := NewManager(gen, nil, ManagerConfig{})
	_, err := m.OutlineSlides(context.Background(), []string{"p"}, 7)
	require.ErrorIs(t, err, appErr.ErrMalformedOutput)
	require.Contains(t, gen.lastReq.Messages[0].Content, "Create a 7-slide presentation outline")
}

func TestManagerEmptyOutputIsMalformed(t *testing.T) {
	m := NewManager(&scriptedGenerator{output: "   "}, nil, ManagerConfig{})
	_, err := m.ExtractInsight(context.Background(), []string{"p"})
	require.ErrorIs(t, err, appErr.ErrMalformedOutput)
}

func TestManagerGeneratorErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	m := NewManager(&scriptedGenerator{err: boom}, nil, ManagerConfig{})
	_, err := m.Summarize(context.Background(), []string{"p"})
	require.ErrorIs(t, err, boom)
	require.False(t, errors.Is(err, appErr.ErrMalformedOutput))
}

func TestManagerChatPrompt(t *testing.T) {
	gen := &scriptedGenerator{tokens: []string{"Hel", "lo"}}
	m := NewManager(gen, nil, ManagerConfig{})
	history := []model.Message{
		{IsUserMessage: true, Text: "hi"},
		{IsUserMessage: false, Text: "hello there"},
	}
	var got []string
	answer, err := m.Chat(context.Background(), history, []string{"ctx1", "ctx2"}, "what?", func(tok string) error {
		got = append(got, tok)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Hello", answer)
	require.Equal(t, []string{"Hel", "lo"}, got)

	prompt := gen.lastReq.Messages[0].Content
	require.Equal(t, chatSystem, gen.lastReq.System)
	require.Zero(t, gen.lastReq.Temperature)
	require.Contains(t, prompt, "PREVIOUS CONVERSATION:\nUser: hi\nAssistant: hello there")
	require.Contains(t, prompt, "CONTEXT:\nctx1\n\nctx2")
	require.True(t, strings.HasSuffix(prompt, "USER INPUT:\nwhat?"))
	require.Less(t, strings.Index(prompt, "PREVIOUS CONVERSATION"), strings.Index(prompt, "CONTEXT:"))
}
