package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupGeneratorFallsBack(t *testing.T) {
	g := NewGroupGenerator([]GeneratorEntry{
		{Name: "broken", Generator: &scriptedGenerator{err: errors.New("down")}},
		{Name: "ok", Generator: &scriptedGenerator{output: "done"}},
	})
	out, err := g.Generate(context.Background(), &Request{})
	require.NoError(t, err)
	require.Equal(t, "done", out)
}

type halfStream struct{}

func (halfStream) Generate(ctx context.Context, req *Request) (string, error) {
	return "", errors.New("unused")
}

func (halfStream) Stream(ctx context.Context, req *Request, onToken TokenFunc) (string, error) {
	_ = onToken("partial")
	return "partial", errors.New("connection reset")
}

func TestGroupStreamDoesNotFallBackAfterTokens(t *testing.T) {
	second := &scriptedGenerator{tokens: []string{"other"}}
	g := NewGroupGenerator([]GeneratorEntry{
		{Name: "half", Generator: halfStream{}},
		{Name: "second", Generator: second},
	})
	var got []string
	_, err := g.Stream(context.Background(), &Request{}, func(tok string) error {
		got = append(got, tok)
		return nil
	})
	require.Error(t, err)
	require.Equal(t, []string{"partial"}, got)
	require.Nil(t, second.lastReq)
}

func TestGroupStreamFallsBackBeforeTokens(t *testing.T) {
	g := NewGroupGenerator([]GeneratorEntry{
		{Name: "broken", Generator: &scriptedGenerator{err: errors.New("down")}},
		{Name: "ok", Generator: &scriptedGenerator{tokens: []string{"a", "b"}}},
	})
	out, err := g.Stream(context.Background(), &Request{}, nil)
	require.NoError(t, err)
	require.Equal(t, "ab", out)
}

func TestNewGroupGeneratorEmpty(t *testing.T) {
	require.Nil(t, NewGroupGenerator(nil))
	require.Nil(t, NewGroupEmbedder(nil))
}

type fixedEmbedder struct {
	vec []float32
	err error
}

func (e fixedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.vec, e.err
}

func (e fixedEmbedder) ModelName() string { return "fixed" }

func TestGroupEmbedderRejectsForeignDimension(t *testing.T) {
	primary := &fixedEmbedder{vec: []float32{1, 2, 3}}
	g := NewGroupEmbedder([]EmbedderEntry{
		{Name: "a", Embedder: primary},
		{Name: "b", Embedder: fixedEmbedder{vec: []float32{1, 2}}},
	})
	vec, err := g.Embed(context.Background(), "x", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Len(t, vec, 3)
	require.Equal(t, "a|b", g.ModelName())

	primary.err = errors.New("down")
	_, err = g.Embed(context.Background(), "x", "RETRIEVAL_QUERY")
	require.Error(t, err)
	require.Contains(t, err.Error(), "dimension 2")
}

func TestGroupGeneratorAllFail(t *testing.T) {
	g := NewGroupGenerator([]GeneratorEntry{
		{Name: "a", Generator: &scriptedGenerator{err: errors.New("down")}},
		{Name: "skip"},
	})
	_, err := g.Generate(context.Background(), &Request{})
	require.ErrorContains(t, err, "down")
}
