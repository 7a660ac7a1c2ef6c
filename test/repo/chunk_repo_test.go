package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/COROTANjayson/readify/internal/model"
	"github.com/COROTANjayson/readify/internal/repo"
	"github.com/COROTANjayson/readify/test/testutil"
)

func TestChunkRepoSearchIsScopedToNamespace(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	files := repo.NewFileRepo(db)
	chunks := repo.NewChunkRepo(db)
	a := newTestFile(t, files, "user-1", 1)
	b := newTestFile(t, files, "user-1", 1)
	ctx := context.Background()

	mk := func(fileID string, pos int, content string, vec []float32) model.Chunk {
		return model.Chunk{
			ID:          uuid.NewString(),
			FileID:      fileID,
			Position:    pos,
			Page:        1,
			Content:     content,
			ContentHash: content,
			Embedding:   vec,
			Ctime:       1,
		}
	}
	require.NoError(t, chunks.ReplaceNamespace(ctx, a.ID, []model.Chunk{
		mk(a.ID, 0, "far", []float32{0, 1, 0}),
		mk(a.ID, 1, "near", []float32{1, 0.1, 0}),
	}))
	require.NoError(t, chunks.ReplaceNamespace(ctx, b.ID, []model.Chunk{
		mk(b.ID, 0, "other file", []float32{1, 0, 0}),
	}))

	got, err := chunks.Search(ctx, a.ID, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "near", got[0].Content)
	require.Greater(t, got[0].Score, got[1].Score)

	require.NoError(t, chunks.ReplaceNamespace(ctx, a.ID, nil))
	got, err = chunks.Search(ctx, a.ID, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Empty(t, got)
}
