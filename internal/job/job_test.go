package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	cutoff int64
	err    error
}

func (p *fakePurger) DeleteIdleSince(ctx context.Context, cutoff int64) (int64, error) {
	p.cutoff = cutoff
	return 3, p.err
}

func TestEmbeddingCacheCleanupCutoff(t *testing.T) {
	purger := &fakePurger{}
	j := NewEmbeddingCacheCleanupJob(purger, 2)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, now.Add(-48*time.Hour).UnixMilli(), purger.cutoff)

	purger.err = errors.New("db down")
	require.Error(t, j.Run(context.Background()))
}

type fakeIngester struct {
	batch uint
	err   error
}

func (i *fakeIngester) IngestPending(ctx context.Context, batch uint) (int, error) {
	i.batch = batch
	return 1, i.err
}

func TestIngestJob(t *testing.T) {
	ing := &fakeIngester{}
	j := NewIngestJob(ing, 0)
	require.Equal(t, "ingest_pending_files", j.Name())
	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, uint(5), ing.batch)

	ing.err = errors.New("boom")
	require.Error(t, j.Run(context.Background()))
}
