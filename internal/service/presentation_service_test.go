package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/COROTANjayson/readify/internal/filestore"
	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

func newPresentationService(f *fixture) *PresentationService {
	return NewPresentationService(f.files, f.presentations, f.blobs, f.ledger, f.rag)
}

func intPtr(v int) *int {
	return &v
}

func TestNormalizeSlideCount(t *testing.T) {
	tests := []struct {
		name    string
		in      *int
		want    int
		wantErr bool
	}{
		{name: "default", in: nil, want: DefaultSlideCount},
		{name: "min", in: intPtr(1), want: 1},
		{name: "max", in: intPtr(MaxSlideCount), want: MaxSlideCount},
		{name: "zero", in: intPtr(0), wantErr: true},
		{name: "too many", in: intPtr(MaxSlideCount + 1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSlideCount(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, appErr.ErrInvalid)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPresentationGenerateAndDownload(t *testing.T) {
	f := newFixture(t, 3)
	svc := newPresentationService(f)
	ctx := context.Background()

	res, err := svc.Generate(ctx, testUser, testFile, nil, false)
	require.NoError(t, err)
	require.True(t, res.IsNew)
	require.Equal(t, DefaultSlideCount, f.gen.LastCount)
	p := res.Presentation
	require.Equal(t, "Quarterly Report_presentation.pptx", p.FileName)
	require.Equal(t, "/api/v1/files/file-1/download/presentation", p.DownloadURL)
	require.Equal(t, 2, p.SlideCount)
	require.True(t, f.blobs.Has(filestore.DeckKey(testFile)))

	meta, rc, err := svc.Download(ctx, testUser, testFile)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "PK", string(data[:2]))
	require.Equal(t, p.FileName, meta.FileName)

	cached, err := svc.Generate(ctx, testUser, testFile, intPtr(3), false)
	require.NoError(t, err)
	require.False(t, cached.IsNew)
	require.Equal(t, 1, f.usage(model.ToolPresentation).Count)
}

func TestPresentationInvalidCountDoesNotReserve(t *testing.T) {
	f := newFixture(t, 3)
	svc := newPresentationService(f)
	_, err := svc.Generate(context.Background(), testUser, testFile, intPtr(25), false)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Equal(t, 0, f.usage(model.ToolPresentation).Count)
}

func TestPresentationMalformedRollsBack(t *testing.T) {
	f := newFixture(t, 3)
	f.gen.Err = fmt.Errorf("slides: %w", appErr.ErrMalformedOutput)
	svc := newPresentationService(f)

	_, err := svc.Generate(context.Background(), testUser, testFile, nil, false)
	require.ErrorIs(t, err, appErr.ErrMalformedOutput)
	require.Equal(t, 0, f.usage(model.ToolPresentation).Count)
	require.False(t, f.blobs.Has(filestore.DeckKey(testFile)))
}

func TestPresentationPersistFailureRemovesBlob(t *testing.T) {
	f := newFixture(t, 3)
	f.presentations.Err = errors.New("write failed")
	svc := newPresentationService(f)

	_, err := svc.Generate(context.Background(), testUser, testFile, nil, false)
	require.Error(t, err)
	require.False(t, f.blobs.Has(filestore.DeckKey(testFile)))
	require.Equal(t, 0, f.usage(model.ToolPresentation).Count)
}

func TestPresentationDelete(t *testing.T) {
	f := newFixture(t, 3)
	svc := newPresentationService(f)
	ctx := context.Background()

	res, err := svc.Generate(ctx, testUser, testFile, nil, false)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, testUser, res.Presentation.ID))
	require.False(t, f.blobs.Has(filestore.DeckKey(testFile)))
	_, _, err = svc.Download(ctx, testUser, testFile)
	require.True(t, appErr.IsNotFound(err))

	err = svc.Delete(ctx, testUser, res.Presentation.ID)
	require.True(t, appErr.IsNotFound(err))
}

func TestPresentationHiddenAfterFileDelete(t *testing.T) {
	f := newFixture(t, 3)
	svc := newPresentationService(f)
	ctx := context.Background()

	_, err := svc.Generate(ctx, testUser, testFile, nil, false)
	require.NoError(t, err)
	require.NoError(t, f.files.SoftDelete(ctx, testUser, testFile, 10))

	_, err = svc.Get(ctx, testUser, testFile)
	require.True(t, appErr.IsNotFound(err))
	_, _, err = svc.Download(ctx, testUser, testFile)
	require.True(t, appErr.IsNotFound(err))
}

func TestPresentationList(t *testing.T) {
	f := newFixture(t, 3)
	svc := newPresentationService(f)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.presentations.Upsert(ctx, &model.Presentation{
			ID:     fmt.Sprintf("p-%d", i),
			FileID: fmt.Sprintf("f-%d", i),
			UserID: testUser,
			Ctime:  int64(i + 1),
		})
		require.NoError(t, err)
	}

	page, next, err := svc.List(ctx, testUser, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "p-2", page[0].ID)
	require.Equal(t, "p-0", next)

	page, next, err = svc.List(ctx, testUser, next, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Empty(t, next)
}
