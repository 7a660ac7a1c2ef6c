package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/COROTANjayson/readify/internal/config"
	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
	"github.com/COROTANjayson/readify/internal/service/servicetest"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

func newFileService(files *servicetest.FileRepo, blobs *servicetest.BlobStore) *FileService {
	return NewFileService(files, blobs, FileServiceConfig{
		MaxSizeBytes: 1024,
		Quota: config.QuotaConfig{
			ChatLimit:         20,
			SummarizeLimit:    3,
			InsightLimit:      3,
			PresentationLimit: 2,
		},
	})
}

func TestUploadRegistersPendingFile(t *testing.T) {
	files := servicetest.NewFileRepo()
	blobs := servicetest.NewBlobStore()
	svc := newFileService(files, blobs)
	ctx := context.Background()

	file, err := svc.Upload(ctx, testUser, "reports/Q3.pdf", bytes.NewReader(samplePDF), int64(len(samplePDF)))
	require.NoError(t, err)
	require.Equal(t, "Q3.pdf", file.Name)
	require.Equal(t, model.UploadStatusPending, file.UploadStatus)
	require.Equal(t, file.ID+".pdf", file.Key)
	require.True(t, blobs.Has(file.Key))

	got, err := svc.Get(ctx, testUser, file.ID)
	require.NoError(t, err)
	require.Equal(t, model.Usage{Limit: 20}, got.Quota.Of(model.ToolChat))
	require.Equal(t, model.Usage{Limit: 2}, got.Quota.Of(model.ToolPresentation))

	status, err := svc.Status(ctx, testUser, file.ID)
	require.NoError(t, err)
	require.Equal(t, model.UploadStatusPending, status)

	list, err := svc.List(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestUploadRejects(t *testing.T) {
	svc := newFileService(servicetest.NewFileRepo(), servicetest.NewBlobStore())
	ctx := context.Background()

	text := []byte("plain text, not a document")
	_, err := svc.Upload(ctx, testUser, "notes.pdf", bytes.NewReader(text), int64(len(text)))
	require.ErrorIs(t, err, appErr.ErrInvalid)

	big := append(append([]byte{}, samplePDF...), make([]byte, 2048)...)
	_, err = svc.Upload(ctx, testUser, "big.pdf", bytes.NewReader(big), int64(len(big)))
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Upload(ctx, testUser, "empty.pdf", bytes.NewReader(nil), 0)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestStatusOfUnknownFileIsPending(t *testing.T) {
	svc := newFileService(servicetest.NewFileRepo(), servicetest.NewBlobStore())
	status, err := svc.Status(context.Background(), testUser, "nope")
	require.NoError(t, err)
	require.Equal(t, model.UploadStatusPending, status)
}

func TestDeleteHidesFile(t *testing.T) {
	f := newFixture(t, 3)
	svc := newFileService(f.files, f.blobs)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, testUser, testFile))
	_, err := svc.Get(ctx, testUser, testFile)
	require.True(t, appErr.IsNotFound(err))
	require.True(t, appErr.IsNotFound(svc.Delete(ctx, testUser, testFile)))

	_, err = newChatService(f).Send(ctx, testUser, testFile, "hello", nil)
	require.True(t, appErr.IsNotFound(err))
}
