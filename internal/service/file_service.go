package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/config"
	"github.com/COROTANjayson/readify/internal/filestore"
	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

const pdfContentType = "application/pdf"

type FileServiceConfig struct {
	MaxSizeBytes int64
	Quota        config.QuotaConfig
}

type FileService struct {
	files FileRepository
	blobs filestore.Store
	cfg   FileServiceConfig
}

func NewFileService(files FileRepository, blobs filestore.Store, cfg FileServiceConfig) *FileService {
	return &FileService{files: files, blobs: blobs, cfg: cfg}
}

// Upload stores a PDF and registers it for ingestion. The content type is
// sniffed from the data, not taken from the client.
func (s *FileService) Upload(ctx context.Context, userID, name string, r io.ReadSeeker, size int64) (*model.File, error) {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: file name is required", appErr.ErrInvalid)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: file is empty", appErr.ErrInvalid)
	}
	if s.cfg.MaxSizeBytes > 0 && size > s.cfg.MaxSizeBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", appErr.ErrInvalid, s.cfg.MaxSizeBytes)
	}
	if err := sniffPDF(r); err != nil {
		return nil, err
	}

	fileID := newID()
	key := filestore.UploadKey(fileID)
	if err := s.blobs.Save(ctx, key, r, size); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	now := nowMillis()
	file := &model.File{
		ID:           fileID,
		UserID:       userID,
		Name:         name,
		Key:          key,
		Size:         size,
		UploadStatus: model.UploadStatusPending,
		Quota:        quotaFrom(s.cfg.Quota),
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.files.Create(ctx, file); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			logutil.GetLogger(ctx).Error("remove orphan upload failed", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	logutil.GetLogger(ctx).Info("file uploaded",
		zap.String("file_id", fileID),
		zap.String("user_id", userID),
		zap.Int64("size", size),
	)
	return file, nil
}

func sniffPDF(r io.ReadSeeker) error {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("read upload: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}
	if http.DetectContentType(head[:n]) != pdfContentType {
		return fmt.Errorf("%w: only PDF files are accepted", appErr.ErrInvalid)
	}
	return nil
}

func quotaFrom(cfg config.QuotaConfig) model.Quota {
	var q model.Quota
	q[model.ToolChat].Limit = cfg.ChatLimit
	q[model.ToolSummarize].Limit = cfg.SummarizeLimit
	q[model.ToolInsight].Limit = cfg.InsightLimit
	q[model.ToolPresentation].Limit = cfg.PresentationLimit
	return q
}

func (s *FileService) List(ctx context.Context, userID string) ([]model.File, error) {
	return s.files.ListByUser(ctx, userID)
}

func (s *FileService) Get(ctx context.Context, userID, fileID string) (*model.File, error) {
	return s.files.GetByID(ctx, userID, fileID)
}

// Status reports PENDING for files that are not visible yet.
func (s *FileService) Status(ctx context.Context, userID, fileID string) (model.UploadStatus, error) {
	file, err := s.files.GetByID(ctx, userID, fileID)
	if appErr.IsNotFound(err) {
		return model.UploadStatusPending, nil
	}
	if err != nil {
		return "", err
	}
	return file.UploadStatus, nil
}

// Delete hides the file. Rows and blobs are kept.
func (s *FileService) Delete(ctx context.Context, userID, fileID string) error {
	if err := s.files.SoftDelete(ctx, userID, fileID, nowMillis()); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("file deleted", zap.String("file_id", fileID), zap.String("user_id", userID))
	return nil
}
