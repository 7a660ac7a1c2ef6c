package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/filestore"
	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
	"github.com/COROTANjayson/readify/internal/pptx"
)

const (
	DefaultSlideCount = 5
	MaxSlideCount     = 20

	defaultPresentationPageSize = 20
	maxPresentationPageSize     = 100
)

type PresentationResult struct {
	Presentation *model.Presentation
	IsNew        bool
	Usage        model.Usage
}

type PresentationService struct {
	files         FileReader
	presentations PresentationRepository
	blobs         filestore.Store
	ledger        *UsageLedger
	rag           *RAGOrchestrator
}

func NewPresentationService(files FileReader, presentations PresentationRepository, blobs filestore.Store, ledger *UsageLedger, rag *RAGOrchestrator) *PresentationService {
	return &PresentationService{
		files:         files,
		presentations: presentations,
		blobs:         blobs,
		ledger:        ledger,
		rag:           rag,
	}
}

// NormalizeSlideCount maps an absent count to the default and rejects
// anything outside 1..MaxSlideCount.
func NormalizeSlideCount(count *int) (int, error) {
	if count == nil {
		return DefaultSlideCount, nil
	}
	if *count < 1 || *count > MaxSlideCount {
		return 0, fmt.Errorf("%w: slideCount must be between 1 and %d", appErr.ErrInvalid, MaxSlideCount)
	}
	return *count, nil
}

func PresentationDownloadURL(fileID string) string {
	return "/api/v1/files/" + fileID + "/download/presentation"
}

// Generate outlines and renders a deck for the file. The stored deck is
// returned as is unless regenerate is set; a regeneration overwrites both
// the row and the blob.
func (s *PresentationService) Generate(ctx context.Context, userID, fileID string, slideCount *int, regenerate bool) (*PresentationResult, error) {
	count, err := NormalizeSlideCount(slideCount)
	if err != nil {
		return nil, err
	}
	file, err := s.files.GetByID(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !regenerate {
		return &PresentationResult{Presentation: existing, Usage: file.Quota.Of(model.ToolPresentation)}, nil
	}

	var saved *model.Presentation
	usage, err := s.ledger.Run(ctx, fileID, model.ToolPresentation, func(ctx context.Context) error {
		deck, err := s.rag.Slides(ctx, fileID, count)
		if err != nil {
			return err
		}
		saved, err = s.store(ctx, file, deck, existing == nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("presentation generated",
		zap.String("file_id", fileID),
		zap.String("user_id", userID),
		zap.Int("slides", len(saved.Deck.Slides)),
	)
	return &PresentationResult{Presentation: saved, IsNew: existing == nil, Usage: usage}, nil
}

func (s *PresentationService) store(ctx context.Context, file *model.File, deck *model.SlideDeck, first bool) (*model.Presentation, error) {
	data, err := pptx.Render(deck, file.Name, time.Now())
	if err != nil {
		return nil, fmt.Errorf("render presentation: %w", err)
	}
	key := filestore.DeckKey(file.ID)
	if err := s.blobs.Save(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("save presentation blob: %w", err)
	}
	now := nowMillis()
	saved, err := s.presentations.Upsert(ctx, &model.Presentation{
		ID:          newID(),
		FileID:      file.ID,
		UserID:      file.UserID,
		FileName:    pptx.FileName(file.Name),
		SlideCount:  len(deck.Slides),
		Deck:        *deck,
		BlobKey:     key,
		BlobSize:    int64(len(data)),
		DownloadURL: PresentationDownloadURL(file.ID),
		Ctime:       now,
		Mtime:       now,
	})
	if err != nil {
		if first {
			if delErr := s.blobs.Delete(ctx, key); delErr != nil && !appErr.IsNotFound(delErr) {
				logutil.GetLogger(ctx).Error("remove orphan presentation blob failed", zap.String("key", key), zap.Error(delErr))
			}
		}
		return nil, err
	}
	return saved, nil
}

func (s *PresentationService) Get(ctx context.Context, userID, fileID string) (*model.Presentation, error) {
	if _, err := s.files.GetByID(ctx, userID, fileID); err != nil {
		return nil, err
	}
	p, err := s.presentations.GetByFileID(ctx, userID, fileID)
	if appErr.IsNotFound(err) {
		return nil, nil
	}
	return p, err
}

// Download opens the rendered deck of a live file. The caller closes the
// reader.
func (s *PresentationService) Download(ctx context.Context, userID, fileID string) (*model.Presentation, io.ReadCloser, error) {
	if _, err := s.files.GetByID(ctx, userID, fileID); err != nil {
		return nil, nil, err
	}
	p, err := s.presentations.GetByFileID(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, p.BlobKey)
	if err != nil {
		return nil, nil, err
	}
	return p, rc, nil
}

// List pages the caller's presentations newest first. nextCursor is empty on
// the last page.
func (s *PresentationService) List(ctx context.Context, userID, cursor string, limit int) ([]model.Presentation, string, error) {
	if limit <= 0 {
		limit = defaultPresentationPageSize
	}
	if limit > maxPresentationPageSize {
		limit = maxPresentationPageSize
	}
	items, err := s.presentations.ListByUser(ctx, userID, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	var next string
	if len(items) > limit {
		next = items[limit].ID
		items = items[:limit]
	}
	return items, next, nil
}

// Delete removes the row and then the blob, so the download handle stops
// resolving even when blob removal fails.
func (s *PresentationService) Delete(ctx context.Context, userID, id string) error {
	p, err := s.presentations.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.presentations.Delete(ctx, userID, id); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, p.BlobKey); err != nil && !appErr.IsNotFound(err) {
		logutil.GetLogger(ctx).Error("delete presentation blob failed",
			zap.String("presentation_id", id),
			zap.String("key", p.BlobKey),
			zap.Error(err),
		)
	}
	return nil
}
