package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

type SummaryResult struct {
	Summary *model.Summary
	File    *model.File
	IsNew   bool
	Usage   model.Usage
}

type SummaryService struct {
	files     FileReader
	summaries SummaryRepository
	ledger    *UsageLedger
	rag       *RAGOrchestrator
}

func NewSummaryService(files FileReader, summaries SummaryRepository, ledger *UsageLedger, rag *RAGOrchestrator) *SummaryService {
	return &SummaryService{files: files, summaries: summaries, ledger: ledger, rag: rag}
}

// Generate returns the stored summary unless regenerate is set. Only a
// fresh generation consumes quota.
func (s *SummaryService) Generate(ctx context.Context, userID, fileID string, regenerate bool) (*SummaryResult, error) {
	file, err := s.files.GetByID(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !regenerate {
		return &SummaryResult{Summary: existing, File: file, Usage: file.Quota.Of(model.ToolSummarize)}, nil
	}

	var saved *model.Summary
	usage, err := s.ledger.Run(ctx, fileID, model.ToolSummarize, func(ctx context.Context) error {
		text, err := s.rag.Summary(ctx, fileID)
		if err != nil {
			return err
		}
		now := nowMillis()
		saved, err = s.summaries.Upsert(ctx, &model.Summary{
			ID:      newID(),
			FileID:  fileID,
			UserID:  userID,
			Summary: text,
			Ctime:   now,
			Mtime:   now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("summary generated",
		zap.String("file_id", fileID),
		zap.String("user_id", userID),
		zap.Bool("regenerate", existing != nil),
	)
	return &SummaryResult{Summary: saved, File: file, IsNew: existing == nil, Usage: usage}, nil
}

// Get returns the stored summary or nil when none was generated yet.
// Get returns nil when no summary exists yet, and ErrNotFound once the file
// is gone.
func (s *SummaryService) Get(ctx context.Context, userID, fileID string) (*model.Summary, error) {
	if _, err := s.files.GetByID(ctx, userID, fileID); err != nil {
		return nil, err
	}
	summary, err := s.summaries.GetByFileID(ctx, userID, fileID)
	if appErr.IsNotFound(err) {
		return nil, nil
	}
	return summary, err
}
