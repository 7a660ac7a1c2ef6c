package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

type InsightResult struct {
	Insight *model.Insight
	File    *model.File
	IsNew   bool
	Usage   model.Usage
}

type InsightService struct {
	files    FileReader
	insights InsightRepository
	ledger   *UsageLedger
	rag      *RAGOrchestrator
}

func NewInsightService(files FileReader, insights InsightRepository, ledger *UsageLedger, rag *RAGOrchestrator) *InsightService {
	return &InsightService{files: files, insights: insights, ledger: ledger, rag: rag}
}

func (s *InsightService) Generate(ctx context.Context, userID, fileID string, regenerate bool) (*InsightResult, error) {
	file, err := s.files.GetByID(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !regenerate {
		return &InsightResult{Insight: existing, File: file, Usage: file.Quota.Of(model.ToolInsight)}, nil
	}

	var saved *model.Insight
	usage, err := s.ledger.Run(ctx, fileID, model.ToolInsight, func(ctx context.Context) error {
		content, err := s.rag.Insight(ctx, fileID)
		if err != nil {
			return err
		}
		now := nowMillis()
		saved, err = s.insights.Upsert(ctx, &model.Insight{
			ID:             newID(),
			FileID:         fileID,
			UserID:         userID,
			InsightContent: *content,
			Ctime:          now,
			Mtime:          now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("insight generated", zap.String("file_id", fileID), zap.String("user_id", userID))
	return &InsightResult{Insight: saved, File: file, IsNew: existing == nil, Usage: usage}, nil
}

func (s *InsightService) Get(ctx context.Context, userID, fileID string) (*model.Insight, error) {
	if _, err := s.files.GetByID(ctx, userID, fileID); err != nil {
		return nil, err
	}
	insight, err := s.insights.GetByFileID(ctx, userID, fileID)
	if appErr.IsNotFound(err) {
		return nil, nil
	}
	return insight, err
}
