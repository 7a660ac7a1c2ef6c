package service

import (
	"context"

	"github.com/COROTANjayson/readify/internal/model"
)

// The interfaces below are the slices of the repositories each service
// needs. The postgres repositories in internal/repo satisfy them.

type UsageStore interface {
	ReserveUsage(ctx context.Context, fileID string, tool model.Tool) (model.Usage, error)
	ReleaseUsage(ctx context.Context, fileID string, tool model.Tool) error
}

type FileReader interface {
	GetByID(ctx context.Context, userID, fileID string) (*model.File, error)
}

type FileRepository interface {
	FileReader
	UsageStore
	Create(ctx context.Context, file *model.File) error
	Get(ctx context.Context, fileID string) (*model.File, error)
	ListByUser(ctx context.Context, userID string) ([]model.File, error)
	ListByStatus(ctx context.Context, status model.UploadStatus, limit uint) ([]model.File, error)
	UpdateStatusIf(ctx context.Context, fileID string, from, to model.UploadStatus, mtime int64) (bool, error)
	ListStale(ctx context.Context, staleBefore int64, limit uint) ([]model.File, error)
	ReclaimStale(ctx context.Context, fileID string, staleBefore, mtime int64) (bool, error)
	UpdateIngestResult(ctx context.Context, fileID string, status model.UploadStatus, pageCount int, mtime int64) error
	SoftDelete(ctx context.Context, userID, fileID string, now int64) error
}

type SummaryRepository interface {
	Upsert(ctx context.Context, s *model.Summary) (*model.Summary, error)
	GetByFileID(ctx context.Context, userID, fileID string) (*model.Summary, error)
}

type InsightRepository interface {
	Upsert(ctx context.Context, in *model.Insight) (*model.Insight, error)
	GetByFileID(ctx context.Context, userID, fileID string) (*model.Insight, error)
}

type PresentationRepository interface {
	Upsert(ctx context.Context, p *model.Presentation) (*model.Presentation, error)
	GetByFileID(ctx context.Context, userID, fileID string) (*model.Presentation, error)
	GetByID(ctx context.Context, userID, id string) (*model.Presentation, error)
	ListByUser(ctx context.Context, userID, cursor string, limit int) ([]model.Presentation, error)
	Delete(ctx context.Context, userID, id string) error
}

type MessageRepository interface {
	Append(ctx context.Context, msg *model.Message) error
	ListRecent(ctx context.Context, fileID string, beforeSeq int64, limit int) ([]model.Message, error)
	ListPage(ctx context.Context, fileID, cursor string, limit int) ([]model.Message, error)
}

type ChunkRepository interface {
	ReplaceNamespace(ctx context.Context, fileID string, chunks []model.Chunk) error
	Search(ctx context.Context, namespace string, query []float32, k int) ([]model.Passage, error)
}
