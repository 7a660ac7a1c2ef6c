package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/COROTANjayson/readify/internal/ai"
	"github.com/COROTANjayson/readify/internal/filestore"
	"github.com/COROTANjayson/readify/internal/metrics"
	"github.com/COROTANjayson/readify/internal/model"
	"github.com/COROTANjayson/readify/internal/pdftext"
)

type IngestConfig struct {
	MaxPages         int
	EmbedConcurrency int
	// Lease is how long a PROCESSING claim holds before another run may
	// take the file over. Zero disables reclaiming.
	Lease time.Duration
}

type IngestService struct {
	files    FileRepository
	blobs    filestore.Store
	chunks   ChunkRepository
	embedder Embedder
	chunker  *ai.Chunker
	extract  func(data []byte) (*pdftext.Document, error)
	cfg      IngestConfig
}

func NewIngestService(files FileRepository, blobs filestore.Store, chunks ChunkRepository, embedder Embedder, cfg IngestConfig) *IngestService {
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = 4
	}
	return &IngestService{
		files:    files,
		blobs:    blobs,
		chunks:   chunks,
		embedder: embedder,
		chunker:  ai.NewChunker(),
		extract:  pdftext.Extract,
		cfg:      cfg,
	}
}

// IngestPending processes up to batch pending files, then files whose
// claim expired, and returns how many it claimed. One failing file does not
// stop the batch.
func (s *IngestService) IngestPending(ctx context.Context, batch uint) (int, error) {
	files, err := s.files.ListByStatus(ctx, model.UploadStatusPending, batch)
	if err != nil {
		return 0, err
	}
	if s.cfg.Lease > 0 && uint(len(files)) < batch {
		stale, err := s.files.ListStale(ctx, s.staleBefore(), batch-uint(len(files)))
		if err != nil {
			return 0, err
		}
		files = append(files, stale...)
	}
	claimed := 0
	for i := range files {
		ok, err := s.Ingest(ctx, &files[i])
		if err != nil {
			logutil.GetLogger(ctx).Error("ingest file failed", zap.String("file_id", files[i].ID), zap.Error(err))
		}
		if ok {
			claimed++
		}
	}
	return claimed, nil
}

func (s *IngestService) staleBefore() int64 {
	return nowMillis() - s.cfg.Lease.Milliseconds()
}

// claim moves a pending file to PROCESSING, or takes over a PROCESSING file
// whose lease expired.
func (s *IngestService) claim(ctx context.Context, file *model.File) (bool, error) {
	if file.UploadStatus == model.UploadStatusProcessing {
		if s.cfg.Lease <= 0 {
			return false, nil
		}
		ok, err := s.files.ReclaimStale(ctx, file.ID, s.staleBefore(), nowMillis())
		if ok {
			logutil.GetLogger(ctx).Warn("reclaimed stale ingest", zap.String("file_id", file.ID), zap.Int64("claimed_at", file.Mtime))
		}
		return ok, err
	}
	return s.files.UpdateStatusIf(ctx, file.ID, model.UploadStatusPending, model.UploadStatusProcessing, nowMillis())
}

// Ingest claims a file and builds its namespace. It reports false when
// another worker holds the file.
func (s *IngestService) Ingest(ctx context.Context, file *model.File) (bool, error) {
	claimed, err := s.claim(ctx, file)
	if err != nil || !claimed {
		return false, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("file_id", file.ID))
	pages, err := s.build(ctx, file)
	status := model.UploadStatusSuccess
	if err != nil {
		status = model.UploadStatusFailed
		logger.Warn("ingest failed", zap.Error(err))
	}
	if upErr := s.files.UpdateIngestResult(ctx, file.ID, status, pages, nowMillis()); upErr != nil {
		return true, fmt.Errorf("update ingest result: %w", upErr)
	}
	metrics.ObserveIngest(string(status))
	logger.Info("ingest finished", zap.String("status", string(status)), zap.Int("pages", pages))
	return true, err
}

func (s *IngestService) build(ctx context.Context, file *model.File) (int, error) {
	rc, err := s.blobs.Open(ctx, file.Key)
	if err != nil {
		return 0, fmt.Errorf("open blob: %w", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return 0, fmt.Errorf("read blob: %w", err)
	}
	doc, err := s.extract(data)
	if err != nil {
		return 0, err
	}
	if s.cfg.MaxPages > 0 && doc.PageCount > s.cfg.MaxPages {
		return doc.PageCount, fmt.Errorf("document has %d pages, max %d", doc.PageCount, s.cfg.MaxPages)
	}
	if !doc.HasText() {
		return doc.PageCount, fmt.Errorf("document has no extractable text")
	}
	chunks := s.chunker.Chunk(ctx, doc.Pages)
	if err := s.embed(ctx, file.ID, chunks); err != nil {
		return doc.PageCount, err
	}
	if err := s.chunks.ReplaceNamespace(ctx, file.ID, chunks); err != nil {
		return doc.PageCount, fmt.Errorf("store chunks: %w", err)
	}
	return doc.PageCount, nil
}

func (s *IngestService) embed(ctx context.Context, fileID string, chunks []model.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EmbedConcurrency)
	now := nowMillis()
	for i := range chunks {
		chunks[i].ID = newID()
		chunks[i].FileID = fileID
		chunks[i].Ctime = now
		g.Go(func() error {
			vec, err := s.embedder.Embed(gctx, chunks[i].Content, ai.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", chunks[i].Position, err)
			}
			chunks[i].Embedding = vec
			return nil
		})
	}
	return g.Wait()
}
