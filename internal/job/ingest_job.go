package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type PendingIngester interface {
	IngestPending(ctx context.Context, batch uint) (int, error)
}

// IngestJob builds the vector namespace of uploaded files that are still
// pending.
type IngestJob struct {
	ingester PendingIngester
	batch    uint
}

func NewIngestJob(ingester PendingIngester, batch int) *IngestJob {
	if batch <= 0 {
		batch = 5
	}
	return &IngestJob{ingester: ingester, batch: uint(batch)}
}

func (j *IngestJob) Name() string {
	return "ingest_pending_files"
}

func (j *IngestJob) Run(ctx context.Context) error {
	n, err := j.ingester.IngestPending(ctx, j.batch)
	if err != nil {
		return err
	}
	if n > 0 {
		logutil.GetLogger(ctx).Info("pending files ingested", zap.Int("count", n))
	}
	return nil
}
