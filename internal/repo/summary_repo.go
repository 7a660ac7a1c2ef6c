package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

type SummaryRepo struct {
	db *sql.DB
}

func NewSummaryRepo(db *sql.DB) *SummaryRepo {
	return &SummaryRepo{db: db}
}

// Upsert creates the file's summary or overwrites it in place. The row id,
// owner and creation time of an existing summary are kept.
func (r *SummaryRepo) Upsert(ctx context.Context, s *model.Summary) (*model.Summary, error) {
	const query = `
		INSERT INTO summaries (id, file_id, user_id, summary, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (file_id) DO UPDATE SET
			summary = EXCLUDED.summary,
			mtime = EXCLUDED.mtime
		RETURNING id, file_id, user_id, summary, ctime, mtime
	`
	row := r.db.QueryRowContext(ctx, query, s.ID, s.FileID, s.UserID, s.Summary, s.Ctime, s.Mtime)
	var out model.Summary
	if err := row.Scan(&out.ID, &out.FileID, &out.UserID, &out.Summary, &out.Ctime, &out.Mtime); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SummaryRepo) GetByFileID(ctx context.Context, userID, fileID string) (*model.Summary, error) {
	const query = `
		SELECT id, file_id, user_id, summary, ctime, mtime
		FROM summaries
		WHERE file_id = $1 AND user_id = $2
	`
	var out model.Summary
	err := r.db.QueryRowContext(ctx, query, fileID, userID).
		Scan(&out.ID, &out.FileID, &out.UserID, &out.Summary, &out.Ctime, &out.Mtime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}
