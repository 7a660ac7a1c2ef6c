package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/didi/gendry/builder"

	"github.com/COROTANjayson/readify/internal/model"
	"github.com/COROTANjayson/readify/internal/pkg/dbutil"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

var presentationColumns = []string{
	"id", "file_id", "user_id", "file_name", "slide_count", "content",
	"blob_key", "blob_size", "download_url", "ctime", "mtime",
}

type PresentationRepo struct {
	db *sql.DB
}

func NewPresentationRepo(db *sql.DB) *PresentationRepo {
	return &PresentationRepo{db: db}
}

// Upsert stores the single presentation of a file, overwriting any previous one.
func (r *PresentationRepo) Upsert(ctx context.Context, p *model.Presentation) (*model.Presentation, error) {
	content, err := json.Marshal(p.Deck)
	if err != nil {
		return nil, err
	}
	const query = `
		INSERT INTO presentations (id, file_id, user_id, file_name, slide_count, content, blob_key, blob_size, download_url, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (file_id) DO UPDATE SET
			file_name = EXCLUDED.file_name,
			slide_count = EXCLUDED.slide_count,
			content = EXCLUDED.content,
			blob_key = EXCLUDED.blob_key,
			blob_size = EXCLUDED.blob_size,
			download_url = EXCLUDED.download_url,
			mtime = EXCLUDED.mtime
		RETURNING id, file_id, user_id, file_name, slide_count, content, blob_key, blob_size, download_url, ctime, mtime
	`
	row := r.db.QueryRowContext(ctx, query,
		p.ID, p.FileID, p.UserID, p.FileName, p.SlideCount, string(content),
		p.BlobKey, p.BlobSize, p.DownloadURL, p.Ctime, p.Mtime,
	)
	return scanPresentation(row)
}

func (r *PresentationRepo) GetByFileID(ctx context.Context, userID, fileID string) (*model.Presentation, error) {
	return r.getOne(ctx, map[string]interface{}{"file_id": fileID, "user_id": userID})
}

func (r *PresentationRepo) GetByID(ctx context.Context, userID, id string) (*model.Presentation, error) {
	return r.getOne(ctx, map[string]interface{}{"id": id, "user_id": userID})
}

func (r *PresentationRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Presentation, error) {
	sqlStr, args, err := builder.BuildSelect("presentations", where, presentationColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	out, err := scanPresentation(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// ListByUser pages the user's presentations newest first. A non-empty cursor
// is the id of the first row of the requested page.
func (r *PresentationRepo) ListByUser(ctx context.Context, userID, cursor string, limit int) ([]model.Presentation, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if cursor == "" {
		const query = `
			SELECT id, file_id, user_id, file_name, slide_count, content, blob_key, blob_size, download_url, ctime, mtime
			FROM presentations
			WHERE user_id = $1
			ORDER BY ctime DESC, id DESC
			LIMIT $2
		`
		rows, err = r.db.QueryContext(ctx, query, userID, limit)
	} else {
		const query = `
			SELECT p.id, p.file_id, p.user_id, p.file_name, p.slide_count, p.content, p.blob_key, p.blob_size, p.download_url, p.ctime, p.mtime
			FROM presentations p, presentations c
			WHERE p.user_id = $1 AND c.id = $2 AND c.user_id = $1
				AND (p.ctime, p.id) <= (c.ctime, c.id)
			ORDER BY p.ctime DESC, p.id DESC
			LIMIT $3
		`
		rows, err = r.db.QueryContext(ctx, query, userID, cursor, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.Presentation
	for rows.Next() {
		item, err := scanPresentation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *PresentationRepo) Delete(ctx context.Context, userID, id string) error {
	sqlStr, args, err := builder.BuildDelete("presentations", map[string]interface{}{"id": id, "user_id": userID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPresentation(row rowScanner) (*model.Presentation, error) {
	var out model.Presentation
	var content string
	if err := row.Scan(
		&out.ID, &out.FileID, &out.UserID, &out.FileName, &out.SlideCount, &content,
		&out.BlobKey, &out.BlobSize, &out.DownloadURL, &out.Ctime, &out.Mtime,
	); err != nil {
		return nil, err
	}
	if content != "" {
		if err := json.Unmarshal([]byte(content), &out.Deck); err != nil {
			return nil, err
		}
	}
	return &out, nil
}
