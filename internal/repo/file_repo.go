package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/COROTANjayson/readify/internal/model"
	"github.com/COROTANjayson/readify/internal/pkg/dbutil"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

// usageColumns maps a tool to its (count, limit) columns.
var usageColumns = [model.ToolCount][2]string{
	model.ToolChat:         {"chat_count", "chat_limit"},
	model.ToolSummarize:    {"summarize_count", "summarize_limit"},
	model.ToolInsight:      {"insight_count", "insight_limit"},
	model.ToolPresentation: {"presentation_count", "presentation_limit"},
}

var fileColumns = []string{
	"id", "user_id", "name", "blob_key", "size", "page_count", "upload_status",
	"chat_count", "chat_limit", "summarize_count", "summarize_limit",
	"insight_count", "insight_limit", "presentation_count", "presentation_limit",
	"deleted_at", "ctime", "mtime",
}

type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

func (r *FileRepo) Create(ctx context.Context, file *model.File) error {
	data := map[string]interface{}{
		"id":            file.ID,
		"user_id":       file.UserID,
		"name":          file.Name,
		"blob_key":      file.Key,
		"size":          file.Size,
		"page_count":    file.PageCount,
		"upload_status": string(file.UploadStatus),
		"deleted_at":    0,
		"ctime":         file.Ctime,
		"mtime":         file.Mtime,
	}
	for _, tool := range model.Tools() {
		cols := usageColumns[tool]
		usage := file.Quota.Of(tool)
		data[cols[0]] = usage.Count
		data[cols[1]] = usage.Limit
	}
	sqlStr, args, err := builder.BuildInsert("files", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

// GetByID returns a live file owned by userID.
func (r *FileRepo) GetByID(ctx context.Context, userID, fileID string) (*model.File, error) {
	where := map[string]interface{}{
		"id":         fileID,
		"user_id":    userID,
		"deleted_at": 0,
	}
	files, err := r.selectFiles(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &files[0], nil
}

// Get returns a live file regardless of owner.
func (r *FileRepo) Get(ctx context.Context, fileID string) (*model.File, error) {
	files, err := r.selectFiles(ctx, map[string]interface{}{"id": fileID, "deleted_at": 0})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &files[0], nil
}

func (r *FileRepo) ListByUser(ctx context.Context, userID string) ([]model.File, error) {
	return r.selectFiles(ctx, map[string]interface{}{
		"user_id":    userID,
		"deleted_at": 0,
		"_orderby":   "ctime desc",
	})
}

func (r *FileRepo) ListByStatus(ctx context.Context, status model.UploadStatus, limit uint) ([]model.File, error) {
	return r.selectFiles(ctx, map[string]interface{}{
		"upload_status": string(status),
		"deleted_at":    0,
		"_orderby":      "ctime asc",
		"_limit":        []uint{0, limit},
	})
}

func (r *FileRepo) selectFiles(ctx context.Context, where map[string]interface{}) ([]model.File, error) {
	sqlStr, args, err := builder.BuildSelect("files", where, fileColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var files []model.File
	for rows.Next() {
		var f model.File
		var status string
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.Name, &f.Key, &f.Size, &f.PageCount, &status,
			&f.Quota[model.ToolChat].Count, &f.Quota[model.ToolChat].Limit,
			&f.Quota[model.ToolSummarize].Count, &f.Quota[model.ToolSummarize].Limit,
			&f.Quota[model.ToolInsight].Count, &f.Quota[model.ToolInsight].Limit,
			&f.Quota[model.ToolPresentation].Count, &f.Quota[model.ToolPresentation].Limit,
			&f.DeletedAt, &f.Ctime, &f.Mtime,
		); err != nil {
			return nil, err
		}
		f.UploadStatus = model.UploadStatus(status)
		files = append(files, f)
	}
	return files, rows.Err()
}

// UpdateStatusIf moves a file between upload states only when it is still
// in the expected one.
func (r *FileRepo) UpdateStatusIf(ctx context.Context, fileID string, from, to model.UploadStatus, mtime int64) (bool, error) {
	const query = `
		UPDATE files
		SET upload_status = $1, mtime = $2
		WHERE id = $3 AND upload_status = $4 AND deleted_at = 0
	`
	res, err := r.db.ExecContext(ctx, query, string(to), mtime, fileID, string(from))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListStale returns PROCESSING files whose claim was last renewed before
// staleBefore, oldest first.
func (r *FileRepo) ListStale(ctx context.Context, staleBefore int64, limit uint) ([]model.File, error) {
	return r.selectFiles(ctx, map[string]interface{}{
		"upload_status": string(model.UploadStatusProcessing),
		"mtime <":       staleBefore,
		"deleted_at":    0,
		"_orderby":      "mtime asc",
		"_limit":        []uint{0, limit},
	})
}

// ReclaimStale takes over a PROCESSING file whose claim expired. Only one
// caller wins since the mtime guard fails once the claim is renewed.
func (r *FileRepo) ReclaimStale(ctx context.Context, fileID string, staleBefore, mtime int64) (bool, error) {
	const query = `
		UPDATE files
		SET mtime = $1
		WHERE id = $2 AND upload_status = $3 AND mtime < $4 AND deleted_at = 0
	`
	res, err := r.db.ExecContext(ctx, query, mtime, fileID, string(model.UploadStatusProcessing), staleBefore)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *FileRepo) UpdateIngestResult(ctx context.Context, fileID string, status model.UploadStatus, pageCount int, mtime int64) error {
	where := map[string]interface{}{"id": fileID}
	update := map[string]interface{}{
		"upload_status": string(status),
		"page_count":    pageCount,
		"mtime":         mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("files", where, update)
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

func (r *FileRepo) SoftDelete(ctx context.Context, userID, fileID string, now int64) error {
	where := map[string]interface{}{
		"id":         fileID,
		"user_id":    userID,
		"deleted_at": 0,
	}
	update := map[string]interface{}{
		"deleted_at": now,
		"mtime":      now,
	}
	sqlStr, args, err := builder.BuildUpdate("files", where, update)
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

// ReserveUsage increments the tool counter of a file inside one transaction,
// failing with a UsageLimitError when the counter already reached its limit.
// The row lock serializes concurrent reservations on the same file.
func (r *FileRepo) ReserveUsage(ctx context.Context, fileID string, tool model.Tool) (model.Usage, error) {
	if !tool.Valid() {
		return model.Usage{}, fmt.Errorf("%w: unknown tool %d", appErr.ErrInvalid, int(tool))
	}
	cols := usageColumns[tool]
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Usage{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var usage model.Usage
	selectQuery := fmt.Sprintf(`SELECT %s, %s FROM files WHERE id = $1 AND deleted_at = 0 FOR UPDATE`, cols[0], cols[1])
	if err := tx.QueryRowContext(ctx, selectQuery, fileID).Scan(&usage.Count, &usage.Limit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Usage{}, appErr.ErrNotFound
		}
		return model.Usage{}, err
	}
	if usage.Count >= usage.Limit {
		return usage, &appErr.UsageLimitError{Tool: tool.String(), Count: usage.Count, Limit: usage.Limit}
	}
	updateQuery := fmt.Sprintf(`UPDATE files SET %s = %s + 1 WHERE id = $1`, cols[0], cols[0])
	if _, err := tx.ExecContext(ctx, updateQuery, fileID); err != nil {
		return model.Usage{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Usage{}, err
	}
	usage.Count++
	return usage, nil
}

// ReleaseUsage gives one reserved unit back. The counter never drops below zero.
func (r *FileRepo) ReleaseUsage(ctx context.Context, fileID string, tool model.Tool) error {
	if !tool.Valid() {
		return fmt.Errorf("%w: unknown tool %d", appErr.ErrInvalid, int(tool))
	}
	col := usageColumns[tool][0]
	query := fmt.Sprintf(`UPDATE files SET %s = %s - 1 WHERE id = $1 AND %s > 0`, col, col, col)
	_, err := r.db.ExecContext(ctx, query, fileID)
	return err
}

func (r *FileRepo) Ping(ctx context.Context) error {
	var one int
	return r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
}
