package repo

import (
	"context"
	"database/sql"

	"github.com/COROTANjayson/readify/internal/model"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append stores a message and fills its sequence number.
func (r *MessageRepo) Append(ctx context.Context, msg *model.Message) error {
	const query = `
		INSERT INTO messages (id, file_id, user_id, is_user_message, text, ctime)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`
	return r.db.QueryRowContext(ctx, query, msg.ID, msg.FileID, msg.UserID, msg.IsUserMessage, msg.Text, msg.Ctime).Scan(&msg.Seq)
}

// ListRecent returns up to limit messages of a file written before beforeSeq,
// oldest first. beforeSeq <= 0 means no upper bound.
func (r *MessageRepo) ListRecent(ctx context.Context, fileID string, beforeSeq int64, limit int) ([]model.Message, error) {
	const query = `
		SELECT seq, id, file_id, user_id, is_user_message, text, ctime FROM (
			SELECT seq, id, file_id, user_id, is_user_message, text, ctime
			FROM messages
			WHERE file_id = $1 AND ($2::BIGINT <= 0 OR seq < $2::BIGINT)
			ORDER BY seq DESC
			LIMIT $3
		) recent
		ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, fileID, beforeSeq, limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

// ListPage returns messages newest first. A non-empty cursor is the id of the
// first message of the requested page.
func (r *MessageRepo) ListPage(ctx context.Context, fileID, cursor string, limit int) ([]model.Message, error) {
	const query = `
		SELECT seq, id, file_id, user_id, is_user_message, text, ctime
		FROM messages
		WHERE file_id = $1
			AND ($2::TEXT = '' OR seq <= (SELECT seq FROM messages WHERE id = $2::TEXT AND file_id = $1))
		ORDER BY seq DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, fileID, cursor, limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	defer rows.Close()
	var items []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.Seq, &m.ID, &m.FileID, &m.UserID, &m.IsUserMessage, &m.Text, &m.Ctime); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
