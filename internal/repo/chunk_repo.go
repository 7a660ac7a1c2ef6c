package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/COROTANjayson/readify/internal/model"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceNamespace swaps every chunk of a file for the given set atomically.
func (r *ChunkRepo) ReplaceNamespace(ctx context.Context, fileID string, chunks []model.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM file_chunks WHERE file_id = $1`, fileID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO file_chunks (id, file_id, position, page, content, token_count, content_hash, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ID, fileID, c.Position, c.Page, c.Content, c.TokenCount, c.ContentHash,
			pgvector.NewVector(c.Embedding), c.Ctime,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Search returns the k chunks of a namespace closest to the query vector,
// most similar first.
func (r *ChunkRepo) Search(ctx context.Context, namespace string, query []float32, k int) ([]model.Passage, error) {
	const sqlStr = `
		SELECT content, page, 1 - (embedding <=> $1) AS score
		FROM file_chunks
		WHERE file_id = $2
		ORDER BY embedding <=> $1, position
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, sqlStr, pgvector.NewVector(query), namespace, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var passages []model.Passage
	for rows.Next() {
		var p model.Passage
		if err := rows.Scan(&p.Content, &p.Page, &p.Score); err != nil {
			return nil, err
		}
		passages = append(passages, p)
	}
	return passages, rows.Err()
}

func (r *ChunkRepo) CountByFile(ctx context.Context, fileID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM file_chunks WHERE file_id = $1`, fileID).Scan(&n)
	return n, err
}
