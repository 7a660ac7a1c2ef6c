package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/COROTANjayson/readify/internal/model"
	"github.com/COROTANjayson/readify/internal/pkg/dbutil"
)

type EmbeddingCacheRepo struct {
	db *sql.DB
}

func NewEmbeddingCacheRepo(db *sql.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

// Lookup returns a cached vector and marks it used at now.
func (r *EmbeddingCacheRepo) Lookup(ctx context.Context, key model.EmbeddingKey, now int64) ([]float32, bool, error) {
	const query = `
		UPDATE embedding_cache SET atime = $4
		WHERE model_name = $1 AND task_type = $2 AND content_hash = $3
		RETURNING embedding
	`
	var vec pgvector.Vector
	err := r.db.QueryRowContext(ctx, query, key.Model, key.TaskType, key.Digest, now).Scan(&vec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return vec.Slice(), true, nil
}

func (r *EmbeddingCacheRepo) Save(ctx context.Context, item *model.EmbeddingCache) error {
	const query = `
		INSERT INTO embedding_cache (model_name, task_type, content_hash, embedding, ctime, atime)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (model_name, task_type, content_hash)
		DO UPDATE SET embedding = EXCLUDED.embedding, atime = EXCLUDED.atime
	`
	_, err := r.db.ExecContext(ctx, query,
		item.Key.Model, item.Key.TaskType, item.Key.Digest,
		pgvector.NewVector(item.Embedding), item.Ctime, item.Atime,
	)
	return err
}

// DeleteIdleSince removes entries not read since cutoff.
func (r *EmbeddingCacheRepo) DeleteIdleSince(ctx context.Context, cutoff int64) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("embedding_cache", map[string]interface{}{"atime <": cutoff})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
