package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

type InsightRepo struct {
	db *sql.DB
}

func NewInsightRepo(db *sql.DB) *InsightRepo {
	return &InsightRepo{db: db}
}

func (r *InsightRepo) Upsert(ctx context.Context, in *model.Insight) (*model.Insight, error) {
	const query = `
		INSERT INTO insights (id, file_id, user_id, insight, key_findings, action_items, questions, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (file_id) DO UPDATE SET
			insight = EXCLUDED.insight,
			key_findings = EXCLUDED.key_findings,
			action_items = EXCLUDED.action_items,
			questions = EXCLUDED.questions,
			mtime = EXCLUDED.mtime
		RETURNING id, file_id, user_id, insight, key_findings, action_items, questions, ctime, mtime
	`
	row := r.db.QueryRowContext(ctx, query,
		in.ID,
		in.FileID,
		in.UserID,
		in.Insight,
		pq.Array(nonNil(in.KeyFindings)),
		pq.Array(nonNil(in.ActionItems)),
		pq.Array(nonNil(in.Questions)),
		in.Ctime,
		in.Mtime,
	)
	return scanInsight(row)
}

func (r *InsightRepo) GetByFileID(ctx context.Context, userID, fileID string) (*model.Insight, error) {
	const query = `
		SELECT id, file_id, user_id, insight, key_findings, action_items, questions, ctime, mtime
		FROM insights
		WHERE file_id = $1 AND user_id = $2
	`
	out, err := scanInsight(r.db.QueryRowContext(ctx, query, fileID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func scanInsight(row *sql.Row) (*model.Insight, error) {
	var out model.Insight
	var findings, actions, questions pq.StringArray
	if err := row.Scan(&out.ID, &out.FileID, &out.UserID, &out.Insight, &findings, &actions, &questions, &out.Ctime, &out.Mtime); err != nil {
		return nil, err
	}
	out.KeyFindings = nonNil(findings)
	out.ActionItems = nonNil(actions)
	out.Questions = nonNil(questions)
	return &out, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
