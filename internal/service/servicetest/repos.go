// Package servicetest holds in-memory stand-ins for the repositories and
// collaborators the services depend on.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

type FileRepo struct {
	mu    sync.Mutex
	files map[string]*model.File

	// ReleaseErr, when set, is returned by ReleaseUsage without touching
	// the counter.
	ReleaseErr error
	// ReleaseFailures makes the next n ReleaseUsage calls fail.
	ReleaseFailures int
	Releases        int
}

func NewFileRepo(files ...*model.File) *FileRepo {
	r := &FileRepo{files: map[string]*model.File{}}
	for _, f := range files {
		r.Put(f)
	}
	return r
}

func (r *FileRepo) Put(f *model.File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	r.files[f.ID] = &cp
}

// Usage returns the stored pair of a tool, live or deleted.
func (r *FileRepo) Usage(fileID string, tool model.Tool) model.Usage {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok {
		return model.Usage{}
	}
	return f.Quota.Of(tool)
}

func (r *FileRepo) Create(ctx context.Context, file *model.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[file.ID]; ok {
		return appErr.ErrConflict
	}
	cp := *file
	r.files[file.ID] = &cp
	return nil
}

func (r *FileRepo) GetByID(ctx context.Context, userID, fileID string) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.UserID != userID || f.Deleted() {
		return nil, appErr.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *FileRepo) Get(ctx context.Context, fileID string) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.Deleted() {
		return nil, appErr.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *FileRepo) ListByUser(ctx context.Context, userID string) ([]model.File, error) {
	return r.list(func(f *model.File) bool { return f.UserID == userID }, 0, true), nil
}

func (r *FileRepo) ListByStatus(ctx context.Context, status model.UploadStatus, limit uint) ([]model.File, error) {
	return r.list(func(f *model.File) bool { return f.UploadStatus == status }, int(limit), false), nil
}

func (r *FileRepo) list(match func(*model.File) bool, limit int, newestFirst bool) []model.File {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.File
	for _, f := range r.files {
		if !f.Deleted() && match(f) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ctime == out[j].Ctime {
			return out[i].ID < out[j].ID
		}
		if newestFirst {
			return out[i].Ctime > out[j].Ctime
		}
		return out[i].Ctime < out[j].Ctime
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *FileRepo) UpdateStatusIf(ctx context.Context, fileID string, from, to model.UploadStatus, mtime int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.Deleted() || f.UploadStatus != from {
		return false, nil
	}
	f.UploadStatus = to
	f.Mtime = mtime
	return true, nil
}

func (r *FileRepo) ListStale(ctx context.Context, staleBefore int64, limit uint) ([]model.File, error) {
	return r.list(func(f *model.File) bool {
		return f.UploadStatus == model.UploadStatusProcessing && f.Mtime < staleBefore
	}, int(limit), false), nil
}

func (r *FileRepo) ReclaimStale(ctx context.Context, fileID string, staleBefore, mtime int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.Deleted() || f.UploadStatus != model.UploadStatusProcessing || f.Mtime >= staleBefore {
		return false, nil
	}
	f.Mtime = mtime
	return true, nil
}

func (r *FileRepo) UpdateIngestResult(ctx context.Context, fileID string, status model.UploadStatus, pageCount int, mtime int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok {
		return appErr.ErrNotFound
	}
	f.UploadStatus = status
	f.PageCount = pageCount
	f.Mtime = mtime
	return nil
}

func (r *FileRepo) SoftDelete(ctx context.Context, userID, fileID string, now int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.UserID != userID || f.Deleted() {
		return appErr.ErrNotFound
	}
	f.DeletedAt = now
	f.Mtime = now
	return nil
}

func (r *FileRepo) ReserveUsage(ctx context.Context, fileID string, tool model.Tool) (model.Usage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.Deleted() {
		return model.Usage{}, appErr.ErrNotFound
	}
	u := &f.Quota[tool]
	if u.Count >= u.Limit {
		return *u, &appErr.UsageLimitError{Tool: tool.String(), Count: u.Count, Limit: u.Limit}
	}
	u.Count++
	return *u, nil
}

func (r *FileRepo) ReleaseUsage(ctx context.Context, fileID string, tool model.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ReleaseErr != nil {
		return r.ReleaseErr
	}
	if r.ReleaseFailures > 0 {
		r.ReleaseFailures--
		return fmt.Errorf("release usage: transient failure")
	}
	r.Releases++
	f, ok := r.files[fileID]
	if !ok {
		return nil
	}
	if f.Quota[tool].Count > 0 {
		f.Quota[tool].Count--
	}
	return nil
}

type SummaryRepo struct {
	mu    sync.Mutex
	items map[string]model.Summary
	Err   error
}

func NewSummaryRepo() *SummaryRepo {
	return &SummaryRepo{items: map[string]model.Summary{}}
}

func (r *SummaryRepo) Upsert(ctx context.Context, s *model.Summary) (*model.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	cp := *s
	if old, ok := r.items[s.FileID]; ok {
		cp.ID, cp.Ctime = old.ID, old.Ctime
	}
	r.items[s.FileID] = cp
	return &cp, nil
}

func (r *SummaryRepo) GetByFileID(ctx context.Context, userID, fileID string) (*model.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[fileID]
	if !ok || s.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return &s, nil
}

type InsightRepo struct {
	mu    sync.Mutex
	items map[string]model.Insight
}

func NewInsightRepo() *InsightRepo {
	return &InsightRepo{items: map[string]model.Insight{}}
}

func (r *InsightRepo) Upsert(ctx context.Context, in *model.Insight) (*model.Insight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *in
	if old, ok := r.items[in.FileID]; ok {
		cp.ID, cp.Ctime = old.ID, old.Ctime
	}
	r.items[in.FileID] = cp
	return &cp, nil
}

func (r *InsightRepo) GetByFileID(ctx context.Context, userID, fileID string) (*model.Insight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.items[fileID]
	if !ok || in.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return &in, nil
}

type PresentationRepo struct {
	mu    sync.Mutex
	items map[string]model.Presentation
	Err   error
}

func NewPresentationRepo() *PresentationRepo {
	return &PresentationRepo{items: map[string]model.Presentation{}}
}

func (r *PresentationRepo) Upsert(ctx context.Context, p *model.Presentation) (*model.Presentation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	cp := *p
	if old, ok := r.items[p.FileID]; ok {
		cp.ID, cp.Ctime = old.ID, old.Ctime
	}
	r.items[p.FileID] = cp
	return &cp, nil
}

func (r *PresentationRepo) GetByFileID(ctx context.Context, userID, fileID string) (*model.Presentation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[fileID]
	if !ok || p.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return &p, nil
}

func (r *PresentationRepo) GetByID(ctx context.Context, userID, id string) (*model.Presentation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.ID == id && p.UserID == userID {
			return &p, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (r *PresentationRepo) ListByUser(ctx context.Context, userID, cursor string, limit int) ([]model.Presentation, error) {
	r.mu.Lock()
	var all []model.Presentation
	for _, p := range r.items {
		if p.UserID == userID {
			all = append(all, p)
		}
	}
	r.mu.Unlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Ctime == all[j].Ctime {
			return all[i].ID > all[j].ID
		}
		return all[i].Ctime > all[j].Ctime
	})
	start := 0
	if cursor != "" {
		start = len(all)
		for i, p := range all {
			if p.ID == cursor {
				start = i
				break
			}
		}
	}
	out := all[start:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *PresentationRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, p := range r.items {
		if p.ID == id && p.UserID == userID {
			delete(r.items, k)
			return nil
		}
	}
	return appErr.ErrNotFound
}

type MessageRepo struct {
	mu    sync.Mutex
	seq   int64
	items []model.Message
	// FailOn makes the n-th Append (1-based) fail with Err.
	FailOn int
	Err    error
	calls  int
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{}
}

func (r *MessageRepo) Append(ctx context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.FailOn > 0 && r.calls == r.FailOn {
		return r.Err
	}
	r.seq++
	msg.Seq = r.seq
	r.items = append(r.items, *msg)
	return nil
}

// All returns every stored message oldest first.
func (r *MessageRepo) All(fileID string) []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Message
	for _, m := range r.items {
		if m.FileID == fileID {
			out = append(out, m)
		}
	}
	return out
}

func (r *MessageRepo) ListRecent(ctx context.Context, fileID string, beforeSeq int64, limit int) ([]model.Message, error) {
	var matched []model.Message
	for _, m := range r.All(fileID) {
		if beforeSeq <= 0 || m.Seq < beforeSeq {
			matched = append(matched, m)
		}
	}
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

func (r *MessageRepo) ListPage(ctx context.Context, fileID, cursor string, limit int) ([]model.Message, error) {
	all := r.All(fileID)
	var out []model.Message
	started := cursor == ""
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if !started && all[i].ID == cursor {
			started = true
		}
		if started {
			out = append(out, all[i])
		}
	}
	return out, nil
}

type ChunkRepo struct {
	mu     sync.Mutex
	chunks map[string][]model.Chunk
}

func NewChunkRepo() *ChunkRepo {
	return &ChunkRepo{chunks: map[string][]model.Chunk{}}
}

func (r *ChunkRepo) ReplaceNamespace(ctx context.Context, fileID string, chunks []model.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks[fileID] = append([]model.Chunk(nil), chunks...)
	return nil
}

func (r *ChunkRepo) Chunks(fileID string) []model.Chunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Chunk(nil), r.chunks[fileID]...)
}

// Search ranks by position; the query vector is ignored.
func (r *ChunkRepo) Search(ctx context.Context, namespace string, query []float32, k int) ([]model.Passage, error) {
	chunks := r.Chunks(namespace)
	var out []model.Passage
	for i, c := range chunks {
		if i >= k {
			break
		}
		out = append(out, model.Passage{Content: c.Content, Page: c.Page, Score: 1 - float64(i)/100})
	}
	return out, nil
}
