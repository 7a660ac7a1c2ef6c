package model

import "fmt"

type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "PENDING"
	UploadStatusProcessing UploadStatus = "PROCESSING"
	UploadStatusSuccess    UploadStatus = "SUCCESS"
	UploadStatusFailed     UploadStatus = "FAILED"
)

// Tool identifies one of the metered AI capabilities. It indexes the usage
// pairs kept on a file.
type Tool int

const (
	ToolChat Tool = iota
	ToolSummarize
	ToolInsight
	ToolPresentation

	ToolCount = 4
)

var toolNames = [ToolCount]string{"chat", "summarize", "insight", "presentation"}

func (t Tool) Valid() bool {
	return t >= 0 && int(t) < ToolCount
}

func (t Tool) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tool(%d)", int(t))
	}
	return toolNames[t]
}

func ParseTool(name string) (Tool, error) {
	for i, n := range toolNames {
		if n == name {
			return Tool(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tool: %s", name)
}

// Tools lists every tool in index order.
func Tools() []Tool {
	return []Tool{ToolChat, ToolSummarize, ToolInsight, ToolPresentation}
}

// Usage is a (count, limit) pair. At rest 0 <= Count <= Limit.
type Usage struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
}

func (u Usage) Remaining() int {
	if u.Count >= u.Limit {
		return 0
	}
	return u.Limit - u.Count
}

// Quota holds one usage pair per tool.
type Quota [ToolCount]Usage

func (q Quota) Of(t Tool) Usage {
	if !t.Valid() {
		return Usage{}
	}
	return q[t]
}

type File struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	Name         string       `json:"name"`
	Key          string       `json:"key"`
	Size         int64        `json:"size"`
	PageCount    int          `json:"pageCount"`
	UploadStatus UploadStatus `json:"uploadStatus"`
	Quota        Quota        `json:"-"`
	DeletedAt    int64        `json:"-"`
	Ctime        int64        `json:"createdAt"`
	Mtime        int64        `json:"updatedAt"`
}

func (f *File) Deleted() bool {
	return f.DeletedAt > 0
}
