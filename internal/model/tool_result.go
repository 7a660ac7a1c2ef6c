package model

type Summary struct {
	ID      string `json:"id"`
	FileID  string `json:"fileId"`
	UserID  string `json:"userId"`
	Summary string `json:"summary"`
	Ctime   int64  `json:"createdAt"`
	Mtime   int64  `json:"updatedAt"`
}

// InsightContent is the structured shape the insight tool produces.
type InsightContent struct {
	Insight     string   `json:"insight"`
	KeyFindings []string `json:"keyFindings"`
	ActionItems []string `json:"actionItems"`
	Questions   []string `json:"questions"`
}

type Insight struct {
	ID     string `json:"id"`
	FileID string `json:"fileId"`
	UserID string `json:"userId"`
	InsightContent
	Ctime int64 `json:"createdAt"`
	Mtime int64 `json:"updatedAt"`
}

type Slide struct {
	Title   string   `json:"title"`
	Content []string `json:"content"`
}

// SlideDeck is the outline produced by the presentation tool.
type SlideDeck struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

type Presentation struct {
	ID          string    `json:"id"`
	FileID      string    `json:"fileId"`
	UserID      string    `json:"userId"`
	FileName    string    `json:"fileName"`
	SlideCount  int       `json:"slideCount"`
	Deck        SlideDeck `json:"content"`
	BlobKey     string    `json:"-"`
	BlobSize    int64     `json:"-"`
	DownloadURL string    `json:"downloadUrl"`
	Ctime       int64     `json:"createdAt"`
	Mtime       int64     `json:"updatedAt"`
}
