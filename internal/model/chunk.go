package model

// Chunk is one embedded passage of a file. FileID is the namespace.
type Chunk struct {
	ID          string    `json:"id"`
	FileID      string    `json:"fileId"`
	Position    int       `json:"position"`
	Page        int       `json:"page"`
	Content     string    `json:"content"`
	TokenCount  int       `json:"tokenCount"`
	ContentHash string    `json:"-"`
	Embedding   []float32 `json:"-"`
	Ctime       int64     `json:"createdAt"`
}

// Passage is a retrieved chunk with its similarity score.
type Passage struct {
	Content string  `json:"content"`
	Page    int     `json:"page"`
	Score   float64 `json:"score"`
}

// EmbeddingKey identifies one cached vector. Digest is the content hash of
// the embedded text.
type EmbeddingKey struct {
	Model    string
	TaskType string
	Digest   string
}

type EmbeddingCache struct {
	Key       EmbeddingKey
	Embedding []float32
	Ctime     int64
	// Atime is refreshed on every cache hit; idle entries are purged by it.
	Atime int64
}
