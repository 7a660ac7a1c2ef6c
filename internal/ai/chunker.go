package ai

import (
	"context"
	"regexp"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/model"
	"github.com/COROTANjayson/readify/internal/pkg/hashutil"
)

const (
	defaultChunkTokens   = 400
	defaultOverlapTokens = 80
)

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// Page is the extracted text of one document page, numbered from 1.
type Page struct {
	Number int
	Text   string
}

type Chunker struct {
	maxTokens     int
	overlapTokens int
}

func NewChunker() *Chunker {
	return &Chunker{maxTokens: defaultChunkTokens, overlapTokens: defaultOverlapTokens}
}

// Chunk splits pages into overlapping chunks. A chunk never spans two pages,
// so every passage can be attributed to the page it came from.
func (c *Chunker) Chunk(ctx context.Context, pages []Page) []model.Chunk {
	logger := logutil.GetLogger(ctx)
	var chunks []model.Chunk
	position := 0
	for _, page := range pages {
		var parts []string
		tokens := 0
		flush := func() {
			if len(parts) == 0 {
				return
			}
			content := strings.Join(parts, "\n\n")
			chunks = append(chunks, model.Chunk{
				Position:    position,
				Page:        page.Number,
				Content:     content,
				TokenCount:  estimateTokens(content),
				ContentHash: hashutil.ContentHash(content),
			})
			position++
			// carry the tail forward as overlap
			var overlap []string
			overlapTokens := 0
			for i := len(parts) - 1; i > 0; i-- {
				t := estimateTokens(parts[i])
				if overlapTokens+t > c.overlapTokens {
					break
				}
				overlapTokens += t
				overlap = append([]string{parts[i]}, overlap...)
			}
			parts = overlap
			tokens = overlapTokens
		}
		for _, piece := range c.pieces(page.Text) {
			t := estimateTokens(piece)
			if tokens+t > c.maxTokens && tokens > 0 {
				flush()
				if tokens+t > c.maxTokens {
					parts, tokens = nil, 0
				}
			}
			parts = append(parts, piece)
			tokens += t
		}
		if tokens > 0 {
			flush()
		}
	}
	logger.Debug("chunking completed", zap.Int("pages", len(pages)), zap.Int("total_chunks", len(chunks)))
	return chunks
}

// pieces breaks page text into paragraphs, and paragraphs longer than one
// chunk into word windows.
func (c *Chunker) pieces(text string) []string {
	var out []string
	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.Join(strings.Fields(para), " ")
		if para == "" {
			continue
		}
		if estimateTokens(para) <= c.maxTokens {
			out = append(out, para)
			continue
		}
		words := strings.Fields(para)
		step := c.maxTokens / 2
		for start := 0; start < len(words); start += step {
			end := start + step
			if end > len(words) {
				end = len(words)
			}
			out = append(out, strings.Join(words[start:end], " "))
		}
	}
	return out
}

func estimateTokens(text string) int {
	// words for latin text, one token per rune for CJK
	count := 0
	for _, r := range text {
		if r > 127 {
			count++
		}
	}
	count += len(strings.Fields(text))
	if count == 0 && len(text) > 0 {
		return 1
	}
	return count
}
