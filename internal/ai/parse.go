package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

var fenceRegex = regexp.MustCompile("```[a-zA-Z]*\\n?")

func stripFences(output string) string {
	return strings.TrimSpace(fenceRegex.ReplaceAllString(output, ""))
}

// jsonObject returns the outermost {...} span of a fence-stripped output.
func jsonObject(output string) string {
	clean := stripFences(output)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		return clean[start : end+1]
	}
	return clean
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", appErr.ErrMalformedOutput, fmt.Sprintf(format, args...))
}

func parseInsight(output string) (*model.InsightContent, error) {
	var raw struct {
		Insight     string   `json:"insight"`
		KeyFindings []string `json:"keyFindings"`
		ActionItems []string `json:"actionItems"`
		Questions   []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(jsonObject(output)), &raw); err != nil {
		return nil, malformed("parse insight: %v", err)
	}
	if strings.TrimSpace(raw.Insight) == "" {
		return nil, malformed("insight is empty")
	}
	return &model.InsightContent{
		Insight:     raw.Insight,
		KeyFindings: nonNil(raw.KeyFindings),
		ActionItems: nonNil(raw.ActionItems),
		Questions:   nonNil(raw.Questions),
	}, nil
}

func parseSlides(output string) (*model.SlideDeck, error) {
	var raw struct {
		Title  *string `json:"title"`
		Slides *[]struct {
			Title   *string   `json:"title"`
			Content *[]string `json:"content"`
		} `json:"slides"`
	}
	if err := json.Unmarshal([]byte(jsonObject(output)), &raw); err != nil {
		return nil, malformed("parse slides: %v", err)
	}
	if raw.Title == nil || strings.TrimSpace(*raw.Title) == "" {
		return nil, malformed("presentation title missing")
	}
	if raw.Slides == nil {
		return nil, malformed("slides array missing")
	}
	deck := &model.SlideDeck{Title: *raw.Title, Slides: make([]model.Slide, 0, len(*raw.Slides))}
	for i, s := range *raw.Slides {
		if s.Title == nil || strings.TrimSpace(*s.Title) == "" {
			return nil, malformed("slide %d title missing", i+1)
		}
		if s.Content == nil {
			return nil, malformed("slide %d content missing", i+1)
		}
		deck.Slides = append(deck.Slides, model.Slide{Title: *s.Title, Content: *s.Content})
	}
	if len(deck.Slides) == 0 {
		return nil, malformed("no slides")
	}
	return deck, nil
}

// normalizeSummary keeps HTML output as is and renders markdown-shaped output
// to HTML so stored summaries are always editor fragments.
func normalizeSummary(output string) (string, error) {
	clean := stripFences(output)
	if clean == "" {
		return "", malformed("summary is empty")
	}
	if strings.HasPrefix(clean, "<") {
		return clean, nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(clean), &buf); err != nil {
		return "", malformed("render summary: %v", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
