package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

const (
	summaryTemperature = 0.3
	insightTemperature = 0.4
	slidesTemperature  = 0.4
	chatTemperature    = 0
)

const summarySystem = "You are a professional document summarizer. Create comprehensive, well-structured summaries in HTML format suitable for a rich text editor."

const summaryPrompt = `Create a comprehensive summary of the following document content in HTML format.

Requirements:
- Use semantic HTML tags (h1, h2, h3, p, ul, ol, strong, em)
- Start with an h1 title "Document Summary"
- Organize information with clear headings and subheadings
- Use bullet points or numbered lists for key points
- Highlight important terms with <strong> tags
- Make it well-structured and easy to read
- Do not include <html>, <head>, or <body> tags - only the content that goes inside a document body

DOCUMENT CONTENT:
%s

Generate the HTML summary now:`

const insightSystem = "You are an expert document analyst specializing in extracting deep insights, patterns, and actionable intelligence from documents. You provide strategic analysis that goes beyond surface-level summaries."

const insightPrompt = `Analyze the following document content and provide comprehensive insights in JSON format. Respond ONLY with pure JSON. Do NOT include code fences, markdown, or backticks.

DOCUMENT CONTENT:
%s

Generate a JSON response with the following structure:
{
  "insight": "A detailed HTML-formatted analytical insight (3-4 paragraphs) that identifies patterns, connections, implications, and deeper meaning. Use <p>, <strong>, <em>, <h3> tags.",
  "keyFindings": ["First major finding or pattern identified", "Second major finding or pattern identified", "Third major finding or pattern identified"],
  "actionItems": ["Specific actionable recommendation based on the analysis", "Another practical action item", "Additional suggestion for next steps"],
  "questions": ["Thought-provoking question raised by the content", "Another question for deeper exploration", "Question about implications or applications"]
}

Focus on:
- Identifying underlying patterns and themes
- Drawing connections between different sections
- Highlighting implications and consequences
- Suggesting practical applications
- Raising thought-provoking questions
- Providing strategic recommendations

Respond ONLY with valid JSON, no additional text.`

const slidesSystem = "You are an expert presentation designer who creates well-structured, engaging slide decks. You excel at distilling complex information into clear, concise slides with compelling narratives."

const slidesPrompt = `Create a %d-slide presentation outline based on the document content below. Respond ONLY with pure JSON. Do NOT include code fences, markdown, or backticks.

DOCUMENT CONTENT:
%s

Generate a JSON response with this EXACT structure:
{
  "title": "Compelling Presentation Title",
  "slides": [
    {
      "title": "Slide Title",
      "content": ["Bullet point 1", "Bullet point 2", "Bullet point 3"]
    }
  ]
}

Requirements:
- Create exactly %d slides
- First slide should be a title slide with just the main topic
- Each content slide should have a clear, descriptive title
- Each slide should have 3-5 concise, impactful bullet points
- Bullet points should be actionable and specific
- Content should flow logically from slide to slide
- Last slide can be a summary, conclusion, or call-to-action
- Use professional language suitable for business presentations
- Ensure all content is derived from the provided document

Remember: Return ONLY the JSON object, no additional text or formatting.`

const chatSystem = "Use the provided context and conversation to answer the user's question in markdown format."

const chatPrompt = `PREVIOUS CONVERSATION:
%s

----------------

CONTEXT:
%s

USER INPUT:
%s`

type ManagerConfig struct {
	Timeout int
}

type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, embedder IEmbedder, cfg ManagerConfig) *Manager {
	return &Manager{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return m.embedder.Embed(ctx, text, taskType)
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

// Summarize returns an HTML fragment built from the given passages.
func (m *Manager) Summarize(ctx context.Context, passages []string) (string, error) {
	out, err := m.generateText(ctx, &Request{
		System:      summarySystem,
		Messages:    []Message{{Role: RoleUser, Content: fmt.Sprintf(summaryPrompt, joinPassages(passages))}},
		Temperature: summaryTemperature,
	})
	if err != nil {
		return "", err
	}
	summary, err := normalizeSummary(out)
	if err != nil {
		logMalformed(ctx, "summary", out, err)
		return "", err
	}
	return summary, nil
}

func (m *Manager) ExtractInsight(ctx context.Context, passages []string) (*model.InsightContent, error) {
	out, err := m.generateText(ctx, &Request{
		System:      insightSystem,
		Messages:    []Message{{Role: RoleUser, Content: fmt.Sprintf(insightPrompt, joinPassages(passages))}},
		Temperature: insightTemperature,
	})
	if err != nil {
		return nil, err
	}
	insight, err := parseInsight(out)
	if err != nil {
		logMalformed(ctx, "insight", out, err)
		return nil, err
	}
	return insight, nil
}

func (m *Manager) OutlineSlides(ctx context.Context, passages []string, slideCount int) (*model.SlideDeck, error) {
	out, err := m.generateText(ctx, &Request{
		System:      slidesSystem,
		Messages:    []Message{{Role: RoleUser, Content: fmt.Sprintf(slidesPrompt, slideCount, joinPassages(passages), slideCount)}},
		Temperature: slidesTemperature,
	})
	if err != nil {
		return nil, err
	}
	deck, err := parseSlides(out)
	if err != nil {
		logMalformed(ctx, "presentation", out, err)
		return nil, err
	}
	return deck, nil
}

// Chat streams an answer grounded on passages and the prior turns, which
// must be ordered oldest first. The full answer is returned once the model
// finishes.
func (m *Manager) Chat(ctx context.Context, history []model.Message, passages []string, question string, onToken TokenFunc) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured")
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	req := &Request{
		System:      chatSystem,
		Messages:    []Message{{Role: RoleUser, Content: fmt.Sprintf(chatPrompt, formatHistory(history), joinPassages(passages), question)}},
		Temperature: chatTemperature,
	}
	return m.generator.Stream(ctx, req, onToken)
}

func (m *Manager) generateText(ctx context.Context, req *Request) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured")
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	resp, err := m.generator.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty ai response", appErr.ErrMalformedOutput)
	}
	return text, nil
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
}

func joinPassages(passages []string) string {
	return strings.Join(passages, "\n\n")
}

func formatHistory(history []model.Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		if msg.IsUserMessage {
			lines = append(lines, "User: "+msg.Text)
			continue
		}
		lines = append(lines, "Assistant: "+msg.Text)
	}
	return strings.Join(lines, "\n")
}

func logMalformed(ctx context.Context, tool string, raw string, err error) {
	if !errors.Is(err, appErr.ErrMalformedOutput) {
		return
	}
	logutil.GetLogger(ctx).Warn("malformed generation output",
		zap.String("tool", tool),
		zap.String("raw", raw),
		zap.Error(err),
	)
}
