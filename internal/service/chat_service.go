package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/ai"
	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

const (
	historyWindow = 6

	DefaultMessagePageSize = 10
	MaxMessagePageSize     = 100
)

type ChatService struct {
	files    FileReader
	messages MessageRepository
	ledger   *UsageLedger
	rag      *RAGOrchestrator
}

func NewChatService(files FileReader, messages MessageRepository, ledger *UsageLedger, rag *RAGOrchestrator) *ChatService {
	return &ChatService{files: files, messages: messages, ledger: ledger, rag: rag}
}

// Send stores the user's message, answers it from the file and stores the
// answer. Tokens reach onToken while they are generated; onToken failures
// are ignored so the answer is stored even after the client went away.
// The user message stays in history when generation fails.
func (s *ChatService) Send(ctx context.Context, userID, fileID, text string, onToken ai.TokenFunc) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", appErr.ErrInvalid)
	}
	if _, err := s.files.GetByID(ctx, userID, fileID); err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("file_id", fileID), zap.String("user_id", userID))

	var reply *model.Message
	_, err := s.ledger.Run(ctx, fileID, model.ToolChat, func(ctx context.Context) error {
		question := &model.Message{
			ID:            newID(),
			FileID:        fileID,
			UserID:        userID,
			IsUserMessage: true,
			Text:          text,
			Ctime:         nowMillis(),
		}
		if err := s.messages.Append(ctx, question); err != nil {
			return fmt.Errorf("store user message: %w", err)
		}
		history, err := s.messages.ListRecent(ctx, fileID, question.Seq, historyWindow)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		answer, err := s.rag.Chat(ctx, fileID, history, text, forwardTokens(ctx, onToken))
		if err != nil {
			return err
		}
		reply = &model.Message{
			ID:     newID(),
			FileID: fileID,
			UserID: userID,
			Text:   answer,
			Ctime:  nowMillis(),
		}
		if err := s.messages.Append(ctx, reply); err != nil {
			return fmt.Errorf("store assistant message: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Error("chat failed", zap.Error(err))
		return nil, err
	}
	logger.Debug("chat answered", zap.Int("reply_len", len(reply.Text)))
	return reply, nil
}

// forwardTokens hands tokens to onToken until it first fails and then keeps
// generation going silently.
func forwardTokens(ctx context.Context, onToken ai.TokenFunc) ai.TokenFunc {
	if onToken == nil {
		return nil
	}
	detached := false
	return func(token string) error {
		if detached {
			return nil
		}
		if err := onToken(token); err != nil {
			detached = true
			logutil.GetLogger(ctx).Debug("client stopped reading chat stream", zap.Error(err))
		}
		return nil
	}
}

// ListMessages pages a file's messages newest first. nextCursor is the id of
// the first message of the next page, or empty on the last one.
func (s *ChatService) ListMessages(ctx context.Context, userID, fileID, cursor string, limit int) ([]model.Message, string, error) {
	if limit == 0 {
		limit = DefaultMessagePageSize
	}
	if limit < 1 || limit > MaxMessagePageSize {
		return nil, "", fmt.Errorf("%w: limit must be between 1 and %d", appErr.ErrInvalid, MaxMessagePageSize)
	}
	if _, err := s.files.GetByID(ctx, userID, fileID); err != nil {
		return nil, "", err
	}
	items, err := s.messages.ListPage(ctx, fileID, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	var next string
	if len(items) > limit {
		next = items[limit].ID
		items = items[:limit]
	}
	return items, next, nil
}
