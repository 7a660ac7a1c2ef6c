package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

func newChatService(f *fixture) *ChatService {
	return NewChatService(f.files, f.messages, f.ledger, f.rag)
}

func TestChatSendStreamsAndPersists(t *testing.T) {
	f := newFixture(t, 5)
	svc := newChatService(f)

	var streamed strings.Builder
	reply, err := svc.Send(context.Background(), testUser, testFile, "  what grew?  ", func(tok string) error {
		streamed.WriteString(tok)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Revenue grew 10%.", streamed.String())
	require.Equal(t, "Revenue grew 10%.", reply.Text)

	stored := f.messages.All(testFile)
	require.Len(t, stored, 2)
	require.True(t, stored[0].IsUserMessage)
	require.Equal(t, "what grew?", stored[0].Text)
	require.False(t, stored[1].IsUserMessage)
	require.Equal(t, "Revenue grew 10%.", stored[1].Text)
	require.Equal(t, 1, f.usage(model.ToolChat).Count)
}

func TestChatPersistsAfterClientWentAway(t *testing.T) {
	f := newFixture(t, 5)
	svc := newChatService(f)

	writes := 0
	reply, err := svc.Send(context.Background(), testUser, testFile, "what grew?", func(tok string) error {
		writes++
		return errors.New("broken pipe")
	})
	require.NoError(t, err)
	require.Equal(t, 1, writes)
	require.Equal(t, "Revenue grew 10%.", reply.Text)
	require.Len(t, f.messages.All(testFile), 2)
}

func TestChatHistoryWindow(t *testing.T) {
	f := newFixture(t, 5)
	svc := newChatService(f)
	ctx := context.Background()
	for i := 1; i <= 8; i++ {
		require.NoError(t, f.messages.Append(ctx, &model.Message{
			ID:            fmt.Sprintf("m-%d", i),
			FileID:        testFile,
			UserID:        testUser,
			IsUserMessage: i%2 == 1,
			Text:          fmt.Sprintf("turn %d", i),
		}))
	}

	_, err := svc.Send(ctx, testUser, testFile, "latest question", nil)
	require.NoError(t, err)

	history := f.gen.LastHistory
	require.Len(t, history, historyWindow)
	require.Equal(t, "turn 3", history[0].Text)
	require.Equal(t, "turn 8", history[len(history)-1].Text)
}

func TestChatFailureRollsBackButKeepsQuestion(t *testing.T) {
	f := newFixture(t, 5)
	f.gen.Err = errors.New("model unavailable")
	svc := newChatService(f)

	_, err := svc.Send(context.Background(), testUser, testFile, "what grew?", nil)
	require.Error(t, err)
	require.Equal(t, 0, f.usage(model.ToolChat).Count)
	stored := f.messages.All(testFile)
	require.Len(t, stored, 1)
	require.True(t, stored[0].IsUserMessage)
}

func TestChatAssistantPersistFailureRollsBack(t *testing.T) {
	f := newFixture(t, 5)
	f.messages.FailOn = 2
	f.messages.Err = errors.New("write failed")
	svc := newChatService(f)

	_, err := svc.Send(context.Background(), testUser, testFile, "what grew?", nil)
	require.Error(t, err)
	require.Equal(t, 0, f.usage(model.ToolChat).Count)
}

func TestChatValidation(t *testing.T) {
	f := newFixture(t, 5)
	svc := newChatService(f)
	ctx := context.Background()

	_, err := svc.Send(ctx, testUser, testFile, "   ", nil)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Send(ctx, testUser, "missing", "hello", nil)
	require.True(t, appErr.IsNotFound(err))
	require.Equal(t, 0, f.usage(model.ToolChat).Count)
}

func TestChatLimit(t *testing.T) {
	f := newFixture(t, 1)
	svc := newChatService(f)
	ctx := context.Background()

	_, err := svc.Send(ctx, testUser, testFile, "one", nil)
	require.NoError(t, err)
	_, err = svc.Send(ctx, testUser, testFile, "two", nil)
	var limitErr *appErr.UsageLimitError
	require.ErrorAs(t, err, &limitErr)
	require.Equal(t, "CHAT_LIMIT_EXCEEDED", limitErr.Code())
	require.Len(t, f.messages.All(testFile), 2)
}

func TestListMessagesPaging(t *testing.T) {
	f := newFixture(t, 5)
	svc := newChatService(f)
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		require.NoError(t, f.messages.Append(ctx, &model.Message{
			ID:     fmt.Sprintf("m-%d", i),
			FileID: testFile,
			UserID: testUser,
			Text:   fmt.Sprintf("turn %d", i),
		}))
	}

	page, next, err := svc.ListMessages(ctx, testUser, testFile, "", 0)
	require.NoError(t, err)
	require.Len(t, page, DefaultMessagePageSize)
	require.Equal(t, "m-12", page[0].ID)
	require.Equal(t, "m-2", next)

	page, next, err = svc.ListMessages(ctx, testUser, testFile, next, 5)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "m-2", page[0].ID)
	require.Empty(t, next)

	_, _, err = svc.ListMessages(ctx, testUser, testFile, "", MaxMessagePageSize+1)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, _, err = svc.ListMessages(ctx, testUser, "missing", "", 5)
	require.True(t, appErr.IsNotFound(err))
}
