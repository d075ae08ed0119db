package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/velaphi/legal-assist/internal/domain"
	"github.com/velaphi/legal-assist/internal/llm"
)

const testEmail = "test@example.com"

func userWithKey() *domain.User {
	return &domain.User{
		ID:      uuid.New(),
		Email:   testEmail,
		APIKeys: map[string]string{ProviderGemini: "test-key"},
	}
}

func newChatFixture(completer llm.Completer) (*ChatService, *MockUserRepository, *MockKnowledgeRepository, *MockConversationRepository) {
	users := new(MockUserRepository)
	knowledge := new(MockKnowledgeRepository)
	history := new(MockConversationRepository)
	svc := NewChatService(users, knowledge, history, factoryFor(completer), time.Second)
	return svc, users, knowledge, history
}

func TestChatService_WelcomeMessage(t *testing.T) {
	svc, _, _, _ := newChatFixture(new(MockCompleter))

	view := svc.NewChat(context.Background(), testEmail, domain.AgentPOPIA)

	assert.Equal(t, domain.AgentPOPIA, view.Agent.ID)
	assert.Empty(t, view.ConversationID)
	assert.Len(t, view.Messages, 1)
	assert.Equal(t, domain.SenderAI, view.Messages[0].Sender)
	assert.Equal(t,
		"Welcome to the POPIA Agent. How can I assist you with your popia-related legal questions today?",
		view.Messages[0].Text)
}

func TestChatService_DefaultSession(t *testing.T) {
	svc, _, _, _ := newChatFixture(new(MockCompleter))

	view := svc.Current(context.Background(), testEmail)

	assert.Equal(t, domain.AgentRental, view.Agent.ID)
	assert.Equal(t, StateIdle, view.State)
	assert.Len(t, view.Messages, 1)
}

func TestChatService_SendMessage_StubReply(t *testing.T) {
	completer := new(MockCompleter)
	svc, users, knowledge, history := newChatFixture(completer)

	users.On("Get", mock.Anything, testEmail).Return(userWithKey(), nil)
	knowledge.On("GetForAgent", mock.Anything, domain.AgentRental).Return([]domain.KnowledgeEntry{}, nil)
	completer.On("Complete", mock.Anything, mock.Anything).Return(&llm.Response{Text: "42"}, nil)
	history.On("Save", mock.Anything, testEmail, mock.Anything).Return(nil)

	view, err := svc.SendMessage(context.Background(), testEmail, "What is reasonable notice?")

	assert.NoError(t, err)
	assert.Equal(t, StateIdle, view.State)

	// welcome + user + ai
	assert.Len(t, view.Messages, 3)
	assert.Equal(t, domain.SenderUser, view.Messages[1].Sender)
	assert.Equal(t, "What is reasonable notice?", view.Messages[1].Text)
	assert.Equal(t, domain.SenderAI, view.Messages[2].Sender)
	assert.Equal(t, "42", view.Messages[2].Text)

	// empty knowledge base means the sentinel context block
	req := completer.Calls[0].Arguments.Get(1).(llm.Request)
	assert.True(t, strings.HasPrefix(req.Prompt, llm.NoContextSentinel))

	// exactly one save, last message equals the AI message
	history.AssertNumberOfCalls(t, "Save", 1)
	saved := history.Calls[0].Arguments.Get(2).(*domain.Conversation)
	assert.Equal(t, "42", saved.Messages[len(saved.Messages)-1].Text)
	assert.True(t, strings.HasPrefix(saved.ID, "conv-"))
	assert.Equal(t, "What is reasonable notice?", saved.Title)
	assert.Equal(t, view.ConversationID, saved.ID)
}

func TestChatService_SendMessage_TitleTruncation(t *testing.T) {
	completer := new(MockCompleter)
	svc, users, knowledge, history := newChatFixture(completer)

	users.On("Get", mock.Anything, testEmail).Return(userWithKey(), nil)
	knowledge.On("GetForAgent", mock.Anything, mock.Anything).Return([]domain.KnowledgeEntry{}, nil)
	completer.On("Complete", mock.Anything, mock.Anything).Return(&llm.Response{Text: "ok"}, nil)
	history.On("Save", mock.Anything, testEmail, mock.Anything).Return(nil)

	long := strings.Repeat("x", 80)
	_, err := svc.SendMessage(context.Background(), testEmail, long)
	assert.NoError(t, err)

	saved := history.Calls[0].Arguments.Get(2).(*domain.Conversation)
	assert.Equal(t, strings.Repeat("x", 50), saved.Title)
}

func TestChatService_SendMessage_BlankRejected(t *testing.T) {
	svc, _, _, history := newChatFixture(new(MockCompleter))

	_, err := svc.SendMessage(context.Background(), testEmail, "   ")

	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	history.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_SendMessage_MissingCredential(t *testing.T) {
	completer := new(MockCompleter)
	svc, users, _, history := newChatFixture(completer)

	users.On("Get", mock.Anything, testEmail).Return(&domain.User{ID: uuid.New(), Email: testEmail}, nil)

	view, err := svc.SendMessage(context.Background(), testEmail, "hello")

	assert.NoError(t, err)
	assert.Equal(t, StateIdle, view.State)

	// The user message sticks, followed by the fixed AI error message
	assert.Len(t, view.Messages, 3)
	assert.Equal(t, domain.SenderAI, view.Messages[2].Sender)
	assert.Equal(t, missingCredentialMessage, view.Messages[2].Text)

	// No completion call, no history write
	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	history.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, view.ConversationID)
}

func TestChatService_SendMessage_CompletionFailure(t *testing.T) {
	completer := new(MockCompleter)
	svc, users, knowledge, history := newChatFixture(completer)

	users.On("Get", mock.Anything, testEmail).Return(userWithKey(), nil)
	knowledge.On("GetForAgent", mock.Anything, mock.Anything).Return([]domain.KnowledgeEntry{}, nil)
	completer.On("Complete", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	history.On("Save", mock.Anything, testEmail, mock.Anything).Return(nil)

	view, err := svc.SendMessage(context.Background(), testEmail, "hello")

	// Turn-level failure: no error, the failure becomes a bot message
	assert.NoError(t, err)
	assert.Equal(t, StateIdle, view.State)
	assert.Equal(t, domain.SenderAI, view.Messages[2].Sender)
	assert.Equal(t, assert.AnError.Error(), view.Messages[2].Text)

	// The failed turn is still persisted
	history.AssertNumberOfCalls(t, "Save", 1)
}

func TestChatService_SendMessage_InFlightGuard(t *testing.T) {
	completer := newBlockingCompleter()
	svc, users, knowledge, history := newChatFixture(completer)

	users.On("Get", mock.Anything, testEmail).Return(userWithKey(), nil)
	knowledge.On("GetForAgent", mock.Anything, mock.Anything).Return([]domain.KnowledgeEntry{}, nil)
	history.On("Save", mock.Anything, testEmail, mock.Anything).Return(nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.SendMessage(context.Background(), testEmail, "first")
		done <- err
	}()

	<-completer.started

	// Second send while the first is in flight must be rejected
	_, err := svc.SendMessage(context.Background(), testEmail, "second")
	assert.ErrorIs(t, err, domain.ErrSendInFlight)

	close(completer.release)
	assert.NoError(t, <-done)

	// Only the first turn was saved
	history.AssertNumberOfCalls(t, "Save", 1)
}

func TestChatService_SendMessage_SaveFailureIsNotFatal(t *testing.T) {
	completer := new(MockCompleter)
	svc, users, knowledge, history := newChatFixture(completer)

	users.On("Get", mock.Anything, testEmail).Return(userWithKey(), nil)
	knowledge.On("GetForAgent", mock.Anything, mock.Anything).Return([]domain.KnowledgeEntry{}, nil)
	completer.On("Complete", mock.Anything, mock.Anything).Return(&llm.Response{Text: "ok"}, nil)
	history.On("Save", mock.Anything, testEmail, mock.Anything).Return(assert.AnError)

	view, err := svc.SendMessage(context.Background(), testEmail, "hello")

	assert.NoError(t, err)
	assert.Equal(t, "ok", view.Messages[2].Text)
	assert.Equal(t, StateIdle, view.State)
}

func TestChatService_ConversationIDStableAcrossTurns(t *testing.T) {
	completer := new(MockCompleter)
	svc, users, knowledge, history := newChatFixture(completer)

	users.On("Get", mock.Anything, testEmail).Return(userWithKey(), nil)
	knowledge.On("GetForAgent", mock.Anything, mock.Anything).Return([]domain.KnowledgeEntry{}, nil)
	completer.On("Complete", mock.Anything, mock.Anything).Return(&llm.Response{Text: "ok"}, nil)
	history.On("Save", mock.Anything, testEmail, mock.Anything).Return(nil)

	first, _ := svc.SendMessage(context.Background(), testEmail, "one")
	second, _ := svc.SendMessage(context.Background(), testEmail, "two")

	assert.NotEmpty(t, first.ConversationID)
	assert.Equal(t, first.ConversationID, second.ConversationID)
	history.AssertNumberOfCalls(t, "Save", 2)
}

func TestChatService_SelectConversation(t *testing.T) {
	svc, _, _, history := newChatFixture(new(MockCompleter))

	stored := domain.Conversation{
		ID:      "conv-123",
		AgentID: domain.AgentConsumer,
		Title:   "refund question",
		Messages: []domain.Message{
			{ID: 1, Text: "welcome", Sender: domain.SenderAI},
			{ID: 2, Text: "can I return this?", Sender: domain.SenderUser},
			{ID: 3, Text: "yes, within six months", Sender: domain.SenderAI},
		},
		Timestamp: time.Now(),
	}
	history.On("GetHistory", mock.Anything, testEmail).Return([]domain.Conversation{stored}, nil)

	view, err := svc.SelectConversation(context.Background(), testEmail, "conv-123")

	assert.NoError(t, err)
	assert.Equal(t, domain.AgentConsumer, view.Agent.ID)
	assert.Equal(t, "conv-123", view.ConversationID)
	assert.Equal(t, stored.Messages, view.Messages)
}

func TestChatService_SelectConversation_UnknownAgentFallsBack(t *testing.T) {
	svc, _, _, history := newChatFixture(new(MockCompleter))

	stored := domain.Conversation{
		ID:       "conv-9",
		AgentID:  "retired-agent",
		Messages: []domain.Message{{ID: 1, Text: "hi", Sender: domain.SenderAI}},
	}
	history.On("GetHistory", mock.Anything, testEmail).Return([]domain.Conversation{stored}, nil)

	view, err := svc.SelectConversation(context.Background(), testEmail, "conv-9")

	assert.NoError(t, err)
	assert.Equal(t, domain.AgentGeneral, view.Agent.ID)
}

func TestChatService_SelectConversation_NotFound(t *testing.T) {
	svc, _, _, history := newChatFixture(new(MockCompleter))

	history.On("GetHistory", mock.Anything, testEmail).Return([]domain.Conversation{}, nil)

	_, err := svc.SelectConversation(context.Background(), testEmail, "conv-missing")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestChatService_SelectAgentStartsFresh(t *testing.T) {
	completer := new(MockCompleter)
	svc, users, knowledge, history := newChatFixture(completer)

	users.On("Get", mock.Anything, testEmail).Return(userWithKey(), nil)
	knowledge.On("GetForAgent", mock.Anything, mock.Anything).Return([]domain.KnowledgeEntry{}, nil)
	completer.On("Complete", mock.Anything, mock.Anything).Return(&llm.Response{Text: "ok"}, nil)
	history.On("Save", mock.Anything, testEmail, mock.Anything).Return(nil)

	sent, _ := svc.SendMessage(context.Background(), testEmail, "hello")
	assert.NotEmpty(t, sent.ConversationID)

	view := svc.SelectAgent(context.Background(), testEmail, domain.AgentPOPIA)

	assert.Equal(t, domain.AgentPOPIA, view.Agent.ID)
	assert.Empty(t, view.ConversationID)
	assert.Len(t, view.Messages, 1)
}

func TestChatService_KnowledgeEntriesReachThePrompt(t *testing.T) {
	completer := new(MockCompleter)
	svc, users, knowledge, history := newChatFixture(completer)

	entries := []domain.KnowledgeEntry{{
		URL:     "https://example.com/act",
		AgentID: domain.AgentRental,
		Content: domain.KnowledgeContent{Summary: "deposits earn interest"},
	}}

	users.On("Get", mock.Anything, testEmail).Return(userWithKey(), nil)
	knowledge.On("GetForAgent", mock.Anything, domain.AgentRental).Return(entries, nil)
	completer.On("Complete", mock.Anything, mock.Anything).Return(&llm.Response{Text: "ok"}, nil)
	history.On("Save", mock.Anything, testEmail, mock.Anything).Return(nil)

	_, err := svc.SendMessage(context.Background(), testEmail, "deposit?")
	assert.NoError(t, err)

	req := completer.Calls[0].Arguments.Get(1).(llm.Request)
	assert.Contains(t, req.Prompt, "deposits earn interest")
	assert.Contains(t, req.Prompt, "Source 1 (from https://example.com/act):")
}
