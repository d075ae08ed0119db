package service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/velaphi/legal-assist/internal/domain"
	"github.com/velaphi/legal-assist/internal/llm"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Get(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockKnowledgeRepository mocks the KnowledgeRepository interface
type MockKnowledgeRepository struct {
	mock.Mock
}

func (m *MockKnowledgeRepository) GetAll(ctx context.Context) (domain.KnowledgeBase, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.KnowledgeBase), args.Error(1)
}

func (m *MockKnowledgeRepository) GetForAgent(ctx context.Context, agentID string) ([]domain.KnowledgeEntry, error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).([]domain.KnowledgeEntry), args.Error(1)
}

func (m *MockKnowledgeRepository) Upsert(ctx context.Context, entry *domain.KnowledgeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockKnowledgeRepository) Delete(ctx context.Context, agentID, entryID string) error {
	args := m.Called(ctx, agentID, entryID)
	return args.Error(0)
}

// MockConversationRepository mocks the ConversationRepository interface
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) GetHistory(ctx context.Context, userEmail string) ([]domain.Conversation, error) {
	args := m.Called(ctx, userEmail)
	return args.Get(0).([]domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) Save(ctx context.Context, userEmail string, conversation *domain.Conversation) error {
	args := m.Called(ctx, userEmail, conversation)
	return args.Error(0)
}

func (m *MockConversationRepository) Delete(ctx context.Context, userEmail, conversationID string) error {
	args := m.Called(ctx, userEmail, conversationID)
	return args.Error(0)
}

// MockCompleter mocks llm.Completer
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// blockingCompleter holds every Complete call until released. Used to drive
// the in-flight send guard.
type blockingCompleter struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingCompleter() *blockingCompleter {
	return &blockingCompleter{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (c *blockingCompleter) Name() string { return "blocking" }

func (c *blockingCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	close(c.started)
	<-c.release
	return &llm.Response{Text: "done"}, nil
}

func factoryFor(c llm.Completer) llm.Factory {
	return func(apiKey string) llm.Completer { return c }
}
