package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/velaphi/legal-assist/internal/domain"
	"github.com/velaphi/legal-assist/internal/llm"
)

// ProviderGemini is the provider key under which users store their
// completion credential.
const ProviderGemini = "gemini"

// missingCredentialMessage is shown as an AI message when the user has no
// API key configured. The turn is not persisted and no completion call is
// made.
const missingCredentialMessage = "Gemini API key not found. Please add your API key in Settings to start chatting."

// SessionState tags the per-session send state machine.
type SessionState string

const (
	StateIdle    SessionState = "idle"
	StateSending SessionState = "sending"
)

// session is one user's active conversation. All fields are guarded by mu;
// the state field enforces at most one in-flight completion call.
type session struct {
	mu             sync.Mutex
	state          SessionState
	agent          domain.Agent
	conversationID string
	messages       []domain.Message
	nextMessageID  int64
}

// SessionView is an immutable snapshot of a session returned to handlers.
type SessionView struct {
	Agent          domain.Agent     `json:"agent"`
	ConversationID string           `json:"conversation_id,omitempty"`
	Messages       []domain.Message `json:"messages"`
	State          SessionState     `json:"state"`
}

// ChatService drives the conversation state machine: one session per user,
// optimistic message appends, and best-effort history persistence.
type ChatService struct {
	mu       sync.Mutex
	sessions map[string]*session

	users          domain.UserRepository
	knowledge      domain.KnowledgeRepository
	history        domain.ConversationRepository
	completers     llm.Factory
	requestTimeout time.Duration
}

// NewChatService creates a new chat service
func NewChatService(
	users domain.UserRepository,
	knowledge domain.KnowledgeRepository,
	history domain.ConversationRepository,
	completers llm.Factory,
	requestTimeout time.Duration,
) *ChatService {
	return &ChatService{
		sessions:       make(map[string]*session),
		users:          users,
		knowledge:      knowledge,
		history:        history,
		completers:     completers,
		requestTimeout: requestTimeout,
	}
}

// getSession returns the user's session, creating a default one seeded with
// a welcome message on first use.
func (s *ChatService) getSession(userEmail string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userEmail]
	if !ok {
		sess = &session{state: StateIdle}
		sess.reset(domain.DefaultAgent())
		s.sessions[userEmail] = sess
	}
	return sess
}

// reset seeds the session with a fresh conversation for the agent. Caller
// holds sess.mu (or the session is not yet shared).
func (sess *session) reset(agent domain.Agent) {
	sess.agent = agent
	sess.conversationID = ""
	sess.nextMessageID = 1
	sess.messages = []domain.Message{{
		ID:     sess.appendID(),
		Text:   welcomeMessage(agent),
		Sender: domain.SenderAI,
	}}
}

func (sess *session) appendID() int64 {
	id := sess.nextMessageID
	sess.nextMessageID++
	return id
}

func (sess *session) view() SessionView {
	messages := make([]domain.Message, len(sess.messages))
	copy(messages, sess.messages)
	return SessionView{
		Agent:          sess.agent,
		ConversationID: sess.conversationID,
		Messages:       messages,
		State:          sess.state,
	}
}

func welcomeMessage(agent domain.Agent) string {
	return fmt.Sprintf(
		"Welcome to the %s. How can I assist you with your %s-related legal questions today?",
		agent.Name, strings.ToLower(agent.ShortName),
	)
}

// Current returns the user's active session, creating one if needed.
func (s *ChatService) Current(ctx context.Context, userEmail string) SessionView {
	sess := s.getSession(userEmail)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view()
}

// NewChat starts a fresh conversation with the agent. History is untouched;
// nothing is persisted until the first completed turn.
func (s *ChatService) NewChat(ctx context.Context, userEmail, agentID string) SessionView {
	sess := s.getSession(userEmail)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.reset(domain.AgentByID(agentID))
	return sess.view()
}

// SelectAgent switches the active agent and starts a fresh conversation.
func (s *ChatService) SelectAgent(ctx context.Context, userEmail, agentID string) SessionView {
	return s.NewChat(ctx, userEmail, agentID)
}

// SelectConversation resumes a conversation from history: the session adopts
// its agent, messages, and id verbatim.
func (s *ChatService) SelectConversation(ctx context.Context, userEmail, conversationID string) (SessionView, error) {
	conversations, err := s.history.GetHistory(ctx, userEmail)
	if err != nil {
		return SessionView{}, err
	}

	var found *domain.Conversation
	for i := range conversations {
		if conversations[i].ID == conversationID {
			found = &conversations[i]
			break
		}
	}
	if found == nil {
		return SessionView{}, domain.ErrConversationNotFound
	}

	sess := s.getSession(userEmail)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.agent = domain.AgentByID(found.AgentID)
	sess.conversationID = found.ID
	sess.messages = make([]domain.Message, len(found.Messages))
	copy(sess.messages, found.Messages)

	sess.nextMessageID = 1
	for _, m := range sess.messages {
		if m.ID >= sess.nextMessageID {
			sess.nextMessageID = m.ID + 1
		}
	}

	return sess.view(), nil
}

// SendMessage runs one chat turn: append the user message, call the
// completion service with knowledge-augmented context, append the AI reply,
// and persist the conversation. Blank text and concurrent sends are
// rejected before any state changes.
func (s *ChatService) SendMessage(ctx context.Context, userEmail, text string) (SessionView, error) {
	if strings.TrimSpace(text) == "" {
		return SessionView{}, domain.ErrEmptyMessage
	}

	sess := s.getSession(userEmail)

	sess.mu.Lock()
	if sess.state == StateSending {
		sess.mu.Unlock()
		return SessionView{}, domain.ErrSendInFlight
	}
	sess.state = StateSending
	sess.messages = append(sess.messages, domain.Message{
		ID:     sess.appendID(),
		Text:   text,
		Sender: domain.SenderUser,
	})
	agent := sess.agent
	sess.mu.Unlock()

	apiKey, err := s.resolveCredential(ctx, userEmail)
	if err != nil {
		// Fixed AI message, no completion call, no history write for this
		// turn. Recoverable only by the user configuring a key.
		sess.mu.Lock()
		defer sess.mu.Unlock()
		sess.messages = append(sess.messages, domain.Message{
			ID:     sess.appendID(),
			Text:   missingCredentialMessage,
			Sender: domain.SenderAI,
		})
		sess.state = StateIdle
		return sess.view(), nil
	}

	aiText := s.complete(ctx, agent, apiKey, text)

	sess.mu.Lock()
	sess.messages = append(sess.messages, domain.Message{
		ID:     sess.appendID(),
		Text:   aiText,
		Sender: domain.SenderAI,
	})
	if sess.conversationID == "" {
		sess.conversationID = fmt.Sprintf("conv-%d", time.Now().UnixMilli())
	}
	conversation := &domain.Conversation{
		ID:        sess.conversationID,
		AgentID:   sess.agent.ID,
		Title:     domain.DeriveTitle(sess.messages),
		Messages:  append([]domain.Message(nil), sess.messages...),
		Timestamp: time.Now(),
	}
	sess.state = StateIdle
	view := sess.view()
	sess.mu.Unlock()

	if err := s.history.Save(ctx, userEmail, conversation); err != nil {
		log.Error().Err(err).Str("conversation", conversation.ID).Msg("failed to save conversation")
	}

	return view, nil
}

// resolveCredential looks up the user's completion API key.
func (s *ChatService) resolveCredential(ctx context.Context, userEmail string) (string, error) {
	user, err := s.users.Get(ctx, userEmail)
	if err != nil {
		return "", err
	}
	if user == nil || user.APIKeys[ProviderGemini] == "" {
		return "", domain.ErrCredentialMissing
	}
	return user.APIKeys[ProviderGemini], nil
}

// complete runs the knowledge-augmented completion call and maps failures
// to a user-safe reply. Turn-level failures never propagate as errors.
func (s *ChatService) complete(ctx context.Context, agent domain.Agent, apiKey, question string) string {
	entries, err := s.knowledge.GetForAgent(ctx, agent.ID)
	if err != nil {
		log.Warn().Err(err).Str("agent", agent.ID).Msg("failed to load knowledge entries")
		entries = nil
	}

	req := llm.BuildChatPrompt(question, agent.ID, entries)

	callCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	resp, err := s.completers(apiKey).Complete(callCtx, req)
	if err != nil {
		log.Error().Err(err).Str("agent", agent.ID).Msg("completion call failed")
		return (&domain.CompletionError{Err: err}).Message()
	}
	return resp.Text
}
