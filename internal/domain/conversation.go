package domain

import (
	"context"
	"time"
)

// DefaultTitle is used when a conversation has no user message to derive a
// title from.
const DefaultTitle = "New Conversation"

const titleMaxRunes = 50

// Conversation is a persisted chat thread owned by one user and one agent.
// Messages are stored in chat order; Timestamp reflects the last update.
type Conversation struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Timestamp time.Time `json:"timestamp"`
}

// DeriveTitle returns the first user message truncated to 50 characters, or
// DefaultTitle if no user message exists yet.
func DeriveTitle(messages []Message) string {
	for _, m := range messages {
		if m.Sender != SenderUser {
			continue
		}
		runes := []rune(m.Text)
		if len(runes) > titleMaxRunes {
			return string(runes[:titleMaxRunes])
		}
		return m.Text
	}
	return DefaultTitle
}

// ConversationRepository defines the interface for chat history storage.
type ConversationRepository interface {
	// GetHistory returns the user's conversations, most recent first.
	GetHistory(ctx context.Context, userEmail string) ([]Conversation, error)

	// Save inserts the conversation at the head of the history, or replaces
	// an existing conversation with the same id.
	Save(ctx context.Context, userEmail string, conversation *Conversation) error

	// Delete removes a conversation; no-op if absent.
	Delete(ctx context.Context, userEmail, conversationID string) error
}
