package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/velaphi/legal-assist/internal/domain"
	"github.com/velaphi/legal-assist/internal/kvstore"
)

const historyKeyPrefix = "chat_history_"

// HistoryStore persists conversation history per user. Reads degrade to an
// empty list on backend failure; the user sees no history rather than an
// error page.
type HistoryStore struct {
	kv kvstore.Store
}

func NewHistoryStore(kv kvstore.Store) *HistoryStore {
	return &HistoryStore{kv: kv}
}

// GetHistory returns the user's conversations, most recent first.
func (s *HistoryStore) GetHistory(ctx context.Context, userEmail string) ([]domain.Conversation, error) {
	conversations, err := s.load(ctx, userEmail)
	if err != nil {
		log.Warn().Err(err).Str("user", userEmail).Msg("chat history unavailable, returning empty")
		return []domain.Conversation{}, nil
	}
	return conversations, nil
}

// Save inserts the conversation at the head of the history, or replaces an
// existing conversation with the same id.
func (s *HistoryStore) Save(ctx context.Context, userEmail string, conversation *domain.Conversation) error {
	conversations, err := s.load(ctx, userEmail)
	if err != nil {
		return err
	}

	replaced := false
	for i := range conversations {
		if conversations[i].ID == conversation.ID {
			conversations[i] = *conversation
			replaced = true
			break
		}
	}
	if !replaced {
		conversations = append([]domain.Conversation{*conversation}, conversations...)
	}

	sortByTimestampDesc(conversations)
	return s.save(ctx, userEmail, conversations)
}

// Delete removes a conversation; no-op if absent.
func (s *HistoryStore) Delete(ctx context.Context, userEmail, conversationID string) error {
	conversations, err := s.load(ctx, userEmail)
	if err != nil {
		return err
	}

	filtered := conversations[:0]
	for _, c := range conversations {
		if c.ID != conversationID {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == len(conversations) {
		return nil
	}

	return s.save(ctx, userEmail, filtered)
}

func (s *HistoryStore) load(ctx context.Context, userEmail string) ([]domain.Conversation, error) {
	key := historyKeyPrefix + userEmail

	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []domain.Conversation{}, nil
		}
		return nil, &domain.PersistenceError{Op: "get", Key: key, Err: err}
	}

	var conversations []domain.Conversation
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, &domain.PersistenceError{Op: "get", Key: key, Err: err}
	}

	sortByTimestampDesc(conversations)
	return conversations, nil
}

func (s *HistoryStore) save(ctx context.Context, userEmail string, conversations []domain.Conversation) error {
	key := historyKeyPrefix + userEmail

	data, err := json.Marshal(conversations)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return &domain.PersistenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func sortByTimestampDesc(conversations []domain.Conversation) {
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].Timestamp.After(conversations[j].Timestamp)
	})
}
