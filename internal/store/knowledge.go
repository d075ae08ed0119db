package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/velaphi/legal-assist/internal/domain"
	"github.com/velaphi/legal-assist/internal/kvstore"
)

// The whole knowledge base lives under one key, shared across users. The
// dataset is small (curated, human-approved entries) so read-modify-write
// of the full blob is fine.
const knowledgeKey = "knowledge_base"

// KnowledgeStore persists the shared knowledge base. Reads degrade to an
// empty base on backend failure so chat stays usable without augmentation.
type KnowledgeStore struct {
	kv kvstore.Store
}

func NewKnowledgeStore(kv kvstore.Store) *KnowledgeStore {
	return &KnowledgeStore{kv: kv}
}

// GetAll returns the full knowledge base. Backend failures are logged and
// reported as an empty base, never as an error.
func (s *KnowledgeStore) GetAll(ctx context.Context) (domain.KnowledgeBase, error) {
	kb, err := s.load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("knowledge base unavailable, continuing without it")
		return domain.KnowledgeBase{}, nil
	}
	return kb, nil
}

// GetForAgent returns one agent's entries in approval order.
func (s *KnowledgeStore) GetForAgent(ctx context.Context, agentID string) ([]domain.KnowledgeEntry, error) {
	kb, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	entries := kb[agentID]
	if entries == nil {
		entries = []domain.KnowledgeEntry{}
	}
	return entries, nil
}

// Upsert inserts the entry, or replaces an existing entry with the same
// (agent id, url) in place, preserving its position in the list.
func (s *KnowledgeStore) Upsert(ctx context.Context, entry *domain.KnowledgeEntry) error {
	kb, err := s.load(ctx)
	if err != nil {
		return err
	}

	entries := kb[entry.AgentID]
	replaced := false
	for i := range entries {
		if entries[i].URL == entry.URL {
			entries[i] = *entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, *entry)
	}
	kb[entry.AgentID] = entries

	return s.save(ctx, kb)
}

// Delete removes an entry by id; no-op if absent.
func (s *KnowledgeStore) Delete(ctx context.Context, agentID, entryID string) error {
	kb, err := s.load(ctx)
	if err != nil {
		return err
	}

	entries := kb[agentID]
	filtered := entries[:0]
	for _, e := range entries {
		if e.ID != entryID {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == len(entries) {
		return nil
	}
	kb[agentID] = filtered

	return s.save(ctx, kb)
}

// load is the faithful read used before writes; it does not degrade, since
// writing on top of a failed read would wipe the base.
func (s *KnowledgeStore) load(ctx context.Context) (domain.KnowledgeBase, error) {
	data, err := s.kv.Get(ctx, knowledgeKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return domain.KnowledgeBase{}, nil
		}
		return nil, &domain.PersistenceError{Op: "get", Key: knowledgeKey, Err: err}
	}

	var kb domain.KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, &domain.PersistenceError{Op: "get", Key: knowledgeKey, Err: err}
	}
	if kb == nil {
		kb = domain.KnowledgeBase{}
	}
	return kb, nil
}

func (s *KnowledgeStore) save(ctx context.Context, kb domain.KnowledgeBase) error {
	data, err := json.Marshal(kb)
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge base: %w", err)
	}
	if err := s.kv.Set(ctx, knowledgeKey, data); err != nil {
		return &domain.PersistenceError{Op: "set", Key: knowledgeKey, Err: err}
	}
	return nil
}
