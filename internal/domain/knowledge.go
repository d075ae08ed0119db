package domain

import (
	"context"
	"time"
)

// Clause is one extracted provision of a source document.
type Clause struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// KnowledgeContent is the structured analysis produced by the
// schema-constrained ingestion call.
type KnowledgeContent struct {
	Summary         string   `json:"summary"`
	KeyConcepts     []string `json:"key_concepts"`
	RelevantClauses []Clause `json:"relevant_clauses"`
}

// KnowledgeEntry is an approved reference snippet scoped to one agent.
// Entries exist only after explicit human approval of a preview; the
// (AgentID, URL) pair is unique within the knowledge base.
type KnowledgeEntry struct {
	ID         string           `json:"id"`
	AgentID    string           `json:"agent_id"`
	URL        string           `json:"url"`
	Content    KnowledgeContent `json:"content"`
	ApprovedBy string           `json:"approved_by"`
	ApprovedAt time.Time        `json:"approved_at"`
}

// KnowledgeBase maps agent id to that agent's approved entries in approval
// order. Shared across all users.
type KnowledgeBase map[string][]KnowledgeEntry

// KnowledgeRepository defines the interface for knowledge base storage.
type KnowledgeRepository interface {
	// GetAll returns the full mapping; empty mapping if uninitialized.
	GetAll(ctx context.Context) (KnowledgeBase, error)

	// GetForAgent returns an agent's entries in order; empty slice if none.
	GetForAgent(ctx context.Context, agentID string) ([]KnowledgeEntry, error)

	// Upsert inserts the entry, or replaces an existing entry with the same
	// (agent id, url) in place, preserving its position in the list.
	Upsert(ctx context.Context, entry *KnowledgeEntry) error

	// Delete removes an entry by id; no-op if absent.
	Delete(ctx context.Context, agentID, entryID string) error
}
