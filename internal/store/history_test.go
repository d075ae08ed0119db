package store

import (
	"context"
	"testing"
	"time"

	"github.com/velaphi/legal-assist/internal/domain"
	"github.com/velaphi/legal-assist/internal/kvstore/memory"
)

func conversation(id string, ts time.Time) *domain.Conversation {
	return &domain.Conversation{
		ID:      id,
		AgentID: domain.AgentRental,
		Title:   "title " + id,
		Messages: []domain.Message{
			{ID: 1, Text: "hello", Sender: domain.SenderAI},
		},
		Timestamp: ts,
	}
}

func TestHistoryStore_EmptyHistory(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(memory.New())

	got, err := s.GetHistory(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestHistoryStore_SaveOrdersMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(memory.New())
	base := time.Now()

	s.Save(ctx, "a@b.com", conversation("conv-1", base))
	s.Save(ctx, "a@b.com", conversation("conv-2", base.Add(time.Minute)))
	s.Save(ctx, "a@b.com", conversation("conv-3", base.Add(2*time.Minute)))

	got, err := s.GetHistory(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(got))
	}
	for i, want := range []string{"conv-3", "conv-2", "conv-1"} {
		if got[i].ID != want {
			t.Errorf("position %d = %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestHistoryStore_SaveReplacesById(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(memory.New())
	base := time.Now()

	s.Save(ctx, "a@b.com", conversation("conv-1", base))

	updated := conversation("conv-1", base.Add(time.Minute))
	updated.Messages = append(updated.Messages, domain.Message{ID: 2, Text: "more", Sender: domain.SenderUser})
	s.Save(ctx, "a@b.com", updated)

	got, _ := s.GetHistory(ctx, "a@b.com")
	if len(got) != 1 {
		t.Fatalf("expected replace, got %d conversations", len(got))
	}
	if len(got[0].Messages) != 2 {
		t.Errorf("expected updated messages, got %d", len(got[0].Messages))
	}
}

func TestHistoryStore_PerUserIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(memory.New())

	s.Save(ctx, "a@b.com", conversation("conv-1", time.Now()))

	other, _ := s.GetHistory(ctx, "c@d.com")
	if len(other) != 0 {
		t.Errorf("history leaked across users: %v", other)
	}
}

func TestHistoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(memory.New())
	base := time.Now()

	s.Save(ctx, "a@b.com", conversation("conv-1", base))
	s.Save(ctx, "a@b.com", conversation("conv-2", base.Add(time.Minute)))

	if err := s.Delete(ctx, "a@b.com", "conv-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, _ := s.GetHistory(ctx, "a@b.com")
	if len(got) != 1 || got[0].ID != "conv-2" {
		t.Errorf("expected only conv-2 left, got %v", got)
	}

	// Absent id is a no-op
	if err := s.Delete(ctx, "a@b.com", "nope"); err != nil {
		t.Errorf("delete of absent conversation failed: %v", err)
	}
}

func TestHistoryStore_ReadsDegradeToEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(failingStore{})

	got, err := s.GetHistory(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("reads must degrade, not fail: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty history, got %v", got)
	}
}
