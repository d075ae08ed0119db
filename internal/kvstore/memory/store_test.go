package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/velaphi/legal-assist/internal/kvstore"
)

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("got %q", got)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting an absent key is a no-op
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("delete of absent key failed: %v", err)
	}
}

func TestStore_ValueIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()

	in := []byte("original")
	s.Set(ctx, "k", in)
	in[0] = 'X'

	got, _ := s.Get(ctx, "k")
	if string(got) != "original" {
		t.Errorf("stored value shares the caller's buffer: %q", got)
	}

	got[0] = 'Y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "original" {
		t.Errorf("returned value shares the internal buffer: %q", again)
	}
}
