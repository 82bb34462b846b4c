package history

import (
	"context"
	"fmt"
	"testing"
)

func TestMemoryManager_KeepsLastTenOldestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager(10)

	for i := 0; i < 15; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if err := m.Append(ctx, "s1", role, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := m.History(ctx, "s1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(entries))
	}
	for i, e := range entries {
		want := fmt.Sprintf("turn %d", i+5)
		if e.Content != want {
			t.Errorf("entry %d: expected %q, got %q", i, want, e.Content)
		}
	}
}

func TestMemoryManager_UnknownSessionIsEmpty(t *testing.T) {
	m := NewMemoryManager(10)
	entries, err := m.History(context.Background(), "nope")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history, got %d entries", len(entries))
	}
}

func TestMemoryManager_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager(10)

	if err := m.Append(ctx, "a", RoleUser, "hello from a"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := m.Append(ctx, "b", RoleUser, "hello from b"); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, _ := m.History(ctx, "a")
	if len(entries) != 1 || entries[0].Content != "hello from a" {
		t.Errorf("session a leaked: %+v", entries)
	}
}

func TestMemoryManager_RecordsRoles(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager(10)

	m.Append(ctx, "s", RoleUser, "question")
	m.Append(ctx, "s", RoleAssistant, "answer")

	entries, _ := m.History(ctx, "s")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Role != RoleUser || entries[1].Role != RoleAssistant {
		t.Errorf("roles out of order: %+v", entries)
	}
	if entries[0].TS == 0 {
		t.Error("expected a timestamp on recorded entries")
	}
}
