package session

import (
	"strings"
	"sync"
	"testing"

	"voice-assistant-client/internal/models"
)

func TestNew_IDFormat(t *testing.T) {
	s := New()
	if !strings.HasPrefix(s.ID(), "session_") {
		t.Errorf("expected session_ prefix, got %s", s.ID())
	}
	if s.Len() != 0 {
		t.Errorf("expected empty history, got %d entries", s.Len())
	}
}

func TestAppend_LengthAndOrder(t *testing.T) {
	s := New()
	inputs := []struct {
		role    models.Role
		content string
	}{
		{models.RoleUser, "hello"},
		{models.RoleAssistant, "hi there"},
		{models.RoleUser, "how are you"},
	}
	for _, in := range inputs {
		s.Append(in.role, in.content)
	}

	h := s.History()
	if len(h) != len(inputs) {
		t.Fatalf("expected %d entries, got %d", len(inputs), len(h))
	}
	for i, in := range inputs {
		if h[i].Role != in.role || h[i].Content != in.content {
			t.Errorf("entry %d: got %+v, want {%s %s}", i, h[i], in.role, in.content)
		}
	}
}

func TestHistory_ReturnsCopy(t *testing.T) {
	s := New()
	s.Append(models.RoleUser, "hello")

	h := s.History()
	h[0].Content = "mutated"

	if got := s.History()[0].Content; got != "hello" {
		t.Errorf("history was mutated through snapshot: %s", got)
	}
}

func TestReset_FreshIDAndEmptyHistory(t *testing.T) {
	s := New()
	old := s.ID()
	s.Append(models.RoleUser, "hello")

	newID := s.Reset()

	if newID == old {
		t.Error("expected a fresh session id after reset")
	}
	if s.ID() != newID {
		t.Errorf("ID() = %s, want %s", s.ID(), newID)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty history after reset, got %d", s.Len())
	}
}

func TestReset_AlwaysDiffers(t *testing.T) {
	s := New()
	seen := map[string]bool{s.ID(): true}
	for i := 0; i < 50; i++ {
		id := s.Reset()
		if seen[id] {
			t.Fatalf("duplicate session id after reset: %s", id)
		}
		seen[id] = true
	}
}

func TestAppend_Concurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	const n = 100
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(models.RoleUser, "msg")
		}()
	}
	wg.Wait()

	if s.Len() != n {
		t.Errorf("expected %d entries, got %d", n, s.Len())
	}
}
