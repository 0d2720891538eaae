package store

import (
	"errors"
	"testing"

	"github.com/bigm-o/Flash-mind/pkg/domain"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	state := domain.NewSessionState("sess-1")
	if err := s.Create(state); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(state); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists on duplicate create, got %v", err)
	}

	state.Screen = domain.ScreenChatting
	state.SubjectTitle = "Photosynthesis"
	state.Messages = append(state.Messages, domain.TextMessage(domain.RoleAssistant, "greeting"))
	if err := s.Save(state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := s.Get("sess-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Screen != domain.ScreenChatting || got.SubjectTitle != "Photosynthesis" {
		t.Fatalf("unexpected state: %+v", got)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("messages were not persisted: %+v", got.Messages)
	}

	if err := s.Delete("sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get("sess-1"); ok {
		t.Fatalf("session survived delete")
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, ok, err := s.Get("nope"); ok || err != nil {
		t.Fatalf("expected miss without error, got ok=%v err=%v", ok, err)
	}
}
