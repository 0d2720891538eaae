package domain

import "testing"

func TestScreenTransitions(t *testing.T) {
	cases := []struct {
		from, to Screen
		want     bool
	}{
		{ScreenInitialInput, ScreenUploadingDocument, true},
		{ScreenInitialInput, ScreenPastingText, true},
		{ScreenInitialInput, ScreenChatting, false},
		{ScreenInitialInput, ScreenProcessing, false},
		{ScreenUploadingDocument, ScreenProcessing, true},
		{ScreenUploadingDocument, ScreenInitialInput, true},
		{ScreenUploadingDocument, ScreenChatting, false},
		{ScreenPastingText, ScreenChatting, true},
		{ScreenPastingText, ScreenInitialInput, true},
		{ScreenProcessing, ScreenChatting, true},
		{ScreenProcessing, ScreenInitialInput, true},
		{ScreenChatting, ScreenInitialInput, true},
		{ScreenChatting, ScreenPastingText, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestNewSessionStateDefaults(t *testing.T) {
	state := NewSessionState("sess-1")
	if state.Screen != ScreenInitialInput {
		t.Fatalf("initial screen = %s, want %s", state.Screen, ScreenInitialInput)
	}
	if state.FlashcardsSourceIndex != NoFlashcardSource {
		t.Fatalf("flashcards source index = %d, want sentinel %d", state.FlashcardsSourceIndex, NoFlashcardSource)
	}
	if len(state.Messages) != 0 {
		t.Fatalf("expected empty transcript, got %d messages", len(state.Messages))
	}
	if state.EmailFormVisible || state.InitialFlashcardsGenerated {
		t.Fatalf("expected toggles to default to false")
	}
}

func TestMessageText(t *testing.T) {
	msg := Message{Role: RoleAssistant, Parts: []Part{{Text: "Hello "}, {Text: "world"}}}
	if got := msg.Text(); got != "Hello world" {
		t.Fatalf("Text() = %q", got)
	}
}
