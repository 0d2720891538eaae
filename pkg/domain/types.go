package domain

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Screen is the UI screen a session is currently on.
type Screen string

const (
	ScreenInitialInput      Screen = "initial_input"
	ScreenUploadingDocument Screen = "uploading_document"
	ScreenPastingText       Screen = "pasting_text"
	ScreenProcessing        Screen = "processing"
	ScreenChatting          Screen = "chatting"
)

// transitions lists every legal screen change. Anything absent is rejected.
var transitions = map[Screen][]Screen{
	ScreenInitialInput:      {ScreenUploadingDocument, ScreenPastingText},
	ScreenUploadingDocument: {ScreenProcessing, ScreenInitialInput},
	ScreenPastingText:       {ScreenChatting, ScreenInitialInput},
	ScreenProcessing:        {ScreenChatting, ScreenInitialInput},
	ScreenChatting:          {ScreenInitialInput},
}

// CanTransition reports whether moving from s to next is a legal screen change.
func (s Screen) CanTransition(next Screen) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known screen.
func (s Screen) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Part is one content fragment of a message: text or an inline image.
type Part struct {
	Text  string `json:"text,omitempty"`
	Image []byte `json:"image,omitempty"`
}

// Message is one turn in a conversation. Immutable once appended.
type Message struct {
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"createdAt"`
}

// TextMessage builds a single-part text message.
func TextMessage(role Role, text string) Message {
	return Message{
		Role:      role,
		Parts:     []Part{{Text: text}},
		CreatedAt: time.Now().UTC(),
	}
}

// Text returns the concatenated text parts of the message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		out += p.Text
	}
	return out
}

// Flashcard is a single question/answer pair parsed from model output.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// NoFlashcardSource marks a session without an active flashcard batch.
const NoFlashcardSource = -1

// SessionState is the whole conversational state of one session.
// It is mutated only by the conversation controller and persisted
// between requests by a session store.
type SessionState struct {
	ID                         string      `json:"id"`
	Screen                     Screen      `json:"screen"`
	DocumentText               string      `json:"documentText,omitempty"`
	SubjectTitle               string      `json:"subjectTitle,omitempty"`
	Messages                   []Message   `json:"messages"`
	Flashcards                 []Flashcard `json:"flashcards,omitempty"`
	FlashcardsSourceIndex      int         `json:"flashcardsSourceIndex"`
	EmailFormVisible           bool        `json:"emailFormVisible"`
	InitialFlashcardsGenerated bool        `json:"initialFlashcardsGenerated"`
	CreatedAt                  time.Time   `json:"createdAt"`
	UpdatedAt                  time.Time   `json:"updatedAt"`
}

// NewSessionState returns the initial state for a fresh session.
func NewSessionState(id string) SessionState {
	now := time.Now().UTC()
	return SessionState{
		ID:                    id,
		Screen:                ScreenInitialInput,
		FlashcardsSourceIndex: NoFlashcardSource,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}
