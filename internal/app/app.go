// Package app implements the conversation controller: the screen state
// machine driving document intake, chat, flashcard generation and email
// delivery for one session at a time.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bigm-o/Flash-mind/internal/store"
	"github.com/bigm-o/Flash-mind/internal/util"
	"github.com/bigm-o/Flash-mind/pkg/ai"
	"github.com/bigm-o/Flash-mind/pkg/domain"
	"github.com/bigm-o/Flash-mind/pkg/extract"
	"github.com/bigm-o/Flash-mind/pkg/flashcard"
	"github.com/bigm-o/Flash-mind/pkg/mail"
)

const (
	chatTemperature     = 0.4
	chatMaxOutputTokens = 2048

	subjectFallbackDocument = "your document"
	subjectFallbackText     = "your text"

	emailSubject = "Your Flashcards from FlashMind AI have arrived!!!"
)

// Config wires required dependencies for the controller.
type Config struct {
	Store     store.Store
	Generator ai.Generator
	// Mailer may be nil; emailing flashcards then reports a configuration
	// error instead of crashing.
	Mailer mail.Mailer
}

// App is the conversation controller. All session mutations go through it;
// a per-session mutex guarantees one action at a time per session, including
// full consumption of a streaming response.
type App struct {
	store     store.Store
	generator ai.Generator
	mailer    mail.Mailer

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock serializes actions on one session. refs counts the holder plus
// any waiters so the map entry is only dropped once nobody is queued on it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// New constructs the controller.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator required")
	}
	return &App{
		store:     cfg.Store,
		generator: cfg.Generator,
		mailer:    cfg.Mailer,
		locks:     make(map[string]*sessionLock),
	}, nil
}

func (a *App) lockSession(id string) *sessionLock {
	a.mu.Lock()
	lock, ok := a.locks[id]
	if !ok {
		lock = &sessionLock{}
		a.locks[id] = lock
	}
	lock.refs++
	a.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (a *App) unlockSession(id string, lock *sessionLock) {
	lock.mu.Unlock()
	a.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(a.locks, id)
	}
	a.mu.Unlock()
}

// CreateSession starts a fresh session on the initial input screen.
func (a *App) CreateSession() (domain.SessionState, error) {
	state := domain.NewSessionState(uuid.NewString())
	if err := a.store.Create(state); err != nil {
		return domain.SessionState{}, fmt.Errorf("create session: %w", err)
	}
	return state, nil
}

// GetSession returns the current state of a session.
func (a *App) GetSession(id string) (domain.SessionState, error) {
	state, ok, err := a.store.Get(id)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return domain.SessionState{}, ErrSessionNotFound
	}
	return state, nil
}

// EndSession discards a session and its state.
func (a *App) EndSession(id string) error {
	lock := a.lockSession(id)
	defer a.unlockSession(id, lock)
	if err := a.store.Delete(id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ChooseUpload moves the session to the document upload screen.
func (a *App) ChooseUpload(id string) (domain.SessionState, error) {
	return a.transition(id, domain.ScreenUploadingDocument)
}

// ChoosePaste moves the session to the paste-text screen.
func (a *App) ChoosePaste(id string) (domain.SessionState, error) {
	return a.transition(id, domain.ScreenPastingText)
}

// GoBack returns the session to the initial input screen.
func (a *App) GoBack(id string) (domain.SessionState, error) {
	return a.transition(id, domain.ScreenInitialInput)
}

func (a *App) transition(id string, next domain.Screen) (domain.SessionState, error) {
	lock := a.lockSession(id)
	defer a.unlockSession(id, lock)

	state, err := a.GetSession(id)
	if err != nil {
		return domain.SessionState{}, err
	}
	if !state.Screen.CanTransition(next) {
		return state, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, state.Screen, next)
	}
	state.Screen = next
	if err := a.save(&state); err != nil {
		return state, err
	}
	return state, nil
}

// ToggleEmailForm flips visibility of the email form.
func (a *App) ToggleEmailForm(id string) (domain.SessionState, error) {
	lock := a.lockSession(id)
	defer a.unlockSession(id, lock)

	state, err := a.GetSession(id)
	if err != nil {
		return domain.SessionState{}, err
	}
	state.EmailFormVisible = !state.EmailFormVisible
	if err := a.save(&state); err != nil {
		return state, err
	}
	return state, nil
}

// SubmitDocument extracts text from an uploaded document, infers a subject
// title and starts the chat. On extraction failure the session returns to
// the initial input screen with the error reported.
func (a *App) SubmitDocument(ctx context.Context, id, filename string, data []byte) (domain.SessionState, error) {
	lock := a.lockSession(id)
	defer a.unlockSession(id, lock)

	state, err := a.GetSession(id)
	if err != nil {
		return domain.SessionState{}, err
	}
	if !state.Screen.CanTransition(domain.ScreenProcessing) {
		return state, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, state.Screen, domain.ScreenProcessing)
	}
	state.Screen = domain.ScreenProcessing

	text, err := a.extractDocument(filename, data)
	if err != nil {
		state.Screen = domain.ScreenInitialInput
		if saveErr := a.save(&state); saveErr != nil {
			return state, saveErr
		}
		return state, err
	}

	a.startChat(ctx, &state, text, subjectFallbackDocument)
	if err := a.save(&state); err != nil {
		return state, err
	}
	return state, nil
}

// SubmitText starts the chat from pasted text. Empty submissions and
// submissions over the input cap are rejected without a state change.
func (a *App) SubmitText(ctx context.Context, id, text string) (domain.SessionState, error) {
	lock := a.lockSession(id)
	defer a.unlockSession(id, lock)

	state, err := a.GetSession(id)
	if err != nil {
		return domain.SessionState{}, err
	}
	if !state.Screen.CanTransition(domain.ScreenChatting) || state.Screen != domain.ScreenPastingText {
		return state, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, state.Screen, domain.ScreenChatting)
	}
	if strings.TrimSpace(text) == "" {
		return state, ErrEmptyText
	}
	if len([]rune(text)) > pasteLimit {
		return state, fmt.Errorf("%w: limit %d characters", ErrTextTooLong, pasteLimit)
	}

	a.startChat(ctx, &state, text, subjectFallbackText)
	if err := a.save(&state); err != nil {
		return state, err
	}
	return state, nil
}

func (a *App) extractDocument(filename string, data []byte) (string, error) {
	kind, err := extract.KindForFilename(filename)
	if err != nil {
		return "", err
	}
	text, err := extract.Extract(data, kind)
	if err != nil {
		return "", err
	}
	return text, nil
}

// startChat stores the document text, infers the subject title, resets all
// flashcard state and opens the chat with the canned greeting.
func (a *App) startChat(ctx context.Context, state *domain.SessionState, text, titleFallback string) {
	state.DocumentText = text
	state.SubjectTitle = a.inferSubjectTitle(ctx, text, titleFallback)
	state.Messages = []domain.Message{domain.TextMessage(domain.RoleAssistant, greetingText(state.SubjectTitle))}
	state.Flashcards = nil
	state.FlashcardsSourceIndex = domain.NoFlashcardSource
	state.InitialFlashcardsGenerated = false
	state.EmailFormVisible = false
	state.Screen = domain.ScreenChatting
}

// inferSubjectTitle asks the model for a subject title over the first part
// of the text. A gateway failure here is not fatal: the session proceeds
// with a generic label.
func (a *App) inferSubjectTitle(ctx context.Context, text, fallback string) string {
	contents := []ai.Content{{Role: "user", Parts: []ai.Part{{Text: subjectPrompt(text)}}}}
	title, err := a.generator.GenerateContent(ctx, contents, ai.GenerateOptions{})
	if err != nil {
		util.LoggerFromContext(ctx).Warn("subject title inference failed", "err", err)
		return fallback
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return fallback
	}
	return title
}

// SendMessage appends a user turn and streams the model's reply, invoking
// onChunk for every text chunk in arrival order. The assistant message is
// committed to the transcript only after the stream ends cleanly; on a
// gateway failure the user message stays in history and the turn is
// abandoned with the error reported.
func (a *App) SendMessage(ctx context.Context, id, text string, onChunk func(string)) (domain.SessionState, error) {
	lock := a.lockSession(id)
	defer a.unlockSession(id, lock)

	state, err := a.GetSession(id)
	if err != nil {
		return domain.SessionState{}, err
	}
	if state.Screen != domain.ScreenChatting {
		return state, fmt.Errorf("%w: chat requires %s", ErrInvalidTransition, domain.ScreenChatting)
	}
	if strings.TrimSpace(text) == "" {
		return state, ErrEmptyMessage
	}

	// A new message dismisses the flashcard display and the email form.
	state.FlashcardsSourceIndex = domain.NoFlashcardSource
	state.EmailFormVisible = false
	state.Messages = append(state.Messages, domain.TextMessage(domain.RoleUser, text))
	if err := a.save(&state); err != nil {
		return state, err
	}

	contents := bootstrapTurns(state.DocumentText, state.SubjectTitle)
	for _, msg := range state.Messages {
		if isBootstrapTurn(msg) {
			continue
		}
		contents = append(contents, toContent(msg))
	}

	temperature := chatTemperature
	stream, err := a.generator.StreamGenerateContent(ctx, contents, ai.GenerateOptions{
		Temperature:     &temperature,
		MaxOutputTokens: chatMaxOutputTokens,
	})
	if err != nil {
		return state, fmt.Errorf("%w: start completion: %w", ErrGateway, err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return state, fmt.Errorf("%w: stream completion: %w", ErrGateway, err)
		}
		reply.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}

	state.Messages = append(state.Messages, domain.TextMessage(domain.RoleAssistant, reply.String()))
	if err := a.save(&state); err != nil {
		return state, err
	}
	return state, nil
}

// GenerateFlashcards builds a new flashcard batch for the assistant message
// at messageIndex, replacing any previous batch. The first assistant message
// generates from the whole document text capped at initialFlashcardLimit
// cards; any later assistant message generates from its own text with no cap.
func (a *App) GenerateFlashcards(ctx context.Context, id string, messageIndex int) (domain.SessionState, error) {
	lock := a.lockSession(id)
	defer a.unlockSession(id, lock)

	state, err := a.GetSession(id)
	if err != nil {
		return domain.SessionState{}, err
	}
	if state.Screen != domain.ScreenChatting {
		return state, fmt.Errorf("%w: flashcards require %s", ErrInvalidTransition, domain.ScreenChatting)
	}
	if messageIndex < 0 || messageIndex >= len(state.Messages) || state.Messages[messageIndex].Role != domain.RoleAssistant {
		return state, ErrInvalidMessageIndex
	}

	sourceText := state.Messages[messageIndex].Text()
	maxCards := 0
	if messageIndex == firstAssistantIndex(state.Messages) {
		sourceText = state.DocumentText
		maxCards = initialFlashcardLimit
	}

	contents := []ai.Content{{Role: "user", Parts: []ai.Part{{Text: flashcardPrompt(sourceText, maxCards)}}}}
	raw, err := a.generator.GenerateContent(ctx, contents, ai.GenerateOptions{})
	if err != nil {
		return state, fmt.Errorf("%w: generate flashcards: %w", ErrGateway, err)
	}

	cards, skipped := flashcard.Parse(raw)
	for _, segment := range skipped {
		util.LoggerFromContext(ctx).Warn("dropped malformed flashcard segment", "segment", segment)
	}
	// The cap holds regardless of how many pairs the model produced.
	if maxCards > 0 && len(cards) > maxCards {
		cards = cards[:maxCards]
	}

	state.Flashcards = cards
	if len(cards) > 0 {
		state.FlashcardsSourceIndex = messageIndex
	} else {
		state.FlashcardsSourceIndex = domain.NoFlashcardSource
	}
	if maxCards > 0 {
		state.InitialFlashcardsGenerated = true
	}
	if err := a.save(&state); err != nil {
		return state, err
	}
	return state, nil
}

// EmailFlashcards renders the active batch as HTML and hands it to the mail
// transport. The email form hides on success and stays available on a
// delivery failure so the user can retry.
func (a *App) EmailFlashcards(ctx context.Context, id, recipient string) (domain.SessionState, error) {
	lock := a.lockSession(id)
	defer a.unlockSession(id, lock)

	state, err := a.GetSession(id)
	if err != nil {
		return domain.SessionState{}, err
	}
	if state.Screen != domain.ScreenChatting {
		return state, fmt.Errorf("%w: email requires %s", ErrInvalidTransition, domain.ScreenChatting)
	}
	if len(state.Flashcards) == 0 {
		return state, ErrNoFlashcards
	}
	if a.mailer == nil {
		return state, ErrEmailNotConfigured
	}
	if !validEmail(recipient) {
		return state, ErrInvalidEmail
	}

	body, err := flashcard.RenderEmailBody(state.Flashcards, state.SubjectTitle)
	if err != nil {
		return state, err
	}
	if err := a.mailer.Send(ctx, recipient, emailSubject, body); err != nil {
		return state, err
	}

	state.EmailFormVisible = false
	if err := a.save(&state); err != nil {
		return state, err
	}
	return state, nil
}

func (a *App) save(state *domain.SessionState) error {
	state.UpdatedAt = time.Now().UTC()
	if err := a.store.Save(*state); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// validEmail is a deliberately loose check: the address must contain "@" and
// ".". Full RFC validation is out of scope; the transport rejects anything
// undeliverable.
func validEmail(addr string) bool {
	addr = strings.TrimSpace(addr)
	return addr != "" && strings.Contains(addr, "@") && strings.Contains(addr, ".")
}

// IsAuthFailure reports whether err is a credential problem with the model
// API, which is configuration-class rather than a transient request failure.
func IsAuthFailure(err error) bool {
	var apiErr *ai.APIError
	return errors.As(err, &apiErr) && apiErr.IsAuthError()
}

func firstAssistantIndex(messages []domain.Message) int {
	for i, msg := range messages {
		if msg.Role == domain.RoleAssistant {
			return i
		}
	}
	return -1
}

func toContent(msg domain.Message) ai.Content {
	role := "user"
	if msg.Role == domain.RoleAssistant {
		role = "model"
	}
	parts := make([]ai.Part, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		if p.Text != "" {
			parts = append(parts, ai.Part{Text: p.Text})
			continue
		}
		if len(p.Image) > 0 {
			parts = append(parts, ai.Part{InlineData: &ai.Blob{MIMEType: "image/png", Data: p.Image}})
		}
	}
	return ai.Content{Role: role, Parts: parts}
}
