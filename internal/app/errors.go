package app

import "errors"

var (
	// ErrSessionNotFound indicates an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidTransition indicates an action that is not legal on the
	// session's current screen.
	ErrInvalidTransition = errors.New("action not allowed on current screen")
	// ErrEmptyText indicates a paste submission that is empty after trimming.
	ErrEmptyText = errors.New("text is required")
	// ErrTextTooLong indicates a paste submission over the input cap.
	ErrTextTooLong = errors.New("text exceeds maximum length")
	// ErrEmptyMessage indicates an empty chat submission.
	ErrEmptyMessage = errors.New("message is required")
	// ErrInvalidMessageIndex indicates a flashcard request targeting a
	// message that does not exist or is not assistant-authored.
	ErrInvalidMessageIndex = errors.New("message index does not reference an assistant message")
	// ErrNoFlashcards indicates an email request without an active batch.
	ErrNoFlashcards = errors.New("no flashcards have been generated")
	// ErrInvalidEmail indicates a recipient address failing validation.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrEmailNotConfigured indicates the mail transport is not configured.
	ErrEmailNotConfigured = errors.New("email delivery is not configured")
	// ErrGateway wraps any language model call failure, whether an API
	// error response or a transport fault.
	ErrGateway = errors.New("language model request failed")
)
