// Package store persists per-session conversation state between requests.
package store

import (
	"errors"

	"github.com/bigm-o/Flash-mind/pkg/domain"
)

// ErrSessionExists is returned when creating a session whose id is taken.
var ErrSessionExists = errors.New("session already exists")

// Store holds SessionState keyed by session id. Each session belongs to a
// single user interaction; stores never share state across sessions.
type Store interface {
	Create(state domain.SessionState) error
	Get(id string) (domain.SessionState, bool, error)
	Save(state domain.SessionState) error
	Delete(id string) error
}
