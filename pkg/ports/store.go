package ports

import (
	"context"

	"github.com/ssolovev/fishmonger/pkg/domain"
)

// SessionStore defines the interface for persisting per-user sessions.
// Records carry a TTL; expiry is enforced by the store, the application
// never deletes sessions explicitly.
type SessionStore interface {
	// Save persists the session for a given user ID.
	Save(ctx context.Context, userID string, session *domain.Session) error

	// Load retrieves the session for a given user ID.
	// Returns domain.ErrSessionNotFound if no record exists.
	Load(ctx context.Context, userID string) (*domain.Session, error)
}
