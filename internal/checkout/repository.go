package checkout

import "context"

type SessionRepository interface {
	// Get returns nil, nil for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}
