package storage

import (
	"context"

	"github.com/microparty/microparty/internal/model"
)

// Storage is the injectable session registry. Sessions own their players,
// so players are persisted as part of their session.
type Storage interface {
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	SessionExists(ctx context.Context, id model.SessionID) (bool, error)
	ListSessions(ctx context.Context) ([]*model.Session, error)
	DeleteSession(ctx context.Context, id model.SessionID) error
}
