package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/microparty/microparty/internal/barrier"
	"github.com/microparty/microparty/internal/dependencies/clock"
	"github.com/microparty/microparty/internal/dependencies/random"
	"github.com/microparty/microparty/internal/model"
	"github.com/microparty/microparty/internal/storage"
)

const (
	// SessionCodeLength is the length of generated session codes
	SessionCodeLength = 6
	// SessionCodeAlphabet is the characters used in session codes (avoid confusing chars)
	SessionCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Controller owns all session and roster mutation. Every write to one
// session is serialized behind that session's lock; the readiness barrier
// is resolved from here when a ready or score update completes the roster.
type Controller struct {
	storage  storage.Storage
	clock    clock.Clock
	random   random.Random
	barriers *barrier.Registry
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[model.SessionID]*sync.Mutex
}

// NewController creates a new session controller
func NewController(
	storage storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	barriers *barrier.Registry,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		clock:    clk,
		random:   rnd,
		barriers: barriers,
		logger:   logger.With(slog.String("component", "session")),
		locks:    make(map[model.SessionID]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing mutation of one session
func (c *Controller) lockFor(id model.SessionID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

// NewPlayer allocates a player with a fresh id, the given display name,
// not ready, zero score
func (c *Controller) NewPlayer(name string) model.Player {
	return model.Player{
		ID:       model.PlayerID(uuid.New().String()),
		Name:     name,
		Ready:    false,
		Score:    0,
		JoinedAt: c.clock.Now(),
	}
}

// CreateSession allocates a session in the LOBBY phase with the given host
// already on the roster, stores it, and returns it
func (c *Controller) CreateSession(ctx context.Context, name string, host model.Player) (*model.Session, error) {
	now := c.clock.Now()

	// Generate an unused session code
	var id model.SessionID
	for {
		id = model.SessionID(c.random.String(SessionCodeLength, SessionCodeAlphabet))
		exists, err := c.storage.SessionExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	session := &model.Session{
		ID:        id,
		Name:      name,
		HostID:    host.ID,
		Players:   []model.Player{host},
		Phase:     model.PhaseLobby,
		Micro:     model.MicroSpeed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("session created",
		slog.String("session_id", string(id)),
		slog.String("host_id", string(host.ID)),
		slog.String("name", name),
	)

	return session, nil
}

// GetSession retrieves a session by id
func (c *Controller) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return c.storage.GetSession(ctx, id)
}

// ListSessions returns all sessions ordered by creation time
func (c *Controller) ListSessions(ctx context.Context) ([]*model.Session, error) {
	return c.storage.ListSessions(ctx)
}

// DeleteSession removes a session from the registry
func (c *Controller) DeleteSession(ctx context.Context, id model.SessionID) error {
	l := c.lockFor(id)
	l.Lock()
	defer l.Unlock()
	return c.storage.DeleteSession(ctx, id)
}

// Join appends a player to a session's roster. A player id already on the
// roster is rejected with ErrDuplicatePlayer.
func (c *Controller) Join(ctx context.Context, id model.SessionID, player model.Player) (*model.Session, error) {
	l := c.lockFor(id)
	l.Lock()
	defer l.Unlock()

	session, err := c.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.HasPlayer(player.ID) {
		return nil, model.ErrDuplicatePlayer
	}

	session.Players = append(session.Players, player)
	session.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("player joined",
		slog.String("session_id", string(id)),
		slog.String("player_id", string(player.ID)),
		slog.String("player", player.Name),
	)

	return session, nil
}

// MarkReady sets a player's ready flag. Idempotent. When this completes the
// roster, the session's outstanding barrier wait (if any) is resolved.
func (c *Controller) MarkReady(ctx context.Context, id model.SessionID, playerID model.PlayerID) (*model.Session, error) {
	l := c.lockFor(id)
	l.Lock()
	defer l.Unlock()

	session, err := c.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	player := session.Player(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	player.Ready = true
	session.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	if session.AllReady() {
		c.barriers.Resolve(id)
	}

	return session, nil
}

// RecordScore adds a score delta to a player and marks them ready. The
// delta is whatever the client reported; it is not validated here. When
// this completes the roster, the outstanding barrier wait is resolved.
func (c *Controller) RecordScore(ctx context.Context, id model.SessionID, playerID model.PlayerID, delta int) (*model.Session, error) {
	l := c.lockFor(id)
	l.Lock()
	defer l.Unlock()

	session, err := c.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	player := session.Player(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	player.Score += delta
	player.Ready = true
	session.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("score recorded",
		slog.String("session_id", string(id)),
		slog.String("player_id", string(playerID)),
		slog.Int("delta", delta),
		slog.Int("score", player.Score),
	)

	if session.AllReady() {
		c.barriers.Resolve(id)
	}

	return session, nil
}

// BeginPhase moves a session to the given phase and clears every roster
// member's readiness so the next barrier arming starts from a clean slate.
// Returns the updated session.
func (c *Controller) BeginPhase(ctx context.Context, id model.SessionID, phase model.Phase) (*model.Session, error) {
	l := c.lockFor(id)
	l.Lock()
	defer l.Unlock()

	session, err := c.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if !session.Phase.CanTransition(phase) {
		return nil, model.ErrInvalidPhase
	}

	session.Phase = phase
	for i := range session.Players {
		session.Players[i].Ready = false
	}
	session.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("session moved to phase",
		slog.String("session_id", string(id)),
		slog.String("phase", string(phase)),
	)

	return session, nil
}

// SetPhase assigns a session's phase without touching readiness. Used for
// the terminal move to RESULTS, where no further wait follows.
func (c *Controller) SetPhase(ctx context.Context, id model.SessionID, phase model.Phase) (*model.Session, error) {
	l := c.lockFor(id)
	l.Lock()
	defer l.Unlock()

	session, err := c.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if !session.Phase.CanTransition(phase) {
		return nil, model.ErrInvalidPhase
	}

	session.Phase = phase
	session.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// AllReady reports whether every roster member of the session is ready.
// Used by the barrier's entry re-check.
func (c *Controller) AllReady(ctx context.Context, id model.SessionID) bool {
	l := c.lockFor(id)
	l.Lock()
	defer l.Unlock()

	session, err := c.storage.GetSession(ctx, id)
	if err != nil {
		return false
	}
	return session.AllReady()
}

// Interface for dependency injection
type ControllerInterface interface {
	NewPlayer(name string) model.Player
	CreateSession(ctx context.Context, name string, host model.Player) (*model.Session, error)
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	ListSessions(ctx context.Context) ([]*model.Session, error)
	DeleteSession(ctx context.Context, id model.SessionID) error
	Join(ctx context.Context, id model.SessionID, player model.Player) (*model.Session, error)
	MarkReady(ctx context.Context, id model.SessionID, playerID model.PlayerID) (*model.Session, error)
	RecordScore(ctx context.Context, id model.SessionID, playerID model.PlayerID, delta int) (*model.Session, error)
	BeginPhase(ctx context.Context, id model.SessionID, phase model.Phase) (*model.Session, error)
	SetPhase(ctx context.Context, id model.SessionID, phase model.Phase) (*model.Session, error)
	AllReady(ctx context.Context, id model.SessionID) bool
}

var _ ControllerInterface = (*Controller)(nil)
