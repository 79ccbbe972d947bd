package round

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/microparty/microparty/internal/barrier"
	"github.com/microparty/microparty/internal/model"
	"github.com/microparty/microparty/internal/services/session"
)

// Broadcaster delivers a named event to every member of a session. The
// transport behind it is a collaborator; the loop only cares that phase
// notifications reach the room.
type Broadcaster interface {
	Broadcast(id model.SessionID, event model.EventType, payload any)
}

// Config holds the phase-loop tunables. The timeouts bound how long a
// phase waits for stragglers; a timeout is a valid phase-advance trigger,
// not an error.
type Config struct {
	ScoreTimeout time.Duration
	RoundTimeout time.Duration
	WinningScore int
}

// DefaultConfig returns the default loop tunables
func DefaultConfig() Config {
	return Config{
		ScoreTimeout: 5 * time.Minute,
		RoundTimeout: 5 * time.Minute,
		WinningScore: 10,
	}
}

// Runner drives sessions through the SCORE → MINI_GAME cycle until a
// winner is found. Each session gets at most one loop goroutine, started
// by its host; the loop arms the readiness barrier at every wait point.
type Runner struct {
	sessions    *session.Controller
	barriers    *barrier.Registry
	broadcaster Broadcaster
	cfg         Config
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started map[model.SessionID]bool
}

// NewRunner creates a phase-loop runner. Close stops every running loop.
func NewRunner(
	sessions *session.Controller,
	barriers *barrier.Registry,
	broadcaster Broadcaster,
	cfg Config,
	logger *slog.Logger,
) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		sessions:    sessions,
		barriers:    barriers,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "round")),
		ctx:         ctx,
		cancel:      cancel,
		started:     make(map[model.SessionID]bool),
	}
}

// Start launches the session's phase loop. Only the host may start it, and
// only once; a finished session stays started so the loop is never
// re-entered after RESULTS.
func (r *Runner) Start(ctx context.Context, id model.SessionID, playerID model.PlayerID) error {
	sess, err := r.sessions.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if sess.Player(playerID) == nil {
		return model.ErrPlayerNotFound
	}
	if !sess.IsHost(playerID) {
		return model.ErrNotHost
	}

	r.mu.Lock()
	if r.started[id] {
		r.mu.Unlock()
		return model.ErrSessionStarted
	}
	r.started[id] = true
	r.mu.Unlock()

	go r.run(id)
	return nil
}

// IsStarted reports whether the session's loop has ever been started
func (r *Runner) IsStarted(id model.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started[id]
}

// Close stops all running loops at their next wait point
func (r *Runner) Close() {
	r.cancel()
}

// run is the sequential phase loop for one session. An explicit loop, so a
// long session never grows the stack.
func (r *Runner) run(id model.SessionID) {
	logger := r.logger.With(slog.String("session_id", string(id)))
	logger.Info("phase loop started")

	for {
		if err := r.waitPhase(id, model.PhaseScore, model.EventMoveToScoreboard, r.cfg.ScoreTimeout); err != nil {
			logger.Error("phase loop aborted", slog.String("error", err.Error()))
			return
		}

		if err := r.waitPhase(id, model.PhaseMiniGame, model.EventMoveToGame, r.cfg.RoundTimeout); err != nil {
			logger.Error("phase loop aborted", slog.String("error", err.Error()))
			return
		}

		if r.ctx.Err() != nil {
			logger.Info("phase loop stopped")
			return
		}

		sess, err := r.sessions.GetSession(r.ctx, id)
		if err != nil {
			logger.Error("phase loop aborted", slog.String("error", err.Error()))
			return
		}

		if sess.HasWinner(r.cfg.WinningScore) {
			r.finish(id, logger)
			return
		}

		logger.Info("no winner yet, returning to scoreboard")
	}
}

// waitPhase moves the session into a phase, notifies the room, and blocks
// until every player is ready or the phase timeout elapses. The barrier is
// armed before the notification goes out so a ready burst racing the
// broadcast cannot be lost.
func (r *Runner) waitPhase(id model.SessionID, phase model.Phase, event model.EventType, timeout time.Duration) error {
	sess, err := r.sessions.BeginPhase(r.ctx, id, phase)
	if err != nil {
		return err
	}

	w, err := r.barriers.Arm(id)
	if err != nil {
		return err
	}

	r.broadcaster.Broadcast(id, event, model.SessionPayload{Session: sess})

	w.Await(r.ctx, timeout, func() bool {
		return r.sessions.AllReady(r.ctx, id)
	})
	return nil
}

// finish moves the session to its terminal RESULTS phase and reports every
// player at or above the winning threshold. Ties are all reported.
func (r *Runner) finish(id model.SessionID, logger *slog.Logger) {
	sess, err := r.sessions.SetPhase(r.ctx, id, model.PhaseResults)
	if err != nil {
		logger.Error("failed to enter results", slog.String("error", err.Error()))
		return
	}

	r.broadcaster.Broadcast(id, model.EventMoveToResults, model.SessionPayload{Session: sess})

	winners := sess.Winners(r.cfg.WinningScore)
	names := make([]string, len(winners))
	for i, p := range winners {
		names[i] = p.Name
	}
	logger.Info("session finished",
		slog.Any("winners", names),
		slog.Int("winning_score", r.cfg.WinningScore),
	)
}
