package round

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/microparty/microparty/internal/barrier"
	"github.com/microparty/microparty/internal/dependencies/mocks"
	"github.com/microparty/microparty/internal/model"
	"github.com/microparty/microparty/internal/services/session"
	"github.com/microparty/microparty/internal/storage/memory"
	"github.com/microparty/microparty/internal/testutil"
)

// recordedEvent is one broadcast captured by the test broadcaster
type recordedEvent struct {
	SessionID model.SessionID
	Event     model.EventType
	Session   *model.Session
}

// recordingBroadcaster feeds broadcasts to the test over a channel
type recordingBroadcaster struct {
	events chan recordedEvent
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{events: make(chan recordedEvent, 64)}
}

func (b *recordingBroadcaster) Broadcast(id model.SessionID, event model.EventType, payload any) {
	var sess *model.Session
	if p, ok := payload.(model.SessionPayload); ok {
		sess = p.Session
	}
	b.events <- recordedEvent{SessionID: id, Event: event, Session: sess}
}

type RunnerSuite struct {
	suite.Suite
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	barriers    *barrier.Registry
	controller  *session.Controller
	broadcaster *recordingBroadcaster
	runner      *Runner
	ctx         context.Context
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func (s *RunnerSuite) SetupTest() {
	store := memory.New()
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.barriers = barrier.NewRegistry(s.clock)
	s.controller = session.NewController(store, s.clock, s.random, s.barriers, logger)
	s.broadcaster = newRecordingBroadcaster()
	s.runner = NewRunner(s.controller, s.barriers, s.broadcaster, DefaultConfig(), logger)
	s.ctx = context.Background()
}

func (s *RunnerSuite) TearDownTest() {
	s.runner.Close()
}

// twoPlayerSession creates a session with host Ava and member Ben
func (s *RunnerSuite) twoPlayerSession() (*model.Session, model.Player, model.Player) {
	s.random.QueueString("ARCADE")
	ava := s.controller.NewPlayer("Ava")
	sess, err := s.controller.CreateSession(s.ctx, "Arcade", ava)
	s.Require().NoError(err)

	ben := s.controller.NewPlayer("Ben")
	_, err = s.controller.Join(s.ctx, sess.ID, ben)
	s.Require().NoError(err)

	return sess, ava, ben
}

// nextEvent blocks until the broadcaster records an event
func (s *RunnerSuite) nextEvent() recordedEvent {
	select {
	case ev := <-s.broadcaster.events:
		return ev
	case <-time.After(2 * time.Second):
		s.FailNow("no broadcast received")
		return recordedEvent{}
	}
}

func (s *RunnerSuite) expectEvent(event model.EventType) recordedEvent {
	ev := s.nextEvent()
	s.Equal(event, ev.Event)
	return ev
}

// waitForArmedTimer waits until the current phase wait has registered its
// timeout timer, so advancing the clock is guaranteed to fire it
func (s *RunnerSuite) waitForArmedTimer() {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.clock.PendingTimers() > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	s.FailNow("phase wait never registered its timer")
}

// Start guard tests

func (s *RunnerSuite) TestStartRequiresHost() {
	sess, _, ben := s.twoPlayerSession()

	err := s.runner.Start(s.ctx, sess.ID, ben.ID)
	s.ErrorIs(err, model.ErrNotHost)
	s.False(s.runner.IsStarted(sess.ID))
}

func (s *RunnerSuite) TestStartUnknownSession() {
	err := s.runner.Start(s.ctx, "NOPE", "anyone")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *RunnerSuite) TestStartUnknownPlayer() {
	sess, _, _ := s.twoPlayerSession()

	err := s.runner.Start(s.ctx, sess.ID, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *RunnerSuite) TestStartTwiceFails() {
	sess, ava, _ := s.twoPlayerSession()

	s.Require().NoError(s.runner.Start(s.ctx, sess.ID, ava.ID))
	s.expectEvent(model.EventMoveToScoreboard)

	err := s.runner.Start(s.ctx, sess.ID, ava.ID)
	s.ErrorIs(err, model.ErrSessionStarted)
}

// Phase flow tests

func (s *RunnerSuite) TestStartEntersScorePhase() {
	sess, ava, _ := s.twoPlayerSession()

	s.Require().NoError(s.runner.Start(s.ctx, sess.ID, ava.ID))

	ev := s.expectEvent(model.EventMoveToScoreboard)
	s.Equal(sess.ID, ev.SessionID)
	s.Require().NotNil(ev.Session)
	s.Equal(model.PhaseScore, ev.Session.Phase)
	for _, p := range ev.Session.Players {
		s.False(p.Ready)
	}
}

func (s *RunnerSuite) TestBroadcastPayloadIsDetachedFromLaterMutation() {
	sess, ava, ben := s.twoPlayerSession()

	s.Require().NoError(s.runner.Start(s.ctx, sess.ID, ava.ID))
	ev := s.expectEvent(model.EventMoveToScoreboard)

	// Readying up after the broadcast must not rewrite the payload already
	// handed to the transport
	_, err := s.controller.MarkReady(s.ctx, sess.ID, ava.ID)
	s.Require().NoError(err)
	_, err = s.controller.RecordScore(s.ctx, sess.ID, ben.ID, 5)
	s.Require().NoError(err)

	s.False(ev.Session.Player(ava.ID).Ready)
	s.False(ev.Session.Player(ben.ID).Ready)
	s.Equal(0, ev.Session.Player(ben.ID).Score)
}

func (s *RunnerSuite) TestAllReadyAdvancesBeforeTimeout() {
	sess, ava, ben := s.twoPlayerSession()

	s.Require().NoError(s.runner.Start(s.ctx, sess.ID, ava.ID))
	s.expectEvent(model.EventMoveToScoreboard)

	// Both players ready up; the phase must advance with no clock movement
	_, err := s.controller.MarkReady(s.ctx, sess.ID, ava.ID)
	s.Require().NoError(err)
	_, err = s.controller.MarkReady(s.ctx, sess.ID, ben.ID)
	s.Require().NoError(err)

	ev := s.expectEvent(model.EventMoveToGame)
	s.Equal(model.PhaseMiniGame, ev.Session.Phase)
	for _, p := range ev.Session.Players {
		s.False(p.Ready, "readiness must be cleared on each phase entry")
	}
}

func (s *RunnerSuite) TestTimeoutAdvancesPhase() {
	sess, ava, _ := s.twoPlayerSession()

	s.Require().NoError(s.runner.Start(s.ctx, sess.ID, ava.ID))
	s.expectEvent(model.EventMoveToScoreboard)

	// Nobody readies up; the scoring timeout alone advances the phase
	s.waitForArmedTimer()
	s.clock.Advance(DefaultConfig().ScoreTimeout)

	s.expectEvent(model.EventMoveToGame)
}

func (s *RunnerSuite) TestNoWinnerLoopsBackToScoreboard() {
	sess, ava, ben := s.twoPlayerSession()

	s.Require().NoError(s.runner.Start(s.ctx, sess.ID, ava.ID))
	s.expectEvent(model.EventMoveToScoreboard)

	_, _ = s.controller.MarkReady(s.ctx, sess.ID, ava.ID)
	_, _ = s.controller.MarkReady(s.ctx, sess.ID, ben.ID)
	s.expectEvent(model.EventMoveToGame)

	// Round ends with scores below the threshold
	_, err := s.controller.RecordScore(s.ctx, sess.ID, ava.ID, 3)
	s.Require().NoError(err)
	_, err = s.controller.RecordScore(s.ctx, sess.ID, ben.ID, 2)
	s.Require().NoError(err)

	ev := s.expectEvent(model.EventMoveToScoreboard)
	s.Equal(model.PhaseScore, ev.Session.Phase)
	s.Equal(3, ev.Session.Player(ava.ID).Score)
	s.Equal(2, ev.Session.Player(ben.ID).Score)
}

func (s *RunnerSuite) TestWinnerEndsSessionAtResults() {
	sess, ava, ben := s.twoPlayerSession()

	s.Require().NoError(s.runner.Start(s.ctx, sess.ID, ava.ID))
	s.expectEvent(model.EventMoveToScoreboard)

	_, _ = s.controller.MarkReady(s.ctx, sess.ID, ava.ID)
	_, _ = s.controller.MarkReady(s.ctx, sess.ID, ben.ID)
	s.expectEvent(model.EventMoveToGame)

	_, err := s.controller.RecordScore(s.ctx, sess.ID, ava.ID, 10)
	s.Require().NoError(err)
	_, err = s.controller.RecordScore(s.ctx, sess.ID, ben.ID, 4)
	s.Require().NoError(err)

	ev := s.expectEvent(model.EventMoveToResults)
	s.Equal(model.PhaseResults, ev.Session.Phase)
	s.Equal(10, ev.Session.Player(ava.ID).Score)

	// Terminal: no further phase broadcasts for this session
	select {
	case extra := <-s.broadcaster.events:
		s.Failf("unexpected broadcast after results", "%s", extra.Event)
	case <-time.After(50 * time.Millisecond):
	}
	s.True(s.runner.IsStarted(sess.ID))
}

func (s *RunnerSuite) TestTiedWinnersBothReachResults() {
	sess, ava, ben := s.twoPlayerSession()

	s.Require().NoError(s.runner.Start(s.ctx, sess.ID, ava.ID))
	s.expectEvent(model.EventMoveToScoreboard)

	_, _ = s.controller.MarkReady(s.ctx, sess.ID, ava.ID)
	_, _ = s.controller.MarkReady(s.ctx, sess.ID, ben.ID)
	s.expectEvent(model.EventMoveToGame)

	_, _ = s.controller.RecordScore(s.ctx, sess.ID, ava.ID, 12)
	_, _ = s.controller.RecordScore(s.ctx, sess.ID, ben.ID, 10)

	ev := s.expectEvent(model.EventMoveToResults)
	s.Len(ev.Session.Winners(DefaultConfig().WinningScore), 2)
}

func (s *RunnerSuite) TestLateReadyAfterTimeoutDoesNotDoubleAdvance() {
	sess, ava, ben := s.twoPlayerSession()

	s.Require().NoError(s.runner.Start(s.ctx, sess.ID, ava.ID))
	s.expectEvent(model.EventMoveToScoreboard)

	s.waitForArmedTimer()
	s.clock.Advance(DefaultConfig().ScoreTimeout)
	s.expectEvent(model.EventMoveToGame)

	// Both score during the round; that resolves the round barrier once
	_, _ = s.controller.RecordScore(s.ctx, sess.ID, ava.ID, 1)
	_, _ = s.controller.RecordScore(s.ctx, sess.ID, ben.ID, 1)

	ev := s.expectEvent(model.EventMoveToScoreboard)
	s.Equal(model.PhaseScore, ev.Session.Phase)
}
