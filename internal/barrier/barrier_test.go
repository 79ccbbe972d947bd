package barrier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/microparty/microparty/internal/dependencies/mocks"
	"github.com/microparty/microparty/internal/model"
)

const testSession = model.SessionID("ABC123")

type BarrierSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	registry *Registry
	ctx      context.Context
}

func TestBarrierSuite(t *testing.T) {
	suite.Run(t, new(BarrierSuite))
}

func (s *BarrierSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.registry = NewRegistry(s.clock)
	s.ctx = context.Background()
}

// await runs Await in a goroutine and returns a channel closed on return
func (s *BarrierSuite) await(w *Wait, timeout time.Duration, allReady func() bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Await(s.ctx, timeout, allReady)
	}()
	return done
}

func (s *BarrierSuite) waitDone(done <-chan struct{}) {
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.FailNow("Await did not return")
	}
}

func (s *BarrierSuite) assertBlocked(done <-chan struct{}) {
	select {
	case <-done:
		s.FailNow("Await returned early")
	case <-time.After(20 * time.Millisecond):
	}
}

func (s *BarrierSuite) TestResolveBeforeTimeout() {
	w, err := s.registry.Arm(testSession)
	s.Require().NoError(err)

	done := s.await(w, 5*time.Minute, nil)
	s.assertBlocked(done)

	s.True(s.registry.Resolve(testSession))
	s.waitDone(done)

	// The timeout must not act after resolution
	s.clock.Advance(10 * time.Minute)
	s.False(s.registry.Armed(testSession))
}

func (s *BarrierSuite) TestTimeoutWithoutResolve() {
	w, err := s.registry.Arm(testSession)
	s.Require().NoError(err)

	done := s.await(w, 5*time.Minute, nil)
	s.assertBlocked(done)

	s.clock.Advance(5 * time.Minute)
	s.waitDone(done)
	s.False(s.registry.Armed(testSession))
}

func (s *BarrierSuite) TestLateResolveAfterTimeoutIsNoop() {
	w, err := s.registry.Arm(testSession)
	s.Require().NoError(err)

	done := s.await(w, time.Minute, nil)
	s.clock.Advance(time.Minute)
	s.waitDone(done)

	// A ready arriving after the timeout resolves nothing
	s.False(s.registry.Resolve(testSession))
}

func (s *BarrierSuite) TestResolveWithoutWaiterIsNoop() {
	s.False(s.registry.Resolve(testSession))
}

func (s *BarrierSuite) TestReadyPredicateFastPath() {
	w, err := s.registry.Arm(testSession)
	s.Require().NoError(err)

	// All players readied between arming and waiting; Await must not block
	done := s.await(w, 5*time.Minute, func() bool { return true })
	s.waitDone(done)
	s.False(s.registry.Armed(testSession))
}

func (s *BarrierSuite) TestArmTwiceFails() {
	_, err := s.registry.Arm(testSession)
	s.Require().NoError(err)

	_, err = s.registry.Arm(testSession)
	s.ErrorIs(err, model.ErrBarrierArmed)
}

func (s *BarrierSuite) TestRearmAfterResolution() {
	w, err := s.registry.Arm(testSession)
	s.Require().NoError(err)

	done := s.await(w, time.Minute, nil)
	s.registry.Resolve(testSession)
	s.waitDone(done)

	// The barrier is reusable once the previous wait completed
	w2, err := s.registry.Arm(testSession)
	s.Require().NoError(err)

	done = s.await(w2, time.Minute, nil)
	s.clock.Advance(time.Minute)
	s.waitDone(done)
}

func (s *BarrierSuite) TestContextCancellationUnblocks() {
	ctx, cancel := context.WithCancel(context.Background())

	w, err := s.registry.Arm(testSession)
	s.Require().NoError(err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Await(ctx, 5*time.Minute, nil)
	}()

	cancel()
	s.waitDone(done)
	s.False(s.registry.Armed(testSession))
}

func (s *BarrierSuite) TestSessionsAreIndependent() {
	other := model.SessionID("XYZ789")

	w1, err := s.registry.Arm(testSession)
	s.Require().NoError(err)
	w2, err := s.registry.Arm(other)
	s.Require().NoError(err)

	done1 := s.await(w1, 5*time.Minute, nil)
	done2 := s.await(w2, 5*time.Minute, nil)

	s.True(s.registry.Resolve(testSession))
	s.waitDone(done1)

	s.assertBlocked(done2)
	s.clock.Advance(5 * time.Minute)
	s.waitDone(done2)
}
