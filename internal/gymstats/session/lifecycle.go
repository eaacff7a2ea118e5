package session

import (
	"context"
	"time"

	"github.com/2beens/gymtracker/internal/gymstats/timer"

	log "github.com/sirupsen/logrus"
)

// Start runs the two independent 1 Hz loops: the rest timer tick and the
// duration counter. Both stop on Close or when ctx is done.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.started {
		return
	}
	s.started = true

	loopsCtx, cancel := context.WithCancel(ctx)
	s.cancelLoops = cancel

	restLoop := &timer.Loop{
		Interval:  tickInterval,
		NewTicker: s.newTicker,
		Fn: func(time.Time) {
			s.restTimer.Tick()
		},
	}
	durationLoop := &timer.Loop{
		Interval:  tickInterval,
		NewTicker: s.newTicker,
		Fn: func(time.Time) {
			s.refreshDuration()
		},
	}

	s.loopsWG.Add(2)
	go func() {
		defer s.loopsWG.Done()
		restLoop.Run(loopsCtx)
	}()
	go func() {
		defer s.loopsWG.Done()
		durationLoop.Run(loopsCtx)
	}()
}

// Close discards the session: both loops are stopped and waited for and the
// rest timer is cancelled. Later mutations fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancelLoops
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.loopsWG.Wait()
	s.restTimer.Cancel()
	s.metricsManager.GaugeActiveSessions.Dec()

	log.Debugf("session: routine [%s] closed", s.routine.Name)
	return nil
}

func (s *Session) Rest() timer.Status {
	return s.restTimer.Status()
}

func (s *Session) SkipRest() {
	s.restTimer.Skip()
}

// Resume reconciles with the wall clock after the process was suspended:
// the duration is refreshed and an expired rest timer completes once.
func (s *Session) Resume() timer.Status {
	if s.Closed() {
		return timer.Status{}
	}
	s.refreshDuration()
	return s.restTimer.Resume()
}
