package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultInterval = time.Minute

type Ticker interface {
	Tick(ctx context.Context)
}

// Scheduler fires Tick on interval boundaries (every wall-clock minute by default)
// until its context is cancelled. Each tick runs in its own goroutine, so a slow scan
// never delays the clock; the scanner skips ticks that would overlap.
type Scheduler struct {
	l        *zap.Logger
	interval time.Duration
	ticker   Ticker
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewScheduler(l *zap.Logger, interval time.Duration, ticker Ticker) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Scheduler{
		l:        l,
		interval: interval,
		ticker:   ticker,
		now:      time.Now,
	}
}

// Run blocks until ctx is done and every started tick has returned.
func (s *Scheduler) Run(ctx context.Context) {
	wait := s.untilNextBoundary()

	s.l.Info("Reminder scheduler started",
		zap.Duration("interval", s.interval),
		zap.Duration("first_tick_in", wait),
	)

	defer func() {
		s.wg.Wait()
		s.l.Info("Reminder scheduler stopped")
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.fire(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.ticker.Tick(ctx)
	}()
}

func (s *Scheduler) untilNextBoundary() time.Duration {
	now := s.now()
	next := now.Truncate(s.interval).Add(s.interval)

	return next.Sub(now)
}
