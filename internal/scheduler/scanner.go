package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"email-reminder/internal/apperrors"
	"email-reminder/internal/model"
)

const DefaultSubject = "Reminder App"

type Repository interface {
	SelectDue(ctx context.Context, now time.Time, maxAttempts int) ([]model.Reminder, error)
	UpdateAsSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	UpdateAttempt(ctx context.Context, id uuid.UUID, attemptedAt time.Time, reason string) error
}

type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

type EventPublisher interface {
	PublishDelivered(ctx context.Context, event model.ReminderDeliveredEvent) error
}

// Locker guards a scan across processes. Refresh extends a lock still held by the
// caller and reports false once it was lost.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

type Config struct {
	Subject      string
	QueryTimeout time.Duration // zero disables the timeout
	SendTimeout  time.Duration // zero disables the timeout
	MaxAttempts  int           // zero or less retries forever
}

// Report summarizes one scan.
type Report struct {
	Due        int
	Sent       int
	Failed     int
	MarkFailed int
	Duration   time.Duration
}

type Option func(s *Scanner)

func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

func WithLocker(locker Locker) Option {
	return func(s *Scanner) {
		s.locker = locker
	}
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Scanner) {
		s.events = publisher
	}
}

// Scanner finds due reminders and dispatches them one at a time.
type Scanner struct {
	l          *zap.Logger
	cfg        Config
	repo       Repository
	dispatcher Dispatcher
	events     EventPublisher
	locker     Locker
	now        func() time.Time
	running    atomic.Bool
}

func NewScanner(l *zap.Logger, cfg Config, repo Repository, dispatcher Dispatcher, opts ...Option) *Scanner {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}

	s := &Scanner{
		l:          l,
		cfg:        cfg,
		repo:       repo,
		dispatcher: dispatcher,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Tick runs one scan and swallows every failure, panics included, so the caller's
// schedule is never interrupted.
func (s *Scanner) Tick(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			s.l.Error("Reminder scan panicked", zap.Any("panic", rec), zap.Stack("stack"))
		}
	}()

	report, err := s.Scan(ctx)

	switch {
	case errors.Is(err, apperrors.ErrScanInProgress):
		s.l.Warn("Previous reminder scan is still running, skipping tick")
	case errors.Is(err, apperrors.ErrScanLockLost):
		s.l.Warn("Scan lock expired, leaving remaining reminders to the next scan",
			zap.Int("sent", report.Sent),
			zap.Int("failed", report.Failed),
		)
	case err != nil:
		s.l.Error("Reminder scan failed", zap.Error(err))
	case report.Due > 0:
		s.l.Info("Reminder scan finished",
			zap.Int("due", report.Due),
			zap.Int("sent", report.Sent),
			zap.Int("failed", report.Failed),
			zap.Int("mark_failed", report.MarkFailed),
			zap.Duration("duration", report.Duration),
		)
	default:
		s.l.Debug("No due reminders")
	}
}

// Scan dispatches every reminder due at the time of the call. A failed send leaves the
// reminder unsent, so it is picked up again by the next scan.
func (s *Scanner) Scan(ctx context.Context) (Report, error) {
	var report Report

	if !s.running.CompareAndSwap(false, true) {
		return report, apperrors.ErrScanInProgress
	}
	defer s.running.Store(false)

	if s.locker != nil {
		locked, err := s.locker.TryLock(ctx)
		if err != nil {
			return report, fmt.Errorf("acquire scan lock: %w", err)
		}

		if !locked {
			return report, apperrors.ErrScanInProgress
		}

		defer s.unlock()
	}

	started := s.now()

	reminders, err := s.selectDue(ctx, started)
	if err != nil {
		return report, fmt.Errorf("select due reminders: %w", err)
	}

	report.Due = len(reminders)

	for _, reminder := range reminders {
		if err := ctx.Err(); err != nil {
			report.Duration = s.now().Sub(started)
			return report, err
		}

		if err := s.refreshLock(ctx); err != nil {
			report.Duration = s.now().Sub(started)
			return report, err
		}

		s.deliver(ctx, reminder, &report)
	}

	report.Duration = s.now().Sub(started)

	return report, nil
}

func (s *Scanner) selectDue(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	return s.repo.SelectDue(ctx, now, s.cfg.MaxAttempts)
}

func (s *Scanner) deliver(ctx context.Context, reminder model.Reminder, report *Report) {
	log := s.l.With(
		zap.String("reminder_id", reminder.ID.String()),
		zap.String("email", reminder.Email),
	)

	sendCtx, cancel := withTimeout(ctx, s.cfg.SendTimeout)
	err := s.dispatcher.Send(sendCtx, reminder.Email, s.cfg.Subject, reminder.Message)
	cancel()

	attemptedAt := s.now()

	// The outcome is recorded even when ctx was cancelled during the send.
	ctx = context.WithoutCancel(ctx)

	if err != nil {
		report.Failed++
		log.Warn("Failed to send reminder, will retry on next scan",
			zap.Int("attempt", reminder.Attempts+1),
			zap.Error(err),
		)

		updateCtx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()

		if err := s.repo.UpdateAttempt(updateCtx, reminder.ID, attemptedAt, err.Error()); err != nil {
			log.Error("Failed to record reminder attempt", zap.Error(err))
		}

		return
	}

	updateCtx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	if err := s.repo.UpdateAsSent(updateCtx, reminder.ID, attemptedAt); err != nil {
		report.MarkFailed++
		log.Error("Reminder sent but not marked as sent", zap.Error(err))

		return
	}

	report.Sent++
	log.Info("Reminder sent")

	if s.events == nil {
		return
	}

	event := model.ReminderDeliveredEvent{
		ReminderID:   reminder.ID,
		Email:        reminder.Email,
		ScheduleTime: reminder.ScheduleTime,
		SentAt:       attemptedAt,
		Attempts:     reminder.Attempts + 1,
	}

	if err := s.events.PublishDelivered(updateCtx, event); err != nil {
		log.Warn("Failed to publish delivered event", zap.Error(err))
	}
}

func (s *Scanner) refreshLock(ctx context.Context) error {
	if s.locker == nil {
		return nil
	}

	held, err := s.locker.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh scan lock: %w", err)
	}

	if !held {
		return apperrors.ErrScanLockLost
	}

	return nil
}

func (s *Scanner) unlock() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.locker.Unlock(ctx); err != nil {
		s.l.Warn("Failed to release scan lock", zap.Error(err))
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d)
}
