package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"email-reminder/internal/apperrors"
	"email-reminder/internal/model"
)

// Layouts accepted for the schedule form's datetime field. The datetime-local layouts
// carry no zone and are read in the server's local time.
var scheduleLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

type ReminderRepository interface {
	Insert(ctx context.Context, reminder *model.Reminder) (uuid.UUID, error)
	SelectAllOrderedBySchedule(ctx context.Context) ([]model.Reminder, error)
}

type ReminderService struct {
	log      *zap.Logger
	repo     ReminderRepository
	validate *validator.Validate
	location *time.Location
}

func NewReminderService(log *zap.Logger, repo ReminderRepository) *ReminderService {
	return &ReminderService{
		log:      log,
		repo:     repo,
		validate: validator.New(),
		location: time.Local,
	}
}

// Create stores a new unsent reminder. Past schedule times are accepted and become due
// on the next scan.
func (s *ReminderService) Create(ctx context.Context, req model.ReminderCreateRequest) (*model.Reminder, error) {
	email := strings.TrimSpace(req.Email)
	message := strings.TrimSpace(req.Message)

	if email == "" || message == "" {
		return nil, apperrors.ErrInvalidReminder
	}

	if err := s.validate.Var(email, "email"); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidEmail, email)
	}

	scheduleTime, err := s.ParseScheduleTime(req.Datetime)
	if err != nil {
		return nil, err
	}

	reminder := &model.Reminder{
		Email:        email,
		Message:      message,
		ScheduleTime: scheduleTime,
	}

	if _, err := s.repo.Insert(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to insert reminder: %w", err)
	}

	s.log.Info("Reminder scheduled",
		zap.String("reminder_id", reminder.ID.String()),
		zap.String("email", reminder.Email),
		zap.Time("schedule_time", reminder.ScheduleTime),
	)

	return reminder, nil
}

func (s *ReminderService) List(ctx context.Context) ([]model.Reminder, error) {
	reminders, err := s.repo.SelectAllOrderedBySchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to select reminders: %w", err)
	}

	return reminders, nil
}

func (s *ReminderService) ParseScheduleTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperrors.ErrInvalidScheduleTime
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, value, s.location); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidScheduleTime, value)
}
