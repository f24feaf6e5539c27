package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"email-reminder/internal/apperrors"
	"email-reminder/internal/model"
)

// ReminderGormRepository is the embedded (SQLite) reminder store. Timestamps are stored
// in UTC so that range comparisons stay correct on the textual column encoding.
type ReminderGormRepository struct {
	db *gorm.DB
}

func NewReminderGormRepository(db *gorm.DB) *ReminderGormRepository {
	return &ReminderGormRepository{
		db: db,
	}
}

func (r *ReminderGormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (r *ReminderGormRepository) Insert(ctx context.Context, reminder *model.Reminder) (uuid.UUID, error) {
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}

	reminder.ScheduleTime = reminder.ScheduleTime.UTC()

	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return uuid.Nil, fmt.Errorf("insert reminder: %w", err)
	}

	return reminder.ID, nil
}

func (r *ReminderGormRepository) SelectDue(ctx context.Context, now time.Time, maxAttempts int) ([]model.Reminder, error) {
	reminders := make([]model.Reminder, 0)

	query := r.db.WithContext(ctx).
		Where("sent = ?", false).
		Where("schedule_time <= ?", now.UTC())

	if maxAttempts > 0 {
		query = query.Where("attempts < ?", maxAttempts)
	}

	if err := query.Find(&reminders).Error; err != nil {
		return nil, err
	}

	return reminders, nil
}

func (r *ReminderGormRepository) SelectAllOrderedBySchedule(ctx context.Context) ([]model.Reminder, error) {
	reminders := make([]model.Reminder, 0)

	if err := r.db.WithContext(ctx).Order("schedule_time ASC").Find(&reminders).Error; err != nil {
		return nil, err
	}

	return reminders, nil
}

func (r *ReminderGormRepository) UpdateAsSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	sentAt = sentAt.UTC()

	result := r.db.WithContext(ctx).
		Model(&model.Reminder{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]any{
			"sent":            true,
			"sent_at":         sentAt,
			"attempts":        gorm.Expr("attempts + 1"),
			"last_attempt_at": sentAt,
			"last_error":      "",
		})
	if result.Error != nil {
		return fmt.Errorf("update reminder %s as sent: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.ErrReminderDoesNotExist
	}

	return nil
}

func (r *ReminderGormRepository) UpdateAttempt(ctx context.Context, id uuid.UUID, attemptedAt time.Time, reason string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Reminder{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]any{
			"attempts":        gorm.Expr("attempts + 1"),
			"last_attempt_at": attemptedAt.UTC(),
			"last_error":      reason,
		})
	if result.Error != nil {
		return fmt.Errorf("update reminder %s attempt: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.ErrReminderDoesNotExist
	}

	return nil
}
