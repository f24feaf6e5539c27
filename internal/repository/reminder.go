package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"email-reminder/internal/apperrors"
	"email-reminder/internal/model"
)

const reminderColumns = `id, email, message, schedule_time, sent, sent_at, attempts, last_attempt_at, last_error, created_at`

// ReminderRepository is the PostgreSQL reminder store. db is a *pgxpool.Pool in
// production.
type ReminderRepository struct {
	db DB
}

func NewReminderRepository(db DB) *ReminderRepository {
	return &ReminderRepository{
		db: db,
	}
}

func (r *ReminderRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *ReminderRepository) Insert(ctx context.Context, reminder *model.Reminder) (uuid.UUID, error) {
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}

	const query = `
		INSERT INTO reminders (id, email, message, schedule_time)
		VALUES ($1, $2, $3, $4)
		RETURNING sent, attempts, created_at;
	`

	if err := r.db.QueryRow(ctx, query,
		reminder.ID,
		reminder.Email,
		reminder.Message,
		reminder.ScheduleTime,
	).Scan(
		&reminder.Sent,
		&reminder.Attempts,
		&reminder.CreatedAt,
	); err != nil {
		return uuid.Nil, fmt.Errorf("insert reminder: %w", err)
	}

	return reminder.ID, nil
}

// SelectDue returns unsent reminders scheduled at or before now. A positive
// maxAttempts excludes reminders that already used up their attempts.
func (r *ReminderRepository) SelectDue(ctx context.Context, now time.Time, maxAttempts int) ([]model.Reminder, error) {
	const query = `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE sent = false
		  AND schedule_time <= $1
		  AND ($2 <= 0 OR attempts < $2);
	`

	return r.selectMany(ctx, query, now, maxAttempts)
}

func (r *ReminderRepository) SelectAllOrderedBySchedule(ctx context.Context) ([]model.Reminder, error) {
	const query = `
		SELECT ` + reminderColumns + `
		FROM reminders
		ORDER BY schedule_time ASC;
	`

	return r.selectMany(ctx, query)
}

// UpdateAsSent flags the reminder sent; it never flips a reminder that is already sent.
func (r *ReminderRepository) UpdateAsSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	const query = `
		UPDATE reminders
		SET sent = true,
		    sent_at = $2,
		    attempts = attempts + 1,
		    last_attempt_at = $2,
		    last_error = ''
		WHERE id = $1 AND sent = false;
	`

	tag, err := r.db.Exec(ctx, query, id, sentAt)
	if err != nil {
		return fmt.Errorf("update reminder %s as sent: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrReminderDoesNotExist
	}

	return nil
}

func (r *ReminderRepository) UpdateAttempt(ctx context.Context, id uuid.UUID, attemptedAt time.Time, reason string) error {
	const query = `
		UPDATE reminders
		SET attempts = attempts + 1,
		    last_attempt_at = $2,
		    last_error = $3
		WHERE id = $1 AND sent = false;
	`

	tag, err := r.db.Exec(ctx, query, id, attemptedAt, reason)
	if err != nil {
		return fmt.Errorf("update reminder %s attempt: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrReminderDoesNotExist
	}

	return nil
}

func (r *ReminderRepository) selectMany(ctx context.Context, query string, args ...any) ([]model.Reminder, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}

	defer rows.Close()

	reminders := make([]model.Reminder, 0)

	for rows.Next() {
		var reminder model.Reminder
		if err := rows.Scan(
			&reminder.ID,
			&reminder.Email,
			&reminder.Message,
			&reminder.ScheduleTime,
			&reminder.Sent,
			&reminder.SentAt,
			&reminder.Attempts,
			&reminder.LastAttemptAt,
			&reminder.LastError,
			&reminder.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}

		reminders = append(reminders, reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reminders, nil
}
