package model

import (
	"time"

	"github.com/google/uuid"
)

// Reminder is a message to be emailed once ScheduleTime has passed.
type Reminder struct {
	ID            uuid.UUID  `db:"id"              gorm:"type:uuid;primaryKey"          json:"id"`
	Email         string     `db:"email"           gorm:"not null"                      json:"email"`
	Message       string     `db:"message"         gorm:"not null"                      json:"message"`
	ScheduleTime  time.Time  `db:"schedule_time"   gorm:"not null;index:idx_reminder_due,priority:2" json:"schedule_time"`
	Sent          bool       `db:"sent"            gorm:"not null;default:false;index:idx_reminder_due,priority:1" json:"sent"`
	SentAt        *time.Time `db:"sent_at"         json:"sent_at,omitempty"`
	Attempts      int        `db:"attempts"        gorm:"not null;default:0"            json:"attempts"`
	LastAttemptAt *time.Time `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
	LastError     string     `db:"last_error"      json:"last_error,omitempty"`
	CreatedAt     time.Time  `db:"created_at"      json:"created_at"`
}

func (Reminder) TableName() string {
	return "reminders"
}

// IsDue reports whether the reminder is eligible for dispatch at now.
func (r *Reminder) IsDue(now time.Time) bool {
	return !r.Sent && !r.ScheduleTime.After(now)
}

// ReminderCreateRequest is the schedule form payload.
type ReminderCreateRequest struct {
	Email    string `form:"email"    json:"email"    binding:"required"`
	Message  string `form:"message"  json:"message"  binding:"required"`
	Datetime string `form:"datetime" json:"datetime" binding:"required"`
}

// ReminderDeliveredEvent is published after a reminder was sent and flagged.
type ReminderDeliveredEvent struct {
	ReminderID   uuid.UUID `json:"reminder_id"`
	Email        string    `json:"email"`
	ScheduleTime time.Time `json:"schedule_time"`
	SentAt       time.Time `json:"sent_at"`
	Attempts     int       `json:"attempts"`
}
