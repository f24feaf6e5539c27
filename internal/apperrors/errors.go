package apperrors

import (
	"errors"
)

var (
	ErrShutdown = errors.New("shutdown error")

	ErrReminderDoesNotExist = errors.New("reminder does not exist or is already sent")
	ErrInvalidReminder      = errors.New("reminder email and message must not be empty")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidScheduleTime  = errors.New("invalid schedule time")

	ErrUnknownDatabaseDriver = errors.New("unknown database driver")
	ErrUnknownMailerDriver   = errors.New("unknown mailer driver")

	ErrScanInProgress = errors.New("previous scan is still running")
	ErrScanLockLost   = errors.New("scan lock is no longer held")
)
