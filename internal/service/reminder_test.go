package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"email-reminder/internal/apperrors"
	"email-reminder/internal/model"
)

type mockReminderRepository struct {
	mock.Mock
}

func (m *mockReminderRepository) Insert(_ context.Context, reminder *model.Reminder) (uuid.UUID, error) {
	args := m.Called(reminder)
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}

	return reminder.ID, args.Error(0)
}

func (m *mockReminderRepository) SelectAllOrderedBySchedule(context.Context) ([]model.Reminder, error) {
	args := m.Called()
	reminders, _ := args.Get(0).([]model.Reminder)

	return reminders, args.Error(1)
}

func newTestService(t *testing.T, repo ReminderRepository) *ReminderService {
	t.Helper()

	svc := NewReminderService(zaptest.NewLogger(t), repo)
	svc.location = time.UTC

	return svc
}

func TestReminderService_Create(t *testing.T) {
	repo := &mockReminderRepository{}
	repo.On("Insert", mock.MatchedBy(func(r *model.Reminder) bool {
		return r.Email == "a@x.com" && r.Message == "hi" && !r.Sent
	})).Return(nil).Once()

	svc := newTestService(t, repo)

	reminder, err := svc.Create(context.Background(), model.ReminderCreateRequest{
		Email:    " a@x.com ",
		Message:  "hi\n",
		Datetime: "2026-10-16T09:30",
	})
	require.NoError(t, err)

	repo.AssertExpectations(t)
	assert.NotEqual(t, uuid.Nil, reminder.ID)
	assert.Equal(t, time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC), reminder.ScheduleTime)
}

func TestReminderService_CreateAcceptsPastTime(t *testing.T) {
	repo := &mockReminderRepository{}
	repo.On("Insert", mock.Anything).Return(nil).Once()

	past := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)

	_, err := newTestService(t, repo).Create(context.Background(), model.ReminderCreateRequest{
		Email:    gofakeit.Email(),
		Message:  gofakeit.Name(),
		Datetime: past,
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReminderService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     model.ReminderCreateRequest
		wantErr error
	}{
		{
			name:    "blank email",
			req:     model.ReminderCreateRequest{Email: "  ", Message: "hi", Datetime: "2026-10-16T09:30"},
			wantErr: apperrors.ErrInvalidReminder,
		},
		{
			name:    "blank message",
			req:     model.ReminderCreateRequest{Email: "a@x.com", Message: "\t", Datetime: "2026-10-16T09:30"},
			wantErr: apperrors.ErrInvalidReminder,
		},
		{
			name:    "malformed email",
			req:     model.ReminderCreateRequest{Email: "not-an-address", Message: "hi", Datetime: "2026-10-16T09:30"},
			wantErr: apperrors.ErrInvalidEmail,
		},
		{
			name:    "malformed datetime",
			req:     model.ReminderCreateRequest{Email: "a@x.com", Message: "hi", Datetime: "tomorrow"},
			wantErr: apperrors.ErrInvalidScheduleTime,
		},
		{
			name:    "missing datetime",
			req:     model.ReminderCreateRequest{Email: "a@x.com", Message: "hi"},
			wantErr: apperrors.ErrInvalidScheduleTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockReminderRepository{}

			_, err := newTestService(t, repo).Create(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			repo.AssertNotCalled(t, "Insert", mock.Anything)
		})
	}
}

func TestReminderService_CreateStoreError(t *testing.T) {
	storeErr := errors.New("disk full")

	repo := &mockReminderRepository{}
	repo.On("Insert", mock.Anything).Return(storeErr).Once()

	_, err := newTestService(t, repo).Create(context.Background(), model.ReminderCreateRequest{
		Email:    "a@x.com",
		Message:  "hi",
		Datetime: "2026-10-16T09:30",
	})
	require.ErrorIs(t, err, storeErr)
}

func TestReminderService_List(t *testing.T) {
	stored := []model.Reminder{{ID: uuid.New()}, {ID: uuid.New()}}

	repo := &mockReminderRepository{}
	repo.On("SelectAllOrderedBySchedule").Return(stored, nil).Once()

	got, err := newTestService(t, repo).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	repo.On("SelectAllOrderedBySchedule").Return(nil, errors.New("timeout")).Once()

	_, err = newTestService(t, repo).List(context.Background())
	require.Error(t, err)
}

func TestReminderService_ParseScheduleTime(t *testing.T) {
	svc := newTestService(t, &mockReminderRepository{})

	tests := map[string]time.Time{
		"2026-10-16T09:30":          time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC),
		"2026-10-16T09:30:45":       time.Date(2026, 10, 16, 9, 30, 45, 0, time.UTC),
		"2026-10-16 09:30":          time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC),
		"2026-10-16T09:30:00+02:00": time.Date(2026, 10, 16, 7, 30, 0, 0, time.UTC),
	}

	for input, want := range tests {
		got, err := svc.ParseScheduleTime(input)
		require.NoError(t, err, input)
		assert.True(t, want.Equal(got), "%s: want %s, got %s", input, want, got)
	}
}
