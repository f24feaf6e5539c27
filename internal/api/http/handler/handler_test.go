package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"email-reminder/internal/api/http/view"
	"email-reminder/internal/model"
)

type mockReminderService struct {
	mock.Mock
}

func (m *mockReminderService) Create(_ context.Context, req model.ReminderCreateRequest) (*model.Reminder, error) {
	args := m.Called(req)
	reminder, _ := args.Get(0).(*model.Reminder)

	return reminder, args.Error(1)
}

func (m *mockReminderService) List(context.Context) ([]model.Reminder, error) {
	args := m.Called()
	reminders, _ := args.Get(0).([]model.Reminder)

	return reminders, args.Error(1)
}

type healthFunc func(ctx context.Context) (bool, error)

func (f healthFunc) IsOK(ctx context.Context) (bool, error) { return f(ctx) }

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	engine := gin.New()
	engine.HTMLRender = renderer
	engine.NoRoute(NoRoute)

	return engine
}

func postForm(engine http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	return w
}

func get(engine http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func TestPageHandler(t *testing.T) {
	engine := newEngine(t)
	h := NewPageHandler()
	engine.GET("/", h.Home)
	engine.GET("/about", h.About)
	engine.GET("/schedule", h.ScheduleForm)

	w := get(engine, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Reminder App</h1>")

	w = get(engine, "/about")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "once a minute")

	w = get(engine, "/schedule")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="datetime"`)
	assert.NotContains(t, w.Body.String(), "banner success")
	assert.NotContains(t, w.Body.String(), "banner error")

	w = get(engine, "/schedule?success=true")
	assert.Contains(t, w.Body.String(), "banner success")

	w = get(engine, "/schedule?error=true")
	assert.Contains(t, w.Body.String(), "banner error")
}

func TestReminderHandler_Create(t *testing.T) {
	form := url.Values{
		"email":    {"a@x.com"},
		"message":  {"call mom"},
		"datetime": {"2026-10-16T09:30"},
	}
	req := model.ReminderCreateRequest{Email: "a@x.com", Message: "call mom", Datetime: "2026-10-16T09:30"}

	t.Run("success redirects with success flag", func(t *testing.T) {
		svc := &mockReminderService{}
		svc.On("Create", req).Return(&model.Reminder{ID: uuid.New()}, nil).Once()

		engine := newEngine(t)
		engine.POST("/schedule", NewReminderHandler(zaptest.NewLogger(t), svc).Create)

		w := postForm(engine, "/schedule", form)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/schedule?success=true", w.Header().Get("Location"))
		svc.AssertExpectations(t)
	})

	t.Run("store failure redirects with error flag", func(t *testing.T) {
		svc := &mockReminderService{}
		svc.On("Create", req).Return(nil, errors.New("connection reset")).Once()

		core, logs := observer.New(zap.ErrorLevel)

		engine := newEngine(t)
		engine.POST("/schedule", NewReminderHandler(zap.New(core), svc).Create)

		w := postForm(engine, "/schedule", form)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/schedule?error=true", w.Header().Get("Location"))
		assert.Equal(t, 1, logs.FilterMessage("Failed to schedule reminder").Len())
	})

	t.Run("missing field never reaches the service", func(t *testing.T) {
		svc := &mockReminderService{}

		engine := newEngine(t)
		engine.POST("/schedule", NewReminderHandler(zaptest.NewLogger(t), svc).Create)

		w := postForm(engine, "/schedule", url.Values{"email": {"a@x.com"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/schedule?error=true", w.Header().Get("Location"))
		svc.AssertNotCalled(t, "Create", mock.Anything)
	})
}

func TestReminderHandler_List(t *testing.T) {
	t.Run("renders reminders in store order", func(t *testing.T) {
		base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.Local)

		svc := &mockReminderService{}
		svc.On("List").Return([]model.Reminder{
			{ID: uuid.New(), Email: "a@x.com", Message: "first", ScheduleTime: base},
			{ID: uuid.New(), Email: "b@x.com", Message: "second", ScheduleTime: base.Add(time.Hour), Sent: true},
		}, nil).Once()

		engine := newEngine(t)
		engine.GET("/reminders", NewReminderHandler(zaptest.NewLogger(t), svc).List)

		w := get(engine, "/reminders")
		require.Equal(t, http.StatusOK, w.Code)

		body := w.Body.String()
		assert.Less(t, strings.Index(body, "first"), strings.Index(body, "second"))
		assert.Contains(t, body, "2026-10-16 09:00")
		assert.Contains(t, body, "pending")
		assert.Contains(t, body, "sent")
	})

	t.Run("store failure renders an empty list", func(t *testing.T) {
		svc := &mockReminderService{}
		svc.On("List").Return(nil, errors.New("timeout")).Once()

		core, logs := observer.New(zap.ErrorLevel)

		engine := newEngine(t)
		engine.GET("/reminders", NewReminderHandler(zap.New(core), svc).List)

		w := get(engine, "/reminders")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "No reminders yet.")
		assert.Equal(t, 1, logs.FilterMessage("Failed to list reminders").Len())
	})
}

func TestHealthHandler(t *testing.T) {
	engine := newEngine(t)

	up := NewHealthHandler(zaptest.NewLogger(t), healthFunc(func(context.Context) (bool, error) { return true, nil }))
	down := NewHealthHandler(zaptest.NewLogger(t), healthFunc(func(context.Context) (bool, error) {
		return false, errors.New("store down")
	}))

	engine.GET("/health/ping", up.Ping)
	engine.GET("/health/up", up.Health)
	engine.GET("/health/down", down.Health)

	w := get(engine, "/health/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","message":"pong"}`, w.Body.String())

	w = get(engine, "/health/up")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(engine, "/health/down")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "store down")

	w = get(engine, "/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
