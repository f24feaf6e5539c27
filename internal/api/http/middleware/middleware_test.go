package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"email-reminder/internal/config"
)

func TestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.InfoLevel)

	engine := gin.New()
	engine.Use(Logger(zap.New(core)))
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok?x=1", nil))
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, "x=1", entries[0].ContextMap()["query"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.ErrorLevel)

	engine := gin.New()
	engine.Use(Recovery(zap.New(core)))
	engine.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("Panic while handling request").Len())
}

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var deadline time.Time
	var hasDeadline bool

	engine := gin.New()
	engine.Use(RequestTimeout(time.Second))
	engine.GET("/", func(c *gin.Context) {
		deadline, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusNoContent)
	})

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(CORS(config.CORS{
		Enabled:      true,
		AllowOrigins: []string{"https://reminders.example.com"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		MaxAge:       time.Hour,
	}))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://reminders.example.com")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "https://reminders.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	disabled := gin.New()
	disabled.Use(CORS(config.CORS{}))
	disabled.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w = httptest.NewRecorder()
	disabled.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
