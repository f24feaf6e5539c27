package view

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Pages(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	for _, page := range []string{PageIndex, PageAbout, PageSchedule, PageReminders} {
		t.Run(page, func(t *testing.T) {
			w := httptest.NewRecorder()

			err := r.Instance(page, map[string]any{"Title": page}).Render(w)
			require.NoError(t, err)

			body := w.Body.String()
			assert.Contains(t, body, "<title>"+page+" | Reminder App</title>")
			assert.Contains(t, body, `<a href="/schedule">`)
		})
	}
}

func TestRenderer_UnknownPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	err = r.Instance("missing", nil).Render(httptest.NewRecorder())
	require.Error(t, err)
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 10, 16, 9, 30, 0, 0, time.Local)

	format, ok := funcs()["formatTime"].(func(time.Time) string)
	require.True(t, ok)
	assert.Equal(t, "2026-10-16 09:30", format(ts))
}
