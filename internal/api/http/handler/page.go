package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"email-reminder/internal/api/http/view"
)

type PageHandler struct {
	BaseHandler
}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

func (h *PageHandler) Home(c *gin.Context) {
	h.Page(c, http.StatusOK, view.PageIndex, "Home", nil)
}

func (h *PageHandler) About(c *gin.Context) {
	h.Page(c, http.StatusOK, view.PageAbout, "About", nil)
}

// ScheduleForm renders the submission form, with a banner when redirected back from a submission.
func (h *PageHandler) ScheduleForm(c *gin.Context) {
	h.Page(c, http.StatusOK, view.PageSchedule, "Schedule", gin.H{
		"Success": c.Query("success") == "true",
		"Error":   c.Query("error") == "true",
	})
}
