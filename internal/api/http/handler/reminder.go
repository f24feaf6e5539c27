package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"email-reminder/internal/api/http/view"
	"email-reminder/internal/model"
)

const (
	scheduleSuccessURL = "/schedule?success=true"
	scheduleErrorURL   = "/schedule?error=true"
)

type ReminderService interface {
	Create(ctx context.Context, req model.ReminderCreateRequest) (*model.Reminder, error)
	List(ctx context.Context) ([]model.Reminder, error)
}

type ReminderHandler struct {
	BaseHandler

	log *zap.Logger
	svc ReminderService
}

func NewReminderHandler(log *zap.Logger, svc ReminderService) *ReminderHandler {
	return &ReminderHandler{
		log: log,
		svc: svc,
	}
}

// Create accepts the schedule form and redirects back to it with a success or error flag.
func (h *ReminderHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req model.ReminderCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		h.log.Info("Rejected reminder form", zap.Error(err))
		c.Redirect(http.StatusSeeOther, scheduleErrorURL)

		return
	}

	if _, err := h.svc.Create(ctx, req); err != nil {
		h.log.Error("Failed to schedule reminder", zap.String("email", req.Email), zap.Error(err))
		c.Redirect(http.StatusSeeOther, scheduleErrorURL)

		return
	}

	c.Redirect(http.StatusSeeOther, scheduleSuccessURL)
}

// List renders every reminder by ascending schedule time. A store failure is logged and
// the page is rendered empty.
func (h *ReminderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	reminders, err := h.svc.List(ctx)
	if err != nil {
		h.log.Error("Failed to list reminders", zap.Error(err))

		reminders = nil
	}

	h.Page(c, http.StatusOK, view.PageReminders, "Reminders", gin.H{
		"Reminders": reminders,
	})
}
