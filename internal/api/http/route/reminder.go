package route

import (
	"github.com/gin-gonic/gin"
)

type ReminderHandler interface {
	Create(c *gin.Context)
	List(c *gin.Context)
}

func RegisterReminders(g *gin.RouterGroup, h ReminderHandler) {
	g.POST("/schedule", h.Create)
	g.GET("/reminders", h.List)
}
