package route

import (
	"github.com/gin-gonic/gin"
)

type PageHandler interface {
	Home(c *gin.Context)
	About(c *gin.Context)
	ScheduleForm(c *gin.Context)
}

func RegisterPages(g *gin.RouterGroup, h PageHandler) {
	g.GET("/", h.Home)
	g.GET("/about", h.About)
	g.GET("/schedule", h.ScheduleForm)
}
