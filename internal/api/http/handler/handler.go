package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	StatusErr          = "error"
	StatusSuccess      = "success"
	StatusNotAvailable = "not available"
	StatusOK           = "ok"
)

// BaseHandler carries helpers shared by the page-rendering handlers.
type BaseHandler struct{}

// Page renders one of the view pages with the given title merged into data.
func (h *BaseHandler) Page(c *gin.Context, status int, page, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	data["Title"] = title

	c.HTML(status, page, data)
}

type ResponseWithData struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type ResponseWithMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func NoMethod(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "method not allowed on this endpoint",
	})
}

func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "page not found",
	})
}
