package session

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ControllerImpl struct {
	service Service
}

func NewControllerImpl(service Service) *ControllerImpl {
	return &ControllerImpl{service: service}
}

// Create handler
func (c *ControllerImpl) Create(ctx *gin.Context) {
	resp, err := c.service.Issue()
	if err != nil {
		slog.Error("issue session", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Could not create session"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func (c *ControllerImpl) RegisterRoutes(router gin.IRouter) {
	router.POST("/session", c.Create)
}
