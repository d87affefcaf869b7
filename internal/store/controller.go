package store

import (
	"log/slog"
	"net/http"

	"combatai/internal/session"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// RegisterRoutes mounts the battle list routes. The router must already
// run session.Middleware.
func (cc *Controller) RegisterRoutes(router gin.IRouter) {
	router.GET("/battles", cc.Load)
	router.POST("/battles", cc.PushEmpty)
	router.POST("/battles/clean", cc.Clean)
	router.PATCH("/battles/:id", cc.SetBattle)
}

func (cc *Controller) Load(c *gin.Context) {
	battles, err := cc.service.Load(c.Request.Context(), session.Owner(c))
	cc.respond(c, battles, err)
}

func (cc *Controller) PushEmpty(c *gin.Context) {
	battles, err := cc.service.PushEmpty(c.Request.Context(), session.Owner(c))
	cc.respond(c, battles, err)
}

func (cc *Controller) Clean(c *gin.Context) {
	battles, err := cc.service.Clean(c.Request.Context(), session.Owner(c))
	cc.respond(c, battles, err)
}

func (cc *Controller) SetBattle(c *gin.Context) {
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request"})
		return
	}
	if err := patch.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	battles, err := cc.service.SetBattle(c.Request.Context(), session.Owner(c), c.Param("id"), patch)
	cc.respond(c, battles, err)
}

func (cc *Controller) respond(c *gin.Context, battles []Fight, err error) {
	if err != nil {
		slog.Error("battle list update failed", "owner", session.Owner(c), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Could not update battles"})
		return
	}
	c.JSON(http.StatusOK, battles)
}
