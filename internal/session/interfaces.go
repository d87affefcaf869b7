package session

import (
	"time"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	Create(ctx *gin.Context)
}

type Service interface {
	Issue() (*SessionResponse, error)
	Verify(token string) (string, error)
}

type SessionResponse struct {
	Token     string    `json:"token"`
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
