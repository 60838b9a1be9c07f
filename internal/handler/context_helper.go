package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/middleware"
)

// requesterID returns the authenticated user's id, or "" on public routes.
func requesterID(c *gin.Context) string {
	claims, ok := middleware.Claims(c)
	if !ok {
		return ""
	}
	return claims.UserID
}
