package server

import (
	"net/http"

	"grateful-roasted/internal/game"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch game.KindOf(err) {
	case game.KindValidation:
		return http.StatusBadRequest
	case game.KindUnauthorized:
		return http.StatusUnauthorized
	case game.KindForbidden:
		return http.StatusForbidden
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindConflict:
		return http.StatusConflict
	case game.KindGameCompleted:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto its status and writes the player-facing message.
// Store failures are logged with their cause.
func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorw("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "game_id", c.Param("id"), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": game.Message(err)})
}

func writeMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
