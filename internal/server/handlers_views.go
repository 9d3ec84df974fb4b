package server

import (
	"net/http"

	"grateful-roasted/internal/game"
	"grateful-roasted/internal/web"

	"github.com/gin-gonic/gin"
)

// handleJoinView serves the page a shared join link opens. Codes that cannot
// be joined still render the page, with the reason and a matching status.
func (s *Server) handleJoinView(c *gin.Context) {
	code := game.NormalizeCode(c.Param("code"))
	page := web.JoinPage{Code: code}
	status := http.StatusOK

	g, err := s.games.ResolveCode(c.Request.Context(), code)
	switch {
	case err != nil:
		status = statusFor(err)
		page.Error = game.Message(err)
		if status >= http.StatusInternalServerError {
			s.log.Errorw("join view failed", "code", code, "error", err)
		}
	default:
		page.GameName = g.Name
		page.Mode = string(g.Mode)
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := web.Join(page).Render(c.Request.Context(), c.Writer); err != nil {
		s.log.Warnw("render join view", "code", code, "error", err)
	}
}
