package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsReadLimit    = 1024
	wsPongWait     = 60 * time.Second
	wsPingInterval = 25 * time.Second
	wsWriteWait    = 5 * time.Second
)

// handleWebsocket streams a game's state to a host or player. The socket is
// read only to notice disconnects; every write comes from the hub.
func (s *Server) handleWebsocket(c *gin.Context) {
	gameID := c.Param("id")
	viewer, err := s.viewerFor(c, gameID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Debugw("ws upgrade failed", "game_id", gameID, "error", err)
		return
	}
	client, err := s.hub.Add(c.Request.Context(), gameID, conn, viewer)
	if err != nil {
		s.log.Warnw("ws subscribe failed", "game_id", gameID, "error", err)
		return
	}
	s.log.Debugw("ws connected", "game_id", gameID, "host", viewer.Host, "player_id", viewer.PlayerID, "remote", c.Request.RemoteAddr)
	defer s.hub.Remove(gameID, client)

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	stop := make(chan struct{})
	defer close(stop)
	go pingLoop(conn, stop)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.log.Debugw("ws disconnected", "game_id", gameID, "error", err)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	}
}

// pingLoop keeps idle sockets alive. WriteControl is safe alongside the
// hub's writes.
func pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
