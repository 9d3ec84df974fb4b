package server

import (
	"errors"
	"strings"
	"time"

	"grateful-roasted/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionHeader = "X-Session-Token"
	hostIDKey     = "host_id"
	playerKey     = "player"
)

// hostAuth verifies host bearer tokens: HS256 JWTs whose subject is the host
// id.
type hostAuth struct {
	secret []byte
}

func (a hostAuth) hostID(raw string) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("host auth is not configured")
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// IssueHostToken signs a host token for hostID that expires after ttl.
func IssueHostToken(secret, hostID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("host auth secret is empty")
	}
	if ttl <= 0 {
		return "", errors.New("host token lifetime must be positive")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   hostID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// authenticateHost returns the host id from the request's bearer token.
// Websocket clients may pass it as access_token instead.
func (s *Server) authenticateHost(c *gin.Context) (string, error) {
	raw := bearerToken(c)
	if raw == "" {
		raw = strings.TrimSpace(c.Query("access_token"))
	}
	if raw == "" {
		return "", game.Unauthorized("sign in to host a game")
	}
	hostID, err := s.auth.hostID(raw)
	if err != nil {
		s.log.Debugw("host token rejected", "error", err)
		return "", game.Unauthorized("sign in to host a game")
	}
	return hostID, nil
}

func (s *Server) requireHost(c *gin.Context) {
	hostID, err := s.authenticateHost(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Set(hostIDKey, hostID)
	c.Next()
}

func sessionToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(sessionHeader)); token != "" {
		return token
	}
	return strings.TrimSpace(c.Query("token"))
}

func (s *Server) requirePlayer(c *gin.Context) {
	player, err := s.games.AuthenticatePlayer(c.Request.Context(), c.Param("id"), sessionToken(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Set(playerKey, player)
	c.Next()
}

func currentHost(c *gin.Context) string {
	return c.GetString(hostIDKey)
}

func currentPlayer(c *gin.Context) *game.Player {
	value, ok := c.Get(playerKey)
	if !ok {
		return nil
	}
	player, _ := value.(*game.Player)
	return player
}

// viewerFor resolves who is looking at a game: the host when a valid bearer
// token owns it, otherwise the player behind the session token.
func (s *Server) viewerFor(c *gin.Context, gameID string) (game.Viewer, error) {
	ctx := c.Request.Context()
	if bearerToken(c) != "" || c.Query("access_token") != "" {
		hostID, err := s.authenticateHost(c)
		if err != nil {
			return game.Viewer{}, err
		}
		if _, err := s.games.AuthorizeHost(ctx, hostID, gameID); err != nil {
			return game.Viewer{}, err
		}
		return game.Viewer{Host: true}, nil
	}
	player, err := s.games.AuthenticatePlayer(ctx, gameID, sessionToken(c))
	if err != nil {
		return game.Viewer{}, err
	}
	return game.Viewer{PlayerID: player.ID}, nil
}
