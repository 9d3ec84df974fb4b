package server

import (
	"net/http"
	"strings"

	"grateful-roasted/internal/game"
	"grateful-roasted/internal/party"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createGameRequest
	if !bindJSON(c, &req, createGameMessages, "invalid game") {
		return
	}
	input := party.CreateGameInput{
		Name: req.Name,
		Mode: game.Mode(req.GameMode),
	}
	if req.Settings != nil {
		input.Settings = *req.Settings
	}
	g, host, err := s.games.CreateGame(c.Request.Context(), currentHost(c), input)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"game":        g,
		"host_player": host,
		"join_url":    s.joinURL(g.Code),
	})
}

func (s *Server) joinURL(code string) string {
	return strings.TrimSuffix(s.cfg.PublicURL, "/") + "/join/" + code
}

func (s *Server) handleListGames(c *gin.Context) {
	page, perPage := parsePagination(c, gamesPerPage, gamesMaxPerPage)
	games, total, err := s.games.ListGames(c.Request.Context(), currentHost(c), pageOffset(page, perPage), perPage)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"games":    games,
		"page":     page,
		"per_page": perPage,
		"total":    total,
	})
}

func (s *Server) handleGetGame(c *gin.Context) {
	gameID := c.Param("id")
	viewer, err := s.viewerFor(c, gameID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	view, err := s.games.View(c.Request.Context(), gameID, viewer)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleResolveCode(c *gin.Context) {
	var uri codeURI
	if !bindURI(c, &uri, codeMessages) {
		return
	}
	g, err := s.games.ResolveCode(c.Request.Context(), uri.Code)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"game_id":   g.ID,
		"name":      g.Name,
		"status":    g.Status,
		"game_mode": g.Mode,
	})
}

func (s *Server) handleJoin(c *gin.Context) {
	var uri codeURI
	if !bindURI(c, &uri, codeMessages) {
		return
	}
	var req joinRequest
	if !bindJSON(c, &req, joinMessages, "invalid join request") {
		return
	}
	result, err := s.games.Join(c.Request.Context(), uri.Code, req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"player":        result.Player,
		"game_id":       result.Game.ID,
		"session_token": result.Token,
	})
}

func (s *Server) handleStartCollecting(c *gin.Context) {
	g, err := s.games.StartCollecting(c.Request.Context(), currentHost(c), c.Param("id"))
	s.writeGame(c, g, err)
}

func (s *Server) handleStartRevealing(c *gin.Context) {
	g, err := s.games.StartRevealing(c.Request.Context(), currentHost(c), c.Param("id"))
	s.writeGame(c, g, err)
}

func (s *Server) handleOpenVoting(c *gin.Context) {
	g, err := s.games.OpenVoting(c.Request.Context(), currentHost(c), c.Param("id"))
	if err == nil {
		s.scheduleVotingTimer(g)
	}
	s.writeGame(c, g, err)
}

func (s *Server) handleComplete(c *gin.Context) {
	g, err := s.games.Complete(c.Request.Context(), currentHost(c), c.Param("id"))
	if err == nil {
		s.cancelVotingTimer(g.ID)
	}
	s.writeGame(c, g, err)
}

func (s *Server) writeGame(c *gin.Context, g *game.Game, err error) {
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) handleRevealNext(c *gin.Context) {
	submission, err := s.games.RevealNext(c.Request.Context(), currentHost(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

func (s *Server) handleProgress(c *gin.Context) {
	progress, err := s.games.Progress(c.Request.Context(), currentHost(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (s *Server) handleEvents(c *gin.Context) {
	events, err := s.games.Events(c.Request.Context(), currentHost(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req submissionRequest
	if !bindJSON(c, &req, submissionMessages, "invalid submission") {
		return
	}
	submission, err := s.games.Submit(c.Request.Context(), currentPlayer(c), c.Param("id"), game.SubmissionDraft{
		Type:           game.SubmissionType(req.Type),
		Content:        req.Content,
		TargetPlayerID: req.TargetPlayerID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

func (s *Server) handleQuota(c *gin.Context) {
	remaining, err := s.games.Remaining(c.Request.Context(), currentPlayer(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"remaining": remaining})
}

func (s *Server) handleVote(c *gin.Context) {
	var req voteRequest
	if !bindJSON(c, &req, voteMessages, "invalid vote") {
		return
	}
	vote, err := s.games.Vote(c.Request.Context(), currentPlayer(c), c.Param("id"), req.SubmissionID, req.GuessedPlayerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	// Correctness would give the author away before the game ends.
	vote.IsCorrect = nil
	c.JSON(http.StatusCreated, vote)
}

func (s *Server) handleReact(c *gin.Context) {
	var req reactionRequest
	if !bindJSON(c, &req, reactionMessages, "invalid reaction") {
		return
	}
	reaction, err := s.games.React(c.Request.Context(), currentPlayer(c), c.Param("id"), req.SubmissionID, req.Emoji)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reaction)
}
