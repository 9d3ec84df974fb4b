package server

import (
	"context"
	"time"

	"grateful-roasted/internal/game"
)

const timerTimeout = 10 * time.Second

// scheduleVotingTimer completes the game once its voting time limit runs
// out. Games without a limit get no timer.
func (s *Server) scheduleVotingTimer(g *game.Game) {
	if g == nil || g.Status != game.StatusVoting {
		return
	}
	limit := g.Settings.Effective().VotingTimeLimit
	if limit <= 0 {
		s.cancelVotingTimer(g.ID)
		return
	}
	gameID := g.ID
	s.timersMu.Lock()
	if existing, ok := s.timers[gameID]; ok {
		existing.Stop()
	}
	s.timers[gameID] = time.AfterFunc(time.Duration(limit)*time.Second, func() {
		s.expireVoting(gameID)
	})
	s.timersMu.Unlock()
}

func (s *Server) cancelVotingTimer(gameID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[gameID]; ok {
		timer.Stop()
		delete(s.timers, gameID)
	}
}

func (s *Server) expireVoting(gameID string) {
	s.timersMu.Lock()
	delete(s.timers, gameID)
	s.timersMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timerTimeout)
	defer cancel()
	g, err := s.games.ExpireVoting(ctx, gameID)
	if err != nil {
		s.log.Warnw("voting timer failed", "game_id", gameID, "error", err)
		return
	}
	s.log.Infow("voting time limit reached", "game_id", gameID, "status", g.Status)
}
