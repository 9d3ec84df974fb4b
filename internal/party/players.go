package party

import (
	"context"

	"grateful-roasted/internal/game"
)

type JoinResult struct {
	Game   *game.Game
	Player *game.Player
	Token  string
}

// Join adds a named player to the game behind code and mints the session
// token the player presents from then on.
func (s *Service) Join(ctx context.Context, code, name string) (*JoinResult, error) {
	g, err := s.ResolveCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := game.CheckJoin(g); err != nil {
		return nil, err
	}
	cleanName, err := game.ValidateName(name)
	if err != nil {
		return nil, err
	}
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	player := &game.Player{
		ID:           s.newID(),
		GameID:       g.ID,
		Name:         cleanName,
		SessionToken: &token,
		JoinedAt:     now,
		LastActive:   now,
	}
	// The status is checked again under the store's lock; a host may have
	// started collecting since ResolveCode.
	if err := s.store.InsertPlayer(ctx, player, game.CheckJoin); err != nil {
		if !game.IsKind(err, game.KindConflict) {
			s.log.Errorw("player join failed", "game_id", g.ID, "error", err)
		}
		return nil, err
	}
	s.log.Infow("player joined", "game_id", g.ID, "player_id", player.ID, "name", player.Name)
	s.record(ctx, g.ID, &player.ID, "player_joined", map[string]any{
		"name": player.Name,
	})
	return &JoinResult{Game: g, Player: player, Token: token}, nil
}

// AuthenticatePlayer resolves a session token to its player and marks the
// player active.
func (s *Service) AuthenticatePlayer(ctx context.Context, gameID, token string) (*game.Player, error) {
	if token == "" {
		return nil, game.Unauthorized("join the game first")
	}
	player, err := s.store.GetPlayerByToken(ctx, gameID, token)
	if err != nil {
		if game.IsKind(err, game.KindNotFound) {
			return nil, game.Unauthorized("session not recognized")
		}
		return nil, err
	}
	now := s.now()
	if err := s.store.TouchPlayer(ctx, player.ID, now); err != nil {
		s.log.Warnw("player touch failed", "game_id", gameID, "player_id", player.ID, "error", err)
	} else {
		player.LastActive = now
	}
	return player, nil
}
