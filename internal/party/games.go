package party

import (
	"context"

	"grateful-roasted/internal/game"
	"grateful-roasted/internal/store"
)

type CreateGameInput struct {
	Name     string
	Mode     game.Mode
	Settings game.Settings
}

// CreateGame stores a new game in setup together with its host player. Code
// collisions are retried with a fresh code.
func (s *Service) CreateGame(ctx context.Context, hostID string, input CreateGameInput) (*game.Game, *game.Player, error) {
	if hostID == "" {
		return nil, nil, game.Unauthorized("sign in to host a game")
	}
	name, err := game.ValidateGameName(input.Name)
	if err != nil {
		return nil, nil, err
	}
	if !input.Mode.Valid() {
		return nil, nil, game.Validation("game_mode must be gratitude, roast or both")
	}
	if err := input.Settings.Validate(); err != nil {
		return nil, nil, err
	}

	now := s.now()
	var lastErr error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			s.log.Errorw("game code generation failed", "host_id", hostID, "error", err)
			return nil, nil, game.StoreFailure("failed to generate game code", err)
		}
		g := &game.Game{
			ID:           s.newID(),
			Code:         code,
			HostID:       hostID,
			Name:         name,
			Status:       game.StatusSetup,
			Mode:         input.Mode,
			CurrentRound: 1,
			MaxRounds:    1,
			Settings:     input.Settings,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		host := &game.Player{
			ID:         s.newID(),
			GameID:     g.ID,
			Name:       HostPlayerName,
			IsHost:     true,
			JoinedAt:   now,
			LastActive: now,
		}
		err = s.store.CreateGame(ctx, g, host)
		if err == nil {
			s.log.Infow("game created", "game_id", g.ID, "code", g.Code, "host_id", hostID, "mode", g.Mode)
			s.record(ctx, g.ID, &host.ID, "game_created", map[string]any{
				"code":      g.Code,
				"game_mode": string(g.Mode),
			})
			return g, host, nil
		}
		if !game.IsKind(err, game.KindConflict) {
			s.log.Errorw("game create failed", "host_id", hostID, "error", err)
			return nil, nil, err
		}
		lastErr = err
	}
	s.log.Errorw("game create failed", "host_id", hostID, "error", lastErr)
	return nil, nil, game.StoreFailure("could not allocate a game code", lastErr)
}

// ListGames returns the host's games, newest first.
func (s *Service) ListGames(ctx context.Context, hostID string, offset, limit int) ([]game.Game, int64, error) {
	if hostID == "" {
		return nil, 0, game.Unauthorized("sign in to see your games")
	}
	return s.store.ListGamesByHost(ctx, hostID, offset, limit)
}

// ResolveCode maps a typed code to its game. Completed games are reported as
// such rather than as missing.
func (s *Service) ResolveCode(ctx context.Context, code string) (*game.Game, error) {
	if !game.ValidCode(code) {
		return nil, game.Validation("game codes are %d letters or digits", game.CodeLength)
	}
	g, err := s.store.GetGameByCode(ctx, game.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	if g.Status == game.StatusCompleted {
		return g, game.Completed("this game has already finished")
	}
	return g, nil
}

// AuthorizeHost loads the game and checks that hostID owns it.
func (s *Service) AuthorizeHost(ctx context.Context, hostID, gameID string) (*game.Game, error) {
	if hostID == "" {
		return nil, game.Unauthorized("sign in to manage this game")
	}
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.HostID != hostID {
		return nil, game.Forbidden("only the host can do that")
	}
	return g, nil
}

func (s *Service) StartCollecting(ctx context.Context, hostID, gameID string) (*game.Game, error) {
	return s.advance(ctx, hostID, gameID, game.StatusCollecting)
}

func (s *Service) StartRevealing(ctx context.Context, hostID, gameID string) (*game.Game, error) {
	return s.advance(ctx, hostID, gameID, game.StatusRevealing)
}

func (s *Service) OpenVoting(ctx context.Context, hostID, gameID string) (*game.Game, error) {
	return s.advance(ctx, hostID, gameID, game.StatusVoting)
}

func (s *Service) Complete(ctx context.Context, hostID, gameID string) (*game.Game, error) {
	return s.advance(ctx, hostID, gameID, game.StatusCompleted)
}

// ExpireVoting completes a game whose voting time limit ran out. It does
// nothing unless the game is still voting.
func (s *Service) ExpireVoting(ctx context.Context, gameID string) (*game.Game, error) {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Status != game.StatusVoting {
		return g, nil
	}
	return s.transition(ctx, g, game.StatusCompleted, "timer")
}

func (s *Service) advance(ctx context.Context, hostID, gameID string, to game.Status) (*game.Game, error) {
	g, err := s.AuthorizeHost(ctx, hostID, gameID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, g, to, "host")
}

func (s *Service) transition(ctx context.Context, g *game.Game, to game.Status, actor string) (*game.Game, error) {
	counts, err := s.countsFor(ctx, g, to)
	if err != nil {
		return nil, err
	}
	if err := game.CheckTransition(g, to, counts); err != nil {
		return nil, err
	}
	from := g.Status
	updated, err := s.store.UpdateGameStatus(ctx, g.ID, game.NewStatusPatch(from, to, s.now()))
	if err != nil {
		s.log.Warnw("status change failed", "game_id", g.ID, "from", from, "to", to, "error", err)
		return nil, err
	}
	s.log.Infow("status changed", "game_id", g.ID, "from", from, "to", to, "by", actor)
	s.record(ctx, g.ID, nil, "status_changed", map[string]any{
		"from": string(from),
		"to":   string(to),
		"by":   actor,
	})
	return updated, nil
}

func (s *Service) countsFor(ctx context.Context, g *game.Game, to game.Status) (game.Counts, error) {
	var counts game.Counts
	switch to {
	case game.StatusCollecting:
		players, err := s.store.ListPlayers(ctx, g.ID)
		if err != nil {
			return counts, err
		}
		counts.Players = len(players)
	case game.StatusRevealing:
		submitted, err := s.store.CountSubmissions(ctx, g.ID, g.CurrentRound)
		if err != nil {
			return counts, err
		}
		counts.Submissions = submitted
	}
	return counts, nil
}

// RevealNext reveals the oldest unrevealed submission of the current round.
func (s *Service) RevealNext(ctx context.Context, hostID, gameID string) (*game.Submission, error) {
	g, err := s.AuthorizeHost(ctx, hostID, gameID)
	if err != nil {
		return nil, err
	}
	if g.Status == game.StatusCompleted {
		return nil, game.Completed("this game has already finished")
	}
	if g.Status != game.StatusRevealing {
		return nil, game.Conflict("submissions are revealed during the revealing phase")
	}
	submissions, err := s.store.ListSubmissions(ctx, g.ID, store.SubmissionFilter{Round: g.CurrentRound})
	if err != nil {
		return nil, err
	}
	next, ok := game.NextToReveal(g, submissions)
	if !ok {
		return nil, game.ErrNothingToShow
	}
	revealed, err := s.store.MarkRevealed(ctx, g.ID, next.ID, s.now())
	if err != nil {
		return nil, err
	}
	s.log.Infow("submission revealed", "game_id", g.ID, "submission_id", revealed.ID)
	s.record(ctx, g.ID, nil, "submission_revealed", map[string]any{
		"submission_id": revealed.ID,
	})
	return revealed, nil
}

// Progress is the host's collection meter for the current round.
func (s *Service) Progress(ctx context.Context, hostID, gameID string) (game.Progress, error) {
	if _, err := s.AuthorizeHost(ctx, hostID, gameID); err != nil {
		return game.Progress{}, err
	}
	snap, err := s.store.Snapshot(ctx, gameID)
	if err != nil {
		return game.Progress{}, err
	}
	return game.ComputeProgress(&snap.Game, snap.Players, snap.Submissions), nil
}

// View reads the whole game and tailors it to viewer.
func (s *Service) View(ctx context.Context, gameID string, viewer game.Viewer) (*game.View, error) {
	snap, err := s.store.Snapshot(ctx, gameID)
	if err != nil {
		return nil, err
	}
	view := snap.ViewFor(viewer)
	return &view, nil
}
