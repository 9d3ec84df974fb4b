package party

import (
	"context"

	"grateful-roasted/internal/game"
	"grateful-roasted/internal/store"
)

// Submit stores a player's entry for the current round. Status and quota
// are checked again by the store under the same lock as the insert.
func (s *Service) Submit(ctx context.Context, author *game.Player, gameID string, draft game.SubmissionDraft) (*game.Submission, error) {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	players, err := s.store.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	content, err := game.CheckSubmission(g, author, draft, players)
	if err != nil {
		return nil, err
	}
	target := draft.TargetPlayerID
	if target != nil && *target == "" {
		target = nil
	}
	now := s.now()
	submission := &game.Submission{
		ID:             s.newID(),
		GameID:         gameID,
		PlayerID:       author.ID,
		Round:          g.CurrentRound,
		Type:           draft.Type,
		Content:        content,
		TargetPlayerID: target,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	check := func(current *game.Game, existing int) error {
		if _, err := game.CheckSubmission(current, author, draft, players); err != nil {
			return err
		}
		if current.CurrentRound != submission.Round {
			return game.Conflict("round changed to %d", current.CurrentRound)
		}
		return game.CheckQuota(current.Settings, existing)
	}
	if err := s.store.InsertSubmission(ctx, submission, check); err != nil {
		return nil, err
	}
	s.log.Infow("submission received", "game_id", gameID, "player_id", author.ID, "type", submission.Type)
	s.record(ctx, gameID, &author.ID, "submission_created", map[string]any{
		"submission_id": submission.ID,
		"type":          string(submission.Type),
	})
	return submission, nil
}

// Remaining is how many more entries the player may submit this round.
func (s *Service) Remaining(ctx context.Context, player *game.Player, gameID string) (int, error) {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return 0, err
	}
	own, err := s.store.ListSubmissions(ctx, gameID, store.SubmissionFilter{PlayerID: player.ID, Round: g.CurrentRound})
	if err != nil {
		return 0, err
	}
	return game.RemainingQuota(g.Settings, len(own)), nil
}

// Vote records a guess at who wrote a revealed submission. Correctness is
// resolved immediately; points are not awarded.
func (s *Service) Vote(ctx context.Context, voter *game.Player, gameID, submissionID string, guessed *string) (*game.Vote, error) {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	submission, err := s.store.GetSubmission(ctx, gameID, submissionID)
	if err != nil {
		return nil, err
	}
	if guessed != nil && *guessed == "" {
		guessed = nil
	}
	players, err := s.store.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := game.CheckVote(g, voter, submission, guessed, players); err != nil {
		return nil, err
	}
	correct, points := game.ResolveVote(submission, guessed)
	vote := &game.Vote{
		ID:              s.newID(),
		GameID:          gameID,
		SubmissionID:    submissionID,
		VoterPlayerID:   voter.ID,
		GuessedPlayerID: guessed,
		IsCorrect:       &correct,
		PointsAwarded:   points,
		CreatedAt:       s.now(),
	}
	guard := func(current *game.Game) error {
		return game.CheckVote(current, voter, submission, guessed, players)
	}
	if err := s.store.InsertVote(ctx, vote, guard); err != nil {
		return nil, err
	}
	s.log.Infow("vote recorded", "game_id", gameID, "player_id", voter.ID, "submission_id", submissionID)
	s.record(ctx, gameID, &voter.ID, "vote_cast", map[string]any{
		"submission_id": submissionID,
	})
	return vote, nil
}

func (s *Service) React(ctx context.Context, player *game.Player, gameID, submissionID, emoji string) (*game.Reaction, error) {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	submission, err := s.store.GetSubmission(ctx, gameID, submissionID)
	if err != nil {
		return nil, err
	}
	if err := game.CheckReaction(g, submission); err != nil {
		return nil, err
	}
	cleanEmoji, err := game.ValidateEmoji(emoji)
	if err != nil {
		return nil, err
	}
	reaction := &game.Reaction{
		ID:           s.newID(),
		GameID:       gameID,
		SubmissionID: submissionID,
		PlayerID:     player.ID,
		Emoji:        cleanEmoji,
		CreatedAt:    s.now(),
	}
	guard := func(current *game.Game) error {
		return game.CheckReaction(current, submission)
	}
	if err := s.store.InsertReaction(ctx, reaction, guard); err != nil {
		return nil, err
	}
	return reaction, nil
}
