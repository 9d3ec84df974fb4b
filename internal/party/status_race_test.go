package party

import (
	"context"
	"errors"
	"testing"

	"grateful-roasted/internal/game"
	"grateful-roasted/internal/store"
)

// statusFlipStore moves the game to another status just before an insert
// reaches the memory store, the way a host click landing between the
// service's checks and the write would.
type statusFlipStore struct {
	*store.Memory

	t    *testing.T
	flip *game.StatusPatch
}

func (s *statusFlipStore) flipFirst(ctx context.Context, gameID string) {
	if s.flip == nil {
		return
	}
	patch := *s.flip
	s.flip = nil
	if _, err := s.Memory.UpdateGameStatus(ctx, gameID, patch); err != nil {
		s.t.Errorf("flip %s -> %s: %v", patch.From, patch.To, err)
	}
}

func (s *statusFlipStore) InsertPlayer(ctx context.Context, p *game.Player, guard store.Guard) error {
	s.flipFirst(ctx, p.GameID)
	return s.Memory.InsertPlayer(ctx, p, guard)
}

func (s *statusFlipStore) InsertSubmission(ctx context.Context, sub *game.Submission, check func(g *game.Game, existing int) error) error {
	s.flipFirst(ctx, sub.GameID)
	return s.Memory.InsertSubmission(ctx, sub, check)
}

func (s *statusFlipStore) InsertVote(ctx context.Context, v *game.Vote, guard store.Guard) error {
	s.flipFirst(ctx, v.GameID)
	return s.Memory.InsertVote(ctx, v, guard)
}

func withStatusFlip(t *testing.T, svc *Service, mem *store.Memory, from, to game.Status) {
	t.Helper()
	patch := game.NewStatusPatch(from, to, svc.now())
	svc.store = &statusFlipStore{Memory: mem, t: t, flip: &patch}
}

func TestSubmitRejectedWhenCollectingEndsMidRequest(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	g, alice, _, _ := playToStatus(t, svc, game.Settings{}, game.StatusCollecting)
	withStatusFlip(t, svc, mem, game.StatusCollecting, game.StatusRevealing)

	_, err := svc.Submit(ctx, alice.Player, g.ID, game.SubmissionDraft{Type: game.SubmissionGratitude, Content: "pie"})
	if !game.IsKind(err, game.KindConflict) {
		t.Fatalf("expected conflict once revealing started, got %v", err)
	}
	count, _ := mem.CountSubmissions(ctx, g.ID, g.CurrentRound)
	if count != 0 {
		t.Fatalf("expected no submission stored, got %d", count)
	}
	current, _ := mem.GetGame(ctx, g.ID)
	if current.Status != game.StatusRevealing {
		t.Fatalf("expected game revealing, got %s", current.Status)
	}
}

func TestJoinRejectedWhenGameStartsMidRequest(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	g := createGame(t, svc, game.Settings{})
	join(t, svc, g.Code, "Alice")
	withStatusFlip(t, svc, mem, game.StatusSetup, game.StatusCollecting)

	if _, err := svc.Join(ctx, g.Code, "Zed"); !game.IsKind(err, game.KindConflict) {
		t.Fatalf("expected conflict once collecting started, got %v", err)
	}
	players, _ := mem.ListPlayers(ctx, g.ID)
	if len(players) != 2 {
		t.Fatalf("expected late player not stored, got %d players", len(players))
	}
}

func TestVoteRejectedWhenGameCompletesMidRequest(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	g, alice, bob, submission := playToStatus(t, svc, game.Settings{}, game.StatusRevealing)
	if _, err := svc.RevealNext(ctx, testHost, g.ID); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := svc.OpenVoting(ctx, testHost, g.ID); err != nil {
		t.Fatalf("open voting: %v", err)
	}
	withStatusFlip(t, svc, mem, game.StatusVoting, game.StatusCompleted)

	guess := alice.Player.ID
	if _, err := svc.Vote(ctx, bob.Player, g.ID, submission.ID, &guess); !game.IsKind(err, game.KindGameCompleted) {
		t.Fatalf("expected game completed, got %v", err)
	}
	votes, _ := mem.ListVotes(ctx, g.ID)
	if len(votes) != 0 {
		t.Fatalf("expected no vote stored, got %d", len(votes))
	}
}

func TestCreateGameSurfacesCodeFailure(t *testing.T) {
	svc, mem := newTestService(t)
	svc.newCode = func() (string, error) {
		return "", errors.New("entropy unavailable")
	}
	_, _, err := svc.CreateGame(context.Background(), testHost, CreateGameInput{Name: "Party", Mode: game.ModeBoth})
	if !game.IsKind(err, game.KindStore) {
		t.Fatalf("expected store failure, got %v", err)
	}
	games, total, _ := mem.ListGamesByHost(context.Background(), testHost, 0, 10)
	if total != 0 || len(games) != 0 {
		t.Fatalf("expected no game stored, got %d", total)
	}
}
