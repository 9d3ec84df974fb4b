package store

import (
	"context"
	"time"

	"grateful-roasted/internal/game"
)

type Table string

const (
	TableGames       Table = "games"
	TablePlayers     Table = "players"
	TableSubmissions Table = "submissions"
	TableVotes       Table = "votes"
	TableReactions   Table = "reactions"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
)

// Change is published after a write to any record scoped to a game has been
// committed. Version is the game's version after the write.
type Change struct {
	Table   Table
	Op      Op
	GameID  string
	Version int64
}

// SubmissionFilter narrows ListSubmissions. Zero values match everything.
type SubmissionFilter struct {
	PlayerID string
	Round    int
}

// Guard re-checks a write against the game as it is at write time, under
// the same lock or transaction as the write. A non-nil error aborts it.
type Guard func(g *game.Game) error

// Store is the persistence boundary the game logic talks to. Every write to a
// game's records bumps that game's version and publishes a Change once it is
// committed.
type Store interface {
	// CreateGame stores the game and its host player together.
	CreateGame(ctx context.Context, g *game.Game, host *game.Player) error
	GetGame(ctx context.Context, id string) (*game.Game, error)
	GetGameByCode(ctx context.Context, code string) (*game.Game, error)
	ListGamesByHost(ctx context.Context, hostID string, offset, limit int) ([]game.Game, int64, error)
	// UpdateGameStatus applies the patch only while the game is still in
	// patch.From.
	UpdateGameStatus(ctx context.Context, id string, patch game.StatusPatch) (*game.Game, error)

	// InsertPlayer, InsertVote and InsertReaction run guard, when given,
	// against the locked game before inserting.
	InsertPlayer(ctx context.Context, p *game.Player, guard Guard) error
	GetPlayer(ctx context.Context, gameID, playerID string) (*game.Player, error)
	GetPlayerByToken(ctx context.Context, gameID, token string) (*game.Player, error)
	ListPlayers(ctx context.Context, gameID string) ([]game.Player, error)
	TouchPlayer(ctx context.Context, playerID string, at time.Time) error

	// InsertSubmission counts the author's submissions for the round and
	// passes the locked game and the count to check before inserting,
	// atomically.
	InsertSubmission(ctx context.Context, s *game.Submission, check func(g *game.Game, existing int) error) error
	GetSubmission(ctx context.Context, gameID, id string) (*game.Submission, error)
	ListSubmissions(ctx context.Context, gameID string, filter SubmissionFilter) ([]game.Submission, error)
	CountSubmissions(ctx context.Context, gameID string, round int) (int, error)
	// MarkRevealed flips is_revealed only if it is still false.
	MarkRevealed(ctx context.Context, gameID, id string, at time.Time) (*game.Submission, error)

	InsertVote(ctx context.Context, v *game.Vote, guard Guard) error
	ListVotes(ctx context.Context, gameID string) ([]game.Vote, error)
	InsertReaction(ctx context.Context, r *game.Reaction, guard Guard) error
	ListReactions(ctx context.Context, gameID string) ([]game.Reaction, error)

	AppendEvent(ctx context.Context, e *game.Event) error
	ListEvents(ctx context.Context, gameID string) ([]game.Event, error)

	// Snapshot reads the game first and its records after, so the records
	// are never older than the returned version.
	Snapshot(ctx context.Context, gameID string) (*game.Snapshot, error)

	Subscriber
}

// Subscriber is the change feed half of Store.
type Subscriber interface {
	// Subscribe registers fn for changes to gameID. fn runs on the writer's
	// goroutine and must not block.
	Subscribe(gameID string, fn func(Change)) (cancel func())
}
