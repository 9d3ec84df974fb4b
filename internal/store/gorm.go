package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"grateful-roasted/internal/db"
	"grateful-roasted/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm persists games through gorm. Changes are published once the
// transaction that made them has committed.
type Gorm struct {
	*feed

	db *gorm.DB
}

func NewGorm(conn *gorm.DB) *Gorm {
	return &Gorm{feed: newFeed(), db: conn}
}

func (s *Gorm) CreateGame(ctx context.Context, g *game.Game, host *game.Player) error {
	g.Version = 1
	record, err := gameRecord(g)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return game.Conflict("game code already in use")
			}
			return translate(err, "game")
		}
		if host == nil {
			return nil
		}
		hostRecord := playerRecord(host)
		return translate(tx.Create(&hostRecord).Error, "host player")
	})
	if err != nil {
		g.Version = 0
		return err
	}
	s.publish(Change{Table: TableGames, Op: OpInsert, GameID: g.ID, Version: g.Version})
	return nil
}

func (s *Gorm) GetGame(ctx context.Context, id string) (*game.Game, error) {
	return s.findGame(s.db.WithContext(ctx), "id = ?", id)
}

func (s *Gorm) GetGameByCode(ctx context.Context, code string) (*game.Game, error) {
	return s.findGame(s.db.WithContext(ctx), "code = ?", code)
}

func (s *Gorm) findGame(conn *gorm.DB, query string, arg any) (*game.Game, error) {
	var record db.Game
	if err := conn.Where(query, arg).First(&record).Error; err != nil {
		return nil, translate(err, "game")
	}
	found, err := gameFromRecord(record)
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (s *Gorm) ListGamesByHost(ctx context.Context, hostID string, offset, limit int) ([]game.Game, int64, error) {
	conn := s.db.WithContext(ctx).Model(&db.Game{}).Where("host_id = ?", hostID)
	var total int64
	if err := conn.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "games")
	}
	var records []db.Game
	query := s.db.WithContext(ctx).Where("host_id = ?", hostID).Order("created_at desc, id desc").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, translate(err, "games")
	}
	list := make([]game.Game, 0, len(records))
	for _, record := range records {
		converted, err := gameFromRecord(record)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, converted)
	}
	return list, total, nil
}

func (s *Gorm) UpdateGameStatus(ctx context.Context, id string, patch game.StatusPatch) (*game.Game, error) {
	var updated *game.Game
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		values := map[string]any{
			"status":     string(patch.To),
			"updated_at": patch.At,
			"version":    gorm.Expr("version + 1"),
		}
		if patch.StartedAt != nil {
			values["started_at"] = *patch.StartedAt
		}
		if patch.CompletedAt != nil {
			values["completed_at"] = *patch.CompletedAt
		}
		result := tx.Model(&db.Game{}).
			Where("id = ? AND status = ?", id, string(patch.From)).
			Updates(values)
		if result.Error != nil {
			return translate(result.Error, "game")
		}
		current, err := s.findGame(tx, "id = ?", id)
		if err != nil {
			return err
		}
		if result.RowsAffected == 0 {
			return game.Conflict("game status changed to %s", current.Status)
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(Change{Table: TableGames, Op: OpUpdate, GameID: id, Version: updated.Version})
	return updated, nil
}

// bumpVersion advances the game's version inside tx and returns the new value.
func bumpVersion(tx *gorm.DB, gameID string, at time.Time) (int64, error) {
	values := map[string]any{"version": gorm.Expr("version + 1")}
	if !at.IsZero() {
		values["updated_at"] = at
	}
	result := tx.Model(&db.Game{}).Where("id = ?", gameID).Updates(values)
	if result.Error != nil {
		return 0, translate(result.Error, "game")
	}
	if result.RowsAffected == 0 {
		return 0, game.NotFound("game not found")
	}
	var version int64
	if err := tx.Model(&db.Game{}).Select("version").Where("id = ?", gameID).Row().Scan(&version); err != nil {
		return 0, translate(err, "game")
	}
	return version, nil
}

// lockGame reads the game row FOR UPDATE, so a status transition cannot
// commit between guard and insert.
func (s *Gorm) lockGame(tx *gorm.DB, gameID string, guard Guard) (*game.Game, error) {
	var record db.Game
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", gameID).
		First(&record).Error; err != nil {
		return nil, translate(err, "game")
	}
	current, err := gameFromRecord(record)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		if err := guard(&current); err != nil {
			return nil, err
		}
	}
	return &current, nil
}

func (s *Gorm) InsertPlayer(ctx context.Context, p *game.Player, guard Guard) error {
	record := playerRecord(p)
	var version int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockGame(tx, p.GameID, guard); err != nil {
			return err
		}
		var err error
		if version, err = bumpVersion(tx, p.GameID, p.JoinedAt); err != nil {
			return err
		}
		if err := tx.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return game.ErrNameTaken
			}
			return translate(err, "player")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(Change{Table: TablePlayers, Op: OpInsert, GameID: p.GameID, Version: version})
	return nil
}

func (s *Gorm) GetPlayer(ctx context.Context, gameID, playerID string) (*game.Player, error) {
	return s.findPlayer(ctx, "game_id = ? AND id = ?", gameID, playerID)
}

func (s *Gorm) GetPlayerByToken(ctx context.Context, gameID, token string) (*game.Player, error) {
	return s.findPlayer(ctx, "game_id = ? AND session_token = ?", gameID, token)
}

func (s *Gorm) findPlayer(ctx context.Context, query string, args ...any) (*game.Player, error) {
	var record db.Player
	if err := s.db.WithContext(ctx).Where(query, args...).First(&record).Error; err != nil {
		return nil, translate(err, "player")
	}
	found := playerFromRecord(record)
	return &found, nil
}

func (s *Gorm) ListPlayers(ctx context.Context, gameID string) ([]game.Player, error) {
	return listPlayers(s.db.WithContext(ctx), gameID)
}

func listPlayers(conn *gorm.DB, gameID string) ([]game.Player, error) {
	var records []db.Player
	if err := conn.Where("game_id = ?", gameID).Order("joined_at asc, id asc").Find(&records).Error; err != nil {
		return nil, translate(err, "players")
	}
	list := make([]game.Player, 0, len(records))
	for _, record := range records {
		list = append(list, playerFromRecord(record))
	}
	return list, nil
}

func (s *Gorm) TouchPlayer(ctx context.Context, playerID string, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&db.Player{}).Where("id = ?", playerID).Update("last_active", at)
	if result.Error != nil {
		return translate(result.Error, "player")
	}
	if result.RowsAffected == 0 {
		return game.NotFound("player not found")
	}
	return nil
}

func (s *Gorm) InsertSubmission(ctx context.Context, sub *game.Submission, check func(g *game.Game, existing int) error) error {
	record := submissionRecord(sub)
	var version int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.lockGame(tx, sub.GameID, nil)
		if err != nil {
			return err
		}
		// The game row lock serializes the count below; the author must still
		// belong to the game.
		var author db.Player
		if err := tx.Where("game_id = ? AND id = ?", sub.GameID, sub.PlayerID).
			First(&author).Error; err != nil {
			return translate(err, "player")
		}
		if check != nil {
			var existing int64
			if err := tx.Model(&db.Submission{}).
				Where("game_id = ? AND player_id = ? AND round = ?", sub.GameID, sub.PlayerID, sub.Round).
				Count(&existing).Error; err != nil {
				return translate(err, "submissions")
			}
			if err := check(current, int(existing)); err != nil {
				return err
			}
		}
		if err := tx.Create(&record).Error; err != nil {
			return translate(err, "submission")
		}
		version, err = bumpVersion(tx, sub.GameID, sub.CreatedAt)
		return err
	})
	if err != nil {
		return err
	}
	s.publish(Change{Table: TableSubmissions, Op: OpInsert, GameID: sub.GameID, Version: version})
	return nil
}

func (s *Gorm) GetSubmission(ctx context.Context, gameID, id string) (*game.Submission, error) {
	return findSubmission(s.db.WithContext(ctx), gameID, id)
}

func findSubmission(conn *gorm.DB, gameID, id string) (*game.Submission, error) {
	var record db.Submission
	if err := conn.Where("game_id = ? AND id = ?", gameID, id).First(&record).Error; err != nil {
		return nil, translate(err, "submission")
	}
	found := submissionFromRecord(record)
	return &found, nil
}

func (s *Gorm) ListSubmissions(ctx context.Context, gameID string, filter SubmissionFilter) ([]game.Submission, error) {
	return listSubmissions(s.db.WithContext(ctx), gameID, filter)
}

func listSubmissions(conn *gorm.DB, gameID string, filter SubmissionFilter) ([]game.Submission, error) {
	query := conn.Where("game_id = ?", gameID)
	if filter.PlayerID != "" {
		query = query.Where("player_id = ?", filter.PlayerID)
	}
	if filter.Round != 0 {
		query = query.Where("round = ?", filter.Round)
	}
	var records []db.Submission
	if err := query.Order("created_at asc, id asc").Find(&records).Error; err != nil {
		return nil, translate(err, "submissions")
	}
	list := make([]game.Submission, 0, len(records))
	for _, record := range records {
		list = append(list, submissionFromRecord(record))
	}
	return list, nil
}

func (s *Gorm) CountSubmissions(ctx context.Context, gameID string, round int) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&db.Submission{}).
		Where("game_id = ? AND round = ?", gameID, round).
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "submissions")
	}
	return int(count), nil
}

func (s *Gorm) MarkRevealed(ctx context.Context, gameID, id string, at time.Time) (*game.Submission, error) {
	var revealed *game.Submission
	var version int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.Submission{}).
			Where("game_id = ? AND id = ? AND is_revealed = ?", gameID, id, false).
			Updates(map[string]any{"is_revealed": true, "revealed_at": at, "updated_at": at})
		if result.Error != nil {
			return translate(result.Error, "submission")
		}
		current, err := findSubmission(tx, gameID, id)
		if err != nil {
			return err
		}
		if result.RowsAffected == 0 {
			return game.Conflict("submission already revealed")
		}
		revealed = current
		version, err = bumpVersion(tx, gameID, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(Change{Table: TableSubmissions, Op: OpUpdate, GameID: gameID, Version: version})
	return revealed, nil
}

func (s *Gorm) InsertVote(ctx context.Context, v *game.Vote, guard Guard) error {
	record := voteRecord(v)
	var version int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockGame(tx, v.GameID, guard); err != nil {
			return err
		}
		if err := tx.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return game.ErrAlreadyVoted
			}
			return translate(err, "vote")
		}
		var err error
		version, err = bumpVersion(tx, v.GameID, v.CreatedAt)
		return err
	})
	if err != nil {
		return err
	}
	s.publish(Change{Table: TableVotes, Op: OpInsert, GameID: v.GameID, Version: version})
	return nil
}

func (s *Gorm) ListVotes(ctx context.Context, gameID string) ([]game.Vote, error) {
	return listVotes(s.db.WithContext(ctx), gameID)
}

func listVotes(conn *gorm.DB, gameID string) ([]game.Vote, error) {
	var records []db.Vote
	if err := conn.Where("game_id = ?", gameID).Order("created_at asc, id asc").Find(&records).Error; err != nil {
		return nil, translate(err, "votes")
	}
	list := make([]game.Vote, 0, len(records))
	for _, record := range records {
		list = append(list, voteFromRecord(record))
	}
	return list, nil
}

func (s *Gorm) InsertReaction(ctx context.Context, r *game.Reaction, guard Guard) error {
	record := db.Reaction{
		ID:           r.ID,
		GameID:       r.GameID,
		SubmissionID: r.SubmissionID,
		PlayerID:     r.PlayerID,
		Emoji:        r.Emoji,
		CreatedAt:    r.CreatedAt,
	}
	var version int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockGame(tx, r.GameID, guard); err != nil {
			return err
		}
		if err := tx.Create(&record).Error; err != nil {
			return translate(err, "reaction")
		}
		var err error
		version, err = bumpVersion(tx, r.GameID, r.CreatedAt)
		return err
	})
	if err != nil {
		return err
	}
	s.publish(Change{Table: TableReactions, Op: OpInsert, GameID: r.GameID, Version: version})
	return nil
}

func (s *Gorm) ListReactions(ctx context.Context, gameID string) ([]game.Reaction, error) {
	return listReactions(s.db.WithContext(ctx), gameID)
}

func listReactions(conn *gorm.DB, gameID string) ([]game.Reaction, error) {
	var records []db.Reaction
	if err := conn.Where("game_id = ?", gameID).Order("created_at asc, id asc").Find(&records).Error; err != nil {
		return nil, translate(err, "reactions")
	}
	list := make([]game.Reaction, 0, len(records))
	for _, record := range records {
		list = append(list, game.Reaction{
			ID:           record.ID,
			GameID:       record.GameID,
			SubmissionID: record.SubmissionID,
			PlayerID:     record.PlayerID,
			Emoji:        record.Emoji,
			CreatedAt:    record.CreatedAt,
		})
	}
	return list, nil
}

func (s *Gorm) AppendEvent(ctx context.Context, e *game.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return game.StoreFailure("failed to encode event payload", err)
	}
	if e.Payload == nil {
		payload = []byte("{}")
	}
	record := db.Event{
		GameID:    e.GameID,
		PlayerID:  e.PlayerID,
		Type:      e.Type,
		Payload:   datatypes.JSON(payload),
		CreatedAt: e.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return translate(err, "event")
	}
	e.ID = record.ID
	return nil
}

func (s *Gorm) ListEvents(ctx context.Context, gameID string) ([]game.Event, error) {
	var records []db.Event
	if err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Order("id asc").Find(&records).Error; err != nil {
		return nil, translate(err, "events")
	}
	list := make([]game.Event, 0, len(records))
	for _, record := range records {
		event := game.Event{
			ID:        record.ID,
			GameID:    record.GameID,
			PlayerID:  record.PlayerID,
			Type:      record.Type,
			CreatedAt: record.CreatedAt,
		}
		if len(record.Payload) > 0 {
			if err := json.Unmarshal(record.Payload, &event.Payload); err != nil {
				return nil, game.StoreFailure("failed to decode event payload", err)
			}
		}
		list = append(list, event)
	}
	return list, nil
}

func (s *Gorm) Snapshot(ctx context.Context, gameID string) (*game.Snapshot, error) {
	conn := s.db.WithContext(ctx)
	g, err := s.findGame(conn, "id = ?", gameID)
	if err != nil {
		return nil, err
	}
	snap := &game.Snapshot{Game: *g}
	if snap.Players, err = listPlayers(conn, gameID); err != nil {
		return nil, err
	}
	if snap.Submissions, err = listSubmissions(conn, gameID, SubmissionFilter{}); err != nil {
		return nil, err
	}
	if snap.Votes, err = listVotes(conn, gameID); err != nil {
		return nil, err
	}
	if snap.Reactions, err = listReactions(conn, gameID); err != nil {
		return nil, err
	}
	return snap, nil
}

// translate maps driver errors onto the game error kinds. Errors that already
// carry a kind pass through.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var gameErr *game.Error
	switch {
	case errors.As(err, &gameErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return game.NotFound("%s not found", what)
	case isUniqueViolation(err):
		return game.Conflict("%s already exists", what)
	}
	return game.StoreFailure(what+" query failed", err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func gameRecord(g *game.Game) (db.Game, error) {
	settings, err := json.Marshal(g.Settings)
	if err != nil {
		return db.Game{}, game.StoreFailure("failed to encode settings", err)
	}
	return db.Game{
		ID:           g.ID,
		Code:         g.Code,
		HostID:       g.HostID,
		Name:         g.Name,
		Status:       string(g.Status),
		GameMode:     string(g.Mode),
		CurrentRound: g.CurrentRound,
		MaxRounds:    g.MaxRounds,
		Settings:     datatypes.JSON(settings),
		Version:      g.Version,
		StartedAt:    g.StartedAt,
		CompletedAt:  g.CompletedAt,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}, nil
}

func gameFromRecord(record db.Game) (game.Game, error) {
	g := game.Game{
		ID:           record.ID,
		Code:         record.Code,
		HostID:       record.HostID,
		Name:         record.Name,
		Status:       game.Status(record.Status),
		Mode:         game.Mode(record.GameMode),
		CurrentRound: record.CurrentRound,
		MaxRounds:    record.MaxRounds,
		Version:      record.Version,
		StartedAt:    record.StartedAt,
		CompletedAt:  record.CompletedAt,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
	if len(record.Settings) > 0 {
		if err := json.Unmarshal(record.Settings, &g.Settings); err != nil {
			return game.Game{}, game.StoreFailure("failed to decode settings", err)
		}
	}
	return g, nil
}

func playerRecord(p *game.Player) db.Player {
	return db.Player{
		ID:           p.ID,
		GameID:       p.GameID,
		Name:         p.Name,
		IsHost:       p.IsHost,
		SessionToken: p.SessionToken,
		Score:        p.Score,
		JoinedAt:     p.JoinedAt,
		LastActive:   p.LastActive,
	}
}

func playerFromRecord(record db.Player) game.Player {
	return game.Player{
		ID:           record.ID,
		GameID:       record.GameID,
		Name:         record.Name,
		IsHost:       record.IsHost,
		SessionToken: record.SessionToken,
		Score:        record.Score,
		JoinedAt:     record.JoinedAt,
		LastActive:   record.LastActive,
	}
}

func submissionRecord(sub *game.Submission) db.Submission {
	return db.Submission{
		ID:             sub.ID,
		GameID:         sub.GameID,
		PlayerID:       sub.PlayerID,
		Round:          sub.Round,
		Type:           string(sub.Type),
		Content:        sub.Content,
		TargetPlayerID: sub.TargetPlayerID,
		IsRevealed:     sub.IsRevealed,
		RevealedAt:     sub.RevealedAt,
		CreatedAt:      sub.CreatedAt,
		UpdatedAt:      sub.UpdatedAt,
	}
}

func submissionFromRecord(record db.Submission) game.Submission {
	return game.Submission{
		ID:             record.ID,
		GameID:         record.GameID,
		PlayerID:       record.PlayerID,
		Round:          record.Round,
		Type:           game.SubmissionType(record.Type),
		Content:        record.Content,
		TargetPlayerID: record.TargetPlayerID,
		IsRevealed:     record.IsRevealed,
		RevealedAt:     record.RevealedAt,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func voteRecord(v *game.Vote) db.Vote {
	return db.Vote{
		ID:              v.ID,
		GameID:          v.GameID,
		SubmissionID:    v.SubmissionID,
		VoterPlayerID:   v.VoterPlayerID,
		GuessedPlayerID: v.GuessedPlayerID,
		IsCorrect:       v.IsCorrect,
		PointsAwarded:   v.PointsAwarded,
		CreatedAt:       v.CreatedAt,
	}
}

func voteFromRecord(record db.Vote) game.Vote {
	return game.Vote{
		ID:              record.ID,
		GameID:          record.GameID,
		SubmissionID:    record.SubmissionID,
		VoterPlayerID:   record.VoterPlayerID,
		GuessedPlayerID: record.GuessedPlayerID,
		IsCorrect:       record.IsCorrect,
		PointsAwarded:   record.PointsAwarded,
		CreatedAt:       record.CreatedAt,
	}
}
