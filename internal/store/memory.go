package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"grateful-roasted/internal/game"
)

// Memory keeps every record in process. It backs tests and runs without a
// database configured.
type Memory struct {
	*feed

	mu          sync.Mutex
	games       map[string]*game.Game
	codes       map[string]string
	players     map[string][]*game.Player
	submissions map[string][]*game.Submission
	votes       map[string][]game.Vote
	reactions   map[string][]game.Reaction
	events      map[string][]game.Event
	nextEventID uint
}

func NewMemory() *Memory {
	return &Memory{
		feed:        newFeed(),
		games:       make(map[string]*game.Game),
		codes:       make(map[string]string),
		players:     make(map[string][]*game.Player),
		submissions: make(map[string][]*game.Submission),
		votes:       make(map[string][]game.Vote),
		reactions:   make(map[string][]game.Reaction),
		events:      make(map[string][]game.Event),
		nextEventID: 1,
	}
}

func (m *Memory) CreateGame(ctx context.Context, g *game.Game, host *game.Player) error {
	m.mu.Lock()
	if _, exists := m.games[g.ID]; exists {
		m.mu.Unlock()
		return game.Conflict("game already exists")
	}
	if _, taken := m.codes[g.Code]; taken {
		m.mu.Unlock()
		return game.Conflict("game code already in use")
	}
	g.Version = 1
	stored := *g
	m.games[g.ID] = &stored
	m.codes[g.Code] = g.ID
	if host != nil {
		player := *host
		m.players[g.ID] = append(m.players[g.ID], &player)
	}
	m.mu.Unlock()

	m.publish(Change{Table: TableGames, Op: OpInsert, GameID: g.ID, Version: g.Version})
	return nil
}

func (m *Memory) GetGame(ctx context.Context, id string) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, game.NotFound("game not found")
	}
	found := *g
	return &found, nil
}

func (m *Memory) GetGameByCode(ctx context.Context, code string) (*game.Game, error) {
	m.mu.Lock()
	id, ok := m.codes[code]
	m.mu.Unlock()
	if !ok {
		return nil, game.NotFound("game not found")
	}
	return m.GetGame(ctx, id)
}

func (m *Memory) ListGamesByHost(ctx context.Context, hostID string, offset, limit int) ([]game.Game, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]game.Game, 0)
	for _, g := range m.games {
		if g.HostID == hostID {
			list = append(list, *g)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	total := int64(len(list))
	if offset >= len(list) {
		return []game.Game{}, total, nil
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, total, nil
}

func (m *Memory) UpdateGameStatus(ctx context.Context, id string, patch game.StatusPatch) (*game.Game, error) {
	m.mu.Lock()
	g, ok := m.games[id]
	if !ok {
		m.mu.Unlock()
		return nil, game.NotFound("game not found")
	}
	if g.Status != patch.From {
		m.mu.Unlock()
		return nil, game.Conflict("game status changed to %s", g.Status)
	}
	patch.Apply(g)
	g.Version++
	updated := *g
	m.mu.Unlock()

	m.publish(Change{Table: TableGames, Op: OpUpdate, GameID: id, Version: updated.Version})
	return &updated, nil
}

// bumpLocked advances the game's version for a child write. Callers hold mu.
func (m *Memory) bumpLocked(gameID string, at time.Time) int64 {
	g, ok := m.games[gameID]
	if !ok {
		return 0
	}
	g.Version++
	if !at.IsZero() {
		g.UpdatedAt = at
	}
	return g.Version
}

// guardLocked runs guard against the stored game. Callers hold mu.
func (m *Memory) guardLocked(gameID string, guard Guard) error {
	g, ok := m.games[gameID]
	if !ok {
		return game.NotFound("game not found")
	}
	if guard == nil {
		return nil
	}
	current := *g
	return guard(&current)
}

func (m *Memory) InsertPlayer(ctx context.Context, p *game.Player, guard Guard) error {
	m.mu.Lock()
	if err := m.guardLocked(p.GameID, guard); err != nil {
		m.mu.Unlock()
		return err
	}
	for _, existing := range m.players[p.GameID] {
		if existing.Name == p.Name {
			m.mu.Unlock()
			return game.ErrNameTaken
		}
	}
	player := *p
	m.players[p.GameID] = append(m.players[p.GameID], &player)
	version := m.bumpLocked(p.GameID, p.JoinedAt)
	m.mu.Unlock()

	m.publish(Change{Table: TablePlayers, Op: OpInsert, GameID: p.GameID, Version: version})
	return nil
}

func (m *Memory) GetPlayer(ctx context.Context, gameID, playerID string) (*game.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, player := range m.players[gameID] {
		if player.ID == playerID {
			found := *player
			return &found, nil
		}
	}
	return nil, game.NotFound("player not found")
}

func (m *Memory) GetPlayerByToken(ctx context.Context, gameID, token string) (*game.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, player := range m.players[gameID] {
		if player.SessionToken != nil && *player.SessionToken == token {
			found := *player
			return &found, nil
		}
	}
	return nil, game.NotFound("player not found")
}

func (m *Memory) ListPlayers(ctx context.Context, gameID string) ([]game.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playersLocked(gameID), nil
}

func (m *Memory) playersLocked(gameID string) []game.Player {
	list := make([]game.Player, 0, len(m.players[gameID]))
	for _, player := range m.players[gameID] {
		list = append(list, *player)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].JoinedAt.Equal(list[j].JoinedAt) {
			return list[i].JoinedAt.Before(list[j].JoinedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

func (m *Memory) TouchPlayer(ctx context.Context, playerID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, players := range m.players {
		for _, player := range players {
			if player.ID == playerID {
				player.LastActive = at
				return nil
			}
		}
	}
	return game.NotFound("player not found")
}

func (m *Memory) InsertSubmission(ctx context.Context, s *game.Submission, check func(g *game.Game, existing int) error) error {
	m.mu.Lock()
	g, ok := m.games[s.GameID]
	if !ok {
		m.mu.Unlock()
		return game.NotFound("game not found")
	}
	if check != nil {
		existing := 0
		for _, candidate := range m.submissions[s.GameID] {
			if candidate.PlayerID == s.PlayerID && candidate.Round == s.Round {
				existing++
			}
		}
		current := *g
		if err := check(&current, existing); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	submission := *s
	m.submissions[s.GameID] = append(m.submissions[s.GameID], &submission)
	version := m.bumpLocked(s.GameID, s.CreatedAt)
	m.mu.Unlock()

	m.publish(Change{Table: TableSubmissions, Op: OpInsert, GameID: s.GameID, Version: version})
	return nil
}

func (m *Memory) GetSubmission(ctx context.Context, gameID, id string) (*game.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, submission := range m.submissions[gameID] {
		if submission.ID == id {
			found := *submission
			return &found, nil
		}
	}
	return nil, game.NotFound("submission not found")
}

func (m *Memory) ListSubmissions(ctx context.Context, gameID string, filter SubmissionFilter) ([]game.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submissionsLocked(gameID, filter), nil
}

func (m *Memory) submissionsLocked(gameID string, filter SubmissionFilter) []game.Submission {
	list := make([]game.Submission, 0, len(m.submissions[gameID]))
	for _, submission := range m.submissions[gameID] {
		if filter.PlayerID != "" && submission.PlayerID != filter.PlayerID {
			continue
		}
		if filter.Round != 0 && submission.Round != filter.Round {
			continue
		}
		list = append(list, *submission)
	}
	game.SortByCreation(list)
	return list
}

func (m *Memory) CountSubmissions(ctx context.Context, gameID string, round int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissionsLocked(gameID, SubmissionFilter{Round: round})), nil
}

func (m *Memory) MarkRevealed(ctx context.Context, gameID, id string, at time.Time) (*game.Submission, error) {
	m.mu.Lock()
	var target *game.Submission
	for _, submission := range m.submissions[gameID] {
		if submission.ID == id {
			target = submission
			break
		}
	}
	if target == nil {
		m.mu.Unlock()
		return nil, game.NotFound("submission not found")
	}
	if target.IsRevealed {
		m.mu.Unlock()
		return nil, game.Conflict("submission already revealed")
	}
	target.IsRevealed = true
	revealedAt := at
	target.RevealedAt = &revealedAt
	target.UpdatedAt = at
	revealed := *target
	version := m.bumpLocked(gameID, at)
	m.mu.Unlock()

	m.publish(Change{Table: TableSubmissions, Op: OpUpdate, GameID: gameID, Version: version})
	return &revealed, nil
}

func (m *Memory) InsertVote(ctx context.Context, v *game.Vote, guard Guard) error {
	m.mu.Lock()
	if err := m.guardLocked(v.GameID, guard); err != nil {
		m.mu.Unlock()
		return err
	}
	for _, existing := range m.votes[v.GameID] {
		if existing.SubmissionID == v.SubmissionID && existing.VoterPlayerID == v.VoterPlayerID {
			m.mu.Unlock()
			return game.ErrAlreadyVoted
		}
	}
	m.votes[v.GameID] = append(m.votes[v.GameID], *v)
	version := m.bumpLocked(v.GameID, v.CreatedAt)
	m.mu.Unlock()

	m.publish(Change{Table: TableVotes, Op: OpInsert, GameID: v.GameID, Version: version})
	return nil
}

func (m *Memory) ListVotes(ctx context.Context, gameID string) ([]game.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.votesLocked(gameID), nil
}

func (m *Memory) InsertReaction(ctx context.Context, r *game.Reaction, guard Guard) error {
	m.mu.Lock()
	if err := m.guardLocked(r.GameID, guard); err != nil {
		m.mu.Unlock()
		return err
	}
	m.reactions[r.GameID] = append(m.reactions[r.GameID], *r)
	version := m.bumpLocked(r.GameID, r.CreatedAt)
	m.mu.Unlock()

	m.publish(Change{Table: TableReactions, Op: OpInsert, GameID: r.GameID, Version: version})
	return nil
}

func (m *Memory) ListReactions(ctx context.Context, gameID string) ([]game.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reactionsLocked(gameID), nil
}

func (m *Memory) AppendEvent(ctx context.Context, e *game.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextEventID
	m.nextEventID++
	m.events[e.GameID] = append(m.events[e.GameID], *e)
	return nil
}

func (m *Memory) ListEvents(ctx context.Context, gameID string) ([]game.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]game.Event{}, m.events[gameID]...), nil
}

func (m *Memory) Snapshot(ctx context.Context, gameID string) (*game.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, game.NotFound("game not found")
	}
	return &game.Snapshot{
		Game:        *g,
		Players:     m.playersLocked(gameID),
		Submissions: m.submissionsLocked(gameID, SubmissionFilter{}),
		Votes:       m.votesLocked(gameID),
		Reactions:   m.reactionsLocked(gameID),
	}, nil
}

// votesLocked and reactionsLocked order rows the way the gorm store does.
func (m *Memory) votesLocked(gameID string) []game.Vote {
	list := append([]game.Vote{}, m.votes[gameID]...)
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

func (m *Memory) reactionsLocked(gameID string) []game.Reaction {
	list := append([]game.Reaction{}, m.reactions[gameID]...)
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}
