package game

import "time"

type Mode string

const (
	ModeGratitude Mode = "gratitude"
	ModeRoast     Mode = "roast"
	ModeBoth      Mode = "both"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeGratitude, ModeRoast, ModeBoth:
		return true
	}
	return false
}

// Allows reports whether submissions of the given type fit the game mode.
func (m Mode) Allows(kind SubmissionType) bool {
	switch m {
	case ModeBoth:
		return kind.Valid()
	case ModeGratitude:
		return kind == SubmissionGratitude
	case ModeRoast:
		return kind == SubmissionRoast
	}
	return false
}

type SubmissionType string

const (
	SubmissionGratitude SubmissionType = "gratitude"
	SubmissionRoast     SubmissionType = "roast"
)

func (t SubmissionType) Valid() bool {
	return t == SubmissionGratitude || t == SubmissionRoast
}

type Game struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	HostID       string     `json:"host_id"`
	Name         string     `json:"name"`
	Status       Status     `json:"status"`
	Mode         Mode       `json:"game_mode"`
	CurrentRound int        `json:"current_round"`
	MaxRounds    int        `json:"max_rounds"`
	Settings     Settings   `json:"settings"`
	Version      int64      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Player struct {
	ID           string    `json:"id"`
	GameID       string    `json:"game_id"`
	Name         string    `json:"name"`
	IsHost       bool      `json:"is_host"`
	SessionToken *string   `json:"-"`
	Score        int       `json:"score"`
	JoinedAt     time.Time `json:"joined_at"`
	LastActive   time.Time `json:"last_active"`
}

type Submission struct {
	ID             string         `json:"id"`
	GameID         string         `json:"game_id"`
	PlayerID       string         `json:"player_id,omitempty"`
	Round          int            `json:"round"`
	Type           SubmissionType `json:"type"`
	Content        string         `json:"content,omitempty"`
	TargetPlayerID *string        `json:"target_player_id"`
	IsRevealed     bool           `json:"is_revealed"`
	RevealedAt     *time.Time     `json:"revealed_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type Vote struct {
	ID              string    `json:"id"`
	GameID          string    `json:"game_id"`
	SubmissionID    string    `json:"submission_id"`
	VoterPlayerID   string    `json:"voter_player_id"`
	GuessedPlayerID *string   `json:"guessed_player_id"`
	IsCorrect       *bool     `json:"is_correct"`
	PointsAwarded   int       `json:"points_awarded"`
	CreatedAt       time.Time `json:"created_at"`
}

type Reaction struct {
	ID           string    `json:"id"`
	GameID       string    `json:"game_id"`
	SubmissionID string    `json:"submission_id"`
	PlayerID     string    `json:"player_id"`
	Emoji        string    `json:"emoji"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event is one entry of a game's audit trail.
type Event struct {
	ID        uint           `json:"id"`
	GameID    string         `json:"game_id"`
	PlayerID  *string        `json:"player_id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
