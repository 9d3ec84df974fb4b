package db

import "time"

type Player struct {
	ID           string    `gorm:"primaryKey;size:36"`
	GameID       string    `gorm:"size:36;index;not null;uniqueIndex:idx_players_game_name"`
	Name         string    `gorm:"size:64;not null;uniqueIndex:idx_players_game_name"`
	IsHost       bool      `gorm:"not null;default:false"`
	SessionToken *string   `gorm:"size:64;uniqueIndex"`
	Score        int       `gorm:"not null;default:0"`
	JoinedAt     time.Time `gorm:"not null"`
	LastActive   time.Time `gorm:"not null"`
	Submissions  []Submission
	Votes        []Vote `gorm:"foreignKey:VoterPlayerID"`
}
