package db

import "time"

type Submission struct {
	ID             string  `gorm:"primaryKey;size:36"`
	GameID         string  `gorm:"size:36;index;not null"`
	PlayerID       string  `gorm:"size:36;index;not null"`
	Round          int     `gorm:"not null;default:1"`
	Type           string  `gorm:"size:16;not null"`
	Content        string  `gorm:"size:500;not null"`
	TargetPlayerID *string `gorm:"size:36;index"`
	IsRevealed     bool    `gorm:"not null;default:false"`
	RevealedAt     *time.Time
	CreatedAt      time.Time `gorm:"not null;index"`
	UpdatedAt      time.Time `gorm:"not null"`
	Votes          []Vote
	Reactions      []Reaction
}
