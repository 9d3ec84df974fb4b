package db

import (
	"time"

	"gorm.io/datatypes"
)

type Game struct {
	ID           string         `gorm:"primaryKey;size:36"`
	Code         string         `gorm:"size:12;uniqueIndex;not null"`
	HostID       string         `gorm:"size:128;index;not null"`
	Name         string         `gorm:"size:80;not null"`
	Status       string         `gorm:"size:32;not null;default:setup"`
	GameMode     string         `gorm:"size:32;not null"`
	CurrentRound int            `gorm:"not null;default:1"`
	MaxRounds    int            `gorm:"not null;default:1"`
	Settings     datatypes.JSON `gorm:"not null"`
	Version      int64          `gorm:"not null;default:0"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time `gorm:"not null"`
	Players      []Player
	Submissions  []Submission
	Events       []Event
}
