package db

import "time"

type Reaction struct {
	ID           string    `gorm:"primaryKey;size:36"`
	GameID       string    `gorm:"size:36;index;not null"`
	SubmissionID string    `gorm:"size:36;index;not null"`
	PlayerID     string    `gorm:"size:36;not null"`
	Emoji        string    `gorm:"size:16;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}
