package db

import "time"

type Vote struct {
	ID              string  `gorm:"primaryKey;size:36"`
	GameID          string  `gorm:"size:36;index;not null"`
	SubmissionID    string  `gorm:"size:36;not null;uniqueIndex:idx_votes_submission_voter"`
	VoterPlayerID   string  `gorm:"size:36;not null;uniqueIndex:idx_votes_submission_voter"`
	GuessedPlayerID *string `gorm:"size:36"`
	IsCorrect       *bool
	PointsAwarded   int       `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"not null"`
}
