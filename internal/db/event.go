package db

import (
	"time"

	"gorm.io/datatypes"
)

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    string         `gorm:"size:36;index;not null"`
	PlayerID  *string        `gorm:"size:36;index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
