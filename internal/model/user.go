package model

import "time"

// User links a Telegram account to the owner id its tasks are stored under.
type User struct {
	ID         uint   `gorm:"primaryKey"`
	OwnerID    string `gorm:"size:64;uniqueIndex;not null"`
	TelegramID int64  `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
