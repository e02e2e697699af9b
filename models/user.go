package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null;type:varchar(20)" json:"username"`
	Email        string    `gorm:"unique;not null;type:varchar(255)" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"` // Don't expose password in JSON
	CreatedAt    time.Time `json:"createdAt"`
}

// Author is the public view of a User attached to content they wrote.
type Author struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `json:"username"`
}

func (Author) TableName() string { return "users" }
