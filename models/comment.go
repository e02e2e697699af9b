package models

import (
	"time"
)

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	PostID    uint      `json:"postId" gorm:"not null;index"`
	AuthorID  uint      `json:"authorId" gorm:"column:author_id;not null"`
	Content   string    `json:"content" gorm:"not null;type:text"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`

	Author *Author `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}
