package models

import (
	"time"
)

// Like is unique on (PostID, UserID); the constraint lives in the schema as
// likes_post_user_key.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	PostID    uint      `json:"postId" gorm:"not null;uniqueIndex:likes_post_user_key"`
	UserID    uint      `json:"userId" gorm:"not null;uniqueIndex:likes_post_user_key"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}
