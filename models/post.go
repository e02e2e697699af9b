package models

import (
	"time"
)

// Post is a published feed entry. LikeCount and CommentCount are denormalized
// aggregates and only change inside the same transaction as their source rows.
type Post struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       uint      `json:"userId" gorm:"not null;index"`
	Title        string    `json:"title" gorm:"not null;type:varchar(200)"`
	Content      string    `json:"content" gorm:"not null;type:text"`
	ImageURL     *string   `json:"imageUrl,omitempty" gorm:"column:image_url;type:text"`
	LikeCount    int64     `json:"likes" gorm:"column:like_count;not null;default:0"`
	CommentCount int64     `json:"comments" gorm:"column:comment_count;not null;default:0"`
	CreatedAt    time.Time `json:"createdAt" gorm:"not null"`
}
