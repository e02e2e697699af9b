// Package store is the entity store for users, posts, likes and comments.
//
// Every mutation that touches a post counter runs as one unit together with the
// row it counts: either the Like/Comment row and the counter change both
// commit, or neither does. Mutations on the same post are serialized by the
// implementation (a row lock in Postgres, a mutex in memory).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/genz-feed/api-go/models"
)

var (
	// ErrNotFound is returned when the referenced user, post or like is absent.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint rejects an insert,
	// e.g. a second like for the same (post, user).
	ErrDuplicate = errors.New("duplicate record")
)

// FeedKey is the position of a post in the newest-first feed ordering
// (created_at DESC, id DESC).
type FeedKey struct {
	CreatedAt time.Time
	ID        uint
}

// KeyOf returns the feed position of p.
func KeyOf(p *models.Post) FeedKey {
	return FeedKey{CreatedAt: p.CreatedAt, ID: p.ID}
}

// Before reports whether k sorts before other in the feed, i.e. k is newer.
func (k FeedKey) Before(other FeedKey) bool {
	if !k.CreatedAt.Equal(other.CreatedAt) {
		return k.CreatedAt.After(other.CreatedAt)
	}
	return k.ID > other.ID
}

// Drift describes a post's cached counters against the rows they count.
type Drift struct {
	PostID         uint  `json:"postId"`
	LikeCount      int64 `json:"likeCount"`
	ActualLikes    int64 `json:"actualLikes"`
	CommentCount   int64 `json:"commentCount"`
	ActualComments int64 `json:"actualComments"`
}

// Drifted reports whether either counter disagreed with its rows.
func (d Drift) Drifted() bool {
	return d.LikeCount != d.ActualLikes || d.CommentCount != d.ActualComments
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	// DeletePost removes the post and its likes and comments atomically.
	DeletePost(ctx context.Context, id uint) error
	ListPostsByOwner(ctx context.Context, ownerID uint) ([]models.Post, error)
}

type LikeStore interface {
	// AddLike inserts the like and increments the post's like counter.
	// Returns ErrNotFound when the post is absent and ErrDuplicate when the
	// user already likes it.
	AddLike(ctx context.Context, postID, userID uint, at time.Time) (int64, error)
	// RemoveLike deletes the like if present and decrements the counter
	// (never below zero). removed is false when there was nothing to delete,
	// including when the post itself is gone; count is then 0.
	RemoveLike(ctx context.Context, postID, userID uint) (count int64, removed bool, err error)
	HasLike(ctx context.Context, postID, userID uint) (bool, error)
}

type CommentStore interface {
	// AddComment inserts the comment, assigning its ID, and increments the
	// post's comment counter.
	AddComment(ctx context.Context, comment *models.Comment) (int64, error)
	// ListComments returns the post's comments oldest first, or ErrNotFound
	// when the post itself is absent.
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
}

type FeedStore interface {
	// ListPostsPage returns one offset window of the feed and the total post
	// count observed in the same snapshot.
	ListPostsPage(ctx context.Context, offset, limit int) ([]models.Post, int64, error)
	// ListPostsAfter returns up to limit posts strictly after the key in feed
	// order; a nil key starts from the newest post.
	ListPostsAfter(ctx context.Context, after *FeedKey, limit int) ([]models.Post, error)
}

type CounterStore interface {
	// PostIDs returns up to limit post IDs greater than afterID, ascending.
	PostIDs(ctx context.Context, afterID uint, limit int) ([]uint, error)
	// RecountPost recomputes both counters from their rows, stores the
	// result, and reports what was cached before.
	RecountPost(ctx context.Context, postID uint) (Drift, error)
}

// Store is the complete entity store.
type Store interface {
	UserStore
	PostStore
	LikeStore
	CommentStore
	FeedStore
	CounterStore
	Close() error
}
