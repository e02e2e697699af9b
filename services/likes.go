package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/genz-feed/api-go/metrics"
	"github.com/genz-feed/api-go/models"
	"github.com/genz-feed/api-go/store"
)

// LikeStore is the part of the entity store the like engine uses.
type LikeStore interface {
	store.LikeStore
	GetPost(ctx context.Context, id uint) (*models.Post, error)
}

// LikeStatus is a viewer's like state on one post.
type LikeStatus struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likes"`
}

// LikeService is the like toggle engine. At most one like exists per
// (post, user); the post's like counter moves in the same transaction as the
// like row.
type LikeService struct {
	store  LikeStore
	logger *slog.Logger
	opts   options
}

func NewLikeService(s LikeStore, opts ...Option) *LikeService {
	o := newOptions(opts)
	return &LikeService{store: s, logger: o.logger, opts: o}
}

// Like records userID's like on postID and returns the new like count.
// A second like by the same user fails with ErrAlreadyLiked and leaves the
// count untouched.
func (s *LikeService) Like(ctx context.Context, postID, userID uint) (count int64, err error) {
	defer func() { metrics.RecordOperation("like", resultLabel(err)) }()

	count, err = s.store.AddLike(ctx, postID, userID, s.opts.now())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return 0, postNotFound(postID)
	case errors.Is(err, store.ErrDuplicate):
		return 0, ErrAlreadyLiked
	case err != nil:
		s.logger.Error("like failed", "post_id", postID, "user_id", userID, "error", err)
		return 0, storageError("like post", err)
	}

	s.logger.Debug("post liked", "post_id", postID, "user_id", userID, "likes", count)
	return count, nil
}

// Unlike removes userID's like on postID if there is one and returns the
// resulting count. Unliking a post the user never liked, or one that no longer
// exists, is a successful no-op, so clients may call it speculatively.
func (s *LikeService) Unlike(ctx context.Context, postID, userID uint) (count int64, err error) {
	defer func() { metrics.RecordOperation("unlike", resultLabel(err)) }()

	count, removed, err := s.store.RemoveLike(ctx, postID, userID)
	if err != nil {
		s.logger.Error("unlike failed", "post_id", postID, "user_id", userID, "error", err)
		return 0, storageError("unlike post", err)
	}

	if removed {
		s.logger.Debug("post unliked", "post_id", postID, "user_id", userID, "likes", count)
	}
	return count, nil
}

// Status reports whether userID likes postID along with the current count.
func (s *LikeService) Status(ctx context.Context, postID, userID uint) (*LikeStatus, error) {
	post, err := s.store.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, postNotFound(postID)
	}
	if err != nil {
		return nil, storageError("get post", err)
	}

	liked, err := s.store.HasLike(ctx, postID, userID)
	if err != nil {
		return nil, storageError("get like", err)
	}
	return &LikeStatus{Liked: liked, LikeCount: post.LikeCount}, nil
}
