package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/genz-feed/api-go/metrics"
	"github.com/genz-feed/api-go/models"
	"github.com/genz-feed/api-go/store"
)

// MaxCommentLength is the longest comment body accepted, in characters.
const MaxCommentLength = 2000

// CommentService is the comment append engine. Comments are append-only and
// the post's comment counter is incremented in the same transaction as the
// insert.
type CommentService struct {
	store  store.CommentStore
	logger *slog.Logger
	opts   options
}

func NewCommentService(s store.CommentStore, opts ...Option) *CommentService {
	o := newOptions(opts)
	return &CommentService{store: s, logger: o.logger, opts: o}
}

// AddComment appends a comment by userID to postID.
func (s *CommentService) AddComment(ctx context.Context, postID, userID uint, content string) (comment *models.Comment, err error) {
	defer func() { metrics.RecordOperation("comment", resultLabel(err)) }()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewValidationError("content", "comment content is required")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, NewValidationError("content", "comment is too long")
	}

	comment = &models.Comment{
		PostID:    postID,
		AuthorID:  userID,
		Content:   content,
		CreatedAt: s.opts.now(),
	}
	count, err := s.store.AddComment(ctx, comment)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, postNotFound(postID)
	case err != nil:
		s.logger.Error("add comment failed", "post_id", postID, "user_id", userID, "error", err)
		return nil, storageError("add comment", err)
	}

	s.logger.Debug("comment added", "post_id", postID, "comment_id", comment.ID, "comments", count)
	return comment, nil
}

// ListComments returns postID's comments oldest first. A post without
// comments yields an empty slice; a missing post yields ErrNotFound.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments, err := s.store.ListComments(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, postNotFound(postID)
	}
	if err != nil {
		return nil, storageError("list comments", err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}
